package leave

import (
	"database/sql/driver"
	"fmt"
)

// LeaveStatus is a closed enumeration. Values only enter the system through
// the exported constants or ParseStatus/Scan, both of which reject anything
// outside the set, so an unknown status cannot reach the state machine.
type LeaveStatus string

const (
	StatusPending   LeaveStatus = "PENDING"
	StatusApproved  LeaveStatus = "APPROVED"
	StatusRejected  LeaveStatus = "REJECTED"
	StatusCancelled LeaveStatus = "CANCELLED"
)

func ParseStatus(v string) (LeaveStatus, error) {
	s := LeaveStatus(v)
	if !s.Valid() {
		return "", fmt.Errorf("unknown leave status %q", v)
	}
	return s, nil
}

func (s LeaveStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is defined out of s.
func (s LeaveStatus) Terminal() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// Blocking reports whether a request in this status reserves the employee's
// calendar: pending and approved requests block overlapping submissions,
// rejected and cancelled ones never do.
func (s LeaveStatus) Blocking() bool {
	return s == StatusPending || s == StatusApproved
}

// CanTransition is the transition table. Pending is the only state with
// outgoing edges; approval, rejection and cancellation are one-way.
func (s LeaveStatus) CanTransition(to LeaveStatus) bool {
	if s != StatusPending {
		return false
	}
	switch to {
	case StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

func (s LeaveStatus) String() string { return string(s) }

func (s *LeaveStatus) Scan(value any) error {
	var raw string
	switch v := value.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("cannot scan %T into LeaveStatus", value)
	}
	parsed, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s LeaveStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid leave status %q", string(s))
	}
	return string(s), nil
}
