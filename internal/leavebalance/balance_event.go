package leavebalance

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	balanceerrors "go-hrms/internal/leavebalance/errors"
)

type EventKind string

const (
	// EventReserve holds days for a newly submitted request: pending += days.
	EventReserve EventKind = "RESERVE"
	// EventCommit consumes a reservation on approval: pending -= days, used += days.
	EventCommit EventKind = "COMMIT"
	// EventRelease frees a reservation on rejection or cancellation: pending -= days.
	EventRelease EventKind = "RELEASE"
)

// BalanceEvent ties a balance mutation to the request transition that caused
// it; balances are never mutated outside an event.
type BalanceEvent struct {
	Kind      EventKind
	Days      decimal.Decimal
	RequestID uuid.UUID
}

// Apply returns the balance after the event, or an error if the event would
// break an invariant. It is a pure function: the receiver is never modified,
// persistence happens elsewhere.
func (b LeaveBalance) Apply(ev BalanceEvent) (LeaveBalance, error) {
	if !ev.Days.IsPositive() {
		return LeaveBalance{}, balanceerrors.ErrInvalidAmount
	}

	switch ev.Kind {
	case EventReserve:
		if !b.Sufficient(ev.Days) {
			return LeaveBalance{}, balanceerrors.ErrInsufficientBalance
		}
		b.PendingDays = b.PendingDays.Add(ev.Days)
	case EventCommit:
		if b.PendingDays.LessThan(ev.Days) {
			return LeaveBalance{}, balanceerrors.ErrLedgerInvariant
		}
		b.PendingDays = b.PendingDays.Sub(ev.Days)
		b.UsedDays = b.UsedDays.Add(ev.Days)
	case EventRelease:
		if b.PendingDays.LessThan(ev.Days) {
			return LeaveBalance{}, balanceerrors.ErrLedgerInvariant
		}
		b.PendingDays = b.PendingDays.Sub(ev.Days)
	default:
		return LeaveBalance{}, balanceerrors.ErrInvalidAmount
	}

	return b, nil
}
