package events

import "time"

const LeaveRequestTopic = "hr.leave.request.v1"

const (
	LeaveEventSubmitted = "leave.request.submitted"
	LeaveEventApproved  = "leave.request.approved"
	LeaveEventRejected  = "leave.request.rejected"
	LeaveEventCancelled = "leave.request.cancelled"
)

type LeaveRequestEvent struct {
	EventType  string    `json:"event_type"`
	LeaveID    string    `json:"leave_id"`
	CompanyID  string    `json:"company_id"`
	EmployeeID string    `json:"employee_id"`
	Category   string    `json:"category"`
	Status     string    `json:"status"`
	TotalDays  string    `json:"total_days"`
	ApproverID string    `json:"approver_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
