package leave

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreateLeaveRequest struct {
	EmployeeID   string `json:"employee_id" binding:"required,uuid"`
	Category     string `json:"category" binding:"required,oneof=ANNUAL SICK UNPAID OTHER"`
	StartDate    string `json:"start_date" binding:"required"`
	EndDate      string `json:"end_date" binding:"required"`
	HalfDayStart bool   `json:"half_day_start"`
	HalfDayEnd   bool   `json:"half_day_end"`
	Reason       string `json:"reason"`
	// Backfill asks to skip the past-date check; honored only for callers
	// holding the leave:backfill permission.
	Backfill bool `json:"backfill"`
}

type RejectLeaveRequest struct {
	RejectionReason string `json:"rejection_reason" binding:"required"`
}

type LeaveResponse struct {
	ID              string          `json:"id"`
	CompanyID       string          `json:"company_id"`
	EmployeeID      string          `json:"employee_id"`
	Category        string          `json:"category"`
	StartDate       string          `json:"start_date"`
	EndDate         string          `json:"end_date"`
	HalfDayStart    bool            `json:"half_day_start"`
	HalfDayEnd      bool            `json:"half_day_end"`
	TotalDays       decimal.Decimal `json:"total_days"`
	Reason          string          `json:"reason"`
	Status          string          `json:"status"`
	CreatedBy       string          `json:"created_by"`
	ApprovedBy      *string         `json:"approved_by,omitempty"`
	DecidedAt       *string         `json:"decided_at,omitempty"`
	RejectionReason *string         `json:"rejection_reason,omitempty"`
}

func mapToResponse(l Leave) LeaveResponse {
	resp := LeaveResponse{
		ID:           l.ID.String(),
		CompanyID:    l.CompanyID.String(),
		EmployeeID:   l.EmployeeID.String(),
		Category:     l.Category.String(),
		StartDate:    l.StartDate.Format("2006-01-02"),
		EndDate:      l.EndDate.Format("2006-01-02"),
		HalfDayStart: l.HalfDayStart,
		HalfDayEnd:   l.HalfDayEnd,
		TotalDays:    l.TotalDays,
		Reason:       l.Reason,
		Status:       l.Status.String(),
		CreatedBy:    l.CreatedBy.String(),
	}
	if l.ApprovedBy != nil {
		v := l.ApprovedBy.String()
		resp.ApprovedBy = &v
	}
	if l.DecidedAt != nil {
		v := l.DecidedAt.Format(time.RFC3339)
		resp.DecidedAt = &v
	}
	resp.RejectionReason = l.RejectionReason
	return resp
}

func mapToListResponse(leaves []Leave) []LeaveResponse {
	resp := make([]LeaveResponse, len(leaves))
	for i, l := range leaves {
		resp[i] = mapToResponse(l)
	}
	return resp
}
