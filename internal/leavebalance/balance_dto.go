package leavebalance

import "github.com/shopspring/decimal"

type ProvisionBalanceRequest struct {
	EmployeeID string          `json:"employee_id" binding:"required,uuid"`
	Category   string          `json:"category" binding:"required,oneof=ANNUAL SICK"`
	Year       int             `json:"year" binding:"required"`
	TotalDays  decimal.Decimal `json:"total_days" binding:"required"`
}

type BalanceResponse struct {
	ID            string          `json:"id"`
	CompanyID     string          `json:"company_id"`
	EmployeeID    string          `json:"employee_id"`
	Category      string          `json:"category"`
	Year          int             `json:"year"`
	TotalDays     decimal.Decimal `json:"total_days"`
	UsedDays      decimal.Decimal `json:"used_days"`
	PendingDays   decimal.Decimal `json:"pending_days"`
	RemainingDays decimal.Decimal `json:"remaining_days"`
}

func mapToResponse(b LeaveBalance) BalanceResponse {
	return BalanceResponse{
		ID:            b.ID.String(),
		CompanyID:     b.CompanyID.String(),
		EmployeeID:    b.EmployeeID.String(),
		Category:      b.Category,
		Year:          b.Year,
		TotalDays:     b.TotalDays,
		UsedDays:      b.UsedDays,
		PendingDays:   b.PendingDays,
		RemainingDays: b.Remaining(),
	}
}

func mapToListResponse(balances []LeaveBalance) []BalanceResponse {
	resp := make([]BalanceResponse, len(balances))
	for i, b := range balances {
		resp[i] = mapToResponse(b)
	}
	return resp
}
