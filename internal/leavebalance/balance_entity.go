package leavebalance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LeaveBalance is the per (company, employee, category, year) day ledger for
// accrual leave categories. Non-accrual categories carry no row.
//
// Invariants, enforced by Apply and never by callers directly:
//
//	used >= 0, pending >= 0
//	used + pending <= total
type LeaveBalance struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_balance_scope"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_balance_scope"`
	Category   string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_balance_scope"`
	Year       int       `gorm:"not null;uniqueIndex:idx_balance_scope"`

	TotalDays   decimal.Decimal `gorm:"type:numeric(6,1);not null"`
	UsedDays    decimal.Decimal `gorm:"type:numeric(6,1);not null;default:0"`
	PendingDays decimal.Decimal `gorm:"type:numeric(6,1);not null;default:0"`

	// Version backs the guarded UPDATE in the repository; bumped on every save.
	Version int64 `gorm:"not null;default:1"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (LeaveBalance) TableName() string { return "leave_balances" }

// Remaining is the capacity still open to new reservations.
func (b LeaveBalance) Remaining() decimal.Decimal {
	return b.TotalDays.Sub(b.UsedDays).Sub(b.PendingDays)
}

// Sufficient answers the authorizer question: can `requested` days still be
// reserved against this balance?
func (b LeaveBalance) Sufficient(requested decimal.Decimal) bool {
	return b.Remaining().GreaterThanOrEqual(requested)
}
