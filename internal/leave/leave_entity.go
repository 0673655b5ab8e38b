package leave

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Leave struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID  uuid.UUID `gorm:"type:uuid;not null;index:idx_leaves_company_status"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;index:idx_leaves_employee_dates"`

	Category     LeaveCategory   `gorm:"type:varchar(20);not null;default:'ANNUAL'"`
	StartDate    time.Time       `gorm:"type:date;not null;index:idx_leaves_employee_dates"`
	EndDate      time.Time       `gorm:"type:date;not null;index:idx_leaves_employee_dates"`
	HalfDayStart bool            `gorm:"not null;default:false"`
	HalfDayEnd   bool            `gorm:"not null;default:false"`
	TotalDays    decimal.Decimal `gorm:"type:numeric(5,1);not null"`
	Reason       string          `gorm:"type:varchar(500)"`

	Status          LeaveStatus `gorm:"type:varchar(20);not null;default:'PENDING';index:idx_leaves_company_status"`
	CreatedBy       uuid.UUID   `gorm:"type:uuid;not null"`
	ApprovedBy      *uuid.UUID  `gorm:"type:uuid"`
	DecidedAt       *time.Time
	RejectionReason *string `gorm:"type:varchar(500)"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Leave) TableName() string { return "leave_requests" }

// BalanceYear is the ledger year a request draws against, derived from the
// start date.
func (l *Leave) BalanceYear() int { return l.StartDate.Year() }
