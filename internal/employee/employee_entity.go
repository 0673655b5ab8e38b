package employee

import (
	"time"

	"github.com/google/uuid"
)

type Employee struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	CompanyID    uuid.UUID  `gorm:"type:uuid;index;uniqueIndex:uq_employee_number"`
	DepartmentID *uuid.UUID `gorm:"type:uuid"`
	// ManagerID points at another employee in the same company; leave
	// decisions route through this relationship.
	ManagerID *uuid.UUID `gorm:"type:uuid;index"`

	FullName         string
	Email            string `gorm:"uniqueIndex:uq_employee_email"`
	EmployeeNumber   string `gorm:"type:varchar(20);uniqueIndex:uq_employee_number"`
	Phone            string `gorm:"type:varchar(30)"`
	HireDate         time.Time
	EmploymentStatus string `gorm:"type:varchar(20);default:'ACTIVE'"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
