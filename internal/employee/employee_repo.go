package employee

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"

	"go-hrms/internal/tenant"
)

//go:generate mockgen -source=employee_repo.go -destination=mock/employee_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, empl *Employee) error
	FindAllByCompany(ctx context.Context, companyID string) ([]Employee, error)
	FindOptionsByCompany(ctx context.Context, companyID string) ([]Employee, error)
	FindByIDAndCompany(ctx context.Context, companyID string, id string) (*Employee, error)
	FindByID(ctx context.Context, id string) (*Employee, error)
	GetDepartmentName(ctx context.Context, companyID, departmentID string) (string, error)
	ExistsInCompany(ctx context.Context, companyID, id string) (bool, error)
	Update(ctx context.Context, empl *Employee) error
	Delete(ctx context.Context, companyID string, id string) error
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

const insertEmployeeQuery = `
INSERT INTO employees (
	id, company_id, department_id, manager_id, full_name, email,
	employee_number, phone, hire_date, employment_status, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
`

func (r *repository) Create(ctx context.Context, empl *Employee) error {
	now := time.Now()
	empl.CreatedAt = now
	empl.UpdatedAt = now

	if r.tx == nil {
		return r.db.WithContext(ctx).Create(empl).Error
	}

	_, err := r.tx.ExecContext(ctx, insertEmployeeQuery,
		empl.ID, empl.CompanyID, empl.DepartmentID, empl.ManagerID,
		empl.FullName, empl.Email, empl.EmployeeNumber, empl.Phone,
		empl.HireDate, empl.EmploymentStatus, empl.CreatedAt, empl.UpdatedAt,
	)
	return err
}

func (r *repository) FindAllByCompany(ctx context.Context, companyID string) ([]Employee, error) {
	var empls []Employee
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Find(&empls).Error
	return empls, err
}

func (r *repository) FindOptionsByCompany(ctx context.Context, companyID string) ([]Employee, error) {
	var empls []Employee
	err := r.db.WithContext(ctx).
		Select("id", "company_id", "full_name", "email", "employee_number", "hire_date", "employment_status").
		Scopes(tenant.Scope(companyID)).
		Order("full_name ASC").
		Find(&empls).Error
	return empls, err
}

func (r *repository) FindByIDAndCompany(ctx context.Context, companyID string, id string) (*Employee, error) {
	var empl Employee
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		First(&empl, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &empl, nil
}

func (r *repository) FindByID(ctx context.Context, id string) (*Employee, error) {
	var empl Employee
	err := r.db.WithContext(ctx).First(&empl, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &empl, nil
}

func (r *repository) GetDepartmentName(ctx context.Context, companyID, departmentID string) (string, error) {
	var name string
	err := r.db.WithContext(ctx).
		Table("departments").
		Select("name").
		Where("id = ?", departmentID).
		Where("company_id = ?", companyID).
		Scan(&name).Error
	return name, err
}

func (r *repository) ExistsInCompany(ctx context.Context, companyID, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Employee{}).
		Scopes(tenant.Scope(companyID)).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) Update(ctx context.Context, empl *Employee) error {
	return r.db.WithContext(ctx).Save(empl).Error
}

func (r *repository) Delete(ctx context.Context, companyID string, id string) error {
	return r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Delete(&Employee{}, "id = ?", id).Error
}
