package leavebalance

import (
	"context"
	"database/sql"
	"errors"

	"gorm.io/gorm"

	balanceerrors "go-hrms/internal/leavebalance/errors"
	"go-hrms/internal/shared/apperror"
)

//go:generate mockgen -source=balance_repo.go -destination=mock/balance_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, b *LeaveBalance) error
	FindByScope(ctx context.Context, companyID, employeeID, category string, year int) (*LeaveBalance, error)
	// FindForUpdate reads the balance row with a row-level lock and must be
	// called through WithTx; the lock is held until the transaction ends.
	FindForUpdate(ctx context.Context, companyID, employeeID, category string, year int) (*LeaveBalance, error)
	// Save persists a mutated balance guarded by its version; a stale version
	// reports ErrConcurrentModification.
	Save(ctx context.Context, b *LeaveBalance) error
	FindAllByEmployee(ctx context.Context, companyID, employeeID string) ([]LeaveBalance, error)
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

func (r *repository) Create(ctx context.Context, b *LeaveBalance) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *repository) FindByScope(ctx context.Context, companyID, employeeID, category string, year int) (*LeaveBalance, error) {
	var b LeaveBalance
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Where("employee_id = ?", employeeID).
		Where("category = ?", category).
		Where("year = ?", year).
		First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, balanceerrors.ErrBalanceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

const findForUpdateQuery = `
SELECT id, company_id, employee_id, category, year,
       total_days, used_days, pending_days, version, created_at, updated_at
FROM leave_balances
WHERE company_id = $1 AND employee_id = $2 AND category = $3 AND year = $4
FOR UPDATE NOWAIT
`

func (r *repository) FindForUpdate(ctx context.Context, companyID, employeeID, category string, year int) (*LeaveBalance, error) {
	if r.tx == nil {
		return nil, balanceerrors.ErrLedgerInvariant
	}

	var b LeaveBalance
	row := r.tx.QueryRowContext(ctx, findForUpdateQuery, companyID, employeeID, category, year)
	err := row.Scan(
		&b.ID, &b.CompanyID, &b.EmployeeID, &b.Category, &b.Year,
		&b.TotalDays, &b.UsedDays, &b.PendingDays, &b.Version, &b.CreatedAt, &b.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, balanceerrors.ErrBalanceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

const saveQuery = `
UPDATE leave_balances
SET used_days = $2, pending_days = $3, version = version + 1, updated_at = NOW()
WHERE id = $1 AND version = $4
`

func (r *repository) Save(ctx context.Context, b *LeaveBalance) error {
	if r.tx == nil {
		return balanceerrors.ErrLedgerInvariant
	}

	res, err := r.tx.ExecContext(ctx, saveQuery, b.ID, b.UsedDays, b.PendingDays, b.Version)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperror.ErrConcurrentModification
	}
	return nil
}

func (r *repository) FindAllByEmployee(ctx context.Context, companyID, employeeID string) ([]LeaveBalance, error) {
	var balances []LeaveBalance
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Where("employee_id = ?", employeeID).
		Order("year DESC, category ASC").
		Find(&balances).Error
	return balances, err
}
