package leave

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	leaveerrors "go-hrms/internal/leave/errors"
)

//go:generate mockgen -source=leave_repo.go -destination=mock/leave_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	// LockEmployee takes the employee's row lock; concurrent submissions for
	// the same employee serialize on it. Must run through WithTx.
	LockEmployee(ctx context.Context, companyID, employeeID string) error
	// Create inserts the request row; must run through WithTx.
	Create(ctx context.Context, l *Leave) error
	FindByIDAndCompany(ctx context.Context, companyID, id string) (*Leave, error)
	// FindByIDForUpdate loads the request with a row lock; must run through WithTx.
	FindByIDForUpdate(ctx context.Context, companyID, id string) (*Leave, error)
	FindAllByCompany(ctx context.Context, companyID string) ([]Leave, error)
	FindAllByEmployee(ctx context.Context, companyID, employeeID string) ([]Leave, error)
	// ListBlockingInRange returns the employee's Pending/Approved requests whose
	// dates touch [start, end], locking the matched rows; must run through WithTx.
	ListBlockingInRange(ctx context.Context, companyID, employeeID string, start, end time.Time, excludeID *string) ([]Leave, error)
	// Update persists a status transition; must run through WithTx.
	Update(ctx context.Context, l *Leave) error
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

const leaveColumns = `
id, company_id, employee_id, category, start_date, end_date,
half_day_start, half_day_end, total_days, reason, status,
created_by, approved_by, decided_at, rejection_reason, created_at, updated_at
`

const lockEmployeeQuery = `
SELECT id
FROM employees
WHERE company_id = $1 AND id = $2
FOR UPDATE
`

func (r *repository) LockEmployee(ctx context.Context, companyID, employeeID string) error {
	if r.tx == nil {
		return errTxRequired
	}
	var id uuid.UUID
	err := r.tx.QueryRowContext(ctx, lockEmployeeQuery, companyID, employeeID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return leaveerrors.ErrEmployeeNotFound
	}
	return err
}

const createQuery = `
INSERT INTO leave_requests (
	id, company_id, employee_id, category, start_date, end_date,
	half_day_start, half_day_end, total_days, reason, status, created_by
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
`

func (r *repository) Create(ctx context.Context, l *Leave) error {
	if r.tx == nil {
		return errTxRequired
	}
	_, err := r.tx.ExecContext(
		ctx, createQuery,
		l.ID, l.CompanyID, l.EmployeeID, l.Category, l.StartDate, l.EndDate,
		l.HalfDayStart, l.HalfDayEnd, l.TotalDays, l.Reason, l.Status, l.CreatedBy,
	)
	return err
}

func (r *repository) FindByIDAndCompany(ctx context.Context, companyID, id string) (*Leave, error) {
	var l Leave
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		First(&l, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, leaveerrors.ErrLeaveNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

const findForUpdateQuery = `
SELECT ` + leaveColumns + `
FROM leave_requests
WHERE company_id = $1 AND id = $2
FOR UPDATE
`

func (r *repository) FindByIDForUpdate(ctx context.Context, companyID, id string) (*Leave, error) {
	if r.tx == nil {
		return nil, errTxRequired
	}
	row := r.tx.QueryRowContext(ctx, findForUpdateQuery, companyID, id)
	l, err := scanLeave(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, leaveerrors.ErrLeaveNotFound
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (r *repository) FindAllByCompany(ctx context.Context, companyID string) ([]Leave, error) {
	var leaves []Leave
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("start_date DESC").
		Find(&leaves).Error
	return leaves, err
}

func (r *repository) FindAllByEmployee(ctx context.Context, companyID, employeeID string) ([]Leave, error) {
	var leaves []Leave
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Where("employee_id = ?", employeeID).
		Order("start_date DESC").
		Find(&leaves).Error
	return leaves, err
}

// The date filter is a coarse superset; the service applies the exact
// closed-interval predicate. FOR UPDATE keeps the scanned rows stable until
// the transaction commits.
const listBlockingQuery = `
SELECT ` + leaveColumns + `
FROM leave_requests
WHERE company_id = $1
  AND employee_id = $2
  AND status IN ($3, $4)
  AND start_date <= $6
  AND end_date >= $5
  AND ($7::uuid IS NULL OR id <> $7)
FOR UPDATE
`

func (r *repository) ListBlockingInRange(ctx context.Context, companyID, employeeID string, start, end time.Time, excludeID *string) ([]Leave, error) {
	if r.tx == nil {
		return nil, errTxRequired
	}

	var exclude any
	if excludeID != nil && *excludeID != "" {
		exclude = *excludeID
	}

	rows, err := r.tx.QueryContext(
		ctx, listBlockingQuery,
		companyID, employeeID, StatusPending, StatusApproved, start, end, exclude,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leaves []Leave
	for rows.Next() {
		l, err := scanLeave(rows)
		if err != nil {
			return nil, err
		}
		leaves = append(leaves, *l)
	}
	return leaves, rows.Err()
}

const updateQuery = `
UPDATE leave_requests
SET status = $2, approved_by = $3, decided_at = $4, rejection_reason = $5, updated_at = NOW()
WHERE id = $1
`

func (r *repository) Update(ctx context.Context, l *Leave) error {
	if r.tx == nil {
		return errTxRequired
	}

	var approvedBy any
	if l.ApprovedBy != nil {
		approvedBy = *l.ApprovedBy
	}
	var decidedAt any
	if l.DecidedAt != nil {
		decidedAt = *l.DecidedAt
	}
	var rejectionReason any
	if l.RejectionReason != nil {
		rejectionReason = *l.RejectionReason
	}

	_, err := r.tx.ExecContext(ctx, updateQuery, l.ID, l.Status, approvedBy, decidedAt, rejectionReason)
	return err
}

var errTxRequired = errors.New("leave repository: operation requires a transaction")

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLeave(row rowScanner) (*Leave, error) {
	var (
		l               Leave
		approvedBy      sql.NullString
		decidedAt       sql.NullTime
		rejectionReason sql.NullString
	)
	err := row.Scan(
		&l.ID, &l.CompanyID, &l.EmployeeID, &l.Category, &l.StartDate, &l.EndDate,
		&l.HalfDayStart, &l.HalfDayEnd, &l.TotalDays, &l.Reason, &l.Status,
		&l.CreatedBy, &approvedBy, &decidedAt, &rejectionReason, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if approvedBy.Valid {
		id, err := uuid.Parse(approvedBy.String)
		if err != nil {
			return nil, err
		}
		l.ApprovedBy = &id
	}
	if decidedAt.Valid {
		t := decidedAt.Time
		l.DecidedAt = &t
	}
	if rejectionReason.Valid {
		v := rejectionReason.String
		l.RejectionReason = &v
	}
	return &l, nil
}
