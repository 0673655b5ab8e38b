package leave_test

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"go-hrms/internal/leave"
	leaveerrors "go-hrms/internal/leave/errors"
	"go-hrms/internal/leavebalance"
	balanceerrors "go-hrms/internal/leavebalance/errors"
	"go-hrms/internal/shared/apperror"
)

type fakeLeaveRepository struct {
	lockEmployeeFn        func(ctx context.Context, companyID, employeeID string) error
	createFn              func(ctx context.Context, l *leave.Leave) error
	findByIDAndCompanyFn  func(ctx context.Context, companyID, id string) (*leave.Leave, error)
	findByIDForUpdateFn   func(ctx context.Context, companyID, id string) (*leave.Leave, error)
	findAllByCompanyFn    func(ctx context.Context, companyID string) ([]leave.Leave, error)
	findAllByEmployeeFn   func(ctx context.Context, companyID, employeeID string) ([]leave.Leave, error)
	listBlockingInRangeFn func(ctx context.Context, companyID, employeeID string, start, end time.Time, excludeID *string) ([]leave.Leave, error)
	updateFn              func(ctx context.Context, l *leave.Leave) error
}

func (f *fakeLeaveRepository) WithTx(tx *sql.Tx) leave.Repository { return f }

func (f *fakeLeaveRepository) LockEmployee(ctx context.Context, companyID, employeeID string) error {
	if f.lockEmployeeFn != nil {
		return f.lockEmployeeFn(ctx, companyID, employeeID)
	}
	return nil
}

func (f *fakeLeaveRepository) Create(ctx context.Context, l *leave.Leave) error {
	if f.createFn != nil {
		return f.createFn(ctx, l)
	}
	return nil
}

func (f *fakeLeaveRepository) FindByIDAndCompany(ctx context.Context, companyID, id string) (*leave.Leave, error) {
	if f.findByIDAndCompanyFn != nil {
		return f.findByIDAndCompanyFn(ctx, companyID, id)
	}
	return nil, leaveerrors.ErrLeaveNotFound
}

func (f *fakeLeaveRepository) FindByIDForUpdate(ctx context.Context, companyID, id string) (*leave.Leave, error) {
	if f.findByIDForUpdateFn != nil {
		return f.findByIDForUpdateFn(ctx, companyID, id)
	}
	return nil, leaveerrors.ErrLeaveNotFound
}

func (f *fakeLeaveRepository) FindAllByCompany(ctx context.Context, companyID string) ([]leave.Leave, error) {
	if f.findAllByCompanyFn != nil {
		return f.findAllByCompanyFn(ctx, companyID)
	}
	return nil, nil
}

func (f *fakeLeaveRepository) FindAllByEmployee(ctx context.Context, companyID, employeeID string) ([]leave.Leave, error) {
	if f.findAllByEmployeeFn != nil {
		return f.findAllByEmployeeFn(ctx, companyID, employeeID)
	}
	return nil, nil
}

func (f *fakeLeaveRepository) ListBlockingInRange(ctx context.Context, companyID, employeeID string, start, end time.Time, excludeID *string) ([]leave.Leave, error) {
	if f.listBlockingInRangeFn != nil {
		return f.listBlockingInRangeFn(ctx, companyID, employeeID, start, end, excludeID)
	}
	return nil, nil
}

func (f *fakeLeaveRepository) Update(ctx context.Context, l *leave.Leave) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, l)
	}
	return nil
}

type fakeBalanceRepository struct {
	createFn           func(ctx context.Context, b *leavebalance.LeaveBalance) error
	findByScopeFn      func(ctx context.Context, companyID, employeeID, category string, year int) (*leavebalance.LeaveBalance, error)
	findForUpdateFn    func(ctx context.Context, companyID, employeeID, category string, year int) (*leavebalance.LeaveBalance, error)
	saveFn             func(ctx context.Context, b *leavebalance.LeaveBalance) error
	findAllByEmployeeF func(ctx context.Context, companyID, employeeID string) ([]leavebalance.LeaveBalance, error)
}

func (f *fakeBalanceRepository) WithTx(tx *sql.Tx) leavebalance.Repository { return f }

func (f *fakeBalanceRepository) Create(ctx context.Context, b *leavebalance.LeaveBalance) error {
	if f.createFn != nil {
		return f.createFn(ctx, b)
	}
	return nil
}

func (f *fakeBalanceRepository) FindByScope(ctx context.Context, companyID, employeeID, category string, year int) (*leavebalance.LeaveBalance, error) {
	if f.findByScopeFn != nil {
		return f.findByScopeFn(ctx, companyID, employeeID, category, year)
	}
	return nil, balanceerrors.ErrBalanceNotFound
}

func (f *fakeBalanceRepository) FindForUpdate(ctx context.Context, companyID, employeeID, category string, year int) (*leavebalance.LeaveBalance, error) {
	if f.findForUpdateFn != nil {
		return f.findForUpdateFn(ctx, companyID, employeeID, category, year)
	}
	return nil, balanceerrors.ErrBalanceNotFound
}

func (f *fakeBalanceRepository) Save(ctx context.Context, b *leavebalance.LeaveBalance) error {
	if f.saveFn != nil {
		return f.saveFn(ctx, b)
	}
	return nil
}

func (f *fakeBalanceRepository) FindAllByEmployee(ctx context.Context, companyID, employeeID string) ([]leavebalance.LeaveBalance, error) {
	if f.findAllByEmployeeF != nil {
		return f.findAllByEmployeeF(ctx, companyID, employeeID)
	}
	return nil, nil
}

type fakeAuthority struct {
	canDecideFn func(ctx context.Context, companyID, approverID, employeeID string) (bool, error)
}

func (f *fakeAuthority) CanDecideFor(ctx context.Context, companyID, approverID, employeeID string) (bool, error) {
	if f.canDecideFn != nil {
		return f.canDecideFn(ctx, companyID, approverID, employeeID)
	}
	return true, nil
}

type leaveServiceDeps struct {
	db        *sql.DB
	sqlMock   sqlmock.Sqlmock
	service   leave.Service
	repo      *fakeLeaveRepository
	balances  *fakeBalanceRepository
	authority *fakeAuthority
}

func setupLeaveServiceTest(t *testing.T) *leaveServiceDeps {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)

	repo := &fakeLeaveRepository{}
	balances := &fakeBalanceRepository{}
	authority := &fakeAuthority{}
	svc := leave.NewService(db, repo, balances, authority)

	return &leaveServiceDeps{
		db:        db,
		sqlMock:   sqlMock,
		service:   svc,
		repo:      repo,
		balances:  balances,
		authority: authority,
	}
}

func expectTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func futureDate(daysAhead int) string {
	return time.Now().UTC().AddDate(0, 0, daysAhead).Format("2006-01-02")
}

func annualBalance(companyID, employeeID string, total, used, pending int64) *leavebalance.LeaveBalance {
	return &leavebalance.LeaveBalance{
		ID:          uuid.New(),
		CompanyID:   uuid.MustParse(companyID),
		EmployeeID:  uuid.MustParse(employeeID),
		Category:    "ANNUAL",
		Year:        time.Now().UTC().AddDate(0, 0, 7).Year(),
		TotalDays:   decimal.NewFromInt(total),
		UsedDays:    decimal.NewFromInt(used),
		PendingDays: decimal.NewFromInt(pending),
		Version:     1,
	}
}

func TestLeaveService_Create(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()
	actorID := uuid.New().String()
	employeeID := uuid.New().String()

	t.Run("success reserves balance", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		req := leave.CreateLeaveRequest{
			EmployeeID: employeeID,
			Category:   "ANNUAL",
			StartDate:  futureDate(7),
			EndDate:    futureDate(9),
			Reason:     "Family event",
		}

		deps.balances.findForUpdateFn = func(ctx context.Context, cid, eid, category string, year int) (*leavebalance.LeaveBalance, error) {
			assert.Equal(t, companyID, cid)
			assert.Equal(t, employeeID, eid)
			assert.Equal(t, "ANNUAL", category)
			return annualBalance(companyID, employeeID, 20, 0, 0), nil
		}

		var savedPending decimal.Decimal
		deps.balances.saveFn = func(ctx context.Context, b *leavebalance.LeaveBalance) error {
			savedPending = b.PendingDays
			return nil
		}

		deps.repo.createFn = func(ctx context.Context, l *leave.Leave) error {
			assert.Equal(t, uuid.MustParse(companyID), l.CompanyID)
			assert.Equal(t, uuid.MustParse(employeeID), l.EmployeeID)
			assert.Equal(t, uuid.MustParse(actorID), l.CreatedBy)
			assert.Equal(t, leave.StatusPending, l.Status)
			assert.True(t, l.TotalDays.Equal(decimal.NewFromInt(3)))
			return nil
		}

		resp, err := deps.service.Create(ctx, companyID, actorID, req, false)

		assert.NoError(t, err)
		assert.Equal(t, "PENDING", resp.Status)
		assert.True(t, resp.TotalDays.Equal(decimal.NewFromInt(3)))
		assert.True(t, savedPending.Equal(decimal.NewFromInt(3)))
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("non accrual category skips the ledger", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		req := leave.CreateLeaveRequest{
			EmployeeID: employeeID,
			Category:   "UNPAID",
			StartDate:  futureDate(7),
			EndDate:    futureDate(7),
		}

		deps.balances.findForUpdateFn = func(ctx context.Context, cid, eid, category string, year int) (*leavebalance.LeaveBalance, error) {
			t.Fatal("balance must not be consulted for UNPAID")
			return nil, nil
		}

		resp, err := deps.service.Create(ctx, companyID, actorID, req, false)

		assert.NoError(t, err)
		assert.Equal(t, "UNPAID", resp.Category)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative overlapping request", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		req := leave.CreateLeaveRequest{
			EmployeeID: employeeID,
			Category:   "ANNUAL",
			StartDate:  futureDate(7),
			EndDate:    futureDate(9),
		}

		deps.balances.findForUpdateFn = func(ctx context.Context, cid, eid, category string, year int) (*leavebalance.LeaveBalance, error) {
			return annualBalance(companyID, employeeID, 20, 0, 0), nil
		}
		deps.repo.listBlockingInRangeFn = func(ctx context.Context, cid, eid string, start, end time.Time, excludeID *string) ([]leave.Leave, error) {
			assert.Nil(t, excludeID)
			return []leave.Leave{{
				ID:        uuid.New(),
				StartDate: start,
				EndDate:   end,
				Status:    leave.StatusApproved,
			}}, nil
		}

		_, err := deps.service.Create(ctx, companyID, actorID, req, false)

		assert.ErrorIs(t, err, leaveerrors.ErrLeaveOverlap)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative insufficient balance", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		req := leave.CreateLeaveRequest{
			EmployeeID: employeeID,
			Category:   "ANNUAL",
			StartDate:  futureDate(7),
			EndDate:    futureDate(9),
		}

		deps.balances.findForUpdateFn = func(ctx context.Context, cid, eid, category string, year int) (*leavebalance.LeaveBalance, error) {
			return annualBalance(companyID, employeeID, 12, 8, 2), nil
		}

		_, err := deps.service.Create(ctx, companyID, actorID, req, false)

		assert.ErrorIs(t, err, balanceerrors.ErrInsufficientBalance)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative no provisioned balance", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		req := leave.CreateLeaveRequest{
			EmployeeID: employeeID,
			Category:   "SICK",
			StartDate:  futureDate(7),
			EndDate:    futureDate(7),
		}

		_, err := deps.service.Create(ctx, companyID, actorID, req, false)

		assert.ErrorIs(t, err, balanceerrors.ErrInsufficientBalance)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative start date in the past", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		req := leave.CreateLeaveRequest{
			EmployeeID: employeeID,
			Category:   "ANNUAL",
			StartDate:  futureDate(-7),
			EndDate:    futureDate(-5),
		}

		_, err := deps.service.Create(ctx, companyID, actorID, req, false)

		assert.ErrorIs(t, err, leaveerrors.ErrStartDateInPast)
	})

	t.Run("backfill allows a past start date", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		req := leave.CreateLeaveRequest{
			EmployeeID: employeeID,
			Category:   "UNPAID",
			StartDate:  futureDate(-7),
			EndDate:    futureDate(-5),
			Backfill:   true,
		}

		resp, err := deps.service.Create(ctx, companyID, actorID, req, true)

		assert.NoError(t, err)
		assert.Equal(t, "PENDING", resp.Status)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative malformed date", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		req := leave.CreateLeaveRequest{
			EmployeeID: employeeID,
			Category:   "ANNUAL",
			StartDate:  "01-03-2026",
			EndDate:    futureDate(9),
		}

		_, err := deps.service.Create(ctx, companyID, actorID, req, false)

		assert.ErrorIs(t, err, leaveerrors.ErrInvalidDateFormat)
	})

	t.Run("negative unknown category", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		req := leave.CreateLeaveRequest{
			EmployeeID: employeeID,
			Category:   "SABBATICAL",
			StartDate:  futureDate(7),
			EndDate:    futureDate(9),
		}

		_, err := deps.service.Create(ctx, companyID, actorID, req, false)

		assert.ErrorIs(t, err, leaveerrors.ErrInvalidCategory)
	})

	t.Run("employee row is locked before the overlap scan", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		req := leave.CreateLeaveRequest{
			EmployeeID: employeeID,
			Category:   "UNPAID",
			StartDate:  futureDate(7),
			EndDate:    futureDate(8),
		}

		var calls []string
		deps.repo.lockEmployeeFn = func(ctx context.Context, cid, eid string) error {
			assert.Equal(t, companyID, cid)
			assert.Equal(t, employeeID, eid)
			calls = append(calls, "lock")
			return nil
		}
		deps.repo.listBlockingInRangeFn = func(ctx context.Context, cid, eid string, start, end time.Time, excludeID *string) ([]leave.Leave, error) {
			calls = append(calls, "scan")
			return nil, nil
		}

		_, err := deps.service.Create(ctx, companyID, actorID, req, false)

		assert.NoError(t, err)
		assert.Equal(t, []string{"lock", "scan"}, calls)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative unknown employee", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		req := leave.CreateLeaveRequest{
			EmployeeID: employeeID,
			Category:   "UNPAID",
			StartDate:  futureDate(7),
			EndDate:    futureDate(8),
		}

		deps.repo.lockEmployeeFn = func(ctx context.Context, cid, eid string) error {
			return leaveerrors.ErrEmployeeNotFound
		}
		deps.repo.listBlockingInRangeFn = func(ctx context.Context, cid, eid string, start, end time.Time, excludeID *string) ([]leave.Leave, error) {
			t.Fatal("overlap scan must not run without the employee lock")
			return nil, nil
		}

		_, err := deps.service.Create(ctx, companyID, actorID, req, false)

		assert.ErrorIs(t, err, leaveerrors.ErrEmployeeNotFound)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative persist failure rolls everything back", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		req := leave.CreateLeaveRequest{
			EmployeeID: employeeID,
			Category:   "ANNUAL",
			StartDate:  futureDate(7),
			EndDate:    futureDate(9),
		}

		deps.balances.findForUpdateFn = func(ctx context.Context, cid, eid, category string, year int) (*leavebalance.LeaveBalance, error) {
			return annualBalance(companyID, employeeID, 20, 0, 0), nil
		}
		deps.repo.createFn = func(ctx context.Context, l *leave.Leave) error {
			return errors.New("pq: connection reset by peer")
		}
		deps.balances.saveFn = func(ctx context.Context, b *leavebalance.LeaveBalance) error {
			t.Fatal("balance must not be saved when the insert fails")
			return nil
		}

		_, err := deps.service.Create(ctx, companyID, actorID, req, false)

		assert.Error(t, err)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative lock contention surfaces as concurrent modification", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		req := leave.CreateLeaveRequest{
			EmployeeID: employeeID,
			Category:   "ANNUAL",
			StartDate:  futureDate(7),
			EndDate:    futureDate(9),
		}

		deps.balances.findForUpdateFn = func(ctx context.Context, cid, eid, category string, year int) (*leavebalance.LeaveBalance, error) {
			return nil, &pgconn.PgError{Code: "55P03"}
		}

		_, err := deps.service.Create(ctx, companyID, actorID, req, false)

		assert.ErrorIs(t, err, apperror.ErrConcurrentModification)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative serialization failure surfaces as concurrent modification", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		req := leave.CreateLeaveRequest{
			EmployeeID: employeeID,
			Category:   "ANNUAL",
			StartDate:  futureDate(7),
			EndDate:    futureDate(9),
		}

		deps.balances.findForUpdateFn = func(ctx context.Context, cid, eid, category string, year int) (*leavebalance.LeaveBalance, error) {
			return annualBalance(companyID, employeeID, 20, 0, 0), nil
		}
		deps.repo.createFn = func(ctx context.Context, l *leave.Leave) error {
			return &pgconn.PgError{Code: "40001"}
		}

		_, err := deps.service.Create(ctx, companyID, actorID, req, false)

		assert.ErrorIs(t, err, apperror.ErrConcurrentModification)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative deadline surfaces as timeout", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		req := leave.CreateLeaveRequest{
			EmployeeID: employeeID,
			Category:   "ANNUAL",
			StartDate:  futureDate(7),
			EndDate:    futureDate(9),
		}

		deps.balances.findForUpdateFn = func(ctx context.Context, cid, eid, category string, year int) (*leavebalance.LeaveBalance, error) {
			return annualBalance(companyID, employeeID, 20, 0, 0), nil
		}
		deps.repo.createFn = func(ctx context.Context, l *leave.Leave) error {
			return context.DeadlineExceeded
		}

		_, err := deps.service.Create(ctx, companyID, actorID, req, false)

		assert.ErrorIs(t, err, apperror.ErrTimeout)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative reason over the character limit", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		req := leave.CreateLeaveRequest{
			EmployeeID: employeeID,
			Category:   "ANNUAL",
			StartDate:  futureDate(7),
			EndDate:    futureDate(9),
			Reason:     strings.Repeat("é", 501),
		}

		_, err := deps.service.Create(ctx, companyID, actorID, req, false)

		assert.ErrorIs(t, err, leaveerrors.ErrInvalidReason)
	})
}

func pendingLeave(companyID, employeeID string, days int64) *leave.Leave {
	start := time.Now().UTC().AddDate(0, 0, 7)
	return &leave.Leave{
		ID:         uuid.New(),
		CompanyID:  uuid.MustParse(companyID),
		EmployeeID: uuid.MustParse(employeeID),
		Category:   leave.CategoryAnnual,
		StartDate:  start,
		EndDate:    start.AddDate(0, 0, int(days)-1),
		TotalDays:  decimal.NewFromInt(days),
		Status:     leave.StatusPending,
		CreatedBy:  uuid.MustParse(employeeID),
	}
}

func TestLeaveService_Approve(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()
	approverID := uuid.New().String()
	employeeID := uuid.New().String()

	t.Run("success commits the reservation", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		l := pendingLeave(companyID, employeeID, 3)

		deps.repo.findByIDForUpdateFn = func(ctx context.Context, cid, id string) (*leave.Leave, error) {
			return l, nil
		}
		deps.balances.findForUpdateFn = func(ctx context.Context, cid, eid, category string, year int) (*leavebalance.LeaveBalance, error) {
			return annualBalance(companyID, employeeID, 20, 0, 3), nil
		}

		var saved *leavebalance.LeaveBalance
		deps.balances.saveFn = func(ctx context.Context, b *leavebalance.LeaveBalance) error {
			saved = b
			return nil
		}
		deps.repo.updateFn = func(ctx context.Context, updated *leave.Leave) error {
			assert.Equal(t, leave.StatusApproved, updated.Status)
			assert.NotNil(t, updated.ApprovedBy)
			assert.Equal(t, approverID, updated.ApprovedBy.String())
			assert.NotNil(t, updated.DecidedAt)
			assert.Nil(t, updated.RejectionReason)
			return nil
		}

		resp, err := deps.service.Approve(ctx, companyID, approverID, l.ID.String())

		assert.NoError(t, err)
		assert.Equal(t, "APPROVED", resp.Status)
		assert.NotNil(t, saved)
		assert.True(t, saved.PendingDays.IsZero())
		assert.True(t, saved.UsedDays.Equal(decimal.NewFromInt(3)))
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative self approval", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		l := pendingLeave(companyID, employeeID, 2)

		deps.repo.findByIDForUpdateFn = func(ctx context.Context, cid, id string) (*leave.Leave, error) {
			return l, nil
		}

		_, err := deps.service.Approve(ctx, companyID, employeeID, l.ID.String())

		assert.ErrorIs(t, err, leaveerrors.ErrSelfApproval)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative actor without authority", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		l := pendingLeave(companyID, employeeID, 2)

		deps.repo.findByIDForUpdateFn = func(ctx context.Context, cid, id string) (*leave.Leave, error) {
			return l, nil
		}
		deps.authority.canDecideFn = func(ctx context.Context, cid, aid, eid string) (bool, error) {
			assert.Equal(t, approverID, aid)
			assert.Equal(t, employeeID, eid)
			return false, nil
		}

		_, err := deps.service.Approve(ctx, companyID, approverID, l.ID.String())

		assert.ErrorIs(t, err, leaveerrors.ErrNotDecisionAuthority)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative already decided", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		l := pendingLeave(companyID, employeeID, 2)
		l.Status = leave.StatusApproved

		deps.repo.findByIDForUpdateFn = func(ctx context.Context, cid, id string) (*leave.Leave, error) {
			return l, nil
		}

		_, err := deps.service.Approve(ctx, companyID, approverID, l.ID.String())

		assert.ErrorIs(t, err, leaveerrors.ErrInvalidStatusTransition)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative request not found", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)

		_, err := deps.service.Approve(ctx, companyID, approverID, uuid.New().String())

		assert.Error(t, err)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestLeaveService_Reject(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()
	approverID := uuid.New().String()
	employeeID := uuid.New().String()

	t.Run("success releases the reservation", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		l := pendingLeave(companyID, employeeID, 4)

		deps.repo.findByIDForUpdateFn = func(ctx context.Context, cid, id string) (*leave.Leave, error) {
			return l, nil
		}
		deps.balances.findForUpdateFn = func(ctx context.Context, cid, eid, category string, year int) (*leavebalance.LeaveBalance, error) {
			return annualBalance(companyID, employeeID, 20, 5, 4), nil
		}

		var saved *leavebalance.LeaveBalance
		deps.balances.saveFn = func(ctx context.Context, b *leavebalance.LeaveBalance) error {
			saved = b
			return nil
		}

		resp, err := deps.service.Reject(ctx, companyID, approverID, l.ID.String(), "Team is at capacity that week")

		assert.NoError(t, err)
		assert.Equal(t, "REJECTED", resp.Status)
		assert.NotNil(t, resp.RejectionReason)
		assert.Equal(t, "Team is at capacity that week", *resp.RejectionReason)
		assert.NotNil(t, saved)
		assert.True(t, saved.PendingDays.IsZero())
		assert.True(t, saved.UsedDays.Equal(decimal.NewFromInt(5)))
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative blank reason", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.Reject(ctx, companyID, approverID, uuid.New().String(), "   ")

		assert.ErrorIs(t, err, leaveerrors.ErrRejectionReasonRequired)
	})

	t.Run("multibyte reason at the limit is accepted", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		l := pendingLeave(companyID, employeeID, 4)
		reason := strings.Repeat("é", 500)

		deps.repo.findByIDForUpdateFn = func(ctx context.Context, cid, id string) (*leave.Leave, error) {
			return l, nil
		}
		deps.balances.findForUpdateFn = func(ctx context.Context, cid, eid, category string, year int) (*leavebalance.LeaveBalance, error) {
			return annualBalance(companyID, employeeID, 20, 5, 4), nil
		}

		resp, err := deps.service.Reject(ctx, companyID, approverID, l.ID.String(), reason)

		assert.NoError(t, err)
		assert.NotNil(t, resp.RejectionReason)
		assert.Equal(t, reason, *resp.RejectionReason)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative reason over the character limit", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.Reject(ctx, companyID, approverID, uuid.New().String(), strings.Repeat("é", 501))

		assert.ErrorIs(t, err, leaveerrors.ErrInvalidReason)
	})
}

func TestLeaveService_Cancel(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()
	employeeID := uuid.New().String()

	t.Run("owner cancels own pending request", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		l := pendingLeave(companyID, employeeID, 2)

		deps.repo.findByIDForUpdateFn = func(ctx context.Context, cid, id string) (*leave.Leave, error) {
			return l, nil
		}
		deps.balances.findForUpdateFn = func(ctx context.Context, cid, eid, category string, year int) (*leavebalance.LeaveBalance, error) {
			return annualBalance(companyID, employeeID, 20, 0, 2), nil
		}
		deps.authority.canDecideFn = func(ctx context.Context, cid, aid, eid string) (bool, error) {
			t.Fatal("owner cancellation must not consult the authority")
			return false, nil
		}

		resp, err := deps.service.Cancel(ctx, companyID, employeeID, l.ID.String())

		assert.NoError(t, err)
		assert.Equal(t, "CANCELLED", resp.Status)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative third party without authority", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		l := pendingLeave(companyID, employeeID, 2)

		deps.repo.findByIDForUpdateFn = func(ctx context.Context, cid, id string) (*leave.Leave, error) {
			return l, nil
		}
		deps.authority.canDecideFn = func(ctx context.Context, cid, aid, eid string) (bool, error) {
			return false, nil
		}

		_, err := deps.service.Cancel(ctx, companyID, uuid.New().String(), l.ID.String())

		assert.ErrorIs(t, err, leaveerrors.ErrNotRequestOwner)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative approved request cannot be cancelled", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		l := pendingLeave(companyID, employeeID, 2)
		l.Status = leave.StatusApproved

		deps.repo.findByIDForUpdateFn = func(ctx context.Context, cid, id string) (*leave.Leave, error) {
			return l, nil
		}

		_, err := deps.service.Cancel(ctx, companyID, employeeID, l.ID.String())

		assert.ErrorIs(t, err, leaveerrors.ErrInvalidStatusTransition)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestLeaveService_GetAll(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()
	actorID := uuid.New().String()

	t.Run("reader with read_all sees the whole company", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		deps.repo.findAllByCompanyFn = func(ctx context.Context, cid string) ([]leave.Leave, error) {
			assert.Equal(t, companyID, cid)
			return []leave.Leave{*pendingLeave(companyID, uuid.New().String(), 2)}, nil
		}
		deps.repo.findAllByEmployeeFn = func(ctx context.Context, cid, eid string) ([]leave.Leave, error) {
			t.Fatal("employee scope must not be used with read_all")
			return nil, nil
		}

		resp, err := deps.service.GetAll(ctx, companyID, actorID, true)

		assert.NoError(t, err)
		assert.Len(t, resp, 1)
	})

	t.Run("plain reader sees only their own requests", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		deps.repo.findAllByEmployeeFn = func(ctx context.Context, cid, eid string) ([]leave.Leave, error) {
			assert.Equal(t, actorID, eid)
			return nil, nil
		}

		resp, err := deps.service.GetAll(ctx, companyID, actorID, false)

		assert.NoError(t, err)
		assert.Empty(t, resp)
	})
}
