package leave

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"go-hrms/internal/events"
	leaveerrors "go-hrms/internal/leave/errors"
	"go-hrms/internal/leavebalance"
	balanceerrors "go-hrms/internal/leavebalance/errors"
	"go-hrms/internal/messaging/kafka"
	"go-hrms/internal/shared/apperror"
	"go-hrms/internal/shared/contextutil"
)

const (
	txTimeout       = 5 * time.Second
	maxReasonLength = 500
)

// DecisionAuthority answers whether an approver may decide a given
// employee's requests. Implemented by the rbac package.
type DecisionAuthority interface {
	CanDecideFor(ctx context.Context, companyID, approverID, employeeID string) (bool, error)
}

//go:generate mockgen -source=leave_service.go -destination=mock/leave_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, companyID, actorID string, req CreateLeaveRequest, allowBackfill bool) (LeaveResponse, error)
	Approve(ctx context.Context, companyID, actorID, id string) (LeaveResponse, error)
	Reject(ctx context.Context, companyID, actorID, id, rejectionReason string) (LeaveResponse, error)
	Cancel(ctx context.Context, companyID, actorID, id string) (LeaveResponse, error)
	GetByID(ctx context.Context, companyID, id string) (LeaveResponse, error)
	GetAll(ctx context.Context, companyID, actorID string, canReadAll bool) ([]LeaveResponse, error)
}

type service struct {
	db        *sql.DB
	repo      Repository
	balances  leavebalance.Repository
	authority DecisionAuthority
	outbox    kafka.OutboxRepository
	logger    *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	balances leavebalance.Repository,
	authority DecisionAuthority,
	logger ...*zap.Logger,
) Service {
	return NewServiceWithOutbox(db, repo, balances, authority, nil, logger...)
}

func NewServiceWithOutbox(
	db *sql.DB,
	repo Repository,
	balances leavebalance.Repository,
	authority DecisionAuthority,
	outboxRepo kafka.OutboxRepository,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("leave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.service")
	}
	return &service{
		db:        db,
		repo:      repo,
		balances:  balances,
		authority: authority,
		outbox:    outboxRepo,
		logger:    l,
	}
}

func (s *service) Create(ctx context.Context, companyID, actorID string, req CreateLeaveRequest, allowBackfill bool) (LeaveResponse, error) {
	s.logger.Debug("create leave requested",
		zap.String("company_id", companyID),
		zap.String("actor_id", actorID),
		zap.String("employee_id", req.EmployeeID),
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate),
	)

	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidCompanyID
	}
	createdByUUID, err := uuid.Parse(actorID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidActorID
	}
	employeeUUID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidEmployeeID
	}
	category, err := ParseCategory(req.Category)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidCategory
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return LeaveResponse{}, err
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return LeaveResponse{}, err
	}
	if !allowBackfill && startDate.Before(truncateToDay(time.Now())) {
		return LeaveResponse{}, leaveerrors.ErrStartDateInPast
	}

	totalDays, err := RequestedDays(startDate, endDate, req.HalfDayStart, req.HalfDayEnd)
	if err != nil {
		s.logger.Warn("create leave validation failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	if err := validateReason(req.Reason); err != nil {
		return LeaveResponse{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, txTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("create leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, apperror.FromDB(err)
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	btx := s.balances.WithTx(tx)

	// The employee row lock is the serialization point for concurrent
	// submissions; the overlap scan locks only existing request rows and
	// cannot see an insert another transaction has not committed.
	if err := qtx.LockEmployee(ctx, companyID, req.EmployeeID); err != nil {
		s.logger.Error("create leave employee lock failed", zap.Error(err))
		return LeaveResponse{}, apperror.FromDB(err)
	}

	var bal *leavebalance.LeaveBalance
	if category.Accrual() {
		bal, err = btx.FindForUpdate(ctx, companyID, req.EmployeeID, category.String(), startDate.Year())
		if errors.Is(err, balanceerrors.ErrBalanceNotFound) {
			return LeaveResponse{}, balanceerrors.ErrInsufficientBalance
		}
		if err != nil {
			s.logger.Error("create leave balance lock failed", zap.Error(err))
			return LeaveResponse{}, apperror.FromDB(err)
		}
	}

	blocking, err := qtx.ListBlockingInRange(ctx, companyID, req.EmployeeID, startDate, endDate, nil)
	if err != nil {
		s.logger.Error("create leave overlap scan failed", zap.Error(err))
		return LeaveResponse{}, apperror.FromDB(err)
	}
	for _, existing := range blocking {
		if Overlaps(startDate, endDate, existing.StartDate, existing.EndDate) {
			s.logger.Warn("create leave overlap detected",
				zap.String("company_id", companyID),
				zap.String("employee_id", req.EmployeeID),
				zap.String("blocking_id", existing.ID.String()),
			)
			return LeaveResponse{}, leaveerrors.ErrLeaveOverlap
		}
	}

	if bal != nil && !bal.Sufficient(totalDays) {
		s.logger.Warn("create leave insufficient balance",
			zap.String("employee_id", req.EmployeeID),
			zap.String("category", category.String()),
			zap.String("requested", totalDays.String()),
			zap.String("remaining", bal.Remaining().String()),
		)
		return LeaveResponse{}, balanceerrors.ErrInsufficientBalance
	}

	l := &Leave{
		ID:           uuid.New(),
		CompanyID:    companyUUID,
		EmployeeID:   employeeUUID,
		Category:     category,
		StartDate:    startDate,
		EndDate:      endDate,
		HalfDayStart: req.HalfDayStart,
		HalfDayEnd:   req.HalfDayEnd,
		TotalDays:    totalDays,
		Reason:       strings.TrimSpace(req.Reason),
		Status:       StatusPending,
		CreatedBy:    createdByUUID,
	}

	if err := qtx.Create(ctx, l); err != nil {
		s.logger.Error("create leave persist failed", zap.Error(err))
		return LeaveResponse{}, apperror.FromDB(err)
	}

	if bal != nil {
		next, err := bal.Apply(leavebalance.BalanceEvent{
			Kind:      leavebalance.EventReserve,
			Days:      totalDays,
			RequestID: l.ID,
		})
		if err != nil {
			return LeaveResponse{}, err
		}
		if err := btx.Save(ctx, &next); err != nil {
			s.logger.Error("create leave balance save failed", zap.Error(err))
			return LeaveResponse{}, apperror.FromDB(err)
		}
	}

	if err := s.enqueueEvent(ctx, tx, l, events.LeaveEventSubmitted); err != nil {
		s.logger.Error("create leave outbox enqueue failed", zap.Error(err))
		return LeaveResponse{}, apperror.FromDB(err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("create leave commit failed", zap.Error(err))
		return LeaveResponse{}, apperror.FromDB(err)
	}
	s.logger.Info("create leave success",
		zap.String("leave_id", l.ID.String()),
		zap.String("company_id", companyID),
		zap.String("employee_id", req.EmployeeID),
		zap.String("total_days", totalDays.String()),
	)

	return mapToResponse(*l), nil
}

func (s *service) Approve(ctx context.Context, companyID, actorID, id string) (LeaveResponse, error) {
	return s.decide(ctx, companyID, actorID, id, StatusApproved, nil)
}

func (s *service) Reject(ctx context.Context, companyID, actorID, id, rejectionReason string) (LeaveResponse, error) {
	return s.decide(ctx, companyID, actorID, id, StatusRejected, &rejectionReason)
}

// decide carries the shared approve/reject path: lock the request, verify
// the transition and the approver, move the reserved days, record the
// decision. All inside one transaction.
func (s *service) decide(ctx context.Context, companyID, actorID, id string, target LeaveStatus, rejectionReason *string) (LeaveResponse, error) {
	s.logger.Debug("decide leave requested",
		zap.String("leave_id", id),
		zap.String("company_id", companyID),
		zap.String("actor_id", actorID),
		zap.String("target_status", target.String()),
	)

	if _, err := uuid.Parse(companyID); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidCompanyID
	}
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidActorID
	}
	if target == StatusRejected {
		if rejectionReason == nil || strings.TrimSpace(*rejectionReason) == "" {
			return LeaveResponse{}, leaveerrors.ErrRejectionReasonRequired
		}
		if utf8.RuneCountInString(*rejectionReason) > maxReasonLength {
			return LeaveResponse{}, leaveerrors.ErrInvalidReason
		}
	}

	ctx, cancel := context.WithTimeout(ctx, txTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("decide leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, apperror.FromDB(err)
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	btx := s.balances.WithTx(tx)

	l, err := qtx.FindByIDForUpdate(ctx, companyID, id)
	if err != nil {
		return LeaveResponse{}, apperror.FromDB(err)
	}
	if !l.Status.CanTransition(target) {
		s.logger.Warn("decide leave invalid transition",
			zap.String("leave_id", id),
			zap.String("from_status", l.Status.String()),
			zap.String("to_status", target.String()),
		)
		return LeaveResponse{}, leaveerrors.ErrInvalidStatusTransition
	}
	if actorID == l.EmployeeID.String() {
		return LeaveResponse{}, leaveerrors.ErrSelfApproval
	}

	allowed, err := s.authority.CanDecideFor(ctx, companyID, actorID, l.EmployeeID.String())
	if err != nil {
		s.logger.Error("decide leave authority check failed", zap.Error(err))
		return LeaveResponse{}, apperror.FromDB(err)
	}
	if !allowed {
		return LeaveResponse{}, leaveerrors.ErrNotDecisionAuthority
	}

	if err := s.moveReservedDays(ctx, btx, l, target); err != nil {
		return LeaveResponse{}, err
	}

	now := time.Now().UTC()
	l.Status = target
	l.ApprovedBy = &actorUUID
	l.DecidedAt = &now
	if target == StatusRejected {
		trimmed := strings.TrimSpace(*rejectionReason)
		l.RejectionReason = &trimmed
	} else {
		l.RejectionReason = nil
	}

	if err := qtx.Update(ctx, l); err != nil {
		s.logger.Error("decide leave persist failed",
			zap.String("leave_id", id),
			zap.Error(err),
		)
		return LeaveResponse{}, apperror.FromDB(err)
	}

	eventType := events.LeaveEventApproved
	if target == StatusRejected {
		eventType = events.LeaveEventRejected
	}
	if err := s.enqueueEvent(ctx, tx, l, eventType); err != nil {
		s.logger.Error("decide leave outbox enqueue failed", zap.Error(err))
		return LeaveResponse{}, apperror.FromDB(err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("decide leave commit failed",
			zap.String("leave_id", id),
			zap.Error(err),
		)
		return LeaveResponse{}, apperror.FromDB(err)
	}
	s.logger.Info("decide leave success",
		zap.String("leave_id", id),
		zap.String("status", target.String()),
		zap.String("approver_id", actorID),
	)
	return mapToResponse(*l), nil
}

func (s *service) Cancel(ctx context.Context, companyID, actorID, id string) (LeaveResponse, error) {
	if _, err := uuid.Parse(companyID); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidCompanyID
	}
	if _, err := uuid.Parse(actorID); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidActorID
	}

	ctx, cancel := context.WithTimeout(ctx, txTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("cancel leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, apperror.FromDB(err)
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	btx := s.balances.WithTx(tx)

	l, err := qtx.FindByIDForUpdate(ctx, companyID, id)
	if err != nil {
		return LeaveResponse{}, apperror.FromDB(err)
	}
	if !l.Status.CanTransition(StatusCancelled) {
		return LeaveResponse{}, leaveerrors.ErrInvalidStatusTransition
	}
	if actorID != l.EmployeeID.String() {
		allowed, err := s.authority.CanDecideFor(ctx, companyID, actorID, l.EmployeeID.String())
		if err != nil {
			return LeaveResponse{}, apperror.FromDB(err)
		}
		if !allowed {
			return LeaveResponse{}, leaveerrors.ErrNotRequestOwner
		}
	}

	if err := s.moveReservedDays(ctx, btx, l, StatusCancelled); err != nil {
		return LeaveResponse{}, err
	}

	l.Status = StatusCancelled
	if err := qtx.Update(ctx, l); err != nil {
		s.logger.Error("cancel leave persist failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, apperror.FromDB(err)
	}

	if err := s.enqueueEvent(ctx, tx, l, events.LeaveEventCancelled); err != nil {
		return LeaveResponse{}, apperror.FromDB(err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("cancel leave commit failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, apperror.FromDB(err)
	}
	s.logger.Info("cancel leave success", zap.String("leave_id", id))
	return mapToResponse(*l), nil
}

// moveReservedDays applies the balance side of a terminal transition:
// approval commits the reservation, rejection and cancellation release it.
// Non-accrual categories have no balance row and nothing to move.
func (s *service) moveReservedDays(ctx context.Context, btx leavebalance.Repository, l *Leave, target LeaveStatus) error {
	if !l.Category.Accrual() {
		return nil
	}

	bal, err := btx.FindForUpdate(ctx, l.CompanyID.String(), l.EmployeeID.String(), l.Category.String(), l.BalanceYear())
	if err != nil {
		s.logger.Error("leave balance lock failed",
			zap.String("leave_id", l.ID.String()),
			zap.Error(err),
		)
		return apperror.FromDB(err)
	}

	kind := leavebalance.EventRelease
	if target == StatusApproved {
		kind = leavebalance.EventCommit
	}
	next, err := bal.Apply(leavebalance.BalanceEvent{
		Kind:      kind,
		Days:      l.TotalDays,
		RequestID: l.ID,
	})
	if err != nil {
		return err
	}
	if err := btx.Save(ctx, &next); err != nil {
		s.logger.Error("leave balance save failed",
			zap.String("leave_id", l.ID.String()),
			zap.Error(err),
		)
		return apperror.FromDB(err)
	}
	return nil
}

func (s *service) GetByID(ctx context.Context, companyID, id string) (LeaveResponse, error) {
	l, err := s.repo.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		return LeaveResponse{}, apperror.FromDB(err)
	}
	return mapToResponse(*l), nil
}

func (s *service) GetAll(ctx context.Context, companyID, actorID string, canReadAll bool) ([]LeaveResponse, error) {
	var (
		leaves []Leave
		err    error
	)
	if canReadAll {
		leaves, err = s.repo.FindAllByCompany(ctx, companyID)
	} else {
		leaves, err = s.repo.FindAllByEmployee(ctx, companyID, actorID)
	}
	if err != nil {
		return nil, apperror.FromDB(err)
	}
	return mapToListResponse(leaves), nil
}

func (s *service) enqueueEvent(ctx context.Context, tx *sql.Tx, l *Leave, eventType string) error {
	if s.outbox == nil {
		return nil
	}

	payload, err := json.Marshal(events.LeaveRequestEvent{
		EventType:  eventType,
		LeaveID:    l.ID.String(),
		CompanyID:  l.CompanyID.String(),
		EmployeeID: l.EmployeeID.String(),
		Category:   l.Category.String(),
		Status:     l.Status.String(),
		TotalDays:  l.TotalDays.String(),
		ApproverID: approverIDString(l),
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	return s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.New().String(),
		RequestID:     contextutil.GetRequestID(ctx),
		AggregateType: "leave_request",
		AggregateID:   l.ID.String(),
		EventType:     eventType,
		Topic:         events.LeaveRequestTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
}

func approverIDString(l *Leave) string {
	if l.ApprovedBy == nil {
		return ""
	}
	return l.ApprovedBy.String()
}

func parseDate(v string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, leaveerrors.ErrInvalidDateFormat
	}
	return t, nil
}

// validateReason accepts an absent reason but rejects blank-only or
// over-length text. The limit counts characters, not bytes.
func validateReason(reason string) error {
	if reason == "" {
		return nil
	}
	if strings.TrimSpace(reason) == "" || utf8.RuneCountInString(reason) > maxReasonLength {
		return leaveerrors.ErrInvalidReason
	}
	return nil
}
