package leavebalance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	balanceerrors "go-hrms/internal/leavebalance/errors"
	"go-hrms/internal/shared/apperror"
)

// Provisioning window; balances far in the past or future are operator error.
const (
	minYear = 2000
	maxYear = 2100
)

//go:generate mockgen -source=balance_service.go -destination=mock/balance_service_mock.go -package=mock
type Service interface {
	Provision(ctx context.Context, companyID string, req ProvisionBalanceRequest) (BalanceResponse, error)
	GetByScope(ctx context.Context, companyID, employeeID, category string, year int) (BalanceResponse, error)
	GetForEmployee(ctx context.Context, companyID, employeeID string) ([]BalanceResponse, error)
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("leavebalance.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leavebalance.service")
	}
	return &service{repo: repo, logger: l}
}

func (s *service) Provision(ctx context.Context, companyID string, req ProvisionBalanceRequest) (BalanceResponse, error) {
	s.logger.Debug("provision balance",
		zap.String("company_id", companyID),
		zap.String("employee_id", req.EmployeeID),
		zap.String("category", req.Category),
		zap.Int("year", req.Year),
	)

	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return BalanceResponse{}, balanceerrors.ErrInvalidCompanyID
	}
	employeeUUID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		return BalanceResponse{}, balanceerrors.ErrInvalidEmployeeID
	}
	if req.Year < minYear || req.Year > maxYear {
		return BalanceResponse{}, balanceerrors.ErrInvalidYear
	}
	if !req.TotalDays.IsPositive() {
		return BalanceResponse{}, balanceerrors.ErrInvalidTotal
	}

	b := LeaveBalance{
		ID:          uuid.New(),
		CompanyID:   companyUUID,
		EmployeeID:  employeeUUID,
		Category:    req.Category,
		Year:        req.Year,
		TotalDays:   req.TotalDays,
		UsedDays:    decimal.Zero,
		PendingDays: decimal.Zero,
		Version:     1,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := s.repo.Create(ctx, &b); err != nil {
		if apperror.UniqueViolation(err) {
			s.logger.Warn("balance already provisioned",
				zap.String("employee_id", req.EmployeeID),
				zap.String("category", req.Category),
				zap.Int("year", req.Year),
			)
			return BalanceResponse{}, balanceerrors.ErrBalanceExists
		}
		s.logger.Error("failed to provision balance", zap.Error(err))
		return BalanceResponse{}, apperror.FromDB(err)
	}

	s.logger.Info("balance provisioned",
		zap.String("balance_id", b.ID.String()),
		zap.String("employee_id", req.EmployeeID),
		zap.String("category", req.Category),
		zap.Int("year", req.Year),
	)
	return mapToResponse(b), nil
}

func (s *service) GetByScope(ctx context.Context, companyID, employeeID, category string, year int) (BalanceResponse, error) {
	if _, err := uuid.Parse(companyID); err != nil {
		return BalanceResponse{}, balanceerrors.ErrInvalidCompanyID
	}
	if _, err := uuid.Parse(employeeID); err != nil {
		return BalanceResponse{}, balanceerrors.ErrInvalidEmployeeID
	}

	b, err := s.repo.FindByScope(ctx, companyID, employeeID, category, year)
	if err != nil {
		return BalanceResponse{}, apperror.FromDB(err)
	}
	return mapToResponse(*b), nil
}

func (s *service) GetForEmployee(ctx context.Context, companyID, employeeID string) ([]BalanceResponse, error) {
	if _, err := uuid.Parse(companyID); err != nil {
		return nil, balanceerrors.ErrInvalidCompanyID
	}
	if _, err := uuid.Parse(employeeID); err != nil {
		return nil, balanceerrors.ErrInvalidEmployeeID
	}

	balances, err := s.repo.FindAllByEmployee(ctx, companyID, employeeID)
	if err != nil {
		s.logger.Error("failed to list balances", zap.Error(err))
		return nil, apperror.FromDB(err)
	}
	return mapToListResponse(balances), nil
}
