package department

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-hrms/internal/shared/apperror"
)

//go:generate mockgen -source=department_service.go -destination=mock/department_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, companyID string, req CreateDepartmentRequest) (DepartmentResponse, error)
	GetAll(ctx context.Context, companyID string) ([]DepartmentResponse, error)
	GetByID(ctx context.Context, companyID, id string) (DepartmentResponse, error)
	Update(ctx context.Context, companyID, id string, req UpdateDepartmentRequest) (DepartmentResponse, error)
	Delete(ctx context.Context, companyID, id string) error
}

type service struct {
	db     *sql.DB
	repo   Repository
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("department.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("department.service")
	}
	return &service{db: db, repo: repo, logger: l}
}

func (s *service) Create(
	ctx context.Context,
	companyID string,
	req CreateDepartmentRequest,
) (DepartmentResponse, error) {
	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return DepartmentResponse{}, apperror.InvalidField("company_id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return DepartmentResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	dept := &Department{
		ID:          uuid.New(),
		CompanyID:   companyUUID,
		Name:        req.Name,
		Description: req.Description,
	}

	if err := qtx.Create(ctx, dept); err != nil {
		s.logger.Error("create department persist failed", zap.Error(err))
		return DepartmentResponse{}, apperror.FromDB(err)
	}

	if err := tx.Commit(); err != nil {
		return DepartmentResponse{}, err
	}

	s.logger.Info("department created",
		zap.String("department_id", dept.ID.String()),
		zap.String("company_id", companyID),
	)
	return mapToResponse(*dept), nil
}

func (s *service) GetAll(ctx context.Context, companyID string) ([]DepartmentResponse, error) {
	depts, err := s.repo.FindAllByCompany(ctx, companyID)
	if err != nil {
		return nil, apperror.FromDB(err)
	}

	return mapToListResponse(depts), nil
}

func (s *service) GetByID(ctx context.Context, companyID, id string) (DepartmentResponse, error) {
	dept, err := s.repo.FindByIDAndCompany(ctx, companyID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return DepartmentResponse{}, apperror.ErrNotFound
	}
	if err != nil {
		return DepartmentResponse{}, apperror.FromDB(err)
	}

	return mapToResponse(*dept), nil
}

func (s *service) Update(
	ctx context.Context,
	companyID, id string,
	req UpdateDepartmentRequest,
) (DepartmentResponse, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return DepartmentResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	dept, err := qtx.FindByIDAndCompany(ctx, companyID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return DepartmentResponse{}, apperror.ErrNotFound
	}
	if err != nil {
		return DepartmentResponse{}, apperror.FromDB(err)
	}

	dept.Name = req.Name
	dept.Description = req.Description

	if err := qtx.Update(ctx, dept); err != nil {
		s.logger.Error("update department persist failed", zap.Error(err))
		return DepartmentResponse{}, apperror.FromDB(err)
	}

	if err := tx.Commit(); err != nil {
		return DepartmentResponse{}, err
	}

	return mapToResponse(*dept), nil
}

func (s *service) Delete(ctx context.Context, companyID, id string) error {
	if _, err := s.repo.FindByIDAndCompany(ctx, companyID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.ErrNotFound
		}
		return apperror.FromDB(err)
	}

	if err := s.repo.Delete(ctx, companyID, id); err != nil {
		s.logger.Error("delete department failed", zap.Error(err))
		return apperror.FromDB(err)
	}

	s.logger.Info("department deleted", zap.String("department_id", id))
	return nil
}

func mapToResponse(dept Department) DepartmentResponse {
	return DepartmentResponse{
		ID:          dept.ID.String(),
		CompanyID:   dept.CompanyID.String(),
		Name:        dept.Name,
		Description: dept.Description,
		CreatedAt:   dept.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   dept.UpdatedAt.Format(time.RFC3339),
	}
}

func mapToListResponse(depts []Department) []DepartmentResponse {
	res := make([]DepartmentResponse, len(depts))
	for i, d := range depts {
		res[i] = mapToResponse(d)
	}
	return res
}
