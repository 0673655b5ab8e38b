package employee

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	employeeerrors "go-hrms/internal/employee/errors"
	"go-hrms/internal/events"
	"go-hrms/internal/messaging/kafka"
	"go-hrms/internal/shared/contextutil"
	"go-hrms/internal/shared/counter"
)

const EmployeeOptionsKeyPrefix = "employees:options:"

func GetEmployeeOptionsKey(companyID string) string {
	return EmployeeOptionsKeyPrefix + companyID
}

//go:generate mockgen -source=employee_service.go -destination=mock/employee_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, companyID string, req CreateEmployeeRequest) (EmployeeResponse, error)
	GetAll(ctx context.Context, companyID string) ([]EmployeeResponse, error)
	GetOptions(ctx context.Context, companyID string) ([]EmployeeResponse, error)
	GetByID(ctx context.Context, companyID, id string) (EmployeeResponse, error)
	Update(ctx context.Context, companyID, id string, req UpdateEmployeeRequest) (EmployeeResponse, error)
	Delete(ctx context.Context, companyID, id string) error
}

type service struct {
	db      *sql.DB
	repo    Repository
	counter counter.Repository
	outbox  kafka.OutboxRepository
	rdb     *redis.Client
	sf      *singleflight.Group
	logger  *zap.Logger
}

func NewService(db *sql.DB, repo Repository, counter counter.Repository, rdb *redis.Client, logger ...*zap.Logger) Service {
	return NewServiceWithOutbox(db, repo, counter, nil, rdb, logger...)
}

func NewServiceWithOutbox(
	db *sql.DB,
	repo Repository,
	counter counter.Repository,
	outboxRepo kafka.OutboxRepository,
	rdb *redis.Client,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("employee.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("employee.service")
	}
	return &service{
		db:      db,
		repo:    repo,
		counter: counter,
		outbox:  outboxRepo,
		rdb:     rdb,
		sf:      &singleflight.Group{},
		logger:  l,
	}
}

func (s *service) Create(
	ctx context.Context,
	companyID string,
	req CreateEmployeeRequest,
) (EmployeeResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("create employee requested",
		zap.String("request_id", rid),
		zap.String("company_id", companyID),
		zap.String("email", req.Email),
	)

	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return EmployeeResponse{}, employeeerrors.ErrInvalidCompanyID
	}

	hireDate, err := time.Parse("2006-01-02", req.HireDate)
	if err != nil {
		s.logger.Warn("create employee invalid hire_date",
			zap.String("hire_date", req.HireDate),
			zap.Error(err),
		)
		return EmployeeResponse{}, employeeerrors.ErrInvalidHireDate
	}

	if req.DepartmentID != "" {
		name, err := s.repo.GetDepartmentName(ctx, companyID, req.DepartmentID)
		if err != nil {
			s.logger.Error("create employee department lookup failed", zap.Error(err))
			return EmployeeResponse{}, mapRepositoryError(err)
		}
		if name == "" {
			return EmployeeResponse{}, employeeerrors.ErrDepartmentNotFound
		}
	}

	if req.ManagerID != "" {
		exists, err := s.repo.ExistsInCompany(ctx, companyID, req.ManagerID)
		if err != nil {
			s.logger.Error("create employee manager lookup failed", zap.Error(err))
			return EmployeeResponse{}, mapRepositoryError(err)
		}
		if !exists {
			return EmployeeResponse{}, employeeerrors.ErrManagerNotFound
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("create employee begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return EmployeeResponse{}, err
	}
	defer tx.Rollback()

	if req.EmployeeNumber == "" {
		nextVal, err := s.counter.GetNextValue(ctx, companyID, "employee_number")
		if err != nil {
			s.logger.Error("create employee generate number failed", zap.Error(err))
			return EmployeeResponse{}, err
		}
		req.EmployeeNumber = fmt.Sprintf("EMP-%06d", nextVal)
	}

	status := req.EmploymentStatus
	if status == "" {
		status = "ACTIVE"
	}

	empl := &Employee{
		ID:               uuid.New(),
		CompanyID:        companyUUID,
		DepartmentID:     uuidPtr(req.DepartmentID),
		ManagerID:        uuidPtr(req.ManagerID),
		FullName:         req.FullName,
		Email:            req.Email,
		EmployeeNumber:   req.EmployeeNumber,
		Phone:            req.Phone,
		HireDate:         hireDate,
		EmploymentStatus: status,
	}

	qtx := s.repo.WithTx(tx)
	if err := qtx.Create(ctx, empl); err != nil {
		s.logger.Error("create employee persist failed", zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	if s.outbox != nil {
		event := events.EmployeeCreatedEvent{
			EventType:  "employee_created",
			RequestID:  rid,
			EmployeeID: empl.ID.String(),
			CompanyID:  companyID,
			OccurredAt: time.Now().UTC(),
		}
		payload, err := json.Marshal(event)
		if err != nil {
			s.logger.Error("marshal event failed", zap.String("request_id", rid), zap.Error(err))
			return EmployeeResponse{}, err
		}

		outboxRepo := s.outbox.WithTx(tx)
		if err := outboxRepo.Create(ctx, kafka.OutboxEvent{
			ID:            uuid.NewString(),
			RequestID:     rid,
			AggregateType: "employee",
			AggregateID:   empl.ID.String(),
			EventType:     event.EventType,
			Topic:         events.EmployeeCreatedTopic,
			Payload:       payload,
			Status:        kafka.OutboxStatusPending,
		}); err != nil {
			s.logger.Error("create employee outbox persist failed",
				zap.String("employee_id", empl.ID.String()),
				zap.Error(err),
			)
			return EmployeeResponse{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("create employee commit failed", zap.String("request_id", rid), zap.Error(err))
		return EmployeeResponse{}, err
	}

	s.invalidateOptionsCache(ctx, companyID)

	s.logger.Info("create employee success",
		zap.String("request_id", rid),
		zap.String("employee_id", empl.ID.String()),
	)
	return mapToResponse(*empl), nil
}

func (s *service) GetAll(ctx context.Context, companyID string) ([]EmployeeResponse, error) {
	s.logger.Debug("get all employees requested", zap.String("company_id", companyID))
	empls, err := s.repo.FindAllByCompany(ctx, companyID)
	if err != nil {
		s.logger.Error("get all employees failed", zap.Error(err))
		return nil, mapRepositoryError(err)
	}

	return mapToListResponse(empls), nil
}

func (s *service) GetOptions(ctx context.Context, companyID string) ([]EmployeeResponse, error) {
	cacheKey := GetEmployeeOptionsKey(companyID)

	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var resp []EmployeeResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return resp, nil
			}
		}
	}

	// Singleflight collapses concurrent cache misses into one query.
	v, err, _ := s.sf.Do(cacheKey, func() (interface{}, error) {
		empls, err := s.repo.FindOptionsByCompany(ctx, companyID)
		if err != nil {
			return nil, mapRepositoryError(err)
		}

		resp := mapToListResponse(empls)

		if s.rdb != nil {
			if jsonData, err := json.Marshal(resp); err == nil {
				s.rdb.Set(ctx, cacheKey, jsonData, 1*time.Hour)
			}
		}

		return resp, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]EmployeeResponse), nil
}

func (s *service) GetByID(ctx context.Context, companyID, id string) (EmployeeResponse, error) {
	s.logger.Debug("get employee by id requested",
		zap.String("company_id", companyID),
		zap.String("employee_id", id),
	)
	empl, err := s.repo.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		s.logger.Error("get employee by id failed", zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	return mapToResponse(*empl), nil
}

func (s *service) Update(
	ctx context.Context,
	companyID, id string,
	req UpdateEmployeeRequest,
) (EmployeeResponse, error) {
	s.logger.Debug("update employee requested",
		zap.String("company_id", companyID),
		zap.String("employee_id", id),
	)

	hireDate, err := time.Parse("2006-01-02", req.HireDate)
	if err != nil {
		return EmployeeResponse{}, employeeerrors.ErrInvalidHireDate
	}

	if req.DepartmentID != "" {
		name, err := s.repo.GetDepartmentName(ctx, companyID, req.DepartmentID)
		if err != nil {
			return EmployeeResponse{}, mapRepositoryError(err)
		}
		if name == "" {
			return EmployeeResponse{}, employeeerrors.ErrDepartmentNotFound
		}
	}

	if req.ManagerID != "" {
		if req.ManagerID == id {
			return EmployeeResponse{}, employeeerrors.ErrSelfManager
		}
		exists, err := s.repo.ExistsInCompany(ctx, companyID, req.ManagerID)
		if err != nil {
			return EmployeeResponse{}, mapRepositoryError(err)
		}
		if !exists {
			return EmployeeResponse{}, employeeerrors.ErrManagerNotFound
		}
	}

	empl, err := s.repo.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		s.logger.Error("update employee fetch existing failed", zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	empl.FullName = req.FullName
	empl.Email = req.Email
	empl.DepartmentID = uuidPtr(req.DepartmentID)
	empl.ManagerID = uuidPtr(req.ManagerID)
	if req.EmployeeNumber != "" {
		empl.EmployeeNumber = req.EmployeeNumber
	}
	empl.Phone = req.Phone
	empl.HireDate = hireDate
	if req.EmploymentStatus != "" {
		empl.EmploymentStatus = req.EmploymentStatus
	}

	if err := s.repo.Update(ctx, empl); err != nil {
		s.logger.Error("update employee persist failed", zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	s.invalidateOptionsCache(ctx, companyID)

	s.logger.Info("update employee success", zap.String("employee_id", id))
	return mapToResponse(*empl), nil
}

func (s *service) Delete(ctx context.Context, companyID, id string) error {
	s.logger.Debug("delete employee requested",
		zap.String("company_id", companyID),
		zap.String("employee_id", id),
	)

	if _, err := s.repo.FindByIDAndCompany(ctx, companyID, id); err != nil {
		return mapRepositoryError(err)
	}

	if err := s.repo.Delete(ctx, companyID, id); err != nil {
		s.logger.Error("delete employee failed", zap.Error(err))
		return mapRepositoryError(err)
	}

	s.invalidateOptionsCache(ctx, companyID)

	s.logger.Info("delete employee success", zap.String("employee_id", id))
	return nil
}

func (s *service) invalidateOptionsCache(ctx context.Context, companyID string) {
	if s.rdb == nil {
		return
	}
	cacheKey := GetEmployeeOptionsKey(companyID)
	if err := s.rdb.Del(ctx, cacheKey).Err(); err != nil {
		s.logger.Error("failed to invalidate employee options cache",
			zap.Error(err),
			zap.String("key", cacheKey),
		)
	}
}

func mapToResponse(empl Employee) EmployeeResponse {
	return EmployeeResponse{
		ID:               empl.ID.String(),
		FullName:         empl.FullName,
		Email:            empl.Email,
		EmployeeNumber:   empl.EmployeeNumber,
		Phone:            empl.Phone,
		HireDate:         empl.HireDate.Format("2006-01-02"),
		EmploymentStatus: empl.EmploymentStatus,
		CompanyID:        empl.CompanyID.String(),
		DepartmentID:     uuidToString(empl.DepartmentID),
		ManagerID:        uuidToString(empl.ManagerID),
	}
}

func mapToListResponse(empls []Employee) []EmployeeResponse {
	res := make([]EmployeeResponse, len(empls))
	for i, e := range empls {
		res[i] = mapToResponse(e)
	}
	return res
}

func uuidPtr(v string) *uuid.UUID {
	id, err := uuid.Parse(v)
	if err != nil {
		return nil
	}
	return &id
}

func uuidToString(v *uuid.UUID) string {
	if v == nil {
		return ""
	}
	return v.String()
}
