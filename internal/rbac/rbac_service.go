package rbac

import (
	"context"
	"errors"
	"sync"

	"github.com/casbin/casbin/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-hrms/internal/domain"
	"go-hrms/internal/shared/apperror"
)

//go:generate mockgen -source=rbac_service.go -destination=mock/rbac_service_mock.go -package=mock
type Service interface {
	LoadCompanyPolicy(ctx context.Context, companyID string) error
	Enforce(req domain.EnforceRequest) (bool, error)
	// CanDecideFor answers whether approverID may approve or reject leave
	// requests of employeeID: the employee's direct manager always may, and
	// so may anyone holding leave:approve_any in the company. An employee is
	// never an authority over themselves.
	CanDecideFor(ctx context.Context, companyID, approverID, employeeID string) (bool, error)

	ListRoles(ctx context.Context, companyID string) ([]domain.RoleResponse, error)
	GetRole(ctx context.Context, companyID, id string) (domain.RoleResponse, error)
	CreateRole(ctx context.Context, companyID string, req domain.CreateRoleRequest) (domain.RoleResponse, error)
	UpdateRole(ctx context.Context, companyID, id string, req domain.UpdateRoleRequest) (domain.RoleResponse, error)
	DeleteRole(ctx context.Context, companyID, id string) error
	ListPermissions(ctx context.Context) ([]domain.PermissionResponse, error)
}

type service struct {
	repo     Repository
	enforcer *casbin.Enforcer
	logger   *zap.Logger

	// The enforcer holds one company's policy at a time; mu serializes
	// reload-then-enforce cycles.
	mu sync.Mutex
}

func NewService(repo Repository, enforcer *casbin.Enforcer, logger ...*zap.Logger) Service {
	l := zap.L().Named("rbac.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("rbac.service")
	}
	return &service{repo: repo, enforcer: enforcer, logger: l}
}

func (s *service) LoadCompanyPolicy(ctx context.Context, companyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.loadCompanyPolicyUnlocked(ctx, companyID)
}

func (s *service) loadCompanyPolicyUnlocked(ctx context.Context, companyID string) error {
	s.enforcer.ClearPolicy()

	employeeRoles, err := s.repo.GetEmployeeRoles(ctx, companyID)
	if err != nil {
		return err
	}

	for _, er := range employeeRoles {
		if _, err := s.enforcer.AddGroupingPolicy(er.EmployeeID, er.RoleID, companyID); err != nil {
			return err
		}
	}

	rolePerms, err := s.repo.GetRolePermissions(ctx, companyID)
	if err != nil {
		return err
	}

	for _, rp := range rolePerms {
		if _, err := s.enforcer.AddPolicy(rp.RoleID, companyID, rp.Resource, rp.Action); err != nil {
			return err
		}
	}

	s.logger.Debug("company policy loaded",
		zap.String("company_id", companyID),
		zap.Int("employee_roles", len(employeeRoles)),
		zap.Int("role_permissions", len(rolePerms)),
	)
	return nil
}

func (s *service) Enforce(req domain.EnforceRequest) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadCompanyPolicyUnlocked(context.Background(), req.CompanyID); err != nil {
		return false, err
	}

	allowed, err := s.enforcer.Enforce(req.EmployeeID, req.CompanyID, req.Resource, req.Action)
	if err != nil {
		s.logger.Error("enforce failed",
			zap.String("employee_id", req.EmployeeID),
			zap.String("company_id", req.CompanyID),
			zap.String("resource", req.Resource),
			zap.String("action", req.Action),
			zap.Error(err),
		)
		return false, err
	}

	s.logger.Debug("enforce result",
		zap.String("employee_id", req.EmployeeID),
		zap.String("resource", req.Resource),
		zap.String("action", req.Action),
		zap.Bool("allowed", allowed),
	)
	return allowed, nil
}

func (s *service) CanDecideFor(ctx context.Context, companyID, approverID, employeeID string) (bool, error) {
	if approverID == employeeID {
		return false, nil
	}

	managerID, err := s.repo.GetEmployeeManager(ctx, companyID, employeeID)
	if err != nil {
		return false, err
	}
	if managerID != "" && managerID == approverID {
		return true, nil
	}

	return s.Enforce(domain.EnforceRequest{
		EmployeeID: approverID,
		CompanyID:  companyID,
		Resource:   "leave",
		Action:     "approve_any",
	})
}

func (s *service) ListRoles(ctx context.Context, companyID string) ([]domain.RoleResponse, error) {
	roles, err := s.repo.ListRoles(ctx, companyID)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.RoleResponse, 0, len(roles))
	for _, role := range roles {
		mapped, err := s.mapRole(ctx, role)
		if err != nil {
			return nil, err
		}
		resp = append(resp, mapped)
	}
	return resp, nil
}

func (s *service) GetRole(ctx context.Context, companyID, id string) (domain.RoleResponse, error) {
	role, err := s.findCompanyRole(ctx, companyID, id)
	if err != nil {
		return domain.RoleResponse{}, err
	}
	return s.mapRole(ctx, *role)
}

func (s *service) CreateRole(ctx context.Context, companyID string, req domain.CreateRoleRequest) (domain.RoleResponse, error) {
	if existing, err := s.repo.GetRoleByName(ctx, companyID, req.Name); err == nil && existing != nil {
		return domain.RoleResponse{}, apperror.ErrConflict
	}

	role := RoleRow{
		CompanyID:   companyID,
		Name:        req.Name,
		Description: req.Description,
	}
	if err := s.repo.CreateRole(ctx, &role); err != nil {
		return domain.RoleResponse{}, apperror.FromDB(err)
	}

	if len(req.Permissions) > 0 {
		if err := s.repo.UpdateRolePermissions(ctx, role.ID, req.Permissions); err != nil {
			return domain.RoleResponse{}, apperror.FromDB(err)
		}
	}

	s.logger.Info("role created", zap.String("role_id", role.ID), zap.String("name", role.Name))
	return s.mapRole(ctx, role)
}

func (s *service) UpdateRole(ctx context.Context, companyID, id string, req domain.UpdateRoleRequest) (domain.RoleResponse, error) {
	role, err := s.findCompanyRole(ctx, companyID, id)
	if err != nil {
		return domain.RoleResponse{}, err
	}

	if req.Name != "" {
		role.Name = req.Name
	}
	if req.Description != "" {
		role.Description = req.Description
	}
	if err := s.repo.UpdateRole(ctx, role); err != nil {
		return domain.RoleResponse{}, apperror.FromDB(err)
	}

	if req.Permissions != nil {
		if err := s.repo.UpdateRolePermissions(ctx, role.ID, req.Permissions); err != nil {
			return domain.RoleResponse{}, apperror.FromDB(err)
		}
	}

	return s.mapRole(ctx, *role)
}

func (s *service) DeleteRole(ctx context.Context, companyID, id string) error {
	if _, err := s.findCompanyRole(ctx, companyID, id); err != nil {
		return err
	}
	if err := s.repo.DeleteRole(ctx, id); err != nil {
		return apperror.FromDB(err)
	}
	s.logger.Info("role deleted", zap.String("role_id", id))
	return nil
}

func (s *service) ListPermissions(ctx context.Context) ([]domain.PermissionResponse, error) {
	perms, err := s.repo.ListPermissions(ctx)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.PermissionResponse, len(perms))
	for i, p := range perms {
		resp[i] = domain.PermissionResponse{
			ID:       p.ID,
			Resource: p.Resource,
			Action:   p.Action,
			Label:    p.Label,
			Category: p.Category,
		}
	}
	return resp, nil
}

func (s *service) findCompanyRole(ctx context.Context, companyID, id string) (*RoleRow, error) {
	role, err := s.repo.GetRoleByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.ErrNotFound
	}
	if err != nil {
		return nil, apperror.FromDB(err)
	}
	if role.CompanyID != companyID {
		return nil, apperror.ErrNotFound
	}
	return role, nil
}

func (s *service) mapRole(ctx context.Context, role RoleRow) (domain.RoleResponse, error) {
	perms, err := s.repo.GetPermissionsByRoleID(ctx, role.ID)
	if err != nil {
		return domain.RoleResponse{}, apperror.FromDB(err)
	}

	permNames := make([]string, len(perms))
	for i, p := range perms {
		permNames[i] = p.Resource + ":" + p.Action
	}

	return domain.RoleResponse{
		ID:          role.ID,
		Name:        role.Name,
		Description: role.Description,
		Permissions: permNames,
	}, nil
}
