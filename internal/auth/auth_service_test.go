package auth_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"go-hrms/internal/auth"
	autherrors "go-hrms/internal/auth/errors"
	"go-hrms/internal/domain"
	"go-hrms/internal/employee"
)

type fakeUserRepository struct {
	createFn     func(ctx context.Context, user *auth.User) error
	getByEmailFn func(ctx context.Context, email string) (*auth.User, error)
	getByIDFn    func(ctx context.Context, id uuid.UUID) (*auth.User, error)
}

func (f *fakeUserRepository) Create(ctx context.Context, user *auth.User) error {
	if f.createFn != nil {
		return f.createFn(ctx, user)
	}
	return nil
}

func (f *fakeUserRepository) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	if f.getByEmailFn != nil {
		return f.getByEmailFn(ctx, email)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeRBACService struct {
	loadedCompanies []string
}

func (f *fakeRBACService) LoadCompanyPolicy(ctx context.Context, companyID string) error {
	f.loadedCompanies = append(f.loadedCompanies, companyID)
	return nil
}

func (f *fakeRBACService) Enforce(req domain.EnforceRequest) (bool, error) { return false, nil }

func (f *fakeRBACService) CanDecideFor(ctx context.Context, companyID, approverID, employeeID string) (bool, error) {
	return false, nil
}

func (f *fakeRBACService) ListRoles(ctx context.Context, companyID string) ([]domain.RoleResponse, error) {
	return nil, nil
}

func (f *fakeRBACService) GetRole(ctx context.Context, companyID, id string) (domain.RoleResponse, error) {
	return domain.RoleResponse{}, nil
}

func (f *fakeRBACService) CreateRole(ctx context.Context, companyID string, req domain.CreateRoleRequest) (domain.RoleResponse, error) {
	return domain.RoleResponse{}, nil
}

func (f *fakeRBACService) UpdateRole(ctx context.Context, companyID, id string, req domain.UpdateRoleRequest) (domain.RoleResponse, error) {
	return domain.RoleResponse{}, nil
}

func (f *fakeRBACService) DeleteRole(ctx context.Context, companyID, id string) error { return nil }

func (f *fakeRBACService) ListPermissions(ctx context.Context) ([]domain.PermissionResponse, error) {
	return nil, nil
}

type fakeEmployeeLookup struct {
	findByIDFn func(ctx context.Context, id string) (*employee.Employee, error)
}

func (f *fakeEmployeeLookup) WithTx(tx *sql.Tx) employee.Repository { return f }

func (f *fakeEmployeeLookup) Create(ctx context.Context, empl *employee.Employee) error { return nil }

func (f *fakeEmployeeLookup) FindAllByCompany(ctx context.Context, companyID string) ([]employee.Employee, error) {
	return nil, nil
}

func (f *fakeEmployeeLookup) FindOptionsByCompany(ctx context.Context, companyID string) ([]employee.Employee, error) {
	return nil, nil
}

func (f *fakeEmployeeLookup) FindByIDAndCompany(ctx context.Context, companyID, id string) (*employee.Employee, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeEmployeeLookup) FindByID(ctx context.Context, id string) (*employee.Employee, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeEmployeeLookup) GetDepartmentName(ctx context.Context, companyID, departmentID string) (string, error) {
	return "", nil
}

func (f *fakeEmployeeLookup) ExistsInCompany(ctx context.Context, companyID, id string) (bool, error) {
	return false, nil
}

func (f *fakeEmployeeLookup) Update(ctx context.Context, empl *employee.Employee) error { return nil }

func (f *fakeEmployeeLookup) Delete(ctx context.Context, companyID, id string) error { return nil }

func hashPassword(t *testing.T, plain string) string {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	assert.NoError(t, err)
	return string(hashed)
}

func activeUser(t *testing.T, password string) *auth.User {
	employeeID := uuid.New()
	return &auth.User{
		ID:         uuid.New(),
		EmployeeID: &employeeID,
		CompanyID:  uuid.New(),
		Email:      "ana@example.com",
		Name:       "Ana Silva",
		Password:   hashPassword(t, password),
		Role:       "EMPLOYEE",
		IsActive:   true,
	}
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	t.Setenv("JWT_SECRET", "test-secret")

	t.Run("success", func(t *testing.T) {
		user := activeUser(t, "s3cret-pass")
		repo := &fakeUserRepository{
			getByEmailFn: func(ctx context.Context, email string) (*auth.User, error) {
				assert.Equal(t, user.Email, email)
				return user, nil
			},
		}
		rbacSvc := &fakeRBACService{}
		svc := auth.NewService(repo, rbacSvc, &fakeEmployeeLookup{})

		access, refresh, resp, err := svc.Login(ctx, user.Email, "s3cret-pass")

		assert.NoError(t, err)
		assert.NotEmpty(t, access)
		assert.NotEmpty(t, refresh)
		assert.Equal(t, user.ID.String(), resp.ID)
		assert.Equal(t, user.EmployeeID.String(), resp.EmployeeID)
		assert.Equal(t, []string{user.CompanyID.String()}, rbacSvc.loadedCompanies)
	})

	t.Run("negative wrong password", func(t *testing.T) {
		user := activeUser(t, "s3cret-pass")
		repo := &fakeUserRepository{
			getByEmailFn: func(ctx context.Context, email string) (*auth.User, error) {
				return user, nil
			},
		}
		svc := auth.NewService(repo, &fakeRBACService{}, &fakeEmployeeLookup{})

		_, _, _, err := svc.Login(ctx, user.Email, "wrong")

		assert.ErrorIs(t, err, autherrors.ErrInvalidCredentials)
	})

	t.Run("negative unknown email", func(t *testing.T) {
		svc := auth.NewService(&fakeUserRepository{}, &fakeRBACService{}, &fakeEmployeeLookup{})

		_, _, _, err := svc.Login(ctx, "nobody@example.com", "whatever")

		assert.ErrorIs(t, err, autherrors.ErrInvalidCredentials)
	})

	t.Run("negative inactive user", func(t *testing.T) {
		user := activeUser(t, "s3cret-pass")
		user.IsActive = false
		repo := &fakeUserRepository{
			getByEmailFn: func(ctx context.Context, email string) (*auth.User, error) {
				return user, nil
			},
		}
		svc := auth.NewService(repo, &fakeRBACService{}, &fakeEmployeeLookup{})

		_, _, _, err := svc.Login(ctx, user.Email, "s3cret-pass")

		assert.ErrorIs(t, err, autherrors.ErrUserInactive)
	})
}

func TestAuthService_RefreshToken(t *testing.T) {
	ctx := context.Background()
	t.Setenv("JWT_SECRET", "test-secret")

	t.Run("success round trip", func(t *testing.T) {
		user := activeUser(t, "s3cret-pass")
		repo := &fakeUserRepository{
			getByEmailFn: func(ctx context.Context, email string) (*auth.User, error) {
				return user, nil
			},
			getByIDFn: func(ctx context.Context, id uuid.UUID) (*auth.User, error) {
				assert.Equal(t, user.ID, id)
				return user, nil
			},
		}
		svc := auth.NewService(repo, &fakeRBACService{}, &fakeEmployeeLookup{})

		_, refresh, _, err := svc.Login(ctx, user.Email, "s3cret-pass")
		assert.NoError(t, err)

		newAccess, newRefresh, resp, err := svc.RefreshToken(ctx, refresh)

		assert.NoError(t, err)
		assert.NotEmpty(t, newAccess)
		assert.NotEmpty(t, newRefresh)
		assert.Equal(t, user.ID.String(), resp.ID)
	})

	t.Run("negative garbage token", func(t *testing.T) {
		svc := auth.NewService(&fakeUserRepository{}, &fakeRBACService{}, &fakeEmployeeLookup{})

		_, _, _, err := svc.RefreshToken(ctx, "not-a-jwt")

		assert.ErrorIs(t, err, autherrors.ErrInvalidRefreshToken)
	})
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()
	employeeID := uuid.New()

	employees := &fakeEmployeeLookup{
		findByIDFn: func(ctx context.Context, id string) (*employee.Employee, error) {
			assert.Equal(t, employeeID.String(), id)
			return &employee.Employee{ID: employeeID, CompanyID: companyID}, nil
		},
	}

	t.Run("success derives company from employee", func(t *testing.T) {
		var created *auth.User
		repo := &fakeUserRepository{
			createFn: func(ctx context.Context, user *auth.User) error {
				created = user
				return nil
			},
		}
		rbacSvc := &fakeRBACService{}
		svc := auth.NewService(repo, rbacSvc, employees)

		resp, err := svc.Register(ctx, auth.RegisterRequest{
			EmployeeID: employeeID.String(),
			Email:      "ana@example.com",
			Name:       "Ana Silva",
			Password:   "s3cret-pass",
		})

		assert.NoError(t, err)
		assert.NotNil(t, created)
		assert.Equal(t, companyID.String(), resp.CompanyID)
		assert.Equal(t, "EMPLOYEE", created.Role)
		assert.True(t, created.IsActive)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.Password), []byte("s3cret-pass")))
		assert.Equal(t, []string{companyID.String()}, rbacSvc.loadedCompanies)
	})

	t.Run("negative duplicate email", func(t *testing.T) {
		repo := &fakeUserRepository{
			createFn: func(ctx context.Context, user *auth.User) error {
				return &pgconn.PgError{Code: "23505", ConstraintName: "uq_users_email"}
			},
		}
		svc := auth.NewService(repo, &fakeRBACService{}, employees)

		_, err := svc.Register(ctx, auth.RegisterRequest{
			EmployeeID: employeeID.String(),
			Email:      "ana@example.com",
			Name:       "Ana Silva",
			Password:   "s3cret-pass",
		})

		assert.ErrorIs(t, err, autherrors.ErrEmailAlreadyRegistered)
	})

	t.Run("negative unknown employee", func(t *testing.T) {
		svc := auth.NewService(&fakeUserRepository{}, &fakeRBACService{}, &fakeEmployeeLookup{})

		_, err := svc.Register(ctx, auth.RegisterRequest{
			EmployeeID: uuid.New().String(),
			Email:      "ana@example.com",
			Name:       "Ana Silva",
			Password:   "s3cret-pass",
		})

		assert.Error(t, err)
	})
}
