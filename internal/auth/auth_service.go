package auth

import (
	"context"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	autherrors "go-hrms/internal/auth/errors"
	"go-hrms/internal/employee"
	employeeerrors "go-hrms/internal/employee/errors"
	"go-hrms/internal/rbac"
	"go-hrms/internal/shared/apperror"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour
)

//go:generate mockgen -source=auth_service.go -destination=mock/auth_service_mock.go -package=mock
type Service interface {
	Login(ctx context.Context, email, password string) (accessToken, refreshToken string, resp AuthResponse, err error)
	RefreshToken(ctx context.Context, refreshToken string) (newAccessToken, newRefreshToken string, resp AuthResponse, err error)
	GetMe(ctx context.Context, userID string) (*AuthResponse, error)
	Register(ctx context.Context, req RegisterRequest) (AuthResponse, error)
}

type service struct {
	repo         Repository
	rbac         rbac.Service
	employeeRepo employee.Repository
	logger       *zap.Logger
}

func NewService(repo Repository, rbacService rbac.Service, employeeRepo employee.Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("auth.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("auth.service")
	}
	return &service{repo: repo, rbac: rbacService, employeeRepo: employeeRepo, logger: l}
}

func (s *service) Login(ctx context.Context, email, password string) (string, string, AuthResponse, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return "", "", AuthResponse{}, autherrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", "", AuthResponse{}, autherrors.ErrUserInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", "", AuthResponse{}, autherrors.ErrInvalidCredentials
	}

	if err := s.rbac.LoadCompanyPolicy(ctx, user.CompanyID.String()); err != nil {
		s.logger.Error("failed to load company policy on login", zap.Error(err))
		return "", "", AuthResponse{}, err
	}

	accessToken, err := s.generateToken(user, accessTokenTTL)
	if err != nil {
		return "", "", AuthResponse{}, autherrors.ErrTokenGenerationFailed
	}
	refreshToken, err := s.generateToken(user, refreshTokenTTL)
	if err != nil {
		return "", "", AuthResponse{}, autherrors.ErrTokenGenerationFailed
	}

	s.logger.Info("user logged in", zap.String("user_id", user.ID.String()))
	return accessToken, refreshToken, mapToAuthResponse(user), nil
}

func (s *service) RefreshToken(ctx context.Context, refreshToken string) (string, string, AuthResponse, error) {
	token, err := jwt.Parse(refreshToken, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, autherrors.ErrInvalidToken
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		return "", "", AuthResponse{}, autherrors.ErrInvalidRefreshToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", AuthResponse{}, autherrors.ErrInvalidToken
	}

	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		return "", "", AuthResponse{}, autherrors.ErrInvalidToken
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return "", "", AuthResponse{}, autherrors.ErrInvalidUserID
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return "", "", AuthResponse{}, autherrors.ErrUserNotFound
	}

	newAccessToken, err := s.generateToken(user, accessTokenTTL)
	if err != nil {
		return "", "", AuthResponse{}, autherrors.ErrTokenGenerationFailed
	}
	newRefreshToken, err := s.generateToken(user, refreshTokenTTL)
	if err != nil {
		return "", "", AuthResponse{}, autherrors.ErrTokenGenerationFailed
	}

	return newAccessToken, newRefreshToken, mapToAuthResponse(user), nil
}

func (s *service) GetMe(ctx context.Context, userID string) (*AuthResponse, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, autherrors.ErrInvalidUserID
	}

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, autherrors.ErrUserNotFound
	}

	resp := mapToAuthResponse(u)
	return &resp, nil
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (AuthResponse, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return AuthResponse{}, err
	}

	eID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		return AuthResponse{}, employeeerrors.ErrInvalidEmployeeID
	}
	emp, err := s.employeeRepo.FindByID(ctx, eID.String())
	if err != nil {
		return AuthResponse{}, employeeerrors.ErrEmployeeNotFound
	}

	user := &User{
		ID:         uuid.New(),
		EmployeeID: &eID,
		CompanyID:  emp.CompanyID,
		Email:      req.Email,
		Name:       req.Name,
		Password:   string(hashed),
		Role:       "EMPLOYEE",
		IsActive:   true,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if apperror.UniqueViolation(err) {
			return AuthResponse{}, autherrors.ErrEmailAlreadyRegistered
		}
		return AuthResponse{}, apperror.FromDB(err)
	}

	if err := s.rbac.LoadCompanyPolicy(ctx, emp.CompanyID.String()); err != nil {
		s.logger.Error("failed to load company policy on register", zap.Error(err))
		return AuthResponse{}, err
	}

	s.logger.Info("user registered",
		zap.String("user_id", user.ID.String()),
		zap.String("employee_id", eID.String()),
	)
	return mapToAuthResponse(user), nil
}

func (s *service) generateToken(user *User, expiry time.Duration) (string, error) {
	employeeID := ""
	if user.EmployeeID != nil {
		employeeID = user.EmployeeID.String()
	}

	claims := jwt.MapClaims{
		"user_id":     user.ID.String(),
		"employee_id": employeeID,
		"company_id":  user.CompanyID.String(),
		"role":        user.Role,
		"exp":         time.Now().Add(expiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(os.Getenv("JWT_SECRET")))
}

func mapToAuthResponse(user *User) AuthResponse {
	resp := AuthResponse{
		ID:        user.ID.String(),
		CompanyID: user.CompanyID.String(),
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
	}
	if user.EmployeeID != nil {
		resp.EmployeeID = user.EmployeeID.String()
	}
	return resp
}
