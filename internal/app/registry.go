package app

import (
	"database/sql"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-hrms/internal/auth"
	"go-hrms/internal/department"
	"go-hrms/internal/employee"
	"go-hrms/internal/leave"
	"go-hrms/internal/leavebalance"
	"go-hrms/internal/messaging/kafka"
	"go-hrms/internal/rbac"
	"go-hrms/internal/rbac/infra"
	"go-hrms/internal/shared/counter"
)

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
	logger *zap.Logger,
) error {
	// --- Repositories ---
	rbacRepo := rbac.NewRepository(gormDB)
	authRepo := auth.NewRepository(gormDB)
	departmentRepo := department.NewRepository(gormDB)
	employeeRepo := employee.NewRepository(gormDB)
	leaveRepo := leave.NewRepository(gormDB)
	balanceRepo := leavebalance.NewRepository(gormDB)
	counterRepo := counter.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- RBAC Core ---
	enforcer, err := infra.NewEnforcer(filepath.Join("internal", "rbac", "infra", "model.conf"))
	if err != nil {
		return err
	}
	rbacService := rbac.NewService(rbacRepo, enforcer)

	// --- Services ---
	authService := auth.NewService(authRepo, rbacService, employeeRepo)
	departmentService := department.NewService(db, departmentRepo)
	employeeService := employee.NewServiceWithOutbox(db, employeeRepo, counterRepo, outboxRepo, rdb)
	balanceService := leavebalance.NewService(balanceRepo)
	leaveService := leave.NewServiceWithOutbox(db, leaveRepo, balanceRepo, rbacService, outboxRepo)

	// --- Handlers ---
	authHandler := auth.NewHandler(authService)
	departmentHandler := department.NewHandler(departmentService)
	employeeHandler := employee.NewHandler(employeeService)
	leaveHandler := leave.NewHandler(leaveService, rbacService)
	balanceHandler := leavebalance.NewHandler(balanceService)
	rbacHandler := rbac.NewHandler(rbacService)

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		auth.RegisterRoutes(api, authHandler)
		department.RegisterRoutes(api, departmentHandler, rbacService)
		employee.RegisterRoutes(api, employeeHandler, rbacService, logger)
		leave.RegisterRoutes(api, leaveHandler, rbacService, rdb)
		leavebalance.RegisterRoutes(api, balanceHandler, rbacService)
		rbac.RegisterRoutes(api, rbacHandler, rbacService)
	}

	return nil
}
