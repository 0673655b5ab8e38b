package app

import (
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-hrms/internal/middleware"
	"go-hrms/internal/shared/connection"
)

// BuildApp connects the infrastructure and registers every module's routes
// on the given engine.
func BuildApp(router *gin.Engine) error {
	gormDB, err := connection.ConnectGORMWithRetry(
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_SSLMODE"),
		5,
	)
	if err != nil {
		return err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}

	rdb, err := connection.ConnectRedisWithRetry(os.Getenv("REDIS_ADDR"), 5)
	if err != nil {
		return err
	}

	router.Use(middleware.RequestID())
	router.Use(middleware.RateLimitByIP(20, 40))

	return registerModules(router, sqlDB, gormDB, rdb, zap.L())
}
