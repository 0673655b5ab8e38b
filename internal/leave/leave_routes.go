package leave

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"go-hrms/internal/middleware"
	"go-hrms/internal/rbac"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService rbac.Service,
	rdb *redis.Client,
) {
	leaves := r.Group("/leaves")
	leaves.Use(middleware.AuthMiddleware())
	{
		leaves.GET("", middleware.RBACAuthorize(rbacService, "leave", "read"), handler.GetAll)
		leaves.GET("/:id", middleware.RBACAuthorize(rbacService, "leave", "read"), handler.GetById)
		leaves.POST("",
			middleware.RBACAuthorize(rbacService, "leave", "create"),
			middleware.Idempotency(rdb),
			handler.Create,
		)
		leaves.POST("/:id/approve", middleware.RBACAuthorize(rbacService, "leave", "approve"), handler.Approve)
		leaves.POST("/:id/reject", middleware.RBACAuthorize(rbacService, "leave", "approve"), handler.Reject)
		leaves.POST("/:id/cancel", middleware.RBACAuthorize(rbacService, "leave", "create"), handler.Cancel)
	}
}
