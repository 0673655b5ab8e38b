package leavebalance

import (
	"github.com/gin-gonic/gin"

	"go-hrms/internal/middleware"
	"go-hrms/internal/rbac"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService rbac.Service,
) {
	balances := r.Group("/leave-balances")
	balances.Use(middleware.AuthMiddleware())
	{
		balances.POST("", middleware.RBACAuthorize(rbacService, "leave_balance", "create"), handler.Provision)
		balances.GET("/employees/:employee_id", middleware.RBACAuthorize(rbacService, "leave_balance", "read"), handler.GetForEmployee)
	}
}
