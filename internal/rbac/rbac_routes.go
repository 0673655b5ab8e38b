package rbac

import (
	"github.com/gin-gonic/gin"

	"go-hrms/internal/middleware"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, service Service) {
	group := r.Group("/rbac")
	group.Use(middleware.AuthMiddleware())
	{
		group.POST("/enforce", handler.Enforce)

		group.GET("/roles", middleware.RBACAuthorize(service, "role", "read"), handler.ListRoles)
		group.GET("/roles/:id", middleware.RBACAuthorize(service, "role", "read"), handler.GetRole)
		group.POST("/roles", middleware.RBACAuthorize(service, "role", "create"), handler.CreateRole)
		group.PUT("/roles/:id", middleware.RBACAuthorize(service, "role", "update"), handler.UpdateRole)
		group.DELETE("/roles/:id", middleware.RBACAuthorize(service, "role", "delete"), handler.DeleteRole)

		group.GET("/permissions", middleware.RBACAuthorize(service, "role", "read"), handler.ListPermissions)
	}
}
