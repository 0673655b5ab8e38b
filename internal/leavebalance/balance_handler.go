package leavebalance

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-hrms/internal/shared/apperror"
	"go-hrms/internal/shared/response"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("leavebalance.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leavebalance.handler")
	}
	return &Handler{service: service, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("balance request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) Provision(c *gin.Context) {
	companyID := c.GetString("company_id")

	var req ProvisionBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("http provision balance validation failed", zap.Error(err))
		mapped := apperror.ToHTTP(apperror.MapValidationError(err))
		response.Error(c, mapped.Status, mapped.Code, mapped.Message, err.Error())
		return
	}

	resp, err := h.service.Provision(c.Request.Context(), companyID, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) GetForEmployee(c *gin.Context) {
	companyID := c.GetString("company_id")
	employeeID := c.Param("employee_id")

	category := c.Query("category")
	if category != "" {
		year, err := strconv.Atoi(c.DefaultQuery("year", "0"))
		if err != nil || year == 0 {
			response.Error(c, http.StatusBadRequest, apperror.CodeInvalidInput, "year query parameter is required with category", nil)
			return
		}
		resp, err := h.service.GetByScope(c.Request.Context(), companyID, employeeID, category, year)
		if err != nil {
			h.writeServiceError(c, err)
			return
		}
		response.Success(c, http.StatusOK, resp, nil)
		return
	}

	resp, err := h.service.GetForEmployee(c.Request.Context(), companyID, employeeID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}
