package leave

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-hrms/internal/domain"
	leaveerrors "go-hrms/internal/leave/errors"
	"go-hrms/internal/shared/apperror"
	"go-hrms/internal/shared/response"
)

// PermissionChecker is the slice of the rbac service the handler needs for
// the non-route-level checks (read_all widening, backfill capability,
// submitting on another employee's behalf).
type PermissionChecker interface {
	Enforce(req domain.EnforceRequest) (bool, error)
	CanDecideFor(ctx context.Context, companyID, approverID, employeeID string) (bool, error)
}

type Handler struct {
	service Service
	perms   PermissionChecker
	logger  *zap.Logger
}

func NewHandler(service Service, perms PermissionChecker, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("leave.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.handler")
	}
	return &Handler{service: service, perms: perms, logger: l}
}

func getActorID(c *gin.Context) string {
	actorID := c.GetString("employee_id")
	if actorID == "" {
		actorID = c.GetString("user_id_validated")
	}
	return actorID
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("leave request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.String("message", httpErr.Message),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) can(c *gin.Context, action string) bool {
	allowed, err := h.perms.Enforce(domain.EnforceRequest{
		EmployeeID: getActorID(c),
		CompanyID:  c.GetString("company_id"),
		Resource:   "leave",
		Action:     action,
	})
	if err != nil {
		h.logger.Error("leave permission check failed",
			zap.String("action", action),
			zap.Error(err),
		)
		return false
	}
	return allowed
}

func (h *Handler) Create(c *gin.Context) {
	companyID := c.GetString("company_id")
	actorID := getActorID(c)
	h.logger.Debug("http create leave", zap.String("company_id", companyID), zap.String("actor_id", actorID))

	var req CreateLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("http create leave validation failed", zap.Error(err))
		mapped := apperror.ToHTTP(apperror.MapValidationError(err))
		response.Error(c, mapped.Status, mapped.Code, mapped.Message, err.Error())
		return
	}

	// Submitting for someone else needs the same authority as deciding
	// their requests.
	if req.EmployeeID != actorID {
		allowed, err := h.perms.CanDecideFor(c.Request.Context(), companyID, actorID, req.EmployeeID)
		if err != nil {
			h.writeServiceError(c, err)
			return
		}
		if !allowed {
			h.writeServiceError(c, leaveerrors.ErrSubmitForOthersDenied)
			return
		}
	}

	allowBackfill := false
	if req.Backfill {
		if !h.can(c, "backfill") {
			h.writeServiceError(c, leaveerrors.ErrBackfillNotAllowed)
			return
		}
		allowBackfill = true
	}

	resp, err := h.service.Create(c.Request.Context(), companyID, actorID, req, allowBackfill)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) GetAll(c *gin.Context) {
	ctx := c.Request.Context()
	companyID := c.GetString("company_id")
	actorID := getActorID(c)

	resp, err := h.service.GetAll(ctx, companyID, actorID, h.can(c, "read_all"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if pageSize < 1 {
		pageSize = 10
	}

	total := int64(len(resp))
	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(resp) {
		start = len(resp)
	}
	if end > len(resp) {
		end = len(resp)
	}

	meta := response.NewPaginationMeta(total, page, pageSize)
	response.Success(c, http.StatusOK, resp[start:end], &meta)
}

func (h *Handler) GetById(c *gin.Context) {
	ctx := c.Request.Context()
	targetID := c.Param("id")
	companyID := c.GetString("company_id")

	resp, err := h.service.GetByID(ctx, companyID, targetID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Approve(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	companyID := c.GetString("company_id")
	actorID := getActorID(c)

	resp, err := h.service.Approve(ctx, companyID, actorID, id)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Reject(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	companyID := c.GetString("company_id")
	actorID := getActorID(c)

	var req RejectLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("http reject leave validation failed", zap.Error(err))
		mapped := apperror.ToHTTP(apperror.MapValidationError(err))
		response.Error(c, mapped.Status, mapped.Code, mapped.Message, err.Error())
		return
	}

	resp, err := h.service.Reject(ctx, companyID, actorID, id, req.RejectionReason)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Cancel(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	companyID := c.GetString("company_id")
	actorID := getActorID(c)

	resp, err := h.service.Cancel(ctx, companyID, actorID, id)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}
