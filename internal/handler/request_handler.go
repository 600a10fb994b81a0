package handler

import (
	"errors"
	"net/http"

	"debtflow/internal/middleware"
	"debtflow/internal/model"
	"debtflow/internal/repository"
	"debtflow/internal/service"
	"debtflow/pkg/pagination"
	"debtflow/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var approverRoles = []string{model.RoleCashier, model.RoleOperator, model.RoleSupervisor, model.RoleLeader}

type RequestHandler struct {
	workflow service.WorkflowService
	locks    service.LockService
	export   service.ExportService
}

func NewRequestHandler(workflow service.WorkflowService, locks service.LockService, export service.ExportService) *RequestHandler {
	return &RequestHandler{workflow: workflow, locks: locks, export: export}
}

func (h *RequestHandler) RegisterRoutes(router *gin.RouterGroup) {
	requests := router.Group("/api/requests")
	{
		requests.POST("", middleware.RequireRole(model.RoleManager, model.RoleAdmin), h.CreateRequest)
		requests.GET("", middleware.RequireRole(allRoles()...), h.ListRequests)
		requests.GET("/export", middleware.RequireRole(model.RoleManager, model.RoleLeader, model.RoleSupervisor, model.RoleAdmin), h.ExportRequests)
		requests.GET("/pending", middleware.RequireRole(approverRoles...), h.ListPending)
		requests.GET("/:id", middleware.RequireRole(allRoles()...), h.GetRequest)
		requests.POST("/:id/decision", middleware.RequireRole(approverRoles...), h.Decide)
		requests.POST("/:id/lock", middleware.RequireRole(approverRoles...), h.AcquireLock)
		requests.DELETE("/:id/lock", middleware.RequireRole(approverRoles...), h.ReleaseLock)
		requests.POST("/:id/reassign", middleware.RequireRole(model.RoleManager, model.RoleAdmin), h.Reassign)
	}
}

func allRoles() []string {
	return []string{model.RoleManager, model.RoleCashier, model.RoleOperator, model.RoleLeader, model.RoleSupervisor, model.RoleAdmin}
}

// CreateRequest submits a new debt report
// @Summary      Create debt request
// @Description  Submits a debt report and routes it to the first approver
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateRequestDTO  true  "Debt Request Payload"
// @Success      201      {object}  response.Response{data=service.RequestResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/requests [post]
func (h *RequestHandler) CreateRequest(c *gin.Context) {
	var req service.CreateRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.workflow.CreateRequest(c.Request.Context(), contextUserID(c), req)
	if err != nil {
		status := statusForError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// Decide applies an approver's decision to a request
// @Summary      Decide on a request
// @Description  Approves, rejects, marks as debt, or grants a payment extension at the caller's step
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string             true  "Request ID"
// @Param        payload  body      service.DecideDTO  true  "Decision Payload"
// @Success      200      {object}  response.Response{data=service.RequestResponse}
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/requests/{id}/decision [post]
func (h *RequestHandler) Decide(c *gin.Context) {
	var req service.DecideDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.workflow.Decide(c.Request.Context(), c.Param("id"), contextUserID(c), contextUserRole(c), req)
	if err != nil {
		status := statusForError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// ListPending returns the requests awaiting the caller
// @Summary      List pending requests
// @Description  Returns the requests in the caller's step and scope
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.RequestResponse}
// @Router       /api/requests/pending [get]
func (h *RequestHandler) ListPending(c *gin.Context) {
	result, err := h.workflow.ListPending(c.Request.Context(), contextUserID(c), contextUserRole(c))
	if err != nil {
		status := statusForError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// ListRequests returns requests filtered by status/brand/branch
// @Summary      List requests
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        status     query  string  false  "Status filter"
// @Param        brand_id   query  string  false  "Brand filter"
// @Param        branch_id  query  string  false  "Branch filter"
// @Param        page       query  int     false  "Page number"
// @Param        limit      query  int     false  "Items per page"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/requests [get]
func (h *RequestHandler) ListRequests(c *gin.Context) {
	params := pagination.Parse(c)
	filter := repository.RequestFilter{
		Status:   c.Query("status"),
		BrandID:  c.Query("brand_id"),
		BranchID: c.Query("branch_id"),
		Page:     params.Page,
		Limit:    params.Limit,
	}

	requests, total, err := h.workflow.ListRequests(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"requests": requests,
		"total":    total,
		"page":     params.Page,
		"limit":    params.Limit,
	}))
}

// GetRequest returns one request with its approval history
// @Summary      Get request detail
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=service.RequestDetailResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/requests/{id} [get]
func (h *RequestHandler) GetRequest(c *gin.Context) {
	result, err := h.workflow.GetRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		status := statusForError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// AcquireLock takes the review lock on a request
// @Summary      Lock request for review
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/requests/{id}/lock [post]
func (h *RequestHandler) AcquireLock(c *gin.Context) {
	err := h.locks.Acquire(c.Request.Context(), c.Param("id"), contextUserID(c), contextUserRole(c))
	if err != nil {
		status := statusForError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Request locked"))
}

// ReleaseLock gives the review lock back
// @Summary      Release request lock
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response
// @Router       /api/requests/{id}/lock [delete]
func (h *RequestHandler) ReleaseLock(c *gin.Context) {
	err := h.locks.Release(c.Request.Context(), c.Param("id"), contextUserID(c))
	if err != nil {
		status := statusForError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Lock released"))
}

// Reassign re-resolves the current approver of a stalled request
// @Summary      Reassign approver
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=service.RequestResponse}
// @Failure      422  {object}  response.Response
// @Router       /api/requests/{id}/reassign [post]
func (h *RequestHandler) Reassign(c *gin.Context) {
	result, err := h.workflow.ReassignApprover(c.Request.Context(), c.Param("id"), contextUserID(c))
	if err != nil {
		status := statusForError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// ExportRequests streams the filtered request list as an xlsx workbook
// @Summary      Export requests
// @Tags         requests
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        status     query  string  false  "Status filter"
// @Param        brand_id   query  string  false  "Brand filter"
// @Param        branch_id  query  string  false  "Branch filter"
// @Success      200
// @Router       /api/requests/export [get]
func (h *RequestHandler) ExportRequests(c *gin.Context) {
	filter := repository.RequestFilter{
		Status:   c.Query("status"),
		BrandID:  c.Query("brand_id"),
		BranchID: c.Query("branch_id"),
	}

	data, filename, err := h.export.ExportRequests(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// --- helpers shared by the handlers ---

func contextUserID(c *gin.Context) string {
	userID, _ := c.Get("userID")
	id, _ := userID.(string)
	return id
}

func contextUserRole(c *gin.Context) string {
	userRole, _ := c.Get("userRole")
	role, _ := userRole.(string)
	return role
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, service.ErrLockConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, service.ErrRoleMismatch):
		return http.StatusForbidden
	case errors.Is(err, service.ErrApproverUnresolved):
		return http.StatusUnprocessableEntity
	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}
