package handler

import (
	"net/http"
	"strconv"

	"debtflow/internal/middleware"
	"debtflow/internal/model"
	"debtflow/internal/service"
	"debtflow/pkg/pagination"
	"debtflow/pkg/response"

	"github.com/gin-gonic/gin"
)

type AssignmentHandler struct {
	assignments service.AssignmentService
}

func NewAssignmentHandler(assignments service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments}
}

func (h *AssignmentHandler) RegisterRoutes(router *gin.RouterGroup) {
	assignments := router.Group("/api/assignments")
	{
		assignments.POST("", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.CreateAssignment)
		assignments.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.ListAssignments)
		assignments.PATCH("/:id/active", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.SetActive)
		assignments.DELETE("/:id", middleware.RequireRole(model.RoleAdmin), h.DeleteAssignment)
	}
}

// CreateAssignment binds a user to an approver role on a scope
// @Summary      Create assignment
// @Description  Assigns a user as cashier for a branch or operator/leader for a brand
// @Tags         assignments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateAssignmentDTO  true  "Assignment Payload"
// @Success      201      {object}  response.Response{data=service.AssignmentResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/assignments [post]
func (h *AssignmentHandler) CreateAssignment(c *gin.Context) {
	var req service.CreateAssignmentDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.assignments.CreateAssignment(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// ListAssignments lists assignments, optionally filtered by role
// @Summary      List assignments
// @Tags         assignments
// @Produce      json
// @Security     BearerAuth
// @Param        role   query  string  false  "Role filter"
// @Param        page   query  int     false  "Page number"
// @Param        limit  query  int     false  "Items per page"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/assignments [get]
func (h *AssignmentHandler) ListAssignments(c *gin.Context) {
	params := pagination.Parse(c)

	assignments, total, err := h.assignments.ListAssignments(c.Request.Context(), c.Query("role"), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"assignments": assignments,
		"total":       total,
		"page":        params.Page,
		"limit":       params.Limit,
	}))
}

// SetActive toggles an assignment without deleting its history
// @Summary      Activate or deactivate assignment
// @Tags         assignments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int   true  "Assignment ID"
// @Param        payload  body      object{active=bool}  true  "Active flag"
// @Success      200      {object}  response.Response
// @Router       /api/assignments/{id}/active [patch]
func (h *AssignmentHandler) SetActive(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid assignment id"))
		return
	}

	var req struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	if err := h.assignments.SetAssignmentActive(c.Request.Context(), uint(id), *req.Active); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Assignment updated"))
}

// DeleteAssignment removes an assignment
// @Summary      Delete assignment
// @Tags         assignments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Assignment ID"
// @Success      200  {object}  response.Response
// @Router       /api/assignments/{id} [delete]
func (h *AssignmentHandler) DeleteAssignment(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid assignment id"))
		return
	}

	if err := h.assignments.DeleteAssignment(c.Request.Context(), uint(id)); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Assignment deleted"))
}
