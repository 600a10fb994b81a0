package handler

import (
	"net/http"

	"debtflow/internal/middleware"
	"debtflow/internal/model"
	"debtflow/internal/service"
	"debtflow/pkg/pagination"
	"debtflow/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
}

func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	audits := router.Group("/api/audit-logs")
	{
		audits.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleSupervisor, model.RoleLeader), h.ListAuditLogs)
		audits.GET("/entity/:id", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleSupervisor, model.RoleLeader), h.ListByEntity)
	}
}

// ListAuditLogs returns the audit trail, newest first
// @Summary      List audit logs
// @Tags         audit
// @Produce      json
// @Security     BearerAuth
// @Param        action  query  string  false  "Action filter"
// @Param        page    query  int     false  "Page number"
// @Param        limit   query  int     false  "Items per page"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/audit-logs [get]
func (h *AuditHandler) ListAuditLogs(c *gin.Context) {
	params := pagination.Parse(c)

	logs, total, err := h.auditService.List(c.Request.Context(), c.Query("action"), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"logs":  logs,
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
	}))
}

// ListByEntity returns the full trail of one entity, oldest first
// @Summary      List audit logs for an entity
// @Tags         audit
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Entity ID"
// @Success      200  {object}  response.Response{data=[]service.AuditEntryResponse}
// @Router       /api/audit-logs/entity/{id} [get]
func (h *AuditHandler) ListByEntity(c *gin.Context) {
	logs, err := h.auditService.ListByEntity(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, logs))
}
