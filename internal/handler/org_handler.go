package handler

import (
	"net/http"

	"debtflow/internal/middleware"
	"debtflow/internal/model"
	"debtflow/internal/service"
	"debtflow/pkg/response"

	"github.com/gin-gonic/gin"
)

type OrgHandler struct {
	orgService service.OrgService
}

func NewOrgHandler(orgService service.OrgService) *OrgHandler {
	return &OrgHandler{orgService: orgService}
}

func (h *OrgHandler) RegisterRoutes(router *gin.RouterGroup) {
	admin := middleware.RequireRole(model.RoleAdmin, model.RoleManager)
	read := middleware.RequireRole(allRoles()...)

	brands := router.Group("/api/brands")
	{
		brands.POST("", admin, h.CreateBrand)
		brands.GET("", read, h.ListBrands)
	}

	branches := router.Group("/api/branches")
	{
		branches.POST("", admin, h.CreateBranch)
		branches.GET("", read, h.ListBranches)
	}

	svrs := router.Group("/api/svrs")
	{
		svrs.POST("", admin, h.CreateSVR)
		svrs.GET("", read, h.ListSVRs)
	}

	org := router.Group("/api/org")
	{
		org.POST("/:type/:id/rename", admin, h.Rename)
		org.GET("/:type/:id/renames", read, h.RenameHistory)
	}
}

// CreateBrand adds a brand to the catalog
// @Summary      Create brand
// @Tags         org
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateBrandRequest  true  "Brand Payload"
// @Success      201      {object}  response.Response{data=model.Brand}
// @Router       /api/brands [post]
func (h *OrgHandler) CreateBrand(c *gin.Context) {
	var req service.CreateBrandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	brand, err := h.orgService.CreateBrand(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, brand))
}

// ListBrands lists all brands
// @Summary      List brands
// @Tags         org
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.Brand}
// @Router       /api/brands [get]
func (h *OrgHandler) ListBrands(c *gin.Context) {
	brands, err := h.orgService.ListBrands(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, brands))
}

// CreateBranch adds a branch under a brand
// @Summary      Create branch
// @Tags         org
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateBranchRequest  true  "Branch Payload"
// @Success      201      {object}  response.Response{data=model.Branch}
// @Router       /api/branches [post]
func (h *OrgHandler) CreateBranch(c *gin.Context) {
	var req service.CreateBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	branch, err := h.orgService.CreateBranch(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, branch))
}

// ListBranches lists branches, optionally filtered by brand
// @Summary      List branches
// @Tags         org
// @Produce      json
// @Security     BearerAuth
// @Param        brand_id  query  string  false  "Brand filter"
// @Success      200  {object}  response.Response{data=[]model.Branch}
// @Router       /api/branches [get]
func (h *OrgHandler) ListBranches(c *gin.Context) {
	branches, err := h.orgService.ListBranches(c.Request.Context(), c.Query("brand_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, branches))
}

// CreateSVR adds a field-staff record under a branch
// @Summary      Create SVR
// @Tags         org
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateSVRRequest  true  "SVR Payload"
// @Success      201      {object}  response.Response{data=model.SVR}
// @Router       /api/svrs [post]
func (h *OrgHandler) CreateSVR(c *gin.Context) {
	var req service.CreateSVRRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	svr, err := h.orgService.CreateSVR(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, svr))
}

// ListSVRs lists SVRs, optionally filtered by branch
// @Summary      List SVRs
// @Tags         org
// @Produce      json
// @Security     BearerAuth
// @Param        branch_id  query  string  false  "Branch filter"
// @Success      200  {object}  response.Response{data=[]model.SVR}
// @Router       /api/svrs [get]
func (h *OrgHandler) ListSVRs(c *gin.Context) {
	svrs, err := h.orgService.ListSVRs(c.Request.Context(), c.Query("branch_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, svrs))
}

// Rename changes a catalog entity's name, keeping the old name in history
// @Summary      Rename catalog entity
// @Description  Renames a brand, branch, or SVR. Past records keep the historical name.
// @Tags         org
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        type     path      string                 true  "Entity type (brand, branch, svr)"
// @Param        id       path      string                 true  "Entity ID"
// @Param        payload  body      service.RenameRequest  true  "New Name"
// @Success      200      {object}  response.Response
// @Router       /api/org/{type}/{id}/rename [post]
func (h *OrgHandler) Rename(c *gin.Context) {
	var req service.RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	err := h.orgService.Rename(c.Request.Context(), c.Param("type"), c.Param("id"), req.NewName, contextUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Entity renamed"))
}

// RenameHistory lists the rename history of an entity
// @Summary      Rename history
// @Tags         org
// @Produce      json
// @Security     BearerAuth
// @Param        type  path      string  true  "Entity type (brand, branch, svr)"
// @Param        id    path      string  true  "Entity ID"
// @Success      200   {object}  response.Response{data=[]model.EntityRename}
// @Router       /api/org/{type}/{id}/renames [get]
func (h *OrgHandler) RenameHistory(c *gin.Context) {
	history, err := h.orgService.RenameHistory(c.Request.Context(), c.Param("type"), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, history))
}
