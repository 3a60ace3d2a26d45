package controllers

import (
	"net/http"

	"github.com/edutrack/adminportal/internal/app/models/dto"
	"github.com/edutrack/adminportal/internal/app/services"
	"github.com/edutrack/adminportal/internal/middleware"
	"github.com/gin-gonic/gin"
)

// TenantController handles tenant account operations
type TenantController struct {
	tenantService *services.TenantService
}

// NewTenantController creates a new TenantController
func NewTenantController(tenantService *services.TenantService) *TenantController {
	return &TenantController{
		tenantService: tenantService,
	}
}

// CreateTenant registers a new academy
// @Summary Create a tenant
// @Tags tenants
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateTenantRequest true "Tenant information"
// @Success 201 {object} dto.APIResponse{data=dto.TenantResponse} "Tenant created"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 409 {object} dto.ErrorResponse "Email already exists"
// @Router /tenants [post]
func (c *TenantController) CreateTenant(ctx *gin.Context) {
	var req dto.CreateTenantRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		abortBadRequest(ctx, "Invalid tenant data", err.Error())
		return
	}

	tenant, err := c.tenantService.CreateTenant(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(dto.NewTenantResponse(tenant), "Tenant created successfully"))
}

// ListTenants lists every tenant
// @Summary List tenants
// @Tags tenants
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.TenantResponse} "Tenants retrieved"
// @Router /tenants [get]
func (c *TenantController) ListTenants(ctx *gin.Context) {
	tenants, err := c.tenantService.ListTenants(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	responses := make([]dto.TenantResponse, 0, len(tenants))
	for i := range tenants {
		responses = append(responses, dto.NewTenantResponse(&tenants[i]))
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(responses, ""))
}

// GetTenant retrieves a tenant
// @Summary Get a tenant
// @Tags tenants
// @Produce json
// @Security BearerAuth
// @Param tenantId path string true "Tenant ID"
// @Success 200 {object} dto.APIResponse{data=dto.TenantResponse} "Tenant retrieved"
// @Failure 404 {object} dto.ErrorResponse "Tenant not found"
// @Router /tenants/{tenantId} [get]
func (c *TenantController) GetTenant(ctx *gin.Context) {
	tenant, err := c.tenantService.GetTenant(ctx.Request.Context(), ctx.Param("tenantId"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.NewTenantResponse(tenant), ""))
}

// UpdateTenant changes the provided tenant fields
// @Summary Update a tenant
// @Tags tenants
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param tenantId path string true "Tenant ID"
// @Param request body dto.UpdateTenantRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=dto.TenantResponse} "Tenant updated"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 404 {object} dto.ErrorResponse "Tenant not found"
// @Router /tenants/{tenantId} [patch]
func (c *TenantController) UpdateTenant(ctx *gin.Context) {
	var req dto.UpdateTenantRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	tenant, err := c.tenantService.UpdateTenant(ctx.Request.Context(), ctx.Param("tenantId"), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.NewTenantResponse(tenant), "Tenant updated successfully"))
}

// DeleteTenant removes a tenant with all of its students
// @Summary Delete a tenant
// @Tags tenants
// @Produce json
// @Security BearerAuth
// @Param tenantId path string true "Tenant ID"
// @Success 200 {object} dto.APIResponse "Tenant deleted"
// @Failure 404 {object} dto.ErrorResponse "Tenant not found"
// @Router /tenants/{tenantId} [delete]
func (c *TenantController) DeleteTenant(ctx *gin.Context) {
	if err := c.tenantService.DeleteTenant(ctx.Request.Context(), ctx.Param("tenantId")); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(nil, "Tenant deleted successfully"))
}
