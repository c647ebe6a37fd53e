package handler

import (
	"net/http"

	"milkeyway/internal/middleware"
	"milkeyway/internal/model"
	"milkeyway/internal/service"
	"milkeyway/pkg/pagination"
	"milkeyway/pkg/response"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	adminService service.AdminService
}

func NewAdminHandler(adminService service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

func (h *AdminHandler) RegisterRoutes(router *gin.RouterGroup) {
	admin := router.Group("/api/admin", middleware.RequireRole(model.RoleSuperAdmin))
	{
		admin.GET("/farmers", h.ListFarmers)
		admin.PATCH("/farmers/:id/approve", h.ApproveFarmer)
		admin.PATCH("/farmers/:id/reject", h.RejectFarmer)
		admin.GET("/actions", h.ListActions)
		admin.GET("/settings", h.ListSettings)
		admin.PUT("/settings", h.UpdateSetting)
	}
}

type rejectFarmerRequest struct {
	Reason string `json:"reason"`
}

// ListFarmers returns farmer accounts with their profile and document status
// @Summary      List farmers for moderation
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Filter by profile status: draft, pending, approved or rejected"
// @Param        page    query     int     false  "Page number"
// @Param        limit   query     int     false  "Page size"
// @Success      200  {object}  response.Response
// @Router       /api/admin/farmers [get]
func (h *AdminHandler) ListFarmers(c *gin.Context) {
	params := pagination.Parse(c)
	items, total, err := h.adminService.ListFarmers(c.Request.Context(), c.Query("status"), params.Page, params.Limit)
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Paged{
		Items: items,
		Total: total,
		Page:  params.Page,
		Limit: params.Limit,
	}))
}

// ApproveFarmer approves a pending farmer profile
// @Summary      Approve a farmer
// @Description  Activates the account, marks the profile approved and the documents verified, and records the action
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id  path      string  true  "Farmer user ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/admin/farmers/{id}/approve [patch]
func (h *AdminHandler) ApproveFarmer(c *gin.Context) {
	targetID, err := parseUUIDParam(c, "id")
	if err != nil {
		return
	}

	if err := h.adminService.ApproveFarmer(c.Request.Context(), middleware.CurrentUserID(c), targetID); err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"status": model.FarmerStatusApproved}))
}

// RejectFarmer rejects a farmer profile with a mandatory reason
// @Summary      Reject a farmer
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string               true  "Farmer user ID"
// @Param        payload  body      rejectFarmerRequest  false  "Rejection reason"
// @Success      200      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/admin/farmers/{id}/reject [patch]
func (h *AdminHandler) RejectFarmer(c *gin.Context) {
	targetID, err := parseUUIDParam(c, "id")
	if err != nil {
		return
	}

	var req rejectFarmerRequest
	_ = c.ShouldBindJSON(&req) // reason is optional, an empty body is fine

	if err := h.adminService.RejectFarmer(c.Request.Context(), middleware.CurrentUserID(c), targetID, req.Reason); err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"status": model.FarmerStatusRejected}))
}

// ListActions returns the moderation audit trail, newest first
// @Summary      List admin actions
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number"
// @Param        limit  query     int  false  "Page size"
// @Success      200  {object}  response.Response
// @Router       /api/admin/actions [get]
func (h *AdminHandler) ListActions(c *gin.Context) {
	params := pagination.Parse(c)
	items, total, err := h.adminService.ListActions(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Paged{
		Items: items,
		Total: total,
		Page:  params.Page,
		Limit: params.Limit,
	}))
}

// ListSettings returns all platform settings
// @Summary      List platform settings
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.PlatformSetting}
// @Router       /api/admin/settings [get]
func (h *AdminHandler) ListSettings(c *gin.Context) {
	settings, err := h.adminService.ListSettings(c.Request.Context())
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, settings))
}

// UpdateSetting upserts a platform setting and records the change
// @Summary      Update a platform setting
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.UpdateSettingRequest  true  "Setting key and value"
// @Success      200      {object}  response.Response{data=model.PlatformSetting}
// @Failure      400      {object}  response.Response
// @Router       /api/admin/settings [put]
func (h *AdminHandler) UpdateSetting(c *gin.Context) {
	var req service.UpdateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	setting, err := h.adminService.UpdateSetting(c.Request.Context(), middleware.CurrentUserID(c), req)
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, setting))
}
