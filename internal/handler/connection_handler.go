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

type ConnectionHandler struct {
	connectionService service.ConnectionService
}

func NewConnectionHandler(connectionService service.ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{connectionService: connectionService}
}

func (h *ConnectionHandler) RegisterRoutes(router *gin.RouterGroup) {
	connections := router.Group("/api/connections")
	{
		connections.POST("/request", middleware.RequireRole(model.RoleConsumer), h.SendRequest)
		connections.GET("/consumer/requests", middleware.RequireRole(model.RoleConsumer), h.ListSent)
		connections.GET("/farmer/requests", middleware.RequireRole(model.RoleFarmer), h.ListReceived)
		connections.POST("/farmer/requests/:id/respond", middleware.RequireRole(model.RoleFarmer), h.Respond)
		connections.GET("", middleware.RequireRole(model.RoleFarmer, model.RoleConsumer), h.ListConnections)
	}
}

// SendRequest creates a pending connection request to an approved farmer
// @Summary      Send a connection request
// @Description  A consumer asks an approved farmer to supply a product; duplicates for the same farmer and product are rejected while one is still pending
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.SendRequestDTO  true  "Request payload"
// @Success      201      {object}  response.Response{data=service.RequestResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/connections/request [post]
func (h *ConnectionHandler) SendRequest(c *gin.Context) {
	var req service.SendRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.connectionService.SendRequest(c.Request.Context(), middleware.CurrentUserID(c), req)
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// Respond accepts or rejects a pending request addressed to the farmer
// @Summary      Respond to a connection request
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true  "Request ID"
// @Param        payload  body      service.RespondRequestDTO  true  "accept or reject with an optional message"
// @Success      200      {object}  response.Response{data=service.RequestResponse}
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/connections/farmer/requests/{id}/respond [post]
func (h *ConnectionHandler) Respond(c *gin.Context) {
	requestID, err := parseUUIDParam(c, "id")
	if err != nil {
		return
	}

	var req service.RespondRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.connectionService.RespondToRequest(c.Request.Context(), middleware.CurrentUserID(c), requestID, req)
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// ListSent returns the consumer's outgoing requests, optionally filtered by status
// @Summary      List sent requests
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "pending, accepted or rejected"
// @Param        page    query     int     false  "Page number"
// @Param        limit   query     int     false  "Page size"
// @Success      200  {object}  response.Response
// @Router       /api/connections/consumer/requests [get]
func (h *ConnectionHandler) ListSent(c *gin.Context) {
	params := pagination.Parse(c)
	items, total, err := h.connectionService.ListConsumerRequests(c.Request.Context(), middleware.CurrentUserID(c), c.Query("status"), params.Page, params.Limit)
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

// ListReceived returns the farmer's incoming requests, optionally filtered by status
// @Summary      List received requests
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "pending, accepted or rejected"
// @Param        page    query     int     false  "Page number"
// @Param        limit   query     int     false  "Page size"
// @Success      200  {object}  response.Response
// @Router       /api/connections/farmer/requests [get]
func (h *ConnectionHandler) ListReceived(c *gin.Context) {
	params := pagination.Parse(c)
	items, total, err := h.connectionService.ListFarmerRequests(c.Request.Context(), middleware.CurrentUserID(c), c.Query("status"), params.Page, params.Limit)
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

// ListConnections returns the caller's established connections
// @Summary      List established connections
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.Connection}
// @Router       /api/connections [get]
func (h *ConnectionHandler) ListConnections(c *gin.Context) {
	role, _ := c.Get("userRole")
	roleStr, _ := role.(string)

	connections, err := h.connectionService.ListConnections(c.Request.Context(), middleware.CurrentUserID(c), roleStr)
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, connections))
}
