package handler

import (
	"net/http"
	"strconv"

	"milkeyway/internal/middleware"
	"milkeyway/internal/model"
	"milkeyway/internal/service"
	"milkeyway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ConsumerHandler struct {
	profileService   service.ProfileService
	discoveryService service.DiscoveryService
	productService   service.ProductService
}

func NewConsumerHandler(profileService service.ProfileService, discoveryService service.DiscoveryService, productService service.ProductService) *ConsumerHandler {
	return &ConsumerHandler{
		profileService:   profileService,
		discoveryService: discoveryService,
		productService:   productService,
	}
}

func (h *ConsumerHandler) RegisterRoutes(router *gin.RouterGroup) {
	consumer := router.Group("/api/consumers", middleware.RequireRole(model.RoleConsumer))
	{
		consumer.POST("/profile", h.UpsertProfile)
		consumer.GET("/me", h.Me)
		consumer.GET("/nearby-farmers", h.NearbyFarmers)
		consumer.GET("/farmers/by-category", h.FarmersByCategory)
	}

	router.GET("/api/categories", h.ListCategories)
}

// UpsertProfile creates or replaces the consumer profile
// @Summary      Create or update the consumer profile
// @Tags         consumer
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.ConsumerProfileRequest  true  "Profile payload"
// @Success      200      {object}  response.Response{data=model.ConsumerProfile}
// @Failure      400      {object}  response.Response
// @Router       /api/consumers/profile [post]
func (h *ConsumerHandler) UpsertProfile(c *gin.Context) {
	var req service.ConsumerProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	profile, err := h.profileService.UpsertConsumerProfile(c.Request.Context(), middleware.CurrentUserID(c), req)
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, profile))
}

// Me returns the consumer's own profile
// @Summary      Current consumer profile
// @Tags         consumer
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=model.ConsumerProfile}
// @Failure      404  {object}  response.Response
// @Router       /api/consumers/me [get]
func (h *ConsumerHandler) Me(c *gin.Context) {
	profile, err := h.profileService.GetConsumerMe(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, profile))
}

// NearbyFarmers lists approved farmers within a radius of the given point
// @Summary      Find approved farmers near a location
// @Description  Returns approved farmers within the radius of the given point, nearest first
// @Tags         consumer
// @Produce      json
// @Security     BearerAuth
// @Param        latitude   query     number  true   "Latitude"
// @Param        longitude  query     number  true   "Longitude"
// @Param        radius     query     number  false  "Search radius in km; defaults to the platform setting"
// @Success      200  {object}  response.Response{data=[]service.NearbyFarmer}
// @Failure      400  {object}  response.Response
// @Router       /api/consumers/nearby-farmers [get]
func (h *ConsumerHandler) NearbyFarmers(c *gin.Context) {
	query, ok := parseDiscoveryQuery(c)
	if !ok {
		return
	}

	farmers, err := h.discoveryService.FindNearbyFarmers(c.Request.Context(), query)
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, farmers))
}

// FarmersByCategory lists nearby approved farmers with available products in a category
// @Summary      Find nearby farmers by product category
// @Tags         consumer
// @Produce      json
// @Security     BearerAuth
// @Param        category_id  query     string  true   "Product category ID"
// @Param        latitude     query     number  true   "Latitude"
// @Param        longitude    query     number  true   "Longitude"
// @Param        radius       query     number  false  "Search radius in km; defaults to the platform setting"
// @Success      200  {object}  response.Response{data=[]service.NearbyFarmer}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/consumers/farmers/by-category [get]
func (h *ConsumerHandler) FarmersByCategory(c *gin.Context) {
	categoryID, err := uuid.Parse(c.Query("category_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Query parameter category_id must be a valid ID"))
		return
	}

	query, ok := parseDiscoveryQuery(c)
	if !ok {
		return
	}

	farmers, err := h.discoveryService.FindFarmersByCategory(c.Request.Context(), categoryID, query)
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, farmers))
}

// ListCategories returns the product categories
// @Summary      List product categories
// @Tags         consumer
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.ProductCategory}
// @Router       /api/categories [get]
func (h *ConsumerHandler) ListCategories(c *gin.Context) {
	categories, err := h.productService.ListCategories(c.Request.Context())
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, categories))
}

func parseDiscoveryQuery(c *gin.Context) (service.DiscoveryQuery, bool) {
	lat, latErr := strconv.ParseFloat(c.Query("latitude"), 64)
	lon, lonErr := strconv.ParseFloat(c.Query("longitude"), 64)
	if latErr != nil || lonErr != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Query parameters latitude and longitude are required numbers"))
		return service.DiscoveryQuery{}, false
	}

	var radius float64
	if raw := c.Query("radius"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Query parameter radius must be a number"))
			return service.DiscoveryQuery{}, false
		}
		radius = parsed
	}

	return service.DiscoveryQuery{Latitude: lat, Longitude: lon, RadiusKm: radius}, true
}
