package handler

import (
	"net/http"

	"milkeyway/internal/middleware"
	"milkeyway/internal/model"
	"milkeyway/internal/service"
	"milkeyway/pkg/response"

	"github.com/gin-gonic/gin"
)

type FarmerHandler struct {
	profileService service.ProfileService
	productService service.ProductService
}

func NewFarmerHandler(profileService service.ProfileService, productService service.ProductService) *FarmerHandler {
	return &FarmerHandler{profileService: profileService, productService: productService}
}

func (h *FarmerHandler) RegisterRoutes(router *gin.RouterGroup) {
	farmer := router.Group("/api/farmers", middleware.RequireRole(model.RoleFarmer))
	{
		farmer.POST("/profile", h.UpsertProfile)
		farmer.POST("/documents", h.UploadDocs)
		farmer.GET("/me", h.Me)

		farmer.POST("/products", h.CreateProduct)
		farmer.GET("/products", h.ListProducts)
		farmer.PATCH("/products/:id", h.UpdateProduct)
		farmer.DELETE("/products/:id", h.DeleteProduct)
	}
}

// UpsertProfile creates or replaces the farmer profile and resubmits it for review
// @Summary      Create or update the farmer profile
// @Description  Saves farm details and location, moving the profile to pending review
// @Tags         farmer
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.FarmerProfileRequest  true  "Profile payload"
// @Success      200      {object}  response.Response{data=model.FarmerProfile}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/farmers/profile [post]
func (h *FarmerHandler) UpsertProfile(c *gin.Context) {
	var req service.FarmerProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	profile, err := h.profileService.UpsertFarmerProfile(c.Request.Context(), middleware.CurrentUserID(c), req)
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, profile))
}

// UploadDocs accepts the verification documents as multipart form files
// @Summary      Upload farmer verification documents
// @Tags         farmer
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        farm_image    formData  file  false  "Photo of the farm"
// @Param        farmer_image  formData  file  false  "Photo of the farmer"
// @Param        proof_doc     formData  file  false  "Ownership or identity proof"
// @Success      200  {object}  response.Response{data=model.FarmerDocs}
// @Failure      400  {object}  response.Response
// @Router       /api/farmers/documents [post]
func (h *FarmerHandler) UploadDocs(c *gin.Context) {
	var upload service.FarmerDocsUpload
	upload.FarmImage, _ = c.FormFile("farm_image")
	upload.FarmerImage, _ = c.FormFile("farmer_image")
	upload.ProofDoc, _ = c.FormFile("proof_doc")

	if upload.FarmImage == nil && upload.FarmerImage == nil && upload.ProofDoc == nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "At least one document file is required"))
		return
	}

	docs, err := h.profileService.UploadFarmerDocs(c.Request.Context(), middleware.CurrentUserID(c), upload)
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, docs))
}

// Me returns the farmer's own profile, documents and review status
// @Summary      Current farmer profile
// @Tags         farmer
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.FarmerMeResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/farmers/me [get]
func (h *FarmerHandler) Me(c *gin.Context) {
	me, err := h.profileService.GetFarmerMe(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, me))
}

// CreateProduct adds a product listing for an approved farmer
// @Summary      Create a product listing
// @Tags         farmer
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateProductRequest  true  "Product payload"
// @Success      201      {object}  response.Response{data=model.Product}
// @Failure      400      {object}  response.Response
// @Router       /api/farmers/products [post]
func (h *FarmerHandler) CreateProduct(c *gin.Context) {
	var req service.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	product, err := h.productService.CreateProduct(c.Request.Context(), middleware.CurrentUserID(c), req)
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, product))
}

// ListProducts returns the farmer's own listings
// @Summary      List own products
// @Tags         farmer
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.Product}
// @Router       /api/farmers/products [get]
func (h *FarmerHandler) ListProducts(c *gin.Context) {
	products, err := h.productService.ListMyProducts(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, products))
}

// UpdateProduct partially updates a product the farmer owns
// @Summary      Update a product listing
// @Tags         farmer
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                        true  "Product ID"
// @Param        payload  body      service.UpdateProductRequest  true  "Fields to update"
// @Success      200      {object}  response.Response{data=model.Product}
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/farmers/products/{id} [patch]
func (h *FarmerHandler) UpdateProduct(c *gin.Context) {
	productID, err := parseUUIDParam(c, "id")
	if err != nil {
		return
	}

	var req service.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	product, err := h.productService.UpdateProduct(c.Request.Context(), middleware.CurrentUserID(c), productID, req)
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// DeleteProduct removes a product the farmer owns
// @Summary      Delete a product listing
// @Tags         farmer
// @Produce      json
// @Security     BearerAuth
// @Param        id  path      string  true  "Product ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/farmers/products/{id} [delete]
func (h *FarmerHandler) DeleteProduct(c *gin.Context) {
	productID, err := parseUUIDParam(c, "id")
	if err != nil {
		return
	}

	if err := h.productService.DeleteProduct(c.Request.Context(), middleware.CurrentUserID(c), productID); err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}
