package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/Pesokrava/review_platform/internal/delivery/http/request"
	"github.com/Pesokrava/review_platform/internal/delivery/http/response"
	"github.com/Pesokrava/review_platform/internal/domain"
	"github.com/Pesokrava/review_platform/internal/pkg/logger"
	"github.com/Pesokrava/review_platform/internal/usecase/product"
)

// ProductHandler handles HTTP requests for products
type ProductHandler struct {
	service *product.Service
	logger  *logger.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(service *product.Service, log *logger.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  log,
	}
}

// CreateProductRequest represents the request body for creating a product
type CreateProductRequest struct {
	Name          string  `json:"name" validate:"required,min=1,max=255"`
	Handle        string  `json:"handle" validate:"required,min=1,max=255"`
	BrandID       string  `json:"brand_id" validate:"required"`
	Image         *string `json:"image,omitempty"`
	Price         float64 `json:"price" validate:"required,gte=0"`
	StockQuantity int     `json:"stock_quantity" validate:"gte=0"`
}

// UpdateProductRequest represents the request body for updating a product
type UpdateProductRequest struct {
	Name          string  `json:"name" validate:"required,min=1,max=255"`
	Handle        string  `json:"handle" validate:"required,min=1,max=255"`
	Image         *string `json:"image,omitempty"`
	Price         float64 `json:"price" validate:"required,gte=0"`
	StockQuantity int     `json:"stock_quantity" validate:"gte=0"`
	Status        string  `json:"status" validate:"required,oneof=ACTIVE INACTIVE"`
}

// BulkDeleteProductsRequest represents the request body for bulk deletion
type BulkDeleteProductsRequest struct {
	IDs []string `json:"ids" validate:"required,min=1"`
}

// Create handles POST /api/v1/products
// @Summary Create a new product
// @Description Create a new product under an existing brand
// @Tags Products
// @Accept json
// @Produce json
// @Param product body CreateProductRequest true "Product details"
// @Success 201 {object} map[string]interface{} "Product created successfully"
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 404 {object} map[string]string "Brand not found"
// @Failure 409 {object} map[string]string "Product handle already exists"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /products [post]
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	brandID, err := uuid.Parse(req.BrandID)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid brand ID")
		return
	}

	product := &domain.Product{
		Name:          req.Name,
		Handle:        req.Handle,
		BrandID:       brandID,
		Image:         req.Image,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
	}

	if err := h.service.Create(r.Context(), product); err != nil {
		h.handleError(w, err)
		return
	}

	response.Created(w, product)
}

// GetByID handles GET /api/v1/products/:id
// @Summary Get a product by ID
// @Description Get detailed information about a product including its aggregate rating statistics
// @Tags Products
// @Accept json
// @Produce json
// @Param id path string true "Product ID (UUID)"
// @Success 200 {object} map[string]interface{} "Product details"
// @Failure 400 {object} map[string]string "Invalid product ID"
// @Failure 404 {object} map[string]string "Product not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /products/{id} [get]
func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	product, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, product)
}

// GetStats handles GET /api/v1/products/:id/stats
// @Summary Get product rating statistics
// @Description Get the product's aggregate rating summary. Served from cache when a fresh copy exists.
// @Tags Products
// @Accept json
// @Produce json
// @Param id path string true "Product ID (UUID)"
// @Success 200 {object} map[string]interface{} "Rating statistics"
// @Failure 400 {object} map[string]string "Invalid product ID"
// @Failure 404 {object} map[string]string "Product not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /products/{id}/stats [get]
func (h *ProductHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	stats, err := h.service.GetStats(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, stats)
}

// List handles GET /api/v1/products
// @Summary List all products
// @Description Get a paginated list of products
// @Tags Products
// @Accept json
// @Produce json
// @Param limit query int false "Number of items per page (max 100)" default(20)
// @Param offset query int false "Number of items to skip" default(0)
// @Success 200 {object} map[string]interface{} "Paginated list of products"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /products [get]
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := request.GetPaginationParams(r)

	products, total, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Paginated(w, products, total, limit, offset)
}

// Update handles PUT /api/v1/products/:id
// @Summary Update a product
// @Description Update product details. Aggregate rating fields are managed by the review workflow and cannot be set here.
// @Tags Products
// @Accept json
// @Produce json
// @Param id path string true "Product ID (UUID)"
// @Param product body UpdateProductRequest true "Updated product details"
// @Success 200 {object} map[string]interface{} "Product updated successfully"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 404 {object} map[string]string "Product not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /products/{id} [put]
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var req UpdateProductRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// The brand reference is immutable; fetch the current row so the update
	// carries it and the validator sees a complete struct.
	existing, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return
	}

	product := &domain.Product{
		ID:            id,
		Name:          req.Name,
		Handle:        req.Handle,
		BrandID:       existing.BrandID,
		Image:         req.Image,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
		Status:        domain.ProductStatus(req.Status),
	}

	if err := h.service.Update(r.Context(), product); err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, product)
}

// Delete handles DELETE /api/v1/products/:id
// @Summary Delete a product
// @Description Delete a product and all its reviews, reversing the reviews' contribution to aggregates first
// @Tags Products
// @Accept json
// @Produce json
// @Param id path string true "Product ID (UUID)"
// @Success 204 "Product deleted successfully"
// @Failure 400 {object} map[string]string "Invalid product ID"
// @Failure 401 {object} map[string]string "Missing or invalid token"
// @Failure 404 {object} map[string]string "Product not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Security BearerAuth
// @Router /products/{id} [delete]
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.handleError(w, err)
		return
	}

	response.NoContent(w)
}

// BulkDelete handles POST /api/v1/products/bulk-delete
// @Summary Delete multiple products
// @Description Delete a set of products and their reviews in batched set-based operations. Products that no longer exist are skipped.
// @Tags Products
// @Accept json
// @Produce json
// @Param ids body BulkDeleteProductsRequest true "Product IDs to delete"
// @Success 204 "Products deleted successfully"
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 401 {object} map[string]string "Missing or invalid token"
// @Failure 500 {object} map[string]string "Internal server error"
// @Security BearerAuth
// @Router /products/bulk-delete [post]
func (h *ProductHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var req BulkDeleteProductsRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ids := make([]uuid.UUID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "Invalid product ID: "+raw)
			return
		}
		ids = append(ids, id)
	}

	if err := h.service.BulkDelete(r.Context(), ids); err != nil {
		h.handleError(w, err)
		return
	}

	response.NoContent(w)
}

// handleError handles service layer errors and returns appropriate HTTP responses
func (h *ProductHandler) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		response.Error(w, http.StatusNotFound, "Product not found")
	case errors.Is(err, domain.ErrInvalidInput):
		response.Error(w, http.StatusBadRequest, "Invalid input")
	case errors.Is(err, domain.ErrAlreadyExists):
		response.Error(w, http.StatusConflict, "Product handle already exists")
	default:
		h.logger.Error("Internal error in product handler", err)
		response.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}
