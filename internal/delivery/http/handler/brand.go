package handler

import (
	"errors"
	"net/http"

	"github.com/Pesokrava/review_platform/internal/delivery/http/request"
	"github.com/Pesokrava/review_platform/internal/delivery/http/response"
	"github.com/Pesokrava/review_platform/internal/domain"
	"github.com/Pesokrava/review_platform/internal/pkg/logger"
	"github.com/Pesokrava/review_platform/internal/usecase/brand"
)

// BrandHandler handles HTTP requests for brands
type BrandHandler struct {
	service *brand.Service
	logger  *logger.Logger
}

// NewBrandHandler creates a new brand handler
func NewBrandHandler(service *brand.Service, log *logger.Logger) *BrandHandler {
	return &BrandHandler{
		service: service,
		logger:  log,
	}
}

// CreateBrandRequest represents the request body for creating a brand
type CreateBrandRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=255"`
	Email       string  `json:"email" validate:"required,email"`
	LogoURL     *string `json:"logo_url,omitempty"`
	WebsiteURL  *string `json:"website_url,omitempty"`
	PhoneNumber string  `json:"phone_number" validate:"required,min=1,max=30"`
	Description *string `json:"description,omitempty"`
	Postcode    string  `json:"postcode" validate:"required,min=1,max=20"`
}

// UpdateBrandRequest represents the request body for updating a brand
type UpdateBrandRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=255"`
	Email       string  `json:"email" validate:"required,email"`
	LogoURL     *string `json:"logo_url,omitempty"`
	WebsiteURL  *string `json:"website_url,omitempty"`
	PhoneNumber string  `json:"phone_number" validate:"required,min=1,max=30"`
	Description *string `json:"description,omitempty"`
	Postcode    string  `json:"postcode" validate:"required,min=1,max=20"`
	Status      string  `json:"status" validate:"required,oneof=ACTIVE INACTIVE"`
}

// Create handles POST /api/v1/brands
// @Summary Create a new brand
// @Description Register a new brand with contact details
// @Tags Brands
// @Accept json
// @Produce json
// @Param brand body CreateBrandRequest true "Brand details"
// @Success 201 {object} map[string]interface{} "Brand created successfully"
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 409 {object} map[string]string "Brand already exists"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /brands [post]
func (h *BrandHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateBrandRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	brand := &domain.Brand{
		Name:        req.Name,
		Email:       req.Email,
		LogoURL:     req.LogoURL,
		WebsiteURL:  req.WebsiteURL,
		PhoneNumber: req.PhoneNumber,
		Description: req.Description,
		Postcode:    req.Postcode,
	}

	if err := h.service.Create(r.Context(), brand); err != nil {
		h.handleError(w, err)
		return
	}

	response.Created(w, brand)
}

// GetByID handles GET /api/v1/brands/:id
// @Summary Get a brand by ID
// @Description Get detailed information about a brand including its aggregate rating statistics
// @Tags Brands
// @Accept json
// @Produce json
// @Param id path string true "Brand ID (UUID)"
// @Success 200 {object} map[string]interface{} "Brand details"
// @Failure 400 {object} map[string]string "Invalid brand ID"
// @Failure 404 {object} map[string]string "Brand not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /brands/{id} [get]
func (h *BrandHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid brand ID")
		return
	}

	brand, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, brand)
}

// GetStats handles GET /api/v1/brands/:id/stats
// @Summary Get brand rating statistics
// @Description Get the brand's aggregate rating summary. Served from cache when a fresh copy exists.
// @Tags Brands
// @Accept json
// @Produce json
// @Param id path string true "Brand ID (UUID)"
// @Success 200 {object} map[string]interface{} "Rating statistics"
// @Failure 400 {object} map[string]string "Invalid brand ID"
// @Failure 404 {object} map[string]string "Brand not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /brands/{id}/stats [get]
func (h *BrandHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid brand ID")
		return
	}

	stats, err := h.service.GetStats(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, stats)
}

// List handles GET /api/v1/brands
// @Summary List all brands
// @Description Get a paginated list of brands
// @Tags Brands
// @Accept json
// @Produce json
// @Param limit query int false "Number of items per page (max 100)" default(20)
// @Param offset query int false "Number of items to skip" default(0)
// @Success 200 {object} map[string]interface{} "Paginated list of brands"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /brands [get]
func (h *BrandHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := request.GetPaginationParams(r)

	brands, total, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Paginated(w, brands, total, limit, offset)
}

// Update handles PUT /api/v1/brands/:id
// @Summary Update a brand
// @Description Update brand details. Aggregate rating fields are managed by the review workflow and cannot be set here.
// @Tags Brands
// @Accept json
// @Produce json
// @Param id path string true "Brand ID (UUID)"
// @Param brand body UpdateBrandRequest true "Updated brand details"
// @Success 200 {object} map[string]interface{} "Brand updated successfully"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 404 {object} map[string]string "Brand not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /brands/{id} [put]
func (h *BrandHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid brand ID")
		return
	}

	var req UpdateBrandRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	brand := &domain.Brand{
		ID:          id,
		Name:        req.Name,
		Email:       req.Email,
		LogoURL:     req.LogoURL,
		WebsiteURL:  req.WebsiteURL,
		PhoneNumber: req.PhoneNumber,
		Description: req.Description,
		Postcode:    req.Postcode,
		Status:      domain.BrandStatus(req.Status),
	}

	if err := h.service.Update(r.Context(), brand); err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, brand)
}

// Delete handles DELETE /api/v1/brands/:id
// @Summary Delete a brand
// @Description Delete a brand together with all its products and every review referencing either
// @Tags Brands
// @Accept json
// @Produce json
// @Param id path string true "Brand ID (UUID)"
// @Success 204 "Brand deleted successfully"
// @Failure 400 {object} map[string]string "Invalid brand ID"
// @Failure 401 {object} map[string]string "Missing or invalid token"
// @Failure 404 {object} map[string]string "Brand not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Security BearerAuth
// @Router /brands/{id} [delete]
func (h *BrandHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid brand ID")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.handleError(w, err)
		return
	}

	response.NoContent(w)
}

// handleError handles service layer errors and returns appropriate HTTP responses
func (h *BrandHandler) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		response.Error(w, http.StatusNotFound, "Brand not found")
	case errors.Is(err, domain.ErrInvalidInput):
		response.Error(w, http.StatusBadRequest, "Invalid input")
	case errors.Is(err, domain.ErrAlreadyExists):
		response.Error(w, http.StatusConflict, "Brand already exists")
	default:
		h.logger.Error("Internal error in brand handler", err)
		response.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}
