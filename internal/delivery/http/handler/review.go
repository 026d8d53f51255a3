package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/Pesokrava/review_platform/internal/delivery/http/request"
	"github.com/Pesokrava/review_platform/internal/delivery/http/response"
	"github.com/Pesokrava/review_platform/internal/domain"
	"github.com/Pesokrava/review_platform/internal/pkg/logger"
	"github.com/Pesokrava/review_platform/internal/usecase/review"
)

// ReviewHandler handles HTTP requests for reviews
type ReviewHandler struct {
	service *review.Service
	logger  *logger.Logger
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(service *review.Service, log *logger.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		logger:  log,
	}
}

// CreateReviewRequest represents the request body for creating a review
type CreateReviewRequest struct {
	ReviewType          string   `json:"review_type" validate:"required,oneof=PRODUCT BRAND"`
	ProductID           *string  `json:"product_id,omitempty"`
	BrandID             *string  `json:"brand_id,omitempty"`
	Title               string   `json:"title" validate:"required,min=1,max=255"`
	Body                string   `json:"body" validate:"required,min=1"`
	ReviewerName        string   `json:"reviewer_name" validate:"required,min=1,max=100"`
	ReviewerEmail       string   `json:"reviewer_email" validate:"required,email"`
	StoreRating         float64  `json:"store_rating" validate:"gte=0,lte=5"`
	SellerRating        float64  `json:"seller_rating" validate:"gte=0,lte=5"`
	QualityRating       float64  `json:"quality_rating" validate:"gte=0,lte=5"`
	PriceRating         float64  `json:"price_rating" validate:"gte=0,lte=5"`
	IssueHandlingRating *float64 `json:"issue_handling_rating,omitempty"`
	Status              string   `json:"status,omitempty"`
}

// UpdateReviewRequest represents the request body for updating a review.
// The review type and owner references are immutable and not accepted here.
type UpdateReviewRequest struct {
	Title               string   `json:"title" validate:"required,min=1,max=255"`
	Body                string   `json:"body" validate:"required,min=1"`
	ReviewerName        string   `json:"reviewer_name" validate:"required,min=1,max=100"`
	ReviewerEmail       string   `json:"reviewer_email" validate:"required,email"`
	StoreRating         float64  `json:"store_rating" validate:"gte=0,lte=5"`
	SellerRating        float64  `json:"seller_rating" validate:"gte=0,lte=5"`
	QualityRating       float64  `json:"quality_rating" validate:"gte=0,lte=5"`
	PriceRating         float64  `json:"price_rating" validate:"gte=0,lte=5"`
	IssueHandlingRating *float64 `json:"issue_handling_rating,omitempty"`
	Status              string   `json:"status" validate:"required,oneof=INACTIVE ACTIVE"`
}

// UpdateReviewStatusRequest represents the request body for the moderation
// endpoint
type UpdateReviewStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=INACTIVE ACTIVE"`
}

// Create handles POST /api/v1/reviews
// @Summary Create a new review
// @Description Create a review for a product or a brand. ACTIVE reviews immediately update the target's aggregate rating statistics.
// @Tags Reviews
// @Accept json
// @Produce json
// @Param review body CreateReviewRequest true "Review details"
// @Success 201 {object} map[string]interface{} "Review created successfully"
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 404 {object} map[string]string "Review target not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /reviews [post]
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateReviewRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	productID, err := parseOptionalUUID(req.ProductID)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}
	brandID, err := parseOptionalUUID(req.BrandID)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid brand ID")
		return
	}

	status := domain.ReviewStatus(req.Status)
	if status == "" {
		// New reviews start unpublished until moderation flips them
		status = domain.ReviewStatusInactive
	}

	rv := &domain.Review{
		ReviewType:          domain.ReviewType(req.ReviewType),
		ProductID:           productID,
		BrandID:             brandID,
		Title:               req.Title,
		Body:                req.Body,
		ReviewerName:        req.ReviewerName,
		ReviewerEmail:       req.ReviewerEmail,
		StoreRating:         req.StoreRating,
		SellerRating:        req.SellerRating,
		QualityRating:       req.QualityRating,
		PriceRating:         req.PriceRating,
		IssueHandlingRating: req.IssueHandlingRating,
		Status:              status,
	}

	if err := h.service.Create(r.Context(), rv); err != nil {
		h.handleError(w, err)
		return
	}

	response.Created(w, rv)
}

// GetByID handles GET /api/v1/reviews/:id
// @Summary Get a review by ID
// @Description Get a single review including its computed average and star bucket
// @Tags Reviews
// @Accept json
// @Produce json
// @Param id path string true "Review ID (UUID)"
// @Success 200 {object} map[string]interface{} "Review details"
// @Failure 400 {object} map[string]string "Invalid review ID"
// @Failure 404 {object} map[string]string "Review not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /reviews/{id} [get]
func (h *ReviewHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid review ID")
		return
	}

	rv, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, rv)
}

// List handles GET /api/v1/reviews
// @Summary List reviews
// @Description Get a paginated list of reviews, optionally filtered by type, status, product or brand
// @Tags Reviews
// @Accept json
// @Produce json
// @Param review_type query string false "Filter by review type (PRODUCT or BRAND)"
// @Param status query string false "Filter by status (ACTIVE or INACTIVE)"
// @Param product_id query string false "Filter by product ID (UUID)"
// @Param brand_id query string false "Filter by brand ID (UUID)"
// @Param sort_by query string false "Sort column (created_at, updated_at, status)" default(created_at)
// @Param order query string false "Sort order (asc or desc)" default(desc)
// @Param limit query int false "Number of items per page (max 100)" default(20)
// @Param offset query int false "Number of items to skip" default(0)
// @Success 200 {object} map[string]interface{} "Paginated list of reviews"
// @Failure 400 {object} map[string]string "Invalid filter parameters"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /reviews [get]
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseReviewFilter(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	limit, offset := request.GetPaginationParams(r)
	sortBy := request.GetStringQuery(r, "sort_by", "created_at")
	order := request.GetStringQuery(r, "order", "desc")

	reviews, total, err := h.service.List(r.Context(), filter, limit, offset, sortBy, order)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Paginated(w, reviews, total, limit, offset)
}

// GetByProductID handles GET /api/v1/products/:id/reviews
// @Summary Get reviews for a product
// @Description Get a paginated list of ACTIVE reviews for a specific product. Results are cached.
// @Tags Reviews
// @Accept json
// @Produce json
// @Param id path string true "Product ID (UUID)"
// @Param limit query int false "Number of items per page (max 100)" default(20)
// @Param offset query int false "Number of items to skip" default(0)
// @Success 200 {object} map[string]interface{} "Paginated list of reviews"
// @Failure 400 {object} map[string]string "Invalid product ID"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /products/{id}/reviews [get]
func (h *ReviewHandler) GetByProductID(w http.ResponseWriter, r *http.Request) {
	productID, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	limit, offset := request.GetPaginationParams(r)

	reviews, total, err := h.service.ListByOwner(r.Context(), domain.ProductOwner(productID), limit, offset)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Paginated(w, reviews, total, limit, offset)
}

// GetByBrandID handles GET /api/v1/brands/:id/reviews
// @Summary Get reviews for a brand
// @Description Get a paginated list of ACTIVE brand-type reviews for a specific brand. Results are cached.
// @Tags Reviews
// @Accept json
// @Produce json
// @Param id path string true "Brand ID (UUID)"
// @Param limit query int false "Number of items per page (max 100)" default(20)
// @Param offset query int false "Number of items to skip" default(0)
// @Success 200 {object} map[string]interface{} "Paginated list of reviews"
// @Failure 400 {object} map[string]string "Invalid brand ID"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /brands/{id}/reviews [get]
func (h *ReviewHandler) GetByBrandID(w http.ResponseWriter, r *http.Request) {
	brandID, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid brand ID")
		return
	}

	limit, offset := request.GetPaginationParams(r)

	reviews, total, err := h.service.ListByOwner(r.Context(), domain.BrandOwner(brandID), limit, offset)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Paginated(w, reviews, total, limit, offset)
}

// Update handles PUT /api/v1/reviews/:id
// @Summary Update a review
// @Description Update a review's content, ratings, and status. Aggregate statistics are adjusted for whatever transition the change amounts to.
// @Tags Reviews
// @Accept json
// @Produce json
// @Param id path string true "Review ID (UUID)"
// @Param review body UpdateReviewRequest true "Updated review details"
// @Success 200 {object} map[string]interface{} "Review updated successfully"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 404 {object} map[string]string "Review not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /reviews/{id} [put]
func (h *ReviewHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid review ID")
		return
	}

	var req UpdateReviewRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rv := &domain.Review{
		ID:                  id,
		Title:               req.Title,
		Body:                req.Body,
		ReviewerName:        req.ReviewerName,
		ReviewerEmail:       req.ReviewerEmail,
		StoreRating:         req.StoreRating,
		SellerRating:        req.SellerRating,
		QualityRating:       req.QualityRating,
		PriceRating:         req.PriceRating,
		IssueHandlingRating: req.IssueHandlingRating,
		Status:              domain.ReviewStatus(req.Status),
	}

	if err := h.service.Update(r.Context(), rv); err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, rv)
}

// UpdateStatus handles PATCH /api/v1/reviews/:id/status
// @Summary Change a review's status
// @Description Moderation endpoint: publish (ACTIVE) or unpublish (INACTIVE) a review. The target's aggregate statistics are adjusted accordingly.
// @Tags Reviews
// @Accept json
// @Produce json
// @Param id path string true "Review ID (UUID)"
// @Param status body UpdateReviewStatusRequest true "New status"
// @Success 200 {object} map[string]interface{} "Review with updated status"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 401 {object} map[string]string "Missing or invalid token"
// @Failure 404 {object} map[string]string "Review not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Security BearerAuth
// @Router /reviews/{id}/status [patch]
func (h *ReviewHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid review ID")
		return
	}

	var req UpdateReviewStatusRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rv, err := h.service.UpdateStatus(r.Context(), id, domain.ReviewStatus(req.Status))
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, rv)
}

// Delete handles DELETE /api/v1/reviews/:id
// @Summary Delete a review
// @Description Permanently delete a review. An ACTIVE review's contribution is reversed out of the target's aggregates.
// @Tags Reviews
// @Accept json
// @Produce json
// @Param id path string true "Review ID (UUID)"
// @Success 204 "Review deleted successfully"
// @Failure 400 {object} map[string]string "Invalid review ID"
// @Failure 401 {object} map[string]string "Missing or invalid token"
// @Failure 404 {object} map[string]string "Review not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Security BearerAuth
// @Router /reviews/{id} [delete]
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid review ID")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.handleError(w, err)
		return
	}

	response.NoContent(w)
}

// handleError handles service layer errors and returns appropriate HTTP responses
func (h *ReviewHandler) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		response.Error(w, http.StatusNotFound, "Review or review target not found")
	case errors.Is(err, domain.ErrInvalidInput):
		response.Error(w, http.StatusBadRequest, "Invalid input")
	default:
		h.logger.Error("Internal error in review handler", err)
		response.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}

func parseOptionalUUID(s *string) (*uuid.UUID, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func parseReviewFilter(r *http.Request) (domain.ReviewFilter, error) {
	var filter domain.ReviewFilter

	if v := r.URL.Query().Get("review_type"); v != "" {
		rt := domain.ReviewType(v)
		if rt != domain.ReviewTypeProduct && rt != domain.ReviewTypeBrand {
			return filter, errors.New("invalid review_type")
		}
		filter.ReviewType = &rt
	}

	if v := r.URL.Query().Get("status"); v != "" {
		st := domain.ReviewStatus(v)
		if st != domain.ReviewStatusActive && st != domain.ReviewStatusInactive {
			return filter, errors.New("invalid status")
		}
		filter.Status = &st
	}

	if v := r.URL.Query().Get("product_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return filter, errors.New("invalid product_id")
		}
		filter.ProductID = &id
	}

	if v := r.URL.Query().Get("brand_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return filter, errors.New("invalid brand_id")
		}
		filter.BrandID = &id
	}

	return filter, nil
}
