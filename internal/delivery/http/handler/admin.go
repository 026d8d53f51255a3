package handler

import (
	"net/http"

	"github.com/Pesokrava/review_platform/internal/delivery/http/response"
	"github.com/Pesokrava/review_platform/internal/pkg/logger"
	"github.com/Pesokrava/review_platform/internal/usecase/stats"
)

// AdminHandler handles administrative HTTP requests
type AdminHandler struct {
	recalculator *stats.Recalculator
	logger       *logger.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(recalculator *stats.Recalculator, log *logger.Logger) *AdminHandler {
	return &AdminHandler{
		recalculator: recalculator,
		logger:       log,
	}
}

// Recalculate handles POST /api/v1/admin/recalculate
// @Summary Rebuild aggregate rating statistics
// @Description Recompute every active brand's and product's rating statistics from their ACTIVE reviews. Targets with no active reviews are skipped.
// @Tags Admin
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{} "Recalculation summary"
// @Failure 401 {object} map[string]string "Missing or invalid token"
// @Failure 500 {object} map[string]string "Internal server error"
// @Security BearerAuth
// @Router /admin/recalculate [post]
func (h *AdminHandler) Recalculate(w http.ResponseWriter, r *http.Request) {
	summary, err := h.recalculator.Recalculate(r.Context())
	if err != nil {
		h.logger.Error("Recalculation run failed", err)
		response.Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	response.Success(w, summary)
}
