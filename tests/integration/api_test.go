//go:build integration
// +build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/review_platform/internal/config"
	"github.com/Pesokrava/review_platform/internal/delivery/events"
	httpDelivery "github.com/Pesokrava/review_platform/internal/delivery/http"
	"github.com/Pesokrava/review_platform/internal/delivery/http/handler"
	"github.com/Pesokrava/review_platform/internal/pkg/cache"
	"github.com/Pesokrava/review_platform/internal/pkg/database"
	"github.com/Pesokrava/review_platform/internal/pkg/logger"
	cacheRepo "github.com/Pesokrava/review_platform/internal/repository/cache"
	"github.com/Pesokrava/review_platform/internal/repository/postgres"
	"github.com/Pesokrava/review_platform/internal/usecase/brand"
	"github.com/Pesokrava/review_platform/internal/usecase/cascade"
	"github.com/Pesokrava/review_platform/internal/usecase/product"
	"github.com/Pesokrava/review_platform/internal/usecase/review"
	"github.com/Pesokrava/review_platform/internal/usecase/stats"
)

func setupTestServer(t *testing.T) (http.Handler, *config.Config) {
	// Load config
	cfg, err := config.Load()
	require.NoError(t, err)

	// Setup logger
	log := logger.New(cfg.Env)

	// Connect to database
	db, err := database.WaitForDB(cfg, 5, 2*time.Second)
	require.NoError(t, err)

	// Connect to Redis
	redisClient, err := cache.WaitForRedis(cfg, 5, 2*time.Second)
	require.NoError(t, err)

	// Connect to NATS
	publisher, err := events.NewPublisher(cfg, log)
	require.NoError(t, err)

	// Setup repositories
	brandRepo := postgres.NewBrandRepository(db)
	productRepo := postgres.NewProductRepository(db)
	reviewRepo := postgres.NewReviewRepository(db)
	redisCache := cacheRepo.NewRedisCache(
		redisClient,
		cfg.Cache.OwnerStatsTTL,
		cfg.Cache.ReviewsListTTL,
	)

	// Setup use cases
	ledger := stats.NewLedger(brandRepo, productRepo, log)
	recalculator := stats.NewRecalculator(brandRepo, productRepo, reviewRepo, log)
	coordinator := cascade.NewCoordinator(brandRepo, productRepo, reviewRepo, ledger, redisCache, log)
	brandService := brand.NewService(brandRepo, coordinator, redisCache, log)
	productService := product.NewService(productRepo, coordinator, redisCache, log)
	reviewService := review.NewService(reviewRepo, ledger, redisCache, publisher, log)

	// Setup handlers
	brandHandler := handler.NewBrandHandler(brandService, log)
	productHandler := handler.NewProductHandler(productService, log)
	reviewHandler := handler.NewReviewHandler(reviewService, log)
	adminHandler := handler.NewAdminHandler(recalculator, log)

	// Setup router
	router := httpDelivery.NewRouter(brandHandler, productHandler, reviewHandler, adminHandler, cfg, log)
	return router.Setup(), cfg
}

func adminToken(t *testing.T, cfg *config.Config) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "integration-test",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(cfg.Auth.JWTSecret))
	require.NoError(t, err)
	return signed
}

func doJSON(server http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var resp map[string]interface{}
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	require.True(t, resp["success"].(bool))
	return resp["data"].(map[string]interface{})
}

func TestHealthCheck(t *testing.T) {
	server, _ := setupTestServer(t)

	w := doJSON(server, http.MethodGet, "/health", "", "")

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, "healthy", resp["status"])
}

func TestReviewSettlementFlow(t *testing.T) {
	server, cfg := setupTestServer(t)
	token := adminToken(t, cfg)

	// Create brand
	brandJSON := fmt.Sprintf(`{
		"name": "Settlement Test Brand",
		"email": "settlement-%d@example.com",
		"phone_number": "+44 20 7946 0000",
		"postcode": "SW1A 1AA"
	}`, time.Now().UnixNano())
	w := doJSON(server, http.MethodPost, "/api/v1/brands", brandJSON, "")
	require.Equal(t, http.StatusCreated, w.Code)
	brandID := decodeData(t, w)["id"].(string)

	// Create product under the brand
	productJSON := fmt.Sprintf(`{
		"name": "Settlement Test Product",
		"handle": "settlement-test-%d",
		"brand_id": "%s",
		"price": 99.99,
		"stock_quantity": 5
	}`, time.Now().UnixNano(), brandID)
	w = doJSON(server, http.MethodPost, "/api/v1/products", productJSON, "")
	require.Equal(t, http.StatusCreated, w.Code)
	productID := decodeData(t, w)["id"].(string)

	// Publish an ACTIVE review: aggregates update on the write path
	reviewJSON := fmt.Sprintf(`{
		"review_type": "PRODUCT",
		"product_id": "%s",
		"title": "Works well",
		"body": "No complaints after a month",
		"reviewer_name": "Integration Tester",
		"reviewer_email": "tester@example.com",
		"store_rating": 4,
		"seller_rating": 4,
		"quality_rating": 4,
		"price_rating": 4,
		"status": "ACTIVE"
	}`, productID)
	w = doJSON(server, http.MethodPost, "/api/v1/reviews", reviewJSON, "")
	require.Equal(t, http.StatusCreated, w.Code)
	reviewID := decodeData(t, w)["id"].(string)

	// Product aggregates reflect the review
	w = doJSON(server, http.MethodGet, "/api/v1/products/"+productID, "", "")
	require.Equal(t, http.StatusOK, w.Code)
	productData := decodeData(t, w)
	assert.Equal(t, float64(1), productData["total_reviews"])
	assert.Equal(t, 4.0, productData["average_rating"])

	// The stats endpoint serves the same summary; a second read comes from
	// cache and must agree
	for i := 0; i < 2; i++ {
		w = doJSON(server, http.MethodGet, "/api/v1/products/"+productID+"/stats", "", "")
		require.Equal(t, http.StatusOK, w.Code)
		statsData := decodeData(t, w)
		assert.Equal(t, float64(1), statsData["total_reviews"])
		assert.Equal(t, 4.0, statsData["average_rating"])
	}

	// Deleting the review reverses its contribution; deletion needs auth
	w = doJSON(server, http.MethodDelete, "/api/v1/reviews/"+reviewID, "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(server, http.MethodDelete, "/api/v1/reviews/"+reviewID, "", token)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(server, http.MethodGet, "/api/v1/products/"+productID, "", "")
	require.Equal(t, http.StatusOK, w.Code)
	productData = decodeData(t, w)
	assert.Equal(t, float64(0), productData["total_reviews"])

	// Brand cascade cleans up the product
	w = doJSON(server, http.MethodDelete, "/api/v1/brands/"+brandID, "", token)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(server, http.MethodGet, "/api/v1/products/"+productID, "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestModerationFlow(t *testing.T) {
	server, cfg := setupTestServer(t)
	token := adminToken(t, cfg)

	brandJSON := fmt.Sprintf(`{
		"name": "Moderation Test Brand",
		"email": "moderation-%d@example.com",
		"phone_number": "+44 20 7946 0001",
		"postcode": "SW1A 1AA"
	}`, time.Now().UnixNano())
	w := doJSON(server, http.MethodPost, "/api/v1/brands", brandJSON, "")
	require.Equal(t, http.StatusCreated, w.Code)
	brandID := decodeData(t, w)["id"].(string)

	// A review without an explicit status starts INACTIVE
	reviewJSON := fmt.Sprintf(`{
		"review_type": "BRAND",
		"brand_id": "%s",
		"title": "Great support",
		"body": "Replied within the hour",
		"reviewer_name": "Integration Tester",
		"reviewer_email": "tester@example.com",
		"store_rating": 5,
		"seller_rating": 5,
		"quality_rating": 5,
		"price_rating": 5
	}`, brandID)
	w = doJSON(server, http.MethodPost, "/api/v1/reviews", reviewJSON, "")
	require.Equal(t, http.StatusCreated, w.Code)
	reviewData := decodeData(t, w)
	reviewID := reviewData["id"].(string)
	assert.Equal(t, "INACTIVE", reviewData["status"])

	// Unpublished reviews don't count
	w = doJSON(server, http.MethodGet, "/api/v1/brands/"+brandID, "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decodeData(t, w)["total_reviews"])

	// Moderation is a protected endpoint
	w = doJSON(server, http.MethodPatch, "/api/v1/reviews/"+reviewID+"/status", `{"status": "ACTIVE"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(server, http.MethodPatch, "/api/v1/reviews/"+reviewID+"/status", `{"status": "ACTIVE"}`, token)
	require.Equal(t, http.StatusOK, w.Code)

	// Activation settles the review against the brand
	w = doJSON(server, http.MethodGet, "/api/v1/brands/"+brandID, "", "")
	require.Equal(t, http.StatusOK, w.Code)
	brandData := decodeData(t, w)
	assert.Equal(t, float64(1), brandData["total_reviews"])
	assert.Equal(t, 5.0, brandData["average_rating"])

	// Cleanup
	w = doJSON(server, http.MethodDelete, "/api/v1/brands/"+brandID, "", token)
	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestAdminRecalculate(t *testing.T) {
	server, cfg := setupTestServer(t)
	token := adminToken(t, cfg)

	w := doJSON(server, http.MethodPost, "/api/v1/admin/recalculate", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(server, http.MethodPost, "/api/v1/admin/recalculate", "", token)
	require.Equal(t, http.StatusOK, w.Code)

	summary := decodeData(t, w)
	assert.Contains(t, summary, "brands_updated")
	assert.Contains(t, summary, "products_updated")
}
