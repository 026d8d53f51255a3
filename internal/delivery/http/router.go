package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/Pesokrava/review_platform/internal/config"
	"github.com/Pesokrava/review_platform/internal/delivery/http/handler"
	"github.com/Pesokrava/review_platform/internal/delivery/http/middleware"
	"github.com/Pesokrava/review_platform/internal/delivery/http/response"
	"github.com/Pesokrava/review_platform/internal/pkg/logger"
)

// Router holds HTTP handlers and router configuration
type Router struct {
	brandHandler   *handler.BrandHandler
	productHandler *handler.ProductHandler
	reviewHandler  *handler.ReviewHandler
	adminHandler   *handler.AdminHandler
	logger         *logger.Logger
	cfg            *config.Config
}

// NewRouter creates a new HTTP router
func NewRouter(
	brandHandler *handler.BrandHandler,
	productHandler *handler.ProductHandler,
	reviewHandler *handler.ReviewHandler,
	adminHandler *handler.AdminHandler,
	cfg *config.Config,
	log *logger.Logger,
) *Router {
	return &Router{
		brandHandler:   brandHandler,
		productHandler: productHandler,
		reviewHandler:  reviewHandler,
		adminHandler:   adminHandler,
		logger:         log,
		cfg:            cfg,
	}
}

// Setup configures and returns the HTTP router. Destructive and moderation
// endpoints sit behind the JWT middleware; reads and review submission are
// public.
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logger(rt.logger))
	r.Use(chimiddleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", rt.healthCheck)
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	auth := middleware.JWTAuth(rt.cfg.Auth.JWTSecret, rt.logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/brands", func(r chi.Router) {
			r.Post("/", rt.brandHandler.Create)
			r.Get("/", rt.brandHandler.List)
			r.Get("/{id}", rt.brandHandler.GetByID)
			r.Get("/{id}/stats", rt.brandHandler.GetStats)
			r.Put("/{id}", rt.brandHandler.Update)
			r.With(auth).Delete("/{id}", rt.brandHandler.Delete)
			r.Get("/{id}/reviews", rt.reviewHandler.GetByBrandID)
		})

		r.Route("/products", func(r chi.Router) {
			r.Post("/", rt.productHandler.Create)
			r.Get("/", rt.productHandler.List)
			r.With(auth).Post("/bulk-delete", rt.productHandler.BulkDelete)
			r.Get("/{id}", rt.productHandler.GetByID)
			r.Get("/{id}/stats", rt.productHandler.GetStats)
			r.Put("/{id}", rt.productHandler.Update)
			r.With(auth).Delete("/{id}", rt.productHandler.Delete)
			r.Get("/{id}/reviews", rt.reviewHandler.GetByProductID)
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Post("/", rt.reviewHandler.Create)
			r.Get("/", rt.reviewHandler.List)
			r.Get("/{id}", rt.reviewHandler.GetByID)
			r.Put("/{id}", rt.reviewHandler.Update)
			r.With(auth).Patch("/{id}/status", rt.reviewHandler.UpdateStatus)
			r.With(auth).Delete("/{id}", rt.reviewHandler.Delete)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(auth)
			r.Post("/recalculate", rt.adminHandler.Recalculate)
		})
	})

	return r
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
