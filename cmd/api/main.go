package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

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

// @title Review Platform API
// @version 1.0
// @description Product and brand review platform with denormalized rating statistics, caching, and event notifications.
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://github.com/Pesokrava/review_platform
// @contact.email support@example.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// @tag.name Brands
// @tag.description Brand management endpoints

// @tag.name Products
// @tag.description Product management endpoints

// @tag.name Reviews
// @tag.description Review management and moderation endpoints

// @tag.name Admin
// @tag.description Administrative endpoints

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.New(cfg.Env)
	appLogger.Info("Starting Review Platform API...")

	appLogger.Info("Connecting to PostgreSQL...")
	db, err := database.WaitForDB(cfg, 10, 2*time.Second)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", err)
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL successfully")

	if cfg.Database.AutoMigrate {
		appLogger.Info("Running database migrations...")
		if err := database.RunMigrations(db); err != nil {
			appLogger.Fatal("Failed to run migrations", err)
		}
	}

	appLogger.Info("Connecting to Redis...")
	redisClient, err := cache.WaitForRedis(cfg, 10, 2*time.Second)
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", err)
	}
	defer redisClient.Close()
	appLogger.Info("Connected to Redis successfully")

	appLogger.Info("Connecting to NATS...")
	publisher, err := events.NewPublisher(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create NATS publisher", err)
	}
	defer publisher.Close()

	brandRepo := postgres.NewBrandRepository(db)
	productRepo := postgres.NewProductRepository(db)
	reviewRepo := postgres.NewReviewRepository(db)
	redisCache := cacheRepo.NewRedisCache(
		redisClient,
		cfg.Cache.OwnerStatsTTL,
		cfg.Cache.ReviewsListTTL,
	)

	ledger := stats.NewLedger(brandRepo, productRepo, appLogger)
	recalculator := stats.NewRecalculator(brandRepo, productRepo, reviewRepo, appLogger)
	coordinator := cascade.NewCoordinator(brandRepo, productRepo, reviewRepo, ledger, redisCache, appLogger)

	brandService := brand.NewService(brandRepo, coordinator, redisCache, appLogger)
	productService := product.NewService(productRepo, coordinator, redisCache, appLogger)
	reviewService := review.NewService(reviewRepo, ledger, redisCache, publisher, appLogger)

	brandHandler := handler.NewBrandHandler(brandService, appLogger)
	productHandler := handler.NewProductHandler(productService, appLogger)
	reviewHandler := handler.NewReviewHandler(reviewService, appLogger)
	adminHandler := handler.NewAdminHandler(recalculator, appLogger)

	router := httpDelivery.NewRouter(brandHandler, productHandler, reviewHandler, adminHandler, cfg, appLogger)
	httpHandler := router.Setup()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      httpHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		appLogger.Infof("HTTP server listening on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("HTTP server failed", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLogger.Fatal("Server forced to shutdown", err)
	}

	appLogger.Info("Server stopped gracefully")
}
