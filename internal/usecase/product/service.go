package product

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/Pesokrava/review_platform/internal/domain"
	"github.com/Pesokrava/review_platform/internal/pkg/logger"
	validatorpkg "github.com/Pesokrava/review_platform/internal/pkg/validator"
	"github.com/Pesokrava/review_platform/internal/usecase/cascade"
)

// StatsCache caches owner rating summaries. Review mutations invalidate the
// owner's keys, so a hit is never staler than the last settlement.
type StatsCache interface {
	GetOwnerStats(ctx context.Context, owner domain.Owner) (*domain.RatingStats, error)
	SetOwnerStats(ctx context.Context, owner domain.Owner, stats *domain.RatingStats) error
}

// Service handles product business logic
type Service struct {
	repo     domain.ProductRepository
	cascade  *cascade.Coordinator
	cache    StatsCache
	validate *validator.Validate
	logger   *logger.Logger
}

// NewService creates a new product service
func NewService(repo domain.ProductRepository, coordinator *cascade.Coordinator, cache StatsCache, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		cascade:  coordinator,
		cache:    cache,
		validate: validatorpkg.Get(),
		logger:   log,
	}
}

// Create creates a new product
func (s *Service) Create(ctx context.Context, product *domain.Product) error {
	if product.Status == "" {
		product.Status = domain.ProductStatusActive
	}

	if err := s.validate.Struct(product); err != nil {
		s.logger.Error("Product validation failed", err)
		return domain.ErrInvalidInput
	}

	if err := s.repo.Create(ctx, product); err != nil {
		s.logger.Error("Failed to create product", err)
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
	}).Info("Product created successfully")

	return nil
}

// GetByID retrieves a product by ID
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == domain.ErrNotFound {
			s.logger.Debugf("Product not found: %s", id)
		} else {
			s.logger.Error("Failed to get product", err)
		}
		return nil, err
	}

	return product, nil
}

// GetStats returns the product's aggregate rating summary, served from cache
// when a fresh copy exists
func (s *Service) GetStats(ctx context.Context, id uuid.UUID) (*domain.RatingStats, error) {
	owner := domain.ProductOwner(id)

	if cached, err := s.cache.GetOwnerStats(ctx, owner); err == nil {
		return cached, nil
	}

	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == domain.ErrNotFound {
			s.logger.Debugf("Product not found: %s", id)
		} else {
			s.logger.Error("Failed to get product", err)
		}
		return nil, err
	}

	stats := product.RatingStats
	if err := s.cache.SetOwnerStats(ctx, owner, &stats); err != nil {
		s.logger.Error("Failed to cache product stats", err)
	}

	return &stats, nil
}

// List retrieves a paginated list of products
func (s *Service) List(ctx context.Context, limit, offset int) ([]*domain.Product, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	products, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("Failed to list products", err)
		return nil, 0, err
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		s.logger.Error("Failed to count products", err)
		return nil, 0, err
	}

	return products, total, nil
}

// Update updates an existing product's descriptive fields
func (s *Service) Update(ctx context.Context, product *domain.Product) error {
	if err := s.validate.Struct(product); err != nil {
		s.logger.Error("Product validation failed", err)
		return domain.ErrInvalidInput
	}

	if err := s.repo.Update(ctx, product); err != nil {
		s.logger.Error("Failed to update product", err)
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
	}).Info("Product updated successfully")

	return nil
}

// Delete removes a product and cascades to its reviews
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.cascade.DeleteProduct(ctx, id); err != nil {
		s.logger.Error("Failed to delete product", err)
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"product_id": id,
	}).Info("Product deleted successfully")

	return nil
}

// BulkDelete removes a set of products and their reviews in batched,
// set-based operations
func (s *Service) BulkDelete(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return domain.ErrInvalidInput
	}

	if err := s.cascade.DeleteProducts(ctx, ids); err != nil {
		s.logger.Error("Failed to bulk delete products", err)
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"requested": len(ids),
	}).Info("Products bulk deleted")

	return nil
}
