package brand

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

// Service handles brand business logic
type Service struct {
	repo     domain.BrandRepository
	cascade  *cascade.Coordinator
	cache    StatsCache
	validate *validator.Validate
	logger   *logger.Logger
}

// NewService creates a new brand service
func NewService(repo domain.BrandRepository, coordinator *cascade.Coordinator, cache StatsCache, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		cascade:  coordinator,
		cache:    cache,
		validate: validatorpkg.Get(),
		logger:   log,
	}
}

// Create creates a new brand
func (s *Service) Create(ctx context.Context, brand *domain.Brand) error {
	if brand.Status == "" {
		brand.Status = domain.BrandStatusActive
	}

	if err := s.validate.Struct(brand); err != nil {
		s.logger.Error("Brand validation failed", err)
		return domain.ErrInvalidInput
	}

	if err := s.repo.Create(ctx, brand); err != nil {
		s.logger.Error("Failed to create brand", err)
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"brand_id": brand.ID,
		"name":     brand.Name,
	}).Info("Brand created successfully")

	return nil
}

// GetByID retrieves a brand by ID
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*domain.Brand, error) {
	brand, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == domain.ErrNotFound {
			s.logger.Debugf("Brand not found: %s", id)
		} else {
			s.logger.Error("Failed to get brand", err)
		}
		return nil, err
	}

	return brand, nil
}

// GetStats returns the brand's aggregate rating summary, served from cache
// when a fresh copy exists
func (s *Service) GetStats(ctx context.Context, id uuid.UUID) (*domain.RatingStats, error) {
	owner := domain.BrandOwner(id)

	if cached, err := s.cache.GetOwnerStats(ctx, owner); err == nil {
		return cached, nil
	}

	brand, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == domain.ErrNotFound {
			s.logger.Debugf("Brand not found: %s", id)
		} else {
			s.logger.Error("Failed to get brand", err)
		}
		return nil, err
	}

	stats := brand.RatingStats
	if err := s.cache.SetOwnerStats(ctx, owner, &stats); err != nil {
		s.logger.Error("Failed to cache brand stats", err)
	}

	return &stats, nil
}

// List retrieves a paginated list of brands
func (s *Service) List(ctx context.Context, limit, offset int) ([]*domain.Brand, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	brands, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("Failed to list brands", err)
		return nil, 0, err
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		s.logger.Error("Failed to count brands", err)
		return nil, 0, err
	}

	return brands, total, nil
}

// Update updates an existing brand's descriptive fields
func (s *Service) Update(ctx context.Context, brand *domain.Brand) error {
	if err := s.validate.Struct(brand); err != nil {
		s.logger.Error("Brand validation failed", err)
		return domain.ErrInvalidInput
	}

	if err := s.repo.Update(ctx, brand); err != nil {
		s.logger.Error("Failed to update brand", err)
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"brand_id": brand.ID,
		"name":     brand.Name,
	}).Info("Brand updated successfully")

	return nil
}

// Delete removes a brand together with its products and every dependent
// review
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.cascade.DeleteBrand(ctx, id); err != nil {
		s.logger.Error("Failed to delete brand", err)
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"brand_id": id,
	}).Info("Brand deleted successfully")

	return nil
}
