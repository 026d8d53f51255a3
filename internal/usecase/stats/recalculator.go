package stats

import (
	"context"
	"errors"
	"fmt"

	"github.com/Pesokrava/review_platform/internal/domain"
	"github.com/Pesokrava/review_platform/internal/pkg/logger"
)

// Summary reports what a full recalculation run touched
type Summary struct {
	BrandsUpdated   int `json:"brands_updated"`
	ProductsUpdated int `json:"products_updated"`
	BrandsSkipped   int `json:"brands_skipped"`
	ProductsSkipped int `json:"products_skipped"`
}

// Recalculator rebuilds aggregate statistics from the ACTIVE reviews on
// record. It is the drift-correction counterpart to the incremental ledger:
// running it settles any inconsistency left behind by partial failures or
// races on the write path.
//
// Concurrent runs are last-writer-wins per target; the job makes no attempt
// to interleave with itself atomically.
type Recalculator struct {
	brands   domain.BrandRepository
	products domain.ProductRepository
	reviews  domain.ReviewRepository
	logger   *logger.Logger
}

// NewRecalculator creates a new recalculator
func NewRecalculator(
	brands domain.BrandRepository,
	products domain.ProductRepository,
	reviews domain.ReviewRepository,
	log *logger.Logger,
) *Recalculator {
	return &Recalculator{
		brands:   brands,
		products: products,
		reviews:  reviews,
		logger:   log,
	}
}

// Recalculate rebuilds the aggregates of every ACTIVE brand and product.
// Targets with zero ACTIVE reviews are skipped, not zeroed: this is a
// drift-correction tool, not a reset tool.
func (r *Recalculator) Recalculate(ctx context.Context) (*Summary, error) {
	summary := &Summary{}

	brandIDs, err := r.brands.ListActiveIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list brands: %w", err)
	}

	for _, id := range brandIDs {
		updated, err := r.RecalculateOwner(ctx, domain.BrandOwner(id))
		if err != nil {
			return nil, err
		}
		if updated {
			summary.BrandsUpdated++
		} else {
			summary.BrandsSkipped++
		}
	}

	productIDs, err := r.products.ListActiveIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	for _, id := range productIDs {
		updated, err := r.RecalculateOwner(ctx, domain.ProductOwner(id))
		if err != nil {
			return nil, err
		}
		if updated {
			summary.ProductsUpdated++
		} else {
			summary.ProductsSkipped++
		}
	}

	r.logger.WithFields(map[string]interface{}{
		"brands_updated":   summary.BrandsUpdated,
		"brands_skipped":   summary.BrandsSkipped,
		"products_updated": summary.ProductsUpdated,
		"products_skipped": summary.ProductsSkipped,
	}).Info("Recalculation run completed")

	return summary, nil
}

// RecalculateOwner rebuilds one owner's aggregates from scratch. Returns
// false when the owner was skipped (no ACTIVE reviews) or vanished while the
// recompute was in flight.
func (r *Recalculator) RecalculateOwner(ctx context.Context, owner domain.Owner) (bool, error) {
	reviews, err := r.reviews.ListAllByFilter(ctx, domain.ActiveReviewsFor(owner))
	if err != nil {
		return false, fmt.Errorf("failed to load reviews for %s: %w", owner, err)
	}

	if len(reviews) == 0 {
		r.logger.WithFields(map[string]interface{}{
			"owner": owner.String(),
		}).Debug("No active reviews, skipping recalculation")
		return false, nil
	}

	stats := ComputeStats(reviews)

	switch owner.Type {
	case domain.OwnerTypeProduct:
		err = r.products.ReplaceStats(ctx, owner.ID, stats)
	case domain.OwnerTypeBrand:
		err = r.brands.ReplaceStats(ctx, owner.ID, stats)
	default:
		return false, fmt.Errorf("unknown owner type %q: %w", owner.Type, domain.ErrInvalidInput)
	}

	if errors.Is(err, domain.ErrNotFound) {
		r.logger.WithFields(map[string]interface{}{
			"owner": owner.String(),
		}).Info("Owner deleted during recalculation, skipping")
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to replace stats for %s: %w", owner, err)
	}

	return true, nil
}

// ComputeStats derives an owner's aggregates from its ACTIVE reviews
func ComputeStats(reviews []*domain.Review) domain.RatingStats {
	var stats domain.RatingStats

	for _, rv := range reviews {
		avg := domain.ReviewAverage(rv)
		stats.TotalReviews++
		stats.TotalRating += avg
		stats.AddBucket(domain.StarBucket(avg), 1)
	}

	stats.Finalize()
	return stats
}
