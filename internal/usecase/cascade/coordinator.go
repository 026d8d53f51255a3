package cascade

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Pesokrava/review_platform/internal/domain"
	"github.com/Pesokrava/review_platform/internal/pkg/logger"
	"github.com/Pesokrava/review_platform/internal/usecase/stats"
)

// OwnerCache is the slice of the cache the coordinator needs
type OwnerCache interface {
	InvalidateOwner(ctx context.Context, owner domain.Owner) error
}

// Coordinator removes brands and products together with their dependent
// reviews. Deletion order is fixed: reviews first, then products, then the
// brand. A crash mid-cascade therefore leaves only "already cleaned up"
// state behind, and re-running the cascade finds zero remaining dependents
// and is a no-op.
//
// The store offers no cross-collection transaction, so the coordinator
// settles ACTIVE dependents through the ledger before deleting them: the
// effect is discarded once the owner row goes, but keeps aggregates honest
// if the cascade is aborted partway and retried.
type Coordinator struct {
	brands   domain.BrandRepository
	products domain.ProductRepository
	reviews  domain.ReviewRepository
	ledger   *stats.Ledger
	cache    OwnerCache
	logger   *logger.Logger
}

// NewCoordinator creates a new cascade deletion coordinator
func NewCoordinator(
	brands domain.BrandRepository,
	products domain.ProductRepository,
	reviews domain.ReviewRepository,
	ledger *stats.Ledger,
	cache OwnerCache,
	log *logger.Logger,
) *Coordinator {
	return &Coordinator{
		brands:   brands,
		products: products,
		reviews:  reviews,
		ledger:   ledger,
		cache:    cache,
		logger:   log,
	}
}

// DeleteProduct removes one product and its reviews. Returns ErrNotFound
// when the product does not exist.
func (c *Coordinator) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if _, err := c.products.GetByID(ctx, id); err != nil {
		return err
	}

	return c.DeleteProducts(ctx, []uuid.UUID{id})
}

// DeleteProducts removes a set of products and their reviews with set-based
// lookups: one query resolves every dependent review, one delete per
// collection. Products already gone are silently skipped, which is what
// makes a partially completed cascade safe to re-run.
func (c *Coordinator) DeleteProducts(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	reviews, err := c.reviews.ListByProductIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to list dependent reviews: %w", err)
	}

	// Settle ACTIVE reviews against their product before anything is
	// removed. One combined delta per product keeps the query count bounded.
	for productID, delta := range activeDeltasByProduct(reviews) {
		if err := c.ledger.Apply(ctx, domain.ProductOwner(productID), delta); err != nil {
			return fmt.Errorf("failed to settle reviews for product %s: %w", productID, err)
		}
	}

	deletedReviews, err := c.reviews.DeleteByProductIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to delete dependent reviews: %w", err)
	}

	deletedProducts, err := c.products.DeleteByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to delete products: %w", err)
	}

	for _, id := range ids {
		c.invalidate(ctx, domain.ProductOwner(id))
	}

	c.logger.WithFields(map[string]interface{}{
		"products_deleted": deletedProducts,
		"reviews_deleted":  deletedReviews,
	}).Info("Product cascade completed")

	return nil
}

// DeleteBrand removes a brand, its products, and every review referencing
// either. Returns ErrNotFound when the brand does not exist.
func (c *Coordinator) DeleteBrand(ctx context.Context, id uuid.UUID) error {
	if _, err := c.brands.GetByID(ctx, id); err != nil {
		return err
	}

	productIDs, err := c.products.ListIDsByBrand(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to list brand products: %w", err)
	}

	brandReviews, err := c.reviews.ListByBrandDirect(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to list brand reviews: %w", err)
	}

	// Only brand-type reviews settle against the brand; product reviews
	// never contribute to brand aggregates and need no reversal here.
	var delta domain.StatsDelta
	for _, rv := range brandReviews {
		if rv.IsActive() {
			avg := domain.ReviewAverage(rv)
			delta.Reviews--
			delta.Rating -= avg
			delta.AddBucket(domain.StarBucket(avg), -1)
		}
	}
	if err := c.ledger.Apply(ctx, domain.BrandOwner(id), delta); err != nil {
		return fmt.Errorf("failed to settle brand reviews: %w", err)
	}

	productReviewsDeleted, err := c.reviews.DeleteByProductIDs(ctx, productIDs)
	if err != nil {
		return fmt.Errorf("failed to delete product reviews: %w", err)
	}

	brandReviewsDeleted, err := c.reviews.DeleteByBrandDirect(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete brand reviews: %w", err)
	}

	productsDeleted, err := c.products.DeleteByIDs(ctx, productIDs)
	if err != nil {
		return fmt.Errorf("failed to delete products: %w", err)
	}

	if err := c.brands.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete brand: %w", err)
	}

	c.invalidate(ctx, domain.BrandOwner(id))
	for _, productID := range productIDs {
		c.invalidate(ctx, domain.ProductOwner(productID))
	}

	c.logger.WithFields(map[string]interface{}{
		"brand_id":                id,
		"products_deleted":        productsDeleted,
		"product_reviews_deleted": productReviewsDeleted,
		"brand_reviews_deleted":   brandReviewsDeleted,
	}).Info("Brand cascade completed")

	return nil
}

// activeDeltasByProduct folds the ACTIVE reviews into one reversal delta
// per product
func activeDeltasByProduct(reviews []*domain.Review) map[uuid.UUID]domain.StatsDelta {
	deltas := make(map[uuid.UUID]domain.StatsDelta)

	for _, rv := range reviews {
		if !rv.IsActive() || rv.ProductID == nil {
			continue
		}

		delta := deltas[*rv.ProductID]
		avg := domain.ReviewAverage(rv)
		delta.Reviews--
		delta.Rating -= avg
		delta.AddBucket(domain.StarBucket(avg), -1)
		deltas[*rv.ProductID] = delta
	}

	return deltas
}

func (c *Coordinator) invalidate(ctx context.Context, owner domain.Owner) {
	if err := c.cache.InvalidateOwner(ctx, owner); err != nil {
		c.logger.Warnf("Failed to invalidate cache for %s: %v", owner, err)
	}
}
