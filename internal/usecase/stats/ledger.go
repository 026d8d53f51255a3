package stats

import (
	"context"
	"errors"
	"fmt"

	"github.com/Pesokrava/review_platform/internal/domain"
	"github.com/Pesokrava/review_platform/internal/pkg/logger"
)

// Ledger is the single write path for the denormalized rating statistics on
// brands and products. Every settlement goes through Apply; nothing else in
// the codebase assigns aggregate fields, which keeps the invariants between
// totalReviews, totalRating and the distribution auditable in one place.
type Ledger struct {
	brands   domain.BrandRepository
	products domain.ProductRepository
	logger   *logger.Logger
}

// NewLedger creates a new statistics ledger
func NewLedger(brands domain.BrandRepository, products domain.ProductRepository, log *logger.Logger) *Ledger {
	return &Ledger{
		brands:   brands,
		products: products,
		logger:   log,
	}
}

// Apply settles one delta against the owner's aggregate fields. The count,
// rating total, and distribution increments land in a single atomic store
// update. A missing owner is logged and dropped, never raised: if the target
// was deleted concurrently, the review's effect is moot.
func (l *Ledger) Apply(ctx context.Context, owner domain.Owner, delta domain.StatsDelta) error {
	if delta.IsZero() {
		return nil
	}

	var err error
	switch owner.Type {
	case domain.OwnerTypeProduct:
		err = l.products.ApplyStatsDelta(ctx, owner.ID, delta)
	case domain.OwnerTypeBrand:
		err = l.brands.ApplyStatsDelta(ctx, owner.ID, delta)
	default:
		return fmt.Errorf("unknown owner type %q: %w", owner.Type, domain.ErrInvalidInput)
	}

	if errors.Is(err, domain.ErrNotFound) {
		l.logger.WithFields(map[string]interface{}{
			"owner":         owner.String(),
			"reviews_delta": delta.Reviews,
			"rating_delta":  delta.Rating,
		}).Warn("Aggregate owner no longer exists, dropping stats delta")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to apply stats delta to %s: %w", owner, err)
	}

	l.logger.WithFields(map[string]interface{}{
		"owner":         owner.String(),
		"reviews_delta": delta.Reviews,
		"rating_delta":  delta.Rating,
	}).Debug("Applied stats delta")

	return nil
}
