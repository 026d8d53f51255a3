package review

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/Pesokrava/review_platform/internal/domain"
	"github.com/Pesokrava/review_platform/internal/pkg/logger"
	validatorpkg "github.com/Pesokrava/review_platform/internal/pkg/validator"
	"github.com/Pesokrava/review_platform/internal/usecase/stats"
)

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// ReviewCache defines the owner-scoped cache operations the service uses
type ReviewCache interface {
	GetReviewsList(ctx context.Context, owner domain.Owner, limit, offset int) ([]*domain.Review, error)
	SetReviewsList(ctx context.Context, owner domain.Owner, limit, offset int, reviews []*domain.Review) error
	InvalidateOwner(ctx context.Context, owner domain.Owner) error
}

// ReviewEvent represents an event related to a review
type ReviewEvent struct {
	EventType string         `json:"event_type"`
	Timestamp time.Time      `json:"timestamp"`
	Owner     domain.Owner   `json:"owner"`
	Review    *domain.Review `json:"review,omitempty"`
}

// Service is the review lifecycle controller. Every mutation snapshots the
// pre-write state, applies the write, then dispatches exactly one settlement
// for the transition through the statistics ledger. A failed settlement
// never fails the review write itself: availability of the write path wins
// over real-time aggregate consistency, and the recalculation job exists to
// repair the difference.
type Service struct {
	repo      domain.ReviewRepository
	ledger    *stats.Ledger
	cache     ReviewCache
	publisher EventPublisher
	validate  *validator.Validate
	logger    *logger.Logger
}

// NewService creates a new review service
func NewService(
	repo domain.ReviewRepository,
	ledger *stats.Ledger,
	cache ReviewCache,
	publisher EventPublisher,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:      repo,
		ledger:    ledger,
		cache:     cache,
		publisher: publisher,
		validate:  validatorpkg.Get(),
		logger:    log,
	}
}

// Create persists a new review. The caller chooses the initial status:
// INACTIVE (pending moderation) leaves aggregates alone, ACTIVE settles
// immediately.
func (s *Service) Create(ctx context.Context, rv *domain.Review) error {
	if err := s.validateReview(rv); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, rv); err != nil {
		s.logger.Error("Failed to create review", err)
		return err
	}

	s.settle(ctx, nil, rv)
	s.invalidateOwnerCache(ctx, rv)
	s.publishEvent(ctx, "review.created", rv)

	s.logger.WithFields(map[string]interface{}{
		"review_id":   rv.ID,
		"review_type": rv.ReviewType,
		"status":      rv.Status,
	}).Info("Review created successfully")

	return nil
}

// GetByID retrieves a review by ID
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	rv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == domain.ErrNotFound {
			s.logger.Debugf("Review not found: %s", id)
		} else {
			s.logger.Error("Failed to get review", err)
		}
		return nil, err
	}

	return rv, nil
}

// List retrieves reviews matching the filter with pagination and sorting
func (s *Service) List(ctx context.Context, filter domain.ReviewFilter, limit, offset int, sortBy, order string) ([]*domain.Review, int, error) {
	limit, offset = clampPage(limit, offset)

	reviews, err := s.repo.List(ctx, filter, limit, offset, sortBy, order)
	if err != nil {
		s.logger.Error("Failed to list reviews", err)
		return nil, 0, err
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to count reviews", err)
		return nil, 0, err
	}

	return reviews, total, nil
}

// ListByOwner retrieves the ACTIVE reviews for one owner with caching
func (s *Service) ListByOwner(ctx context.Context, owner domain.Owner, limit, offset int) ([]*domain.Review, int, error) {
	limit, offset = clampPage(limit, offset)
	filter := domain.ActiveReviewsFor(owner)

	reviews, err := s.cache.GetReviewsList(ctx, owner, limit, offset)
	if err == nil {
		s.logger.Debugf("Cache hit for %s reviews (limit=%d, offset=%d)", owner, limit, offset)
		total, err := s.repo.Count(ctx, filter)
		if err != nil {
			s.logger.Error("Failed to count reviews", err)
			return nil, 0, err
		}
		return reviews, total, nil
	}

	s.logger.Debugf("Cache miss for %s reviews (limit=%d, offset=%d)", owner, limit, offset)
	reviews, err = s.repo.List(ctx, filter, limit, offset, "created_at", "desc")
	if err != nil {
		s.logger.Error("Failed to list reviews by owner", err)
		return nil, 0, err
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to count reviews", err)
		return nil, 0, err
	}

	if err := s.cache.SetReviewsList(ctx, owner, limit, offset, reviews); err != nil {
		s.logger.Warnf("Failed to cache reviews for %s (limit=%d, offset=%d): %v", owner, limit, offset, err)
	}

	return reviews, total, nil
}

// Update replaces a review's mutable fields, settling whatever transition
// the combined status and rating change amounts to. The pre-mutation
// snapshot is taken first because the write overwrites the old values the
// delta must be computed against.
func (s *Service) Update(ctx context.Context, rv *domain.Review) error {
	snapshot, err := s.repo.GetByID(ctx, rv.ID)
	if err != nil {
		s.logger.Error("Failed to snapshot review before update", err)
		return err
	}

	// The owner reference is immutable; carry it over from the snapshot so
	// callers only supply the mutable fields.
	rv.ReviewType = snapshot.ReviewType
	rv.ProductID = snapshot.ProductID
	rv.BrandID = snapshot.BrandID
	rv.CreatedAt = snapshot.CreatedAt

	if err := s.validateReview(rv); err != nil {
		return err
	}

	if err := s.repo.Update(ctx, rv); err != nil {
		s.logger.Error("Failed to update review", err)
		return err
	}

	s.settle(ctx, snapshot, rv)
	s.invalidateOwnerCache(ctx, rv)
	s.publishEvent(ctx, "review.updated", rv)

	s.logger.WithFields(map[string]interface{}{
		"review_id":  rv.ID,
		"old_status": snapshot.Status,
		"new_status": rv.Status,
	}).Info("Review updated successfully")

	return nil
}

// UpdateStatus performs a status-only transition (the moderation endpoint)
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ReviewStatus) (*domain.Review, error) {
	if status != domain.ReviewStatusActive && status != domain.ReviewStatusInactive {
		return nil, domain.ErrInvalidInput
	}

	snapshot, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to snapshot review before status change", err)
		return nil, err
	}

	if snapshot.Status == status {
		return snapshot, nil
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		s.logger.Error("Failed to update review status", err)
		return nil, err
	}

	updated := *snapshot
	updated.Status = status

	s.settle(ctx, snapshot, &updated)
	s.invalidateOwnerCache(ctx, &updated)
	s.publishEvent(ctx, "review.status_changed", &updated)

	s.logger.WithFields(map[string]interface{}{
		"review_id":  id,
		"old_status": snapshot.Status,
		"new_status": status,
	}).Info("Review status changed")

	return &updated, nil
}

// Delete removes a review, reversing its aggregate contribution if it was
// ACTIVE
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	snapshot, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to snapshot review before deletion", err)
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete review", err)
		return err
	}

	s.settle(ctx, snapshot, nil)
	s.invalidateOwnerCache(ctx, snapshot)
	s.publishEvent(ctx, "review.deleted", snapshot)

	s.logger.WithFields(map[string]interface{}{
		"review_id": id,
		"status":    snapshot.Status,
	}).Info("Review deleted successfully")

	return nil
}

// settle dispatches the ledger effect for one transition. Ledger failures
// are logged, not returned: the review write already committed, and the
// recalculation job repairs any drift this leaves behind.
func (s *Service) settle(ctx context.Context, oldRv, newRv *domain.Review) {
	delta, ok := settlementDelta(oldRv, newRv)
	if !ok {
		return
	}

	ref := newRv
	if ref == nil {
		ref = oldRv
	}

	owner, err := ref.Owner()
	if err != nil {
		s.logger.Error("Review has no resolvable owner, skipping settlement", err)
		return
	}

	if err := s.ledger.Apply(ctx, owner, delta); err != nil {
		s.logger.Errorf(err, "Failed to settle review %s against %s", ref.ID, owner)
	}
}

// validateReview layers the owner-coherence rules on top of struct
// validation: the foreign key matching the review type must be set, and a
// brand review must not point at a product. Product reviews may carry a
// brand id for attribution.
func (s *Service) validateReview(rv *domain.Review) error {
	if err := s.validate.Struct(rv); err != nil {
		s.logger.Error("Review validation failed", err)
		return domain.ErrInvalidInput
	}

	switch rv.ReviewType {
	case domain.ReviewTypeProduct:
		if rv.ProductID == nil {
			s.logger.Warn("Product review missing product id")
			return domain.ErrInvalidInput
		}
	case domain.ReviewTypeBrand:
		if rv.BrandID == nil || rv.ProductID != nil {
			s.logger.Warn("Brand review must reference exactly one brand")
			return domain.ErrInvalidInput
		}
	}

	return nil
}

func (s *Service) invalidateOwnerCache(ctx context.Context, rv *domain.Review) {
	owner, err := rv.Owner()
	if err != nil {
		return
	}

	// Stale cache would show incorrect ratings and review lists
	if err := s.cache.InvalidateOwner(ctx, owner); err != nil {
		s.logger.Warnf("Failed to invalidate cache for %s: %v", owner, err)
	}
}

// publishEvent publishes a review event (non-blocking)
func (s *Service) publishEvent(ctx context.Context, eventType string, rv *domain.Review) {
	owner, err := rv.Owner()
	if err != nil {
		return
	}

	event := ReviewEvent{
		EventType: eventType,
		Timestamp: time.Now(),
		Owner:     owner,
		Review:    rv,
	}

	data, err := json.Marshal(event)
	if err != nil {
		s.logger.Errorf(err, "Failed to marshal event for review %s", rv.ID)
		return
	}

	// Publish in background to avoid blocking
	go func() {
		if err := s.publisher.Publish(context.Background(), "reviews.events", data); err != nil {
			s.logger.Errorf(err, "Failed to publish event for review %s", rv.ID)
		}
	}()
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
