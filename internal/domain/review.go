package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ReviewType selects which foreign key on a review is authoritative
type ReviewType string

const (
	ReviewTypeProduct ReviewType = "PRODUCT"
	ReviewTypeBrand   ReviewType = "BRAND"
)

// ReviewStatus is the moderation state of a review. Only ACTIVE reviews
// contribute to aggregate statistics; deletion is modeled as row absence.
type ReviewStatus string

const (
	ReviewStatusInactive ReviewStatus = "INACTIVE"
	ReviewStatusActive   ReviewStatus = "ACTIVE"
)

// Review represents one submitted opinion attached to exactly one target,
// a product or a brand depending on ReviewType. Product reviews also carry
// the brand id for attribution but never settle against the brand.
type Review struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	ReviewType    ReviewType `json:"review_type" db:"review_type" validate:"required,oneof=PRODUCT BRAND"`
	ProductID     *uuid.UUID `json:"product_id,omitempty" db:"product_id"`
	BrandID       *uuid.UUID `json:"brand_id,omitempty" db:"brand_id"`
	Title         string     `json:"title" db:"title" validate:"required,min=1,max=255"`
	Body          string     `json:"body" db:"body" validate:"required,min=1,max=5000"`
	ReviewerName  string     `json:"reviewer_name" db:"reviewer_name" validate:"required,min=1,max=100"`
	ReviewerEmail string     `json:"reviewer_email" db:"reviewer_email" validate:"required,email"`
	StoreRating   float64    `json:"store_rating" db:"store_rating" validate:"gte=0,lte=5"`
	SellerRating  float64    `json:"seller_rating" db:"seller_rating" validate:"gte=0,lte=5"`
	QualityRating float64    `json:"quality_rating" db:"quality_rating" validate:"gte=0,lte=5"`
	PriceRating   float64    `json:"price_rating" db:"price_rating" validate:"gte=0,lte=5"`
	// Optional; absent means "not rated", excluded from the average
	IssueHandlingRating *float64     `json:"issue_handling_rating,omitempty" db:"issue_handling_rating" validate:"omitempty,gte=0,lte=5"`
	Status              ReviewStatus `json:"status" db:"status" validate:"required,oneof=INACTIVE ACTIVE"`
	CreatedAt           time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time    `json:"updated_at" db:"updated_at"`
}

// IsActive reports whether the review is counted in aggregates
func (r *Review) IsActive() bool {
	return r.Status == ReviewStatusActive
}

// Owner resolves the aggregate owner the review settles against
func (r *Review) Owner() (Owner, error) {
	switch r.ReviewType {
	case ReviewTypeProduct:
		if r.ProductID == nil {
			return Owner{}, fmt.Errorf("product review %s has no product id: %w", r.ID, ErrInvalidInput)
		}
		return ProductOwner(*r.ProductID), nil
	case ReviewTypeBrand:
		if r.BrandID == nil {
			return Owner{}, fmt.Errorf("brand review %s has no brand id: %w", r.ID, ErrInvalidInput)
		}
		return BrandOwner(*r.BrandID), nil
	default:
		return Owner{}, fmt.Errorf("unknown review type %q: %w", r.ReviewType, ErrInvalidInput)
	}
}

func (r *Review) issueHandlingOrZero() float64 {
	if r.IssueHandlingRating == nil {
		return 0
	}
	return *r.IssueHandlingRating
}

// ReviewFilter narrows review listings; nil fields match everything
type ReviewFilter struct {
	ReviewType *ReviewType
	ProductID  *uuid.UUID
	BrandID    *uuid.UUID
	Status     *ReviewStatus
}

// ActiveReviewsFor returns a filter matching the ACTIVE reviews that settle
// against the given owner.
func ActiveReviewsFor(owner Owner) ReviewFilter {
	status := ReviewStatusActive
	id := owner.ID
	f := ReviewFilter{Status: &status}
	switch owner.Type {
	case OwnerTypeProduct:
		rt := ReviewTypeProduct
		f.ReviewType = &rt
		f.ProductID = &id
	case OwnerTypeBrand:
		rt := ReviewTypeBrand
		f.ReviewType = &rt
		f.BrandID = &id
	}
	return f
}

// ReviewRepository defines the interface for review data access
type ReviewRepository interface {
	// Create persists a new review
	Create(ctx context.Context, review *Review) error

	// GetByID retrieves a review by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Review, error)

	// List retrieves reviews matching the filter with pagination and sorting
	List(ctx context.Context, filter ReviewFilter, limit, offset int, sortBy, order string) ([]*Review, error)

	// Count returns the number of reviews matching the filter
	Count(ctx context.Context, filter ReviewFilter) (int, error)

	// ListAllByFilter retrieves every review matching the filter, unpaginated
	ListAllByFilter(ctx context.Context, filter ReviewFilter) ([]*Review, error)

	// Update replaces the mutable fields of an existing review
	Update(ctx context.Context, review *Review) error

	// UpdateStatus changes only the review's status
	UpdateStatus(ctx context.Context, id uuid.UUID, status ReviewStatus) error

	// Delete removes a review
	Delete(ctx context.Context, id uuid.UUID) error

	// ListByProductIDs retrieves all product-type reviews for the given
	// products in one set-based query (cascade support)
	ListByProductIDs(ctx context.Context, productIDs []uuid.UUID) ([]*Review, error)

	// DeleteByProductIDs removes all product-type reviews for the given
	// products, returning the number removed
	DeleteByProductIDs(ctx context.Context, productIDs []uuid.UUID) (int64, error)

	// ListByBrandDirect retrieves all brand-type reviews referencing the brand
	ListByBrandDirect(ctx context.Context, brandID uuid.UUID) ([]*Review, error)

	// DeleteByBrandDirect removes all brand-type reviews referencing the
	// brand, returning the number removed
	DeleteByBrandDirect(ctx context.Context, brandID uuid.UUID) (int64, error)
}
