package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ProductStatus marks whether a product participates in listings and
// recalculation sweeps
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "ACTIVE"
	ProductStatusInactive ProductStatus = "INACTIVE"
)

// Product represents a reviewable product owned by a brand
type Product struct {
	ID            uuid.UUID     `json:"id" db:"id"`
	Name          string        `json:"name" db:"name" validate:"required,min=1,max=255"`
	Handle        string        `json:"handle" db:"handle" validate:"required,min=1,max=255"`
	BrandID       uuid.UUID     `json:"brand_id" db:"brand_id" validate:"required"`
	Image         *string       `json:"image,omitempty" db:"image"`
	Price         float64       `json:"price" db:"price" validate:"required,gte=0"`
	StockQuantity int           `json:"stock_quantity" db:"stock_quantity" validate:"gte=0"`
	Status        ProductStatus `json:"status" db:"status" validate:"required,oneof=ACTIVE INACTIVE"`
	RatingStats
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	// Create persists a new product
	Create(ctx context.Context, product *Product) error

	// GetByID retrieves a product by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// List retrieves a paginated list of products
	List(ctx context.Context, limit, offset int) ([]*Product, error)

	// Count returns the total number of products
	Count(ctx context.Context) (int, error)

	// Update updates an existing product's descriptive fields
	Update(ctx context.Context, product *Product) error

	// ListIDsByBrand returns the ids of every product owned by the brand
	ListIDsByBrand(ctx context.Context, brandID uuid.UUID) ([]uuid.UUID, error)

	// ListActiveIDs returns the ids of every ACTIVE product
	ListActiveIDs(ctx context.Context) ([]uuid.UUID, error)

	// DeleteByIDs removes the given products, returning the number removed.
	// Dependent reviews must already be gone; the cascade coordinator
	// enforces the ordering.
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error)

	// ApplyStatsDelta atomically increments the product's aggregate fields.
	// Returns ErrNotFound when the product no longer exists.
	ApplyStatsDelta(ctx context.Context, id uuid.UUID, delta StatsDelta) error

	// ReplaceStats overwrites the product's aggregate fields wholesale.
	// Returns ErrNotFound when the product no longer exists.
	ReplaceStats(ctx context.Context, id uuid.UUID, stats RatingStats) error
}
