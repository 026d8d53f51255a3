package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BrandStatus marks whether a brand participates in listings and
// recalculation sweeps
type BrandStatus string

const (
	BrandStatusActive   BrandStatus = "ACTIVE"
	BrandStatusInactive BrandStatus = "INACTIVE"
)

// Brand represents a seller whose products and service are reviewed
type Brand struct {
	ID          uuid.UUID   `json:"id" db:"id"`
	Name        string      `json:"name" db:"name" validate:"required,min=1,max=255"`
	Email       string      `json:"email" db:"email" validate:"required,email"`
	LogoURL     *string     `json:"logo_url,omitempty" db:"logo_url"`
	WebsiteURL  *string     `json:"website_url,omitempty" db:"website_url"`
	PhoneNumber string      `json:"phone_number" db:"phone_number" validate:"required,min=1,max=30"`
	Description *string     `json:"description,omitempty" db:"description"`
	Postcode    string      `json:"postcode" db:"postcode" validate:"required,min=1,max=20"`
	Status      BrandStatus `json:"status" db:"status" validate:"required,oneof=ACTIVE INACTIVE"`
	RatingStats
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// BrandRepository defines the interface for brand data access
type BrandRepository interface {
	// Create persists a new brand
	Create(ctx context.Context, brand *Brand) error

	// GetByID retrieves a brand by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Brand, error)

	// List retrieves a paginated list of brands
	List(ctx context.Context, limit, offset int) ([]*Brand, error)

	// Count returns the total number of brands
	Count(ctx context.Context) (int, error)

	// Update updates an existing brand's descriptive fields
	Update(ctx context.Context, brand *Brand) error

	// Delete removes a brand. Dependent products and reviews must already be
	// gone; the cascade coordinator enforces the ordering.
	Delete(ctx context.Context, id uuid.UUID) error

	// ListActiveIDs returns the ids of every ACTIVE brand
	ListActiveIDs(ctx context.Context) ([]uuid.UUID, error)

	// ApplyStatsDelta atomically increments the brand's aggregate fields.
	// Returns ErrNotFound when the brand no longer exists.
	ApplyStatsDelta(ctx context.Context, id uuid.UUID, delta StatsDelta) error

	// ReplaceStats overwrites the brand's aggregate fields wholesale.
	// Returns ErrNotFound when the brand no longer exists.
	ReplaceStats(ctx context.Context, id uuid.UUID, stats RatingStats) error
}
