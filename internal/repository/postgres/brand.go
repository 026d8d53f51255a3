package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Pesokrava/review_platform/internal/domain"
)

const brandColumns = `id, name, email, logo_url, website_url, phone_number, description, postcode, status,
	total_reviews, total_rating, dist_1, dist_2, dist_3, dist_4, dist_5, created_at, updated_at`

// BrandRepository implements domain.BrandRepository for PostgreSQL
type BrandRepository struct {
	db *sqlx.DB
}

// NewBrandRepository creates a new PostgreSQL brand repository
func NewBrandRepository(db *sqlx.DB) *BrandRepository {
	return &BrandRepository{db: db}
}

// Create persists a new brand
func (r *BrandRepository) Create(ctx context.Context, brand *domain.Brand) error {
	query := `
		INSERT INTO brands (name, email, logo_url, website_url, phone_number, description, postcode, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowxContext(
		ctx,
		query,
		brand.Name,
		brand.Email,
		brand.LogoURL,
		brand.WebsiteURL,
		brand.PhoneNumber,
		brand.Description,
		brand.Postcode,
		brand.Status,
	).Scan(
		&brand.ID,
		&brand.CreatedAt,
		&brand.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return domain.ErrAlreadyExists
		}
		return err
	}

	brand.Finalize()
	return nil
}

// GetByID retrieves a brand by ID
func (r *BrandRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Brand, error) {
	query := fmt.Sprintf(`SELECT %s FROM brands WHERE id = $1`, brandColumns)

	var brand domain.Brand
	err := r.db.GetContext(ctx, &brand, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	brand.Finalize()
	return &brand, nil
}

// List retrieves a paginated list of brands
func (r *BrandRepository) List(ctx context.Context, limit, offset int) ([]*domain.Brand, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM brands ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		brandColumns,
	)

	var brands []*domain.Brand
	if err := r.db.SelectContext(ctx, &brands, query, limit, offset); err != nil {
		return nil, err
	}

	for _, b := range brands {
		b.Finalize()
	}
	return brands, nil
}

// Count returns the total number of brands
func (r *BrandRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM brands`); err != nil {
		return 0, err
	}
	return count, nil
}

// Update updates an existing brand's descriptive fields. Aggregate fields
// are only touched through ApplyStatsDelta and ReplaceStats.
func (r *BrandRepository) Update(ctx context.Context, brand *domain.Brand) error {
	query := `
		UPDATE brands
		SET name = $1, email = $2, logo_url = $3, website_url = $4, phone_number = $5,
			description = $6, postcode = $7, status = $8, updated_at = $9
		WHERE id = $10
		RETURNING updated_at
	`

	brand.UpdatedAt = time.Now()

	err := r.db.QueryRowxContext(
		ctx,
		query,
		brand.Name,
		brand.Email,
		brand.LogoURL,
		brand.WebsiteURL,
		brand.PhoneNumber,
		brand.Description,
		brand.Postcode,
		brand.Status,
		brand.UpdatedAt,
		brand.ID,
	).Scan(&brand.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}

	return nil
}

// Delete removes a brand
func (r *BrandRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM brands WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// ListActiveIDs returns the ids of every ACTIVE brand
func (r *BrandRepository) ListActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	query := `SELECT id FROM brands WHERE status = $1 ORDER BY created_at`

	if err := r.db.SelectContext(ctx, &ids, query, domain.BrandStatusActive); err != nil {
		return nil, err
	}

	return ids, nil
}

// ApplyStatsDelta atomically increments the brand's aggregate fields. All
// deltas ride in a single UPDATE so the count, total, and distribution can
// never be partially applied.
func (r *BrandRepository) ApplyStatsDelta(ctx context.Context, id uuid.UUID, delta domain.StatsDelta) error {
	query := `
		UPDATE brands
		SET total_reviews = total_reviews + $1,
			total_rating = total_rating + $2,
			dist_1 = dist_1 + $3,
			dist_2 = dist_2 + $4,
			dist_3 = dist_3 + $5,
			dist_4 = dist_4 + $6,
			dist_5 = dist_5 + $7,
			updated_at = $8
		WHERE id = $9
	`

	result, err := r.db.ExecContext(ctx, query,
		delta.Reviews, delta.Rating,
		delta.Buckets[0], delta.Buckets[1], delta.Buckets[2], delta.Buckets[3], delta.Buckets[4],
		time.Now(), id,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// ReplaceStats overwrites the brand's aggregate fields wholesale
func (r *BrandRepository) ReplaceStats(ctx context.Context, id uuid.UUID, stats domain.RatingStats) error {
	query := `
		UPDATE brands
		SET total_reviews = $1,
			total_rating = $2,
			dist_1 = $3,
			dist_2 = $4,
			dist_3 = $5,
			dist_4 = $6,
			dist_5 = $7,
			updated_at = $8
		WHERE id = $9
	`

	result, err := r.db.ExecContext(ctx, query,
		stats.TotalReviews, stats.TotalRating,
		stats.Dist1, stats.Dist2, stats.Dist3, stats.Dist4, stats.Dist5,
		time.Now(), id,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return domain.ErrNotFound
	}

	return nil
}
