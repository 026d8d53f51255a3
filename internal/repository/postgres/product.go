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

const productColumns = `id, name, handle, brand_id, image, price, stock_quantity, status,
	total_reviews, total_rating, dist_1, dist_2, dist_3, dist_4, dist_5, created_at, updated_at`

// ProductRepository implements domain.ProductRepository for PostgreSQL
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates a new PostgreSQL product repository
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create persists a new product
func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (name, handle, brand_id, image, price, stock_quantity, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowxContext(
		ctx,
		query,
		product.Name,
		product.Handle,
		product.BrandID,
		product.Image,
		product.Price,
		product.StockQuantity,
		product.Status,
	).Scan(
		&product.ID,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code.Name() {
			case "unique_violation":
				return domain.ErrAlreadyExists
			case "foreign_key_violation":
				return domain.ErrNotFound
			}
		}
		return err
	}

	product.Finalize()
	return nil
}

// GetByID retrieves a product by ID
func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1`, productColumns)

	var product domain.Product
	err := r.db.GetContext(ctx, &product, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	product.Finalize()
	return &product, nil
}

// List retrieves a paginated list of products
func (r *ProductRepository) List(ctx context.Context, limit, offset int) ([]*domain.Product, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM products ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		productColumns,
	)

	var products []*domain.Product
	if err := r.db.SelectContext(ctx, &products, query, limit, offset); err != nil {
		return nil, err
	}

	for _, p := range products {
		p.Finalize()
	}
	return products, nil
}

// Count returns the total number of products
func (r *ProductRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM products`); err != nil {
		return 0, err
	}
	return count, nil
}

// Update updates an existing product's descriptive fields. Aggregate fields
// are only touched through ApplyStatsDelta and ReplaceStats.
func (r *ProductRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET name = $1, handle = $2, image = $3, price = $4, stock_quantity = $5, status = $6, updated_at = $7
		WHERE id = $8
		RETURNING updated_at
	`

	product.UpdatedAt = time.Now()

	err := r.db.QueryRowxContext(
		ctx,
		query,
		product.Name,
		product.Handle,
		product.Image,
		product.Price,
		product.StockQuantity,
		product.Status,
		product.UpdatedAt,
		product.ID,
	).Scan(&product.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}

	return nil
}

// ListIDsByBrand returns the ids of every product owned by the brand
func (r *ProductRepository) ListIDsByBrand(ctx context.Context, brandID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	query := `SELECT id FROM products WHERE brand_id = $1`

	if err := r.db.SelectContext(ctx, &ids, query, brandID); err != nil {
		return nil, err
	}

	return ids, nil
}

// ListActiveIDs returns the ids of every ACTIVE product
func (r *ProductRepository) ListActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	query := `SELECT id FROM products WHERE status = $1 ORDER BY created_at`

	if err := r.db.SelectContext(ctx, &ids, query, domain.ProductStatusActive); err != nil {
		return nil, err
	}

	return ids, nil
}

// DeleteByIDs removes the given products
func (r *ProductRepository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

// ApplyStatsDelta atomically increments the product's aggregate fields. All
// deltas ride in a single UPDATE so the count, total, and distribution can
// never be partially applied.
func (r *ProductRepository) ApplyStatsDelta(ctx context.Context, id uuid.UUID, delta domain.StatsDelta) error {
	query := `
		UPDATE products
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

// ReplaceStats overwrites the product's aggregate fields wholesale
func (r *ProductRepository) ReplaceStats(ctx context.Context, id uuid.UUID, stats domain.RatingStats) error {
	query := `
		UPDATE products
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
