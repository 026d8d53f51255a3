package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Pesokrava/review_platform/internal/domain"
)

const reviewColumns = `id, review_type, product_id, brand_id, title, body, reviewer_name, reviewer_email,
	store_rating, seller_rating, quality_rating, price_rating, issue_handling_rating, status, created_at, updated_at`

// sortColumns whitelists client-supplied sort keys
var sortColumns = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"status":     "status",
}

// ReviewRepository implements domain.ReviewRepository for PostgreSQL
type ReviewRepository struct {
	db *sqlx.DB
}

// NewReviewRepository creates a new PostgreSQL review repository
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create persists a new review after verifying its owner exists
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	// Return domain.ErrNotFound instead of a cryptic foreign key violation
	var checkQuery string
	var ownerID uuid.UUID
	switch review.ReviewType {
	case domain.ReviewTypeProduct:
		checkQuery = `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`
		ownerID = *review.ProductID
	case domain.ReviewTypeBrand:
		checkQuery = `SELECT EXISTS(SELECT 1 FROM brands WHERE id = $1)`
		ownerID = *review.BrandID
	default:
		return domain.ErrInvalidInput
	}

	var exists bool
	if err := r.db.GetContext(ctx, &exists, checkQuery, ownerID); err != nil {
		return err
	}
	if !exists {
		return domain.ErrNotFound
	}

	query := `
		INSERT INTO reviews (review_type, product_id, brand_id, title, body, reviewer_name, reviewer_email,
			store_rating, seller_rating, quality_rating, price_rating, issue_handling_rating, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowxContext(
		ctx,
		query,
		review.ReviewType,
		review.ProductID,
		review.BrandID,
		review.Title,
		review.Body,
		review.ReviewerName,
		review.ReviewerEmail,
		review.StoreRating,
		review.SellerRating,
		review.QualityRating,
		review.PriceRating,
		review.IssueHandlingRating,
		review.Status,
	).Scan(
		&review.ID,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	if err != nil {
		return err
	}

	return nil
}

// GetByID retrieves a review by ID
func (r *ReviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	query := fmt.Sprintf(`SELECT %s FROM reviews WHERE id = $1`, reviewColumns)

	var review domain.Review
	err := r.db.GetContext(ctx, &review, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	return &review, nil
}

// buildFilter renders a ReviewFilter as a WHERE clause with positional args
func buildFilter(filter domain.ReviewFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	add := func(column string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if filter.ReviewType != nil {
		add("review_type", *filter.ReviewType)
	}
	if filter.ProductID != nil {
		add("product_id", *filter.ProductID)
	}
	if filter.BrandID != nil {
		add("brand_id", *filter.BrandID)
	}
	if filter.Status != nil {
		add("status", *filter.Status)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// List retrieves reviews matching the filter with pagination and sorting
func (r *ReviewRepository) List(ctx context.Context, filter domain.ReviewFilter, limit, offset int, sortBy, order string) ([]*domain.Review, error) {
	where, args := buildFilter(filter)

	column, ok := sortColumns[sortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if strings.EqualFold(order, "asc") {
		direction = "ASC"
	}

	query := fmt.Sprintf(
		`SELECT %s FROM reviews%s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		reviewColumns, where, column, direction, len(args)+1, len(args)+2,
	)
	args = append(args, limit, offset)

	var reviews []*domain.Review
	if err := r.db.SelectContext(ctx, &reviews, query, args...); err != nil {
		return nil, err
	}

	return reviews, nil
}

// Count returns the number of reviews matching the filter
func (r *ReviewRepository) Count(ctx context.Context, filter domain.ReviewFilter) (int, error) {
	where, args := buildFilter(filter)
	query := `SELECT COUNT(*) FROM reviews` + where

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, err
	}

	return count, nil
}

// ListAllByFilter retrieves every review matching the filter, unpaginated.
// Used by the recalculation job, which needs the full ACTIVE set per owner.
func (r *ReviewRepository) ListAllByFilter(ctx context.Context, filter domain.ReviewFilter) ([]*domain.Review, error) {
	where, args := buildFilter(filter)
	query := fmt.Sprintf(`SELECT %s FROM reviews%s ORDER BY created_at`, reviewColumns, where)

	var reviews []*domain.Review
	if err := r.db.SelectContext(ctx, &reviews, query, args...); err != nil {
		return nil, err
	}

	return reviews, nil
}

// Update replaces the mutable fields of an existing review. The owner
// reference (review_type, product_id, brand_id) is immutable.
func (r *ReviewRepository) Update(ctx context.Context, review *domain.Review) error {
	query := `
		UPDATE reviews
		SET title = $1, body = $2, reviewer_name = $3, reviewer_email = $4,
			store_rating = $5, seller_rating = $6, quality_rating = $7, price_rating = $8,
			issue_handling_rating = $9, status = $10, updated_at = $11
		WHERE id = $12
		RETURNING updated_at
	`

	review.UpdatedAt = time.Now()

	err := r.db.QueryRowxContext(
		ctx,
		query,
		review.Title,
		review.Body,
		review.ReviewerName,
		review.ReviewerEmail,
		review.StoreRating,
		review.SellerRating,
		review.QualityRating,
		review.PriceRating,
		review.IssueHandlingRating,
		review.Status,
		review.UpdatedAt,
		review.ID,
	).Scan(&review.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}

	return nil
}

// UpdateStatus changes only the review's status
func (r *ReviewRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ReviewStatus) error {
	query := `
		UPDATE reviews
		SET status = $1, updated_at = $2
		WHERE id = $3
	`

	result, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
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

// Delete removes a review
func (r *ReviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM reviews WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
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

// ListByProductIDs retrieves all product-type reviews for the given products
// in one set-based query
func (r *ReviewRepository) ListByProductIDs(ctx context.Context, productIDs []uuid.UUID) ([]*domain.Review, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(
		`SELECT %s FROM reviews WHERE review_type = $1 AND product_id = ANY($2)`,
		reviewColumns,
	)

	var reviews []*domain.Review
	err := r.db.SelectContext(ctx, &reviews, query, domain.ReviewTypeProduct, pq.Array(productIDs))
	if err != nil {
		return nil, err
	}

	return reviews, nil
}

// DeleteByProductIDs removes all product-type reviews for the given products
func (r *ReviewRepository) DeleteByProductIDs(ctx context.Context, productIDs []uuid.UUID) (int64, error) {
	if len(productIDs) == 0 {
		return 0, nil
	}

	query := `DELETE FROM reviews WHERE review_type = $1 AND product_id = ANY($2)`

	result, err := r.db.ExecContext(ctx, query, domain.ReviewTypeProduct, pq.Array(productIDs))
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

// ListByBrandDirect retrieves all brand-type reviews referencing the brand
func (r *ReviewRepository) ListByBrandDirect(ctx context.Context, brandID uuid.UUID) ([]*domain.Review, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM reviews WHERE review_type = $1 AND brand_id = $2`,
		reviewColumns,
	)

	var reviews []*domain.Review
	err := r.db.SelectContext(ctx, &reviews, query, domain.ReviewTypeBrand, brandID)
	if err != nil {
		return nil, err
	}

	return reviews, nil
}

// DeleteByBrandDirect removes all brand-type reviews referencing the brand
func (r *ReviewRepository) DeleteByBrandDirect(ctx context.Context, brandID uuid.UUID) (int64, error) {
	query := `DELETE FROM reviews WHERE review_type = $1 AND brand_id = $2`

	result, err := r.db.ExecContext(ctx, query, domain.ReviewTypeBrand, brandID)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
