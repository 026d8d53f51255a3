package postgres

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/review_platform/internal/domain"
)

func newBrandRepo(t *testing.T) (*BrandRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	return NewBrandRepository(sqlxDB), mock, func() { _ = db.Close() }
}

func TestBrandRepository_Create_DuplicateEmail(t *testing.T) {
	repo, mock, closeFn := newBrandRepo(t)
	defer closeFn()

	brand := &domain.Brand{
		Name:   "Acme",
		Email:  "hello@acme.example",
		Status: domain.BrandStatusActive,
	}

	mock.ExpectQuery("INSERT INTO brands").
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), brand)

	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestBrandRepository_GetByID_NotFound(t *testing.T) {
	repo, mock, closeFn := newBrandRepo(t)
	defer closeFn()

	id := uuid.New()
	mock.ExpectQuery("SELECT (.+) FROM brands WHERE id").
		WithArgs(id).
		WillReturnError(sql.ErrNoRows)

	brand, err := repo.GetByID(context.Background(), id)

	assert.Nil(t, brand)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBrandRepository_ApplyStatsDelta_Success(t *testing.T) {
	repo, mock, closeFn := newBrandRepo(t)
	defer closeFn()

	id := uuid.New()
	delta := domain.StatsDelta{Reviews: -1, Rating: -3.5, Buckets: [5]int{0, 0, 0, -1, 0}}

	mock.ExpectExec("UPDATE brands").
		WithArgs(-1, -3.5, 0, 0, 0, -1, 0, sqlmock.AnyArg(), id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.ApplyStatsDelta(context.Background(), id, delta)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBrandRepository_ApplyStatsDelta_BrandGone(t *testing.T) {
	repo, mock, closeFn := newBrandRepo(t)
	defer closeFn()

	mock.ExpectExec("UPDATE brands").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.ApplyStatsDelta(context.Background(), uuid.New(), domain.StatsDelta{Reviews: 1})

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBrandRepository_ReplaceStats_BrandGone(t *testing.T) {
	repo, mock, closeFn := newBrandRepo(t)
	defer closeFn()

	mock.ExpectExec("UPDATE brands").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.ReplaceStats(context.Background(), uuid.New(), domain.RatingStats{TotalReviews: 1})

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBrandRepository_ListActiveIDs(t *testing.T) {
	repo, mock, closeFn := newBrandRepo(t)
	defer closeFn()

	id1, id2 := uuid.New(), uuid.New()
	mock.ExpectQuery("SELECT id FROM brands WHERE status").
		WithArgs(domain.BrandStatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id1).AddRow(id2))

	ids, err := repo.ListActiveIDs(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, []uuid.UUID{id1, id2}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}
