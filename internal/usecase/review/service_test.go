package review

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/Pesokrava/review_platform/internal/domain"
	"github.com/Pesokrava/review_platform/internal/pkg/logger"
	"github.com/Pesokrava/review_platform/internal/usecase/stats"
)

// MockReviewRepository is a mock implementation of domain.ReviewRepository
type MockReviewRepository struct {
	mock.Mock
}

func (m *MockReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *MockReviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *MockReviewRepository) List(ctx context.Context, filter domain.ReviewFilter, limit, offset int, sortBy, order string) ([]*domain.Review, error) {
	args := m.Called(ctx, filter, limit, offset, sortBy, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Review), args.Error(1)
}

func (m *MockReviewRepository) Count(ctx context.Context, filter domain.ReviewFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

func (m *MockReviewRepository) ListAllByFilter(ctx context.Context, filter domain.ReviewFilter) ([]*domain.Review, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Review), args.Error(1)
}

func (m *MockReviewRepository) Update(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *MockReviewRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ReviewStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockReviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockReviewRepository) ListByProductIDs(ctx context.Context, productIDs []uuid.UUID) ([]*domain.Review, error) {
	args := m.Called(ctx, productIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Review), args.Error(1)
}

func (m *MockReviewRepository) DeleteByProductIDs(ctx context.Context, productIDs []uuid.UUID) (int64, error) {
	args := m.Called(ctx, productIDs)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReviewRepository) ListByBrandDirect(ctx context.Context, brandID uuid.UUID) ([]*domain.Review, error) {
	args := m.Called(ctx, brandID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Review), args.Error(1)
}

func (m *MockReviewRepository) DeleteByBrandDirect(ctx context.Context, brandID uuid.UUID) (int64, error) {
	args := m.Called(ctx, brandID)
	return args.Get(0).(int64), args.Error(1)
}

// MockStatsStore mocks the single aggregate store method the ledger needs;
// the remaining repository methods are never reached from this service.
type MockStatsStore struct {
	mock.Mock
}

func (m *MockStatsStore) ApplyStatsDelta(ctx context.Context, id uuid.UUID, delta domain.StatsDelta) error {
	args := m.Called(ctx, id, delta)
	return args.Error(0)
}

// MockProductStatsRepository embeds the stats store into a full
// domain.ProductRepository so it can back a real ledger in tests.
type MockProductStatsRepository struct {
	MockStatsStore
}

func (m *MockProductStatsRepository) Create(ctx context.Context, product *domain.Product) error {
	return nil
}

func (m *MockProductStatsRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return nil, domain.ErrNotFound
}

func (m *MockProductStatsRepository) List(ctx context.Context, limit, offset int) ([]*domain.Product, error) {
	return nil, nil
}

func (m *MockProductStatsRepository) Count(ctx context.Context) (int, error) {
	return 0, nil
}

func (m *MockProductStatsRepository) Update(ctx context.Context, product *domain.Product) error {
	return nil
}

func (m *MockProductStatsRepository) ListIDsByBrand(ctx context.Context, brandID uuid.UUID) ([]uuid.UUID, error) {
	return nil, nil
}

func (m *MockProductStatsRepository) ListActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	return nil, nil
}

func (m *MockProductStatsRepository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	return 0, nil
}

func (m *MockProductStatsRepository) ReplaceStats(ctx context.Context, id uuid.UUID, stats domain.RatingStats) error {
	return nil
}

// MockBrandStatsRepository is the brand-side counterpart
type MockBrandStatsRepository struct {
	MockStatsStore
}

func (m *MockBrandStatsRepository) Create(ctx context.Context, brand *domain.Brand) error {
	return nil
}

func (m *MockBrandStatsRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Brand, error) {
	return nil, domain.ErrNotFound
}

func (m *MockBrandStatsRepository) List(ctx context.Context, limit, offset int) ([]*domain.Brand, error) {
	return nil, nil
}

func (m *MockBrandStatsRepository) Count(ctx context.Context) (int, error) {
	return 0, nil
}

func (m *MockBrandStatsRepository) Update(ctx context.Context, brand *domain.Brand) error {
	return nil
}

func (m *MockBrandStatsRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (m *MockBrandStatsRepository) ListActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	return nil, nil
}

func (m *MockBrandStatsRepository) ReplaceStats(ctx context.Context, id uuid.UUID, stats domain.RatingStats) error {
	return nil
}

// MockReviewCache is a mock implementation of ReviewCache
type MockReviewCache struct {
	mock.Mock
}

func (m *MockReviewCache) GetReviewsList(ctx context.Context, owner domain.Owner, limit, offset int) ([]*domain.Review, error) {
	args := m.Called(ctx, owner, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Review), args.Error(1)
}

func (m *MockReviewCache) SetReviewsList(ctx context.Context, owner domain.Owner, limit, offset int, reviews []*domain.Review) error {
	args := m.Called(ctx, owner, limit, offset, reviews)
	return args.Error(0)
}

func (m *MockReviewCache) InvalidateOwner(ctx context.Context, owner domain.Owner) error {
	args := m.Called(ctx, owner)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	args := m.Called(ctx, subject, data)
	return args.Error(0)
}

type serviceFixture struct {
	service   *Service
	repo      *MockReviewRepository
	brands    *MockBrandStatsRepository
	products  *MockProductStatsRepository
	cache     *MockReviewCache
	publisher *MockEventPublisher
}

func newFixture() *serviceFixture {
	repo := new(MockReviewRepository)
	brands := new(MockBrandStatsRepository)
	products := new(MockProductStatsRepository)
	cache := new(MockReviewCache)
	publisher := new(MockEventPublisher)
	log := logger.New("test")
	ledger := stats.NewLedger(brands, products, log)

	publisher.On("Publish", mock.Anything, "reviews.events", mock.Anything).Return(nil).Maybe()

	return &serviceFixture{
		service:   NewService(repo, ledger, cache, publisher, log),
		repo:      repo,
		brands:    brands,
		products:  products,
		cache:     cache,
		publisher: publisher,
	}
}

func productReview(productID uuid.UUID, status domain.ReviewStatus) *domain.Review {
	return &domain.Review{
		ID:            uuid.New(),
		ReviewType:    domain.ReviewTypeProduct,
		ProductID:     &productID,
		Title:         "Solid purchase",
		Body:          "Arrived quickly and works as described.",
		ReviewerName:  "Jane Doe",
		ReviewerEmail: "jane@example.com",
		StoreRating:   4,
		SellerRating:  4,
		QualityRating: 4,
		PriceRating:   4,
		Status:        status,
	}
}

func TestService_Create_ActiveSettlesImmediately(t *testing.T) {
	f := newFixture()
	productID := uuid.New()
	rv := productReview(productID, domain.ReviewStatusActive)

	f.repo.On("Create", mock.Anything, rv).Return(nil)
	f.products.On("ApplyStatsDelta", mock.Anything, productID, mock.MatchedBy(func(d domain.StatsDelta) bool {
		return d.Reviews == 1 && d.Rating == 4.0 && d.Buckets == [5]int{0, 0, 0, 1, 0}
	})).Return(nil)
	f.cache.On("InvalidateOwner", mock.Anything, domain.ProductOwner(productID)).Return(nil)

	err := f.service.Create(context.Background(), rv)

	assert.NoError(t, err)
	f.repo.AssertExpectations(t)
	f.products.AssertExpectations(t)
	f.cache.AssertExpectations(t)
}

func TestService_Create_InactiveLeavesAggregatesAlone(t *testing.T) {
	f := newFixture()
	productID := uuid.New()
	rv := productReview(productID, domain.ReviewStatusInactive)

	f.repo.On("Create", mock.Anything, rv).Return(nil)
	f.cache.On("InvalidateOwner", mock.Anything, domain.ProductOwner(productID)).Return(nil)

	err := f.service.Create(context.Background(), rv)

	assert.NoError(t, err)
	f.products.AssertNotCalled(t, "ApplyStatsDelta")
}

func TestService_Create_BrandReviewWithProductID(t *testing.T) {
	f := newFixture()
	productID := uuid.New()
	brandID := uuid.New()
	rv := productReview(productID, domain.ReviewStatusActive)
	rv.ReviewType = domain.ReviewTypeBrand
	rv.BrandID = &brandID

	err := f.service.Create(context.Background(), rv)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	f.repo.AssertNotCalled(t, "Create")
}

func TestService_Create_LedgerFailureDoesNotFailWrite(t *testing.T) {
	f := newFixture()
	productID := uuid.New()
	rv := productReview(productID, domain.ReviewStatusActive)

	f.repo.On("Create", mock.Anything, rv).Return(nil)
	f.products.On("ApplyStatsDelta", mock.Anything, productID, mock.Anything).Return(assert.AnError)
	f.cache.On("InvalidateOwner", mock.Anything, domain.ProductOwner(productID)).Return(nil)

	// The review write already committed; the recalculation job repairs drift
	err := f.service.Create(context.Background(), rv)

	assert.NoError(t, err)
	f.repo.AssertExpectations(t)
}

func TestService_UpdateStatus_Activate(t *testing.T) {
	f := newFixture()
	productID := uuid.New()
	snapshot := productReview(productID, domain.ReviewStatusInactive)

	f.repo.On("GetByID", mock.Anything, snapshot.ID).Return(snapshot, nil)
	f.repo.On("UpdateStatus", mock.Anything, snapshot.ID, domain.ReviewStatusActive).Return(nil)
	f.products.On("ApplyStatsDelta", mock.Anything, productID, mock.MatchedBy(func(d domain.StatsDelta) bool {
		return d.Reviews == 1 && d.Rating == 4.0
	})).Return(nil)
	f.cache.On("InvalidateOwner", mock.Anything, domain.ProductOwner(productID)).Return(nil)

	updated, err := f.service.UpdateStatus(context.Background(), snapshot.ID, domain.ReviewStatusActive)

	assert.NoError(t, err)
	assert.Equal(t, domain.ReviewStatusActive, updated.Status)
	f.repo.AssertExpectations(t)
	f.products.AssertExpectations(t)
}

func TestService_UpdateStatus_SameStatusNoOp(t *testing.T) {
	f := newFixture()
	productID := uuid.New()
	snapshot := productReview(productID, domain.ReviewStatusActive)

	f.repo.On("GetByID", mock.Anything, snapshot.ID).Return(snapshot, nil)

	updated, err := f.service.UpdateStatus(context.Background(), snapshot.ID, domain.ReviewStatusActive)

	assert.NoError(t, err)
	assert.Equal(t, snapshot, updated)
	f.repo.AssertNotCalled(t, "UpdateStatus")
	f.products.AssertNotCalled(t, "ApplyStatsDelta")
}

func TestService_UpdateStatus_InvalidStatus(t *testing.T) {
	f := newFixture()

	_, err := f.service.UpdateStatus(context.Background(), uuid.New(), "DELETED")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	f.repo.AssertNotCalled(t, "GetByID")
}

func TestService_Update_CarriesOwnerFromSnapshot(t *testing.T) {
	f := newFixture()
	productID := uuid.New()
	snapshot := productReview(productID, domain.ReviewStatusActive)

	edited := productReview(productID, domain.ReviewStatusActive)
	edited.ID = snapshot.ID
	edited.ProductID = nil
	edited.ReviewType = ""
	edited.StoreRating = 5
	edited.SellerRating = 5
	edited.QualityRating = 5
	edited.PriceRating = 5

	f.repo.On("GetByID", mock.Anything, snapshot.ID).Return(snapshot, nil)
	f.repo.On("Update", mock.Anything, edited).Return(nil)
	f.products.On("ApplyStatsDelta", mock.Anything, productID, mock.MatchedBy(func(d domain.StatsDelta) bool {
		return d.Reviews == 0 && d.Rating == 1.0 && d.Buckets == [5]int{0, 0, 0, -1, 1}
	})).Return(nil)
	f.cache.On("InvalidateOwner", mock.Anything, domain.ProductOwner(productID)).Return(nil)

	err := f.service.Update(context.Background(), edited)

	assert.NoError(t, err)
	assert.Equal(t, domain.ReviewTypeProduct, edited.ReviewType)
	assert.Equal(t, &productID, edited.ProductID)
	f.products.AssertExpectations(t)
}

func TestService_Delete_ReversesActiveContribution(t *testing.T) {
	f := newFixture()
	productID := uuid.New()
	snapshot := productReview(productID, domain.ReviewStatusActive)

	f.repo.On("GetByID", mock.Anything, snapshot.ID).Return(snapshot, nil)
	f.repo.On("Delete", mock.Anything, snapshot.ID).Return(nil)
	f.products.On("ApplyStatsDelta", mock.Anything, productID, mock.MatchedBy(func(d domain.StatsDelta) bool {
		return d.Reviews == -1 && d.Rating == -4.0
	})).Return(nil)
	f.cache.On("InvalidateOwner", mock.Anything, domain.ProductOwner(productID)).Return(nil)

	err := f.service.Delete(context.Background(), snapshot.ID)

	assert.NoError(t, err)
	f.repo.AssertExpectations(t)
	f.products.AssertExpectations(t)
}

func TestService_Delete_InactiveNoSettlement(t *testing.T) {
	f := newFixture()
	productID := uuid.New()
	snapshot := productReview(productID, domain.ReviewStatusInactive)

	f.repo.On("GetByID", mock.Anything, snapshot.ID).Return(snapshot, nil)
	f.repo.On("Delete", mock.Anything, snapshot.ID).Return(nil)
	f.cache.On("InvalidateOwner", mock.Anything, domain.ProductOwner(productID)).Return(nil)

	err := f.service.Delete(context.Background(), snapshot.ID)

	assert.NoError(t, err)
	f.products.AssertNotCalled(t, "ApplyStatsDelta")
}

func TestService_ListByOwner_CacheHit(t *testing.T) {
	f := newFixture()
	productID := uuid.New()
	owner := domain.ProductOwner(productID)
	cached := []*domain.Review{productReview(productID, domain.ReviewStatusActive)}

	f.cache.On("GetReviewsList", mock.Anything, owner, 20, 0).Return(cached, nil)
	f.repo.On("Count", mock.Anything, domain.ActiveReviewsFor(owner)).Return(1, nil)

	reviews, total, err := f.service.ListByOwner(context.Background(), owner, 20, 0)

	assert.NoError(t, err)
	assert.Equal(t, cached, reviews)
	assert.Equal(t, 1, total)
	f.repo.AssertNotCalled(t, "List")
}

func TestService_ListByOwner_CacheMiss(t *testing.T) {
	f := newFixture()
	productID := uuid.New()
	owner := domain.ProductOwner(productID)
	stored := []*domain.Review{productReview(productID, domain.ReviewStatusActive)}
	filter := domain.ActiveReviewsFor(owner)

	f.cache.On("GetReviewsList", mock.Anything, owner, 20, 0).Return(nil, assert.AnError)
	f.repo.On("List", mock.Anything, filter, 20, 0, "created_at", "desc").Return(stored, nil)
	f.repo.On("Count", mock.Anything, filter).Return(1, nil)
	f.cache.On("SetReviewsList", mock.Anything, owner, 20, 0, stored).Return(nil)

	reviews, total, err := f.service.ListByOwner(context.Background(), owner, 20, 0)

	assert.NoError(t, err)
	assert.Equal(t, stored, reviews)
	assert.Equal(t, 1, total)
	f.cache.AssertExpectations(t)
	f.repo.AssertExpectations(t)
}
