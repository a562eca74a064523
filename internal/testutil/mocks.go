package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/pdy7080/kpop-ranker-sub000/internal/backend"
	"github.com/pdy7080/kpop-ranker-sub000/internal/models"
)

// MockBackend is a mock of the chart backend client. It satisfies the
// backend interfaces of the suggest, route, dedup and trending packages.
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Autocomplete(ctx context.Context, q string, limit int) ([]models.Suggestion, error) {
	args := m.Called(ctx, q, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Suggestion), args.Error(1)
}

func (m *MockBackend) Search(ctx context.Context, q string) (*models.SearchResponse, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SearchResponse), args.Error(1)
}

func (m *MockBackend) Trending(ctx context.Context, limit int) ([]models.TrendingTrack, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TrendingTrack), args.Error(1)
}

func (m *MockBackend) PotentialDuplicates(ctx context.Context) ([]models.DuplicateGroup, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.DuplicateGroup), args.Error(1)
}

func (m *MockBackend) ReviewQueue(ctx context.Context) ([]models.AIReviewEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AIReviewEntry), args.Error(1)
}

func (m *MockBackend) Mappings(ctx context.Context) ([]models.Mapping, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Mapping), args.Error(1)
}

func (m *MockBackend) ExecuteMerge(ctx context.Context, req backend.MergeRequest) (*models.MergeResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MergeResult), args.Error(1)
}

func (m *MockBackend) ApproveSuggestion(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBackend) RejectSuggestion(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockSuggester is a mock of the autocomplete resolver as seen by the route resolver
type MockSuggester struct {
	mock.Mock
}

func (m *MockSuggester) Suggest(ctx context.Context, query string, limit int) ([]models.Suggestion, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Suggestion), args.Error(1)
}

// MockDecisionRepository is a mock implementation of DecisionRepository for testing
type MockDecisionRepository struct {
	mock.Mock
}

func (m *MockDecisionRepository) Save(ctx context.Context, d *models.Decision) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDecisionRepository) FindRecent(ctx context.Context, limit int) ([]*models.Decision, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Decision), args.Error(1)
}

func (m *MockDecisionRepository) FindByGroup(ctx context.Context, groupID string) ([]*models.Decision, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Decision), args.Error(1)
}

func (m *MockDecisionRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
