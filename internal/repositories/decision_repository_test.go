package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pdy7080/kpop-ranker-sub000/internal/cache"
	"github.com/pdy7080/kpop-ranker-sub000/internal/models"
	"github.com/pdy7080/kpop-ranker-sub000/internal/testutil"
)

func decisionAt(group string, kind models.DecisionKind, offset time.Duration) *models.Decision {
	d := models.NewDecision(kind)
	d.GroupID = group
	d.CreatedAt = testutil.FixedTime.Add(offset)
	return d
}

func TestMemoryDecisionRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryDecisionRepository(10)

	require.NoError(t, repo.Save(ctx, decisionAt("g1", models.DecisionMerge, 0)))
	require.NoError(t, repo.Save(ctx, decisionAt("g2", models.DecisionLegitimate, time.Minute)))
	require.NoError(t, repo.Save(ctx, decisionAt("g1", models.DecisionException, 2*time.Minute)))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	recent, err := repo.FindRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, models.DecisionException, recent[0].Kind)
	assert.Equal(t, "g2", recent[1].GroupID)

	byGroup, err := repo.FindByGroup(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, byGroup, 2)
	assert.Equal(t, models.DecisionException, byGroup[0].Kind)
	assert.False(t, byGroup[0].ID.IsZero())

	none, err := repo.FindByGroup(ctx, "missing")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestMemoryDecisionRepository_DropsOldest(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryDecisionRepository(2)

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Save(ctx, decisionAt("g", models.DecisionMerge, time.Duration(i)*time.Minute)))
	}

	all, err := repo.FindRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, testutil.FixedTime.Add(2*time.Minute), all[0].CreatedAt)
	assert.Equal(t, testutil.FixedTime.Add(time.Minute), all[1].CreatedAt)
}

func TestMemoryDecisionRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryDecisionRepository(0)

	d := decisionAt("g", models.DecisionMerge, 0)
	d.SelectedIDs = []string{"1", "2"}
	require.NoError(t, repo.Save(ctx, d))
	d.SelectedIDs[0] = "mutated"

	got, err := repo.FindByGroup(ctx, "g")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, got[0].SelectedIDs)
}

func TestCachedDecisionRepository_FindByGroup(t *testing.T) {
	ctx := context.Background()
	base := &testutil.MockDecisionRepository{}
	history := []*models.Decision{decisionAt("g1", models.DecisionMerge, 0)}
	base.On("FindByGroup", mock.Anything, "g1").Return(history, nil).Once()

	repo := NewCachedDecisionRepository(base, cache.NewMemoryCache(16))

	first, err := repo.FindByGroup(ctx, "g1")
	require.NoError(t, err)
	second, err := repo.FindByGroup(ctx, "g1")
	require.NoError(t, err)

	require.Len(t, second, 1)
	assert.Equal(t, first[0].Kind, second[0].Kind)
	base.AssertNumberOfCalls(t, "FindByGroup", 1)
}

func TestCachedDecisionRepository_SaveInvalidates(t *testing.T) {
	ctx := context.Background()
	base := &testutil.MockDecisionRepository{}
	base.On("FindByGroup", mock.Anything, "g1").Return([]*models.Decision{}, nil).Once()
	base.On("Save", mock.Anything, mock.Anything).Return(nil).Once()
	base.On("FindByGroup", mock.Anything, "g1").Return([]*models.Decision{decisionAt("g1", models.DecisionMerge, 0)}, nil).Once()

	repo := NewCachedDecisionRepository(base, cache.NewMemoryCache(16))

	before, err := repo.FindByGroup(ctx, "g1")
	require.NoError(t, err)
	assert.Empty(t, before)

	require.NoError(t, repo.Save(ctx, decisionAt("g1", models.DecisionMerge, 0)))

	after, err := repo.FindByGroup(ctx, "g1")
	require.NoError(t, err)
	assert.Len(t, after, 1)
	base.AssertExpectations(t)
}

func TestCachedDecisionRepository_SaveErrorSkipsInvalidation(t *testing.T) {
	base := &testutil.MockDecisionRepository{}
	base.On("Save", mock.Anything, mock.Anything).Return(errors.New("write failed"))

	repo := NewCachedDecisionRepository(base, cache.NewMemoryCache(16))
	err := repo.Save(context.Background(), decisionAt("g1", models.DecisionMerge, 0))
	assert.EqualError(t, err, "write failed")
}
