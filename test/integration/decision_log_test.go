//go:build integration

// Package integration runs against real MongoDB and Valkey instances.
// Set MONGODB_URL and VALKEY_URL; tests skip when they are unset.
package integration

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdy7080/kpop-ranker-sub000/internal/cache"
	"github.com/pdy7080/kpop-ranker-sub000/internal/models"
	"github.com/pdy7080/kpop-ranker-sub000/internal/repositories"
)

func requireEnv(t *testing.T, key string) string {
	t.Helper()
	v := os.Getenv(key)
	if v == "" {
		t.Skipf("%s not set", key)
	}
	return v
}

func newDatabase(t *testing.T, ctx context.Context) *models.Database {
	t.Helper()
	url := requireEnv(t, "MONGODB_URL")

	dbName := fmt.Sprintf("kpopranker_it_%d", time.Now().UnixNano())
	db, err := models.NewDatabase(ctx, url, dbName)
	require.NoError(t, err)
	require.NoError(t, db.CreateIndexes(ctx))

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.DB.Drop(ctx)
		_ = db.Close(ctx)
	})
	return db
}

func TestMongoDecisionRepository(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo := repositories.NewMongoDecisionRepository(newDatabase(t, ctx))

	base := time.Now().Add(-time.Hour)
	for i, group := range []string{"g1", "g2", "g1"} {
		d := models.NewDecision(models.DecisionMerge)
		d.GroupID = group
		d.Success = true
		d.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Save(ctx, d))
		assert.False(t, d.ID.IsZero())

		// append-only
		assert.Error(t, repo.Save(ctx, d))
	}

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	recent, err := repo.FindRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "g1", recent[0].GroupID)
	assert.Equal(t, "g2", recent[1].GroupID)
	assert.Equal(t, models.CurrentSchemaVersion, recent[0].SchemaVersion)

	history, err := repo.FindByGroup(ctx, "g1")
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestValkeyCache(t *testing.T) {
	url := requireEnv(t, "VALKEY_URL")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c, err := cache.NewValkeyCache(url, "kpopranker_it:"+uuid.NewString()+":")
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Health(ctx))
	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, c.Delete(ctx, "k"))
	got, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCachedDecisionRepository_OverValkey(t *testing.T) {
	url := requireEnv(t, "VALKEY_URL")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c, err := cache.NewValkeyCache(url, "kpopranker_it:"+uuid.NewString()+":")
	require.NoError(t, err)
	defer c.Close()

	repo := repositories.NewCachedDecisionRepository(repositories.NewMemoryDecisionRepository(0), c)

	first := models.NewDecision(models.DecisionException)
	first.GroupID = "g1"
	require.NoError(t, repo.Save(ctx, first))

	history, err := repo.FindByGroup(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, history, 1)

	second := models.NewDecision(models.DecisionLegitimate)
	second.GroupID = "g1"
	require.NoError(t, repo.Save(ctx, second))

	history, err = repo.FindByGroup(ctx, "g1")
	require.NoError(t, err)
	assert.Len(t, history, 2)
}
