package repositories

import (
	"context"
	"log/slog"
	"time"

	"github.com/pdy7080/kpop-ranker-sub000/internal/cache"
	"github.com/pdy7080/kpop-ranker-sub000/internal/models"
)

// cachedDecisionRepository wraps a DecisionRepository with a per-group cache
type cachedDecisionRepository struct {
	repository DecisionRepository
	cache      cache.Cache
}

// NewCachedDecisionRepository creates a decision log whose per-group
// history is served from cache until the next decision for that group.
func NewCachedDecisionRepository(repository DecisionRepository, c cache.Cache) DecisionRepository {
	return &cachedDecisionRepository{
		repository: repository,
		cache:      c,
	}
}

func decisionGroupKey(groupID string) string { return "decision:group:" + groupID }

const decisionCacheTTL = 10 * time.Minute

// Save writes through and invalidates the group's cached history
func (r *cachedDecisionRepository) Save(ctx context.Context, d *models.Decision) error {
	if err := r.repository.Save(ctx, d); err != nil {
		return err
	}
	if d.GroupID != "" {
		if err := r.cache.Delete(ctx, decisionGroupKey(d.GroupID)); err != nil {
			slog.Error("Failed to invalidate decision cache", "group_id", d.GroupID, "error", err)
		}
	}
	return nil
}

// FindRecent is not cached; the admin view polls it after every action
func (r *cachedDecisionRepository) FindRecent(ctx context.Context, limit int) ([]*models.Decision, error) {
	return r.repository.FindRecent(ctx, limit)
}

// FindByGroup checks cache first, then repository
func (r *cachedDecisionRepository) FindByGroup(ctx context.Context, groupID string) ([]*models.Decision, error) {
	key := decisionGroupKey(groupID)

	var cached []*models.Decision
	ok, err := cache.GetJSON(ctx, r.cache, key, &cached)
	if err != nil {
		slog.Error("Failed to read decisions from cache", "key", key, "error", err)
	}
	if ok {
		return cached, nil
	}

	decisions, err := r.repository.FindByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := cache.SetJSON(ctx, r.cache, key, decisions, decisionCacheTTL); err != nil {
		slog.Error("Failed to cache decisions", "key", key, "error", err)
	}
	return decisions, nil
}

func (r *cachedDecisionRepository) Count(ctx context.Context) (int64, error) {
	return r.repository.Count(ctx)
}
