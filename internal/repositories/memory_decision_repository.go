package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/pdy7080/kpop-ranker-sub000/internal/models"
)

// memoryDecisionRepository keeps the decision log in process. It is used
// when no MongoDB is configured; the log is lost on restart.
type memoryDecisionRepository struct {
	mu        sync.RWMutex
	decisions []*models.Decision
	maxItems  int
}

// NewMemoryDecisionRepository creates an in-process decision log holding
// at most maxItems entries; the oldest are dropped first.
func NewMemoryDecisionRepository(maxItems int) DecisionRepository {
	if maxItems <= 0 {
		maxItems = 1000
	}
	return &memoryDecisionRepository{maxItems: maxItems}
}

func (r *memoryDecisionRepository) Save(ctx context.Context, d *models.Decision) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if d.ID.IsZero() {
		d.ID = primitive.NewObjectID()
	}
	d.SchemaVersion = models.CurrentSchemaVersion
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}

	stored := *d
	stored.SelectedIDs = append([]string(nil), d.SelectedIDs...)
	r.decisions = append(r.decisions, &stored)
	if over := len(r.decisions) - r.maxItems; over > 0 {
		r.decisions = r.decisions[over:]
	}
	return nil
}

func (r *memoryDecisionRepository) FindRecent(ctx context.Context, limit int) ([]*models.Decision, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return r.collect(limit, func(*models.Decision) bool { return true }), nil
}

func (r *memoryDecisionRepository) FindByGroup(ctx context.Context, groupID string) ([]*models.Decision, error) {
	return r.collect(0, func(d *models.Decision) bool { return d.GroupID == groupID }), nil
}

func (r *memoryDecisionRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.decisions)), nil
}

// collect returns copies of matching decisions, newest first. limit 0 means all.
func (r *memoryDecisionRepository) collect(limit int, match func(*models.Decision) bool) []*models.Decision {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*models.Decision{}
	for i := len(r.decisions) - 1; i >= 0; i-- {
		d := r.decisions[i]
		if !match(d) {
			continue
		}
		c := *d
		c.SelectedIDs = append([]string(nil), d.SelectedIDs...)
		out = append(out, &c)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	// equal timestamps keep insertion order, newest first
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}
