package repositories

import (
	"context"

	"github.com/pdy7080/kpop-ranker-sub000/internal/models"
)

// DecisionRepository defines the interface for the admin decision log
type DecisionRepository interface {
	Save(ctx context.Context, d *models.Decision) error

	// Find operations, newest first
	FindRecent(ctx context.Context, limit int) ([]*models.Decision, error)
	FindByGroup(ctx context.Context, groupID string) ([]*models.Decision, error)

	Count(ctx context.Context) (int64, error)
}

// DefaultRecentLimit bounds FindRecent when the caller passes no limit
const DefaultRecentLimit = 50
