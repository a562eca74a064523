package trending

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pdy7080/kpop-ranker-sub000/internal/backend"
	"github.com/pdy7080/kpop-ranker-sub000/internal/models"
)

const snapshotFormatVersion = "1"

// ReadSnapshot loads a pre-built hybrid_data.json snapshot
func ReadSnapshot(path string) (*models.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	snap, err := backend.DecodeSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse snapshot %s: %w", path, err)
	}
	return snap, nil
}

// BuildSnapshot makes a snapshot from a live feed, carrying forward images
// resolved in previous (which may be nil).
func BuildSnapshot(previous *models.Snapshot, live []models.TrendingTrack, source string, now time.Time) *models.Snapshot {
	var current []models.TrendingTrack
	if previous != nil {
		current = previous.Trending
	}

	snap := &models.Snapshot{
		Meta: models.SnapshotMeta{
			GeneratedAt: now.UTC().Format(time.RFC3339),
			Source:      source,
			Version:     snapshotFormatVersion,
		},
		Trending: Merge(current, live),
	}
	snap.ComputeStats()
	return snap
}

// WriteSnapshot writes snap to path atomically
func WriteSnapshot(path string, snap *models.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".hybrid_data-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}
