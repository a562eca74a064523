package trending

import (
	"github.com/pdy7080/kpop-ranker-sub000/internal/models"
)

// Merge reconciles a fresh feed with the tracks currently shown. Order and
// membership follow incoming; each field takes the incoming value, except
// that an image already resolved for the same (artist, track) is kept when
// the incoming entry has none. Merge is idempotent for a given incoming list.
func Merge(current, incoming []models.TrendingTrack) []models.TrendingTrack {
	images := make(map[string]string, len(current))
	for _, t := range current {
		if t.ImageURL != "" {
			images[t.Key()] = t.ImageURL
		}
	}

	out := make([]models.TrendingTrack, 0, len(incoming))
	for _, t := range incoming {
		merged := t
		merged.Charts = cloneCharts(t.Charts)
		if merged.ImageURL == "" {
			merged.ImageURL = images[t.Key()]
		}
		out = append(out, merged)
	}
	return out
}

func cloneCharts(in map[string]int) map[string]int {
	if in == nil {
		return nil
	}
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneTracks(in []models.TrendingTrack) []models.TrendingTrack {
	if in == nil {
		return nil
	}
	out := make([]models.TrendingTrack, len(in))
	for i, t := range in {
		out[i] = t
		out[i].Charts = cloneCharts(t.Charts)
	}
	return out
}
