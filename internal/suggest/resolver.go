// Package suggest turns partial queries into ranked artist and track
// suggestions, merging the backend's unified autocomplete with tracks found
// through the raw chart search.
package suggest

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/pdy7080/kpop-ranker-sub000/internal/backend"
	"github.com/pdy7080/kpop-ranker-sub000/internal/models"
)

// Scoring bases for unified suggestions; chart-derived tracks use trackBase - rank
const (
	artistBase = 100
	trackBase  = 90

	DefaultLimit = 10
)

// Backend is the subset of the chart API the resolver needs
type Backend interface {
	Autocomplete(ctx context.Context, q string, limit int) ([]models.Suggestion, error)
	Search(ctx context.Context, q string) (*models.SearchResponse, error)
}

// ErrorReporter receives failures that are swallowed on the way to the caller
type ErrorReporter interface {
	Report(ctx context.Context, op string, err error)
}

// SlogReporter reports errors through the default slog logger
type SlogReporter struct{}

func (SlogReporter) Report(_ context.Context, op string, err error) {
	slog.Error("Suggestion lookup failed", "operation", op, "error", err)
}

// Resolver builds suggestion lists
type Resolver struct {
	backend  Backend
	reporter ErrorReporter
	limit    int
}

// NewResolver creates a resolver returning at most limit suggestions.
// A nil reporter logs through slog.
func NewResolver(b Backend, reporter ErrorReporter, limit int) *Resolver {
	if reporter == nil {
		reporter = SlogReporter{}
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Resolver{backend: b, reporter: reporter, limit: limit}
}

// GetSuggestions returns the ranked suggestions for query. It never fails:
// a transport failure of the unified lookup is reported and yields an
// empty list.
func (r *Resolver) GetSuggestions(ctx context.Context, query string) []models.Suggestion {
	suggestions, err := r.Suggest(ctx, query, r.limit)
	if err != nil {
		r.reporter.Report(ctx, "autocomplete", err)
		return []models.Suggestion{}
	}
	return suggestions
}

// Suggest runs the unified autocomplete and the chart search concurrently
// and merges them into at most limit suggestions. The only error returned
// is a transport failure of the unified call; any other failure of either
// call just drops that call's contribution.
func (r *Resolver) Suggest(ctx context.Context, query string, limit int) ([]models.Suggestion, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.Suggestion{}, nil
	}
	if limit <= 0 {
		limit = r.limit
	}

	var (
		unified    []models.Suggestion
		unifiedErr error
		search     *models.SearchResponse
	)

	var g errgroup.Group
	g.Go(func() error {
		unified, unifiedErr = r.backend.Autocomplete(ctx, query, limit)
		return nil
	})
	g.Go(func() error {
		var err error
		search, err = r.backend.Search(ctx, query)
		if err != nil {
			slog.Warn("Chart search for suggestions failed", "query", query, "error", err)
			search = nil
		}
		return nil
	})
	_ = g.Wait()

	if unifiedErr != nil {
		if backend.IsTransport(unifiedErr) {
			return nil, unifiedErr
		}
		slog.Warn("Unified autocomplete failed", "query", query, "error", unifiedErr)
		unified = nil
	}

	return Merge(unified, search, limit), nil
}

// Merge scores unified suggestions by position, appends chart-search tracks
// not already present, and returns the top limit entries by score.
func Merge(unified []models.Suggestion, search *models.SearchResponse, limit int) []models.Suggestion {
	out := make([]models.Suggestion, 0, len(unified))
	seen := make(map[string]struct{})

	for i, s := range unified {
		base := artistBase
		if s.Kind == models.KindTrack {
			base = trackBase
			seen[models.TrackKey(s.Artist, s.Track)] = struct{}{}
			if s.ArtistNormalized != "" {
				seen[models.TrackKey(s.ArtistNormalized, s.Track)] = struct{}{}
			}
		}
		s.Score = base - i
		out = append(out, s)
	}

	if search != nil {
		for _, result := range search.Results {
			for _, hit := range result.Tracks {
				if !hit.Found || strings.TrimSpace(hit.Artist) == "" || strings.TrimSpace(hit.Track) == "" {
					continue
				}
				key := models.TrackKey(hit.Artist, hit.Track)
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}

				out = append(out, models.Suggestion{
					Kind:             models.KindTrack,
					Artist:           hit.Artist,
					ArtistNormalized: hit.Artist,
					Track:            hit.Track,
					Display:          hit.Artist + " - " + hit.Track,
					MatchedBy:        "chart",
					Score:            trackBase - hit.Rank,
					BestRank:         hit.Rank,
				})
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
