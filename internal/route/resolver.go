// Package route decides where a submitted query should take the user:
// an artist page, a track page, or the generic search results.
package route

import (
	"context"
	"log/slog"
	"strings"

	"github.com/pdy7080/kpop-ranker-sub000/internal/aliases"
	"github.com/pdy7080/kpop-ranker-sub000/internal/models"
)

// probeLimit is how many suggestions the exact-match probe inspects
const probeLimit = 5

// Suggester runs the autocomplete lookup
type Suggester interface {
	Suggest(ctx context.Context, query string, limit int) ([]models.Suggestion, error)
}

// Searcher runs the raw chart search
type Searcher interface {
	Search(ctx context.Context, q string) (*models.SearchResponse, error)
}

// AliasSource provides the alias table in effect
type AliasSource interface {
	Current() *aliases.Table
}

// StaticAliases serves a fixed table
type StaticAliases struct{ Table *aliases.Table }

func (s StaticAliases) Current() *aliases.Table { return s.Table }

// Resolver resolves submitted queries into routes
type Resolver struct {
	aliases   AliasSource
	suggester Suggester
	searcher  Searcher
}

// NewResolver creates a route resolver
func NewResolver(a AliasSource, s Suggester, search Searcher) *Resolver {
	if a == nil {
		a = StaticAliases{Table: aliases.Default()}
	}
	return &Resolver{aliases: a, suggester: s, searcher: search}
}

// Resolve always returns exactly one route. Precedence: alias table, exact
// autocomplete match, raw search; any lookup failure degrades to the search
// results page.
func (r *Resolver) Resolve(ctx context.Context, query string) models.Route {
	query = strings.TrimSpace(query)
	if query == "" {
		return models.SearchRoute(query)
	}

	if canonical, ok := r.aliases.Current().Lookup(query); ok {
		return models.ArtistRoute(canonical)
	}

	suggestions, err := r.suggester.Suggest(ctx, query, probeLimit)
	if err != nil {
		slog.Warn("Autocomplete probe failed; falling back to search page", "query", query, "error", err)
		return models.SearchRoute(query)
	}
	if route, ok := matchSuggestion(query, suggestions); ok {
		return route
	}

	resp, err := r.searcher.Search(ctx, query)
	if err != nil {
		slog.Warn("Search fallback failed; falling back to search page", "query", query, "error", err)
		return models.SearchRoute(query)
	}
	return matchSearch(query, resp)
}

// matchSuggestion scans suggestions in rank order; the first artist or track
// match wins.
func matchSuggestion(query string, suggestions []models.Suggestion) (models.Route, bool) {
	for _, s := range suggestions {
		switch s.Kind {
		case models.KindArtist:
			if models.EqualFold(s.Display, query) || models.EqualFold(s.Artist, query) {
				return models.ArtistRoute(s.RouteArtist()), true
			}
		case models.KindTrack:
			if s.Track == "" {
				continue
			}
			if models.EqualFold(s.Track, query) || models.ContainsFold(s.Display, query) {
				return models.TrackRoute(s.RouteArtist(), s.Track), true
			}
		}
	}
	return models.Route{}, false
}

func matchSearch(query string, resp *models.SearchResponse) models.Route {
	hit, ok := resp.FirstHit()
	if !ok {
		return models.NoResultsRoute(query)
	}

	switch {
	case models.EqualFold(hit.Artist, query):
		return models.ArtistRoute(hit.Artist)
	case hit.Track != "" && models.EqualFold(hit.Track, query):
		return models.TrackRoute(hit.Artist, hit.Track)
	default:
		return models.SearchRoute(query)
	}
}
