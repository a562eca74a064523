package models

// SuggestionKind discriminates artist and track suggestions
type SuggestionKind string

const (
	KindArtist SuggestionKind = "artist"
	KindTrack  SuggestionKind = "track"
)

// Suggestion is a single autocomplete candidate in canonical form.
// Wire-level field ambiguity (name/artist/original) is resolved by the
// backend client before a Suggestion is built.
type Suggestion struct {
	Kind             SuggestionKind `json:"kind"`
	Artist           string         `json:"artist"`
	ArtistNormalized string         `json:"artist_normalized"`
	Track            string         `json:"track,omitempty"`
	Display          string         `json:"display"`
	MatchedBy        string         `json:"matched_by,omitempty"`
	Score            int            `json:"score"`

	// Popularity signals, display only
	ChartCount int `json:"chart_count,omitempty"`
	BestRank   int `json:"best_rank,omitempty"`
}

// RouteArtist returns the artist name to use when navigating.
func (s Suggestion) RouteArtist() string {
	if s.ArtistNormalized != "" {
		return s.ArtistNormalized
	}
	return s.Artist
}

// Key returns the de-duplication key of a track suggestion.
func (s Suggestion) Key() string {
	return TrackKey(s.Artist, s.Track)
}

// ChartHit is one per-chart entry returned by the raw search endpoint
type ChartHit struct {
	Chart  string `json:"chart"`
	Artist string `json:"artist"`
	Track  string `json:"track"`
	Rank   int    `json:"rank"`
	Found  bool   `json:"found"`
}

// ChartResult groups the hits of a single search result
type ChartResult struct {
	Chart  string     `json:"chart,omitempty"`
	Tracks []ChartHit `json:"tracks"`
}

// SearchResponse is the canonical form of the raw search endpoint
type SearchResponse struct {
	Query   string        `json:"query"`
	Results []ChartResult `json:"results"`
}

// FirstHit returns the first found track across results, in order.
// Placeholder entries a chart reports with found=false are skipped.
func (r *SearchResponse) FirstHit() (ChartHit, bool) {
	if r == nil {
		return ChartHit{}, false
	}
	for _, res := range r.Results {
		for _, hit := range res.Tracks {
			if hit.Found {
				return hit, true
			}
		}
	}
	return ChartHit{}, false
}
