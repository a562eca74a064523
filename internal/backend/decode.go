package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pdy7080/kpop-ranker-sub000/internal/models"
)

// The backend's JSON is loosely shaped: the same concept shows up under
// different field names and numbers sometimes arrive as strings. Everything
// in this file collapses that into the canonical models types so nothing
// past the client has to care.

// flexInt accepts a JSON number, a numeric string or null. Anything else
// decodes to zero rather than failing the whole response.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	s := strings.Trim(string(data), `"`)
	if n, err := strconv.Atoi(s); err == nil {
		*f = flexInt(n)
		return nil
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		*f = flexInt(int(v))
		return nil
	}
	*f = 0
	return nil
}

// flexFloat is flexInt for fractional values
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		v = 0
	}
	*f = flexFloat(v)
	return nil
}

// flexString accepts a JSON string or number (IDs are sometimes numeric)
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	*f = flexString(strings.Trim(string(data), `"`))
	return nil
}

// flexTime accepts RFC 3339 and the backend's "2006-01-02 15:04:05" form
type flexTime time.Time

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}

func (f *flexTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil || s == "" {
		*f = flexTime(time.Time{})
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			*f = flexTime(t)
			return nil
		}
	}
	*f = flexTime(time.Time{})
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// firstRaw is firstNonEmpty without the trimming, for identity fields that
// duplicate classification compares byte for byte.
func firstRaw(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// Autocomplete

type wireSuggestion struct {
	Type             string  `json:"type"`
	Name             string  `json:"name"`
	Artist           string  `json:"artist"`
	ArtistNormalized string  `json:"artist_normalized"`
	Original         string  `json:"original"`
	Track            string  `json:"track"`
	Title            string  `json:"title"`
	Display          string  `json:"display"`
	MatchedBy        string  `json:"matched_by"`
	ChartCount       flexInt `json:"chart_count"`
	BestRank         flexInt `json:"best_rank"`
}

type wireAutocomplete struct {
	Suggestions []wireSuggestion `json:"suggestions"`
}

// suggestion converts a wire entry. Entries without an artist, or track
// entries without a title, are dropped.
func (w wireSuggestion) suggestion() (models.Suggestion, bool) {
	track := firstNonEmpty(w.Track, w.Title)

	kind := models.KindArtist
	switch strings.ToLower(strings.TrimSpace(w.Type)) {
	case "track", "song":
		kind = models.KindTrack
	case "artist":
	default:
		if track != "" {
			kind = models.KindTrack
		}
	}

	s := models.Suggestion{
		Kind:       kind,
		MatchedBy:  strings.TrimSpace(w.MatchedBy),
		ChartCount: int(w.ChartCount),
		BestRank:   int(w.BestRank),
	}

	if kind == models.KindArtist {
		s.Artist = firstNonEmpty(w.Artist, w.Name, w.Original, w.Display)
		s.ArtistNormalized = firstNonEmpty(w.ArtistNormalized, s.Artist)
		s.Display = firstNonEmpty(w.Display, s.Artist)
		return s, s.Artist != ""
	}

	s.Artist = firstNonEmpty(w.Artist, w.Original)
	s.Track = firstNonEmpty(track, w.Name)
	s.ArtistNormalized = firstNonEmpty(w.ArtistNormalized, s.Artist)
	s.Display = firstNonEmpty(w.Display, s.Artist+" - "+s.Track)
	return s, s.Artist != "" && s.Track != ""
}

func decodeAutocomplete(body []byte) ([]models.Suggestion, error) {
	var resp wireAutocomplete
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	out := make([]models.Suggestion, 0, len(resp.Suggestions))
	for _, w := range resp.Suggestions {
		if s, ok := w.suggestion(); ok {
			out = append(out, s)
		}
	}
	return out, nil
}

// Search

type wireHit struct {
	Chart  string     `json:"chart"`
	Artist string     `json:"artist"`
	Track  string     `json:"track"`
	Title  string     `json:"title"`
	Rank   flexInt    `json:"rank"`
	Found  *bool      `json:"found"`
	Name   flexString `json:"name"`
}

func (w wireHit) hit(chart string) models.ChartHit {
	return models.ChartHit{
		Chart:  firstNonEmpty(w.Chart, chart),
		Artist: strings.TrimSpace(w.Artist),
		Track:  firstNonEmpty(w.Track, w.Title, string(w.Name)),
		Rank:   int(w.Rank),
		Found:  w.Found == nil || *w.Found,
	}
}

type wireResult struct {
	Chart  string    `json:"chart"`
	Tracks []wireHit `json:"tracks"`
}

type wireSearch struct {
	Query   string                     `json:"query"`
	Results []wireResult               `json:"results"`
	Charts  orderedCharts              `json:"charts"`
}

type chartEntry struct {
	name string
	raw  json.RawMessage
}

// orderedCharts keeps the charts{} object in the order the backend sent it,
// so the first result is the backend's first chart.
type orderedCharts []chartEntry

func (o *orderedCharts) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*o = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("charts: expected an object, got %v", tok)
	}

	var out orderedCharts
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := tok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		out = append(out, chartEntry{name: name, raw: raw})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*o = out
	return nil
}

func decodeSearch(query string, body []byte) (*models.SearchResponse, error) {
	var resp wireSearch
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}

	out := &models.SearchResponse{Query: firstNonEmpty(resp.Query, query)}
	for _, r := range resp.Results {
		res := models.ChartResult{Chart: r.Chart}
		for _, w := range r.Tracks {
			res.Tracks = append(res.Tracks, w.hit(r.Chart))
		}
		out.Results = append(out.Results, res)
	}

	// charts{} is keyed by chart name; values are a single hit or a list
	for _, entry := range resp.Charts {
		name := entry.name
		raw := bytes.TrimSpace(entry.raw)
		res := models.ChartResult{Chart: name}
		switch {
		case len(raw) > 0 && raw[0] == '[':
			var hits []wireHit
			if err := json.Unmarshal(raw, &hits); err != nil {
				continue
			}
			for _, w := range hits {
				res.Tracks = append(res.Tracks, w.hit(name))
			}
		case len(raw) > 0 && raw[0] == '{':
			var w wireHit
			if err := json.Unmarshal(raw, &w); err != nil {
				continue
			}
			res.Tracks = append(res.Tracks, w.hit(name))
		default:
			continue
		}
		out.Results = append(out.Results, res)
	}

	return out, nil
}

// Trending

type wireTrending struct {
	Artist     string             `json:"artist"`
	Track      string             `json:"track"`
	Title      string             `json:"title"`
	Score      flexFloat          `json:"score"`
	Charts     map[string]flexInt `json:"charts"`
	BestRank   flexInt            `json:"best_rank"`
	ChartCount flexInt            `json:"chart_count"`
	ImageURL   string             `json:"image_url"`
	AlbumImage string             `json:"album_image"`
}

func (w wireTrending) track() (models.TrendingTrack, bool) {
	t := models.TrendingTrack{
		Artist:     strings.TrimSpace(w.Artist),
		Track:      firstNonEmpty(w.Track, w.Title),
		Score:      float64(w.Score),
		BestRank:   int(w.BestRank),
		ChartCount: int(w.ChartCount),
		ImageURL:   firstNonEmpty(w.ImageURL, w.AlbumImage),
	}
	if len(w.Charts) > 0 {
		t.Charts = make(map[string]int, len(w.Charts))
		for name, rank := range w.Charts {
			t.Charts[name] = int(rank)
		}
	}
	if t.ChartCount == 0 {
		t.ChartCount = len(t.Charts)
	}
	return t, t.Artist != "" && t.Track != ""
}

type wireTrendingFeed struct {
	Trending []wireTrending `json:"trending"`
}

func decodeTrending(body []byte) ([]models.TrendingTrack, error) {
	var resp wireTrendingFeed
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	return trendingTracks(resp.Trending), nil
}

func trendingTracks(in []wireTrending) []models.TrendingTrack {
	out := make([]models.TrendingTrack, 0, len(in))
	for _, w := range in {
		if t, ok := w.track(); ok {
			out = append(out, t)
		}
	}
	return out
}

type wireSnapshot struct {
	Meta     models.SnapshotMeta  `json:"meta"`
	Stats    models.SnapshotStats `json:"stats"`
	Trending []wireTrending       `json:"trending"`
}

// DecodeSnapshot parses a hybrid_data.json document with the same
// leniency as the live trending feed.
func DecodeSnapshot(body []byte) (*models.Snapshot, error) {
	var w wireSnapshot
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, err
	}
	return &models.Snapshot{
		Meta:     w.Meta,
		Stats:    w.Stats,
		Trending: trendingTracks(w.Trending),
	}, nil
}

// Admin

type wireCandidate struct {
	ID             flexString `json:"id"`
	ChartName      string     `json:"chart_name"`
	Chart          string     `json:"chart"`
	RankPosition   flexInt    `json:"rank_position"`
	Rank           flexInt    `json:"rank"`
	OriginalArtist string     `json:"original_artist"`
	OriginalTrack  string     `json:"original_track"`
	UnifiedArtist  string     `json:"unified_artist"`
	UnifiedTrack   string     `json:"unified_track"`
	CreatedAt      flexTime   `json:"created_at"`
}

type wireGroup struct {
	GroupID       flexString      `json:"group_id"`
	ID            flexString      `json:"id"`
	UnifiedArtist string          `json:"unified_artist"`
	UnifiedTrack  string          `json:"unified_track"`
	Members       []wireCandidate `json:"members"`
	Records       []wireCandidate `json:"records"`
}

type wireDuplicates struct {
	Groups     []wireGroup `json:"groups"`
	Duplicates []wireGroup `json:"duplicates"`
}

func (w wireGroup) group() (models.DuplicateGroup, bool) {
	g := models.DuplicateGroup{
		GroupID:       firstNonEmpty(string(w.GroupID), string(w.ID)),
		UnifiedArtist: strings.TrimSpace(w.UnifiedArtist),
		UnifiedTrack:  strings.TrimSpace(w.UnifiedTrack),
	}

	members := w.Members
	if len(members) == 0 {
		members = w.Records
	}
	for _, m := range members {
		rank := int(m.RankPosition)
		if rank == 0 {
			rank = int(m.Rank)
		}
		g.Members = append(g.Members, models.DuplicateCandidate{
			ID:             strings.TrimSpace(string(m.ID)),
			ChartName:      firstRaw(m.ChartName, m.Chart),
			RankPosition:   rank,
			OriginalArtist: m.OriginalArtist,
			OriginalTrack:  m.OriginalTrack,
			UnifiedArtist:  firstRaw(m.UnifiedArtist, g.UnifiedArtist),
			UnifiedTrack:   firstRaw(m.UnifiedTrack, g.UnifiedTrack),
			CreatedAt:      time.Time(m.CreatedAt),
		})
	}

	if g.GroupID == "" {
		g.GroupID = models.TrackKey(g.UnifiedArtist, g.UnifiedTrack)
	}
	return g, len(g.Members) > 0
}

func decodeDuplicates(body []byte) ([]models.DuplicateGroup, error) {
	var resp wireDuplicates
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	groups := resp.Groups
	if len(groups) == 0 {
		groups = resp.Duplicates
	}
	out := make([]models.DuplicateGroup, 0, len(groups))
	for _, w := range groups {
		if g, ok := w.group(); ok {
			out = append(out, g)
		}
	}
	return out, nil
}

type wireReviewEntry struct {
	ID              flexString `json:"id"`
	SourceArtist    string     `json:"source_artist"`
	SourceTrack     string     `json:"source_track"`
	SuggestedArtist string     `json:"suggested_artist"`
	SuggestedTrack  string     `json:"suggested_track"`
	Confidence      flexFloat  `json:"confidence"`
	Reason          string     `json:"reason"`
	CreatedAt       flexTime   `json:"created_at"`
}

type wireReviewQueue struct {
	Queue []wireReviewEntry `json:"queue"`
	Items []wireReviewEntry `json:"items"`
}

func decodeReviewQueue(body []byte) ([]models.AIReviewEntry, error) {
	var resp wireReviewQueue
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	entries := resp.Queue
	if len(entries) == 0 {
		entries = resp.Items
	}
	out := make([]models.AIReviewEntry, 0, len(entries))
	for _, w := range entries {
		if w.ID == "" {
			continue
		}
		out = append(out, models.AIReviewEntry{
			ID:              string(w.ID),
			SourceArtist:    w.SourceArtist,
			SourceTrack:     w.SourceTrack,
			SuggestedArtist: w.SuggestedArtist,
			SuggestedTrack:  w.SuggestedTrack,
			Confidence:      float64(w.Confidence),
			Reason:          w.Reason,
			CreatedAt:       time.Time(w.CreatedAt),
		})
	}
	return out, nil
}

type wireMapping struct {
	ID             flexString `json:"id"`
	ChartName      string     `json:"chart_name"`
	OriginalArtist string     `json:"original_artist"`
	OriginalTrack  string     `json:"original_track"`
	UnifiedArtist  string     `json:"unified_artist"`
	UnifiedTrack   string     `json:"unified_track"`
	CreatedAt      flexTime   `json:"created_at"`
}

type wireMappings struct {
	Mappings []wireMapping `json:"mappings"`
}

func decodeMappings(body []byte) ([]models.Mapping, error) {
	var resp wireMappings
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	out := make([]models.Mapping, 0, len(resp.Mappings))
	for _, w := range resp.Mappings {
		out = append(out, models.Mapping{
			ID:             string(w.ID),
			ChartName:      w.ChartName,
			OriginalArtist: w.OriginalArtist,
			OriginalTrack:  w.OriginalTrack,
			UnifiedArtist:  w.UnifiedArtist,
			UnifiedTrack:   w.UnifiedTrack,
			CreatedAt:      time.Time(w.CreatedAt),
		})
	}
	return out, nil
}

type wireMergeResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
	Detail  string `json:"detail"`
}

// errorMessage extracts a server-provided message from an error body
func errorMessage(body []byte) string {
	var w wireMergeResult
	if err := json.Unmarshal(body, &w); err != nil {
		return ""
	}
	return firstNonEmpty(w.Error, w.Detail, w.Message)
}
