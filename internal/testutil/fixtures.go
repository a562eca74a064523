package testutil

import (
	"fmt"
	"time"

	"github.com/pdy7080/kpop-ranker-sub000/internal/models"
)

// Test constants for consistent test data
const (
	TestChartMelon = "melon"
	TestChartGenie = "genie"
	TestChartBugs  = "bugs"
)

// FixedTime is the creation time used by fixtures
var FixedTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// GroupBuilder provides a fluent interface for creating duplicate groups
type GroupBuilder struct {
	group models.DuplicateGroup
}

// NewGroupBuilder creates a builder for a group with the given unified identity
func NewGroupBuilder(id, artist, track string) *GroupBuilder {
	return &GroupBuilder{group: models.DuplicateGroup{
		GroupID:       id,
		UnifiedArtist: artist,
		UnifiedTrack:  track,
	}}
}

// WithMember appends a member whose original spelling matches the unified identity
func (b *GroupBuilder) WithMember(chart string, rank int) *GroupBuilder {
	return b.WithOriginal(chart, rank, b.group.UnifiedArtist, b.group.UnifiedTrack)
}

// WithOriginal appends a member with its own original spelling
func (b *GroupBuilder) WithOriginal(chart string, rank int, artist, track string) *GroupBuilder {
	n := len(b.group.Members) + 1
	b.group.Members = append(b.group.Members, models.DuplicateCandidate{
		ID:             fmt.Sprintf("%s-%d", b.group.GroupID, n),
		ChartName:      chart,
		RankPosition:   rank,
		OriginalArtist: artist,
		OriginalTrack:  track,
		UnifiedArtist:  b.group.UnifiedArtist,
		UnifiedTrack:   b.group.UnifiedTrack,
		CreatedAt:      FixedTime.Add(time.Duration(n) * time.Minute),
	})
	return b
}

// WithCreatedAt overrides the creation time of the last added member
func (b *GroupBuilder) WithCreatedAt(t time.Time) *GroupBuilder {
	if n := len(b.group.Members); n > 0 {
		b.group.Members[n-1].CreatedAt = t
	}
	return b
}

// Build returns a copy of the group
func (b *GroupBuilder) Build() models.DuplicateGroup {
	g := b.group
	g.Members = append([]models.DuplicateCandidate(nil), b.group.Members...)
	return g
}

// ClearGroup is a byte-for-byte duplicate on one chart
func ClearGroup(id string) models.DuplicateGroup {
	return NewGroupBuilder(id, "ILLIT", "Magnetic").
		WithMember(TestChartMelon, 1).
		WithMember(TestChartMelon, 2).
		Build()
}

// ReviewGroup differs only in the original title spelling
func ReviewGroup(id string) models.DuplicateGroup {
	return NewGroupBuilder(id, "BABYMONSTER", "JUMP").
		WithOriginal(TestChartMelon, 4, "BABYMONSTER", "JUMP").
		WithOriginal(TestChartMelon, 9, "BABYMONSTER", "JUMP (Prod. X)").
		Build()
}

// LegitimateGroup carries the same song on two charts
func LegitimateGroup(id string) models.DuplicateGroup {
	return NewGroupBuilder(id, "aespa", "Supernova").
		WithMember(TestChartMelon, 1).
		WithMember(TestChartGenie, 1).
		Build()
}

// ArtistSuggestion creates an artist suggestion
func ArtistSuggestion(display, normalized string) models.Suggestion {
	return models.Suggestion{Kind: models.KindArtist, Artist: display, ArtistNormalized: normalized, Display: display}
}

// TrackSuggestion creates a track suggestion
func TrackSuggestion(artist, track string) models.Suggestion {
	return models.Suggestion{
		Kind:             models.KindTrack,
		Artist:           artist,
		ArtistNormalized: artist,
		Track:            track,
		Display:          artist + " - " + track,
	}
}

// SearchHits builds a single-chart search response
func SearchHits(chart string, hits ...models.ChartHit) *models.SearchResponse {
	return &models.SearchResponse{Results: []models.ChartResult{{Chart: chart, Tracks: hits}}}
}

// Hit creates a found chart hit
func Hit(artist, track string, rank int) models.ChartHit {
	return models.ChartHit{Artist: artist, Track: track, Rank: rank, Found: true}
}

// TrendingTrack creates a trending entry
func TrendingTrack(artist, track string, score float64, image string) models.TrendingTrack {
	return models.TrendingTrack{
		Artist:     artist,
		Track:      track,
		Score:      score,
		Charts:     map[string]int{TestChartMelon: 1},
		BestRank:   1,
		ChartCount: 1,
		ImageURL:   image,
	}
}
