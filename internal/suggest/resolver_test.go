package suggest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdy7080/kpop-ranker-sub000/internal/backend"
	"github.com/pdy7080/kpop-ranker-sub000/internal/models"
)

// fakeBackend returns canned responses and counts calls
type fakeBackend struct {
	mu          sync.Mutex
	unified     []models.Suggestion
	unifiedErr  error
	search      *models.SearchResponse
	searchErr   error
	autoCalls   int
	searchCalls int
	lastLimit   int
}

func (f *fakeBackend) Autocomplete(_ context.Context, _ string, limit int) ([]models.Suggestion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.autoCalls++
	f.lastLimit = limit
	return f.unified, f.unifiedErr
}

func (f *fakeBackend) Search(_ context.Context, _ string) (*models.SearchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls++
	return f.search, f.searchErr
}

type recordingReporter struct {
	errs []error
}

func (r *recordingReporter) Report(_ context.Context, _ string, err error) {
	r.errs = append(r.errs, err)
}

func artist(name, normalized string) models.Suggestion {
	return models.Suggestion{Kind: models.KindArtist, Artist: name, ArtistNormalized: normalized, Display: name}
}

func track(artistName, title string) models.Suggestion {
	return models.Suggestion{Kind: models.KindTrack, Artist: artistName, ArtistNormalized: artistName, Track: title, Display: artistName + " - " + title}
}

func hits(chart string, h ...models.ChartHit) *models.SearchResponse {
	return &models.SearchResponse{Results: []models.ChartResult{{Chart: chart, Tracks: h}}}
}

func TestResolver_EmptyQueryMakesNoCalls(t *testing.T) {
	fb := &fakeBackend{}
	r := NewResolver(fb, nil, 10)

	for _, q := range []string{"", "   "} {
		got := r.GetSuggestions(context.Background(), q)
		assert.Empty(t, got)
		assert.NotNil(t, got)
	}
	assert.Equal(t, 0, fb.autoCalls)
	assert.Equal(t, 0, fb.searchCalls)
}

func TestResolver_DeduplicatesChartTracks(t *testing.T) {
	fb := &fakeBackend{
		unified: []models.Suggestion{track("IVE", "I AM")},
		search: hits("melon",
			models.ChartHit{Artist: "IVE", Track: "I AM", Rank: 1, Found: true},
			models.ChartHit{Artist: "ive", Track: "i am", Rank: 2, Found: true},
		),
	}
	r := NewResolver(fb, nil, 10)

	got := r.GetSuggestions(context.Background(), "I AM")

	count := 0
	for _, s := range got {
		if s.Key() == models.TrackKey("IVE", "I AM") {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.Len(t, got, 1)
}

func TestResolver_Scoring(t *testing.T) {
	fb := &fakeBackend{
		unified: []models.Suggestion{
			artist("IVE", "IVE"),
			track("IVE", "I AM"),
			track("IVE", "Kitsch"),
		},
		search: hits("genie",
			models.ChartHit{Artist: "IVE", Track: "HEYA", Rank: 3, Found: true},
			models.ChartHit{Artist: "IVE", Track: "Baddie", Rank: 15, Found: true},
			models.ChartHit{Artist: "IVE", Track: "Off The Record", Rank: 1, Found: false},
		),
	}
	r := NewResolver(fb, nil, 10)

	got := r.GetSuggestions(context.Background(), "IVE")
	require.Len(t, got, 5)

	var order []string
	var scores []int
	for _, s := range got {
		order = append(order, s.Display)
		scores = append(scores, s.Score)
	}
	assert.Equal(t, []string{"IVE", "IVE - I AM", "IVE - Kitsch", "IVE - HEYA", "IVE - Baddie"}, order)
	assert.Equal(t, []int{100, 89, 88, 87, 75}, scores)
	assert.Equal(t, "chart", got[3].MatchedBy)
}

func TestResolver_TiesKeepSourceOrder(t *testing.T) {
	fb := &fakeBackend{
		unified: []models.Suggestion{track("A", "one")},
		search: hits("melon",
			models.ChartHit{Artist: "B", Track: "two", Rank: 0, Found: true},
			models.ChartHit{Artist: "C", Track: "three", Rank: 0, Found: true},
		),
	}
	got := Merge(fb.unified, fb.search, 10)
	require.Len(t, got, 3)
	// "A - one" scores 90, as do both chart hits with rank 0
	assert.Equal(t, "A", got[0].Artist)
	assert.Equal(t, "B", got[1].Artist)
	assert.Equal(t, "C", got[2].Artist)
}

func TestResolver_TruncatesToLimit(t *testing.T) {
	var unified []models.Suggestion
	for i := 0; i < 15; i++ {
		unified = append(unified, track("A", string(rune('a'+i))))
	}
	fb := &fakeBackend{unified: unified}

	r := NewResolver(fb, nil, 0)
	assert.Len(t, r.GetSuggestions(context.Background(), "a"), DefaultLimit)

	got, err := r.Suggest(context.Background(), "a", 5)
	require.NoError(t, err)
	assert.Len(t, got, 5)
	assert.Equal(t, 5, fb.lastLimit)
}

func TestResolver_Failures(t *testing.T) {
	transport := &backend.APIError{Operation: "autocomplete", Kind: backend.KindTransport, Err: errors.New("connection refused")}
	status := &backend.APIError{Operation: "autocomplete", Kind: backend.KindStatus, Status: 500}
	chartHits := hits("melon", models.ChartHit{Artist: "IVE", Track: "I AM", Rank: 1, Found: true})

	t.Run("unified transport failure empties the result", func(t *testing.T) {
		reporter := &recordingReporter{}
		fb := &fakeBackend{unifiedErr: transport, search: chartHits}
		r := NewResolver(fb, reporter, 10)

		got := r.GetSuggestions(context.Background(), "IVE")
		assert.Empty(t, got)
		require.Len(t, reporter.errs, 1)
		assert.True(t, backend.IsTransport(reporter.errs[0]))

		_, err := r.Suggest(context.Background(), "IVE", 10)
		assert.Error(t, err)
	})

	t.Run("unified status failure keeps chart results", func(t *testing.T) {
		reporter := &recordingReporter{}
		fb := &fakeBackend{unifiedErr: status, search: chartHits}
		r := NewResolver(fb, reporter, 10)

		got := r.GetSuggestions(context.Background(), "IVE")
		require.Len(t, got, 1)
		assert.Equal(t, "I AM", got[0].Track)
		assert.Empty(t, reporter.errs)
	})

	t.Run("search failure keeps unified results", func(t *testing.T) {
		fb := &fakeBackend{unified: []models.Suggestion{artist("IVE", "IVE")}, searchErr: transport}
		r := NewResolver(fb, nil, 10)

		got := r.GetSuggestions(context.Background(), "IVE")
		require.Len(t, got, 1)
		assert.Equal(t, models.KindArtist, got[0].Kind)
	})
}
