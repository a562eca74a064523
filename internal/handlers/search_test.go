package handlers

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pdy7080/kpop-ranker-sub000/internal/models"
	"github.com/pdy7080/kpop-ranker-sub000/internal/route"
	"github.com/pdy7080/kpop-ranker-sub000/internal/suggest"
	"github.com/pdy7080/kpop-ranker-sub000/internal/testutil"
)

type suggestFunc func(ctx context.Context, query string) []models.Suggestion

func (f suggestFunc) GetSuggestions(ctx context.Context, query string) []models.Suggestion {
	return f(ctx, query)
}

type routeFunc func(ctx context.Context, query string) models.Route

func (f routeFunc) Resolve(ctx context.Context, query string) models.Route {
	return f(ctx, query)
}

func newSearchHelper(t *testing.T, s SuggestionSource, r RouteResolver, gate *suggest.Gate) *testutil.HTTPTestHelper {
	helper := testutil.NewHTTPTestHelper(t)
	helper.SetRouter(NewRouter(Handlers{Search: NewSearchHandler(s, r, gate)}))
	return helper
}

func fixedSuggestions(calls *atomic.Int32, s ...models.Suggestion) suggestFunc {
	return func(context.Context, string) []models.Suggestion {
		calls.Add(1)
		return s
	}
}

func TestSuggest_WithoutSession(t *testing.T) {
	var calls atomic.Int32
	helper := newSearchHelper(t, fixedSuggestions(&calls, testutil.ArtistSuggestion("IVE", "IVE")), nil, nil)

	var resp SuggestResponse
	helper.AssertJSONResponse(helper.GetJSON("/api/suggest?q=IVE"), http.StatusOK, &resp)

	assert.Equal(t, "IVE", resp.Query)
	assert.False(t, resp.Stale)
	require.Len(t, resp.Suggestions, 1)
	assert.Equal(t, models.KindArtist, resp.Suggestions[0].Kind)
}

func TestSuggest_ThroughResolver(t *testing.T) {
	backend := &testutil.MockBackend{}
	backend.On("Autocomplete", mock.Anything, "Ditto", suggest.DefaultLimit).
		Return([]models.Suggestion{testutil.TrackSuggestion("NewJeans", "Ditto")}, nil)
	backend.On("Search", mock.Anything, "Ditto").
		Return(testutil.SearchHits(testutil.TestChartMelon, testutil.Hit("NewJeans", "Ditto", 3)), nil)

	helper := newSearchHelper(t, suggest.NewResolver(backend, nil, 0), nil, nil)

	var resp SuggestResponse
	helper.AssertJSONResponse(helper.GetJSON("/api/suggest?q=Ditto"), http.StatusOK, &resp)

	require.Len(t, resp.Suggestions, 1, "the chart hit duplicates the unified track")
	assert.Equal(t, "Ditto", resp.Suggestions[0].Track)
	backend.AssertExpectations(t)
}

func TestSuggest_StaleSequenceIsNotFetched(t *testing.T) {
	var calls atomic.Int32
	helper := newSearchHelper(t, fixedSuggestions(&calls, testutil.ArtistSuggestion("IVE", "IVE")), nil, suggest.NewGate(0))

	var fresh SuggestResponse
	helper.AssertJSONResponse(helper.GetJSON("/api/suggest?q=IVE&session=s1&seq=2"), http.StatusOK, &fresh)
	assert.False(t, fresh.Stale)
	assert.Equal(t, uint64(2), fresh.Seq)

	var stale SuggestResponse
	helper.AssertJSONResponse(helper.GetJSON("/api/suggest?q=IV&session=s1&seq=1"), http.StatusOK, &stale)
	assert.True(t, stale.Stale)
	assert.Empty(t, stale.Suggestions)
	assert.Equal(t, int32(1), calls.Load())

	// sessions are independent
	var other SuggestResponse
	helper.AssertJSONResponse(helper.GetJSON("/api/suggest?q=IV&session=s2&seq=1"), http.StatusOK, &other)
	assert.False(t, other.Stale)
}

func TestSuggest_OvertakenWhileFetching(t *testing.T) {
	gate := suggest.NewGate(0)
	source := suggestFunc(func(context.Context, string) []models.Suggestion {
		// a newer keystroke arrives while this lookup is in flight
		gate.Admit("s1", 2)
		return []models.Suggestion{testutil.ArtistSuggestion("IVE", "IVE")}
	})
	helper := newSearchHelper(t, source, nil, gate)

	var resp SuggestResponse
	helper.AssertJSONResponse(helper.GetJSON("/api/suggest?q=I&session=s1&seq=1"), http.StatusOK, &resp)

	assert.True(t, resp.Stale)
	assert.Empty(t, resp.Suggestions)
}

func TestSuggest_ServerAllocatedSequence(t *testing.T) {
	var calls atomic.Int32
	helper := newSearchHelper(t, fixedSuggestions(&calls), nil, nil)

	for want := uint64(1); want <= 2; want++ {
		var resp SuggestResponse
		helper.AssertJSONResponse(helper.GetJSON("/api/suggest?q=x&session=abc"), http.StatusOK, &resp)
		assert.Equal(t, want, resp.Seq)
		assert.False(t, resp.Stale)
		assert.NotNil(t, resp.Suggestions)
	}
}

func TestSuggest_InvalidSequence(t *testing.T) {
	var calls atomic.Int32
	helper := newSearchHelper(t, fixedSuggestions(&calls), nil, nil)

	for _, seq := range []string{"0", "-1", "abc"} {
		helper.AssertErrorResponse(helper.GetJSON("/api/suggest?q=x&session=s&seq="+seq), http.StatusBadRequest, "seq")
	}
	assert.Equal(t, int32(0), calls.Load())
}

func TestResolve(t *testing.T) {
	routes := routeFunc(func(_ context.Context, q string) models.Route {
		switch q {
		case "Ditto":
			return models.TrackRoute("NewJeans", "Ditto")
		case "zzzz":
			return models.NoResultsRoute(q)
		default:
			return models.SearchRoute(q)
		}
	})
	helper := newSearchHelper(t, nil, routes, nil)

	tests := []struct {
		name      string
		url       string
		kind      models.RouteKind
		path      string
		navigates bool
	}{
		{"track", "/api/resolve?q=Ditto", models.RouteTrack, "/track/NewJeans/Ditto", true},
		{"search", "/api/resolve?q=new+jeans", models.RouteSearch, "/search?q=new+jeans", true},
		{"no results", "/api/resolve?q=zzzz", models.RouteNoResults, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp ResolveResponse
			helper.AssertJSONResponse(helper.GetJSON(tt.url), http.StatusOK, &resp)
			assert.Equal(t, tt.kind, resp.Route.Kind)
			assert.Equal(t, tt.path, resp.Path)
			assert.Equal(t, tt.navigates, resp.Navigates)
		})
	}

	helper.AssertErrorResponse(helper.GetJSON("/api/resolve?q=+"), http.StatusBadRequest, "required")
}

func TestResolve_AliasThroughRouteResolver(t *testing.T) {
	suggester := &testutil.MockSuggester{}
	search := &testutil.MockBackend{}
	helper := newSearchHelper(t, nil, route.NewResolver(nil, suggester, search), nil)

	var resp ResolveResponse
	helper.AssertJSONResponse(helper.GetJSON("/api/resolve?q=%EB%89%B4%EC%A7%84%EC%8A%A4"), http.StatusOK, &resp)

	assert.Equal(t, models.ArtistRoute("NewJeans"), resp.Route)
	assert.Equal(t, "/artist/NewJeans", resp.Path)
	suggester.AssertNotCalled(t, "Suggest", mock.Anything, mock.Anything, mock.Anything)
}

func TestGo(t *testing.T) {
	routes := routeFunc(func(_ context.Context, q string) models.Route {
		if q == "IVE" {
			return models.ArtistRoute("IVE")
		}
		return models.NoResultsRoute(q)
	})
	helper := newSearchHelper(t, nil, routes, nil)

	t.Run("redirects to the resolved page", func(t *testing.T) {
		w := helper.GetJSON("/go?q=IVE")
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/artist/IVE", w.Header().Get("Location"))
	})

	t.Run("no results stays put", func(t *testing.T) {
		var body map[string]string
		helper.AssertJSONResponse(helper.GetJSON("/go?q=nothing"), http.StatusOK, &body)
		assert.Equal(t, models.NoResultsNotice, body["notice"])
	})

	t.Run("empty query goes home", func(t *testing.T) {
		w := helper.GetJSON("/go?q=")
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/", w.Header().Get("Location"))
	})
}
