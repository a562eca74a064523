package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdy7080/kpop-ranker-sub000/internal/models"
	"github.com/pdy7080/kpop-ranker-sub000/internal/testutil"
	"github.com/pdy7080/kpop-ranker-sub000/internal/trending"
)

func newBackend(t *testing.T) *testutil.MockHTTPServer {
	t.Helper()
	mock := testutil.NewMockHTTPServer()
	t.Cleanup(mock.Close)

	t.Setenv("VALKEY_URL", "")
	t.Setenv("MONGODB_URL", "")
	t.Setenv("ALIASES_PATH", "")
	return mock
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := rootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSnapshotBuild(t *testing.T) {
	mock := newBackend(t)
	mock.On("/trending", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		testutil.WriteJSON(w, http.StatusOK, `{"trending":[
			{"artist":"aespa","track":"Supernova","score":98.5,"charts":{"melon":1,"genie":2},"image_url":"https://img/aespa.jpg"},
			{"artist":"IVE","track":"HEYA","score":90,"charts":{"melon":3}}
		]}`)
	})

	path := filepath.Join(t.TempDir(), "hybrid_data.json")
	out, err := execute(t, "--backend", mock.URL(), "snapshot", "build", "--out", path, "--limit", "20")
	require.NoError(t, err)
	assert.Contains(t, out, "Tracks: 2, with images: 1, charts: 2")

	snap, err := trending.ReadSnapshot(path)
	require.NoError(t, err)
	require.Len(t, snap.Trending, 2)
	assert.Equal(t, "live", snap.Meta.Source)
}

func TestSnapshotBuild_EmptyFeedKeepsFile(t *testing.T) {
	mock := newBackend(t)
	mock.On("/trending", func(w http.ResponseWriter, r *http.Request) {
		testutil.WriteJSON(w, http.StatusOK, `{"trending":[]}`)
	})

	path := filepath.Join(t.TempDir(), "hybrid_data.json")
	_, err := execute(t, "--backend", mock.URL(), "snapshot", "build", "--out", path)
	assert.ErrorContains(t, err, "empty")

	_, err = trending.ReadSnapshot(path)
	assert.Error(t, err)
}

func TestDedupList(t *testing.T) {
	mock := newBackend(t)
	mock.On("/admin/duplicates/potential", func(w http.ResponseWriter, r *http.Request) {
		testutil.WriteJSON(w, http.StatusOK, `{"groups":[{
			"group_id":"g1","unified_artist":"ILLIT","unified_track":"Magnetic",
			"members":[
				{"id":"101","chart_name":"melon","rank_position":1,"original_artist":"ILLIT","original_track":"Magnetic"},
				{"id":"102","chart_name":"melon","rank_position":2,"original_artist":"ILLIT","original_track":"Magnetic"}
			]}]}`)
	})

	out, err := execute(t, "--backend", mock.URL(), "dedup", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "ILLIT")
	assert.Contains(t, out, "1 groups")

	out, err = execute(t, "--backend", mock.URL(), "dedup", "list", "--json")
	require.NoError(t, err)
	var groups []models.DuplicateGroup
	require.NoError(t, json.Unmarshal([]byte(out), &groups))
	require.Len(t, groups, 1)
	assert.Equal(t, models.ClassClear, groups[0].Classification)

	out, err = execute(t, "--backend", mock.URL(), "dedup", "list", "--class", "legitimate")
	require.NoError(t, err)
	assert.Contains(t, out, "0 groups")
}

func TestDedupList_BackendDown(t *testing.T) {
	mock := newBackend(t)

	// unregistered paths return 404
	_, err := execute(t, "--backend", mock.URL(), "dedup", "list")
	assert.Error(t, err)
}
