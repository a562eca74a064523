package trending

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdy7080/kpop-ranker-sub000/internal/models"
	"github.com/pdy7080/kpop-ranker-sub000/internal/testutil"
)

func TestStore_RejectsStaleTickets(t *testing.T) {
	s := NewStore()

	older := s.Ticket()
	newer := s.Ticket()

	require.True(t, s.Publish(newer, []models.TrendingTrack{testutil.TrendingTrack("new", "1", 1, "")}))
	assert.False(t, s.Publish(older, []models.TrendingTrack{testutil.TrendingTrack("old", "1", 1, "")}))

	view := s.View()
	assert.Equal(t, newer, view.Version)
	require.Len(t, view.Tracks, 1)
	assert.Equal(t, "new", view.Tracks[0].Artist)
}

func TestStore_EmptyViewIsNotNil(t *testing.T) {
	view := NewStore().View()
	assert.NotNil(t, view.Tracks)
	assert.Equal(t, uint64(0), view.Version)
}

func TestStore_TracksAreCopies(t *testing.T) {
	s := NewStore()
	s.Publish(s.Ticket(), []models.TrendingTrack{testutil.TrendingTrack("A", "1", 1, "")})

	tracks := s.Tracks()
	tracks[0].Artist = "mutated"
	tracks[0].Charts["x"] = 1

	again := s.Tracks()
	assert.Equal(t, "A", again[0].Artist)
	assert.NotContains(t, again[0].Charts, "x")
}

func TestStore_Subscribe(t *testing.T) {
	s := NewStore()
	updates, cancel := s.Subscribe()

	s.Publish(s.Ticket(), []models.TrendingTrack{testutil.TrendingTrack("A", "1", 1, "")})
	s.Publish(s.Ticket(), []models.TrendingTrack{testutil.TrendingTrack("B", "2", 1, "")})

	select {
	case view := <-updates:
		// a slow subscriber sees only the latest view
		assert.Equal(t, uint64(2), view.Version)
		assert.Equal(t, "B", view.Tracks[0].Artist)
	case <-time.After(time.Second):
		t.Fatal("no update received")
	}

	cancel()
	_, open := <-updates
	assert.False(t, open)
	cancel()

	assert.True(t, s.Publish(s.Ticket(), nil), "publishing after unsubscribe must not block")
}
