package trending

import (
	"sync"
	"time"

	"github.com/pdy7080/kpop-ranker-sub000/internal/models"
)

// View is one published state of the trending feed
type View struct {
	Version   uint64                 `json:"version"`
	Tracks    []models.TrendingTrack `json:"tracks"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// Store holds the displayed trending list. Writers take a ticket before
// they start fetching and publish with it; a publish carrying a ticket
// older than the last published one is rejected, so a slow fetch can never
// overwrite a newer result.
type Store struct {
	mu        sync.Mutex
	issued    uint64
	published uint64
	tracks    []models.TrendingTrack
	updatedAt time.Time

	subs   map[int]chan View
	nextID int
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{subs: make(map[int]chan View)}
}

// Ticket reserves the next version number
func (s *Store) Ticket() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// Publish replaces the list. It reports false for a stale ticket.
func (s *Store) Publish(ticket uint64, tracks []models.TrendingTrack) bool {
	return s.Apply(ticket, func([]models.TrendingTrack) []models.TrendingTrack { return tracks })
}

// Apply computes the new list from the current one under the store lock.
// It reports false for a stale ticket, leaving the list untouched.
func (s *Store) Apply(ticket uint64, fn func(current []models.TrendingTrack) []models.TrendingTrack) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ticket <= s.published {
		return false
	}
	s.tracks = cloneTracks(fn(cloneTracks(s.tracks)))
	s.published = ticket
	s.updatedAt = time.Now()

	// Sends never block; a subscriber that is behind only sees the latest view
	view := s.viewLocked()
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- view
	}
	return true
}

// View returns the current state
func (s *Store) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Tracks returns a copy of the current list
func (s *Store) Tracks() []models.TrendingTrack {
	return s.View().Tracks
}

// Subscribe returns a channel receiving each published view and a function
// to cancel the subscription.
func (s *Store) Subscribe() (<-chan View, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	ch := make(chan View, 1)
	s.subs[id] = ch
	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(ch)
		}
	}
}

func (s *Store) viewLocked() View {
	tracks := cloneTracks(s.tracks)
	if tracks == nil {
		tracks = []models.TrendingTrack{}
	}
	return View{Version: s.published, Tracks: tracks, UpdatedAt: s.updatedAt}
}
