// Package trending serves the home page trending feed: a static snapshot
// first, then the live feed reconciled in the background.
package trending

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pdy7080/kpop-ranker-sub000/internal/models"
)

// State is the loader's position in the hybrid load sequence
type State string

const (
	StateIdle                 State = "idle"
	StateLoadingStatic        State = "loading_static"
	StateStaticLoaded         State = "static_loaded"
	StateStaticFailed         State = "static_failed"
	StateBackgroundRefreshing State = "background_refreshing"
	StateReconciled           State = "reconciled"
)

// Source provides the live trending feed
type Source interface {
	Trending(ctx context.Context, limit int) ([]models.TrendingTrack, error)
}

// Options configures a Loader
type Options struct {
	SnapshotPath    string
	Limit           int
	RefreshDelay    time.Duration // before the background refresh after Load
	RefreshInterval time.Duration // periodic refresh; 0 disables
}

// Loader runs the hybrid load and owns background refreshes
type Loader struct {
	source Source
	store  *Store
	opts   Options

	mu    sync.Mutex
	state State

	wg sync.WaitGroup
}

// NewLoader creates a loader publishing into store
func NewLoader(source Source, store *Store, opts Options) *Loader {
	if opts.RefreshDelay < 0 {
		opts.RefreshDelay = 0
	}
	return &Loader{source: source, store: store, opts: opts, state: StateIdle}
}

// Load returns the best data available now. A usable snapshot is returned
// immediately; otherwise the live feed is fetched synchronously. Either way
// a background refresh is scheduled, bound to ctx. Load never fails; the
// result may be empty.
func (l *Loader) Load(ctx context.Context) []models.TrendingTrack {
	l.setState(StateLoadingStatic)

	ticket := l.store.Ticket()
	if tracks, ok := l.readStatic(); ok {
		l.store.Publish(ticket, tracks)
		l.setState(StateStaticLoaded)
	} else {
		l.setState(StateStaticFailed)
		tracks, err := l.source.Trending(ctx, l.opts.Limit)
		switch {
		case err != nil:
			slog.Warn("Live trending fetch failed; serving empty feed", "error", err)
		case len(tracks) > 0:
			l.store.Publish(ticket, tracks)
		}
	}

	l.scheduleRefresh(ctx, l.opts.RefreshDelay)
	return l.store.Tracks()
}

// Refresh fetches the live feed and merges it into the store. A failed or
// empty fetch leaves the current list in place. It reports whether the
// store was updated.
func (l *Loader) Refresh(ctx context.Context) bool {
	ticket := l.store.Ticket()
	l.setState(StateBackgroundRefreshing)

	tracks, err := l.source.Trending(ctx, l.opts.Limit)
	if err != nil {
		slog.Warn("Background trending refresh failed", "error", err)
		l.setState(StateReconciled)
		return false
	}
	if len(tracks) == 0 {
		slog.Info("Background trending refresh returned no tracks; keeping current list")
		l.setState(StateReconciled)
		return false
	}

	updated := l.store.Apply(ticket, func(current []models.TrendingTrack) []models.TrendingTrack {
		return Merge(current, tracks)
	})
	if !updated {
		slog.Debug("Discarded stale trending refresh", "ticket", ticket)
	}
	l.setState(StateReconciled)
	return updated
}

// Start runs periodic refreshes until ctx is done, if an interval is set
func (l *Loader) Start(ctx context.Context) {
	if l.opts.RefreshInterval <= 0 {
		return
	}

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		ticker := time.NewTicker(l.opts.RefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.Refresh(ctx)
			}
		}
	}()
}

// Wait blocks until background work started by Load and Start has finished
func (l *Loader) Wait() {
	l.wg.Wait()
}

// State returns the loader's current state
func (l *Loader) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Store returns the store the loader publishes into
func (l *Loader) Store() *Store {
	return l.store
}

func (l *Loader) scheduleRefresh(ctx context.Context, delay time.Duration) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			l.Refresh(ctx)
		}
	}()
}

func (l *Loader) readStatic() ([]models.TrendingTrack, bool) {
	if l.opts.SnapshotPath == "" {
		return nil, false
	}
	start := time.Now()
	snap, err := ReadSnapshot(l.opts.SnapshotPath)
	if err != nil {
		slog.Warn("Static snapshot unavailable", "path", l.opts.SnapshotPath, "error", err)
		return nil, false
	}
	if len(snap.Trending) == 0 {
		slog.Warn("Static snapshot has no tracks", "path", l.opts.SnapshotPath)
		return nil, false
	}
	slog.Info("Loaded static snapshot", "tracks", len(snap.Trending), "generated_at", snap.Meta.GeneratedAt, "elapsed", time.Since(start))
	return snap.Trending, true
}

func (l *Loader) setState(s State) {
	l.mu.Lock()
	l.state = s
	l.mu.Unlock()
}
