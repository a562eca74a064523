package suggest

import (
	"sync"
	"time"
)

const defaultGateTTL = 10 * time.Minute

// Gate orders responses per session by request sequence number. A response
// may be applied only if its sequence is the newest one admitted for the
// session, so a slow early request can never overwrite a later one.
type Gate struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]*gateEntry
}

type gateEntry struct {
	latest  uint64 // highest sequence admitted
	applied uint64 // highest sequence applied
	touched time.Time
}

// NewGate creates a gate forgetting sessions idle for longer than ttl
func NewGate(ttl time.Duration) *Gate {
	if ttl <= 0 {
		ttl = defaultGateTTL
	}
	return &Gate{ttl: ttl, now: time.Now, sessions: make(map[string]*gateEntry)}
}

// Next allocates the next sequence number for session and admits it
func (g *Gate) Next(session string) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	e := g.entryLocked(session)
	e.latest++
	return e.latest
}

// Admit records a caller-supplied sequence number. It reports false when
// a newer request for the session has already been admitted.
func (g *Gate) Admit(session string, seq uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	e := g.entryLocked(session)
	if seq < e.latest {
		return false
	}
	e.latest = seq
	return true
}

// Apply reports whether a response for seq may be applied, and records it
// as applied when it may.
func (g *Gate) Apply(session string, seq uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	e := g.entryLocked(session)
	if seq != e.latest || seq < e.applied {
		return false
	}
	e.applied = seq
	return true
}

func (g *Gate) entryLocked(session string) *gateEntry {
	now := g.now()
	g.sweepLocked(now)

	e, ok := g.sessions[session]
	if !ok {
		e = &gateEntry{}
		g.sessions[session] = e
	}
	e.touched = now
	return e
}

func (g *Gate) sweepLocked(now time.Time) {
	if len(g.sessions) < 256 {
		return
	}
	for id, e := range g.sessions {
		if now.Sub(e.touched) > g.ttl {
			delete(g.sessions, id)
		}
	}
}
