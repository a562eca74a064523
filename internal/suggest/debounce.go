package suggest

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pdy7080/kpop-ranker-sub000/internal/models"
)

// DefaultDebounce is the quiet interval before a query is sent
const DefaultDebounce = 300 * time.Millisecond

// FetchFunc resolves one query into suggestions
type FetchFunc func(ctx context.Context, query string) []models.Suggestion

// Result is an applied suggestion list
type Result struct {
	Seq         uint64              `json:"seq"`
	Query       string              `json:"query"`
	Suggestions []models.Suggestion `json:"suggestions"`
}

// Debouncer coalesces rapid query updates. Each Submit restarts the quiet
// interval and cancels whatever request is still in flight; a response is
// applied only if no newer query was submitted while it ran.
type Debouncer struct {
	fetch   FetchFunc
	delay   time.Duration
	onApply func(Result)
	gate    *Gate

	mu      sync.Mutex
	timer   *time.Timer
	cancel  context.CancelFunc
	current Result
}

// NewDebouncer creates a debouncer. onApply, if set, is called after each
// applied result, outside the debouncer's lock.
func NewDebouncer(delay time.Duration, fetch FetchFunc, onApply func(Result)) *Debouncer {
	if delay < 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{
		fetch:   fetch,
		delay:   delay,
		onApply: onApply,
		gate:    NewGate(0),
	}
}

// Submit schedules query and returns its sequence number
func (d *Debouncer) Submit(ctx context.Context, query string) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	seq := d.gate.Next("")
	d.stopLocked()

	if strings.TrimSpace(query) == "" {
		// Nothing to look up; clear immediately
		d.applyLocked(Result{Seq: seq, Query: query, Suggestions: []models.Suggestion{}})
		return seq
	}

	reqCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.timer = time.AfterFunc(d.delay, func() {
		d.run(reqCtx, seq, query)
	})
	return seq
}

func (d *Debouncer) run(ctx context.Context, seq uint64, query string) {
	if ctx.Err() != nil {
		return
	}
	suggestions := d.fetch(ctx, query)

	d.mu.Lock()
	if ctx.Err() != nil || !d.gate.Apply("", seq) {
		d.mu.Unlock()
		return
	}
	result := Result{Seq: seq, Query: query, Suggestions: suggestions}
	d.current = result
	d.mu.Unlock()

	if d.onApply != nil {
		d.onApply(result)
	}
}

func (d *Debouncer) applyLocked(result Result) {
	d.gate.Apply("", result.Seq)
	d.current = result
	if d.onApply != nil {
		go d.onApply(result)
	}
}

// Current returns the most recently applied result
func (d *Debouncer) Current() Result {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

// Stop cancels any pending or in-flight request
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
}

func (d *Debouncer) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}
