package aliases

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// fileFormat is the on-disk TOML layout:
//
//	[artists]
//	"뉴진스" = "NewJeans"
type fileFormat struct {
	Artists map[string]string `toml:"artists"`
}

// LoadFile builds a table from the built-in aliases overlaid with path.
// A missing file yields the built-in table without error.
func LoadFile(path string) (*Table, error) {
	base := Default()
	if path == "" {
		return base, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return base, nil
		}
		return nil, fmt.Errorf("failed to read aliases file: %w", err)
	}

	var f fileFormat
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse aliases file %s: %w", path, err)
	}

	return base.With(f.Artists), nil
}

// Watcher holds the current alias table and reloads it when the backing
// file changes. Readers call Current; each reload swaps in a new Table.
type Watcher struct {
	path    string
	current atomic.Pointer[Table]

	mu      sync.Mutex // serialises reloads
	modTime time.Time
}

// NewWatcher loads path once and returns a watcher serving the result
func NewWatcher(path string) (*Watcher, error) {
	w := &Watcher{path: path}
	if _, err := w.Refresh(); err != nil {
		return nil, err
	}
	return w, nil
}

// Current returns the table in effect
func (w *Watcher) Current() *Table {
	return w.current.Load()
}

// Refresh reloads the file and returns the new table. On error the previous
// table stays in effect.
func (w *Watcher) Refresh() (*Table, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	table, err := LoadFile(w.path)
	if err != nil {
		return nil, err
	}
	if w.path != "" {
		if fi, err := os.Stat(w.path); err == nil {
			w.modTime = fi.ModTime()
		}
	}
	w.current.Store(table)
	return table, nil
}

// Start polls the aliases file for changes until ctx is done. It is a no-op
// when no file is configured.
func (w *Watcher) Start(ctx context.Context, interval time.Duration) {
	if w.path == "" || interval <= 0 {
		slog.Info("Aliases watcher disabled; using loaded table", "aliases", w.Current().Len())
		return
	}

	slog.Info("Aliases watcher: watching file", "path", w.path)

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				slog.Info("Aliases watcher: stopped")
				return
			case <-ticker.C:
				if !w.changed() {
					continue
				}
				prev := w.Current()
				table, err := w.Refresh()
				if err != nil {
					slog.Warn("Aliases reload failed; keeping previous table", "path", w.path, "error", err)
					continue
				}
				added, removed := Diff(prev, table)
				slog.Info("Aliases reloaded", "path", w.path, "aliases", table.Len(), "added", added, "removed", removed)
			}
		}
	}()
}

func (w *Watcher) changed() bool {
	fi, err := os.Stat(w.path)
	if err != nil || fi.IsDir() {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return fi.ModTime().After(w.modTime)
}
