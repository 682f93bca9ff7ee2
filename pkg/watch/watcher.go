// Package watch reloads the graph when its snapshot file or directory
// changes on disk.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dd0wney/cluso-grc-explorer/pkg/logging"
)

// DefaultDebounce coalesces bursts of writes from editors and copy tools
const DefaultDebounce = 500 * time.Millisecond

// Stats counts watcher activity
type Stats struct {
	Events   int
	Triggers int
	Errors   int
	LastPath string
	LastFire time.Time
}

// Watcher calls a reload function once a burst of changes to the watched
// snapshot has settled
type Watcher struct {
	path     string
	dir      bool
	debounce time.Duration
	onChange func(ctx context.Context) error
	logger   logging.Logger

	mu    sync.Mutex
	stats Stats
}

// New watches path, a snapshot file or a graph directory. onChange runs on
// the watcher goroutine; a returned error is logged and watching continues.
func New(path string, debounce time.Duration, onChange func(ctx context.Context) error, logger logging.Logger) (*Watcher, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Watcher{
		path:     filepath.Clean(path),
		dir:      info.IsDir(),
		debounce: debounce,
		onChange: onChange,
		logger:   logger.With(logging.Component("watch"), logging.Path(path)),
	}, nil
}

// Stats returns a copy of the activity counters
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

// relevant reports whether an event concerns the snapshot. Files are watched
// through their parent directory so atomic renames are seen.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
		return false
	}
	name := filepath.Clean(ev.Name)
	if w.dir {
		return strings.HasSuffix(name, ".json")
	}
	return name == w.path
}

// Run watches until ctx is done
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	target := w.path
	if !w.dir {
		target = filepath.Dir(w.path)
	}
	if err := fw.Add(target); err != nil {
		return fmt.Errorf("watch %s: %w", target, err)
	}
	w.logger.Info("watching snapshot for changes", logging.Duration("debounce", w.debounce))

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			w.mu.Lock()
			w.stats.Events++
			w.stats.LastPath = ev.Name
			w.mu.Unlock()
			w.logger.Debug("snapshot event", logging.String("op", ev.Op.String()), logging.Path(ev.Name))
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()
			w.logger.Warn("watcher error", logging.Error(err))

		case <-timer.C:
			w.mu.Lock()
			w.stats.Triggers++
			w.stats.LastFire = time.Now()
			w.mu.Unlock()
			if err := w.onChange(ctx); err != nil {
				w.logger.Error("reload after change failed", logging.Error(err))
			}
		}
	}
}
