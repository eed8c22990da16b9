package watcher

import (
	"context"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
)

// Op is the kind of change observed for a path.
type Op string

const (
	OpCreate Op = "create"
	OpWrite  Op = "write"
	OpRemove Op = "remove"
)

// Event represents a file change event.
type Event struct {
	Path string
	Op   Op
}

// DefaultPollInterval is the default polling interval for file change detection.
const DefaultPollInterval = 500 * time.Millisecond

// DefaultDebounce groups bursts of saves into one rebuild.
const DefaultDebounce = 100 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	Dirs       []string
	Extensions []string // e.g. [".ts", ".tsx"]
	// IgnoreDirs are directory base names (e.g. "node_modules") or absolute
	// paths (e.g. the build outDir) that are never descended into.
	IgnoreDirs   []string
	Debounce     time.Duration
	PollInterval time.Duration
}

// Watcher polls directories for source changes and reports them in
// debounced batches.
type Watcher struct {
	opts     Options
	onChange func(events []Event)

	mu      sync.Mutex
	pending []Event
	timer   *time.Timer

	// held while onChange runs
	running sync.Mutex
}

// New creates a new file watcher. Zero durations fall back to the defaults.
func New(opts Options, onChange func(events []Event)) *Watcher {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	return &Watcher{opts: opts, onChange: onChange}
}

// Watch polls until ctx is done. onChange runs on a timer goroutine and
// never concurrently with itself: changes seen while it runs are delivered
// in the next batch once it returns.
func (w *Watcher) Watch(ctx context.Context) error {
	snapshot := w.snapshot()

	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
			}
			w.mu.Unlock()
			return nil
		case <-ticker.C:
			next := w.snapshot()
			if events := diff(snapshot, next); len(events) > 0 {
				w.schedule(events)
			}
			snapshot = next
		}
	}
}

func (w *Watcher) schedule(events []Event) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = append(w.pending, events...)
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.opts.Debounce, w.flush)
}

// flush delivers the pending batch, waiting for a running onChange first.
func (w *Watcher) flush() {
	w.running.Lock()
	defer w.running.Unlock()

	w.mu.Lock()
	pending := w.pending
	w.pending = nil
	w.mu.Unlock()
	if len(pending) > 0 {
		w.onChange(pending)
	}
}

type fileInfo struct {
	modTime time.Time
	size    int64
}

func (w *Watcher) ignored(path string) bool {
	base := filepath.Base(path)
	for _, ig := range w.opts.IgnoreDirs {
		if ig == base || ig == path {
			return true
		}
	}
	return false
}

func (w *Watcher) snapshot() map[string]fileInfo {
	snap := make(map[string]fileInfo)
	for _, dir := range w.opts.Dirs {
		_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() {
				if path != dir && w.ignored(path) {
					return filepath.SkipDir
				}
				return nil
			}
			if !slices.Contains(w.opts.Extensions, filepath.Ext(path)) || strings.HasSuffix(path, ".d.ts") {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return nil
			}
			snap[path] = fileInfo{modTime: info.ModTime(), size: info.Size()}
			return nil
		})
	}
	return snap
}

// diff returns the changes from old to cur sorted by path.
func diff(old, cur map[string]fileInfo) []Event {
	var events []Event
	for path, now := range cur {
		if before, ok := old[path]; ok {
			if !now.modTime.Equal(before.modTime) || now.size != before.size {
				events = append(events, Event{Path: path, Op: OpWrite})
			}
		} else {
			events = append(events, Event{Path: path, Op: OpCreate})
		}
	}
	for path := range old {
		if _, ok := cur[path]; !ok {
			events = append(events, Event{Path: path, Op: OpRemove})
		}
	}
	slices.SortFunc(events, func(a, b Event) int { return strings.Compare(a.Path, b.Path) })
	return events
}
