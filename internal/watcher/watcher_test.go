package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestWatcher_Snapshot(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"foo.ts":         "export const x = 1;",
		"bar.txt":        "not ts",
		"types.d.ts":     "declare const y: number;",
		"sub/nested.tsx": "export {};",
	})

	w := New(Options{Dirs: []string{dir}, Extensions: []string{".ts", ".tsx"}}, nil)
	snap := w.snapshot()

	if len(snap) != 2 {
		t.Fatalf("expected 2 files in snapshot, got %d: %v", len(snap), snap)
	}
	for _, name := range []string{"foo.ts", "sub/nested.tsx"} {
		if _, ok := snap[filepath.Join(dir, name)]; !ok {
			t.Errorf("expected %s in snapshot", name)
		}
	}
}

func TestWatcher_SnapshotSkipsIgnoredDirs(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "dist")
	writeFiles(t, dir, map[string]string{
		"src/a.ts":                  "export {};",
		"node_modules/pkg/index.ts": "export {};",
		"dist/a.ts":                 "export {};",
	})

	w := New(Options{
		Dirs:       []string{dir},
		Extensions: []string{".ts"},
		IgnoreDirs: []string{"node_modules", outDir},
	}, nil)
	snap := w.snapshot()

	if len(snap) != 1 {
		t.Fatalf("expected only src/a.ts, got %v", snap)
	}
}

func TestDiff(t *testing.T) {
	now := time.Now()
	old := map[string]fileInfo{
		"/a.ts": {modTime: now, size: 10},
		"/b.ts": {modTime: now, size: 20},
		"/d.ts": {modTime: now, size: 5},
	}
	cur := map[string]fileInfo{
		"/a.ts": {modTime: now.Add(time.Second), size: 15},
		"/c.ts": {modTime: now, size: 30},
		"/d.ts": {modTime: now, size: 5},
	}
	want := []Event{
		{Path: "/a.ts", Op: OpWrite},
		{Path: "/b.ts", Op: OpRemove},
		{Path: "/c.ts", Op: OpCreate},
	}
	if d := cmp.Diff(want, diff(old, cur)); d != "" {
		t.Errorf("events (-want +got):\n%s", d)
	}
}

func TestDiff_NoChange(t *testing.T) {
	snap := map[string]fileInfo{"/a.ts": {modTime: time.Now(), size: 10}}
	if events := diff(snap, snap); len(events) != 0 {
		t.Errorf("expected 0 events, got %v", events)
	}
}

func TestWatcher_WatchReportsChange(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"a.ts": "export const a = 1;"})

	got := make(chan []Event, 1)
	w := New(Options{
		Dirs:         []string{dir},
		Extensions:   []string{".ts"},
		Debounce:     10 * time.Millisecond,
		PollInterval: 10 * time.Millisecond,
	}, func(events []Event) {
		select {
		case got <- events:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx) }()

	time.Sleep(50 * time.Millisecond)
	writeFiles(t, dir, map[string]string{"b.ts": "export const b = 2;"})

	select {
	case events := <-got:
		if len(events) == 0 || events[0].Path != filepath.Join(dir, "b.ts") || events[0].Op != OpCreate {
			t.Errorf("unexpected events %v", events)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch returned %v", err)
	}
}

func TestWatcher_BatchesDoNotOverlap(t *testing.T) {
	var active, maxActive atomic.Int32
	calls := make(chan []Event, 2)
	w := New(Options{Debounce: time.Millisecond}, func(events []Event) {
		n := active.Add(1)
		if n > maxActive.Load() {
			maxActive.Store(n)
		}
		time.Sleep(100 * time.Millisecond)
		active.Add(-1)
		calls <- events
	})

	w.schedule([]Event{{Path: "/a.ts", Op: OpWrite}})
	time.Sleep(30 * time.Millisecond)
	w.schedule([]Event{{Path: "/b.ts", Op: OpWrite}})

	var got []string
	for range 2 {
		select {
		case events := <-calls:
			for _, e := range events {
				got = append(got, e.Path)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for batches")
		}
	}
	if m := maxActive.Load(); m != 1 {
		t.Errorf("onChange ran %d times concurrently, want 1", m)
	}
	if d := cmp.Diff([]string{"/a.ts", "/b.ts"}, got); d != "" {
		t.Errorf("delivered paths (-want +got):\n%s", d)
	}
}
