package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherDebouncesFileBursts(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := StartWatcher(ctx, WatchConfig{
		Roots:    []string{dir},
		Debounce: 5 * time.Millisecond,
	}, nil)
	if err != nil {
		t.Fatalf("StartWatcher: %v", err)
	}

	want := map[string]bool{}
	for i := 0; i < 8; i++ {
		p := filepath.Join(dir, fmt.Sprintf("doc-%d.pdf", i))
		if err := os.WriteFile(p, []byte("%PDF-1.4"), 0o644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
		want[p] = false
	}

	remaining := len(want)
	deadline := time.After(3 * time.Second)
	for remaining > 0 {
		select {
		case p := <-events:
			if seen, ok := want[p]; ok && !seen {
				want[p] = true
				remaining--
			}
		case <-deadline:
			t.Fatalf("timed out, %d paths never emitted: %v", remaining, want)
		}
	}
}

func TestWatcherInitialScanEmitsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "existing.pdf")
	if err := os.WriteFile(p, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := StartWatcher(ctx, WatchConfig{
		Roots:       []string{dir},
		InitialScan: true,
	}, nil)
	if err != nil {
		t.Fatalf("StartWatcher: %v", err)
	}

	select {
	case got := <-events:
		if got != p {
			t.Errorf("event = %q, want %q", got, p)
		}
	case <-time.After(time.Second):
		t.Fatalf("initial scan emitted nothing")
	}
}

func TestWatcherIgnoresUnsupportedExtensions(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{dir}}, nil)
	if err != nil {
		t.Fatalf("StartWatcher: %v", err)
	}

	ignored := filepath.Join(dir, "notes.txt")
	wanted := filepath.Join(dir, "scan.pdf")
	if err := os.WriteFile(ignored, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(wanted, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case got := <-events:
		if got != wanted {
			t.Errorf("event = %q, want only %q", got, wanted)
		}
	case <-time.After(time.Second):
		t.Fatalf("no event for %q", wanted)
	}
}

func TestWatcherRequiresRoots(t *testing.T) {
	_, _, err := StartWatcher(context.Background(), WatchConfig{}, nil)
	if err == nil {
		t.Fatalf("expected error for empty roots")
	}
}
