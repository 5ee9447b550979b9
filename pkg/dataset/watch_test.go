package dataset

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const oneGame = `
[[minor]]
name = "gifting"

[[artifact]]
name = "Sky"
developers = "thatgamecompany"
links = ["gifting"]
`

func TestWatcherReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "atlas.toml")
	if err := os.WriteFile(path, []byte(oneGame), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(path)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	w.Debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	// Give the watcher a moment to register the directory.
	time.Sleep(100 * time.Millisecond)

	next := oneGame + `
[[artifact]]
name = "Journey"
developers = "thatgamecompany"
links = ["gifting"]
`
	if err := os.WriteFile(path, []byte(next), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case r := <-w.Reloads:
		if r.Err != nil {
			t.Fatalf("reload error: %v", r.Err)
		}
		if n := len(r.Atlas.Artifacts()); n != 2 {
			t.Errorf("artifacts = %d, want 2", n)
		}
		if r.Fingerprint == "" {
			t.Error("empty fingerprint")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload within 5s")
	}

	if err := os.WriteFile(path, []byte("[[artifact]]\nname = \"Sky\"\nlinks = [\"missing\"]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case r := <-w.Reloads:
		if r.Err == nil {
			t.Error("want reload error for invalid dataset")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload within 5s")
	}
}

func TestWatcherIgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "atlas.toml")
	if err := os.WriteFile(path, []byte(oneGame), 0o644); err != nil {
		t.Fatal(err)
	}
	w, err := NewWatcher(path)
	if err != nil {
		t.Fatal(err)
	}
	w.Debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case r := <-w.Reloads:
		t.Errorf("unexpected reload: %+v", r)
	case <-time.After(300 * time.Millisecond):
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() = %v", err)
	}
	if _, ok := <-w.Reloads; ok {
		t.Error("Reloads not closed after Run returned")
	}
}
