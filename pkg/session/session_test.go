package session

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/linkatlas/pkg/view"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return map[string]Store{
		"memory": NewMemoryStore(),
		"file":   fs,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			s := New(view.Collapsed, time.Hour)
			if err := s.Pin("link:3", 4, 5); err != nil {
				t.Fatal(err)
			}
			if err := store.Set(ctx, s); err != nil {
				t.Fatalf("Set: %v", err)
			}

			got, err := store.Get(ctx, s.ID)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if got.Mode != view.Collapsed || got.Pins["link:3"].Y != 5 || got.TTL != time.Hour {
				t.Errorf("Get = %+v", got)
			}

			if err := store.Delete(ctx, s.ID); err != nil {
				t.Fatal(err)
			}
			if _, err := store.Get(ctx, s.ID); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get after Delete = %v", err)
			}
		})
	}
}

func TestStoreUpdate(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			s := New(view.Detailed, time.Hour)
			_ = store.Set(ctx, s)
			before := s.ExpiresAt

			time.Sleep(2 * time.Millisecond)
			got, err := store.Update(ctx, s.ID, func(s *Session) error {
				s.Toggle()
				return s.Pin("artifact:Sky", 1, 2)
			})
			if err != nil {
				t.Fatalf("Update: %v", err)
			}
			if got.Mode != view.Collapsed || len(got.Pins) != 1 {
				t.Errorf("Update = %+v", got)
			}
			if !got.ExpiresAt.After(before) {
				t.Error("Update did not extend expiry")
			}

			stored, _ := store.Get(ctx, s.ID)
			if stored.Mode != view.Collapsed {
				t.Error("update not persisted")
			}

			boom := errors.New("boom")
			if _, err := store.Update(ctx, s.ID, func(s *Session) error {
				s.Toggle()
				return boom
			}); !errors.Is(err, boom) {
				t.Errorf("Update error = %v", err)
			}
			stored, _ = store.Get(ctx, s.ID)
			if stored.Mode != view.Collapsed {
				t.Error("failed update was persisted")
			}

			if _, err := store.Update(ctx, "0b4c9a43-1111-4a5e-9f0e-000000000000", func(*Session) error { return nil }); !errors.Is(err, ErrNotFound) {
				t.Errorf("Update(missing) = %v", err)
			}
		})
	}
}

func TestStoreExpiry(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			s := New(view.Detailed, time.Hour)
			s.ExpiresAt = time.Now().Add(-time.Minute)
			_ = store.Set(ctx, s)

			if _, err := store.Get(ctx, s.ID); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get(expired) = %v", err)
			}
			if err := store.Cleanup(ctx); err != nil {
				t.Fatal(err)
			}
		})
	}
}

func TestMemoryStoreIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	s := New(view.Detailed, 0)
	_ = store.Set(ctx, s)

	got, _ := store.Get(ctx, s.ID)
	_ = got.Pin("link:0", 1, 1)
	again, _ := store.Get(ctx, s.ID)
	if len(again.Pins) != 0 {
		t.Error("Get returned a shared session")
	}
}

func TestMemoryStoreConcurrentUpdate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	s := New(view.Detailed, 0)
	_ = store.Set(ctx, s)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.Update(ctx, s.ID, func(s *Session) error {
				s.Toggle()
				return nil
			})
		}()
	}
	wg.Wait()

	got, _ := store.Get(ctx, s.ID)
	if got.Mode != view.Detailed {
		t.Errorf("mode after 50 toggles = %v", got.Mode)
	}
}

func TestMemoryStoreCleanup(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	old := New(view.Detailed, 0)
	old.ExpiresAt = time.Now().Add(-time.Second)
	_ = store.Set(ctx, old)
	_ = store.Set(ctx, New(view.Detailed, 0))

	_ = store.Cleanup(ctx)
	if store.Len() != 1 {
		t.Errorf("Len = %d after Cleanup, want 1", store.Len())
	}
}

func TestFileStoreRejectsTraversal(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, _ := NewFileStore(filepath.Join(dir, "sessions"))
	if err := os.WriteFile(filepath.Join(dir, "secret.json"), []byte(`{"id":"x"}`), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Get(ctx, "../secret"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(../secret) = %v", err)
	}
}

func TestSessionJSON(t *testing.T) {
	s := New(view.Collapsed, time.Minute)
	_ = s.Pin("link:1", 3, 4)
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	_ = json.Unmarshal(data, &m)
	if m["mode"] != "collapsed" || m["id"] != s.ID {
		t.Errorf("session JSON = %s", data)
	}
	if _, ok := m["pins"].(map[string]any)["link:1"]; !ok {
		t.Errorf("pins missing from %s", data)
	}
}

func TestRedisEncode(t *testing.T) {
	s := New(view.Detailed, time.Hour)
	data, ttl, err := encode(s)
	if err != nil {
		t.Fatal(err)
	}
	if ttl <= 59*time.Minute || ttl > time.Hour {
		t.Errorf("ttl = %v", ttl)
	}
	back, err := decode(data)
	if err != nil || back.ID != s.ID {
		t.Errorf("decode = %+v, %v", back, err)
	}

	s.ExpiresAt = time.Now().Add(-time.Second)
	if _, ttl, _ := encode(s); ttl != time.Second {
		t.Errorf("expired ttl = %v, want 1s", ttl)
	}
	data, _, _ = encode(s)
	if _, err := decode(data); !errors.Is(err, ErrNotFound) {
		t.Errorf("decode(expired) = %v", err)
	}

	r := NewRedisStoreFromClient(redis.NewClient(&redis.Options{}), "")
	defer r.Close()
	if got := r.key("abc"); got != "linkatlas:session:abc" {
		t.Errorf("key = %s", got)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	if s, err := Open(ctx, Config{}); err != nil {
		t.Fatal(err)
	} else if _, ok := s.(*MemoryStore); !ok {
		t.Errorf("default backend = %T", s)
	}
	if s, err := Open(ctx, Config{Backend: BackendFile, Dir: t.TempDir()}); err != nil {
		t.Fatal(err)
	} else if _, ok := s.(*FileStore); !ok {
		t.Errorf("file backend = %T", s)
	}
	if _, err := Open(ctx, Config{Backend: "etcd"}); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("Open(etcd) = %v", err)
	}
}
