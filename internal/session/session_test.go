// ABOUTME: Tests for the session store and its backends
// ABOUTME: Uses temp dirs for the file backend and miniredis for Redis

package session

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func backends(t *testing.T) map[string]Backend {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return map[string]Backend{
		"memory": NewMemoryBackend(),
		"file":   NewFileBackend(t.TempDir(), "default"),
		"redis":  NewRedisBackend(rdb, "default", 0),
	}
}

func TestStore_SetThenGet(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := New(backend, nil)

			if err := s.Set(PatchFromLogin("tok", "alice", "Alice", "admin")); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			got := s.Get()
			if got.Token != "tok" || got.Username != "alice" || got.Nickname != "Alice" || got.RoleName != "admin" {
				t.Errorf("unexpected session: %+v", got)
			}
			if !got.Authenticated() {
				t.Error("expected authenticated session")
			}
		})
	}
}

func TestStore_PatchFromLoginSkipsEmptyFields(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := New(backend, nil)
			_ = s.Set(PatchFromLogin("old", "alice", "Alice", "admin"))

			_ = s.Set(PatchFromLogin("new", "", "", ""))

			got := s.Get()
			if got.Token != "new" {
				t.Errorf("expected token new, got %s", got.Token)
			}
			if got.Nickname != "Alice" {
				t.Errorf("expected nickname to survive, got %q", got.Nickname)
			}
		})
	}
}

func TestStore_ClearRemovesEveryOwnedKey(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := New(backend, nil)
			_ = s.Set(PatchFromLogin("tok", "alice", "Alice", "admin"))
			_ = s.Set(ViewPatch("SYSTEM_USERS"))

			if err := s.Clear(); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got := s.Get(); got != (Session{}) {
				t.Errorf("expected empty session, got %+v", got)
			}
			values, _ := backend.Load()
			for _, k := range Keys {
				if _, ok := values[k]; ok {
					t.Errorf("expected key %s to be removed", k)
				}
			}
		})
	}
}

func TestStore_ClearIsIdempotent(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := New(backend, nil)
			if err := s.Clear(); err != nil {
				t.Fatalf("unexpected error on empty clear: %v", err)
			}
			if err := s.Clear(); err != nil {
				t.Fatalf("unexpected error on second clear: %v", err)
			}
		})
	}
}

func TestStore_ClearLeavesForeignKeys(t *testing.T) {
	backend := NewMemoryBackend()
	backend.Put("theme", "dark")
	s := New(backend, nil)
	_ = s.Set(PatchFromLogin("tok", "alice", "", ""))

	_ = s.Clear()

	if v, ok := backend.Raw("theme"); !ok || v != "dark" {
		t.Errorf("expected foreign key to survive clear, got %q %v", v, ok)
	}
}

func TestStore_ReadsThroughToBackend(t *testing.T) {
	backend := NewMemoryBackend()
	s := New(backend, nil)
	_ = s.Set(PatchFromLogin("tok", "", "", ""))

	backend.Delete(KeyToken)

	if s.Get().Token != "" {
		t.Error("expected store to observe backend change without caching")
	}
}

func TestStore_EmptyPatchIsNoop(t *testing.T) {
	s := New(NewMemoryBackend(), nil)
	if err := s.Set(Patch{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Get() != (Session{}) {
		t.Error("expected empty session")
	}
}

func TestStore_ConcurrentWriters(t *testing.T) {
	s := New(NewFileBackend(t.TempDir(), "race"), nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Set(ViewPatch("DASHBOARD"))
			_ = s.Get()
		}()
	}
	wg.Wait()

	if s.Get().CurrentView != "DASHBOARD" {
		t.Errorf("expected view DASHBOARD, got %q", s.Get().CurrentView)
	}
}

func TestFileBackend_SurvivesNewInstance(t *testing.T) {
	dir := t.TempDir()
	_ = New(NewFileBackend(dir, "ops"), nil).Set(PatchFromLogin("tok", "alice", "", ""))

	got := New(NewFileBackend(dir, "ops"), nil).Get()
	if got.Token != "tok" {
		t.Errorf("expected token to persist, got %q", got.Token)
	}

	other := New(NewFileBackend(dir, "staging"), nil).Get()
	if other.Token != "" {
		t.Error("expected profiles to be isolated")
	}
}

func TestFileBackend_FilePermissions(t *testing.T) {
	b := NewFileBackend(t.TempDir(), "default")
	_ = b.Save(map[Key]string{KeyToken: "tok"})

	info, err := os.Stat(b.Path())
	if err != nil {
		t.Fatalf("expected session file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("expected 0600, got %o", perm)
	}
}

func TestFileBackend_RemovesFileWhenEmpty(t *testing.T) {
	b := NewFileBackend(t.TempDir(), "default")
	_ = b.Save(map[Key]string{KeyToken: "tok"})

	_ = b.Delete(Keys...)

	if _, err := os.Stat(b.Path()); !os.IsNotExist(err) {
		t.Errorf("expected session file to be removed, got %v", err)
	}
}

func TestFileBackend_CorruptFileReadsEmpty(t *testing.T) {
	dir := t.TempDir()
	b := NewFileBackend(dir, "default")
	os.MkdirAll(filepath.Dir(b.Path()), 0700)
	os.WriteFile(b.Path(), []byte("{not json"), 0600)

	values, err := b.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(values) != 0 {
		t.Errorf("expected empty values, got %v", values)
	}
}

func TestFileBackend_IgnoresUnknownKeys(t *testing.T) {
	b := NewFileBackend(t.TempDir(), "default")
	_ = b.Save(map[Key]string{"other": "x", KeyToken: "tok"})

	values, _ := b.Load()
	if _, ok := values["other"]; ok {
		t.Error("expected unknown key to be ignored")
	}
}

func TestDefaultConfigDir_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if got := DefaultConfigDir(); got != "/tmp/xdg/quebec" {
		t.Errorf("expected /tmp/xdg/quebec, got %s", got)
	}
}

func TestRedisBackend_UsesProfileHashAndTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	b := NewRedisBackend(rdb, "ops", time.Hour)
	if err := b.Save(map[Key]string{KeyToken: "tok"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := mr.HGet("quebec:session:ops", string(KeyToken)); got != "tok" {
		t.Errorf("expected token in hash, got %q", got)
	}
	if ttl := mr.TTL("quebec:session:ops"); ttl != time.Hour {
		t.Errorf("expected ttl 1h, got %v", ttl)
	}
}

func TestRedisBackend_SharedAcrossStores(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	first := New(NewRedisBackend(rdb, "shared", 0), nil)
	second := New(NewRedisBackend(rdb, "shared", 0), nil)

	_ = first.Set(PatchFromLogin("tok", "alice", "", ""))
	if second.Get().Token != "tok" {
		t.Error("expected second store to see shared token")
	}

	_ = second.Clear()
	if first.Get().Authenticated() {
		t.Error("expected first store to observe clear")
	}
}

func TestRedisBackend_LoadErrorReadsEmpty(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	s := New(NewRedisBackend(rdb, "down", 0), nil)
	_ = s.Set(PatchFromLogin("tok", "", "", ""))
	mr.Close()

	if s.Get().Authenticated() {
		t.Error("expected unreachable backend to read as unauthenticated")
	}
}

func TestRedisBackend_SaveFailsWithinOpTimeout(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()

	b := NewRedisBackend(rdb, "down", 0)
	mr.Close()

	start := time.Now()
	if err := b.Save(map[Key]string{KeyToken: "tok"}); err == nil {
		t.Fatal("expected error from unreachable redis")
	}
	if elapsed := time.Since(start); elapsed > redisOpTimeout+time.Second {
		t.Errorf("expected save to give up within %v, took %v", redisOpTimeout, elapsed)
	}
}
