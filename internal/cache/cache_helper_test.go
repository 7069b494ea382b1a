package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type cachedModule struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func newTestManager(t *testing.T) (*CacheManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCacheManager(client), mr
}

func TestCacheHelper_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	cm, mr := newTestManager(t)

	if err := cm.Module.Set(ctx, "id:1", cachedModule{ID: "1", Title: "Fire Safety"}, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if !mr.Exists("module:id:1") {
		t.Fatal("expected prefixed key module:id:1")
	}

	var got cachedModule
	if err := cm.Module.Get(ctx, "id:1", &got); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Title != "Fire Safety" {
		t.Errorf("Get() title = %q", got.Title)
	}

	if err := cm.Module.Delete(ctx, "id:1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := cm.Module.Get(ctx, "id:1", &got); !errors.Is(err, ErrCacheNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrCacheNotFound", err)
	}
}

func TestCacheHelper_CacheOrExecute(t *testing.T) {
	ctx := context.Background()
	cm, mr := newTestManager(t)

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return &cachedModule{ID: "2", Title: "Hand Hygiene"}, nil
	}

	var first cachedModule
	if err := cm.Module.CacheOrExecute(ctx, "id:2", &first, time.Minute, fetch); err != nil {
		t.Fatalf("CacheOrExecute() error = %v", err)
	}
	if first.Title != "Hand Hygiene" || calls != 1 {
		t.Fatalf("first call = %+v, calls = %d", first, calls)
	}

	// the set happens asynchronously
	deadline := time.Now().Add(2 * time.Second)
	for !mr.Exists("module:id:2") && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	var second cachedModule
	if err := cm.Module.CacheOrExecute(ctx, "id:2", &second, time.Minute, fetch); err != nil {
		t.Fatalf("CacheOrExecute() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("fetch called %d times, want 1", calls)
	}

	wantErr := errors.New("db down")
	var third cachedModule
	err := cm.Module.CacheOrExecute(ctx, "id:3", &third, time.Minute, func() (interface{}, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("CacheOrExecute() error = %v, want %v", err, wantErr)
	}
}

func TestInvalidateModuleCache(t *testing.T) {
	ctx := context.Background()
	cm, mr := newTestManager(t)

	for _, key := range []string{"id:7", "all", "list:a", "list:b", "id:8"} {
		if err := cm.Module.Set(ctx, key, "x", time.Minute); err != nil {
			t.Fatalf("Set(%s) error = %v", key, err)
		}
	}

	InvalidateModuleCache(ctx, cm, "7")

	for _, key := range []string{"module:id:7", "module:all", "module:list:a", "module:list:b"} {
		if mr.Exists(key) {
			t.Errorf("%s should be invalidated", key)
		}
	}
	if !mr.Exists("module:id:8") {
		t.Error("module:id:8 should survive")
	}
}

func TestCacheHelper_NilClient(t *testing.T) {
	ctx := context.Background()
	cm := NewCacheManager(nil)

	if cm.Available() {
		t.Fatal("Available() = true with nil client")
	}
	if err := cm.Module.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Errorf("Set() error = %v, want nil", err)
	}

	var dest string
	err := cm.Module.CacheOrExecute(ctx, "k", &dest, time.Minute, func() (interface{}, error) {
		return "fresh", nil
	})
	if err != nil || dest != "fresh" {
		t.Errorf("CacheOrExecute() = %q, %v", dest, err)
	}
}
