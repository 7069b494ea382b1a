package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLimiter(t *testing.T, limit int) (*FixedWindowLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	limiter, err := NewFixedWindowLimiter(client, "test", limit, time.Minute)
	if err != nil {
		t.Fatalf("NewFixedWindowLimiter() error = %v", err)
	}
	return limiter, mr
}

func TestFixedWindowLimiter_Allow(t *testing.T) {
	ctx := context.Background()
	limiter, _ := newTestLimiter(t, 3)
	fixed := time.Date(2024, 5, 6, 10, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return fixed }

	for i := 1; i <= 3; i++ {
		ok, err := limiter.Allow(ctx, "1.2.3.4")
		if err != nil || !ok {
			t.Fatalf("request %d: Allow() = %v, %v; want true", i, ok, err)
		}
	}

	ok, err := limiter.Allow(ctx, "1.2.3.4")
	if err != nil || ok {
		t.Fatalf("4th request: Allow() = %v, %v; want false", ok, err)
	}

	// other keys have their own quota
	if ok, _ := limiter.Allow(ctx, "5.6.7.8"); !ok {
		t.Error("different key should be allowed")
	}

	// next window resets the count
	limiter.now = func() time.Time { return fixed.Add(time.Minute) }
	if ok, _ := limiter.Allow(ctx, "1.2.3.4"); !ok {
		t.Error("next window should be allowed")
	}
}

func TestFixedWindowLimiter_RedisDown(t *testing.T) {
	limiter, mr := newTestLimiter(t, 1)
	mr.Close()

	if _, err := limiter.Allow(context.Background(), "k"); err == nil {
		t.Error("Allow() expected error with redis down")
	}
}

func TestNewFixedWindowLimiter_Invalid(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	defer client.Close()

	tests := []struct {
		name   string
		limit  int
		window time.Duration
	}{
		{"zero limit", 0, time.Minute},
		{"zero window", 5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewFixedWindowLimiter(client, "", tt.limit, tt.window); err == nil {
				t.Error("expected error")
			}
		})
	}
}
