package rate

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	redrepo "github.com/havihaviplants/gnom-backend/internal/repo/redis"
)

func newMiniRedisLimiter(t *testing.T, cfg Config) (*miniredis.Miniredis, *Limiter) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limiter := NewLimiter(redrepo.NewDailyRepo(client), cfg)
	limiter.now = func() time.Time {
		return time.Date(2026, time.August, 28, 12, 0, 0, 0, time.UTC)
	}

	return mr, limiter
}

func TestLimiterBlocksFourthCall(t *testing.T) {
	_, limiter := newMiniRedisLimiter(t, Config{DailyLimit: 3, Enabled: true})
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		allowed, count, err := limiter.CheckAndIncrement(ctx, "u1")
		if err != nil {
			t.Fatalf("check #%d: %v", i, err)
		}
		if !allowed || count != int64(i) {
			t.Fatalf("unexpected result #%d: allowed=%v count=%d", i, allowed, count)
		}
	}

	allowed, _, err := limiter.CheckAndIncrement(ctx, "u1")
	if err != nil {
		t.Fatalf("check #4: %v", err)
	}
	if allowed {
		t.Fatalf("fourth call of the day must be denied")
	}
}

func TestUnlockBypassesCounterWithoutIncrementing(t *testing.T) {
	mr, limiter := newMiniRedisLimiter(t, Config{DailyLimit: 3, Enabled: true})
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		if _, _, err := limiter.CheckAndIncrement(ctx, "u1"); err != nil {
			t.Fatalf("warmup check: %v", err)
		}
	}

	if err := limiter.Unlock(ctx, "u1"); err != nil {
		t.Fatalf("unlock: %v", err)
	}

	allowed, _, err := limiter.CheckAndIncrement(ctx, "u1")
	if err != nil {
		t.Fatalf("check after unlock: %v", err)
	}
	if !allowed {
		t.Fatalf("unlocked user must be admitted")
	}

	stored, err := mr.Get("call_count:u1:2026-08-28")
	if err != nil {
		t.Fatalf("read stored count: %v", err)
	}
	if stored != "3" {
		t.Fatalf("unlocked call must not touch the counter: %s", stored)
	}
}

func TestLimiterDisabledSkipsStore(t *testing.T) {
	limiter := NewLimiter(nil, Config{DailyLimit: 3, Enabled: false})

	// A nil store would fail on any access; disabled limiting must never reach it.
	allowed, count, err := limiter.CheckAndIncrement(context.Background(), "u1")
	if err != nil {
		t.Fatalf("disabled check: %v", err)
	}
	if !allowed || count != 0 {
		t.Fatalf("disabled limiter must always admit: allowed=%v count=%d", allowed, count)
	}
}

func TestLimiterFailsOpenWhenStoreIsDown(t *testing.T) {
	mr, limiter := newMiniRedisLimiter(t, Config{DailyLimit: 3, Enabled: true})
	mr.Close()

	allowed, _, err := limiter.CheckAndIncrement(context.Background(), "u1")
	if err != nil {
		t.Fatalf("check with dead store: %v", err)
	}
	if !allowed {
		t.Fatalf("limiter must fail open when the store is unreachable")
	}
}

func TestCounterResetsNextDay(t *testing.T) {
	mr, limiter := newMiniRedisLimiter(t, Config{DailyLimit: 1, Enabled: true})
	ctx := context.Background()

	allowed, _, err := limiter.CheckAndIncrement(ctx, "u1")
	if err != nil || !allowed {
		t.Fatalf("check #1: allowed=%v err=%v", allowed, err)
	}

	allowed, _, err = limiter.CheckAndIncrement(ctx, "u1")
	if err != nil {
		t.Fatalf("check #2: %v", err)
	}
	if allowed {
		t.Fatalf("limit 1 must deny the second call")
	}

	// Key ttl runs to local midnight; the day key changes as well.
	mr.FastForward(13 * time.Hour)
	limiter.now = func() time.Time {
		return time.Date(2026, time.August, 29, 1, 0, 0, 0, time.UTC)
	}

	allowed, count, err := limiter.CheckAndIncrement(ctx, "u1")
	if err != nil {
		t.Fatalf("check next day: %v", err)
	}
	if !allowed || count != 1 {
		t.Fatalf("counter must reset on the next day: allowed=%v count=%d", allowed, count)
	}
}
