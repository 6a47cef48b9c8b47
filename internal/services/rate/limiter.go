package rate

import (
	"context"
	"fmt"
	"time"
)

type CounterStore interface {
	IncrementBelow(ctx context.Context, key string, limit int64, ttl time.Duration) (bool, int64, error)
	Count(ctx context.Context, key string) (int64, error)
	SetFlag(ctx context.Context, key string, ttl time.Duration) error
	HasFlag(ctx context.Context, key string) (bool, error)
}

type Config struct {
	DailyLimit int
	Enabled    bool
}

// Limiter caps analysis calls per user per calendar day. The counter expires
// at the next local midnight, so there is no sweep: the day resets itself.
type Limiter struct {
	store CounterStore
	cfg   Config
	now   func() time.Time
}

func NewLimiter(store CounterStore, cfg Config) *Limiter {
	if cfg.DailyLimit < 0 {
		cfg.DailyLimit = 0
	}
	return &Limiter{
		store: store,
		cfg:   cfg,
		now:   time.Now,
	}
}

// CheckAndIncrement admits or denies one analysis call. A set unlock flag
// admits without touching the counter. Store failures fail open: a broken
// limiter must not take the analysis endpoint down with it.
func (l *Limiter) CheckAndIncrement(ctx context.Context, userID string) (bool, int64, error) {
	if !l.cfg.Enabled || l.cfg.DailyLimit == 0 {
		return true, 0, nil
	}
	if userID == "" {
		return false, 0, fmt.Errorf("invalid user id")
	}
	if l.store == nil {
		return true, 0, nil
	}

	unlocked, err := l.store.HasFlag(ctx, l.unlockKey(userID))
	if err != nil {
		return true, 0, nil
	}
	if unlocked {
		return true, 0, nil
	}

	allowed, count, err := l.store.IncrementBelow(ctx, l.countKey(userID), int64(l.cfg.DailyLimit), l.untilMidnight())
	if err != nil {
		return true, 0, nil
	}
	return allowed, count, nil
}

// Unlock lifts the daily cap for the rest of the day (watch-an-ad pattern).
func (l *Limiter) Unlock(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("invalid user id")
	}
	if l.store == nil {
		return fmt.Errorf("rate limiter store is nil")
	}
	return l.store.SetFlag(ctx, l.unlockKey(userID), l.untilMidnight())
}

func (l *Limiter) countKey(userID string) string {
	return "call_count:" + userID + ":" + l.dayKey()
}

func (l *Limiter) unlockKey(userID string) string {
	return "call_unlocked:" + userID + ":" + l.dayKey()
}

func (l *Limiter) dayKey() string {
	return l.now().Format("2006-01-02")
}

func (l *Limiter) untilMidnight() time.Duration {
	now := l.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	d := midnight.Sub(now)
	if d < time.Second {
		d = time.Second
	}
	return d
}
