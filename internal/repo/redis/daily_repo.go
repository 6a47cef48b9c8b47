package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// incrBelowScript bumps a daily counter only while it is below the limit.
// The TTL is set on the first write of the day and never refreshed, so the
// counter resets at its original expiry no matter how often it is hit.
// Returns {allowed, count}.
var incrBelowScript = goredis.NewScript(`
local c = tonumber(redis.call('GET', KEYS[1]) or '0')
if c >= tonumber(ARGV[1]) then
	return {0, c}
end
c = redis.call('INCR', KEYS[1])
if c == 1 then
	redis.call('EXPIRE', KEYS[1], ARGV[2])
end
return {1, c}
`)

type DailyRepo struct {
	client *goredis.Client
}

func NewDailyRepo(client *goredis.Client) *DailyRepo {
	return &DailyRepo{client: client}
}

// IncrementBelow atomically increments key unless the stored count already
// reached limit. Reports whether the increment happened and the current count.
func (r *DailyRepo) IncrementBelow(ctx context.Context, key string, limit int64, ttl time.Duration) (bool, int64, error) {
	if r.client == nil {
		return false, 0, fmt.Errorf("redis client is nil")
	}
	if key == "" || limit <= 0 || ttl <= 0 {
		return false, 0, fmt.Errorf("invalid daily counter payload")
	}

	res, err := incrBelowScript.Run(ctx, r.client, []string{key}, limit, int64(ttl/time.Second)).Slice()
	if err != nil {
		return false, 0, fmt.Errorf("increment daily counter: %w", err)
	}
	if len(res) != 2 {
		return false, 0, fmt.Errorf("unexpected daily counter reply: %v", res)
	}

	allowed, _ := res[0].(int64)
	count, _ := res[1].(int64)
	return allowed == 1, count, nil
}

func (r *DailyRepo) Count(ctx context.Context, key string) (int64, error) {
	if r.client == nil {
		return 0, fmt.Errorf("redis client is nil")
	}
	if key == "" {
		return 0, fmt.Errorf("daily counter key is required")
	}

	count, err := r.client.Get(ctx, key).Int64()
	if err == goredis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get daily counter: %w", err)
	}
	return count, nil
}

func (r *DailyRepo) SetFlag(ctx context.Context, key string, ttl time.Duration) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if key == "" || ttl <= 0 {
		return fmt.Errorf("invalid daily flag payload")
	}

	if err := r.client.Set(ctx, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("set daily flag: %w", err)
	}
	return nil
}

func (r *DailyRepo) HasFlag(ctx context.Context, key string) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	if key == "" {
		return false, fmt.Errorf("daily flag key is required")
	}

	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("check daily flag: %w", err)
	}
	return n > 0, nil
}
