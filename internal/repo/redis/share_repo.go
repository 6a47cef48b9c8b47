package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	rewardsvc "github.com/havihaviplants/gnom-backend/internal/services/reward"
)

const (
	sharePrefix = "share:"
	claimPrefix = "claim:"
)

type ShareRepo struct {
	client *goredis.Client
}

func NewShareRepo(client *goredis.Client) *ShareRepo {
	return &ShareRepo{client: client}
}

func (r *ShareRepo) SaveShare(ctx context.Context, shareID string, record rewardsvc.ShareRecord, ttl time.Duration) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if shareID == "" || ttl <= 0 {
		return fmt.Errorf("invalid share payload")
	}

	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal share record: %w", err)
	}
	if err := r.client.Set(ctx, shareKey(shareID), string(raw), ttl).Err(); err != nil {
		return fmt.Errorf("set share record: %w", err)
	}
	return nil
}

func (r *ShareRepo) GetShare(ctx context.Context, shareID string) (rewardsvc.ShareRecord, bool, error) {
	if r.client == nil {
		return rewardsvc.ShareRecord{}, false, fmt.Errorf("redis client is nil")
	}

	raw, err := r.client.Get(ctx, shareKey(shareID)).Result()
	if err == goredis.Nil {
		return rewardsvc.ShareRecord{}, false, nil
	}
	if err != nil {
		return rewardsvc.ShareRecord{}, false, fmt.Errorf("get share record: %w", err)
	}

	var record rewardsvc.ShareRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return rewardsvc.ShareRecord{}, false, fmt.Errorf("unmarshal share record: %w", err)
	}
	return record, true, nil
}

func (r *ShareRepo) IsClaimed(ctx context.Context, shareID string) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}

	n, err := r.client.Exists(ctx, claimKey(shareID)).Result()
	if err != nil {
		return false, fmt.Errorf("check claim marker: %w", err)
	}
	return n > 0, nil
}

// MarkClaimed sets the permanent claim marker. Reports false when another
// claim won the race. The marker deliberately outlives the token itself.
func (r *ShareRepo) MarkClaimed(ctx context.Context, shareID string) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}

	won, err := r.client.SetNX(ctx, claimKey(shareID), "1", 0).Result()
	if err != nil {
		return false, fmt.Errorf("set claim marker: %w", err)
	}
	return won, nil
}

func shareKey(shareID string) string {
	return sharePrefix + shareID
}

func claimKey(shareID string) string {
	return claimPrefix + shareID
}
