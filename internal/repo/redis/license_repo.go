package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	goredis "github.com/redis/go-redis/v9"

	licensesvc "github.com/havihaviplants/gnom-backend/internal/services/license"
)

const (
	freePrefix   = "free:"
	ticketPrefix = "ticket:"
	passPrefix   = "pass:"
)

// spendScript decrements a counter only while it is above zero, so two
// concurrent consumes can never spend the same unit.
var spendScript = goredis.NewScript(`
local v = tonumber(redis.call('GET', KEYS[1]) or '0')
if v > 0 then
	redis.call('DECR', KEYS[1])
	return 1
end
return 0
`)

type LicenseRepo struct {
	client *goredis.Client
}

func NewLicenseRepo(client *goredis.Client) *LicenseRepo {
	return &LicenseRepo{client: client}
}

func (r *LicenseRepo) InitBalances(ctx context.Context, userID string, freeCredits int) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if userID == "" {
		return fmt.Errorf("user id is required")
	}

	emptyPass, err := json.Marshal(licensesvc.PassRecord{Active: false, Until: nil})
	if err != nil {
		return fmt.Errorf("marshal empty pass: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.SetNX(ctx, freeKey(userID), strconv.Itoa(freeCredits), 0)
	pipe.SetNX(ctx, ticketKey(userID), "0", 0)
	pipe.SetNX(ctx, passKey(userID), string(emptyPass), 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("init license balances: %w", err)
	}

	return nil
}

func (r *LicenseRepo) FreeCredits(ctx context.Context, userID string) (int, error) {
	return r.readCounter(ctx, freeKey(userID))
}

func (r *LicenseRepo) Tickets(ctx context.Context, userID string) (int, error) {
	return r.readCounter(ctx, ticketKey(userID))
}

func (r *LicenseRepo) AddTickets(ctx context.Context, userID string, amount int) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if userID == "" || amount <= 0 {
		return fmt.Errorf("invalid ticket grant payload")
	}

	if err := r.client.IncrBy(ctx, ticketKey(userID), int64(amount)).Err(); err != nil {
		return fmt.Errorf("add tickets: %w", err)
	}
	return nil
}

func (r *LicenseRepo) SpendTicket(ctx context.Context, userID string) (bool, error) {
	return r.spend(ctx, ticketKey(userID))
}

func (r *LicenseRepo) SpendFreeCredit(ctx context.Context, userID string) (bool, error) {
	return r.spend(ctx, freeKey(userID))
}

func (r *LicenseRepo) LoadPass(ctx context.Context, userID string) (licensesvc.PassRecord, bool, error) {
	if r.client == nil {
		return licensesvc.PassRecord{}, false, fmt.Errorf("redis client is nil")
	}

	raw, err := r.client.Get(ctx, passKey(userID)).Result()
	if err == goredis.Nil {
		return licensesvc.PassRecord{}, false, nil
	}
	if err != nil {
		return licensesvc.PassRecord{}, false, fmt.Errorf("get pass record: %w", err)
	}

	var pass licensesvc.PassRecord
	if err := json.Unmarshal([]byte(raw), &pass); err != nil {
		// A corrupt record reads as no pass rather than blocking the user.
		return licensesvc.PassRecord{}, false, nil
	}

	return pass, true, nil
}

func (r *LicenseRepo) SavePass(ctx context.Context, userID string, pass licensesvc.PassRecord) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}

	raw, err := json.Marshal(pass)
	if err != nil {
		return fmt.Errorf("marshal pass record: %w", err)
	}
	if err := r.client.Set(ctx, passKey(userID), string(raw), 0).Err(); err != nil {
		return fmt.Errorf("set pass record: %w", err)
	}
	return nil
}

func (r *LicenseRepo) readCounter(ctx context.Context, key string) (int, error) {
	if r.client == nil {
		return 0, fmt.Errorf("redis client is nil")
	}

	raw, err := r.client.Get(ctx, key).Result()
	if err == goredis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get counter %s: %w", key, err)
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, nil
	}
	return n, nil
}

func (r *LicenseRepo) spend(ctx context.Context, key string) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}

	res, err := spendScript.Run(ctx, r.client, []string{key}).Int()
	if err != nil {
		return false, fmt.Errorf("spend counter %s: %w", key, err)
	}
	return res == 1, nil
}

func freeKey(userID string) string {
	return freePrefix + userID
}

func ticketKey(userID string) string {
	return ticketPrefix + userID
}

func passKey(userID string) string {
	return passPrefix + userID
}
