package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PurchaseRepo is the audit ledger behind /iap/verify. One row per verified
// receipt; the unique receipt_token constraint is what makes receipt replay
// detectable.
type PurchaseRepo struct {
	pool *pgxpool.Pool
}

func NewPurchaseRepo(pool *pgxpool.Pool) *PurchaseRepo {
	return &PurchaseRepo{pool: pool}
}

// RecordPurchase inserts the receipt if it has not been seen before.
// Reports false when the token was already recorded.
func (r *PurchaseRepo) RecordPurchase(ctx context.Context, userID, productID, token string) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(productID) == "" || strings.TrimSpace(token) == "" {
		return false, fmt.Errorf("invalid purchase record payload")
	}

	tag, err := r.pool.Exec(ctx, `
INSERT INTO iap_purchases (user_id, product_id, receipt_token, verified_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (receipt_token) DO NOTHING
`, userID, productID, token)
	if err != nil {
		return false, fmt.Errorf("record purchase: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}
