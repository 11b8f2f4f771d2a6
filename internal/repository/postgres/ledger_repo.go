package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/campuskit/notifier/internal/domain/ledger"
)

var _ ledger.Ledger = (*LedgerRepo)(nil)

// LedgerRepo keeps the delivery dedup records and the per-user daily
// counters. Every mutation is a single atomic statement keyed by the exact
// tuple that must be unique, so concurrent callers never need a transaction
// spanning more than one row.
type LedgerRepo struct{ db *DB }

func NewLedgerRepo(db *DB) *LedgerRepo { return &LedgerRepo{db: db} }

const (
	qHasDelivery = `
SELECT 1
FROM notification_deliveries
WHERE user_id = $1 AND rule_key = $2;
`

	qRecordDelivery = `
INSERT INTO notification_deliveries (user_id, rule_key, sent_at)
VALUES ($1, $2, $3)
ON CONFLICT (user_id, rule_key) DO NOTHING;
`

	qDailyCount = `
SELECT count
FROM daily_counters
WHERE user_id = $1 AND day = $2;
`

	qIncrementDaily = `
INSERT INTO daily_counters (user_id, day, count)
VALUES ($1, $2, 1)
ON CONFLICT (user_id, day) DO UPDATE
SET count = daily_counters.count + 1
RETURNING count;
`
)

func (r *LedgerRepo) HasDelivery(ctx context.Context, userID, ruleKey string) (bool, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var one int
	err := r.db.Pool.QueryRow(ctx, qHasDelivery, userID, ruleKey).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("lookup delivery: %w", err)
	}
	return true, nil
}

func (r *LedgerRepo) RecordDelivery(ctx context.Context, userID, ruleKey string, sentAt time.Time) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if _, err := r.db.Pool.Exec(ctx, qRecordDelivery, userID, ruleKey, sentAt.UTC()); err != nil {
		// ON CONFLICT swallows the usual duplicate; the explicit check covers
		// races surfacing as a raw constraint error.
		if isUniqueViolation(err) {
			return nil
		}
		return fmt.Errorf("record delivery: %w", err)
	}
	return nil
}

func (r *LedgerRepo) DailyCount(ctx context.Context, userID, day string) (int, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var count int
	err := r.db.Pool.QueryRow(ctx, qDailyCount, userID, day).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("lookup daily counter: %w", err)
	}
	return count, nil
}

func (r *LedgerRepo) IncrementDailyCount(ctx context.Context, userID, day string) (int, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var count int
	if err := r.db.Pool.QueryRow(ctx, qIncrementDaily, userID, day).Scan(&count); err != nil {
		return 0, fmt.Errorf("increment daily counter: %w", err)
	}
	return count, nil
}
