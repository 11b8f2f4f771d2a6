package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/campuskit/notifier/internal/domain/ledger"
)

var _ ledger.Ledger = (*Ledger)(nil)

// Ledger keeps dedup records and daily counters in Redis. Dedup keys never
// expire; counter keys embed the calendar day, so their TTL is hygiene only
// and correctness comes from the day-scoped key, same as the relational
// schema.
type Ledger struct {
	rdb *redis.Client
	ttl time.Duration
}

type Config struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

func New(cfg Config) *Ledger {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 48 * time.Hour
	}
	return &Ledger{
		rdb: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		ttl: ttl,
	}
}

func (l *Ledger) Ping(ctx context.Context) error { return l.rdb.Ping(ctx).Err() }

func (l *Ledger) Close() error { return l.rdb.Close() }

func dedupKey(userID, ruleKey string) string {
	return fmt.Sprintf("notifier:dedup:%s:%s", userID, ruleKey)
}

func counterKey(userID, day string) string {
	return fmt.Sprintf("notifier:quota:%s:%s", userID, day)
}

func (l *Ledger) HasDelivery(ctx context.Context, userID, ruleKey string) (bool, error) {
	n, err := l.rdb.Exists(ctx, dedupKey(userID, ruleKey)).Result()
	if err != nil {
		return false, fmt.Errorf("dedup exists: %w", err)
	}
	return n > 0, nil
}

func (l *Ledger) RecordDelivery(ctx context.Context, userID, ruleKey string, sentAt time.Time) error {
	// SETNX: losing the race to another writer is success, same event.
	if err := l.rdb.SetNX(ctx, dedupKey(userID, ruleKey), sentAt.UTC().Format(time.RFC3339), 0).Err(); err != nil {
		return fmt.Errorf("dedup setnx: %w", err)
	}
	return nil
}

func (l *Ledger) DailyCount(ctx context.Context, userID, day string) (int, error) {
	n, err := l.rdb.Get(ctx, counterKey(userID, day)).Int()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, fmt.Errorf("counter get: %w", err)
	}
	return n, nil
}

func (l *Ledger) IncrementDailyCount(ctx context.Context, userID, day string) (int, error) {
	key := counterKey(userID, day)
	n, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("counter incr: %w", err)
	}
	if n == 1 {
		// First increment owns the expiry.
		if err := l.rdb.Expire(ctx, key, l.ttl).Err(); err != nil {
			return int(n), fmt.Errorf("counter expire: %w", err)
		}
	}
	return int(n), nil
}
