package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campuskit/notifier/internal/domain/candidate"
	"github.com/campuskit/notifier/internal/domain/delivery"
	"github.com/campuskit/notifier/internal/domain/ledger"
)

// Dispatcher hands admitted candidates to the delivery provider and records
// the outcome. Ledger writes happen only after a successful send: a failed
// delivery leaves no trace, so the event stays eligible on the next run.
type Dispatcher struct {
	Provider delivery.Provider
	Ledger   ledger.Ledger
	Audit    delivery.AuditLog
	Clock    candidate.Clock
	Log      *zap.Logger
}

func NewDispatcher(p delivery.Provider, l ledger.Ledger, a delivery.AuditLog, clk candidate.Clock, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		Provider: p,
		Ledger:   l,
		Audit:    a,
		Clock:    clk,
		Log:      log.With(zap.String("component", "engine.dispatcher")),
	}
}

// Dispatch returns nil only when the send succeeded and both ledger writes
// landed. A send failure writes nothing. A ledger failure after a successful
// send is still an error: the event was delivered but may be re-delivered on
// the next run (the accepted at-least-once window).
func (d *Dispatcher) Dispatch(ctx context.Context, c candidate.Candidate) error {
	log := d.Log.With(
		zap.String("tenant_id", c.TenantID),
		zap.String("user_id", c.UserID),
		zap.String("rule_key", c.RuleKey),
	)

	if err := d.Provider.Send(ctx, c); err != nil {
		log.Warn("delivery failed", zap.Error(err))
		return fmt.Errorf("send: %w", err)
	}

	now := d.Clock.Now().UTC()

	if err := d.Ledger.RecordDelivery(ctx, c.UserID, c.RuleKey, now); err != nil {
		log.Error("delivered but dedup record not written", zap.Error(err))
		return fmt.Errorf("record delivery: %w", err)
	}
	if _, err := d.Ledger.IncrementDailyCount(ctx, c.UserID, ledger.DayKey(now)); err != nil {
		log.Error("delivered but daily counter not incremented", zap.Error(err))
		return fmt.Errorf("increment daily count: %w", err)
	}

	if d.Audit != nil {
		entry := delivery.AuditEntry{
			ID:       uuid.NewString(),
			TenantID: c.TenantID,
			UserID:   c.UserID,
			RuleType: c.RuleType,
			RuleKey:  c.RuleKey,
			Priority: string(c.Priority),
			Provider: d.Provider.Name(),
			SentAt:   now,
		}
		if err := d.Audit.Append(ctx, entry); err != nil {
			// Best-effort: the ledger already holds the authoritative record.
			log.Warn("audit append failed", zap.Error(err))
		}
	}

	log.Debug("delivered",
		zap.String("rule_type", c.RuleType),
		zap.String("priority", string(c.Priority)),
	)
	return nil
}
