package providers

import (
	"context"

	"go.uber.org/zap"

	"github.com/campuskit/notifier/internal/domain/candidate"
	"github.com/campuskit/notifier/internal/domain/delivery"
	"github.com/campuskit/notifier/internal/obs/retry"
	kafkax "github.com/campuskit/notifier/internal/repository/kafka"
)

var _ delivery.Provider = (*KafkaProvider)(nil)

// KafkaProvider publishes admitted candidates to the push topic; the external
// push transport consumes from there. Messages are keyed by user so one
// user's notifications stay ordered on a single partition.
type KafkaProvider struct {
	p      *kafkax.Producer
	log    *zap.Logger
	policy retry.Policy
}

func NewKafkaProvider(p *kafkax.Producer, log *zap.Logger) *KafkaProvider {
	return &KafkaProvider{
		p:      p,
		log:    log.With(zap.String("component", "delivery.kafka")),
		policy: retry.PublishPolicy(log),
	}
}

func (k *KafkaProvider) Name() string { return "kafka" }

func (k *KafkaProvider) Send(ctx context.Context, c candidate.Candidate) error {
	return retry.Do(ctx, func() error {
		return k.p.PublishJSON(ctx, []byte(c.UserID), c)
	}, k.policy)
}
