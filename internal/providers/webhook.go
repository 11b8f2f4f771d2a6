package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/campuskit/notifier/internal/domain/candidate"
	"github.com/campuskit/notifier/internal/domain/delivery"
)

var _ delivery.Provider = (*WebhookProvider)(nil)

type WebhookConfig struct {
	URL       string        `mapstructure:"url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

// WebhookProvider POSTs admitted candidates to the push gateway. Any 2xx is
// success; everything else leaves the candidate eligible for the next run.
type WebhookProvider struct {
	url   string
	ua    string
	httpc *http.Client
	log   *zap.Logger
}

func NewWebhookProvider(cfg WebhookConfig, log *zap.Logger) *WebhookProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookProvider{
		url:   cfg.URL,
		ua:    cfg.UserAgent,
		httpc: &http.Client{Timeout: timeout},
		log:   log.With(zap.String("component", "delivery.webhook")),
	}
}

func (w *WebhookProvider) Name() string { return "webhook" }

func (w *WebhookProvider) Send(ctx context.Context, c candidate.Candidate) error {
	body, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal candidate: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if w.ua != "" {
		req.Header.Set("User-Agent", w.ua)
	}

	start := time.Now()
	resp, err := w.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook status %d", resp.StatusCode)
	}
	w.log.Debug("webhook delivered",
		zap.String("user_id", c.UserID),
		zap.String("rule_key", c.RuleKey),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}
