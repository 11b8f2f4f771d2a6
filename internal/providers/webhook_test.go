package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/campuskit/notifier/internal/domain/candidate"
)

func TestWebhookProvider_Send(t *testing.T) {
	var got candidate.Candidate
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	p := NewWebhookProvider(WebhookConfig{URL: srv.URL}, zaptest.NewLogger(t))

	c := candidate.Candidate{
		TenantID: "t1",
		UserID:   "u1",
		RuleType: "BUS_OFFLINE",
		RuleKey:  "BUS_OFFLINE:2025-03-10:v1",
		Priority: candidate.PriorityCritical,
	}
	require.NoError(t, p.Send(context.Background(), c))
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "BUS_OFFLINE:2025-03-10:v1", got.RuleKey)
}

func TestWebhookProvider_NonTwoHundredIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	p := NewWebhookProvider(WebhookConfig{URL: srv.URL}, zaptest.NewLogger(t))
	err := p.Send(context.Background(), candidate.Candidate{UserID: "u1", RuleKey: "A"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestWebhookProvider_ConnectionRefused(t *testing.T) {
	p := NewWebhookProvider(WebhookConfig{URL: "http://127.0.0.1:1/push"}, zaptest.NewLogger(t))
	err := p.Send(context.Background(), candidate.Candidate{UserID: "u1", RuleKey: "A"})
	require.Error(t, err)
}
