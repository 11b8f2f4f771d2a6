package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/campuskit/notifier/internal/domain/candidate"
)

func TestDispatcher_SuccessWritesLedgerAndAudit(t *testing.T) {
	led := newMemLedger()
	prov := &fakeProvider{}
	audit := &fakeAudit{}
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	d := NewDispatcher(prov, led, audit, fixedClock{now}, zaptest.NewLogger(t))

	err := d.Dispatch(context.Background(), cand("u1", "A", candidate.PriorityNormal))
	require.NoError(t, err)

	assert.Equal(t, 1, prov.sentCount())
	has, err := led.HasDelivery(context.Background(), "u1", "A")
	require.NoError(t, err)
	assert.True(t, has)
	assert.Equal(t, 1, led.count("u1", "2025-03-10"))

	require.Len(t, audit.entries, 1)
	e := audit.entries[0]
	assert.Equal(t, "u1", e.UserID)
	assert.Equal(t, "A", e.RuleKey)
	assert.Equal(t, "fake", e.Provider)
	assert.NotEmpty(t, e.ID)
}

func TestDispatcher_SendFailureLeavesNoTrace(t *testing.T) {
	led := newMemLedger()
	prov := &fakeProvider{fail: true}
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	d := NewDispatcher(prov, led, &fakeAudit{}, fixedClock{now}, zaptest.NewLogger(t))

	err := d.Dispatch(context.Background(), cand("u1", "A", candidate.PriorityNormal))
	require.Error(t, err)

	has, herr := led.HasDelivery(context.Background(), "u1", "A")
	require.NoError(t, herr)
	assert.False(t, has, "failed delivery must not create a dedup record")
	assert.Zero(t, led.count("u1", "2025-03-10"), "failed delivery must not charge the quota")
}

func TestDispatcher_LedgerWriteFailureIsAnError(t *testing.T) {
	led := newMemLedger()
	led.failWrite = true
	prov := &fakeProvider{}
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	d := NewDispatcher(prov, led, &fakeAudit{}, fixedClock{now}, zaptest.NewLogger(t))

	err := d.Dispatch(context.Background(), cand("u1", "A", candidate.PriorityNormal))
	require.Error(t, err)
	// The send did happen: the accepted at-least-once window.
	assert.Equal(t, 1, prov.sentCount())
}

func TestDispatcher_AuditFailureDoesNotFailDispatch(t *testing.T) {
	led := newMemLedger()
	prov := &fakeProvider{}
	audit := &fakeAudit{fail: true}
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	d := NewDispatcher(prov, led, audit, fixedClock{now}, zaptest.NewLogger(t))

	err := d.Dispatch(context.Background(), cand("u1", "A", candidate.PriorityNormal))
	require.NoError(t, err)
	assert.Equal(t, 1, led.deliveries())
}

func TestDispatcher_RecordDeliveryIdempotentOnRetry(t *testing.T) {
	led := newMemLedger()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	require.NoError(t, led.RecordDelivery(context.Background(), "u1", "A", now))
	require.NoError(t, led.RecordDelivery(context.Background(), "u1", "A", now), "duplicate create is success")
	assert.Equal(t, 1, led.deliveries())
}
