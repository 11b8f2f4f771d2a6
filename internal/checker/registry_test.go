package checker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/campuskit/notifier/internal/domain/candidate"
)

type stub struct {
	name   string
	cands  []candidate.Candidate
	err    error
	panics bool
}

func (s stub) Name() string { return s.name }

func (s stub) Check(context.Context, string, time.Time) ([]candidate.Candidate, error) {
	if s.panics {
		panic("boom")
	}
	return s.cands, s.err
}

func mk(userID, ruleKey string) candidate.Candidate {
	return candidate.Candidate{
		TenantID: "t1",
		UserID:   userID,
		RuleType: "CHILD_ABSENT",
		RuleKey:  ruleKey,
		Priority: candidate.PriorityNormal,
	}
}

func TestCollect_Concatenates(t *testing.T) {
	r := NewRegistry(zaptest.NewLogger(t),
		stub{name: "a", cands: []candidate.Candidate{mk("u1", "A"), mk("u1", "B")}},
		stub{name: "b", cands: []candidate.Candidate{mk("u2", "C")}},
		stub{name: "c"},
	)

	out := r.Collect(context.Background(), "t1", time.Now())
	require.Len(t, out, 3)

	keys := map[string]bool{}
	for _, c := range out {
		keys[c.RuleKey] = true
	}
	assert.True(t, keys["A"] && keys["B"] && keys["C"])
}

func TestCollect_IsolatesErrorsAndPanics(t *testing.T) {
	r := NewRegistry(zaptest.NewLogger(t),
		stub{name: "broken", err: errors.New("db down")},
		stub{name: "explosive", panics: true},
		stub{name: "ok", cands: []candidate.Candidate{mk("u1", "A")}},
	)

	out := r.Collect(context.Background(), "t1", time.Now())
	require.Len(t, out, 1)
	assert.Equal(t, "A", out[0].RuleKey)
}

func TestCollect_Empty(t *testing.T) {
	r := NewRegistry(zaptest.NewLogger(t))
	assert.Empty(t, r.Collect(context.Background(), "t1", time.Now()))
	assert.Zero(t, r.Len())
}

func TestRegister(t *testing.T) {
	r := NewRegistry(zaptest.NewLogger(t))
	r.Register(stub{name: "late", cands: []candidate.Candidate{mk("u1", "A")}})
	assert.Equal(t, 1, r.Len())
	assert.Len(t, r.Collect(context.Background(), "t1", time.Now()), 1)
}

func TestRuleKey_Deterministic(t *testing.T) {
	day := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	later := time.Date(2025, 3, 10, 21, 0, 0, 0, time.UTC)
	nextDay := time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, RuleKey("CHILD_ABSENT", day, "s1"), RuleKey("CHILD_ABSENT", later, "s1"),
		"same day, same entity: same event")
	assert.NotEqual(t, RuleKey("CHILD_ABSENT", day, "s1"), RuleKey("CHILD_ABSENT", nextDay, "s1"),
		"a new day is a new event")
	assert.NotEqual(t, RuleKey("CHILD_ABSENT", day, "s1"), RuleKey("CHILD_ABSENT", day, "s2"))
	assert.Equal(t, "CHILD_ABSENT:2025-03-10:s1", RuleKey("CHILD_ABSENT", day, "s1"))
}
