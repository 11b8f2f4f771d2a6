package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/campuskit/notifier/internal/domain/candidate"
	"github.com/campuskit/notifier/internal/domain/delivery"
	"github.com/campuskit/notifier/internal/domain/tenant"
)

var errInjected = errors.New("injected failure")

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// memLedger is an in-memory Ledger with optional fault injection.
type memLedger struct {
	mu        sync.Mutex
	dedup     map[string]time.Time
	counts    map[string]int
	failReads bool
	failWrite bool
}

func newMemLedger() *memLedger {
	return &memLedger{
		dedup:  make(map[string]time.Time),
		counts: make(map[string]int),
	}
}

func dedupKey(userID, ruleKey string) string { return userID + "|" + ruleKey }
func countKey(userID, day string) string     { return userID + "|" + day }

func (l *memLedger) HasDelivery(_ context.Context, userID, ruleKey string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failReads {
		return false, errInjected
	}
	_, ok := l.dedup[dedupKey(userID, ruleKey)]
	return ok, nil
}

func (l *memLedger) DailyCount(_ context.Context, userID, day string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failReads {
		return 0, errInjected
	}
	return l.counts[countKey(userID, day)], nil
}

func (l *memLedger) RecordDelivery(_ context.Context, userID, ruleKey string, sentAt time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failWrite {
		return errInjected
	}
	key := dedupKey(userID, ruleKey)
	if _, ok := l.dedup[key]; ok {
		return nil // duplicate create is success
	}
	l.dedup[key] = sentAt
	return nil
}

func (l *memLedger) IncrementDailyCount(_ context.Context, userID, day string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failWrite {
		return 0, errInjected
	}
	key := countKey(userID, day)
	l.counts[key]++
	return l.counts[key], nil
}

func (l *memLedger) deliveries() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.dedup)
}

func (l *memLedger) count(userID, day string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counts[countKey(userID, day)]
}

// fakeProvider records sends and can be told to fail.
type fakeProvider struct {
	mu   sync.Mutex
	sent []candidate.Candidate
	fail bool
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Send(_ context.Context, c candidate.Candidate) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errInjected
	}
	p.sent = append(p.sent, c)
	return nil
}

func (p *fakeProvider) sentCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sent)
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []delivery.AuditEntry
	fail    bool
}

func (a *fakeAudit) Append(_ context.Context, e delivery.AuditEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.fail {
		return errInjected
	}
	a.entries = append(a.entries, e)
	return nil
}

type stubTenants struct {
	list []tenant.Tenant
	err  error
}

func (s stubTenants) ActiveTenants(context.Context) ([]tenant.Tenant, error) {
	return s.list, s.err
}

// stubChecker returns canned candidates, or errors, or panics.
type stubChecker struct {
	name   string
	cands  []candidate.Candidate
	err    error
	panics bool
}

func (s stubChecker) Name() string { return s.name }

func (s stubChecker) Check(context.Context, string, time.Time) ([]candidate.Candidate, error) {
	if s.panics {
		panic("checker exploded")
	}
	return s.cands, s.err
}

func cand(userID, ruleKey string, prio candidate.Priority) candidate.Candidate {
	return candidate.Candidate{
		TenantID: "t1",
		UserID:   userID,
		RuleType: "CHILD_ABSENT",
		RuleKey:  ruleKey,
		Title:    "Absence recorded",
		Message:  "test",
		Priority: prio,
		Category: candidate.CategoryAttendance,
	}
}
