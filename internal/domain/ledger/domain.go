package ledger

import "time"

// DeliveryRecord marks one logical event as delivered, keyed by
// (UserID, RuleKey). Created exactly once, never updated or deleted by the
// engine.
type DeliveryRecord struct {
	UserID  string    `json:"user_id"`
	RuleKey string    `json:"rule_key"`
	SentAt  time.Time `json:"sent_at"`
}

// DailyCounter counts successful deliveries per user per calendar day.
// Keying on the day makes the reset implicit.
type DailyCounter struct {
	UserID string `json:"user_id"`
	Day    string `json:"day"`
	Count  int    `json:"count"`
}

// DayKey formats t as the calendar-date key used by counters. The key is
// always the UTC date: the quota guard and the dispatcher must resolve the
// same instant to the same counter row no matter what zone their clocks
// carry.
func DayKey(t time.Time) string { return t.UTC().Format("2006-01-02") }
