package engine

import "go.uber.org/zap"

// RunStats summarizes one orchestration run. Ephemeral: surfaced through the
// return value, logs and metrics, never persisted.
type RunStats struct {
	Processed   int `json:"processed"`
	Sent        int `json:"sent"`
	Skipped     int `json:"skipped"`
	RateLimited int `json:"rate_limited"`
	Duplicates  int `json:"duplicates"`
	Errors      int `json:"errors"`
	Tenants     int `json:"tenants"`
}

func (s *RunStats) Add(o RunStats) {
	s.Processed += o.Processed
	s.Sent += o.Sent
	s.Skipped += o.Skipped
	s.RateLimited += o.RateLimited
	s.Duplicates += o.Duplicates
	s.Errors += o.Errors
	s.Tenants += o.Tenants
}

func (s RunStats) Fields() []zap.Field {
	return []zap.Field{
		zap.Int("processed", s.Processed),
		zap.Int("sent", s.Sent),
		zap.Int("skipped", s.Skipped),
		zap.Int("rate_limited", s.RateLimited),
		zap.Int("duplicates", s.Duplicates),
		zap.Int("errors", s.Errors),
		zap.Int("tenants", s.Tenants),
	}
}
