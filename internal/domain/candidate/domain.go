package candidate

// Priority of a notification candidate. CRITICAL is the only priority
// allowed to bypass quiet hours.
type Priority string

const (
	PriorityNormal   Priority = "NORMAL"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

// Category is a coarse grouping used by downstream display/filtering.
// The engine passes it through untouched.
type Category string

const (
	CategoryAttendance Category = "attendance"
	CategoryFee        Category = "fee"
	CategoryExam       Category = "exam"
	CategoryFleet      Category = "fleet"
	CategoryGeneral    Category = "general"
)

// Candidate is a not-yet-admitted notification event produced by a Checker.
// RuleKey is the idempotency key: two candidates with the same
// (UserID, RuleKey) are the same logical event and at most one is delivered.
// RuleKey generation is the checker's responsibility and must be stable
// across runs for the same event (same day, same entity).
type Candidate struct {
	TenantID  string            `json:"tenant_id"`
	UserID    string            `json:"user_id"`
	RuleType  string            `json:"rule_type"`
	RuleKey   string            `json:"rule_key"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Priority  Priority          `json:"priority"`
	Category  Category          `json:"category"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	ActionURL string            `json:"action_url,omitempty"`
}
