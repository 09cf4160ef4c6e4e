package analytics

import "time"

type EventType string

const EventQuery EventType = "query"

// Outcome classifies how a query ended.
type Outcome string

const (
	OutcomeMatched Outcome = "matched"
	OutcomeEmpty   Outcome = "zero_result"
	OutcomeInvalid Outcome = "invalid"
	OutcomeError   Outcome = "error"
)

// QueryEvent describes one query answered by the search service.
type QueryEvent struct {
	Type       EventType `json:"type"`
	Query      string    `json:"query"`
	Tree       string    `json:"tree,omitempty"`
	Terms      []string  `json:"terms,omitempty"`
	Outcome    Outcome   `json:"outcome"`
	Matches    int       `json:"matches"`
	Documents  int       `json:"documents"`
	Candidates int       `json:"candidates"`
	LatencyMs  int64     `json:"latency_ms"`
	CacheHit   bool      `json:"cache_hit"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	RequestID  string    `json:"request_id,omitempty"`
}
