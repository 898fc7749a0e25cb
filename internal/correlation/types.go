package correlation

import (
	"context"
	"time"
)

// Candidate is a scored device-identity hypothesis. Candidates are created
// per scoring pass and never mutated.
type Candidate struct {
	WifiID     string     `json:"wifi_id"`
	WifiName   string     `json:"wifi_name,omitempty"`
	BTID       string     `json:"bt_id"`
	BTName     string     `json:"bt_name,omitempty"`
	Confidence float64    `json:"confidence"`
	Reason     string     `json:"reason"`
	FirstSeen  *time.Time `json:"first_seen,omitempty"`
	LastSeen   *time.Time `json:"last_seen,omitempty"`
}

// Warning records a non-fatal failure encountered during a scoring pass,
// returned alongside the candidate list so callers can observe degraded
// persistence instead of relying on log lines.
type Warning struct {
	WifiID  string `json:"wifi_id,omitempty"`
	BTID    string `json:"bt_id,omitempty"`
	Message string `json:"message"`
}

// Record is a persisted device-pair correlation.
type Record struct {
	WifiID     string         `json:"wifi_id"`
	BTID       string         `json:"bt_id"`
	Confidence float64        `json:"confidence"`
	FirstSeen  time.Time      `json:"first_seen"`
	LastSeen   time.Time      `json:"last_seen"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// StoreWriter persists high-confidence pairs. Upsert semantics: at most one
// record per (wifiID, btID); confidence and last-seen are overwritten on
// conflict, first-seen is preserved.
type StoreWriter interface {
	UpsertCorrelation(ctx context.Context, wifiID, btID string, confidence float64, metadata map[string]any) error
}

// HistoryReader retrieves persisted correlations at or above a confidence
// floor, ordered by confidence descending.
type HistoryReader interface {
	Correlations(ctx context.Context, minConfidence float64) ([]Record, error)
}
