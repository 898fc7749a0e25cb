package correlation

import (
	"context"
	"log/slog"
	"sort"

	"intercept/internal/logging"
)

// historicalReason tags candidates resurrected from the store.
const historicalReason = "historical correlation"

// Query describes one reconciliation request.
type Query struct {
	Wifi              map[string]map[string]any
	BT                map[string]map[string]any
	MinConfidence     float64
	IncludeHistorical bool
}

// Reconciler merges live engine output with persisted history into a single
// ranked candidate list.
type Reconciler struct {
	engine  *Engine
	history HistoryReader
	logger  *slog.Logger
}

// NewReconciler constructs a reconciler. history may be nil, in which case
// IncludeHistorical queries return live candidates only.
func NewReconciler(engine *Engine, history HistoryReader, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		engine:  engine,
		history: history,
		logger:  logging.NewComponentLogger(logger, "correlation"),
	}
}

// Correlations runs the live engine when both observation maps are non-empty,
// optionally appends persisted records, and returns one list sorted by
// confidence descending. A historical record is dropped entirely when a live
// candidate exists for the same (wifi, bt) pair; a failed history read
// degrades to live-only results with a warning rather than failing the query.
func (r *Reconciler) Correlations(ctx context.Context, q Query) ([]Candidate, []Warning) {
	var (
		results  []Candidate
		warnings []Warning
	)

	if len(q.Wifi) > 0 && len(q.BT) > 0 {
		results, warnings = r.engine.Correlate(ctx, q.Wifi, q.BT, q.MinConfidence)
	}

	if q.IncludeHistorical && r.history != nil {
		records, err := r.history.Correlations(ctx, q.MinConfidence)
		if err != nil {
			r.logger.Debug("failed to read historical correlations", logging.Error(err))
			warnings = append(warnings, Warning{Message: "historical correlations unavailable: " + err.Error()})
		} else {
			live := make(map[[2]string]struct{}, len(results))
			for _, c := range results {
				live[[2]string{c.WifiID, c.BTID}] = struct{}{}
			}
			for _, record := range records {
				if _, ok := live[[2]string{record.WifiID, record.BTID}]; ok {
					continue
				}
				firstSeen := record.FirstSeen
				lastSeen := record.LastSeen
				results = append(results, Candidate{
					WifiID:     record.WifiID,
					BTID:       record.BTID,
					Confidence: round2(record.Confidence),
					Reason:     historicalReason,
					FirstSeen:  &firstSeen,
					LastSeen:   &lastSeen,
				})
			}
		}
	}

	// Live and historical lists are each sorted, but the merge is not.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Confidence > results[j].Confidence
	})
	return results, warnings
}
