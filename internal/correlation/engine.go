package correlation

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"intercept/internal/logging"
	"intercept/internal/observation"
)

// persistThreshold is the fixed confidence at which a scored pair becomes
// durable, independent of the caller's listing threshold.
const persistThreshold = 0.7

// Settings configures an Engine.
type Settings struct {
	TimeWindowSeconds int
	RSSIThreshold     int
	// StrictTimestamps rejects records whose timestamps cannot be parsed
	// instead of substituting the current instant.
	StrictTimestamps bool
}

// Engine enumerates WiFi/Bluetooth observation pairs, scores them, and
// persists high-confidence pairs. Engines are explicitly constructed values;
// per-request thresholds are passed to Correlate so concurrent requests
// cannot observe each other's settings.
type Engine struct {
	params     Params
	normalizer observation.Normalizer
	writer     StoreWriter
	logger     *slog.Logger
}

// NewEngine constructs an engine. writer may be nil, in which case no pair is
// persisted.
func NewEngine(settings Settings, writer StoreWriter, logger *slog.Logger) *Engine {
	policy := observation.TimestampFallbackNow
	if settings.StrictTimestamps {
		policy = observation.TimestampStrict
	}
	return &Engine{
		params: Params{
			TimeWindowSeconds: settings.TimeWindowSeconds,
			RSSIThreshold:     settings.RSSIThreshold,
		},
		normalizer: observation.Normalizer{Policy: policy},
		writer:     writer,
		logger:     logging.NewComponentLogger(logger, "correlation"),
	}
}

// Correlate scores the cross-product of the given WiFi and Bluetooth device
// records and returns candidates at or above minConfidence, sorted by
// confidence descending. Pairs scoring at or above the persistence threshold
// are upserted into the store; persistence failures are reported in the
// returned warnings and never remove a candidate or abort the pass.
//
// The enumeration is O(|wifi| x |bluetooth|) with no pruning; device counts
// per scan cycle are small.
func (e *Engine) Correlate(ctx context.Context, wifi, bt map[string]map[string]any, minConfidence float64) ([]Candidate, []Warning) {
	var (
		candidates []Candidate
		warnings   []Warning
	)

	btObs := make(map[string]observation.Observation, len(bt))
	for btID, fields := range bt {
		obs, err := e.normalizer.Normalize(btID, fields, observation.KindBluetooth)
		if err != nil {
			e.logger.Debug("skipping bluetooth record", logging.String("device", btID), logging.Error(err))
			continue
		}
		btObs[btID] = obs
	}

	for wifiID, fields := range wifi {
		wifiObs, err := e.normalizer.Normalize(wifiID, fields, observation.KindWifi)
		if err != nil {
			e.logger.Debug("skipping wifi record", logging.String("device", wifiID), logging.Error(err))
			continue
		}

		for btID, btObservation := range btObs {
			confidence, reason := Score(wifiObs, btObservation, e.params)
			if confidence < minConfidence {
				continue
			}

			candidates = append(candidates, Candidate{
				WifiID:     wifiID,
				WifiName:   wifiObs.Name,
				BTID:       btID,
				BTName:     btObservation.Name,
				Confidence: round2(confidence),
				Reason:     reason,
			})

			if confidence >= persistThreshold && e.writer != nil {
				metadata := map[string]any{
					"wifi_name": wifiObs.Name,
					"bt_name":   btObservation.Name,
				}
				if err := e.writer.UpsertCorrelation(ctx, wifiID, btID, confidence, metadata); err != nil {
					e.logger.Debug("failed to persist correlation",
						logging.String("wifi", wifiID),
						logging.String("bt", btID),
						logging.Error(err))
					warnings = append(warnings, Warning{
						WifiID:  wifiID,
						BTID:    btID,
						Message: "persist correlation: " + err.Error(),
					})
				}
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})
	return candidates, warnings
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
