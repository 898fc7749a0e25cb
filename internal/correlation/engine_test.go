package correlation_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"intercept/internal/correlation"
)

type recordingWriter struct {
	upserts []upsert
	err     error
}

type upsert struct {
	wifiID     string
	btID       string
	confidence float64
	metadata   map[string]any
}

func (w *recordingWriter) UpsertCorrelation(_ context.Context, wifiID, btID string, confidence float64, metadata map[string]any) error {
	if w.err != nil {
		return w.err
	}
	w.upserts = append(w.upserts, upsert{wifiID, btID, confidence, metadata})
	return nil
}

func deviceFields(seen time.Time, manufacturer, name string) map[string]any {
	fields := map[string]any{
		"first_seen": seen.Format(time.RFC3339),
		"last_seen":  seen.Format(time.RFC3339),
	}
	if manufacturer != "" {
		fields["manufacturer"] = manufacturer
	}
	if name != "" {
		fields["name"] = name
	}
	return fields
}

func TestCorrelatePersistsHighConfidencePairs(t *testing.T) {
	t0 := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	writer := &recordingWriter{}
	engine := correlation.NewEngine(correlation.Settings{TimeWindowSeconds: 60}, writer, nil)

	wifi := map[string]map[string]any{
		"AA:BB:CC:11:22:33": deviceFields(t0, "Apple", "HomeNet"),
	}
	bt := map[string]map[string]any{
		"AA:BB:CC:44:55:66": deviceFields(t0, "Apple", "AirPods"),
	}

	candidates, warnings := engine.Correlate(context.Background(), wifi, bt, 0.5)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(candidates))
	}
	if candidates[0].Confidence != 0.90 {
		t.Fatalf("confidence = %v, want 0.90", candidates[0].Confidence)
	}
	if len(writer.upserts) != 1 {
		t.Fatalf("got %d upserts, want 1", len(writer.upserts))
	}
	if writer.upserts[0].metadata["wifi_name"] != "HomeNet" || writer.upserts[0].metadata["bt_name"] != "AirPods" {
		t.Fatalf("unexpected metadata: %v", writer.upserts[0].metadata)
	}
}

func TestCorrelateBelowPersistThresholdNotStored(t *testing.T) {
	t0 := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	writer := &recordingWriter{}
	engine := correlation.NewEngine(correlation.Settings{TimeWindowSeconds: 60}, writer, nil)

	// Timing only: confidence 0.5, listed but not persisted.
	wifi := map[string]map[string]any{"AA:11:22:33:44:55": deviceFields(t0, "", "")}
	bt := map[string]map[string]any{"DD:EE:FF:44:55:66": deviceFields(t0, "", "")}

	candidates, _ := engine.Correlate(context.Background(), wifi, bt, 0.5)
	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(candidates))
	}
	if len(writer.upserts) != 0 {
		t.Fatalf("got %d upserts, want 0", len(writer.upserts))
	}
}

func TestCorrelateMinConfidenceFilters(t *testing.T) {
	t0 := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	engine := correlation.NewEngine(correlation.Settings{TimeWindowSeconds: 30}, nil, nil)

	wifi := map[string]map[string]any{"AA:BB:CC:11:22:33": deviceFields(t0, "", "")}
	bt := map[string]map[string]any{"AA:BB:CC:44:55:66": deviceFields(t0.Add(45*time.Second), "", "")}

	if candidates, _ := engine.Correlate(context.Background(), wifi, bt, 0.5); len(candidates) != 0 {
		t.Fatalf("expected 0.15 pair excluded at floor 0.5, got %v", candidates)
	}
	candidates, _ := engine.Correlate(context.Background(), wifi, bt, 0.0)
	if len(candidates) != 1 {
		t.Fatalf("got %d candidates at floor 0, want 1", len(candidates))
	}
	if candidates[0].Confidence != 0.15 {
		t.Fatalf("confidence = %v, want 0.15", candidates[0].Confidence)
	}
}

func TestCorrelatePersistenceFailureBecomesWarning(t *testing.T) {
	t0 := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	writer := &recordingWriter{err: errors.New("disk full")}
	engine := correlation.NewEngine(correlation.Settings{TimeWindowSeconds: 60}, writer, nil)

	wifi := map[string]map[string]any{
		"AA:BB:CC:11:22:33": deviceFields(t0, "Apple", "HomeNet"),
	}
	bt := map[string]map[string]any{
		"AA:BB:CC:44:55:66": deviceFields(t0, "Apple", "AirPods"),
	}

	candidates, warnings := engine.Correlate(context.Background(), wifi, bt, 0.5)
	if len(candidates) != 1 {
		t.Fatalf("persistence failure must not drop candidates, got %d", len(candidates))
	}
	if len(warnings) != 1 {
		t.Fatalf("got %d warnings, want 1", len(warnings))
	}
	if warnings[0].WifiID != "AA:BB:CC:11:22:33" || warnings[0].BTID != "AA:BB:CC:44:55:66" {
		t.Fatalf("warning names wrong pair: %+v", warnings[0])
	}
}

func TestCorrelateSkipsMalformedRecords(t *testing.T) {
	t0 := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	engine := correlation.NewEngine(correlation.Settings{TimeWindowSeconds: 60, StrictTimestamps: true}, nil, nil)

	wifi := map[string]map[string]any{
		"AA:BB:CC:11:22:33": deviceFields(t0, "", ""),
		"":                  deviceFields(t0, "", ""),
	}
	bt := map[string]map[string]any{
		"AA:BB:CC:44:55:66": deviceFields(t0, "", ""),
		"BB:22:33:44:55:66": {"first_seen": "not a time"},
	}

	candidates, _ := engine.Correlate(context.Background(), wifi, bt, 0.0)
	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want only the well-formed pair", len(candidates))
	}
}

func TestCorrelateSortsByConfidenceDescending(t *testing.T) {
	t0 := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	engine := correlation.NewEngine(correlation.Settings{TimeWindowSeconds: 60}, nil, nil)

	wifi := map[string]map[string]any{
		"AA:BB:CC:11:22:33": deviceFields(t0, "Apple", ""),
	}
	bt := map[string]map[string]any{
		"AA:BB:CC:44:55:66": deviceFields(t0, "Apple", ""),
		"DD:EE:FF:44:55:66": deviceFields(t0.Add(20*time.Second), "", ""),
	}

	candidates, _ := engine.Correlate(context.Background(), wifi, bt, 0.0)
	if len(candidates) != 2 {
		t.Fatalf("got %d candidates, want 2", len(candidates))
	}
	if candidates[0].Confidence < candidates[1].Confidence {
		t.Fatalf("candidates not sorted: %v then %v", candidates[0].Confidence, candidates[1].Confidence)
	}
	if candidates[0].BTID != "AA:BB:CC:44:55:66" {
		t.Fatalf("strongest pair first, got %s", candidates[0].BTID)
	}
}
