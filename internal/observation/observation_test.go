package observation_test

import (
	"errors"
	"testing"
	"time"

	"intercept/internal/observation"
)

func TestNormalizeFieldAliases(t *testing.T) {
	seen := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	var n observation.Normalizer

	cases := []struct {
		name   string
		fields map[string]any
	}{
		{"snake_case", map[string]any{
			"first_seen": seen.Format(time.RFC3339), "last_seen": seen.Format(time.RFC3339),
			"rssi": -42, "name": "HomeNet", "manufacturer": "Apple",
		}},
		{"camelCase and collector aliases", map[string]any{
			"firstSeen": seen.Format(time.RFC3339), "lastSeen": seen.Format(time.RFC3339),
			"power": -42, "essid": "HomeNet", "vendor": "Apple",
		}},
		{"signal and ssid aliases", map[string]any{
			"first_seen": seen.Format(time.RFC3339), "last_seen": seen.Format(time.RFC3339),
			"signal": -42.0, "ssid": "HomeNet", "manufacturer": "Apple",
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			obs, err := n.Normalize("AA:BB:CC:DD:EE:FF", tc.fields, observation.KindWifi)
			if err != nil {
				t.Fatalf("Normalize failed: %v", err)
			}
			if !obs.FirstSeen.Equal(seen) || !obs.LastSeen.Equal(seen) {
				t.Errorf("timestamps = %v / %v, want %v", obs.FirstSeen, obs.LastSeen, seen)
			}
			if obs.RSSI == nil || *obs.RSSI != -42 {
				t.Errorf("rssi = %v, want -42", obs.RSSI)
			}
			if obs.Name != "HomeNet" {
				t.Errorf("name = %q, want HomeNet", obs.Name)
			}
			if obs.Manufacturer != "Apple" {
				t.Errorf("manufacturer = %q, want Apple", obs.Manufacturer)
			}
		})
	}
}

func TestNormalizeEpochMillis(t *testing.T) {
	var n observation.Normalizer
	obs, err := n.Normalize("AA:BB:CC:DD:EE:FF", map[string]any{
		"first_seen": float64(1773489600000),
		"last_seen":  float64(1773489660000),
	}, observation.KindBluetooth)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if obs.FirstSeen.UnixMilli() != 1773489600000 {
		t.Fatalf("first seen = %v", obs.FirstSeen)
	}
	if obs.LastSeen.Sub(obs.FirstSeen) != time.Minute {
		t.Fatalf("span = %v, want 1m", obs.LastSeen.Sub(obs.FirstSeen))
	}
}

func TestNormalizeEmptyIdentifierRejected(t *testing.T) {
	var n observation.Normalizer
	for _, id := range []string{"", "   "} {
		_, err := n.Normalize(id, map[string]any{}, observation.KindWifi)
		if !errors.Is(err, observation.ErrMalformedObservation) {
			t.Fatalf("identifier %q: err = %v, want ErrMalformedObservation", id, err)
		}
	}
}

func TestNormalizeFallbackPolicySubstitutesNow(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	n := observation.Normalizer{Now: func() time.Time { return now }}

	obs, err := n.Normalize("AA:BB:CC:DD:EE:FF", map[string]any{"first_seen": "garbage"}, observation.KindWifi)
	if err != nil {
		t.Fatalf("fallback policy must accept unparseable timestamps: %v", err)
	}
	if !obs.FirstSeen.Equal(now) || !obs.LastSeen.Equal(now) {
		t.Fatalf("timestamps = %v / %v, want substituted now", obs.FirstSeen, obs.LastSeen)
	}
}

func TestNormalizeStrictPolicyRejects(t *testing.T) {
	n := observation.Normalizer{Policy: observation.TimestampStrict}

	if _, err := n.Normalize("AA:BB:CC:DD:EE:FF", map[string]any{"first_seen": "garbage"}, observation.KindWifi); err == nil {
		t.Fatal("strict policy must reject unparseable timestamps")
	}
	if _, err := n.Normalize("AA:BB:CC:DD:EE:FF", map[string]any{}, observation.KindWifi); err == nil {
		t.Fatal("strict policy must reject missing timestamps")
	}
}

func TestNormalizeRSSIFromString(t *testing.T) {
	seen := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	var n observation.Normalizer

	obs, err := n.Normalize("AA:BB:CC:DD:EE:FF", map[string]any{
		"first_seen": seen.Format(time.RFC3339),
		"last_seen":  seen.Format(time.RFC3339),
		"rssi":       " -67 ",
	}, observation.KindWifi)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if obs.RSSI == nil || *obs.RSSI != -67 {
		t.Fatalf("rssi = %v, want -67", obs.RSSI)
	}
}
