package observation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrMalformedObservation marks a device record that cannot be normalized.
// Callers skip the offending record and continue.
var ErrMalformedObservation = errors.New("malformed observation")

// Kind identifies the sensor that produced a device record.
type Kind string

const (
	KindWifi      Kind = "wifi"
	KindBluetooth Kind = "bluetooth"
)

// TimestampPolicy controls how records without a parseable timestamp are
// handled during normalization.
type TimestampPolicy int

const (
	// TimestampFallbackNow substitutes the current instant for a missing or
	// unparseable timestamp so partially populated records still correlate.
	// This injects noise into timing-based scoring for malformed records.
	TimestampFallbackNow TimestampPolicy = iota
	// TimestampStrict rejects records without a parseable timestamp.
	TimestampStrict
)

// Observation is the canonical shape of a single device sighting.
type Observation struct {
	Identifier   string
	Kind         Kind
	FirstSeen    time.Time
	LastSeen     time.Time
	RSSI         *int
	Name         string
	Manufacturer string
}

// Normalizer converts loosely-typed collector records into Observations.
// The zero value uses the fallback-to-now timestamp policy and wall-clock time.
type Normalizer struct {
	Policy TimestampPolicy
	Now    func() time.Time
}

// Upstream collectors disagree on field names; each list is tried in order.
var (
	firstSeenAliases    = []string{"first_seen", "firstSeen"}
	lastSeenAliases     = []string{"last_seen", "lastSeen"}
	rssiAliases         = []string{"rssi", "power", "signal"}
	nameAliases         = []string{"name", "essid", "ssid"}
	manufacturerAliases = []string{"manufacturer", "vendor"}
)

// Normalize converts a raw device record into an Observation. The identifier
// passes through unchanged; case normalization happens at comparison sites.
func (n Normalizer) Normalize(identifier string, fields map[string]any, kind Kind) (Observation, error) {
	if strings.TrimSpace(identifier) == "" {
		return Observation{}, fmt.Errorf("%w: empty identifier", ErrMalformedObservation)
	}

	firstSeen, err := n.timestampField(fields, firstSeenAliases)
	if err != nil {
		return Observation{}, fmt.Errorf("%w: %s first_seen: %v", ErrMalformedObservation, identifier, err)
	}
	lastSeen, err := n.timestampField(fields, lastSeenAliases)
	if err != nil {
		return Observation{}, fmt.Errorf("%w: %s last_seen: %v", ErrMalformedObservation, identifier, err)
	}

	return Observation{
		Identifier:   identifier,
		Kind:         kind,
		FirstSeen:    firstSeen,
		LastSeen:     lastSeen,
		RSSI:         intField(fields, rssiAliases),
		Name:         stringField(fields, nameAliases),
		Manufacturer: stringField(fields, manufacturerAliases),
	}, nil
}

func (n Normalizer) now() time.Time {
	if n.Now != nil {
		return n.Now()
	}
	return time.Now()
}

func (n Normalizer) timestampField(fields map[string]any, aliases []string) (time.Time, error) {
	for _, alias := range aliases {
		value, ok := fields[alias]
		if !ok || value == nil {
			continue
		}
		if ts, ok := parseTimestamp(value); ok {
			return ts, nil
		}
		if n.Policy == TimestampStrict {
			return time.Time{}, fmt.Errorf("unparseable timestamp %v", value)
		}
		return n.now(), nil
	}
	if n.Policy == TimestampStrict {
		return time.Time{}, errors.New("timestamp missing")
	}
	return n.now(), nil
}

// parseTimestamp accepts ISO-8601 strings and Unix epoch millisecond numbers.
func parseTimestamp(value any) (time.Time, bool) {
	switch v := value.(type) {
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return time.Time{}, false
		}
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
			if ts, err := time.Parse(layout, trimmed); err == nil {
				return ts, true
			}
		}
		return time.Time{}, false
	case float64:
		return time.UnixMilli(int64(v)), true
	case int:
		return time.UnixMilli(int64(v)), true
	case int64:
		return time.UnixMilli(v), true
	default:
		return time.Time{}, false
	}
}

func intField(fields map[string]any, aliases []string) *int {
	for _, alias := range aliases {
		value, ok := fields[alias]
		if !ok || value == nil {
			continue
		}
		switch v := value.(type) {
		case int:
			return &v
		case int64:
			n := int(v)
			return &n
		case float64:
			n := int(v)
			return &n
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				return &n
			}
		}
	}
	return nil
}

func stringField(fields map[string]any, aliases []string) string {
	for _, alias := range aliases {
		value, ok := fields[alias]
		if !ok || value == nil {
			continue
		}
		if s, ok := value.(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}
