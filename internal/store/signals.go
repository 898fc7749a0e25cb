package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// SignalReading is one signal strength sample for a device.
type SignalReading struct {
	Signal    float64        `json:"signal"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// AddSignalReading appends a signal strength sample for a device.
func (s *Store) AddSignalReading(ctx context.Context, mode, deviceID string, signal float64, metadata map[string]any) error {
	var metadataJSON string
	if len(metadata) > 0 {
		encoded, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("marshal signal metadata: %w", err)
		}
		metadataJSON = string(encoded)
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO signal_history (mode, device_id, signal_strength, timestamp, metadata)
         VALUES (?, ?, ?, ?, ?)`,
		mode,
		deviceID,
		signal,
		formatTime(time.Now()),
		nullableString(metadataJSON),
	)
	if err != nil {
		return fmt.Errorf("insert signal reading: %w", err)
	}
	return nil
}

// SignalHistory returns the most recent readings for a device within the
// given window, in chronological order.
func (s *Store) SignalHistory(ctx context.Context, mode, deviceID string, limit int, since time.Duration) ([]SignalReading, error) {
	if limit <= 0 {
		limit = 100
	}
	cutoff := formatTime(time.Now().Add(-since))

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT signal_strength, timestamp, metadata
         FROM signal_history
         WHERE mode = ? AND device_id = ? AND timestamp > ?
         ORDER BY timestamp DESC
         LIMIT ?`,
		mode,
		deviceID,
		cutoff,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query signal history: %w", err)
	}
	defer rows.Close()

	var readings []SignalReading
	for rows.Next() {
		var (
			signal   sql.NullFloat64
			raw      string
			metadata sql.NullString
		)
		if err := rows.Scan(&signal, &raw, &metadata); err != nil {
			return nil, fmt.Errorf("scan signal reading: %w", err)
		}
		reading := SignalReading{Signal: signal.Float64}
		if ts, err := parseTimeString(raw); err == nil {
			reading.Timestamp = ts
		}
		if metadata.Valid && metadata.String != "" {
			decoded := map[string]any{}
			if err := json.Unmarshal([]byte(metadata.String), &decoded); err == nil {
				reading.Metadata = decoded
			}
		}
		readings = append(readings, reading)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Newest-first from the query; callers want chronological order.
	for i, j := 0, len(readings)-1; i < j; i, j = i+1, j-1 {
		readings[i], readings[j] = readings[j], readings[i]
	}
	return readings, nil
}

// CleanupSignalHistory removes readings older than maxAge and reports how
// many rows were deleted.
func (s *Store) CleanupSignalHistory(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := formatTime(time.Now().Add(-maxAge))
	res, err := s.db.ExecContext(ctx, `DELETE FROM signal_history WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup signal history: %w", err)
	}
	return res.RowsAffected()
}
