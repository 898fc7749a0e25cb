package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"intercept/internal/correlation"
)

// UpsertCorrelation inserts or updates a device-pair correlation keyed by
// (wifiID, btID). On conflict, confidence, last-seen, and metadata are
// overwritten; first-seen keeps the value from the original insert. The
// statement is atomic, so concurrent passes racing on the same pair resolve
// to the last writer without partial rows.
func (s *Store) UpsertCorrelation(ctx context.Context, wifiID, btID string, confidence float64, metadata map[string]any) error {
	var metadataJSON string
	if len(metadata) > 0 {
		encoded, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("marshal correlation metadata: %w", err)
		}
		metadataJSON = string(encoded)
	}

	now := formatTime(time.Now())
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO device_correlations (wifi_id, bt_id, confidence, first_seen, last_seen, metadata)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT(wifi_id, bt_id) DO UPDATE SET
             confidence = excluded.confidence,
             last_seen = excluded.last_seen,
             metadata = excluded.metadata`,
		wifiID,
		btID,
		confidence,
		now,
		now,
		nullableString(metadataJSON),
	)
	if err != nil {
		return fmt.Errorf("upsert correlation: %w", err)
	}
	return nil
}

// Correlations returns persisted correlations with confidence at or above
// the given floor, ordered by confidence descending.
func (s *Store) Correlations(ctx context.Context, minConfidence float64) ([]correlation.Record, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT wifi_id, bt_id, confidence, first_seen, last_seen, metadata
         FROM device_correlations
         WHERE confidence >= ?
         ORDER BY confidence DESC`,
		minConfidence,
	)
	if err != nil {
		return nil, fmt.Errorf("query correlations: %w", err)
	}
	defer rows.Close()

	var records []correlation.Record
	for rows.Next() {
		record, err := scanCorrelation(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func scanCorrelation(rows *sql.Rows) (correlation.Record, error) {
	var (
		wifiID     string
		btID       string
		confidence float64
		firstRaw   string
		lastRaw    string
		metadata   sql.NullString
	)
	if err := rows.Scan(&wifiID, &btID, &confidence, &firstRaw, &lastRaw, &metadata); err != nil {
		return correlation.Record{}, fmt.Errorf("scan correlation: %w", err)
	}

	record := correlation.Record{
		WifiID:     wifiID,
		BTID:       btID,
		Confidence: confidence,
	}
	if firstSeen, err := parseTimeString(firstRaw); err == nil {
		record.FirstSeen = firstSeen
	}
	if lastSeen, err := parseTimeString(lastRaw); err == nil {
		record.LastSeen = lastSeen
	}
	if metadata.Valid && metadata.String != "" {
		decoded := map[string]any{}
		if err := json.Unmarshal([]byte(metadata.String), &decoded); err == nil {
			record.Metadata = decoded
		}
	}
	return record, nil
}
