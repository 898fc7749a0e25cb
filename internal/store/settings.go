package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Setting value types as stored in the value_type column.
const (
	settingTypeString = "string"
	settingTypeInt    = "int"
	settingTypeFloat  = "float"
	settingTypeBool   = "bool"
	settingTypeJSON   = "json"
)

// ValidSettingKey reports whether key is non-empty and contains only
// alphanumerics plus '_', '.', and '-'. Every write path checks it here so
// HTTP and IPC cannot disagree on what a key may look like.
func ValidSettingKey(key string) bool {
	if key == "" {
		return false
	}
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_' || r == '.' || r == '-':
		default:
			return false
		}
	}
	return true
}

// SetSetting stores a setting value, encoding complex types as JSON. The
// dynamic type is recorded so GetSetting can return the original shape.
func (s *Store) SetSetting(ctx context.Context, key string, value any) error {
	if !ValidSettingKey(key) {
		return fmt.Errorf("invalid setting key %q: must be alphanumeric plus _.-", key)
	}

	valueType, encoded, err := encodeSetting(value)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO settings (key, value, value_type, updated_at)
         VALUES (?, ?, ?, ?)
         ON CONFLICT(key) DO UPDATE SET
             value = excluded.value,
             value_type = excluded.value_type,
             updated_at = excluded.updated_at`,
		key,
		encoded,
		valueType,
		formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}

// GetSetting returns a setting value decoded to its stored type. The second
// return value reports whether the key exists.
func (s *Store) GetSetting(ctx context.Context, key string) (any, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT value, value_type FROM settings WHERE key = ?`, key)

	var value, valueType string
	if err := row.Scan(&value, &valueType); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get setting %q: %w", key, err)
	}
	return decodeSetting(value, valueType), true, nil
}

// DeleteSetting removes a setting, reporting whether it existed.
func (s *Store) DeleteSetting(ctx context.Context, key string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, key)
	if err != nil {
		return false, fmt.Errorf("delete setting %q: %w", key, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// AllSettings returns every setting decoded to its stored type.
func (s *Store) AllSettings(ctx context.Context) (map[string]any, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value, value_type FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("query settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]any)
	for rows.Next() {
		var key, value, valueType string
		if err := rows.Scan(&key, &value, &valueType); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		settings[key] = decodeSetting(value, valueType)
	}
	return settings, rows.Err()
}

func encodeSetting(value any) (string, string, error) {
	switch v := value.(type) {
	case bool:
		return settingTypeBool, strconv.FormatBool(v), nil
	case int:
		return settingTypeInt, strconv.Itoa(v), nil
	case int64:
		return settingTypeInt, strconv.FormatInt(v, 10), nil
	case float64:
		// JSON numbers decode as float64; keep integral values as ints so
		// round-trips through the API preserve the original shape.
		if v == float64(int64(v)) {
			return settingTypeInt, strconv.FormatInt(int64(v), 10), nil
		}
		return settingTypeFloat, strconv.FormatFloat(v, 'f', -1, 64), nil
	case string:
		return settingTypeString, v, nil
	case nil:
		return settingTypeString, "", nil
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return "", "", fmt.Errorf("encode setting value: %w", err)
		}
		return settingTypeJSON, string(encoded), nil
	}
}

func decodeSetting(value, valueType string) any {
	switch valueType {
	case settingTypeInt:
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
		return value
	case settingTypeFloat:
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
		return value
	case settingTypeBool:
		switch strings.ToLower(value) {
		case "true", "1", "yes":
			return true
		default:
			return false
		}
	case settingTypeJSON:
		var decoded any
		if err := json.Unmarshal([]byte(value), &decoded); err == nil {
			return decoded
		}
		return value
	default:
		return value
	}
}
