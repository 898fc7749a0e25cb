package api

import (
	"fmt"

	"intercept/internal/correlation"
	"intercept/internal/gpsd"
)

// CorrelationListResponse is the payload for correlation listings.
type CorrelationListResponse struct {
	Correlations []correlation.Candidate `json:"correlations"`
	WifiCount    int                     `json:"wifi_count"`
	BTCount      int                     `json:"bt_count"`
	Warnings     []correlation.Warning   `json:"warnings,omitempty"`
}

// AnalyzeRequest names the device pair to analyze.
type AnalyzeRequest struct {
	WifiID string `json:"wifi_id"`
	BTID   string `json:"bt_id"`
}

// AnalyzeResponse carries the scored pair, or a nil candidate with an
// explanatory message when no correlation was detected.
type AnalyzeResponse struct {
	Correlation *correlation.Candidate `json:"correlation"`
	Message     string                 `json:"message,omitempty"`
	Warnings    []correlation.Warning  `json:"warnings,omitempty"`
}

// GPSResponse reports the current position fix, if any.
type GPSResponse struct {
	Fix      bool           `json:"fix"`
	Position *gpsd.Position `json:"position,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// AdapterStatus describes a tracked wireless capture adapter.
type AdapterStatus struct {
	Name      string `json:"name"`
	Subsystem string `json:"subsystem"`
	Present   bool   `json:"present"`
}

// DaemonStatus represents daemon runtime information.
type DaemonStatus struct {
	Running      bool            `json:"running"`
	PID          int             `json:"pid"`
	WifiNetworks int             `json:"wifi_networks"`
	WifiClients  int             `json:"wifi_clients"`
	BTDevices    int             `json:"bt_devices"`
	DatabasePath string          `json:"database_path"`
	LockFilePath string          `json:"lock_file_path"`
	GPSFix       bool            `json:"gps_fix"`
	Adapters     []AdapterStatus `json:"adapters,omitempty"`
}

// SettingResponse is one settings key/value pair.
type SettingResponse struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// SettingsResponse is the full settings map.
type SettingsResponse struct {
	Settings map[string]any `json:"settings"`
}

// NotFoundError reports that a device identifier is absent from the live
// caches. It is distinct from a zero-confidence result.
type NotFoundError struct {
	Kind string // "wifi" or "bluetooth"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s device %s not found", e.Kind, e.ID)
}
