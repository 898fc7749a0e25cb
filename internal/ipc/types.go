package ipc

import "intercept/internal/api"

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse mirrors the HTTP status DTO for IPC callers.
type StatusResponse = api.DaemonStatus

// StopRequest stops the daemon.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// CorrelationsRequest lists correlations at or above the confidence floor.
// A nil MinConfidence uses the daemon's configured floor; a nil
// IncludeHistorical includes persisted correlations.
type CorrelationsRequest struct {
	MinConfidence     *float64 `json:"min_confidence"`
	IncludeHistorical *bool    `json:"include_historical"`
}

// CorrelationsResponse contains reconciled correlation candidates.
type CorrelationsResponse = api.CorrelationListResponse

// AnalyzeRequest scores one specific device pair.
type AnalyzeRequest = api.AnalyzeRequest

// AnalyzeResponse carries the scored pair or an explanatory message.
type AnalyzeResponse = api.AnalyzeResponse

// SettingGetRequest fetches one setting by key.
type SettingGetRequest struct {
	Key string `json:"key"`
}

// SettingGetResponse returns a setting value and whether it exists.
type SettingGetResponse struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
	Found bool   `json:"found"`
}

// SettingSetRequest stores one setting.
type SettingSetRequest struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// SettingSetResponse acknowledges a stored setting.
type SettingSetResponse struct {
	Key string `json:"key"`
}

// SettingDeleteRequest removes one setting by key.
type SettingDeleteRequest struct {
	Key string `json:"key"`
}

// SettingDeleteResponse reports whether the setting existed.
type SettingDeleteResponse struct {
	Deleted bool `json:"deleted"`
}

// SettingListRequest fetches all settings.
type SettingListRequest struct{}

// SettingListResponse contains the full settings map.
type SettingListResponse = api.SettingsResponse

// GPSRequest fetches the current position fix.
type GPSRequest struct{}

// GPSResponse reports the current position fix, if any.
type GPSResponse = api.GPSResponse

// LogTailRequest reads lines from the daemon log file. A negative Offset
// requests the last Limit lines.
type LogTailRequest struct {
	Offset     int64 `json:"offset"`
	Limit      int   `json:"limit"`
	Follow     bool  `json:"follow"`
	WaitMillis int64 `json:"wait_millis"`
}

// LogTailResponse carries log lines and the offset to resume from.
type LogTailResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}
