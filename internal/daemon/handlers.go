package daemon

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"intercept/internal/api"
	"intercept/internal/store"
)

// signalModes whitelists the capture modes accepted for signal history.
var signalModes = map[string]struct{}{
	"wifi":      {},
	"bluetooth": {},
	"adsb":      {},
	"pager":     {},
	"sensor":    {},
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, s.daemon.Status())
}

func (s *apiServer) handleCorrelations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	query := r.URL.Query()
	minConfidence := s.daemon.MinConfidence()
	if raw := strings.TrimSpace(query.Get("min_confidence")); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 || parsed > 1 {
			s.writeError(w, http.StatusBadRequest, "min_confidence must be a number between 0 and 1")
			return
		}
		minConfidence = parsed
	}
	includeHistorical := true
	if raw := strings.TrimSpace(query.Get("include_historical")); raw != "" {
		includeHistorical = parseBoolParam(raw)
	}

	s.writeJSON(w, http.StatusOK, s.daemon.Correlations(r.Context(), minConfidence, includeHistorical))
}

func (s *apiServer) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req api.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.WifiID = strings.TrimSpace(req.WifiID)
	req.BTID = strings.TrimSpace(req.BTID)
	if req.WifiID == "" || req.BTID == "" {
		s.writeError(w, http.StatusBadRequest, "wifi_id and bt_id are required")
		return
	}

	result, err := s.daemon.Analyze(r.Context(), req.WifiID, req.BTID)
	if err != nil {
		var notFound *api.NotFoundError
		if errors.As(err, &notFound) {
			s.writeError(w, http.StatusNotFound, notFound.Error())
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *apiServer) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		settings, err := s.daemon.Store().AllSettings(r.Context())
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, api.SettingsResponse{Settings: settings})
	case http.MethodPost:
		var req api.SettingResponse
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if !store.ValidSettingKey(req.Key) {
			s.writeError(w, http.StatusBadRequest, "setting key must be alphanumeric plus _.-")
			return
		}
		if err := s.daemon.Store().SetSetting(r.Context(), req.Key, req.Value); err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, req)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleSetting(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/api/settings/")
	if !store.ValidSettingKey(key) {
		s.writeError(w, http.StatusBadRequest, "setting key must be alphanumeric plus _.-")
		return
	}

	switch r.Method {
	case http.MethodGet:
		value, ok, err := s.daemon.Store().GetSetting(r.Context(), key)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if !ok {
			s.writeError(w, http.StatusNotFound, "setting not found")
			return
		}
		s.writeJSON(w, http.StatusOK, api.SettingResponse{Key: key, Value: value})
	case http.MethodPut:
		var req struct {
			Value any `json:"value"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := s.daemon.Store().SetSetting(r.Context(), key, req.Value); err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, api.SettingResponse{Key: key, Value: req.Value})
	case http.MethodDelete:
		existed, err := s.daemon.Store().DeleteSetting(r.Context(), key)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if !existed {
			s.writeError(w, http.StatusNotFound, "setting not found")
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]string{"deleted": key})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleSignalIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		Mode     string         `json:"mode"`
		DeviceID string         `json:"device_id"`
		Signal   float64        `json:"signal"`
		Metadata map[string]any `json:"metadata"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Mode = strings.ToLower(strings.TrimSpace(req.Mode))
	req.DeviceID = strings.TrimSpace(req.DeviceID)
	if _, ok := signalModes[req.Mode]; !ok {
		s.writeError(w, http.StatusBadRequest, "unknown signal mode")
		return
	}
	if req.DeviceID == "" {
		s.writeError(w, http.StatusBadRequest, "device_id is required")
		return
	}

	if err := s.daemon.Store().AddSignalReading(r.Context(), req.Mode, req.DeviceID, req.Signal, req.Metadata); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"status": "recorded"})
}

func (s *apiServer) handleSignalHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/signals/")
	mode, device, found := strings.Cut(rest, "/")
	if !found || device == "" || strings.Contains(device, "/") {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}
	mode = strings.ToLower(mode)
	if _, ok := signalModes[mode]; !ok {
		s.writeError(w, http.StatusBadRequest, "unknown signal mode")
		return
	}

	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))
	since := time.Duration(s.daemon.cfg.SignalHistory.RetentionHours) * time.Hour
	if raw := strings.TrimSpace(query.Get("since")); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			s.writeError(w, http.StatusBadRequest, "since must be a positive number of seconds")
			return
		}
		since = time.Duration(seconds) * time.Second
	}

	readings, err := s.daemon.Store().SignalHistory(r.Context(), mode, device, limit, since)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"mode":      mode,
		"device_id": device,
		"readings":  readings,
	})
}

func (s *apiServer) handleDeviceIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	kind := strings.TrimPrefix(r.URL.Path, "/api/devices/")
	if kind == "" || strings.Contains(kind, "/") {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}

	var records map[string]map[string]any
	if err := json.NewDecoder(r.Body).Decode(&records); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	stored, err := s.daemon.IngestDevices(kind, records)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"stored": stored})
}

func (s *apiServer) handleGPS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, s.daemon.GPS())
}

func (s *apiServer) handleAircraftStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, s.daemon.Aircraft().Status())
}

func (s *apiServer) handleAircraftUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if err := s.daemon.Aircraft().Download(r.Context()); err != nil {
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, s.daemon.Aircraft().Status())
}

func (s *apiServer) handleAircraftLookup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	icao := strings.TrimPrefix(r.URL.Path, "/api/aircraft/")
	if icao == "" || strings.Contains(icao, "/") {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}

	aircraft := s.daemon.Aircraft().Lookup(icao)
	if aircraft == nil {
		s.writeError(w, http.StatusNotFound, "aircraft not found")
		return
	}
	s.writeJSON(w, http.StatusOK, aircraft)
}

func parseBoolParam(value string) bool {
	return value == "1" || strings.EqualFold(value, "true")
}
