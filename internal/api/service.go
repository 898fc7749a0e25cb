package api

import (
	"context"

	"intercept/internal/correlation"
	"intercept/internal/devices"
)

// CorrelationService exposes the correlation engine over snapshots of the
// live device caches. WiFi lookups consult the network cache first, then the
// client cache, matching collector ownership.
type CorrelationService struct {
	engine       *correlation.Engine
	reconciler   *correlation.Reconciler
	wifiNetworks *devices.Cache
	wifiClients  *devices.Cache
	btDevices    *devices.Cache
}

// NewCorrelationService wires the engine and reconciler to the device caches.
func NewCorrelationService(
	engine *correlation.Engine,
	reconciler *correlation.Reconciler,
	wifiNetworks, wifiClients, btDevices *devices.Cache,
) *CorrelationService {
	return &CorrelationService{
		engine:       engine,
		reconciler:   reconciler,
		wifiNetworks: wifiNetworks,
		wifiClients:  wifiClients,
		btDevices:    btDevices,
	}
}

// List snapshots the current device caches and returns reconciled
// correlations at or above minConfidence.
func (s *CorrelationService) List(ctx context.Context, minConfidence float64, includeHistorical bool) CorrelationListResponse {
	wifi := s.wifiNetworks.Snapshot()
	for id, fields := range s.wifiClients.Snapshot() {
		wifi[id] = fields
	}
	bt := s.btDevices.Snapshot()

	results, warnings := s.reconciler.Correlations(ctx, correlation.Query{
		Wifi:              wifi,
		BT:                bt,
		MinConfidence:     minConfidence,
		IncludeHistorical: includeHistorical,
	})

	return CorrelationListResponse{
		Correlations: results,
		WifiCount:    len(wifi),
		BTCount:      len(bt),
		Warnings:     warnings,
	}
}

// Analyze scores one specific device pair with the confidence floor forced to
// zero so even weak evidence surfaces for manual inspection. A missing device
// yields a NotFoundError, never a zero-confidence candidate.
func (s *CorrelationService) Analyze(ctx context.Context, wifiID, btID string) (AnalyzeResponse, error) {
	wifiFields, ok := s.wifiNetworks.Get(wifiID)
	if !ok {
		wifiFields, ok = s.wifiClients.Get(wifiID)
	}
	if !ok {
		return AnalyzeResponse{}, &NotFoundError{Kind: "wifi", ID: wifiID}
	}

	btFields, ok := s.btDevices.Get(btID)
	if !ok {
		return AnalyzeResponse{}, &NotFoundError{Kind: "bluetooth", ID: btID}
	}

	candidates, warnings := s.engine.Correlate(
		ctx,
		map[string]map[string]any{wifiID: wifiFields},
		map[string]map[string]any{btID: btFields},
		0.0,
	)
	if len(candidates) == 0 {
		return AnalyzeResponse{
			Message:  "no correlation detected between these devices",
			Warnings: warnings,
		}, nil
	}
	return AnalyzeResponse{Correlation: &candidates[0], Warnings: warnings}, nil
}
