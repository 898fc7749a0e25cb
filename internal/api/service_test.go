package api_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"intercept/internal/api"
	"intercept/internal/correlation"
	"intercept/internal/devices"
)

func newService(t *testing.T) (*api.CorrelationService, *devices.Cache, *devices.Cache, *devices.Cache) {
	t.Helper()
	engine := correlation.NewEngine(correlation.Settings{TimeWindowSeconds: 60, RSSIThreshold: 20}, nil, nil)
	reconciler := correlation.NewReconciler(engine, nil, nil)
	wifiNetworks := devices.NewCache()
	wifiClients := devices.NewCache()
	btDevices := devices.NewCache()
	svc := api.NewCorrelationService(engine, reconciler, wifiNetworks, wifiClients, btDevices)
	return svc, wifiNetworks, wifiClients, btDevices
}

func seen(ts time.Time) string {
	return ts.UTC().Format(time.RFC3339)
}

func TestListCountsAndCorrelates(t *testing.T) {
	svc, wifiNetworks, wifiClients, btDevices := newService(t)
	now := time.Now()

	wifiNetworks.Set("AA:BB:CC:11:22:33", map[string]any{
		"first_seen":   seen(now),
		"manufacturer": "Apple",
	})
	wifiClients.Set("AA:BB:CC:99:88:77", map[string]any{
		"first_seen": seen(now.Add(-2 * time.Hour)),
	})
	btDevices.Set("AA:BB:CC:44:55:66", map[string]any{
		"first_seen":   seen(now.Add(5 * time.Second)),
		"manufacturer": "Apple",
	})

	resp := svc.List(context.Background(), 0.5, false)
	if resp.WifiCount != 2 {
		t.Fatalf("wifi count = %d, want 2 (networks + clients)", resp.WifiCount)
	}
	if resp.BTCount != 1 {
		t.Fatalf("bt count = %d, want 1", resp.BTCount)
	}
	if len(resp.Correlations) != 1 {
		t.Fatalf("got %d correlations, want 1", len(resp.Correlations))
	}
	top := resp.Correlations[0]
	if top.WifiID != "AA:BB:CC:11:22:33" || top.BTID != "AA:BB:CC:44:55:66" {
		t.Fatalf("unexpected top pair: %s / %s", top.WifiID, top.BTID)
	}
	if top.Confidence < 0.5 {
		t.Fatalf("confidence = %v, want >= 0.5", top.Confidence)
	}
}

func TestListEmptyCaches(t *testing.T) {
	svc, _, _, _ := newService(t)

	resp := svc.List(context.Background(), 0.5, false)
	if resp.WifiCount != 0 || resp.BTCount != 0 {
		t.Fatalf("counts = %d/%d, want 0/0", resp.WifiCount, resp.BTCount)
	}
	if len(resp.Correlations) != 0 {
		t.Fatalf("got %d correlations from empty caches", len(resp.Correlations))
	}
}

func TestAnalyzeFindsWifiInClientCache(t *testing.T) {
	svc, _, wifiClients, btDevices := newService(t)
	now := time.Now()

	wifiClients.Set("AA:BB:CC:11:22:33", map[string]any{"first_seen": seen(now)})
	btDevices.Set("DD:EE:FF:44:55:66", map[string]any{"first_seen": seen(now.Add(3 * time.Second))})

	resp, err := svc.Analyze(context.Background(), "AA:BB:CC:11:22:33", "DD:EE:FF:44:55:66")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if resp.Correlation == nil {
		t.Fatalf("expected a candidate, got message %q", resp.Message)
	}
	if !strings.Contains(resp.Correlation.Reason, "appeared within") {
		t.Fatalf("reason = %q, want timing evidence", resp.Correlation.Reason)
	}
}

func TestAnalyzeSurfacesWeakEvidence(t *testing.T) {
	svc, wifiNetworks, _, btDevices := newService(t)
	now := time.Now()

	// Well outside the window with matching OUI: below any listing threshold
	// but Analyze runs with the floor at zero.
	wifiNetworks.Set("AA:BB:CC:11:22:33", map[string]any{"first_seen": seen(now.Add(-3 * time.Hour))})
	btDevices.Set("AA:BB:CC:44:55:66", map[string]any{"first_seen": seen(now)})

	resp, err := svc.Analyze(context.Background(), "AA:BB:CC:11:22:33", "AA:BB:CC:44:55:66")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if resp.Correlation == nil {
		t.Fatal("weak pair must still produce a candidate")
	}
	if resp.Correlation.Confidence != 0.15 {
		t.Fatalf("confidence = %v, want 0.15", resp.Correlation.Confidence)
	}
	if resp.Correlation.Reason != "same OUI" {
		t.Fatalf("reason = %q, want \"same OUI\"", resp.Correlation.Reason)
	}
}

func TestAnalyzeMissingWifiDevice(t *testing.T) {
	svc, _, _, btDevices := newService(t)
	btDevices.Set("DD:EE:FF:44:55:66", map[string]any{"first_seen": seen(time.Now())})

	_, err := svc.Analyze(context.Background(), "absent", "DD:EE:FF:44:55:66")
	var notFound *api.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
	if notFound.Kind != "wifi" || notFound.ID != "absent" {
		t.Fatalf("unexpected NotFoundError: %+v", notFound)
	}
}

func TestAnalyzeMissingBluetoothDevice(t *testing.T) {
	svc, wifiNetworks, _, _ := newService(t)
	wifiNetworks.Set("AA:BB:CC:11:22:33", map[string]any{"first_seen": seen(time.Now())})

	_, err := svc.Analyze(context.Background(), "AA:BB:CC:11:22:33", "absent")
	var notFound *api.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
	if notFound.Kind != "bluetooth" {
		t.Fatalf("kind = %s, want bluetooth", notFound.Kind)
	}
}

func TestAnalyzeMalformedRecordsYieldMessage(t *testing.T) {
	engine := correlation.NewEngine(correlation.Settings{TimeWindowSeconds: 60, StrictTimestamps: true}, nil, nil)
	reconciler := correlation.NewReconciler(engine, nil, nil)
	wifiNetworks := devices.NewCache()
	btDevices := devices.NewCache()
	svc := api.NewCorrelationService(engine, reconciler, wifiNetworks, devices.NewCache(), btDevices)

	wifiNetworks.Set("AA:BB:CC:11:22:33", map[string]any{"first_seen": "not-a-timestamp"})
	btDevices.Set("DD:EE:FF:44:55:66", map[string]any{"first_seen": seen(time.Now())})

	resp, err := svc.Analyze(context.Background(), "AA:BB:CC:11:22:33", "DD:EE:FF:44:55:66")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if resp.Correlation != nil {
		t.Fatalf("malformed record produced a candidate: %+v", resp.Correlation)
	}
	if resp.Message != "no correlation detected between these devices" {
		t.Fatalf("message = %q", resp.Message)
	}
}
