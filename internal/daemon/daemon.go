package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/gofrs/flock"

	"intercept/internal/aircraftdb"
	"intercept/internal/api"
	"intercept/internal/config"
	"intercept/internal/correlation"
	"intercept/internal/devices"
	"intercept/internal/gpsd"
	"intercept/internal/logging"
	"intercept/internal/store"
)

// Device ingest kinds accepted by IngestDevices.
const (
	DeviceKindWifi       = "wifi"
	DeviceKindWifiClient = "wifi-client"
	DeviceKindBluetooth  = "bluetooth"
)

const maintenanceInterval = time.Minute

// Daemon coordinates the device caches, correlation engine, gpsd client, and
// aircraft database, and enforces single-instance execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *store.Store

	wifiNetworks *devices.Cache
	wifiClients  *devices.Cache
	btDevices    *devices.Cache

	engine     *correlation.Engine
	reconciler *correlation.Reconciler
	svc        *api.CorrelationService

	gps      *gpsd.Client
	aircraft *aircraftdb.DB
	adapters *adapterMonitor
	server   *apiServer

	logPath  string
	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || st == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, and logger")
	}

	engine := correlation.NewEngine(correlation.Settings{
		TimeWindowSeconds: cfg.Correlation.TimeWindowSeconds,
		RSSIThreshold:     cfg.Correlation.RSSIThreshold,
		StrictTimestamps:  cfg.Correlation.StrictTimestamps,
	}, st, logger)

	d := &Daemon{
		cfg:          cfg,
		logger:       logger,
		store:        st,
		wifiNetworks: devices.NewCache(),
		wifiClients:  devices.NewCache(),
		btDevices:    devices.NewCache(),
		engine:       engine,
		reconciler:   correlation.NewReconciler(engine, st, logger),
		aircraft:     aircraftdb.New(cfg.AircraftDB, cfg.Paths.DataDir, logger),
		logPath:      filepath.Join(cfg.Paths.LogDir, "intercept.log"),
		lockPath:     filepath.Join(cfg.Paths.LogDir, "interceptd.lock"),
	}
	d.svc = api.NewCorrelationService(d.engine, d.reconciler, d.wifiNetworks, d.wifiClients, d.btDevices)
	d.lock = flock.New(d.lockPath)
	d.adapters = newAdapterMonitor(logger)

	if cfg.GPSD.Enabled {
		d.gps = gpsd.NewClient(cfg.GPSD.Host, cfg.GPSD.Port, logger)
	}

	server, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.server = server
	return d, nil
}

// Start acquires the daemon lock and launches the background services.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another intercept daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.done = make(chan struct{})

	if err := d.aircraft.Load(); err != nil {
		d.logger.Warn("aircraft database unavailable", logging.Error(err))
	}

	if d.gps != nil {
		d.gps.Start(runCtx)
	}
	if err := d.adapters.Start(runCtx); err != nil {
		d.logger.Warn("adapter monitor unavailable", logging.Error(err))
	}
	if d.server != nil {
		if err := d.server.start(runCtx); err != nil {
			d.stopServices()
			cancel()
			d.cancel = nil
			_ = d.lock.Unlock()
			return err
		}
	}

	go d.maintenanceLoop(runCtx)

	d.running.Store(true)
	d.logger.Info("intercept daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background services and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.stopServices()
	if d.done != nil {
		<-d.done
		d.done = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("intercept daemon stopped")
}

func (d *Daemon) stopServices() {
	if d.server != nil {
		d.server.stop()
	}
	d.adapters.Stop()
	if d.gps != nil {
		d.gps.Stop()
	}
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// maintenanceLoop prunes stale cache entries and expires old signal readings.
func (d *Daemon) maintenanceLoop(ctx context.Context) {
	defer close(d.done)

	maxAge := time.Duration(d.cfg.Devices.MaxAgeSeconds) * time.Second
	retention := time.Duration(d.cfg.SignalHistory.RetentionHours) * time.Hour

	ticker := time.NewTicker(maintenanceInterval)
	defer ticker.Stop()

	lastCleanup := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pruned := d.wifiNetworks.Prune(maxAge) + d.wifiClients.Prune(maxAge) + d.btDevices.Prune(maxAge)
			if pruned > 0 {
				d.logger.Debug("pruned stale device records", logging.Int("count", pruned))
			}
			if time.Since(lastCleanup) >= time.Hour {
				lastCleanup = time.Now()
				if removed, err := d.store.CleanupSignalHistory(ctx, retention); err != nil {
					d.logger.Warn("signal history cleanup failed", logging.Error(err))
				} else if removed > 0 {
					d.logger.Debug("expired signal readings", logging.Int64("count", removed))
				}
			}
		}
	}
}

// Correlations snapshots the device caches and returns reconciled candidates.
func (d *Daemon) Correlations(ctx context.Context, minConfidence float64, includeHistorical bool) api.CorrelationListResponse {
	return d.svc.List(ctx, minConfidence, includeHistorical)
}

// Analyze scores one specific device pair regardless of the confidence floor.
func (d *Daemon) Analyze(ctx context.Context, wifiID, btID string) (api.AnalyzeResponse, error) {
	return d.svc.Analyze(ctx, wifiID, btID)
}

// MinConfidence returns the configured confidence floor for listings.
func (d *Daemon) MinConfidence() float64 {
	return d.cfg.Correlation.MinConfidence
}

// IngestDevices feeds a batch of collector records into the cache selected by
// kind and reports how many records were stored.
func (d *Daemon) IngestDevices(kind string, records map[string]map[string]any) (int, error) {
	var cache *devices.Cache
	switch kind {
	case DeviceKindWifi:
		cache = d.wifiNetworks
	case DeviceKindWifiClient:
		cache = d.wifiClients
	case DeviceKindBluetooth:
		cache = d.btDevices
	default:
		return 0, fmt.Errorf("unknown device kind %q", kind)
	}

	stored := 0
	for identifier, fields := range records {
		trimmed := strings.TrimSpace(identifier)
		if trimmed == "" {
			continue
		}
		cache.Set(trimmed, fields)
		stored++
	}
	return stored, nil
}

// GPS reports the current position fix.
func (d *Daemon) GPS() api.GPSResponse {
	if d.gps == nil {
		return api.GPSResponse{Fix: false, Error: "gpsd disabled"}
	}
	pos := d.gps.Position()
	if pos == nil {
		resp := api.GPSResponse{Fix: false}
		if err := d.gps.Err(); err != nil {
			resp.Error = err.Error()
		}
		return resp
	}
	return api.GPSResponse{Fix: true, Position: pos}
}

// Aircraft returns the aircraft metadata database.
func (d *Daemon) Aircraft() *aircraftdb.DB {
	return d.aircraft
}

// Store returns the persistent store.
func (d *Daemon) Store() *store.Store {
	return d.store
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status returns the current daemon status.
func (d *Daemon) Status() api.DaemonStatus {
	return api.DaemonStatus{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		WifiNetworks: d.wifiNetworks.Len(),
		WifiClients:  d.wifiClients.Len(),
		BTDevices:    d.btDevices.Len(),
		DatabasePath: d.store.Path(),
		LockFilePath: d.lockPath,
		GPSFix:       d.gps != nil && d.gps.Position() != nil,
		Adapters:     d.adapters.Adapters(),
	}
}
