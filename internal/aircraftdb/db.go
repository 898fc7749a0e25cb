package aircraftdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"intercept/internal/config"
	"intercept/internal/fileutil"
	"intercept/internal/logging"
)

const userAgent = "intercept/1.0"

// Aircraft is the lookup result for one ICAO hex code.
type Aircraft struct {
	Registration string `json:"registration"`
	TypeCode     string `json:"type_code"`
	TypeDesc     string `json:"type_desc"`
}

// Status summarizes the on-disk database state.
type Status struct {
	Installed     bool   `json:"installed"`
	Version       string `json:"version,omitempty"`
	Downloaded    string `json:"downloaded,omitempty"`
	AircraftCount int    `json:"aircraft_count"`
}

type meta struct {
	Version    string `json:"version"`
	Downloaded string `json:"downloaded"`
}

// The Mictronics database stores each aircraft as an array:
// [registration, type_code, flags, ...].
type dbFile struct {
	Aircraft map[string]json.RawMessage `json:"aircraft"`
	Types    map[string]string          `json:"types"`
}

// DB is a downloadable ICAO hex to registration/type lookup table, cached on
// disk next to a metadata sidecar and held in memory once loaded.
type DB struct {
	cfg    config.AircraftDB
	path   string
	meta   string
	client *http.Client
	logger *slog.Logger

	mu       sync.RWMutex
	aircraft map[string]Aircraft
	types    map[string]string
	loaded   bool
	version  string
}

// New creates a database rooted in the given data directory.
func New(cfg config.AircraftDB, dataDir string, logger *slog.Logger) *DB {
	return &DB{
		cfg:    cfg,
		path:   filepath.Join(dataDir, "aircraft_db.json"),
		meta:   filepath.Join(dataDir, "aircraft_db_meta.json"),
		client: &http.Client{Timeout: time.Duration(cfg.DownloadTimeout) * time.Second},
		logger: logging.NewComponentLogger(logger, "aircraft-db"),
	}
}

// Load reads the cached database file into memory. A missing file is not an
// error; Lookup simply misses until a download succeeds.
func (d *DB) Load() error {
	data, err := os.ReadFile(d.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			d.logger.Info("aircraft database not installed")
			return nil
		}
		return fmt.Errorf("read aircraft database: %w", err)
	}

	var file dbFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse aircraft database: %w", err)
	}

	aircraft := make(map[string]Aircraft, len(file.Aircraft))
	for icao, raw := range file.Aircraft {
		entry, ok := decodeAircraft(raw)
		if !ok {
			continue
		}
		if desc, ok := file.Types[entry.TypeCode]; ok {
			entry.TypeDesc = desc
		}
		aircraft[strings.ToUpper(icao)] = entry
	}

	version := "unknown"
	if m, err := d.loadMeta(); err == nil && m.Version != "" {
		version = m.Version
	}

	d.mu.Lock()
	d.aircraft = aircraft
	d.types = file.Types
	d.loaded = true
	d.version = version
	d.mu.Unlock()

	d.logger.Info("loaded aircraft database",
		logging.Int("aircraft", len(aircraft)),
		logging.Int("types", len(file.Types)))
	return nil
}

// Lookup returns metadata for an ICAO hex code, or nil when the database is
// not loaded or the code is unknown.
func (d *DB) Lookup(icao string) *Aircraft {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.loaded {
		return nil
	}
	entry, ok := d.aircraft[strings.ToUpper(strings.TrimSpace(icao))]
	if !ok {
		return nil
	}
	return &entry
}

// Status reports the installed database state.
func (d *DB) Status() Status {
	status := Status{}
	if _, err := os.Stat(d.path); err == nil {
		status.Installed = true
	}
	if m, err := d.loadMeta(); err == nil {
		status.Version = m.Version
		status.Downloaded = m.Downloaded
	}

	d.mu.RLock()
	if d.loaded {
		status.AircraftCount = len(d.aircraft)
	}
	d.mu.RUnlock()
	return status
}

// Download fetches the aircraft and type databases, writes the combined file
// and metadata sidecar, and reloads the in-memory cache.
func (d *DB) Download(ctx context.Context) error {
	var aircraft map[string]json.RawMessage
	if err := d.fetchJSON(ctx, d.cfg.AircraftURL, &aircraft); err != nil {
		return fmt.Errorf("download aircraft database: %w", err)
	}

	var types map[string]string
	if err := d.fetchJSON(ctx, d.cfg.TypesURL, &types); err != nil {
		return fmt.Errorf("download type codes: %w", err)
	}

	combined, err := json.Marshal(dbFile{Aircraft: aircraft, Types: types})
	if err != nil {
		return fmt.Errorf("encode aircraft database: %w", err)
	}
	if err := fileutil.WriteFileAtomic(d.path, combined, 0o644); err != nil {
		return fmt.Errorf("write aircraft database: %w", err)
	}

	now := time.Now().UTC()
	if err := d.saveMeta(meta{
		Version:    now.Format("2006-01-02"),
		Downloaded: now.Format(time.RFC3339),
	}); err != nil {
		d.logger.Warn("failed to save aircraft db metadata", logging.Error(err))
	}

	d.logger.Info("downloaded aircraft database",
		logging.Int("aircraft", len(aircraft)),
		logging.Int("types", len(types)))
	return d.Load()
}

func (d *DB) fetchJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

func (d *DB) loadMeta() (meta, error) {
	data, err := os.ReadFile(d.meta)
	if err != nil {
		return meta{}, err
	}
	var m meta
	if err := json.Unmarshal(data, &m); err != nil {
		return meta{}, err
	}
	return m, nil
}

func (d *DB) saveMeta(m meta) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return fileutil.WriteFileAtomic(d.meta, data, 0o644)
}

func decodeAircraft(raw json.RawMessage) (Aircraft, bool) {
	var asList []any
	if err := json.Unmarshal(raw, &asList); err == nil {
		entry := Aircraft{}
		if len(asList) > 0 {
			entry.Registration, _ = asList[0].(string)
		}
		if len(asList) > 1 {
			entry.TypeCode, _ = asList[1].(string)
		}
		return entry, true
	}

	// Legacy dict format.
	var asMap struct {
		R string `json:"r"`
		T string `json:"t"`
	}
	if err := json.Unmarshal(raw, &asMap); err == nil {
		return Aircraft{Registration: asMap.R, TypeCode: asMap.T}, true
	}
	return Aircraft{}, false
}
