package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"intercept/internal/config"
)

func TestDefaults(t *testing.T) {
	cfg := config.Default()

	if cfg.Correlation.TimeWindowSeconds != 30 {
		t.Fatalf("time window = %d, want 30", cfg.Correlation.TimeWindowSeconds)
	}
	if cfg.Correlation.MinConfidence != 0.5 {
		t.Fatalf("min confidence = %v, want 0.5", cfg.Correlation.MinConfidence)
	}
	if cfg.Correlation.RSSIThreshold != 20 {
		t.Fatalf("rssi threshold = %d, want 20", cfg.Correlation.RSSIThreshold)
	}
	if cfg.Correlation.StrictTimestamps {
		t.Fatal("strict timestamps must default to off")
	}
	if cfg.GPSD.Enabled {
		t.Fatal("gpsd must default to disabled")
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("logging defaults = %s/%s", cfg.Logging.Format, cfg.Logging.Level)
	}
}

func TestLoadFromTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
data_dir = "` + dir + `/data"
log_dir = "` + dir + `/logs"
api_bind = "127.0.0.1:9999"
api_token = "secret"

[correlation]
time_window_seconds = 45
min_confidence = 0.6
strict_timestamps = true

[gpsd]
enabled = true
host = "gps.local"
port = 2948

[logging]
format = "json"
level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("config file reported as missing")
	}
	if resolved != path {
		t.Fatalf("resolved path = %s, want %s", resolved, path)
	}
	if cfg.Paths.APIBind != "127.0.0.1:9999" || cfg.Paths.APIToken != "secret" {
		t.Fatalf("paths not loaded: %+v", cfg.Paths)
	}
	if cfg.Correlation.TimeWindowSeconds != 45 || cfg.Correlation.MinConfidence != 0.6 {
		t.Fatalf("correlation not loaded: %+v", cfg.Correlation)
	}
	if !cfg.Correlation.StrictTimestamps {
		t.Fatal("strict_timestamps not loaded")
	}
	if !cfg.GPSD.Enabled || cfg.GPSD.Host != "gps.local" || cfg.GPSD.Port != 2948 {
		t.Fatalf("gpsd not loaded: %+v", cfg.GPSD)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("logging not loaded: %+v", cfg.Logging)
	}
	// Unset sections keep defaults.
	if cfg.Correlation.RSSIThreshold != 20 {
		t.Fatalf("rssi threshold = %d, want default 20", cfg.Correlation.RSSIThreshold)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("missing file reported as existing")
	}
	if cfg.Correlation.TimeWindowSeconds != 30 {
		t.Fatalf("defaults not applied: %+v", cfg.Correlation)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("INTERCEPT_CORRELATION_TIME_WINDOW_SECONDS", "60")
	t.Setenv("INTERCEPT_CORRELATION_MIN_CONFIDENCE", "0.75")
	t.Setenv("INTERCEPT_API_BIND", "0.0.0.0:8080")
	t.Setenv("INTERCEPT_LOG_LEVEL", "warn")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Correlation.TimeWindowSeconds != 60 {
		t.Fatalf("time window = %d, want env override 60", cfg.Correlation.TimeWindowSeconds)
	}
	if cfg.Correlation.MinConfidence != 0.75 {
		t.Fatalf("min confidence = %v, want 0.75", cfg.Correlation.MinConfidence)
	}
	if cfg.Paths.APIBind != "0.0.0.0:8080" {
		t.Fatalf("api bind = %s, want 0.0.0.0:8080", cfg.Paths.APIBind)
	}
	if cfg.Logging.Level != "warn" {
		t.Fatalf("log level = %s, want warn", cfg.Logging.Level)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{
			name:    "zero time window",
			mutate:  func(c *config.Config) { c.Correlation.TimeWindowSeconds = 0 },
			wantErr: "time_window_seconds",
		},
		{
			name:    "confidence above one",
			mutate:  func(c *config.Config) { c.Correlation.MinConfidence = 1.5 },
			wantErr: "min_confidence",
		},
		{
			name:    "negative rssi threshold",
			mutate:  func(c *config.Config) { c.Correlation.RSSIThreshold = -1 },
			wantErr: "rssi_threshold",
		},
		{
			name:    "bad gpsd port",
			mutate:  func(c *config.Config) { c.GPSD.Enabled = true; c.GPSD.Port = 70000 },
			wantErr: "gpsd.port",
		},
		{
			name:    "unknown log format",
			mutate:  func(c *config.Config) { c.Logging.Format = "xml" },
			wantErr: "logging.format",
		},
		{
			name:    "empty data dir",
			mutate:  func(c *config.Config) { c.Paths.DataDir = "" },
			wantErr: "data_dir",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error %q does not mention %s", err, tc.wantErr)
			}
		})
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("directory %s not created: %v", dir, err)
		}
	}
	if got := cfg.DatabasePath(); got != filepath.Join(cfg.Paths.DataDir, "intercept.db") {
		t.Fatalf("DatabasePath = %s", got)
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	if _, _, exists, err := config.Load(path); err != nil || !exists {
		t.Fatalf("sample config failed to load: exists=%v err=%v", exists, err)
	}
}
