package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory, socket, and bind address configuration.
type Paths struct {
	DataDir    string `toml:"data_dir" env:"DATA_DIR"`
	LogDir     string `toml:"log_dir" env:"LOG_DIR"`
	SocketPath string `toml:"socket_path" env:"SOCKET_PATH"`
	APIBind    string `toml:"api_bind" env:"API_BIND"`
	APIToken   string `toml:"api_token" env:"API_TOKEN"`
}

// Correlation contains tuning for WiFi/Bluetooth device correlation.
type Correlation struct {
	TimeWindowSeconds int     `toml:"time_window_seconds" env:"TIME_WINDOW_SECONDS"`
	MinConfidence     float64 `toml:"min_confidence" env:"MIN_CONFIDENCE"`
	RSSIThreshold     int     `toml:"rssi_threshold" env:"RSSI_THRESHOLD"`
	// StrictTimestamps rejects device records without a parseable timestamp
	// instead of substituting the current instant.
	StrictTimestamps bool `toml:"strict_timestamps" env:"STRICT_TIMESTAMPS"`
}

// GPSD contains configuration for the gpsd client.
type GPSD struct {
	Enabled bool   `toml:"enabled" env:"ENABLED"`
	Host    string `toml:"host" env:"HOST"`
	Port    int    `toml:"port" env:"PORT"`
}

// AircraftDB contains configuration for the aircraft metadata database.
type AircraftDB struct {
	AircraftURL     string `toml:"aircraft_url"`
	TypesURL        string `toml:"types_url"`
	DownloadTimeout int    `toml:"download_timeout"`
}

// Devices contains configuration for the live observation caches.
type Devices struct {
	MaxAgeSeconds int `toml:"max_age_seconds"`
}

// SignalHistory contains retention settings for signal strength readings.
type SignalHistory struct {
	RetentionHours int `toml:"retention_hours"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format" env:"FORMAT"`
	Level  string `toml:"level" env:"LEVEL"`
}

// Config encapsulates all configuration values for intercept.
//
// Configuration sections by subsystem:
//   - Paths: data/log directories, IPC socket, API bind address and token
//   - Correlation: scoring window and thresholds
//   - GPSD: gpsd daemon connection
//   - AircraftDB: aircraft metadata download sources
//   - Devices: live observation cache retention
//   - SignalHistory: signal reading retention
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths" envPrefix:"INTERCEPT_"`
	Correlation   Correlation   `toml:"correlation" envPrefix:"INTERCEPT_CORRELATION_"`
	GPSD          GPSD          `toml:"gpsd" envPrefix:"INTERCEPT_GPSD_"`
	AircraftDB    AircraftDB    `toml:"aircraft_db"`
	Devices       Devices       `toml:"devices"`
	SignalHistory SignalHistory `toml:"signal_history"`
	Logging       Logging       `toml:"logging" envPrefix:"INTERCEPT_LOG_"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/intercept/config.toml")
}

// Load locates, parses, and validates a configuration file. Environment
// variables prefixed INTERCEPT_ override file values. The returned config has
// all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, "", false, fmt.Errorf("apply environment overrides: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("intercept.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite database location under the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "intercept.db")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
