package testsupport

import (
	"path/filepath"
	"testing"

	"intercept/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.SocketPath = filepath.Join(base, "interceptd.sock")
	cfg.Paths.APIBind = "127.0.0.1:0"

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithTimeWindow overrides the correlation time window on the test config.
func WithTimeWindow(seconds int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Correlation.TimeWindowSeconds = seconds
	}
}

// WithStrictTimestamps enables strict timestamp handling on the test config.
func WithStrictTimestamps() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Correlation.StrictTimestamps = true
	}
}
