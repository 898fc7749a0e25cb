package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.SocketPath, err = expandPath(c.Paths.SocketPath); err != nil {
		return fmt.Errorf("paths.socket_path: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)

	c.GPSD.Host = strings.TrimSpace(c.GPSD.Host)
	if c.GPSD.Host == "" {
		c.GPSD.Host = defaultGPSDHost
	}
	if c.GPSD.Port == 0 {
		c.GPSD.Port = defaultGPSDPort
	}

	c.AircraftDB.AircraftURL = strings.TrimSpace(c.AircraftDB.AircraftURL)
	c.AircraftDB.TypesURL = strings.TrimSpace(c.AircraftDB.TypesURL)
	if c.AircraftDB.DownloadTimeout <= 0 {
		c.AircraftDB.DownloadTimeout = defaultDownloadTimeout
	}

	if c.Devices.MaxAgeSeconds <= 0 {
		c.Devices.MaxAgeSeconds = defaultDeviceMaxAge
	}
	if c.SignalHistory.RetentionHours <= 0 {
		c.SignalHistory.RetentionHours = defaultSignalRetention
	}

	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
