package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateCorrelation(); err != nil {
		return err
	}
	if err := c.validateGPSD(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Paths.APIBind == "" {
		return errors.New("paths.api_bind must be set")
	}
	return nil
}

func (c *Config) validateCorrelation() error {
	if c.Correlation.TimeWindowSeconds <= 0 {
		return errors.New("correlation.time_window_seconds must be positive")
	}
	if c.Correlation.MinConfidence < 0 || c.Correlation.MinConfidence > 1 {
		return errors.New("correlation.min_confidence must be between 0 and 1")
	}
	if c.Correlation.RSSIThreshold <= 0 {
		return errors.New("correlation.rssi_threshold must be positive")
	}
	return nil
}

func (c *Config) validateGPSD() error {
	if !c.GPSD.Enabled {
		return nil
	}
	if c.GPSD.Port <= 0 || c.GPSD.Port > 65535 {
		return fmt.Errorf("gpsd.port %d is out of range", c.GPSD.Port)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
		return nil
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
}
