// Package config loads, validates, and normalizes intercept configuration
// from TOML files and INTERCEPT_-prefixed environment variables.
package config
