// Package store persists intercept's durable state in SQLite: device-pair
// correlations with upsert-on-conflict semantics, a typed key-value settings
// table, and a time-series log of signal strength readings.
//
// The schema is managed through embedded migrations recorded in a
// schema_migrations table. All timestamps are stored as UTC RFC 3339 strings.
package store
