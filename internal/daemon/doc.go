// Package daemon coordinates the long-running intercept process and system
// integration points.
//
// It wires configuration, the persistent store, the live device caches, the
// correlation engine, the gpsd client, and the aircraft database into a
// single lifecycle with flock-based locking to prevent multiple instances.
// The daemon owns the HTTP API that collectors push device observations to
// and that operator tooling queries for correlations, settings, and signal
// history.
//
// Keep orchestration logic here: scoring and persistence live in their
// respective packages while the daemon focuses on startup, shutdown, and high
// level coordination.
package daemon
