// Package correlation fuses WiFi and Bluetooth device observations into
// ranked device-identity hypotheses.
//
// Score is a pure pairwise confidence function; Engine enumerates the
// cross-product of current observations, filters by threshold, and persists
// high-confidence pairs; Reconciler merges live engine output with persisted
// history, deduplicating by device pair with live results winning.
package correlation
