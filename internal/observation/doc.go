// Package observation normalizes heterogeneous device records produced by
// upstream WiFi and Bluetooth collectors into a canonical shape the
// correlation engine can score.
package observation
