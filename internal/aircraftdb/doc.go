// Package aircraftdb caches a downloadable ICAO hex to registration/type
// lookup table used to annotate ADS-B device identifiers.
package aircraftdb
