// Package devices holds the live observation caches fed by upstream WiFi and
// Bluetooth collectors and read by the correlation endpoints.
package devices
