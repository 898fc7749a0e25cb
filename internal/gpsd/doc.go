// Package gpsd provides a line-oriented TCP client for the gpsd daemon. It
// keeps the most recent position fix available to the rest of the daemon and
// reconnects automatically when the connection drops.
package gpsd
