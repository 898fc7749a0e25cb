// Package api defines the data transfer types shared by the HTTP API, the
// IPC surface, and the CLI, plus the service that bridges the correlation
// engine to the live device caches.
package api
