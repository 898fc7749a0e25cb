// Package logs reads back the daemon's on-disk log file for the CLI.
//
// Tail supports both "last N lines" and "resume from offset" access so the
// logs command can poll without re-reading the whole file.
package logs
