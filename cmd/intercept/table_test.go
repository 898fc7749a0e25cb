package main

import (
	"strings"
	"testing"
	"time"
)

func TestRenderTableAlignsNumericColumns(t *testing.T) {
	out := renderTable(
		[]tableColumn{{header: "Device"}, {header: "Confidence", numeric: true}},
		[][]string{
			{"AA:BB:CC:11:22:33", "0.90"},
			{"DD:EE:FF:44:55:66", "0.55"},
		},
	)

	if !strings.Contains(out, "Device") || !strings.Contains(out, "Confidence") {
		t.Fatalf("headers missing from table:\n%s", out)
	}
	if !strings.Contains(out, "AA:BB:CC:11:22:33") {
		t.Fatalf("row missing from table:\n%s", out)
	}

	// Right alignment pushes the numeric cell against the column border.
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "0.90") && !strings.Contains(line, "0.90 │") {
			t.Fatalf("confidence cell not right-aligned: %q", line)
		}
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable(
		[]tableColumn{{header: "Key"}, {header: "Value"}},
		[][]string{{"operator"}},
	)
	if strings.Contains(out, "<nil>") {
		t.Fatalf("short row rendered a nil cell:\n%s", out)
	}
	if !strings.Contains(out, "operator") {
		t.Fatalf("row missing from table:\n%s", out)
	}
}

func TestConfidenceCell(t *testing.T) {
	if got := confidenceCell(0.9); got != "0.90" {
		t.Fatalf("confidenceCell(0.9) = %q, want 0.90", got)
	}
	if got := confidenceCell(1); got != "1.00" {
		t.Fatalf("confidenceCell(1) = %q, want 1.00", got)
	}
}

func TestSeenCell(t *testing.T) {
	if got := seenCell(nil); got != "" {
		t.Fatalf("seenCell(nil) = %q, want empty", got)
	}
	seen := time.Date(2026, 8, 26, 12, 30, 0, 0, time.Local)
	if got := seenCell(&seen); got != "2026-08-26 12:30:00" {
		t.Fatalf("seenCell = %q", got)
	}
}
