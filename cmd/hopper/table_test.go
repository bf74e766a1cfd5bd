package main

import (
	"strings"
	"testing"
	"time"

	"hopper/internal/queue"
)

func TestRenderRunsTable(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	runs := []queue.RunInfo{
		{ID: "20260314T090000.000Z", Files: 3, Size: 2048, ModTime: now.Add(-3 * time.Hour)},
		{ID: "20260314T110000.000Z", Files: 1, Size: 100, ModTime: now.Add(-time.Hour)},
	}

	out := renderRunsTable(runs, now)
	for _, want := range []string{"RUN", "FILES", "SIZE", "AGE", "20260314T090000.000Z", "2.0 kB", "3 hours ago", "100 B", "1 hour ago"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected table to contain %q, got:\n%s", want, out)
		}
	}
}
