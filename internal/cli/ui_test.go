package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/graphscope/pkg/pipeline"
)

func captureStatus(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := statusOut
	statusOut = &buf
	t.Cleanup(func() { statusOut = prev })
	return &buf
}

func TestCacheState(t *testing.T) {
	tests := []struct {
		info pipeline.CacheInfo
		want string
	}{
		{pipeline.CacheInfo{}, "fresh"},
		{pipeline.CacheInfo{BuildHit: true}, "partly cached"},
		{pipeline.CacheInfo{AnalysisHit: true}, "partly cached"},
		{pipeline.CacheInfo{BuildHit: true, AnalysisHit: true}, "cached"},
	}
	for _, tt := range tests {
		if got := cacheState(tt.info); got != tt.want {
			t.Errorf("cacheState(%+v) = %q, want %q", tt.info, got, tt.want)
		}
	}
}

func TestPrintStats(t *testing.T) {
	buf := captureStatus(t)

	printStats(pipeline.Stats{
		Files: 4, Skipped: 1, Functions: 12, Calls: 15, Modules: 4, Imports: 5,
		BuildTime: 30 * time.Millisecond, AnalysisTime: 8 * time.Millisecond,
	}, pipeline.CacheInfo{BuildHit: true})

	out := buf.String()
	for _, want := range []string{"4 files", "12 functions (15 calls)", "4 modules (5 imports)", "1 skipped", "38ms", "partly cached"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintStatsNoSkipped(t *testing.T) {
	buf := captureStatus(t)

	printStats(pipeline.Stats{Files: 2}, pipeline.CacheInfo{})

	if out := buf.String(); strings.Contains(out, "skipped") {
		t.Errorf("output mentions skipped files:\n%s", out)
	}
}

func TestStatusLines(t *testing.T) {
	buf := captureStatus(t)

	printSuccess("wrote %d files", 2)
	printWarning("stale %s", "cache")
	printError("failed")
	printFile("out.svg")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	want := []string{"✓ wrote 2 files", "! stale cache", "✗ failed", "→ out.svg"}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(want), buf.String())
	}
	for i, w := range want {
		if !strings.Contains(lines[i], w) {
			t.Errorf("line %d = %q, want it to contain %q", i, lines[i], w)
		}
	}
}
