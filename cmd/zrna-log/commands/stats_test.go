package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/zrna-research/zrna-go/pkg/log"
)

func TestStatsSummary(t *testing.T) {
	path := createTestLogFile(t, "session.zlog", sessionEvents())

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Total Events: 5",
		"TRANSPORT:",
		"WIRE:",
		"SESSION:",
		"IN:          3 (1.5 kB)",
		"OUT:         2 (12 B)",
		"NOT_FOUND_ERROR: 1",
		"Sessions: 1",
		"[3f2a9c1e] 5 events, duration 3ms",
		"Link: stream /dev/ttyACM0",
		"Requests: 1",
		"Round trip: mean 1.500ms, peak 1.500ms",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Errors:") {
		t.Errorf("unexpected error count:\n%s", out)
	}
}

func TestStatsCountsErrors(t *testing.T) {
	events := []log.Event{
		{Timestamp: testTime, Category: log.CategoryError, Error: &log.ErrorEventData{Message: "decode"}},
		{Timestamp: testTime, Category: log.CategoryError, Error: &log.ErrorEventData{Message: "timeout"}},
	}
	path := createTestLogFile(t, "errors.zlog", events)

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Errors: 2") {
		t.Errorf("expected 2 errors:\n%s", buf.String())
	}
}

func TestStatsEmptyLog(t *testing.T) {
	path := createTestLogFile(t, "empty.zlog", nil)

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Total Events: 0") || !strings.Contains(out, "Sessions: 0") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if strings.Contains(out, "Time Range") {
		t.Errorf("empty log should not report a time range:\n%s", out)
	}
}

func TestMeanRoundTripZero(t *testing.T) {
	var c ConnectionStats
	if c.MeanRoundTrip() != 0 {
		t.Error("expected zero mean without responses")
	}
}
