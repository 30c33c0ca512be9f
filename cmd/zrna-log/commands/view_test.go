package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/zrna-research/zrna-go/pkg/log"
)

func TestViewFormatsSession(t *testing.T) {
	path := createTestLogFile(t, "session.zlog", sessionEvents())

	var buf bytes.Buffer
	if err := RunView(path, ViewFilter{}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"2026-03-14T09:26:53.589000Z [conn:3f2a9c1e]",
		"(stream /dev/ttyACM0)",
		"SESSION State",
		"CONNECTING -> CONNECTED",
		"WIRE REQUEST",
		"Method: GET",
		"Path: /module/flux-capacitor",
		"Data: 03080100",
		"(truncated)",
		"Status: NOT_FOUND_ERROR (2)",
		"Duration: 1.500ms",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestViewFilterByLayer(t *testing.T) {
	path := createTestLogFile(t, "session.zlog", sessionEvents())

	layer := log.LayerTransport
	var buf bytes.Buffer
	if err := RunView(path, ViewFilter{Layer: &layer}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	out := buf.String()

	if got := strings.Count(out, "TRANSPORT Frame"); got != 2 {
		t.Errorf("expected 2 frames, got %d:\n%s", got, out)
	}
	if strings.Contains(out, "REQUEST") || strings.Contains(out, "State") {
		t.Errorf("unexpected non-transport events:\n%s", out)
	}
}

func TestViewFilterByPathAndDirection(t *testing.T) {
	path := createTestLogFile(t, "session.zlog", sessionEvents())

	dir := log.DirectionOut
	var buf bytes.Buffer
	err := RunView(path, ViewFilter{Direction: &dir, PathPrefix: "/module"}, &buf)
	if err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	out := buf.String()

	if strings.Count(out, "[conn:") != 1 {
		t.Errorf("expected exactly the request event:\n%s", out)
	}
	if !strings.Contains(out, "REQUEST") {
		t.Errorf("expected request event:\n%s", out)
	}
}

func TestViewCompressedLog(t *testing.T) {
	path := createTestLogFile(t, "session.zlog"+log.CompressedSuffix, sessionEvents())

	var buf bytes.Buffer
	if err := RunView(path, ViewFilter{}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	if got := strings.Count(buf.String(), "[conn:"); got != 5 {
		t.Errorf("expected 5 events, got %d", got)
	}
}

func TestViewErrorEvent(t *testing.T) {
	code := 2
	path := createTestLogFile(t, "errors.zlog", []log.Event{{
		Timestamp: testTime,
		Layer:     log.LayerWire,
		Category:  log.CategoryError,
		Error: &log.ErrorEventData{
			Layer:   log.LayerWire,
			Message: "status NOT_FOUND_ERROR",
			Code:    &code,
			Context: "GET /module/flux-capacitor",
		},
	}})

	var buf bytes.Buffer
	if err := RunView(path, ViewFilter{}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"WIRE Error", "Message: status NOT_FOUND_ERROR", "Code: 2", "Context: GET /module/flux-capacitor"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestViewMissingFile(t *testing.T) {
	var buf bytes.Buffer
	if err := RunView("/nonexistent/session.zlog", ViewFilter{}, &buf); err == nil {
		t.Error("expected error for missing file")
	}
}
