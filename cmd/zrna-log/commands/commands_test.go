package commands

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/zrna-research/zrna-go/pkg/log"
	"github.com/zrna-research/zrna-go/pkg/wire"
)

const testSession = "3f2a9c1e-7b44-4d0e-9a51-0c2f6d8e1b77"

var testTime = time.Date(2026, 3, 14, 9, 26, 53, 589000000, time.UTC)

// createTestLogFile writes events to a log file named name in a temp dir.
func createTestLogFile(t *testing.T, name string, events []log.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)

	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("failed to close logger: %v", err)
	}
	return path
}

// sessionEvents is a short exchange: a state change, a GET request with its
// frames, and a NOT_FOUND response.
func sessionEvents() []log.Event {
	get := wire.MethodGet
	notFound := wire.StatusNotFoundError
	rt := 1500 * time.Microsecond

	base := log.Event{ConnectionID: testSession, Transport: "stream", Port: "/dev/ttyACM0"}
	at := func(offset time.Duration, e log.Event) log.Event {
		e.Timestamp = testTime.Add(offset)
		e.ConnectionID = base.ConnectionID
		e.Transport = base.Transport
		e.Port = base.Port
		return e
	}

	return []log.Event{
		at(0, log.Event{
			Layer:    log.LayerSession,
			Category: log.CategoryState,
			StateChange: &log.StateChangeEvent{
				Entity:   log.StateEntityConnection,
				OldState: "CONNECTING",
				NewState: "CONNECTED",
			},
		}),
		at(time.Millisecond, log.Event{
			Direction: log.DirectionOut,
			Layer:     log.LayerWire,
			Category:  log.CategoryMessage,
			Message: &log.MessageEvent{
				Type:     log.MessageTypeRequest,
				Sequence: 1,
				Method:   &get,
				Path:     "/module/flux-capacitor",
			},
		}),
		at(time.Millisecond, log.Event{
			Direction: log.DirectionOut,
			Layer:     log.LayerTransport,
			Category:  log.CategoryMessage,
			Frame:     &log.FrameEvent{Size: 12, Data: []byte{0x03, 0x08, 0x01, 0x00}},
		}),
		at(2*time.Millisecond, log.Event{
			Direction: log.DirectionIn,
			Layer:     log.LayerTransport,
			Category:  log.CategoryMessage,
			Frame:     &log.FrameEvent{Size: 1500, Truncated: true, Data: []byte{0x02, 0x10}},
		}),
		at(3*time.Millisecond, log.Event{
			Direction: log.DirectionIn,
			Layer:     log.LayerWire,
			Category:  log.CategoryMessage,
			Message: &log.MessageEvent{
				Type:      log.MessageTypeResponse,
				Sequence:  1,
				Status:    &notFound,
				RoundTrip: &rt,
			},
		}),
	}
}

func TestParseFlags(t *testing.T) {
	if l, err := ParseLayerFlag("Session"); err != nil || l != log.LayerSession {
		t.Errorf("ParseLayerFlag(Session) = %v, %v", l, err)
	}
	if _, err := ParseLayerFlag("service"); err == nil {
		t.Error("expected error for unknown layer")
	}
	if d, err := ParseDirectionFlag("OUT"); err != nil || d != log.DirectionOut {
		t.Errorf("ParseDirectionFlag(OUT) = %v, %v", d, err)
	}
	if _, err := ParseDirectionFlag("sideways"); err == nil {
		t.Error("expected error for unknown direction")
	}
	if c, err := ParseCategoryFlag("error"); err != nil || c != log.CategoryError {
		t.Errorf("ParseCategoryFlag(error) = %v, %v", c, err)
	}
	if _, err := ParseCategoryFlag("control"); err == nil {
		t.Error("expected error for unknown category")
	}
}
