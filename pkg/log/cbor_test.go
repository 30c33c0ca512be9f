package log

import (
	"testing"
	"time"

	"github.com/zrna-research/zrna-go/pkg/wire"
)

func TestFrameEventCBORRoundTrip(t *testing.T) {
	original := Event{
		Timestamp:    time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC),
		ConnectionID: "3f1c9a52-6a0e-4d6e-9d7b-2a4a3c4b5d6e",
		Direction:    DirectionOut,
		Layer:        LayerTransport,
		Category:     CategoryMessage,
		Transport:    "polled",
		Port:         "SPI0.0",
		Frame: &FrameEvent{
			Size: 9,
			Data: []byte{0x02, 0x12, 0x04, 0x00},
		},
	}

	data, err := EncodeEvent(original)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}
	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	if !decoded.Timestamp.Equal(original.Timestamp) {
		t.Errorf("Timestamp: got %v, want %v", decoded.Timestamp, original.Timestamp)
	}
	if decoded.ConnectionID != original.ConnectionID {
		t.Errorf("ConnectionID: got %q, want %q", decoded.ConnectionID, original.ConnectionID)
	}
	if decoded.Transport != "polled" || decoded.Port != "SPI0.0" {
		t.Errorf("Transport/Port: got %q/%q", decoded.Transport, decoded.Port)
	}
	if decoded.Frame == nil {
		t.Fatal("Frame is nil")
	}
	if decoded.Frame.Size != 9 || len(decoded.Frame.Data) != 4 {
		t.Errorf("Frame: got %+v", decoded.Frame)
	}
}

func TestMessageEventCBORRoundTrip(t *testing.T) {
	method := wire.MethodPut
	status := wire.StatusInvalidRequestError
	rtt := 1500 * time.Microsecond

	tests := []struct {
		name string
		msg  *MessageEvent
	}{
		{
			name: "request",
			msg: &MessageEvent{
				Type:        MessageTypeRequest,
				Sequence:    7,
				Method:      &method,
				Path:        "/circuit/module/2/parameter/cutoff/requested",
				PayloadType: "Requested",
			},
		},
		{
			name: "response",
			msg: &MessageEvent{
				Type:      MessageTypeResponse,
				Sequence:  7,
				Status:    &status,
				RoundTrip: &rtt,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodeEvent(Event{Layer: LayerWire, Message: tt.msg})
			if err != nil {
				t.Fatalf("EncodeEvent failed: %v", err)
			}
			decoded, err := DecodeEvent(data)
			if err != nil {
				t.Fatalf("DecodeEvent failed: %v", err)
			}
			m := decoded.Message
			if m == nil {
				t.Fatal("Message is nil")
			}
			if m.Type != tt.msg.Type || m.Sequence != tt.msg.Sequence || m.Path != tt.msg.Path {
				t.Errorf("got %+v, want %+v", m, tt.msg)
			}
			if (m.Method == nil) != (tt.msg.Method == nil) {
				t.Fatalf("Method presence mismatch")
			}
			if m.Method != nil && *m.Method != *tt.msg.Method {
				t.Errorf("Method: got %v, want %v", *m.Method, *tt.msg.Method)
			}
			if (m.Status == nil) != (tt.msg.Status == nil) {
				t.Fatalf("Status presence mismatch")
			}
			if m.Status != nil && *m.Status != *tt.msg.Status {
				t.Errorf("Status: got %v, want %v", *m.Status, *tt.msg.Status)
			}
			if tt.msg.RoundTrip != nil && (m.RoundTrip == nil || *m.RoundTrip != *tt.msg.RoundTrip) {
				t.Errorf("RoundTrip: got %v, want %v", m.RoundTrip, *tt.msg.RoundTrip)
			}
		})
	}
}

func TestStateAndErrorEventCBORRoundTrip(t *testing.T) {
	code := int(wire.StatusNotFoundError)
	events := []Event{
		{
			Layer:    LayerTransport,
			Category: CategoryState,
			StateChange: &StateChangeEvent{
				Entity:   StateEntityPoll,
				OldState: "POLLING",
				NewState: "SENDING",
				Reason:   "READY",
			},
		},
		{
			Layer:    LayerWire,
			Category: CategoryError,
			Error: &ErrorEventData{
				Layer:   LayerWire,
				Message: "status NOT_FOUND_ERROR",
				Code:    &code,
				Context: "GET /circuit/module/9",
			},
		},
	}

	for _, ev := range events {
		data, err := EncodeEvent(ev)
		if err != nil {
			t.Fatalf("EncodeEvent failed: %v", err)
		}
		decoded, err := DecodeEvent(data)
		if err != nil {
			t.Fatalf("DecodeEvent failed: %v", err)
		}
		if ev.StateChange != nil {
			if decoded.StateChange == nil || *decoded.StateChange != *ev.StateChange {
				t.Errorf("StateChange: got %+v, want %+v", decoded.StateChange, ev.StateChange)
			}
		}
		if ev.Error != nil {
			if decoded.Error == nil || decoded.Error.Message != ev.Error.Message || decoded.Error.Code == nil || *decoded.Error.Code != code {
				t.Errorf("Error: got %+v, want %+v", decoded.Error, ev.Error)
			}
		}
	}
}

func TestDecodeEventsSequence(t *testing.T) {
	var capture []byte
	for _, ev := range sampleEvents() {
		data, err := EncodeEvent(ev)
		if err != nil {
			t.Fatalf("EncodeEvent failed: %v", err)
		}
		capture = append(capture, data...)
	}

	events, err := DecodeEvents(capture)
	if err != nil {
		t.Fatalf("DecodeEvents failed: %v", err)
	}
	if len(events) != 4 {
		t.Fatalf("got %d events, want 4", len(events))
	}
	if events[0].Message == nil || events[0].Message.Path != "/ping" {
		t.Errorf("first event: %+v", events[0])
	}
	if events[3].StateChange == nil || events[3].StateChange.NewState != "AWAITING_LENGTH" {
		t.Errorf("last event: %+v", events[3])
	}

	// A capture cut inside the last event keeps everything before it.
	events, err = DecodeEvents(capture[:len(capture)-3])
	if err == nil {
		t.Fatal("expected error for truncated capture")
	}
	if len(events) != 3 {
		t.Errorf("got %d events before the cut, want 3", len(events))
	}
}

func TestDecodeEventRejectsTrailingData(t *testing.T) {
	data, err := EncodeEvent(sampleEvents()[0])
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}
	if _, err := DecodeEvent(append(data, data...)); err == nil {
		t.Error("expected error for two concatenated events")
	}
}
