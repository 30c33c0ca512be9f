package transport

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestFrameWriterReader(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
	}{
		{"small message", []byte("hello")},
		{"binary data", []byte{0x00, 0xFF, 0x7F, 0x80}},
		{"medium message", bytes.Repeat([]byte{0x00, 0x01}, 1000)},
		{"empty", []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := new(bytes.Buffer)

			frame, err := NewFrameWriter(buf, 0).WriteFrame(tt.payload)
			if err != nil {
				t.Fatalf("WriteFrame failed: %v", err)
			}
			if !bytes.Equal(buf.Bytes(), frame) {
				t.Errorf("written bytes differ from returned frame")
			}
			if frame[len(frame)-1] != Terminator || bytes.IndexByte(frame[:len(frame)-1], 0) >= 0 {
				t.Errorf("frame must contain exactly one trailing terminator: % X", frame)
			}

			raw, err := NewFrameReader(buf, 0).ReadFrame()
			if err != nil {
				t.Fatalf("ReadFrame failed: %v", err)
			}
			got, err := DecodeFrame(raw)
			if err != nil {
				t.Fatalf("DecodeFrame failed: %v", err)
			}
			if !bytes.Equal(got, tt.payload) {
				t.Errorf("payload mismatch: got %d bytes, want %d bytes", len(got), len(tt.payload))
			}
		})
	}
}

func TestFrameReaderSkipsStrayTerminators(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0x00, 0x00, 0x02, 0x11, 0x00})
	raw, err := NewFrameReader(buf, 0).ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}
	if !bytes.Equal(raw, []byte{0x02, 0x11, 0x00}) {
		t.Errorf("ReadFrame = % X", raw)
	}
}

func TestFrameReaderTruncated(t *testing.T) {
	_, err := NewFrameReader(bytes.NewBuffer([]byte{0x03, 0x11}), 0).ReadFrame()
	if !errors.Is(err, ErrFrameTruncated) {
		t.Errorf("expected ErrFrameTruncated, got %v", err)
	}

	_, err = NewFrameReader(bytes.NewBuffer(nil), 0).ReadFrame()
	if !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestFrameSizeLimits(t *testing.T) {
	_, err := NewFrameWriter(io.Discard, 8).WriteFrame(bytes.Repeat([]byte{1}, 8))
	if !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("writer: expected ErrFrameTooLarge, got %v", err)
	}

	_, err = NewFrameReader(bytes.NewBuffer(bytes.Repeat([]byte{1}, 32)), 8).ReadFrame()
	if !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("reader: expected ErrFrameTooLarge, got %v", err)
	}
}
