package transport

import (
	"errors"
	"fmt"
)

// Terminator ends every frame on the wire.
const Terminator byte = 0x00

// maxBlock is the largest COBS code byte; a block of this size carries no
// implicit zero.
const maxBlock = 0xFF

// ErrFrameDecode indicates a frame that is not valid COBS or does not carry a
// decodable message.
var ErrFrameDecode = errors.New("frame decode failed")

// FrameDecodeError describes why a received frame could not be decoded.
type FrameDecodeError struct {
	Offset int
	Reason string
	Err    error
}

func (e *FrameDecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("frame decode failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("frame decode failed at offset %d: %s", e.Offset, e.Reason)
}

// Unwrap returns both the sentinel and the underlying cause.
func (e *FrameDecodeError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrFrameDecode, e.Err}
	}
	return []error{ErrFrameDecode}
}

// MaxEncodedLen returns the worst-case COBS size of an n-byte payload,
// excluding the terminator.
func MaxEncodedLen(n int) int {
	return n + n/(maxBlock-1) + 1
}

// Encode returns the COBS encoding of src. The result never contains 0x00.
// A run of 254 non-zero bytes at the end of src is not followed by an extra
// empty block.
func Encode(src []byte) []byte {
	dst := make([]byte, 0, MaxEncodedLen(len(src)))
	start := 0
	finalZero := true

	for i, b := range src {
		switch {
		case b == 0:
			finalZero = true
			dst = append(dst, byte(i-start+1))
			dst = append(dst, src[start:i]...)
			start = i + 1
		case i-start == maxBlock-2:
			finalZero = false
			dst = append(dst, maxBlock)
			dst = append(dst, src[start:i+1]...)
			start = i + 1
		}
	}

	if start != len(src) || finalZero {
		dst = append(dst, byte(len(src)-start+1))
		dst = append(dst, src[start:]...)
	}
	return dst
}

// Decode reverses Encode. src must not include the terminator.
func Decode(src []byte) ([]byte, error) {
	if len(src) == 0 {
		return nil, &FrameDecodeError{Reason: "empty frame"}
	}

	dst := make([]byte, 0, len(src))
	for i := 0; i < len(src); {
		code := int(src[i])
		if code == 0 {
			return nil, &FrameDecodeError{Offset: i, Reason: "unexpected zero byte"}
		}
		i++

		end := i + code - 1
		if end > len(src) {
			return nil, &FrameDecodeError{Offset: i - 1, Reason: "block exceeds frame"}
		}
		for j := i; j < end; j++ {
			if src[j] == 0 {
				return nil, &FrameDecodeError{Offset: j, Reason: "unexpected zero byte"}
			}
		}
		dst = append(dst, src[i:end]...)
		i = end

		if code < maxBlock && i < len(src) {
			dst = append(dst, 0)
		}
	}
	return dst, nil
}
