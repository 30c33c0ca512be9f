// Package transport moves encoded frames between a Zrna client and the device.
//
// The transport layer handles:
//   - COBS framing with a 0x00 terminator
//   - Three link variants behind one FrameExchanger interface
//   - The status-byte handshake of the polled bus
//
// # Protocol Stack
//
//	┌────────────────────────────────┐
//	│      Protobuf Envelope         │
//	├────────────────────────────────┤
//	│   COBS Frame + 0x00            │
//	├────────────────────────────────┤
//	│ Stream │ Register │ Polled bus │
//	└────────────────────────────────┘
//
// # Link Variants
//
// Stream writes the frame in one call and reads one byte at a time until the
// terminator (USB CDC serial). Register does the same one register access per
// byte and waits a settle delay between send and receive (I2C). Polled drives
// the device through status bytes on a bus without a ready line (SPI):
//
//	poll 0xFF -> BUSY 0xFF | READY 0xFE | READ 0xFD | DATA_AVAILABLE 0xFC
//
// On READY the client writes a 2-byte big-endian length followed by the frame.
// On READ it reads the 2-byte response length, and on DATA_AVAILABLE it reads
// that many bytes. Polls are spaced 20 ms apart.
//
// Exchangers are not safe for concurrent use; callers serialize requests.
package transport
