// Package log provides structured protocol capture for Zrna sessions.
//
// This package defines the Logger interface and Event types for capturing
// protocol-level events at multiple layers (transport, wire, session).
// It is separate from operational logging (slog): protocol capture provides
// a complete machine-readable trace of every frame and request for debugging.
//
// # Basic Usage
//
//	// For development: log to console via slog
//	cfg.ProtocolLogger = log.NewSlogAdapter(slog.Default())
//
//	// For field captures: write to a compressed file
//	cfg.ProtocolLogger, _ = log.NewFileLogger("/tmp/zrna.zlog.zst")
//
//	// Both: use MultiLogger
//	cfg.ProtocolLogger = log.NewMultiLogger(console, file)
//
// # Event Types
//
//   - Transport: encoded COBS frames (FrameEvent)
//   - Wire: decoded requests and responses (MessageEvent)
//   - Session: poll machine transitions and connection state (StateChangeEvent)
//
// Errors at any layer have a dedicated event type.
//
// # File Format
//
// Log files are a stream of CBOR-encoded events, conventionally with a .zlog
// extension. A ".zst" suffix adds zstd compression. The zrna-log CLI tool
// provides viewing, filtering, and export capabilities.
package log
