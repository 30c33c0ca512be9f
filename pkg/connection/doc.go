// Package connection keeps a device session alive across link failures.
//
// A Manager opens a channel through an OpenFunc, wraps it in an
// interaction.Client and runs the ping handshake. When a request fails with
// an interaction.TransportError the session is closed and, if enabled, the
// reconnect loop opens a new channel after an exponential backoff:
//
//	250ms, 500ms, 1s, 2s, 4s, 8s, 8s, ...
//
// Each delay gets up to 20% random jitter. The schedule resets after a
// successful handshake. Requests that fail with a status code leave the
// session untouched, and a failed request is never resent.
//
// Every session gets a fresh connection ID. The manager's own state
// transitions are logged under Manager.ID.
package connection
