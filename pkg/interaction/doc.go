// Package interaction implements the request/response layer of the zrna
// device protocol.
//
// A Client owns one FrameExchanger. Each call encodes a wire.Request,
// exchanges exactly one frame pair and decodes the wire.Response. Calls are
// serialized, so at most one request is on the wire at a time.
//
// # Client Usage
//
//	ex := transport.NewStream(port, transport.DefaultStreamConfig())
//	client := interaction.NewClient(ex, interaction.ClientConfig{})
//
//	// Handshake: GET /ping must answer with the acknowledge bytes.
//	if err := client.Connect(ctx); err != nil {
//	    return err
//	}
//
//	resp, err := client.Get(ctx, "/version")
//
// # Errors
//
// A response whose status is not OK is returned as a *StatusCodeError and a
// nil response. Link failures are wrapped in *TransportError. Replies that
// cannot be decoded surface as *transport.FrameDecodeError. All three match
// their sentinels with errors.Is.
//
// # Device
//
// Device layers typed operations (modules, parameters, nets, storage,
// clocks) over a connected Client. It adds no protocol of its own: every
// method is one request built from a resource path.
package interaction
