// Package wire defines the protobuf wire format types for the Zrna command protocol.
//
// Every exchange is one Request from the host followed by exactly one Response
// from the device. Both are protobuf messages encoded with protowire; the
// framing that carries them over a serial link lives in package transport.
//
// # Request Envelope
//
//	Request {
//	  1: method              // enum Method
//	  2: url                 // URL { 1: repeated PathComponent }
//	  3..16: payload         // exactly one typed payload field, or none
//	}
//
// # Response Envelope
//
//	Response {
//	  1: status_code         // enum StatusCode, open
//	  2..16: body            // at most one typed body field
//	}
//
// # Path Components
//
// A URL is an ordered list of PathComponent values. Each component is a oneof
// over the schema enumerations (resource, module type, parameter, option,
// input, output, system option), an integer argument, or a string argument.
// Components are produced by package path; this package only carries them.
//
// # Schema Catalog
//
// The enumerations and messages in this package mirror the device schema. They
// are a fixed, externally versioned contract: ordinals must match the firmware.
// Unknown enum ordinals decode without error and render as NAME_<n>.
package wire
