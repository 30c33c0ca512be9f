package wire

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// EncodeRequest serializes a request envelope.
func EncodeRequest(req *Request) ([]byte, error) {
	if !req.Method.IsValid() {
		return nil, fmt.Errorf("invalid request: unknown method %d", int32(req.Method))
	}
	b := appendOptVarint(nil, requestFieldMethod, uint64(req.Method))
	b = appendBytes(b, requestFieldURL, marshalURL(nil, req.Path))
	if req.Payload != nil {
		b = req.Payload.appendPayload(b)
	}
	return b, nil
}

// DecodeRequest parses a request envelope. A request carrying more than one
// payload field is rejected.
func DecodeRequest(data []byte) (*Request, error) {
	req := &Request{}
	err := parseFields(data, func(f field) error {
		switch f.num {
		case requestFieldMethod:
			v, err := f.int32()
			req.Method = Method(v)
			return err
		case requestFieldURL:
			if err := f.expect(protowire.BytesType); err != nil {
				return err
			}
			p, err := unmarshalURL(f.b)
			req.Path = p
			return err
		}
		p, err := decodePayload(f)
		if err != nil || p == nil {
			return err
		}
		if req.Payload != nil {
			return ErrMultiplePayload
		}
		req.Payload = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to decode request: %w", err)
	}
	return req, nil
}

// EncodeResponse serializes a response envelope.
func EncodeResponse(resp *Response) ([]byte, error) {
	b := appendOptVarint(nil, responseFieldStatus, uint64(resp.StatusCode))
	if resp.Body != nil {
		b = resp.Body.appendBody(b)
	}
	return b, nil
}

// DecodeResponse parses a response envelope. Unknown status ordinals are
// kept as-is and unknown body fields are preserved as UnknownBody.
func DecodeResponse(data []byte) (*Response, error) {
	resp := &Response{}
	err := parseFields(data, func(f field) error {
		if f.num == responseFieldStatus {
			v, err := f.int32()
			resp.StatusCode = StatusCode(v)
			return err
		}
		body, err := decodeBody(f)
		if err != nil {
			return err
		}
		resp.Body = body
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return resp, nil
}

func decodePayload(f field) (Payload, error) {
	var m message
	var p Payload
	switch f.num {
	case payloadCircuit:
		v := &Circuit{}
		m, p = v, v
	case payloadModule:
		v := &AnalogModule{}
		m, p = v, v
	case payloadNet:
		v := &Net{}
		m, p = v, v
	case payloadBytestream:
		v := &Bytestream{}
		m, p = v, v
	case payloadLookupTable:
		v := &LookupTable{}
		m, p = v, v
	case payloadModuleClockConfiguration:
		v := &ModuleClockConfiguration{}
		m, p = v, v
	case payloadProcessorClockConfiguration:
		v := &ProcessorClockConfiguration{}
		m, p = v, v
	case payloadMidiListener:
		v := &MidiListener{}
		m, p = v, v
	case payloadParameterSweep:
		v := &ParameterSweep{}
		m, p = v, v
	case payloadStorageDebugRequest:
		v := &StorageDebugRequest{}
		m, p = v, v
	case payloadOptionValue:
		v, err := f.int32()
		return OptionValue(v), err
	case payloadRequested:
		v, err := f.float32()
		return Requested(v), err
	case payloadSystemOptionEnabled:
		v, err := f.bool()
		return SystemOptionEnabled(v), err
	case payloadSystemState:
		v, err := f.int32()
		return SystemState(v), err
	default:
		return nil, nil
	}
	if err := decodeMessage(f, m); err != nil {
		return nil, err
	}
	return p, nil
}

func decodeBody(f field) (Body, error) {
	var m message
	var body Body
	switch f.num {
	case bodyAcknowledge:
		v := &Acknowledge{}
		m, body = v, v
	case bodyVersion:
		v := &Version{}
		m, body = v, v
	case bodyCircuit:
		v := &Circuit{}
		m, body = v, v
	case bodyModuleTypes:
		v := &ModuleTypes{}
		m, body = v, v
	case bodyModules:
		v := &Modules{}
		m, body = v, v
	case bodyLookupTable:
		v := &LookupTable{}
		m, body = v, v
	case bodyBytestream:
		v := &Bytestream{}
		m, body = v, v
	case bodyModuleClockConfiguration:
		v := &ModuleClockConfiguration{}
		m, body = v, v
	case bodyProcessorClockConfiguration:
		v := &ProcessorClockConfiguration{}
		m, body = v, v
	case bodyRealized:
		v, err := f.float32()
		return Realized(v), err
	case bodyMaximum:
		v, err := f.float32()
		return Maximum(v), err
	case bodyMinimum:
		v, err := f.float32()
		return Minimum(v), err
	case bodyOptionValue:
		v, err := f.int32()
		return OptionValue(v), err
	case bodyModuleCount:
		v, err := f.uint32()
		return ModuleCount(v), err
	case bodyNetCount:
		v, err := f.uint32()
		return NetCount(v), err
	default:
		return unknownBody(f), nil
	}
	if err := decodeMessage(f, m); err != nil {
		return nil, err
	}
	return body, nil
}

func unknownBody(f field) *UnknownBody {
	u := &UnknownBody{Field: f.num, Type: f.typ}
	switch f.typ {
	case protowire.VarintType:
		u.Raw = protowire.AppendVarint(nil, f.u)
	case protowire.Fixed32Type:
		u.Raw = protowire.AppendFixed32(nil, uint32(f.u))
	case protowire.Fixed64Type:
		u.Raw = protowire.AppendFixed64(nil, f.u)
	case protowire.BytesType:
		u.Raw = protowire.AppendBytes(nil, f.b)
	}
	return u
}
