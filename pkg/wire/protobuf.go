package wire

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Decoding errors.
var (
	ErrMalformed       = errors.New("malformed protobuf")
	ErrWireType        = errors.New("unexpected wire type")
	ErrMultiplePayload = errors.New("more than one payload field set")
)

// field is one decoded protobuf field. Scalar values land in u, length
// delimited values in b.
type field struct {
	num protowire.Number
	typ protowire.Type
	u   uint64
	b   []byte
}

// parseFields walks a serialized message and calls fn for every field.
func parseFields(b []byte, fn func(f field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]

		f := field{num: num, typ: typ}
		switch typ {
		case protowire.VarintType:
			f.u, n = protowire.ConsumeVarint(b)
		case protowire.Fixed32Type:
			var v uint32
			v, n = protowire.ConsumeFixed32(b)
			f.u = uint64(v)
		case protowire.Fixed64Type:
			f.u, n = protowire.ConsumeFixed64(b)
		case protowire.BytesType:
			f.b, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
		}
		b = b[n:]

		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

func (f field) expect(typ protowire.Type) error {
	if f.typ != typ {
		return fmt.Errorf("%w: field %d has type %d, want %d", ErrWireType, f.num, f.typ, typ)
	}
	return nil
}

func (f field) varint() (uint64, error) {
	return f.u, f.expect(protowire.VarintType)
}

func (f field) int32() (int32, error) {
	v, err := f.varint()
	return int32(v), err
}

func (f field) uint32() (uint32, error) {
	v, err := f.varint()
	return uint32(v), err
}

func (f field) bool() (bool, error) {
	v, err := f.varint()
	return v != 0, err
}

func (f field) float32() (float32, error) {
	return math.Float32frombits(uint32(f.u)), f.expect(protowire.Fixed32Type)
}

func (f field) bytes() ([]byte, error) {
	if err := f.expect(protowire.BytesType); err != nil {
		return nil, err
	}
	return append([]byte(nil), f.b...), nil
}

func (f field) string() (string, error) {
	return string(f.b), f.expect(protowire.BytesType)
}

// packedVarints decodes a repeated varint field in packed or unpacked form.
func (f field) packedVarints() ([]uint64, error) {
	if f.typ == protowire.VarintType {
		return []uint64{f.u}, nil
	}
	if err := f.expect(protowire.BytesType); err != nil {
		return nil, err
	}
	var out []uint64
	b := f.b
	for len(b) > 0 {
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return nil, fmt.Errorf("%w: packed field %d: %v", ErrMalformed, f.num, protowire.ParseError(n))
		}
		out = append(out, v)
		b = b[n:]
	}
	return out, nil
}

// packedFloats decodes a repeated float field in packed or unpacked form.
func (f field) packedFloats() ([]float32, error) {
	if f.typ == protowire.Fixed32Type {
		return []float32{math.Float32frombits(uint32(f.u))}, nil
	}
	if err := f.expect(protowire.BytesType); err != nil {
		return nil, err
	}
	if len(f.b)%4 != 0 {
		return nil, fmt.Errorf("%w: packed float field %d has %d bytes", ErrMalformed, f.num, len(f.b))
	}
	out := make([]float32, 0, len(f.b)/4)
	b := f.b
	for len(b) > 0 {
		v, n := protowire.ConsumeFixed32(b)
		out = append(out, math.Float32frombits(v))
		b = b[n:]
	}
	return out, nil
}

// Append helpers. The optional variants omit proto3 default values.

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendOptVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	return appendVarint(b, num, v)
}

func appendOptBool(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	return appendVarint(b, num, 1)
}

func appendFloat(b []byte, num protowire.Number, v float32) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed32Type)
	return protowire.AppendFixed32(b, math.Float32bits(v))
}

func appendOptFloat(b []byte, num protowire.Number, v float32) []byte {
	if v == 0 {
		return b
	}
	return appendFloat(b, num, v)
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendOptString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

// message is implemented by every schema message.
type message interface {
	marshal(b []byte) []byte
	unmarshal(b []byte) error
}

func appendMessage(b []byte, num protowire.Number, m message) []byte {
	return appendBytes(b, num, m.marshal(nil))
}

func decodeMessage(f field, m message) error {
	if err := f.expect(protowire.BytesType); err != nil {
		return err
	}
	return m.unmarshal(f.b)
}

func appendPackedVarints[T ~int32 | ~uint32](b []byte, num protowire.Number, vs []T) []byte {
	if len(vs) == 0 {
		return b
	}
	var inner []byte
	for _, v := range vs {
		inner = protowire.AppendVarint(inner, uint64(v))
	}
	return appendBytes(b, num, inner)
}

func appendPackedFloats(b []byte, num protowire.Number, vs []float32) []byte {
	if len(vs) == 0 {
		return b
	}
	inner := make([]byte, 0, 4*len(vs))
	for _, v := range vs {
		inner = protowire.AppendFixed32(inner, math.Float32bits(v))
	}
	return appendBytes(b, num, inner)
}
