package wire

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// Envelope field numbers.
const (
	requestFieldMethod = 1
	requestFieldURL    = 2

	responseFieldStatus = 1
)

// Request is one host-to-device command.
//
// Protobuf encoding:
//
//	{
//	  1: method,       // enum Method
//	  2: url,          // URL { 1: repeated PathComponent }
//	  3..16: payload   // at most one Payload field
//	}
type Request struct {
	Method  Method
	Path    Path
	Payload Payload
}

// Response is the device reply to exactly one Request.
//
// Protobuf encoding:
//
//	{
//	  1: status_code,  // enum StatusCode
//	  2..16: body      // at most one Body field
//	}
type Response struct {
	StatusCode StatusCode
	Body       Body
}

// IsSuccess returns true if the response carries StatusOK.
func (r *Response) IsSuccess() bool {
	return r.StatusCode.IsOK()
}

// Payload is a typed value that serializes as one Request payload field.
type Payload interface {
	payloadField() protowire.Number
	appendPayload(b []byte) []byte
}

// Body is a typed value that serializes as one Response body field.
type Body interface {
	bodyField() protowire.Number
	appendBody(b []byte) []byte
}

// Request payload field numbers.
const (
	payloadCircuit                     = 3
	payloadModule                      = 4
	payloadNet                         = 5
	payloadBytestream                  = 6
	payloadOptionValue                 = 7
	payloadLookupTable                 = 8
	payloadModuleClockConfiguration    = 9
	payloadRequested                   = 10
	payloadSystemOptionEnabled         = 11
	payloadSystemState                 = 12
	payloadProcessorClockConfiguration = 13
	payloadMidiListener                = 14
	payloadParameterSweep              = 15
	payloadStorageDebugRequest         = 16
)

// Response body field numbers.
const (
	bodyAcknowledge                 = 2
	bodyVersion                     = 3
	bodyCircuit                     = 4
	bodyModuleTypes                 = 5
	bodyModules                     = 6
	bodyRealized                    = 7
	bodyMaximum                     = 8
	bodyMinimum                     = 9
	bodyOptionValue                 = 10
	bodyLookupTable                 = 11
	bodyBytestream                  = 12
	bodyModuleCount                 = 13
	bodyNetCount                    = 14
	bodyModuleClockConfiguration    = 15
	bodyProcessorClockConfiguration = 16
)

// Requested is a requested parameter value payload.
type Requested float32

// SystemOptionEnabled toggles a system option.
type SystemOptionEnabled bool

// Realized is the parameter value the hardware actually achieved.
type Realized float32

// Maximum is the upper bound of a parameter.
type Maximum float32

// Minimum is the lower bound of a parameter.
type Minimum float32

// ModuleCount is the number of module instances in the circuit.
type ModuleCount uint32

// NetCount is the number of nets in the circuit.
type NetCount uint32

// UnknownBody preserves a body field this package does not model.
type UnknownBody struct {
	Field protowire.Number
	Type  protowire.Type
	Raw   []byte
}

// Payload implementations.

func (*Circuit) payloadField() protowire.Number { return payloadCircuit }
func (m *Circuit) appendPayload(b []byte) []byte {
	return appendMessage(b, payloadCircuit, m)
}

func (*AnalogModule) payloadField() protowire.Number { return payloadModule }
func (m *AnalogModule) appendPayload(b []byte) []byte {
	return appendMessage(b, payloadModule, m)
}

func (*Net) payloadField() protowire.Number { return payloadNet }
func (m *Net) appendPayload(b []byte) []byte {
	return appendMessage(b, payloadNet, m)
}

func (*Bytestream) payloadField() protowire.Number { return payloadBytestream }
func (m *Bytestream) appendPayload(b []byte) []byte {
	return appendMessage(b, payloadBytestream, m)
}

func (OptionValue) payloadField() protowire.Number { return payloadOptionValue }
func (v OptionValue) appendPayload(b []byte) []byte {
	return appendVarint(b, payloadOptionValue, uint64(v))
}

func (*LookupTable) payloadField() protowire.Number { return payloadLookupTable }
func (m *LookupTable) appendPayload(b []byte) []byte {
	return appendMessage(b, payloadLookupTable, m)
}

func (*ModuleClockConfiguration) payloadField() protowire.Number {
	return payloadModuleClockConfiguration
}
func (m *ModuleClockConfiguration) appendPayload(b []byte) []byte {
	return appendMessage(b, payloadModuleClockConfiguration, m)
}

func (Requested) payloadField() protowire.Number { return payloadRequested }
func (v Requested) appendPayload(b []byte) []byte {
	return appendFloat(b, payloadRequested, float32(v))
}

func (SystemOptionEnabled) payloadField() protowire.Number { return payloadSystemOptionEnabled }
func (v SystemOptionEnabled) appendPayload(b []byte) []byte {
	var u uint64
	if v {
		u = 1
	}
	return appendVarint(b, payloadSystemOptionEnabled, u)
}

func (SystemState) payloadField() protowire.Number { return payloadSystemState }
func (v SystemState) appendPayload(b []byte) []byte {
	return appendVarint(b, payloadSystemState, uint64(v))
}

func (*ProcessorClockConfiguration) payloadField() protowire.Number {
	return payloadProcessorClockConfiguration
}
func (m *ProcessorClockConfiguration) appendPayload(b []byte) []byte {
	return appendMessage(b, payloadProcessorClockConfiguration, m)
}

func (*MidiListener) payloadField() protowire.Number { return payloadMidiListener }
func (m *MidiListener) appendPayload(b []byte) []byte {
	return appendMessage(b, payloadMidiListener, m)
}

func (*ParameterSweep) payloadField() protowire.Number { return payloadParameterSweep }
func (m *ParameterSweep) appendPayload(b []byte) []byte {
	return appendMessage(b, payloadParameterSweep, m)
}

func (*StorageDebugRequest) payloadField() protowire.Number { return payloadStorageDebugRequest }
func (m *StorageDebugRequest) appendPayload(b []byte) []byte {
	return appendMessage(b, payloadStorageDebugRequest, m)
}

// Body implementations.

func (*Acknowledge) bodyField() protowire.Number { return bodyAcknowledge }
func (m *Acknowledge) appendBody(b []byte) []byte {
	return appendMessage(b, bodyAcknowledge, m)
}

func (*Version) bodyField() protowire.Number { return bodyVersion }
func (m *Version) appendBody(b []byte) []byte {
	return appendMessage(b, bodyVersion, m)
}

func (*Circuit) bodyField() protowire.Number { return bodyCircuit }
func (m *Circuit) appendBody(b []byte) []byte {
	return appendMessage(b, bodyCircuit, m)
}

func (*ModuleTypes) bodyField() protowire.Number { return bodyModuleTypes }
func (m *ModuleTypes) appendBody(b []byte) []byte {
	return appendMessage(b, bodyModuleTypes, m)
}

func (*Modules) bodyField() protowire.Number { return bodyModules }
func (m *Modules) appendBody(b []byte) []byte {
	return appendMessage(b, bodyModules, m)
}

func (Realized) bodyField() protowire.Number { return bodyRealized }
func (v Realized) appendBody(b []byte) []byte {
	return appendFloat(b, bodyRealized, float32(v))
}

func (Maximum) bodyField() protowire.Number { return bodyMaximum }
func (v Maximum) appendBody(b []byte) []byte {
	return appendFloat(b, bodyMaximum, float32(v))
}

func (Minimum) bodyField() protowire.Number { return bodyMinimum }
func (v Minimum) appendBody(b []byte) []byte {
	return appendFloat(b, bodyMinimum, float32(v))
}

func (OptionValue) bodyField() protowire.Number { return bodyOptionValue }
func (v OptionValue) appendBody(b []byte) []byte {
	return appendVarint(b, bodyOptionValue, uint64(v))
}

func (*LookupTable) bodyField() protowire.Number { return bodyLookupTable }
func (m *LookupTable) appendBody(b []byte) []byte {
	return appendMessage(b, bodyLookupTable, m)
}

func (*Bytestream) bodyField() protowire.Number { return bodyBytestream }
func (m *Bytestream) appendBody(b []byte) []byte {
	return appendMessage(b, bodyBytestream, m)
}

func (ModuleCount) bodyField() protowire.Number { return bodyModuleCount }
func (v ModuleCount) appendBody(b []byte) []byte {
	return appendVarint(b, bodyModuleCount, uint64(v))
}

func (NetCount) bodyField() protowire.Number { return bodyNetCount }
func (v NetCount) appendBody(b []byte) []byte {
	return appendVarint(b, bodyNetCount, uint64(v))
}

func (*ModuleClockConfiguration) bodyField() protowire.Number {
	return bodyModuleClockConfiguration
}
func (m *ModuleClockConfiguration) appendBody(b []byte) []byte {
	return appendMessage(b, bodyModuleClockConfiguration, m)
}

func (*ProcessorClockConfiguration) bodyField() protowire.Number {
	return bodyProcessorClockConfiguration
}
func (m *ProcessorClockConfiguration) appendBody(b []byte) []byte {
	return appendMessage(b, bodyProcessorClockConfiguration, m)
}

func (u *UnknownBody) bodyField() protowire.Number { return u.Field }
func (u *UnknownBody) appendBody(b []byte) []byte {
	b = protowire.AppendTag(b, u.Field, u.Type)
	return append(b, u.Raw...)
}
