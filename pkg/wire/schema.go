package wire

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Acknowledge is returned by diagnostic endpoints such as /ping.
type Acknowledge struct {
	Data []byte
}

func (m *Acknowledge) marshal(b []byte) []byte {
	if len(m.Data) > 0 {
		b = appendBytes(b, 1, m.Data)
	}
	return b
}

func (m *Acknowledge) unmarshal(b []byte) (err error) {
	return parseFields(b, func(f field) error {
		if f.num == 1 {
			m.Data, err = f.bytes()
		}
		return err
	})
}

// Version is the firmware version.
type Version struct {
	Major uint32
	Minor uint32
	Patch uint32
}

// String formats the version as major.minor.patch.
func (m *Version) String() string {
	return fmt.Sprintf("%d.%d.%d", m.Major, m.Minor, m.Patch)
}

func (m *Version) marshal(b []byte) []byte {
	b = appendOptVarint(b, 1, uint64(m.Major))
	b = appendOptVarint(b, 2, uint64(m.Minor))
	return appendOptVarint(b, 3, uint64(m.Patch))
}

func (m *Version) unmarshal(b []byte) (err error) {
	return parseFields(b, func(f field) error {
		switch f.num {
		case 1:
			m.Major, err = f.uint32()
		case 2:
			m.Minor, err = f.uint32()
		case 3:
			m.Patch, err = f.uint32()
		}
		return err
	})
}

// Parameter is a continuous module setting.
type Parameter struct {
	ID        ParameterID
	Requested float32
	Realized  float32
}

func (m *Parameter) marshal(b []byte) []byte {
	b = appendOptVarint(b, 1, uint64(m.ID))
	b = appendOptFloat(b, 2, m.Requested)
	return appendOptFloat(b, 3, m.Realized)
}

func (m *Parameter) unmarshal(b []byte) error {
	return parseFields(b, func(f field) error {
		var err error
		switch f.num {
		case 1:
			var v int32
			v, err = f.int32()
			m.ID = ParameterID(v)
		case 2:
			m.Requested, err = f.float32()
		case 3:
			m.Realized, err = f.float32()
		}
		return err
	})
}

// Option is a discrete module setting.
type Option struct {
	ID          OptionID
	Value       OptionValue
	ValidValues []OptionValue
}

func (m *Option) marshal(b []byte) []byte {
	b = appendOptVarint(b, 1, uint64(m.ID))
	b = appendOptVarint(b, 2, uint64(m.Value))
	return appendPackedVarints(b, 3, m.ValidValues)
}

func (m *Option) unmarshal(b []byte) error {
	return parseFields(b, func(f field) error {
		var err error
		switch f.num {
		case 1:
			var v int32
			v, err = f.int32()
			m.ID = OptionID(v)
		case 2:
			var v int32
			v, err = f.int32()
			m.Value = OptionValue(v)
		case 3:
			var vs []uint64
			vs, err = f.packedVarints()
			for _, v := range vs {
				m.ValidValues = append(m.ValidValues, OptionValue(int32(v)))
			}
		}
		return err
	})
}

// ModuleClockConfiguration selects the clocks a module runs from.
type ModuleClockConfiguration struct {
	ClockA ClockID
	ClockB ClockID
}

func (m *ModuleClockConfiguration) marshal(b []byte) []byte {
	b = appendOptVarint(b, 1, uint64(m.ClockA))
	return appendOptVarint(b, 2, uint64(m.ClockB))
}

func (m *ModuleClockConfiguration) unmarshal(b []byte) error {
	return parseFields(b, func(f field) error {
		v, err := f.int32()
		switch f.num {
		case 1:
			m.ClockA = ClockID(v)
		case 2:
			m.ClockB = ClockID(v)
		default:
			return nil
		}
		return err
	})
}

// AnalogModule is one module instance or module type description.
type AnalogModule struct {
	ID                 uint32
	Type               ModuleType
	Parameters         []Parameter
	Options            []Option
	ClockConfiguration *ModuleClockConfiguration
	HasLookupTable     bool
}

func (m *AnalogModule) marshal(b []byte) []byte {
	b = appendOptVarint(b, 1, uint64(m.ID))
	b = appendOptVarint(b, 2, uint64(m.Type))
	for i := range m.Parameters {
		b = appendMessage(b, 3, &m.Parameters[i])
	}
	for i := range m.Options {
		b = appendMessage(b, 4, &m.Options[i])
	}
	if m.ClockConfiguration != nil {
		b = appendMessage(b, 5, m.ClockConfiguration)
	}
	return appendOptBool(b, 6, m.HasLookupTable)
}

func (m *AnalogModule) unmarshal(b []byte) error {
	return parseFields(b, func(f field) error {
		var err error
		switch f.num {
		case 1:
			m.ID, err = f.uint32()
		case 2:
			var v int32
			v, err = f.int32()
			m.Type = ModuleType(v)
		case 3:
			var p Parameter
			if err = decodeMessage(f, &p); err == nil {
				m.Parameters = append(m.Parameters, p)
			}
		case 4:
			var o Option
			if err = decodeMessage(f, &o); err == nil {
				m.Options = append(m.Options, o)
			}
		case 5:
			m.ClockConfiguration = &ModuleClockConfiguration{}
			err = decodeMessage(f, m.ClockConfiguration)
		case 6:
			m.HasLookupTable, err = f.bool()
		}
		return err
	})
}

// OutputAddress names one output port of a module instance.
type OutputAddress struct {
	ModuleID uint32
	OutputID OutputID
}

func (m *OutputAddress) marshal(b []byte) []byte {
	b = appendOptVarint(b, 1, uint64(m.ModuleID))
	return appendOptVarint(b, 2, uint64(m.OutputID))
}

func (m *OutputAddress) unmarshal(b []byte) error {
	return parseFields(b, func(f field) error {
		v, err := f.uint32()
		switch f.num {
		case 1:
			m.ModuleID = v
		case 2:
			m.OutputID = OutputID(int32(v))
		default:
			return nil
		}
		return err
	})
}

// InputAddress names one input port of a module instance.
type InputAddress struct {
	ModuleID uint32
	InputID  InputID
}

func (m *InputAddress) marshal(b []byte) []byte {
	b = appendOptVarint(b, 1, uint64(m.ModuleID))
	return appendOptVarint(b, 2, uint64(m.InputID))
}

func (m *InputAddress) unmarshal(b []byte) error {
	return parseFields(b, func(f field) error {
		v, err := f.uint32()
		switch f.num {
		case 1:
			m.ModuleID = v
		case 2:
			m.InputID = InputID(int32(v))
		default:
			return nil
		}
		return err
	})
}

// Net connects one module output to one module input.
type Net struct {
	Output OutputAddress
	Input  InputAddress
}

func (m *Net) marshal(b []byte) []byte {
	b = appendMessage(b, 1, &m.Output)
	return appendMessage(b, 2, &m.Input)
}

func (m *Net) unmarshal(b []byte) error {
	return parseFields(b, func(f field) error {
		switch f.num {
		case 1:
			return decodeMessage(f, &m.Output)
		case 2:
			return decodeMessage(f, &m.Input)
		}
		return nil
	})
}

// Circuit is the set of module instances and the nets between them.
type Circuit struct {
	Modules []AnalogModule
	Nets    []Net
}

func (m *Circuit) marshal(b []byte) []byte {
	for i := range m.Modules {
		b = appendMessage(b, 1, &m.Modules[i])
	}
	for i := range m.Nets {
		b = appendMessage(b, 2, &m.Nets[i])
	}
	return b
}

func (m *Circuit) unmarshal(b []byte) error {
	return parseFields(b, func(f field) error {
		switch f.num {
		case 1:
			var mod AnalogModule
			if err := decodeMessage(f, &mod); err != nil {
				return err
			}
			m.Modules = append(m.Modules, mod)
		case 2:
			var n Net
			if err := decodeMessage(f, &n); err != nil {
				return err
			}
			m.Nets = append(m.Nets, n)
		}
		return nil
	})
}

// ModuleTypes lists the module types the firmware supports.
type ModuleTypes struct {
	Types []ModuleType
}

func (m *ModuleTypes) marshal(b []byte) []byte {
	return appendPackedVarints(b, 1, m.Types)
}

func (m *ModuleTypes) unmarshal(b []byte) error {
	return parseFields(b, func(f field) error {
		if f.num != 1 {
			return nil
		}
		vs, err := f.packedVarints()
		for _, v := range vs {
			m.Types = append(m.Types, ModuleType(int32(v)))
		}
		return err
	})
}

// Modules is a list of module descriptions.
type Modules struct {
	Modules []AnalogModule
}

func (m *Modules) marshal(b []byte) []byte {
	for i := range m.Modules {
		b = appendMessage(b, 1, &m.Modules[i])
	}
	return b
}

func (m *Modules) unmarshal(b []byte) error {
	return parseFields(b, func(f field) error {
		if f.num != 1 {
			return nil
		}
		var mod AnalogModule
		if err := decodeMessage(f, &mod); err != nil {
			return err
		}
		m.Modules = append(m.Modules, mod)
		return nil
	})
}

// Bytestream is the raw configuration bytestream of the analog fabric.
type Bytestream struct {
	Data []byte
}

func (m *Bytestream) marshal(b []byte) []byte {
	if len(m.Data) > 0 {
		b = appendBytes(b, 1, m.Data)
	}
	return b
}

func (m *Bytestream) unmarshal(b []byte) (err error) {
	return parseFields(b, func(f field) error {
		if f.num == 1 {
			m.Data, err = f.bytes()
		}
		return err
	})
}

// LookupTable is the 256 entry transfer function of a lookup-table module.
type LookupTable struct {
	Data []float32
}

func (m *LookupTable) marshal(b []byte) []byte {
	return appendPackedFloats(b, 1, m.Data)
}

func (m *LookupTable) unmarshal(b []byte) error {
	return parseFields(b, func(f field) error {
		if f.num != 1 {
			return nil
		}
		vs, err := f.packedFloats()
		m.Data = append(m.Data, vs...)
		return err
	})
}

// SysClock is the divisor of one processor system clock.
type SysClock struct {
	ID      ClockID
	Divisor uint32
}

func (m *SysClock) marshal(b []byte) []byte {
	b = appendOptVarint(b, 1, uint64(m.ID))
	return appendOptVarint(b, 2, uint64(m.Divisor))
}

func (m *SysClock) unmarshal(b []byte) error {
	return parseFields(b, func(f field) error {
		v, err := f.uint32()
		switch f.num {
		case 1:
			m.ID = ClockID(int32(v))
		case 2:
			m.Divisor = v
		default:
			return nil
		}
		return err
	})
}

// ProcessorClockConfiguration holds the system clock divisors.
type ProcessorClockConfiguration struct {
	SysClocks []SysClock
}

func (m *ProcessorClockConfiguration) marshal(b []byte) []byte {
	for i := range m.SysClocks {
		b = appendMessage(b, 1, &m.SysClocks[i])
	}
	return b
}

func (m *ProcessorClockConfiguration) unmarshal(b []byte) error {
	return parseFields(b, func(f field) error {
		if f.num != 1 {
			return nil
		}
		var c SysClock
		if err := decodeMessage(f, &c); err != nil {
			return err
		}
		m.SysClocks = append(m.SysClocks, c)
		return nil
	})
}

// MidiListener binds MIDI events to a module parameter or option.
// ParameterID and OptionID are mutually exclusive targets; HasOption selects
// the option target.
type MidiListener struct {
	ModuleID         uint32
	ParameterID      ParameterID
	OptionID         OptionID
	HasOption        bool
	Kind             MidiListenerKind
	ControllerNumber uint32
	MatchAny         bool
	Min              float32
	Max              float32
	Value            float32
	Open             float32
	Closed           float32
}

func (m *MidiListener) marshal(b []byte) []byte {
	b = appendOptVarint(b, 1, uint64(m.ModuleID))
	if m.HasOption {
		b = appendVarint(b, 3, uint64(m.OptionID))
	} else {
		b = appendVarint(b, 2, uint64(m.ParameterID))
	}
	b = appendOptVarint(b, 4, uint64(m.Kind))
	b = appendOptVarint(b, 5, uint64(m.ControllerNumber))
	b = appendOptBool(b, 6, m.MatchAny)
	b = appendOptFloat(b, 7, m.Min)
	b = appendOptFloat(b, 8, m.Max)
	b = appendOptFloat(b, 9, m.Value)
	b = appendOptFloat(b, 10, m.Open)
	return appendOptFloat(b, 11, m.Closed)
}

func (m *MidiListener) unmarshal(b []byte) error {
	return parseFields(b, func(f field) error {
		var err error
		var v uint64
		switch f.num {
		case 1:
			m.ModuleID, err = f.uint32()
		case 2:
			v, err = f.varint()
			m.ParameterID = ParameterID(int32(v))
		case 3:
			v, err = f.varint()
			m.OptionID = OptionID(int32(v))
			m.HasOption = true
		case 4:
			v, err = f.varint()
			m.Kind = MidiListenerKind(int32(v))
		case 5:
			m.ControllerNumber, err = f.uint32()
		case 6:
			m.MatchAny, err = f.bool()
		case 7:
			m.Min, err = f.float32()
		case 8:
			m.Max, err = f.float32()
		case 9:
			m.Value, err = f.float32()
		case 10:
			m.Open, err = f.float32()
		case 11:
			m.Closed, err = f.float32()
		}
		return err
	})
}

// ParameterSweep ramps a parameter to a target value in steps.
type ParameterSweep struct {
	TargetValue          float32
	DurationMicroseconds uint32
	StepCount            uint32
}

func (m *ParameterSweep) marshal(b []byte) []byte {
	b = appendOptFloat(b, 1, m.TargetValue)
	b = appendOptVarint(b, 2, uint64(m.DurationMicroseconds))
	return appendOptVarint(b, 3, uint64(m.StepCount))
}

func (m *ParameterSweep) unmarshal(b []byte) error {
	return parseFields(b, func(f field) error {
		var err error
		switch f.num {
		case 1:
			m.TargetValue, err = f.float32()
		case 2:
			m.DurationMicroseconds, err = f.uint32()
		case 3:
			m.StepCount, err = f.uint32()
		}
		return err
	})
}

// StorageDebugRequest runs a filesystem command on device flash.
type StorageDebugRequest struct {
	Command StorageCommand
	Path    string
	NewPath string
	Data    string
}

func (m *StorageDebugRequest) marshal(b []byte) []byte {
	b = appendOptVarint(b, 1, uint64(m.Command))
	b = appendOptString(b, 2, m.Path)
	b = appendOptString(b, 3, m.NewPath)
	return appendOptString(b, 4, m.Data)
}

func (m *StorageDebugRequest) unmarshal(b []byte) error {
	return parseFields(b, func(f field) error {
		var err error
		switch f.num {
		case 1:
			var v int32
			v, err = f.int32()
			m.Command = StorageCommand(v)
		case 2:
			m.Path, err = f.string()
		case 3:
			m.NewPath, err = f.string()
		case 4:
			m.Data, err = f.string()
		}
		return err
	})
}

// marshalURL serializes p as a URL message.
func marshalURL(b []byte, p Path) []byte {
	for _, c := range p {
		b = appendBytes(b, 1, marshalComponent(nil, c))
	}
	return b
}

func marshalComponent(b []byte, c Component) []byte {
	num := protowire.Number(c.Kind + 1)
	switch c.Kind {
	case KindInteger:
		return appendVarint(b, num, uint64(c.Int))
	case KindString:
		b = protowire.AppendTag(b, num, protowire.BytesType)
		return protowire.AppendString(b, c.Str)
	default:
		return appendVarint(b, num, uint64(c.Ordinal))
	}
}

func unmarshalURL(b []byte) (Path, error) {
	var p Path
	err := parseFields(b, func(f field) error {
		if f.num != 1 {
			return nil
		}
		if err := f.expect(protowire.BytesType); err != nil {
			return err
		}
		c, err := unmarshalComponent(f.b)
		if err != nil {
			return err
		}
		p = append(p, c)
		return nil
	})
	return p, err
}

func unmarshalComponent(b []byte) (Component, error) {
	var c Component
	set := false
	err := parseFields(b, func(f field) error {
		kind := ComponentKind(f.num - 1)
		if kind < KindResourceID || kind > KindString {
			return nil
		}
		set = true
		c = Component{Kind: kind}
		switch kind {
		case KindString:
			s, err := f.string()
			c.Str = s
			return err
		case KindInteger:
			v, err := f.varint()
			c.Int = int64(v)
			return err
		default:
			v, err := f.int32()
			c.Ordinal = v
			return err
		}
	})
	if err == nil && !set {
		err = fmt.Errorf("%w: empty path component", ErrMalformed)
	}
	return c, err
}
