package wire

import "fmt"

// enumTable maps schema enum ordinals to their symbolic names and back.
// Ordinals are the slice indices.
type enumTable struct {
	prefix string
	names  []string
	values map[string]int32
}

func newEnumTable(prefix string, names ...string) *enumTable {
	values := make(map[string]int32, len(names))
	for i, n := range names {
		values[n] = int32(i)
	}
	return &enumTable{prefix: prefix, names: names, values: values}
}

func (t *enumTable) name(v int32) string {
	if v >= 0 && int(v) < len(t.names) {
		return t.names[v]
	}
	return fmt.Sprintf("%s_%d", t.prefix, v)
}

func (t *enumTable) lookup(name string) (int32, bool) {
	v, ok := t.values[name]
	return v, ok
}

func (t *enumTable) len() int {
	return len(t.names)
}

// ResourceID names a fixed resource segment of a URL.
type ResourceID int32

var resourceIDs = newEnumTable("RESOURCE_ID",
	"CIRCUIT",
	"MODULE",
	"MODULES",
	"NET",
	"NETS",
	"COUNT",
	"PARAMETER",
	"OPTION",
	"VALUE",
	"REQUESTED",
	"REALIZED",
	"MINIMUM",
	"MAXIMUM",
	"SWEEP",
	"LOOKUP_TABLE",
	"CLOCK",
	"INPUTS",
	"OUTPUTS",
	"PHASE",
	"DISCONNECT",
	"DEFAULT",
	"BYTESTREAM",
	"UPDATE_BYTESTREAM",
	"SYSTEM",
	"STATE",
	"OPTIONS",
	"RESOURCE",
	"ANALOG",
	"DEBUG",
	"FITS",
	"HEAP",
	"STORAGE",
	"CIRCUITS",
	"LOAD",
	"STARTUP",
	"MIDI",
	"LISTENER",
	"LISTENERS",
	"PING",
	"VERSION",
	"ENDPOINTS",
)

// Well-known resource ordinals used by the handshake and tests.
const (
	ResourceCircuit ResourceID = 0
	ResourceModule  ResourceID = 1
	ResourcePing    ResourceID = 38
)

func (r ResourceID) String() string { return resourceIDs.name(int32(r)) }

// ParseResourceID looks up a resource by upper snake case name.
func ParseResourceID(name string) (ResourceID, bool) {
	v, ok := resourceIDs.lookup(name)
	return ResourceID(v), ok
}

// ModuleType names a kind of analog module.
type ModuleType int32

var moduleTypes = newEnumTable("MODULE_TYPE",
	"AUDIO_IN",
	"AUDIO_OUT",
	"BIQUAD_BANDPASS_FILTER",
	"BIQUAD_HIGHPASS_FILTER",
	"BIQUAD_LOWPASS_FILTER",
	"BIQUAD_NOTCH_FILTER",
	"COMPARATOR",
	"CV_IN",
	"CV_OUT",
	"DIFFERENTIATOR",
	"GAIN_HALF",
	"GAIN_INV",
	"GAIN_INV_SUM_2",
	"GAIN_INV_SUM_3",
	"HALF_WAVE_RECTIFIER",
	"HIGHPASS_FILTER",
	"INTEGRATOR",
	"LF_OSCILLATOR",
	"LOWPASS_FILTER",
	"MULTIPLIER",
	"OSCILLATOR",
	"SAMPLE_AND_HOLD",
	"SINE_OSCILLATOR",
	"VOLTAGE_CONTROLLED_GAIN",
)

func (m ModuleType) String() string { return moduleTypes.name(int32(m)) }

// ParseModuleType looks up a module type by upper snake case name.
func ParseModuleType(name string) (ModuleType, bool) {
	v, ok := moduleTypes.lookup(name)
	return ModuleType(v), ok
}

// ParameterID names a continuous module parameter.
type ParameterID int32

var parameterIDs = newEnumTable("PARAMETER_ID",
	"GAIN",
	"GAIN_1",
	"GAIN_2",
	"GAIN_3",
	"CORNER_FREQUENCY",
	"CENTER_FREQUENCY",
	"QUALITY_FACTOR",
	"FREQUENCY",
	"HYSTERESIS",
	"INTEGRATION_CONSTANT",
	"DIFFERENTIATION_CONSTANT",
	"CUTOFF",
	"AMPLITUDE",
	"OFFSET",
)

func (p ParameterID) String() string { return parameterIDs.name(int32(p)) }

// ParseParameterID looks up a parameter by upper snake case name.
func ParseParameterID(name string) (ParameterID, bool) {
	v, ok := parameterIDs.lookup(name)
	return ParameterID(v), ok
}

// OptionID names a discrete module option.
type OptionID int32

var optionIDs = newEnumTable("OPTION_ID",
	"INPUT_PHASE",
	"OUTPUT_PHASE",
	"PHASE",
	"POLARITY",
	"WAVESHAPE",
	"RECTIFICATION",
	"HOLD_MODE",
	"CHANNEL",
)

func (o OptionID) String() string { return optionIDs.name(int32(o)) }

// ParseOptionID looks up an option by upper snake case name.
func ParseOptionID(name string) (OptionID, bool) {
	v, ok := optionIDs.lookup(name)
	return OptionID(v), ok
}

// OptionValue is the value assigned to a module option.
type OptionValue int32

var optionValues = newEnumTable("OPTION_VALUE",
	"PHASE_1",
	"PHASE_2",
	"CONTINUOUS",
	"NONINVERTED",
	"INVERTED",
	"SINE",
	"TRIANGLE",
	"SQUARE",
	"HALF_WAVE",
	"FULL_WAVE",
	"TRACK",
	"SAMPLE",
	"CHANNEL_1",
	"CHANNEL_2",
)

func (v OptionValue) String() string { return optionValues.name(int32(v)) }

// ParseOptionValue looks up an option value by upper snake case name.
func ParseOptionValue(name string) (OptionValue, bool) {
	v, ok := optionValues.lookup(name)
	return OptionValue(v), ok
}

// InputID names a module input port.
type InputID int32

var inputIDs = newEnumTable("INPUT_ID",
	"INPUT",
	"INPUT_1",
	"INPUT_2",
	"INPUT_3",
	"CONTROL_INPUT",
	"CLOCK_INPUT",
)

func (i InputID) String() string { return inputIDs.name(int32(i)) }

// ParseInputID looks up an input by upper snake case name.
func ParseInputID(name string) (InputID, bool) {
	v, ok := inputIDs.lookup(name)
	return InputID(v), ok
}

// OutputID names a module output port.
type OutputID int32

var outputIDs = newEnumTable("OUTPUT_ID",
	"OUTPUT",
	"OUTPUT_1",
	"OUTPUT_2",
	"LOWPASS_OUTPUT",
	"BANDPASS_OUTPUT",
	"HIGHPASS_OUTPUT",
)

func (o OutputID) String() string { return outputIDs.name(int32(o)) }

// ParseOutputID looks up an output by upper snake case name.
func ParseOutputID(name string) (OutputID, bool) {
	v, ok := outputIDs.lookup(name)
	return OutputID(v), ok
}

// SystemOptionID names a device-wide option.
type SystemOptionID int32

var systemOptionIDs = newEnumTable("SYSTEM_OPTION_ID",
	"MIDI_ENABLED",
	"USB_AUDIO_ENABLED",
	"CLOCK_OUTPUT_ENABLED",
	"STARTUP_CIRCUIT_ENABLED",
	"STATUS_LED_ENABLED",
)

func (s SystemOptionID) String() string { return systemOptionIDs.name(int32(s)) }

// ParseSystemOptionID looks up a system option by upper snake case name.
func ParseSystemOptionID(name string) (SystemOptionID, bool) {
	v, ok := systemOptionIDs.lookup(name)
	return SystemOptionID(v), ok
}

// SystemState is the device execution state.
type SystemState int32

const (
	SystemStatePaused    SystemState = 0
	SystemStateRunning   SystemState = 1
	SystemStateResetting SystemState = 2
)

var systemStates = newEnumTable("SYSTEM_STATE", "PAUSED", "RUNNING", "RESETTING")

func (s SystemState) String() string { return systemStates.name(int32(s)) }

// ParseSystemState looks up a system state by upper snake case name.
func ParseSystemState(name string) (SystemState, bool) {
	v, ok := systemStates.lookup(name)
	return SystemState(v), ok
}

// ClockID names one of the processor's system clocks.
type ClockID int32

var clockIDs = newEnumTable("CLOCK_ID",
	"SYS_CLOCK_1",
	"SYS_CLOCK_2",
	"SYS_CLOCK_3",
	"SYS_CLOCK_4",
	"SYS_CLOCK_5",
	"SYS_CLOCK_6",
)

func (c ClockID) String() string { return clockIDs.name(int32(c)) }

// ParseClockID looks up a clock by upper snake case name.
func ParseClockID(name string) (ClockID, bool) {
	v, ok := clockIDs.lookup(name)
	return ClockID(v), ok
}

// StorageCommand is a storage debug operation.
type StorageCommand int32

const (
	StorageCat    StorageCommand = 0
	StorageLs     StorageCommand = 1
	StoragePut    StorageCommand = 2
	StorageRemove StorageCommand = 3
	StorageRename StorageCommand = 4
	StorageMkdir  StorageCommand = 5
)

var storageCommands = newEnumTable("STORAGE_COMMAND", "CAT", "LS", "PUT", "REMOVE", "RENAME", "MKDIR")

func (c StorageCommand) String() string { return storageCommands.name(int32(c)) }

// MidiListenerKind selects how a MIDI listener maps events onto a target.
type MidiListenerKind int32

const (
	MidiCC      MidiListenerKind = 0
	MidiNote    MidiListenerKind = 1
	MidiTrigger MidiListenerKind = 2
	MidiGate    MidiListenerKind = 3
)

var midiListenerKinds = newEnumTable("MIDI_LISTENER_KIND", "CC", "NOTE", "TRIGGER", "GATE")

func (k MidiListenerKind) String() string { return midiListenerKinds.name(int32(k)) }

// AllModuleTypes returns every module type in ordinal order.
func AllModuleTypes() []ModuleType {
	out := make([]ModuleType, moduleTypes.len())
	for i := range out {
		out[i] = ModuleType(i)
	}
	return out
}

// AllClockIDs returns every system clock in ordinal order.
func AllClockIDs() []ClockID {
	out := make([]ClockID, clockIDs.len())
	for i := range out {
		out[i] = ClockID(i)
	}
	return out
}
