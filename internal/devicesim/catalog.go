package devicesim

import "github.com/zrna-research/zrna-go/pkg/wire"

// Range reported for every simulated parameter. Requested values outside it
// are realized at the nearest bound.
const (
	ParameterMin float32 = -100000
	ParameterMax float32 = 100000
)

type optionSpec struct {
	id    string
	valid []string
}

type typeSpec struct {
	parameters []string
	options    []optionSpec
	lookup     bool
}

var (
	phaseOption    = optionSpec{"PHASE", []string{"PHASE_1", "PHASE_2"}}
	polarityOption = optionSpec{"POLARITY", []string{"NONINVERTED", "INVERTED"}}
)

// typeSpecs describes the parameters and options of the simulated module
// types. Types not listed have a single GAIN parameter.
var typeSpecs = map[string]typeSpec{
	"BIQUAD_LOWPASS_FILTER":   {parameters: []string{"CORNER_FREQUENCY", "QUALITY_FACTOR", "GAIN"}},
	"BIQUAD_HIGHPASS_FILTER":  {parameters: []string{"CORNER_FREQUENCY", "QUALITY_FACTOR", "GAIN"}},
	"BIQUAD_BANDPASS_FILTER":  {parameters: []string{"CENTER_FREQUENCY", "QUALITY_FACTOR", "GAIN"}},
	"BIQUAD_NOTCH_FILTER":     {parameters: []string{"CENTER_FREQUENCY", "QUALITY_FACTOR", "GAIN"}},
	"LOWPASS_FILTER":          {parameters: []string{"CUTOFF", "GAIN"}},
	"HIGHPASS_FILTER":         {parameters: []string{"CUTOFF", "GAIN"}},
	"GAIN_INV_SUM_2":          {parameters: []string{"GAIN_1", "GAIN_2"}},
	"GAIN_INV_SUM_3":          {parameters: []string{"GAIN_1", "GAIN_2", "GAIN_3"}},
	"COMPARATOR":              {parameters: []string{"HYSTERESIS"}, options: []optionSpec{polarityOption}},
	"INTEGRATOR":              {parameters: []string{"INTEGRATION_CONSTANT"}, options: []optionSpec{phaseOption}},
	"DIFFERENTIATOR":          {parameters: []string{"DIFFERENTIATION_CONSTANT"}, options: []optionSpec{phaseOption}},
	"OSCILLATOR":              {parameters: []string{"FREQUENCY", "AMPLITUDE"}, options: []optionSpec{{"WAVESHAPE", []string{"SINE", "TRIANGLE", "SQUARE"}}}},
	"LF_OSCILLATOR":           {parameters: []string{"FREQUENCY", "AMPLITUDE", "OFFSET"}, options: []optionSpec{{"WAVESHAPE", []string{"SINE", "TRIANGLE", "SQUARE"}}}},
	"SINE_OSCILLATOR":         {parameters: []string{"FREQUENCY", "AMPLITUDE"}},
	"HALF_WAVE_RECTIFIER":     {options: []optionSpec{{"RECTIFICATION", []string{"HALF_WAVE", "FULL_WAVE"}}}},
	"SAMPLE_AND_HOLD":         {options: []optionSpec{{"HOLD_MODE", []string{"TRACK", "SAMPLE"}}}},
	"AUDIO_IN":                {options: []optionSpec{{"CHANNEL", []string{"CHANNEL_1", "CHANNEL_2"}}}},
	"AUDIO_OUT":               {options: []optionSpec{{"CHANNEL", []string{"CHANNEL_1", "CHANNEL_2"}}}},
	"MULTIPLIER":              {parameters: []string{"GAIN"}, lookup: true},
	"VOLTAGE_CONTROLLED_GAIN": {parameters: []string{"GAIN"}, lookup: true},
}

// describeType returns the default description of a module type.
func describeType(t wire.ModuleType) wire.AnalogModule {
	spec, found := typeSpecs[t.String()]
	if !found {
		spec = typeSpec{parameters: []string{"GAIN"}}
	}

	m := wire.AnalogModule{Type: t, HasLookupTable: spec.lookup}
	for _, name := range spec.parameters {
		id, _ := wire.ParseParameterID(name)
		m.Parameters = append(m.Parameters, wire.Parameter{ID: id, Requested: 1, Realized: 1})
	}
	for _, o := range spec.options {
		id, _ := wire.ParseOptionID(o.id)
		opt := wire.Option{ID: id}
		for _, v := range o.valid {
			ov, _ := wire.ParseOptionValue(v)
			opt.ValidValues = append(opt.ValidValues, ov)
		}
		opt.Value = opt.ValidValues[0]
		m.Options = append(m.Options, opt)
	}
	return m
}

// DescribeType returns the default module of type t, ready to add to a
// circuit.
func DescribeType(t wire.ModuleType) wire.AnalogModule {
	return describeType(t)
}

func clamp(v float32) float32 {
	return max(ParameterMin, min(ParameterMax, v))
}
