package inspect

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/zrna-research/zrna-go/pkg/wire"
)

// ErrInvalidPayload is returned for payload expressions that cannot be parsed.
var ErrInvalidPayload = errors.New("invalid payload")

// PayloadHelp documents the expressions ParsePayload accepts.
const PayloadHelp = `  requested=<float>                  parameter value
  state=<paused|running|resetting>   system state
  option=<value>                     option value, e.g. channel-1
  enabled=<bool>                     system option toggle
  module=<type>                      module of the given type
  net=<mod>.<output>:<mod>.<input>   connection between modules
  sweep=<target>,<micros>,<steps>    parameter sweep
  divisor=<clock>:<n>                clock divisor
  lut=<float>,<float>,...            lookup table
  bytes=<hex>                        raw bytestream`

// ParsePayload parses a key=value expression into a request payload.
// An empty expression yields a nil payload.
func ParsePayload(expr string) (wire.Payload, error) {
	if expr == "" {
		return nil, nil
	}
	key, value, ok := strings.Cut(expr, "=")
	if !ok {
		return nil, fmt.Errorf("%w: %q is not key=value", ErrInvalidPayload, expr)
	}

	p, err := parseKey(key, value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidPayload, key, err)
	}
	return p, nil
}

func parseKey(key, value string) (wire.Payload, error) {
	switch key {
	case "requested":
		f, err := parseFloat(value)
		return wire.Requested(f), err
	case "state":
		s, ok := wire.ParseSystemState(enumName(value))
		if !ok {
			return nil, fmt.Errorf("unknown state %q", value)
		}
		return s, nil
	case "option":
		v, ok := wire.ParseOptionValue(enumName(value))
		if !ok {
			return nil, fmt.Errorf("unknown option value %q", value)
		}
		return v, nil
	case "enabled":
		b, err := strconv.ParseBool(value)
		return wire.SystemOptionEnabled(b), err
	case "module":
		t, ok := wire.ParseModuleType(enumName(value))
		if !ok {
			return nil, fmt.Errorf("unknown module type %q", value)
		}
		return &wire.AnalogModule{Type: t}, nil
	case "net":
		return parseNet(value)
	case "sweep":
		return parseSweep(value)
	case "divisor":
		return parseDivisor(value)
	case "lut":
		var data []float32
		for _, s := range strings.Split(value, ",") {
			f, err := parseFloat(strings.TrimSpace(s))
			if err != nil {
				return nil, err
			}
			data = append(data, f)
		}
		return &wire.LookupTable{Data: data}, nil
	case "bytes":
		data, err := hex.DecodeString(value)
		return &wire.Bytestream{Data: data}, err
	}
	return nil, errors.New("unknown key")
}

func parseNet(value string) (wire.Payload, error) {
	out, in, ok := strings.Cut(value, ":")
	if !ok {
		return nil, errors.New("want <mod>.<output>:<mod>.<input>")
	}
	outMod, outName, err := splitEndpoint(out)
	if err != nil {
		return nil, err
	}
	inMod, inName, err := splitEndpoint(in)
	if err != nil {
		return nil, err
	}
	outID, ok := wire.ParseOutputID(enumName(outName))
	if !ok {
		return nil, fmt.Errorf("unknown output %q", outName)
	}
	inID, ok := wire.ParseInputID(enumName(inName))
	if !ok {
		return nil, fmt.Errorf("unknown input %q", inName)
	}
	return &wire.Net{
		Output: wire.OutputAddress{ModuleID: outMod, OutputID: outID},
		Input:  wire.InputAddress{ModuleID: inMod, InputID: inID},
	}, nil
}

func splitEndpoint(s string) (uint32, string, error) {
	mod, name, ok := strings.Cut(s, ".")
	if !ok {
		return 0, "", fmt.Errorf("%q is not <mod>.<port>", s)
	}
	id, err := strconv.ParseUint(mod, 10, 32)
	if err != nil {
		return 0, "", err
	}
	return uint32(id), name, nil
}

func parseSweep(value string) (wire.Payload, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 3 {
		return nil, errors.New("want <target>,<micros>,<steps>")
	}
	target, err := parseFloat(parts[0])
	if err != nil {
		return nil, err
	}
	micros, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return nil, err
	}
	steps, err := strconv.ParseUint(parts[2], 10, 32)
	if err != nil {
		return nil, err
	}
	return &wire.ParameterSweep{
		TargetValue:          target,
		DurationMicroseconds: uint32(micros),
		StepCount:            uint32(steps),
	}, nil
}

func parseDivisor(value string) (wire.Payload, error) {
	clock, n, ok := strings.Cut(value, ":")
	if !ok {
		return nil, errors.New("want <clock>:<n>")
	}
	id, ok := wire.ParseClockID(enumName(clock))
	if !ok {
		return nil, fmt.Errorf("unknown clock %q", clock)
	}
	div, err := strconv.ParseUint(n, 10, 32)
	if err != nil {
		return nil, err
	}
	return &wire.ProcessorClockConfiguration{
		SysClocks: []wire.SysClock{{ID: id, Divisor: uint32(div)}},
	}, nil
}

func parseFloat(s string) (float32, error) {
	f, err := strconv.ParseFloat(s, 32)
	return float32(f), err
}

func enumName(s string) string {
	return strings.ToUpper(strings.ReplaceAll(s, "-", "_"))
}
