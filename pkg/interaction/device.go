package interaction

import (
	"context"
	"fmt"

	"github.com/zrna-research/zrna-go/pkg/path"
	"github.com/zrna-research/zrna-go/pkg/wire"
)

// MaxStoredNameLength is the longest circuit name device storage accepts.
const MaxStoredNameLength = 32

// Requester issues one request by path. Both *Client and
// connection.Manager implement it.
type Requester interface {
	Do(ctx context.Context, m wire.Method, p string, payload wire.Payload) (*wire.Response, error)
}

// Device layers typed operations on the device resources over a Requester.
type Device struct {
	r Requester
}

// NewDevice returns a Device that issues requests through r.
func NewDevice(r Requester) *Device {
	return &Device{r: r}
}

// Version returns the firmware version as major.minor.patch.
func (d *Device) Version(ctx context.Context) (string, error) {
	v, err := d.Firmware(ctx)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

// Firmware reads the firmware version as a structured value.
func (d *Device) Firmware(ctx context.Context) (wire.Version, error) {
	resp, err := d.r.Do(ctx, wire.MethodGet, "/version", nil)
	if err != nil {
		return wire.Version{}, err
	}
	v, err := bodyAs[*wire.Version](resp)
	if err != nil {
		return wire.Version{}, err
	}
	return *v, nil
}

// Run starts circuit execution.
func (d *Device) Run(ctx context.Context) error {
	return d.transitionTo(ctx, wire.SystemStateRunning)
}

// Pause halts circuit execution.
func (d *Device) Pause(ctx context.Context) error {
	return d.transitionTo(ctx, wire.SystemStatePaused)
}

// HardReset resets the device.
func (d *Device) HardReset(ctx context.Context) error {
	return d.transitionTo(ctx, wire.SystemStateResetting)
}

func (d *Device) transitionTo(ctx context.Context, s wire.SystemState) error {
	_, err := d.r.Do(ctx, wire.MethodPut, "/system/state", s)
	return err
}

// Clear replaces the current circuit with the empty default circuit.
func (d *Device) Clear(ctx context.Context) error {
	_, err := d.r.Do(ctx, wire.MethodPost, "/circuit/default", nil)
	return err
}

// Circuit returns the modules and nets of the current circuit.
func (d *Device) Circuit(ctx context.Context) (*wire.Circuit, error) {
	resp, err := d.r.Do(ctx, wire.MethodGet, "/circuit", nil)
	if err != nil {
		return nil, err
	}
	return bodyAs[*wire.Circuit](resp)
}

// ModuleTypes lists the module types the firmware supports.
func (d *Device) ModuleTypes(ctx context.Context) ([]wire.ModuleType, error) {
	resp, err := d.r.Do(ctx, wire.MethodGet, "/modules", nil)
	if err != nil {
		return nil, err
	}
	mt, err := bodyAs[*wire.ModuleTypes](resp)
	if err != nil {
		return nil, err
	}
	return mt.Types, nil
}

// ModuleType returns the description of one module type, including its
// parameters and options with their defaults.
func (d *Device) ModuleType(ctx context.Context, t wire.ModuleType) (*wire.AnalogModule, error) {
	resp, err := d.r.Do(ctx, wire.MethodGet, "/module/"+path.ToPathName(t.String()), nil)
	if err != nil {
		return nil, err
	}
	mods, err := bodyAs[*wire.Modules](resp)
	if err != nil {
		return nil, err
	}
	if len(mods.Modules) == 0 {
		return nil, fmt.Errorf("%w: no description for %s", ErrUnexpectedBody, t)
	}
	return &mods.Modules[0], nil
}

// ModuleCount returns the number of module instances in the circuit.
func (d *Device) ModuleCount(ctx context.Context) (uint32, error) {
	resp, err := d.r.Do(ctx, wire.MethodGet, "/circuit/modules/count", nil)
	if err != nil {
		return 0, err
	}
	n, err := bodyAs[wire.ModuleCount](resp)
	return uint32(n), err
}

// NetCount returns the number of nets in the circuit.
func (d *Device) NetCount(ctx context.Context) (uint32, error) {
	resp, err := d.r.Do(ctx, wire.MethodGet, "/circuit/nets/count", nil)
	if err != nil {
		return 0, err
	}
	n, err := bodyAs[wire.NetCount](resp)
	return uint32(n), err
}

// AddModule appends m to the circuit. The device assigns instance IDs in
// order, so m.ID is set to the current module count and returned.
func (d *Device) AddModule(ctx context.Context, m *wire.AnalogModule) (uint32, error) {
	id, err := d.ModuleCount(ctx)
	if err != nil {
		return 0, err
	}
	m.ID = id
	if _, err := d.r.Do(ctx, wire.MethodPost, "/circuit/modules", m); err != nil {
		return 0, err
	}
	return id, nil
}

// RemoveModule deletes a module instance. Later instances shift down by one.
func (d *Device) RemoveModule(ctx context.Context, id uint32) error {
	_, err := d.r.Do(ctx, wire.MethodDelete, fmt.Sprintf("/circuit/module/%d", id), nil)
	return err
}

// SetParameter requests a new value for a module parameter.
func (d *Device) SetParameter(ctx context.Context, id uint32, p wire.ParameterID, value float32) error {
	_, err := d.r.Do(ctx, wire.MethodPut, parameterPath(id, p, "requested"), wire.Requested(value))
	return err
}

// Parameter returns the value the hardware realized for a module parameter.
func (d *Device) Parameter(ctx context.Context, id uint32, p wire.ParameterID) (float32, error) {
	resp, err := d.r.Do(ctx, wire.MethodGet, parameterPath(id, p, "realized"), nil)
	if err != nil {
		return 0, err
	}
	v, err := bodyAs[wire.Realized](resp)
	return float32(v), err
}

// ParameterRange returns the minimum and maximum of a module parameter.
func (d *Device) ParameterRange(ctx context.Context, id uint32, p wire.ParameterID) (lo, hi float32, err error) {
	resp, err := d.r.Do(ctx, wire.MethodGet, parameterPath(id, p, "minimum"), nil)
	if err != nil {
		return 0, 0, err
	}
	minimum, err := bodyAs[wire.Minimum](resp)
	if err != nil {
		return 0, 0, err
	}

	resp, err = d.r.Do(ctx, wire.MethodGet, parameterPath(id, p, "maximum"), nil)
	if err != nil {
		return 0, 0, err
	}
	maximum, err := bodyAs[wire.Maximum](resp)
	if err != nil {
		return 0, 0, err
	}
	return float32(minimum), float32(maximum), nil
}

// SweepParameter ramps a module parameter to a target value on the device.
func (d *Device) SweepParameter(ctx context.Context, id uint32, p wire.ParameterID, sweep *wire.ParameterSweep) error {
	_, err := d.r.Do(ctx, wire.MethodPost, parameterPath(id, p, "sweep"), sweep)
	return err
}

func parameterPath(id uint32, p wire.ParameterID, leaf string) string {
	return fmt.Sprintf("/circuit/module/%d/parameter/%s/%s", id, path.ToPathName(p.String()), leaf)
}

// SetOption sets a discrete module option.
func (d *Device) SetOption(ctx context.Context, id uint32, o wire.OptionID, v wire.OptionValue) error {
	p := fmt.Sprintf("/circuit/module/%d/option/%s/value", id, path.ToPathName(o.String()))
	_, err := d.r.Do(ctx, wire.MethodPut, p, v)
	return err
}

// SetLookupTable replaces the lookup table of a module instance.
func (d *Device) SetLookupTable(ctx context.Context, id uint32, data []float32) error {
	_, err := d.r.Do(ctx, wire.MethodPut, fmt.Sprintf("/circuit/module/%d/lookup-table", id), &wire.LookupTable{Data: data})
	return err
}

// AddNet connects a module output to a module input.
func (d *Device) AddNet(ctx context.Context, out wire.OutputAddress, in wire.InputAddress) error {
	_, err := d.r.Do(ctx, wire.MethodPost, "/circuit/nets", &wire.Net{Output: out, Input: in})
	return err
}

// AddMidiListener binds MIDI events to a module parameter or option.
func (d *Device) AddMidiListener(ctx context.Context, l *wire.MidiListener) error {
	_, err := d.r.Do(ctx, wire.MethodPost, "/circuit/midi/listeners", l)
	return err
}

// RemoveMidiListener deletes the listeners matching l.
func (d *Device) RemoveMidiListener(ctx context.Context, l *wire.MidiListener) error {
	_, err := d.r.Do(ctx, wire.MethodDelete, "/circuit/midi/listener", l)
	return err
}

// Store saves the current circuit to device storage under name.
func (d *Device) Store(ctx context.Context, name string) error {
	if err := checkStoredName(name); err != nil {
		return err
	}
	_, err := d.r.Do(ctx, wire.MethodPost, "/storage/circuit/"+name, nil)
	return err
}

// Load replaces the current circuit with a stored one.
func (d *Device) Load(ctx context.Context, name string) error {
	if err := checkStoredName(name); err != nil {
		return err
	}
	_, err := d.r.Do(ctx, wire.MethodPost, "/storage/circuit/"+name+"/load", nil)
	return err
}

// DeleteStored removes a stored circuit.
func (d *Device) DeleteStored(ctx context.Context, name string) error {
	if err := checkStoredName(name); err != nil {
		return err
	}
	_, err := d.r.Do(ctx, wire.MethodDelete, "/storage/circuit/"+name, nil)
	return err
}

// SetStartupCircuit selects the stored circuit loaded at power-on.
func (d *Device) SetStartupCircuit(ctx context.Context, name string) error {
	if err := checkStoredName(name); err != nil {
		return err
	}
	_, err := d.r.Do(ctx, wire.MethodPost, "/storage/circuit/startup/"+name, nil)
	return err
}

// ClearStartupCircuit removes the power-on circuit selection.
func (d *Device) ClearStartupCircuit(ctx context.Context) error {
	_, err := d.r.Do(ctx, wire.MethodDelete, "/storage/circuit/startup", nil)
	return err
}

func checkStoredName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidName)
	}
	if len(name) > MaxStoredNameLength {
		return fmt.Errorf("%w: %d > %d characters", ErrInvalidName, len(name), MaxStoredNameLength)
	}
	return nil
}

// Bytestream returns the configuration bytestream of the analog fabric.
func (d *Device) Bytestream(ctx context.Context) ([]byte, error) {
	resp, err := d.r.Do(ctx, wire.MethodGet, "/circuit/bytestream", nil)
	if err != nil {
		return nil, err
	}
	bs, err := bodyAs[*wire.Bytestream](resp)
	if err != nil {
		return nil, err
	}
	return bs.Data, nil
}

// Clocks returns the processor system clock divisors.
func (d *Device) Clocks(ctx context.Context) (*wire.ProcessorClockConfiguration, error) {
	resp, err := d.r.Do(ctx, wire.MethodGet, "/system/resource/analog/clock", nil)
	if err != nil {
		return nil, err
	}
	return bodyAs[*wire.ProcessorClockConfiguration](resp)
}

// SetDivisor changes the divisor of one system clock.
func (d *Device) SetDivisor(ctx context.Context, id wire.ClockID, divisor uint32) error {
	cc := &wire.ProcessorClockConfiguration{
		SysClocks: []wire.SysClock{{ID: id, Divisor: divisor}},
	}
	_, err := d.r.Do(ctx, wire.MethodPatch, "/system/resource/analog/clock", cc)
	return err
}

// DefaultDivisors restores the power-on clock divisors.
func (d *Device) DefaultDivisors(ctx context.Context) error {
	_, err := d.r.Do(ctx, wire.MethodPost, "/system/resource/analog/clock/default", nil)
	return err
}

// bodyAs extracts a response body of type T.
func bodyAs[T wire.Body](resp *wire.Response) (T, error) {
	v, ok := resp.Body.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: got %s, want %s", ErrUnexpectedBody, describe(resp.Body), describe(zero))
	}
	return v, nil
}

func describe(b wire.Body) string {
	if b == nil {
		return "no body"
	}
	return typeName(b)
}

var _ Requester = (*Client)(nil)
