package devicesim

import (
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/zrna-research/zrna-go/pkg/wire"
)

// Defaults for a simulated device.
const (
	DefaultMaxModules = 16
	DefaultDivisor    = 1
)

// Config configures a simulated device.
type Config struct {
	// AckBytes is the ping acknowledge body. Nil uses C0 FF EE.
	AckBytes []byte

	// Version is reported by GET /version.
	Version wire.Version

	// MaxModules bounds the circuit; further adds fail with
	// INSUFFICIENT_RESOURCES_ERROR.
	MaxModules int

	// BusyPolls is the number of BUSY answers the polled bus gives before
	// each state change.
	BusyPolls int
}

// Device is a simulated device. It is safe for concurrent use.
type Device struct {
	mu sync.Mutex

	config    Config
	state     wire.SystemState
	circuit   wire.Circuit
	listeners []wire.MidiListener
	stored    map[string]wire.Circuit
	startup   string
	clocks    []wire.SysClock
	requests  []*wire.Request
}

// New creates a simulated device with an empty circuit.
func New(config Config) *Device {
	if config.AckBytes == nil {
		config.AckBytes = []byte{0xC0, 0xFF, 0xEE}
	}
	if config.MaxModules == 0 {
		config.MaxModules = DefaultMaxModules
	}
	if config.Version == (wire.Version{}) {
		config.Version = wire.Version{Major: 1, Minor: 2, Patch: 0}
	}
	d := &Device{
		config: config,
		stored: make(map[string]wire.Circuit),
	}
	d.resetClocks()
	return d
}

// Requests returns the requests handled so far.
func (d *Device) Requests() []*wire.Request {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.requests)
}

// State returns the system state.
func (d *Device) State() wire.SystemState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Circuit returns a copy of the current circuit.
func (d *Device) Circuit() wire.Circuit {
	d.mu.Lock()
	defer d.mu.Unlock()
	return cloneCircuit(d.circuit)
}

// Startup returns the name of the power-on circuit, "" if none.
func (d *Device) Startup() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.startup
}

// HandleFrame decodes an encoded request, handles it and returns the
// encoded response. Undecodable requests get INVALID_REQUEST_ERROR.
func (d *Device) HandleFrame(payload []byte) []byte {
	var resp *wire.Response
	req, err := wire.DecodeRequest(payload)
	if err != nil {
		resp = status(wire.StatusInvalidRequestError)
	} else {
		resp = d.Handle(req)
	}

	out, err := wire.EncodeResponse(resp)
	if err != nil {
		out, _ = wire.EncodeResponse(status(wire.StatusInternalError))
	}
	return out
}

// Handle answers one request.
func (d *Device) Handle(req *wire.Request) *wire.Response {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.requests = append(d.requests, req)

	segs := make([]string, len(req.Path))
	for i, c := range req.Path {
		segs[i] = c.String()
	}
	return d.route(req, segs)
}

func (d *Device) route(req *wire.Request, segs []string) *wire.Response {
	m := req.Method
	switch {
	case match(segs, "ping") && m == wire.MethodGet:
		return ok(&wire.Acknowledge{Data: d.config.AckBytes})
	case match(segs, "version") && m == wire.MethodGet:
		v := d.config.Version
		return ok(&v)
	case match(segs, "system", "state") && m == wire.MethodPut:
		s, isState := req.Payload.(wire.SystemState)
		if !isState {
			return status(wire.StatusInvalidRequestError)
		}
		if s == wire.SystemStateResetting {
			d.loadStartup()
			s = wire.SystemStatePaused
		}
		d.state = s
		return ok(nil)
	case match(segs, "modules") && m == wire.MethodGet:
		return ok(&wire.ModuleTypes{Types: wire.AllModuleTypes()})
	case len(segs) == 2 && segs[0] == "module" && m == wire.MethodGet:
		t, found := wire.ParseModuleType(enumName(segs[1]))
		if !found {
			return status(wire.StatusNotFoundError)
		}
		return ok(&wire.Modules{Modules: []wire.AnalogModule{describeType(t)}})
	case segs0(segs, "circuit"):
		return d.routeCircuit(req, segs[1:])
	case segs0(segs, "storage"):
		return d.routeStorage(req, segs[1:])
	case match(segs, "system", "resource", "analog", "clock"):
		return d.routeClock(req)
	case match(segs, "system", "resource", "analog", "clock", "default") && m == wire.MethodPost:
		d.resetClocks()
		return ok(nil)
	}
	return status(wire.StatusInvalidRequestError)
}

func (d *Device) routeCircuit(req *wire.Request, segs []string) *wire.Response {
	m := req.Method
	switch {
	case len(segs) == 0 && m == wire.MethodGet:
		c := cloneCircuit(d.circuit)
		return ok(&c)
	case match(segs, "default") && m == wire.MethodPost:
		d.circuit = wire.Circuit{}
		d.listeners = nil
		return ok(nil)
	case match(segs, "modules", "count") && m == wire.MethodGet:
		return ok(wire.ModuleCount(len(d.circuit.Modules)))
	case match(segs, "nets", "count") && m == wire.MethodGet:
		return ok(wire.NetCount(len(d.circuit.Nets)))
	case match(segs, "modules") && m == wire.MethodPost:
		mod, isModule := req.Payload.(*wire.AnalogModule)
		if !isModule {
			return status(wire.StatusInvalidRequestError)
		}
		if len(d.circuit.Modules) >= d.config.MaxModules {
			return status(wire.StatusInsufficientResourcesError)
		}
		added := *mod
		added.ID = uint32(len(d.circuit.Modules))
		d.circuit.Modules = append(d.circuit.Modules, added)
		return ok(nil)
	case match(segs, "nets") && m == wire.MethodPost:
		n, isNet := req.Payload.(*wire.Net)
		if !isNet || d.module(n.Output.ModuleID) == nil || d.module(n.Input.ModuleID) == nil {
			return status(wire.StatusInvalidRequestError)
		}
		d.circuit.Nets = append(d.circuit.Nets, *n)
		return ok(nil)
	case match(segs, "bytestream") && m == wire.MethodGet:
		return ok(&wire.Bytestream{Data: d.bytestream()})
	case match(segs, "midi", "listeners") && m == wire.MethodPost:
		l, isListener := req.Payload.(*wire.MidiListener)
		if !isListener || d.module(l.ModuleID) == nil {
			return status(wire.StatusInvalidRequestError)
		}
		d.listeners = append(d.listeners, *l)
		return ok(nil)
	case match(segs, "midi", "listener") && m == wire.MethodDelete:
		l, isListener := req.Payload.(*wire.MidiListener)
		if !isListener {
			return status(wire.StatusInvalidRequestError)
		}
		d.listeners = slices.DeleteFunc(d.listeners, func(x wire.MidiListener) bool {
			return x.ModuleID == l.ModuleID && x.Kind == l.Kind
		})
		return ok(nil)
	case len(segs) >= 2 && segs[0] == "module":
		id, err := strconv.ParseUint(segs[1], 10, 32)
		if err != nil || d.module(uint32(id)) == nil {
			return status(wire.StatusNotFoundError)
		}
		return d.routeModule(req, uint32(id), segs[2:])
	}
	return status(wire.StatusInvalidRequestError)
}

func (d *Device) routeModule(req *wire.Request, id uint32, segs []string) *wire.Response {
	mod := d.module(id)
	m := req.Method

	switch {
	case len(segs) == 0 && m == wire.MethodDelete:
		d.removeModule(id)
		return ok(nil)
	case len(segs) == 3 && segs[0] == "parameter":
		pid, found := wire.ParseParameterID(enumName(segs[1]))
		if !found {
			return status(wire.StatusNotFoundError)
		}
		p := findParameter(mod, pid)
		if p == nil {
			return status(wire.StatusNotFoundError)
		}
		return handleParameter(req, p, segs[2])
	case len(segs) == 3 && segs[0] == "option" && segs[2] == "value":
		oid, found := wire.ParseOptionID(enumName(segs[1]))
		if !found {
			return status(wire.StatusNotFoundError)
		}
		for i := range mod.Options {
			o := &mod.Options[i]
			if o.ID != oid {
				continue
			}
			switch m {
			case wire.MethodGet:
				return ok(o.Value)
			case wire.MethodPut:
				v, isValue := req.Payload.(wire.OptionValue)
				if !isValue || (len(o.ValidValues) > 0 && !slices.Contains(o.ValidValues, v)) {
					return status(wire.StatusInvalidRequestError)
				}
				o.Value = v
				return ok(nil)
			}
		}
		return status(wire.StatusNotFoundError)
	case match(segs, "lookup-table"):
		if !mod.HasLookupTable {
			return status(wire.StatusInvalidRequestError)
		}
		switch m {
		case wire.MethodGet:
			return ok(&wire.LookupTable{})
		case wire.MethodPut:
			if _, isTable := req.Payload.(*wire.LookupTable); !isTable {
				return status(wire.StatusInvalidRequestError)
			}
			return ok(nil)
		}
	case match(segs, "clock"):
		switch m {
		case wire.MethodGet:
			cc := wire.ModuleClockConfiguration{}
			if mod.ClockConfiguration != nil {
				cc = *mod.ClockConfiguration
			}
			return ok(&cc)
		case wire.MethodPut:
			cc, isClock := req.Payload.(*wire.ModuleClockConfiguration)
			if !isClock {
				return status(wire.StatusInvalidRequestError)
			}
			c := *cc
			mod.ClockConfiguration = &c
			return ok(nil)
		}
	}
	return status(wire.StatusInvalidRequestError)
}

func handleParameter(req *wire.Request, p *wire.Parameter, leaf string) *wire.Response {
	switch {
	case leaf == "requested" && req.Method == wire.MethodPut:
		v, isRequested := req.Payload.(wire.Requested)
		if !isRequested {
			return status(wire.StatusInvalidRequestError)
		}
		p.Requested = float32(v)
		p.Realized = clamp(float32(v))
		return ok(nil)
	case leaf == "requested" && req.Method == wire.MethodGet:
		return ok(wire.Realized(p.Requested))
	case leaf == "realized" && req.Method == wire.MethodGet:
		return ok(wire.Realized(p.Realized))
	case leaf == "minimum" && req.Method == wire.MethodGet:
		return ok(wire.Minimum(ParameterMin))
	case leaf == "maximum" && req.Method == wire.MethodGet:
		return ok(wire.Maximum(ParameterMax))
	case leaf == "sweep" && req.Method == wire.MethodPost:
		s, isSweep := req.Payload.(*wire.ParameterSweep)
		if !isSweep {
			return status(wire.StatusInvalidRequestError)
		}
		p.Requested = s.TargetValue
		p.Realized = clamp(s.TargetValue)
		return ok(nil)
	}
	return status(wire.StatusInvalidRequestError)
}

func (d *Device) routeStorage(req *wire.Request, segs []string) *wire.Response {
	m := req.Method
	switch {
	case match(segs, "circuits") && m == wire.MethodGet:
		names := make([]string, 0, len(d.stored))
		for name := range d.stored {
			names = append(names, name)
		}
		slices.Sort(names)
		return ok(&wire.Bytestream{Data: []byte(strings.Join(names, "\n"))})
	case match(segs, "circuit", "startup") && m == wire.MethodDelete:
		d.startup = ""
		return ok(nil)
	case len(segs) == 3 && segs[0] == "circuit" && segs[1] == "startup" && m == wire.MethodPost:
		if _, found := d.stored[segs[2]]; !found {
			return status(wire.StatusStorageError)
		}
		d.startup = segs[2]
		return ok(nil)
	case len(segs) == 3 && segs[0] == "circuit" && segs[2] == "load" && m == wire.MethodPost:
		c, found := d.stored[segs[1]]
		if !found {
			return status(wire.StatusStorageError)
		}
		d.circuit = cloneCircuit(c)
		return ok(nil)
	case len(segs) == 2 && segs[0] == "circuit" && m == wire.MethodPost:
		d.stored[segs[1]] = cloneCircuit(d.circuit)
		return ok(nil)
	case len(segs) == 2 && segs[0] == "circuit" && m == wire.MethodDelete:
		if _, found := d.stored[segs[1]]; !found {
			return status(wire.StatusStorageError)
		}
		delete(d.stored, segs[1])
		if d.startup == segs[1] {
			d.startup = ""
		}
		return ok(nil)
	case match(segs, "debug") && m == wire.MethodPost:
		if _, isDebug := req.Payload.(*wire.StorageDebugRequest); !isDebug {
			return status(wire.StatusInvalidRequestError)
		}
		return ok(&wire.Bytestream{})
	}
	return status(wire.StatusInvalidRequestError)
}

func (d *Device) routeClock(req *wire.Request) *wire.Response {
	switch req.Method {
	case wire.MethodGet:
		return ok(&wire.ProcessorClockConfiguration{SysClocks: slices.Clone(d.clocks)})
	case wire.MethodPatch:
		cc, isClock := req.Payload.(*wire.ProcessorClockConfiguration)
		if !isClock {
			return status(wire.StatusInvalidRequestError)
		}
		for _, sc := range cc.SysClocks {
			if int(sc.ID) < 0 || int(sc.ID) >= len(d.clocks) || sc.Divisor == 0 {
				return status(wire.StatusInvalidRequestError)
			}
			d.clocks[sc.ID].Divisor = sc.Divisor
		}
		return ok(nil)
	}
	return status(wire.StatusInvalidRequestError)
}

func (d *Device) resetClocks() {
	ids := wire.AllClockIDs()
	d.clocks = make([]wire.SysClock, len(ids))
	for i, id := range ids {
		d.clocks[i] = wire.SysClock{ID: id, Divisor: DefaultDivisor}
	}
}

func (d *Device) loadStartup() {
	d.circuit = wire.Circuit{}
	d.listeners = nil
	if c, found := d.stored[d.startup]; found && d.startup != "" {
		d.circuit = cloneCircuit(c)
	}
}

func (d *Device) module(id uint32) *wire.AnalogModule {
	if int(id) >= len(d.circuit.Modules) {
		return nil
	}
	return &d.circuit.Modules[id]
}

// removeModule deletes a module and the nets and listeners touching it.
// Later modules are renumbered.
func (d *Device) removeModule(id uint32) {
	d.circuit.Modules = slices.Delete(d.circuit.Modules, int(id), int(id)+1)
	for i := range d.circuit.Modules {
		d.circuit.Modules[i].ID = uint32(i)
	}

	renumber := func(m uint32) uint32 {
		if m > id {
			return m - 1
		}
		return m
	}
	nets := d.circuit.Nets[:0]
	for _, n := range d.circuit.Nets {
		if n.Output.ModuleID == id || n.Input.ModuleID == id {
			continue
		}
		n.Output.ModuleID = renumber(n.Output.ModuleID)
		n.Input.ModuleID = renumber(n.Input.ModuleID)
		nets = append(nets, n)
	}
	d.circuit.Nets = nets

	listeners := d.listeners[:0]
	for _, l := range d.listeners {
		if l.ModuleID == id {
			continue
		}
		l.ModuleID = renumber(l.ModuleID)
		listeners = append(listeners, l)
	}
	d.listeners = listeners
}

// bytestream renders a stand-in fabric configuration: one byte per module
// type and one pair per net.
func (d *Device) bytestream() []byte {
	b := []byte{0xD5, byte(len(d.circuit.Modules))}
	for _, m := range d.circuit.Modules {
		b = append(b, byte(m.Type))
	}
	for _, n := range d.circuit.Nets {
		b = append(b, byte(n.Output.ModuleID), byte(n.Input.ModuleID))
	}
	return b
}

func ok(body wire.Body) *wire.Response {
	return &wire.Response{StatusCode: wire.StatusOK, Body: body}
}

func status(code wire.StatusCode) *wire.Response {
	return &wire.Response{StatusCode: code}
}

func match(segs []string, want ...string) bool {
	return slices.Equal(segs, want)
}

func segs0(segs []string, first string) bool {
	return len(segs) > 0 && segs[0] == first
}

// enumName turns a rendered path segment back into a schema enum name.
func enumName(seg string) string {
	return strings.ToUpper(strings.ReplaceAll(seg, "-", "_"))
}

func findParameter(m *wire.AnalogModule, id wire.ParameterID) *wire.Parameter {
	for i := range m.Parameters {
		if m.Parameters[i].ID == id {
			return &m.Parameters[i]
		}
	}
	return nil
}

func cloneCircuit(c wire.Circuit) wire.Circuit {
	out := wire.Circuit{
		Modules: make([]wire.AnalogModule, len(c.Modules)),
		Nets:    slices.Clone(c.Nets),
	}
	for i, m := range c.Modules {
		m.Parameters = slices.Clone(m.Parameters)
		m.Options = slices.Clone(m.Options)
		if m.ClockConfiguration != nil {
			cc := *m.ClockConfiguration
			m.ClockConfiguration = &cc
		}
		out.Modules[i] = m
	}
	return out
}
