// Package inspect renders device responses and compiled paths for people.
package inspect

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/zrna-research/zrna-go/pkg/path"
	"github.com/zrna-research/zrna-go/pkg/wire"
)

// maxHexPreview caps the bytes shown for opaque data.
const maxHexPreview = 32

// Formatter formats inspection output.
type Formatter struct {
	// ShowIDs includes enum ordinals alongside names.
	ShowIDs bool

	// IndentWidth is the number of spaces per indent level.
	IndentWidth int
}

// NewFormatter creates a new Formatter with default settings.
func NewFormatter() *Formatter {
	return &Formatter{IndentWidth: 2}
}

// Indent returns the content with indentation.
func (f *Formatter) Indent(depth int, content string) string {
	width := f.IndentWidth
	if width == 0 {
		width = 2
	}
	return strings.Repeat(" ", depth*width) + content
}

// FormatBody renders a response body. A nil body renders as "ok".
func (f *Formatter) FormatBody(b wire.Body) string {
	switch v := b.(type) {
	case nil:
		return "ok"
	case *wire.Acknowledge:
		return "ack " + hexPreview(v.Data)
	case *wire.Version:
		return "version " + v.String()
	case *wire.Circuit:
		return f.FormatCircuit(v)
	case *wire.Modules:
		var sb strings.Builder
		for i := range v.Modules {
			sb.WriteString(f.FormatModule(&v.Modules[i], 0))
		}
		return strings.TrimRight(sb.String(), "\n")
	case *wire.ModuleTypes:
		names := make([]string, len(v.Types))
		for i, t := range v.Types {
			names[i] = f.name(t.String(), int32(t))
		}
		return "module types: " + strings.Join(names, ", ")
	case wire.Realized:
		return "realized " + formatFloat(float32(v))
	case wire.Maximum:
		return "maximum " + formatFloat(float32(v))
	case wire.Minimum:
		return "minimum " + formatFloat(float32(v))
	case wire.OptionValue:
		return "option value " + f.name(v.String(), int32(v))
	case wire.ModuleCount:
		return "modules " + strconv.FormatUint(uint64(v), 10)
	case wire.NetCount:
		return "nets " + strconv.FormatUint(uint64(v), 10)
	case *wire.LookupTable:
		return fmt.Sprintf("lookup table, %d entries", len(v.Data))
	case *wire.Bytestream:
		return fmt.Sprintf("bytestream %s: %s", humanize.Bytes(uint64(len(v.Data))), hexPreview(v.Data))
	case *wire.ModuleClockConfiguration:
		return fmt.Sprintf("clock-a %s, clock-b %s",
			f.name(v.ClockA.String(), int32(v.ClockA)), f.name(v.ClockB.String(), int32(v.ClockB)))
	case *wire.ProcessorClockConfiguration:
		var sb strings.Builder
		sb.WriteString("clocks:\n")
		for _, c := range v.SysClocks {
			sb.WriteString(f.Indent(1, fmt.Sprintf("%s divisor %d\n", f.name(c.ID.String(), int32(c.ID)), c.Divisor)))
		}
		return strings.TrimRight(sb.String(), "\n")
	case *wire.UnknownBody:
		return fmt.Sprintf("unknown body field %d (%d bytes)", v.Field, len(v.Raw))
	}
	return fmt.Sprintf("%T", b)
}

// FormatResponse renders the status line followed by the body.
func (f *Formatter) FormatResponse(resp *wire.Response) string {
	if !resp.IsSuccess() {
		return resp.StatusCode.String()
	}
	return f.FormatBody(resp.Body)
}

// FormatCircuit lists modules then nets.
func (f *Formatter) FormatCircuit(c *wire.Circuit) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "circuit: %d modules, %d nets\n", len(c.Modules), len(c.Nets))
	for i := range c.Modules {
		sb.WriteString(f.FormatModule(&c.Modules[i], 1))
	}
	for _, n := range c.Nets {
		sb.WriteString(f.Indent(1, f.FormatNet(n)+"\n"))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// FormatModule renders one module with its parameters and options.
func (f *Formatter) FormatModule(m *wire.AnalogModule, depth int) string {
	var sb strings.Builder
	sb.WriteString(f.Indent(depth, fmt.Sprintf("[%d] %s\n", m.ID, f.name(m.Type.String(), int32(m.Type)))))
	for _, p := range m.Parameters {
		line := fmt.Sprintf("%s = %s (realized %s)",
			f.name(p.ID.String(), int32(p.ID)), formatFloat(p.Requested), formatFloat(p.Realized))
		sb.WriteString(f.Indent(depth+1, line+"\n"))
	}
	for _, o := range m.Options {
		sb.WriteString(f.Indent(depth+1, fmt.Sprintf("%s = %s\n",
			f.name(o.ID.String(), int32(o.ID)), f.name(o.Value.String(), int32(o.Value)))))
	}
	if m.ClockConfiguration != nil {
		sb.WriteString(f.Indent(depth+1, f.FormatBody(m.ClockConfiguration)+"\n"))
	}
	if m.HasLookupTable {
		sb.WriteString(f.Indent(depth+1, "lookup table\n"))
	}
	return sb.String()
}

// FormatNet renders a net as output -> input.
func (f *Formatter) FormatNet(n wire.Net) string {
	return fmt.Sprintf("%d.%s -> %d.%s",
		n.Output.ModuleID, path.ToPathName(n.Output.OutputID.String()),
		n.Input.ModuleID, path.ToPathName(n.Input.InputID.String()))
}

func (f *Formatter) name(enumName string, ordinal int32) string {
	n := path.ToPathName(enumName)
	if f.ShowIDs {
		return fmt.Sprintf("%s(%d)", n, ordinal)
	}
	return n
}

func formatFloat(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}

func hexPreview(data []byte) string {
	if len(data) == 0 {
		return "(empty)"
	}
	if len(data) <= maxHexPreview {
		return fmt.Sprintf("% X", data)
	}
	return fmt.Sprintf("% X ...", data[:maxHexPreview])
}
