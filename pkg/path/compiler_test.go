package path

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zrna-research/zrna-go/pkg/wire"
)

// mapCatalog is a catalog backed by per-kind name tables.
type mapCatalog map[wire.ComponentKind]map[string]int32

func (c mapCatalog) Lookup(kind wire.ComponentKind, name string) (int32, bool) {
	v, ok := c[kind][name]
	return v, ok
}

func resource(name string) wire.Component {
	v, ok := wire.DefaultCatalog.Lookup(wire.KindResourceID, name)
	if !ok {
		panic("unknown resource " + name)
	}
	return wire.EnumComponent(wire.KindResourceID, v)
}

func TestCompileParameterPath(t *testing.T) {
	got := Compile("/circuit/module/2/parameter/cutoff/requested")

	cutoff, ok := wire.ParseParameterID("CUTOFF")
	require.True(t, ok)

	want := wire.Path{
		resource("CIRCUIT"),
		resource("MODULE"),
		wire.IntegerComponent(2),
		resource("PARAMETER"),
		wire.EnumComponent(wire.KindParameterID, int32(cutoff)),
		resource("REQUESTED"),
	}
	assert.Equal(t, want, got)
	assert.Equal(t, "/circuit/module/2/parameter/cutoff/requested", got.String())
}

func TestCompileDiscardsEmptySegments(t *testing.T) {
	tests := []string{
		"/circuit//module/2/",
		"circuit/module/2",
		"//circuit/module//2//",
	}
	want := Compile("/circuit/module/2")
	require.Len(t, want, 3)

	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, Compile(in))
		})
	}
}

func TestCompileEmpty(t *testing.T) {
	assert.Empty(t, Compile(""))
	assert.Empty(t, Compile("///"))
}

func TestResolverPriority(t *testing.T) {
	tests := []struct {
		name  string
		token string
		kind  wire.ComponentKind
	}{
		{"resource wins over option", "phase", wire.KindResourceID},
		{"kebab module type", "lf-oscillator", wire.KindModuleType},
		{"camel module type", "LfOscillator", wire.KindModuleType},
		{"parameter", "gain-1", wire.KindParameterID},
		{"option", "input-phase", wire.KindOptionID},
		{"input", "control-input", wire.KindInputID},
		{"output", "lowpass-output", wire.KindOutputID},
		{"system option", "midi-enabled", wire.KindSystemOptionID},
		{"integer", "12", wire.KindInteger},
		{"negative integer", "-3", wire.KindInteger},
		{"string fallback", "my-circuit", wire.KindString},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := defaultCompiler.Resolve(tt.token)
			assert.Equal(t, tt.kind, got.Kind)
		})
	}
}

func TestResourceBeatsInteger(t *testing.T) {
	catalog := mapCatalog{
		wire.KindResourceID:  {"7": 3},
		wire.KindParameterID: {"7": 9},
	}
	c := NewCompiler(catalog)

	got := c.Compile("/7/8")
	require.Len(t, got, 2)
	assert.Equal(t, wire.EnumComponent(wire.KindResourceID, 3), got[0])
	assert.Equal(t, wire.IntegerComponent(8), got[1])
}

func TestEarlierEnumBeatsLater(t *testing.T) {
	catalog := mapCatalog{
		wire.KindOutputID:       {"SHARED": 1},
		wire.KindInputID:        {"SHARED": 2},
		wire.KindSystemOptionID: {"SHARED": 3},
	}
	got := NewCompiler(catalog).Resolve("shared")
	assert.Equal(t, wire.EnumComponent(wire.KindInputID, 2), got)
}

func TestModuleTypeRestoresLF(t *testing.T) {
	catalog := mapCatalog{
		wire.KindModuleType: {"LF_THING": 4},
	}
	c := NewCompiler(catalog)

	assert.Equal(t, wire.EnumComponent(wire.KindModuleType, 4), c.Resolve("lf-thing"))
	assert.Equal(t, wire.EnumComponent(wire.KindModuleType, 4), c.Resolve("LfThing"))
}

func TestCompileTotality(t *testing.T) {
	tokens := []string{"circuit", "42", "x", "Hello World", "ü", "-", "9999999999999999999999", "gain1"}
	for _, tok := range tokens {
		p := Compile("/" + tok)
		require.Len(t, p, 1, "token %q", tok)
		if p[0].Kind == wire.KindString {
			assert.Equal(t, tok, p[0].Str)
		}
	}
}

func TestResolverOrderContract(t *testing.T) {
	want := []wire.ComponentKind{
		wire.KindResourceID,
		wire.KindModuleType,
		wire.KindParameterID,
		wire.KindOptionID,
		wire.KindInputID,
		wire.KindOutputID,
		wire.KindSystemOptionID,
		wire.KindInteger,
		wire.KindString,
	}
	assert.Equal(t, want, ResolverOrder)
}

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"module-type":  "MODULE_TYPE",
		"moduleType":   "MODULE_TYPE",
		"lookup_table": "LOOKUP_TABLE",
		"cutoff":       "CUTOFF",
		"gain-1":       "GAIN_1",
	}
	for in, want := range tests {
		assert.Equal(t, want, Normalize(in), "Normalize(%q)", in)
	}
}

func TestToPathName(t *testing.T) {
	assert.Equal(t, "cutoff", ToPathName("CUTOFF"))
	assert.Equal(t, "lookup-table", ToPathName("LOOKUP_TABLE"))
	assert.Equal(t, "lf-oscillator", ToPathName("LF_OSCILLATOR"))
}
