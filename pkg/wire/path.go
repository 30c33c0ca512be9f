package wire

import (
	"strconv"
	"strings"
)

// ComponentKind identifies which variant of a path component is set.
// Each kind maps to PathComponent field number kind+1.
type ComponentKind int

const (
	KindResourceID ComponentKind = iota
	KindModuleType
	KindParameterID
	KindOptionID
	KindInputID
	KindOutputID
	KindSystemOptionID
	KindInteger
	KindString
)

var componentKindNames = [...]string{
	"resource_id",
	"module_type",
	"parameter_id",
	"option_id",
	"input_id",
	"output_id",
	"system_option_id",
	"integer_argument",
	"string_argument",
}

// String returns the protobuf field name of the kind.
func (k ComponentKind) String() string {
	if k >= 0 && int(k) < len(componentKindNames) {
		return componentKindNames[k]
	}
	return "kind_" + strconv.Itoa(int(k))
}

// IsEnum returns true for kinds that carry a schema enum ordinal.
func (k ComponentKind) IsEnum() bool {
	return k >= KindResourceID && k <= KindSystemOptionID
}

// Component is one typed segment of a device resource URL.
// Exactly one of Ordinal, Int or Str is meaningful, selected by Kind.
type Component struct {
	Kind    ComponentKind
	Ordinal int32
	Int     int64
	Str     string
}

// EnumComponent returns a component carrying an enum ordinal of the given kind.
func EnumComponent(kind ComponentKind, ordinal int32) Component {
	return Component{Kind: kind, Ordinal: ordinal}
}

// IntegerComponent returns an integer argument component.
func IntegerComponent(v int64) Component {
	return Component{Kind: KindInteger, Int: v}
}

// StringComponent returns a string argument component.
func StringComponent(s string) Component {
	return Component{Kind: KindString, Str: s}
}

// String renders the component as a path token.
func (c Component) String() string {
	switch c.Kind {
	case KindInteger:
		return strconv.FormatInt(c.Int, 10)
	case KindString:
		return c.Str
	default:
		return strings.ReplaceAll(strings.ToLower(EnumName(c.Kind, c.Ordinal)), "_", "-")
	}
}

// Path is an ordered list of components. Order mirrors the token order of the
// source string and duplicates are allowed.
type Path []Component

// String renders the path as a slash-delimited string.
func (p Path) String() string {
	if len(p) == 0 {
		return "/"
	}
	var sb strings.Builder
	for _, c := range p {
		sb.WriteByte('/')
		sb.WriteString(c.String())
	}
	return sb.String()
}

// Equal reports whether two paths carry the same components in the same order.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}
