package wire

// Catalog resolves normalized enum names to ordinals for the enum-valued
// path component kinds.
type Catalog interface {
	Lookup(kind ComponentKind, name string) (int32, bool)
}

// schemaCatalog is the catalog compiled into this package.
type schemaCatalog struct{}

// DefaultCatalog is the built-in schema catalog.
var DefaultCatalog Catalog = schemaCatalog{}

// Lookup implements Catalog.
func (schemaCatalog) Lookup(kind ComponentKind, name string) (int32, bool) {
	t := tableFor(kind)
	if t == nil {
		return 0, false
	}
	return t.lookup(name)
}

// EnumName returns the symbolic name of an enum ordinal of the given kind.
// Unknown ordinals render as <ENUM>_<n>.
func EnumName(kind ComponentKind, ordinal int32) string {
	t := tableFor(kind)
	if t == nil {
		return kind.String()
	}
	return t.name(ordinal)
}

// EnumNames returns all known names of the given kind in ordinal order.
func EnumNames(kind ComponentKind) []string {
	t := tableFor(kind)
	if t == nil {
		return nil
	}
	out := make([]string, t.len())
	copy(out, t.names)
	return out
}

func tableFor(kind ComponentKind) *enumTable {
	switch kind {
	case KindResourceID:
		return resourceIDs
	case KindModuleType:
		return moduleTypes
	case KindParameterID:
		return parameterIDs
	case KindOptionID:
		return optionIDs
	case KindInputID:
		return inputIDs
	case KindOutputID:
		return outputIDs
	case KindSystemOptionID:
		return systemOptionIDs
	default:
		return nil
	}
}
