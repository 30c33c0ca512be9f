package path

import (
	"strconv"
	"strings"

	"github.com/iancoleman/strcase"

	"github.com/zrna-research/zrna-go/pkg/wire"
)

// ResolverOrder is the priority order in which token resolvers are tried.
var ResolverOrder = []wire.ComponentKind{
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

// Resolver turns one token into a component, or reports that it does not apply.
type Resolver func(token string) (wire.Component, bool)

// Compiler converts path strings into wire paths against a catalog.
type Compiler struct {
	resolvers []Resolver
}

// NewCompiler creates a compiler that resolves enum tokens through catalog.
// A nil catalog uses wire.DefaultCatalog.
func NewCompiler(catalog wire.Catalog) *Compiler {
	if catalog == nil {
		catalog = wire.DefaultCatalog
	}
	c := &Compiler{}
	for _, kind := range ResolverOrder {
		c.resolvers = append(c.resolvers, resolverFor(catalog, kind))
	}
	return c
}

var defaultCompiler = NewCompiler(nil)

// Compile compiles s with the built-in schema catalog.
func Compile(s string) wire.Path {
	return defaultCompiler.Compile(s)
}

// Compile splits s on '/', drops empty tokens, and resolves each remaining
// token. It never fails.
func (c *Compiler) Compile(s string) wire.Path {
	var p wire.Path
	for _, token := range strings.Split(s, "/") {
		if token == "" {
			continue
		}
		p = append(p, c.Resolve(token))
	}
	return p
}

// Resolve returns the component produced by the first resolver that accepts
// token.
func (c *Compiler) Resolve(token string) wire.Component {
	for _, r := range c.resolvers {
		if comp, ok := r(token); ok {
			return comp
		}
	}
	return wire.StringComponent(token)
}

func resolverFor(catalog wire.Catalog, kind wire.ComponentKind) Resolver {
	switch kind {
	case wire.KindInteger:
		return resolveInteger
	case wire.KindString:
		return resolveString
	case wire.KindModuleType:
		return func(token string) (wire.Component, bool) {
			// Module type names keep the LF acronym upper case.
			name := strings.ReplaceAll(Normalize(token), "Lf", "LF")
			return lookup(catalog, kind, name)
		}
	default:
		return func(token string) (wire.Component, bool) {
			return lookup(catalog, kind, Normalize(token))
		}
	}
}

func lookup(catalog wire.Catalog, kind wire.ComponentKind, name string) (wire.Component, bool) {
	v, ok := catalog.Lookup(kind, name)
	if !ok {
		return wire.Component{}, false
	}
	return wire.EnumComponent(kind, v), true
}

func resolveInteger(token string) (wire.Component, bool) {
	v, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return wire.Component{}, false
	}
	return wire.IntegerComponent(v), true
}

func resolveString(token string) (wire.Component, bool) {
	return wire.StringComponent(token), true
}

// Normalize converts a kebab-case, snake_case or camelCase token to the upper
// snake case used by schema enum names.
func Normalize(token string) string {
	return strcase.ToScreamingSnake(token)
}

// ToPathName converts an enum name to its path token form, e.g.
// "LOOKUP_TABLE" becomes "lookup-table".
func ToPathName(name string) string {
	return strcase.ToKebab(strings.ToLower(name))
}
