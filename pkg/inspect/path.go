package inspect

import (
	"fmt"
	"strings"

	"github.com/zrna-research/zrna-go/pkg/wire"
)

// FormatPath lists each compiled component with its kind and value, one
// per line.
func (f *Formatter) FormatPath(p wire.Path) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%d components)\n", p, len(p))
	for i, c := range p {
		var value string
		switch {
		case c.Kind == wire.KindInteger:
			value = fmt.Sprintf("%d", c.Int)
		case c.Kind == wire.KindString:
			value = fmt.Sprintf("%q", c.Str)
		default:
			value = fmt.Sprintf("%s = %d", wire.EnumName(c.Kind, c.Ordinal), c.Ordinal)
		}
		sb.WriteString(f.Indent(1, fmt.Sprintf("%d: %-16s %s\n", i, c.Kind, value)))
	}
	return strings.TrimRight(sb.String(), "\n")
}
