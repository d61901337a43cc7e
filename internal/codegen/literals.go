package codegen

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"falafel/internal/types"
)

// Literals whose UTF-8 encoding is shorter than this fit the runtime's
// inline string storage.
const maxSmallString = 7

// stringPool interns string literals. Each distinct value is declared once
// before the entry point and referenced by name.
type stringPool struct {
	index  map[string]int
	values []string
}

func newStringPool() *stringPool {
	return &stringPool{index: make(map[string]int)}
}

// ref returns the symbol for s, interning it on first use.
func (p *stringPool) ref(s string) string {
	if s == "" {
		return "String::empty"
	}
	i, ok := p.index[s]
	if !ok {
		i = len(p.values)
		p.index[s] = i
		p.values = append(p.values, s)
	}
	return literalName(i)
}

func (p *stringPool) Len() int { return len(p.values) }

// declarations renders every pooled literal in first-use order.
func (p *stringPool) declarations() string {
	var sb strings.Builder
	for i, s := range p.values {
		alloc := "allocate_immortal_utf8"
		if len(s) < maxSmallString {
			alloc = "allocate_small_utf8"
		}
		fmt.Fprintf(&sb, "auto %s = String::%s(u8\"%s\");", literalName(i), alloc, escapeUTF8(s))
	}
	return sb.String()
}

func literalName(i int) string {
	return fmt.Sprintf("stringLiteral%X", i)
}

var escapes = map[byte]string{
	'\n': `\n`,
	'\r': `\r`,
	'\t': `\t`,
	'\v': `\v`,
	'\\': `\\`,
	'"':  `\"`,
	0x07: `\a`,
	0x08: `\b`,
}

// escapeUTF8 escapes s for a u8"..." literal. Hex escapes in C++ consume
// every following hex digit, so a literal is split after one whenever the
// next byte is a hex digit.
func escapeUTF8(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	afterHex := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if afterHex && isHexDigit(c) {
			sb.WriteString(`" u8"`)
		}
		afterHex = false

		if esc, ok := escapes[c]; ok {
			sb.WriteString(esc)
			continue
		}
		if c < 0x20 || c == 0x7f {
			fmt.Fprintf(&sb, `\x%02x`, c)
			afterHex = true
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

func isHexDigit(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

func formatInt(v int64, t *types.Type) string {
	s := strconv.FormatInt(v, 10)
	switch {
	case types.Equal(t, types.Float):
		return s + ".0f"
	case types.Equal(t, types.Double):
		return s + ".0"
	default:
		return "(Int)" + s
	}
}

func formatDecimal(v float64, t *types.Type) string {
	switch {
	case math.IsNaN(v):
		return "NAN"
	case math.IsInf(v, 1):
		return "INFINITY"
	case math.IsInf(v, -1):
		return "-INFINITY"
	}
	s := strconv.FormatFloat(v, 'g', 17, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	if types.Equal(t, types.Float) {
		s += "f"
	}
	return s
}

func formatChar(c byte) string {
	return fmt.Sprintf(`u8'\x%02x'`, c)
}
