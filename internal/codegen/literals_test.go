package codegen

import (
	"math"
	"strings"
	"testing"

	"github.com/nalgeon/be"

	"falafel/internal/types"
)

func TestEscapeUTF8(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"tab\there", `tab\there`},
		{"line\r\n", `line\r\n`},
		{`say "hi"\`, `say \"hi\"\\`},
		{"\a\b\v", `\a\b\v`},
		{"\x01z", `\x01z`},
		{"\x1fa", `\x1f" u8"a`},
		{"\x7f9", `\x7f" u8"9`},
		{"\x00\x00", `\x00\x00`},
		{"héllo", "héllo"},
	}
	for _, tt := range tests {
		be.Equal(t, escapeUTF8(tt.in), tt.want)
	}
}

func TestStringPool(t *testing.T) {
	p := newStringPool()
	be.Equal(t, p.ref(""), "String::empty")
	be.Equal(t, p.Len(), 0)

	be.Equal(t, p.ref("short"), "stringLiteral0")
	be.Equal(t, p.ref("a much longer one"), "stringLiteral1")
	be.Equal(t, p.ref("short"), "stringLiteral0")
	be.Equal(t, p.Len(), 2)

	for i := 2; i < 12; i++ {
		p.ref(strings.Repeat("x", i))
	}
	be.Equal(t, p.ref(strings.Repeat("x", 11)), "stringLiteralB")

	decls := p.declarations()
	be.True(t, strings.HasPrefix(decls,
		`auto stringLiteral0 = String::allocate_small_utf8(u8"short");`+
			`auto stringLiteral1 = String::allocate_immortal_utf8(u8"a much longer one");`))

	// The small/immortal split counts UTF-8 bytes, not characters.
	p = newStringPool()
	p.ref("ééé")
	be.True(t, strings.Contains(p.declarations(), "allocate_small_utf8"))
	p.ref("éééé")
	be.True(t, strings.Contains(p.declarations(), "allocate_immortal_utf8"))
}

func TestNumberFormatting(t *testing.T) {
	be.Equal(t, formatInt(42, types.Int), "(Int)42")
	be.Equal(t, formatInt(-1, types.Int), "(Int)-1")
	be.Equal(t, formatInt(42, types.Float), "42.0f")
	be.Equal(t, formatInt(42, types.Double), "42.0")

	be.Equal(t, formatDecimal(1.5, types.Double), "1.5")
	be.Equal(t, formatDecimal(1.5, types.Float), "1.5f")
	be.Equal(t, formatDecimal(100, types.Double), "100.0")
	be.Equal(t, formatDecimal(0.1, types.Double), "0.10000000000000001")
	be.Equal(t, formatDecimal(1e20, types.Double), "1e+20")
	be.Equal(t, formatDecimal(math.NaN(), types.Double), "NAN")
	be.Equal(t, formatDecimal(math.Inf(1), types.Float), "INFINITY")
	be.Equal(t, formatDecimal(math.Inf(-1), types.Double), "-INFINITY")

	be.Equal(t, formatChar('A'), `u8'\x41'`)
}

func TestMangleBuiltins(t *testing.T) {
	arr, err := types.Instantiate(types.Array, []*types.Type{types.String})
	be.Err(t, err, nil)
	be.Equal(t, Mangle(types.LookupMethods(arr, "push")[0]), "f_pushvh")
	be.Equal(t, Mangle(types.LookupMethods(arr, "length")[0]), "f_lengthib")
	be.Equal(t, Mangle(types.LookupMethods(types.Optional, "hasValue")[0]), "f_hasValuebb")
	be.Equal(t, Symbol(types.BuiltinFunctions()[0]), "print")
}

func TestMangleDistinguishesArgumentKinds(t *testing.T) {
	generic, err := types.NewMethod(types.Array, "put", []*types.Type{types.NewPlaceholder("T")}, types.Void)
	be.Err(t, err, nil)
	concrete, err := types.NewMethod(types.Array, "put", []*types.Type{types.Int}, types.Void)
	be.Err(t, err, nil)
	object, err := types.NewMethod(types.Array, "put", []*types.Type{types.String}, types.Void)
	be.Err(t, err, nil)
	structure, err := types.NewMethod(types.Array, "put", []*types.Type{types.StringBuilder}, types.Void)
	be.Err(t, err, nil)

	seen := map[string]bool{}
	for _, m := range []*types.Method{generic, concrete, object, structure} {
		seen[Mangle(m)] = true
	}
	be.Equal(t, len(seen), 4)

	// A leading primitive argument is not lost.
	none, err := types.NewMethod(types.Array, "put", nil, types.Void)
	be.Err(t, err, nil)
	be.True(t, Mangle(none) != Mangle(concrete))
}

func TestMangleReturnShapes(t *testing.T) {
	optArr, err := types.Instantiate(types.Array, []*types.Type{types.Int})
	be.Err(t, err, nil)
	opt, err := types.Instantiate(types.Optional, []*types.Type{optArr})
	be.Err(t, err, nil)
	shape := types.NewClass("Shape", types.Object, true)
	point := types.NewStruct("Point")

	tests := []struct {
		ret  *types.Type
		want string
	}{
		{types.Bool, "b"},
		{types.String, "s"},
		{types.Object, "o"},
		{opt, "oai"},
		{shape, "O5Shape"},
		{point, "S5Point"},
		{types.NewPlaceholder("T"), "t"},
	}
	for _, tt := range tests {
		be.Equal(t, mangleType(tt.ret), tt.want)
	}
}

func TestBase63(t *testing.T) {
	be.Equal(t, toBase63(0), "a")
	be.Equal(t, toBase63(1), "b")
	be.Equal(t, toBase63(62), "_")
	be.Equal(t, toBase63(63), "ba")
	be.Equal(t, toBase63(64), "bb")
}
