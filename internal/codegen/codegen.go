// Package codegen lowers a checked program to C++ against the falafel.hh
// reference-counted runtime.
package codegen

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"falafel/internal/ir"
	"falafel/internal/types"
)

// ErrInternal marks a typed tree the generator cannot lower. The checker
// never produces one, so seeing it is a compiler defect.
var ErrInternal = errors.New("internal compiler error")

const (
	preamble   = "#include <falafel.hh>\n"
	entryOpen  = "int main(int argc, const char** argv) {{"
	entryClose = "}Object::collect_cycles();return 0;}"
)

// block collects the lowered statements of one lexical block. Expressions
// that need setup statements write them to the block they are lowered in.
type block struct {
	strings.Builder
}

// Generator holds the output sections of one compilation. The entry point's
// own statements are threaded through Generate as a block.
type Generator struct {
	literals *stringPool
	forward  strings.Builder // class forward declarations
	classes  strings.Builder // class definitions
	protos   strings.Builder // free function prototypes
	bodies   strings.Builder // function and method bodies after main
	builders int
	out      []byte
}

func New() *Generator {
	return &Generator{literals: newStringPool()}
}

// Generate lowers stmts to a complete translation unit. A Generator may be
// reused; each call starts from empty sections.
func (g *Generator) Generate(stmts []ir.Stmt) ([]byte, error) {
	*g = Generator{literals: newStringPool()}

	var main block
	if err := g.block(&main, stmts); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	out.WriteString(preamble)
	out.WriteString(g.literals.declarations())
	out.WriteString(g.forward.String())
	out.WriteString(g.classes.String())
	out.WriteString(g.protos.String())
	out.WriteString(entryOpen)
	out.WriteString(main.String())
	out.WriteString(entryClose)
	out.WriteString(g.bodies.String())
	out.WriteByte('\n')

	g.out = out.Bytes()
	return g.out, nil
}

// WriteTo writes the output of the last Generate call.
func (g *Generator) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(g.out)
	return int64(n), err
}

// cppType renders the C++ spelling of t. Object types are held through
// RcPointer; generic arguments are spelled recursively.
func cppType(t *types.Type) string {
	name := t.Name
	if len(t.Generics) > 0 {
		args := make([]string, len(t.Generics))
		for i, a := range t.Generics {
			args[i] = cppType(a)
		}
		name += "<" + strings.Join(args, ", ") + " >"
	}
	if t.IsObject {
		return "RcPointer<" + name + " >"
	}
	return name
}

func accessor(t *types.Type) string {
	if t.IsObject {
		return "->"
	}
	return "."
}

// local spells a user-declared variable, parameter or property. Generated
// names never start with the prefix, and no C++ keyword does either.
func local(name string) string {
	return "v_" + name
}

func signature(f *ir.Func, qualifier string) string {
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = cppType(p.Type) + " " + local(p.Name)
	}
	return fmt.Sprintf("%s %s%s(%s)", cppType(f.Method.Return), qualifier, Symbol(f.Method), strings.Join(params, ", "))
}
