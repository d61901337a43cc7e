// Package checker turns the untyped syntax tree into the typed tree,
// resolving overloads, operators and generic instantiations on the way.
package checker

import (
	"errors"
	"fmt"
	"slices"

	"falafel/internal/ast"
	"falafel/internal/ir"
	"falafel/internal/token"
	"falafel/internal/types"
)

type blockKind int

const (
	blockTop    blockKind = iota
	blockBranch           // conditional branch or loop body
	blockFunc             // function or method body
)

// Checker holds one scope. Nested blocks are checked by child checkers that
// copy the known types, variables and functions, so nothing declared in a
// child leaks back to its parent.
type Checker struct {
	types     []*types.Type
	variables []*types.Variable
	functions []*types.Method

	// Start-of-scope markers: only entries past these indexes were declared
	// in this scope and take part in duplicate detection.
	typesMark int
	varsMark  int
	funcsMark int

	kind       blockKind
	returnType *types.Type // nil outside functions
	owner      *types.Type // class whose method is being checked

	lines token.LineTable
	warn  func(Warning)
}

type Option func(*Checker)

// WithLines sets the table used to attribute errors to source lines.
func WithLines(lines token.LineTable) Option {
	return func(c *Checker) { c.lines = lines }
}

// WithWarnings installs a sink for non-fatal diagnostics. Without one,
// warnings are dropped.
func WithWarnings(fn func(Warning)) Option {
	return func(c *Checker) { c.warn = fn }
}

// New returns a top-level checker that knows the built-in types and
// functions.
func New(opts ...Option) *Checker {
	c := &Checker{
		types:     types.BuiltinTypes(),
		functions: types.BuiltinFunctions(),
		kind:      blockTop,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check type-checks a whole translation unit.
func (c *Checker) Check(nodes []ast.Stmt) ([]ir.Stmt, error) {
	return c.CheckBlock(nodes, nil)
}

// CheckBlock checks a statement sequence in this checker's scope. A non-nil
// expectedReturn checks the sequence as the body of a function returning
// that type, in a child scope that leaves c unchanged.
func (c *Checker) CheckBlock(nodes []ast.Stmt, expectedReturn *types.Type) ([]ir.Stmt, error) {
	if expectedReturn == nil {
		return c.checkBlock(nodes)
	}
	fc := c.child(blockFunc)
	fc.returnType = expectedReturn
	return fc.checkBlock(nodes)
}

// CheckExpr checks a single expression. A nil expected type means the
// expression must be typeable on its own.
func (c *Checker) CheckExpr(expr ast.Expr, expected *types.Type) (ir.Expr, error) {
	return c.checkExpr(expr, expected)
}

// Declare makes a variable visible in this checker's scope.
func (c *Checker) Declare(name string, t *types.Type) {
	c.variables = append(c.variables, &types.Variable{Name: name, Type: t})
}

func (c *Checker) child(kind blockKind) *Checker {
	return &Checker{
		types:      slices.Clone(c.types),
		variables:  slices.Clone(c.variables),
		functions:  slices.Clone(c.functions),
		typesMark:  len(c.types),
		varsMark:   len(c.variables),
		funcsMark:  len(c.functions),
		kind:       kind,
		returnType: c.returnType,
		owner:      c.owner,
		lines:      c.lines,
		warn:       c.warn,
	}
}

// funcScope returns a scope for a function body. Top-level variables live
// inside the program entry point, so function bodies do not see them.
func (c *Checker) funcScope(ret, owner *types.Type) *Checker {
	fc := c.child(blockFunc)
	fc.variables = nil
	fc.varsMark = 0
	fc.returnType = ret
	fc.owner = owner
	if owner != nil {
		for cur := owner; cur != nil; cur = cur.Base {
			for _, p := range cur.Properties {
				fc.variables = append(fc.variables, &types.Variable{Name: p.Name, Type: p.Type})
			}
		}
		fc.varsMark = len(fc.variables)
	}
	return fc
}

func (c *Checker) errorf(n ast.Node, format string, args ...any) error {
	return &TypeCheckError{Msg: fmt.Sprintf(format, args...), Line: c.lineOf(n)}
}

func (c *Checker) wrapf(n ast.Node, err error, format string, args ...any) error {
	return &TypeCheckError{Msg: fmt.Sprintf(format, args...), Line: c.lineOf(n), Err: err}
}

// atLine attributes err to n when nothing deeper supplied a line.
func (c *Checker) atLine(n ast.Node, err error) error {
	var tce *TypeCheckError
	if errors.As(err, &tce) {
		if tce.Line == 0 {
			tce.Line = c.lineOf(n)
		}
		return err
	}
	return &TypeCheckError{Msg: err.Error(), Line: c.lineOf(n), Err: err}
}

func (c *Checker) lineOf(n ast.Node) int {
	if n == nil {
		return 0
	}
	return c.lines.LineOf(n.Pos())
}

func (c *Checker) warnf(n ast.Node, format string, args ...any) {
	if c.warn == nil {
		return
	}
	c.warn(Warning{Line: c.lineOf(n), Msg: fmt.Sprintf(format, args...)})
}

// lookupType resolves a type reference, instantiating generics.
func (c *Checker) lookupType(ref ast.TypeRef) (*types.Type, error) {
	var found *types.Type
	for i := len(c.types) - 1; i >= 0; i-- {
		if c.types[i].Name == ref.Name {
			found = c.types[i]
			break
		}
	}
	if found == nil {
		return nil, c.typeErr(ref, "unrecognized type %s", ref)
	}

	if len(ref.Args) == 0 {
		if len(found.Generics) > 0 {
			return nil, c.typeErr(ref, "missing generic type arguments for type %s", ref.Name)
		}
		return found, nil
	}

	args := make([]*types.Type, len(ref.Args))
	for i, a := range ref.Args {
		t, err := c.lookupType(a)
		if err != nil {
			return nil, err
		}
		if types.Equal(t, types.Void) {
			return nil, c.typeErr(a, "Void is not a valid type argument")
		}
		args[i] = t
	}
	inst, err := types.Instantiate(found, args)
	if err != nil {
		return nil, c.typeErr(ref, "%v", err)
	}
	return inst, nil
}

func (c *Checker) typeErr(ref ast.TypeRef, format string, args ...any) error {
	return &TypeCheckError{Msg: fmt.Sprintf(format, args...), Line: c.lines.LineOf(ref.Span)}
}

// lookupVariable returns the most recent declaration of name.
func (c *Checker) lookupVariable(name string) *types.Variable {
	for i := len(c.variables) - 1; i >= 0; i-- {
		if c.variables[i].Name == name {
			return c.variables[i]
		}
	}
	return nil
}

func (c *Checker) declaredLocally(name string) bool {
	for _, v := range c.variables[c.varsMark:] {
		if v.Name == name {
			return true
		}
	}
	return false
}

func (c *Checker) typeDeclaredLocally(name string) bool {
	for _, t := range c.types[c.typesMark:] {
		if t.Name == name {
			return true
		}
	}
	return false
}
