// Package ir is the typed tree produced by the checker and consumed by the
// code generator. Every expression carries its resolved type.
package ir

import "falafel/internal/types"

type Stmt interface {
	stmtNode()
}

type Expr interface {
	Type() *types.Type
	exprNode()
}

// Statements

// Class is a checked class definition. Properties keep their initializers;
// Methods hold the checked bodies.
type Class struct {
	Type       *types.Type
	Properties []*VarDecl
	Methods    []*Func
}

type VarDecl struct {
	Name  string
	Type  *types.Type
	Value Expr
}

// Assign targets are *Ident, *Property or a settable *Index.
type Assign struct {
	Target Expr
	Value  Expr
}

type If struct {
	Cond Expr
	Then []Stmt
	Else []Stmt
}

type While struct {
	Cond Expr
	Body []Stmt
}

type Param struct {
	Name string
	Type *types.Type
}

// Func is a free function or, when Method.Owner is a class, a method body.
type Func struct {
	Method *types.Method
	Params []Param
	Body   []Stmt
}

type Return struct {
	Value Expr // nil for a bare return
}

type ExprStmt struct {
	X Expr
}

func (*Class) stmtNode()    {}
func (*VarDecl) stmtNode()  {}
func (*Assign) stmtNode()   {}
func (*If) stmtNode()       {}
func (*While) stmtNode()    {}
func (*Func) stmtNode()     {}
func (*Return) stmtNode()   {}
func (*ExprStmt) stmtNode() {}

// Expressions

// IntLit has type Int, Float or Double depending on the context it was
// checked in.
type IntLit struct {
	Value int64
	T     *types.Type
}

// DecimalLit has type Double or Float.
type DecimalLit struct {
	Value float64
	T     *types.Type
}

type StringLit struct {
	Value string
}

type CharLit struct {
	Value byte
}

type BoolLit struct {
	Value bool
}

// NullLit is an empty Optional<T>.
type NullLit struct {
	T *types.Type
}

type ArrayLit struct {
	T     *types.Type
	Elems []Expr
}

// Interp is a string interpolation. Pieces may be of any stringifiable type.
type Interp struct {
	Pieces []Expr
}

type Ident struct {
	Name string
	T    *types.Type
}

// Call invokes a free function or a constructor.
type Call struct {
	Method *types.Method
	Args   []Expr
}

type MethodCall struct {
	Recv   Expr
	Method *types.Method
	Args   []Expr
}

// OpCall applies an instantiated operator. Lhs is nil for prefix operators.
type OpCall struct {
	Op  *types.Operator
	Lhs Expr
	Rhs Expr
}

type Cast struct {
	X Expr
	T *types.Type
}

type Index struct {
	X     Expr
	Index Expr
	T     *types.Type
}

type Property struct {
	X    Expr
	Prop *types.Property
}

func (e *IntLit) Type() *types.Type     { return e.T }
func (e *DecimalLit) Type() *types.Type { return e.T }
func (*StringLit) Type() *types.Type    { return types.String }
func (*CharLit) Type() *types.Type      { return types.Char }
func (*BoolLit) Type() *types.Type      { return types.Bool }
func (e *NullLit) Type() *types.Type    { return e.T }
func (e *ArrayLit) Type() *types.Type   { return e.T }
func (*Interp) Type() *types.Type       { return types.String }
func (e *Ident) Type() *types.Type      { return e.T }
func (e *Call) Type() *types.Type       { return e.Method.Return }
func (e *MethodCall) Type() *types.Type { return e.Method.Return }
func (e *OpCall) Type() *types.Type     { return e.Op.Return }
func (e *Cast) Type() *types.Type       { return e.T }
func (e *Index) Type() *types.Type      { return e.T }
func (e *Property) Type() *types.Type   { return e.Prop.Type }

func (*IntLit) exprNode()     {}
func (*DecimalLit) exprNode() {}
func (*StringLit) exprNode()  {}
func (*CharLit) exprNode()    {}
func (*BoolLit) exprNode()    {}
func (*NullLit) exprNode()    {}
func (*ArrayLit) exprNode()   {}
func (*Interp) exprNode()     {}
func (*Ident) exprNode()      {}
func (*Call) exprNode()       {}
func (*MethodCall) exprNode() {}
func (*OpCall) exprNode()     {}
func (*Cast) exprNode()       {}
func (*Index) exprNode()      {}
func (*Property) exprNode()   {}

// Returns reports whether executing stmts always reaches a return. A
// conditional returns only when both of its branches do; loops never count.
func Returns(stmts []Stmt) bool {
	for _, s := range stmts {
		switch s := s.(type) {
		case *Return:
			return true
		case *If:
			if s.Else != nil && Returns(s.Then) && Returns(s.Else) {
				return true
			}
		}
	}
	return false
}
