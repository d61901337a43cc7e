package ast

import (
	"strings"

	"falafel/internal/token"
)

// Basic interfaces

type Node interface {
	Pos() token.Span
}

type Stmt interface {
	Node
	stmtNode()
}

type Expr interface {
	Node
	exprNode()
}

// Unit is a single translation unit handed over by the parser front end.
type Unit struct {
	Name  string
	Nodes []Stmt
	Lines token.LineTable
}

// TypeRef names a type as written in source: Int, Array<String>, ...
type TypeRef struct {
	Name string
	Args []TypeRef
	Span token.Span
}

func (t TypeRef) String() string {
	if len(t.Args) == 0 {
		return t.Name
	}
	args := make([]string, len(t.Args))
	for i, a := range t.Args {
		args[i] = a.String()
	}
	return t.Name + "<" + strings.Join(args, ", ") + ">"
}

// Declarations

type ClassDecl struct {
	Name  string
	Base  *TypeRef // nil means Object
	Final bool
	Body  []Stmt
	Span  token.Span
}

type VarDecl struct {
	Name  string
	Type  TypeRef
	Value Expr
	Span  token.Span
}

type Param struct {
	Name string
	Type TypeRef
	Span token.Span
}

type FuncDecl struct {
	Name   string
	Params []Param
	Return *TypeRef // nil means Void
	Body   []Stmt
	Span   token.Span
}

// Statements

type IfStmt struct {
	Cond Expr
	Then []Stmt
	Else []Stmt // nil when there is no else block
	Span token.Span
}

type WhileStmt struct {
	Cond Expr
	Body []Stmt
	Span token.Span
}

type AssignStmt struct {
	Target Expr
	Value  Expr
	Span   token.Span
}

type ReturnStmt struct {
	Value Expr // nil for a bare return
	Span  token.Span
}

type ExprStmt struct {
	X    Expr
	Span token.Span
}

// Expressions

type IntLit struct {
	Value int64
	Span  token.Span
}

type DecimalLit struct {
	Value float64
	Span  token.Span
}

type StringLit struct {
	Value string
	Span  token.Span
}

type BoolLit struct {
	Value bool
	Span  token.Span
}

type CharLit struct {
	Value byte
	Span  token.Span
}

type NullLit struct {
	Span token.Span
}

type ArrayLit struct {
	Elems []Expr
	Span  token.Span
}

// InterpLit is "a ${b} c": literal pieces are StringLit, the rest are
// arbitrary expressions.
type InterpLit struct {
	Pieces []Expr
	Span   token.Span
}

type Ident struct {
	Name string
	Span token.Span
}

type CallExpr struct {
	Func string
	Args []Expr
	Span token.Span
}

type MethodCallExpr struct {
	Recv Expr
	Name string
	Args []Expr
	Span token.Span
}

type MemberExpr struct {
	X    Expr
	Name string
	Span token.Span
}

type BinaryExpr struct {
	Op    string
	Left  Expr
	Right Expr
	Span  token.Span
}

type PrefixExpr struct {
	Op   string
	X    Expr
	Span token.Span
}

type CastExpr struct {
	X    Expr
	Type TypeRef
	Span token.Span
}

type IndexExpr struct {
	X     Expr
	Index Expr
	Span  token.Span
}

func (n *ClassDecl) Pos() token.Span      { return n.Span }
func (n *VarDecl) Pos() token.Span        { return n.Span }
func (n *FuncDecl) Pos() token.Span       { return n.Span }
func (n *IfStmt) Pos() token.Span         { return n.Span }
func (n *WhileStmt) Pos() token.Span      { return n.Span }
func (n *AssignStmt) Pos() token.Span     { return n.Span }
func (n *ReturnStmt) Pos() token.Span     { return n.Span }
func (n *ExprStmt) Pos() token.Span       { return n.Span }
func (n *IntLit) Pos() token.Span         { return n.Span }
func (n *DecimalLit) Pos() token.Span     { return n.Span }
func (n *StringLit) Pos() token.Span      { return n.Span }
func (n *BoolLit) Pos() token.Span        { return n.Span }
func (n *CharLit) Pos() token.Span        { return n.Span }
func (n *NullLit) Pos() token.Span        { return n.Span }
func (n *ArrayLit) Pos() token.Span       { return n.Span }
func (n *InterpLit) Pos() token.Span      { return n.Span }
func (n *Ident) Pos() token.Span          { return n.Span }
func (n *CallExpr) Pos() token.Span       { return n.Span }
func (n *MethodCallExpr) Pos() token.Span { return n.Span }
func (n *MemberExpr) Pos() token.Span     { return n.Span }
func (n *BinaryExpr) Pos() token.Span     { return n.Span }
func (n *PrefixExpr) Pos() token.Span     { return n.Span }
func (n *CastExpr) Pos() token.Span       { return n.Span }
func (n *IndexExpr) Pos() token.Span      { return n.Span }

func (*ClassDecl) stmtNode()  {}
func (*VarDecl) stmtNode()    {}
func (*FuncDecl) stmtNode()   {}
func (*IfStmt) stmtNode()     {}
func (*WhileStmt) stmtNode()  {}
func (*AssignStmt) stmtNode() {}
func (*ReturnStmt) stmtNode() {}
func (*ExprStmt) stmtNode()   {}

func (*IntLit) exprNode()         {}
func (*DecimalLit) exprNode()     {}
func (*StringLit) exprNode()      {}
func (*BoolLit) exprNode()        {}
func (*CharLit) exprNode()        {}
func (*NullLit) exprNode()        {}
func (*ArrayLit) exprNode()       {}
func (*InterpLit) exprNode()      {}
func (*Ident) exprNode()          {}
func (*CallExpr) exprNode()       {}
func (*MethodCallExpr) exprNode() {}
func (*MemberExpr) exprNode()     {}
func (*BinaryExpr) exprNode()     {}
func (*PrefixExpr) exprNode()     {}
func (*CastExpr) exprNode()       {}
func (*IndexExpr) exprNode()      {}
