package ast

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Dump returns a human-readable representation of the AST.
func Dump(node Node) string {
	var sb strings.Builder
	fprintNode(&sb, node, 0)
	return sb.String()
}

// DumpUnit renders every top-level node of a unit.
func DumpUnit(u *Unit) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Unit %s\n", u.Name)
	fprintBlock(&sb, u.Nodes, 1)
	return sb.String()
}

func fprintBlock(w io.Writer, stmts []Stmt, indent int) {
	for _, s := range stmts {
		fprintNode(w, s, indent)
	}
}

func fprintNode(w io.Writer, n Node, indent int) {
	if n == nil {
		return
	}

	ind := strings.Repeat("  ", indent)

	switch n := n.(type) {
	case *ClassDecl:
		base := "Object"
		if n.Base != nil {
			base = n.Base.String()
		}
		finalStr := ""
		if n.Final {
			finalStr = " final"
		}
		fmt.Fprintf(w, "%sClassDecl%s name=%s base=%s\n", ind, finalStr, n.Name, base)
		fprintBlock(w, n.Body, indent+1)

	case *VarDecl:
		fmt.Fprintf(w, "%sVarDecl name=%s type=%s\n", ind, n.Name, n.Type)
		fprintNode(w, n.Value, indent+1)

	case *FuncDecl:
		ret := "Void"
		if n.Return != nil {
			ret = n.Return.String()
		}
		fmt.Fprintf(w, "%sFuncDecl name=%s return=%s\n", ind, n.Name, ret)
		for _, p := range n.Params {
			fmt.Fprintf(w, "%s  Param %s: %s\n", ind, p.Name, p.Type)
		}
		if len(n.Body) > 0 {
			fmt.Fprintf(w, "%s  Body:\n", ind)
			fprintBlock(w, n.Body, indent+2)
		}

	case *IfStmt:
		fmt.Fprintf(w, "%sIfStmt\n", ind)
		fmt.Fprintf(w, "%s  Cond:\n", ind)
		fprintNode(w, n.Cond, indent+2)
		fmt.Fprintf(w, "%s  Then:\n", ind)
		fprintBlock(w, n.Then, indent+2)
		if n.Else != nil {
			fmt.Fprintf(w, "%s  Else:\n", ind)
			fprintBlock(w, n.Else, indent+2)
		}

	case *WhileStmt:
		fmt.Fprintf(w, "%sWhileStmt\n", ind)
		fmt.Fprintf(w, "%s  Cond:\n", ind)
		fprintNode(w, n.Cond, indent+2)
		fmt.Fprintf(w, "%s  Body:\n", ind)
		fprintBlock(w, n.Body, indent+2)

	case *AssignStmt:
		fmt.Fprintf(w, "%sAssign\n", ind)
		fprintNode(w, n.Target, indent+1)
		fprintNode(w, n.Value, indent+1)

	case *ReturnStmt:
		fmt.Fprintf(w, "%sReturnStmt\n", ind)
		if n.Value != nil {
			fprintNode(w, n.Value, indent+1)
		}

	case *ExprStmt:
		fmt.Fprintf(w, "%sExprStmt\n", ind)
		fprintNode(w, n.X, indent+1)

	case *IntLit:
		fmt.Fprintf(w, "%sIntLit %d\n", ind, n.Value)

	case *DecimalLit:
		fmt.Fprintf(w, "%sDecimalLit %s\n", ind, strconv.FormatFloat(n.Value, 'g', -1, 64))

	case *StringLit:
		fmt.Fprintf(w, "%sStringLit %q\n", ind, n.Value)

	case *BoolLit:
		fmt.Fprintf(w, "%sBoolLit %t\n", ind, n.Value)

	case *CharLit:
		fmt.Fprintf(w, "%sCharLit %q\n", ind, rune(n.Value))

	case *NullLit:
		fmt.Fprintf(w, "%sNullLit\n", ind)

	case *ArrayLit:
		fmt.Fprintf(w, "%sArrayLit len=%d\n", ind, len(n.Elems))
		for _, e := range n.Elems {
			fprintNode(w, e, indent+1)
		}

	case *InterpLit:
		fmt.Fprintf(w, "%sInterpLit\n", ind)
		for _, p := range n.Pieces {
			fprintNode(w, p, indent+1)
		}

	case *Ident:
		fmt.Fprintf(w, "%sIdent %s\n", ind, n.Name)

	case *CallExpr:
		fmt.Fprintf(w, "%sCall %s\n", ind, n.Func)
		for _, a := range n.Args {
			fprintNode(w, a, indent+1)
		}

	case *MethodCallExpr:
		fmt.Fprintf(w, "%sMethodCall .%s\n", ind, n.Name)
		fmt.Fprintf(w, "%s  Recv:\n", ind)
		fprintNode(w, n.Recv, indent+2)
		for _, a := range n.Args {
			fprintNode(w, a, indent+1)
		}

	case *MemberExpr:
		fmt.Fprintf(w, "%sMember .%s\n", ind, n.Name)
		fprintNode(w, n.X, indent+1)

	case *BinaryExpr:
		fmt.Fprintf(w, "%sBinary %s\n", ind, n.Op)
		fprintNode(w, n.Left, indent+1)
		fprintNode(w, n.Right, indent+1)

	case *PrefixExpr:
		fmt.Fprintf(w, "%sPrefix %s\n", ind, n.Op)
		fprintNode(w, n.X, indent+1)

	case *CastExpr:
		fmt.Fprintf(w, "%sCast %s\n", ind, n.Type)
		fprintNode(w, n.X, indent+1)

	case *IndexExpr:
		fmt.Fprintf(w, "%sIndex\n", ind)
		fprintNode(w, n.X, indent+1)
		fprintNode(w, n.Index, indent+1)

	default:
		fmt.Fprintf(w, "%s<unknown node %T>\n", ind, n)
	}
}

// Describe gives a short, single-line name for an expression, used in
// diagnostics ("call to f", "literal 3", ...).
func Describe(e Expr) string {
	switch e := e.(type) {
	case *Ident:
		return "identifier " + e.Name
	case *CallExpr:
		return "call to " + e.Func
	case *MethodCallExpr:
		return "call to method " + e.Name
	case *MemberExpr:
		return "property " + e.Name
	case *IndexExpr:
		return "subscript"
	case *CastExpr:
		return "cast to " + e.Type.String()
	case *BinaryExpr:
		return "operator " + e.Op
	case *PrefixExpr:
		return "prefix operator " + e.Op
	case *IntLit, *DecimalLit, *StringLit, *BoolLit, *CharLit, *NullLit, *ArrayLit, *InterpLit:
		return "literal"
	default:
		return fmt.Sprintf("%T", e)
	}
}
