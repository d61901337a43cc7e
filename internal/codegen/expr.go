package codegen

import (
	"fmt"
	"strings"

	"falafel/internal/ir"
	"falafel/internal/types"
)

// expr lowers e to a C++ expression. Statements the expression depends on
// are appended to b first.
func (g *Generator) expr(b *block, e ir.Expr) (string, error) {
	switch e := e.(type) {
	case *ir.IntLit:
		return formatInt(e.Value, e.T), nil
	case *ir.DecimalLit:
		return formatDecimal(e.Value, e.T), nil
	case *ir.StringLit:
		return g.literals.ref(e.Value), nil
	case *ir.CharLit:
		return formatChar(e.Value), nil
	case *ir.BoolLit:
		if e.Value {
			return "true", nil
		}
		return "false", nil
	case *ir.NullLit:
		return cppType(e.T) + "(nullptr)", nil
	case *ir.ArrayLit:
		elems, err := g.exprs(b, e.Elems)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s({ %s })", cppType(e.T), strings.Join(elems, ", ")), nil
	case *ir.Interp:
		return g.interp(b, e)
	case *ir.Ident:
		return local(e.Name), nil
	case *ir.Call:
		args, err := g.exprs(b, e.Args)
		if err != nil {
			return "", err
		}
		if e.Method.IsConstructor {
			t := cppType(e.Method.Owner)
			return fmt.Sprintf("%s(new %s(%s))", t, e.Method.Owner.Name, strings.Join(args, ", ")), nil
		}
		return fmt.Sprintf("%s(%s)", Symbol(e.Method), strings.Join(args, ", ")), nil
	case *ir.MethodCall:
		recv, err := g.receiver(b, e.Recv)
		if err != nil {
			return "", err
		}
		args, err := g.exprs(b, e.Args)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s%s%s(%s)", recv, accessor(e.Recv.Type()), Symbol(e.Method), strings.Join(args, ", ")), nil
	case *ir.OpCall:
		return g.operator(b, e)
	case *ir.Cast:
		return g.cast(b, e)
	case *ir.Index:
		x, err := g.receiver(b, e.X)
		if err != nil {
			return "", err
		}
		i, err := g.expr(b, e.Index)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s%s_indexget(%s)", x, accessor(e.X.Type()), i), nil
	case *ir.Property:
		x, err := g.receiver(b, e.X)
		if err != nil {
			return "", err
		}
		return x + accessor(e.X.Type()) + local(e.Prop.Name), nil
	case nil:
		return "", fmt.Errorf("%w: missing expression", ErrInternal)
	default:
		return "", fmt.Errorf("%w: unexpected expression %T", ErrInternal, e)
	}
}

func (g *Generator) exprs(b *block, es []ir.Expr) ([]string, error) {
	out := make([]string, len(es))
	for i, e := range es {
		s, err := g.expr(b, e)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// receiver lowers the left side of a member access. Operator results are
// parenthesized so the access binds to the whole operation.
func (g *Generator) receiver(b *block, e ir.Expr) (string, error) {
	s, err := g.expr(b, e)
	if err != nil {
		return "", err
	}
	if _, ok := e.(*ir.OpCall); ok {
		s = "(" + s + ")"
	}
	return s, nil
}

// interp folds all-literal interpolations into one pooled literal and builds
// the rest piece by piece.
func (g *Generator) interp(b *block, e *ir.Interp) (string, error) {
	var folded strings.Builder
	constant := true
	for _, p := range e.Pieces {
		lit, ok := p.(*ir.StringLit)
		if !ok {
			constant = false
			break
		}
		folded.WriteString(lit.Value)
	}
	if constant {
		return g.literals.ref(folded.String()), nil
	}

	sb := fmt.Sprintf("sb%d", g.builders)
	g.builders++
	fmt.Fprintf(b, "StringBuilder %s(%dU);", sb, len(e.Pieces))
	for _, p := range e.Pieces {
		s, err := g.expr(b, p)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(b, "%s.add_piece(%s);", sb, s)
	}
	return sb + ".build()", nil
}

func (g *Generator) operator(b *block, e *ir.OpCall) (string, error) {
	op := e.Op
	if !op.Native {
		var operands []ir.Expr
		if e.Lhs != nil {
			operands = append(operands, e.Lhs)
		}
		operands = append(operands, e.Rhs)
		args, err := g.exprs(b, operands)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s(%s)", op.Token, strings.Join(args, ", ")), nil
	}

	var lhs string
	if e.Lhs != nil {
		l, err := g.expr(b, e.Lhs)
		if err != nil {
			return "", err
		}
		lhs = "(" + l + ") "
	}

	var rhs string
	switch {
	case op.WrapRHS:
		var setup block
		r, err := g.expr(&setup, e.Rhs)
		if err != nil {
			return "", err
		}
		rhs = fmt.Sprintf("([&] { %sreturn %s; })", setup.String(), r)
	case op.ShortCircuit:
		// The right operand's setup must only run when it is evaluated.
		var setup block
		r, err := g.expr(&setup, e.Rhs)
		if err != nil {
			return "", err
		}
		if setup.Len() == 0 {
			rhs = " (" + r + ")"
		} else {
			rhs = fmt.Sprintf(" ([&] { %sreturn %s; }())", setup.String(), r)
		}
	default:
		r, err := g.expr(b, e.Rhs)
		if err != nil {
			return "", err
		}
		rhs = " (" + r + ")"
	}
	return lhs + op.Token + rhs, nil
}

// cast uses RcPointer's checked constructor for downcasts and static_cast
// for everything else, upcasts included.
func (g *Generator) cast(b *block, e *ir.Cast) (string, error) {
	x, err := g.expr(b, e.X)
	if err != nil {
		return "", err
	}
	t := cppType(e.T)
	if types.IsStrictSuperclassOf(e.X.Type(), e.T) {
		return fmt.Sprintf("%s{ %s }", t, x), nil
	}
	return fmt.Sprintf("static_cast<%s >(%s)", t, x), nil
}
