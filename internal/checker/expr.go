package checker

import (
	"math"

	"falafel/internal/ast"
	"falafel/internal/ir"
	"falafel/internal/types"
)

func (c *Checker) checkExpr(e ast.Expr, expected *types.Type) (ir.Expr, error) {
	x, err := c.checkNode(e, expected)
	if err != nil {
		return nil, err
	}
	return upcast(x, expected), nil
}

// upcast wraps x in a Cast when it is accepted as expected only through its
// base chain, possibly inside an Optional. RcPointer's converting
// constructor is explicit, so C++ never performs the conversion on its own.
func upcast(x ir.Expr, expected *types.Type) ir.Expr {
	if expected == nil {
		return x
	}
	target := expected
	if !target.IsObject {
		target = unwrapOptional(expected)
	}
	if !target.IsObject || !types.IsStrictSuperclassOf(target, x.Type()) {
		return x
	}
	return &ir.Cast{X: x, T: target}
}

func (c *Checker) checkNode(e ast.Expr, expected *types.Type) (ir.Expr, error) {
	switch e := e.(type) {
	case *ast.IntLit:
		return c.checkIntLit(e, expected)
	case *ast.DecimalLit:
		return c.checkDecimalLit(e, expected)
	case *ast.StringLit:
		if expected != nil && !types.AcceptsImplicitly(expected, types.String) {
			return nil, c.errorf(e, "only String instances can be represented by string literals, not %s", expected)
		}
		return &ir.StringLit{Value: e.Value}, nil
	case *ast.InterpLit:
		return c.checkInterp(e, expected)
	case *ast.BoolLit:
		if expected != nil && !types.AcceptsImplicitly(expected, types.Bool) {
			return nil, c.errorf(e, "only Bool instances can be represented by boolean literals, not %s", expected)
		}
		return &ir.BoolLit{Value: e.Value}, nil
	case *ast.CharLit:
		if expected != nil && !types.AcceptsImplicitly(expected, types.Char) {
			return nil, c.errorf(e, "only Char instances can be represented by char literals, not %s", expected)
		}
		return &ir.CharLit{Value: e.Value}, nil
	case *ast.NullLit:
		return c.checkNull(e, expected)
	case *ast.ArrayLit:
		return c.checkArrayLit(e, expected)
	case *ast.Ident:
		return c.checkIdent(e, expected)
	case *ast.CallExpr:
		return c.checkCall(e, expected)
	case *ast.MethodCallExpr:
		return c.checkMethodCall(e, expected)
	case *ast.MemberExpr:
		return c.checkMember(e, expected)
	case *ast.BinaryExpr:
		return c.checkOperator(e, e.Op, types.Infix, e.Left, e.Right, expected)
	case *ast.PrefixExpr:
		return c.checkOperator(e, e.Op, types.Prefix, nil, e.X, expected)
	case *ast.CastExpr:
		return c.checkCast(e, expected)
	case *ast.IndexExpr:
		return c.checkIndex(e, expected)
	case nil:
		return nil, &TypeCheckError{Msg: "missing expression"}
	default:
		return nil, c.errorf(e, "unrecognized expression %T", e)
	}
}

// unwrapOptional returns T for Optional<T>, otherwise t itself.
func unwrapOptional(t *types.Type) *types.Type {
	if types.InstanceOf(t, types.Optional) && len(t.Generics) == 1 {
		return t.Generics[0]
	}
	return t
}

func (c *Checker) checkIntLit(e *ast.IntLit, expected *types.Type) (ir.Expr, error) {
	target := unwrapOptional(expected)
	switch {
	case target == nil:
		return &ir.IntLit{Value: e.Value, T: types.Int}, nil
	case types.IsNumeric(target):
		return &ir.IntLit{Value: e.Value, T: target}, nil
	case types.AcceptsImplicitly(expected, types.Int):
		return &ir.IntLit{Value: e.Value, T: types.Int}, nil
	}
	return nil, c.errorf(e, "%s cannot be expressed by an integer literal", expected)
}

func (c *Checker) checkDecimalLit(e *ast.DecimalLit, expected *types.Type) (ir.Expr, error) {
	target := unwrapOptional(expected)
	switch {
	case target == nil || types.Equal(target, types.Double):
		return &ir.DecimalLit{Value: e.Value, T: types.Double}, nil
	case types.Equal(target, types.Float):
		if !math.IsInf(e.Value, 0) && !math.IsNaN(e.Value) && math.Abs(e.Value) > math.MaxFloat32 {
			return nil, c.errorf(e, "decimal literal is too large to store as Float")
		}
		return &ir.DecimalLit{Value: e.Value, T: types.Float}, nil
	case types.AcceptsImplicitly(expected, types.Double):
		return &ir.DecimalLit{Value: e.Value, T: types.Double}, nil
	}
	return nil, c.errorf(e, "%s cannot be expressed by a decimal literal", expected)
}

func (c *Checker) checkInterp(e *ast.InterpLit, expected *types.Type) (ir.Expr, error) {
	if expected != nil && !types.AcceptsImplicitly(expected, types.String) {
		return nil, c.errorf(e, "only String instances can be represented by string interpolations, not %s", expected)
	}
	pieces := make([]ir.Expr, len(e.Pieces))
	for i, p := range e.Pieces {
		x, err := c.checkExpr(p, nil)
		if err != nil {
			return nil, err
		}
		if !stringifiable(x.Type()) {
			return nil, c.errorf(p, "cannot interpolate a value of type %s", x.Type())
		}
		pieces[i] = x
	}
	return &ir.Interp{Pieces: pieces}, nil
}

// stringifiable mirrors the piece types a StringBuilder accepts.
func stringifiable(t *types.Type) bool {
	switch {
	case types.AcceptsImplicitly(types.String, t):
		return true
	case types.IsPrimitive(t):
		return !types.Equal(t, types.Void)
	case types.InstanceOf(t, types.Array), types.InstanceOf(t, types.Optional):
		return len(t.Generics) == 1 && stringifiable(t.Generics[0])
	}
	return false
}

func (c *Checker) checkNull(e *ast.NullLit, expected *types.Type) (ir.Expr, error) {
	if expected == nil {
		return nil, c.errorf(e, "null needs an explicit Optional type")
	}
	if !types.InstanceOf(expected, types.Optional) || types.ContainsPlaceholder(expected) {
		return nil, c.errorf(e, "%s cannot be null", expected)
	}
	return &ir.NullLit{T: expected}, nil
}

func (c *Checker) checkArrayLit(e *ast.ArrayLit, expected *types.Type) (ir.Expr, error) {
	if expected == nil {
		return nil, c.errorf(e, "array literals must have an explicit type")
	}
	arr := expected
	if !types.InstanceOf(arr, types.Array) {
		arr = unwrapOptional(expected)
	}
	if !types.InstanceOf(arr, types.Array) || types.ContainsPlaceholder(arr) {
		return nil, c.errorf(e, "only arrays can be represented by array literals, not %s", expected)
	}
	elems := make([]ir.Expr, len(e.Elems))
	for i, el := range e.Elems {
		x, err := c.checkExpr(el, arr.Generics[0])
		if err != nil {
			return nil, err
		}
		elems[i] = x
	}
	return &ir.ArrayLit{T: arr, Elems: elems}, nil
}

func (c *Checker) checkIdent(e *ast.Ident, expected *types.Type) (ir.Expr, error) {
	v := c.lookupVariable(e.Name)
	if v == nil {
		return nil, c.errorf(e, "unrecognized identifier %s", e.Name)
	}
	if expected != nil && !types.AcceptsImplicitly(expected, v.Type) {
		return nil, c.errorf(e, "type mismatch: %s is %s; expected %s", v.Name, v.Type, expected)
	}
	return &ir.Ident{Name: v.Name, T: v.Type}, nil
}

// lookupClass finds a constructible type by name.
func (c *Checker) lookupClass(name string) *types.Type {
	for i := len(c.types) - 1; i >= 0; i-- {
		if t := c.types[i]; t.Name == name {
			if t.IsObject && len(t.Generics) == 0 {
				return t
			}
			return nil
		}
	}
	return nil
}

func (c *Checker) checkCall(e *ast.CallExpr, expected *types.Type) (ir.Expr, error) {
	var cands []*types.Method
	if cls := c.lookupClass(e.Func); cls != nil {
		cands = types.Constructors(cls)
		if len(cands) == 0 {
			return nil, c.errorf(e, "%s cannot be constructed", cls)
		}
	} else {
		for _, f := range c.functions {
			if f.Name == e.Func {
				cands = append(cands, f)
			}
		}
		if c.owner != nil {
			cands = append(cands, types.LookupMethods(c.owner, e.Func)...)
		}
	}
	if len(cands) == 0 {
		return nil, c.errorf(e, "no known functions match name %s", e.Func)
	}

	cands, err := c.filterCandidates(e, e.Func, cands, len(e.Args), expected)
	if err != nil {
		return nil, err
	}
	return resolve(c, e, "call to "+e.Func, cands, func(m *types.Method) (ir.Expr, error) {
		args, err := c.checkArgs(e.Args, m.Args)
		if err != nil {
			return nil, err
		}
		return &ir.Call{Method: m, Args: args}, nil
	})
}

func (c *Checker) checkMethodCall(e *ast.MethodCallExpr, expected *types.Type) (ir.Expr, error) {
	recv, err := c.checkExpr(e.Recv, nil)
	if err != nil {
		return nil, err
	}
	rt := recv.Type()
	cands := types.LookupMethods(rt, e.Name)
	if len(cands) == 0 {
		return nil, c.errorf(e, "type %s has no method %s", rt, e.Name)
	}

	name := rt.String() + "." + e.Name
	cands, err = c.filterCandidates(e, name, cands, len(e.Args), expected)
	if err != nil {
		return nil, err
	}
	return resolve(c, e, "call to "+name, cands, func(m *types.Method) (ir.Expr, error) {
		args, err := c.checkArgs(e.Args, m.Args)
		if err != nil {
			return nil, err
		}
		return &ir.MethodCall{Recv: recv, Method: m, Args: args}, nil
	})
}

// filterCandidates applies the expected-return and arity stages. Each stage
// that leaves nothing reports why.
func (c *Checker) filterCandidates(n ast.Node, name string, cands []*types.Method, argc int, expected *types.Type) ([]*types.Method, error) {
	if expected != nil {
		var kept []*types.Method
		for _, m := range cands {
			if types.AcceptsImplicitly(expected, m.Return) {
				kept = append(kept, m)
			}
		}
		if len(kept) == 0 {
			return nil, c.errorf(n, "no overloads of %s return %s", name, expected)
		}
		cands = kept
	}

	var kept []*types.Method
	for _, m := range cands {
		if len(m.Args) == argc {
			kept = append(kept, m)
		}
	}
	if len(kept) == 0 {
		return nil, c.errorf(n, "no overloads of %s take %d arguments", name, argc)
	}
	return kept, nil
}

func (c *Checker) checkArgs(args []ast.Expr, want []*types.Type) ([]ir.Expr, error) {
	out := make([]ir.Expr, len(args))
	for i, a := range args {
		x, err := c.checkExpr(a, want[i])
		if err != nil {
			return nil, err
		}
		out[i] = x
	}
	return out, nil
}

func (c *Checker) checkMember(e *ast.MemberExpr, expected *types.Type) (ir.Expr, error) {
	recv, err := c.checkExpr(e.X, nil)
	if err != nil {
		return nil, err
	}
	rt := recv.Type()
	if p := types.LookupProperty(rt, e.Name); p != nil {
		if expected != nil && !types.AcceptsImplicitly(expected, p.Type) {
			return nil, c.errorf(e, "type mismatch: %s.%s is %s; expected %s", rt, p.Name, p.Type, expected)
		}
		return &ir.Property{X: recv, Prop: p}, nil
	}
	if len(types.LookupMethods(rt, e.Name)) > 0 {
		return nil, c.errorf(e, "%s.%s is a method and must be called", rt, e.Name)
	}
	return nil, c.errorf(e, "type %s has no property %s", rt, e.Name)
}

func (c *Checker) checkOperator(n ast.Expr, name string, fixity types.Fixity, lhs, rhs ast.Expr, expected *types.Type) (ir.Expr, error) {
	ops := types.LookupOperators(name, fixity)
	if len(ops) == 0 {
		return nil, c.errorf(n, "unknown %s operator %s", fixity, name)
	}
	if expected != nil {
		var kept []*types.Operator
		for _, op := range ops {
			if types.ContainsPlaceholder(op.Return) || types.AcceptsImplicitly(expected, op.Return) {
				kept = append(kept, op)
			}
		}
		if len(kept) == 0 {
			return nil, c.errorf(n, "operator %s cannot produce %s", name, expected)
		}
		ops = kept
	}

	return resolve(c, n, "operator "+name, ops, func(op *types.Operator) (ir.Expr, error) {
		if op.IsGeneric() {
			return c.checkGenericOperator(n, op, lhs, rhs, expected)
		}
		var l ir.Expr
		if lhs != nil {
			var err error
			if l, err = c.checkExpr(lhs, op.Lhs); err != nil {
				return nil, err
			}
		}
		r, err := c.checkExpr(rhs, op.Rhs)
		if err != nil {
			return nil, err
		}
		return &ir.OpCall{Op: op, Lhs: l, Rhs: r}, nil
	})
}

// checkGenericOperator infers an operator's generic parameters from its
// operands, left to right. An operand whose expected type is already fully
// bound is checked against it; otherwise it is checked on its own and the
// bindings it implies are recorded. Disagreeing bindings are an error.
func (c *Checker) checkGenericOperator(n ast.Expr, op *types.Operator, lhs, rhs ast.Expr, expected *types.Type) (ir.Expr, error) {
	bindings := make(map[*types.Type]*types.Type, len(op.Generics))
	operand := func(x ast.Expr, pattern *types.Type) (ir.Expr, error) {
		if want := types.Substitute(pattern, bindings); !types.ContainsPlaceholder(want) {
			return c.checkExpr(x, want)
		}
		got, err := c.checkExpr(x, nil)
		if err != nil {
			return nil, err
		}
		if err := types.Bind(pattern, got.Type(), bindings); err != nil {
			return nil, c.wrapf(x, err, "operator %s: %v", op.Name, err)
		}
		return got, nil
	}

	var l ir.Expr
	if lhs != nil {
		var err error
		if l, err = operand(lhs, op.Lhs); err != nil {
			return nil, err
		}
	}
	r, err := operand(rhs, op.Rhs)
	if err != nil {
		return nil, err
	}

	inst := op.Instantiate(bindings)
	if types.ContainsPlaceholder(inst.Return) {
		return nil, c.errorf(n, "cannot infer the result type of operator %s", op.Name)
	}
	if expected != nil && !types.AcceptsImplicitly(expected, inst.Return) {
		return nil, c.errorf(n, "operator %s produces %s; expected %s", op.Name, inst.Return, expected)
	}
	return &ir.OpCall{Op: inst, Lhs: l, Rhs: r}, nil
}

func (c *Checker) checkCast(e *ast.CastExpr, expected *types.Type) (ir.Expr, error) {
	target, err := c.lookupType(e.Type)
	if err != nil {
		return nil, err
	}
	if expected != nil && !types.Equal(expected, target) {
		return nil, c.errorf(e, "cast type %s does not match expected type %s", target, expected)
	}

	if x, err := c.checkExpr(e.X, target); err == nil {
		if types.Equal(x.Type(), target) {
			return x, nil
		}
		return &ir.Cast{X: x, T: target}, nil
	}

	x, err := c.checkExpr(e.X, nil)
	if err != nil {
		return nil, err
	}
	if !types.Castable(target, x.Type()) {
		return nil, c.errorf(e, "%s is not castable to %s", x.Type(), target)
	}
	return &ir.Cast{X: x, T: target}, nil
}

func (c *Checker) checkIndex(e *ast.IndexExpr, expected *types.Type) (ir.Expr, error) {
	base, err := c.checkExpr(e.X, nil)
	if err != nil {
		return nil, err
	}
	sub := base.Type().Subscript
	if sub == nil {
		return nil, c.errorf(e, "type %s has no subscript", base.Type())
	}
	if expected != nil && !types.AcceptsImplicitly(expected, sub.Return) {
		return nil, c.errorf(e, "subscript on %s returns %s, not %s", base.Type(), sub.Return, expected)
	}
	index, err := c.checkExpr(e.Index, sub.Index)
	if err != nil {
		return nil, err
	}
	return &ir.Index{X: base, Index: index, T: sub.Return}, nil
}
