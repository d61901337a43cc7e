package checker

import (
	"falafel/internal/ast"
	"falafel/internal/ir"
	"falafel/internal/types"
)

// checkBlock checks a statement sequence in three passes: class definitions,
// function signatures, then statements in order. Classes therefore may refer
// to each other regardless of order, and functions may recurse mutually.
func (c *Checker) checkBlock(nodes []ast.Stmt) ([]ir.Stmt, error) {
	var classes []*ast.ClassDecl
	var funcs []*ast.FuncDecl
	for _, n := range nodes {
		switch n := n.(type) {
		case *ast.ClassDecl:
			if err := c.classAllowed(n); err != nil {
				return nil, err
			}
			classes = append(classes, n)
		case *ast.FuncDecl:
			if c.kind != blockTop {
				return nil, c.errorf(n, "function %s: functions may only be declared at the top level or in a class body", n.Name)
			}
			funcs = append(funcs, n)
		}
	}

	var out []ir.Stmt

	defs, err := c.declareClasses(classes)
	if err != nil {
		return nil, err
	}

	sigs := make(map[*ast.FuncDecl]*types.Method, len(funcs))
	for _, fd := range funcs {
		m, err := c.declareFunc(fd, types.Void)
		if err != nil {
			return nil, err
		}
		if err := c.addFunction(fd, m); err != nil {
			return nil, err
		}
		sigs[fd] = m
	}

	for _, def := range defs {
		cls, err := c.checkClassBody(def)
		if err != nil {
			return nil, err
		}
		out = append(out, cls)
	}

	for _, n := range nodes {
		var s ir.Stmt
		var err error
		switch n := n.(type) {
		case *ast.ClassDecl:
			continue
		case *ast.FuncDecl:
			s, err = c.checkFuncBody(n, sigs[n], nil)
		default:
			s, err = c.checkStmt(n)
		}
		if err != nil {
			return nil, c.atLine(n, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func (c *Checker) classAllowed(n *ast.ClassDecl) error {
	switch {
	case c.kind == blockBranch:
		return c.errorf(n, "conditional class definitions are forbidden")
	case c.kind == blockFunc:
		return c.errorf(n, "class %s: classes may only be declared at the top level", n.Name)
	}
	return nil
}

func (c *Checker) checkStmt(n ast.Stmt) (ir.Stmt, error) {
	switch n := n.(type) {
	case *ast.VarDecl:
		return c.checkVarDecl(n)
	case *ast.AssignStmt:
		return c.checkAssign(n)
	case *ast.IfStmt:
		return c.checkIf(n)
	case *ast.WhileStmt:
		return c.checkWhile(n)
	case *ast.ReturnStmt:
		return c.checkReturn(n)
	case *ast.ExprStmt:
		x, err := c.checkExpr(n.X, nil)
		if err != nil {
			return nil, err
		}
		return &ir.ExprStmt{X: x}, nil
	default:
		return nil, c.errorf(n, "unrecognized statement %T", n)
	}
}

func (c *Checker) checkVarDecl(n *ast.VarDecl) (*ir.VarDecl, error) {
	if c.declaredLocally(n.Name) {
		return nil, c.errorf(n, "duplicate declaration of variable %s", n.Name)
	}
	t, err := c.lookupType(n.Type)
	if err != nil {
		return nil, err
	}
	if types.Equal(t, types.Void) {
		return nil, c.errorf(n, "variable %s cannot have type Void", n.Name)
	}
	value, err := c.checkExpr(n.Value, t)
	if err != nil {
		return nil, err
	}
	c.Declare(n.Name, t)
	return &ir.VarDecl{Name: n.Name, Type: t, Value: value}, nil
}

func (c *Checker) checkAssign(n *ast.AssignStmt) (*ir.Assign, error) {
	target, err := c.checkExpr(n.Target, nil)
	if err != nil {
		return nil, err
	}
	switch t := target.(type) {
	case *ir.Ident, *ir.Property:
	case *ir.Index:
		sub := t.X.Type().Subscript
		if sub == nil || !sub.Settable {
			return nil, c.errorf(n, "subscript on %s is not settable", t.X.Type())
		}
	case *ir.MethodCall, *ir.Call:
		return nil, c.errorf(n, "cannot assign to the result of a call")
	case *ir.Cast:
		return nil, c.errorf(n, "cannot assign to the result of a cast")
	default:
		return nil, c.errorf(n, "cannot assign to %s", ast.Describe(n.Target))
	}
	value, err := c.checkExpr(n.Value, target.Type())
	if err != nil {
		return nil, err
	}
	return &ir.Assign{Target: target, Value: value}, nil
}

func (c *Checker) checkIf(n *ast.IfStmt) (*ir.If, error) {
	if len(n.Then) == 0 {
		c.warnf(n, "empty if statement")
	}
	if n.Else != nil && len(n.Else) == 0 {
		c.warnf(n, "extraneous else block")
	}

	cond, err := c.checkExpr(n.Cond, types.Bool)
	if err != nil {
		return nil, err
	}
	then, err := c.child(blockBranch).checkBlock(n.Then)
	if err != nil {
		return nil, err
	}
	var els []ir.Stmt
	if n.Else != nil {
		els, err = c.child(blockBranch).checkBlock(n.Else)
		if err != nil {
			return nil, err
		}
		if els == nil {
			els = []ir.Stmt{}
		}
	}
	return &ir.If{Cond: cond, Then: then, Else: els}, nil
}

func (c *Checker) checkWhile(n *ast.WhileStmt) (*ir.While, error) {
	if len(n.Body) == 0 {
		c.warnf(n, "empty loop")
	}
	cond, err := c.checkExpr(n.Cond, types.Bool)
	if err != nil {
		return nil, err
	}
	body, err := c.child(blockBranch).checkBlock(n.Body)
	if err != nil {
		return nil, err
	}
	return &ir.While{Cond: cond, Body: body}, nil
}

func (c *Checker) checkReturn(n *ast.ReturnStmt) (*ir.Return, error) {
	if c.returnType == nil {
		return nil, c.errorf(n, "return outside of a function")
	}
	if n.Value == nil {
		if !types.Equal(c.returnType, types.Void) {
			return nil, c.errorf(n, "missing return value; expected %s", c.returnType)
		}
		return &ir.Return{}, nil
	}
	if types.Equal(c.returnType, types.Void) {
		return nil, c.errorf(n, "a Void function cannot return a value")
	}
	value, err := c.checkExpr(n.Value, c.returnType)
	if err != nil {
		return nil, err
	}
	return &ir.Return{Value: value}, nil
}

// declareFunc resolves a function signature. owner is Void for free
// functions.
func (c *Checker) declareFunc(fd *ast.FuncDecl, owner *types.Type) (*types.Method, error) {
	seen := make(map[string]bool, len(fd.Params))
	args := make([]*types.Type, len(fd.Params))
	for i, p := range fd.Params {
		if seen[p.Name] {
			return nil, c.errorf(fd, "duplicate argument name %s in %s", p.Name, fd.Name)
		}
		seen[p.Name] = true
		t, err := c.lookupType(p.Type)
		if err != nil {
			return nil, err
		}
		if types.Equal(t, types.Void) {
			return nil, c.errorf(fd, "argument %s of %s cannot have type Void", p.Name, fd.Name)
		}
		args[i] = t
	}

	ret := types.Void
	if fd.Return != nil {
		t, err := c.lookupType(*fd.Return)
		if err != nil {
			return nil, err
		}
		ret = t
	}

	m, err := types.NewMethod(owner, fd.Name, args, ret)
	if err != nil {
		return nil, c.wrapf(fd, err, "%v", err)
	}
	return m, nil
}

func (c *Checker) addFunction(fd *ast.FuncDecl, m *types.Method) error {
	if err := c.checkNameFree(fd); err != nil {
		return err
	}
	for _, f := range c.functions[c.funcsMark:] {
		if f.Name == m.Name && sameArgs(f.Args, m.Args) {
			return c.errorf(fd, "duplicate declaration of %s", m)
		}
	}
	c.functions = append(c.functions, m)
	return nil
}

// checkNameFree rejects a function or method named after a visible type.
// A call by that name would otherwise always construct the type.
func (c *Checker) checkNameFree(fd *ast.FuncDecl) error {
	for _, t := range c.types {
		if t.Name == fd.Name {
			return c.errorf(fd, "function %s has the same name as type %s", fd.Name, t.Name)
		}
	}
	return nil
}

func (c *Checker) checkFuncBody(fd *ast.FuncDecl, m *types.Method, owner *types.Type) (*ir.Func, error) {
	fc := c.funcScope(m.Return, owner)
	params := make([]ir.Param, len(fd.Params))
	for i, p := range fd.Params {
		fc.Declare(p.Name, m.Args[i])
		params[i] = ir.Param{Name: p.Name, Type: m.Args[i]}
	}

	body, err := fc.checkBlock(fd.Body)
	if err != nil {
		return nil, err
	}
	if !types.Equal(m.Return, types.Void) && !ir.Returns(body) {
		return nil, c.errorf(fd, "function %s must return %s on every path", fd.Name, m.Return)
	}
	return &ir.Func{Method: m, Params: params, Body: body}, nil
}

func sameArgs(a, b []*types.Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !types.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}
