package codegen

import (
	"fmt"

	"falafel/internal/ir"
)

func (g *Generator) block(b *block, stmts []ir.Stmt) error {
	for _, s := range stmts {
		if err := g.stmt(b, s); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) stmt(b *block, s ir.Stmt) error {
	switch s := s.(type) {
	case *ir.Class:
		return g.class(s)
	case *ir.Func:
		return g.function(s)
	case *ir.VarDecl:
		if s.Value == nil {
			fmt.Fprintf(b, "%s %s;", cppType(s.Type), local(s.Name))
			return nil
		}
		v, err := g.expr(b, s.Value)
		if err != nil {
			return err
		}
		fmt.Fprintf(b, "%s %s = %s;", cppType(s.Type), local(s.Name), v)
	case *ir.Assign:
		return g.assign(b, s)
	case *ir.If:
		return g.ifStmt(b, s)
	case *ir.While:
		return g.while(b, s)
	case *ir.Return:
		if s.Value == nil {
			b.WriteString("return;")
			return nil
		}
		v, err := g.expr(b, s.Value)
		if err != nil {
			return err
		}
		fmt.Fprintf(b, "return %s;", v)
	case *ir.ExprStmt:
		v, err := g.expr(b, s.X)
		if err != nil {
			return err
		}
		fmt.Fprintf(b, "%s;", v)
	default:
		return fmt.Errorf("%w: unexpected statement %T", ErrInternal, s)
	}
	return nil
}

func (g *Generator) assign(b *block, s *ir.Assign) error {
	switch t := s.Target.(type) {
	case *ir.Index:
		x, err := g.receiver(b, t.X)
		if err != nil {
			return err
		}
		i, err := g.expr(b, t.Index)
		if err != nil {
			return err
		}
		v, err := g.expr(b, s.Value)
		if err != nil {
			return err
		}
		fmt.Fprintf(b, "%s%s_indexset(%s, %s);", x, accessor(t.X.Type()), i, v)
	case *ir.Ident, *ir.Property:
		lhs, err := g.expr(b, t)
		if err != nil {
			return err
		}
		v, err := g.expr(b, s.Value)
		if err != nil {
			return err
		}
		fmt.Fprintf(b, "%s = %s;", lhs, v)
	default:
		return fmt.Errorf("%w: cannot assign to %T", ErrInternal, t)
	}
	return nil
}

func (g *Generator) ifStmt(b *block, s *ir.If) error {
	cond, err := g.expr(b, s.Cond)
	if err != nil {
		return err
	}
	var then block
	if err := g.block(&then, s.Then); err != nil {
		return err
	}
	fmt.Fprintf(b, "if (%s) {%s}", cond, then.String())
	if len(s.Else) == 0 {
		return nil
	}
	var els block
	if err := g.block(&els, s.Else); err != nil {
		return err
	}
	fmt.Fprintf(b, " else {%s}", els.String())
	return nil
}

// while re-evaluates the condition every iteration. A condition that needs
// setup statements is moved inside the loop so they run each time.
func (g *Generator) while(b *block, s *ir.While) error {
	var setup block
	cond, err := g.expr(&setup, s.Cond)
	if err != nil {
		return err
	}
	var body block
	if err := g.block(&body, s.Body); err != nil {
		return err
	}
	if setup.Len() == 0 {
		fmt.Fprintf(b, "while (%s) {%s}", cond, body.String())
		return nil
	}
	fmt.Fprintf(b, "while (true) {%sif (!(%s)) break;%s}", setup.String(), cond, body.String())
	return nil
}

// function emits a prototype before the entry point and the body after it,
// so every call site can reach every function regardless of order.
func (g *Generator) function(f *ir.Func) error {
	var body block
	if err := g.block(&body, f.Body); err != nil {
		return err
	}
	sig := signature(f, "")
	fmt.Fprintf(&g.protos, "%s;", sig)
	fmt.Fprintf(&g.bodies, "%s{ %s }", sig, body.String())
	return nil
}

// class emits the definition before the entry point. Property initializers
// go into a constructor defined after it, where every class is complete and
// every function has a prototype.
func (g *Generator) class(c *ir.Class) error {
	t := c.Type
	base := "Object"
	if t.Base != nil {
		base = t.Base.Name
	}
	fmt.Fprintf(&g.forward, "class %s;", t.Name)

	var def, ctor block
	fmt.Fprintf(&def, "class %s : public %s {public: ", t.Name, base)
	for _, p := range c.Properties {
		fmt.Fprintf(&def, "%s %s;", cppType(p.Type), local(p.Name))
		if p.Value == nil {
			continue
		}
		v, err := g.expr(&ctor, p.Value)
		if err != nil {
			return err
		}
		fmt.Fprintf(&ctor, "%s = %s;", local(p.Name), v)
	}
	if ctor.Len() > 0 {
		fmt.Fprintf(&def, "%s();", t.Name)
		fmt.Fprintf(&g.bodies, "%s::%s(){ %s }", t.Name, t.Name, ctor.String())
	}
	for _, m := range c.Methods {
		var body block
		if err := g.block(&body, m.Body); err != nil {
			return err
		}
		fmt.Fprintf(&def, "virtual %s;", signature(m, ""))
		fmt.Fprintf(&g.bodies, "%s{ %s }", signature(m, t.Name+"::"), body.String())
	}
	def.WriteString("};")
	g.classes.WriteString(def.String())
	return nil
}
