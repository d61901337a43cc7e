package checker

import (
	"errors"
	"strings"

	"falafel/internal/ast"
	"falafel/internal/digraph"
	"falafel/internal/ir"
	"falafel/internal/types"
)

type classDef struct {
	decl    *ast.ClassDecl
	typ     *types.Type
	props   []*ast.VarDecl
	methods []*ast.FuncDecl
	sigs    map[*ast.FuncDecl]*types.Method
}

// declareClasses registers every class of a block and returns them ordered
// so that each base class precedes the classes deriving from it.
func (c *Checker) declareClasses(decls []*ast.ClassDecl) ([]*classDef, error) {
	if len(decls) == 0 {
		return nil, nil
	}

	byName := make(map[string]*classDef, len(decls))
	g := digraph.New[string]()
	for _, d := range decls {
		if c.typeDeclaredLocally(d.Name) {
			return nil, c.errorf(d, "duplicate declaration of type %s", d.Name)
		}
		t := types.NewClass(d.Name, types.Object, !d.Final)
		c.types = append(c.types, t)
		byName[d.Name] = &classDef{decl: d, typ: t}
		if d.Base != nil {
			g.Add(d.Name, d.Base.Name)
		} else {
			g.Add(d.Name)
		}
	}

	order, err := g.TopologicalSort()
	if err != nil {
		var cycle *digraph.CycleError[string]
		if errors.As(err, &cycle) {
			first := byName[cycle.Members[0]]
			return nil, c.wrapf(first.decl, err, "circular class hierarchy: %s", strings.Join(cycle.Members, " -> "))
		}
		return nil, err
	}

	var defs []*classDef
	for _, name := range order {
		def, ok := byName[name]
		if !ok {
			continue
		}
		if d := def.decl; d.Base != nil {
			base, err := c.lookupType(*d.Base)
			if err != nil {
				return nil, err
			}
			if !base.IsInheritable {
				return nil, c.errorf(d, "%s is not inheritable", base)
			}
			def.typ.Base = base
		}
		defs = append(defs, def)
	}

	for _, def := range defs {
		if err := c.declareMembers(def); err != nil {
			return nil, err
		}
	}
	return defs, nil
}

func (c *Checker) declareMembers(def *classDef) error {
	t := def.typ
	def.sigs = make(map[*ast.FuncDecl]*types.Method)

	for _, n := range def.decl.Body {
		switch n := n.(type) {
		case *ast.VarDecl:
			pt, err := c.lookupType(n.Type)
			if err != nil {
				return err
			}
			if types.Equal(pt, types.Void) {
				return c.errorf(n, "property %s cannot have type Void", n.Name)
			}
			if types.LookupProperty(t.Base, n.Name) != nil {
				return c.errorf(n, "property %s of %s hides an inherited property", n.Name, t)
			}
			if err := t.AddProperty(&types.Property{Name: n.Name, Type: pt}); err != nil {
				return c.errorf(n, "%v", err)
			}
			def.props = append(def.props, n)

		case *ast.FuncDecl:
			if err := c.checkNameFree(n); err != nil {
				return err
			}
			m, err := c.declareFunc(n, t)
			if err != nil {
				return err
			}
			for _, inherited := range types.LookupMethods(t.Base, n.Name) {
				if sameArgs(inherited.Args, m.Args) && !types.Equal(inherited.Return, m.Return) {
					return c.errorf(n, "%s overrides %s with a different return type", m, inherited)
				}
			}
			if err := t.AddMethod(m); err != nil {
				return c.errorf(n, "%v", err)
			}
			def.methods = append(def.methods, n)
			def.sigs[n] = m

		case *ast.ClassDecl:
			return c.errorf(n, "class %s: classes may only be declared at the top level", n.Name)

		default:
			return c.errorf(n, "only properties and methods may be declared in class %s", t.Name)
		}
	}

	ctor, err := types.NewMethod(t, types.ConstructorName, nil, t)
	if err != nil {
		return c.errorf(def.decl, "%v", err)
	}
	ctor.IsConstructor = true
	return t.AddMethod(ctor)
}

// checkClassBody checks property initializers and method bodies. It runs
// after every signature in the enclosing block is known.
func (c *Checker) checkClassBody(def *classDef) (*ir.Class, error) {
	out := &ir.Class{Type: def.typ}

	ps := c.funcScope(nil, nil)
	for i, p := range def.props {
		value, err := ps.checkExpr(p.Value, def.typ.Properties[i].Type)
		if err != nil {
			return nil, c.atLine(p, err)
		}
		out.Properties = append(out.Properties, &ir.VarDecl{
			Name:  p.Name,
			Type:  def.typ.Properties[i].Type,
			Value: value,
		})
	}

	for _, fd := range def.methods {
		fn, err := c.checkFuncBody(fd, def.sigs[fd], def.typ)
		if err != nil {
			return nil, c.atLine(fd, err)
		}
		out.Methods = append(out.Methods, fn)
	}
	return out, nil
}
