package types

import (
	"fmt"
	"strings"
)

// MaxArguments bounds method arity: mangled symbols pack one 2-bit tag per
// argument into a 64-bit word that also carries a leading sentinel bit.
const MaxArguments = 31

// ConstructorName is the fixed method name of every constructor.
const ConstructorName = "init"

// Type is a named type. Object-ness, inheritability and placeholder-ness are
// plain flags whose invariants are enforced by the constructors below:
//
//   - IsInheritable implies IsObject
//   - a generic placeholder carries no generics and is never inheritable
type Type struct {
	Name       string
	Generics   []*Type // parameters on a template, arguments on an instance
	Base       *Type
	Properties []*Property
	Methods    []*Method
	Subscript  *Subscript

	IsObject             bool
	IsInheritable        bool
	IsGenericPlaceholder bool

	origin *Type // generic template this type was instantiated from
}

type Property struct {
	Name string
	Type *Type
}

type Subscript struct {
	Index    *Type
	Return   *Type
	Settable bool
}

type Variable struct {
	Name string
	Type *Type
}

// NewPrimitive returns a non-object built-in value type.
func NewPrimitive(name string) *Type {
	return &Type{Name: name}
}

// NewStruct returns a non-generic, non-object value type.
func NewStruct(name string) *Type {
	return &Type{Name: name}
}

// NewGeneric returns a non-object value type template over params, each of
// which must be a placeholder.
func NewGeneric(name string, params ...*Type) *Type {
	for _, p := range params {
		if !p.IsGenericPlaceholder {
			panic(fmt.Sprintf("types: generic parameter %s of %s is not a placeholder", p.Name, name))
		}
	}
	return &Type{Name: name, Generics: params}
}

// NewClass returns a reference-counted object type deriving from base.
func NewClass(name string, base *Type, inheritable bool) *Type {
	return &Type{
		Name:          name,
		Base:          base,
		IsObject:      true,
		IsInheritable: inheritable,
	}
}

// NewPlaceholder returns a fresh generic placeholder. Placeholders compare
// by identity, so two placeholders with the same name are still distinct.
func NewPlaceholder(name string) *Type {
	return &Type{Name: name, IsGenericPlaceholder: true}
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	if len(t.Generics) == 0 {
		return t.Name
	}
	args := make([]string, len(t.Generics))
	for i, g := range t.Generics {
		args[i] = g.String()
	}
	return t.Name + "<" + strings.Join(args, ", ") + ">"
}

// Origin returns the template an instance was built from, or t itself.
func (t *Type) Origin() *Type {
	if t.origin != nil {
		return t.origin
	}
	return t
}

// AddProperty registers a property while a class is being defined.
func (t *Type) AddProperty(p *Property) error {
	for _, existing := range t.Properties {
		if existing.Name == p.Name {
			return fmt.Errorf("duplicate property %s in %s", p.Name, t.Name)
		}
	}
	t.Properties = append(t.Properties, p)
	return nil
}

// AddMethod registers a method while a class is being defined.
func (t *Type) AddMethod(m *Method) error {
	for _, existing := range t.Methods {
		if existing.Name == m.Name && sameArgs(existing.Args, m.Args) {
			return fmt.Errorf("duplicate declaration of %s", m)
		}
	}
	m.Owner = t
	t.Methods = append(t.Methods, m)
	return nil
}

// Method describes a free function (Owner is Void), a method, or a
// constructor.
type Method struct {
	Name   string
	Owner  *Type
	Args   []*Type
	Return *Type

	// GenericMask has bit i set when argument i was declared with a generic
	// placeholder. It survives instantiation.
	GenericMask uint32

	// Target, when set, is emitted verbatim instead of the mangled symbol.
	Target string

	IsConstructor bool
}

// NewMethod builds a method and computes its generic mask.
func NewMethod(owner *Type, name string, args []*Type, ret *Type) (*Method, error) {
	if len(args) > MaxArguments {
		return nil, fmt.Errorf("%s takes %d arguments; at most %d are supported", name, len(args), MaxArguments)
	}
	m := &Method{Name: name, Owner: owner, Args: args, Return: ret}
	for i, a := range args {
		if ContainsPlaceholder(a) {
			m.GenericMask |= 1 << uint(i)
		}
	}
	return m, nil
}

func mustMethod(owner *Type, name string, args []*Type, ret *Type) *Method {
	m, err := NewMethod(owner, name, args, ret)
	if err != nil {
		panic(err)
	}
	return m
}

// IsFree reports whether m is a free function rather than a method.
func (m *Method) IsFree() bool {
	return m.Owner == nil || Equal(m.Owner, Void)
}

func (m *Method) String() string {
	var sb strings.Builder
	sb.WriteString("func ")
	if !m.IsFree() {
		sb.WriteString(m.Owner.String())
		sb.WriteByte('.')
	}
	sb.WriteString(m.Name)
	sb.WriteByte('(')
	for i, a := range m.Args {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(a.String())
	}
	sb.WriteString(") -> ")
	sb.WriteString(m.Return.String())
	return sb.String()
}

type Fixity int

const (
	Prefix Fixity = iota
	Infix
)

func (f Fixity) String() string {
	if f == Prefix {
		return "prefix"
	}
	return "infix"
}

// Operator is a built-in operator overload.
type Operator struct {
	Name   string
	Fixity Fixity
	Lhs    *Type // nil for prefix operators
	Rhs    *Type
	Return *Type

	// Native operators render as a target-language token; the rest render
	// as a call to Token.
	Native bool
	Token  string

	// WrapRHS defers the right operand into a zero-argument block.
	WrapRHS bool
	// ShortCircuit marks operators whose right operand may not run.
	ShortCircuit bool

	// Generics lists the placeholders this operator introduces.
	Generics []*Type
}

func (o *Operator) IsGeneric() bool { return len(o.Generics) > 0 }

func (o *Operator) String() string {
	return fmt.Sprintf("%s operator %s returning %s", o.Fixity, o.Name, o.Return)
}

// Instantiate binds the operator's placeholders.
func (o *Operator) Instantiate(bindings map[*Type]*Type) *Operator {
	inst := *o
	inst.Generics = nil
	if o.Lhs != nil {
		inst.Lhs = Substitute(o.Lhs, bindings)
	}
	inst.Rhs = Substitute(o.Rhs, bindings)
	inst.Return = Substitute(o.Return, bindings)
	return &inst
}

// Equal is structural equality: name, flags, base type and generic
// arguments. Placeholders compare by identity.
func Equal(a, b *Type) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.IsGenericPlaceholder || b.IsGenericPlaceholder {
		return false
	}
	if a.Name != b.Name ||
		a.IsObject != b.IsObject ||
		a.IsInheritable != b.IsInheritable ||
		len(a.Generics) != len(b.Generics) {
		return false
	}
	if (a.Base == nil) != (b.Base == nil) {
		return false
	}
	if a.Base != nil && !Equal(a.Base, b.Base) {
		return false
	}
	for i := range a.Generics {
		if !Equal(a.Generics[i], b.Generics[i]) {
			return false
		}
	}
	return true
}

func sameArgs(a, b []*Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// ContainsPlaceholder reports whether t is, or is instantiated over, a
// generic placeholder.
func ContainsPlaceholder(t *Type) bool {
	if t == nil {
		return false
	}
	if t.IsGenericPlaceholder {
		return true
	}
	for _, g := range t.Generics {
		if ContainsPlaceholder(g) {
			return true
		}
	}
	return false
}

// InstanceOf reports whether t was instantiated from template.
func InstanceOf(t, template *Type) bool {
	if t == nil || template == nil {
		return false
	}
	return t.Origin() == template.Origin()
}
