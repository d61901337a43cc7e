package types

import "fmt"

// Instantiate binds the generic parameters of template to args. Methods,
// properties and the subscript are substituted; generic masks are kept so
// mangling still sees which arguments were generic at declaration time.
func Instantiate(template *Type, args []*Type) (*Type, error) {
	template = template.Origin()
	if len(template.Generics) == 0 {
		return nil, fmt.Errorf("%s is not generic", template.Name)
	}
	if len(args) != len(template.Generics) {
		return nil, fmt.Errorf("%s expects %d type arguments, got %d", template.Name, len(template.Generics), len(args))
	}
	return instantiate(template, args), nil
}

func instantiate(template *Type, args []*Type) *Type {
	bindings := make(map[*Type]*Type, len(args))
	for i, p := range template.Generics {
		bindings[p] = args[i]
	}

	inst := &Type{
		Name:                 template.Name,
		Generics:             args,
		Base:                 template.Base,
		IsObject:             template.IsObject,
		IsInheritable:        template.IsInheritable,
		IsGenericPlaceholder: false,
		origin:               template,
	}
	for _, p := range template.Properties {
		inst.Properties = append(inst.Properties, &Property{Name: p.Name, Type: Substitute(p.Type, bindings)})
	}
	for _, m := range template.Methods {
		cp := *m
		cp.Owner = inst
		cp.Args = make([]*Type, len(m.Args))
		for i, a := range m.Args {
			cp.Args[i] = Substitute(a, bindings)
		}
		cp.Return = Substitute(m.Return, bindings)
		inst.Methods = append(inst.Methods, &cp)
	}
	if s := template.Subscript; s != nil {
		inst.Subscript = &Subscript{
			Index:    Substitute(s.Index, bindings),
			Return:   Substitute(s.Return, bindings),
			Settable: s.Settable,
		}
	}
	return inst
}

// Substitute replaces bound placeholders inside t. Unbound placeholders are
// left in place.
func Substitute(t *Type, bindings map[*Type]*Type) *Type {
	if t == nil {
		return nil
	}
	if t.IsGenericPlaceholder {
		if b, ok := bindings[t]; ok {
			return b
		}
		return t
	}
	if !ContainsPlaceholder(t) {
		return t
	}
	args := make([]*Type, len(t.Generics))
	changed := false
	for i, g := range t.Generics {
		args[i] = Substitute(g, bindings)
		if args[i] != g {
			changed = true
		}
	}
	if !changed {
		return t
	}
	return instantiate(t.Origin(), args)
}

// Bind matches pattern against actual and records the placeholder bindings
// it implies. A placeholder already bound to a different type is a conflict.
func Bind(pattern, actual *Type, bindings map[*Type]*Type) error {
	if pattern.IsGenericPlaceholder {
		if prev, ok := bindings[pattern]; ok {
			if !Equal(prev, actual) {
				return fmt.Errorf("conflicting bindings for generic parameter: %s and %s", prev, actual)
			}
			return nil
		}
		bindings[pattern] = actual
		return nil
	}
	if !ContainsPlaceholder(pattern) {
		if !AcceptsImplicitly(pattern, actual) {
			return fmt.Errorf("expected %s, got %s", pattern, actual)
		}
		return nil
	}
	if !InstanceOf(actual, pattern) || len(actual.Generics) != len(pattern.Generics) {
		return fmt.Errorf("expected %s, got %s", pattern, actual)
	}
	for i := range pattern.Generics {
		if err := Bind(pattern.Generics[i], actual.Generics[i], bindings); err != nil {
			return err
		}
	}
	return nil
}

// AcceptsImplicitly reports whether a value of type value may be used where
// target is expected: the types are equal, target is Optional<T> with T
// accepting value, or value's base type is (recursively) accepted.
func AcceptsImplicitly(target, value *Type) bool {
	if target == nil || value == nil {
		return false
	}
	if Equal(target, value) {
		return true
	}
	if InstanceOf(target, Optional) && len(target.Generics) == 1 && AcceptsImplicitly(target.Generics[0], value) {
		return true
	}
	if value.Base != nil {
		return AcceptsImplicitly(target, value.Base)
	}
	return false
}

// Castable reports whether an explicit cast from from to target is allowed.
func Castable(target, from *Type) bool {
	if Equal(target, from) {
		return true
	}
	if IsNumeric(target) && IsNumeric(from) {
		return true
	}
	return AcceptsImplicitly(target, from) || AcceptsImplicitly(from, target)
}

// IsStrictSuperclassOf reports whether super appears in sub's base chain.
func IsStrictSuperclassOf(super, sub *Type) bool {
	if super == nil || sub == nil {
		return false
	}
	for b := sub.Base; b != nil; b = b.Base {
		if Equal(b, super) {
			return true
		}
	}
	return false
}

// LookupMethods returns the non-constructor methods named name visible on
// t, most derived first. A base method with the same signature as a derived
// one is hidden by it.
func LookupMethods(t *Type, name string) []*Method {
	var out []*Method
	for cur := t; cur != nil; cur = cur.Base {
	next:
		for _, m := range cur.Methods {
			if m.IsConstructor || m.Name != name {
				continue
			}
			for _, seen := range out {
				if sameArgs(seen.Args, m.Args) {
					continue next
				}
			}
			out = append(out, m)
		}
	}
	return out
}

// Constructors returns the constructors declared directly on t.
func Constructors(t *Type) []*Method {
	var out []*Method
	for _, m := range t.Methods {
		if m.IsConstructor {
			out = append(out, m)
		}
	}
	return out
}

// LookupProperty finds a property on t or its base chain.
func LookupProperty(t *Type, name string) *Property {
	for cur := t; cur != nil; cur = cur.Base {
		for _, p := range cur.Properties {
			if p.Name == name {
				return p
			}
		}
	}
	return nil
}
