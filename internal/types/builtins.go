package types

import "fmt"

// Built-in types. They are assigned by declareBuiltins and must not be
// reassigned afterwards.
var (
	Void   *Type
	Int    *Type
	Float  *Type
	Double *Type
	Bool   *Type
	Char   *Type

	Object        *Type
	String        *Type
	StringBuilder *Type
	Array         *Type
	Optional      *Type
)

// registry holds the built-in tables with lookup indexes. It is filled once
// by init and read-only afterwards.
type registry struct {
	types      []*Type
	primitives []*Type
	functions  []*Method
	operators  []*Operator

	// Index by (fixity, name) for operator lookup
	byOperator map[Fixity]map[string][]*Operator
}

var builtins = &registry{
	byOperator: make(map[Fixity]map[string][]*Operator),
}

// The tables reference each other (String's methods return Int, Object's
// toString returns String), so they are built in two phases: every type is
// declared first, then methods, subscripts and operators are wired.
func init() {
	declareBuiltins()
	wireBuiltins()
}

var (
	arrayElem    *Type
	optionalElem *Type
)

func declareBuiltins() {
	Void = NewPrimitive("Void")
	Int = NewPrimitive("Int")
	Float = NewPrimitive("Float")
	Double = NewPrimitive("Double")
	Bool = NewPrimitive("Bool")
	Char = NewPrimitive("Char")

	Object = NewClass("Object", nil, true)
	String = NewClass("String", Object, false)
	StringBuilder = NewStruct("StringBuilder")

	arrayElem = NewPlaceholder("_T0")
	Array = NewGeneric("Array", arrayElem)

	optionalElem = NewPlaceholder("_T1")
	Optional = NewGeneric("Optional", optionalElem)

	builtins.primitives = []*Type{Int, Float, Double, Bool, Char, Void}
	builtins.types = []*Type{
		Int, Float, Double, Bool, Char, Void,
		Object, String, StringBuilder, Array, Optional,
	}
}

func wireBuiltins() {
	must := func(err error) {
		if err != nil {
			panic(fmt.Sprintf("types: wiring built-ins: %v", err))
		}
	}

	objectCtor := mustMethod(Object, ConstructorName, nil, Object)
	objectCtor.IsConstructor = true
	must(Object.AddMethod(objectCtor))
	must(Object.AddMethod(mustMethod(Object, "toString", nil, String)))

	must(String.AddMethod(mustMethod(String, "length", nil, Int)))
	String.Subscript = &Subscript{Index: Int, Return: Char, Settable: false}

	must(Array.AddMethod(mustMethod(Array, "push", []*Type{arrayElem}, Void)))
	must(Array.AddMethod(mustMethod(Array, "pop", nil, Void)))
	must(Array.AddMethod(mustMethod(Array, "clear", nil, Void)))
	must(Array.AddMethod(mustMethod(Array, "length", nil, Int)))
	Array.Subscript = &Subscript{Index: Int, Return: arrayElem, Settable: true}

	must(Optional.AddMethod(mustMethod(Optional, "hasValue", nil, Bool)))

	printFn := mustMethod(Void, "print", []*Type{String}, Void)
	printFn.Target = "print"
	builtins.functions = []*Method{printFn}

	numerics := []*Type{Int, Float, Double}

	for _, name := range []string{"+", "-", "*", "/"} {
		for _, t := range numerics {
			builtins.add(infix(name, t, t, t, name))
		}
	}
	builtins.add(infix("%", Int, Int, Int, "%"))
	builtins.add(&Operator{Name: "**", Fixity: Infix, Lhs: Float, Rhs: Float, Return: Float, Token: "powf"})
	builtins.add(&Operator{Name: "**", Fixity: Infix, Lhs: Double, Rhs: Double, Return: Double, Token: "pow"})

	for _, name := range []string{"<", "<=", ">", ">=", "==", "!="} {
		for _, t := range numerics {
			builtins.add(infix(name, t, t, Bool, name))
		}
	}
	for _, name := range []string{"==", "!="} {
		builtins.add(infix(name, Char, Char, Bool, name))
		builtins.add(infix(name, Bool, Bool, Bool, name))
	}

	builtins.add(infix("+", String, String, String, "->add"))
	builtins.add(infix("==", String, String, Bool, "->is_equal"))
	builtins.add(infix("!=", String, String, Bool, "->is_not_equal"))

	and := infix("&&", Bool, Bool, Bool, "&&")
	and.ShortCircuit = true
	builtins.add(and)
	or := infix("||", Bool, Bool, Bool, "||")
	or.ShortCircuit = true
	builtins.add(or)

	builtins.add(prefix("!", Bool, Bool, "!"))
	for _, t := range numerics {
		builtins.add(prefix("-", t, t, "-"))
	}

	builtins.add(&Operator{
		Name:         "??",
		Fixity:       Infix,
		Lhs:          Optional,
		Rhs:          optionalElem,
		Return:       optionalElem,
		Native:       true,
		Token:        ".or_else",
		WrapRHS:      true,
		ShortCircuit: true,
		Generics:     []*Type{optionalElem},
	})
}

func infix(name string, lhs, rhs, ret *Type, tok string) *Operator {
	return &Operator{Name: name, Fixity: Infix, Lhs: lhs, Rhs: rhs, Return: ret, Native: true, Token: tok}
}

func prefix(name string, operand, ret *Type, tok string) *Operator {
	return &Operator{Name: name, Fixity: Prefix, Rhs: operand, Return: ret, Native: true, Token: tok}
}

func (r *registry) add(op *Operator) {
	if r.byOperator[op.Fixity] == nil {
		r.byOperator[op.Fixity] = make(map[string][]*Operator)
	}
	r.byOperator[op.Fixity][op.Name] = append(r.byOperator[op.Fixity][op.Name], op)
	r.operators = append(r.operators, op)
}

// BuiltinTypes returns the predefined types in declaration order.
func BuiltinTypes() []*Type {
	return append([]*Type(nil), builtins.types...)
}

// BuiltinFunctions returns the predefined free functions.
func BuiltinFunctions() []*Method {
	return append([]*Method(nil), builtins.functions...)
}

// Operators returns every built-in operator in table order.
func Operators() []*Operator {
	return append([]*Operator(nil), builtins.operators...)
}

// LookupOperators returns the overloads of an operator in table order.
func LookupOperators(name string, fixity Fixity) []*Operator {
	return append([]*Operator(nil), builtins.byOperator[fixity][name]...)
}

// IsPrimitive reports whether t is one of the built-in non-object scalars.
func IsPrimitive(t *Type) bool {
	for _, p := range builtins.primitives {
		if Equal(p, t) {
			return true
		}
	}
	return false
}

func IsNumeric(t *Type) bool {
	return Equal(t, Int) || Equal(t, Float) || Equal(t, Double)
}
