package codegen_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nalgeon/be"

	"falafel/internal/ast"
	"falafel/internal/checker"
	"falafel/internal/codegen"
	"falafel/internal/ir"
	"falafel/internal/types"
)

func ref(name string, args ...ast.TypeRef) ast.TypeRef {
	return ast.TypeRef{Name: name, Args: args}
}

func refp(name string) *ast.TypeRef {
	r := ref(name)
	return &r
}

func intLit(v int64) *ast.IntLit { return &ast.IntLit{Value: v} }
func ident(name string) *ast.Ident { return &ast.Ident{Name: name} }
func str(s string) *ast.StringLit  { return &ast.StringLit{Value: s} }

func printStmt(arg ast.Expr) *ast.ExprStmt {
	return &ast.ExprStmt{X: &ast.CallExpr{Func: "print", Args: []ast.Expr{arg}}}
}

// compile checks nodes and generates C++ for them.
func compile(t *testing.T, nodes ...ast.Stmt) string {
	t.Helper()
	stmts, err := checker.New().Check(nodes)
	be.Err(t, err, nil)
	out, err := codegen.New().Generate(stmts)
	be.Err(t, err, nil)
	return string(out)
}

const (
	head = "#include <falafel.hh>\n"
	open = "int main(int argc, const char** argv) {{"
	exit = "}Object::collect_cycles();return 0;}"
)

func TestEmptyProgram(t *testing.T) {
	out := compile(t)
	be.Equal(t, out, head+open+exit+"\n")
}

func TestScenario(t *testing.T) {
	out := compile(t,
		&ast.VarDecl{Name: "x", Type: ref("Int"), Value: &ast.BinaryExpr{Op: "+", Left: intLit(5), Right: intLit(3)}},
		printStmt(&ast.InterpLit{Pieces: []ast.Expr{ident("x")}}),
	)
	want := head + open +
		"Int v_x = ((Int)5) + ((Int)3);" +
		"StringBuilder sb0(1U);sb0.add_piece(v_x);print(sb0.build());" +
		exit + "\n"
	be.Equal(t, out, want)
}

func TestStringLiteralsArePooledOnce(t *testing.T) {
	out := compile(t,
		printStmt(str("hello")),
		printStmt(str("hello")),
		printStmt(str("a longer literal")),
	)
	be.Equal(t, strings.Count(out, "String::allocate_small_utf8(u8\"hello\")"), 1)
	be.Equal(t, strings.Count(out, "stringLiteral0"), 3)
	be.True(t, strings.Contains(out, "auto stringLiteral1 = String::allocate_immortal_utf8(u8\"a longer literal\");"))
	be.True(t, strings.Contains(out, "print(stringLiteral0);print(stringLiteral0);print(stringLiteral1);"))

	// Literal declarations precede the entry point.
	be.True(t, strings.Index(out, "auto stringLiteral0") < strings.Index(out, open))
}

func TestEmptyStringUsesSharedConstant(t *testing.T) {
	out := compile(t, printStmt(str("")))
	be.True(t, strings.Contains(out, "print(String::empty);"))
	be.True(t, !strings.Contains(out, "stringLiteral"))
}

func TestConstantInterpolationIsFolded(t *testing.T) {
	out := compile(t, printStmt(&ast.InterpLit{Pieces: []ast.Expr{str("ab"), str("cd")}}))
	be.True(t, strings.Contains(out, "u8\"abcd\""))
	be.True(t, !strings.Contains(out, "StringBuilder"))
}

func TestFunctionsArePrototypedBeforeMain(t *testing.T) {
	out := compile(t,
		&ast.ExprStmt{X: &ast.CallExpr{Func: "twice", Args: []ast.Expr{intLit(2)}}},
		&ast.FuncDecl{
			Name:   "twice",
			Params: []ast.Param{{Name: "n", Type: ref("Int")}},
			Return: refp("Int"),
			Body: []ast.Stmt{&ast.ReturnStmt{
				Value: &ast.BinaryExpr{Op: "*", Left: ident("n"), Right: intLit(2)},
			}},
		},
	)
	proto := "Int f_twiceie(Int v_n);"
	be.True(t, strings.Contains(out, proto))
	be.True(t, strings.Index(out, proto) < strings.Index(out, open))
	be.True(t, strings.Contains(out, open+"f_twiceie((Int)2);"+exit))
	be.True(t, strings.HasSuffix(out, exit+"Int f_twiceie(Int v_n){ return (v_n) * ((Int)2); }\n"))
}

func TestControlFlow(t *testing.T) {
	out := compile(t,
		&ast.VarDecl{Name: "i", Type: ref("Int"), Value: intLit(0)},
		&ast.WhileStmt{
			Cond: &ast.BinaryExpr{Op: "<", Left: ident("i"), Right: intLit(3)},
			Body: []ast.Stmt{&ast.AssignStmt{
				Target: ident("i"),
				Value:  &ast.BinaryExpr{Op: "+", Left: ident("i"), Right: intLit(1)},
			}},
		},
		&ast.IfStmt{
			Cond: &ast.BinaryExpr{Op: "==", Left: ident("i"), Right: intLit(3)},
			Then: []ast.Stmt{printStmt(str("yes"))},
			Else: []ast.Stmt{printStmt(str("no"))},
		},
	)
	be.True(t, strings.Contains(out, "while ((v_i) < ((Int)3)) {v_i = (v_i) + ((Int)1);}"))
	be.True(t, strings.Contains(out, "if ((v_i) == ((Int)3)) {print(stringLiteral0);} else {print(stringLiteral1);}"))
}

func TestLoopConditionSetupRunsEveryIteration(t *testing.T) {
	cond := &ast.BinaryExpr{
		Op:    "!=",
		Left:  &ast.InterpLit{Pieces: []ast.Expr{ident("i")}},
		Right: str("3"),
	}
	out := compile(t,
		&ast.VarDecl{Name: "i", Type: ref("Int"), Value: intLit(0)},
		&ast.WhileStmt{Cond: cond, Body: []ast.Stmt{&ast.AssignStmt{
			Target: ident("i"),
			Value:  &ast.BinaryExpr{Op: "+", Left: ident("i"), Right: intLit(1)},
		}}},
	)
	be.True(t, strings.Contains(out,
		"while (true) {StringBuilder sb0(1U);sb0.add_piece(v_i);if (!((sb0.build()) ->is_not_equal (stringLiteral0))) break;v_i = (v_i) + ((Int)1);}"))
}

func TestShortCircuitDefersSetup(t *testing.T) {
	rhs := &ast.BinaryExpr{
		Op:    "==",
		Left:  &ast.InterpLit{Pieces: []ast.Expr{ident("b")}},
		Right: str("true"),
	}
	out := compile(t,
		&ast.VarDecl{Name: "b", Type: ref("Bool"), Value: &ast.BoolLit{Value: false}},
		&ast.VarDecl{Name: "c", Type: ref("Bool"), Value: &ast.BinaryExpr{Op: "&&", Left: ident("b"), Right: rhs}},
	)
	be.True(t, strings.Contains(out,
		"Bool v_c = (v_b) && ([&] { StringBuilder sb0(1U);sb0.add_piece(v_b);return (sb0.build()) ->is_equal (stringLiteral0); }());"))
}

func TestCoalescingWrapsFallback(t *testing.T) {
	optInt := ref("Optional", ref("Int"))
	out := compile(t,
		&ast.VarDecl{Name: "o", Type: optInt, Value: &ast.NullLit{}},
		&ast.VarDecl{Name: "v", Type: ref("Int"), Value: &ast.BinaryExpr{Op: "??", Left: ident("o"), Right: intLit(7)}},
	)
	be.True(t, strings.Contains(out, "Optional<Int > v_o = Optional<Int >(nullptr);"))
	be.True(t, strings.Contains(out, "Int v_v = (v_o) .or_else([&] { return (Int)7; });"))
}

func TestArraysAndIndexing(t *testing.T) {
	arr := ref("Array", ref("Int"))
	out := compile(t,
		&ast.VarDecl{Name: "xs", Type: arr, Value: &ast.ArrayLit{Elems: []ast.Expr{intLit(1), intLit(2)}}},
		&ast.AssignStmt{Target: &ast.IndexExpr{X: ident("xs"), Index: intLit(0)}, Value: intLit(9)},
		&ast.ExprStmt{X: &ast.MethodCallExpr{Recv: ident("xs"), Name: "push", Args: []ast.Expr{intLit(3)}}},
		&ast.VarDecl{Name: "n", Type: ref("Int"), Value: &ast.IndexExpr{X: ident("xs"), Index: intLit(1)}},
		&ast.VarDecl{Name: "s", Type: ref("String"), Value: str("abc")},
		&ast.VarDecl{Name: "l", Type: ref("Int"), Value: &ast.MethodCallExpr{Recv: ident("s"), Name: "length"}},
	)
	be.True(t, strings.Contains(out, "Array<Int > v_xs = Array<Int >({ (Int)1, (Int)2 });"))
	be.True(t, strings.Contains(out, "v_xs._indexset((Int)0, (Int)9);"))
	be.True(t, strings.Contains(out, "v_xs.f_pushvh((Int)3);"))
	be.True(t, strings.Contains(out, "Int v_n = v_xs._indexget((Int)1);"))
	be.True(t, strings.Contains(out, "RcPointer<String > v_s = stringLiteral0;"))
	be.True(t, strings.Contains(out, "Int v_l = v_s->f_lengthib();"))
}

func TestClasses(t *testing.T) {
	counter := &ast.ClassDecl{Name: "Counter", Body: []ast.Stmt{
		&ast.VarDecl{Name: "count", Type: ref("Int"), Value: intLit(0)},
		&ast.FuncDecl{Name: "bump", Return: refp("Int"), Body: []ast.Stmt{
			&ast.AssignStmt{Target: ident("count"), Value: &ast.BinaryExpr{Op: "+", Left: ident("count"), Right: intLit(1)}},
			&ast.ReturnStmt{Value: ident("count")},
		}},
	}}
	out := compile(t,
		&ast.VarDecl{Name: "c", Type: ref("Counter"), Value: &ast.CallExpr{Func: "Counter"}},
		counter,
		&ast.VarDecl{Name: "n", Type: ref("Int"), Value: &ast.MethodCallExpr{Recv: ident("c"), Name: "bump"}},
	)
	be.True(t, strings.Contains(out, head+"class Counter;class Counter : public Object {public: Int v_count;Counter();virtual Int f_bumpib();};"))
	be.True(t, strings.Contains(out, "RcPointer<Counter > v_c = RcPointer<Counter >(new Counter());"))
	be.True(t, strings.Contains(out, "Int v_n = v_c->f_bumpib();"))
	be.True(t, strings.HasSuffix(out, exit+"Counter::Counter(){ v_count = (Int)0; }"+
		"Int Counter::f_bumpib(){ v_count = (v_count) + ((Int)1);return v_count; }\n"))
}

func TestCasts(t *testing.T) {
	out := compile(t,
		&ast.ClassDecl{Name: "Animal"},
		&ast.ClassDecl{Name: "Dog", Base: refp("Animal")},
		&ast.VarDecl{Name: "a", Type: ref("Animal"), Value: &ast.CallExpr{Func: "Dog"}},
		&ast.VarDecl{Name: "d", Type: ref("Dog"), Value: &ast.CastExpr{X: ident("a"), Type: ref("Dog")}},
		&ast.VarDecl{Name: "f", Type: ref("Float"), Value: &ast.CastExpr{X: intLit(1), Type: ref("Float")}},
	)
	be.True(t, strings.Contains(out, "class Dog : public Animal {public: };"))
	be.True(t, strings.Contains(out, "RcPointer<Animal > v_a = static_cast<RcPointer<Animal > >(RcPointer<Dog >(new Dog()));"))
	be.True(t, strings.Contains(out, "RcPointer<Dog > v_d = RcPointer<Dog >{ v_a };"))
	be.True(t, strings.Contains(out, "Float v_f = 1.0f;"))
}

func TestUpcastsAreExplicitEverywhere(t *testing.T) {
	animal := ref("Animal")
	dog := func() ast.Expr { return &ast.CallExpr{Func: "Dog"} }
	out := compile(t,
		&ast.ClassDecl{Name: "Animal"},
		&ast.ClassDecl{Name: "Dog", Base: refp("Animal")},
		&ast.ClassDecl{Name: "Kennel", Body: []ast.Stmt{
			&ast.VarDecl{Name: "resident", Type: animal, Value: dog()},
		}},
		&ast.FuncDecl{
			Name:   "adopt",
			Params: []ast.Param{{Name: "pet", Type: animal}},
			Return: refp("Animal"),
			Body:   []ast.Stmt{&ast.ReturnStmt{Value: dog()}},
		},
		&ast.VarDecl{Name: "maybe", Type: ref("Optional", animal), Value: dog()},
		&ast.VarDecl{Name: "pets", Type: ref("Array", animal), Value: &ast.ArrayLit{Elems: []ast.Expr{dog()}}},
		&ast.VarDecl{Name: "any", Type: ref("Object"), Value: str("s")},
		&ast.ExprStmt{X: &ast.CallExpr{Func: "adopt", Args: []ast.Expr{dog()}}},
	)
	up := "static_cast<RcPointer<Animal > >(RcPointer<Dog >(new Dog()))"
	be.True(t, strings.Contains(out, "Kennel::Kennel(){ v_resident = "+up+"; }"))
	be.True(t, strings.Contains(out, "{ return "+up+"; }"))
	be.True(t, strings.Contains(out, "Optional<RcPointer<Animal > > v_maybe = "+up+";"))
	be.True(t, strings.Contains(out, "Array<RcPointer<Animal > > v_pets = Array<RcPointer<Animal > >({ "+up+" });"))
	be.True(t, strings.Contains(out, "RcPointer<Object > v_any = static_cast<RcPointer<Object > >(stringLiteral0);"))
	be.True(t, strings.Contains(out, "("+up+");"))
	be.True(t, !strings.Contains(out, "= RcPointer<Dog >(new Dog())"))
}

func TestPropertyInitializersFollowDeclarations(t *testing.T) {
	out := compile(t,
		&ast.ClassDecl{Name: "A", Body: []ast.Stmt{
			&ast.VarDecl{Name: "n", Type: ref("Int"), Value: &ast.CallExpr{Func: "seed"}},
			&ast.VarDecl{Name: "b", Type: ref("B"), Value: &ast.CallExpr{Func: "B"}},
		}},
		&ast.ClassDecl{Name: "B"},
		&ast.FuncDecl{Name: "seed", Return: refp("Int"), Body: []ast.Stmt{&ast.ReturnStmt{Value: intLit(1)}}},
	)
	be.True(t, strings.Contains(out, "class A : public Object {public: Int v_n;RcPointer<B > v_b;A();};"))

	ctor := strings.Index(out, "A::A(){ v_n = f_seedib();v_b = RcPointer<B >(new B()); }")
	be.True(t, ctor > 0)
	be.True(t, ctor > strings.Index(out, "class B : public Object {"))
	be.True(t, ctor > strings.Index(out, "Int f_seedib();"))
}

func TestUserNamesAreKeptApart(t *testing.T) {
	out := compile(t,
		&ast.VarDecl{Name: "int", Type: ref("Int"), Value: intLit(1)},
		&ast.VarDecl{Name: "sb0", Type: ref("String"), Value: &ast.InterpLit{Pieces: []ast.Expr{ident("int")}}},
		&ast.VarDecl{Name: "stringLiteral0", Type: ref("String"), Value: str("x")},
	)
	be.True(t, strings.Contains(out, "Int v_int = (Int)1;"))
	be.True(t, strings.Contains(out, "StringBuilder sb0(1U);sb0.add_piece(v_int);RcPointer<String > v_sb0 = sb0.build();"))
	be.True(t, strings.Contains(out, "RcPointer<String > v_stringLiteral0 = stringLiteral0;"))
}

func TestUnknownNodeIsInternalError(t *testing.T) {
	_, err := codegen.New().Generate([]ir.Stmt{&ir.ExprStmt{X: nil}})
	be.True(t, errors.Is(err, codegen.ErrInternal))

	_, err = codegen.New().Generate([]ir.Stmt{&ir.Assign{
		Target: &ir.Call{Method: types.BuiltinFunctions()[0]},
		Value:  &ir.BoolLit{Value: true},
	}})
	be.True(t, errors.Is(err, codegen.ErrInternal))
}

func TestGeneratorIsReusable(t *testing.T) {
	g := codegen.New()
	first, err := g.Generate([]ir.Stmt{&ir.ExprStmt{X: &ir.Call{
		Method: types.BuiltinFunctions()[0],
		Args:   []ir.Expr{&ir.StringLit{Value: "one"}},
	}}})
	be.Err(t, err, nil)
	first = bytes.Clone(first)

	second, err := g.Generate(nil)
	be.Err(t, err, nil)
	be.Equal(t, string(second), head+open+exit+"\n")
	be.True(t, bytes.Contains(first, []byte("stringLiteral0")))

	var buf bytes.Buffer
	n, err := g.WriteTo(&buf)
	be.Err(t, err, nil)
	be.Equal(t, n, int64(len(second)))
	be.Equal(t, buf.String(), string(second))
}

func TestWriteFileSkipsUnchangedOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.cpp")
	src := []byte(head + open + exit + "\n")

	changed, err := codegen.WriteFile(path, src)
	be.Err(t, err, nil)
	be.True(t, changed)

	old := time.Now().Add(-time.Hour)
	be.Err(t, os.Chtimes(path, old, old), nil)

	changed, err = codegen.WriteFile(path, src)
	be.Err(t, err, nil)
	be.True(t, !changed)
	info, err := os.Stat(path)
	be.Err(t, err, nil)
	be.True(t, info.ModTime().Equal(old))

	changed, err = codegen.WriteFile(path, append(src, '\n'))
	be.Err(t, err, nil)
	be.True(t, changed)
	got, err := os.ReadFile(path)
	be.Err(t, err, nil)
	be.Equal(t, len(got), len(src)+1)

	entries, err := os.ReadDir(filepath.Dir(path))
	be.Err(t, err, nil)
	be.Equal(t, len(entries), 1)
}

func TestWriteFileNeedsAPath(t *testing.T) {
	src := []byte(head + open + exit + "\n")
	for _, path := range []string{"", codegen.Stdout} {
		changed, err := codegen.WriteFile(path, src)
		be.Err(t, err, "not a file path")
		be.True(t, !changed)
	}
}
