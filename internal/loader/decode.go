package loader

import (
	"encoding/json"
	"fmt"
	"math"

	"falafel/internal/ast"
	"falafel/internal/token"
)

type nodeCategoryDecoder func(n map[string]any, typ, path string) (ast.Node, bool, error)

var nodeDecoders []nodeCategoryDecoder

func init() {
	nodeDecoders = []nodeCategoryDecoder{
		decodeDeclarationNodes,
		decodeControlFlowNodes,
		decodeLiteralNodes,
		decodeExpressionNodes,
	}
}

func decodeNode(raw any, path string) (ast.Node, error) {
	n, ok := raw.(map[string]any)
	if !ok {
		return nil, malformed(path, "expected a node object, got %s", kindOf(raw))
	}
	typ, ok := n["type"].(string)
	if !ok {
		return nil, malformed(path, "node has no type tag")
	}
	for _, decoder := range nodeDecoders {
		node, handled, err := decoder(n, typ, path)
		if err != nil {
			return nil, err
		}
		if handled {
			return node, nil
		}
	}
	return nil, fmt.Errorf("%w %q at %s", ErrUnknownNode, typ, path)
}

func decodeDeclarationNodes(n map[string]any, typ, path string) (ast.Node, bool, error) {
	switch typ {
	case "ClassDefinition":
		name, err := stringField(n, "name", path)
		if err != nil {
			return nil, true, err
		}
		var base *ast.TypeRef
		if _, ok := n["base"].(string); ok {
			ref, err := typeField(n, "base", path)
			if err != nil {
				return nil, true, err
			}
			base = &ref
		}
		final, _ := n["final"].(bool)
		body, err := stmtList(n, "body", path)
		if err != nil {
			return nil, true, err
		}
		return &ast.ClassDecl{Name: name, Base: base, Final: final, Body: body, Span: spanOf(n)}, true, nil

	case "VarDeclaration":
		name, err := stringField(n, "name", path)
		if err != nil {
			return nil, true, err
		}
		t, err := typeField(n, "declaredType", path)
		if err != nil {
			return nil, true, err
		}
		value, err := exprField(n, "value", path)
		if err != nil {
			return nil, true, err
		}
		return &ast.VarDecl{Name: name, Type: t, Value: value, Span: spanOf(n)}, true, nil

	case "FunctionDeclaration":
		name, err := stringField(n, "name", path)
		if err != nil {
			return nil, true, err
		}
		params, err := paramList(n, path)
		if err != nil {
			return nil, true, err
		}
		var ret *ast.TypeRef
		if _, ok := n["returnType"].(string); ok {
			ref, err := typeField(n, "returnType", path)
			if err != nil {
				return nil, true, err
			}
			ret = &ref
		}
		body, err := stmtList(n, "body", path)
		if err != nil {
			return nil, true, err
		}
		return &ast.FuncDecl{Name: name, Params: params, Return: ret, Body: body, Span: spanOf(n)}, true, nil

	default:
		return nil, false, nil
	}
}

func decodeControlFlowNodes(n map[string]any, typ, path string) (ast.Node, bool, error) {
	switch typ {
	case "ConditionalStatement":
		cond, err := exprField(n, "condition", path)
		if err != nil {
			return nil, true, err
		}
		then, err := stmtList(n, "trueBlock", path)
		if err != nil {
			return nil, true, err
		}
		var els []ast.Stmt
		if n["falseBlock"] != nil {
			if els, err = stmtList(n, "falseBlock", path); err != nil {
				return nil, true, err
			}
			if els == nil {
				els = []ast.Stmt{}
			}
		}
		return &ast.IfStmt{Cond: cond, Then: then, Else: els, Span: spanOf(n)}, true, nil

	case "LoopStatement":
		cond, err := exprField(n, "condition", path)
		if err != nil {
			return nil, true, err
		}
		body, err := stmtList(n, "body", path)
		if err != nil {
			return nil, true, err
		}
		return &ast.WhileStmt{Cond: cond, Body: body, Span: spanOf(n)}, true, nil

	case "Assignment":
		lhs, err := exprField(n, "lhs", path)
		if err != nil {
			return nil, true, err
		}
		rhs, err := exprField(n, "rhs", path)
		if err != nil {
			return nil, true, err
		}
		return &ast.AssignStmt{Target: lhs, Value: rhs, Span: spanOf(n)}, true, nil

	case "ReturnStatement":
		var value ast.Expr
		if v, ok := n["value"]; ok && v != nil {
			x, err := exprField(n, "value", path)
			if err != nil {
				return nil, true, err
			}
			value = x
		}
		return &ast.ReturnStmt{Value: value, Span: spanOf(n)}, true, nil

	default:
		return nil, false, nil
	}
}

func decodeLiteralNodes(n map[string]any, typ, path string) (ast.Node, bool, error) {
	switch typ {
	case "IntegerLiteral":
		v, err := intValue(n["value"], path+".value")
		if err != nil {
			return nil, true, err
		}
		return &ast.IntLit{Value: v, Span: spanOf(n)}, true, nil

	case "DecimalLiteral":
		v, err := decimalValue(n["value"], path+".value")
		if err != nil {
			return nil, true, err
		}
		return &ast.DecimalLit{Value: v, Span: spanOf(n)}, true, nil

	case "StringLiteral":
		v, err := stringField(n, "value", path)
		if err != nil {
			return nil, true, err
		}
		return &ast.StringLit{Value: v, Span: spanOf(n)}, true, nil

	case "StringInterpolation":
		pieces, err := exprList(n, "pieces", path)
		if err != nil {
			return nil, true, err
		}
		return &ast.InterpLit{Pieces: pieces, Span: spanOf(n)}, true, nil

	case "BooleanLiteral":
		v, ok := n["value"].(bool)
		if !ok {
			return nil, true, malformed(path+".value", "expected a boolean, got %s", kindOf(n["value"]))
		}
		return &ast.BoolLit{Value: v, Span: spanOf(n)}, true, nil

	case "CharLiteral":
		v, err := charValue(n["value"], path+".value")
		if err != nil {
			return nil, true, err
		}
		return &ast.CharLit{Value: v, Span: spanOf(n)}, true, nil

	case "NullLiteral":
		return &ast.NullLit{Span: spanOf(n)}, true, nil

	case "ArrayLiteral":
		elems, err := exprList(n, "values", path)
		if err != nil {
			return nil, true, err
		}
		return &ast.ArrayLit{Elems: elems, Span: spanOf(n)}, true, nil

	default:
		return nil, false, nil
	}
}

func decodeExpressionNodes(n map[string]any, typ, path string) (ast.Node, bool, error) {
	switch typ {
	case "Identifier":
		name, err := stringField(n, "name", path)
		if err != nil {
			return nil, true, err
		}
		return &ast.Ident{Name: name, Span: spanOf(n)}, true, nil

	case "FunctionCall":
		fn, err := stringField(n, "function", path)
		if err != nil {
			return nil, true, err
		}
		args, err := exprList(n, "arguments", path)
		if err != nil {
			return nil, true, err
		}
		return &ast.CallExpr{Func: fn, Args: args, Span: spanOf(n)}, true, nil

	case "MethodCall":
		recv, err := exprField(n, "base", path)
		if err != nil {
			return nil, true, err
		}
		name, err := stringField(n, "method", path)
		if err != nil {
			return nil, true, err
		}
		args, err := exprList(n, "arguments", path)
		if err != nil {
			return nil, true, err
		}
		return &ast.MethodCallExpr{Recv: recv, Name: name, Args: args, Span: spanOf(n)}, true, nil

	case "MemberAccess":
		x, err := exprField(n, "base", path)
		if err != nil {
			return nil, true, err
		}
		name, err := stringField(n, "member", path)
		if err != nil {
			return nil, true, err
		}
		return &ast.MemberExpr{X: x, Name: name, Span: spanOf(n)}, true, nil

	case "BinaryExpression":
		op, err := stringField(n, "operator", path)
		if err != nil {
			return nil, true, err
		}
		lhs, err := exprField(n, "lhs", path)
		if err != nil {
			return nil, true, err
		}
		rhs, err := exprField(n, "rhs", path)
		if err != nil {
			return nil, true, err
		}
		return &ast.BinaryExpr{Op: op, Left: lhs, Right: rhs, Span: spanOf(n)}, true, nil

	case "PrefixExpression":
		op, err := stringField(n, "operator", path)
		if err != nil {
			return nil, true, err
		}
		x, err := exprField(n, "operand", path)
		if err != nil {
			return nil, true, err
		}
		return &ast.PrefixExpr{Op: op, X: x, Span: spanOf(n)}, true, nil

	case "CastExpression":
		x, err := exprField(n, "base", path)
		if err != nil {
			return nil, true, err
		}
		t, err := typeField(n, "targetType", path)
		if err != nil {
			return nil, true, err
		}
		return &ast.CastExpr{X: x, Type: t, Span: spanOf(n)}, true, nil

	case "IndexExpression":
		x, err := exprField(n, "base", path)
		if err != nil {
			return nil, true, err
		}
		index, err := exprField(n, "index", path)
		if err != nil {
			return nil, true, err
		}
		return &ast.IndexExpr{X: x, Index: index, Span: spanOf(n)}, true, nil

	default:
		return nil, false, nil
	}
}

// Field helpers

func stringField(n map[string]any, key, path string) (string, error) {
	s, ok := n[key].(string)
	if !ok {
		return "", malformed(path+"."+key, "expected a string, got %s", kindOf(n[key]))
	}
	return s, nil
}

func typeField(n map[string]any, key, path string) (ast.TypeRef, error) {
	s, err := stringField(n, key, path)
	if err != nil {
		return ast.TypeRef{}, err
	}
	ref, err := parseTypeRef(s)
	if err != nil {
		return ast.TypeRef{}, malformed(path+"."+key, "%v", err)
	}
	ref.Span = spanOf(n)
	return ref, nil
}

func exprField(n map[string]any, key, path string) (ast.Expr, error) {
	raw, ok := n[key]
	if !ok || raw == nil {
		return nil, malformed(path+"."+key, "missing expression")
	}
	return decodeExpr(raw, path+"."+key)
}

func decodeExpr(raw any, path string) (ast.Expr, error) {
	node, err := decodeNode(raw, path)
	if err != nil {
		return nil, err
	}
	x, ok := node.(ast.Expr)
	if !ok {
		return nil, malformed(path, "%T is not an expression", node)
	}
	return x, nil
}

func list(n map[string]any, key, path string) ([]any, error) {
	raw, ok := n[key]
	if !ok || raw == nil {
		return nil, nil
	}
	l, ok := raw.([]any)
	if !ok {
		return nil, malformed(path+"."+key, "expected an array, got %s", kindOf(raw))
	}
	return l, nil
}

func exprList(n map[string]any, key, path string) ([]ast.Expr, error) {
	raw, err := list(n, key, path)
	if err != nil {
		return nil, err
	}
	var out []ast.Expr
	for i, v := range raw {
		x, err := decodeExpr(v, fmt.Sprintf("%s.%s[%d]", path, key, i))
		if err != nil {
			return nil, err
		}
		out = append(out, x)
	}
	return out, nil
}

// stmtList decodes a block. Bare expressions become expression statements.
func stmtList(n map[string]any, key, path string) ([]ast.Stmt, error) {
	raw, err := list(n, key, path)
	if err != nil {
		return nil, err
	}
	var out []ast.Stmt
	for i, v := range raw {
		elemPath := fmt.Sprintf("%s.%s[%d]", path, key, i)
		node, err := decodeNode(v, elemPath)
		if err != nil {
			return nil, err
		}
		switch node := node.(type) {
		case ast.Stmt:
			out = append(out, node)
		case ast.Expr:
			out = append(out, &ast.ExprStmt{X: node, Span: node.Pos()})
		default:
			return nil, malformed(elemPath, "%T cannot appear in a block", node)
		}
	}
	return out, nil
}

func paramList(n map[string]any, path string) ([]ast.Param, error) {
	raw, err := list(n, "arguments", path)
	if err != nil {
		return nil, err
	}
	params := make([]ast.Param, 0, len(raw))
	for i, v := range raw {
		p, ok := v.(map[string]any)
		elemPath := fmt.Sprintf("%s.arguments[%d]", path, i)
		if !ok {
			return nil, malformed(elemPath, "expected an object, got %s", kindOf(v))
		}
		name, err := stringField(p, "name", elemPath)
		if err != nil {
			return nil, err
		}
		t, err := typeField(p, "type", elemPath)
		if err != nil {
			return nil, err
		}
		params = append(params, ast.Param{Name: name, Type: t, Span: spanOf(p)})
	}
	return params, nil
}

func spanOf(n map[string]any) token.Span {
	raw, ok := n["span"].([]any)
	if !ok || len(raw) != 2 {
		return token.Span{}
	}
	start, err1 := intValue(raw[0], "")
	end, err2 := intValue(raw[1], "")
	if err1 != nil || err2 != nil {
		return token.Span{}
	}
	return token.NewSpan(int(start), int(end))
}

// Scalar values

func intValue(v any, path string) (int64, error) {
	num, ok := v.(json.Number)
	if !ok {
		return 0, malformed(path, "expected an integer, got %s", kindOf(v))
	}
	i, err := num.Int64()
	if err != nil {
		return 0, malformed(path, "integer %s out of range", num)
	}
	return i, nil
}

func decimalValue(v any, path string) (float64, error) {
	switch v := v.(type) {
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, malformed(path, "invalid decimal %s", v)
		}
		return f, nil
	case string:
		switch v {
		case "NaN":
			return math.NaN(), nil
		case "Infinity":
			return math.Inf(1), nil
		case "-Infinity":
			return math.Inf(-1), nil
		}
		return 0, malformed(path, "invalid decimal %q", v)
	default:
		return 0, malformed(path, "expected a decimal, got %s", kindOf(v))
	}
}

// charValue accepts a one-byte string or a byte value.
func charValue(v any, path string) (byte, error) {
	switch v := v.(type) {
	case string:
		if len(v) != 1 {
			return 0, malformed(path, "character literal must be one byte, got %q", v)
		}
		return v[0], nil
	case json.Number:
		i, err := v.Int64()
		if err != nil || i < 0 || i > math.MaxUint8 {
			return 0, malformed(path, "character value %s out of range", v)
		}
		return byte(i), nil
	default:
		return 0, malformed(path, "expected a character, got %s", kindOf(v))
	}
}
