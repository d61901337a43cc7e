// Package loader reads the JSON syntax tree produced by the parser front end.
//
// A document maps one source path to its unit:
//
//	{"main.fl": {"body": [node, ...], "newlines": [12, 30, ...]}}
//
// Every node is an object with a "type" tag and an optional "span" of two
// byte offsets. Expressions found where a statement is expected become
// expression statements. Type names are written as source text, e.g.
// "Array<Optional<Int>>".
package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"falafel/internal/ast"
	"falafel/internal/token"
)

var (
	ErrNoUnit        = errors.New("document has no translation unit")
	ErrMultipleUnits = errors.New("only one translation unit per compilation is supported")
	ErrUnknownNode   = errors.New("unknown node type")
	ErrMalformed     = errors.New("malformed syntax tree")
)

// Load reads and decodes the document at path.
func Load(path string) (*ast.Unit, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	u, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return u, nil
}

// Decode reads a single-unit document from r.
func Decode(r io.Reader) (*ast.Unit, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch len(doc) {
	case 0:
		return nil, ErrNoUnit
	case 1:
	default:
		names := make([]string, 0, len(doc))
		for name := range doc {
			names = append(names, name)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("%w: got %s", ErrMultipleUnits, strings.Join(names, ", "))
	}

	var (
		name string
		raw  any
	)
	for name, raw = range doc {
	}
	return decodeUnit(name, raw)
}

func decodeUnit(name string, raw any) (*ast.Unit, error) {
	n, ok := raw.(map[string]any)
	if !ok {
		return nil, malformed(name, "unit must be an object, got %s", kindOf(raw))
	}

	body, err := stmtList(n, "body", name)
	if err != nil {
		return nil, err
	}

	var newlines []int
	if vals, ok := n["newlines"]; ok {
		list, ok := vals.([]any)
		if !ok {
			return nil, malformed(name+".newlines", "expected an array, got %s", kindOf(vals))
		}
		newlines = make([]int, len(list))
		for i, v := range list {
			off, err := intValue(v, fmt.Sprintf("%s.newlines[%d]", name, i))
			if err != nil {
				return nil, err
			}
			newlines[i] = int(off)
		}
	}

	return &ast.Unit{Name: name, Nodes: body, Lines: token.NewLineTable(newlines)}, nil
}

func malformed(path, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrMalformed, path, fmt.Sprintf(format, args...))
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
