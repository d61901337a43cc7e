package loader

import (
	"fmt"
	"unicode"

	"falafel/internal/ast"
)

// parseTypeRef reads a type name as written in source:
//
//	Name
//	Name<Arg, Arg, ...>
func parseTypeRef(s string) (ast.TypeRef, error) {
	p := &typeParser{src: s}
	ref, err := p.ref()
	if err != nil {
		return ast.TypeRef{}, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return ast.TypeRef{}, fmt.Errorf("unexpected %q in type %q", p.src[p.pos:], s)
	}
	return ref, nil
}

type typeParser struct {
	src string
	pos int
}

func (p *typeParser) ref() (ast.TypeRef, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) && isNameByte(p.src[p.pos]) {
		p.pos++
	}
	if start == p.pos {
		return ast.TypeRef{}, fmt.Errorf("expected a type name at offset %d in %q", start, p.src)
	}
	ref := ast.TypeRef{Name: p.src[start:p.pos]}

	p.skipSpace()
	if !p.accept('<') {
		return ref, nil
	}
	for {
		arg, err := p.ref()
		if err != nil {
			return ast.TypeRef{}, err
		}
		ref.Args = append(ref.Args, arg)
		p.skipSpace()
		if p.accept(',') {
			continue
		}
		if p.accept('>') {
			return ref, nil
		}
		return ast.TypeRef{}, fmt.Errorf("unterminated type arguments in %q", p.src)
	}
}

func (p *typeParser) accept(c byte) bool {
	if p.pos < len(p.src) && p.src[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func isNameByte(c byte) bool {
	return c == '_' || '0' <= c && c <= '9' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}
