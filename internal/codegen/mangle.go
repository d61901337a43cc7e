package codegen

import (
	"strconv"
	"strings"

	"falafel/internal/types"
)

// Per-argument categories packed into mangled symbols.
const (
	primitiveTag uint64 = 0b00
	objectTag    uint64 = 0b01
	structTag    uint64 = 0b10
	genericTag   uint64 = 0b11
)

const base63Alphabet = "abcdefghijklmnopqrstuvwxyz0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ_"

// Symbol returns the target name of m: its fixed target for built-ins that
// have one, the mangled name otherwise.
func Symbol(m *types.Method) string {
	if m.Target != "" {
		return m.Target
	}
	return Mangle(m)
}

// Mangle encodes a method's name, return shape and argument categories so
// every statically resolved overload gets its own symbol:
//
//	f_<name><return><base63(argument tags)>
//
// The argument word starts with a sentinel 1 bit so leading primitive tags
// survive.
func Mangle(m *types.Method) string {
	enc := uint64(1)
	for i, a := range m.Args {
		enc <<= 2
		switch {
		case m.GenericMask&(1<<uint(i)) != 0:
			enc |= genericTag
		case a.IsObject:
			enc |= objectTag
		case types.IsPrimitive(a):
			enc |= primitiveTag
		default:
			enc |= structTag
		}
	}
	return "f_" + m.Name + mangleType(m.Return) + toBase63(enc)
}

func mangleType(t *types.Type) string {
	switch {
	case t.IsGenericPlaceholder:
		return "t"
	case types.IsPrimitive(t):
		return strings.ToLower(t.Name[:1])
	case types.Equal(t, types.String):
		return "s"
	case types.Equal(t, types.Object):
		return "o"
	case types.InstanceOf(t, types.Array) && len(t.Generics) == 1:
		return "a" + mangleType(t.Generics[0])
	case types.InstanceOf(t, types.Optional) && len(t.Generics) == 1:
		return "o" + mangleType(t.Generics[0])
	}

	var sb strings.Builder
	if t.IsObject {
		sb.WriteByte('O')
	} else {
		sb.WriteByte('S')
	}
	sb.WriteString(strconv.Itoa(len(t.Name)))
	sb.WriteString(t.Name)
	if len(t.Generics) > 0 {
		sb.WriteString(strconv.Itoa(len(t.Generics)))
		sb.WriteByte('_')
		for _, g := range t.Generics {
			sb.WriteString(mangleType(g))
		}
	}
	return sb.String()
}

// toBase63 renders v most significant digit first.
func toBase63(v uint64) string {
	if v == 0 {
		return base63Alphabet[:1]
	}
	var digits []byte
	for v != 0 {
		digits = append(digits, base63Alphabet[v%63])
		v /= 63
	}
	for i, j := 0, len(digits)-1; i < j; i, j = i+1, j-1 {
		digits[i], digits[j] = digits[j], digits[i]
	}
	return string(digits)
}
