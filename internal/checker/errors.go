package checker

import (
	"fmt"
	"strings"
)

// TypeCheckError is a user-facing type error. Line is 1-based, or 0 when no
// position was available.
type TypeCheckError struct {
	Msg  string
	Line int
	Err  error
}

func (e *TypeCheckError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	}
	return e.Msg
}

func (e *TypeCheckError) Unwrap() error { return e.Err }

// CandidateError aggregates an overload or operator resolution that did not
// end with exactly one match: either every candidate failed (Errs holds each
// failure) or several succeeded (Matches names them).
type CandidateError struct {
	Msg     string
	Matches []string
	Errs    []error
}

func (e *CandidateError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Msg)
	if len(e.Matches) > 0 {
		sb.WriteString(": ")
		sb.WriteString(strings.Join(e.Matches, ", "))
	}
	for i, err := range e.Errs {
		if i == 0 {
			sb.WriteString(": ")
		} else {
			sb.WriteString("; ")
		}
		sb.WriteString(err.Error())
	}
	return sb.String()
}

func (e *CandidateError) Unwrap() []error { return e.Errs }

// Warning is a non-fatal diagnostic.
type Warning struct {
	Line int
	Msg  string
}

func (w Warning) String() string {
	if w.Line > 0 {
		return fmt.Sprintf("line %d: %s", w.Line, w.Msg)
	}
	return w.Msg
}
