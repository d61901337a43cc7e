package checker

import (
	"falafel/internal/ast"
	"falafel/internal/ir"
)

type candidate interface {
	String() string
}

// resolve tries every candidate and expects exactly one to check. A single
// failing candidate reports its own error; several failures, or several
// successes, are aggregated into a CandidateError.
func resolve[T candidate](c *Checker, n ast.Node, what string, cands []T, try func(T) (ir.Expr, error)) (ir.Expr, error) {
	var (
		errs    []error
		matches []string
		result  ir.Expr
	)
	for _, cand := range cands {
		x, err := try(cand)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		matches = append(matches, cand.String())
		result = x
	}

	switch {
	case len(matches) == 1:
		return result, nil
	case len(matches) > 1:
		ce := &CandidateError{Msg: "multiple matches found for " + what, Matches: matches}
		return nil, c.wrapf(n, ce, "%s", ce.Error())
	case len(errs) == 1:
		return nil, errs[0]
	default:
		ce := &CandidateError{Msg: "no candidate for " + what + " matched", Errs: errs}
		return nil, c.wrapf(n, ce, "%s", ce.Error())
	}
}
