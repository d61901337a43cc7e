package ir_test

import (
	"testing"

	"github.com/nalgeon/be"

	"falafel/internal/ir"
	"falafel/internal/types"
)

func TestReturns(t *testing.T) {
	ret := &ir.Return{Value: &ir.IntLit{Value: 1, T: types.Int}}
	cond := &ir.BoolLit{Value: true}

	tests := []struct {
		name  string
		stmts []ir.Stmt
		want  bool
	}{
		{"empty", nil, false},
		{"plain return", []ir.Stmt{ret}, true},
		{"return after statements", []ir.Stmt{&ir.ExprStmt{X: cond}, ret}, true},
		{"if without else", []ir.Stmt{&ir.If{Cond: cond, Then: []ir.Stmt{ret}}}, false},
		{"if with one returning branch", []ir.Stmt{&ir.If{Cond: cond, Then: []ir.Stmt{ret}, Else: []ir.Stmt{}}}, false},
		{"if with both branches", []ir.Stmt{&ir.If{Cond: cond, Then: []ir.Stmt{ret}, Else: []ir.Stmt{ret}}}, true},
		{"loop body", []ir.Stmt{&ir.While{Cond: cond, Body: []ir.Stmt{ret}}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			be.Equal(t, ir.Returns(tt.stmts), tt.want)
		})
	}
}

func TestExprTypes(t *testing.T) {
	optInt, err := types.Instantiate(types.Optional, []*types.Type{types.Int})
	be.Err(t, err, nil)

	be.True(t, (&ir.StringLit{Value: "x"}).Type() == types.String)
	be.True(t, (&ir.Interp{}).Type() == types.String)
	be.True(t, (&ir.CharLit{Value: 'a'}).Type() == types.Char)
	be.True(t, (&ir.NullLit{T: optInt}).Type() == optInt)
	be.True(t, (&ir.IntLit{Value: 2, T: types.Double}).Type() == types.Double)
}
