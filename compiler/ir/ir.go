package ir

import "github.com/cmmlang/cmm/compiler/ast"

type (
	Program struct {
		Func *Func
	}

	Func struct {
		Name string
		Body []Instr
	}

	Instr interface {
		instr()
	}

	Return struct {
		Val Val
	}

	Unary struct {
		Op  UnaryOp
		Src Val
		Dst Temp
	}

	Val interface {
		val()
	}

	Const int32

	// Temp is a single-assignment temporary.
	Temp string

	UnaryOp = ast.UnaryOp
)

const (
	Negate     = ast.Negate
	Complement = ast.Complement
)

func (Return) instr() {}
func (Unary) instr() {}

func (Const) val() {}
func (Temp) val() {}
