package asm

import (
	"strconv"

	"tlog.app/go/tlog/tlwire"
)

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

	Mov struct {
		Src Operand
		Dst Operand
	}

	Unary struct {
		Op  UnaryOp
		Dst Operand
	}

	// AllocateStack reserves Size bytes below the frame base.
	AllocateStack struct {
		Size int
	}

	// Ret restores the caller's frame and returns.
	Ret struct{}

	Operand interface {
		operand()
	}

	Imm int32

	Reg int

	// Pseudo names a value not yet assigned a location.
	Pseudo string

	// Stack is a slot at Stack bytes from the frame base.
	Stack int

	UnaryOp int
)

const (
	AX Reg = iota
	R10
)

const (
	Neg UnaryOp = iota + 1
	Not
)

func (Mov) instr() {}
func (Unary) instr() {}
func (AllocateStack) instr() {}
func (Ret) instr() {}

func (Imm) operand() {}
func (Reg) operand() {}
func (Pseudo) operand() {}
func (Stack) operand() {}

func (r Reg) String() string {
	switch r {
	case AX:
		return "AX"
	case R10:
		return "R10"
	default:
		return "Reg(" + strconv.Itoa(int(r)) + ")"
	}
}

func (op UnaryOp) String() string {
	switch op {
	case Neg:
		return "Neg"
	case Not:
		return "Not"
	default:
		return "UnaryOp(" + strconv.Itoa(int(op)) + ")"
	}
}

func (r Reg) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	return e.AppendString(b, r.String())
}
