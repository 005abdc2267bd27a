package amd64

import (
	"context"
	"strings"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/cmmlang/cmm/compiler/asm"
)

type (
	// Target selects the object format conventions of the output.
	Target int

	Emitter struct {
		Target Target
	}
)

const (
	Darwin Target = iota // Mach-O: global symbols get a leading underscore
	Linux                // ELF: plain symbols, non-executable stack note
)

func ParseTarget(s string) (Target, error) {
	switch strings.ToLower(s) {
	case "darwin", "macos", "macho":
		return Darwin, nil
	case "linux", "elf":
		return Linux, nil
	default:
		return 0, errors.New("unsupported target: %q", s)
	}
}

func (t Target) String() string {
	switch t {
	case Darwin:
		return "darwin"
	case Linux:
		return "linux"
	default:
		return "target?"
	}
}

// Emit appends the assembly text of p to b.
// All operands must be resolved: emitting a pseudo register panics.
func (e *Emitter) Emit(ctx context.Context, b []byte, p *asm.Program) []byte {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "amd64: emit", "target", e.Target)
	defer tr.Finish()

	st := len(b)

	b = e.emitFunc(b, p.Func)

	if e.Target == Linux {
		b = append(b, "\t.section .note.GNU-stack,\"\",@progbits\n"...)
	}

	tr.Printw("emitted", "size", len(b)-st)

	return b
}

func (e *Emitter) emitFunc(b []byte, f *asm.Func) []byte {
	name := e.symbol(f.Name)

	b = hfmt.Appendf(b, "\t.globl %s\n", name)
	b = hfmt.Appendf(b, "%s:\n", name)
	b = append(b, "\tpushq %rbp\n"...)
	b = append(b, "\tmovq %rsp, %rbp\n"...)

	for _, x := range f.Body {
		b = emitInstr(b, x)
	}

	return b
}

func emitInstr(b []byte, x asm.Instr) []byte {
	switch x := x.(type) {
	case asm.Mov:
		b = append(b, "\tmovl "...)
		b = appendOperand(b, x.Src)
		b = append(b, ", "...)
		b = appendOperand(b, x.Dst)
	case asm.Unary:
		b = hfmt.Appendf(b, "\t%s ", unaryMnemonic(x.Op))
		b = appendOperand(b, x.Dst)
	case asm.AllocateStack:
		b = hfmt.Appendf(b, "\tsubq $%d, %%rsp", x.Size)
	case asm.Ret:
		b = append(b, "\tmovq %rbp, %rsp\n"...)
		b = append(b, "\tpopq %rbp\n"...)
		b = append(b, "\tret"...)
	default:
		panic(x)
	}

	return append(b, '\n')
}

func unaryMnemonic(op asm.UnaryOp) string {
	switch op {
	case asm.Neg:
		return "negl"
	case asm.Not:
		return "notl"
	default:
		panic(op)
	}
}

func appendOperand(b []byte, o asm.Operand) []byte {
	switch o := o.(type) {
	case asm.Imm:
		return hfmt.Appendf(b, "$%d", int32(o))
	case asm.Reg:
		return append(b, register(o)...)
	case asm.Stack:
		return hfmt.Appendf(b, "%d(%%rbp)", int(o))
	case asm.Pseudo:
		panic("unresolved pseudo register: " + string(o))
	default:
		panic(o)
	}
}

func register(r asm.Reg) string {
	switch r {
	case asm.AX:
		return "%eax"
	case asm.R10:
		return "%r10d"
	default:
		panic(r)
	}
}

func (e *Emitter) symbol(name string) string {
	if e.Target == Darwin {
		return "_" + name
	}

	return name
}
