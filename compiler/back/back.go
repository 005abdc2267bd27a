package back

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/cmmlang/cmm/compiler/asm"
	"github.com/cmmlang/cmm/compiler/ir"
)

type (
	Compiler struct{}

	funContext struct {
		*asm.Func

		slots map[asm.Pseudo]asm.Stack
		size  int
	}
)

const (
	SlotSize   = 4
	StackAlign = 16
)

func New() *Compiler { return &Compiler{} }

// Compile lowers the IR program into an assembly program
// with every value placed in its own stack slot.
func (c *Compiler) Compile(ctx context.Context, p *ir.Program) (_ *asm.Program, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "back: compile program")
	defer tr.Finish("err", &err)

	f, err := c.compileFunc(ctx, p.Func)
	if err != nil {
		return nil, errors.Wrap(err, "func %v", p.Func.Name)
	}

	return &asm.Program{Func: f}, nil
}

func (c *Compiler) compileFunc(ctx context.Context, fn *ir.Func) (_ *asm.Func, err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "compile func", "name", fn.Name, "instrs", len(fn.Body))
	defer tr.Finish("err", &err)

	f := &funContext{
		Func:  &asm.Func{Name: fn.Name},
		slots: make(map[asm.Pseudo]asm.Stack),
	}

	for i, x := range fn.Body {
		err = f.lower(x)
		if err != nil {
			return nil, errors.Wrap(err, "instr %d", i)
		}
	}

	if tr.If("dump_func_before") {
		for i, x := range f.Body {
			tr.Printw("code before", "i", i, "typ", tlog.NextAsType, x, "val", x)
		}
	}

	f.resolve()
	f.allocate()
	f.fixup()

	tr.Printw("stack frame", "slots", len(f.slots), "size", f.size)

	if tr.If("dump_func_after") {
		for i, x := range f.Body {
			tr.Printw("code after", "i", i, "typ", tlog.NextAsType, x, "val", x)
		}
	}

	return f.Func, nil
}

func (f *funContext) lower(x ir.Instr) error {
	switch x := x.(type) {
	case ir.Return:
		f.emit(
			asm.Mov{Src: operand(x.Val), Dst: asm.AX},
			asm.Ret{},
		)
	case ir.Unary:
		var op asm.UnaryOp

		switch x.Op {
		case ir.Negate:
			op = asm.Neg
		case ir.Complement:
			op = asm.Not
		default:
			return errors.New("unsupported unary op: %v", x.Op)
		}

		dst := operand(x.Dst)

		f.emit(
			asm.Mov{Src: operand(x.Src), Dst: dst},
			asm.Unary{Op: op, Dst: dst},
		)
	default:
		return errors.New("unsupported instruction: %T", x)
	}

	return nil
}

func operand(v ir.Val) asm.Operand {
	switch v := v.(type) {
	case ir.Const:
		return asm.Imm(v)
	case ir.Temp:
		return asm.Pseudo(v)
	default:
		panic(v)
	}
}

// resolve replaces pseudo registers with stack slots.
// Slots are assigned in order of first appearance and never reused.
func (f *funContext) resolve() {
	for i, x := range f.Body {
		switch x := x.(type) {
		case asm.Mov:
			x.Src = f.slot(x.Src)
			x.Dst = f.slot(x.Dst)

			f.Body[i] = x
		case asm.Unary:
			x.Dst = f.slot(x.Dst)

			f.Body[i] = x
		}
	}
}

func (f *funContext) slot(o asm.Operand) asm.Operand {
	p, ok := o.(asm.Pseudo)
	if !ok {
		return o
	}

	if s, ok := f.slots[p]; ok {
		return s
	}

	f.size += SlotSize

	s := asm.Stack(-f.size)
	f.slots[p] = s

	return s
}

// allocate prepends the frame reservation rounded up to StackAlign.
func (f *funContext) allocate() {
	size := (f.size + StackAlign - 1) / StackAlign * StackAlign

	f.Body = append([]asm.Instr{asm.AllocateStack{Size: size}}, f.Body...)
}

// fixup rewrites instructions x86 can't encode.
// Memory to memory moves go through R10.
func (f *funContext) fixup() {
	code := make([]asm.Instr, 0, len(f.Body))

	for _, x := range f.Body {
		mov, ok := x.(asm.Mov)
		if !ok || !isStack(mov.Src) || !isStack(mov.Dst) {
			code = append(code, x)
			continue
		}

		code = append(code,
			asm.Mov{Src: mov.Src, Dst: asm.R10},
			asm.Mov{Src: asm.R10, Dst: mov.Dst},
		)
	}

	f.Body = code
}

func (f *funContext) emit(x ...asm.Instr) {
	f.Body = append(f.Body, x...)
}

func isStack(o asm.Operand) bool {
	_, ok := o.(asm.Stack)
	return ok
}
