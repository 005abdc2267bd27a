package back

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmmlang/cmm/compiler/asm"
	"github.com/cmmlang/cmm/compiler/front"
	"github.com/cmmlang/cmm/compiler/ir"
)

// machine runs the instruction subset the backend produces.
type machine struct {
	regs  map[asm.Reg]int32
	stack map[asm.Stack]int32
	frame int
}

func run(t *testing.T, f *asm.Func) int32 {
	t.Helper()

	m := &machine{
		regs:  map[asm.Reg]int32{},
		stack: map[asm.Stack]int32{},
	}

	for i, x := range f.Body {
		switch x := x.(type) {
		case asm.AllocateStack:
			require.Equal(t, 0, i, "stack allocated mid function")
			m.frame = x.Size
		case asm.Mov:
			require.False(t, isStack(x.Src) && isStack(x.Dst), "memory to memory mov at %d", i)
			m.store(t, x.Dst, m.load(t, x.Src))
		case asm.Unary:
			v := m.load(t, x.Dst)

			switch x.Op {
			case asm.Neg:
				v = -v
			case asm.Not:
				v = ^v
			default:
				t.Fatalf("bad op: %v", x.Op)
			}

			m.store(t, x.Dst, v)
		case asm.Ret:
			return m.regs[asm.AX]
		default:
			t.Fatalf("unexpected instruction: %T", x)
		}
	}

	t.Fatalf("no ret")

	return 0
}

func (m *machine) load(t *testing.T, o asm.Operand) int32 {
	switch o := o.(type) {
	case asm.Imm:
		return int32(o)
	case asm.Reg:
		return m.regs[o]
	case asm.Stack:
		m.check(t, o)
		return m.stack[o]
	}

	t.Fatalf("bad operand: %#v", o)

	return 0
}

func (m *machine) store(t *testing.T, o asm.Operand, v int32) {
	switch o := o.(type) {
	case asm.Reg:
		m.regs[o] = v
	case asm.Stack:
		m.check(t, o)
		m.stack[o] = v
	default:
		t.Fatalf("bad destination: %#v", o)
	}
}

func (m *machine) check(t *testing.T, s asm.Stack) {
	require.True(t, int(s) < 0 && int(s) >= -m.frame, "slot %d outside frame of %d", s, m.frame)
}

func compile(t *testing.T, body ...ir.Instr) *asm.Func {
	t.Helper()

	p, err := New().Compile(context.Background(), &ir.Program{Func: &ir.Func{Name: "main", Body: body}})
	require.NoError(t, err)

	return p.Func
}

func TestReturnConstant(t *testing.T) {
	f := compile(t, ir.Return{Val: ir.Const(2)})

	assert.Equal(t, &asm.Func{
		Name: "main",
		Body: []asm.Instr{
			asm.AllocateStack{Size: 0},
			asm.Mov{Src: asm.Imm(2), Dst: asm.AX},
			asm.Ret{},
		},
	}, f)

	assert.Equal(t, int32(2), run(t, f))
}

func TestUnaryChain(t *testing.T) {
	f := compile(t,
		ir.Unary{Op: ir.Complement, Src: ir.Const(2), Dst: "tmp.0"},
		ir.Unary{Op: ir.Negate, Src: ir.Temp("tmp.0"), Dst: "tmp.1"},
		ir.Return{Val: ir.Temp("tmp.1")},
	)

	assert.Equal(t, []asm.Instr{
		asm.AllocateStack{Size: 16},
		asm.Mov{Src: asm.Imm(2), Dst: asm.Stack(-4)},
		asm.Unary{Op: asm.Not, Dst: asm.Stack(-4)},
		asm.Mov{Src: asm.Stack(-4), Dst: asm.R10},
		asm.Mov{Src: asm.R10, Dst: asm.Stack(-8)},
		asm.Unary{Op: asm.Neg, Dst: asm.Stack(-8)},
		asm.Mov{Src: asm.Stack(-8), Dst: asm.AX},
		asm.Ret{},
	}, f.Body)

	assert.Equal(t, int32(3), run(t, f))
}

func TestStackAlignment(t *testing.T) {
	for _, n := range []int{1, 3, 4, 5, 8, 9, 33} {
		var body []ir.Instr
		var src ir.Val = ir.Const(7)

		for i := 0; i < n; i++ {
			dst := ir.Temp("tmp." + string(rune('a'+i%26)) + string(rune('0'+i/26)))
			body = append(body, ir.Unary{Op: ir.Negate, Src: src, Dst: dst})
			src = dst
		}

		body = append(body, ir.Return{Val: src})

		f := compile(t, body...)

		alloc, ok := f.Body[0].(asm.AllocateStack)
		require.True(t, ok)

		assert.Zero(t, alloc.Size%StackAlign, "n %d", n)
		assert.GreaterOrEqual(t, alloc.Size, n*SlotSize, "n %d", n)
		assert.Less(t, alloc.Size, n*SlotSize+StackAlign, "n %d", n)

		want := int32(7)
		if n%2 == 1 {
			want = -7
		}

		assert.Equal(t, want, run(t, f), "n %d", n)
	}
}

func TestNoPseudoLeft(t *testing.T) {
	f := compile(t,
		ir.Unary{Op: ir.Negate, Src: ir.Const(1), Dst: "a"},
		ir.Unary{Op: ir.Complement, Src: ir.Temp("a"), Dst: "b"},
		ir.Return{Val: ir.Temp("b")},
	)

	slots := map[asm.Stack]bool{}

	for _, x := range f.Body {
		var ops []asm.Operand

		switch x := x.(type) {
		case asm.Mov:
			ops = []asm.Operand{x.Src, x.Dst}
		case asm.Unary:
			ops = []asm.Operand{x.Dst}
		}

		for _, o := range ops {
			_, pseudo := o.(asm.Pseudo)
			assert.False(t, pseudo, "unresolved %v", o)

			if s, ok := o.(asm.Stack); ok {
				slots[s] = true
			}
		}
	}

	assert.Equal(t, map[asm.Stack]bool{-4: true, -8: true}, slots)
	assert.Equal(t, int32(0), run(t, f))
}

func compileSource(t *testing.T, src string) *asm.Func {
	t.Helper()

	ctx := context.Background()

	var l front.Lexer
	var p front.Parser
	var g front.Gen

	toks, err := l.Lex(ctx, []byte(src))
	require.NoError(t, err)

	x, err := p.Parse(ctx, toks)
	require.NoError(t, err)

	y, err := g.Generate(ctx, x)
	require.NoError(t, err)

	z, err := New().Compile(ctx, y)
	require.NoError(t, err)

	return z.Func
}

func TestExitStatus(t *testing.T) {
	for _, tc := range []struct {
		expr   string
		status uint8
	}{
		{"2", 2},
		{"0", 0},
		{"255", 255},
		{"256", 0},
		{"-2", 254},
		{"~2", 253},
		{"~~2", 2},
		{"~~-2", 254},
		{"~-~2", 252},
		{"-~2", 3},
		{"~(-(~2))", 252},
		{"- -2", 2},
		{"-(-(-(1)))", 255},
		{"2147483647", 255},
		{"-2147483647", 1},
		{"~2147483647", 0},
		{"-~2147483647", 0},
	} {
		t.Run(tc.expr, func(t *testing.T) {
			f := compileSource(t, "int main(void) { return "+tc.expr+"; }")

			assert.Equal(t, tc.status, uint8(run(t, f)))
		})
	}
}

// TestNestingLaw checks that a chain of unary operators evaluates innermost first.
func TestNestingLaw(t *testing.T) {
	ops := []struct {
		text string
		f    func(int32) int32
	}{
		{"-", func(x int32) int32 { return -x }},
		{"~", func(x int32) int32 { return ^x }},
	}

	for mask := 0; mask < 1<<6; mask++ {
		for depth := 1; depth <= 6; depth++ {
			src := ""
			var fs []func(int32) int32

			for i := 0; i < depth; i++ {
				op := ops[mask>>i&1]

				src += op.text + "("
				fs = append(fs, op.f)
			}

			src += "5"

			for i := 0; i < depth; i++ {
				src += ")"
			}

			want := int32(5)
			for i := len(fs) - 1; i >= 0; i-- {
				want = fs[i](want)
			}

			f := compileSource(t, "int main(void) { return "+src+"; }")

			assert.Equal(t, uint8(want), uint8(run(t, f)), "%s", src)
		}
	}
}

func TestUnsupported(t *testing.T) {
	_, err := New().Compile(context.Background(), &ir.Program{Func: &ir.Func{
		Name: "main",
		Body: []ir.Instr{
			ir.Unary{Op: 100, Src: ir.Const(1), Dst: "a"},
		},
	}})
	assert.Error(t, err)
}
