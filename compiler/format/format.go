package format

import (
	"context"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"

	"github.com/cmmlang/cmm/compiler/asm"
	"github.com/cmmlang/cmm/compiler/ast"
	"github.com/cmmlang/cmm/compiler/front"
	"github.com/cmmlang/cmm/compiler/ir"
)

// Format appends a human readable rendering of a pipeline artifact to b.
func Format(ctx context.Context, b []byte, x any) ([]byte, error) {
	switch x := x.(type) {
	case []front.Token:
		return formatTokens(b, x), nil
	case *ast.Program:
		return formatAST(b, x, 0)
	case *ir.Program:
		return formatIR(b, x)
	case *asm.Program:
		return formatAsm(b, x)
	default:
		return nil, errors.New("unsupported type: %T", x)
	}
}

func formatTokens(b []byte, toks []front.Token) []byte {
	for _, t := range toks {
		b = app(b, 0, "%-6s %v\n", t.Pos.String(), t)
	}

	return b
}

func formatAST(b []byte, x ast.Node, d int) (_ []byte, err error) {
	switch x := x.(type) {
	case *ast.Program:
		b = app(b, d, "Program\n")

		return formatAST(b, x.Func, d+1)
	case *ast.Func:
		b = app(b, d, "Function %s\n", x.Name)

		for _, s := range x.Body {
			b, err = formatAST(b, s, d+1)
			if err != nil {
				return nil, errors.Wrap(err, "func %v", x.Name)
			}
		}
	case *ast.Return:
		b = app(b, d, "Return\n")

		return formatAST(b, x.Value, d+1)
	case *ast.Unary:
		b = app(b, d, "%v\n", x.Op)

		return formatAST(b, x.Expr, d+1)
	case *ast.Constant:
		b = app(b, d, "Constant %d\n", x.Value)
	default:
		return nil, errors.New("unsupported node: %T", x)
	}

	return b, nil
}

func formatIR(b []byte, p *ir.Program) ([]byte, error) {
	b = app(b, 0, "func %s:\n", p.Func.Name)

	for _, x := range p.Func.Body {
		switch x := x.(type) {
		case ir.Return:
			b = app(b, 1, "return %v\n", irVal(x.Val))
		case ir.Unary:
			b = app(b, 1, "%v = %v %v\n", x.Dst, irOp(x.Op), irVal(x.Src))
		default:
			return nil, errors.New("unsupported instr: %T", x)
		}
	}

	return b, nil
}

func irVal(v ir.Val) any {
	switch v := v.(type) {
	case ir.Const:
		return int32(v)
	case ir.Temp:
		return string(v)
	default:
		return v
	}
}

func irOp(op ir.UnaryOp) string {
	switch op {
	case ir.Negate:
		return "negate"
	case ir.Complement:
		return "complement"
	default:
		return op.String()
	}
}

func formatAsm(b []byte, p *asm.Program) ([]byte, error) {
	b = app(b, 0, "Function %s\n", p.Func.Name)

	for _, x := range p.Func.Body {
		switch x := x.(type) {
		case asm.Mov:
			b = app(b, 1, "Mov %v, %v\n", asmOperand(x.Src), asmOperand(x.Dst))
		case asm.Unary:
			b = app(b, 1, "%v %v\n", x.Op, asmOperand(x.Dst))
		case asm.AllocateStack:
			b = app(b, 1, "AllocateStack %d\n", x.Size)
		case asm.Ret:
			b = app(b, 1, "Ret\n")
		default:
			return nil, errors.New("unsupported instr: %T", x)
		}
	}

	return b, nil
}

func asmOperand(o asm.Operand) string {
	switch o := o.(type) {
	case asm.Imm:
		return string(hfmt.Appendf(nil, "Imm(%d)", int32(o)))
	case asm.Reg:
		return "Reg(" + o.String() + ")"
	case asm.Pseudo:
		return "Pseudo(" + string(o) + ")"
	case asm.Stack:
		return string(hfmt.Appendf(nil, "Stack(%d)", int(o)))
	default:
		return string(hfmt.Appendf(nil, "%v", o))
	}
}

func app(b []byte, d int, f string, args ...any) []byte {
	for i := 0; i < d; i++ {
		b = append(b, "  "...)
	}

	b = hfmt.Appendf(b, f, args...)
	return b
}
