package front

import (
	"context"
	"strconv"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/cmmlang/cmm/compiler/ast"
	"github.com/cmmlang/cmm/compiler/ir"
)

type (
	// Gen lowers an AST into three-address IR.
	// A Gen value names temporaries from its own counter,
	// so a fresh one starts from tmp.0 again.
	Gen struct {
		next int
	}

	funScope struct {
		*Gen
		*ir.Func
	}
)

func (g *Gen) Generate(ctx context.Context, x *ast.Program) (p *ir.Program, err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "front: tacky")
	defer tr.Finish("err", &err)

	f, err := g.genFunc(x.Func)
	if err != nil {
		return nil, errors.Wrap(err, "func %v", x.Func.Name)
	}

	if tr.If("dump_tacky") {
		for i, in := range f.Body {
			tr.Printw("instr", "i", i, "typ", tlog.NextAsType, in, "val", in)
		}
	}

	return &ir.Program{Func: f}, nil
}

func (g *Gen) genFunc(fn *ast.Func) (*ir.Func, error) {
	s := funScope{
		Gen:  g,
		Func: &ir.Func{Name: fn.Name},
	}

	for _, st := range fn.Body {
		err := s.genStmt(st)
		if err != nil {
			return nil, err
		}
	}

	return s.Func, nil
}

func (s funScope) genStmt(st ast.Stmt) error {
	switch st := st.(type) {
	case *ast.Return:
		v, err := s.genExpr(st.Value)
		if err != nil {
			return errors.Wrap(err, "return value")
		}

		s.emit(ir.Return{Val: v})
	default:
		return errors.New("unsupported stmt: %T", st)
	}

	return nil
}

func (s funScope) genExpr(x ast.Expr) (ir.Val, error) {
	switch x := x.(type) {
	case *ast.Constant:
		return ir.Const(x.Value), nil
	case *ast.Unary:
		src, err := s.genExpr(x.Expr)
		if err != nil {
			return nil, err
		}

		dst := s.temp()

		s.emit(ir.Unary{Op: x.Op, Src: src, Dst: dst})

		return dst, nil
	default:
		return nil, errors.New("unsupported expr: %T", x)
	}
}

func (s funScope) emit(in ir.Instr) {
	s.Body = append(s.Body, in)
}

func (g *Gen) temp() ir.Temp {
	t := ir.Temp("tmp." + strconv.Itoa(g.next))
	g.next++

	return t
}
