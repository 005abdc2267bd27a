package front

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/loc"
	"tlog.app/go/tlog"

	"github.com/cmmlang/cmm/compiler/ast"
)

type (
	Parser struct{}

	parseState struct {
		tr   tlog.Span
		toks []Token
		i    int
	}
)

var exprStart = []Kind{Constant, Hyphen, Tilde, OpenParen}

// Parse builds a Program from the whole token sequence.
// The sequence must end with an EOF token.
// Nested expressions recurse on the goroutine stack.
func (p *Parser) Parse(ctx context.Context, toks []Token) (x *ast.Program, err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "front: parse", "tokens", len(toks))
	defer tr.Finish("err", &err)

	if len(toks) == 0 || toks[len(toks)-1].Kind != EOF {
		return nil, errors.New("token stream is not terminated by EOF")
	}

	s := &parseState{tr: tr, toks: toks}

	fn, err := s.parseFunc()
	if err != nil {
		return nil, errors.Wrap(err, "func")
	}

	_, err = s.expect(EOF)
	if err != nil {
		return nil, err
	}

	return &ast.Program{Func: fn}, nil
}

func (s *parseState) parseFunc() (fn *ast.Func, err error) {
	st, err := s.expect(KwInt)
	if err != nil {
		return nil, err
	}

	name, err := s.expect(Identifier)
	if err != nil {
		return nil, err
	}

	for _, k := range []Kind{OpenParen, KwVoid, CloseParen, OpenBrace} {
		_, err = s.expect(k)
		if err != nil {
			return nil, err
		}
	}

	stmt, err := s.parseStmt()
	if err != nil {
		return nil, errors.Wrap(err, "%v", name.Text)
	}

	end, err := s.expect(CloseBrace)
	if err != nil {
		return nil, err
	}

	fn = &ast.Func{
		Base: base(st, end),
		Name: name.Text,
		Body: []ast.Stmt{stmt},
	}

	return fn, nil
}

func (s *parseState) parseStmt() (ast.Stmt, error) {
	st, err := s.expect(KwReturn)
	if err != nil {
		return nil, err
	}

	x, err := s.parseExpr()
	if err != nil {
		return nil, errors.Wrap(err, "return value")
	}

	end, err := s.expect(Semicolon)
	if err != nil {
		return nil, err
	}

	return &ast.Return{Base: base(st, end), Value: x}, nil
}

func (s *parseState) parseExpr() (ast.Expr, error) {
	t := s.peek()

	switch t.Kind {
	case Constant:
		s.i++

		return &ast.Constant{Base: base(t, t), Value: t.Value}, nil
	case Hyphen, Tilde:
		s.i++

		op := ast.Negate
		if t.Kind == Tilde {
			op = ast.Complement
		}

		x, err := s.parseExpr()
		if err != nil {
			return nil, err
		}

		return &ast.Unary{
			Base: ast.Base{Pos: t.Pos.Off, End: endOf(x)},
			Op:   op,
			Expr: x,
		}, nil
	case OpenParen:
		s.i++

		x, err := s.parseExpr()
		if err != nil {
			return nil, err
		}

		_, err = s.expect(CloseParen)
		if err != nil {
			return nil, err
		}

		return x, nil
	}

	return nil, s.unexpected(t, exprStart...)
}

func (s *parseState) peek() Token {
	return s.toks[s.i]
}

func (s *parseState) expect(k Kind) (Token, error) {
	t := s.peek()
	if t.Kind != k {
		return t, s.unexpected(t, k)
	}

	if k != EOF {
		s.i++
	}

	return t, nil
}

func (s *parseState) unexpected(t Token, exp ...Kind) error {
	if s.tr.If("parse_error") {
		s.tr.Printw("unexpected token", "tok", t, "expected", exp, "from", loc.Caller(1))
	}

	return &ParseError{
		Found:    t,
		Expected: exp,
	}
}

func base(st, end Token) ast.Base {
	return ast.Base{Pos: st.Pos.Off, End: end.Pos.Off + len(end.Text)}
}

func endOf(x ast.Expr) int {
	switch x := x.(type) {
	case *ast.Constant:
		return x.End
	case *ast.Unary:
		return x.End
	default:
		panic(x)
	}
}
