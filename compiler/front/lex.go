package front

import (
	"context"
	"sort"
	"strconv"
	"unicode/utf8"

	"tlog.app/go/tlog"
)

type (
	Lexer struct{}

	lexState struct {
		b     []byte
		lines []int // offsets of line starts
	}
)

func (l *Lexer) Lex(ctx context.Context, text []byte) (toks []Token, err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "front: lex", "size", len(text))
	defer tr.Finish("err", &err)

	s := newLexState(text)

	for i := 0; ; {
		var t Token

		t, i, err = s.token(i)
		if err != nil {
			return nil, err
		}

		if tr.If("dump_tokens") {
			tr.Printw("token", "tok", t)
		}

		toks = append(toks, t)

		if t.Kind == EOF {
			return toks, nil
		}
	}
}

func newLexState(b []byte) *lexState {
	s := &lexState{b: b, lines: []int{0}}

	for i, c := range b {
		if c == '\n' {
			s.lines = append(s.lines, i+1)
		}
	}

	return s
}

// token returns the longest token starting at or after st.
func (s *lexState) token(st int) (t Token, i int, err error) {
	st, err = s.skipSpaces(st)
	if err != nil {
		return
	}

	b := s.b
	i = st

	if i == len(b) {
		return s.tok(EOF, i, i), i, nil
	}

	switch c := b[i]; c {
	case '-':
		if i+1 < len(b) && b[i+1] == '-' {
			return s.tok(DoubleHyphen, i, i+2), i + 2, nil
		}

		return s.tok(Hyphen, i, i+1), i + 1, nil
	case '~':
		return s.tok(Tilde, i, i+1), i + 1, nil
	case '(':
		return s.tok(OpenParen, i, i+1), i + 1, nil
	case ')':
		return s.tok(CloseParen, i, i+1), i + 1, nil
	case '{':
		return s.tok(OpenBrace, i, i+1), i + 1, nil
	case '}':
		return s.tok(CloseBrace, i, i+1), i + 1, nil
	case ';':
		return s.tok(Semicolon, i, i+1), i + 1, nil
	}

	switch c := b[i]; {
	case isDigit(c):
		return s.constant(st)
	case isIdentStart(c):
		i = s.skipIdent(i + 1)

		t = s.tok(Identifier, st, i)

		if k, ok := keywords[t.Text]; ok {
			t.Kind = k
		}

		return t, i, nil
	}

	_, w := utf8.DecodeRune(s.b[st:])

	return t, st, s.errorf(ErrUnexpectedChar, st, st+w)
}

func (s *lexState) constant(st int) (t Token, i int, err error) {
	i = st
	for i < len(s.b) && isDigit(s.b[i]) {
		i++
	}

	if i < len(s.b) && isIdentChar(s.b[i]) {
		return t, st, s.errorf(ErrInvalidConstant, st, s.skipIdent(i))
	}

	v, err := strconv.ParseInt(string(s.b[st:i]), 10, 32)
	if err != nil {
		return t, st, s.errorf(ErrInvalidConstant, st, i)
	}

	t = s.tok(Constant, st, i)
	t.Value = int32(v)

	return t, i, nil
}

func (s *lexState) skipSpaces(i int) (int, error) {
	b := s.b

	for i < len(b) {
		switch b[i] {
		case ' ', '\t', '\n', '\r', '\v', '\f':
			i++
			continue
		case '/':
			if i+1 == len(b) {
				return i, nil
			}

			switch b[i+1] {
			case '/':
				i = s.skipLine(i)
				continue
			case '*':
				e := s.skipComment(i + 2)
				if e < 0 {
					return i, s.errorf(ErrUnterminatedComment, i, i+2)
				}

				i = e
				continue
			}
		}

		break
	}

	return i, nil
}

func (s *lexState) skipLine(i int) int {
	for i < len(s.b) && s.b[i] != '\n' {
		i++
	}

	return i
}

func (s *lexState) skipComment(i int) int {
	for i+1 < len(s.b) {
		if s.b[i] == '*' && s.b[i+1] == '/' {
			return i + 2
		}

		i++
	}

	return -1
}

func (s *lexState) skipIdent(i int) int {
	for i < len(s.b) && isIdentChar(s.b[i]) {
		i++
	}

	return i
}

func (s *lexState) tok(k Kind, st, end int) Token {
	return Token{
		Kind: k,
		Text: string(s.b[st:end]),
		Pos:  s.pos(st),
	}
}

func (s *lexState) errorf(err error, st, end int) *LexError {
	return &LexError{
		Err:   err,
		Pos:   s.pos(st),
		Found: string(s.b[st:end]),
	}
}

func (s *lexState) pos(off int) Pos {
	l := sort.SearchInts(s.lines, off+1) - 1

	return Pos{
		Off:  off,
		Line: l + 1,
		Col:  off - s.lines[l] + 1,
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c == '_'
}

func isIdentChar(c byte) bool { return isIdentStart(c) || isDigit(c) }
