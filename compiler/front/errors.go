package front

import (
	"strconv"
	"strings"

	"tlog.app/go/errors"
)

type (
	// LexError reports the first input the lexer could not turn into a token.
	LexError struct {
		Err   error
		Pos   Pos
		Found string
	}

	// ParseError reports the first token that matched no production
	// together with the token kinds acceptable at that point.
	ParseError struct {
		Found    Token
		Expected []Kind
	}
)

var (
	ErrUnexpectedChar      = errors.New("unexpected character")
	ErrInvalidConstant     = errors.New("invalid constant")
	ErrUnterminatedComment = errors.New("unterminated comment")
	ErrUnexpectedToken     = errors.New("unexpected token")
)

func (e *LexError) Error() string {
	return e.Pos.String() + ": " + e.Err.Error() + " " + strconv.Quote(e.Found)
}

func (e *LexError) Unwrap() error { return e.Err }

func (e *ParseError) Error() string {
	var b strings.Builder

	b.WriteString(e.Found.Pos.String())
	b.WriteString(": unexpected token ")
	b.WriteString(e.Found.Kind.String())

	if e.Found.Kind != EOF {
		b.WriteString(" ")
		b.WriteString(strconv.Quote(e.Found.Text))
	}

	if len(e.Expected) == 1 {
		b.WriteString(", expected ")
		b.WriteString(e.Expected[0].String())

		return b.String()
	}

	b.WriteString(", expected one of [")

	for i, k := range e.Expected {
		if i != 0 {
			b.WriteString(" ")
		}

		b.WriteString(k.String())
	}

	b.WriteString("]")

	return b.String()
}

func (e *ParseError) Unwrap() error { return ErrUnexpectedToken }
