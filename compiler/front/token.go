package front

import (
	"strconv"

	"tlog.app/go/tlog/tlwire"
)

type (
	Kind int

	Token struct {
		Kind Kind
		Text string // lexeme as written
		Pos  Pos

		Value int32 // Constant only
	}

	Pos struct {
		Off  int
		Line int
		Col  int
	}
)

const (
	EOF Kind = iota

	Constant
	Identifier

	KwInt
	KwVoid
	KwReturn

	Hyphen
	DoubleHyphen
	Tilde

	OpenParen
	CloseParen
	OpenBrace
	CloseBrace
	Semicolon
)

var kindNames = [...]string{
	EOF:          "EOF",
	Constant:     "Constant",
	Identifier:   "Identifier",
	KwInt:        "Keyword(int)",
	KwVoid:       "Keyword(void)",
	KwReturn:     "Keyword(return)",
	Hyphen:       "Hyphen",
	DoubleHyphen: "DoubleHyphen",
	Tilde:        "Tilde",
	OpenParen:    "OpenParen",
	CloseParen:   "CloseParen",
	OpenBrace:    "OpenBrace",
	CloseBrace:   "CloseBrace",
	Semicolon:    "Semicolon",
}

var keywords = map[string]Kind{
	"int":    KwInt,
	"void":   KwVoid,
	"return": KwReturn,
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}

	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

func (t Token) String() string {
	switch t.Kind {
	case EOF:
		return "EOF"
	case Constant, Identifier:
		return t.Kind.String() + "(" + t.Text + ")"
	default:
		return t.Kind.String()
	}
}

func (p Pos) String() string {
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Col)
}

func (t Token) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	b = e.AppendMap(b, 3)

	b = e.AppendString(b, "kind")
	b = e.AppendString(b, t.Kind.String())
	b = e.AppendString(b, "text")
	b = e.AppendString(b, t.Text)
	b = e.AppendKeyInt(b, "off", t.Pos.Off)

	return b
}
