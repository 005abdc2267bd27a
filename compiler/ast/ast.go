package ast

type (
	Node interface {
		node()
	}

	Stmt interface {
		Node
		stmt()
	}

	Expr interface {
		Node
		expr()
	}

	Base struct {
		Pos int
		End int
	}

	Program struct {
		Func *Func
	}

	Func struct {
		Base `tlog:",embed"`

		Name string
		Body []Stmt
	}

	Return struct {
		Base `tlog:",embed"`

		Value Expr
	}

	Constant struct {
		Base `tlog:",embed"`

		Value int32
	}

	Unary struct {
		Base `tlog:",embed"`

		Op   UnaryOp
		Expr Expr
	}

	UnaryOp int
)

const (
	Negate UnaryOp = iota + 1
	Complement
)

func (*Program) node() {}
func (*Func) node() {}

func (*Return) node() {}
func (*Return) stmt() {}

func (*Constant) node() {}
func (*Constant) expr() {}

func (*Unary) node() {}
func (*Unary) expr() {}

func (op UnaryOp) String() string {
	switch op {
	case Negate:
		return "Negate"
	case Complement:
		return "Complement"
	default:
		return "UnaryOp(?)"
	}
}
