package compiler

import (
	"context"
	"os"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/cmmlang/cmm/compiler/asm"
	"github.com/cmmlang/cmm/compiler/asm/amd64"
	"github.com/cmmlang/cmm/compiler/ast"
	"github.com/cmmlang/cmm/compiler/back"
	"github.com/cmmlang/cmm/compiler/format"
	"github.com/cmmlang/cmm/compiler/front"
	"github.com/cmmlang/cmm/compiler/ir"
)

type (
	// Stage is the last pipeline stage a compilation runs.
	Stage int

	Compiler struct {
		Stop   Stage
		Target amd64.Target
	}

	// Result holds the artifact of the last stage run.
	Result struct {
		Stage Stage

		Tokens []front.Token
		AST    *ast.Program
		IR     *ir.Program
		Asm    *asm.Program
		Text   []byte
	}
)

const (
	StageEmit Stage = iota
	StageLex
	StageParse
	StageTacky
	StageCodegen
)

func New() *Compiler { return &Compiler{} }

func CompileFile(ctx context.Context, name string) (obj []byte, err error) {
	text, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	tlog.SpanFromContext(ctx).Printw("read file", "size", len(text), "name", name)

	return Compile(ctx, name, text)
}

// Compile runs the whole pipeline with default settings and returns assembly text.
func Compile(ctx context.Context, name string, text []byte) (obj []byte, err error) {
	res, err := New().Compile(ctx, name, text)
	if err != nil {
		return nil, err
	}

	return res.Text, nil
}

func (c *Compiler) CompileFile(ctx context.Context, name string) (*Result, error) {
	text, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	return c.Compile(ctx, name, text)
}

// Compile runs the pipeline up to and including c.Stop.
// Every call starts from fresh stage state, so equal inputs give equal outputs.
func (c *Compiler) Compile(ctx context.Context, name string, text []byte) (res *Result, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "compile", "name", name, "stop", c.Stop, "size", len(text))
	defer tr.Finish("err", &err)

	res = &Result{Stage: StageLex}

	var lex front.Lexer

	res.Tokens, err = lex.Lex(ctx, text)
	if err != nil {
		return nil, errors.Wrap(err, "lex")
	}

	if c.Stop == StageLex {
		return res, nil
	}

	var parser front.Parser

	res.Stage = StageParse

	res.AST, err = parser.Parse(ctx, res.Tokens)
	if err != nil {
		return nil, errors.Wrap(err, "parse")
	}

	if c.Stop == StageParse {
		return res, nil
	}

	var gen front.Gen

	res.Stage = StageTacky

	res.IR, err = gen.Generate(ctx, res.AST)
	if err != nil {
		return nil, errors.Wrap(err, "tacky")
	}

	if c.Stop == StageTacky {
		return res, nil
	}

	res.Stage = StageCodegen

	res.Asm, err = back.New().Compile(ctx, res.IR)
	if err != nil {
		return nil, errors.Wrap(err, "codegen")
	}

	if c.Stop == StageCodegen {
		return res, nil
	}

	e := amd64.Emitter{Target: c.Target}

	res.Stage = StageEmit
	res.Text = e.Emit(ctx, nil, res.Asm)

	return res, nil
}

// Dump appends the rendering of the last stage artifact.
// For a full compilation it's the assembly text itself.
func (r *Result) Dump(ctx context.Context, b []byte) ([]byte, error) {
	switch r.Stage {
	case StageLex:
		return format.Format(ctx, b, r.Tokens)
	case StageParse:
		return format.Format(ctx, b, r.AST)
	case StageTacky:
		return format.Format(ctx, b, r.IR)
	case StageCodegen:
		return format.Format(ctx, b, r.Asm)
	case StageEmit:
		return append(b, r.Text...), nil
	default:
		return nil, errors.New("unsupported stage: %v", r.Stage)
	}
}

func (s Stage) String() string {
	switch s {
	case StageEmit:
		return "emit"
	case StageLex:
		return "lex"
	case StageParse:
		return "parse"
	case StageTacky:
		return "tacky"
	case StageCodegen:
		return "codegen"
	default:
		return "stage?"
	}
}
