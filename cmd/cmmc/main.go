package main

import (
	"context"
	"io"
	"os"
	"runtime"
	"strings"

	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/cmmlang/cmm/compiler"
	"github.com/cmmlang/cmm/compiler/asm/amd64"
	"github.com/cmmlang/cmm/compiler/toolchain"
)

func main() {
	cli.RunAndExit(newApp(), os.Args, os.Environ())
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:        "cmmc",
		Description: "cmmc compiles a small subset of C to x86-64 assembly",
		Before:      before,
		Action:      compileAct,
		Args:        cli.Args{},
		Flags: []*cli.Flag{
			cli.NewFlag("lex", false, "print tokens and stop"),
			cli.NewFlag("parse", false, "print the syntax tree and stop"),
			cli.NewFlag("tacky", false, "print the three address code and stop"),
			cli.NewFlag("codegen", false, "print the assembly tree and stop"),
			cli.NewFlag("S", false, "write the assembly file and stop"),
			cli.NewFlag("output,o", "", "output file"),
			cli.NewFlag("target", runtime.GOOS, "assembly dialect (darwin, linux)"),
			cli.NewFlag("cc", "gcc", "external compiler used to preprocess and link"),
			cli.NewFlag("log", "", "log output file (or stderr)"),
			cli.NewFlag("verbosity,v", "", "logger verbosity topics"),
			cli.HelpFlag,
		},
	}
}

func before(c *cli.Command) error {
	switch dst := c.String("log"); dst {
	case "":
		tlog.DefaultLogger = tlog.New(io.Discard)
	case "stderr":
		tlog.DefaultLogger = tlog.New(tlog.NewConsoleWriter(os.Stderr, tlog.LstdFlags))
	default:
		f, err := os.Create(dst)
		if err != nil {
			return errors.Wrap(err, "open log file")
		}

		tlog.DefaultLogger = tlog.New(tlog.NewConsoleWriter(f, tlog.LstdFlags))
	}

	tlog.SetVerbosity(c.String("verbosity"))

	return nil
}

func compileAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	if len(c.Args) != 1 {
		return errors.New("expected exactly one input file, got %d", len(c.Args))
	}

	src := c.Args[0]

	stop, asmOnly, err := stopStage(c)
	if err != nil {
		return err
	}

	target, err := amd64.ParseTarget(c.String("target"))
	if err != nil {
		return err
	}

	tc := &toolchain.Toolchain{CC: c.String("cc")}

	src, pre, err := toolchain.PreprocessPaths(src, "")
	if err != nil {
		return errors.Wrap(err, "preprocess")
	}

	err = tc.Preprocess(ctx, src, pre)
	if err != nil {
		return errors.Wrap(err, "preprocess")
	}

	defer func() {
		e := os.Remove(pre)
		if err == nil && e != nil {
			err = errors.Wrap(e, "remove preprocessed file")
		}
	}()

	comp := &compiler.Compiler{
		Stop:   stop,
		Target: target,
	}

	res, err := comp.CompileFile(ctx, pre)
	if err != nil {
		return err
	}

	if stop != compiler.StageEmit {
		b, err := res.Dump(ctx, nil)
		if err != nil {
			return errors.Wrap(err, "dump %v", stop)
		}

		_, err = c.Stdout.Write(b)

		return err
	}

	base := strings.TrimSuffix(src, toolchain.ExtSource)

	asmPath := base + toolchain.ExtAssembly
	if out := c.String("output"); asmOnly && out != "" {
		asmPath = out
	}

	_, asmPath, err = toolchain.CompilePaths(pre, asmPath)
	if err != nil {
		return errors.Wrap(err, "compile")
	}

	err = os.WriteFile(asmPath, res.Text, 0o644)
	if err != nil {
		return errors.Wrap(err, "write assembly")
	}

	if asmOnly {
		tlog.Printw("assembly written", "path", asmPath)
		return nil
	}

	exe := base
	if out := c.String("output"); out != "" {
		exe = out
	}

	_, exe, err = toolchain.LinkPaths(asmPath, exe)
	if err != nil {
		return errors.Wrap(err, "link")
	}

	err = tc.Link(ctx, asmPath, exe)
	if err != nil {
		_ = os.Remove(asmPath)

		return errors.Wrap(err, "link")
	}

	err = os.Remove(asmPath)
	if err != nil {
		return errors.Wrap(err, "remove assembly file")
	}

	tlog.Printw("executable written", "path", exe)

	return nil
}

func stopStage(c *cli.Command) (stop compiler.Stage, asmOnly bool, err error) {
	flags := []struct {
		name  string
		stage compiler.Stage
	}{
		{"lex", compiler.StageLex},
		{"parse", compiler.StageParse},
		{"tacky", compiler.StageTacky},
		{"codegen", compiler.StageCodegen},
		{"S", compiler.StageEmit},
	}

	var set []string

	for _, f := range flags {
		if !c.Bool(f.name) {
			continue
		}

		set = append(set, f.name)
		stop = f.stage
		asmOnly = f.name == "S"
	}

	if len(set) > 1 {
		return 0, false, errors.New("flags %v are mutually exclusive", set)
	}

	if stop != compiler.StageEmit && c.String("output") != "" {
		return 0, false, errors.New("--output makes no sense with --%v", set[0])
	}

	return stop, asmOnly, nil
}
