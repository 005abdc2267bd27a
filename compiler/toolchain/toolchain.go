package toolchain

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

type (
	// Toolchain runs the external preprocessor and linker.
	Toolchain struct {
		CC string
	}
)

const (
	ExtSource       = ".c"
	ExtPreprocessed = ".i"
	ExtAssembly     = ".s"
)

var ErrOutputExists = errors.New("output file already exists")

func New() *Toolchain {
	return &Toolchain{CC: "gcc"}
}

// Preprocess runs "cc -E -P in -o out".
func (t *Toolchain) Preprocess(ctx context.Context, in, out string) (err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "toolchain: preprocess", "in", in, "out", out)
	defer tr.Finish("err", &err)

	return t.run(ctx, "-E", "-P", in, "-o", out)
}

// Link assembles and links asm into the executable exe.
func (t *Toolchain) Link(ctx context.Context, asm, exe string) (err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "toolchain: link", "in", asm, "out", exe)
	defer tr.Finish("err", &err)

	return t.run(ctx, asm, "-o", exe)
}

func (t *Toolchain) run(ctx context.Context, args ...string) error {
	cc := t.CC
	if cc == "" {
		cc = "gcc"
	}

	var stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, cc, args...)
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		return errors.Wrap(err, "%v %v: %s", cc, args, bytes.TrimSpace(stderr.Bytes()))
	}

	return nil
}

// PreprocessPaths checks a preprocessor input and derives its output path.
func PreprocessPaths(in, out string) (string, string, error) {
	return paths(in, ExtSource, out, ExtPreprocessed)
}

// CompilePaths checks a compiler input and derives its output path.
func CompilePaths(in, out string) (string, string, error) {
	return paths(in, ExtPreprocessed, out, ExtAssembly)
}

// LinkPaths checks a linker input and derives the executable path.
// The executable has no extension.
func LinkPaths(in, out string) (string, string, error) {
	return paths(in, ExtAssembly, out, "")
}

func paths(in, inExt, out, outExt string) (_, _ string, err error) {
	if filepath.Ext(in) != inExt {
		return "", "", errors.New("input path must have a %q extension: %v", inExt, in)
	}

	fi, err := os.Stat(in)
	if err != nil {
		return "", "", errors.Wrap(err, "input")
	}

	if !fi.Mode().IsRegular() {
		return "", "", errors.New("input is not a regular file: %v", in)
	}

	if out != "" {
		if ext := filepath.Ext(out); ext != outExt {
			return "", "", errors.New("output path must have %q extension, got %q", outExt, ext)
		}

		return in, out, nil
	}

	out = in[:len(in)-len(inExt)] + outExt

	_, err = os.Stat(out)
	if err == nil {
		return "", "", errors.Wrap(ErrOutputExists, "%v", out)
	}
	if !os.IsNotExist(err) {
		return "", "", errors.Wrap(err, "output")
	}

	return in, out, nil
}
