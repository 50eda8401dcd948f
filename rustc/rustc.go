// Package rustc runs the Rust compiler to learn its version.
//
// The compiler is taken from the RUSTC environment variable, falling back to
// "rustc" on PATH, the same lookup Cargo build scripts use. A Cache keeps one
// result per compiler for the life of the process so that a build with many
// conditional sites runs the compiler once.
package rustc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/albertocavalcante/go-rustversion/version"
)

const (
	// DefaultCompiler is used when RUSTC is unset.
	DefaultCompiler = "rustc"

	// EnvVar names the environment variable that overrides the compiler.
	EnvVar = "RUSTC"
)

// Compiler returns the compiler to run: $RUSTC, or DefaultCompiler.
func Compiler() string {
	if c := os.Getenv(EnvVar); c != "" {
		return c
	}
	return DefaultCompiler
}

// Probe describes one compiler invocation.
type Probe struct {
	// Path is the compiler executable. Empty means Compiler().
	Path string

	// Verbose runs `rustc -vV` and parses the key/value report instead of
	// the one-line `rustc --version` output.
	Verbose bool

	// Timeout bounds the run. Zero means no timeout beyond ctx.
	Timeout time.Duration

	Logger *slog.Logger
}

func (p Probe) path() string {
	if p.Path != "" {
		return p.Path
	}
	return Compiler()
}

func (p Probe) flag() string {
	if p.Verbose {
		return "-vV"
	}
	return "--version"
}

// command renders the invocation for error messages, e.g. "rustc --version".
func (p Probe) command() string {
	return p.path() + " " + p.flag()
}

func (p Probe) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// Run executes the compiler and parses what it prints on stdout.
func (p Probe) Run(ctx context.Context) (version.Version, error) {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.path(), p.flag())
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	p.logger().Debug("ran compiler",
		"command", p.command(),
		"duration", time.Since(start),
		"error", err)
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return version.Version{}, &Error{Kind: KindExec, Command: p.command(), Err: err}
	}

	out := stdout.Bytes()
	if !utf8.Valid(out) {
		return version.Version{}, &Error{Kind: KindUTF8, Command: p.command(), Output: string(out)}
	}
	return p.parse(string(out))
}

func (p Probe) parse(out string) (version.Version, error) {
	parse := version.Parse
	if p.Verbose {
		parse = version.ParseVerbose
	}
	v, err := parse(out)
	if err != nil {
		return version.Version{}, &Error{Kind: KindParse, Command: p.command(), Output: out, Err: err}
	}
	return v, nil
}

// Kind classifies an Error.
type Kind uint8

const (
	// KindExec: the compiler could not be started or exited with an error.
	KindExec Kind = iota
	// KindUTF8: the compiler printed bytes that are not UTF-8.
	KindUTF8
	// KindParse: the output is not a recognizable version.
	KindParse
)

func (k Kind) String() string {
	switch k {
	case KindExec:
		return "exec"
	case KindUTF8:
		return "utf8"
	case KindParse:
		return "parse"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Error reports a failed compiler probe. Every kind is fatal for the build
// run: without a version no selector can be evaluated.
type Error struct {
	Kind    Kind
	Command string
	Output  string
	Err     error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindExec:
		return fmt.Sprintf("failed to run `%s`: %v", e.Command, e.Err)
	case KindUTF8:
		return fmt.Sprintf("output of `%s` is not valid UTF-8", e.Command)
	default:
		return fmt.Sprintf("unexpected output from `%s`, please file an issue: %q", e.Command, e.Output)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsExec reports whether err is a failure to run the compiler.
func IsExec(err error) bool {
	var rerr *Error
	return errors.As(err, &rerr) && rerr.Kind == KindExec
}
