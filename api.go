// Package rustversion selects code by the version of the Rust compiler.
//
// A selector names compiler releases, channels and nightly dates:
//
//	stable                      any stable release
//	stable(1.34)                any 1.34.x stable release
//	nightly(2019-04-27)         exactly that nightly
//	since(1.31)                 1.31 and later, any channel
//	before(2020-01-01)          nightlies older than that date, and every stable or beta
//	all(since(1.36), not(beta)) boolean combinations with not, any and all
//	minver(1.40)                asserts a minimum for the rest of the run
//
// # Overview
//
// The module is split into layers that can be used on their own:
//
//   - version: parses `rustc --version` output
//   - selector: parses selectors and evaluates them against a version
//   - rustc: runs the compiler, with a process-wide cache
//   - expand: rewrites #[rustversion::...] attributes in Rust source
//   - bazel: filters BUILD and MODULE.bazel statements by selector comments
//
// Engine ties them together for one build run.
//
// # Quick Start
//
//	engine, err := rustversion.New()
//	ok, err := engine.Eval(ctx, "since(1.31)")
//
//	// Against a known version, without running the compiler
//	engine, err := rustversion.New(rustversion.WithVersionText("rustc 1.36.0-nightly (8dd4aae9a 2019-04-27)"))
//
// # Thread Safety
//
// Engine is safe for concurrent use. All evaluations of one Engine share a
// single minimum-version assertion.
package rustversion

import (
	"context"
	"fmt"

	"github.com/albertocavalcante/go-rustversion/bazel"
	"github.com/albertocavalcante/go-rustversion/expand"
	"github.com/albertocavalcante/go-rustversion/selector"
	"github.com/albertocavalcante/go-rustversion/version"
)

// Engine evaluates selectors for one build run.
type Engine struct {
	cfg     *engineConfig
	source  VersionSource
	checker *selector.Checker
}

// New creates an Engine. Without WithVersion, WithVersionText or
// WithSource, the version comes from running the compiler on first use.
func New(opts ...Option) (*Engine, error) {
	cfg, err := newEngineConfig(opts...)
	if err != nil {
		return nil, err
	}
	src := cfg.source
	if src == nil {
		src = &ProbeSource{Probe: cfg.probe(), Cache: cfg.cache}
	}
	return &Engine{
		cfg:     cfg,
		source:  src,
		checker: selector.NewChecker(cfg.log()),
	}, nil
}

// Version returns the toolchain version. Failure to determine it is fatal
// for the run and wraps ErrNoVersion.
func (e *Engine) Version(ctx context.Context) (version.Version, error) {
	v, err := e.source.Version(ctx)
	if err != nil {
		return version.Version{}, fmt.Errorf("%w: %w", ErrNoVersion, err)
	}
	return v, nil
}

// Checker returns the Engine's checker, which holds the run's minimum
// version assertion.
func (e *Engine) Checker() *selector.Checker {
	return e.checker
}

// Eval parses and evaluates one selector.
func (e *Engine) Eval(ctx context.Context, text string) (bool, error) {
	expr, err := selector.Parse(text)
	if err != nil {
		return false, err
	}
	return e.EvalExpr(ctx, expr)
}

// EvalExpr evaluates a parsed selector.
func (e *Engine) EvalExpr(ctx context.Context, expr selector.Expr) (bool, error) {
	v, err := e.Version(ctx)
	if err != nil {
		return false, err
	}
	ok, err := e.checker.Eval(expr, v)
	e.cfg.log().Debug("evaluated selector",
		"selector", expr.String(),
		"version", v.String(),
		"result", ok,
		"error", err)
	return ok, err
}

// Expand rewrites the #[rustversion::...] attributes of a Rust source file.
func (e *Engine) Expand(ctx context.Context, filename string, src []byte) (*expand.Result, error) {
	v, err := e.Version(ctx)
	if err != nil {
		return nil, err
	}
	x := &expand.Expander{Checker: e.checker, Version: v, Logger: e.cfg.logger}
	return x.Source(filename, src)
}

// FilterBazel applies the `# rustversion:` comments of a Bazel file.
func (e *Engine) FilterBazel(ctx context.Context, filename string, content []byte) ([]byte, *bazel.Report, error) {
	v, err := e.Version(ctx)
	if err != nil {
		return nil, nil, err
	}
	eval := func(expr selector.Expr) (bool, error) {
		return e.checker.Eval(expr, v)
	}
	out, report, err := bazel.Filter(filename, content, eval)
	if err != nil {
		return nil, nil, err
	}
	kept, dropped, failed := report.Counts()
	e.cfg.log().Debug("filtered bazel file",
		"file", filename,
		"kept", kept,
		"dropped", dropped,
		"failed", failed)
	return out, report, nil
}
