// Package bazel applies version selectors to Bazel files.
//
// A statement in a BUILD, .bzl or MODULE.bazel file opts in with a
// comment naming a selector:
//
//	# rustversion: since(1.80)
//	rust_library(
//	    name = "modern",
//	    srcs = ["modern.rs"],
//	)
//
// Filter keeps the statement, minus the comment, when the selector is
// true, and deletes it when false. A statement whose selector is invalid
// or contradicts the asserted minimum version becomes a fail() call
// carrying the error, so the build stops at that line.
package bazel

import (
	"errors"
	"fmt"

	"github.com/bazelbuild/buildtools/build"

	"github.com/albertocavalcante/go-rustversion/internal/buildutil"
	"github.com/albertocavalcante/go-rustversion/selector"
)

// DirectivePrefix starts a selector comment.
const DirectivePrefix = "rustversion:"

// EvalFunc evaluates one selector.
type EvalFunc func(selector.Expr) (bool, error)

// Position is a location in a Bazel file.
type Position struct {
	Filename string
	Line     int
	Column   int
}

func (p Position) String() string {
	return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
}

// Outcome is what happened to an annotated statement.
type Outcome uint8

const (
	Kept Outcome = iota
	Dropped
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Kept:
		return "kept"
	case Dropped:
		return "dropped"
	default:
		return "failed"
	}
}

// Statement describes one annotated statement.
type Statement struct {
	Pos Position
	// Kind is the called function for rule calls ("rust_library"), or the
	// statement kind ("load", "assignment", "def").
	Kind string
	// Name is the name attribute of a rule call, if any.
	Name      string
	Selectors []string
	Outcome   Outcome
	Err       error
}

// StatementError is a failure at one statement.
type StatementError struct {
	Pos Position
	Err error
}

func (e *StatementError) Error() string {
	return e.Pos.String() + ": " + e.Err.Error()
}

func (e *StatementError) Unwrap() error {
	return e.Err
}

// Report lists the annotated statements of a file.
type Report struct {
	Filename   string
	Statements []Statement
}

// Counts returns the number of kept, dropped and failed statements.
func (r *Report) Counts() (kept, dropped, failed int) {
	for _, s := range r.Statements {
		switch s.Outcome {
		case Kept:
			kept++
		case Dropped:
			dropped++
		case Failed:
			failed++
		}
	}
	return kept, dropped, failed
}

// Err joins the errors of every failed statement, or returns nil.
func (r *Report) Err() error {
	var errs []error
	for _, s := range r.Statements {
		if s.Outcome == Failed {
			errs = append(errs, &StatementError{Pos: s.Pos, Err: s.Err})
		}
	}
	return errors.Join(errs...)
}

// Filter parses a Bazel file, applies its selector comments, and returns
// the formatted result. The file kind (BUILD, .bzl, MODULE.bazel,
// WORKSPACE) is taken from filename. Statements nested in def, if and for
// bodies are filtered too; a body left empty becomes `pass`.
//
// Only content that does not parse is an error. Statement failures are
// in the Report and in fail() calls in the output.
func Filter(filename string, content []byte, eval EvalFunc) ([]byte, *Report, error) {
	f, err := build.Parse(filename, content)
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", filename, err)
	}

	fl := &filter{filename: filename, eval: eval, report: &Report{Filename: filename}}
	f.Stmt = fl.stmts(f.Stmt, false)
	return build.Format(f), fl.report, nil
}

type filter struct {
	filename string
	eval     EvalFunc
	report   *Report
}

func (fl *filter) stmts(list []build.Expr, nested bool) []build.Expr {
	out := make([]build.Expr, 0, len(list))
	for _, stmt := range list {
		emit, ok := fl.stmt(stmt)
		if !ok {
			continue
		}
		fl.descend(emit)
		out = append(out, emit)
	}
	if nested && !hasStatement(out) {
		out = append(out, &build.BranchStmt{Token: "pass"})
	}
	return out
}

func (fl *filter) descend(stmt build.Expr) {
	switch s := stmt.(type) {
	case *build.DefStmt:
		s.Body = fl.stmts(s.Body, true)
	case *build.IfStmt:
		s.True = fl.stmts(s.True, true)
		if len(s.False) > 0 {
			s.False = fl.stmts(s.False, true)
		}
	case *build.ForStmt:
		s.Body = fl.stmts(s.Body, true)
	}
}

// stmt applies the directives on one statement and returns the statement
// to emit, if any.
func (fl *filter) stmt(stmt build.Expr) (build.Expr, bool) {
	directives := buildutil.Directives(stmt, DirectivePrefix)
	if len(directives) == 0 {
		return stmt, true
	}

	start, _ := stmt.Span()
	kind, name := buildutil.Describe(stmt)
	st := Statement{
		Pos:  Position{Filename: fl.filename, Line: start.Line, Column: start.LineRune},
		Kind: kind,
		Name: name,
	}
	for _, d := range directives {
		st.Selectors = append(st.Selectors, d.Value)
	}

	st.Outcome, st.Err = fl.decide(directives)
	fl.report.Statements = append(fl.report.Statements, st)

	switch st.Outcome {
	case Dropped:
		// Other comments on the statement, such as a file header, stay.
		if comments := nonDirectives(stmt); len(comments) > 0 {
			return &build.CommentBlock{Comments: build.Comments{Before: comments}}, true
		}
		return nil, false
	case Failed:
		call := buildutil.Fail("rustversion: " + st.Err.Error())
		call.Comment().Before = nonDirectives(stmt)
		return call, true
	default:
		buildutil.StripDirectives(stmt, DirectivePrefix)
		return stmt, true
	}
}

// decide evaluates every directive on a statement. All of them must hold
// for the statement to stay; the first failure wins.
func (fl *filter) decide(directives []buildutil.Directive) (Outcome, error) {
	outcome := Kept
	for _, d := range directives {
		expr, err := selector.Parse(d.Value)
		if err != nil {
			return Failed, err
		}
		ok, err := fl.eval(expr)
		if err != nil {
			return Failed, err
		}
		if !ok {
			outcome = Dropped
		}
	}
	return outcome, nil
}

// nonDirectives returns the comments of stmt other than directives, the
// suffix comment moved after the ones before it.
func nonDirectives(stmt build.Expr) []build.Comment {
	buildutil.StripDirectives(stmt, DirectivePrefix)
	c := stmt.Comment()
	out := append([]build.Comment(nil), c.Before...)
	return append(out, c.Suffix...)
}

// hasStatement reports whether list holds anything besides comments.
func hasStatement(list []build.Expr) bool {
	for _, stmt := range list {
		if _, ok := stmt.(*build.CommentBlock); !ok {
			return true
		}
	}
	return false
}
