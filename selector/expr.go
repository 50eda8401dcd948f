// Package selector implements the rustversion selector language: a small
// boolean expression language over the version of the rustc in use.
//
//	stable               any stable compiler
//	stable(1.34)         exactly that stable release (1.34.x, or 1.34.2)
//	beta                 any beta compiler
//	nightly              any nightly compiler or dev build
//	nightly(2019-01-01)  exactly that nightly
//	since(1.34)          that release and anything later, including beta
//	                     and nightly compilers carrying a later number
//	since(2019-01-01)    that nightly and all newer ones
//	before(...)          negation of since(...)
//	not(sel)             negation of any selector
//	any(sel, ...)        true if any selector is true (false when empty)
//	all(sel, ...)        true if every selector is true (true when empty)
//	minver(1.34)         asserts a minimum compiler version for the run
//
// Selectors are parsed once with Parse and evaluated with a Checker, which
// owns the minimum-version assertion for one build run.
package selector

import (
	"strings"

	"github.com/albertocavalcante/go-rustversion/version"
)

// Expr is a parsed selector. The set of implementations is closed: the
// types in this file are the only ones.
type Expr interface {
	// String renders the expression in canonical selector syntax; the
	// result parses back to an equal Expr.
	String() string
	isExpr()
}

// Stable matches any stable compiler.
type Stable struct{}

// Beta matches any beta compiler.
type Beta struct{}

// Nightly matches any nightly or dev compiler.
type Nightly struct{}

// NightlyDate matches exactly one nightly.
type NightlyDate struct {
	Date version.Date
}

// Since matches compilers at or above Bound.
type Since struct {
	Bound Bound
}

// Before matches compilers below Bound.
type Before struct {
	Bound Bound
}

// ReleaseIs matches stable compilers whose release is selected by Release.
type ReleaseIs struct {
	Release ReleaseSelector
}

// Not negates X.
type Not struct {
	X Expr
}

// Any is true when at least one of List is true.
type Any struct {
	List []Expr
}

// All is true when every element of List is true.
type All struct {
	List []Expr
}

// MinVer asserts the minimum compiler version for the build run.
type MinVer struct {
	Bound Bound
}

func (Stable) String() string        { return "stable" }
func (Beta) String() string          { return "beta" }
func (Nightly) String() string       { return "nightly" }
func (e NightlyDate) String() string { return "nightly(" + e.Date.String() + ")" }
func (e Since) String() string       { return "since(" + e.Bound.String() + ")" }
func (e Before) String() string      { return "before(" + e.Bound.String() + ")" }
func (e ReleaseIs) String() string   { return "stable(" + e.Release.String() + ")" }
func (e Not) String() string         { return "not(" + e.X.String() + ")" }
func (e Any) String() string         { return "any(" + joinExprs(e.List) + ")" }
func (e All) String() string         { return "all(" + joinExprs(e.List) + ")" }
func (e MinVer) String() string      { return "minver(" + e.Bound.String() + ")" }

func (Stable) isExpr()      {}
func (Beta) isExpr()        {}
func (Nightly) isExpr()     {}
func (NightlyDate) isExpr() {}
func (Since) isExpr()       {}
func (Before) isExpr()      {}
func (ReleaseIs) isExpr()   {}
func (Not) isExpr()         {}
func (Any) isExpr()         {}
func (All) isExpr()         {}
func (MinVer) isExpr()      {}

func joinExprs(list []Expr) string {
	parts := make([]string, len(list))
	for i, e := range list {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}
