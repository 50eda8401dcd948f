// Package buildutil provides helpers for inspecting buildtools AST nodes:
// call and attribute lookup, and the comments attached to statements.
package buildutil

import (
	"fmt"

	"github.com/bazelbuild/buildtools/build"
)

// String extracts a string attribute from a function call by name.
// If name is empty and the call has positional arguments, returns the first
// positional string argument.
// Returns empty string if the attribute is not found or not a string.
func String(call *build.CallExpr, name string) string {
	if name == "" && len(call.List) > 0 {
		if str, ok := call.List[0].(*build.StringExpr); ok {
			return str.Value
		}
		return ""
	}

	for _, arg := range call.List {
		assign, ok := arg.(*build.AssignExpr)
		if !ok {
			continue
		}
		lhs, ok := assign.LHS.(*build.Ident)
		if !ok || lhs.Name != name {
			continue
		}
		if str, ok := assign.RHS.(*build.StringExpr); ok {
			return str.Value
		}
	}
	return ""
}

// FuncName returns the function name from a CallExpr. Method calls such as
// rust.toolchain(...) in MODULE.bazel yield the dotted name.
// Returns empty string for any other callee.
func FuncName(call *build.CallExpr) string {
	switch x := call.X.(type) {
	case *build.Ident:
		return x.Name
	case *build.DotExpr:
		if recv, ok := x.X.(*build.Ident); ok {
			return recv.Name + "." + x.Name
		}
	}
	return ""
}

// Describe names a top-level statement for reports: the called function
// and its name attribute for rule calls, and the statement kind otherwise.
func Describe(stmt build.Expr) (kind, name string) {
	switch s := stmt.(type) {
	case *build.CallExpr:
		kind = FuncName(s)
		if kind == "" {
			kind = "call"
		}
		return kind, String(s, "name")
	case *build.AssignExpr:
		if lhs, ok := s.LHS.(*build.Ident); ok {
			name = lhs.Name
		}
		return "assignment", name
	case *build.LoadStmt:
		return "load", s.Module.Value
	case *build.DefStmt:
		return "def", s.Name
	case *build.IfStmt:
		return "if", ""
	case *build.ForStmt:
		return "for", ""
	default:
		return fmt.Sprintf("%T", stmt), ""
	}
}

// Fail returns a `fail(msg)` call statement.
func Fail(msg string) *build.CallExpr {
	return &build.CallExpr{
		X:    &build.Ident{Name: "fail"},
		List: []build.Expr{&build.StringExpr{Value: msg}},
	}
}
