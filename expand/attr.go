// Package expand applies version selectors to Rust source.
//
// It provides the two building blocks of conditional compilation, Cfg and
// Attr, and Expander, which finds #[rustversion::NAME(ARGS)] attributes in a
// source file, evaluates them, and rewrites the file in place.
package expand

import (
	"fmt"
	"strings"

	"github.com/albertocavalcante/go-rustversion/selector"
	"github.com/albertocavalcante/go-rustversion/tokens"
)

// Cfg keeps item when ok is true and drops it otherwise.
func Cfg(ok bool, item string) string {
	if ok {
		return item
	}
	return ""
}

// AttrArgs are the parsed arguments of rustversion::attr: a selector
// followed by either the const keyword or the attribute to apply.
type AttrArgs struct {
	Cond selector.Expr

	// Const is set for `attr(SELECTOR, const)`.
	Const bool

	// Attribute is the text of the attribute to apply, without `#[` `]`.
	Attribute string
}

// ArgsError reports malformed rustversion::attr arguments.
type ArgsError struct {
	Input   string
	Message string
}

func (e *ArgsError) Error() string {
	return fmt.Sprintf("invalid attr arguments %q: %s", e.Input, e.Message)
}

// ParseAttrArgs parses `SELECTOR , const [,]` or `SELECTOR , ATTR...`.
func ParseAttrArgs(text string) (AttrArgs, error) {
	cond, n, err := selector.ParsePrefix(text)
	if err != nil {
		return AttrArgs{}, err
	}
	rest := strings.TrimSpace(text[n:])
	fail := func(msg string) (AttrArgs, error) {
		return AttrArgs{}, &ArgsError{Input: text, Message: msg}
	}

	if !strings.HasPrefix(rest, ",") {
		return fail("expected `,`")
	}
	rest = strings.TrimSpace(rest[1:])
	if rest == "" {
		return fail("expected one or more attrs")
	}

	toks, err := tokens.Lex(rest)
	if err != nil {
		return fail(err.Error())
	}
	if len(toks) == 0 {
		return fail("expected one or more attrs")
	}
	if toks[0].IsIdent("const") {
		tail := toks[1:]
		if len(tail) > 0 && tail[0].IsPunct(",") {
			tail = tail[1:]
		}
		if len(tail) > 0 {
			return fail("unexpected token after const")
		}
		return AttrArgs{Cond: cond, Const: true}, nil
	}
	return AttrArgs{Cond: cond, Attribute: rest}, nil
}

// Attr applies parsed attr arguments to item given the selector outcome.
// When ok is false the item is returned unchanged. When ok is true a const
// item gets the const keyword and any other item gets the attribute,
// wrapped in an always-true cfg_attr.
func Attr(ok bool, args AttrArgs, item string) (string, error) {
	if !ok {
		return item, nil
	}
	if !args.Const {
		return cfgAttr(args.Attribute) + " " + item, nil
	}
	toks, err := tokens.Lex(item)
	if err != nil {
		return "", err
	}
	off, err := tokens.ConstOffset(toks)
	if err != nil {
		return "", err
	}
	return item[:off] + "const " + item[off:], nil
}

func cfgAttr(attribute string) string {
	return "#[cfg_attr(all(), " + attribute + ")]"
}
