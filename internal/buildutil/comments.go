package buildutil

import (
	"strings"

	"github.com/bazelbuild/buildtools/build"
)

// Directive is a `# prefix value` comment attached to a statement.
type Directive struct {
	Value string
	Pos   build.Position
}

// Directives returns the values of comments on stmt that start with
// prefix, looking at the comment lines directly before the statement and
// the comment on its first line. Matching ignores the `#` and surrounding
// space, so `#rustversion: stable` and `# rustversion: stable` both match
// prefix "rustversion:".
func Directives(stmt build.Expr, prefix string) []Directive {
	c := stmt.Comment()
	var out []Directive
	for _, group := range [][]build.Comment{c.Before, c.Suffix} {
		for _, com := range group {
			if v, ok := directiveValue(com.Token, prefix); ok {
				out = append(out, Directive{Value: v, Pos: com.Start})
			}
		}
	}
	return out
}

// StripDirectives removes the comments Directives would return.
func StripDirectives(stmt build.Expr, prefix string) {
	c := stmt.Comment()
	c.Before = dropDirectives(c.Before, prefix)
	c.Suffix = dropDirectives(c.Suffix, prefix)
}

func dropDirectives(list []build.Comment, prefix string) []build.Comment {
	out := list[:0]
	for _, com := range list {
		if _, ok := directiveValue(com.Token, prefix); !ok {
			out = append(out, com)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func directiveValue(token, prefix string) (string, bool) {
	text := strings.TrimSpace(strings.TrimPrefix(token, "#"))
	rest, ok := strings.CutPrefix(text, prefix)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(rest), true
}
