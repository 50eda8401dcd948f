package expand

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/albertocavalcante/go-rustversion/selector"
	"github.com/albertocavalcante/go-rustversion/tokens"
	"github.com/albertocavalcante/go-rustversion/version"
)

// AttrPath is the path prefix of the attributes Expander rewrites.
const AttrPath = "rustversion"

// Position is a location in a source file for diagnostics.
type Position struct {
	Filename string
	Line     int
	Column   int
}

func (p Position) String() string {
	if p.Filename == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
}

// Outcome is what happened to an annotated item.
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

// Site is one #[rustversion::...] attribute found in a file.
type Site struct {
	Pos Position
	// Attribute is the attribute as written, e.g. "rustversion::since(1.31)".
	Attribute string
	Outcome   Outcome
	// Err is set when Outcome is Failed.
	Err error
}

// SiteError is a failure at one site.
type SiteError struct {
	Pos Position
	Err error
}

func (e *SiteError) Error() string {
	return e.Pos.String() + ": " + e.Err.Error()
}

func (e *SiteError) Unwrap() error {
	return e.Err
}

// Result is the outcome of expanding one file.
type Result struct {
	Output []byte
	Sites  []Site
}

// Err joins the errors of every failed site, or returns nil.
func (r *Result) Err() error {
	var errs []error
	for _, s := range r.Sites {
		if s.Outcome == Failed {
			errs = append(errs, &SiteError{Pos: s.Pos, Err: s.Err})
		}
	}
	return errors.Join(errs...)
}

// Expander rewrites #[rustversion::NAME(ARGS)] attributes in Rust source.
//
// NAME is a selector keyword, evaluated as the selector NAME(ARGS), or
// attr, whose ARGS are parsed by ParseAttrArgs. A true cfg attribute is
// removed and its item kept; a false one is removed with its item. A site
// that fails to parse or evaluate is replaced, item included, by a
// compile_error! invocation carrying the message, so the failure surfaces
// where the attribute was written. Everything else in the file, formatting
// and comments included, is left as it was.
type Expander struct {
	// Checker evaluates selectors. Share one Checker across every file of
	// a build so that minver applies to all of them. Nil means a fresh
	// Checker per call.
	Checker *selector.Checker

	// Version is the toolchain version selectors are evaluated against.
	Version version.Version

	Logger *slog.Logger
}

func (x *Expander) logger() *slog.Logger {
	if x.Logger != nil {
		return x.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// Source expands src. Only source that does not lex is an error; site
// failures are reported in the Result and in its compile_error! output.
func (x *Expander) Source(filename string, src []byte) (*Result, error) {
	text := string(src)
	toks, err := tokens.Lex(text)
	if err != nil {
		var lerr *tokens.LexError
		if errors.As(err, &lerr) {
			return nil, &SiteError{Pos: position(filename, text, lerr.Offset), Err: err}
		}
		return nil, err
	}

	checker := x.Checker
	if checker == nil {
		checker = selector.NewChecker(x.Logger)
	}
	w := &walker{
		x:        x,
		checker:  checker,
		filename: filename,
		src:      text,
	}
	w.walk(toks, true)

	return &Result{Output: []byte(w.apply()), Sites: w.sites}, nil
}

type edit struct {
	start, end int
	text       string
}

type walker struct {
	x        *Expander
	checker  *selector.Checker
	filename string
	src      string
	edits    []edit
	sites    []Site
}

// rvAttr is a matched #[rustversion::NAME(ARGS)] attribute.
type rvAttr struct {
	name    string
	args    string
	hasArgs bool
	// start and end span `#[...]`.
	start, end int
}

func (w *walker) walk(list []tokens.Token, topLevel bool) {
	for i := 0; i < len(list); {
		attr, ok := w.match(list, i)
		if !ok {
			if list[i].Kind == tokens.Group {
				w.walk(list[i].Children, false)
			}
			i++
			continue
		}

		end := itemEnd(list, i+2, topLevel)
		item := list[i+2 : end]
		itemEndOff := attr.end
		if len(item) > 0 {
			itemEndOff = item[len(item)-1].End
		}

		outcome, err := w.site(attr, item)
		pos := position(w.filename, w.src, attr.start)
		w.sites = append(w.sites, Site{
			Pos:       pos,
			Attribute: strings.TrimSpace(w.src[attr.start+2 : attr.end-1]),
			Outcome:   outcome,
			Err:       err,
		})
		w.x.logger().Debug("expanded site",
			"pos", pos.String(),
			"attribute", attr.name,
			"outcome", outcome.String(),
			"error", err)

		switch outcome {
		case Kept:
			// Stacked attributes and nested items are handled as the walk
			// continues into the item.
			i += 2
		case Dropped:
			start, stop := blankLines(w.src, attr.start, itemEndOff)
			w.edits = append(w.edits, edit{start: start, end: stop})
			i = end
		case Failed:
			msg := fmt.Sprintf("compile_error!(%s);", strconv.Quote(err.Error()))
			w.edits = append(w.edits, edit{start: attr.start, end: itemEndOff, text: msg})
			i = end
		}
	}
}

// site evaluates one attribute and records the edits for a kept item.
func (w *walker) site(attr rvAttr, item []tokens.Token) (Outcome, error) {
	if attr.name == "attr" {
		return w.attrSite(attr, item)
	}
	if !slices.Contains(selector.Keywords, attr.name) {
		return Failed, fmt.Errorf("unknown attribute `%s::%s`", AttrPath, attr.name)
	}

	text := attr.name
	if attr.hasArgs {
		text += "(" + attr.args + ")"
	}
	expr, err := selector.Parse(text)
	if err != nil {
		return Failed, err
	}
	ok, err := w.checker.Eval(expr, w.x.Version)
	if err != nil {
		return Failed, err
	}
	if !ok {
		return Dropped, nil
	}
	w.removeAttr(attr)
	return Kept, nil
}

func (w *walker) attrSite(attr rvAttr, item []tokens.Token) (Outcome, error) {
	args, err := ParseAttrArgs(attr.args)
	if err != nil {
		return Failed, err
	}
	ok, err := w.checker.Eval(args.Cond, w.x.Version)
	if err != nil {
		return Failed, err
	}

	switch {
	case !ok:
		w.removeAttr(attr)
	case args.Const:
		off, err := tokens.ConstOffset(item)
		if err != nil {
			return Failed, err
		}
		w.removeAttr(attr)
		w.edits = append(w.edits, edit{start: off, end: off, text: "const "})
	default:
		w.edits = append(w.edits, edit{start: attr.start, end: attr.end, text: cfgAttr(args.Attribute)})
	}
	return Kept, nil
}

// removeAttr deletes the attribute and the whitespace after it, so the
// item moves up to where the attribute was.
func (w *walker) removeAttr(attr rvAttr) {
	end := attr.end
	for end < len(w.src) && isSpace(w.src[end]) {
		end++
	}
	w.edits = append(w.edits, edit{start: attr.start, end: end})
}

func (w *walker) match(list []tokens.Token, i int) (rvAttr, bool) {
	if i+1 >= len(list) || !list[i].IsPunct("#") || !list[i+1].IsGroup(tokens.Bracket) {
		return rvAttr{}, false
	}
	path := list[i+1].Children
	// Allow a leading `::` as in #[::rustversion::stable].
	if len(path) >= 2 && path[0].IsPunct(":") && path[1].IsPunct(":") {
		path = path[2:]
	}
	if len(path) < 4 || !path[0].IsIdent(AttrPath) ||
		!path[1].IsPunct(":") || !path[1].Joint || !path[2].IsPunct(":") ||
		path[3].Kind != tokens.Ident {
		return rvAttr{}, false
	}

	attr := rvAttr{name: path[3].Text, start: list[i].Start, end: list[i+1].End}
	switch {
	case len(path) == 4:
	case len(path) == 5 && path[4].IsGroup(tokens.Paren):
		g := path[4]
		attr.args = w.src[g.Start+1 : g.End-1]
		attr.hasArgs = true
	default:
		return rvAttr{}, false
	}
	return attr, true
}

// itemKeywords start items and statements that end at `;` or a brace
// block, never at a comma.
var itemKeywords = []string{
	"fn", "impl", "trait", "struct", "enum", "union", "mod", "use",
	"type", "const", "static", "let", "macro_rules", "extern", "where",
}

// itemEnd returns the index just past the item starting at list[from].
//
// An item ends at the first `;`, or at a brace block unless an `=` came
// first, as in `const X: S = S { .. };`. Inside a group, a comma also ends
// the item when it is a field, variant or match arm rather than a
// declaration, and a comma directly after a closing brace block belongs
// to the item. `<` opens generics only in type position: before the
// first `=` or `=>`, or after `::`. Elsewhere it is a comparison.
func itemEnd(list []tokens.Token, from int, topLevel bool) int {
	angle := 0
	sawEq := false
	inExpr := false
	declaration := false
	for j := from; j < len(list); j++ {
		t := list[j]
		next := func(ch string) bool {
			return t.Joint && j+1 < len(list) && list[j+1].IsPunct(ch)
		}
		prevArrow := j > from && list[j-1].Kind == tokens.Punct && list[j-1].Joint &&
			(list[j-1].Text == "-" || list[j-1].Text == "=")
		turbofish := j > from+1 && list[j-1].IsPunct(":") && list[j-2].IsPunct(":") && list[j-2].Joint

		switch {
		case t.Kind == tokens.Ident && slices.Contains(itemKeywords, t.Text):
			declaration = true
		case t.IsPunct("<") && !next("=") && !next("<") && (!inExpr || turbofish):
			angle++
		case t.IsPunct(">") && angle > 0 && !prevArrow:
			angle--
		case t.IsPunct("=") && next(">"):
			inExpr = true
		case t.IsPunct("=") && angle == 0 && !next("="):
			sawEq = true
			inExpr = true
		case t.IsPunct(";"):
			return j + 1
		case t.IsPunct(",") && angle == 0 && !topLevel && !declaration:
			return j + 1
		case t.IsGroup(tokens.Brace) && angle == 0 && !sawEq:
			end := j + 1
			if !topLevel && end < len(list) && list[end].IsPunct(",") {
				end++
			}
			return end
		}
	}
	return len(list)
}

func (w *walker) apply() string {
	slices.SortStableFunc(w.edits, func(a, b edit) int { return a.start - b.start })
	var b strings.Builder
	last := 0
	for _, e := range w.edits {
		if e.start < last {
			// Nested in an edit already applied.
			continue
		}
		b.WriteString(w.src[last:e.start])
		b.WriteString(e.text)
		last = e.end
	}
	b.WriteString(w.src[last:])
	return b.String()
}

// blankLines widens [start, end) to whole lines when nothing but
// whitespace shares those lines with it, so dropping an item leaves no
// empty line behind.
func blankLines(src string, start, end int) (int, int) {
	s := start
	for s > 0 && (src[s-1] == ' ' || src[s-1] == '\t') {
		s--
	}
	e := end
	for e < len(src) && (src[e] == ' ' || src[e] == '\t' || src[e] == '\r') {
		e++
	}
	lineStart := s == 0 || src[s-1] == '\n'
	lineEnd := e == len(src) || src[e] == '\n'
	if !lineStart || !lineEnd {
		return start, end
	}
	if e < len(src) {
		e++
	}
	return s, e
}

func position(filename, src string, offset int) Position {
	before := src[:offset]
	line := strings.Count(before, "\n") + 1
	col := offset - strings.LastIndexByte(before, '\n')
	return Position{Filename: filename, Line: line, Column: col}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
