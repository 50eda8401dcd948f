package selector

import (
	"fmt"
	"strconv"

	"github.com/albertocavalcante/go-rustversion/version"
)

// Keywords lists the selector keywords in the order used by error messages.
var Keywords = []string{"stable", "beta", "nightly", "since", "before", "not", "any", "all", "minver"}

const expectedKeyword = "expected one of: stable, beta, nightly, since, before, not, any, all, minver"

// SyntaxError reports a selector that does not match the grammar.
type SyntaxError struct {
	Input   string
	Offset  int // byte offset into Input
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid selector %q at offset %d: %s", e.Input, e.Offset, e.Message)
}

// Parse parses a complete selector expression.
func Parse(text string) (Expr, error) {
	p := newParser(text)
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, p.errorf(tok, "unexpected %s after selector", tok.describe())
	}
	return e, nil
}

// MustParse parses a selector or panics. Use only for constants/tests.
func MustParse(text string) Expr {
	e, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return e
}

// ParsePrefix parses one selector expression at the start of text and
// returns it along with the byte offset just past it, for callers that
// embed a selector in a longer argument list.
func ParsePrefix(text string) (Expr, int, error) {
	p := newParser(text)
	e, err := p.parseExpr()
	if err != nil {
		return nil, 0, err
	}
	return e, p.offset(), nil
}

type parser struct {
	input string
	toks  []token
	pos   int
}

func newParser(text string) *parser {
	return &parser{input: text, toks: lex(text)}
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

// peekAt returns the token n positions ahead without consuming anything.
func (p *parser) peekAt(n int) token {
	if i := p.pos + n; i < len(p.toks) {
		return p.toks[i]
	}
	return p.toks[len(p.toks)-1]
}

func (p *parser) next() token {
	tok := p.toks[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

// offset is the byte offset just past the last consumed token.
func (p *parser) offset() int {
	if p.pos == 0 {
		return 0
	}
	last := p.toks[p.pos-1]
	return last.pos + len(last.text)
}

func (p *parser) errorf(at token, format string, args ...any) error {
	return &SyntaxError{Input: p.input, Offset: at.pos, Message: fmt.Sprintf(format, args...)}
}

func (p *parser) expect(kind tokenKind) (token, error) {
	tok := p.next()
	if tok.kind != kind {
		return tok, p.errorf(tok, "expected %s, found %s", kind, tok.describe())
	}
	return tok, nil
}

func (p *parser) parseExpr() (Expr, error) {
	tok := p.peek()
	if tok.kind != tokIdent {
		return nil, p.errorf(tok, expectedKeyword)
	}
	switch tok.text {
	case "stable":
		return p.parseStable()
	case "beta":
		p.next()
		return Beta{}, nil
	case "nightly":
		return p.parseNightly()
	case "since":
		p.next()
		b, err := p.parenthesized(p.parseBound)
		if err != nil {
			return nil, err
		}
		return Since{Bound: b}, nil
	case "before":
		p.next()
		b, err := p.parenthesized(p.parseBound)
		if err != nil {
			return nil, err
		}
		return Before{Bound: b}, nil
	case "not":
		p.next()
		var x Expr
		err := p.inParens(func() (err error) {
			x, err = p.parseExpr()
			return err
		})
		if err != nil {
			return nil, err
		}
		return Not{X: x}, nil
	case "any":
		p.next()
		list, err := p.parseList()
		if err != nil {
			return nil, err
		}
		return Any{List: list}, nil
	case "all":
		p.next()
		list, err := p.parseList()
		if err != nil {
			return nil, err
		}
		return All{List: list}, nil
	case "minver":
		p.next()
		b, err := p.parenthesized(p.parseBound)
		if err != nil {
			return nil, err
		}
		return MinVer{Bound: b}, nil
	default:
		return nil, p.errorf(tok, expectedKeyword)
	}
}

func (p *parser) parseStable() (Expr, error) {
	p.next()
	if p.peek().kind != tokLParen {
		return Stable{}, nil
	}
	var rel ReleaseSelector
	err := p.inParens(func() (err error) {
		rel, err = p.parseRelease()
		return err
	})
	if err != nil {
		return nil, err
	}
	return ReleaseIs{Release: rel}, nil
}

func (p *parser) parseNightly() (Expr, error) {
	p.next()
	if p.peek().kind != tokLParen {
		return Nightly{}, nil
	}
	var date version.Date
	err := p.inParens(func() (err error) {
		date, err = p.parseDate()
		return err
	})
	if err != nil {
		return nil, err
	}
	return NightlyDate{Date: date}, nil
}

// parenthesized parses `( BOUND [,] )`.
func (p *parser) parenthesized(parse func() (Bound, error)) (Bound, error) {
	var b Bound
	err := p.inParens(func() (err error) {
		b, err = parse()
		return err
	})
	return b, err
}

// inParens parses `( body [,] )`, tolerating one trailing comma.
func (p *parser) inParens(body func() error) error {
	if _, err := p.expect(tokLParen); err != nil {
		return err
	}
	if err := body(); err != nil {
		return err
	}
	if p.peek().kind == tokComma {
		p.next()
	}
	_, err := p.expect(tokRParen)
	return err
}

// parseList parses `( [EXPR {, EXPR} [,]] )`.
func (p *parser) parseList() ([]Expr, error) {
	if _, err := p.expect(tokLParen); err != nil {
		return nil, err
	}
	list := []Expr{}
	for p.peek().kind != tokRParen {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		list = append(list, e)
		if p.peek().kind != tokComma {
			break
		}
		p.next()
	}
	if _, err := p.expect(tokRParen); err != nil {
		return nil, err
	}
	return list, nil
}

// parseBound reads a nightly date when the second token is `-`, since
// release numbers never contain one, and a release number otherwise.
func (p *parser) parseBound() (Bound, error) {
	if p.peekAt(1).kind == tokDash {
		d, err := p.parseDate()
		if err != nil {
			return Bound{}, err
		}
		return NightlyBound(d), nil
	}
	r, err := p.parseRelease()
	if err != nil {
		return Bound{}, err
	}
	return StableBound(r), nil
}

func (p *parser) parseDate() (version.Date, error) {
	start := p.peek()
	fail := func() (version.Date, error) {
		return version.Date{}, p.errorf(start, "expected nightly date, like %s", version.Today())
	}

	var fields [3]uint64
	for i := range fields {
		if i > 0 {
			if p.next().kind != tokDash {
				return fail()
			}
		}
		tok := p.next()
		if tok.kind != tokInt {
			return fail()
		}
		n, err := strconv.ParseUint(tok.text, 10, 64)
		if err != nil {
			return fail()
		}
		fields[i] = n
	}
	d, err := version.NewDate(fields[0], fields[1], fields[2])
	if err != nil {
		return fail()
	}
	return d, nil
}

func (p *parser) parseRelease() (ReleaseSelector, error) {
	start := p.peek()
	fail := func() (ReleaseSelector, error) {
		return ReleaseSelector{}, p.errorf(start, "expected rustc release number, like 1.31")
	}

	if major := p.next(); major.kind != tokInt || major.text != "1" {
		return fail()
	}
	if p.next().kind != tokDot {
		return fail()
	}
	minorTok := p.next()
	if minorTok.kind != tokInt {
		return fail()
	}
	minor, err := strconv.ParseUint(minorTok.text, 10, 16)
	if err != nil {
		return fail()
	}
	sel := Minor(uint16(minor))

	if p.peek().kind == tokDot {
		p.next()
		patchTok := p.next()
		if patchTok.kind != tokInt {
			return fail()
		}
		patch, err := strconv.ParseUint(patchTok.text, 10, 16)
		if err != nil {
			return fail()
		}
		sel = Exact(sel.Minor, uint16(patch))
	}
	return sel, nil
}
