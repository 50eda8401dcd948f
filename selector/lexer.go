package selector

import "fmt"

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokIdent
	tokInt
	tokLParen
	tokRParen
	tokComma
	tokDot
	tokDash
	tokIllegal
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokIdent:
		return "identifier"
	case tokInt:
		return "integer"
	case tokLParen:
		return "`(`"
	case tokRParen:
		return "`)`"
	case tokComma:
		return "`,`"
	case tokDot:
		return "`.`"
	case tokDash:
		return "`-`"
	default:
		return "illegal character"
	}
}

type token struct {
	kind tokenKind
	text string
	pos  int // byte offset of the first character
}

func (t token) describe() string {
	switch t.kind {
	case tokIdent, tokInt, tokIllegal:
		return fmt.Sprintf("%s %q", t.kind, t.text)
	default:
		return t.kind.String()
	}
}

// lex splits src into tokens. Characters outside the selector alphabet
// become tokIllegal tokens so the parser reports them in context. The
// result always ends with tokEOF.
func lex(src string) []token {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case isDigit(c):
			start := i
			for i < len(src) && isDigit(src[i]) {
				i++
			}
			toks = append(toks, token{kind: tokInt, text: src[start:i], pos: start})
		case isIdentStart(c):
			start := i
			for i < len(src) && (isIdentStart(src[i]) || isDigit(src[i])) {
				i++
			}
			toks = append(toks, token{kind: tokIdent, text: src[start:i], pos: start})
		default:
			kind := tokIllegal
			switch c {
			case '(':
				kind = tokLParen
			case ')':
				kind = tokRParen
			case ',':
				kind = tokComma
			case '.':
				kind = tokDot
			case '-':
				kind = tokDash
			}
			toks = append(toks, token{kind: kind, text: src[i : i+1], pos: i})
			i++
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(src)})
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
