package tokens

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// LexError reports source that cannot be split into token trees.
type LexError struct {
	Offset  int
	Message string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("offset %d: %s", e.Offset, e.Message)
}

// Lex splits Rust source into token trees. Comments, doc comments included,
// and whitespace are skipped. Delimiters must balance.
func Lex(src string) ([]Token, error) {
	l := &lexer{src: src}
	toks, err := l.trees(0)
	if err != nil {
		return nil, err
	}
	return toks, nil
}

type lexer struct {
	src string
	pos int
}

// trees lexes until the closing delimiter close, or to end of input when
// close is 0.
func (l *lexer) trees(close byte) ([]Token, error) {
	var out []Token
	for {
		if err := l.skipSpace(); err != nil {
			return nil, err
		}
		if l.pos >= len(l.src) {
			if close != 0 {
				return nil, l.errorf(l.pos, "unclosed delimiter, expected `%c`", close)
			}
			return out, nil
		}

		c := l.src[l.pos]
		switch c {
		case ')', ']', '}':
			if c != close {
				return nil, l.errorf(l.pos, "unexpected closing delimiter `%c`", c)
			}
			return out, nil
		case '(', '[', '{':
			start := l.pos
			delim, want := Paren, byte(')')
			if c == '[' {
				delim, want = Bracket, ']'
			} else if c == '{' {
				delim, want = Brace, '}'
			}
			l.pos++
			children, err := l.trees(want)
			if err != nil {
				return nil, err
			}
			l.pos++ // closing delimiter
			out = append(out, Token{Kind: Group, Delim: delim, Children: children, Start: start, End: l.pos})
			continue
		}

		tok, err := l.leaf()
		if err != nil {
			return nil, err
		}
		out = append(out, tok)
	}
}

func (l *lexer) errorf(offset int, format string, args ...any) error {
	return &LexError{Offset: offset, Message: fmt.Sprintf(format, args...)}
}

func (l *lexer) skipSpace() error {
	for l.pos < len(l.src) {
		rest := l.src[l.pos:]
		switch {
		case strings.HasPrefix(rest, "//"):
			if i := strings.IndexByte(rest, '\n'); i >= 0 {
				l.pos += i + 1
			} else {
				l.pos = len(l.src)
			}
		case strings.HasPrefix(rest, "/*"):
			if err := l.blockComment(); err != nil {
				return err
			}
		default:
			r, size := utf8.DecodeRuneInString(rest)
			if !unicode.IsSpace(r) {
				return nil
			}
			l.pos += size
		}
	}
	return nil
}

// blockComment skips a possibly nested /* */ comment.
func (l *lexer) blockComment() error {
	start := l.pos
	depth := 0
	for l.pos < len(l.src) {
		rest := l.src[l.pos:]
		switch {
		case strings.HasPrefix(rest, "/*"):
			depth++
			l.pos += 2
		case strings.HasPrefix(rest, "*/"):
			depth--
			l.pos += 2
			if depth == 0 {
				return nil
			}
		default:
			l.pos++
		}
	}
	return l.errorf(start, "unterminated block comment")
}

func (l *lexer) leaf() (Token, error) {
	start := l.pos
	c := l.src[l.pos]
	rest := l.src[l.pos:]

	switch {
	case c == '"':
		return l.quoted(start, 0)
	case strings.HasPrefix(rest, "r#") && len(rest) > 2 && isIdentStart(rest[2]):
		// raw identifier r#name
		l.pos += 2
		l.identTail()
		return l.token(Ident, start), nil
	case isRawStringStart(rest):
		return l.rawString(start, 1)
	case (c == 'b' || c == 'c') && isRawStringStart(rest[1:]):
		return l.rawString(start, 2)
	case (c == 'b' || c == 'c') && len(rest) > 1 && rest[1] == '"':
		return l.quoted(start, 1)
	case c == 'b' && len(rest) > 1 && rest[1] == '\'':
		return l.charLiteral(start, 1)
	case c == '\'':
		return l.quote(start)
	case isDigit(c):
		l.number(start)
		return l.token(Literal, start), nil
	case isIdentStart(c):
		l.identTail()
		return l.token(Ident, start), nil
	case c < utf8.RuneSelf && strings.IndexByte(punctChars, c) >= 0:
		l.pos++
		tok := l.token(Punct, start)
		if l.pos < len(l.src) && strings.IndexByte(punctChars, l.src[l.pos]) >= 0 {
			tok.Joint = true
		}
		return tok, nil
	default:
		r, _ := utf8.DecodeRuneInString(rest)
		if unicode.IsLetter(r) {
			l.identTail()
			return l.token(Ident, start), nil
		}
		return Token{}, l.errorf(start, "unexpected character %q", r)
	}
}

const punctChars = "=<>!~+-*/%^&|@.,;:#$?'"

func (l *lexer) token(kind Kind, start int) Token {
	return Token{Kind: kind, Text: l.src[start:l.pos], Start: start, End: l.pos}
}

func (l *lexer) identTail() {
	for l.pos < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return
		}
		l.pos += size
	}
}

// number consumes an integer or float literal with optional suffix. It is
// permissive: anything alphanumeric after the digits belongs to the literal.
func (l *lexer) number(start int) {
	hex := strings.HasPrefix(l.src[start:], "0x")
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case isDigit(c) || c == '_' || isIdentStart(c):
			// exponent sign: 1e-3, 2E+10
			if !hex && (c == 'e' || c == 'E') && l.pos+1 < len(l.src) && (l.src[l.pos+1] == '+' || l.src[l.pos+1] == '-') {
				l.pos += 2
				continue
			}
			l.pos++
		case c == '.' && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1]):
			l.pos++
		case c == '.' && (l.pos+1 == len(l.src) || !isIdentStart(l.src[l.pos+1]) && l.src[l.pos+1] != '.'):
			// `1.` is a float; `1..2` and `1.max()` are not.
			l.pos++
			return
		default:
			return
		}
	}
}

// quoted consumes a "..." string whose opening quote is prefix bytes past
// start, plus any suffix.
func (l *lexer) quoted(start, prefix int) (Token, error) {
	l.pos = start + prefix + 1
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case '\\':
			l.pos += 2
		case '"':
			l.pos++
			l.identTail()
			return l.token(Literal, start), nil
		default:
			l.pos++
		}
	}
	return Token{}, l.errorf(start, "unterminated string literal")
}

func isRawStringStart(s string) bool {
	if !strings.HasPrefix(s, "r") {
		return false
	}
	s = strings.TrimLeft(s[1:], "#")
	return strings.HasPrefix(s, "\"")
}

// rawString consumes r#"..."# with prefix bytes before the hashes.
func (l *lexer) rawString(start, prefix int) (Token, error) {
	l.pos = start + prefix
	hashes := 0
	for l.src[l.pos] == '#' {
		hashes++
		l.pos++
	}
	l.pos++ // opening quote
	terminator := "\"" + strings.Repeat("#", hashes)
	i := strings.Index(l.src[l.pos:], terminator)
	if i < 0 {
		return Token{}, l.errorf(start, "unterminated raw string")
	}
	l.pos += i + len(terminator)
	l.identTail()
	return l.token(Literal, start), nil
}

// quote handles a leading `'`: a char literal like 'a' or '\n', or a
// lifetime like 'a, which lexes as a joint `'` punct and an identifier.
func (l *lexer) quote(start int) (Token, error) {
	rest := l.src[start+1:]
	if rest == "" {
		return Token{}, l.errorf(start, "unterminated character literal")
	}
	if rest[0] == '\\' {
		return l.charLiteral(start, 0)
	}
	r, size := utf8.DecodeRuneInString(rest)
	if size < len(rest) && rest[size] == '\'' {
		return l.charLiteral(start, 0)
	}
	if r == '_' || unicode.IsLetter(r) {
		l.pos = start + 1
		return Token{Kind: Punct, Text: "'", Joint: true, Start: start, End: start + 1}, nil
	}
	return Token{}, l.errorf(start, "unexpected character literal")
}

func (l *lexer) charLiteral(start, prefix int) (Token, error) {
	l.pos = start + prefix + 1
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case '\\':
			l.pos += 2
		case '\'':
			l.pos++
			l.identTail()
			return l.token(Literal, start), nil
		case '\n':
			return Token{}, l.errorf(start, "unterminated character literal")
		default:
			l.pos++
		}
	}
	return Token{}, l.errorf(start, "unterminated character literal")
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
