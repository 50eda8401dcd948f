// Package tokens lexes Rust source into token trees.
//
// A token tree is the unit Rust macros operate on: identifiers, literals,
// single-character punctuation, and delimited groups holding nested trees.
// Every token lexed from source keeps its byte span so callers can edit
// the original text in place instead of re-printing it.
package tokens

import "strings"

// Kind identifies the variant of a Token.
type Kind uint8

const (
	Ident Kind = iota
	Literal
	Punct
	Group
)

func (k Kind) String() string {
	switch k {
	case Ident:
		return "ident"
	case Literal:
		return "literal"
	case Punct:
		return "punct"
	default:
		return "group"
	}
}

// Delimiter is the bracket kind of a Group.
type Delimiter uint8

const (
	Paren   Delimiter = iota // ( ... )
	Brace                    // { ... }
	Bracket                  // [ ... ]

	// None is an invisible delimiter. Macro expansion produces these around
	// substituted fragments; they never appear in source text and are
	// transparent to every operation in this module.
	None
)

func (d Delimiter) open() string {
	switch d {
	case Paren:
		return "("
	case Brace:
		return "{"
	case Bracket:
		return "["
	}
	return ""
}

func (d Delimiter) close() string {
	switch d {
	case Paren:
		return ")"
	case Brace:
		return "}"
	case Bracket:
		return "]"
	}
	return ""
}

// Token is one token tree.
type Token struct {
	Kind Kind

	// Text is the source text of an Ident, Literal or Punct. Empty for groups.
	Text string

	// Joint marks a Punct immediately followed by another Punct, as in the
	// two halves of `::` or `=>`.
	Joint bool

	Delim    Delimiter
	Children []Token

	// Start and End are the byte span in the lexed source, End exclusive.
	// A group's span covers its delimiters. Synthesized tokens have
	// Start == End == -1.
	Start, End int
}

// NewIdent returns a synthesized identifier.
func NewIdent(name string) Token {
	return Token{Kind: Ident, Text: name, Start: -1, End: -1}
}

// NewPunct returns a synthesized punctuation character.
func NewPunct(ch string, joint bool) Token {
	return Token{Kind: Punct, Text: ch, Joint: joint, Start: -1, End: -1}
}

// NewLiteral returns a synthesized literal.
func NewLiteral(text string) Token {
	return Token{Kind: Literal, Text: text, Start: -1, End: -1}
}

// NewGroup returns a synthesized group.
func NewGroup(delim Delimiter, children ...Token) Token {
	return Token{Kind: Group, Delim: delim, Children: children, Start: -1, End: -1}
}

// IsIdent reports whether t is the identifier name.
func (t Token) IsIdent(name string) bool {
	return t.Kind == Ident && t.Text == name
}

// IsPunct reports whether t is the punctuation character ch.
func (t Token) IsPunct(ch string) bool {
	return t.Kind == Punct && t.Text == ch
}

// IsGroup reports whether t is a group with the given delimiter.
func (t Token) IsGroup(delim Delimiter) bool {
	return t.Kind == Group && t.Delim == delim
}

// Render prints a token stream as compact Rust source. Original spacing is
// not preserved: tokens are separated by one space except after a joint
// punct and just inside delimiters.
func Render(toks []Token) string {
	var b strings.Builder
	render(&b, toks)
	return b.String()
}

func render(b *strings.Builder, toks []Token) {
	for i, t := range toks {
		if i > 0 && !(toks[i-1].Kind == Punct && toks[i-1].Joint) {
			b.WriteByte(' ')
		}
		if t.Kind != Group {
			b.WriteString(t.Text)
			continue
		}
		b.WriteString(t.Delim.open())
		render(b, t.Children)
		b.WriteString(t.Delim.close())
	}
}

func (t Token) String() string {
	return Render([]Token{t})
}
