package tokens

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLex(t *testing.T) {
	src := `#[attr] fn f<'a>(x: &'a str) -> u8 { 1 }`
	toks, err := Lex(src)
	if err != nil {
		t.Fatalf("Lex() error: %v", err)
	}
	kinds := make([]Kind, len(toks))
	for i, tok := range toks {
		kinds[i] = tok.Kind
	}
	// # [attr] fn f < ' a > (...) - > u8 {1}
	want := []Kind{Punct, Group, Ident, Ident, Punct, Punct, Ident, Punct, Group, Punct, Punct, Ident, Group}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Fatalf("token kinds mismatch (-want +got):\n%s", diff)
	}

	if !toks[1].IsGroup(Bracket) || !toks[1].Children[0].IsIdent("attr") {
		t.Errorf("toks[1] = %v, want [attr]", toks[1])
	}
	for _, tok := range toks {
		if tok.Start < 0 || tok.End > len(src) || tok.Start >= tok.End {
			t.Errorf("token %v has bad span [%d, %d)", tok, tok.Start, tok.End)
			continue
		}
		if tok.Kind != Group && src[tok.Start:tok.End] != tok.Text {
			t.Errorf("span of %q covers %q", tok.Text, src[tok.Start:tok.End])
		}
	}
	last := toks[len(toks)-1]
	if !last.IsGroup(Brace) || src[last.Start:last.End] != "{ 1 }" {
		t.Errorf("last token = %v spanning %q, want { 1 }", last, src[last.Start:last.End])
	}
}

func TestLex_Literals(t *testing.T) {
	tests := []struct {
		src  string
		want []string
	}{
		{`"a \" b"`, []string{`"a \" b"`}},
		{`r#"raw "quoted" "#`, []string{`r#"raw "quoted" "#`}},
		{`b"bytes" br"raw" c"cstr"`, []string{`b"bytes"`, `br"raw"`, `c"cstr"`}},
		{`'x' '\n' '\'' b'a'`, []string{`'x'`, `'\n'`, `'\''`, `b'a'`}},
		{`1 2u8 0xff 1_000 1.5 1e-3 2.0f64`, []string{"1", "2u8", "0xff", "1_000", "1.5", "1e-3", "2.0f64"}},
		{`"s"suffix`, []string{`"s"suffix`}},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			toks, err := Lex(tt.src)
			if err != nil {
				t.Fatalf("Lex(%q) error: %v", tt.src, err)
			}
			var got []string
			for _, tok := range toks {
				if tok.Kind != Literal {
					t.Errorf("token %q kind = %v, want literal", tok.Text, tok.Kind)
				}
				got = append(got, tok.Text)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Lex(%q) mismatch (-want +got):\n%s", tt.src, diff)
			}
		})
	}
}

func TestLex_Punct(t *testing.T) {
	toks, err := Lex("a::b => 1..2 x.max()")
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, tok := range toks {
		s := tok.Text
		if tok.Kind == Group {
			s = "()"
		}
		if tok.Joint {
			s += "~"
		}
		got = append(got, s)
	}
	want := []string{"a", ":~", ":", "b", "=~", ">", "1", ".~", ".", "2", "x", ".", "max", "()"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestLex_SkipsComments(t *testing.T) {
	src := "/// doc\n// line\nfn /* block /* nested */ */ f() {}\n"
	toks, err := Lex(src)
	if err != nil {
		t.Fatal(err)
	}
	if got := Render(toks); got != "fn f () {}" {
		t.Errorf("Render() = %q", got)
	}
}

func TestLex_Errors(t *testing.T) {
	tests := []struct {
		src     string
		wantMsg string
	}{
		{"fn f() {", "unclosed delimiter"},
		{"fn f() }", "unexpected closing delimiter"},
		{"(]", "unexpected closing delimiter"},
		{`"open`, "unterminated string literal"},
		{`r#"open"`, "unterminated raw string"},
		{"/* open", "unterminated block comment"},
		{"€", "unexpected character"},
	}
	for _, tt := range tests {
		_, err := Lex(tt.src)
		var lerr *LexError
		if !errors.As(err, &lerr) {
			t.Errorf("Lex(%q) error = %v, want *LexError", tt.src, err)
			continue
		}
		if !strings.Contains(lerr.Message, tt.wantMsg) {
			t.Errorf("Lex(%q) message = %q, want %q", tt.src, lerr.Message, tt.wantMsg)
		}
	}
}

func TestRender(t *testing.T) {
	toks := []Token{
		NewPunct("#", false),
		NewGroup(Bracket,
			NewIdent("cfg_attr"),
			NewGroup(Paren, NewIdent("all"), NewGroup(Paren), NewPunct(",", false), NewIdent("must_use")),
		),
		NewGroup(None, NewIdent("fn"), NewIdent("f")),
		NewGroup(Paren),
		NewGroup(Brace),
	}
	want := "# [cfg_attr (all () , must_use)] fn f () {}"
	if got := Render(toks); got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}

func TestInsertConst(t *testing.T) {
	tests := []struct {
		item string
		want string
	}{
		{"fn f() {}", "const fn f () {}"},
		{"pub fn f() {}", "pub const fn f () {}"},
		{"pub(crate) fn f() {}", "pub (crate) const fn f () {}"},
		{"async fn f() {}", "const async fn f () {}"},
		{"pub unsafe fn f() {}", "pub const unsafe fn f () {}"},
		{"pub async unsafe fn f() {}", "pub const async unsafe fn f () {}"},
		{`extern "C" fn f() {}`, `const extern "C" fn f () {}`},
		{`pub unsafe extern "C" fn f() {}`, `pub const unsafe extern "C" fn f () {}`},
		{"unsafe async fn f() {}", "unsafe async const fn f () {}"},
		{"#[inline] pub fn f() {}", "# [inline] pub const fn f () {}"},
	}
	for _, tt := range tests {
		t.Run(tt.item, func(t *testing.T) {
			toks, err := Lex(tt.item)
			if err != nil {
				t.Fatal(err)
			}
			out, err := InsertConst(toks)
			if err != nil {
				t.Fatalf("InsertConst(%q) error: %v", tt.item, err)
			}
			if got := Render(out); got != tt.want {
				t.Errorf("InsertConst(%q) = %q, want %q", tt.item, got, tt.want)
			}

			off, err := ConstOffset(toks)
			if err != nil {
				t.Fatalf("ConstOffset(%q) error: %v", tt.item, err)
			}
			spliced := tt.item[:off] + "const " + tt.item[off:]
			relexed, err := Lex(spliced)
			if err != nil {
				t.Fatal(err)
			}
			if got := Render(relexed); got != tt.want {
				t.Errorf("ConstOffset splice = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInsertConst_NoneGroup(t *testing.T) {
	item := []Token{
		NewIdent("pub"),
		NewGroup(None, NewIdent("unsafe"), NewGroup(None, NewIdent("fn"))),
		NewIdent("f"),
		NewGroup(Paren),
		NewGroup(Brace),
	}
	out, err := InsertConst(item)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := Render(out), "pub const unsafe fn f () {}"; got != want {
		t.Errorf("InsertConst() = %q, want %q", got, want)
	}
	if _, err := ConstOffset(item); err == nil {
		t.Error("ConstOffset() on synthesized tokens succeeded, want error")
	}
}

func TestInsertConst_NotFn(t *testing.T) {
	for _, item := range []string{"struct S;", "impl S {}", "const X: u8 = 1;", ""} {
		toks, err := Lex(item)
		if err != nil {
			t.Fatal(err)
		}
		_, err = InsertConst(toks)
		var perr *PlacementError
		if !errors.As(err, &perr) {
			t.Fatalf("InsertConst(%q) error = %v, want *PlacementError", item, err)
		}
		if perr.Message != "only allowed on a fn item" {
			t.Errorf("message = %q", perr.Message)
		}
	}
}
