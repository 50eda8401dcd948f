package tokens

// PlacementError reports an edit that has no valid place in the item.
type PlacementError struct {
	Message string
}

func (e *PlacementError) Error() string {
	return e.Message
}

// qualifier tracks the function qualifiers seen since the last unrelated
// token. They must appear in this order, so a qualifier that does not
// advance the state starts over.
type qualifier uint8

const (
	qualNone qualifier = iota
	qualAsync
	qualUnsafe
	qualExtern
	qualABI // the "C" in extern "C"
)

func qualifierOf(t Token) qualifier {
	if t.Kind != Ident {
		return qualNone
	}
	switch t.Text {
	case "async":
		return qualAsync
	case "unsafe":
		return qualUnsafe
	case "extern":
		return qualExtern
	}
	return qualNone
}

// constSite is where `const` goes: before the first pending qualifier, or
// before the fn keyword when there is none.
type constSite struct {
	// index of the site within the flattened stream
	index int
	// byte offset of the token at the site, -1 if synthesized
	offset int
}

// flatten expands None groups, which are transparent.
func flatten(toks []Token) []Token {
	var out []Token
	for _, t := range toks {
		if t.IsGroup(None) {
			out = append(out, flatten(t.Children)...)
			continue
		}
		out = append(out, t)
	}
	return out
}

func findConstSite(item []Token) (constSite, []Token, error) {
	flat := flatten(item)
	state := qualNone
	pending := -1
	for i, t := range flat {
		switch {
		case t.IsIdent("fn"):
			site := i
			if pending >= 0 {
				site = pending
			}
			return constSite{index: site, offset: flat[site].Start}, flat, nil
		case qualifierOf(t) > state:
			state = qualifierOf(t)
			if pending < 0 {
				pending = i
			}
		case t.Kind == Literal && state == qualExtern:
			state = qualABI
		default:
			state = qualNone
			pending = -1
		}
	}
	return constSite{}, nil, &PlacementError{Message: "only allowed on a fn item"}
}

// InsertConst marks a function item const. The keyword goes directly
// before `fn`, ahead of any async, unsafe or extern "abi" qualifiers:
//
//	pub unsafe extern "C" fn f()  =>  pub const unsafe extern "C" fn f()
//
// None-delimited groups are looked through and come back flattened. An
// item without a fn keyword is a *PlacementError.
func InsertConst(item []Token) ([]Token, error) {
	site, flat, err := findConstSite(item)
	if err != nil {
		return nil, err
	}
	out := make([]Token, 0, len(flat)+1)
	out = append(out, flat[:site.index]...)
	out = append(out, NewIdent("const"))
	out = append(out, flat[site.index:]...)
	return out, nil
}

// ConstOffset returns the byte offset in the lexed source where `const `
// must be inserted to mark item const, following the same placement as
// InsertConst. Callers use it to edit source text in place.
func ConstOffset(item []Token) (int, error) {
	site, _, err := findConstSite(item)
	if err != nil {
		return 0, err
	}
	if site.offset < 0 {
		return 0, &PlacementError{Message: "fn keyword has no source position"}
	}
	return site.offset, nil
}
