package selector

import (
	"fmt"

	"github.com/albertocavalcante/go-rustversion/version"
)

// ReleaseSelector is a release-number pattern such as 1.31 or 1.31.2.
// Without a patch it matches every patch release of the minor version.
type ReleaseSelector struct {
	Minor    uint16
	Patch    uint16
	HasPatch bool
}

// Minor returns a selector matching any patch of 1.minor.
func Minor(minor uint16) ReleaseSelector {
	return ReleaseSelector{Minor: minor}
}

// Exact returns a selector matching only 1.minor.patch.
func Exact(minor, patch uint16) ReleaseSelector {
	return ReleaseSelector{Minor: minor, Patch: patch, HasPatch: true}
}

func (r ReleaseSelector) String() string {
	if r.HasPatch {
		return fmt.Sprintf("1.%d.%d", r.Minor, r.Patch)
	}
	return fmt.Sprintf("1.%d", r.Minor)
}

// Matches reports whether rel is selected by r.
func (r ReleaseSelector) Matches(rel version.Release) bool {
	return rel.Minor == r.Minor && (!r.HasPatch || rel.Patch == r.Patch)
}

// Lower returns the lowest release matched by r: a missing patch counts as 0.
func (r ReleaseSelector) Lower() version.Release {
	return version.Release{Minor: r.Minor, Patch: r.Patch}
}

// Compare orders selectors by their lowest matching release.
func (r ReleaseSelector) Compare(other ReleaseSelector) int {
	return r.Lower().Compare(other.Lower())
}

// BoundKind distinguishes the two Bound variants.
type BoundKind uint8

const (
	BoundStable BoundKind = iota
	BoundNightly
)

// Bound is the argument of since, before and minver: either a stable
// release number or a nightly date.
type Bound struct {
	Kind    BoundKind
	Release ReleaseSelector
	Date    version.Date
}

// StableBound returns a release-number bound.
func StableBound(r ReleaseSelector) Bound {
	return Bound{Kind: BoundStable, Release: r}
}

// NightlyBound returns a nightly-date bound.
func NightlyBound(d version.Date) Bound {
	return Bound{Kind: BoundNightly, Date: d}
}

func (b Bound) String() string {
	if b.Kind == BoundNightly {
		return b.Date.String()
	}
	return b.Release.String()
}

// CompareBounds is a total order over bounds. Nightly bounds compare by
// date, stable bounds by release with a missing patch counted as 0, and
// every nightly bound sorts after every stable bound.
func CompareBounds(a, b Bound) int {
	switch {
	case a.Kind == BoundNightly && b.Kind == BoundNightly:
		return a.Date.Compare(b.Date)
	case a.Kind == BoundStable && b.Kind == BoundStable:
		return a.Release.Compare(b.Release)
	case a.Kind == BoundNightly:
		return 1
	default:
		return -1
	}
}

// CompareVersion orders a toolchain version against a bound.
//
// Against a stable bound only the release number matters, whatever the
// channel: a 1.36 nightly is at or above since(1.36). Against a nightly
// bound, stable and beta toolchains are always below, a dated nightly
// compares by date, and a dev build is always above.
func CompareVersion(v version.Version, b Bound) int {
	if b.Kind == BoundStable {
		return v.Release.Compare(b.Release.Lower())
	}
	switch v.Channel.Kind {
	case version.KindNightly:
		return v.Channel.Date.Compare(b.Date)
	case version.KindDev:
		return 1
	default:
		return -1
	}
}
