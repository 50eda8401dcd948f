// Package version models rustc versions and parses the text printed by
// `rustc --version` and `rustc -vV`.
//
// A Version is a Release (1.MINOR.PATCH) plus a Channel. The channel is one
// of four fixed release tracks:
//
//   - Stable
//   - Beta
//   - Nightly, carrying the build date
//   - Dev, a build with no usable date (local builds, and nightlies whose
//     version line carries no commit information)
//
// Dev sorts after every dated nightly.
package version

import "fmt"

// ChannelKind identifies the release track of a toolchain.
type ChannelKind uint8

const (
	KindStable ChannelKind = iota
	KindBeta
	KindNightly
	KindDev
)

func (k ChannelKind) String() string {
	switch k {
	case KindStable:
		return "stable"
	case KindBeta:
		return "beta"
	case KindNightly:
		return "nightly"
	case KindDev:
		return "dev"
	default:
		return fmt.Sprintf("ChannelKind(%d)", uint8(k))
	}
}

// Channel is the release track of a toolchain. Date is only meaningful
// when Kind is KindNightly; the constructors keep it zero otherwise, so
// Channel values compare with ==.
type Channel struct {
	Kind ChannelKind
	Date Date
}

// Stable returns the stable channel.
func Stable() Channel { return Channel{Kind: KindStable} }

// Beta returns the beta channel.
func Beta() Channel { return Channel{Kind: KindBeta} }

// Nightly returns the nightly channel built on date.
func Nightly(date Date) Channel { return Channel{Kind: KindNightly, Date: date} }

// Dev returns the undated development channel.
func Dev() Channel { return Channel{Kind: KindDev} }

// IsNightly reports whether the channel is a nightly or dev build.
func (c Channel) IsNightly() bool {
	return c.Kind == KindNightly || c.Kind == KindDev
}

func (c Channel) String() string {
	if c.Kind == KindNightly {
		return "nightly(" + c.Date.String() + ")"
	}
	return c.Kind.String()
}

// Version is a parsed rustc version.
type Version struct {
	Release
	Channel Channel
}

// New builds a Version from its parts.
func New(minor, patch uint16, channel Channel) Version {
	return Version{Release: Release{Minor: minor, Patch: patch}, Channel: channel}
}

// String renders the version the way rustc prints it, minus the commit
// hash: "1.36.0-nightly (2019-04-27)", "1.35.0-beta", "1.34.2".
func (v Version) String() string {
	switch v.Channel.Kind {
	case KindBeta:
		return v.Release.String() + "-beta"
	case KindNightly:
		return v.Release.String() + "-nightly (" + v.Channel.Date.String() + ")"
	case KindDev:
		return v.Release.String() + "-dev"
	default:
		return v.Release.String()
	}
}
