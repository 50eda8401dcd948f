package selector

import (
	"errors"
	"fmt"
)

// Sentinel errors matched by ConsistencyError.Is.
var (
	// ErrContradiction indicates a selector that cannot fire, or always
	// fires, given the asserted minimum version.
	ErrContradiction = errors.New("selector contradicts asserted minimum version")

	// ErrDuplicateMinVer indicates a second minver assertion in one run.
	ErrDuplicateMinVer = errors.New("minimum version already asserted")
)

// ConsistencyKind classifies a ConsistencyError.
type ConsistencyKind uint8

const (
	// ChannelBelowNightly: stable or beta under a nightly minimum.
	ChannelBelowNightly ConsistencyKind = iota
	// DateBelowNightly: nightly(date) older than the nightly minimum.
	DateBelowNightly
	// ReleaseUnderNightly: stable(release) under a nightly minimum.
	ReleaseUnderNightly
	// ReleaseBelowMinimum: stable(release) older than the stable minimum.
	ReleaseBelowMinimum
	// BoundBelowMinimum: since/before with a bound below the minimum.
	BoundBelowMinimum
	// DuplicateMinVer: a second minver.
	DuplicateMinVer
)

// ConsistencyError reports a selector that is unreachable under the
// asserted minimum version, or a repeated minver.
type ConsistencyError struct {
	Kind ConsistencyKind
	// MinVer is the bound asserted earlier in the run.
	MinVer Bound
	// Expr is the selector that failed the check.
	Expr Expr
}

func (e *ConsistencyError) Error() string {
	asserted := MinVer{Bound: e.MinVer}.String()
	switch e.Kind {
	case ChannelBelowNightly, ReleaseUnderNightly:
		return fmt.Sprintf("%s can never be true: %s already requires a nightly compiler", e.Expr, asserted)
	case DateBelowNightly:
		return fmt.Sprintf("%s can never be true: it is older than %s", e.Expr, asserted)
	case ReleaseBelowMinimum:
		return fmt.Sprintf("%s can never be true: it is older than %s", e.Expr, asserted)
	case BoundBelowMinimum:
		return fmt.Sprintf("%s is decided by %s: its bound is below the asserted minimum", e.Expr, asserted)
	case DuplicateMinVer:
		return fmt.Sprintf("%s conflicts with earlier %s: the minimum version may only be asserted once", e.Expr, asserted)
	default:
		return fmt.Sprintf("%s is inconsistent with %s", e.Expr, asserted)
	}
}

// Is reports whether target is the sentinel for e's kind.
func (e *ConsistencyError) Is(target error) bool {
	if e.Kind == DuplicateMinVer {
		return target == ErrDuplicateMinVer
	}
	return target == ErrContradiction
}
