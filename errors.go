package rustversion

import (
	"errors"

	"github.com/albertocavalcante/go-rustversion/selector"
)

// Sentinel errors for evaluation failures.
var (
	// ErrContradiction indicates a selector that the asserted minimum
	// version makes unreachable.
	ErrContradiction = selector.ErrContradiction

	// ErrDuplicateMinVer indicates a second minver assertion in one run.
	ErrDuplicateMinVer = selector.ErrDuplicateMinVer

	// ErrNoVersion indicates the toolchain version could not be determined.
	// It wraps the underlying *rustc.Error or source error.
	ErrNoVersion = errors.New("toolchain version unavailable")
)
