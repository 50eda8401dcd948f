package rustversion

import (
	"context"
	"errors"

	"github.com/albertocavalcante/go-rustversion/rustc"
	"github.com/albertocavalcante/go-rustversion/version"
)

// VersionSource supplies the toolchain version selectors are evaluated
// against.
type VersionSource interface {
	Version(ctx context.Context) (version.Version, error)
}

// Compile-time interface compliance checks
var _ VersionSource = Fixed{}
var _ VersionSource = (*ProbeSource)(nil)
var _ VersionSource = (*FailingSource)(nil)

// Fixed is a VersionSource that always returns the same version.
type Fixed version.Version

// Version returns the fixed version.
func (f Fixed) Version(context.Context) (version.Version, error) {
	return version.Version(f), nil
}

// ProbeSource runs the compiler through a cache.
type ProbeSource struct {
	Probe rustc.Probe
	Cache *rustc.Cache
}

// Version returns the cached compiler version, probing on first use.
func (s *ProbeSource) Version(ctx context.Context) (version.Version, error) {
	return s.Cache.Version(ctx, s.Probe)
}

// FailingSource is a source that always returns an error.
// Useful for testing error handling paths.
type FailingSource struct {
	Err error
}

// NewFailingSource creates a source that fails with err.
func NewFailingSource(err error) *FailingSource {
	if err == nil {
		err = errors.New("version unavailable")
	}
	return &FailingSource{Err: err}
}

// Version always returns an error.
func (s *FailingSource) Version(context.Context) (version.Version, error) {
	return version.Version{}, s.Err
}
