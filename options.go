package rustversion

import (
	"errors"
	"log/slog"
	"time"

	"github.com/albertocavalcante/go-rustversion/rustc"
	"github.com/albertocavalcante/go-rustversion/version"
)

// Option configures an Engine.
type Option func(*engineConfig) error

// engineConfig holds all Engine configuration.
type engineConfig struct {
	rustc   string
	verbose bool
	timeout time.Duration
	cache   *rustc.Cache
	source  VersionSource

	// logger is the structured logger for debug output.
	// If nil, logging is disabled (silent mode).
	logger *slog.Logger
}

// DefaultOptions returns the options New applies before the caller's.
func DefaultOptions() []Option {
	return []Option{
		WithTimeout(30 * time.Second),
		WithCache(rustc.Default),
	}
}

// WithRustc sets the compiler to run instead of $RUSTC or rustc on PATH.
func WithRustc(path string) Option {
	return func(c *engineConfig) error {
		if path == "" {
			return errors.New("rustc path must not be empty")
		}
		c.rustc = path
		return nil
	}
}

// WithVerbose probes with `rustc -vV` instead of `rustc --version`.
func WithVerbose(verbose bool) Option {
	return func(c *engineConfig) error {
		c.verbose = verbose
		return nil
	}
}

// WithTimeout bounds each compiler run. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *engineConfig) error {
		c.timeout = d
		return nil
	}
}

// WithCache sets the cache of probed compiler versions. The default is the
// process-wide rustc.Default.
func WithCache(cache *rustc.Cache) Option {
	return func(c *engineConfig) error {
		if cache == nil {
			return errors.New("cache must not be nil")
		}
		c.cache = cache
		return nil
	}
}

// WithSource replaces the compiler probe with src.
func WithSource(src VersionSource) Option {
	return func(c *engineConfig) error {
		c.source = src
		return nil
	}
}

// WithVersion evaluates against a fixed version instead of running the
// compiler.
func WithVersion(v version.Version) Option {
	return WithSource(Fixed(v))
}

// WithVersionText evaluates against the version described by text, in
// `rustc --version` form.
func WithVersionText(text string) Option {
	return func(c *engineConfig) error {
		v, err := version.Parse(text)
		if err != nil {
			return err
		}
		c.source = Fixed(v)
		return nil
	}
}

// WithLogger sets a structured logger for evaluation diagnostics.
// If not set, logging is disabled (silent mode).
//
// Example:
//
//	logger := slog.New(slog.NewTextHandler(os.Stderr, nil)).With("component", "rustversion")
//	engine, err := rustversion.New(rustversion.WithLogger(logger))
func WithLogger(l *slog.Logger) Option {
	return func(c *engineConfig) error {
		c.logger = l
		return nil
	}
}

// validate checks the configuration for logical consistency.
func (c *engineConfig) validate() error {
	if c.timeout < 0 {
		return errors.New("timeout must be positive")
	}
	if c.source != nil && c.rustc != "" {
		return errors.New("a fixed version and a rustc path are mutually exclusive")
	}
	return nil
}

// log returns the configured logger, or a no-op logger if none was set.
func (c *engineConfig) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.New(slog.DiscardHandler)
}


// newEngineConfig applies the defaults and the given options, then
// validates the result.
func newEngineConfig(opts ...Option) (*engineConfig, error) {
	c := &engineConfig{}
	for _, opt := range append(DefaultOptions(), opts...) {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// probe returns the compiler invocation described by the configuration.
func (c *engineConfig) probe() rustc.Probe {
	return rustc.Probe{
		Path:    c.rustc,
		Verbose: c.verbose,
		Timeout: c.timeout,
		Logger:  c.logger,
	}
}
