package selector

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/albertocavalcante/go-rustversion/version"
)

// Checker evaluates selectors for one build run and owns the run's
// minimum-version assertion. Create one per run and share it by pointer
// between every evaluation; it is safe for concurrent use.
type Checker struct {
	mu     sync.RWMutex
	minver Bound
	set    bool
	logger *slog.Logger
}

// NewChecker returns a Checker with no minimum version asserted. A nil
// logger disables logging.
func NewChecker(logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Checker{logger: logger}
}

// MinVer returns the asserted minimum version, if any.
func (c *Checker) MinVer() (Bound, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.minver, c.set
}

// Eval evaluates e against the toolchain version v.
//
// Every leaf is checked against the asserted minimum version before it is
// evaluated; a leaf that the minimum makes unreachable yields a
// *ConsistencyError rather than a silent true or false. any and all
// evaluate every branch, so a contradiction is reported even when an
// earlier branch already decides the result. minver is the only
// expression with a side effect: it asserts the minimum and evaluates to
// true, or fails if a minimum was already asserted.
func (c *Checker) Eval(e Expr, v version.Version) (bool, error) {
	switch e := e.(type) {
	case MinVer:
		if err := c.assert(e); err != nil {
			return false, err
		}
		return true, nil
	case Not:
		ok, err := c.Eval(e.X, v)
		return !ok, err
	case Any:
		results, err := c.evalList(e.List, v)
		if err != nil {
			return false, err
		}
		for _, ok := range results {
			if ok {
				return true, nil
			}
		}
		return false, nil
	case All:
		results, err := c.evalList(e.List, v)
		if err != nil {
			return false, err
		}
		for _, ok := range results {
			if !ok {
				return false, nil
			}
		}
		return true, nil
	}

	if err := c.check(e); err != nil {
		c.logger.Debug("selector rejected by minimum version", "selector", e.String(), "error", err)
		return false, err
	}

	switch e := e.(type) {
	case Stable:
		return v.Channel.Kind == version.KindStable, nil
	case Beta:
		return v.Channel.Kind == version.KindBeta, nil
	case Nightly:
		return v.Channel.IsNightly(), nil
	case NightlyDate:
		return v.Channel == version.Nightly(e.Date), nil
	case Since:
		return CompareVersion(v, e.Bound) >= 0, nil
	case Before:
		return CompareVersion(v, e.Bound) < 0, nil
	case ReleaseIs:
		return v.Channel.Kind == version.KindStable && e.Release.Matches(v.Release), nil
	default:
		panic("selector: unknown expression type")
	}
}

func (c *Checker) evalList(list []Expr, v version.Version) ([]bool, error) {
	results := make([]bool, len(list))
	var errs []error
	for i, e := range list {
		ok, err := c.Eval(e, v)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		results[i] = ok
	}
	return results, errors.Join(errs...)
}

func (c *Checker) assert(e MinVer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.set {
		return &ConsistencyError{Kind: DuplicateMinVer, MinVer: c.minver, Expr: e}
	}
	c.minver, c.set = e.Bound, true
	c.logger.Debug("minimum version asserted", "minver", e.Bound.String())
	return nil
}

// check validates a leaf expression against the asserted minimum.
func (c *Checker) check(e Expr) error {
	minver, ok := c.MinVer()
	if !ok {
		return nil
	}
	fail := func(kind ConsistencyKind) error {
		return &ConsistencyError{Kind: kind, MinVer: minver, Expr: e}
	}

	switch e := e.(type) {
	case Stable, Beta:
		if minver.Kind == BoundNightly {
			return fail(ChannelBelowNightly)
		}
	case Nightly:
		// Bare nightly stands for a nightly of today.
		if minver.Kind == BoundNightly && version.Today().Before(minver.Date) {
			return fail(DateBelowNightly)
		}
	case NightlyDate:
		if minver.Kind == BoundNightly && e.Date.Before(minver.Date) {
			return fail(DateBelowNightly)
		}
	case Since:
		if CompareBounds(e.Bound, minver) < 0 {
			return fail(BoundBelowMinimum)
		}
	case Before:
		if CompareBounds(e.Bound, minver) < 0 {
			return fail(BoundBelowMinimum)
		}
	case ReleaseIs:
		if minver.Kind == BoundNightly {
			return fail(ReleaseUnderNightly)
		}
		if e.Release.Compare(minver.Release) < 0 {
			return fail(ReleaseBelowMinimum)
		}
	}
	return nil
}
