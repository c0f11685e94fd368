package aggregator

import "errors"

var (
	errStreetLimit        = errors.New("street limit must be at least 1")
	errIntersectionCutoff = errors.New("intersection cutoff must be at least 1")
)

// Option configures an Aggregator.
type Option func(*Aggregator) error

// WithStreetLimit caps the number of ranked streets.
func WithStreetLimit(n int) Option {
	return func(a *Aggregator) error {
		if n < 1 {
			return errStreetLimit
		}
		a.streetLimit = n
		return nil
	}
}

// WithIntersectionCutoff sets how many top intersections are considered
// before single reports are filtered out.
func WithIntersectionCutoff(n int) Option {
	return func(a *Aggregator) error {
		if n < 1 {
			return errIntersectionCutoff
		}
		a.intersectionCutoff = n
		return nil
	}
}
