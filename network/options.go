package network

import "fmt"

// Matcher selects how portal quads are paired across cells.
type Matcher int

const (
	// MatchScan compares every portal quad with the complementary quads of
	// every other cell.
	MatchScan Matcher = iota

	// MatchIndexed buckets portal quads in a regular grid keyed on their
	// quantized centers and only compares quads of neighbouring buckets.
	MatchIndexed
)

func (m Matcher) String() string {
	switch m {
	case MatchScan:
		return "scan"
	case MatchIndexed:
		return "indexed"
	default:
		return fmt.Sprintf("matcher(%d)", int(m))
	}
}

// ParseMatcher returns the matcher with the given name.
func ParseMatcher(name string) (Matcher, bool) {
	switch name {
	case "scan", "":
		return MatchScan, true
	case "indexed":
		return MatchIndexed, true
	default:
		return MatchScan, false
	}
}

// Option customizes how cells are connected.
type Option func(*config)

type config struct {
	tolerance float32
	matcher   Matcher
}

func newConfig(opts []Option) config {
	var c config
	for _, o := range opts {
		o(&c)
	}
	return c
}

// WithTolerance sets the maximum difference between two vertex components
// for them to be considered equal. Zero, the default, requires strict
// equality. Negative values are treated as zero.
func WithTolerance(epsilon float32) Option {
	return func(c *config) {
		if epsilon < 0 {
			epsilon = 0
		}
		c.tolerance = epsilon
	}
}

// WithMatcher sets the portal matching strategy.
func WithMatcher(m Matcher) Option {
	return func(c *config) {
		c.matcher = m
	}
}
