package devicegrant

import "time"

// Option configures a Grant.
type Option func(*Grant)

// WithLifetime sets how long a request stays approvable.
func WithLifetime(d time.Duration) Option {
	return func(g *Grant) {
		g.lifetime = d
	}
}

// WithPollInterval sets the minimum interval between client polls.
func WithPollInterval(d time.Duration) Option {
	return func(g *Grant) {
		g.interval = d
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(g *Grant) {
		g.now = now
	}
}
