// Package repository defines the score history store interface and errors.
package repository

import "time"

// defaultTTL bounds how long a persisted record stays loadable. A stale
// baseline from an earlier session would misgrade a warmed-up subject.
const defaultTTL = 30 * time.Minute

// settings holds the knobs shared by store implementations.
type settings struct {
	ttl time.Duration
	now func() time.Time
}

// Option applies a configuration option to a store.
type Option func(*settings)

func newSettings(opts ...Option) settings {
	s := settings{ttl: defaultTTL, now: time.Now}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithTTL sets the retention window for persisted records.
func WithTTL(ttl time.Duration) Option {
	return func(s *settings) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}
