package leaderboard

import "time"

// Option applies a configuration option to the Composer.
type Option func(*Composer)

// WithModelNames sets the recognized automated-model identifiers. A
// participant whose name contains any of them is treated as a model.
func WithModelNames(names []string) Option {
	return func(c *Composer) {
		c.modelNames = make([]string, 0, len(names))
		for _, n := range names {
			if n != "" {
				c.modelNames = append(c.modelNames, n)
			}
		}
	}
}

// WithModelLimit caps how many model entries make the weekly board.
func WithModelLimit(n int) Option {
	return func(c *Composer) {
		if n >= 0 {
			c.modelLimit = n
		}
	}
}

// WithHumanLimit caps how many human entries make the weekly board.
func WithHumanLimit(n int) Option {
	return func(c *Composer) {
		if n >= 0 {
			c.humanLimit = n
		}
	}
}

// WithWindowDays sets the length of the trailing human window.
func WithWindowDays(days int) Option {
	return func(c *Composer) {
		if days > 0 {
			c.windowDays = days
		}
	}
}

// WithLocation sets the civil time zone window boundaries are computed in.
func WithLocation(loc *time.Location) Option {
	return func(c *Composer) {
		if loc != nil {
			c.loc = loc
		}
	}
}
