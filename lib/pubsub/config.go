package pubsub

import "time"

// Config controls the supervisor's reconnect backoff and per-attempt
// timeout. Defaults track the connection manager's own backoff defaults
// (spec §6), the same factor/retry-count pair this module's
// github.com/cenkalti/backoff/v4-backed backoff.go uses.
type Config struct {
	// Factor is the exponential backoff multiplier applied after each
	// failed connect attempt.
	Factor float64
	// NumberOfRetries bounds one backoff batch; after it's exhausted the
	// retry count resets and the supervisor keeps retrying forever.
	NumberOfRetries int
	// MaxDelay caps the backoff interval, if set.
	MaxDelay *time.Duration
	// ConnectionTimeout bounds a single connect attempt, if set.
	ConnectionTimeout *time.Duration
}

// DefaultConfig returns the supervisor's default backoff configuration.
func DefaultConfig() Config {
	return Config{
		Factor:          1.5,
		NumberOfRetries: 6,
	}
}
