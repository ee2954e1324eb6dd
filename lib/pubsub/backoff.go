package pubsub

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// reconnectBackoff wraps github.com/cenkalti/backoff/v4's exponential
// backoff with the batch-then-reset retry count spec §6 documents: after
// NumberOfRetries attempts have been handed out, the backoff resets to
// its initial interval and the count starts over, so the connect loop
// retries forever in batches instead of giving up.
type reconnectBackoff struct {
	cfg     Config
	inner   *backoff.ExponentialBackOff
	attempt int
}

func newReconnectBackoff(cfg Config) *reconnectBackoff {
	eb := backoff.NewExponentialBackOff()
	eb.Multiplier = cfg.Factor
	if cfg.MaxDelay != nil {
		eb.MaxInterval = *cfg.MaxDelay
	}
	// A batch is bounded by NumberOfRetries, not by elapsed time.
	eb.MaxElapsedTime = 0
	eb.Reset()
	return &reconnectBackoff{cfg: cfg, inner: eb}
}

// Next returns the delay before the next connect attempt.
func (b *reconnectBackoff) Next() time.Duration {
	d := b.inner.NextBackOff()
	b.attempt++
	if b.attempt >= b.cfg.NumberOfRetries {
		b.Reset()
	}
	return d
}

// Reset starts a fresh backoff batch, called after a successful connect
// and replay so the next failure starts from the initial interval again.
func (b *reconnectBackoff) Reset() {
	b.inner.Reset()
	b.attempt = 0
}
