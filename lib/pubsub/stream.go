package pubsub

import "context"

// Stream yields messages delivered on subscribed channels, patterns, and
// shard channels, in arrival order across reconnects.
type Stream struct {
	outbox <-chan Msg
	handle TaskHandle
}

// Next blocks for the next delivered message, or returns ctx.Err() if ctx
// is cancelled first, or ErrConnectionClosed if the supervisor exited.
func (s *Stream) Next(ctx context.Context) (Msg, error) {
	select {
	case msg, ok := <-s.outbox:
		if !ok {
			return Msg{}, ErrConnectionClosed
		}
		return msg, nil
	case <-ctx.Done():
		return Msg{}, ctx.Err()
	}
}

// OnMessage calls fn for every delivered message until ctx is cancelled
// or the supervisor exits, at which point it returns that error.
func (s *Stream) OnMessage(ctx context.Context, fn func(Msg)) error {
	for {
		msg, err := s.Next(ctx)
		if err != nil {
			return err
		}
		fn(msg)
	}
}

// Close drops the stream. Per spec §4.6, the stream side owns the
// supervisor's task handle: dropping it unconditionally terminates the
// supervisor, regardless of whether any Sink handles remain open.
func (s *Stream) Close() {
	s.handle.Cancel()
}
