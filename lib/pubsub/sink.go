package pubsub

import "context"

// Sink issues pub/sub protocol operations against a running supervisor.
// It is cheaply cloneable: every clone shares the same underlying inbox,
// so concurrent callers can all drive the same connection's subscription
// state.
type Sink struct {
	state *sinkState
}

// Clone returns an independent Sink sharing the same inbox.
func (s *Sink) Clone() *Sink { return &Sink{state: s.state} }

// Close closes the sink for this Sink and every clone of it: all clones
// share one closed signal, so the first Close on any of them makes the
// supervisor's sink loop stop issuing sink operations on the current
// connection (spec §4.6 RUN_STREAM_ONLY) without affecting message
// delivery on the stream, and every later request on any clone returns
// ErrConnectionClosed.
func (s *Sink) Close() {
	s.state.once.Do(func() { close(s.state.closed) })
}

func (s *Sink) send(ctx context.Context, kind SinkRequestKind, args []string) (Reply, error) {
	select {
	case <-s.state.closed:
		return Reply{}, ErrConnectionClosed
	default:
	}
	req := newSinkRequest(kind, args)
	select {
	case s.state.inbox <- req:
	case <-s.state.closed:
		return Reply{}, ErrConnectionClosed
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	}
	return req.result(ctx)
}

// Subscribe adds channels to the live subscription set.
func (s *Sink) Subscribe(ctx context.Context, channels ...string) error {
	_, err := s.send(ctx, ReqSubscribe, channels)
	return err
}

// Unsubscribe removes channels from the live subscription set.
func (s *Sink) Unsubscribe(ctx context.Context, channels ...string) error {
	_, err := s.send(ctx, ReqUnsubscribe, channels)
	return err
}

// PSubscribe adds patterns to the live subscription set.
func (s *Sink) PSubscribe(ctx context.Context, patterns ...string) error {
	_, err := s.send(ctx, ReqPSubscribe, patterns)
	return err
}

// PUnsubscribe removes patterns from the live subscription set.
func (s *Sink) PUnsubscribe(ctx context.Context, patterns ...string) error {
	_, err := s.send(ctx, ReqPUnsubscribe, patterns)
	return err
}

// SSubscribe adds shard channels to the live subscription set.
func (s *Sink) SSubscribe(ctx context.Context, channels ...string) error {
	_, err := s.send(ctx, ReqSSubscribe, channels)
	return err
}

// SUnsubscribe removes shard channels from the live subscription set.
func (s *Sink) SUnsubscribe(ctx context.Context, channels ...string) error {
	_, err := s.send(ctx, ReqSUnsubscribe, channels)
	return err
}

// Ping sends a PING on the pub/sub connection and decodes the reply with
// decoder, or returns it unchanged if decoder is nil.
func (s *Sink) Ping(ctx context.Context, decoder ValueDecoder) (any, error) {
	reply, err := s.send(ctx, ReqPing, nil)
	if err != nil {
		return nil, err
	}
	if decoder == nil {
		decoder = RawDecoder{}
	}
	return decoder.Decode(reply)
}

// PingMessage sends a PING with payload and decodes the reply with
// decoder, or returns it unchanged if decoder is nil.
func (s *Sink) PingMessage(ctx context.Context, payload []byte, decoder ValueDecoder) (any, error) {
	reply, err := s.send(ctx, ReqPingMessage, []string{string(payload)})
	if err != nil {
		return nil, err
	}
	if decoder == nil {
		decoder = RawDecoder{}
	}
	return decoder.Decode(reply)
}
