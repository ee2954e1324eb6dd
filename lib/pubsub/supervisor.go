package pubsub

import (
	"context"
	"fmt"

	"github.com/nihohit/redis-go/lib/logging"
	"golang.org/x/sync/errgroup"
)

// supervisor is the connection state machine described in spec §4.6:
// CONNECTING -> RUNNING -> RUN_STREAM_ONLY -> CONNECTING, looping until
// its task handle is cancelled. It owns the single long-lived pub/sub
// connection and the Tracker recording what that connection is currently
// subscribed to, so a reconnect can replay the subscription state.
type supervisor struct {
	transport Transport
	cfg       Config
	runtime   Runtime
	logger    logging.Logger
	tracker   *Tracker

	sink   *sinkState
	outbox chan Msg

	ready chan struct{}
}

// NewSupervisor dials transport, blocks until the first connection is
// ready (or ctx is cancelled, or the supervisor exits before connecting),
// and returns the caller's Handle. Reconnects after the first one happen
// in the background and are invisible to the caller except as replayed
// subscriptions and possibly-delayed message delivery.
func NewSupervisor(ctx context.Context, transport Transport, cfg Config, rt Runtime, logger logging.Logger) (*Handle, error) {
	if rt == nil {
		rt = DefaultRuntime{}
	}
	if logger == nil {
		logger = logging.New(logging.NONE, nil)
	}

	sup := &supervisor{
		transport: transport,
		cfg:       cfg,
		runtime:   rt,
		logger:    logger,
		tracker:   NewTracker(),
		sink: &sinkState{
			inbox:  make(chan *SinkRequest, 64),
			closed: make(chan struct{}),
		},
		outbox: make(chan Msg, 64),
		ready:  make(chan struct{}),
	}

	handle := rt.Spawn(sup.run)

	select {
	case <-sup.ready:
	case <-handle.Done():
		return nil, NewClientError(fmt.Errorf("supervisor exited before first connect"))
	case <-ctx.Done():
		handle.Cancel()
		return nil, ctx.Err()
	}

	return &Handle{
		Sink:   &Sink{state: sup.sink},
		Stream: &Stream{outbox: sup.outbox, handle: handle},
	}, nil
}

func (s *supervisor) run(ctx context.Context) {
	// On exit, end the stream and answer every request still queued on the
	// sink with ErrConnectionClosed.
	defer func() {
		close(s.outbox)
		s.sink.once.Do(func() { close(s.sink.closed) })
		for {
			select {
			case req := <-s.sink.inbox:
				req.respond(Reply{}, ErrConnectionClosed)
			default:
				return
			}
		}
	}()
	backoffState := newReconnectBackoff(s.cfg)
	firstConnect := true

	for {
		conn, write, read, ok := s.connectAndReplay(ctx, backoffState, firstConnect)
		if !ok {
			return
		}
		if firstConnect {
			close(s.ready)
			firstConnect = false
		}

		connCtx, connCancel := context.WithCancel(ctx)
		sinkDone := make(chan struct{})
		streamDone := make(chan struct{})

		go func() {
			defer close(sinkDone)
			s.sinkLoop(connCtx, write)
		}()
		go func() {
			defer close(streamDone)
			s.streamLoop(connCtx, read)
		}()

		select {
		case <-sinkDone:
			// RUNNING -> RUN_STREAM_ONLY: the sink side is gone (dropped,
			// or an unrecoverable server error), but the stream side keeps
			// delivering on this same connection until it too ends.
			<-streamDone
		case <-streamDone:
			// The stream side ended (transport fault, EOF); abandon the
			// sink loop on this connection rather than waiting for it.
		case <-ctx.Done():
			connCancel()
			_ = conn.Close()
			<-streamDone
			return
		}
		connCancel()
		_ = conn.Close()
	}
}

// connectAndReplay dials one connection and, for every reconnect after
// the first, replays the tracker's subscription pipeline on it. A failed
// dial or a failed replay both consume one backoff step and retry; it
// only returns ok=false when ctx is cancelled while waiting.
func (s *supervisor) connectAndReplay(ctx context.Context, backoffState *reconnectBackoff, firstConnect bool) (Conn, WriteHalf, ReadHalf, bool) {
	for {
		if ctx.Err() != nil {
			return nil, nil, nil, false
		}

		dialCtx := ctx
		var cancel context.CancelFunc
		if s.cfg.ConnectionTimeout != nil {
			dialCtx, cancel = s.runtime.Timeout(*s.cfg.ConnectionTimeout)
		}
		conn, err := s.transport.Connect(dialCtx)
		if cancel != nil {
			cancel()
		}
		if err != nil {
			s.logger.Log(logging.NewEntry(logging.ERROR, "pubsub connect failed", map[string]interface{}{"error": err.Error()}))
			if s.runtime.Sleep(ctx, backoffState.Next()) != nil {
				return nil, nil, nil, false
			}
			continue
		}

		write, read := conn.Split()

		if !firstConnect {
			if !s.replay(ctx, write) {
				_ = conn.Close()
				if s.runtime.Sleep(ctx, backoffState.Next()) != nil {
					return nil, nil, nil, false
				}
				continue
			}
		}

		backoffState.Reset()
		return conn, write, read, true
	}
}

// replay reissues the tracker's current subscription pipeline on write,
// fanning the sub-commands out concurrently over cloned write halves
// (spec §5). It fails fast: any sub-command error fails the whole replay,
// which connectAndReplay treats like a failed connect attempt.
func (s *supervisor) replay(ctx context.Context, write WriteHalf) bool {
	pipeline := s.tracker.SubscriptionPipeline()
	if len(pipeline) == 0 {
		return true
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, cmd := range pipeline {
		cmd := cmd
		g.Go(func() error {
			w := write.Clone()
			_, err := w.SendRecv(gctx, cmd)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Log(logging.NewEntry(logging.ERROR, "pubsub replay failed", map[string]interface{}{"error": err.Error()}))
		return false
	}
	return true
}

// sinkLoop drains the shared inbox and issues each request against write,
// updating the tracker for subscribe-family operations so a later replay
// can restore them. It returns when the connection's context is
// cancelled, the sink is closed (every Sink handle dropped), or the
// server returns an unrecoverable error.
func (s *supervisor) sinkLoop(ctx context.Context, write WriteHalf) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.sink.closed:
			return
		case req := <-s.sink.inbox:
			reply, err := s.handleSinkRequest(ctx, write, req)
			req.respond(reply, err)
			if err != nil && IsUnrecoverable(err) {
				return
			}
		}
	}
}

func (s *supervisor) handleSinkRequest(ctx context.Context, write WriteHalf, req *SinkRequest) (Reply, error) {
	switch req.Kind {
	case ReqSubscribe:
		err := write.Subscribe(ctx, req.Args)
		if err == nil {
			s.tracker.Apply(append([]string{"SUBSCRIBE"}, req.Args...))
		}
		return Reply{}, err
	case ReqUnsubscribe:
		err := write.Unsubscribe(ctx, req.Args)
		if err == nil {
			s.tracker.Apply(append([]string{"UNSUBSCRIBE"}, req.Args...))
		}
		return Reply{}, err
	case ReqPSubscribe:
		err := write.PSubscribe(ctx, req.Args)
		if err == nil {
			s.tracker.Apply(append([]string{"PSUBSCRIBE"}, req.Args...))
		}
		return Reply{}, err
	case ReqPUnsubscribe:
		err := write.PUnsubscribe(ctx, req.Args)
		if err == nil {
			s.tracker.Apply(append([]string{"PUNSUBSCRIBE"}, req.Args...))
		}
		return Reply{}, err
	case ReqSSubscribe:
		err := write.SSubscribe(ctx, req.Args)
		if err == nil {
			s.tracker.Apply(append([]string{"SSUBSCRIBE"}, req.Args...))
		}
		return Reply{}, err
	case ReqSUnsubscribe:
		err := write.SUnsubscribe(ctx, req.Args)
		if err == nil {
			s.tracker.Apply(append([]string{"SUNSUBSCRIBE"}, req.Args...))
		}
		return Reply{}, err
	case ReqPing:
		return write.Ping(ctx)
	case ReqPingMessage:
		var payload []byte
		if len(req.Args) > 0 {
			payload = []byte(req.Args[0])
		}
		return write.PingMessage(ctx, payload)
	default:
		return Reply{}, NewClientError(fmt.Errorf("unknown sink request kind %d", req.Kind))
	}
}

// streamLoop reads messages off read and forwards them to the outbox, in
// arrival order, until the connection errors or ctx is cancelled.
func (s *supervisor) streamLoop(ctx context.Context, read ReadHalf) {
	for {
		msg, err := read.Receive(ctx)
		if err != nil {
			return
		}
		select {
		case s.outbox <- msg:
		case <-ctx.Done():
			return
		}
	}
}
