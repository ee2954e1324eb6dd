package pubsub

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// SinkRequestKind names the protocol operation a SinkRequest carries.
type SinkRequestKind int

const (
	ReqSubscribe SinkRequestKind = iota
	ReqUnsubscribe
	ReqPSubscribe
	ReqPUnsubscribe
	ReqSSubscribe
	ReqSUnsubscribe
	ReqPing
	ReqPingMessage
)

// SinkRequest is one request queued on a supervisor's inbox. It carries a
// random correlation id (which nothing in this package reads or logs) and
// a one-shot reply channel in the style of the teacher's
// subRequest.done()/.result() pair.
type SinkRequest struct {
	ID       uuid.UUID
	Kind     SinkRequestKind
	Args     []string
	response chan sinkResponse
}

type sinkResponse struct {
	value Reply
	err   error
}

func newSinkRequest(kind SinkRequestKind, args []string) *SinkRequest {
	return &SinkRequest{
		ID:       uuid.New(),
		Kind:     kind,
		Args:     args,
		response: make(chan sinkResponse, 1),
	}
}

func (r *SinkRequest) respond(value Reply, err error) {
	r.response <- sinkResponse{value: value, err: err}
}

func (r *SinkRequest) result(ctx context.Context) (Reply, error) {
	select {
	case resp, ok := <-r.response:
		if !ok {
			return Reply{}, ErrConnectionClosed
		}
		return resp.value, resp.err
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	}
}

// sinkState is the mutable state shared by every clone of a Sink: the
// inbox the supervisor's sink loop reads from, and a closed signal that
// lets the supervisor notice the sink was dropped without ever closing
// the inbox channel itself (closing a channel with live senders across
// clones would panic).
type sinkState struct {
	inbox  chan *SinkRequest
	closed chan struct{}
	once   sync.Once
}

// Handle is the pair of handles a caller gets back from NewSupervisor:
// Sink issues subscribe/unsubscribe/ping requests, Stream yields
// delivered messages. The Sink can be cloned (Sink.Clone) for use from
// independent goroutines; Stream has no Clone method.
type Handle struct {
	Sink   *Sink
	Stream *Stream
}

// Split returns the handle's Sink and Stream separately, for callers that
// want to hand them to different goroutines.
func (h *Handle) Split() (*Sink, *Stream) { return h.Sink, h.Stream }
