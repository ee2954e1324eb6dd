package pubsub

import (
	"context"

	"github.com/nihohit/redis-go/lib/routing"
)

// Msg is one message delivered on a subscribed channel or pattern.
type Msg struct {
	Channel string
	// Pattern is set only when the message arrived via a pattern
	// subscription; empty for plain channel and shard-channel messages.
	Pattern string
	Payload []byte
}

// Reply is a decoded server reply - reusing the router's combiner Value
// shape, since both places need the same small "what kind of thing did
// the server send back" vocabulary (nil / integer / array / other).
type Reply = routing.Value

// ValueDecoder converts a raw Reply into a caller-chosen result type, the
// way ping()/ping_message() let a caller parse a PONG reply into a typed
// value instead of a bare Reply.
type ValueDecoder interface {
	Decode(reply Reply) (any, error)
}

// RawDecoder is the default ValueDecoder: it returns the Reply unchanged.
type RawDecoder struct{}

func (RawDecoder) Decode(reply Reply) (any, error) { return reply, nil }

// WriteHalf issues pub/sub protocol operations against a connection.
// Clone produces an independent handle safe for concurrent use - the
// supervisor's replay fan-out clones the write half to issue the
// subscription pipeline's sub-commands independently and concurrently.
type WriteHalf interface {
	Subscribe(ctx context.Context, channels []string) error
	Unsubscribe(ctx context.Context, channels []string) error
	PSubscribe(ctx context.Context, patterns []string) error
	PUnsubscribe(ctx context.Context, patterns []string) error
	SSubscribe(ctx context.Context, channels []string) error
	SUnsubscribe(ctx context.Context, channels []string) error
	Ping(ctx context.Context) (Reply, error)
	PingMessage(ctx context.Context, payload []byte) (Reply, error)
	// SendRecv issues one packed command (command name plus arguments)
	// and waits for its reply. Used only by replay, which sends the
	// subscription pipeline's sub-commands independently.
	SendRecv(ctx context.Context, args []string) (Reply, error)
	Clone() WriteHalf
}

// ReadHalf reads messages delivered on a connection, in arrival order.
type ReadHalf interface {
	Receive(ctx context.Context) (Msg, error)
}

// Conn is an established pub/sub connection, split into independent read
// and write halves so the supervisor's sink and stream loops can drive
// them concurrently.
type Conn interface {
	Split() (WriteHalf, ReadHalf)
	Close() error
}

// Transport builds new pub/sub connections. The supervisor calls Connect
// once per connect attempt (initial connect and every reconnect).
type Transport interface {
	Connect(ctx context.Context) (Conn, error)
}
