package pubsub

import (
	"context"
	"fmt"

	"github.com/gomodule/redigo/redis"
	"github.com/nihohit/redis-go/lib/routing"
)

// RedigoTransport is the default Transport, built on
// github.com/gomodule/redigo/redis - the same library the teacher's
// RedisEngine dials its connection pool with (see engineredis.newPool).
// Unlike the teacher's pooled connections, a pub/sub connection is
// long-lived and never returned to a pool: each Connect dials a fresh
// redis.Conn and wraps it as a redis.PubSubConn.
type RedigoTransport struct {
	// Dial opens one raw connection to a Redis node. Connect uses it for
	// the long-lived pub/sub connection; SendRecv (during replay) uses it
	// again for each short-lived cloned write.
	Dial func(ctx context.Context) (redis.Conn, error)
}

// NewRedigoTransport builds a RedigoTransport that dials with dial.
func NewRedigoTransport(dial func(ctx context.Context) (redis.Conn, error)) *RedigoTransport {
	return &RedigoTransport{Dial: dial}
}

func (t *RedigoTransport) Connect(ctx context.Context) (Conn, error) {
	c, err := t.Dial(ctx)
	if err != nil {
		return nil, NewTransportError(err)
	}
	return &redigoConn{psc: &redis.PubSubConn{Conn: c}, dial: t.Dial}, nil
}

type redigoConn struct {
	psc  *redis.PubSubConn
	dial func(ctx context.Context) (redis.Conn, error)
}

func (c *redigoConn) Split() (WriteHalf, ReadHalf) {
	return &redigoWrite{psc: c.psc, dial: c.dial}, &redigoRead{psc: c.psc}
}

func (c *redigoConn) Close() error { return c.psc.Close() }

type redigoWrite struct {
	psc  *redis.PubSubConn
	dial func(ctx context.Context) (redis.Conn, error)
}

func (w *redigoWrite) Subscribe(ctx context.Context, channels []string) error {
	return classifyErr(w.psc.Subscribe(toIface(channels)...))
}

func (w *redigoWrite) Unsubscribe(ctx context.Context, channels []string) error {
	return classifyErr(w.psc.Unsubscribe(toIface(channels)...))
}

func (w *redigoWrite) PSubscribe(ctx context.Context, patterns []string) error {
	return classifyErr(w.psc.PSubscribe(toIface(patterns)...))
}

func (w *redigoWrite) PUnsubscribe(ctx context.Context, patterns []string) error {
	return classifyErr(w.psc.PUnsubscribe(toIface(patterns)...))
}

// SSubscribe/SUnsubscribe: redigo's PubSubConn predates Redis 7's shard
// pub/sub commands, so there's no dedicated method on it - send the raw
// command the same way PubSubConn's own Subscribe does internally.
func (w *redigoWrite) SSubscribe(ctx context.Context, channels []string) error {
	if err := w.psc.Conn.Send("SSUBSCRIBE", toIface(channels)...); err != nil {
		return classifyErr(err)
	}
	return classifyErr(w.psc.Conn.Flush())
}

func (w *redigoWrite) SUnsubscribe(ctx context.Context, channels []string) error {
	if err := w.psc.Conn.Send("SUNSUBSCRIBE", toIface(channels)...); err != nil {
		return classifyErr(err)
	}
	return classifyErr(w.psc.Conn.Flush())
}

// Ping and PingMessage return once the PING has been flushed, without
// waiting for the server's reply: that reply arrives on the read half,
// whose Receive discards it. The Reply returned here is "PONG" for Ping
// and the payload itself for PingMessage.
func (w *redigoWrite) Ping(ctx context.Context) (Reply, error) {
	if err := w.psc.Ping(""); err != nil {
		return Reply{}, classifyErr(err)
	}
	return routing.Str("PONG"), nil
}

func (w *redigoWrite) PingMessage(ctx context.Context, payload []byte) (Reply, error) {
	if err := w.psc.Ping(string(payload)); err != nil {
		return Reply{}, classifyErr(err)
	}
	return routing.Str(string(payload)), nil
}

// SendRecv dials its own short-lived connection rather than reusing the
// long-lived pub/sub connection - matching spec §5's "clones of the write
// half are made only during replay fan-out and are short-lived", and
// sidestepping the fact that a connection already in subscribe mode
// can't also run ordinary request/reply commands.
func (w *redigoWrite) SendRecv(ctx context.Context, args []string) (Reply, error) {
	if len(args) == 0 {
		return Reply{}, NewClientError(fmt.Errorf("SendRecv called with no command"))
	}
	c, err := w.dial(ctx)
	if err != nil {
		return Reply{}, NewTransportError(err)
	}
	defer c.Close()
	reply, err := c.Do(args[0], toIface(args[1:])...)
	if err != nil {
		return Reply{}, classifyErr(err)
	}
	return decodeRedigoReply(reply), nil
}

func (w *redigoWrite) Clone() WriteHalf {
	return &redigoWrite{psc: w.psc, dial: w.dial}
}

type redigoRead struct {
	psc *redis.PubSubConn
}

func (r *redigoRead) Receive(ctx context.Context) (Msg, error) {
	switch n := r.psc.Receive().(type) {
	case redis.Message:
		return Msg{Channel: n.Channel, Payload: n.Data}, nil
	case redis.PMessage:
		return Msg{Channel: n.Channel, Pattern: n.Pattern, Payload: n.Data}, nil
	case redis.Subscription:
		// Subscribe/unsubscribe confirmations aren't delivered messages;
		// the stream loop only cares about payloads, so keep reading.
		return r.Receive(ctx)
	case error:
		return Msg{}, classifyErr(n)
	default:
		return r.Receive(ctx)
	}
}

func toIface(ss []string) []interface{} {
	out := make([]interface{}, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// classifyErr maps a redigo error to the pub/sub core's error taxonomy.
// redis.Error is a per-command server error (bad arguments, WRONGTYPE,
// ...) surfaced verbatim to the caller; anything else (closed pipe,
// timeout, EOF) is a transport fault that should trigger reconnect.
func classifyErr(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(redis.Error); ok {
		return err
	}
	return NewTransportError(err)
}

func decodeRedigoReply(reply interface{}) Reply {
	switch v := reply.(type) {
	case nil:
		return routing.Nil()
	case int64:
		return routing.Int(v)
	case []byte:
		return routing.Str(string(v))
	case string:
		return routing.Str(v)
	case []interface{}:
		items := make([]Reply, len(v))
		for i, e := range v {
			items[i] = decodeRedigoReply(e)
		}
		return routing.Array(items...)
	default:
		return routing.Str(fmt.Sprintf("%v", v))
	}
}
