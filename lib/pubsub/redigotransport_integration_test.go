package pubsub_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gomodule/redigo/redis"
	"github.com/nihohit/redis-go/lib/logging"
	"github.com/nihohit/redis-go/lib/pubsub"
)

// TestRedigoTransportEndToEnd drives the real RedigoTransport against an
// in-process miniredis server: subscribe through the Sink, publish from
// the server side, and confirm the message arrives on the Stream.
func TestRedigoTransportEndToEnd(t *testing.T) {
	srv, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run: %v", err)
	}
	defer srv.Close()

	dial := func(ctx context.Context) (redis.Conn, error) {
		return redis.DialContext(ctx, "tcp", srv.Addr())
	}
	transport := pubsub.NewRedigoTransport(dial)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	h, err := pubsub.NewSupervisor(ctx, transport, pubsub.DefaultConfig(), nil, logging.New(logging.NONE, nil))
	if err != nil {
		t.Fatalf("NewSupervisor: %v", err)
	}
	defer h.Stream.Close()

	if err := h.Sink.Subscribe(ctx, "news"); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	// Give the subscription a moment to land before publishing; miniredis
	// delivers only to connections already registered as subscribers.
	time.Sleep(50 * time.Millisecond)
	srv.Publish("news", "hello")

	msg, err := h.Stream.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if msg.Channel != "news" || string(msg.Payload) != "hello" {
		t.Fatalf("unexpected message: %+v", msg)
	}
}
