package pubsub

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nihohit/redis-go/lib/logging"
	"github.com/nihohit/redis-go/lib/routing"
)

// fakeTransport lets tests control exactly how many successive Connect
// calls fail before one succeeds, and records every connection it hands
// out so tests can drive message delivery and transport faults directly.
type fakeTransport struct {
	mu       sync.Mutex
	failNext int
	conns    []*fakeConn
	replays  [][]string
}

func (t *fakeTransport) Connect(ctx context.Context) (Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.failNext > 0 {
		t.failNext--
		return nil, NewTransportError(errors.New("dial refused"))
	}
	c := newFakeConn(t)
	t.conns = append(t.conns, c)
	return c, nil
}

func (t *fakeTransport) recordReplay(cmd []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.replays = append(t.replays, cmd)
}

type fakeConn struct {
	transport *fakeTransport
	msgs      chan Msg
	closed    chan struct{}
	closeOnce sync.Once

	mu       sync.Mutex
	subCalls [][]string
}

func newFakeConn(t *fakeTransport) *fakeConn {
	return &fakeConn{transport: t, msgs: make(chan Msg, 16), closed: make(chan struct{})}
}

func (c *fakeConn) Split() (WriteHalf, ReadHalf) {
	return &fakeWrite{conn: c}, &fakeRead{conn: c}
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

// dropStream simulates a transport fault: the next Receive on this
// connection's read half returns a transport error, ending the stream
// loop and forcing the supervisor to reconnect.
func (c *fakeConn) dropStream() { c.Close() }

func (c *fakeConn) deliver(m Msg) { c.msgs <- m }

func (c *fakeConn) record(cmd []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subCalls = append(c.subCalls, cmd)
}

func (c *fakeConn) calls() [][]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]string, len(c.subCalls))
	copy(out, c.subCalls)
	return out
}

type fakeWrite struct{ conn *fakeConn }

func (w *fakeWrite) Subscribe(ctx context.Context, channels []string) error {
	w.conn.record(append([]string{"SUBSCRIBE"}, channels...))
	return nil
}
func (w *fakeWrite) Unsubscribe(ctx context.Context, channels []string) error {
	w.conn.record(append([]string{"UNSUBSCRIBE"}, channels...))
	return nil
}
func (w *fakeWrite) PSubscribe(ctx context.Context, patterns []string) error {
	w.conn.record(append([]string{"PSUBSCRIBE"}, patterns...))
	return nil
}
func (w *fakeWrite) PUnsubscribe(ctx context.Context, patterns []string) error {
	w.conn.record(append([]string{"PUNSUBSCRIBE"}, patterns...))
	return nil
}
func (w *fakeWrite) SSubscribe(ctx context.Context, channels []string) error {
	w.conn.record(append([]string{"SSUBSCRIBE"}, channels...))
	return nil
}
func (w *fakeWrite) SUnsubscribe(ctx context.Context, channels []string) error {
	w.conn.record(append([]string{"SUNSUBSCRIBE"}, channels...))
	return nil
}
func (w *fakeWrite) Ping(ctx context.Context) (Reply, error) { return strValue("PONG"), nil }
func (w *fakeWrite) PingMessage(ctx context.Context, payload []byte) (Reply, error) {
	return strValue(string(payload)), nil
}
func (w *fakeWrite) SendRecv(ctx context.Context, args []string) (Reply, error) {
	w.conn.transport.recordReplay(args)
	w.conn.record(args)
	return strValue("OK"), nil
}
func (w *fakeWrite) Clone() WriteHalf { return &fakeWrite{conn: w.conn} }

type fakeRead struct{ conn *fakeConn }

func (r *fakeRead) Receive(ctx context.Context) (Msg, error) {
	select {
	case m := <-r.conn.msgs:
		return m, nil
	case <-r.conn.closed:
		return Msg{}, NewTransportError(errors.New("connection closed"))
	case <-ctx.Done():
		return Msg{}, ctx.Err()
	}
}

func strValue(s string) Reply { return routing.Str(s) }

func testConfig() Config {
	return Config{Factor: 1, NumberOfRetries: 100}
}

func TestSupervisorConnectAndDeliver(t *testing.T) {
	transport := &fakeTransport{}
	ctx := context.Background()

	h, err := NewSupervisor(ctx, transport, testConfig(), DefaultRuntime{}, logging.New(logging.NONE, nil))
	if err != nil {
		t.Fatalf("NewSupervisor: %v", err)
	}
	defer h.Stream.Close()

	if err := h.Sink.Subscribe(ctx, "foo"); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	transport.conns[0].deliver(Msg{Channel: "foo", Payload: []byte("hello")})
	msg, err := h.Stream.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if msg.Channel != "foo" || string(msg.Payload) != "hello" {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestSupervisorSubscriptionOrderPreserved(t *testing.T) {
	transport := &fakeTransport{}
	ctx := context.Background()

	h, err := NewSupervisor(ctx, transport, testConfig(), DefaultRuntime{}, logging.New(logging.NONE, nil))
	if err != nil {
		t.Fatalf("NewSupervisor: %v", err)
	}
	defer h.Stream.Close()

	if err := h.Sink.Subscribe(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if err := h.Sink.PSubscribe(ctx, "p*"); err != nil {
		t.Fatal(err)
	}
	if err := h.Sink.Unsubscribe(ctx, "a"); err != nil {
		t.Fatal(err)
	}

	got := transport.conns[0].calls()
	want := [][]string{{"SUBSCRIBE", "a"}, {"PSUBSCRIBE", "p*"}, {"UNSUBSCRIBE", "a"}}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if len(got[i]) != len(want[i]) {
			t.Fatalf("entry %d: got %v want %v", i, got[i], want[i])
		}
		for j := range want[i] {
			if got[i][j] != want[i][j] {
				t.Fatalf("entry %d: got %v want %v", i, got[i], want[i])
			}
		}
	}
}

// TestSupervisorReconnectReplaysSubscriptions is the literal scenario:
// two consecutive transport failures followed by a success must still
// produce exactly one ready signal and exactly one replayed SUBSCRIBE
// pipeline, with no user-visible error.
func TestSupervisorReconnectReplaysSubscriptions(t *testing.T) {
	transport := &fakeTransport{}
	ctx := context.Background()

	h, err := NewSupervisor(ctx, transport, testConfig(), DefaultRuntime{}, logging.New(logging.NONE, nil))
	if err != nil {
		t.Fatalf("NewSupervisor: %v", err)
	}
	defer h.Stream.Close()

	if err := h.Sink.Subscribe(ctx, "foo", "bar"); err != nil {
		t.Fatal(err)
	}

	transport.mu.Lock()
	transport.failNext = 2
	transport.mu.Unlock()
	transport.conns[0].dropStream()

	deadline := time.After(2 * time.Second)
	for {
		transport.mu.Lock()
		n := len(transport.conns)
		transport.mu.Unlock()
		if n == 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for reconnect")
		case <-time.After(5 * time.Millisecond):
		}
	}

	transport.mu.Lock()
	defer transport.mu.Unlock()
	if len(transport.replays) != 1 {
		t.Fatalf("expected exactly one replayed pipeline entry, got %v", transport.replays)
	}
	replayed := transport.replays[0]
	if replayed[0] != "SUBSCRIBE" {
		t.Fatalf("expected SUBSCRIBE replay, got %v", replayed)
	}
}

func TestSupervisorStreamCloseTerminatesSupervisor(t *testing.T) {
	transport := &fakeTransport{}
	ctx := context.Background()

	h, err := NewSupervisor(ctx, transport, testConfig(), DefaultRuntime{}, logging.New(logging.NONE, nil))
	if err != nil {
		t.Fatalf("NewSupervisor: %v", err)
	}

	h.Stream.Close()

	if _, err := h.Stream.Next(context.Background()); err == nil {
		t.Fatalf("expected Next to fail after Close")
	}
}

func TestSupervisorSinkCloseLeavesStreamRunning(t *testing.T) {
	transport := &fakeTransport{}
	ctx := context.Background()

	h, err := NewSupervisor(ctx, transport, testConfig(), DefaultRuntime{}, logging.New(logging.NONE, nil))
	if err != nil {
		t.Fatalf("NewSupervisor: %v", err)
	}
	defer h.Stream.Close()

	h.Sink.Close()

	transport.conns[0].deliver(Msg{Channel: "chan", Payload: []byte("still alive")})
	msg, err := h.Stream.Next(ctx)
	if err != nil {
		t.Fatalf("Next after sink close: %v", err)
	}
	if string(msg.Payload) != "still alive" {
		t.Fatalf("unexpected message: %+v", msg)
	}

	if err := h.Sink.Subscribe(ctx, "chan"); err == nil {
		t.Fatalf("expected Subscribe to fail after Sink.Close")
	}
}

func TestNewSupervisorFailsWhenCallerContextCancelled(t *testing.T) {
	transport := &fakeTransport{failNext: 1000}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewSupervisor(ctx, transport, testConfig(), DefaultRuntime{}, logging.New(logging.NONE, nil)); err == nil {
		t.Fatalf("expected NewSupervisor to fail with a cancelled context")
	}
}
