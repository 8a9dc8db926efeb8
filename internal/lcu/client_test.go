package lcu

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"riftcap/internal/logging"
)

// staticAuth hands out fixed credentials and counts resolutions.
type staticAuth struct {
	port  string
	token string
	calls atomic.Int32
}

func (a *staticAuth) Credentials(ctx context.Context) (Credentials, error) {
	a.calls.Add(1)
	return Credentials{Port: a.port, Token: a.token}, nil
}

// feedServer is a loopback TLS WebSocket endpoint standing in for the LCU.
// onConn runs in its own goroutine per accepted connection, with the
// zero-based connection index.
type feedServer struct {
	t        *testing.T
	srv      *httptest.Server
	upgrades atomic.Int32
	headers  chan string
}

func newFeedServer(t *testing.T, onConn func(index int, conn *websocket.Conn)) *feedServer {
	t.Helper()
	fs := &feedServer{t: t, headers: make(chan string, 8)}
	upgrader := websocket.Upgrader{}
	fs.srv = httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.headers <- r.Header.Get("Authorization")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		index := int(fs.upgrades.Add(1)) - 1
		if onConn != nil {
			onConn(index, conn)
		}
	}))
	t.Cleanup(fs.srv.Close)
	return fs
}

func (fs *feedServer) port() string {
	_, port, err := net.SplitHostPort(fs.srv.Listener.Addr().String())
	if err != nil {
		fs.t.Fatalf("split addr: %v", err)
	}
	return port
}

func (fs *feedServer) auth() *staticAuth {
	return &staticAuth{port: fs.port(), token: "dGVzdA=="}
}

func drain(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func waitSignal(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func TestConnectSendsAuthorizationHeader(t *testing.T) {
	fs := newFeedServer(t, func(_ int, conn *websocket.Conn) { drain(conn) })
	client := NewClient(fs.auth(), logging.NewNop())
	defer client.Close()

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	select {
	case header := <-fs.headers:
		if header != "Basic dGVzdA==" {
			t.Fatalf("Authorization = %q", header)
		}
	case <-time.After(time.Second):
		t.Fatal("server saw no handshake")
	}
}

func TestConnectFailsWithoutCredentials(t *testing.T) {
	auth := &staticAuth{}
	client := NewClient(auth, logging.NewNop(), WithConnectAttempts(3), WithConnectBackoff(0))
	defer client.Close()

	if err := client.Connect(context.Background()); err == nil {
		t.Fatal("expected connect failure with empty credentials")
	}
	if got := auth.calls.Load(); got != 3 {
		t.Fatalf("credentials resolved %d times, want one per attempt", got)
	}
}

func TestConnectRetriesAgainstDeadEndpoint(t *testing.T) {
	fs := newFeedServer(t, nil)
	auth := fs.auth()
	fs.srv.Close()

	client := NewClient(auth, logging.NewNop(), WithConnectAttempts(2), WithConnectBackoff(time.Millisecond))
	defer client.Close()

	if err := client.Connect(context.Background()); err == nil {
		t.Fatal("expected connect failure against closed endpoint")
	}
	if got := auth.calls.Load(); got != 2 {
		t.Fatalf("credentials resolved %d times, want 2", got)
	}
}

func TestSubscribeRequiresConnection(t *testing.T) {
	client := NewClient(&staticAuth{}, logging.NewNop())
	if err := client.Subscribe("lol-gameflow_v1_session", nil); err == nil {
		t.Fatal("expected error subscribing before connect")
	}
}

func TestSubscribeFrameShape(t *testing.T) {
	frames := make(chan []byte, 4)
	fs := newFeedServer(t, func(_ int, conn *websocket.Conn) {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			frames <- data
		}
	})
	client := NewClient(fs.auth(), logging.NewNop())
	defer client.Close()
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	cases := []struct {
		topic string
		want  string
	}{
		{topic: "lol-gameflow_v1_session", want: "OnJsonApiEvent_lol-gameflow_v1_session"},
		{topic: "*", want: "OnJsonApiEvent"},
	}
	for _, tc := range cases {
		if err := client.Subscribe(tc.topic, nil); err != nil {
			t.Fatalf("Subscribe(%q): %v", tc.topic, err)
		}
		select {
		case data := <-frames:
			var frame []any
			if err := json.Unmarshal(data, &frame); err != nil {
				t.Fatalf("frame decode: %v", err)
			}
			if len(frame) != 2 || frame[0] != float64(5) || frame[1] != tc.want {
				t.Fatalf("frame = %s, want [5,%q]", data, tc.want)
			}
		case <-time.After(time.Second):
			t.Fatalf("server never received frame for %q", tc.topic)
		}
	}
}

func TestDispatchMatchesBySubstringInOrder(t *testing.T) {
	ready := make(chan struct{})
	fs := newFeedServer(t, func(_ int, conn *websocket.Conn) {
		<-ready
		event := `[8,"OnJsonApiEvent_lol-gameflow_v1_session",{"data":{"phase":"Lobby"}}]`
		if err := conn.WriteMessage(websocket.TextMessage, []byte(event)); err != nil {
			t.Errorf("write event: %v", err)
		}
		drain(conn)
	})
	client := NewClient(fs.auth(), logging.NewNop())
	defer client.Close()
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	var mu sync.Mutex
	var order []string
	done := make(chan struct{})
	record := func(name string) Handler {
		return func(ctx context.Context, topic string, payload json.RawMessage) error {
			mu.Lock()
			order = append(order, name)
			n := len(order)
			mu.Unlock()
			if n == 2 {
				close(done)
			}
			return nil
		}
	}
	if err := client.Subscribe("gameflow", record("broad")); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if err := client.Subscribe("lol-gameflow_v1_session", record("exact")); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if err := client.Subscribe("lol-champ-select", record("unrelated")); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	go client.Listen(context.Background())
	close(ready)
	waitSignal(t, done, "both matching handlers")

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 2 || order[0] != "broad" || order[1] != "exact" {
		t.Fatalf("dispatch order = %v", order)
	}
}

func TestMalformedFramesAreSkipped(t *testing.T) {
	ready := make(chan struct{})
	fs := newFeedServer(t, func(_ int, conn *websocket.Conn) {
		<-ready
		for _, frame := range []string{`not json`, `{"a":1}`, `[8,"topic"]`, `[8,"lol-gameflow_v1_session",{"ok":true}]`} {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
				t.Errorf("write: %v", err)
				return
			}
		}
		drain(conn)
	})
	client := NewClient(fs.auth(), logging.NewNop())
	defer client.Close()
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	payloads := make(chan string, 4)
	if err := client.Subscribe("lol-gameflow_v1_session", func(ctx context.Context, topic string, payload json.RawMessage) error {
		payloads <- string(payload)
		return nil
	}); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	go client.Listen(context.Background())
	close(ready)

	select {
	case got := <-payloads:
		if got != `{"ok":true}` {
			t.Fatalf("payload = %q", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("valid frame after garbage never dispatched")
	}
	select {
	case got := <-payloads:
		t.Fatalf("unexpected extra dispatch: %q", got)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestReconnectReplaysSubscriptions(t *testing.T) {
	subscribed := make(chan struct{})
	fs := newFeedServer(t, func(index int, conn *websocket.Conn) {
		switch index {
		case 0:
			// Accept the initial subscribe, then drop the transport.
			conn.ReadMessage()
			conn.Close()
		default:
			// The replayed subscribe frame must arrive before any event.
			_, data, err := conn.ReadMessage()
			if err != nil {
				t.Errorf("read resubscribe: %v", err)
				return
			}
			var frame []any
			if err := json.Unmarshal(data, &frame); err != nil || len(frame) != 2 ||
				frame[1] != "OnJsonApiEvent_lol-gameflow_v1_session" {
				t.Errorf("resubscribe frame = %s", data)
				return
			}
			close(subscribed)
			event := `[8,"OnJsonApiEvent_lol-gameflow_v1_session",{"data":{"phase":"Lobby"}}]`
			if err := conn.WriteMessage(websocket.TextMessage, []byte(event)); err != nil {
				t.Errorf("write event: %v", err)
			}
			drain(conn)
		}
	})
	auth := fs.auth()
	client := NewClient(auth, logging.NewNop(), WithConnectBackoff(time.Millisecond))
	defer client.Close()
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	dispatched := make(chan struct{})
	var once sync.Once
	if err := client.Subscribe("lol-gameflow_v1_session", func(ctx context.Context, topic string, payload json.RawMessage) error {
		once.Do(func() { close(dispatched) })
		return nil
	}); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	go client.Listen(context.Background())
	waitSignal(t, subscribed, "resubscribe on new connection")
	waitSignal(t, dispatched, "dispatch after reconnect")

	if got := fs.upgrades.Load(); got != 2 {
		t.Fatalf("server saw %d connections, want 2", got)
	}
	if got := auth.calls.Load(); got < 2 {
		t.Fatalf("reconnect must re-resolve credentials, saw %d resolutions", got)
	}
}

func TestCloseStopsListenerWithoutReconnect(t *testing.T) {
	fs := newFeedServer(t, func(_ int, conn *websocket.Conn) { drain(conn) })
	auth := fs.auth()
	client := NewClient(auth, logging.NewNop(), WithConnectBackoff(0))
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- client.Listen(context.Background()) }()
	time.Sleep(50 * time.Millisecond)

	if err := client.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Listen after Close = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("listener did not stop after Close")
	}

	time.Sleep(100 * time.Millisecond)
	if got := fs.upgrades.Load(); got != 1 {
		t.Fatalf("server saw %d connections after Close, want 1", got)
	}
	if got := auth.calls.Load(); got != 1 {
		t.Fatalf("credentials resolved %d times after Close, want 1", got)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	fs := newFeedServer(t, func(_ int, conn *websocket.Conn) { drain(conn) })
	client := NewClient(fs.auth(), logging.NewNop())
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := client.Close(); err != nil {
			t.Fatalf("Close #%d: %v", i+1, err)
		}
	}
	if err := client.Connect(context.Background()); err == nil {
		t.Fatal("Connect after Close must fail")
	}
}
