package swarm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// mockWSServer creates a test WebSocket server.
func mockWSServer(t *testing.T, handler func(*websocket.Conn)) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer conn.Close()
		handler(conn)
	}))

	return server
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func testTransportConfig(server *httptest.Server) Config {
	cfg := DefaultConfig()
	cfg.URL = wsURL(server)
	cfg.PingInterval = -1
	cfg.BufferSize = 100
	return cfg
}

// drain reads until the peer goes away.
func drain(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func TestWebsocketDialer_Dial(t *testing.T) {
	var userAgent string
	var mu sync.Mutex

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		userAgent = r.Header.Get("User-Agent")
		mu.Unlock()
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		drain(conn)
	}))
	defer server.Close()

	tr, err := WebsocketDialer{}.Dial(context.Background(), testTransportConfig(server))
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer tr.Close()

	if tr.Err() != nil {
		t.Errorf("Err() = %v, want nil on open transport", tr.Err())
	}

	mu.Lock()
	defer mu.Unlock()
	if !strings.HasPrefix(userAgent, "forzza-swarm/") {
		t.Errorf("User-Agent = %q, want forzza-swarm/ prefix", userAgent)
	}
}

func TestWebsocketDialer_DialFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := wsURL(server)
	server.Close()

	cfg := DefaultConfig()
	cfg.URL = url

	if _, err := (WebsocketDialer{}).Dial(context.Background(), cfg); err == nil {
		t.Fatal("expected dial error for closed server")
	}
}

func TestTransport_Send(t *testing.T) {
	received := make(chan []byte, 1)

	server := mockWSServer(t, func(conn *websocket.Conn) {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		received <- msg
		drain(conn)
	})
	defer server.Close()

	tr, err := WebsocketDialer{}.Dial(context.Background(), testTransportConfig(server))
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer tr.Close()

	testMsg := []byte(`{"command":"get","params":{},"rid":"1"}`)
	if err := tr.Send(testMsg); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	select {
	case got := <-received:
		if string(got) != string(testMsg) {
			t.Errorf("received %q, want %q", got, testMsg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for server to receive frame")
	}
}

func TestTransport_Messages(t *testing.T) {
	testMessages := []string{
		`{"rid":"a","data":{}}`,
		`{"rid":"b","data":{}}`,
		`{"rid":"c","data":{}}`,
	}

	server := mockWSServer(t, func(conn *websocket.Conn) {
		for _, msg := range testMessages {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}
		}
		drain(conn)
	})
	defer server.Close()

	tr, err := WebsocketDialer{}.Dial(context.Background(), testTransportConfig(server))
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer tr.Close()

	timeout := time.After(2 * time.Second)
	for i, want := range testMessages {
		select {
		case msg := <-tr.Messages():
			if string(msg.Data) != want {
				t.Errorf("message %d: got %q, want %q", i, msg.Data, want)
			}
			if msg.ReceivedAt.IsZero() {
				t.Error("ReceivedAt should not be zero")
			}
		case <-timeout:
			t.Fatalf("timeout waiting for message %d", i)
		}
	}
}

func TestTransport_ServerCloseEndsMessages(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		// Return immediately; the deferred Close drops the connection.
	})
	defer server.Close()

	tr, err := WebsocketDialer{}.Dial(context.Background(), testTransportConfig(server))
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer tr.Close()

	select {
	case _, ok := <-tr.Messages():
		if ok {
			t.Fatal("expected messages channel to close")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("messages channel not closed after server close")
	}

	if !errors.Is(tr.Err(), ErrConnectionClosed) {
		t.Errorf("Err() = %v, want ErrConnectionClosed", tr.Err())
	}
}

func TestTransport_SendAfterClose(t *testing.T) {
	server := mockWSServer(t, drain)
	defer server.Close()

	tr, err := WebsocketDialer{}.Dial(context.Background(), testTransportConfig(server))
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}

	if err := tr.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}

	if err := tr.Send([]byte("test")); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Send after Close = %v, want ErrNotConnected", err)
	}
}

func TestTransport_DoubleClose(t *testing.T) {
	server := mockWSServer(t, drain)
	defer server.Close()

	tr, err := WebsocketDialer{}.Dial(context.Background(), testTransportConfig(server))
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}

	if err := tr.Close(); err != nil {
		t.Errorf("first Close failed: %v", err)
	}
	if err := tr.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
	if !errors.Is(tr.Err(), ErrConnectionClosed) {
		t.Errorf("Err() = %v, want ErrConnectionClosed", tr.Err())
	}
}

func TestTransport_PingHandler(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		if err := conn.WriteControl(websocket.PingMessage, []byte("heartbeat"), time.Now().Add(time.Second)); err != nil {
			t.Logf("ping error: %v", err)
			return
		}
		drain(conn)
	})
	defer server.Close()

	tr, err := WebsocketDialer{}.Dial(context.Background(), testTransportConfig(server))
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer tr.Close()

	time.Sleep(100 * time.Millisecond)

	if tr.Err() != nil {
		t.Errorf("expected transport to stay open after ping, Err() = %v", tr.Err())
	}
}

func TestTransport_StaleConnection(t *testing.T) {
	// The server never reads, so our pings are never answered with pongs.
	release := make(chan struct{})
	server := mockWSServer(t, func(conn *websocket.Conn) {
		<-release
	})
	defer server.Close()
	defer close(release)

	cfg := testTransportConfig(server)
	cfg.PingInterval = 20 * time.Millisecond
	cfg.PingTimeout = 60 * time.Millisecond

	tr, err := WebsocketDialer{}.Dial(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer tr.Close()

	select {
	case _, ok := <-tr.Messages():
		if ok {
			t.Fatal("unexpected message")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("stale connection was not closed")
	}

	if !errors.Is(tr.Err(), ErrStaleConnection) {
		t.Errorf("Err() = %v, want ErrStaleConnection", tr.Err())
	}
}

func TestTransport_NegativePingIntervalDisablesHeartbeat(t *testing.T) {
	var pings atomic.Int32
	server := mockWSServer(t, func(conn *websocket.Conn) {
		conn.SetPingHandler(func(string) error {
			pings.Add(1)
			return nil
		})
		drain(conn)
	})
	defer server.Close()

	cfg := testTransportConfig(server)
	cfg.PingTimeout = 30 * time.Millisecond

	tr, err := WebsocketDialer{}.Dial(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer tr.Close()

	time.Sleep(150 * time.Millisecond)

	if n := pings.Load(); n != 0 {
		t.Errorf("server saw %d pings, want 0", n)
	}
	if err := tr.Err(); err != nil {
		t.Errorf("Err() = %v, want nil (no staleness check without pings)", err)
	}
}

func TestConfig_PingIntervalDefaults(t *testing.T) {
	tests := []struct {
		name string
		in   time.Duration
		want time.Duration
	}{
		{"zero uses default", 0, DefaultConfig().PingInterval},
		{"negative kept", -1, -1},
		{"explicit kept", 3 * time.Second, 3 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Config{PingInterval: tt.in}.withDefaults().PingInterval
			if got != tt.want {
				t.Errorf("PingInterval = %v, want %v", got, tt.want)
			}
		})
	}
}
