package swarm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rickgao/forzza-swarm/internal/version"
)

// Transport is a single duplex message connection.
type Transport interface {
	// Send writes one frame.
	Send(data []byte) error

	// Messages returns the inbound frames. The channel is closed when the
	// connection ends; Err then reports why.
	Messages() <-chan TimestampedMessage

	// Err returns the reason the connection ended, or nil while it is open.
	Err() error

	// Close releases the connection. Idempotent.
	Close() error
}

// Dialer opens transports.
type Dialer interface {
	Dial(ctx context.Context, cfg Config) (Transport, error)
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(ctx context.Context, cfg Config) (Transport, error)

func (f DialerFunc) Dial(ctx context.Context, cfg Config) (Transport, error) {
	return f(ctx, cfg)
}

// WebsocketDialer dials the service with gorilla/websocket.
type WebsocketDialer struct {
	Logger *slog.Logger
}

// Dial establishes the websocket connection and starts its read and heartbeat loops.
func (d WebsocketDialer) Dial(ctx context.Context, cfg Config) (Transport, error) {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	header := http.Header{}
	header.Set("User-Agent", version.UserAgent())

	dialer := websocket.Dialer{
		HandshakeTimeout: cfg.HandshakeTimeout,
		Proxy:            http.ProxyFromEnvironment,
	}

	conn, _, err := dialer.DialContext(ctx, cfg.URL, header)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.URL, err)
	}

	t := &wsTransport{
		cfg:        cfg,
		logger:     logger,
		conn:       conn,
		messages:   make(chan TimestampedMessage, cfg.BufferSize),
		done:       make(chan struct{}),
		lastPongAt: time.Now(),
	}

	// Server pings are answered here; both directions count as liveness.
	conn.SetPingHandler(func(data string) error {
		t.touch()
		return conn.WriteControl(
			websocket.PongMessage,
			[]byte(data),
			time.Now().Add(time.Second),
		)
	})
	conn.SetPongHandler(func(string) error {
		t.touch()
		return nil
	})

	go t.readLoop()
	if cfg.PingInterval > 0 {
		go t.heartbeatLoop()
	}

	logger.Debug("websocket connected", "url", cfg.URL)

	return t, nil
}

// wsTransport implements Transport over a gorilla websocket connection.
type wsTransport struct {
	cfg    Config
	logger *slog.Logger

	conn *websocket.Conn

	messages chan TimestampedMessage
	done     chan struct{}

	// Write serialization
	writeMu sync.Mutex

	// State
	mu         sync.Mutex
	closed     bool
	err        error
	lastPongAt time.Time
}

// Send writes a text frame.
func (t *wsTransport) Send(data []byte) error {
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return ErrNotConnected
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if err := t.conn.SetWriteDeadline(time.Now().Add(t.cfg.WriteTimeout)); err != nil {
		return err
	}
	return t.conn.WriteMessage(websocket.TextMessage, data)
}

// Messages returns the inbound channel.
func (t *wsTransport) Messages() <-chan TimestampedMessage {
	return t.messages
}

// Err returns why the connection ended.
func (t *wsTransport) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Close sends a close frame and closes the socket.
func (t *wsTransport) Close() error {
	if !t.shutdown(ErrConnectionClosed) {
		return nil
	}

	t.writeMu.Lock()
	t.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	t.writeMu.Unlock()

	return t.conn.Close()
}

// shutdown marks the transport closed with reason err. It returns false if
// it was already closed.
func (t *wsTransport) shutdown(err error) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return false
	}
	t.closed = true
	t.err = err
	close(t.done)
	return true
}

func (t *wsTransport) touch() {
	t.mu.Lock()
	t.lastPongAt = time.Now()
	t.mu.Unlock()
}

// readLoop is the only sender on messages and closes it on exit.
func (t *wsTransport) readLoop() {
	defer close(t.messages)

	for {
		_, data, err := t.conn.ReadMessage()
		receivedAt := time.Now() // Capture timestamp immediately

		if err != nil {
			if t.shutdown(fmt.Errorf("%w: %w", ErrConnectionClosed, err)) {
				t.logger.Debug("websocket read failed", "error", err)
				t.conn.Close()
			}
			return
		}

		msg := TimestampedMessage{
			Data:       data,
			ReceivedAt: receivedAt,
		}

		// Replies are never dropped; a slow consumer applies backpressure.
		select {
		case t.messages <- msg:
		case <-t.done:
			return
		}
	}
}

// heartbeatLoop pings the server and closes a stale connection.
func (t *wsTransport) heartbeatLoop() {
	ticker := time.NewTicker(t.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(t.cfg.WriteTimeout)
			if err := t.conn.WriteControl(websocket.PingMessage, []byte("keepalive"), deadline); err != nil {
				t.logger.Debug("failed to send ping", "error", err)
			}

			t.mu.Lock()
			lastPong := t.lastPongAt
			t.mu.Unlock()

			if time.Since(lastPong) > t.cfg.PingTimeout {
				t.logger.Warn("no pong received, connection stale",
					"last_pong", lastPong,
					"timeout", t.cfg.PingTimeout,
				)
				if t.shutdown(ErrStaleConnection) {
					t.conn.Close()
				}
				return
			}
		}
	}
}
