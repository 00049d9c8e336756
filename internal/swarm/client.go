package swarm

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Client multiplexes tagged requests over one Swarm connection.
// It is safe for concurrent use.
type Client struct {
	cfg      Config
	logger   *slog.Logger
	dialer   Dialer
	recorder Recorder

	mgr *manager
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDialer replaces the websocket dialer.
func WithDialer(d Dialer) Option {
	return func(c *Client) {
		if d != nil {
			c.dialer = d
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Client) {
		if r != nil {
			c.recorder = r
		}
	}
}

// NewClient creates a client. It does not connect; call Connect, or let the
// first Submit connect.
func NewClient(cfg Config, opts ...Option) *Client {
	c := &Client{
		cfg:      cfg.withDefaults(),
		logger:   slog.Default(),
		recorder: nopRecorder{},
	}

	for _, opt := range opts {
		opt(c)
	}

	c.logger = c.logger.With("component", "swarm")
	if c.dialer == nil {
		c.dialer = WebsocketDialer{Logger: c.logger}
	}
	c.mgr = newManager(c.cfg, c.dialer, c.recorder, c.logger)

	return c
}

// Connect opens a new connection, replacing any existing one, and returns the
// session id.
func (c *Client) Connect(ctx context.Context) (string, error) {
	return c.mgr.Connect(ctx)
}

// EnsureConnected connects only if there is no connected session.
// Concurrent callers share one connect attempt.
func (c *Client) EnsureConnected(ctx context.Context) (string, error) {
	return c.mgr.EnsureConnected(ctx)
}

// Submit sends command with params and waits for its reply. A timeout of zero
// uses the configured RequestTimeout. Errors wrap one of the package's
// sentinel errors.
func (c *Client) Submit(ctx context.Context, command string, params any, timeout time.Duration) (*Response, error) {
	if timeout <= 0 {
		timeout = c.cfg.RequestTimeout
	}

	start := time.Now()
	c.recorder.RequestStarted(command)

	resp, err := c.submit(ctx, command, params, timeout)
	c.recorder.RequestDone(command, err, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", command, err)
	}
	return &resp, nil
}

func (c *Client) submit(ctx context.Context, command string, params any, timeout time.Duration) (Response, error) {
	conn, err := c.mgr.acquire(ctx, command)
	if err != nil {
		return Response{}, err
	}
	return c.mgr.roundTrip(ctx, conn, command, params, timeout)
}

// Close releases the connection. Pending requests fail with
// ErrConnectionClosed. Idempotent.
func (c *Client) Close() error {
	return c.mgr.Close()
}

// Status returns the connection status.
func (c *Client) Status() Status {
	return c.mgr.session.Status()
}

// SessionID returns the current session id, or "" when not connected.
func (c *Client) SessionID() string {
	return c.mgr.session.ID()
}

// IsConnected reports whether the client has a connected session.
func (c *Client) IsConnected() bool {
	_, ok := c.mgr.session.connectedID()
	return ok
}

// Pending returns the number of requests awaiting a reply.
func (c *Client) Pending() int {
	return c.mgr.pending()
}

// Config returns the effective configuration.
func (c *Client) Config() Config {
	return c.cfg
}
