package swarm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// connection is one transport together with the requests outstanding on it.
type connection struct {
	gen       uint64
	transport Transport
	table     *Table
	done      chan struct{} // Closed when the receive loop exits
}

// manager owns the connection lifecycle. Only one connect runs at a time.
type manager struct {
	cfg      Config
	dialer   Dialer
	recorder Recorder
	logger   *slog.Logger
	session  *Session

	mu      sync.Mutex
	current *connection
	closed  bool // Set by Close; cleared by Connect

	gens  atomic.Uint64
	group singleflight.Group
	wg    sync.WaitGroup // Receive loops
}

func newManager(cfg Config, dialer Dialer, recorder Recorder, logger *slog.Logger) *manager {
	return &manager{
		cfg:      cfg,
		dialer:   dialer,
		recorder: recorder,
		logger:   logger,
		session:  newSession(recorder.ConnectionState),
	}
}

// Connect replaces any existing connection with a new one. Concurrent calls
// join the attempt already in flight.
func (m *manager) Connect(ctx context.Context) (string, error) {
	m.mu.Lock()
	m.closed = false
	m.mu.Unlock()

	return m.coalesce(ctx, true)
}

// EnsureConnected returns the current session id, connecting first if needed.
func (m *manager) EnsureConnected(ctx context.Context) (string, error) {
	if sid, ok := m.session.connectedID(); ok {
		return sid, nil
	}

	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return "", ErrClosed
	}

	return m.coalesce(ctx, false)
}

// coalesce runs connect through the singleflight group. Waiters block on a
// channel and may leave early with their own context; the attempt itself is
// bounded only by ConnectTimeout.
func (m *manager) coalesce(ctx context.Context, force bool) (string, error) {
	ch := m.group.DoChan("connect", func() (any, error) {
		if !force {
			if sid, ok := m.session.connectedID(); ok {
				return sid, nil
			}
		}
		return m.connect()
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// connect tears down the current connection, dials a new one and bootstraps
// its session.
func (m *manager) connect() (sid string, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.ConnectTimeout)
	defer cancel()

	start := time.Now()
	defer func() {
		m.recorder.ConnectDone(err, time.Since(start))
	}()

	m.teardown()

	gen := m.gens.Add(1)
	m.session.beginConnect(gen)

	m.logger.Info("connecting to swarm", "url", m.cfg.URL, "conn", gen)

	t, err := m.dialer.Dial(ctx, m.cfg)
	if err != nil {
		m.session.invalidate(gen)
		if ctx.Err() != nil {
			err = fmt.Errorf("%w after %s: %w", ErrConnectTimeout, m.cfg.ConnectTimeout, err)
		} else {
			err = fmt.Errorf("%w: %w", ErrTransport, err)
		}
		m.logger.Warn("swarm connect failed", "conn", gen, "error", err)
		return "", err
	}

	conn := &connection{
		gen:       gen,
		transport: t,
		table:     NewTable(),
		done:      make(chan struct{}),
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		t.Close()
		m.session.invalidate(gen)
		return "", ErrClosed
	}
	m.current = conn
	m.wg.Add(1)
	m.mu.Unlock()

	go m.receiveLoop(conn)

	sid, err = m.bootstrap(ctx, conn)
	if err != nil {
		m.drop(conn)
		if m.isClosed() {
			return "", ErrClosed
		}
		m.logger.Warn("swarm session bootstrap failed", "conn", gen, "error", err)
		return "", err
	}

	if !m.session.establish(gen, sid) {
		if m.isClosed() {
			return "", ErrClosed
		}
		return "", fmt.Errorf("%w: %w during bootstrap", ErrTransport, ErrConnectionClosed)
	}

	m.logger.Info("swarm connected",
		"conn", gen,
		"session", sid,
		"duration", time.Since(start),
	)
	return sid, nil
}

// bootstrap issues request_session on conn and returns the session id.
func (m *manager) bootstrap(ctx context.Context, conn *connection) (string, error) {
	params := map[string]any{
		"site_id":  m.cfg.SiteID,
		"language": m.cfg.Language,
	}

	timeout := m.cfg.ConnectTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}

	resp, err := m.roundTrip(ctx, conn, CommandRequestSession, params, timeout)
	switch {
	case err == nil:
	case errors.Is(err, ErrRequestTimeout), errors.Is(err, context.DeadlineExceeded):
		return "", fmt.Errorf("%w after %s", ErrConnectTimeout, m.cfg.ConnectTimeout)
	case errors.Is(err, ErrSendFailure), errors.Is(err, ErrConnectionClosed):
		return "", fmt.Errorf("%w: %w", ErrTransport, err)
	default:
		return "", fmt.Errorf("request session: %w", err)
	}

	sid, ok := sessionID(resp.Data)
	if !ok {
		return "", ErrSessionMissing
	}
	return sid, nil
}

// sessionID reads data.sid as a string. Numeric ids are accepted verbatim.
func sessionID(data json.RawMessage) (string, bool) {
	if len(data) == 0 {
		return "", false
	}

	var body struct {
		SID json.RawMessage `json:"sid"`
	}
	if err := json.Unmarshal(data, &body); err != nil || len(body.SID) == 0 {
		return "", false
	}

	var s string
	if err := json.Unmarshal(body.SID, &s); err == nil {
		return s, s != ""
	}

	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(body.SID))
	dec.UseNumber()
	if err := dec.Decode(&n); err == nil {
		return n.String(), true
	}
	return "", false
}

// roundTrip registers, sends and waits for one request on conn.
func (m *manager) roundTrip(ctx context.Context, conn *connection, command string, params any, timeout time.Duration) (Response, error) {
	rid := uuid.NewString()

	frame, err := EncodeRequest(rid, command, params)
	if err != nil {
		return Response{}, fmt.Errorf("encode %s: %w", command, err)
	}

	h, err := conn.table.Register(rid, command, timeout)
	if err != nil {
		return Response{}, err
	}

	if err := conn.transport.Send(frame); err != nil {
		conn.table.Fail(rid, fmt.Errorf("%w: %w", ErrSendFailure, err))
		if m.session.invalidate(conn.gen) {
			m.logger.Warn("send failed, session invalidated",
				"conn", conn.gen,
				"command", command,
				"error", err,
			)
		}
	}

	return h.Wait(ctx)
}

// acquire returns the connection a request for command should use.
func (m *manager) acquire(ctx context.Context, command string) (*connection, error) {
	if command != CommandRequestSession {
		if _, err := m.EnsureConnected(ctx); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		if m.closed {
			return nil, ErrClosed
		}
		return nil, ErrNotConnected
	}
	return m.current, nil
}

// receiveLoop decodes frames for conn and resolves their requests. The loop
// ending is the only close signal for conn.
func (m *manager) receiveLoop(conn *connection) {
	defer m.wg.Done()
	defer close(conn.done)

	for msg := range conn.transport.Messages() {
		m.dispatch(conn, msg)
	}

	reason := conn.transport.Err()
	failErr := ErrConnectionClosed
	if reason != nil {
		if errors.Is(reason, ErrConnectionClosed) {
			failErr = reason
		} else {
			failErr = fmt.Errorf("%w: %w", ErrConnectionClosed, reason)
		}
	}

	m.mu.Lock()
	if m.current == conn {
		m.current = nil
	}
	m.mu.Unlock()

	// Invalidate first so a caller woken by FailAll never sees a stale session.
	lost := m.session.invalidate(conn.gen)
	failed := conn.table.FailAll(failErr)

	if lost {
		m.logger.Warn("swarm connection lost",
			"conn", conn.gen,
			"reason", reason,
			"failed_requests", failed,
		)
	} else {
		m.logger.Debug("swarm connection ended", "conn", conn.gen, "failed_requests", failed)
	}
}

// dispatch routes one inbound frame.
func (m *manager) dispatch(conn *connection, msg TimestampedMessage) {
	resp, err := DecodeResponse(msg.Data)
	if err != nil {
		if rid := peekRID(msg.Data); rid != "" && conn.table.Fail(rid, err) {
			m.logger.Warn("malformed reply", "conn", conn.gen, "rid", rid, "error", err)
			return
		}
		m.logger.Warn("dropping malformed frame",
			"conn", conn.gen,
			"size", len(msg.Data),
			"error", err,
		)
		m.recorder.FrameDropped("malformed")
		return
	}

	if resp.RID == "" {
		m.logger.Debug("dropping unsolicited frame", "conn", conn.gen)
		m.recorder.FrameDropped("unsolicited")
		return
	}

	resp.ReceivedAt = msg.ReceivedAt
	if !conn.table.Resolve(resp) {
		m.logger.Debug("dropping reply for unknown request", "conn", conn.gen, "rid", resp.RID)
		m.recorder.FrameDropped("unknown_rid")
	}
}

// drop closes conn and fails its requests immediately.
func (m *manager) drop(conn *connection) {
	m.mu.Lock()
	if m.current == conn {
		m.current = nil
	}
	m.mu.Unlock()

	conn.transport.Close()
	m.session.invalidate(conn.gen)
	conn.table.FailAll(ErrConnectionClosed)
}

// teardown drops the current connection, if any.
func (m *manager) teardown() {
	m.mu.Lock()
	conn := m.current
	m.mu.Unlock()

	if conn != nil {
		m.logger.Debug("closing existing connection", "conn", conn.gen)
		m.drop(conn)
	}
}

// Close releases the connection and clears the session. Idempotent.
func (m *manager) Close() error {
	m.mu.Lock()
	if m.closed && m.current == nil {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	m.session.closing()
	m.teardown()
	m.wg.Wait()
	m.session.reset()

	m.logger.Info("swarm client closed")
	return nil
}

func (m *manager) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// pending returns the number of requests outstanding on the current connection.
func (m *manager) pending() int {
	m.mu.Lock()
	conn := m.current
	m.mu.Unlock()
	if conn == nil {
		return 0
	}
	return conn.table.Len()
}
