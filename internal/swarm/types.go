package swarm

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Errors
var (
	ErrConnectTimeout   = errors.New("connect timeout")
	ErrSessionMissing   = errors.New("session id missing from bootstrap response")
	ErrTransport        = errors.New("transport error")
	ErrSendFailure      = errors.New("send failure")
	ErrRequestTimeout   = errors.New("request timeout")
	ErrConnectionClosed = errors.New("connection closed")
	ErrProtocol         = errors.New("protocol error")
	ErrRemote           = errors.New("remote error")
	ErrNotConnected     = errors.New("not connected")
	ErrClosed           = errors.New("client closed")
	ErrDuplicateID      = errors.New("duplicate correlation id")
	ErrStaleConnection  = errors.New("connection stale (no pong)")
)

// Commands understood by the service.
const (
	CommandRequestSession = "request_session"
	CommandGet            = "get"
)

// DefaultURL is the public Swarm endpoint.
const DefaultURL = "wss://eu-swarm-newm.vmemkhhgjigrjefb.com"

// RemoteError is an error reported by the service inside a reply frame.
type RemoteError struct {
	Code    int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("swarm error code %d", e.Code)
	}
	return fmt.Sprintf("swarm error code %d: %s", e.Code, e.Message)
}

// Is makes errors.Is(err, ErrRemote) match any RemoteError.
func (e *RemoteError) Is(target error) bool {
	return target == ErrRemote
}

// Request is an outbound frame.
type Request struct {
	Command string          `json:"command"`
	Params  json.RawMessage `json:"params"`
	RID     string          `json:"rid"`
}

// Response is an inbound frame. Data is returned exactly as received.
type Response struct {
	RID   string          `json:"rid"`
	Code  int             `json:"code"`
	Msg   string          `json:"msg,omitempty"`
	Error string          `json:"error,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`

	ReceivedAt time.Time `json:"-"` // Local timestamp when the frame was read
}

// Err returns the service-reported error carried by the frame, if any.
func (r Response) Err() error {
	if r.Error == "" && r.Code == 0 {
		return nil
	}
	msg := r.Error
	if msg == "" {
		msg = r.Msg
	}
	return &RemoteError{Code: r.Code, Message: msg}
}

// TimestampedMessage wraps raw frame data with receive timestamp.
type TimestampedMessage struct {
	Data       []byte    // Raw frame bytes from the websocket
	ReceivedAt time.Time // Local timestamp when ReadMessage() returned
}

// Status is the connection state.
type Status int32

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
	StatusClosing
)

func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusClosing:
		return "closing"
	}
	return fmt.Sprintf("status(%d)", int32(s))
}

// Config configures a Client.
type Config struct {
	URL      string // Websocket URL (e.g., wss://eu-swarm-newm.vmemkhhgjigrjefb.com)
	SiteID   int    // Partner/site id sent in request_session
	Language string // Language tag sent in request_session (e.g., "eng")

	ConnectTimeout   time.Duration // Max time to reach Connected with a session
	RequestTimeout   time.Duration // Default per-request timeout
	HandshakeTimeout time.Duration // Websocket handshake timeout
	WriteTimeout     time.Duration // Write deadline for sends
	PingInterval     time.Duration // Interval between client pings (0 = default, negative = no pings)
	PingTimeout      time.Duration // Max time without pong before the connection is stale
	BufferSize       int           // Inbound frame channel buffer size
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		URL:              DefaultURL,
		SiteID:           1777,
		Language:         "eng",
		ConnectTimeout:   15 * time.Second,
		RequestTimeout:   60 * time.Second,
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     5 * time.Second,
		PingInterval:     15 * time.Second,
		PingTimeout:      60 * time.Second,
		BufferSize:       256,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.URL == "" {
		c.URL = d.URL
	}
	if c.SiteID == 0 {
		c.SiteID = d.SiteID
	}
	if c.Language == "" {
		c.Language = d.Language
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = d.ConnectTimeout
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = d.RequestTimeout
	}
	if c.HandshakeTimeout == 0 {
		c.HandshakeTimeout = d.HandshakeTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.PingInterval == 0 {
		c.PingInterval = d.PingInterval
	}
	if c.PingTimeout == 0 {
		c.PingTimeout = d.PingTimeout
	}
	if c.BufferSize == 0 {
		c.BufferSize = d.BufferSize
	}
	return c
}
