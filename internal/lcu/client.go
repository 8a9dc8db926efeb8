package lcu

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"riftcap/internal/logging"
	"riftcap/internal/services"
)

const (
	subscribeOpcode         = 5
	defaultConnectAttempts  = 3
	defaultConnectBackoff   = 5 * time.Second
	defaultMessagePause     = time.Second
	defaultHandshakeTimeout = 10 * time.Second
)

// Handler consumes a dispatched event. Returning an error pauses the
// receive loop briefly but never terminates it.
type Handler func(ctx context.Context, topic string, payload json.RawMessage) error

type subscription struct {
	topic   string
	handler Handler
}

// Client owns the WebSocket session to the LCU event feed. Connect
// authenticates with bounded retries; Listen receives until Close, with
// transparent re-authenticating reconnects on drop. A Client is not valid
// after Close.
type Client struct {
	auth   AuthProvider
	logger *slog.Logger

	attempts         int
	backoff          time.Duration
	messagePause     time.Duration
	handshakeTimeout time.Duration

	mu   sync.Mutex
	conn *websocket.Conn
	subs []subscription

	running atomic.Bool
	closed  atomic.Bool
}

// ClientOption customizes client construction.
type ClientOption func(*Client)

// WithConnectAttempts overrides the connect retry bound.
func WithConnectAttempts(attempts int) ClientOption {
	return func(c *Client) {
		if attempts > 0 {
			c.attempts = attempts
		}
	}
}

// WithConnectBackoff overrides the pause between connect attempts.
func WithConnectBackoff(backoff time.Duration) ClientOption {
	return func(c *Client) {
		if backoff >= 0 {
			c.backoff = backoff
		}
	}
}

// WithMessagePause overrides the pause after a failed message handling.
func WithMessagePause(pause time.Duration) ClientOption {
	return func(c *Client) {
		if pause >= 0 {
			c.messagePause = pause
		}
	}
}

// NewClient builds a client around the given auth provider.
func NewClient(auth AuthProvider, logger *slog.Logger, opts ...ClientOption) *Client {
	c := &Client{
		auth:             auth,
		logger:           logging.WithComponent(logger, "lcu"),
		attempts:         defaultConnectAttempts,
		backoff:          defaultConnectBackoff,
		messagePause:     defaultMessagePause,
		handshakeTimeout: defaultHandshakeTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect establishes the authenticated session, retrying up to the
// configured bound with a fixed backoff. Credentials are resolved fresh on
// every attempt since they rotate across client restarts.
func (c *Client) Connect(ctx context.Context) error {
	if c.closed.Load() {
		return services.Wrap(services.ErrConnection, "lcu", "connect", "client is closed", nil)
	}

	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if attempt > 1 {
			c.logger.Warn("connection attempt failed, retrying",
				logging.Int(logging.FieldAttempt, attempt-1),
				logging.Duration("backoff", c.backoff),
				logging.Error(lastErr))
			select {
			case <-ctx.Done():
				return services.Wrap(services.ErrConnection, "lcu", "connect", "canceled", ctx.Err())
			case <-time.After(c.backoff):
			}
		}

		conn, err := c.dial(ctx)
		if err != nil {
			lastErr = err
			c.logger.Debug("connection attempt failed",
				logging.Int(logging.FieldAttempt, attempt),
				logging.Error(err))
			continue
		}

		c.mu.Lock()
		c.conn = conn
		c.mu.Unlock()
		c.logger.Info("connected to LCU event feed")
		return nil
	}
	return services.Wrap(services.ErrConnection, "lcu", "connect",
		fmt.Sprintf("failed after %d attempts", c.attempts), lastErr)
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	creds, err := c.auth.Credentials(ctx)
	if err != nil {
		return nil, err
	}
	if creds.Port == "" || creds.Token == "" {
		return nil, services.Wrap(services.ErrConnection, "lcu", "auth", "failed to obtain authentication details", nil)
	}

	endpoint := fmt.Sprintf("wss://127.0.0.1:%s", creds.Port)
	c.logger.Debug("dialing LCU", logging.String("endpoint", endpoint))

	dialer := websocket.Dialer{
		HandshakeTimeout: c.handshakeTimeout,
		// The peer is the local client's self-signed endpoint on loopback;
		// certificate validation is intentionally disabled.
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
	}
	header := http.Header{"Authorization": {"Basic " + creds.Token}}
	conn, resp, err := dialer.DialContext(ctx, endpoint, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, services.Wrap(services.ErrConnection, "lcu", "dial", endpoint, err)
	}
	return conn, nil
}

// Subscribe sends the subscribe control frame for topic and, when handler is
// non-nil, registers it in the dispatch registry. Topics are matched against
// inbound event topics by substring containment; a repeated topic replaces
// its handler in place. "*" subscribes to every event.
func (c *Client) Subscribe(topic string, handler Handler) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return services.Wrap(services.ErrConnection, "lcu", "subscribe", "not connected", nil)
	}
	if err := writeSubscribe(c.conn, topic); err != nil {
		return services.Wrap(services.ErrConnection, "lcu", "subscribe", topic, err)
	}
	if handler != nil {
		replaced := false
		for i := range c.subs {
			if c.subs[i].topic == topic {
				c.subs[i].handler = handler
				replaced = true
				break
			}
		}
		if !replaced {
			c.subs = append(c.subs, subscription{topic: topic, handler: handler})
		}
		c.logger.Info("subscribed", logging.String(logging.FieldTopic, topic))
	}
	return nil
}

func writeSubscribe(conn *websocket.Conn, topic string) error {
	return conn.WriteJSON([]any{subscribeOpcode, subscribeEventName(topic)})
}

func subscribeEventName(topic string) string {
	if topic == "*" {
		return "OnJsonApiEvent"
	}
	return "OnJsonApiEvent_" + topic
}

// Listen receives events until Close. A dropped transport triggers one
// re-authenticating Connect (plus re-sent subscribe frames) and the loop
// resumes; handler errors pause the loop briefly and never terminate it.
// Listen returns an error only when a reconnect exhausts its retries.
func (c *Client) Listen(ctx context.Context) error {
	if c.closed.Load() {
		return services.Wrap(services.ErrConnection, "lcu", "listen", "client is closed", nil)
	}
	c.running.Store(true)
	c.logger.Debug("event listener started")

	for c.running.Load() {
		conn := c.currentConn()
		if conn == nil {
			if err := c.reconnect(ctx); err != nil {
				return err
			}
			continue
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			if !c.running.Load() {
				c.logger.Debug("listener stopping")
				return nil
			}
			c.logger.Warn("connection closed, attempting to reconnect", logging.Error(err))
			if err := c.reconnect(ctx); err != nil {
				return err
			}
			continue
		}

		if err := c.handleMessage(ctx, data); err != nil {
			c.logger.Error("error handling event", logging.Error(err))
			if !c.running.Load() {
				return nil
			}
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.messagePause):
			}
		}
	}
	return nil
}

func (c *Client) reconnect(ctx context.Context) error {
	if err := c.Connect(ctx); err != nil {
		return err
	}
	// The server-side registration does not survive a drop; replay the
	// subscribe frames for every registered topic.
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, sub := range c.subs {
		if err := writeSubscribe(c.conn, sub.topic); err != nil {
			c.logger.Warn("failed to resubscribe",
				logging.String(logging.FieldTopic, sub.topic),
				logging.Error(err))
		}
	}
	return nil
}

// handleMessage decodes and dispatches one frame. Decode failures are
// logged and swallowed; a handler error is returned for the listener's
// pause-and-continue treatment. Matching handlers run sequentially in
// registration order so a shared cache never sees concurrent writers.
func (c *Client) handleMessage(ctx context.Context, data []byte) error {
	evt, err := DecodeEvent(data)
	if err != nil {
		c.logger.Warn("discarding undecodable frame", logging.Error(err))
		c.logger.Debug("frame content", logging.String("raw", string(data)))
		return nil
	}

	c.mu.Lock()
	subs := make([]subscription, len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()

	for _, sub := range subs {
		if !strings.Contains(evt.Topic, sub.topic) {
			continue
		}
		if err := sub.handler(ctx, sub.topic, evt.Payload); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) currentConn() *websocket.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn
}

// Close shuts the client down. It is idempotent; the running flag is
// flipped first so the receive loop never reconnects once closing begins.
// No Connect is valid afterwards.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.running.Store(false)
	c.logger.Info("closing LCU connection")

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			c.logger.Warn("error closing connection", logging.Error(err))
		}
		c.conn = nil
	}
	return nil
}
