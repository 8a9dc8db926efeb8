package obs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"riftcap/internal/logging"
	"riftcap/internal/services"
)

const (
	defaultRequestTimeout   = 3 * time.Second
	defaultHandshakeTimeout = 5 * time.Second
)

// Client is a connection to one obs-websocket endpoint. Connect performs the
// identify handshake and starts a read pump; requests may then be issued from
// any goroutine and are correlated by request id.
type Client struct {
	endpoint string
	password string
	timeout  time.Duration
	logger   *slog.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	pending   map[string]chan responseEnvelope
	lastPath  string
	connected bool
	closed    bool
}

// Option customizes client construction.
type Option func(*Client)

// WithRequestTimeout bounds how long a single request may wait for its
// response.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// NewClient builds a client for ws://host:port. password may be empty when
// the endpoint has authentication disabled.
func NewClient(host string, port int, password string, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		endpoint: fmt.Sprintf("ws://%s:%d", host, port),
		password: password,
		timeout:  defaultRequestTimeout,
		logger:   logging.WithComponent(logger, "obs"),
		pending:  make(map[string]chan responseEnvelope),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect dials the endpoint and completes the Hello/Identify/Identified
// exchange, then starts the read pump.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return services.Wrap(services.ErrConnection, "obs", "connect", "client is closed", nil)
	}
	if c.connected {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	dialer := websocket.Dialer{HandshakeTimeout: defaultHandshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, c.endpoint, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return services.Wrap(services.ErrConnection, "obs", "dial", c.endpoint, err)
	}

	if err := c.identify(conn); err != nil {
		conn.Close()
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()
	c.logger.Info("connected to OBS", logging.String("endpoint", c.endpoint))

	go c.readPump(conn)
	return nil
}

func (c *Client) identify(conn *websocket.Conn) error {
	conn.SetReadDeadline(time.Now().Add(defaultHandshakeTimeout))
	defer conn.SetReadDeadline(time.Time{})

	var hello envelope
	if err := conn.ReadJSON(&hello); err != nil {
		return services.Wrap(services.ErrConnection, "obs", "handshake", "reading hello", err)
	}
	if hello.Op != opHello {
		return services.Wrap(services.ErrConnection, "obs", "handshake",
			fmt.Sprintf("expected hello, got opcode %d", hello.Op), nil)
	}
	var helloBody helloData
	if err := json.Unmarshal(hello.D, &helloBody); err != nil {
		return services.Wrap(services.ErrDecode, "obs", "handshake", "malformed hello", err)
	}

	identify := identifyData{RPCVersion: rpcVersion}
	if helloBody.Authentication != nil {
		if c.password == "" {
			return services.Wrap(services.ErrConfiguration, "obs", "handshake",
				"endpoint requires authentication but no password is configured", nil)
		}
		identify.Authentication = authResponse(c.password, helloBody.Authentication.Salt, helloBody.Authentication.Challenge)
	}
	frame, err := marshalEnvelope(opIdentify, identify)
	if err != nil {
		return services.Wrap(services.ErrDecode, "obs", "handshake", "encoding identify", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return services.Wrap(services.ErrConnection, "obs", "handshake", "sending identify", err)
	}

	var identified envelope
	if err := conn.ReadJSON(&identified); err != nil {
		return services.Wrap(services.ErrConnection, "obs", "handshake", "reading identified", err)
	}
	if identified.Op != opIdentified {
		return services.Wrap(services.ErrConnection, "obs", "handshake",
			fmt.Sprintf("identify rejected, got opcode %d", identified.Op), nil)
	}
	c.logger.Debug("identified with OBS",
		logging.String("version", helloBody.OBSWebSocketVersion))
	return nil
}

func (c *Client) readPump(conn *websocket.Conn) {
	for {
		var env envelope
		if err := conn.ReadJSON(&env); err != nil {
			c.mu.Lock()
			wasConnected := c.connected && c.conn == conn
			if wasConnected {
				c.connected = false
			}
			c.failPendingLocked()
			c.mu.Unlock()
			if wasConnected {
				c.logger.Warn("OBS connection lost", logging.Error(err))
			}
			return
		}
		switch env.Op {
		case opRequestResponse:
			var resp responseEnvelope
			if err := json.Unmarshal(env.D, &resp); err != nil {
				c.logger.Warn("discarding malformed response", logging.Error(err))
				continue
			}
			c.deliver(resp)
		case opEvent:
			var evt eventEnvelope
			if err := json.Unmarshal(env.D, &evt); err != nil {
				continue
			}
			c.handleEvent(evt)
		}
	}
}

func (c *Client) deliver(resp responseEnvelope) {
	c.mu.Lock()
	ch, ok := c.pending[resp.RequestID]
	if ok {
		delete(c.pending, resp.RequestID)
	}
	c.mu.Unlock()
	if ok {
		ch <- resp
	}
}

func (c *Client) failPendingLocked() {
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
}

// handleEvent tracks the active record output path so the last capture can
// be located after a stop.
func (c *Client) handleEvent(evt eventEnvelope) {
	if evt.EventType != "RecordStateChanged" {
		return
	}
	var state struct {
		OutputActive bool   `json:"outputActive"`
		OutputState  string `json:"outputState"`
		OutputPath   string `json:"outputPath"`
	}
	if err := json.Unmarshal(evt.EventData, &state); err != nil {
		return
	}
	if state.OutputPath != "" {
		c.mu.Lock()
		c.lastPath = state.OutputPath
		c.mu.Unlock()
		c.logger.Debug("record output path updated",
			logging.String("path", state.OutputPath),
			logging.String("state", state.OutputState))
	}
}

// request issues one correlated request and decodes the response body into
// out when non-nil.
func (c *Client) request(ctx context.Context, requestType string, data any, out any) error {
	c.mu.Lock()
	if !c.connected || c.conn == nil {
		c.mu.Unlock()
		return services.Wrap(services.ErrConnection, "obs", requestType, "not connected", nil)
	}
	conn := c.conn
	id := uuid.NewString()
	ch := make(chan responseEnvelope, 1)
	c.pending[id] = ch
	c.mu.Unlock()

	frame, err := marshalEnvelope(opRequest, requestEnvelope{
		RequestType: requestType,
		RequestID:   id,
		RequestData: data,
	})
	if err != nil {
		c.abandon(id)
		return services.Wrap(services.ErrDecode, "obs", requestType, "encoding request", err)
	}

	c.mu.Lock()
	writeErr := conn.WriteMessage(websocket.TextMessage, frame)
	c.mu.Unlock()
	if writeErr != nil {
		c.abandon(id)
		return services.Wrap(services.ErrConnection, "obs", requestType, "sending request", writeErr)
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()
	select {
	case resp, ok := <-ch:
		if !ok {
			return services.Wrap(services.ErrConnection, "obs", requestType, "connection lost", nil)
		}
		if !resp.RequestStatus.Result {
			return services.Wrap(services.ErrDevice, "obs", requestType,
				fmt.Sprintf("request failed (code %d): %s", resp.RequestStatus.Code, resp.RequestStatus.Comment), nil)
		}
		if out != nil && len(resp.ResponseData) > 0 {
			if err := json.Unmarshal(resp.ResponseData, out); err != nil {
				return services.Wrap(services.ErrDecode, "obs", requestType, "decoding response", err)
			}
		}
		return nil
	case <-timer.C:
		c.abandon(id)
		return services.Wrap(services.ErrTimeout, "obs", requestType, "no response within timeout", nil)
	case <-ctx.Done():
		c.abandon(id)
		return services.Wrap(services.ErrTimeout, "obs", requestType, "canceled", ctx.Err())
	}
}

func (c *Client) abandon(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// Version returns the obs-websocket version string.
func (c *Client) Version(ctx context.Context) (string, error) {
	var out struct {
		OBSWebSocketVersion string `json:"obsWebSocketVersion"`
	}
	if err := c.request(ctx, "GetVersion", nil, &out); err != nil {
		return "", err
	}
	return out.OBSWebSocketVersion, nil
}

// Profiles lists the configured profile names.
func (c *Client) Profiles(ctx context.Context) ([]string, error) {
	var out struct {
		Profiles []string `json:"profiles"`
	}
	if err := c.request(ctx, "GetProfileList", nil, &out); err != nil {
		return nil, err
	}
	return out.Profiles, nil
}

// SetProfile switches the active profile.
func (c *Client) SetProfile(ctx context.Context, name string) error {
	return c.request(ctx, "SetCurrentProfile", map[string]any{"profileName": name}, nil)
}

// StartRecord begins recording.
func (c *Client) StartRecord(ctx context.Context) error {
	return c.request(ctx, "StartRecord", nil, nil)
}

// StopRecord ends recording and returns the output path when the endpoint
// reports one.
func (c *Client) StopRecord(ctx context.Context) (string, error) {
	var out struct {
		OutputPath string `json:"outputPath"`
	}
	if err := c.request(ctx, "StopRecord", nil, &out); err != nil {
		return "", err
	}
	if out.OutputPath != "" {
		c.mu.Lock()
		c.lastPath = out.OutputPath
		c.mu.Unlock()
	}
	return out.OutputPath, nil
}

// RecordActive reports whether the record output is running.
func (c *Client) RecordActive(ctx context.Context) (bool, error) {
	var out struct {
		OutputActive bool `json:"outputActive"`
	}
	if err := c.request(ctx, "GetRecordStatus", nil, &out); err != nil {
		return false, err
	}
	return out.OutputActive, nil
}

// LastOutputPath returns the most recent record output path observed from
// events or stop responses.
func (c *Client) LastOutputPath() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastPath, c.lastPath != ""
}

// Connected reports whether the handshake has completed and the transport is
// still up.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Close tears the connection down. It is idempotent.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.connected = false
	c.failPendingLocked()
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			c.logger.Debug("error closing OBS connection", logging.Error(err))
		}
		c.conn = nil
	}
	return nil
}
