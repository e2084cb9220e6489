package console

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/novacheck/novacheck/internal/logging"
)

// proxyPath is the well-known websockify endpoint. Console proxies serve the
// upgrade on this path regardless of the path in the console URL.
const proxyPath = "/websockify"

// handshakeKey is the Sec-WebSocket-Key sent on every upgrade. The key only
// proves to the server that the client speaks WebSocket; since this client
// never verifies Sec-WebSocket-Accept, a fixed value changes nothing.
const handshakeKey = "x3JJHMbDL1EzLkh9GBhXDw=="

// headerEnd terminates the HTTP response headers of the upgrade.
var headerEnd = []byte("\r\n\r\n")

var (
	// ErrClosed is returned by SendFrame and ReceiveFrame after Close.
	ErrClosed = errors.New("console: connection closed")

	// ErrFrameTooLarge is returned by SendFrame for payloads over
	// MaxPayload bytes.
	ErrFrameTooLarge = errors.New("console: frame payload too large")
)

// State describes where a client is in its connection lifecycle.
type State int

const (
	// StateConnecting covers the TCP dial.
	StateConnecting State = iota
	// StateUpgrading covers the HTTP upgrade exchange.
	StateUpgrading
	// StateOpen means the upgrade completed and frames may flow.
	StateOpen
	// StateClosed is terminal; entered only by Close.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateUpgrading:
		return "upgrading"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Option configures a client before it dials.
type Option func(*Client)

// WithTimeout arms an I/O deadline of d on every Dial, SendFrame and
// ReceiveFrame operation. The zero default matches the suite's historical
// behavior: no deadline, the caller's own timeout is the only guard.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// Client is a WebSocket console session over a single TCP connection.
// Construct it with Dial; the zero value is unusable.
type Client struct {
	conn     net.Conn
	state    State
	timeout  time.Duration
	response []byte
}

// Dial opens a TCP connection to the console URL's host and port and
// performs the WebSocket upgrade. The URL's query string is the one-time
// console token and travels to the proxy as a Cookie header. On return the
// client is Open; any failure closes the socket and returns only the error.
func Dial(rawURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("console: parse url: %w", err)
	}
	hostport, err := targetAddr(u)
	if err != nil {
		return nil, err
	}

	c := &Client{state: StateConnecting}
	for _, opt := range opts {
		opt(c)
	}

	// SO_REUSEADDR matches the proxy's expectations for rapidly recycled
	// test connections; console sessions are dialed and dropped in bulk
	// during a run.
	dialer := net.Dialer{Timeout: c.timeout, Control: reuseAddr}
	conn, err := dialer.Dial("tcp", hostport)
	if err != nil {
		return nil, fmt.Errorf("console: connect %s: %w", hostport, err)
	}
	c.conn = conn
	logging.LogConnection(hostport, "connected")

	c.state = StateUpgrading
	if err := c.upgrade(hostport, u.RawQuery); err != nil {
		conn.Close()
		return nil, err
	}

	c.state = StateOpen
	logging.LogConnection(hostport, "upgraded")
	return c, nil
}

// targetAddr extracts the dialable host:port from the console URL. Console
// URLs normally carry an explicit proxy port; when one is missing the
// scheme's default fills in.
func targetAddr(u *url.URL) (string, error) {
	host := u.Hostname()
	if host == "" {
		return "", fmt.Errorf("console: url %q has no host", u.String())
	}
	port := u.Port()
	if port == "" {
		switch u.Scheme {
		case "ws", "http":
			port = "80"
		case "wss", "https":
			port = "443"
		default:
			return "", fmt.Errorf("console: url %q has no port", u.String())
		}
	}
	return net.JoinHostPort(host, port), nil
}

// upgrade sends the HTTP upgrade request and accumulates the response until
// the header terminator. The response is kept raw for diagnostics and is
// otherwise not interpreted: no status-line check, no Sec-WebSocket-Accept
// check. See the package documentation for why the gap is preserved.
func (c *Client) upgrade(hostport, query string) error {
	var req bytes.Buffer
	fmt.Fprintf(&req, "GET %s HTTP/1.1\r\n", proxyPath)
	fmt.Fprintf(&req, "Host: %s\r\n", hostport)
	req.WriteString("Upgrade: websocket\r\n")
	req.WriteString("Connection: Upgrade\r\n")
	// The proxy reads the token from a cookie, not from the request URI.
	fmt.Fprintf(&req, "Cookie: %s\r\n", query)
	fmt.Fprintf(&req, "Sec-WebSocket-Key: %s\r\n", handshakeKey)
	req.WriteString("Sec-WebSocket-Version: 13\r\n")
	req.WriteString("Sec-WebSocket-Protocol: binary\r\n\r\n")

	c.armDeadline()
	if _, err := c.conn.Write(req.Bytes()); err != nil {
		return fmt.Errorf("console: send upgrade request: %w", err)
	}

	// The terminator can straddle read boundaries, so always scan the
	// accumulated response, never just the latest chunk.
	buf := make([]byte, 4096)
	for !bytes.Contains(c.response, headerEnd) {
		n, err := c.conn.Read(buf)
		c.response = append(c.response, buf[:n]...)
		if err == io.EOF {
			return fmt.Errorf("console: connection closed during upgrade after %d bytes: %w",
				len(c.response), io.ErrUnexpectedEOF)
		}
		if err != nil {
			return fmt.Errorf("console: read upgrade response: %w", err)
		}
	}

	logging.Debug("console upgrade response received",
		zap.Int("bytes", len(c.response)))
	return nil
}

// SendFrame masks and transmits payload as one binary frame. The payload
// must be at most MaxPayload bytes; the whole frame is written before
// SendFrame returns.
func (c *Client) SendFrame(payload []byte) error {
	if c.state != StateOpen {
		return ErrClosed
	}
	frame, err := encodeFrame(payload)
	if err != nil {
		return err
	}

	c.armDeadline()
	if _, err := c.conn.Write(frame); err != nil {
		return fmt.Errorf("console: send frame: %w", err)
	}
	logging.LogFrame("send", payload)
	return nil
}

// ReceiveFrame blocks for the next non-empty frame and returns its payload.
// A peer-initiated close is reported as io.EOF, the expected end of a
// console session. The local state stays Open; the caller still owns the
// Close.
func (c *Client) ReceiveFrame() ([]byte, error) {
	if c.state != StateOpen {
		return nil, ErrClosed
	}

	c.armDeadline()
	payload, err := readFrame(c.conn)
	if err != nil {
		if err == io.EOF {
			logging.LogConnection(c.conn.RemoteAddr().String(), "peer closed")
		}
		return nil, err
	}
	logging.LogFrame("receive", payload)
	return payload, nil
}

// Close shuts down the write side and releases the socket. It is idempotent;
// subsequent SendFrame/ReceiveFrame calls fail with ErrClosed.
func (c *Client) Close() error {
	if c.state == StateClosed {
		return nil
	}
	c.state = StateClosed

	if tcp, ok := c.conn.(*net.TCPConn); ok {
		// Half-close first so the proxy sees an orderly shutdown
		// before the socket goes away.
		_ = tcp.CloseWrite()
	}
	err := c.conn.Close()
	logging.LogConnection(c.conn.RemoteAddr().String(), "closed")
	if err != nil {
		return fmt.Errorf("console: close: %w", err)
	}
	return nil
}

// State reports the connection lifecycle state.
func (c *Client) State() State {
	return c.state
}

// HandshakeResponse returns the raw bytes of the HTTP upgrade response, as
// accumulated during Dial. Kept purely as a diagnostic artifact.
func (c *Client) HandshakeResponse() []byte {
	return c.response
}

// armDeadline applies the configured per-operation deadline, or clears any
// previous one when no timeout is set.
func (c *Client) armDeadline() {
	if c.timeout > 0 {
		_ = c.conn.SetDeadline(time.Now().Add(c.timeout))
	} else {
		_ = c.conn.SetDeadline(time.Time{})
	}
}
