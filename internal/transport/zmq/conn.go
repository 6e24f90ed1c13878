package zmq

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-zeromq/zmq4"
)

// Conn wraps a ZeroMQ REQ socket with an optional per-exchange timeout.
type Conn struct {
	// socket is the underlying REQ socket.
	socket zmq4.Socket
	// endpoint is the address the socket is connected to.
	endpoint string

	// callTimeout bounds a single exchange; zero waits forever.
	callTimeout time.Duration
	// dialRetry is the delay between connection attempts.
	dialRetry time.Duration
}

// Option configures connection behaviour.
type Option func(*Conn)

// WithCallTimeout bounds every exchange. A timed out connection is closed,
// since a REQ socket cannot send again before it has received.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Conn) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithDialRetry sets the delay between connection attempts.
func WithDialRetry(retry time.Duration) Option {
	return func(c *Conn) {
		if retry > 0 {
			c.dialRetry = retry
		}
	}
}

// defaultDialRetry matches the zmq4 default.
const defaultDialRetry = 250 * time.Millisecond

var (
	// errEndpointRequired is returned when Dial gets an empty endpoint.
	errEndpointRequired = errors.New("endpoint must be provided")
	// ErrClosed is returned by Exchange on a closed or timed out connection.
	ErrClosed = errors.New("connection is closed")
	// ErrEmptyReply is returned when the reply has no frames.
	ErrEmptyReply = errors.New("empty reply")
)

// Dial opens a REQ socket connected to endpoint.
// The socket lives until Close is called, independently of ctx cancellation,
// so an interrupt never tears down a pending exchange.
func Dial(ctx context.Context, endpoint string, opts ...Option) (*Conn, error) {
	if endpoint == "" {
		return nil, errEndpointRequired
	}

	conn := &Conn{
		endpoint:  endpoint,
		dialRetry: defaultDialRetry,
	}

	for _, opt := range opts {
		opt(conn)
	}

	socket := zmq4.NewReq(context.WithoutCancel(ctx), zmq4.WithDialerRetry(conn.dialRetry))
	if err := socket.Dial(endpoint); err != nil {
		_ = socket.Close()

		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}

	conn.socket = socket

	return conn, nil
}

// Endpoint returns the address the connection was dialed to.
func (c *Conn) Endpoint() string {
	return c.endpoint
}

// Close releases the socket. It is safe to call more than once.
func (c *Conn) Close() error {
	if c == nil || c.socket == nil {
		return nil
	}

	socket := c.socket
	c.socket = nil

	return socket.Close()
}

// exchangeResult carries the outcome of the blocking send/receive pair.
type exchangeResult struct {
	reply []byte
	err   error
}

// Exchange sends payload and returns the reply frame.
func (c *Conn) Exchange(ctx context.Context, payload []byte) ([]byte, error) {
	if c == nil || c.socket == nil {
		return nil, ErrClosed
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	socket := c.socket
	done := make(chan exchangeResult, 1)

	go func() {
		done <- roundTrip(socket, payload)
	}()

	select {
	case res := <-done:
		return res.reply, res.err
	case <-callCtx.Done():
		// The REQ socket is stuck waiting for a reply that may never come.
		_ = c.Close()

		return nil, fmt.Errorf("exchange with %s: %w", c.endpoint, callCtx.Err())
	}
}

// roundTrip performs one send followed by one receive.
func roundTrip(socket zmq4.Socket, payload []byte) exchangeResult {
	if err := socket.Send(zmq4.NewMsg(payload)); err != nil {
		return exchangeResult{err: fmt.Errorf("send request: %w", err)}
	}

	msg, err := socket.Recv()
	if err != nil {
		return exchangeResult{err: fmt.Errorf("receive reply: %w", err)}
	}

	if len(msg.Frames) == 0 {
		return exchangeResult{err: ErrEmptyReply}
	}

	return exchangeResult{reply: msg.Frames[0]}
}

// callContext returns a context with the connection's call timeout if
// configured, otherwise a cancellable child context without a deadline.
func (c *Conn) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
