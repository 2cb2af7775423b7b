package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/luma/fcp/event"
	"github.com/luma/fcp/metrics"
	"github.com/luma/fcp/protocol"
	"github.com/luma/fcp/transport"
)

type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	}

	return fmt.Sprintf("State(%d)", int32(s))
}

type ConnOptions struct {
	Dialer transport.Dialer

	// Registry used to type incoming messages. Defaults to event.Default
	Registry *event.Registry

	// Defaults to metrics.Default()
	Metrics *metrics.Metrics

	Log *zap.Logger
}

// Conn is a single connection to a node. It reads frames continuously and
// dispatches them as events; it is never reconnected once closed.
type Conn struct {
	*Dispatcher

	dialer   transport.Dialer
	registry *event.Registry
	metrics  *metrics.Metrics

	state int32

	mu   sync.Mutex
	conn net.Conn

	writeMu sync.Mutex

	// cause records why the connection is being torn down, before the
	// transport is closed. The first cause wins.
	causeOnce sync.Once
	cause     error
	local     int32

	done chan struct{}
	err  error

	log *zap.Logger
}

func NewConn(options ConnOptions) *Conn {
	log := options.Log
	if log == nil {
		log = zap.NewNop()
	}

	registry := options.Registry
	if registry == nil {
		registry = event.Default
	}

	m := options.Metrics
	if m == nil {
		m = metrics.Default()
	}

	return &Conn{
		Dispatcher: NewDispatcher(m, log.Named("dispatcher")),
		dialer:     options.Dialer,
		registry:   registry,
		metrics:    m,
		done:       make(chan struct{}),
		log:        log.Named("conn"),
	}
}

func (c *Conn) State() State {
	return State(atomic.LoadInt32(&c.state))
}

func (c *Conn) IsClosed() bool {
	return c.State() == StateClosed
}

// Done is closed once the read loop has exited and ConnectionClosed has been
// delivered. A connection that was never opened has no read loop, Done is
// closed when Close is called.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Err returns the reason the connection closed, once Done is closed. It is
// nil for clean and local closes.
func (c *Conn) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

// Connect dials the node and starts the read loop.
func (c *Conn) Connect(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&c.state, int32(StateDisconnected), int32(StateConnecting)) {
		if c.IsClosed() {
			return &ConnectionClosedError{}
		}

		return ErrAlreadyConnected
	}

	conn, err := c.dialer.Dial(ctx)
	if err != nil {
		atomic.CompareAndSwapInt32(&c.state, int32(StateConnecting), int32(StateDisconnected))
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	if !atomic.CompareAndSwapInt32(&c.state, int32(StateConnecting), int32(StateOpen)) {
		// Closed while dialing
		conn.Close()
		return &ConnectionClosedError{}
	}

	c.metrics.RecordConnect()
	c.log.Info("Connected to node", zap.String("remote", conn.RemoteAddr().String()))

	go c.readLoop(conn)

	return nil
}

// Send writes msg as one frame. Concurrent sends never interleave. A failed
// write tears the connection down like a failed read.
func (c *Conn) Send(msg *protocol.Message) error {
	switch c.State() {
	case StateOpen:
	case StateClosed:
		return &ConnectionClosedError{Cause: c.Err()}
	default:
		return ErrNotConnected
	}

	data := protocol.Encode(msg)

	c.writeMu.Lock()
	_, err := c.conn.Write(data)
	c.writeMu.Unlock()

	if err != nil {
		c.log.Warn("Failed to send message",
			zap.String("name", msg.Name()),
			zap.Error(err))

		c.teardown(err)
		return &ConnectionClosedError{Cause: err}
	}

	c.metrics.RecordFrameSent(msg.Name(), len(data))
	return nil
}

// Close closes the connection. It is safe to call more than once, from any
// goroutine, including event handlers. It does not wait for the read loop.
func (c *Conn) Close() error {
	for {
		state := c.State()

		switch state {
		case StateClosed:
			return nil

		case StateOpen:
			atomic.StoreInt32(&c.local, 1)
			c.teardown(nil)
			return nil

		default:
			if atomic.CompareAndSwapInt32(&c.state, int32(state), int32(StateClosed)) {
				// There is no read loop to finish the close
				c.err = nil
				close(c.done)
				return nil
			}
		}
	}
}

// teardown records cause and closes the transport, which stops the read
// loop.
func (c *Conn) teardown(cause error) {
	c.causeOnce.Do(func() {
		c.cause = cause

		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()

		if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			c.log.Warn("Failed to close connection cleanly", zap.Error(err))
		}
	})
}

func (c *Conn) readLoop(conn net.Conn) {
	log := c.log.Named("readLoop")
	r := bufio.NewReader(conn)

	var (
		readErr   error
		duplicate bool
	)

	for {
		msg, err := protocol.ReadMessage(r)
		if err != nil {
			readErr = err
			break
		}

		payload := len(msg.Payload)
		c.metrics.RecordFrameReceived(msg.Name(), payload)

		if msg.Name() == protocol.CloseConnectionDuplicateClientName {
			duplicate = true
		}

		c.Dispatch(c.registry.Construct(msg))
	}

	// Wins over readErr when the close was ours
	c.teardown(readErr)

	cause, reason := c.closeCause(readErr, duplicate)
	if cause != nil {
		log.Warn("Connection closed", zap.Error(cause))
	} else {
		log.Info("Connection closed")
	}

	atomic.StoreInt32(&c.state, int32(StateClosed))
	c.metrics.RecordClose(reason)

	c.err = cause
	c.Dispatch(event.ConnectionClosed{Err: cause})
	close(c.done)
}

func (c *Conn) closeCause(readErr error, duplicate bool) (error, string) {
	switch {
	case duplicate:
		return ErrDuplicateClientName, metrics.ReasonDuplicate

	case c.cause == nil && atomic.LoadInt32(&c.local) == 1:
		return nil, metrics.ReasonLocal

	case c.cause != nil && c.cause != readErr:
		// A failed Send closed the transport
		return c.cause, metrics.ReasonError

	case errors.Is(readErr, io.EOF):
		return nil, metrics.ReasonEOF
	}

	return readErr, metrics.ReasonError
}
