package transport

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"go.uber.org/zap"
)

// Dialer opens the byte stream a connection runs over. The returned conn
// must report io.EOF from Read once the node has closed its side.
type Dialer interface {
	Dial(ctx context.Context) (net.Conn, error)
}

// DialerFunc adapts a function to a Dialer.
type DialerFunc func(ctx context.Context) (net.Conn, error)

func (f DialerFunc) Dial(ctx context.Context) (net.Conn, error) {
	return f(ctx)
}

type TCP struct {
	host   string
	port   int
	addr   string
	dialer net.Dialer
	trace  bool
	log    *zap.Logger
}

func NewTCP(options Options) *TCP {
	options = options.withDefaults()

	return &TCP{
		host: options.Host,
		port: options.Port,
		addr: net.JoinHostPort(options.Host, strconv.Itoa(options.Port)),
		dialer: net.Dialer{
			Timeout:   options.DialTimeout,
			KeepAlive: options.KeepAlive,
		},
		trace: options.Trace,
		log:   options.Log.Named("tcp"),
	}
}

func (t *TCP) Addr() string {
	return t.addr
}

func (t *TCP) Host() string {
	return t.host
}

func (t *TCP) Port() int {
	return t.port
}

func (t *TCP) Dial(ctx context.Context) (net.Conn, error) {
	t.log.Debug("Dialing node", zap.String("addr", t.addr))

	conn, err := t.dialer.DialContext(ctx, "tcp", t.addr)
	if err != nil {
		return nil, fmt.Errorf("Failed to connect to %s: %w", t.addr, err)
	}

	if t.trace {
		return &traceConn{Conn: conn, log: t.log.Named("trace")}, nil
	}

	return conn, nil
}

type traceConn struct {
	net.Conn
	log *zap.Logger
}

func (c *traceConn) Read(p []byte) (int, error) {
	n, err := c.Conn.Read(p)
	if n > 0 {
		c.log.Debug("read", zap.ByteString("data", p[:n]))
	}

	return n, err
}

func (c *traceConn) Write(p []byte) (int, error) {
	n, err := c.Conn.Write(p)
	if n > 0 {
		c.log.Debug("write", zap.ByteString("data", p[:n]))
	}

	return n, err
}
