// Package fcptest runs a scripted FCP node on loopback for tests.
package fcptest

import (
	"bufio"
	"errors"
	"io"
	"net"
	"strconv"
	"sync"

	reuseport "github.com/kavu/go_reuseport"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/luma/fcp/protocol"
	"github.com/luma/fcp/transport"
)

const receivedBufferSize = 255

// Handler answers one client message. It runs on the session's read loop, so
// everything it sends is written in order, before the next message is read.
type Handler func(s *Session, msg *protocol.Message)

type Server struct {
	listener net.Listener
	host     string
	port     int

	mu       sync.Mutex
	handlers map[string]Handler
	sessions map[*Session]struct{}
	closed   bool

	received   chan *protocol.Message
	connected  chan *Session
	loopWaiter sync.WaitGroup

	log *zap.Logger
}

// NewServer starts listening on an ephemeral loopback port. ClientHello is
// answered with a NodeHello until another handler is registered for it.
func NewServer(log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}

	listener, err := reuseport.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}

	addr := listener.Addr().(*net.TCPAddr)

	s := &Server{
		listener:  listener,
		host:      addr.IP.String(),
		port:      addr.Port,
		handlers:  make(map[string]Handler),
		sessions:  make(map[*Session]struct{}),
		received:  make(chan *protocol.Message, receivedBufferSize),
		connected: make(chan *Session, 16),
		log:       log.Named("fcptest"),
	}

	s.Handle(protocol.ClientHello, func(sess *Session, _ *protocol.Message) {
		sess.Send(NodeHello())
	})

	s.loopWaiter.Add(1)
	go func() {
		defer s.loopWaiter.Done()
		s.acceptLoop()
	}()

	return s, nil
}

func (s *Server) Addr() string {
	return net.JoinHostPort(s.host, strconv.Itoa(s.port))
}

// Dialer returns a dialer that connects to this server.
func (s *Server) Dialer() *transport.TCP {
	return transport.NewTCP(transport.Options{
		Host: s.host,
		Port: s.port,
		Log:  s.log,
	})
}

// Handle replaces the handler for messages called name.
func (s *Server) Handle(name string, handler Handler) {
	s.mu.Lock()
	s.handlers[name] = handler
	s.mu.Unlock()
}

// Received yields every message read from any client, in arrival order.
func (s *Server) Received() <-chan *protocol.Message {
	return s.received
}

// Connected yields each session as it is accepted.
func (s *Server) Connected() <-chan *Session {
	return s.connected
}

// Broadcast sends msg to every connected session.
func (s *Server) Broadcast(msg *protocol.Message) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for sess := range s.sessions {
		err = multierr.Append(err, sess.Send(msg))
	}

	return err
}

// Close stops accepting, closes every session and waits for their loops to
// exit.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}

	s.closed = true
	err := s.listener.Close()

	for sess := range s.sessions {
		err = multierr.Append(err, sess.Close())
	}
	s.mu.Unlock()

	s.loopWaiter.Wait()
	return err
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				s.log.Warn("Failed to accept", zap.Error(err))
			}

			return
		}

		sess := newSession(s, conn)
		if !s.addSession(sess) {
			conn.Close()
			return
		}

		select {
		case s.connected <- sess:
		default:
		}

		sess.start()
	}
}

func (s *Server) addSession(sess *Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}

	s.sessions[sess] = struct{}{}
	return true
}

func (s *Server) removeSession(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sess)
}

func (s *Server) handler(name string) Handler {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.handlers[name]
}

// Session is one accepted client connection.
type Session struct {
	server *Server
	conn   net.Conn

	mu         sync.Mutex
	closed     bool
	writeQueue chan []byte

	log *zap.Logger
}

func newSession(server *Server, conn net.Conn) *Session {
	return &Session{
		server:     server,
		conn:       conn,
		writeQueue: make(chan []byte, 127),
		log:        server.log.Named("session").With(zap.String("remote", conn.RemoteAddr().String())),
	}
}

func (s *Session) start() {
	s.server.loopWaiter.Add(2)

	go func() {
		defer s.server.loopWaiter.Done()
		s.readLoop()
	}()

	go func() {
		defer s.server.loopWaiter.Done()
		s.writeLoop()
	}()
}

// Send queues msg for writing. Sending on a closed session is a no-op.
func (s *Session) Send(msg *protocol.Message) error {
	return s.SendRaw(protocol.Encode(msg))
}

// SendRaw queues data for writing unframed, for feeding malformed input.
func (s *Session) SendRaw(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.writeQueue <- data
	return nil
}

// Close flushes queued writes and then closes the connection.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.writeQueue)
	}

	return nil
}

// Drop closes the connection immediately, discarding queued writes.
func (s *Session) Drop() error {
	return s.conn.Close()
}

func (s *Session) readLoop() {
	log := s.log.Named("readLoop")

	defer func() {
		s.server.removeSession(s)
		s.Close()
	}()

	r := bufio.NewReader(s.conn)

	for {
		msg, err := protocol.ReadMessage(r)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				log.Debug("Read loop exiting", zap.Error(err))
			}

			return
		}

		select {
		case s.server.received <- msg:
		default:
			log.Warn("Received buffer full, dropping", zap.String("name", msg.Name()))
		}

		if handler := s.server.handler(msg.Name()); handler != nil {
			handler(s, msg)
		}
	}
}

func (s *Session) writeLoop() {
	log := s.log.Named("writeLoop")

	defer func() {
		if err := s.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			log.Warn("Failed to close connection cleanly", zap.Error(err))
		}
	}()

	failed := false

	// Keep draining after a failed write so Send never blocks
	for data := range s.writeQueue {
		if failed {
			continue
		}

		if _, err := s.conn.Write(data); err != nil {
			log.Debug("Failed to write", zap.Error(err))
			failed = true
		}
	}
}
