package ipc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/1broseidon/palettekit/internal/protocol"
)

// maxLineBytes bounds a single request line.
const maxLineBytes = 1 << 20

// Executor runs commands against the engine. engine.Runner satisfies it.
type Executor interface {
	Execute(ctx context.Context, cmd protocol.Command) protocol.Result
}

// ServerOptions configure NewServer.
type ServerOptions struct {
	SocketPath string
	Executor   Executor
	Bus        *Bus
	// Reload handles reload requests. Nil rejects them.
	Reload func(ctx context.Context) error
	// EventBuffer sizes each subscriber's queue.
	EventBuffer int
	Logger      zerolog.Logger
}

// Server accepts JSON-line connections on a unix socket. Each connection may
// send any number of requests; a subscribe request additionally streams
// events on the same connection until it closes.
type Server struct {
	opts     ServerOptions
	log      zerolog.Logger
	listener net.Listener

	mu           sync.Mutex
	conns        map[net.Conn]struct{}
	shuttingDown bool
	wg           sync.WaitGroup
}

// NewServer creates a server. Call Listen, then Serve, or just Run.
func NewServer(opts ServerOptions) *Server {
	if opts.Bus == nil {
		opts.Bus = NewBus()
	}
	return &Server{
		opts:  opts,
		log:   opts.Logger.With().Str("component", "ipc").Logger(),
		conns: make(map[net.Conn]struct{}),
	}
}

// Bus returns the event bus the server streams from.
func (s *Server) Bus() *Bus { return s.opts.Bus }

// Listen binds the socket. A stale socket file is replaced; a live one means
// another daemon owns it.
func (s *Server) Listen() error {
	path := s.opts.SocketPath
	if path == "" {
		return fmt.Errorf("socket path is empty")
	}
	if conn, err := net.DialTimeout("unix", path, 200*time.Millisecond); err == nil {
		conn.Close()
		return fmt.Errorf("another daemon is listening on %s", path)
	}
	os.Remove(path)

	listener, err := net.Listen("unix", path)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	if err := os.Chmod(path, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}
	s.listener = listener
	s.log.Info().Str("socket", path).Msg("IPC server listening")
	return nil
}

// Run listens and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	return s.Serve(ctx)
}

// Serve accepts connections on a bound listener until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-stop:
		}
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.stopping() {
				s.wg.Wait()
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			s.log.Warn().Err(err).Msg("IPC accept error")
			continue
		}
		if !s.track(conn) {
			conn.Close()
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(conn)
			s.handleConnection(ctx, conn)
		}()
	}
}

func (s *Server) stopping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shuttingDown
}

func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shuttingDown {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	conn.Close()
}

// Stop closes the listener and every open connection and removes the socket.
func (s *Server) Stop() {
	s.mu.Lock()
	if s.shuttingDown {
		s.mu.Unlock()
		return
	}
	s.shuttingDown = true
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.opts.SocketPath)
}

// conn wraps a client connection with a write lock shared by the request
// handler and the event stream.
type conn struct {
	net.Conn
	mu sync.Mutex
}

func (c *conn) send(resp *Response) error {
	data, err := resp.Marshal()
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err = c.Write(data)
	return err
}

func (s *Server) handleConnection(ctx context.Context, nc net.Conn) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c := &conn{Conn: nc}
	reader := bufio.NewReaderSize(nc, 64*1024)
	var sub *Subscription
	defer func() {
		if sub != nil {
			s.opts.Bus.Unsubscribe(sub)
		}
	}()

	for {
		line, err := readLine(reader)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				s.log.Debug().Err(err).Msg("IPC read error")
			}
			return
		}
		if len(line) == 0 {
			continue
		}

		req, err := ParseRequest(line)
		if err != nil {
			if err := c.send(&Response{Error: fmt.Sprintf("Invalid request: %v", err)}); err != nil {
				return
			}
			continue
		}
		if req.ID == "" {
			req.ID = uuid.NewString()
		}

		switch req.Type {
		case RequestCommand:
			cmd := *req.Command
			if cmd.ID == "" {
				cmd.ID = req.ID
			}
			res := s.opts.Executor.Execute(ctx, cmd)
			err = c.send(&Response{ID: req.ID, Result: &res})
		case RequestSubscribe:
			if sub != nil {
				err = c.send(&Response{ID: req.ID, Error: "already subscribed"})
				break
			}
			sub = s.opts.Bus.Subscribe(s.opts.EventBuffer, req.Filter)
			if err = c.send(&Response{ID: req.ID, Subscribed: sub.ID}); err != nil {
				break
			}
			s.log.Debug().Str("subscriber", sub.ID).Msg("IPC subscriber attached")
			go s.stream(c, sub)
		case RequestReload:
			err = s.handleReload(ctx, c, req.ID)
		}
		if err != nil {
			s.log.Debug().Err(err).Msg("IPC write failed")
			return
		}
	}
}

// stream forwards events until the subscription closes or a write fails.
func (s *Server) stream(c *conn, sub *Subscription) {
	for e := range sub.Events() {
		e := e
		if err := c.send(&Response{Event: &e}); err != nil {
			c.Close()
			return
		}
	}
	if n := sub.Dropped(); n > 0 {
		s.log.Warn().Str("subscriber", sub.ID).Uint64("dropped", n).Msg("slow subscriber lost events")
	}
}

func (s *Server) handleReload(ctx context.Context, c *conn, id string) error {
	s.log.Info().Msg("IPC: received reload request")
	if s.opts.Reload == nil {
		return c.send(&Response{ID: id, Error: "reload not supported"})
	}
	if err := s.opts.Reload(ctx); err != nil {
		return c.send(&Response{ID: id, Error: fmt.Sprintf("Failed to reload config: %v", err)})
	}
	res := protocol.OK(nil)
	return c.send(&Response{ID: id, Result: &res})
}

func readLine(r *bufio.Reader) ([]byte, error) {
	var line []byte
	for {
		chunk, isPrefix, err := r.ReadLine()
		if err != nil {
			return nil, err
		}
		line = append(line, chunk...)
		if len(line) > maxLineBytes {
			return nil, fmt.Errorf("request line exceeds %d bytes", maxLineBytes)
		}
		if !isPrefix {
			return line, nil
		}
	}
}
