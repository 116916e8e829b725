package ipc

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"q7z/internal/extract"
	"q7z/internal/logging"
)

const defaultReadTimeout = 5 * time.Second

// Handler receives each well-formed request accepted by the server.
type Handler func(ctx context.Context, req extract.Request)

// Option configures a Server.
type Option func(*Server)

// WithReadTimeout bounds how long a connection may take to deliver its frame.
func WithReadTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.readTimeout = d
		}
	}
}

// Server accepts connections on a claimed endpoint and decodes one request
// per connection.
type Server struct {
	ln          net.Listener
	handler     Handler
	logger      *slog.Logger
	readTimeout time.Duration

	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewServer wraps an already bound listener.
func NewServer(ln net.Listener, handler Handler, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		ln:          ln,
		handler:     handler,
		logger:      logging.NewComponentLogger(logger, "ipc"),
		readTimeout: defaultReadTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Addr returns the listener address.
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

// Serve runs the accept loop until ctx is cancelled or the listener is
// closed. Per-connection failures never end the loop.
func (s *Server) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { _ = s.Close() })
	defer stop()

	var backoff time.Duration
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				s.wg.Wait()
				return nil
			}
			backoff = nextBackoff(backoff)
			logging.WarnWithContext(s.logger, "ipc accept failed; retrying", "ipc_accept_failed",
				logging.Error(err),
				logging.Duration("retry_in", backoff),
				logging.String(logging.FieldErrorHint, "check endpoint permissions and file descriptor limits"),
				logging.String(logging.FieldImpact, "forwarded requests are delayed"),
			)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
			}
			continue
		}
		backoff = 0
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(ctx, conn)
		}()
	}
}

// Close stops accepting connections.
func (s *Server) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.ln.Close()
	})
	return err
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	if s.readTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(s.readTimeout))
	}
	frame, err := readFrame(conn)
	if err != nil {
		s.logger.Debug("ipc message discarded",
			logging.String(logging.FieldEventType, "ipc_message_discarded"),
			logging.Error(err),
		)
		return
	}
	req, err := Decode(frame)
	if err != nil {
		s.logger.Debug("ipc message discarded",
			logging.String(logging.FieldEventType, "ipc_message_discarded"),
			logging.Int("bytes", len(frame)),
			logging.Error(err),
		)
		return
	}
	s.logger.Info("request received",
		logging.String(logging.FieldEventType, "ipc_request_received"),
		logging.String("input", req.Input),
		logging.String("output", req.Output),
		logging.String("filter", req.Filter),
	)
	if s.handler != nil {
		s.handler(ctx, req)
	}
}

func readFrame(r io.Reader) ([]byte, error) {
	reader := bufio.NewReader(io.LimitReader(r, MaxMessageSize+1))
	frame, err := reader.ReadBytes(frameTerminator)
	if len(frame) > MaxMessageSize {
		return nil, ErrMessageTooLarge
	}
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrMalformedMessage
		}
		return nil, err
	}
	return frame, nil
}

func nextBackoff(current time.Duration) time.Duration {
	if current == 0 {
		return 5 * time.Millisecond
	}
	current *= 2
	if current > time.Second {
		return time.Second
	}
	return current
}
