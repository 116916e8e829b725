package instance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"q7z/internal/extract"
	"q7z/internal/ipc"
	"q7z/internal/logging"
)

// ErrNothingToDo reports a bare startup while a Primary is already running.
var ErrNothingToDo = errors.New("an instance is already running and no request was given")

const (
	defaultConnectTimeout = 500 * time.Millisecond
	defaultWriteTimeout   = 5 * time.Second
	defaultClaimAttempts  = 3
	defaultClaimBackoff   = 50 * time.Millisecond
)

// Role is the outcome of startup coordination.
type Role int

const (
	// RolePrimary owns the endpoint and runs extractions.
	RolePrimary Role = iota + 1
	// RoleForwarded handed its request to the Primary.
	RoleForwarded
)

func (r Role) String() string {
	switch r {
	case RolePrimary:
		return "primary"
	case RoleForwarded:
		return "forwarded"
	default:
		return "unknown"
	}
}

// Outcome is the result of Decide. Listener is set only for RolePrimary and
// is already bound, so connections made after Decide returns are queued.
type Outcome struct {
	Role     Role
	Request  *extract.Request
	Listener net.Listener
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithConnectTimeout bounds the dial that looks for a Primary.
func WithConnectTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.connectTimeout = d
		}
	}
}

// WithWriteTimeout bounds the forward write to a Primary that stopped reading.
func WithWriteTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.writeTimeout = d
		}
	}
}

// WithClaimAttempts bounds the dial/claim loop.
func WithClaimAttempts(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.attempts = n
		}
	}
}

// WithClaimBackoff sets the pause after losing a claim race.
func WithClaimBackoff(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.backoff = d
		}
	}
}

// Coordinator implements claim-or-connect for one endpoint.
type Coordinator struct {
	endpoint       Endpoint
	connectTimeout time.Duration
	writeTimeout   time.Duration
	attempts       int
	backoff        time.Duration
	logger         *slog.Logger
}

// NewCoordinator returns a coordinator for ep.
func NewCoordinator(ep Endpoint, logger *slog.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		endpoint:       ep,
		connectTimeout: defaultConnectTimeout,
		writeTimeout:   defaultWriteTimeout,
		attempts:       defaultClaimAttempts,
		backoff:        defaultClaimBackoff,
		logger:         logging.NewComponentLogger(logger, "instance"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the endpoint being coordinated.
func (c *Coordinator) Endpoint() Endpoint {
	return c.endpoint
}

// Decide connects to a running Primary or claims the endpoint. A nil or zero
// req means the process was launched bare: with a Primary running that yields
// ErrNothingToDo and nothing is written.
func (c *Coordinator) Decide(ctx context.Context, req *extract.Request) (Outcome, error) {
	if req != nil && req.IsZero() {
		req = nil
	}
	for attempt := 1; attempt <= c.attempts; attempt++ {
		conn, dialErr := c.dial(ctx)
		if dialErr == nil {
			return c.forward(conn, req)
		}
		c.logger.Debug("no primary reachable",
			logging.String("endpoint", c.endpoint.String()),
			logging.Int("attempt", attempt),
			logging.Error(dialErr),
		)

		ln, err := Claim(c.endpoint)
		if err == nil {
			c.logger.Debug("endpoint claimed", logging.String("endpoint", c.endpoint.String()))
			return Outcome{Role: RolePrimary, Request: req, Listener: ln}, nil
		}
		if !errors.Is(err, ErrEndpointBusy) {
			return Outcome{}, err
		}
		c.logger.Debug("claim race lost; retrying dial", logging.Int("attempt", attempt))
		if err := sleepContext(ctx, c.backoff*time.Duration(attempt)); err != nil {
			return Outcome{}, err
		}
	}
	return Outcome{}, fmt.Errorf("%w: gave up after %d attempts", ErrEndpointBusy, c.attempts)
}

func (c *Coordinator) dial(ctx context.Context) (net.Conn, error) {
	dialer := net.Dialer{Timeout: c.connectTimeout}
	return dialer.DialContext(ctx, c.endpoint.Network, c.endpoint.Address)
}

func (c *Coordinator) forward(conn net.Conn, req *extract.Request) (Outcome, error) {
	defer conn.Close()
	if req == nil {
		c.logger.Info("primary already running; nothing to forward",
			logging.String(logging.FieldEventType, "bare_startup"),
		)
		return Outcome{}, ErrNothingToDo
	}
	if err := ipc.Forward(conn, *req, c.writeTimeout); err != nil {
		return Outcome{}, fmt.Errorf("forward request to primary: %w", err)
	}
	c.logger.Info("request forwarded to primary",
		logging.String(logging.FieldEventType, "request_forwarded"),
		logging.String("input", req.Input),
	)
	return Outcome{Role: RoleForwarded, Request: req}, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
