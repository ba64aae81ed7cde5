package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os/exec"
	"sync"
	"time"

	"github.com/aretw0/neoform/internal/logging"
)

const (
	// DefaultHandshakeTimeout bounds the wait for the port announcement and
	// the loopback dial.
	DefaultHandshakeTimeout = 10 * time.Second
	// DefaultShutdownTimeout is how long Close waits for the worker to exit
	// after the shutdown sentinel before killing it.
	DefaultShutdownTimeout = 5 * time.Second
)

// Hooks observe the request lifecycle and must not block. OnSubmit runs
// under the write lock just before the request is written; OnComplete runs
// outside the client's locks, once for every request OnSubmit saw.
type Hooks struct {
	OnSubmit   func(id int32, args []string)
	OnComplete func(id int32, err error, elapsed time.Duration)
}

// Client owns one worker process and the socket connected to it.
// Submit may be called from any number of goroutines.
type Client struct {
	logger           *slog.Logger
	hooks            Hooks
	handshakeTimeout time.Duration
	shutdownTimeout  time.Duration

	conn net.Conn
	proc *process

	mu       sync.Mutex
	nextID   int32
	pending  map[int32]*Handle
	closed   bool
	fatalErr error

	// writeMu keeps request records whole on the socket.
	writeMu sync.Mutex

	listenerDone chan struct{}
	closeOnce    sync.Once
	closeErr     error
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger for session events and worker output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHooks installs lifecycle callbacks.
func WithHooks(h Hooks) Option {
	return func(c *Client) {
		c.hooks = h
	}
}

// WithHandshakeTimeout overrides DefaultHandshakeTimeout.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.handshakeTimeout = d
		}
	}
}

// WithShutdownTimeout overrides DefaultShutdownTimeout.
func WithShutdownTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.shutdownTimeout = d
		}
	}
}

func configure(opts []Option) *Client {
	c := &Client{
		logger:           logging.NewNop(),
		handshakeTimeout: DefaultHandshakeTimeout,
		shutdownTimeout:  DefaultShutdownTimeout,
		pending:          make(map[int32]*Handle),
		listenerDone:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// newClient starts a session over an established connection. proc may be
// nil when there is no process to supervise.
func newClient(conn net.Conn, proc *process, opts ...Option) *Client {
	c := configure(opts)
	c.attach(conn, proc)
	return c
}

func (c *Client) attach(conn net.Conn, proc *process) {
	c.conn = conn
	c.proc = proc
	go c.listen()
}

// Start launches cmd, waits for the worker to print its port on the first
// line of stdout and connects to it on the loopback interface. cmd must not
// have Stdout or Stderr set; both streams are forwarded to the logger.
// ctx bounds the handshake only.
func Start(ctx context.Context, cmd *exec.Cmd, opts ...Option) (*Client, error) {
	c := configure(opts)

	proc, port, err := launch(ctx, cmd, c.logger, c.handshakeTimeout)
	if err != nil {
		return nil, err
	}

	dctx, cancel := context.WithTimeout(ctx, c.handshakeTimeout)
	defer cancel()
	var d net.Dialer
	conn, err := d.DialContext(dctx, "tcp", net.JoinHostPort("127.0.0.1", port))
	if err != nil {
		proc.kill()
		return nil, fmt.Errorf("%w: dial worker on port %s: %w", ErrProcessLaunch, port, err)
	}

	c.logger.Info("daemon started", "pid", cmd.Process.Pid, "port", port)
	c.attach(conn, proc)
	return c, nil
}

// Submit sends args to the worker under a fresh request id and returns the
// handle that will carry the outcome. It fails with ErrListenerClosed once
// the session is shutting down or has failed.
func (c *Client) Submit(args []string) (*Handle, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrListenerClosed
	}
	c.nextID++
	h := newHandle(c.nextID, args)
	c.pending[h.id] = h
	c.mu.Unlock()

	// Close writes the shutdown sentinel under writeMu after marking the
	// session closed, so no request may follow it on the wire. A request
	// dropped here was never sent and is invisible to the hooks.
	c.writeMu.Lock()
	if c.isClosed() {
		c.writeMu.Unlock()
		return nil, ErrListenerClosed
	}
	h.sent.Store(true)
	if c.hooks.OnSubmit != nil {
		c.hooks.OnSubmit(h.id, args)
	}
	err := WriteRequest(c.conn, h.id, args)
	c.writeMu.Unlock()
	if err != nil {
		err = fmt.Errorf("write request %d: %w", h.id, err)
		c.fatal(err)
		return nil, err
	}

	c.logger.Debug("request submitted", "id", h.id, "args", len(args))
	return h, nil
}

// Run submits args and waits for the outcome.
func (c *Client) Run(ctx context.Context, args []string) error {
	h, err := c.Submit(args)
	if err != nil {
		return err
	}
	return h.Wait(ctx)
}

// Pending returns the number of requests awaiting completion.
func (c *Client) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Done is closed when the session's listener has stopped, either after
// Close or after a fatal transport error.
func (c *Client) Done() <-chan struct{} { return c.listenerDone }

// Err returns the fatal error that ended the session, if any.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fatalErr
}

// listen reads completions until the session ends. End of stream while
// the session is still open is not treated as a clean stop: the worker
// went away with requests possibly in flight, so the session fails with
// ErrProtocol and every pending handle is released with that error.
// After Close, read errors simply end the loop.
func (c *Client) listen() {
	defer close(c.listenerDone)
	for {
		id, ok, err := ReadCompletion(c.conn)
		if err != nil {
			if c.isClosed() {
				return
			}
			if errors.Is(err, io.EOF) {
				err = fmt.Errorf("%w: worker closed the connection", ErrProtocol)
			}
			c.fatal(err)
			return
		}

		var outcome error
		if !ok {
			outcome = &RemoteTaskError{ID: id}
		}
		c.complete(id, outcome)
	}
}

func (c *Client) complete(id int32, outcome error) {
	c.mu.Lock()
	h, ok := c.pending[id]
	delete(c.pending, id)
	c.mu.Unlock()

	if !ok {
		c.logger.Warn("completion for unknown request", "id", id)
		return
	}
	c.resolve(h, outcome)
}

// resolve is called once per handle, by whichever path removed it from
// the pending table. The hook runs before waiters are released and only
// for requests that reached the wire.
func (c *Client) resolve(h *Handle, outcome error) {
	if c.hooks.OnComplete != nil && h.sent.Load() {
		c.hooks.OnComplete(h.id, outcome, time.Since(h.started))
	}
	h.resolve(outcome)
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// shutdown marks the session closed and fails every pending handle with
// err. It reports false when the session was already closed.
func (c *Client) shutdown(err error, fatal bool) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	c.closed = true
	if fatal {
		c.fatalErr = err
	}
	pending := c.pending
	c.pending = make(map[int32]*Handle)
	c.mu.Unlock()

	for _, h := range pending {
		c.resolve(h, err)
	}
	return true
}

// fatal ends the session after a transport failure and kills the worker.
func (c *Client) fatal(err error) {
	if !c.shutdown(err, true) {
		return
	}
	c.logger.Error("daemon session failed", "err", err)
	if c.proc != nil {
		c.proc.kill()
	}
}

// Close shuts the session down: pending requests fail with ErrShuttingDown,
// the listener is stopped, the worker is told to exit and is killed if it
// does not within the shutdown timeout. Every step is attempted and their
// errors are joined. Close is idempotent.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.close()
	})
	return c.closeErr
}

func (c *Client) close() error {
	var errs []error
	graceful := c.shutdown(ErrShuttingDown, false)

	if err := closeRead(c.conn); err != nil {
		errs = append(errs, fmt.Errorf("close read half: %w", err))
	}
	<-c.listenerDone

	if graceful {
		c.writeMu.Lock()
		err := WriteShutdown(c.conn)
		c.writeMu.Unlock()
		if err != nil {
			errs = append(errs, fmt.Errorf("write shutdown: %w", err))
		}
	}
	if err := c.conn.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close connection: %w", err))
	}
	if c.proc != nil {
		if err := c.proc.stop(c.shutdownTimeout, c.logger); err != nil {
			errs = append(errs, err)
		}
	}

	c.logger.Info("daemon stopped", "graceful", graceful)
	return errors.Join(errs...)
}

func closeRead(conn net.Conn) error {
	if cr, ok := conn.(interface{ CloseRead() error }); ok {
		return cr.CloseRead()
	}
	return conn.SetReadDeadline(time.Now())
}
