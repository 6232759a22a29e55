// Package connection manages the single framed session to the AVR: dialing,
// the reader goroutine, outbound pacing, reconnection with backoff, and the
// responder that correlates inbound frames with pending requests.
package connection

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/crowbarz/pioneeravr-go/avrerr"
	"github.com/crowbarz/pioneeravr-go/param"
)

// State is the connection lifecycle state.
type State int

const (
	Disconnected State = iota
	Connecting
	Starting
	Ready
	Disconnecting
	Reconnecting
	Shutdown
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Starting:
		return "starting"
	case Ready:
		return "ready"
	case Disconnecting:
		return "disconnecting"
	case Reconnecting:
		return "reconnecting"
	case Shutdown:
		return "shutdown"
	}
	return "unknown"
}

const maxReconnectDelay = 64 * time.Second

// Connection owns the transport session and its reader and reconnect
// supervisor goroutines. All methods are safe for concurrent use.
type Connection struct {
	transport Transport
	params    *param.Params
	log       *slog.Logger

	// OnFrame receives every non-empty inbound frame from the reader
	// goroutine. OnUp fires after a supervisor reconnect establishes a new
	// session; OnDown fires when the session is lost. Set before Connect.
	OnFrame func(frame string)
	OnUp    func()
	OnDown  func(err error)

	limiter         *rate.Limiter
	timeoutOverride atomic.Int64 // nanoseconds, 0 = use params
	lastInbound     atomic.Int64 // unix nanoseconds

	mu         sync.Mutex
	state      State
	conn       io.ReadWriteCloser
	reconnect  bool
	shutdown   bool
	readerDone chan struct{}
	superStop  chan struct{}
	superDone  chan struct{}
}

// New creates a connection for the given transport. The command pacing rate
// follows the command_delay parameter.
func New(transport Transport, params *param.Params, log *slog.Logger) *Connection {
	if log == nil {
		log = slog.Default()
	}
	c := &Connection{
		transport: transport,
		params:    params,
		log:       log,
		limiter:   rate.NewLimiter(delayToRate(params.Float(param.CommandDelay)), 1),
	}
	params.OnChange(func(changed []param.Key) {
		for _, k := range changed {
			if k == param.CommandDelay {
				c.limiter.SetLimit(delayToRate(params.Float(param.CommandDelay)))
			}
		}
	})
	return c
}

func delayToRate(delaySec float64) rate.Limit {
	if delaySec <= 0 {
		return rate.Inf
	}
	return rate.Every(time.Duration(delaySec * float64(time.Second)))
}

// State returns the current lifecycle state.
func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Available reports whether the session is ready for commands.
func (c *Connection) Available() bool { return c.State() == Ready }

// LastInbound returns the time of the most recent inbound activity,
// including empty keepalive lines.
func (c *Connection) LastInbound() time.Time {
	ns := c.lastInbound.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// SetTimeout overrides the command/dial timeout. In-flight requests keep
// their original deadline.
func (c *Connection) SetTimeout(d time.Duration) {
	c.timeoutOverride.Store(int64(d))
}

// Timeout returns the effective command timeout.
func (c *Connection) Timeout() time.Duration {
	if d := c.timeoutOverride.Load(); d > 0 {
		return time.Duration(d)
	}
	return c.params.Duration(param.Timeout)
}

// Connect dials the AVR and starts the reader. With reconnect enabled a
// failed initial dial hands over to the supervisor and returns nil; with it
// disabled the dial error is returned.
func (c *Connection) Connect(ctx context.Context, reconnect bool) error {
	c.mu.Lock()
	if c.shutdown {
		c.mu.Unlock()
		return avrerr.NewUnavailable("connect")
	}
	if c.state != Disconnected {
		c.mu.Unlock()
		return avrerr.NewConnectionFailure("connect", nil)
	}
	c.reconnect = reconnect
	c.state = Connecting
	c.mu.Unlock()

	conn, err := c.transport.Dial(ctx, c.Timeout())
	if err != nil {
		c.mu.Lock()
		if reconnect && !c.shutdown {
			c.state = Reconnecting
			c.startSupervisorLocked()
			c.mu.Unlock()
			return nil
		}
		c.state = Disconnected
		c.mu.Unlock()
		return avrerr.NewConnectionFailure("connect", err)
	}

	c.mu.Lock()
	if c.state != Connecting {
		// Disconnected or shut down while dialing.
		c.mu.Unlock()
		_ = conn.Close()
		return avrerr.NewCancelled("connect")
	}
	c.startSessionLocked(conn)
	c.mu.Unlock()
	c.log.Info("AVR connection established", "transport", c.transport.String())
	return nil
}

// startSessionLocked installs a dialed transport and spawns the reader.
func (c *Connection) startSessionLocked(conn io.ReadWriteCloser) {
	c.conn = conn
	c.readerDone = make(chan struct{})
	c.state = Starting
	go c.readLoop(conn, c.readerDone)
}

// SetReady marks the session ready once the first basic query has succeeded.
func (c *Connection) SetReady() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Starting {
		c.state = Ready
	}
}

// Disconnect gracefully closes the session. The reconnect flag sets whether
// the supervisor reconnects afterwards.
func (c *Connection) Disconnect(reconnect bool) {
	c.mu.Lock()
	c.reconnect = reconnect
	if c.shutdown {
		reconnect = false
	}
	if c.state == Disconnected || c.state == Shutdown || c.state == Disconnecting {
		c.mu.Unlock()
		return
	}
	c.state = Disconnecting
	superDone := c.superDone
	c.stopSupervisorLocked()
	readerDone := c.readerDone
	c.closeConnLocked()
	c.mu.Unlock()

	if superDone != nil {
		<-superDone
	}
	if readerDone != nil {
		<-readerDone
	}

	c.mu.Lock()
	if reconnect {
		c.state = Reconnecting
		c.startSupervisorLocked()
	} else {
		c.state = Disconnected
	}
	c.mu.Unlock()
	c.log.Info("AVR connection closed")
}

// ShutdownNow closes the session and forbids further connects. Returns after
// the reader and supervisor goroutines have exited.
func (c *Connection) ShutdownNow() {
	c.mu.Lock()
	if c.shutdown {
		c.mu.Unlock()
		return
	}
	c.shutdown = true
	c.mu.Unlock()

	c.Disconnect(false)

	c.mu.Lock()
	c.state = Shutdown
	c.mu.Unlock()
}

func (c *Connection) closeConnLocked() {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

// Send writes one frame to the AVR, pacing by command_delay when rateLimit
// is set. Write errors tear down the session.
func (c *Connection) Send(ctx context.Context, frame string, rateLimit bool) error {
	c.mu.Lock()
	conn := c.conn
	state := c.state
	c.mu.Unlock()
	if conn == nil || (state != Ready && state != Starting) {
		return avrerr.NewUnavailable("send")
	}

	if rateLimit {
		if err := c.limiter.Wait(ctx); err != nil {
			return avrerr.NewCancelled("send")
		}
	}
	c.log.Debug("sending command", "frame", frame)
	if _, err := conn.Write([]byte(frame + "\r\n")); err != nil {
		c.lost(err)
		return avrerr.NewConnectionFailure("send", err)
	}
	return nil
}

// readLoop reads frames until the connection drops. Inbound data is split on
// CR/LF; empty lines are keepalives and reset the inbound timer without
// being delivered.
func (c *Connection) readLoop(conn io.ReadWriteCloser, done chan struct{}) {
	defer close(done)
	br := bufio.NewReader(conn)
	for {
		line, err := br.ReadString('\n')
		line = strings.Trim(line, "\r\n")
		if err == nil || line != "" {
			c.lastInbound.Store(time.Now().UnixNano())
		}
		if line != "" {
			c.log.Debug("received response", "frame", line)
			if c.OnFrame != nil {
				c.OnFrame(line)
			}
		}
		if err != nil {
			c.lost(err)
			return
		}
	}
}

// lost handles an unrequested connection loss from the reader or writer.
func (c *Connection) lost(err error) {
	c.mu.Lock()
	if c.state == Disconnecting || c.state == Disconnected || c.state == Shutdown {
		c.mu.Unlock()
		return
	}
	c.log.Warn("AVR connection lost", "err", err)
	c.closeConnLocked()
	reconnect := c.reconnect && !c.shutdown
	if reconnect {
		c.state = Reconnecting
		c.startSupervisorLocked()
	} else {
		c.state = Disconnected
	}
	c.mu.Unlock()

	if c.OnDown != nil {
		c.OnDown(err)
	}
}

// Reconnect supervisor. Backoff doubles from 1s and caps at 64s, resetting
// on a successful handshake.

func (c *Connection) startSupervisorLocked() {
	if c.superStop != nil {
		return
	}
	c.superStop = make(chan struct{})
	c.superDone = make(chan struct{})
	go c.supervise(c.superStop, c.superDone)
}

func (c *Connection) stopSupervisorLocked() {
	if c.superStop == nil {
		return
	}
	close(c.superStop)
	c.superStop = nil
	c.superDone = nil
}

func (c *Connection) supervise(stop, done chan struct{}) {
	defer close(done)

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.Multiplier = 2
	bo.MaxInterval = maxReconnectDelay
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0
	bo.Reset()

	for attempt := 1; ; attempt++ {
		delay := bo.NextBackOff()
		c.log.Debug("waiting before reconnect", "delay", delay, "attempt", attempt)
		select {
		case <-stop:
			return
		case <-time.After(delay):
		}

		conn, err := c.transport.Dial(context.Background(), c.Timeout())
		if err != nil {
			c.log.Debug("reconnect attempt failed", "attempt", attempt, "err", err)
			continue
		}

		c.mu.Lock()
		select {
		case <-stop:
			c.mu.Unlock()
			_ = conn.Close()
			return
		default:
		}
		c.startSessionLocked(conn)
		c.superStop = nil
		c.superDone = nil
		c.mu.Unlock()

		c.log.Info("AVR connection re-established", "attempt", attempt)
		if c.OnUp != nil {
			c.OnUp()
		}
		return
	}
}
