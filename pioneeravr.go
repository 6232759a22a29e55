// Package pioneeravr drives a Pioneer AVR over its line-oriented ASCII
// control protocol. A single persistent session carries solicited command
// responses and unsolicited status updates; the client keeps a cached view
// of AVR state across up to four zones and notifies per-zone observers.
package pioneeravr

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/crowbarz/pioneeravr-go/avrerr"
	"github.com/crowbarz/pioneeravr-go/commandset"
	"github.com/crowbarz/pioneeravr-go/connection"
	"github.com/crowbarz/pioneeravr-go/param"
	"github.com/crowbarz/pioneeravr-go/properties"
	"github.com/crowbarz/pioneeravr-go/queue"
	"github.com/crowbarz/pioneeravr-go/zone"
)

// PioneerAVR is the client facade. Construct with New, then Connect.
type PioneerAVR struct {
	params    *param.Params
	props     *properties.Properties
	registry  *commandset.Registry
	conn      *connection.Connection
	responder *connection.Responder
	queues    *queue.Queues
	log       *slog.Logger

	// requestMu serializes outbound requests: one frame and one waiter per
	// prefix in flight at a time.
	requestMu sync.Mutex

	mu           sync.Mutex
	started      bool
	shutdown     bool
	execStop     chan struct{}
	execDone     chan struct{}
	execWake     chan struct{}
	updStop      chan struct{}
	updDone      chan struct{}
	updResetCh   chan struct{}
	lastPower    map[zone.Zone]bool
	refreshing   map[zone.Zone]bool
	initialDone  map[zone.Zone]bool
	deviceInfoOK bool

	userParams map[param.Key]any
}

// Option configures the client.
type Option func(*PioneerAVR)

// WithLogger sets the logger for all components.
func WithLogger(log *slog.Logger) Option {
	return func(a *PioneerAVR) { a.log = log }
}

// WithParams seeds user parameter overrides.
func WithParams(params map[param.Key]any) Option {
	return func(a *PioneerAVR) { a.userParams = params }
}

// WithRegistry replaces the built-in command/decoder registry.
func WithRegistry(registry *commandset.Registry) Option {
	return func(a *PioneerAVR) { a.registry = registry }
}

// New creates a client for the AVR reachable through the given transport.
// Use &connection.TCPTransport{Host: ...} for the network control port.
func New(transport connection.Transport, opts ...Option) *PioneerAVR {
	a := &PioneerAVR{
		log:         slog.Default(),
		queues:      queue.New(),
		lastPower:   map[zone.Zone]bool{},
		refreshing:  map[zone.Zone]bool{},
		initialDone: map[zone.Zone]bool{},
		execWake:    make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.params = param.New(param.WithLogger(a.log))
	if a.userParams != nil {
		_ = a.params.SetUserParams(a.userParams)
	}
	if a.registry == nil {
		a.registry = commandset.Default(a.log)
	}
	a.props = properties.New(a.params, a.log)
	a.responder = connection.NewResponder(a.log)
	a.conn = connection.New(transport, a.params, a.log)
	a.conn.OnFrame = a.handleFrame
	a.conn.OnUp = a.handleReconnected
	a.conn.OnDown = a.handleDisconnected

	a.params.OnChange(a.handleParamsChanged)
	return a
}

// NewTCP creates a client for the AVR at host:port (default port 8102).
func NewTCP(host string, port int, opts ...Option) *PioneerAVR {
	return New(&connection.TCPTransport{Host: host, Port: port}, opts...)
}

// Params returns the parameter store.
func (a *PioneerAVR) Params() *param.Params { return a.params }

// Properties returns the cached AVR state.
func (a *PioneerAVR) Properties() *properties.Properties { return a.props }

// Available reports whether the session is ready for commands.
func (a *PioneerAVR) Available() bool { return a.conn.Available() }

// Connect opens the session, discovers zones and schedules the initial
// refresh; it returns without waiting for that refresh. With reconnect enabled, a failed initial dial starts the
// reconnect supervisor in the background instead of returning an error.
func (a *PioneerAVR) Connect(ctx context.Context, reconnect bool) error {
	a.mu.Lock()
	if a.shutdown {
		a.mu.Unlock()
		return avrerr.NewUnavailable("connect")
	}
	a.mu.Unlock()

	if err := a.conn.Connect(ctx, reconnect); err != nil {
		return err
	}
	a.startTasks()

	if a.conn.State() != connection.Starting {
		// Dial deferred to the reconnect supervisor.
		return nil
	}
	if err := a.startupQueries(ctx); err != nil {
		a.conn.Disconnect(reconnect)
		return err
	}
	a.conn.SetReady()
	a.ScheduleRefresh(zone.All)
	return nil
}

// startupQueries discovers zones and primes the cache. The session stays in
// the starting state until the first basic query succeeds.
func (a *PioneerAVR) startupQueries(ctx context.Context) error {
	if err := a.QueryZones(ctx); err != nil {
		return err
	}
	return nil
}

// Disconnect gracefully closes the session. The reconnect flag governs
// whether the supervisor re-establishes it.
func (a *PioneerAVR) Disconnect(reconnect bool) {
	a.stopTasks()
	a.queues.Purge(avrerr.NewCancelled("disconnect"))
	a.responder.FailAll(avrerr.NewCancelled("disconnect"))
	a.conn.Disconnect(reconnect)
	if reconnect {
		a.startTasks()
	}
}

// Shutdown closes the session permanently. Further operations fail with
// Unavailable. Returns after all tasks have exited.
func (a *PioneerAVR) Shutdown() {
	a.mu.Lock()
	if a.shutdown {
		a.mu.Unlock()
		return
	}
	a.shutdown = true
	a.mu.Unlock()

	a.stopTasks()
	a.queues.Purge(avrerr.NewCancelled("shutdown"))
	a.responder.FailAll(avrerr.NewCancelled("shutdown"))
	a.conn.ShutdownNow()
	a.props.ClearObservers()
	a.log.Info("AVR client shut down")
}

// SetTimeout updates the command timeout. In-flight requests keep their
// original deadline.
func (a *PioneerAVR) SetTimeout(d time.Duration) {
	a.conn.SetTimeout(d)
}

func (a *PioneerAVR) startTasks() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started || a.shutdown {
		return
	}
	a.started = true
	a.execStop = make(chan struct{})
	a.execDone = make(chan struct{})
	a.updStop = make(chan struct{})
	a.updDone = make(chan struct{})
	go a.executorLoop(a.execStop, a.execDone)
	go a.updaterLoop(a.updStop, a.updDone)
}

func (a *PioneerAVR) stopTasks() {
	a.mu.Lock()
	if !a.started {
		a.mu.Unlock()
		return
	}
	a.started = false
	close(a.execStop)
	close(a.updStop)
	execDone, updDone := a.execDone, a.updDone
	a.mu.Unlock()
	<-execDone
	<-updDone
}

// handleFrame is the reader hook. The frame is decoded into the property
// cache before any waiter is fulfilled, so a caller awaiting a response
// observes the state the response carried; every frame reaches the decoder
// regardless of whether a waiter consumes it.
func (a *PioneerAVR) handleFrame(frame string) {
	zones := a.registry.Decode(frame, a.props, a.params)
	a.responder.Offer(frame)
	if len(zones) == 0 {
		return
	}
	a.props.NotifyZones(zones)
	a.reactToUpdate(zones)
}

// handleReconnected runs after the supervisor re-establishes the session.
func (a *PioneerAVR) handleReconnected() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*a.conn.Timeout()+10*time.Second)
		defer cancel()
		if err := a.startupQueries(ctx); err != nil {
			a.log.Warn("startup queries failed after reconnect", "err", err)
			a.conn.Disconnect(true)
			return
		}
		a.conn.SetReady()
		a.ScheduleRefresh(zone.All)
	}()
}

// handleDisconnected fails any in-flight request when the session drops.
func (a *PioneerAVR) handleDisconnected(err error) {
	a.responder.FailAll(&avrerr.Error{Kind: avrerr.ConnectionFailure, Op: "session", Err: err})
}

// handleParamsChanged reacts to effective parameter changes.
func (a *PioneerAVR) handleParamsChanged(changed []param.Key) {
	for _, k := range changed {
		switch k {
		case param.ExtraListeningModes, param.EnabledListeningModes, param.DisabledListeningModes:
			a.props.UpdateListeningModes()
		case param.MaxVolume, param.MaxVolumeZoneX:
			a.applyMaxVolumes()
		case param.ScanInterval, param.AlwaysPoll:
			a.signalUpdaterReset()
		}
	}
}

func (a *PioneerAVR) applyMaxVolumes() {
	for _, z := range a.props.Zones() {
		if z == zone.Main {
			a.props.SetMaxVolume(z, a.params.Int(param.MaxVolume))
		} else {
			a.props.SetMaxVolume(z, a.params.Int(param.MaxVolumeZoneX))
		}
	}
}
