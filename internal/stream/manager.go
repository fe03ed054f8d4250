package stream

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Connection lifecycle for the notification stream: one live connection per
// manager, exponential-backoff reconnection on abnormal closes, and an
// explicit distinction between a deliberate disconnect and a dropped link.

// Reconnection policy
const (
	BaseDelay   = time.Second      // first retry delay
	MaxDelay    = 30 * time.Second // backoff ceiling
	MaxAttempts = 5                // retries before giving up
)

// Phase is the connection lifecycle state
type Phase int

const (
	Idle Phase = iota
	Connecting
	Open
	Reconnecting
	GaveUp
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Reconnecting:
		return "reconnecting"
	case GaveUp:
		return "gave_up"
	}
	return "unknown"
}

// Status is the observable connection state. Attempt and Delay are meaningful
// while Reconnecting (and Attempt while GaveUp).
type Status struct {
	Phase   Phase
	Attempt int
	Delay   time.Duration
}

// Config wires a Manager. URL maps a session identity to the stream endpoint.
// OnFrame receives every inbound text frame in arrival order; OnStatus is
// observability only and may be nil.
type Config struct {
	Dialer   Dialer
	Clock    Clock
	URL      func(identity string) string
	Header   http.Header
	OnFrame  func(frame []byte)
	OnStatus func(s Status)
	Logger   *slog.Logger
}

// Manager owns at most one live stream connection and its reconnect timer.
//
// Every Connect/Disconnect bumps a generation counter; dial results, inbound
// frames and close events carry the generation they belong to and are
// discarded when stale. That is what makes a manual close manual: the close
// triggered by our own Close call arrives with a superseded generation and
// never reaches the reconnect path.
type Manager struct {
	mu      sync.Mutex
	cfg     Config
	logger  *slog.Logger
	status  Status
	attempt int
	gen     int
	conn    Conn
	timer   Timer

	identity string
}

// NewManager creates an idle manager. Dialer and Clock default to the
// production implementations when nil.
func NewManager(cfg Config) *Manager {
	if cfg.Dialer == nil {
		cfg.Dialer = NewWebsocketDialer()
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		cfg:    cfg,
		logger: logger,
		status: Status{Phase: Idle},
	}
}

// Connect opens the stream for one identity. A prior connection or pending
// reconnect (for any identity) is forcibly torn down first, so at most one
// live stream exists per manager. The retry budget is reset, which is also
// how a caller leaves GaveUp.
func (m *Manager) Connect(identity string) {
	m.mu.Lock()
	m.gen++
	gen := m.gen
	m.stopTimerLocked()
	m.closeConnLocked()
	m.identity = identity
	m.attempt = 0
	notify := m.setStatusLocked(Status{Phase: Connecting})
	m.mu.Unlock()
	notify()

	m.dial(gen)
}

// Disconnect closes the stream deliberately: the pending reconnect timer (if
// any) is canceled and the manager lands in terminal Idle. No reconnection is
// ever scheduled from here.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.gen++
	m.stopTimerLocked()
	m.closeConnLocked()
	notify := m.setStatusLocked(Status{Phase: Idle})
	m.mu.Unlock()
	notify()
}

// Status returns the current connection status
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// dial attempts to open the stream for one generation. On failure it feeds
// the reconnect policy; on success it resets the retry budget and starts the
// read loop.
func (m *Manager) dial(gen int) {
	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return
	}
	url := m.cfg.URL(m.identity)
	m.mu.Unlock()

	conn, err := m.cfg.Dialer.Dial(context.Background(), url, m.cfg.Header)

	m.mu.Lock()
	if gen != m.gen {
		// superseded while dialing
		m.mu.Unlock()
		if err == nil {
			conn.Close()
		}
		return
	}
	if err != nil {
		m.logger.Warn("stream dial failed",
			"url", url,
			"error", err.Error(),
		)
		notify := m.scheduleReconnectLocked(gen)
		m.mu.Unlock()
		notify()
		return
	}
	m.conn = conn
	m.attempt = 0
	notify := m.setStatusLocked(Status{Phase: Open})
	m.mu.Unlock()
	notify()

	go m.readLoop(conn, gen)
}

// readLoop delivers inbound frames in arrival order until the connection
// closes, then hands the close to the reconnect policy.
func (m *Manager) readLoop(conn Conn, gen int) {
	for {
		frame, err := conn.ReadMessage()
		if err != nil {
			m.handleClose(gen, err)
			return
		}
		m.mu.Lock()
		stale := gen != m.gen
		m.mu.Unlock()
		if stale {
			return
		}
		if m.cfg.OnFrame != nil {
			m.cfg.OnFrame(frame)
		}
	}
}

// handleClose reacts to a non-manual close. A close belonging to a stale
// generation was caused by Disconnect/Connect and is ignored.
func (m *Manager) handleClose(gen int, err error) {
	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return
	}
	m.conn = nil
	m.logger.Warn("stream closed",
		"identity", m.identity,
		"error", err.Error(),
	)
	notify := m.scheduleReconnectLocked(gen)
	m.mu.Unlock()
	notify()
}

// scheduleReconnectLocked applies the backoff policy: delay min(base*2^n, max),
// then increment the attempt counter. Once the budget is spent the manager
// goes terminal GaveUp and only an external Connect revives it.
// Caller holds m.mu; the returned func fires the status callback outside it.
func (m *Manager) scheduleReconnectLocked(gen int) func() {
	if m.attempt >= MaxAttempts {
		m.logger.Error("stream reconnection exhausted",
			"identity", m.identity,
			"attempts", m.attempt,
		)
		return m.setStatusLocked(Status{Phase: GaveUp, Attempt: m.attempt})
	}

	delay := BaseDelay << m.attempt
	if delay > MaxDelay {
		delay = MaxDelay
	}
	attempt := m.attempt
	m.attempt++

	m.timer = m.cfg.Clock.AfterFunc(delay, func() {
		m.mu.Lock()
		if gen != m.gen || m.status.Phase != Reconnecting {
			m.mu.Unlock()
			return
		}
		notify := m.setStatusLocked(Status{Phase: Connecting})
		m.mu.Unlock()
		notify()
		m.dial(gen)
	})

	m.logger.Info("stream reconnect scheduled",
		"identity", m.identity,
		"attempt", attempt,
		"delay", delay,
	)
	return m.setStatusLocked(Status{Phase: Reconnecting, Attempt: attempt, Delay: delay})
}

// setStatusLocked records the status and returns the deferred observer
// callback. Caller holds m.mu and must invoke the result after unlocking.
func (m *Manager) setStatusLocked(s Status) func() {
	m.status = s
	cb := m.cfg.OnStatus
	if cb == nil {
		return func() {}
	}
	return func() { cb(s) }
}

func (m *Manager) stopTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *Manager) closeConnLocked() {
	if m.conn != nil {
		m.conn.Close()
		m.conn = nil
	}
}
