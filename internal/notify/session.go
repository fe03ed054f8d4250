package notify

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"socialhub/internal/stream"
)

// Session is the composition root: one connection manager, one cache and one
// REST client bound to one authenticated identity. It is constructed at login
// and discarded at logout, never shared across identities.

// how many notifications one reconciliation fetch asks for
const reconcileLimit = 50

// SessionConfig wires a Session
type SessionConfig struct {
	// Identity is the authenticated user id the stream is keyed by
	Identity string
	// API is the REST client used for reconciliation and mutations; its
	// bearer token must already be set
	API *APIClient
	// StreamBase is the websocket base URL, e.g. "ws://localhost:8080"
	StreamBase string
	// Token is attached to the stream handshake
	Token string

	// test seams; production leaves these nil
	Dialer stream.Dialer
	Clock  stream.Clock

	// OnStatus observes connection state transitions; may be nil
	OnStatus func(stream.Status)

	Logger *slog.Logger
}

// Session maintains the local eventually-consistent notification view
type Session struct {
	identity   string
	api        *APIClient
	cache      *Cache
	dispatcher *Dispatcher
	manager    *stream.Manager
	onStatus   func(stream.Status)
	logger     *slog.Logger

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
}

// NewSession builds a stopped session
func NewSession(cfg SessionConfig) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cache := NewCache()
	s := &Session{
		identity:   cfg.Identity,
		api:        cfg.API,
		cache:      cache,
		dispatcher: NewDispatcher(cache, logger),
		onStatus:   cfg.OnStatus,
		logger:     logger,
	}

	header := http.Header{}
	if cfg.Token != "" {
		header.Set("Authorization", "Bearer "+cfg.Token)
	}
	base := strings.TrimSuffix(cfg.StreamBase, "/")
	s.manager = stream.NewManager(stream.Config{
		Dialer: cfg.Dialer,
		Clock:  cfg.Clock,
		URL: func(identity string) string {
			return base + "/ws/notifications/" + identity + "/"
		},
		Header:   header,
		OnFrame:  s.dispatcher.HandleFrame,
		OnStatus: s.handleStatus,
		Logger:   logger,
	})
	return s
}

// Start opens the stream. Idempotent while running.
func (s *Session) Start() {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.mu.Unlock()

	s.manager.Connect(s.identity)
}

// Stop tears the session down: the pending reconnect timer is canceled, the
// stream closed with a manual reason, and any in-flight reconciliation
// response is discarded instead of applied.
func (s *Session) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.cancel()
	s.mu.Unlock()

	s.manager.Disconnect()
}

// Unread returns the local unread counter
func (s *Session) Unread() int {
	return s.cache.Unread()
}

// Recent returns the local recent list, newest first
func (s *Session) Recent() []Notification {
	return s.cache.Recent()
}

// Status exposes the connection state so callers can tell "zero unread" from
// "stream gone": a disconnected or given-up session must render as stale.
func (s *Session) Status() stream.Status {
	return s.manager.Status()
}

// Calls is the transient incoming-call side channel
func (s *Session) Calls() <-chan CallAlert {
	return s.dispatcher.Calls()
}

// Refresh performs an on-demand reconciliation, e.g. when a notification
// panel opens, to bound staleness even while the stream is nominally open
func (s *Session) Refresh(ctx context.Context) error {
	snapshot, err := s.api.FetchRecent(ctx, reconcileLimit)
	if err != nil {
		// fail-open: known-good local state stays untouched
		return err
	}
	s.applyReconcile(snapshot)
	return nil
}

// MarkRead applies the mutation locally (optimistic) and forwards it to the
// server; divergence is corrected by the next reconciliation
func (s *Session) MarkRead(ctx context.Context, id int64) error {
	s.cache.MarkRead(id)
	if err := s.api.MarkRead(ctx, id); err != nil {
		s.logger.Warn("mark read not persisted",
			"id", id,
			"error", err.Error(),
		)
		return err
	}
	return nil
}

// MarkAllRead applies locally and forwards to the server
func (s *Session) MarkAllRead(ctx context.Context) error {
	s.cache.MarkAllRead()
	if err := s.api.MarkAllRead(ctx); err != nil {
		s.logger.Warn("mark all read not persisted",
			"error", err.Error(),
		)
		return err
	}
	return nil
}

// Delete applies locally and forwards to the server
func (s *Session) Delete(ctx context.Context, id int64) error {
	s.cache.Delete(id)
	if err := s.api.Delete(ctx, id); err != nil {
		s.logger.Warn("delete not persisted",
			"id", id,
			"error", err.Error(),
		)
		return err
	}
	return nil
}

// handleStatus reacts to connection transitions: every successful open is
// followed by a reconciliation to close the gap of any preceding disconnect
func (s *Session) handleStatus(st stream.Status) {
	if st.Phase == stream.Open {
		go s.reconcile()
	}
	if s.onStatus != nil {
		s.onStatus(st)
	}
}

// reconcile runs the post-open authoritative fetch. A response that lands
// after Stop is discarded, not applied.
func (s *Session) reconcile() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil || ctx.Err() != nil {
		return
	}

	snapshot, err := s.api.FetchRecent(ctx, reconcileLimit)
	if err != nil {
		s.logger.Warn("reconciliation fetch failed",
			"identity", s.identity,
			"error", err.Error(),
		)
		return
	}
	if ctx.Err() != nil {
		return
	}
	s.applyReconcile(snapshot)
}

// applyReconcile overwrites the cache unless the session was stopped while
// the fetch was in flight
func (s *Session) applyReconcile(snapshot []Notification) {
	s.mu.Lock()
	stopped := !s.started && s.ctx != nil
	s.mu.Unlock()
	if stopped {
		return
	}
	s.cache.Reconcile(snapshot)
	s.logger.Debug("reconciled",
		"identity", s.identity,
		"unread", s.cache.Unread(),
	)
}
