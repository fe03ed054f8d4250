package stream

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes -----------------------------------------------------------------

type fakeConn struct {
	frames chan []byte
	done   chan struct{}
	once   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		frames: make(chan []byte, 16),
		done:   make(chan struct{}),
	}
}

func (c *fakeConn) ReadMessage() ([]byte, error) {
	select {
	case frame := <-c.frames:
		return frame, nil
	case <-c.done:
		return nil, errors.New("connection dropped")
	}
}

func (c *fakeConn) Close() error {
	c.drop()
	return nil
}

// drop simulates the server side going away
func (c *fakeConn) drop() {
	c.once.Do(func() { close(c.done) })
}

type fakeDialer struct {
	mu       sync.Mutex
	failures int // dials to fail before succeeding
	conns    []*fakeConn
	dials    int
}

func (d *fakeDialer) Dial(_ context.Context, _ string, _ http.Header) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if d.failures > 0 {
		d.failures--
		return nil, errors.New("connection refused")
	}
	conn := newFakeConn()
	d.conns = append(d.conns, conn)
	return conn, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func (d *fakeDialer) lastConn() *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.conns) == 0 {
		return nil
	}
	return d.conns[len(d.conns)-1]
}

type fakeTimer struct {
	delay   time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.stopped = true
	return !t.fired
}

type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{delay: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

// fireNext runs the oldest pending timer; reports whether one fired
func (c *fakeClock) fireNext() bool {
	c.mu.Lock()
	var next *fakeTimer
	for _, t := range c.timers {
		if !t.fired && !t.stopped {
			next = t
			break
		}
	}
	if next == nil {
		c.mu.Unlock()
		return false
	}
	next.fired = true
	f := next.f
	c.mu.Unlock()
	f()
	return true
}

func (c *fakeClock) delays() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []time.Duration
	for _, t := range c.timers {
		out = append(out, t.delay)
	}
	return out
}

func (c *fakeClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.fired && !t.stopped {
			n++
		}
	}
	return n
}

// statusRecorder collects status transitions
type statusRecorder struct {
	mu       sync.Mutex
	statuses []Status
}

func (r *statusRecorder) record(s Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, s)
}

func (r *statusRecorder) phases() []Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Phase
	for _, s := range r.statuses {
		out = append(out, s.Phase)
	}
	return out
}

func newTestManager(dialer *fakeDialer, clock *fakeClock, rec *statusRecorder, frames func([]byte)) *Manager {
	cfg := Config{
		Dialer:  dialer,
		Clock:   clock,
		URL:     func(identity string) string { return "ws://test/ws/notifications/" + identity + "/" },
		OnFrame: frames,
	}
	if rec != nil {
		cfg.OnStatus = rec.record
	}
	return NewManager(cfg)
}

// --- tests -----------------------------------------------------------------

func TestManagerConnectOpens(t *testing.T) {
	dialer := &fakeDialer{}
	clock := &fakeClock{}
	rec := &statusRecorder{}
	m := newTestManager(dialer, clock, rec, nil)

	m.Connect("user-1")

	assert.Equal(t, Open, m.Status().Phase)
	assert.Equal(t, []Phase{Connecting, Open}, rec.phases())
	assert.Equal(t, 1, dialer.dialCount())
}

func TestManagerDeliversFramesInOrder(t *testing.T) {
	dialer := &fakeDialer{}
	clock := &fakeClock{}

	var mu sync.Mutex
	var got []string
	m := newTestManager(dialer, clock, nil, func(frame []byte) {
		mu.Lock()
		got = append(got, string(frame))
		mu.Unlock()
	})

	m.Connect("user-1")
	conn := dialer.lastConn()
	require.NotNil(t, conn)

	conn.frames <- []byte("one")
	conn.frames <- []byte("two")
	conn.frames <- []byte("three")

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 3
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"one", "two", "three"}, got)
}

func TestManagerBackoffSequence(t *testing.T) {
	dialer := &fakeDialer{failures: 100} // never succeeds
	clock := &fakeClock{}
	m := newTestManager(dialer, clock, nil, nil)

	m.Connect("user-1")

	// first failure scheduled the first retry
	require.Equal(t, Reconnecting, m.Status().Phase)

	// drive the remaining retries
	for clock.fireNext() {
	}

	want := []time.Duration{
		1000 * time.Millisecond,
		2000 * time.Millisecond,
		4000 * time.Millisecond,
		8000 * time.Millisecond,
		16000 * time.Millisecond,
	}
	assert.Equal(t, want, clock.delays())

	// the failure after the final retry is terminal
	assert.Equal(t, GaveUp, m.Status().Phase)
	assert.Equal(t, 0, clock.pending(), "no timer scheduled after giving up")
	assert.Equal(t, 6, dialer.dialCount())
}

func TestManagerAbnormalCloseReconnects(t *testing.T) {
	dialer := &fakeDialer{}
	clock := &fakeClock{}
	m := newTestManager(dialer, clock, nil, nil)

	m.Connect("user-1")
	require.Equal(t, Open, m.Status().Phase)

	dialer.lastConn().drop()

	require.Eventually(t, func() bool {
		return m.Status().Phase == Reconnecting
	}, time.Second, 5*time.Millisecond)

	st := m.Status()
	assert.Equal(t, 0, st.Attempt, "successful open reset the attempt counter")
	assert.Equal(t, BaseDelay, st.Delay)

	clock.fireNext()
	assert.Equal(t, Open, m.Status().Phase)
	assert.Equal(t, 2, dialer.dialCount())
}

func TestManagerManualCloseSuppressesReconnect(t *testing.T) {
	t.Run("WhileOpen", func(t *testing.T) {
		dialer := &fakeDialer{}
		clock := &fakeClock{}
		m := newTestManager(dialer, clock, nil, nil)

		m.Connect("user-1")
		m.Disconnect()

		assert.Equal(t, Idle, m.Status().Phase)

		// the read loop observed the close by now; give it room to misbehave
		time.Sleep(20 * time.Millisecond)
		assert.Equal(t, Idle, m.Status().Phase)
		assert.Equal(t, 0, clock.pending())
		assert.Equal(t, 1, dialer.dialCount())
	})

	t.Run("WhileReconnecting", func(t *testing.T) {
		dialer := &fakeDialer{failures: 1}
		clock := &fakeClock{}
		m := newTestManager(dialer, clock, nil, nil)

		m.Connect("user-1")
		require.Equal(t, Reconnecting, m.Status().Phase)

		m.Disconnect()
		assert.Equal(t, Idle, m.Status().Phase)

		// advancing the clock past the delay must not dial again
		fired := clock.fireNext()
		assert.False(t, fired, "pending timer was canceled")
		assert.Equal(t, 1, dialer.dialCount())
	})
}

func TestManagerGaveUpRequiresExplicitConnect(t *testing.T) {
	dialer := &fakeDialer{failures: 100}
	clock := &fakeClock{}
	m := newTestManager(dialer, clock, nil, nil)

	m.Connect("user-1")
	for clock.fireNext() {
	}
	require.Equal(t, GaveUp, m.Status().Phase)

	// a fresh Connect resets the retry budget and reopens
	dialer.mu.Lock()
	dialer.failures = 0
	dialer.mu.Unlock()

	m.Connect("user-1")
	assert.Equal(t, Open, m.Status().Phase)
}

func TestManagerConnectReplacesPriorStream(t *testing.T) {
	dialer := &fakeDialer{}
	clock := &fakeClock{}
	m := newTestManager(dialer, clock, nil, nil)

	m.Connect("user-1")
	first := dialer.lastConn()
	require.NotNil(t, first)

	m.Connect("user-2")
	assert.Equal(t, Open, m.Status().Phase)
	assert.Equal(t, 2, dialer.dialCount())

	// the first connection was forcibly closed and its close never
	// triggers a reconnect
	select {
	case <-first.done:
	default:
		t.Fatal("prior connection was not closed")
	}
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 2, dialer.dialCount())
	assert.Equal(t, 0, clock.pending())
}
