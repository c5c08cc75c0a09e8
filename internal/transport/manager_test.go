package transport

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mqnguyen/collab-notify/internal/model"
	"github.com/mqnguyen/collab-notify/internal/store"
	"github.com/mqnguyen/collab-notify/tests/testutil"
)

// fakeConn is a Conn whose lifetime the test controls.
type fakeConn struct {
	mu     sync.Mutex
	closed bool
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// scriptedDialer returns one result per attempt, then repeats the last.
type scriptedDialer struct {
	mu       sync.Mutex
	attempts int
	script   []error // nil = success
	conns    []*fakeConn
}

func (d *scriptedDialer) Dial(ctx context.Context, sink chan<- Event) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	idx := d.attempts
	if idx >= len(d.script) {
		idx = len(d.script) - 1
	}
	d.attempts++

	if err := d.script[idx]; err != nil {
		return nil, err
	}
	c := &fakeConn{}
	d.conns = append(d.conns, c)
	return c, nil
}

func (d *scriptedDialer) attemptCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.attempts
}

func newTestManager(t *testing.T, d Dialer, loader Loader) (*Manager, *Poller, *store.Store, *blockingFetcher) {
	t.Helper()

	s := testutil.NewTestStore(t)
	inbox := NewInbox()
	fetcher := &blockingFetcher{}
	poller := NewPoller(fetcher, 5*time.Millisecond, s.LatestTimestamp, inbox)
	m := NewManager(d, poller, loader, s, 20*time.Millisecond, inbox)
	t.Cleanup(m.Stop)

	return m, poller, s, fetcher
}

func TestManagerConnectStopsPoller(t *testing.T) {
	d := &scriptedDialer{script: []error{nil}}
	m, poller, _, _ := newTestManager(t, d, nil)

	m.Start()

	require.Eventually(t, func() bool { return m.State() == StateConnected },
		time.Second, time.Millisecond)
	assert.False(t, poller.Running(), "poller must not run while push is live")
	assert.Equal(t, 1, d.attemptCount())
}

func TestManagerFallsBackToPollingOnDialFailure(t *testing.T) {
	d := &scriptedDialer{script: []error{errors.New("refused")}}
	m, poller, _, fetcher := newTestManager(t, d, nil)

	m.Start()

	require.Eventually(t, func() bool { return poller.Running() },
		time.Second, time.Millisecond)
	assert.Equal(t, StateDisconnected, m.State())

	// Delivery continues through the fallback while retries happen.
	require.Eventually(t, func() bool { return fetcher.callCount() >= 1 },
		time.Second, time.Millisecond)

	// Retries keep coming at the configured delay.
	require.Eventually(t, func() bool { return d.attemptCount() >= 3 },
		time.Second, time.Millisecond)
}

func TestManagerReconnectAfterClose(t *testing.T) {
	// Connection succeeds, then the test closes it from the server side.
	d := &scriptedDialer{script: []error{nil}}
	m, poller, _, _ := newTestManager(t, d, nil)

	m.Start()
	require.Eventually(t, func() bool { return m.State() == StateConnected },
		time.Second, time.Millisecond)

	m.inbox <- Event{Kind: EventClosed, Err: errors.New("connection reset")}

	// Polling starts immediately; the retry fires after the delay and
	// reconnects.
	require.Eventually(t, func() bool { return poller.Running() },
		time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return m.State() == StateConnected },
		time.Second, time.Millisecond)
	assert.Equal(t, 2, d.attemptCount())
	assert.False(t, poller.Running())
}

func TestManagerSchedulesExactlyOneRetry(t *testing.T) {
	d := &scriptedDialer{script: []error{nil}}
	m, _, _, _ := newTestManager(t, d, nil)

	m.Start()
	require.Eventually(t, func() bool { return m.State() == StateConnected },
		time.Second, time.Millisecond)

	// A burst of close/error events while already disconnected must
	// collapse into a single scheduled retry.
	m.inbox <- Event{Kind: EventClosed, Err: errors.New("reset")}
	m.inbox <- Event{Kind: EventClosed, Err: errors.New("reset again")}
	m.inbox <- Event{Kind: EventClosed, Err: errors.New("still down")}

	require.Eventually(t, func() bool { return m.State() == StateConnected },
		time.Second, time.Millisecond)

	// One initial dial plus one retry, not one per close event.
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 2, d.attemptCount())
}

func TestManagerIngestsMessagesAndDropsMalformed(t *testing.T) {
	d := &scriptedDialer{script: []error{nil}}
	m, _, s, _ := newTestManager(t, d, nil)

	m.Start()
	require.Eventually(t, func() bool { return m.State() == StateConnected },
		time.Second, time.Millisecond)

	ts := time.Date(2026, 7, 3, 10, 0, 0, 0, time.UTC)
	m.inbox <- Event{Kind: EventMessage, Payload: model.Payload{
		ID: "a", Title: "ok", Timestamp: ts, Type: "system",
	}}
	m.inbox <- Event{Kind: EventMessage, Payload: model.Payload{Title: "no id"}}
	m.inbox <- Event{Kind: EventError, Err: &model.MalformedError{Reason: "bad frame"}}
	m.inbox <- Event{Kind: EventMessage, Payload: model.Payload{
		ID: "b", Title: "也 ok", Timestamp: ts.Add(time.Second), Type: "system",
	}}

	require.Eventually(t, func() bool { return s.Len() == 2 },
		time.Second, time.Millisecond)
	assert.Equal(t, StateConnected, m.State(), "frame errors never drop the connection")
}

// historyLoader returns a fixed history.
type historyLoader struct {
	items []model.Payload
}

func (l *historyLoader) LoadHistory(ctx context.Context) ([]model.Payload, error) {
	return l.items, nil
}

func TestManagerResyncsOnConnect(t *testing.T) {
	ts := time.Date(2026, 7, 4, 8, 0, 0, 0, time.UTC)
	read := true
	loader := &historyLoader{items: []model.Payload{
		{ID: "h1", Title: "history", Timestamp: ts, Type: "system", Read: &read},
	}}

	d := &scriptedDialer{script: []error{nil}}
	m, _, s, _ := newTestManager(t, d, loader)

	m.Start()

	require.Eventually(t, func() bool { return s.Len() == 1 },
		time.Second, time.Millisecond)
	n, ok := s.Get("h1")
	require.True(t, ok)
	assert.False(t, n.Unread, "resync honors the server's read state")
	assert.Equal(t, StateConnected, m.State())
}
