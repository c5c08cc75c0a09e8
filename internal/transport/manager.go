package transport

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/mqnguyen/collab-notify/internal/model"
	"github.com/mqnguyen/collab-notify/internal/store"
)

// State is the manager's connection state, surfaced in the status bar.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

// String returns the display label for a state.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "live"
	default:
		return "polling"
	}
}

// Loader fetches the full notification history. Implemented by
// api.Client; used for the resync that follows every successful
// (re)connect, so missed events converge.
type Loader interface {
	LoadHistory(ctx context.Context) ([]model.Payload, error)
}

// dialTimeout bounds a single websocket connection attempt.
const dialTimeout = 15 * time.Second

// Manager orchestrates the two transports: it keeps exactly one push
// connection attempt alive at a time, runs the polling fallback
// whenever the push channel is down, and retries the channel after a
// fixed delay. Every inbound message from either transport is handed to
// the store as one normalized ingest call. There is no terminal state;
// the manager runs for the lifetime of the session.
type Manager struct {
	dialer     Dialer
	poller     *Poller
	loader     Loader
	store      *store.Store
	retryDelay time.Duration

	// inbox receives events from the live connection and the poller.
	inbox chan Event

	// status carries coalesced state transitions to the UI.
	status chan State

	mu           sync.Mutex
	state        State
	conn         Conn
	retryPending bool
	retryTimer   *time.Timer
	stopped      bool
}

// NewInbox builds the event channel shared between a manager and the
// poller feeding it.
func NewInbox() chan Event {
	return make(chan Event, 64)
}

// NewManager wires the manager to its collaborators. The poller must
// have been constructed against the same inbox.
func NewManager(d Dialer, p *Poller, l Loader, s *store.Store, retryDelay time.Duration, inbox chan Event) *Manager {
	return &Manager{
		dialer:     d,
		poller:     p,
		loader:     l,
		store:      s,
		retryDelay: retryDelay,
		inbox:      inbox,
		status:     make(chan State, 1),
	}
}

// Status returns the channel of coalesced state transitions.
func (m *Manager) Status() <-chan State {
	return m.status
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Start launches the event loop and the first connection attempt.
func (m *Manager) Start() {
	go m.run()
	m.connect()
}

// Stop tears down the current connection, the poller, and any pending
// retry. Only used by tests and process teardown; a session normally
// never stops its manager.
func (m *Manager) Stop() {
	m.mu.Lock()
	m.stopped = true
	if m.retryTimer != nil {
		m.retryTimer.Stop()
		m.retryPending = false
	}
	conn := m.conn
	m.conn = nil
	m.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	m.poller.Stop()
}

// run drains the inbox for the lifetime of the session.
func (m *Manager) run() {
	for ev := range m.inbox {
		switch ev.Kind {
		case EventMessage:
			if err := m.store.Ingest(ev.Payload); err != nil {
				// Malformed payloads are a per-item problem: log and
				// move on, the batch and the connection survive.
				log.Printf("dropping inbound notification: %v", err)
			}

		case EventError:
			log.Printf("push channel frame error: %v", ev.Err)

		case EventClosed:
			m.onDisconnected(ev.Err)
		}
	}
}

// connect moves Disconnected -> Connecting and dials in the background.
func (m *Manager) connect() {
	m.mu.Lock()
	if m.stopped || m.state == StateConnecting || m.state == StateConnected {
		m.mu.Unlock()
		return
	}
	m.state = StateConnecting
	m.mu.Unlock()
	m.announce(StateConnecting)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
		defer cancel()

		conn, err := m.dialer.Dial(ctx, m.inbox)
		if err != nil {
			log.Printf("push channel dial failed: %v", err)
			m.onDisconnected(err)
			return
		}
		m.onOpened(conn)
	}()
}

// onOpened handles Connecting -> Connected: the poller stops and a
// resync converges anything missed while the channel was down.
func (m *Manager) onOpened(conn Conn) {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		conn.Close()
		return
	}
	m.state = StateConnected
	m.conn = conn
	m.mu.Unlock()

	m.announce(StateConnected)
	m.poller.Stop()

	if m.loader != nil {
		go m.resync()
	}
}

// onDisconnected handles any path back to Disconnected: the poller
// starts immediately so delivery is never interrupted, and exactly one
// retry is scheduled after the configured delay.
func (m *Manager) onDisconnected(cause error) {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}

	// A stale EventClosed from a connection we already replaced must
	// not knock down a live one.
	if m.state == StateConnected && m.conn != nil {
		m.conn.Close()
		m.conn = nil
	}
	m.state = StateDisconnected

	schedule := !m.retryPending
	if schedule {
		m.retryPending = true
		m.retryTimer = time.AfterFunc(m.retryDelay, func() {
			m.mu.Lock()
			m.retryPending = false
			m.mu.Unlock()
			m.connect()
		})
	}
	m.mu.Unlock()

	if cause != nil {
		log.Printf("push channel down (%v); falling back to polling", cause)
	}
	m.announce(StateDisconnected)
	m.poller.Start()
}

// resync replaces the collection from the history endpoint after a
// reconnect. Failure is non-fatal: the push channel is live and dedup
// keeps incremental delivery consistent.
func (m *Manager) resync() {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	items, err := m.loader.LoadHistory(ctx)
	if err != nil {
		log.Printf("resync after reconnect failed: %v", err)
		return
	}
	m.store.LoadInitial(items)
}

// announce publishes a state transition without blocking; a pending
// unread transition is simply replaced by draining first.
func (m *Manager) announce(s State) {
	select {
	case <-m.status:
	default:
	}
	select {
	case m.status <- s:
	default:
	}
}
