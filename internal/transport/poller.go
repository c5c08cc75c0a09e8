package transport

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mqnguyen/collab-notify/internal/model"
)

// Fetcher is the poll endpoint consumed by the fallback. Implemented by
// api.Client.
type Fetcher interface {
	PollLatest(ctx context.Context, since time.Time) ([]model.Payload, error)
}

// fetchTimeout is the maximum time allowed for a single poll fetch.
const fetchTimeout = 30 * time.Second

// Poller is the timer-driven fallback used while the push channel is
// down. Each fetched item is forwarded into sink exactly as a push
// frame would be. Poll failures are logged and retried silently on the
// next tick.
type Poller struct {
	fetcher  Fetcher
	interval time.Duration
	sink     chan<- Event

	// since supplies the lower bound for incremental fetches, typically
	// the store's latest timestamp. Nil means fetch everything new.
	since func() time.Time

	mu      sync.Mutex
	stopCh  chan struct{}
	running bool

	// inFlight enforces at most one concurrent fetch: a tick that fires
	// while the previous fetch is still running is skipped.
	inFlight atomic.Bool
}

// NewPoller creates a stopped poller.
func NewPoller(f Fetcher, interval time.Duration, since func() time.Time, sink chan<- Event) *Poller {
	return &Poller{
		fetcher:  f,
		interval: interval,
		since:    since,
		sink:     sink,
	}
}

// Start begins polling. The first fetch fires immediately so fallback
// delivery begins without waiting a full interval. Starting a running
// poller is a no-op; the poller restarts cleanly after Stop.
func (p *Poller) Start() {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.stopCh = make(chan struct{})
	stopCh := p.stopCh
	p.mu.Unlock()

	go p.loop(stopCh)
}

// Stop halts the polling loop. An in-flight fetch is not cancelled; its
// results are applied idempotently by the store's dedup.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	close(p.stopCh)
	p.running = false
}

// Running reports whether the polling loop is active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Poller) loop(stopCh chan struct{}) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.tick()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			p.tick()
		}
	}
}

// tick launches one fetch unless the previous one is still in flight.
func (p *Poller) tick() {
	if !p.inFlight.CompareAndSwap(false, true) {
		return
	}

	go func() {
		defer p.inFlight.Store(false)

		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		var since time.Time
		if p.since != nil {
			since = p.since()
		}

		items, err := p.fetcher.PollLatest(ctx, since)
		if err != nil {
			// Total network loss lands here; just wait for the next tick.
			log.Printf("poll fetch failed: %v", err)
			return
		}

		// Results are delivered even if Stop raced with the fetch: the
		// store's dedup makes the overlap harmless, while dropping
		// could lose items.
		for _, item := range items {
			p.sink <- Event{Kind: EventMessage, Payload: item}
		}
	}()
}
