package store

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/mqnguyen/collab-notify/internal/model"
)

// Cache is the durable mirror of the in-memory collection. It is read
// once at cold start as a fallback source and rewritten after every
// mutation. Write failures are non-fatal; the in-memory state stays
// authoritative for the session.
type Cache interface {
	Load(ctx context.Context) ([]model.Payload, error)
	Replace(ctx context.Context, items []model.Payload) error
	Close() error
}

// Store is the sole owner of notification state: deduplication,
// ordering, read/unread flags, and the durable cache mirror. All
// mutation goes through its methods; views are re-derived from All()
// on every change signal.
type Store struct {
	mu    sync.Mutex
	items []model.Notification // descending timestamp order
	seen  map[string]bool
	cache Cache

	// changed carries a coalesced "state changed" signal. Capacity one:
	// a pending signal already covers any further mutations, so sends
	// that would block are dropped.
	changed chan struct{}

	// alerts carries newly ingested unread notifications for the
	// side-effect dispatcher. Dropped when full rather than blocking
	// the transport.
	alerts chan model.Notification
}

// New creates an empty Store backed by the given cache. A nil cache
// disables persistence.
func New(cache Cache) *Store {
	return &Store{
		seen:    make(map[string]bool),
		cache:   cache,
		changed: make(chan struct{}, 1),
		alerts:  make(chan model.Notification, 32),
	}
}

// Changes returns the channel signaled after every state mutation.
func (s *Store) Changes() <-chan struct{} {
	return s.changed
}

// Alerts returns the channel of newly ingested unread notifications.
func (s *Store) Alerts() <-chan model.Notification {
	return s.alerts
}

// Ingest parses a wire payload and inserts it into the collection.
// Duplicate ids are a no-op, retaining the first-seen read state. New
// items always arrive unread, are inserted in timestamp position, and
// are announced on both the change and alert channels.
func (s *Store) Ingest(p model.Payload) error {
	n, err := model.FromPayload(p)
	if err != nil {
		return err
	}
	n.Unread = true

	s.mu.Lock()
	if s.seen[n.ID] {
		s.mu.Unlock()
		return nil
	}

	s.insertLocked(n)
	s.seen[n.ID] = true
	s.persistLocked()
	s.mu.Unlock()

	s.signalChanged()

	select {
	case s.alerts <- n:
	default:
		// Dispatcher is behind; missing a banner beats blocking ingest.
	}

	return nil
}

// LoadInitial replaces the entire collection from a history fetch or a
// reconnect resync. Read state comes from the server's reported flag,
// except that items the user already read locally stay read even when
// the server has not recorded it yet. Malformed items are logged and
// skipped without aborting the batch.
func (s *Store) LoadInitial(items []model.Payload) {
	s.mu.Lock()

	locallyRead := make(map[string]bool, len(s.items))
	for _, n := range s.items {
		if !n.Unread {
			locallyRead[n.ID] = true
		}
	}

	s.items = s.items[:0]
	s.seen = make(map[string]bool, len(items))

	for _, p := range items {
		n, err := model.FromPayload(p)
		if err != nil {
			log.Printf("skipping malformed notification in load: %v", err)
			continue
		}
		if s.seen[n.ID] {
			continue
		}
		if locallyRead[n.ID] {
			n.Unread = false
		}
		s.items = append(s.items, n)
		s.seen[n.ID] = true
	}

	sort.SliceStable(s.items, func(i, j int) bool {
		return s.items[i].Timestamp.After(s.items[j].Timestamp)
	})

	s.persistLocked()
	s.mu.Unlock()

	s.signalChanged()
}

// LoadFromCache restores the collection from the durable cache. Used at
// cold start when the initial network load fails; an empty or missing
// cache leaves the store empty.
func (s *Store) LoadFromCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}

	items, err := s.cache.Load(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.items = s.items[:0]
	s.seen = make(map[string]bool, len(items))
	for _, p := range items {
		n, err := model.FromPayload(p)
		if err != nil {
			log.Printf("skipping malformed cached notification: %v", err)
			continue
		}
		if s.seen[n.ID] {
			continue
		}
		s.items = append(s.items, n)
		s.seen[n.ID] = true
	}
	sort.SliceStable(s.items, func(i, j int) bool {
		return s.items[i].Timestamp.After(s.items[j].Timestamp)
	})
	s.mu.Unlock()

	s.signalChanged()
	return nil
}

// MarkRead flips a single notification to read. Idempotent: unknown ids
// and already-read items change nothing and emit no signal.
func (s *Store) MarkRead(id string) {
	s.mu.Lock()
	mutated := false
	for i := range s.items {
		if s.items[i].ID == id && s.items[i].Unread {
			s.items[i].Unread = false
			mutated = true
			break
		}
	}
	if mutated {
		s.persistLocked()
	}
	s.mu.Unlock()

	if mutated {
		s.signalChanged()
	}
}

// MarkAllRead flips every unread notification to read, emitting a
// single change signal. A store with nothing unread is a no-op.
func (s *Store) MarkAllRead() {
	s.mu.Lock()
	mutated := false
	for i := range s.items {
		if s.items[i].Unread {
			s.items[i].Unread = false
			mutated = true
		}
	}
	if mutated {
		s.persistLocked()
	}
	s.mu.Unlock()

	if mutated {
		s.signalChanged()
	}
}

// UnreadCount derives the number of unread notifications by scanning
// the flags. There is no separate counter to drift.
func (s *Store) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, n := range s.items {
		if n.Unread {
			count++
		}
	}
	return count
}

// All returns a snapshot copy of the collection in descending
// timestamp order.
func (s *Store) All() []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Notification, len(s.items))
	copy(out, s.items)
	return out
}

// Get returns the notification with the given id, if present.
func (s *Store) Get(id string) (model.Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.items {
		if n.ID == id {
			return n, true
		}
	}
	return model.Notification{}, false
}

// Len returns the number of notifications in the store.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// LatestTimestamp returns the timestamp of the most recent notification,
// or the zero time for an empty store. The poller uses it as the lower
// bound for incremental fetches.
func (s *Store) LatestTimestamp() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.items) == 0 {
		return time.Time{}
	}
	return s.items[0].Timestamp
}

// insertLocked places n at its timestamp position, keeping the slice in
// descending order regardless of arrival order. Ties go after existing
// items with the same timestamp.
func (s *Store) insertLocked(n model.Notification) {
	idx := sort.Search(len(s.items), func(i int) bool {
		return n.Timestamp.After(s.items[i].Timestamp)
	})

	s.items = append(s.items, model.Notification{})
	copy(s.items[idx+1:], s.items[idx:])
	s.items[idx] = n
}

// persistLocked rewrites the durable cache from the current collection.
// Failures are logged and swallowed; in-memory state stays authoritative.
func (s *Store) persistLocked() {
	if s.cache == nil {
		return
	}

	payloads := make([]model.Payload, len(s.items))
	for i, n := range s.items {
		payloads[i] = n.ToPayload()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.cache.Replace(ctx, payloads); err != nil {
		log.Printf("persisting notification cache: %v", err)
	}
}

// signalChanged coalesces change notifications into the single-slot
// channel.
func (s *Store) signalChanged() {
	select {
	case s.changed <- struct{}{}:
	default:
	}
}
