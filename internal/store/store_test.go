package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mqnguyen/collab-notify/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	cache, err := NewSQLiteCache(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := cache.Close(); err != nil {
			t.Errorf("closing test cache: %v", err)
		}
	})

	return New(cache)
}

func payload(id string, ts time.Time) model.Payload {
	return model.Payload{
		ID:        id,
		Sender:    "Dr. Chen",
		Title:     "Update on " + id,
		Content:   "Details for " + id,
		Timestamp: ts,
		Type:      "collaboration",
	}
}

func drainChanged(s *Store) {
	select {
	case <-s.Changes():
	default:
	}
}

func TestIngestDedup(t *testing.T) {
	s := newTestStore(t)
	t1 := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	t3 := t1.Add(2 * time.Hour)

	require.NoError(t, s.Ingest(payload("a", t1)))
	require.NoError(t, s.Ingest(payload("b", t2)))

	// Redelivered "a" with a later timestamp is a no-op.
	require.NoError(t, s.Ingest(payload("a", t3)))

	all := s.All()
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].ID)
	assert.Equal(t, "a", all[1].ID)
	assert.Equal(t, t1, all[1].Timestamp, "first-seen item is retained")
	assert.Equal(t, 2, s.UnreadCount())
}

func TestIngestOrderingIndependentOfArrival(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	// Arrive out of order: a poll response catching up on history.
	for _, h := range []int{3, 1, 4, 0, 2} {
		require.NoError(t, s.Ingest(payload(
			string(rune('a'+h)), base.Add(time.Duration(h)*time.Hour),
		)))
	}

	all := s.All()
	require.Len(t, all, 5)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].Timestamp.After(all[i-1].Timestamp),
			"All() must be descending by timestamp")
	}
}

func TestIngestMalformed(t *testing.T) {
	s := newTestStore(t)

	err := s.Ingest(model.Payload{Title: "no id", Timestamp: time.Now()})
	require.Error(t, err)
	assert.True(t, model.IsMalformed(err))
	assert.Equal(t, 0, s.Len())
}

func TestMarkReadIdempotent(t *testing.T) {
	s := newTestStore(t)
	ts := time.Now().UTC()
	require.NoError(t, s.Ingest(payload("a", ts)))
	drainChanged(s)

	s.MarkRead("a")
	select {
	case <-s.Changes():
	default:
		t.Fatal("expected a change signal after MarkRead")
	}
	assert.Equal(t, 0, s.UnreadCount())

	// Second mark and unknown id are no-ops with no signal.
	s.MarkRead("a")
	s.MarkRead("missing")
	select {
	case <-s.Changes():
		t.Fatal("no-op MarkRead must not signal")
	default:
	}
}

func TestMarkAllRead(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Ingest(payload(
			string(rune('a'+i)), base.Add(time.Duration(i)*time.Minute),
		)))
	}
	s.MarkRead("a")
	s.MarkRead("b")
	require.Equal(t, 3, s.UnreadCount())
	drainChanged(s)

	s.MarkAllRead()

	assert.Equal(t, 0, s.UnreadCount())
	for _, n := range s.All() {
		assert.False(t, n.Unread)
	}
	select {
	case <-s.Changes():
	default:
		t.Fatal("expected a change signal after MarkAllRead")
	}

	// Nothing left unread: a second call signals nothing.
	s.MarkAllRead()
	select {
	case <-s.Changes():
		t.Fatal("idempotent MarkAllRead must not signal")
	default:
	}
}

func TestLoadInitialLocalReadWins(t *testing.T) {
	s := newTestStore(t)
	ts := time.Date(2026, 4, 3, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Ingest(payload("a", ts)))
	s.MarkRead("a")

	// Resync: the server has not recorded the read yet.
	unread := false
	p := payload("a", ts)
	p.Read = &unread
	q := payload("b", ts.Add(time.Minute))
	serverRead := true
	q.Read = &serverRead

	s.LoadInitial([]model.Payload{p, q})

	a, ok := s.Get("a")
	require.True(t, ok)
	assert.False(t, a.Unread, "locally read items stay read across a resync")

	b, ok := s.Get("b")
	require.True(t, ok)
	assert.False(t, b.Unread, "server-reported read state is honored for new items")
	assert.Equal(t, 0, s.UnreadCount())
}

func TestLoadInitialSkipsMalformed(t *testing.T) {
	s := newTestStore(t)
	ts := time.Now().UTC()

	s.LoadInitial([]model.Payload{
		payload("a", ts),
		{Title: "broken"},
		payload("b", ts.Add(time.Second)),
	})

	assert.Equal(t, 2, s.Len())
}

func TestAlertsOnlyForNewIngests(t *testing.T) {
	s := newTestStore(t)
	ts := time.Now().UTC()

	require.NoError(t, s.Ingest(payload("a", ts)))
	select {
	case n := <-s.Alerts():
		assert.Equal(t, "a", n.ID)
	default:
		t.Fatal("expected an alert for a newly ingested notification")
	}

	// Duplicates and bulk loads stay silent.
	require.NoError(t, s.Ingest(payload("a", ts)))
	s.LoadInitial([]model.Payload{payload("b", ts.Add(time.Second))})
	select {
	case <-s.Alerts():
		t.Fatal("duplicates and loads must not alert")
	default:
	}
}

func TestCacheRoundTrip(t *testing.T) {
	cache, err := NewSQLiteCache(":memory:")
	require.NoError(t, err)
	defer cache.Close()

	s := New(cache)
	base := time.Date(2026, 4, 4, 9, 0, 0, 0, time.UTC)
	require.NoError(t, s.Ingest(payload("a", base)))
	require.NoError(t, s.Ingest(payload("b", base.Add(time.Hour))))
	s.MarkRead("a")

	// Cold start against the same cache: the mirror is authoritative.
	restored := New(cache)
	require.NoError(t, restored.LoadFromCache(context.Background()))

	all := restored.All()
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].ID)
	assert.Equal(t, 1, restored.UnreadCount())

	a, ok := restored.Get("a")
	require.True(t, ok)
	assert.False(t, a.Unread, "read state survives a restart")
}

func TestLatestTimestamp(t *testing.T) {
	s := newTestStore(t)
	assert.True(t, s.LatestTimestamp().IsZero())

	t1 := time.Date(2026, 4, 5, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	require.NoError(t, s.Ingest(payload("a", t2)))
	require.NoError(t, s.Ingest(payload("b", t1)))

	assert.Equal(t, t2, s.LatestTimestamp())
}
