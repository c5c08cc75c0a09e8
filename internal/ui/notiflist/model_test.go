package notiflist

import (
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mqnguyen/collab-notify/internal/keys"
	"github.com/mqnguyen/collab-notify/internal/model"
)

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// makeItems builds n notifications in descending timestamp order, the
// order the store hands out snapshots in.
func makeItems(n int, unread bool) []model.Notification {
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	items := make([]model.Notification, n)
	for i := 0; i < n; i++ {
		items[i] = model.Notification{
			ID:        fmt.Sprintf("n%02d", i),
			Sender:    "Alice",
			Title:     fmt.Sprintf("item %d", i),
			Timestamp: base.Add(-time.Duration(i) * time.Minute),
			Type:      model.TypeCollaboration,
			Unread:    unread,
		}
	}
	return items
}

func newTestList(t *testing.T, items []model.Notification) Model {
	t.Helper()
	m := New(keys.DefaultKeyMap(), 10, 80, 24)
	m.SetItems(items)
	return m
}

// press feeds a key and executes any resulting command, returning the
// message it produced.
func press(m Model, msg tea.KeyMsg) (Model, tea.Msg) {
	m, cmd := m.Update(msg)
	if cmd == nil {
		return m, nil
	}
	return m, cmd()
}

func TestCursorNavigationAndSelect(t *testing.T) {
	m := newTestList(t, makeItems(3, true))

	m, _ = press(m, keyRune('j'))
	m, _ = press(m, keyRune('j'))
	m, out := press(m, tea.KeyMsg{Type: tea.KeyEnter})

	sel, ok := out.(SelectedMsg)
	require.True(t, ok)
	assert.Equal(t, "n02", sel.ID)
}

func TestCursorStopsAtPageEdges(t *testing.T) {
	m := newTestList(t, makeItems(2, true))

	m, _ = press(m, keyRune('k')) // already at top
	id, ok := m.SelectedID()
	require.True(t, ok)
	assert.Equal(t, "n00", id)

	m, _ = press(m, keyRune('j'))
	m, _ = press(m, keyRune('j')) // past the end
	id, ok = m.SelectedID()
	require.True(t, ok)
	assert.Equal(t, "n01", id)
}

func TestPagingMovesWindow(t *testing.T) {
	m := newTestList(t, makeItems(25, true))

	m, _ = press(m, keyRune('l'))
	id, ok := m.SelectedID()
	require.True(t, ok)
	assert.Equal(t, "n10", id, "next page starts at the 11th item")

	m, _ = press(m, keyRune('h'))
	id, ok = m.SelectedID()
	require.True(t, ok)
	assert.Equal(t, "n00", id)
}

func TestFilterCycleResetsToFirstPage(t *testing.T) {
	m := newTestList(t, makeItems(25, true))

	m, _ = press(m, keyRune('l'))
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyTab})

	assert.Contains(t, m.FilterSummary(), "unread")
	id, ok := m.SelectedID()
	require.True(t, ok)
	assert.Equal(t, "n00", id, "filter change returns to page 1")
}

func TestUnreadFilterHidesRead(t *testing.T) {
	items := makeItems(3, true)
	items[0].Unread = false
	m := newTestList(t, items)

	m, _ = press(m, keyRune('u'))

	id, ok := m.SelectedID()
	require.True(t, ok)
	assert.Equal(t, "n01", id, "first unread item is under the cursor")
}

func TestSearchApplyAndClear(t *testing.T) {
	items := makeItems(5, true)
	items[2].Title = "grant review due"
	m := newTestList(t, items)

	m, _ = press(m, keyRune('/'))
	require.True(t, m.Searching())

	for _, r := range "grant" {
		m, _ = m.Update(keyRune(r))
	}
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEnter})

	require.False(t, m.Searching())
	assert.Contains(t, m.FilterSummary(), `search: "grant"`)

	id, ok := m.SelectedID()
	require.True(t, ok)
	assert.Equal(t, "n02", id)

	m, _ = press(m, keyRune('0'))
	assert.Empty(t, m.FilterSummary())
	id, ok = m.SelectedID()
	require.True(t, ok)
	assert.Equal(t, "n00", id)
}

func TestSearchEscCancels(t *testing.T) {
	m := newTestList(t, makeItems(2, true))

	m, _ = press(m, keyRune('/'))
	m, _ = m.Update(keyRune('x'))
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEsc})

	assert.False(t, m.Searching())
	assert.Empty(t, m.FilterSummary())
}

func TestMarkAllReadKey(t *testing.T) {
	m := newTestList(t, makeItems(2, true))

	_, out := press(m, keyRune('A'))
	_, ok := out.(MarkAllReadMsg)
	assert.True(t, ok)
}

func TestSnapshotReplaceClampsCursor(t *testing.T) {
	m := newTestList(t, makeItems(5, true))
	for i := 0; i < 4; i++ {
		m, _ = press(m, keyRune('j'))
	}

	m.SetItems(makeItems(2, true))

	id, ok := m.SelectedID()
	require.True(t, ok)
	assert.Equal(t, "n01", id, "cursor clamps to the shorter snapshot")
}
