package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromPayloadDefaults(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	n, err := FromPayload(Payload{
		ID:        "n-1",
		Title:     "Proposal accepted",
		Content:   "Your proposal was accepted by the review board.",
		Timestamp: ts,
	})
	require.NoError(t, err)

	assert.Equal(t, "n-1", n.ID)
	assert.Equal(t, DefaultSender, n.Sender)
	assert.Equal(t, TypeSystem, n.Type)
	assert.Equal(t, PriorityNormal, n.Priority)
	assert.Empty(t, n.ActionURL)
	assert.True(t, n.Unread, "payloads without a read flag arrive unread")
}

func TestFromPayloadFullFields(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	read := true

	n, err := FromPayload(Payload{
		ID:        "n-2",
		Sender:    "Dr. Alvarez",
		Title:     "Review requested",
		Content:   "Please review milestone 3.",
		Timestamp: ts,
		Type:      "review",
		ActionURL: "/proposals/42",
		Priority:  "elevated",
		Read:      &read,
	})
	require.NoError(t, err)

	assert.Equal(t, "Dr. Alvarez", n.Sender)
	assert.Equal(t, TypeReview, n.Type)
	assert.Equal(t, PriorityElevated, n.Priority)
	assert.Equal(t, "/proposals/42", n.ActionURL)
	assert.False(t, n.Unread, "explicit read flag is honored")
}

func TestFromPayloadUnknownValuesFallBack(t *testing.T) {
	ts := time.Now()

	n, err := FromPayload(Payload{
		ID:        "n-3",
		Title:     "x",
		Timestamp: ts,
		Type:      "carrier-pigeon",
		Priority:  "urgent",
	})
	require.NoError(t, err)

	// Unknown types are kept verbatim; presentation falls back to the
	// default style. Unknown priorities collapse to normal.
	assert.Equal(t, Type("carrier-pigeon"), n.Type)
	assert.False(t, n.Type.Known())
	assert.Equal(t, PriorityNormal, n.Priority)
}

func TestFromPayloadMalformed(t *testing.T) {
	_, err := FromPayload(Payload{Title: "no id", Timestamp: time.Now()})
	require.Error(t, err)
	assert.True(t, IsMalformed(err))

	_, err = FromPayload(Payload{ID: "n-4", Title: "no timestamp"})
	require.Error(t, err)
	assert.True(t, IsMalformed(err))
}

func TestToPayloadRoundTripsReadState(t *testing.T) {
	n := Notification{
		ID:        "n-5",
		Sender:    "System",
		Title:     "t",
		Timestamp: time.Now().UTC(),
		Type:      TypeFunding,
		Priority:  PriorityNormal,
		Unread:    false,
	}

	p := n.ToPayload()
	require.NotNil(t, p.Read)
	assert.True(t, *p.Read, "unread is re-expressed as read for persistence parity")

	back, err := FromPayload(p)
	require.NoError(t, err)
	assert.Equal(t, n.Unread, back.Unread)
}
