// Package transport owns delivery of notifications from the platform:
// a websocket push channel, a timer-driven polling fallback, and the
// manager that switches between them. Everything downstream consumes a
// single normalized event stream and never learns which transport a
// message arrived on.
package transport

import "github.com/mqnguyen/collab-notify/internal/model"

// EventKind identifies a transport lifecycle or delivery event.
type EventKind int

const (
	// EventMessage carries one decoded notification payload, from
	// either the push channel or a poll response.
	EventMessage EventKind = iota

	// EventClosed signals that the push connection ended, cleanly or not.
	EventClosed

	// EventError reports a per-frame decode failure. The connection
	// stays up; the frame is discarded.
	EventError
)

// Event is the single message type flowing from transports to the
// manager.
type Event struct {
	Kind    EventKind
	Payload model.Payload
	Err     error
}
