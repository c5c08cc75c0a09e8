package model

import (
	"errors"
	"fmt"
	"time"
)

// Type classifies a notification and drives its icon, color, and
// filterability in the UI. Values outside the known set are preserved
// as-is and rendered with the default presentation.
type Type string

const (
	TypeCollaboration Type = "collaboration"
	TypeSystem        Type = "system"
	TypeFeedback      Type = "feedback"
	TypeAssignment    Type = "assignment"
	TypeMilestone     Type = "milestone"
	TypeFunding       Type = "funding"
	TypeAdmin         Type = "admin"
	TypeReview        Type = "review"
)

// KnownTypes lists the types the UI offers as filters, in display order.
var KnownTypes = []Type{
	TypeCollaboration,
	TypeSystem,
	TypeFeedback,
	TypeAssignment,
	TypeMilestone,
	TypeFunding,
	TypeAdmin,
	TypeReview,
}

// Known reports whether t is one of the enumerated notification types.
func (t Type) Known() bool {
	for _, k := range KnownTypes {
		if t == k {
			return true
		}
	}
	return false
}

// Priority affects display emphasis only, never ordering.
type Priority string

const (
	PriorityNormal   Priority = "normal"
	PriorityElevated Priority = "elevated"
)

// DefaultSender is used when the server omits the sender field.
const DefaultSender = "System"

// Notification is a single platform event surfaced to the user.
// The ID is the identity used for deduplication across transports.
type Notification struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Type      Type      `json:"type"`

	// ActionURL is an optional deep link into the platform. When empty,
	// no action control is rendered.
	ActionURL string `json:"action_url,omitempty"`

	Priority Priority `json:"priority"`

	// Unread is mutated only by the store in response to mark-read
	// commands.
	Unread bool `json:"unread"`
}

// Payload is the wire shape shared by the push channel, the poll
// endpoint, the initial-load endpoint, and the durable cache. Read is a
// pointer so that its absence (push/poll messages) is distinguishable
// from an explicit false.
type Payload struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender,omitempty"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
	ActionURL string    `json:"action_url,omitempty"`
	Priority  string    `json:"priority,omitempty"`
	Read      *bool     `json:"read,omitempty"`
}

// MalformedError indicates an inbound payload that cannot be turned into
// a Notification. It is logged and dropped by the channel manager, never
// surfaced to the UI.
type MalformedError struct {
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed notification: %s", e.Reason)
}

// IsMalformed reports whether err (or any error in its chain) is a
// MalformedError.
func IsMalformed(err error) bool {
	var me *MalformedError
	return errors.As(err, &me)
}

// FromPayload validates a wire payload and applies defaults for missing
// optional fields. A payload without an id or a timestamp has no usable
// identity or position and is rejected.
func FromPayload(p Payload) (Notification, error) {
	if p.ID == "" {
		return Notification{}, &MalformedError{Reason: "missing id"}
	}
	if p.Timestamp.IsZero() {
		return Notification{}, &MalformedError{Reason: fmt.Sprintf("notification %s has no timestamp", p.ID)}
	}

	n := Notification{
		ID:        p.ID,
		Sender:    p.Sender,
		Title:     p.Title,
		Content:   p.Content,
		Timestamp: p.Timestamp,
		Type:      Type(p.Type),
		ActionURL: p.ActionURL,
		Priority:  Priority(p.Priority),
		Unread:    true,
	}

	if n.Sender == "" {
		n.Sender = DefaultSender
	}
	if n.Type == "" {
		n.Type = TypeSystem
	}
	if n.Priority != PriorityElevated {
		n.Priority = PriorityNormal
	}
	if p.Read != nil {
		n.Unread = !*p.Read
	}

	return n, nil
}

// ToPayload converts a Notification back to the wire shape, re-expressing
// unread as read for parity with the server and the durable cache.
func (n Notification) ToPayload() Payload {
	read := !n.Unread
	return Payload{
		ID:        n.ID,
		Sender:    n.Sender,
		Title:     n.Title,
		Content:   n.Content,
		Timestamp: n.Timestamp,
		Type:      string(n.Type),
		ActionURL: n.ActionURL,
		Priority:  string(n.Priority),
		Read:      &read,
	}
}
