// Package alert turns newly ingested unread notifications into desktop
// banners and audible cues. It only consumes store state; it never
// mutates it, and capability failures never block or roll back
// ingestion.
package alert

import (
	"log"
	"sync"

	"github.com/mqnguyen/collab-notify/internal/model"
)

// Notifier sends a desktop/system banner.
type Notifier interface {
	Notify(title, message string) error
}

// Sounder plays the audible cue.
type Sounder interface {
	Play() error
}

// Preferences is read per dispatch so settings changes apply without
// rebuilding the dispatcher.
type Preferences struct {
	Desktop bool
	Sound   bool
}

// Dispatcher reacts to the single case "a notification was just
// ingested unread": a banner when the terminal is unfocused, a sound
// unless disabled. Both capabilities are injected and fire-and-forget.
type Dispatcher struct {
	notifier Notifier
	sounder  Sounder

	mu      sync.Mutex
	focused bool
	prefs   Preferences
}

// New creates a dispatcher. The terminal is assumed focused until the
// first focus report arrives, so a fresh session does not banner for
// its own initial traffic.
func New(n Notifier, s Sounder, prefs Preferences) *Dispatcher {
	return &Dispatcher{
		notifier: n,
		sounder:  s,
		focused:  true,
		prefs:    prefs,
	}
}

// SetFocused records whether the terminal currently has focus.
func (d *Dispatcher) SetFocused(focused bool) {
	d.mu.Lock()
	d.focused = focused
	d.mu.Unlock()
}

// SetPreferences applies updated user preferences.
func (d *Dispatcher) SetPreferences(prefs Preferences) {
	d.mu.Lock()
	d.prefs = prefs
	d.mu.Unlock()
}

// Dispatch handles one newly ingested unread notification. Errors from
// the capabilities (permission denied, playback blocked) are logged and
// swallowed.
func (d *Dispatcher) Dispatch(n model.Notification) {
	d.mu.Lock()
	focused := d.focused
	prefs := d.prefs
	d.mu.Unlock()

	if prefs.Desktop && !focused && d.notifier != nil {
		title := n.Title
		if n.Sender != "" && n.Sender != model.DefaultSender {
			title = n.Sender + ": " + n.Title
		}
		if err := d.notifier.Notify(title, n.Content); err != nil {
			log.Printf("desktop notification failed: %v", err)
		}
	}

	if prefs.Sound && d.sounder != nil {
		if err := d.sounder.Play(); err != nil {
			log.Printf("notification sound failed: %v", err)
		}
	}
}
