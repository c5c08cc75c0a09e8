package alert

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mqnguyen/collab-notify/internal/model"
)

type recordingNotifier struct {
	titles []string
	err    error
}

func (n *recordingNotifier) Notify(title, message string) error {
	n.titles = append(n.titles, title)
	return n.err
}

type recordingSounder struct {
	plays int
	err   error
}

func (s *recordingSounder) Play() error {
	s.plays++
	return s.err
}

func sample() model.Notification {
	return model.Notification{
		ID:        "n-1",
		Sender:    "Dr. Alvarez",
		Title:     "Review requested",
		Content:   "Milestone 3 needs your review.",
		Timestamp: time.Now(),
		Type:      model.TypeReview,
		Unread:    true,
	}
}

func TestDispatchWhileUnfocused(t *testing.T) {
	n := &recordingNotifier{}
	s := &recordingSounder{}
	d := New(n, s, Preferences{Desktop: true, Sound: true})
	d.SetFocused(false)

	d.Dispatch(sample())

	assert.Equal(t, []string{"Dr. Alvarez: Review requested"}, n.titles)
	assert.Equal(t, 1, s.plays)
}

func TestNoBannerWhileFocused(t *testing.T) {
	n := &recordingNotifier{}
	s := &recordingSounder{}
	d := New(n, s, Preferences{Desktop: true, Sound: true})

	// Focused is the initial state.
	d.Dispatch(sample())

	assert.Empty(t, n.titles, "banners are for unfocused sessions only")
	assert.Equal(t, 1, s.plays, "sound plays regardless of focus")
}

func TestPreferencesDisableCapabilities(t *testing.T) {
	n := &recordingNotifier{}
	s := &recordingSounder{}
	d := New(n, s, Preferences{Desktop: false, Sound: false})
	d.SetFocused(false)

	d.Dispatch(sample())

	assert.Empty(t, n.titles)
	assert.Zero(t, s.plays)

	d.SetPreferences(Preferences{Desktop: true, Sound: true})
	d.Dispatch(sample())

	assert.Len(t, n.titles, 1)
	assert.Equal(t, 1, s.plays)
}

func TestCapabilityFailuresAreSwallowed(t *testing.T) {
	n := &recordingNotifier{err: errors.New("permission denied")}
	s := &recordingSounder{err: errors.New("playback blocked")}
	d := New(n, s, Preferences{Desktop: true, Sound: true})
	d.SetFocused(false)

	assert.NotPanics(t, func() { d.Dispatch(sample()) })
	assert.Len(t, n.titles, 1)
	assert.Equal(t, 1, s.plays)
}

func TestSystemSenderOmittedFromBannerTitle(t *testing.T) {
	n := &recordingNotifier{}
	d := New(n, nil, Preferences{Desktop: true})
	d.SetFocused(false)

	msg := sample()
	msg.Sender = model.DefaultSender
	d.Dispatch(msg)

	assert.Equal(t, []string{"Review requested"}, n.titles)
}
