package alert

import "github.com/gen2brain/beeep"

// DesktopNotifier implements Notifier via the system notification
// daemon.
type DesktopNotifier struct{}

// Notify implements Notifier.
func (DesktopNotifier) Notify(title, message string) error {
	return beeep.Notify(title, message, "")
}

// BeepSounder implements Sounder with the system alert tone.
type BeepSounder struct{}

// Play implements Sounder.
func (BeepSounder) Play() error {
	return beeep.Beep(beeep.DefaultFreq, beeep.DefaultDuration)
}
