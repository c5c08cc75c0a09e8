package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/mqnguyen/collab-notify/internal/model"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange  = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorTeal    = lipgloss.AdaptiveColor{Dark: "#4DD0E1", Light: "#2C7A7B"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for top-level section headers and the application title.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// DetailPanelStyle wraps the detail view content area.
var DetailPanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// BucketHeaderStyle renders the Today/Yesterday/Earlier section headings.
var BucketHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorGray).
	MarginTop(1)

// ListItemStyle is the base style for items in a list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the currently focused list item.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// UnreadMarkerStyle renders the dot in front of unread notifications.
var UnreadMarkerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorBlue)

// ReadItemStyle dims notifications the user has already seen.
var ReadItemStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// ElevatedStyle marks elevated-priority notifications.
var ElevatedStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorOrange)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// BorderStyle provides a standard rounded border for panels.
var BorderStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// TypeStyle returns a color-coded style for the given notification type.
// Unrecognized types fall back to the gray default presentation.
func TypeStyle(t model.Type) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch t {
	case model.TypeCollaboration:
		return base.Foreground(ColorBlue)
	case model.TypeSystem:
		return base.Foreground(ColorGray)
	case model.TypeFeedback:
		return base.Foreground(ColorTeal)
	case model.TypeAssignment:
		return base.Foreground(ColorYellow)
	case model.TypeMilestone:
		return base.Foreground(ColorGreen)
	case model.TypeFunding:
		return base.Foreground(ColorMagenta)
	case model.TypeAdmin:
		return base.Foreground(ColorOrange)
	case model.TypeReview:
		return base.Foreground(ColorRed)
	default:
		return base.Foreground(ColorGray)
	}
}

// TypeIcon returns the glyph shown next to a notification of the given
// type. Unrecognized types get the default bell.
func TypeIcon(t model.Type) string {
	switch t {
	case model.TypeCollaboration:
		return "👥"
	case model.TypeFeedback:
		return "💬"
	case model.TypeAssignment:
		return "📋"
	case model.TypeMilestone:
		return "🏁"
	case model.TypeFunding:
		return "💰"
	case model.TypeAdmin:
		return "🛠"
	case model.TypeReview:
		return "🔍"
	default:
		return "🔔"
	}
}
