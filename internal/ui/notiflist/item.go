package notiflist

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/mqnguyen/collab-notify/internal/model"
	"github.com/mqnguyen/collab-notify/internal/theme"
)

// renderItem draws a single notification line: unread marker, type
// badge, title, sender, and relative time. Elevated priority only
// changes emphasis, never position.
func renderItem(n model.Notification, isSelected bool, width int) string {
	marker := " "
	if n.Unread {
		marker = theme.UnreadMarkerStyle.Render("●")
	}

	typeBadge := theme.TypeStyle(n.Type).Render(typeLabel(n.Type))

	title := n.Title
	if n.Priority == model.PriorityElevated {
		title = theme.ElevatedStyle.Render("! ") + title
	}

	sender := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(n.Sender)

	timeStr := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(relativeTime(n.Timestamp))

	actionHint := ""
	if n.ActionURL != "" {
		actionHint = lipgloss.NewStyle().
			Foreground(theme.ColorBlue).
			Render(" ↗")
	}

	line := fmt.Sprintf(
		"%s %s %s %s — %s%s  %s",
		marker, theme.TypeIcon(n.Type), typeBadge, title, sender, actionHint, timeStr,
	)

	if !n.Unread {
		line = theme.ReadItemStyle.Render(line)
	}

	if isSelected {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

// typeLabel returns the short uppercase badge text for a type.
func typeLabel(t model.Type) string {
	s := string(t)
	if s == "" {
		s = string(model.TypeSystem)
	}
	if len(s) > 4 {
		s = s[:4]
	}
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if 'a' <= c && c <= 'z' {
			c -= 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}

// relativeTime returns a human-friendly relative time string.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		mins := int(d.Minutes())
		if mins == 1 {
			return "1m ago"
		}
		return fmt.Sprintf("%dm ago", mins)
	case d < 24*time.Hour:
		hrs := int(d.Hours())
		if hrs == 1 {
			return "1h ago"
		}
		return fmt.Sprintf("%dh ago", hrs)
	case d < 7*24*time.Hour:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1d ago"
		}
		return fmt.Sprintf("%dd ago", days)
	default:
		return t.Format("Jan 02, 2006")
	}
}
