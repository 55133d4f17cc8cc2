// Package debug renders the booth's event log overlay.
package debug

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/snapstrip/photobooth/internal/tui/theme"
)

const maxEntries = 200

// Entry kinds.
const (
	KindEvent  = "evt"
	KindCamera = "cam"
	KindExport = "exp"
	KindError  = "err"
)

var kindColors = map[string]lipgloss.Color{
	KindEvent:  theme.ColorGate,
	KindCamera: theme.ColorCapture,
	KindExport: theme.ColorExport,
	KindError:  theme.ColorDanger,
}

// Entry is one log line. Consecutive identical lines collapse into one
// entry with a repeat count.
type Entry struct {
	Time    time.Time
	Kind    string
	Message string
	Repeat  int
}

// Model is the event log. The zero value is ready to use.
type Model struct {
	Entries []Entry
	// Offset counts lines scrolled up from the newest.
	Offset int
	// ErrorsOnly hides everything but KindError.
	ErrorsOnly bool
	// Now stamps new entries. Defaults to time.Now.
	Now func() time.Time

	started time.Time
}

func New() Model {
	return Model{}
}

// Add records an entry and jumps back to the newest line.
func (m *Model) Add(kind, message string) {
	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	t := now()
	if m.started.IsZero() {
		m.started = t
	}
	m.Offset = 0
	if n := len(m.Entries); n > 0 && m.Entries[n-1].Kind == kind && m.Entries[n-1].Message == message {
		m.Entries[n-1].Repeat++
		m.Entries[n-1].Time = t
		return
	}
	m.Entries = append(m.Entries, Entry{Time: t, Kind: kind, Message: message, Repeat: 1})
	if over := len(m.Entries) - maxEntries; over > 0 {
		m.Entries = append(m.Entries[:0], m.Entries[over:]...)
	}
}

// Counts tallies entries per kind, repeats included.
func (m Model) Counts() map[string]int {
	out := make(map[string]int, len(kindColors))
	for _, e := range m.Entries {
		out[e.Kind] += e.Repeat
	}
	return out
}

func (m Model) visible() []Entry {
	if !m.ErrorsOnly {
		return m.Entries
	}
	var out []Entry
	for _, e := range m.Entries {
		if e.Kind == KindError {
			out = append(out, e)
		}
	}
	return out
}

func (m *Model) ScrollUp(n int) {
	m.Offset = min(m.Offset+n, max(len(m.visible())-1, 0))
}

func (m *Model) ScrollDown(n int) {
	m.Offset = max(m.Offset-n, 0)
}

// ToggleErrors switches between all entries and errors only.
func (m *Model) ToggleErrors() {
	m.ErrorsOnly = !m.ErrorsOnly
	m.Offset = 0
}

// View renders the log in a width x height panel.
func (m Model) View(width, height int) string {
	inner := max(width-6, 24)
	rows := max(height-8, 3)

	counts := m.Counts()
	var tally []string
	for _, k := range []string{KindEvent, KindCamera, KindExport, KindError} {
		tally = append(tally, lipgloss.NewStyle().Foreground(kindColors[k]).Render(fmt.Sprintf("%s %d", k, counts[k])))
	}
	title := theme.StyleHeader.Render(" EVENT LOG ") + "  " + strings.Join(tally, "  ")
	if m.ErrorsOnly {
		title += theme.StyleError.Render("  [errors only]")
	}
	help := theme.StyleDimmed.Render("j/k scroll · e errors only · esc close")

	entries := m.visible()
	var body string
	if len(entries) == 0 {
		body = theme.StyleDimmed.Render("Nothing logged yet.")
	} else {
		end := max(len(entries)-m.Offset, 0)
		start := max(end-rows, 0)
		lines := make([]string, 0, end-start)
		for _, e := range entries[start:end] {
			lines = append(lines, m.line(e, inner))
		}
		if m.Offset > 0 {
			lines = append(lines, theme.StyleDimmed.Render(fmt.Sprintf("… %d newer", m.Offset)))
		}
		body = strings.Join(lines, "\n")
	}

	return lipgloss.NewStyle().
		Width(inner).
		Padding(1, 2).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(lipgloss.JoinVertical(lipgloss.Left, title, "", body, "", help))
}

// line formats e with its offset from the first entry, e.g. "+12.5s".
func (m Model) line(e Entry, width int) string {
	stamp := fmt.Sprintf("+%6.1fs", e.Time.Sub(m.started).Seconds())
	color, ok := kindColors[e.Kind]
	if !ok {
		color = theme.ColorDimmed
	}
	msg := e.Message
	if e.Repeat > 1 {
		msg += fmt.Sprintf(" ×%d", e.Repeat)
	}
	if room := width - 14; room > 3 && len([]rune(msg)) > room {
		msg = string([]rune(msg)[:room-1]) + "…"
	}
	return theme.StyleDimmed.Render(stamp) + " " +
		lipgloss.NewStyle().Foreground(color).Width(4).Render(e.Kind) + msg
}
