package status

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/snapstrip/photobooth/internal/session"
	"github.com/snapstrip/photobooth/internal/tui/theme"
)

// Model holds the status bar state.
type Model struct {
	State *session.State
	Width int
}

// New creates a status bar model.
func New() Model {
	return Model{}
}

// SetState replaces the displayed state.
func (m *Model) SetState(s *session.State) {
	m.State = s
}

// View renders the status bar.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}

	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | ")
	s := m.State
	if s == nil {
		s = &session.State{}
	}

	phase := s.Phase.String()
	content := lipgloss.NewStyle().Bold(true).Foreground(theme.PhaseColor(phase)).Render(theme.PhaseLabel(phase))

	var cam string
	switch {
	case s.PermissionDenied:
		cam = lipgloss.NewStyle().Foreground(theme.ColorDanger).Render("○ camera denied")
	case s.CameraLive:
		cam = lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render("● camera " + s.Facing.String())
	default:
		cam = theme.StyleDimmed.Render("○ camera off")
	}
	content += sep + cam

	if s.Phase == session.Capturing {
		f := s.Capture.Filter.String()
		content += sep + lipgloss.NewStyle().Foreground(theme.FilterColor(f)).Render("filter "+f)
	}
	content += sep + fmt.Sprintf("%d/%d photos", s.PhotoCount(), s.Capture.MaxPhotos)

	if s.Edit != nil {
		mode := s.Edit.Mode.String()
		color := theme.ColorSticker
		if s.Edit.Mode == session.ModeDraw {
			color = theme.ColorDraw
		}
		content += sep + lipgloss.NewStyle().Foreground(color).Render(mode)
	}
	if s.LastExport != "" {
		content += sep + lipgloss.NewStyle().Foreground(theme.ColorExport).Render("✓ saved")
	}

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}
