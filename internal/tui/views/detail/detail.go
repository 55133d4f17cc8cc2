// Package detail renders the edit sidebar: layout choices, brush, captions
// and the sticker list.
package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/snapstrip/photobooth/internal/catalog"
	"github.com/snapstrip/photobooth/internal/overlay"
	"github.com/snapstrip/photobooth/internal/session"
	"github.com/snapstrip/photobooth/internal/tui/theme"
)

const (
	panelWidth = 40
	barWidth   = 12
	labelWidth = 12
)

var (
	stylePanel = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.ColorBorder).
			Padding(0, 1)

	styleLabel = lipgloss.NewStyle().
			Foreground(theme.ColorDimmed).
			Width(labelWidth)

	styleValue = lipgloss.NewStyle().
			Foreground(theme.ColorBright)

	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorBright)

	styleSectionHeader = lipgloss.NewStyle().
				Bold(true).
				Foreground(theme.ColorDimmed)
)

// Model holds the state for the edit panel.
type Model struct {
	Edit     *session.EditState
	Catalog  *catalog.Catalog
	Selected string // sticker id
}

// New creates a panel backed by cat.
func New(cat *catalog.Catalog) Model {
	if cat == nil {
		cat = catalog.Default()
	}
	return Model{Catalog: cat}
}

// View renders the panel. Returns an empty string outside editing.
func (m Model) View() string {
	if m.Edit == nil {
		return ""
	}
	return stylePanel.Width(panelWidth).Render(m.renderInner(m.Edit))
}

func (m Model) renderInner(e *session.EditState) string {
	var b strings.Builder

	b.WriteString(styleTitle.Render("Edit strip") + "\n")
	b.WriteString(strings.Repeat("─", panelWidth-4) + "\n")

	tpl, _ := m.Catalog.Template(e.Template)
	bg, _ := m.Catalog.Background(e.Background)
	writeRow(&b, "Template", fmt.Sprintf("%s (%d/%d)", nameOr(tpl.Name, e.Template), m.Catalog.TemplateIndex(e.Template)+1, len(m.Catalog.Templates)))
	writeRow(&b, "Background", nameOr(bg.Label, e.Background))
	writeRow(&b, "Size", fmt.Sprintf("%.0f × %.0f", e.Width, e.Height))

	b.WriteString("\n")

	brush := e.Brush
	swatch := lipgloss.NewStyle().Foreground(theme.Hex(brush.Color)).Render("██")
	writeRow(&b, "Mode", e.Mode.String())
	writeRow(&b, "Brush", brush.Kind.Label()+" "+swatch)
	sizePct := float64(brush.Size-overlay.MinBrushSize) / float64(overlay.MaxBrushSize-overlay.MinBrushSize)
	writeRow(&b, "Brush size", renderBar(sizePct, barWidth, theme.ColorDraw)+fmt.Sprintf(" %d", brush.Size))
	writeRow(&b, "History", fmt.Sprintf("undo %s  redo %s", yesNo(e.CanUndo), yesNo(e.CanRedo)))

	if len(tpl.Text) > 0 {
		b.WriteString("\n")
		b.WriteString(styleSectionHeader.Render("Captions") + "\n")
		for _, f := range tpl.Text {
			v, ok := e.Text[f.ID]
			if !ok {
				v = f.Text
			}
			if v == "" {
				v = theme.StyleDimmed.Render(f.Placeholder)
			}
			writeRow(&b, f.ID, truncate(v, panelWidth-labelWidth-4))
		}
	}

	b.WriteString("\n")
	b.WriteString(styleSectionHeader.Render(fmt.Sprintf("Stickers (%d)", len(e.Stickers))) + "\n")
	for _, s := range e.Stickers {
		prefix := "  "
		line := fmt.Sprintf("%s  %3.0f%%, %3.0f%%", s.Glyph, s.Position.X, s.Position.Y)
		if s.ID == m.Selected {
			prefix = "> "
			line = theme.StyleSelected.Render(line)
		}
		b.WriteString(prefix + line + "\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func writeRow(b *strings.Builder, label, value string) {
	b.WriteString(styleLabel.Render(label+":") + styleValue.Render(value) + "\n")
}

func renderBar(pct float64, width int, color lipgloss.Color) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 1 {
		pct = 1
	}
	filled := int(pct * float64(width))
	empty := width - filled
	bar := strings.Repeat("█", filled) + strings.Repeat("░", empty)
	return lipgloss.NewStyle().Foreground(color).Render(bar)
}

func nameOr(name, id string) string {
	if name != "" {
		return name
	}
	return id
}

func yesNo(ok bool) string {
	if ok {
		return "✓"
	}
	return "·"
}

func truncate(s string, max int) string {
	if max <= 1 || len([]rune(s)) <= max {
		return s
	}
	return string([]rune(s)[:max-1]) + "…"
}
