// Package theme provides the Lip Gloss palette and reusable styles for the
// booth TUI. It is a leaf package with no internal imports.
package theme

import (
	"fmt"
	"image/color"

	"github.com/charmbracelet/lipgloss"
)

// Phase colors.
var (
	ColorGate    = lipgloss.Color("#60a5fa")
	ColorCapture = lipgloss.Color("#ef4444")
	ColorEdit    = lipgloss.Color("#a855f7")
	ColorDefault = lipgloss.Color("#9ca3af")
)

// Accent colors.
var (
	ColorCountdown = lipgloss.Color("#f59e0b")
	ColorSticker   = lipgloss.Color("#f472b6")
	ColorDraw      = lipgloss.Color("#22d3ee")
	ColorExport    = lipgloss.Color("#16a34a")
)

// UI chrome colors.
var (
	ColorBorder  = lipgloss.Color("#4b5563")
	ColorDimmed  = lipgloss.Color("#6b7280")
	ColorBright  = lipgloss.Color("#f9fafb")
	ColorBg      = lipgloss.Color("#111827")
	ColorHealthy = lipgloss.Color("#22c55e")
	ColorWarning = lipgloss.Color("#d97706")
	ColorDanger  = lipgloss.Color("#dc2626")
)

// PhaseColor returns the color for a booth phase name.
func PhaseColor(phase string) lipgloss.Color {
	switch phase {
	case "awaiting_permission":
		return ColorGate
	case "capturing":
		return ColorCapture
	case "editing":
		return ColorEdit
	default:
		return ColorDefault
	}
}

// PhaseLabel returns the banner text for a phase name.
func PhaseLabel(phase string) string {
	switch phase {
	case "awaiting_permission":
		return "◌ WAITING FOR CAMERA"
	case "capturing":
		return "● CAPTURE"
	case "editing":
		return "✎ EDIT"
	default:
		return "· " + phase
	}
}

// FilterColor tints the filter badge.
func FilterColor(name string) lipgloss.Color {
	switch name {
	case "grayscale":
		return lipgloss.Color("#d1d5db")
	case "sepia":
		return lipgloss.Color("#b45309")
	case "vintage":
		return lipgloss.Color("#ca8a04")
	case "soft":
		return lipgloss.Color("#f9a8d4")
	default:
		return ColorDefault
	}
}

// Hex formats c as a Lip Gloss color.
func Hex(c color.Color) lipgloss.Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", n.R, n.G, n.B))
}

// Lerp mixes from toward to by t in [0,1].
func Lerp(from, to color.NRGBA, t float64) lipgloss.Color {
	t = max(0, min(1, t))
	mix := func(a, b uint8) uint8 { return uint8(float64(a) + (float64(b)-float64(a))*t + 0.5) }
	return Hex(color.NRGBA{R: mix(from.R, to.R), G: mix(from.G, to.G), B: mix(from.B, to.B), A: 255})
}

// Reusable styles.
var (
	StyleBorder = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)

	StyleDimmed = lipgloss.NewStyle().
			Foreground(ColorDimmed)

	StyleSelected = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)

	StyleError = lipgloss.NewStyle().
			Foreground(ColorDanger)
)
