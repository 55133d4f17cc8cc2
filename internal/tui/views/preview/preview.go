// Package preview draws images in the terminal with half-block cells, two
// pixels per cell.
package preview

import (
	"image"
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/nfnt/resize"

	"github.com/snapstrip/photobooth/internal/tui/theme"
)

const upperHalf = "▀"

// Fit returns the cell size img occupies when scaled down to fit within
// w×h cells without changing its aspect ratio.
func Fit(img image.Image, w, h int) (cols, rows int) {
	if img == nil || w <= 0 || h <= 0 {
		return 0, 0
	}
	b := img.Bounds()
	if b.Empty() {
		return 0, 0
	}
	sx := float64(w) / float64(b.Dx())
	sy := float64(h*2) / float64(b.Dy())
	s := min(sx, sy, 1)
	cols = max(1, int(float64(b.Dx())*s))
	rows = max(1, (int(float64(b.Dy())*s)+1)/2)
	return cols, rows
}

// Render draws img scaled to fit within w×h cells.
func Render(img image.Image, w, h int) string {
	if img == nil || w <= 0 || h <= 0 || img.Bounds().Empty() {
		return ""
	}
	small := resize.Thumbnail(uint(w), uint(h*2), img, resize.Bilinear)
	b := small.Bounds()

	var sb strings.Builder
	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		if y > b.Min.Y {
			sb.WriteByte('\n')
		}
		for x := b.Min.X; x < b.Max.X; x++ {
			style := lipgloss.NewStyle().Foreground(theme.Hex(opaque(small.At(x, y))))
			if y+1 < b.Max.Y {
				style = style.Background(theme.Hex(opaque(small.At(x, y+1))))
			}
			sb.WriteString(style.Render(upperHalf))
		}
	}
	return sb.String()
}

// opaque composites c over black.
func opaque(c color.Color) color.NRGBA {
	r, g, b, _ := c.RGBA()
	return color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 255}
}
