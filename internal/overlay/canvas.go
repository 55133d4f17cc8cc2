package overlay

import (
	"image"
	"math"
	"slices"
)

// Canvas is the freehand drawing layer. Its raster matches the rendered
// template scaled by the display density. Every stroke is preceded by a
// snapshot of the raster on the undo stack; a new stroke discards the redo
// stack.
type Canvas struct {
	img     *image.RGBA
	density float64
	brush   Brush
	limit   int

	undo [][]byte
	redo [][]byte

	stroke *stroke
}

type stroke struct {
	base  []byte
	pts   []Point
	paint paint
	brush Brush
}

// NewCanvas creates a transparent canvas of w×h base units.
func NewCanvas(w, h int, density float64) *Canvas {
	if density <= 0 {
		density = 1
	}
	pw := int(math.Round(float64(w) * density))
	ph := int(math.Round(float64(h) * density))
	return &Canvas{
		img:     image.NewRGBA(image.Rect(0, 0, max(pw, 1), max(ph, 1))),
		density: density,
		brush:   DefaultBrush(),
	}
}

// SetHistoryLimit bounds the undo stack; 0 means unbounded.
func (c *Canvas) SetHistoryLimit(n int) {
	c.limit = max(n, 0)
	c.trim()
}

func (c *Canvas) SetBrush(b Brush) {
	b.Size = clampSize(b.Size)
	c.brush = b
}

func (c *Canvas) Brush() Brush { return c.brush }

func (c *Canvas) Density() float64 { return c.density }

// Size returns the raster size in device pixels.
func (c *Canvas) Size() image.Point { return c.img.Rect.Size() }

// BeginStroke snapshots the raster and starts a stroke at p.
func (c *Canvas) BeginStroke(p Point) {
	if c.stroke != nil {
		c.EndStroke()
	}
	c.push()
	c.redo = nil
	c.stroke = &stroke{
		base:  slices.Clone(c.img.Pix),
		pts:   []Point{c.device(p)},
		paint: c.brush.paint(),
		brush: c.brush,
	}
	c.render()
}

// StrokeTo extends the current stroke with a segment to p.
func (c *Canvas) StrokeTo(p Point) bool {
	if c.stroke == nil {
		return false
	}
	c.stroke.pts = append(c.stroke.pts, c.device(p))
	c.render()
	return true
}

// EndStroke finishes the current stroke.
func (c *Canvas) EndStroke() {
	c.stroke = nil
}

// Drawing reports whether a stroke is in progress.
func (c *Canvas) Drawing() bool { return c.stroke != nil }

// Undo restores the snapshot taken before the most recent stroke.
func (c *Canvas) Undo() bool {
	c.EndStroke()
	if len(c.undo) == 0 {
		return false
	}
	c.redo = append(c.redo, slices.Clone(c.img.Pix))
	last := c.undo[len(c.undo)-1]
	c.undo = c.undo[:len(c.undo)-1]
	copy(c.img.Pix, last)
	return true
}

// Redo reapplies the most recently undone stroke.
func (c *Canvas) Redo() bool {
	c.EndStroke()
	if len(c.redo) == 0 {
		return false
	}
	c.push()
	last := c.redo[len(c.redo)-1]
	c.redo = c.redo[:len(c.redo)-1]
	copy(c.img.Pix, last)
	return true
}

// Clear wipes the raster and both history stacks.
func (c *Canvas) Clear() {
	c.stroke = nil
	clear(c.img.Pix)
	c.undo = nil
	c.redo = nil
}

func (c *Canvas) CanUndo() bool { return len(c.undo) > 0 }
func (c *Canvas) CanRedo() bool { return len(c.redo) > 0 }

// Empty reports whether nothing is painted.
func (c *Canvas) Empty() bool {
	for i := 3; i < len(c.img.Pix); i += 4 {
		if c.img.Pix[i] != 0 {
			return false
		}
	}
	return true
}

// Image returns a copy of the raster.
func (c *Canvas) Image() *image.RGBA {
	out := image.NewRGBA(c.img.Rect)
	copy(out.Pix, c.img.Pix)
	return out
}

func (c *Canvas) device(p Point) Point {
	return Point{X: p.X * c.density, Y: p.Y * c.density}
}

func (c *Canvas) push() {
	c.undo = append(c.undo, slices.Clone(c.img.Pix))
	c.trim()
}

func (c *Canvas) trim() {
	if c.limit > 0 && len(c.undo) > c.limit {
		c.undo = slices.Delete(c.undo, 0, len(c.undo)-c.limit)
	}
}

// render repaints the whole stroke over its base snapshot so overlapping
// segments of one stroke do not stack their opacity.
func (c *Canvas) render() {
	s := c.stroke
	copy(c.img.Pix, s.base)
	width := s.paint.width * c.density
	mask := strokeMask(c.img.Rect.Size(), s.pts, width)
	if s.paint.glow > 0 {
		glow := boxBlur(strokeMask(c.img.Rect.Size(), s.pts, width+s.paint.glow*c.density/2), int(s.paint.glow*c.density/4))
		paintMask(c.img, glow, s.brush.Color, s.paint.opacity/2, s.paint.blend)
	}
	paintMask(c.img, mask, s.brush.Color, s.paint.opacity, s.paint.blend)
}
