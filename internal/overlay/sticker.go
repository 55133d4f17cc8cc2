// Package overlay holds the editable layers drawn over a photo strip: the
// sticker board and the freehand drawing canvas.
package overlay

import (
	"image"
	"slices"

	"github.com/google/uuid"
)

// Position is a point in percent of the template's width and height.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Clamp limits both axes to [0,100] independently.
func (p Position) Clamp() Position {
	return Position{X: clampPercent(p.X), Y: clampPercent(p.Y)}
}

func clampPercent(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}

// Center is where new stickers are placed.
var Center = Position{X: 50, Y: 50}

// Sticker is one glyph placed on the template.
type Sticker struct {
	ID       string   `json:"id"`
	Glyph    string   `json:"glyph"`
	Position Position `json:"position"`
}

// Board tracks sticker placements and the pointer drag in progress. Only
// one sticker can be dragged at a time; the candidate position follows the
// pointer unclamped and is clamped when the drag is committed.
type Board struct {
	stickers []Sticker
	drag     *drag
}

type drag struct {
	id  string
	pos Position
}

func NewBoard() *Board { return &Board{} }

// Add places glyph at the center and returns the placement.
func (b *Board) Add(glyph string) Sticker {
	s := Sticker{ID: uuid.NewString(), Glyph: glyph, Position: Center}
	b.stickers = append(b.stickers, s)
	return s
}

// Remove deletes the sticker with id. A drag on it is cancelled.
func (b *Board) Remove(id string) bool {
	i := b.index(id)
	if i < 0 {
		return false
	}
	b.stickers = slices.Delete(b.stickers, i, i+1)
	if b.drag != nil && b.drag.id == id {
		b.drag = nil
	}
	return true
}

// Move places the sticker at (x, y), clamped to the template.
func (b *Board) Move(id string, x, y float64) (Sticker, bool) {
	i := b.index(id)
	if i < 0 {
		return Sticker{}, false
	}
	b.stickers[i].Position = Position{X: x, Y: y}.Clamp()
	return b.stickers[i], true
}

// Nudge moves the sticker by (dx, dy) percent, clamped.
func (b *Board) Nudge(id string, dx, dy float64) (Sticker, bool) {
	s, ok := b.Get(id)
	if !ok {
		return Sticker{}, false
	}
	return b.Move(id, s.Position.X+dx, s.Position.Y+dy)
}

// Get returns the committed placement of id.
func (b *Board) Get(id string) (Sticker, bool) {
	i := b.index(id)
	if i < 0 {
		return Sticker{}, false
	}
	return b.stickers[i], true
}

// Stickers returns the committed placements in insertion order.
func (b *Board) Stickers() []Sticker {
	return slices.Clone(b.stickers)
}

// Len returns the number of placed stickers.
func (b *Board) Len() int { return len(b.stickers) }

// PointerDown starts dragging id.
func (b *Board) PointerDown(id string) bool {
	s, ok := b.Get(id)
	if !ok {
		return false
	}
	b.drag = &drag{id: id, pos: s.Position}
	return true
}

// PointerMove updates the drag candidate. Positions outside the template
// are kept until the drag is committed.
func (b *Board) PointerMove(x, y float64) bool {
	if b.drag == nil {
		return false
	}
	b.drag.pos = Position{X: x, Y: y}
	return true
}

// Candidate returns the sticker being dragged at its current pointer
// position, clamped for display.
func (b *Board) Candidate() (Sticker, bool) {
	if b.drag == nil {
		return Sticker{}, false
	}
	s, ok := b.Get(b.drag.id)
	if !ok {
		return Sticker{}, false
	}
	s.Position = b.drag.pos.Clamp()
	return s, true
}

// PointerUp commits the drag.
func (b *Board) PointerUp() (Sticker, bool) {
	if b.drag == nil {
		return Sticker{}, false
	}
	d := b.drag
	b.drag = nil
	return b.Move(d.id, d.pos.X, d.pos.Y)
}

// Cancel abandons the drag, leaving the sticker where it was.
func (b *Board) Cancel() {
	b.drag = nil
}

// Dragging reports whether a drag is in progress.
func (b *Board) Dragging() bool { return b.drag != nil }

// Clear removes every sticker.
func (b *Board) Clear() {
	b.stickers = nil
	b.drag = nil
}

func (b *Board) index(id string) int {
	return slices.IndexFunc(b.stickers, func(s Sticker) bool { return s.ID == id })
}

// PercentAt converts a pixel position on a template rendered into bounds
// to percent coordinates. The result is not clamped.
func PercentAt(pt image.Point, bounds image.Rectangle) Position {
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return Center
	}
	return Position{
		X: float64(pt.X-bounds.Min.X) / float64(bounds.Dx()) * 100,
		Y: float64(pt.Y-bounds.Min.Y) / float64(bounds.Dy()) * 100,
	}
}
