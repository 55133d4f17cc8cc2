package session

import (
	"encoding/json"
	"fmt"
	"image"
	"maps"
	"math"

	"github.com/snapstrip/photobooth/internal/capture"
	"github.com/snapstrip/photobooth/internal/catalog"
	"github.com/snapstrip/photobooth/internal/compose"
	"github.com/snapstrip/photobooth/internal/overlay"
)

// Mode selects what pointer input does while editing. Stickers and drawing
// never receive the same gesture.
type Mode int

const (
	ModeStickers Mode = iota
	ModeDraw
)

func (m Mode) String() string {
	if m == ModeDraw {
		return "draw"
	}
	return "stickers"
}

func (m Mode) MarshalJSON() ([]byte, error) { return json.Marshal(m.String()) }

func (m *Mode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "draw" {
		*m = ModeDraw
	} else {
		*m = ModeStickers
	}
	return nil
}

// EditOptions seeds a new edit session.
type EditOptions struct {
	Template     string
	Background   string
	Brush        overlay.Brush
	HistoryLimit int
	Width        int
	Density      float64
}

// Edit is the editing state for one set of photos. It is discarded when
// the booth returns to capturing.
type Edit struct {
	cat        *catalog.Catalog
	photos     []*capture.Photo
	template   catalog.Template
	background catalog.Background
	text       map[string]string
	board      *overlay.Board
	canvas     *overlay.Canvas
	mode       Mode
	width      int
}

func newEdit(cat *catalog.Catalog, photos []*capture.Photo, opts EditOptions) (*Edit, error) {
	if cat == nil {
		cat = catalog.Default()
	}
	e := &Edit{
		cat:        cat,
		photos:     photos,
		template:   cat.Templates[0],
		background: cat.Backgrounds[0],
		text:       make(map[string]string),
		board:      overlay.NewBoard(),
		width:      opts.Width,
	}
	if opts.Template != "" {
		if err := e.SetTemplate(opts.Template); err != nil {
			return nil, err
		}
	}
	if opts.Background != "" {
		if err := e.SetBackground(opts.Background); err != nil {
			return nil, err
		}
	}
	// The canvas is sized once, from the opening template. Later layouts
	// stretch it over the strip; see toCanvas.
	c := e.Composition()
	e.canvas = overlay.NewCanvas(int(math.Ceil(c.Width)), int(math.Ceil(c.Height)), opts.Density)
	e.canvas.SetHistoryLimit(opts.HistoryLimit)
	if opts.Brush.Size > 0 {
		e.canvas.SetBrush(opts.Brush)
	}
	return e, nil
}

func (e *Edit) Template() catalog.Template     { return e.template }
func (e *Edit) Background() catalog.Background { return e.background }
func (e *Edit) Board() *overlay.Board          { return e.board }
func (e *Edit) Canvas() *overlay.Canvas        { return e.canvas }
func (e *Edit) Mode() Mode                     { return e.mode }
func (e *Edit) Catalog() *catalog.Catalog      { return e.cat }

// Photos returns the photos being edited.
func (e *Edit) Photos() []*capture.Photo {
	out := make([]*capture.Photo, len(e.photos))
	copy(out, e.photos)
	return out
}

// SetTemplate switches the layout. Photos, stickers and drawing are kept.
func (e *Edit) SetTemplate(id string) error {
	t, ok := e.cat.Template(id)
	if !ok {
		return fmt.Errorf("%w: template %q", ErrNotFound, id)
	}
	e.template = t
	return nil
}

func (e *Edit) SetBackground(id string) error {
	b, ok := e.cat.Background(id)
	if !ok {
		return fmt.Errorf("%w: background %q", ErrNotFound, id)
	}
	e.background = b
	return nil
}

// SetText overrides a caption. Overrides survive template switches and
// apply to any template with a field of the same id.
func (e *Edit) SetText(id, value string) error {
	if id == "" {
		return fmt.Errorf("%w: empty text field id", ErrNotFound)
	}
	e.text[id] = value
	return nil
}

// ResetText restores a caption to the template default.
func (e *Edit) ResetText(id string) {
	delete(e.text, id)
}

// Text returns the caption shown for field id.
func (e *Edit) Text(id string) string {
	if v, ok := e.text[id]; ok {
		return v
	}
	for _, f := range e.template.Text {
		if f.ID == id {
			return f.Text
		}
	}
	return ""
}

// SetMode switches between sticker and drawing input, abandoning any
// gesture in progress.
func (e *Edit) SetMode(m Mode) {
	e.board.Cancel()
	e.canvas.EndStroke()
	e.mode = m
}

// Press starts a gesture at p (base units). In sticker mode it picks up
// the top-most sticker under p; in draw mode it starts a stroke.
func (e *Edit) Press(p overlay.Point) bool {
	if e.mode == ModeDraw {
		e.canvas.BeginStroke(e.toCanvas(p))
		return true
	}
	id, ok := e.HitTest(p)
	if !ok {
		return false
	}
	return e.board.PointerDown(id)
}

// Drag continues the gesture.
func (e *Edit) Drag(p overlay.Point) bool {
	if e.mode == ModeDraw {
		return e.canvas.StrokeTo(e.toCanvas(p))
	}
	w, h := e.Size()
	pos := overlay.PercentAt(image.Pt(int(math.Round(p.X)), int(math.Round(p.Y))), image.Rect(0, 0, int(math.Round(w)), int(math.Round(h))))
	return e.board.PointerMove(pos.X, pos.Y)
}

// toCanvas maps strip coordinates onto the canvas, which keeps the size of
// the opening template. Drawing therefore stays anchored to relative strip
// positions across template swaps, the same way stickers are.
func (e *Edit) toCanvas(p overlay.Point) overlay.Point {
	w, h := e.Size()
	if w <= 0 || h <= 0 {
		return p
	}
	px, d := e.canvas.Size(), e.canvas.Density()
	return overlay.Point{X: p.X * float64(px.X) / d / w, Y: p.Y * float64(px.Y) / d / h}
}

// Release ends the gesture.
func (e *Edit) Release() {
	if e.mode == ModeDraw {
		e.canvas.EndStroke()
		return
	}
	e.board.PointerUp()
}

// HitTest returns the top-most sticker whose badge contains p.
func (e *Edit) HitTest(p overlay.Point) (string, bool) {
	c := e.Composition()
	for i := len(c.Layers) - 1; i >= 0; i-- {
		l := c.Layers[i]
		if l.Kind != compose.LayerSticker {
			continue
		}
		r := l.Rect
		if p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H {
			return l.Sticker.ID, true
		}
	}
	return "", false
}

// Size returns the composed strip size in base units.
func (e *Edit) Size() (w, h float64) {
	c := compose.Layout(e.input(false))
	return c.Width, c.Height
}

// Composition lays out the strip as it currently stands.
func (e *Edit) Composition() compose.Composition {
	return compose.Layout(e.input(true))
}

func (e *Edit) input(withDrawing bool) compose.Input {
	photos := make([]image.Image, len(e.photos))
	for i, p := range e.photos {
		if p != nil && p.Image != nil {
			photos[i] = p.Image
		}
	}
	in := compose.Input{
		Template:   e.template,
		Background: e.background,
		Photos:     photos,
		Text:       maps.Clone(e.text),
		Stickers:   e.board.Stickers(),
		Catalog:    e.cat,
		Width:      e.width,
	}
	if s, ok := e.board.Candidate(); ok {
		for i := range in.Stickers {
			if in.Stickers[i].ID == s.ID {
				in.Stickers[i] = s
			}
		}
	}
	if withDrawing && e.canvas != nil && !e.canvas.Empty() {
		in.Drawing = e.canvas.Image()
	}
	return in
}

// State summarises the edit session.
func (e *Edit) State() *EditState {
	w, h := e.Size()
	return &EditState{
		Template:   e.template.ID,
		Background: e.background.ID,
		Text:       maps.Clone(e.text),
		Stickers:   e.board.Stickers(),
		Brush:      e.canvas.Brush(),
		Mode:       e.mode,
		CanUndo:    e.canvas.CanUndo(),
		CanRedo:    e.canvas.CanRedo(),
		Width:      w,
		Height:     h,
	}
}
