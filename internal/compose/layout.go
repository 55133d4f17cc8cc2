// Package compose lays out a photo strip from its parts and rasterizes the
// result. Layout is pure: it never touches the photos, stickers or drawing
// it is given, so switching templates only changes the arrangement.
package compose

import (
	"image"
	"math"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/snapstrip/photobooth/internal/catalog"
	"github.com/snapstrip/photobooth/internal/overlay"
)

// Geometry constants in base units.
const (
	DefaultWidth = 250
	StickerSize  = 32
	textMargin   = 12
	shadowOffset = 3
)

// Rect is an axis-aligned box in base units.
type Rect struct {
	X, Y, W, H float64
}

// Scaled converts r to device pixels.
func (r Rect) Scaled(s float64) image.Rectangle {
	return image.Rect(
		int(math.Round(r.X*s)), int(math.Round(r.Y*s)),
		int(math.Round((r.X+r.W)*s)), int(math.Round((r.Y+r.H)*s)),
	)
}

// Inset shrinks r by d on every side.
func (r Rect) Inset(d float64) Rect {
	return Rect{X: r.X + d, Y: r.Y + d, W: max(r.W-2*d, 0), H: max(r.H-2*d, 0)}
}

// LayerKind orders the strip's layers from back to front.
type LayerKind int

const (
	LayerBackground LayerKind = iota
	LayerFrame
	LayerPhoto
	LayerOverlay
	LayerText
	LayerDrawing
	LayerSticker
)

var layerNames = map[LayerKind]string{
	LayerBackground: "background",
	LayerFrame:      "frame",
	LayerPhoto:      "photo",
	LayerOverlay:    "overlay",
	LayerText:       "text",
	LayerDrawing:    "drawing",
	LayerSticker:    "sticker",
}

func (k LayerKind) String() string { return layerNames[k] }

// Layer is one entry of the composed stack. Only the fields relevant to
// Kind are set.
type Layer struct {
	Kind LayerKind
	Rect Rect

	Background catalog.Background
	Frame      catalog.Frame
	Photo      image.Image
	Overlay    catalog.Overlay
	Text       TextLayer
	Drawing    image.Image
	Sticker    StickerLayer
}

// TextLayer is a caption scaled from the basic 7x13 face.
type TextLayer struct {
	ID      string
	Value   string
	Scale   float64
	Color   catalog.Color
	Outline catalog.Color
	Bubble  catalog.Color
}

// StickerLayer is a sticker badge centered in its Rect.
type StickerLayer struct {
	ID    string
	Glyph string
	Shape string
	Color catalog.Color
	Label string
}

// Input is everything the strip is composed from.
type Input struct {
	Template   catalog.Template
	Background catalog.Background
	Photos     []image.Image
	// Text overrides template defaults by field id.
	Text     map[string]string
	Stickers []overlay.Sticker
	// Drawing is stretched over the whole strip; nil skips the layer.
	Drawing image.Image
	Catalog *catalog.Catalog
	// Width in base units; zero means DefaultWidth.
	Width int
}

// Composition is a laid-out strip.
type Composition struct {
	Width, Height float64
	Template      string
	Layers        []Layer
}

// Bounds returns the strip's pixel bounds at scale s.
func (c Composition) Bounds(s float64) image.Rectangle {
	return Rect{W: c.Width, H: c.Height}.Scaled(s)
}

// Count returns how many layers of kind k are present.
func (c Composition) Count(k LayerKind) int {
	n := 0
	for _, l := range c.Layers {
		if l.Kind == k {
			n++
		}
	}
	return n
}

// Layout arranges in into a layer stack: background, then each photo's
// frame, photo and overlay, then text, drawing and stickers.
func Layout(in Input) Composition {
	t := in.Template
	width := float64(in.Width)
	if width <= 0 {
		width = DefaultWidth
	}
	cols := max(t.Columns, 1)
	pad, gap := float64(t.Padding), float64(t.Gap)
	inner := float64(t.Frame.Padding + t.Frame.Border)

	cellW := max((width-2*pad-float64(cols-1)*gap)/float64(cols), 2*inner+1)
	slotW := cellW - 2*inner
	slotH := slotW * 3 / 4
	cellH := slotH + 2*inner

	rows := (max(len(in.Photos), 1) + cols - 1) / cols
	height := 2*pad + float64(rows)*cellH + float64(rows-1)*gap

	c := Composition{Width: width, Height: height, Template: t.ID}
	c.Layers = append(c.Layers, Layer{Kind: LayerBackground, Rect: Rect{W: width, H: height}, Background: in.Background})

	for i, p := range in.Photos {
		col, row := i%cols, i/cols
		cell := Rect{
			X: pad + float64(col)*(cellW+gap),
			Y: pad + float64(row)*(cellH+gap),
			W: cellW,
			H: cellH,
		}
		slot := cell.Inset(inner)
		c.Layers = append(c.Layers,
			Layer{Kind: LayerFrame, Rect: cell, Frame: t.Frame},
			Layer{Kind: LayerPhoto, Rect: slot, Photo: p},
		)
		if t.Overlay != nil {
			c.Layers = append(c.Layers, Layer{Kind: LayerOverlay, Rect: slot, Overlay: *t.Overlay})
		}
	}

	for _, f := range t.Text {
		value := f.Text
		if v, ok := in.Text[f.ID]; ok {
			value = v
		}
		if value == "" {
			continue
		}
		c.Layers = append(c.Layers, textLayer(f, value, width, height))
	}

	if in.Drawing != nil {
		c.Layers = append(c.Layers, Layer{Kind: LayerDrawing, Rect: Rect{W: width, H: height}, Drawing: in.Drawing})
	}

	cat := in.Catalog
	if cat == nil {
		cat = catalog.Default()
	}
	for _, s := range in.Stickers {
		st := cat.StickerStyle(s.Glyph)
		p := s.Position.Clamp()
		cx, cy := p.X/100*width, p.Y/100*height
		c.Layers = append(c.Layers, Layer{
			Kind: LayerSticker,
			Rect: Rect{X: cx - StickerSize/2, Y: cy - StickerSize/2, W: StickerSize, H: StickerSize},
			Sticker: StickerLayer{
				ID:    s.ID,
				Glyph: s.Glyph,
				Shape: st.Shape,
				Color: st.Color,
				Label: stickerLabel(s.Glyph, st.Label),
			},
		})
	}
	return c
}

var face = basicfont.Face7x13

// textLayer sizes and positions a caption. Captions wider than the strip
// are shrunk to fit.
func textLayer(f catalog.TextField, value string, width, height float64) Layer {
	adv := float64(font.MeasureString(face, value)) / 64
	lineH := float64(face.Height)
	scale := float64(max(f.Size, 1))
	if avail := width - 2*textMargin; adv*scale > avail && adv > 0 {
		scale = avail / adv
	}
	w, h := adv*scale, lineH*scale

	var x float64
	switch f.Align {
	case catalog.AlignLeft:
		x = textMargin
	case catalog.AlignRight:
		x = width - textMargin - w
	default:
		x = (width - w) / 2
	}
	var y float64
	off := float64(f.Offset)
	switch f.Anchor {
	case catalog.AnchorTop:
		y = off
	case catalog.AnchorMiddle:
		y = height/2 + off - h/2
	default:
		y = height - off - h
	}
	return Layer{
		Kind: LayerText,
		Rect: Rect{X: x, Y: y, W: w, H: h},
		Text: TextLayer{
			ID:      f.ID,
			Value:   value,
			Scale:   scale,
			Color:   f.Color,
			Outline: f.Outline,
			Bubble:  f.Bubble,
		},
	}
}

// stickerLabel returns up to three printable ASCII runes of glyph, or
// fallback when glyph has none (emoji).
func stickerLabel(glyph, fallback string) string {
	var b strings.Builder
	for _, r := range glyph {
		if r > ' ' && r < 0x7f {
			b.WriteRune(r)
			if b.Len() == 3 {
				break
			}
		}
	}
	if b.Len() > 0 {
		return b.String()
	}
	return fallback
}
