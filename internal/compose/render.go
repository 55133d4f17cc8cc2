package compose

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/snapstrip/photobooth/internal/catalog"
)

var catalogBlack = catalog.Color{A: 0xff}

// ErrEmpty is returned when a composition has no area to render.
var ErrEmpty = errors.New("compose: empty composition")

// Render rasterizes c with every base unit mapped to scale pixels.
func Render(c Composition, scale float64) (*image.RGBA, error) {
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return nil, fmt.Errorf("compose: invalid scale %v", scale)
	}
	bounds := c.Bounds(scale)
	if bounds.Empty() {
		return nil, ErrEmpty
	}
	dst := image.NewRGBA(bounds)
	for i, l := range c.Layers {
		if err := renderLayer(dst, l, scale); err != nil {
			return nil, fmt.Errorf("compose: %s layer %d: %w", l.Kind, i, err)
		}
	}
	return dst, nil
}

func renderLayer(dst *image.RGBA, l Layer, s float64) error {
	r := l.Rect.Scaled(s)
	switch l.Kind {
	case LayerBackground:
		bg := l.Background
		var src image.Image = uniform(bg.From.NRGBA())
		if !bg.Solid() {
			src = gradient{from: bg.From.NRGBA(), to: bg.To.NRGBA(), r: r}
		}
		fill(dst, r, src, nil)

	case LayerFrame:
		f := l.Frame
		rad := float64(f.Radius) * s
		if f.Shadow {
			sr := r.Add(image.Pt(0, int(math.Round(shadowOffset*s))))
			fill(dst, sr, uniform(color.NRGBA{A: 0x30}), roundedRect(sr, rad))
		}
		if f.Border > 0 {
			fill(dst, r, uniform(f.BorderColor.NRGBA()), roundedRect(r, rad))
			r = l.Rect.Inset(float64(f.Border)).Scaled(s)
			rad = math.Max(rad-float64(f.Border)*s, 0)
		}
		var src image.Image = uniform(f.Fill.NRGBA())
		if len(f.Gradient) >= 2 {
			src = gradient{from: f.Gradient[0].NRGBA(), to: f.Gradient[1].NRGBA(), r: r, vertical: true}
		}
		fill(dst, r, src, roundedRect(r, rad))

	case LayerPhoto:
		if l.Photo == nil {
			return errors.New("photo unavailable")
		}
		drawCover(dst, r, l.Photo)

	case LayerOverlay:
		o := l.Overlay
		fill(dst, r, gradient{from: o.From.NRGBA(), to: o.To.NRGBA(), r: r, vertical: true}, nil)

	case LayerText:
		drawText(dst, r, l.Text, s)

	case LayerDrawing:
		if l.Drawing == nil {
			return errors.New("drawing unavailable")
		}
		draw.ApproxBiLinear.Scale(dst, r, l.Drawing, l.Drawing.Bounds(), draw.Over, nil)

	case LayerSticker:
		st := l.Sticker
		sr := r.Add(image.Pt(0, int(math.Round(s))))
		fill(dst, sr, uniform(color.NRGBA{A: 0x40}), shapeMask(sr, st.Shape))
		fill(dst, r, uniform(st.Color.NRGBA()), shapeMask(r, st.Shape))
		drawLabel(dst, r, st.Label, labelColor(st.Color))
	}
	return nil
}

// labelHeight is the label's cap height as a fraction of the sticker.
const labelHeight = 0.35

// drawLabel centers label inside r, no wider than 80% of r.
func drawLabel(dst *image.RGBA, r image.Rectangle, label string, col color.NRGBA) {
	adv := font.MeasureString(face, label).Ceil()
	if label == "" || adv <= 0 || r.Empty() {
		return
	}
	glyphs := image.NewAlpha(image.Rect(0, 0, adv, face.Height))
	d := font.Drawer{Dst: glyphs, Src: image.Opaque, Face: face, Dot: fixed.P(0, face.Ascent)}
	d.DrawString(label)

	h := float64(r.Dy()) * labelHeight
	w := h * float64(adv) / float64(face.Height)
	if limit := float64(r.Dx()) * 0.8; w > limit {
		h *= limit / w
		w = limit
	}
	c := image.Pt((r.Min.X+r.Max.X)/2, (r.Min.Y+r.Max.Y)/2)
	lr := image.Rect(c.X-int(w/2), c.Y-int(h/2), c.X+int(math.Ceil(w/2)), c.Y+int(math.Ceil(h/2)))
	if lr.Empty() {
		return
	}
	mask := image.NewAlpha(lr)
	draw.CatmullRom.Scale(mask, lr, glyphs, glyphs.Bounds(), draw.Src, nil)
	draw.DrawMask(dst, lr, uniform(col), image.Point{}, mask, lr.Min, draw.Over)
}

// labelColor picks white on dark badges and near-black on light ones.
func labelColor(bg catalog.Color) color.NRGBA {
	y := 0.299*float64(bg.R) + 0.587*float64(bg.G) + 0.114*float64(bg.B)
	if y < 150 {
		return color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	}
	return color.NRGBA{R: 0x11, G: 0x18, B: 0x27, A: 0xff}
}

// drawCover scales src to fill r, cropping the overflowing axis around the
// center.
func drawCover(dst draw.Image, r image.Rectangle, src image.Image) {
	sb := src.Bounds()
	if r.Empty() || sb.Empty() {
		return
	}
	want := float64(r.Dx()) / float64(r.Dy())
	have := float64(sb.Dx()) / float64(sb.Dy())
	crop := sb
	if have > want {
		w := int(math.Round(float64(sb.Dy()) * want))
		crop.Min.X = sb.Min.X + (sb.Dx()-w)/2
		crop.Max.X = crop.Min.X + w
	} else if have < want {
		h := int(math.Round(float64(sb.Dx()) / want))
		crop.Min.Y = sb.Min.Y + (sb.Dy()-h)/2
		crop.Max.Y = crop.Min.Y + h
	}
	draw.CatmullRom.Scale(dst, r, src, crop, draw.Over, nil)
}

// drawText renders t at 1x into a mask and scales it into r.
func drawText(dst *image.RGBA, r image.Rectangle, t TextLayer, s float64) {
	if r.Empty() {
		return
	}
	if !t.Bubble.IsZero() {
		pad := int(math.Round(6 * s))
		br := r.Inset(-pad)
		fill(dst, br, uniform(t.Bubble.NRGBA()), roundedRect(br, 8*s))
	}

	adv := font.MeasureString(face, t.Value).Ceil()
	glyphs := image.NewAlpha(image.Rect(0, 0, max(adv, 1), face.Height))
	d := font.Drawer{
		Dst:  glyphs,
		Src:  image.Opaque,
		Face: face,
		Dot:  fixed.P(0, face.Ascent),
	}
	d.DrawString(t.Value)

	mask := image.NewAlpha(r)
	draw.CatmullRom.Scale(mask, r, glyphs, glyphs.Bounds(), draw.Src, nil)

	if !t.Outline.IsZero() {
		w := max(int(math.Round(t.Scale*s/2)), 1)
		for _, o := range []image.Point{{-w, 0}, {w, 0}, {0, -w}, {0, w}, {-w, -w}, {w, w}, {-w, w}, {w, -w}} {
			or := r.Add(o)
			draw.DrawMask(dst, or, uniform(t.Outline.NRGBA()), image.Point{}, mask, r.Min, draw.Over)
		}
	}
	col := t.Color
	if col.IsZero() {
		col = catalogBlack
	}
	draw.DrawMask(dst, r, uniform(col.NRGBA()), image.Point{}, mask, r.Min, draw.Over)
}
