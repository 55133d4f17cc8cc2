package compose

import (
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapstrip/photobooth/internal/catalog"
	"github.com/snapstrip/photobooth/internal/overlay"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func template(t *testing.T, id string) catalog.Template {
	t.Helper()
	tpl, ok := catalog.Default().Template(id)
	require.True(t, ok, id)
	return tpl
}

func background(t *testing.T, id string) catalog.Background {
	t.Helper()
	bg, ok := catalog.Default().Background(id)
	require.True(t, ok, id)
	return bg
}

func kinds(c Composition) []LayerKind {
	out := make([]LayerKind, len(c.Layers))
	for i, l := range c.Layers {
		out[i] = l.Kind
	}
	return out
}

var red = color.NRGBA{R: 255, A: 255}

func TestLayoutZOrder(t *testing.T) {
	in := Input{
		Template:   template(t, "magazine-cover"),
		Background: background(t, "white"),
		Photos:     []image.Image{solid(8, 6, red), solid(8, 6, red)},
		Stickers:   []overlay.Sticker{{ID: "a", Glyph: "💙", Position: overlay.Center}, {ID: "b", Glyph: "🌸"}},
		Drawing:    image.NewRGBA(image.Rect(0, 0, 10, 10)),
	}
	c := Layout(in)

	assert.Equal(t, []LayerKind{
		LayerBackground,
		LayerFrame, LayerPhoto, LayerOverlay,
		LayerFrame, LayerPhoto, LayerOverlay,
		LayerText, LayerText, LayerText,
		LayerDrawing,
		LayerSticker, LayerSticker,
	}, kinds(c))
	assert.Equal(t, "magazine-cover", c.Template)
}

func TestLayoutSkipsOptionalLayers(t *testing.T) {
	c := Layout(Input{
		Template:   template(t, "classic-strip"),
		Background: background(t, "white"),
		Photos:     []image.Image{solid(4, 3, red)},
	})
	assert.Equal(t, []LayerKind{LayerBackground, LayerFrame, LayerPhoto}, kinds(c))
}

func TestTemplateSwapKeepsInputs(t *testing.T) {
	photos := []image.Image{solid(8, 6, red), solid(8, 6, red), solid(8, 6, red)}
	stickers := []overlay.Sticker{{ID: "s", Glyph: "✨", Position: overlay.Position{X: 10, Y: 90}}}
	drawing := image.NewRGBA(image.Rect(0, 0, 4, 4))
	in := Input{
		Background: background(t, "gradient1"),
		Photos:     photos,
		Stickers:   stickers,
		Drawing:    drawing,
	}

	for _, tpl := range catalog.Default().Templates {
		in.Template = tpl
		c := Layout(in)
		assert.Equal(t, 3, c.Count(LayerPhoto), tpl.ID)
		assert.Equal(t, 1, c.Count(LayerSticker), tpl.ID)
		assert.Equal(t, 1, c.Count(LayerDrawing), tpl.ID)

		var got []image.Image
		for _, l := range c.Layers {
			if l.Kind == LayerPhoto {
				got = append(got, l.Photo)
			}
		}
		assert.Equal(t, photos, got, tpl.ID)
	}
	assert.Equal(t, overlay.Position{X: 10, Y: 90}, stickers[0].Position)
	assert.Len(t, photos, 3)
}

func TestLayoutGeometry(t *testing.T) {
	photos := []image.Image{solid(4, 3, red), solid(4, 3, red), solid(4, 3, red), solid(4, 3, red)}
	c := Layout(Input{Template: template(t, "classic-strip"), Background: background(t, "white"), Photos: photos})

	assert.Equal(t, 250.0, c.Width)
	// 2*8 padding + 4 rows of 234x175.5 + 3 gaps of 8.
	assert.InDelta(t, 742.0, c.Height, 1e-9)

	var slots []Rect
	for _, l := range c.Layers {
		if l.Kind == LayerPhoto {
			slots = append(slots, l.Rect)
		}
	}
	require.Len(t, slots, 4)
	assert.Equal(t, Rect{X: 8, Y: 8, W: 234, H: 175.5}, slots[0])
	assert.InDelta(t, 8+3*(175.5+8), slots[3].Y, 1e-9)
	for _, s := range slots {
		assert.InDelta(t, 4.0/3.0, s.W/s.H, 1e-9)
	}
}

func TestLayoutTwoColumns(t *testing.T) {
	photos := []image.Image{solid(4, 3, red), solid(4, 3, red), solid(4, 3, red)}
	c := Layout(Input{Template: template(t, "polaroid-collage"), Background: background(t, "white"), Photos: photos})

	var frames []Rect
	for _, l := range c.Layers {
		if l.Kind == LayerFrame {
			frames = append(frames, l.Rect)
		}
	}
	require.Len(t, frames, 3)
	assert.Equal(t, frames[0].Y, frames[1].Y)
	assert.Greater(t, frames[1].X, frames[0].X)
	assert.Equal(t, frames[0].X, frames[2].X)
	assert.Greater(t, frames[2].Y, frames[0].Y)
	assert.LessOrEqual(t, frames[1].X+frames[1].W, c.Width)
}

func TestLayoutWithoutPhotosKeepsArea(t *testing.T) {
	c := Layout(Input{Template: template(t, "classic-strip"), Background: background(t, "white")})
	assert.Greater(t, c.Height, 0.0)
	assert.Equal(t, 0, c.Count(LayerFrame))
}

func TestStickerPlacement(t *testing.T) {
	c := Layout(Input{
		Template:   template(t, "classic-strip"),
		Background: background(t, "white"),
		Photos:     []image.Image{solid(4, 3, red)},
		Stickers:   []overlay.Sticker{{ID: "x", Glyph: "💙", Position: overlay.Position{X: 150, Y: 0}}},
	})
	l := c.Layers[len(c.Layers)-1]
	require.Equal(t, LayerSticker, l.Kind)
	assert.Equal(t, c.Width, l.Rect.X+l.Rect.W/2)
	assert.Equal(t, 0.0, l.Rect.Y+l.Rect.H/2)
	assert.Equal(t, "heart", l.Sticker.Shape)
}

func TestTextOverrides(t *testing.T) {
	in := Input{
		Template:   template(t, "magazine-cover"),
		Background: background(t, "white"),
		Text:       map[string]string{"title": "HELLO", "subtitle": ""},
	}
	c := Layout(in)

	var texts []TextLayer
	for _, l := range c.Layers {
		if l.Kind == LayerText {
			texts = append(texts, l.Text)
		}
	}
	require.Len(t, texts, 2, "empty override hides the field")
	assert.Equal(t, "HELLO", texts[0].Value)
	assert.Equal(t, "The Next Icon", texts[1].Value)
}

func TestTextShrinksToFit(t *testing.T) {
	f := catalog.TextField{ID: "t", Size: 4, Anchor: catalog.AnchorBottom, Offset: 10, Align: catalog.AlignCenter}
	l := textLayer(f, strings.Repeat("W", 40), 250, 500)
	assert.InDelta(t, 250-2*textMargin, l.Rect.W, 1e-9)
	assert.InDelta(t, (250-l.Rect.W)/2, l.Rect.X, 1e-9)
	assert.InDelta(t, 500-10-l.Rect.H, l.Rect.Y, 1e-9)

	top := textLayer(catalog.TextField{Size: 1, Anchor: catalog.AnchorTop, Offset: 16, Align: catalog.AlignRight}, "1960s", 250, 500)
	assert.Equal(t, 16.0, top.Rect.Y)
	assert.InDelta(t, 250-textMargin, top.Rect.X+top.Rect.W, 1e-9)
	assert.Equal(t, 35.0, top.Rect.W)
}

func TestRender(t *testing.T) {
	c := Layout(Input{
		Template:   template(t, "classic-strip"),
		Background: background(t, "black"),
		Photos:     []image.Image{solid(40, 30, red)},
		Stickers:   []overlay.Sticker{{ID: "s", Glyph: "💙", Position: overlay.Position{X: 50, Y: 90}}},
	})
	img, err := Render(c, 2)
	require.NoError(t, err)
	assert.Equal(t, c.Bounds(2), img.Bounds())

	assert.Equal(t, color.RGBA{A: 255}, img.RGBAAt(4, 4), "background")
	assert.Equal(t, color.RGBA{R: 255, A: 255}, img.RGBAAt(250, 100), "photo")

	blue := catalog.Default().StickerStyle("💙").Color.NRGBA()
	cx, cy := 250, int(c.Height*0.9*2)
	assert.Equal(t, color.RGBA{R: blue.R, G: blue.G, B: blue.B, A: 255}, img.RGBAAt(cx-14, cy-16), "sticker")
}

func TestStickerLabel(t *testing.T) {
	tests := []struct {
		glyph, fallback, want string
	}{
		{"💙", "<3", "<3"},
		{"🐙", "", ""},
		{"hi", "+", "hi"},
		{"★ok!?", "*", "ok!"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stickerLabel(tt.glyph, tt.fallback), tt.glyph)
	}
}

func TestRenderStickerLabel(t *testing.T) {
	c := Layout(Input{
		Template:   template(t, "classic-strip"),
		Background: background(t, "black"),
		Photos:     []image.Image{solid(40, 30, red)},
		Stickers:   []overlay.Sticker{{ID: "s", Glyph: "💙", Position: overlay.Position{X: 50, Y: 90}}},
	})
	l := c.Layers[len(c.Layers)-1]
	require.Equal(t, "<3", l.Sticker.Label)

	img, err := Render(c, 2)
	require.NoError(t, err)
	light := 0
	r := l.Rect.Scaled(2)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if px := img.RGBAAt(x, y); px.R > 200 && px.G > 200 {
				light++
			}
		}
	}
	assert.Positive(t, light, "label printed on the badge")
}

func TestRenderDrawingLayer(t *testing.T) {
	blue := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for i := 0; i < len(blue.Pix); i += 4 {
		blue.Pix[i+2], blue.Pix[i+3] = 255, 255
	}
	c := Layout(Input{
		Template:   template(t, "classic-strip"),
		Background: background(t, "white"),
		Photos:     []image.Image{solid(4, 3, red)},
		Drawing:    blue,
	})
	img, err := Render(c, 1)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{B: 255, A: 255}, img.RGBAAt(2, 2))
	assert.Equal(t, color.RGBA{B: 255, A: 255}, img.RGBAAt(120, 80))
}

func TestRenderFailures(t *testing.T) {
	c := Layout(Input{Template: template(t, "classic-strip"), Background: background(t, "white"), Photos: []image.Image{nil}})
	_, err := Render(c, 1)
	assert.Error(t, err)

	_, err = Render(Composition{}, 1)
	assert.ErrorIs(t, err, ErrEmpty)

	ok := Layout(Input{Template: template(t, "classic-strip"), Background: background(t, "white")})
	_, err = Render(ok, 0)
	assert.Error(t, err)
}

func TestDrawCoverCropsCenter(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 400, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 400; x++ {
			c := color.NRGBA{B: 255, A: 255}
			if x >= 100 && x < 300 {
				c = red
			}
			src.SetNRGBA(x, y, c)
		}
	}
	dst := image.NewRGBA(image.Rect(0, 0, 40, 30))
	drawCover(dst, dst.Bounds(), src)

	for _, p := range []image.Point{{0, 0}, {39, 0}, {20, 15}, {0, 29}, {39, 29}} {
		assert.Equal(t, color.RGBA{R: 255, A: 255}, dst.RGBAAt(p.X, p.Y), "%v", p)
	}
}

func TestGradient(t *testing.T) {
	g := gradient{from: color.NRGBA{A: 255}, to: color.NRGBA{R: 255, A: 255}, r: image.Rect(0, 0, 11, 1)}
	assert.Equal(t, color.NRGBA{A: 255}, g.At(0, 0))
	assert.Equal(t, color.NRGBA{R: 128, A: 255}, g.At(5, 0))
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, g.At(10, 0))
}
