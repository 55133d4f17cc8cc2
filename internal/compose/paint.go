package compose

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

// gradient is a two-stop linear gradient over r.
type gradient struct {
	from, to color.NRGBA
	r        image.Rectangle
	vertical bool
}

func (g gradient) ColorModel() color.Model { return color.NRGBAModel }
func (g gradient) Bounds() image.Rectangle { return g.r }

func (g gradient) At(x, y int) color.Color {
	var t float64
	if g.vertical {
		if g.r.Dy() > 1 {
			t = float64(y-g.r.Min.Y) / float64(g.r.Dy()-1)
		}
	} else if g.r.Dx() > 1 {
		t = float64(x-g.r.Min.X) / float64(g.r.Dx()-1)
	}
	t = math.Max(0, math.Min(1, t))
	lerp := func(a, b uint8) uint8 { return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t)) }
	return color.NRGBA{
		R: lerp(g.from.R, g.to.R),
		G: lerp(g.from.G, g.to.G),
		B: lerp(g.from.B, g.to.B),
		A: lerp(g.from.A, g.to.A),
	}
}

// fill paints src over dst inside r, through mask when it is not nil.
func fill(dst draw.Image, r image.Rectangle, src image.Image, mask image.Image) {
	if mask == nil {
		draw.Draw(dst, r, src, r.Min, draw.Over)
		return
	}
	draw.DrawMask(dst, r, src, r.Min, mask, r.Min, draw.Over)
}

func uniform(c color.NRGBA) image.Image { return image.NewUniform(c) }

// roundedRect returns a coverage mask covering r with corner radius rad.
func roundedRect(r image.Rectangle, rad float64) *image.Alpha {
	mask := image.NewAlpha(r)
	if r.Empty() {
		return mask
	}
	rad = math.Min(rad, math.Min(float64(r.Dx()), float64(r.Dy()))/2)
	z := vector.NewRasterizer(r.Dx(), r.Dy())
	var x0, y0 float32
	x1, y1 := float32(r.Dx()), float32(r.Dy())
	k := float32(rad)
	c := float32(rad * 0.4477) // 1 - 0.5523, cubic circle approximation
	z.MoveTo(x0+k, y0)
	z.LineTo(x1-k, y0)
	z.CubeTo(x1-c, y0, x1, y0+c, x1, y0+k)
	z.LineTo(x1, y1-k)
	z.CubeTo(x1, y1-c, x1-c, y1, x1-k, y1)
	z.LineTo(x0+k, y1)
	z.CubeTo(x0+c, y1, x0, y1-c, x0, y1-k)
	z.LineTo(x0, y0+k)
	z.CubeTo(x0, y0+c, x0+c, y0, x0+k, y0)
	z.ClosePath()
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	return mask
}

// shapeMask rasterizes a sticker badge of the given shape covering r.
func shapeMask(r image.Rectangle, shape string) *image.Alpha {
	mask := image.NewAlpha(r)
	if r.Empty() {
		return mask
	}
	z := vector.NewRasterizer(r.Dx(), r.Dy())
	cx := float64(r.Dx()) / 2
	cy := float64(r.Dy()) / 2
	rad := float64(min(r.Dx(), r.Dy())) / 2
	pt := func(x, y float64) (float32, float32) { return float32(x), float32(y) }

	switch shape {
	case "heart":
		s := rad
		z.MoveTo(pt(cx, cy+0.9*s))
		z.CubeTo(float32(cx-1.3*s), float32(cy+0.1*s), float32(cx-0.9*s), float32(cy-1.0*s), float32(cx), float32(cy-0.4*s))
		z.CubeTo(float32(cx+0.9*s), float32(cy-1.0*s), float32(cx+1.3*s), float32(cy+0.1*s), float32(cx), float32(cy+0.9*s))
		z.ClosePath()
	case "star":
		for i := 0; i < 10; i++ {
			rr := rad
			if i%2 == 1 {
				rr = rad * 0.45
			}
			a := -math.Pi/2 + float64(i)*math.Pi/5
			x, y := pt(cx+rr*math.Cos(a), cy+rr*math.Sin(a))
			if i == 0 {
				z.MoveTo(x, y)
			} else {
				z.LineTo(x, y)
			}
		}
		z.ClosePath()
	case "flower":
		for i := 0; i < 5; i++ {
			a := -math.Pi/2 + float64(i)*2*math.Pi/5
			circle(z, cx+rad*0.5*math.Cos(a), cy+rad*0.5*math.Sin(a), rad*0.45)
		}
		circle(z, cx, cy, rad*0.35)
	default:
		circle(z, cx, cy, rad)
	}
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	return mask
}

func circle(z *vector.Rasterizer, cx, cy, r float64) {
	const steps = 32
	for i := 0; i <= steps; i++ {
		a := 2 * math.Pi * float64(i) / steps
		x, y := float32(cx+r*math.Cos(a)), float32(cy+r*math.Sin(a))
		if i == 0 {
			z.MoveTo(x, y)
			continue
		}
		z.LineTo(x, y)
	}
	z.ClosePath()
}
