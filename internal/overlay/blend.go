package overlay

import (
	"image"
	"image/color"
)

// Blend is a separable paint compositing mode.
type Blend int

const (
	SourceOver Blend = iota
	Multiply
	Screen
	Overlay
)

func (m Blend) mix(cb, cs float64) float64 {
	switch m {
	case Multiply:
		return cb * cs
	case Screen:
		return cb + cs - cb*cs
	case Overlay:
		if cb <= 0.5 {
			return 2 * cb * cs
		}
		return 1 - 2*(1-cb)*(1-cs)
	default:
		return cs
	}
}

// paintMask composites c through mask onto dst with the given opacity and
// blend mode. dst is premultiplied; mask and dst share bounds.
func paintMask(dst *image.RGBA, mask *image.Alpha, c color.NRGBA, opacity float64, mode Blend) {
	cs := [3]float64{float64(c.R) / 255, float64(c.G) / 255, float64(c.B) / 255}
	ca := float64(c.A) / 255 * opacity
	b := dst.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		mrow := mask.Pix[mask.PixOffset(b.Min.X, y):]
		drow := dst.Pix[dst.PixOffset(b.Min.X, y):]
		for x := 0; x < b.Dx(); x++ {
			m := mrow[x]
			if m == 0 {
				continue
			}
			as := ca * float64(m) / 255
			px := drow[x*4 : x*4+4 : x*4+4]
			ab := float64(px[3]) / 255
			ao := as + ab*(1-as)
			for i := 0; i < 3; i++ {
				pb := float64(px[i]) / 255
				var cb float64
				if ab > 0 {
					cb = pb / ab
				}
				mixed := (1-ab)*cs[i] + ab*mode.mix(cb, cs[i])
				px[i] = unit8(as*mixed + (1-as)*pb)
			}
			px[3] = unit8(ao)
		}
	}
}

func unit8(v float64) uint8 {
	v = v*255 + 0.5
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	}
	return uint8(v)
}
