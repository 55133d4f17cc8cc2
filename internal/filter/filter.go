// Package filter implements the point-wise color transforms applied to a
// frame at shutter time. Every transform reads one pixel and writes the same
// pixel; no neighbour is ever sampled.
package filter

import (
	"fmt"
	"image"
	"image/draw"
	"math"
)

// Kind selects one pixel transform.
type Kind int

const (
	None Kind = iota
	Grayscale
	Sepia
	Vintage
	Soft
)

var kindNames = map[Kind]string{
	None:      "none",
	Grayscale: "grayscale",
	Sepia:     "sepia",
	Vintage:   "vintage",
	Soft:      "soft",
}

var kindFromName = map[string]Kind{
	"none":      None,
	"":          None,
	"grayscale": Grayscale,
	"sepia":     Sepia,
	"vintage":   Vintage,
	"soft":      Soft,
}

// Kinds lists every filter in menu order.
func Kinds() []Kind {
	return []Kind{None, Grayscale, Sepia, Vintage, Soft}
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// ParseKind maps a filter name to its Kind.
func ParseKind(name string) (Kind, error) {
	if k, ok := kindFromName[name]; ok {
		return k, nil
	}
	return None, fmt.Errorf("unknown filter %q", name)
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(data []byte) error {
	v, err := ParseKind(string(data))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Next cycles through Kinds.
func (k Kind) Next() Kind {
	return (k + 1) % Kind(len(kindNames))
}

// Pixel transforms a single color sample. Results are rounded to nearest and
// clamped to the 0..255 range.
func Pixel(k Kind, r, g, b uint8) (uint8, uint8, uint8) {
	fr, fg, fb := float64(r), float64(g), float64(b)
	switch k {
	case Grayscale:
		l := clamp(0.299*fr + 0.587*fg + 0.114*fb)
		return l, l, l
	case Sepia:
		return clamp(0.393*fr + 0.769*fg + 0.189*fb),
			clamp(0.349*fr + 0.686*fg + 0.168*fb),
			clamp(0.272*fr + 0.534*fg + 0.131*fb)
	case Vintage:
		return clamp(0.5*fr + 0.5*fg + 0.1*fb),
			clamp(0.2*fr + 0.7*fg + 0.1*fb),
			clamp(0.1*fr + 0.3*fg + 0.6*fb)
	case Soft:
		return clamp(1.1 * fr), clamp(1.1 * fg), clamp(0.9 * fb)
	default:
		return r, g, b
	}
}

func clamp(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// Apply writes the filtered pixels of src into dst. dst and src must have the
// same bounds; they may be the same image, since each pixel's channels are
// read before any of them is written.
func Apply(dst, src *image.NRGBA, k Kind) error {
	if dst.Bounds() != src.Bounds() {
		return fmt.Errorf("filter: bounds mismatch %v != %v", dst.Bounds(), src.Bounds())
	}
	b := src.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		si := src.PixOffset(b.Min.X, y)
		di := dst.PixOffset(b.Min.X, y)
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl := Pixel(k, src.Pix[si], src.Pix[si+1], src.Pix[si+2])
			a := src.Pix[si+3]
			dst.Pix[di], dst.Pix[di+1], dst.Pix[di+2], dst.Pix[di+3] = r, g, bl, a
			si += 4
			di += 4
		}
	}
	return nil
}

// Filtered copies img into a freshly owned NRGBA buffer anchored at the
// origin and applies k to it.
func Filtered(img image.Image, k Kind) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	if k != None {
		_ = Apply(out, out, k)
	}
	return out
}
