package overlay

import (
	"image"
	"image/draw"
	"math"

	"golang.org/x/image/vector"
)

// Point is a canvas position in base units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

const capSteps = 12

// strokeMask rasterizes the polyline pts with round caps and joins into an
// alpha mask of the given size. Coordinates are in device pixels.
func strokeMask(size image.Point, pts []Point, width float64) *image.Alpha {
	mask := image.NewAlpha(image.Rectangle{Max: size})
	if len(pts) == 0 || size.X == 0 || size.Y == 0 {
		return mask
	}
	r := vector.NewRasterizer(size.X, size.Y)
	r.DrawOp = draw.Src
	radius := math.Max(width/2, 0.5)
	if len(pts) == 1 {
		capsule(r, pts[0], pts[0], radius)
	}
	for i := 1; i < len(pts); i++ {
		capsule(r, pts[i-1], pts[i], radius)
	}
	r.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	return mask
}

// capsule adds a round-capped segment from a to b. Every capsule is traced
// with the same winding so overlapping segments accumulate as a union.
func capsule(r *vector.Rasterizer, a, b Point, radius float64) {
	dir := math.Atan2(b.Y-a.Y, b.X-a.X)
	first := true
	arc := func(c Point, from float64) {
		for i := 0; i <= capSteps; i++ {
			t := from + math.Pi*float64(i)/capSteps
			x := float32(c.X + radius*math.Cos(t))
			y := float32(c.Y + radius*math.Sin(t))
			if first {
				r.MoveTo(x, y)
				first = false
				continue
			}
			r.LineTo(x, y)
		}
	}
	arc(b, dir-math.Pi/2)
	arc(a, dir+math.Pi/2)
	r.ClosePath()
}

// boxBlur spreads mask by radius pixels with two separable box passes.
func boxBlur(mask *image.Alpha, radius int) *image.Alpha {
	if radius <= 0 {
		return mask
	}
	w, h := mask.Rect.Dx(), mask.Rect.Dy()
	tmp := make([]float64, w*h)
	out := image.NewAlpha(mask.Rect)
	span := float64(2*radius + 1)
	for y := 0; y < h; y++ {
		row := mask.Pix[y*mask.Stride:]
		sum := 0.0
		for x := -radius; x <= radius; x++ {
			sum += float64(row[min(max(x, 0), w-1)])
		}
		for x := 0; x < w; x++ {
			tmp[y*w+x] = sum / span
			sum += float64(row[min(x+radius+1, w-1)]) - float64(row[max(x-radius, 0)])
		}
	}
	for x := 0; x < w; x++ {
		sum := 0.0
		for y := -radius; y <= radius; y++ {
			sum += tmp[min(max(y, 0), h-1)*w+x]
		}
		for y := 0; y < h; y++ {
			out.Pix[y*out.Stride+x] = uint8(math.Min(sum/span+0.5, 255))
			sum += tmp[min(y+radius+1, h-1)*w+x] - tmp[max(y-radius, 0)*w+x]
		}
	}
	return out
}
