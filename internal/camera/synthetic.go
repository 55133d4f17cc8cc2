package camera

import (
	"context"
	"image"
	"image/color"
	"sync"
	"time"
)

// Synthetic is a Device producing an animated test pattern: classic color
// bars with a sweeping highlight band. It stands in for a webcam on hosts
// without one and is what the booth uses by default.
type Synthetic struct {
	// Warmup delays Ready, mimicking a camera's start-up latency.
	Warmup time.Duration
	// Now is the clock used to animate frames. Defaults to time.Now.
	Now func() time.Time
}

var barColors = []color.NRGBA{
	{R: 235, G: 235, B: 235, A: 255},
	{R: 235, G: 235, B: 16, A: 255},
	{R: 16, G: 235, B: 235, A: 255},
	{R: 16, G: 235, B: 16, A: 255},
	{R: 235, G: 16, B: 235, A: 255},
	{R: 235, G: 16, B: 16, A: 255},
	{R: 16, G: 16, B: 235, A: 255},
}

func (d *Synthetic) Open(ctx context.Context, c Constraints) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w, h := c.Width, c.Height
	if w <= 0 {
		w = 640
	}
	if h <= 0 {
		h = 480
	}
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	return &syntheticStream{
		trackSet: newTrackSet(1),
		w:        w,
		h:        h,
		mirror:   c.Facing == FacingUser,
		warmup:   d.Warmup,
		now:      now,
		opened:   now(),
	}, nil
}

type syntheticStream struct {
	*trackSet
	w, h   int
	mirror bool
	warmup time.Duration
	now    func() time.Time
	opened time.Time

	mu    sync.Mutex
	frame uint64
}

func (s *syntheticStream) Ready(ctx context.Context) error {
	if s.warmup <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(s.warmup)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (s *syntheticStream) Grab() (image.Image, error) {
	if !s.live() {
		return nil, ErrNotReady
	}
	s.mu.Lock()
	s.frame++
	s.mu.Unlock()

	elapsed := s.now().Sub(s.opened)
	band := int(elapsed/(20*time.Millisecond)) % s.h
	if band < 0 {
		band += s.h
	}

	img := image.NewNRGBA(image.Rect(0, 0, s.w, s.h))
	barW := (s.w + len(barColors) - 1) / len(barColors)
	for y := 0; y < s.h; y++ {
		highlight := y >= band && y < band+s.h/12
		for x := 0; x < s.w; x++ {
			sx := x
			if s.mirror {
				sx = s.w - 1 - x
			}
			c := barColors[(sx/barW)%len(barColors)]
			if highlight {
				c.R, c.G, c.B = c.R/2+120, c.G/2+120, c.B/2+120
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img, nil
}
