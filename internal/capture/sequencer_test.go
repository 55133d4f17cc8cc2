package capture

import (
	"errors"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/snapstrip/photobooth/internal/filter"
	"github.com/snapstrip/photobooth/internal/timeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// frameSource returns solid frames whose blue channel counts the grabs.
type frameSource struct {
	grabs int
	fill  color.NRGBA
	err   error
}

func (f *frameSource) Grab() (image.Image, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.grabs++
	img := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	c := f.fill
	c.B = uint8(f.grabs)
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img, nil
}

func newTestSequencer(cfg Config, src Grabber) (*Sequencer, *timeline.Manual) {
	tl := timeline.NewManual(time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC))
	return New(cfg, tl, src, nil), tl
}

func TestFullSequence(t *testing.T) {
	src := &frameSource{fill: color.NRGBA{A: 255}}
	seq, tl := newTestSequencer(DefaultConfig(), src)

	var countdowns [][]int
	pauses := 0
	var last State
	seq.OnChange(func(s Snapshot) {
		if s.State == CountingDown {
			if last != CountingDown {
				countdowns = append(countdowns, nil)
			}
			countdowns[len(countdowns)-1] = append(countdowns[len(countdowns)-1], s.Countdown)
		}
		if s.State == InterShotPause && last != InterShotPause {
			pauses++
		}
		last = s.State
	})
	var captures []int
	seq.OnCapture(func(p []*Photo) { captures = append(captures, len(p)) })

	require.True(t, seq.Start())
	tl.Advance(time.Minute)

	snap := seq.Snapshot()
	assert.Equal(t, Complete, snap.State)
	require.Len(t, snap.Photos, 4)
	for i, p := range snap.Photos {
		assert.Equal(t, uint8(i+1), p.Image.NRGBAAt(0, 0).B, "photos kept in capture order")
	}
	assert.Equal(t, [][]int{{3, 2, 1}, {3, 2, 1}, {3, 2, 1}, {3, 2, 1}}, countdowns)
	assert.Equal(t, 3, pauses)
	assert.Equal(t, []int{1, 2, 3, 4}, captures)
	assert.False(t, snap.Counting)
	assert.Zero(t, tl.Pending(), "complete sequencer must not restart")
}

func TestDwellOnOne(t *testing.T) {
	src := &frameSource{}
	seq, tl := newTestSequencer(Config{MaxPhotos: 2, Countdown: 3, Tick: time.Second, Pause: 2 * time.Second}, src)
	require.True(t, seq.Start())

	assert.Equal(t, 3, seq.Snapshot().Countdown)
	tl.Advance(time.Second)
	assert.Equal(t, 2, seq.Snapshot().Countdown)
	tl.Advance(time.Second)
	assert.Equal(t, 1, seq.Snapshot().Countdown)
	assert.Zero(t, src.grabs)

	tl.Advance(999 * time.Millisecond)
	assert.Zero(t, src.grabs, "shutter waits a full second at 1")
	tl.Advance(time.Millisecond)
	assert.Equal(t, 1, src.grabs)
	assert.Equal(t, InterShotPause, seq.Snapshot().State)
	assert.False(t, seq.Snapshot().Counting)

	tl.Advance(1999 * time.Millisecond)
	assert.Equal(t, InterShotPause, seq.Snapshot().State)
	tl.Advance(time.Millisecond)
	snap := seq.Snapshot()
	assert.Equal(t, CountingDown, snap.State)
	assert.Equal(t, 1, snap.Shot)
	assert.Equal(t, 3, snap.Countdown)
}

func TestStartIsNoOpWhileRunningOrComplete(t *testing.T) {
	seq, tl := newTestSequencer(Config{MaxPhotos: 1, Countdown: 1, Tick: time.Second}, &frameSource{})
	require.True(t, seq.Start())
	assert.False(t, seq.Start())
	assert.Equal(t, 1, tl.Pending(), "second start must not schedule more timers")

	tl.Advance(time.Second)
	assert.Equal(t, Complete, seq.Snapshot().State)
	assert.False(t, seq.Start())
}

func TestRetakeAfterCompletion(t *testing.T) {
	seq, tl := newTestSequencer(Config{MaxPhotos: 2, Countdown: 1, Tick: time.Second, Pause: time.Second}, &frameSource{})
	require.True(t, seq.Start())
	tl.Advance(time.Minute)
	require.Len(t, seq.Photos(), 2)

	seq.Retake()
	snap := seq.Snapshot()
	assert.Empty(t, snap.Photos)
	assert.Equal(t, Idle, snap.State)
	assert.Zero(t, snap.Shot)
	assert.True(t, seq.Start(), "sequencer is startable again")
}

func TestRetakeMidSequenceCancelsTimers(t *testing.T) {
	src := &frameSource{}
	seq, tl := newTestSequencer(DefaultConfig(), src)
	require.True(t, seq.Start())
	tl.Advance(1500 * time.Millisecond)

	seq.Retake()
	tl.Advance(time.Minute)
	assert.Zero(t, src.grabs)
	assert.Equal(t, Idle, seq.Snapshot().State)
}

func TestStopCancelsPendingCapture(t *testing.T) {
	src := &frameSource{}
	seq, tl := newTestSequencer(DefaultConfig(), src)
	require.True(t, seq.Start())
	tl.Advance(4 * time.Second)
	require.Equal(t, 1, src.grabs)

	seq.Stop()
	tl.Advance(time.Minute)
	assert.Equal(t, 1, src.grabs)
	assert.Len(t, seq.Photos(), 1, "stop keeps photos")
	assert.Equal(t, Idle, seq.Snapshot().State)
}

func TestFilterBakedAtShutter(t *testing.T) {
	src := &frameSource{fill: color.NRGBA{R: 255, A: 255}}
	seq, tl := newTestSequencer(Config{MaxPhotos: 2, Countdown: 1, Tick: time.Second, Pause: time.Second}, src)
	seq.SetFilter(filter.Sepia)
	require.True(t, seq.Start())
	tl.Advance(time.Second)

	seq.SetFilter(filter.None)
	tl.Advance(time.Minute)

	photos := seq.Photos()
	require.Len(t, photos, 2)
	first := photos[0].Image.NRGBAAt(0, 0)
	assert.InDelta(t, 100, int(first.R), 1)
	assert.InDelta(t, 88, int(first.G), 1)
	assert.Equal(t, filter.Sepia, photos[0].Filter)
	assert.Equal(t, uint8(255), photos[1].Image.NRGBAAt(0, 0).R)
	assert.Equal(t, filter.None, photos[1].Filter)
}

func TestGrabFailureStopsSequence(t *testing.T) {
	src := &frameSource{err: errors.New("camera gone")}
	seq, tl := newTestSequencer(DefaultConfig(), src)
	require.True(t, seq.Start())
	tl.Advance(time.Minute)

	snap := seq.Snapshot()
	assert.Equal(t, Idle, snap.State)
	assert.Empty(t, snap.Photos)
	assert.Zero(t, tl.Pending())

	src.err = nil
	assert.True(t, seq.Start(), "sequence can resume once frames are back")
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "counting_down", CountingDown.String())
	assert.Equal(t, "unknown", State(99).String())
}
