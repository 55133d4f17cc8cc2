package camera

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDevice hands out streams and records them. When gate is non-nil, Open
// blocks until a value is received from it.
type fakeDevice struct {
	mu      sync.Mutex
	streams []*fakeStream
	gate    chan struct{}
	entered chan struct{}
	failOn  map[Facing]error
	onReady func(*fakeStream)
}

type fakeStream struct {
	*trackSet
	facing Facing
	dev    *fakeDevice
}

func (s *fakeStream) Ready(context.Context) error {
	if s.dev.onReady != nil {
		s.dev.onReady(s)
	}
	return nil
}

func (s *fakeStream) Grab() (image.Image, error) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: uint8(s.facing), A: 255})
	return img, nil
}

func (d *fakeDevice) Open(ctx context.Context, c Constraints) (Stream, error) {
	if d.entered != nil {
		d.entered <- struct{}{}
	}
	if d.gate != nil {
		select {
		case <-d.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := d.failOn[c.Facing]; err != nil {
		return nil, err
	}
	s := &fakeStream{trackSet: newTrackSet(1), facing: c.Facing, dev: d}
	d.mu.Lock()
	d.streams = append(d.streams, s)
	d.mu.Unlock()
	return s, nil
}

func (d *fakeDevice) liveTracks() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, s := range d.streams {
		n += LiveTracks(s)
	}
	return n
}

func TestAcquireAndRelease(t *testing.T) {
	dev := &fakeDevice{}
	m := NewManager(dev, Constraints{}, nil)

	require.NoError(t, m.Acquire(context.Background()))
	assert.Equal(t, 1, m.ActiveTracks())
	require.NoError(t, m.Acquire(context.Background()), "second acquire is a no-op")
	assert.Len(t, dev.streams, 1)

	img, err := m.Grab()
	require.NoError(t, err)
	assert.NotNil(t, img)

	m.Release()
	assert.Zero(t, dev.liveTracks())
	_, err = m.Grab()
	assert.ErrorIs(t, err, ErrNotReady)

	require.NoError(t, m.Acquire(context.Background()), "manager is reusable after release")
	assert.Equal(t, 1, dev.liveTracks())
}

func TestSwitchFacingIsMakeBeforeBreak(t *testing.T) {
	dev := &fakeDevice{}
	m := NewManager(dev, Constraints{Facing: FacingUser}, nil)
	require.NoError(t, m.Acquire(context.Background()))

	var liveWhileReady int
	dev.onReady = func(s *fakeStream) {
		// Called for the replacement stream before the swap.
		liveWhileReady = dev.liveTracks()
	}

	require.NoError(t, m.SwitchFacing(context.Background(), FacingEnvironment))
	assert.Equal(t, 2, liveWhileReady, "old stream must still render while the new one warms up")
	assert.Equal(t, 1, dev.liveTracks())
	assert.Equal(t, FacingEnvironment, m.Facing())
	assert.False(t, dev.streams[0].live())
	assert.True(t, dev.streams[1].live())
}

func TestSwitchFacingFailureKeepsOldStream(t *testing.T) {
	dev := &fakeDevice{failOn: map[Facing]error{FacingEnvironment: errors.New("busy")}}
	m := NewManager(dev, Constraints{}, nil)
	require.NoError(t, m.Acquire(context.Background()))

	err := m.SwitchFacing(context.Background(), FacingEnvironment)
	assert.Error(t, err)
	assert.Equal(t, 1, m.ActiveTracks())
	assert.Equal(t, FacingUser, m.Facing())
}

func TestAcquireResolvingAfterCloseIsStopped(t *testing.T) {
	dev := &fakeDevice{gate: make(chan struct{}), entered: make(chan struct{})}
	m := NewManager(dev, Constraints{}, nil)

	errCh := make(chan error, 1)
	go func() { errCh <- m.Acquire(context.Background()) }()
	<-dev.entered

	m.Close()
	dev.gate <- struct{}{}

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(5 * time.Second):
		t.Fatal("acquire did not return")
	}
	require.Len(t, dev.streams, 1)
	assert.Zero(t, dev.liveTracks(), "late stream must be stopped on detection")
	assert.ErrorIs(t, m.Acquire(context.Background()), ErrClosed)
}

func TestAcquireResolvingAfterReleaseIsDiscarded(t *testing.T) {
	dev := &fakeDevice{gate: make(chan struct{}), entered: make(chan struct{})}
	m := NewManager(dev, Constraints{}, nil)

	errCh := make(chan error, 1)
	go func() { errCh <- m.Acquire(context.Background()) }()
	<-dev.entered

	m.Release()
	dev.gate <- struct{}{}
	require.NoError(t, <-errCh)
	assert.Zero(t, dev.liveTracks())
	assert.False(t, m.Live())
}

func TestStreamStopIsShared(t *testing.T) {
	stream, err := (&Synthetic{}).Open(context.Background(), Constraints{Width: 8, Height: 8})
	require.NoError(t, err)
	tracks := stream.Tracks()
	require.Len(t, tracks, 1)

	stream.Stop()
	stream.Stop()
	assert.False(t, tracks[0].Live())
	assert.Zero(t, LiveTracks(stream))
}

func TestDeniedDevice(t *testing.T) {
	m := NewManager(Denied{}, Constraints{}, nil)
	assert.ErrorIs(t, m.Acquire(context.Background()), ErrPermissionDenied)
	assert.ErrorIs(t, Probe(context.Background(), Denied{}, Constraints{}), ErrPermissionDenied)
}

func TestProbeReleasesStream(t *testing.T) {
	dev := &fakeDevice{}
	require.NoError(t, Probe(context.Background(), dev, Constraints{}))
	require.Len(t, dev.streams, 1)
	assert.Zero(t, dev.liveTracks())
}

func TestSyntheticFrames(t *testing.T) {
	dev := &Synthetic{}
	s, err := dev.Open(context.Background(), Constraints{Width: 70, Height: 20, Facing: FacingEnvironment})
	require.NoError(t, err)
	require.NoError(t, s.Ready(context.Background()))

	img, err := s.Grab()
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 70, 20), img.Bounds())

	s.Stop()
	_, err = s.Grab()
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestSyntheticWarmupHonoursContext(t *testing.T) {
	dev := &Synthetic{Warmup: time.Hour}
	s, err := dev.Open(context.Background(), Constraints{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Ready(ctx), context.Canceled)
}

func TestDirectoryCyclesImages(t *testing.T) {
	dir := t.TempDir()
	for i, name := range []string{"b.png", "a.png"} {
		img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
		img.SetNRGBA(0, 0, color.NRGBA{R: uint8(i + 1), A: 255})
		f, err := os.Create(filepath.Join(dir, name))
		require.NoError(t, err)
		require.NoError(t, png.Encode(f, img))
		require.NoError(t, f.Close())
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	s, err := (&Directory{Path: dir}).Open(context.Background(), Constraints{})
	require.NoError(t, err)

	var reds []uint8
	for i := 0; i < 3; i++ {
		img, err := s.Grab()
		require.NoError(t, err)
		r, _, _, _ := img.At(0, 0).RGBA()
		reds = append(reds, uint8(r>>8))
	}
	assert.Equal(t, []uint8{2, 1, 2}, reds, "a.png then b.png, wrapping around")
}

func TestDirectoryEmpty(t *testing.T) {
	_, err := (&Directory{Path: t.TempDir()}).Open(context.Background(), Constraints{})
	assert.Error(t, err)
}

func TestParseFacing(t *testing.T) {
	tests := []struct {
		in   string
		want Facing
		ok   bool
	}{
		{"user", FacingUser, true},
		{"front", FacingUser, true},
		{"back", FacingEnvironment, true},
		{"environment", FacingEnvironment, true},
		{"sideways", FacingUser, false},
	}
	for _, tt := range tests {
		got, err := ParseFacing(tt.in)
		if tt.ok {
			require.NoError(t, err, tt.in)
			assert.Equal(t, tt.want, got, tt.in)
		} else {
			assert.Error(t, err, tt.in)
		}
	}
	assert.Equal(t, FacingEnvironment, FacingUser.Flip())
}
