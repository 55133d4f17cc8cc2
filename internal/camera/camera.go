// Package camera abstracts the live video source the booth shoots from. A
// Device hands out Streams; every Stream owns one or more Tracks that hold
// the underlying capture hardware until they are stopped.
package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

var (
	// ErrPermissionDenied reports that the host refused access to the camera.
	ErrPermissionDenied = errors.New("camera: permission denied")
	// ErrClosed reports use of a manager after teardown.
	ErrClosed = errors.New("camera: manager closed")
	// ErrNotReady reports that no stream is live.
	ErrNotReady = errors.New("camera: no live stream")
)

// Facing selects the front (user) or back (environment) camera.
type Facing int

const (
	FacingUser Facing = iota
	FacingEnvironment
)

func (f Facing) String() string {
	if f == FacingEnvironment {
		return "environment"
	}
	return "user"
}

// Flip returns the opposite facing mode.
func (f Facing) Flip() Facing {
	if f == FacingEnvironment {
		return FacingUser
	}
	return FacingEnvironment
}

// ParseFacing maps "user"/"environment" (or "front"/"back") to a Facing.
func ParseFacing(s string) (Facing, error) {
	switch s {
	case "", "user", "front":
		return FacingUser, nil
	case "environment", "back":
		return FacingEnvironment, nil
	}
	return FacingUser, fmt.Errorf("unknown facing mode %q", s)
}

func (f Facing) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

func (f *Facing) UnmarshalText(data []byte) error {
	v, err := ParseFacing(string(data))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// Constraints narrow the stream a Device should open.
type Constraints struct {
	Facing Facing
	Width  int
	Height int
}

// Track is one hardware capture channel.
type Track interface {
	ID() string
	Kind() string
	Live() bool
	Stop()
}

// Stream is a live video source.
type Stream interface {
	Tracks() []Track
	// Ready blocks until the stream can render its first frame.
	Ready(ctx context.Context) error
	// Grab returns the current frame.
	Grab() (image.Image, error)
	// Stop stops every track.
	Stop()
}

// Device acquires streams from the host's capture capability.
type Device interface {
	Open(ctx context.Context, c Constraints) (Stream, error)
}

// videoTrack is the Track implementation shared by the built-in devices.
type videoTrack struct {
	id   string
	live atomic.Bool
}

func newVideoTrack() *videoTrack {
	t := &videoTrack{id: uuid.NewString()}
	t.live.Store(true)
	return t
}

func (t *videoTrack) ID() string   { return t.id }
func (t *videoTrack) Kind() string { return "video" }
func (t *videoTrack) Live() bool   { return t.live.Load() }
func (t *videoTrack) Stop()        { t.live.Store(false) }

// trackSet implements the Tracks/Stop half of Stream.
type trackSet struct {
	once   sync.Once
	tracks []Track
}

func newTrackSet(n int) *trackSet {
	ts := &trackSet{tracks: make([]Track, n)}
	for i := range ts.tracks {
		ts.tracks[i] = newVideoTrack()
	}
	return ts
}

func (ts *trackSet) Tracks() []Track { return ts.tracks }

func (ts *trackSet) Stop() {
	ts.once.Do(func() {
		for _, t := range ts.tracks {
			t.Stop()
		}
	})
}

func (ts *trackSet) live() bool {
	for _, t := range ts.tracks {
		if t.Live() {
			return true
		}
	}
	return false
}

// LiveTracks counts the live tracks of s.
func LiveTracks(s Stream) int {
	if s == nil {
		return 0
	}
	n := 0
	for _, t := range s.Tracks() {
		if t.Live() {
			n++
		}
	}
	return n
}

// Probe opens a stream and releases it straight away. It is how the booth
// asks for camera permission before the capture phase starts.
func Probe(ctx context.Context, dev Device, c Constraints) error {
	s, err := dev.Open(ctx, c)
	if err != nil {
		return err
	}
	s.Stop()
	return nil
}

// Denied is a Device that always refuses access.
type Denied struct{}

func (Denied) Open(context.Context, Constraints) (Stream, error) {
	return nil, ErrPermissionDenied
}
