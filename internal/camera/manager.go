package camera

import (
	"context"
	"image"
	"sync"

	"go.uber.org/zap"
)

// Manager owns the booth's live stream. It acquires the stream on demand,
// swaps it make-before-break when the facing mode changes and stops every
// track on release, including streams that resolve after the release.
type Manager struct {
	dev Device
	log *zap.Logger

	mu     sync.Mutex
	c      Constraints
	stream Stream
	gen    uint64 // bumped on release; acquisitions from older generations are discarded
	closed bool
}

// NewManager creates a manager for dev.
func NewManager(dev Device, c Constraints, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{dev: dev, c: c, log: log.Named("camera")}
}

// Acquire opens a stream with the current constraints. It is a no-op when a
// stream is already live.
func (m *Manager) Acquire(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.stream != nil {
		m.mu.Unlock()
		return nil
	}
	gen, c := m.gen, m.c
	m.mu.Unlock()

	s, err := m.open(ctx, c)
	if err != nil {
		m.log.Error("camera acquisition failed", zap.Error(err), zap.Stringer("facing", c.Facing))
		return err
	}

	m.mu.Lock()
	if m.closed || gen != m.gen || m.stream != nil {
		closed := m.closed
		m.mu.Unlock()
		s.Stop()
		m.log.Debug("discarding stream resolved after release")
		if closed {
			return ErrClosed
		}
		return nil
	}
	m.stream = s
	m.mu.Unlock()

	m.log.Info("camera acquired", zap.Stringer("facing", c.Facing), zap.Int("tracks", LiveTracks(s)))
	return nil
}

// SwitchFacing replaces the live stream with one facing f. The new stream is
// opened and confirmed ready before the old stream's tracks are stopped; on
// failure the old stream stays live.
func (m *Manager) SwitchFacing(ctx context.Context, f Facing) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	gen, c := m.gen, m.c
	m.mu.Unlock()
	c.Facing = f

	s, err := m.open(ctx, c)
	if err != nil {
		m.log.Warn("camera swap failed; keeping previous stream", zap.Error(err), zap.Stringer("facing", f))
		return err
	}

	m.mu.Lock()
	if m.closed || gen != m.gen {
		m.mu.Unlock()
		s.Stop()
		return ErrClosed
	}
	old := m.stream
	m.stream = s
	m.c = c
	m.mu.Unlock()

	if old != nil {
		old.Stop()
	}
	m.log.Info("camera switched", zap.Stringer("facing", f))
	return nil
}

func (m *Manager) open(ctx context.Context, c Constraints) (Stream, error) {
	s, err := m.dev.Open(ctx, c)
	if err != nil {
		return nil, err
	}
	if err := s.Ready(ctx); err != nil {
		s.Stop()
		return nil, err
	}
	return s, nil
}

// Grab returns the live stream's current frame.
func (m *Manager) Grab() (image.Image, error) {
	m.mu.Lock()
	s := m.stream
	m.mu.Unlock()
	if s == nil {
		return nil, ErrNotReady
	}
	return s.Grab()
}

// Release stops the live stream. In-flight acquisitions are stopped as soon
// as they resolve. The manager can acquire again afterwards.
func (m *Manager) Release() {
	m.mu.Lock()
	s := m.stream
	m.stream = nil
	m.gen++
	m.mu.Unlock()
	if s != nil {
		s.Stop()
		m.log.Info("camera released")
	}
}

// Close releases the stream and refuses further acquisitions.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.Release()
}

// ActiveTracks counts the live tracks of the current stream.
func (m *Manager) ActiveTracks() int {
	m.mu.Lock()
	s := m.stream
	m.mu.Unlock()
	return LiveTracks(s)
}

// Facing returns the facing mode of the current constraints.
func (m *Manager) Facing() Facing {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.c.Facing
}

// Live reports whether a stream is held.
func (m *Manager) Live() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stream != nil
}

// Constraints returns the constraints the next acquisition will use.
func (m *Manager) Constraints() Constraints {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.c
}
