// Package capture drives the countdown-and-shoot loop of a photo session.
package capture

import (
	"encoding/json"
	"errors"
	"image"
	"time"

	"github.com/snapstrip/photobooth/internal/filter"
	"github.com/snapstrip/photobooth/internal/timeline"
	"go.uber.org/zap"
)

// ErrNoFrame is returned by a Grabber that has nothing to capture.
var ErrNoFrame = errors.New("capture: no frame available")

// State is the sequencer's position in the shoot cycle.
type State int

const (
	Idle State = iota
	CountingDown
	CapturingFrame
	InterShotPause
	Complete
)

var stateNames = map[State]string{
	Idle:           "idle",
	CountingDown:   "counting_down",
	CapturingFrame: "capturing",
	InterShotPause: "pause",
	Complete:       "complete",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Grabber supplies the live frame at shutter time.
type Grabber interface {
	Grab() (image.Image, error)
}

// Config holds the session-wide shoot parameters.
type Config struct {
	MaxPhotos int
	Countdown int
	Tick      time.Duration
	Pause     time.Duration
}

// DefaultConfig is four shots with a three second countdown.
func DefaultConfig() Config {
	return Config{MaxPhotos: 4, Countdown: 3, Tick: time.Second, Pause: 2 * time.Second}
}

// Snapshot is a read-only view of the sequencer.
type Snapshot struct {
	State     State       `json:"state"`
	Photos    []*Photo    `json:"photos"`
	Shot      int         `json:"shot"`
	Countdown int         `json:"countdown"`
	Counting  bool        `json:"counting"`
	Active    bool        `json:"active"`
	MaxPhotos int         `json:"maxPhotos"`
	Filter    filter.Kind `json:"filter"`
}

// Sequencer is the countdown/capture state machine. It must only be used
// from the goroutine that runs its timeline.
type Sequencer struct {
	cfg    Config
	tl     timeline.Timeline
	timers *timeline.Group
	grab   Grabber
	log    *zap.Logger

	state     State
	photos    []*Photo
	shot      int
	countdown int
	filter    filter.Kind

	onChange  []func(Snapshot)
	onCapture []func([]*Photo)
}

// New creates an idle sequencer.
func New(cfg Config, tl timeline.Timeline, grab Grabber, log *zap.Logger) *Sequencer {
	if cfg.MaxPhotos <= 0 {
		cfg.MaxPhotos = DefaultConfig().MaxPhotos
	}
	if cfg.Countdown <= 0 {
		cfg.Countdown = DefaultConfig().Countdown
	}
	if cfg.Tick <= 0 {
		cfg.Tick = time.Second
	}
	if cfg.Pause < 0 {
		cfg.Pause = 0
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Sequencer{
		cfg:    cfg,
		tl:     tl,
		timers: timeline.NewGroup(tl),
		grab:   grab,
		log:    log.Named("capture"),
	}
}

// OnChange registers fn to receive a snapshot after every transition.
func (s *Sequencer) OnChange(fn func(Snapshot)) {
	s.onChange = append(s.onChange, fn)
}

// OnCapture registers fn to receive the photo sequence after each shot.
func (s *Sequencer) OnCapture(fn func([]*Photo)) {
	s.onCapture = append(s.onCapture, fn)
}

// SetFilter selects the filter baked into subsequent shots.
func (s *Sequencer) SetFilter(k filter.Kind) {
	s.filter = k
	s.emit()
}

// Running reports whether a countdown, capture or pause is in progress.
func (s *Sequencer) Running() bool {
	switch s.state {
	case CountingDown, CapturingFrame, InterShotPause:
		return true
	}
	return false
}

// Start begins the shoot cycle. It returns false, doing nothing, if the
// cycle is already running or every photo has been taken.
func (s *Sequencer) Start() bool {
	if s.Running() || len(s.photos) >= s.cfg.MaxPhotos {
		return false
	}
	s.log.Info("capture sequence started", zap.Int("photos", len(s.photos)), zap.Int("max", s.cfg.MaxPhotos))
	s.beginCountdown()
	return true
}

// Retake discards every photo and returns to Idle at shot zero.
func (s *Sequencer) Retake() {
	s.timers.CancelAll()
	s.photos = nil
	s.shot = 0
	s.countdown = 0
	s.state = Idle
	s.log.Info("capture sequence reset")
	s.emit()
}

// Stop cancels pending timers and halts the cycle, keeping photos. Used on
// teardown so no capture fires against a released camera.
func (s *Sequencer) Stop() {
	if n := s.timers.CancelAll(); n > 0 {
		s.log.Debug("cancelled pending capture timers", zap.Int("count", n))
	}
	if s.Running() {
		s.state = Idle
		s.countdown = 0
		s.emit()
	}
}

// Photos returns the captured sequence.
func (s *Sequencer) Photos() []*Photo {
	out := make([]*Photo, len(s.photos))
	copy(out, s.photos)
	return out
}

// Snapshot returns the current state.
func (s *Sequencer) Snapshot() Snapshot {
	return Snapshot{
		State:     s.state,
		Photos:    s.Photos(),
		Shot:      s.shot,
		Countdown: s.countdown,
		Counting:  s.state == CountingDown,
		Active:    s.Running(),
		MaxPhotos: s.cfg.MaxPhotos,
		Filter:    s.filter,
	}
}

func (s *Sequencer) beginCountdown() {
	s.state = CountingDown
	s.countdown = s.cfg.Countdown
	s.emit()
	s.timers.After(s.cfg.Tick, s.tick)
}

func (s *Sequencer) tick() {
	if s.state != CountingDown {
		return
	}
	if s.countdown > 1 {
		s.countdown--
		s.emit()
		s.timers.After(s.cfg.Tick, s.tick)
		return
	}
	// A full tick has been spent showing 1; the shutter fires now.
	s.shoot()
}

func (s *Sequencer) shoot() {
	s.state = CapturingFrame
	s.countdown = 0
	s.emit()

	frame, err := s.grab.Grab()
	if err == nil && frame == nil {
		err = ErrNoFrame
	}
	if err != nil {
		s.log.Error("frame capture failed; stopping sequence", zap.Error(err), zap.Int("shot", s.shot))
		s.state = Idle
		s.emit()
		return
	}

	p := newPhoto(frame, s.filter, s.tl.Now())
	s.photos = append(s.photos, p)
	s.log.Info("photo captured", zap.String("id", p.ID), zap.Int("shot", s.shot), zap.Stringer("filter", s.filter))
	photos := s.Photos()
	for _, fn := range s.onCapture {
		fn(photos)
	}

	if len(s.photos) >= s.cfg.MaxPhotos {
		s.state = Complete
		s.log.Info("capture sequence complete", zap.Int("photos", len(s.photos)))
		s.emit()
		return
	}

	s.state = InterShotPause
	s.emit()
	s.timers.After(s.cfg.Pause, func() {
		s.shot++
		s.beginCountdown()
	})
}

func (s *Sequencer) emit() {
	if len(s.onChange) == 0 {
		return
	}
	snap := s.Snapshot()
	for _, fn := range s.onChange {
		fn(snap)
	}
}
