// Package session runs the booth's top-level flow: permission gate, timed
// capture and editing. A Controller is confined to the goroutine running
// its timeline; camera I/O is started off that goroutine and its results
// are posted back.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/snapstrip/photobooth/internal/camera"
	"github.com/snapstrip/photobooth/internal/capture"
	"github.com/snapstrip/photobooth/internal/catalog"
	"github.com/snapstrip/photobooth/internal/compose"
	"github.com/snapstrip/photobooth/internal/export"
	"github.com/snapstrip/photobooth/internal/filter"
	"github.com/snapstrip/photobooth/internal/overlay"
	"github.com/snapstrip/photobooth/internal/timeline"
)

var (
	// ErrWrongPhase is returned by operations that do not apply to the
	// current phase.
	ErrWrongPhase = errors.New("session: not available in this phase")
	// ErrNotFound is returned for unknown template, background, sticker or
	// text field ids.
	ErrNotFound = errors.New("session: not found")
)

// DefaultEditorDelay is how long the completed strip is shown before the
// editor opens.
const DefaultEditorDelay = 2500 * time.Millisecond

// Recorder receives booth metrics. Implementations must be safe for use
// from the timeline goroutine.
type Recorder interface {
	PhotoCaptured(f filter.Kind)
	SequenceCompleted()
	PhaseChanged(p Phase)
	Exported(d time.Duration, err error)
	CameraSwitched(err error)
}

type nopRecorder struct{}

func (nopRecorder) PhotoCaptured(filter.Kind)     {}
func (nopRecorder) SequenceCompleted()            {}
func (nopRecorder) PhaseChanged(Phase)            {}
func (nopRecorder) Exported(time.Duration, error) {}
func (nopRecorder) CameraSwitched(error)          {}

// Options configures a Controller.
type Options struct {
	Capture     capture.Config
	EditorDelay time.Duration
	Filter      filter.Kind
	Constraints camera.Constraints
	Edit        EditOptions
	Catalog     *catalog.Catalog
	Recorder    Recorder
	// Spawn runs blocking camera work off the timeline goroutine. The
	// default starts a goroutine.
	Spawn func(func())
}

// Controller is the booth state machine.
type Controller struct {
	tl     timeline.Timeline
	timers *timeline.Group
	dev    camera.Device
	cam    *camera.Manager
	exp    *export.Exporter
	store  *Store
	rec    Recorder
	log    *zap.Logger
	opts   Options

	phase      Phase
	denied     bool
	probing    bool
	seq        *capture.Sequencer
	seqState   capture.State // last state seen from the sequencer
	edit       *Edit
	lastExport string
	cancelCam  context.CancelFunc

	observers []func(Event)
}

// New creates a controller waiting for camera permission. dev is probed
// for permission; cam must manage the same device.
func New(tl timeline.Timeline, dev camera.Device, cam *camera.Manager, exp *export.Exporter, opts Options, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.EditorDelay < 0 {
		opts.EditorDelay = 0
	}
	if opts.Catalog == nil {
		opts.Catalog = catalog.Default()
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}
	if opts.Spawn == nil {
		opts.Spawn = func(fn func()) { go fn() }
	}
	if opts.Edit.Width <= 0 {
		opts.Edit.Width = compose.DefaultWidth
	}
	c := &Controller{
		tl:     tl,
		timers: timeline.NewGroup(tl),
		dev:    dev,
		cam:    cam,
		exp:    exp,
		store:  NewStore(),
		rec:    opts.Recorder,
		log:    log.Named("session"),
		opts:   opts,
	}
	c.seq = capture.New(opts.Capture, tl, cam, log)
	c.seq.SetFilter(opts.Filter)
	c.seq.OnChange(c.onSequence)
	c.seq.OnCapture(c.onCapture)
	c.store.Update(c.snapshot())
	return c
}

// Subscribe registers fn for every event. Observers run on the timeline.
func (c *Controller) Subscribe(fn func(Event)) {
	c.observers = append(c.observers, fn)
}

// Store exposes the latest state to other goroutines.
func (c *Controller) Store() *Store { return c.store }

func (c *Controller) Phase() Phase { return c.phase }

// State returns a snapshot of the current state.
func (c *Controller) State() *State { return c.snapshot() }

// RequestPermission probes the camera. On success the booth enters the
// capture phase; on denial it stays at the gate and logs the failure. The
// probe runs off the timeline.
func (c *Controller) RequestPermission(ctx context.Context) error {
	if c.phase != AwaitingPermission {
		return ErrWrongPhase
	}
	if c.probing {
		return nil
	}
	c.probing = true
	cons := c.cam.Constraints()
	c.opts.Spawn(func() {
		err := camera.Probe(ctx, c.dev, cons)
		c.tl.Post(func() {
			c.probing = false
			if c.phase != AwaitingPermission {
				return
			}
			if err != nil {
				c.denied = true
				c.log.Error("camera permission denied", zap.Error(err))
				c.publish(EventUpdate)
				return
			}
			c.denied = false
			c.log.Info("camera permission granted")
			c.enterCapturing()
		})
	})
	return nil
}

// Start begins the capture sequence.
func (c *Controller) Start() error {
	if c.phase != Capturing {
		return ErrWrongPhase
	}
	c.seq.Start()
	return nil
}

// Retake discards the photos and returns the sequencer to idle.
func (c *Controller) Retake() error {
	if c.phase != Capturing {
		return ErrWrongPhase
	}
	c.timers.CancelAll()
	c.seq.Retake()
	return nil
}

// Done opens the editor straight away once every photo is taken.
func (c *Controller) Done() error {
	if c.phase != Capturing || c.seq.Snapshot().State != capture.Complete {
		return ErrWrongPhase
	}
	c.enterEditing()
	return nil
}

// SetFilter selects the filter for the next shots.
func (c *Controller) SetFilter(k filter.Kind) error {
	if c.phase != Capturing {
		return ErrWrongPhase
	}
	c.seq.SetFilter(k)
	return nil
}

// SwitchFacing flips between front and back cameras. The new stream is
// live before the old one stops; on failure the old stream is kept.
func (c *Controller) SwitchFacing(ctx context.Context) error {
	if c.phase != Capturing {
		return ErrWrongPhase
	}
	next := c.cam.Facing().Flip()
	c.opts.Spawn(func() {
		err := c.cam.SwitchFacing(ctx, next)
		c.tl.Post(func() {
			c.rec.CameraSwitched(err)
			c.publish(EventCamera)
		})
	})
	return nil
}

// Edit returns the edit session.
func (c *Controller) Edit() (*Edit, error) {
	if c.phase != Editing || c.edit == nil {
		return nil, ErrWrongPhase
	}
	return c.edit, nil
}

// Update runs fn against the edit session and publishes the result.
func (c *Controller) Update(fn func(*Edit) error) error {
	e, err := c.Edit()
	if err != nil {
		return err
	}
	err = fn(e)
	c.publish(EventUpdate)
	return err
}

func (c *Controller) SetTemplate(id string) error {
	return c.Update(func(e *Edit) error { return e.SetTemplate(id) })
}

func (c *Controller) SetBackground(id string) error {
	return c.Update(func(e *Edit) error { return e.SetBackground(id) })
}

func (c *Controller) SetText(id, value string) error {
	return c.Update(func(e *Edit) error { return e.SetText(id, value) })
}

func (c *Controller) AddSticker(glyph string) (overlay.Sticker, error) {
	var s overlay.Sticker
	err := c.Update(func(e *Edit) error {
		s = e.Board().Add(glyph)
		return nil
	})
	return s, err
}

func (c *Controller) MoveSticker(id string, x, y float64) (overlay.Sticker, error) {
	var s overlay.Sticker
	err := c.Update(func(e *Edit) error {
		var ok bool
		if s, ok = e.Board().Move(id, x, y); !ok {
			return fmt.Errorf("%w: sticker %q", ErrNotFound, id)
		}
		return nil
	})
	return s, err
}

func (c *Controller) RemoveSticker(id string) error {
	return c.Update(func(e *Edit) error {
		if !e.Board().Remove(id) {
			return fmt.Errorf("%w: sticker %q", ErrNotFound, id)
		}
		return nil
	})
}

// Composition lays out the strip being edited.
func (c *Controller) Composition() (compose.Composition, error) {
	e, err := c.Edit()
	if err != nil {
		return compose.Composition{}, err
	}
	return e.Composition(), nil
}

// Export writes the strip to the export directory. Failures are logged and
// leave the editor as it was.
func (c *Controller) Export(ctx context.Context) (string, error) {
	comp, err := c.Composition()
	if err != nil {
		return "", err
	}
	start := time.Now()
	path, err := c.exp.Export(ctx, comp)
	c.rec.Exported(time.Since(start), err)
	if err != nil {
		c.log.Error("export failed", zap.Error(err))
		return "", err
	}
	c.lastExport = path
	c.publishPath(EventExported, path)
	return path, nil
}

// WritePNG streams the current strip to w.
func (c *Controller) WritePNG(w io.Writer) error {
	comp, err := c.Composition()
	if err != nil {
		return err
	}
	return c.exp.WritePNG(w, comp)
}

// Reset leaves the editor for a fresh capture. Photos, stickers, drawing
// and template choices are discarded.
func (c *Controller) Reset() error {
	if c.phase != Editing {
		return ErrWrongPhase
	}
	c.edit = nil
	c.seq.Retake()
	c.enterCapturing()
	return nil
}

// Close cancels every timer and releases the camera.
func (c *Controller) Close() {
	c.timers.CancelAll()
	c.seq.Stop()
	if c.cancelCam != nil {
		c.cancelCam()
	}
	c.cam.Close()
}

func (c *Controller) enterCapturing() {
	c.setPhase(Capturing)
	ctx, cancel := context.WithCancel(context.Background())
	c.cancelCam = cancel
	c.opts.Spawn(func() {
		err := c.cam.Acquire(ctx)
		c.tl.Post(func() {
			if err != nil {
				c.log.Error("camera unavailable", zap.Error(err))
			}
			if c.phase != Capturing {
				c.cam.Release()
				return
			}
			c.publish(EventCamera)
		})
	})
}

func (c *Controller) enterEditing() {
	c.timers.CancelAll()
	c.seq.Stop()
	if c.cancelCam != nil {
		c.cancelCam()
		c.cancelCam = nil
	}
	c.cam.Release()

	e, err := newEdit(c.opts.Catalog, c.seq.Photos(), c.opts.Edit)
	if err != nil {
		c.log.Warn("edit defaults rejected; using catalog defaults", zap.Error(err))
		opts := c.opts.Edit
		opts.Template, opts.Background = "", ""
		e, _ = newEdit(c.opts.Catalog, c.seq.Photos(), opts)
	}
	c.edit = e
	c.setPhase(Editing)
}

func (c *Controller) setPhase(p Phase) {
	if c.phase == p {
		return
	}
	c.log.Info("phase changed", zap.Stringer("from", c.phase), zap.Stringer("to", p))
	c.phase = p
	c.rec.PhaseChanged(p)
	c.publish(EventPhase)
}

func (c *Controller) onSequence(snap capture.Snapshot) {
	prev := c.seqState
	c.seqState = snap.State
	if c.phase != Capturing {
		return
	}
	// Filter changes re-emit Complete; only the transition arms the editor.
	if snap.State == capture.Complete && prev != capture.Complete {
		c.rec.SequenceCompleted()
		c.timers.CancelAll()
		c.timers.After(c.opts.EditorDelay, func() {
			if c.phase == Capturing && c.seq.Snapshot().State == capture.Complete {
				c.enterEditing()
			}
		})
	}
	if snap.Counting {
		c.publish(EventCountdown)
		return
	}
	c.publish(EventUpdate)
}

func (c *Controller) onCapture(photos []*capture.Photo) {
	if len(photos) > 0 {
		c.rec.PhotoCaptured(photos[len(photos)-1].Filter)
	}
	c.publish(EventCaptured)
}

func (c *Controller) snapshot() *State {
	s := &State{
		Phase:            c.phase,
		Capture:          c.seq.Snapshot(),
		Facing:           c.cam.Facing(),
		CameraLive:       c.cam.Live(),
		PermissionDenied: c.denied,
		LastExport:       c.lastExport,
		UpdatedAt:        c.tl.Now(),
	}
	if c.phase == Editing && c.edit != nil {
		s.Edit = c.edit.State()
	}
	return s
}

func (c *Controller) publish(t EventType) { c.publishPath(t, "") }

func (c *Controller) publishPath(t EventType, path string) {
	s := c.snapshot()
	c.store.Update(s)
	ev := Event{Type: t, State: s, Path: path}
	for _, fn := range c.observers {
		fn(ev)
	}
}
