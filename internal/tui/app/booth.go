package app

import (
	"context"
	"errors"
	"image"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/snapstrip/photobooth/internal/compose"
	"github.com/snapstrip/photobooth/internal/session"
)

// ErrStopped is returned once the booth loop has exited.
var ErrStopped = errors.New("booth stopped")

// Runner executes fn on the goroutine that owns the controller and waits
// for it. timeline.Loop satisfies it.
type Runner interface {
	Call(fn func()) bool
}

// Grabber supplies live camera frames for the preview.
type Grabber interface {
	Grab() (image.Image, error)
}

// eventMsg delivers a session event to the model.
type eventMsg session.Event

// Booth bridges the Bubble Tea program and a controller running on its
// own loop.
type Booth struct {
	run    Runner
	ctrl   *session.Controller
	cam    Grabber
	events chan session.Event
}

// NewBooth subscribes to ctrl. cam may be nil, which disables the live
// preview.
func NewBooth(run Runner, ctrl *session.Controller, cam Grabber) *Booth {
	b := &Booth{run: run, ctrl: ctrl, cam: cam, events: make(chan session.Event, 64)}
	run.Call(func() { ctrl.Subscribe(b.publish) })
	return b
}

// publish runs on the loop and must not block it. When the UI falls behind
// events are dropped; the next one carries the full state.
func (b *Booth) publish(ev session.Event) {
	select {
	case b.events <- ev:
	default:
	}
}

// Next waits for the next event.
func (b *Booth) Next(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		select {
		case ev := <-b.events:
			return eventMsg(ev)
		case <-ctx.Done():
			return nil
		}
	}
}

// Do runs fn against the controller on its loop.
func (b *Booth) Do(fn func(*session.Controller) error) error {
	var err error
	if !b.run.Call(func() { err = fn(b.ctrl) }) {
		return ErrStopped
	}
	return err
}

// Edit runs fn against the edit session and publishes the result.
func (b *Booth) Edit(fn func(*session.Edit) error) error {
	return b.Do(func(c *session.Controller) error { return c.Update(fn) })
}

// State returns the latest published state.
func (b *Booth) State() *session.State {
	return b.ctrl.Store().Get()
}

// Frame grabs the current camera frame.
func (b *Booth) Frame() (image.Image, error) {
	if b.cam == nil {
		return nil, errors.New("no camera preview")
	}
	return b.cam.Grab()
}

// Strip lays the strip out on the loop and renders it on the caller's
// goroutine.
func (b *Booth) Strip() (image.Image, error) {
	var comp compose.Composition
	if err := b.Do(func(c *session.Controller) (err error) {
		comp, err = c.Composition()
		return err
	}); err != nil {
		return nil, err
	}
	return compose.Render(comp, 1)
}
