// Package timeline provides the single scheduler every timed behaviour of
// the booth runs on. A Timeline executes posted work and delayed callbacks
// one at a time; callers never see two callbacks running concurrently.
package timeline

import (
	"sync"
	"time"
)

// Timer is a handle to a scheduled callback.
type Timer interface {
	// Stop prevents the callback from running. It reports whether the call
	// stopped the callback before it ran.
	Stop() bool
}

// Timeline schedules callbacks on a shared, serial timeline.
type Timeline interface {
	// After runs fn once d has elapsed.
	After(d time.Duration, fn func()) Timer
	// Post runs fn as soon as possible, after work already queued.
	Post(fn func())
	// Now returns the timeline's current time.
	Now() time.Time
}

// Group tracks timers scheduled through it so that they can be cancelled
// together when the owner tears down or changes phase.
type Group struct {
	tl     Timeline
	mu     sync.Mutex
	timers map[*groupTimer]struct{}
}

// NewGroup creates a group scheduling on tl.
func NewGroup(tl Timeline) *Group {
	return &Group{tl: tl, timers: make(map[*groupTimer]struct{})}
}

type groupTimer struct {
	g     *Group
	inner Timer
}

func (t *groupTimer) Stop() bool {
	t.g.forget(t)
	return t.inner.Stop()
}

// After schedules fn on the group's timeline.
func (g *Group) After(d time.Duration, fn func()) Timer {
	t := &groupTimer{g: g}
	g.mu.Lock()
	g.timers[t] = struct{}{}
	g.mu.Unlock()
	t.inner = g.tl.After(d, func() {
		if !g.forget(t) {
			return
		}
		fn()
	})
	return t
}

// forget removes t and reports whether it was still pending.
func (g *Group) forget(t *groupTimer) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.timers[t]; !ok {
		return false
	}
	delete(g.timers, t)
	return true
}

// CancelAll stops every pending timer in the group.
func (g *Group) CancelAll() int {
	g.mu.Lock()
	pending := make([]*groupTimer, 0, len(g.timers))
	for t := range g.timers {
		pending = append(pending, t)
	}
	g.timers = make(map[*groupTimer]struct{})
	g.mu.Unlock()

	for _, t := range pending {
		if t.inner != nil {
			t.inner.Stop()
		}
	}
	return len(pending)
}

// Pending returns the number of timers that have neither fired nor been
// stopped.
func (g *Group) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.timers)
}
