package timeline

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Loop is a real-time Timeline backed by a single goroutine. Timers fire via
// time.AfterFunc but their callbacks are handed to the loop goroutine, so a
// timer stopped after it fired but before its callback ran never runs.
type Loop struct {
	queue  chan func()
	log    *zap.Logger
	done   chan struct{}
	once   sync.Once
	closed chan struct{}
}

// NewLoop creates a loop. Run must be called to start executing work.
func NewLoop(log *zap.Logger) *Loop {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loop{
		queue:  make(chan func(), 256),
		log:    log.Named("timeline"),
		done:   make(chan struct{}),
		closed: make(chan struct{}),
	}
}

type loopTimer struct {
	mu      sync.Mutex
	t       *time.Timer
	stopped bool
	ran     bool
}

func (t *loopTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped || t.ran {
		return false
	}
	t.stopped = true
	if t.t != nil {
		t.t.Stop()
	}
	return true
}

// claim marks the timer as run unless it was stopped first.
func (t *loopTimer) claim() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return false
	}
	t.ran = true
	return true
}

func (l *Loop) Now() time.Time { return time.Now() }

func (l *Loop) After(d time.Duration, fn func()) Timer {
	lt := &loopTimer{}
	lt.mu.Lock()
	lt.t = time.AfterFunc(d, func() {
		l.Post(func() {
			if lt.claim() {
				fn()
			}
		})
	})
	lt.mu.Unlock()
	return lt
}

// Post enqueues fn. Work posted after the loop has stopped is dropped.
func (l *Loop) Post(fn func()) {
	select {
	case <-l.closed:
		return
	default:
	}
	select {
	case l.queue <- fn:
	case <-l.closed:
	}
}

// Call runs fn on the loop and waits for it to finish. It returns false if
// the loop stopped before fn could run.
func (l *Loop) Call(fn func()) bool {
	ran := make(chan struct{})
	l.Post(func() {
		defer close(ran)
		fn()
	})
	select {
	case <-ran:
		return true
	case <-l.closed:
		return false
	}
}

// Run executes queued work until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)
	defer l.once.Do(func() { close(l.closed) })
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-l.queue:
			l.run(fn)
		}
	}
}

func (l *Loop) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("task panicked", zap.Any("panic", r))
		}
	}()
	fn()
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
