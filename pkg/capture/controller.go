package capture

import (
	"context"
	"sync"
)

// Controller states.
const (
	StateRunning  = "running"
	StatePaused   = "paused"
	StateStopping = "stopping"
)

// Controller gates a recording or replay session. Waiters block while the
// controller is paused; Kill releases them with the kill error and closes
// Stopped.
type Controller struct {
	mu       sync.Mutex
	paused   bool
	stopping bool
	stopErr  error
	changed  chan struct{}
	stopped  chan struct{}
	observer func(state, reason string)
}

// NewController constructs a controller in the running state.
func NewController() *Controller {
	return &Controller{changed: make(chan struct{}), stopped: make(chan struct{})}
}

// NewPausedController constructs a controller that holds waiters until
// Resume or Kill.
func NewPausedController() *Controller {
	c := NewController()
	c.paused = true
	return c
}

// Observe registers fn to be called after every state transition.
func (c *Controller) Observe(fn func(state, reason string)) {
	c.mu.Lock()
	c.observer = fn
	c.mu.Unlock()
}

// Pause holds waiters until Resume.
func (c *Controller) Pause(reason string) {
	c.mu.Lock()
	if c.paused || c.stopping {
		c.mu.Unlock()
		return
	}
	c.paused = true
	c.transitionLocked(StatePaused, reason)
}

// Resume clears a paused state and wakes waiters.
func (c *Controller) Resume(reason string) {
	c.mu.Lock()
	if !c.paused || c.stopping {
		c.mu.Unlock()
		return
	}
	c.paused = false
	c.transitionLocked(StateRunning, reason)
}

// Kill stops the session. The first non-nil error is kept and returned by
// Wait and Err.
func (c *Controller) Kill(err error) {
	c.mu.Lock()
	if err != nil && c.stopErr == nil {
		c.stopErr = err
	}
	if c.stopping {
		c.mu.Unlock()
		return
	}
	c.stopping = true
	close(c.stopped)
	reason := ""
	if err != nil {
		reason = err.Error()
	}
	c.transitionLocked(StateStopping, reason)
}

// transitionLocked wakes waiters and notifies the observer. It releases
// c.mu.
func (c *Controller) transitionLocked(state, reason string) {
	close(c.changed)
	c.changed = make(chan struct{})
	observer := c.observer
	c.mu.Unlock()
	if observer != nil {
		observer(state, reason)
	}
}

// Wait blocks until the controller is running or stopping.
func (c *Controller) Wait(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		c.mu.Lock()
		paused, stopping, stopErr, changed := c.paused, c.stopping, c.stopErr, c.changed
		c.mu.Unlock()

		if stopping {
			if stopErr != nil {
				return stopErr
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return context.Canceled
		}
		if !paused {
			return nil
		}

		select {
		case <-ctx.Done():
			c.Kill(ctx.Err())
			return ctx.Err()
		case <-changed:
		}
	}
}

// Stopped is closed once Kill has been called.
func (c *Controller) Stopped() <-chan struct{} {
	return c.stopped
}

// Err returns the kill error, if any.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopErr
}

// State reports the textual state for diagnostics.
func (c *Controller) State() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.stopping:
		return StateStopping
	case c.paused:
		return StatePaused
	default:
		return StateRunning
	}
}
