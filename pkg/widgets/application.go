package widgets

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rekonder/qttester/pkg/toolkit"
)

// ErrNotRunning is returned when input arrives after the event loop stopped.
var ErrNotRunning = errors.New("application event loop is not running")

const queueDepth = 256

// Application owns the top-level registry, the event filters and the event
// loop. Tree access and dispatch happen on the goroutine running Exec; other
// goroutines reach the tree through Post.
type Application struct {
	version   string
	args      []string
	input     toolkit.InputSource
	topLevels []*Widget
	filters   []toolkit.Filter

	queue    chan func()
	quit     chan struct{}
	quitOnce sync.Once
}

// NewApplication creates an application for a toolkit variant.
func NewApplication(version string, opts toolkit.AppOptions) *Application {
	return &Application{
		version: version,
		args:    append([]string(nil), opts.Args...),
		input:   opts.Input,
		queue:   make(chan func(), queueDepth),
		quit:    make(chan struct{}),
	}
}

// Version reports the toolkit variant.
func (a *Application) Version() string { return a.version }

// Args returns the process arguments the application was created with.
func (a *Application) Args() []string { return append([]string(nil), a.args...) }

// NewWindow creates and registers a top-level window.
func (a *Application) NewWindow(typeName, name string) *Widget {
	w := &Widget{app: a, typeName: typeName, name: name}
	a.topLevels = append(a.topLevels, w)
	return w
}

// TopLevelWidgets implements toolkit.Application.
func (a *Application) TopLevelWidgets() []toolkit.Object {
	out := make([]toolkit.Object, len(a.topLevels))
	for i, w := range a.topLevels {
		out[i] = w
	}
	return out
}

// InstallEventFilter implements toolkit.Application. The most recently
// installed filter runs first.
func (a *Application) InstallEventFilter(f toolkit.Filter) {
	if f == nil {
		return
	}
	a.filters = append(a.filters, f)
}

// RemoveEventFilter implements toolkit.Application.
func (a *Application) RemoveEventFilter(f toolkit.Filter) {
	for i, existing := range a.filters {
		if existing == f {
			a.filters = append(a.filters[:i], a.filters[i+1:]...)
			return
		}
	}
}

// SendEvent implements toolkit.Application. The event is delivered
// synchronously and is never spontaneous.
func (a *Application) SendEvent(target toolkit.Object, event toolkit.Event) bool {
	w, ok := target.(*Widget)
	if !ok || w == nil || event == nil {
		return false
	}
	return a.dispatch(w, event)
}

func (a *Application) dispatch(w *Widget, event toolkit.Event) bool {
	filters := append([]toolkit.Filter(nil), a.filters...)
	for i := len(filters) - 1; i >= 0; i-- {
		if filters[i].EventFilter(w, event) {
			return true
		}
	}
	return w.deliver(event)
}

// Post implements toolkit.Application.
func (a *Application) Post(fn func()) bool {
	select {
	case <-a.quit:
		return false
	default:
	}
	select {
	case a.queue <- fn:
		return true
	case <-a.quit:
		return false
	}
}

// Quit implements toolkit.Application.
func (a *Application) Quit() {
	a.quitOnce.Do(func() { close(a.quit) })
}

// Exec implements toolkit.Application.
func (a *Application) Exec(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var inputDone chan error
	if a.input != nil {
		inputDone = make(chan error, 1)
		go func() {
			inputDone <- a.input.Stream(ctx, a, a.emitSystem)
		}()
	}

	for {
		select {
		case <-ctx.Done():
			a.Quit()
			return ctx.Err()
		case <-a.quit:
			a.drain()
			return nil
		case fn := <-a.queue:
			fn()
		case err := <-inputDone:
			inputDone = nil
			if err != nil && !errors.Is(err, ErrNotRunning) && !errors.Is(err, context.Canceled) {
				a.Quit()
				return fmt.Errorf("system input: %w", err)
			}
		}
	}
}

// drain runs callbacks queued before Quit so posted work is not lost.
func (a *Application) drain() {
	for {
		select {
		case fn := <-a.queue:
			fn()
		default:
			return
		}
	}
}

// SimulateInput delivers event to target as window-system input on the
// calling goroutine. It is meant for embedders and tests that drive dispatch
// without running Exec.
func (a *Application) SimulateInput(target toolkit.Object, event toolkit.Event) (bool, error) {
	w, ok := target.(*Widget)
	if !ok || w == nil {
		return false, fmt.Errorf("system input target %T is not a widget", target)
	}
	return a.dispatch(w, markSpontaneous(event)), nil
}

// emitSystem delivers a window-system event on the UI goroutine and waits for
// dispatch to finish.
func (a *Application) emitSystem(target toolkit.Object, event toolkit.Event) error {
	w, ok := target.(*Widget)
	if !ok || w == nil {
		return fmt.Errorf("system input target %T is not a widget", target)
	}
	done := make(chan struct{})
	if !a.Post(func() {
		defer close(done)
		a.dispatch(w, markSpontaneous(event))
	}) {
		return ErrNotRunning
	}
	select {
	case <-done:
		return nil
	case <-a.quit:
		return ErrNotRunning
	}
}
