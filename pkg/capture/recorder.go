package capture

import (
	"context"
	"time"

	"github.com/rekonder/qttester/pkg/eventcodec"
	"github.com/rekonder/qttester/pkg/objpath"
	"github.com/rekonder/qttester/pkg/scenario"
	"github.com/rekonder/qttester/pkg/toolkit"
	"pkt.systems/pslog"
)

// Stats counts what the recorder saw.
type Stats struct {
	Seen        int `json:"seen"`
	Spontaneous int `json:"spontaneous"`
	Recorded    int `json:"recorded"`
	Filtered    int `json:"filtered"`
	Paused      int `json:"paused"`
	Degraded    int `json:"degraded"`
	Unrooted    int `json:"unrooted"`
}

// Recorder is the capture event filter. It appends every spontaneous,
// allowed event to the scenario and never consumes anything.
//
// EventFilter runs on the UI goroutine. Stats and the scenario are not
// synchronised; read them once the event loop has stopped.
type Recorder struct {
	codec    *eventcodec.Codec
	policy   KindPolicy
	control  *Controller
	scenario *scenario.Scenario
	clock    func() time.Time
	logger   pslog.Logger

	app      toolkit.Application
	resolver *objpath.Resolver
	start    time.Time
	stats    Stats
}

// RecorderOptions tunes a Recorder.
type RecorderOptions struct {
	// Control pauses recording while paused. Optional.
	Control *Controller
	Clock   func() time.Time
	Logger  pslog.Logger
}

// NewRecorder creates a recorder appending to sc.
func NewRecorder(codec *eventcodec.Codec, policy KindPolicy, sc *scenario.Scenario, opts RecorderOptions) *Recorder {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Recorder{
		codec:    codec,
		policy:   policy,
		control:  opts.Control,
		scenario: sc,
		clock:    clock,
		logger:   logger,
	}
}

// Attach installs the recorder on app and starts the session clock.
func (r *Recorder) Attach(app toolkit.Application) {
	r.app = app
	r.resolver = objpath.NewResolver(app, false)
	r.start = r.clock()
	app.InstallEventFilter(r)
}

// Detach removes the recorder from the application it was attached to.
func (r *Recorder) Detach() {
	if r.app != nil {
		r.app.RemoveEventFilter(r)
	}
}

// EventFilter implements toolkit.Filter. It always returns false.
func (r *Recorder) EventFilter(target toolkit.Object, event toolkit.Event) bool {
	r.stats.Seen++
	if !event.Spontaneous() {
		return false
	}
	r.stats.Spontaneous++
	if !r.policy.Allows(event.Kind()) {
		r.stats.Filtered++
		return false
	}
	if r.control != nil && r.control.State() != StateRunning {
		r.stats.Paused++
		return false
	}

	path, err := r.resolver.Serialize(target)
	if err != nil {
		r.stats.Unrooted++
		r.logger.Warn("capture target not serializable; event dropped", "class", event.Class(), "kind", event.Kind(), "err", err)
		return false
	}
	rec, complete := r.codec.Serialize(event)
	if !complete {
		r.stats.Degraded++
	}
	r.scenario.Append(scenario.Entry{Path: path, Event: rec, Offset: r.clock().Sub(r.start)})
	r.stats.Recorded++
	r.logger.Trace("event captured", "target", path.String(), "class", rec.Class, "kind", rec.Kind)
	return false
}

// Stats returns a copy of the counters.
func (r *Recorder) Stats() Stats {
	return r.stats
}
