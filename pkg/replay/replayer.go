// Package replay drives a recorded scenario into a live application.
//
// Replay waits for a readiness signal, then walks the scenario in order. Each
// entry's target is resolved on the UI goroutine, retrying until the resolve
// timeout; unresolved targets and undecodable events are counted and skipped
// unless strict mode is on. Events are injected with the toolkit's
// synchronous delivery, so they are never spontaneous and never re-captured.
package replay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rekonder/qttester/pkg/capture"
	"github.com/rekonder/qttester/pkg/eventcodec"
	"github.com/rekonder/qttester/pkg/objpath"
	"github.com/rekonder/qttester/pkg/scenario"
	"github.com/rekonder/qttester/pkg/toolkit"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"pkt.systems/pslog"
)

const tracerName = "github.com/rekonder/qttester/pkg/replay"

// Defaults applied by New for zero option values.
const (
	DefaultReadyKind       = "WindowActivate"
	DefaultReadyTimeout    = 10 * time.Second
	DefaultResolveTimeout  = 2 * time.Second
	DefaultResolveInterval = 50 * time.Millisecond
)

// ReadyNone disables the readiness gate.
const ReadyNone = "none"

// Options tunes a Replayer.
type Options struct {
	Pacing Pacing
	Speed  float64
	Strict bool
	Fuzzy  bool

	// ReadyKind names the event kind that opens the readiness gate.
	ReadyKind       string
	ReadyTimeout    time.Duration
	ResolveTimeout  time.Duration
	ResolveInterval time.Duration

	Tracer trace.Tracer
	Logger pslog.Logger

	// sleep replaces the pacing wait in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// Outcome is the result of one entry.
type Outcome string

const (
	OutcomeReplayed Outcome = "replayed"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeFailed   Outcome = "failed"
)

// EntryResult records what happened to one scenario entry.
type EntryResult struct {
	Index    int     `json:"index"`
	Target   string  `json:"target"`
	Kind     string  `json:"kind"`
	Outcome  Outcome `json:"outcome"`
	Attempts int     `json:"attempts"`
	Error    string  `json:"error,omitempty"`
}

// Summary reports a replay session.
type Summary struct {
	Total    int           `json:"total"`
	Replayed int           `json:"replayed"`
	Skipped  int           `json:"skipped"`
	Failed   int           `json:"failed"`
	Aborted  bool          `json:"aborted"`
	Results  []EntryResult `json:"results,omitempty"`
}

func (s *Summary) add(r EntryResult) {
	s.Results = append(s.Results, r)
	switch r.Outcome {
	case OutcomeReplayed:
		s.Replayed++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeFailed:
		s.Failed++
	}
}

// Replayer injects a scenario into one application.
type Replayer struct {
	codec     *eventcodec.Codec
	opts      Options
	readyKind int64
	gated     bool
	gate      *capture.Controller
	tracer    trace.Tracer
	logger    pslog.Logger

	app      toolkit.Application
	resolver *objpath.Resolver
}

// New validates options and resolves the readiness kind.
func New(codec *eventcodec.Codec, opts Options) (*Replayer, error) {
	if codec == nil {
		return nil, errors.New("replay: nil event codec")
	}
	if opts.Pacing == "" {
		opts.Pacing = PacingImmediate
	}
	if _, err := ParsePacing(string(opts.Pacing)); err != nil {
		return nil, err
	}
	if opts.Speed < 0 {
		return nil, fmt.Errorf("replay: speed must be positive, got %g", opts.Speed)
	}
	if opts.Speed == 0 {
		opts.Speed = 1
	}
	if opts.ReadyKind == "" {
		opts.ReadyKind = DefaultReadyKind
	}
	if opts.ReadyTimeout <= 0 {
		opts.ReadyTimeout = DefaultReadyTimeout
	}
	if opts.ResolveTimeout < 0 {
		opts.ResolveTimeout = 0
	}
	if opts.ResolveInterval <= 0 {
		opts.ResolveInterval = DefaultResolveInterval
	}
	if opts.sleep == nil {
		opts.sleep = sleepContext
	}

	r := &Replayer{codec: codec, opts: opts, tracer: opts.Tracer, logger: opts.Logger}
	if r.tracer == nil {
		r.tracer = otel.Tracer(tracerName)
	}
	if r.logger == nil {
		r.logger = pslog.Ctx(context.Background())
	}
	if opts.ReadyKind != ReadyNone {
		kind, err := codec.KindValue(opts.ReadyKind)
		if err != nil {
			return nil, fmt.Errorf("replay: ready kind %q: %w", opts.ReadyKind, err)
		}
		r.readyKind = kind
		r.gated = true
		r.gate = capture.NewPausedController()
	} else {
		r.gate = capture.NewController()
	}
	return r, nil
}

// Attach installs the readiness filter on app. It must be called before the
// application starts its event loop so the readiness event is not missed.
func (r *Replayer) Attach(app toolkit.Application) {
	r.app = app
	r.resolver = objpath.NewResolver(app, r.opts.Fuzzy)
	if r.gated {
		app.InstallEventFilter(r)
	}
}

// Detach removes the readiness filter.
func (r *Replayer) Detach() {
	if r.app != nil && r.gated {
		r.app.RemoveEventFilter(r)
	}
}

// EventFilter implements toolkit.Filter. It opens the readiness gate and
// never consumes events.
func (r *Replayer) EventFilter(_ toolkit.Object, event toolkit.Event) bool {
	if event.Kind() == r.readyKind {
		r.gate.Resume("ready: " + r.opts.ReadyKind)
	}
	return false
}

// Run replays sc. It returns the summary so far together with any error that
// ended the session early.
func (r *Replayer) Run(ctx context.Context, sc *scenario.Scenario) (Summary, error) {
	if r.app == nil {
		return Summary{}, errors.New("replay: Attach must be called before Run")
	}
	summary := Summary{Total: sc.Len()}
	ctx, span := r.tracer.Start(ctx, "replay.session", trace.WithAttributes(
		attribute.String("qttester.session_id", sc.Header.SessionID),
		attribute.String("qttester.toolkit", sc.Header.Toolkit),
		attribute.Int("qttester.entries", sc.Len()),
		attribute.String("qttester.pacing", string(r.opts.Pacing)),
		attribute.Bool("qttester.fuzzy", r.opts.Fuzzy),
	))
	defer span.End()

	err := r.run(ctx, sc, &summary)
	span.SetAttributes(
		attribute.Int("qttester.replayed", summary.Replayed),
		attribute.Int("qttester.skipped", summary.Skipped),
		attribute.Int("qttester.failed", summary.Failed),
	)
	if err != nil {
		summary.Aborted = true
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return summary, err
}

func (r *Replayer) run(ctx context.Context, sc *scenario.Scenario, summary *Summary) error {
	if err := r.waitReady(ctx); err != nil {
		return err
	}
	r.logger.Info("replay started", "entries", sc.Len(), "pacing", r.opts.Pacing, "speed", r.opts.Speed, "fuzzy", r.opts.Fuzzy, "strict", r.opts.Strict)

	var prev time.Duration
	for i, entry := range sc.Entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.opts.sleep(ctx, r.opts.Pacing.Delay(prev, entry.Offset, r.opts.Speed)); err != nil {
			return err
		}
		prev = entry.Offset

		result, err := r.replayEntry(ctx, i, entry)
		summary.add(result)
		if err != nil {
			return err
		}
	}
	r.logger.Info("replay finished", "replayed", summary.Replayed, "skipped", summary.Skipped, "failed", summary.Failed)
	return nil
}

func (r *Replayer) waitReady(ctx context.Context) error {
	if !r.gated {
		return nil
	}
	readyCtx, cancel := context.WithTimeout(ctx, r.opts.ReadyTimeout)
	defer cancel()
	if err := r.gate.Wait(readyCtx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: no %s within %s", ErrNotReady, r.opts.ReadyKind, r.opts.ReadyTimeout)
	}
	return nil
}

// replayEntry returns an error only when the session must stop.
func (r *Replayer) replayEntry(ctx context.Context, index int, entry scenario.Entry) (EntryResult, error) {
	result := EntryResult{Index: index, Target: entry.Path.String(), Kind: entry.Event.Kind}
	ctx, span := r.tracer.Start(ctx, "replay.entry", trace.WithAttributes(
		attribute.Int("qttester.index", index),
		attribute.String("qttester.target", result.Target),
		attribute.String("qttester.class", entry.Event.Class),
		attribute.String("qttester.kind", entry.Event.Kind),
	))
	defer span.End()
	log := r.logger.With("entry", index, "target", result.Target, "kind", entry.Event.Kind)

	fail := func(outcome Outcome, err error) (EntryResult, error) {
		result.Outcome = outcome
		result.Error = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("qttester.outcome", string(outcome)))
		if r.opts.Strict {
			log.Error("replay entry failed; aborting", "err", err)
			return result, &EntryError{Index: index, Err: err}
		}
		log.Warn("replay entry "+string(outcome), "err", err)
		return result, nil
	}

	target, attempts, err := r.resolve(ctx, entry.Path)
	result.Attempts = attempts
	if err != nil {
		result.Outcome = OutcomeFailed
		result.Error = err.Error()
		return result, err
	}
	if target == nil {
		return fail(OutcomeSkipped, &UnresolvedTargetError{Index: index, Path: result.Target})
	}

	event, err := r.codec.Deserialize(entry.Event)
	if err != nil {
		return fail(OutcomeFailed, err)
	}

	if err := r.onUI(ctx, func() { r.app.SendEvent(target, event) }); err != nil {
		result.Outcome = OutcomeFailed
		result.Error = err.Error()
		return result, err
	}
	result.Outcome = OutcomeReplayed
	span.SetAttributes(attribute.String("qttester.outcome", string(OutcomeReplayed)))
	log.Debug("replay entry delivered", "attempts", attempts)
	return result, nil
}

// resolve looks the path up on the UI goroutine until it matches or the
// resolve timeout passes. A nil object with a nil error is a miss.
func (r *Replayer) resolve(ctx context.Context, path objpath.Path) (toolkit.Object, int, error) {
	deadline := time.Now().Add(r.opts.ResolveTimeout)
	attempts := 0
	for {
		attempts++
		var found toolkit.Object
		if err := r.onUI(ctx, func() {
			if obj, ok := r.resolver.Resolve(path); ok {
				found = obj
			}
		}); err != nil {
			return nil, attempts, err
		}
		if found != nil {
			return found, attempts, nil
		}
		if !time.Now().Before(deadline) {
			return nil, attempts, nil
		}
		if err := sleepContext(ctx, r.opts.ResolveInterval); err != nil {
			return nil, attempts, err
		}
	}
}

// onUI runs fn on the UI goroutine and waits for it.
func (r *Replayer) onUI(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if !r.app.Post(func() {
		defer close(done)
		fn()
	}) {
		return ErrApplicationStopped
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
