// Package capture records spontaneous input delivered to a running
// application into a scenario.
package capture

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rekonder/qttester/pkg/eventcodec"
	"github.com/rekonder/qttester/pkg/scenario"
	"github.com/rekonder/qttester/pkg/toolkit"
	"pkt.systems/pslog"
)

// MainFunc runs an application under test: it builds the widget tree on app
// and runs its event loop until the application quits.
type MainFunc func(ctx context.Context, app toolkit.Application) error

// Options controls a recording session.
type Options struct {
	Adapter    toolkit.Adapter
	Main       MainFunc
	EntryPoint string
	Input      toolkit.InputSource
	Args       []string

	Kinds   []string
	Include []string
	Exclude []string

	// ScenarioPath, when set, receives the scenario at session end.
	ScenarioPath string
	Control      *Controller
	Clock        func() time.Time
	Logger       pslog.Logger
}

// Summary reports the outcome of a recording session.
type Summary struct {
	Scenario    *scenario.Scenario
	Stats       Stats
	Kinds       []string
	Termination string
}

// Session terminations.
const (
	TerminationCompleted   = "completed"
	TerminationInterrupted = "interrupted"
)

// Run starts the application with the recorder installed, waits for it to
// exit and flushes the scenario. A cancelled context ends the recording
// normally; what was captured so far is kept.
func Run(ctx context.Context, opts Options) (Summary, error) {
	if opts.Adapter == nil {
		return Summary{}, errors.New("toolkit adapter must be provided")
	}
	if opts.Main == nil {
		return Summary{}, errors.New("entry point must be provided")
	}
	logger := opts.Logger
	if logger == nil {
		logger = pslog.Ctx(ctx)
	}
	kinds := opts.Kinds
	if kinds == nil {
		kinds = DefaultKinds
	}
	controller := opts.Control
	if controller == nil {
		controller = NewController()
	}

	codec, err := eventcodec.New(opts.Adapter, logger)
	if err != nil {
		return Summary{}, fmt.Errorf("initialise event codec: %w", err)
	}
	policy, err := NewKindPolicy(codec.KindValue, kinds, opts.Include, opts.Exclude)
	if err != nil {
		return Summary{}, fmt.Errorf("initialise capture filter: %w", err)
	}
	if len(policy.Kinds()) == 0 {
		logger.Warn("capture filter admits no event kinds; the scenario will be empty")
	}

	if err := controller.Wait(ctx); err != nil {
		return Summary{}, err
	}

	sc := scenario.New(scenario.NewHeader(opts.Adapter.Version(), opts.EntryPoint))
	app := opts.Adapter.NewApplication(toolkit.AppOptions{Input: opts.Input, Args: opts.Args})
	recorder := NewRecorder(codec, policy, sc, RecorderOptions{Control: controller, Clock: opts.Clock, Logger: logger})
	recorder.Attach(app)
	defer recorder.Detach()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-controller.Stopped():
			app.Quit()
		case <-runCtx.Done():
		}
	}()

	logger.Info("recording started", "session", sc.Header.SessionID, "toolkit", sc.Header.Toolkit, "entry_point", opts.EntryPoint, "kinds", policy.Kinds())
	termination := TerminationCompleted
	if err := opts.Main(runCtx, app); err != nil {
		if !errors.Is(err, context.Canceled) {
			return Summary{}, fmt.Errorf("application exited: %w", err)
		}
		termination = TerminationInterrupted
	}
	if controller.State() == StateStopping {
		termination = TerminationInterrupted
	}

	summary := Summary{Scenario: sc, Stats: recorder.Stats(), Kinds: policy.Kinds(), Termination: termination}
	logger.Info("recording finished",
		"termination", termination,
		"recorded", summary.Stats.Recorded,
		"filtered", summary.Stats.Filtered,
		"degraded", summary.Stats.Degraded,
		"unrooted", summary.Stats.Unrooted,
	)
	if opts.ScenarioPath != "" {
		// The session context may already be cancelled; the flush must
		// still happen.
		if err := scenario.Save(pslog.ContextWithLogger(context.Background(), logger), opts.ScenarioPath, sc); err != nil {
			return summary, fmt.Errorf("save scenario: %w", err)
		}
	}
	return summary, nil
}
