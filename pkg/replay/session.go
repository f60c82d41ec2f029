package replay

import (
	"context"
	"errors"
	"fmt"

	"github.com/rekonder/qttester/pkg/capture"
	"github.com/rekonder/qttester/pkg/eventcodec"
	"github.com/rekonder/qttester/pkg/scenario"
	"github.com/rekonder/qttester/pkg/toolkit"
	"pkt.systems/pslog"
)

// SessionOptions controls a replay session.
type SessionOptions struct {
	Adapter  toolkit.Adapter
	Main     capture.MainFunc
	Args     []string
	Scenario *scenario.Scenario
	Replay   Options
	// KeepOpen leaves the application running after the last entry instead
	// of quitting it.
	KeepOpen bool
	Logger   pslog.Logger
}

// Session starts the application, replays the scenario into it and quits
// the application when the replay is done.
func Session(ctx context.Context, opts SessionOptions) (Summary, error) {
	if opts.Adapter == nil {
		return Summary{}, errors.New("toolkit adapter must be provided")
	}
	if opts.Main == nil {
		return Summary{}, errors.New("entry point must be provided")
	}
	if opts.Scenario == nil {
		return Summary{}, errors.New("scenario must be provided")
	}
	if v := opts.Scenario.Header.Toolkit; v != "" && v != opts.Adapter.Version() {
		return Summary{}, fmt.Errorf("%w: recorded with %s, replaying with %s", ErrToolkitMismatch, v, opts.Adapter.Version())
	}
	logger := opts.Logger
	if logger == nil {
		logger = pslog.Ctx(ctx)
	}
	if opts.Replay.Logger == nil {
		opts.Replay.Logger = logger
	}

	codec, err := eventcodec.New(opts.Adapter, logger)
	if err != nil {
		return Summary{}, fmt.Errorf("initialise event codec: %w", err)
	}
	replayer, err := New(codec, opts.Replay)
	if err != nil {
		return Summary{}, err
	}

	app := opts.Adapter.NewApplication(toolkit.AppOptions{Args: opts.Args})
	replayer.Attach(app)
	defer replayer.Detach()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type outcome struct {
		summary Summary
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		summary, err := replayer.Run(runCtx, opts.Scenario)
		if !opts.KeepOpen || err != nil {
			app.Quit()
		}
		done <- outcome{summary: summary, err: err}
	}()

	mainErr := opts.Main(runCtx, app)
	// The application may exit on its own before the replay finishes.
	cancel()
	res := <-done

	if res.err != nil {
		if errors.Is(res.err, context.Canceled) && ctx.Err() == nil && mainErr == nil {
			res.err = fmt.Errorf("%w before replay finished", ErrApplicationStopped)
		}
		return res.summary, res.err
	}
	if mainErr != nil && !errors.Is(mainErr, context.Canceled) {
		return res.summary, fmt.Errorf("application exited: %w", mainErr)
	}
	return res.summary, nil
}
