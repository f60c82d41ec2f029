package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/rekonder/qttester/internal/buildinfo"
	"github.com/rekonder/qttester/pkg/entrypoint"
	"github.com/rekonder/qttester/pkg/runmanifest"
)

var (
	timeNow      = time.Now
	hostname     = os.Hostname
	manifestSave = runmanifest.Save
)

// sessionRecord persists the manifest of one record or replay session. A nil
// *sessionRecord is valid and does nothing, which is what callers get when
// manifests are disabled.
type sessionRecord struct {
	app      *AppContext
	layout   runmanifest.Layout
	manifest runmanifest.Manifest
}

func openSession(app *AppContext, mode, entry, scenarioPath string) (*sessionRecord, error) {
	if !app.Config.Sessions.Manifest {
		return nil, nil
	}
	dir := app.Config.Sessions.Dir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure sessions directory: %w", err)
	}
	runID, err := runmanifest.ResolveRunID(dir, timeNow())
	if err != nil {
		return nil, fmt.Errorf("resolve run id: %w", err)
	}
	layout := runmanifest.BuildLayout(dir, runID)
	if err := runmanifest.EnsureFilesystem(layout); err != nil {
		return nil, fmt.Errorf("prepare session filesystem: %w", err)
	}

	host, err := hostname()
	if err != nil {
		host = "unknown"
	}
	s := &sessionRecord{
		app:    app,
		layout: layout,
		manifest: runmanifest.New(runmanifest.Options{
			RunID:        runID,
			Mode:         mode,
			EntryPoint:   entry,
			ScenarioPath: scenarioPath,
			CreatedAt:    timeNow(),
			Hostname:     host,
			AppVersion:   buildinfo.Version(),
			Config:       app.Config,
			Layout:       layout,
		}),
	}
	s.manifest.Start(timeNow())
	s.manifest.Status.Summary = mode + " in progress"
	if err := manifestSave(s.manifest, layout.ManifestPath); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}
	s.log("%s started: entry point %s, scenario %s", mode, entry, scenarioPath)
	app.Logger.Info("session manifest created", "path", layout.ManifestPath)
	return s, nil
}

func (s *sessionRecord) observer() func(state, reason string) {
	if s == nil {
		return nil
	}
	return s.manifest.ObserveController(timeNow)
}

func (s *sessionRecord) log(format string, args ...any) {
	if s == nil {
		return
	}
	if err := runmanifest.AppendLog(s.layout.SessionLogPath, timeNow(), fmt.Sprintf(format, args...)); err != nil {
		s.app.Logger.Warn("append session log failed", "err", err)
	}
}

// finish records the outcome and returns runErr, annotated when the
// manifest itself cannot be written.
func (s *sessionRecord) finish(sessionID, termination, summary string, counts map[string]int, runErr error) error {
	if s == nil {
		return runErr
	}
	s.manifest.SessionID = sessionID
	for name, n := range counts {
		s.manifest.SetCount(name, n)
	}
	s.manifest.Status.Summary = summary
	s.manifest.Finish(timeNow(), termination, runErr)
	if runErr != nil {
		s.log("%s failed: %v", s.manifest.Mode, runErr)
	} else {
		s.log("%s finished: %s", s.manifest.Mode, summary)
	}
	if err := manifestSave(s.manifest, s.layout.ManifestPath); err != nil {
		if runErr != nil {
			return fmt.Errorf("%w (additionally failed to persist manifest: %v)", runErr, err)
		}
		return fmt.Errorf("finalise manifest: %w", err)
	}
	return runErr
}

// resolveEntry fails fast when --main names nothing runnable.
func resolveEntry(app *AppContext, spec string) (entrypoint.Resolution, error) {
	res := app.Registry.Resolve(spec)
	if err := res.Err(); err != nil {
		return res, fmt.Errorf("%w (available: %v)", err, app.Registry.Names())
	}
	app.Logger.Debug("entry point resolved", "spec", spec, "kind", res.Kind.String(), "module", res.Module, "symbol", res.Symbol)
	return res, nil
}
