package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rekonder/qttester/pkg/config"
	"github.com/rekonder/qttester/pkg/demoapp"
	"github.com/rekonder/qttester/pkg/entrypoint"
	"github.com/rekonder/qttester/pkg/replay"
	"github.com/rekonder/qttester/pkg/runmanifest"
	"github.com/rekonder/qttester/pkg/scenario"
)

type testEnv struct {
	dir        string
	configPath string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	configPath := filepath.Join(dir, config.DefaultFileName)
	content := "config_version: 1\nsessions:\n  dir: " + filepath.Join(dir, "sessions") + "\nlogging:\n  format: json\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return testEnv{dir: dir, configPath: configPath}
}

func (e testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	registry := entrypoint.NewRegistry()
	if err := demoapp.Register(registry); err != nil {
		t.Fatalf("register demo: %v", err)
	}
	root := NewRootCommand(registry)
	var stdout, stderr bytes.Buffer
	root.SetOutput(&stdout, &stderr)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := root.Execute(ctx, append([]string{"--config", e.configPath}, args...))
	return stdout.String(), err
}

func (e testEnv) manifests(t *testing.T) []runmanifest.Manifest {
	t.Helper()
	paths, err := filepath.Glob(filepath.Join(e.dir, "sessions", "*", "manifest.json"))
	if err != nil {
		t.Fatalf("glob manifests: %v", err)
	}
	var out []runmanifest.Manifest
	for _, p := range paths {
		man, err := runmanifest.Load(p)
		if err != nil {
			t.Fatalf("load manifest %s: %v", p, err)
		}
		out = append(out, man)
	}
	return out
}

func TestRecordReplayAndInfo(t *testing.T) {
	env := newTestEnv(t)
	scenarioPath := filepath.Join(env.dir, "counter.qtts")

	out, err := env.run(t, "record", scenarioPath, "--main", "demo.counter")
	if err != nil {
		t.Fatalf("record error: %v", err)
	}
	if !strings.Contains(out, "Scenario: "+scenarioPath) || !strings.Contains(out, "Recorded: ") {
		t.Fatalf("unexpected record output:\n%s", out)
	}
	if _, err := os.Stat(scenarioPath); err != nil {
		t.Fatalf("scenario not written: %v", err)
	}

	out, err = env.run(t, "replay", scenarioPath, "--main", "demo.counter", "--fuzzy")
	if err != nil {
		t.Fatalf("replay error: %v", err)
	}
	if !strings.Contains(out, "skipped: 0, failed: 0") {
		t.Fatalf("unexpected replay output:\n%s", out)
	}

	out, err = env.run(t, "info", scenarioPath, "--limit", "1")
	if err != nil {
		t.Fatalf("info error: %v", err)
	}
	if !strings.Contains(out, "demo.counter") {
		t.Fatalf("info output should name the entry point:\n%s", out)
	}
}

func TestRecordAndReplayWriteManifests(t *testing.T) {
	env := newTestEnv(t)
	scenarioPath := filepath.Join(env.dir, "form.qtts")

	if _, err := env.run(t, "--manifest", "record", scenarioPath, "--main", "demo.form"); err != nil {
		t.Fatalf("record error: %v", err)
	}
	if _, err := env.run(t, "--manifest", "replay", scenarioPath, "--main", "demo.form", "--resolve-timeout", "500ms"); err != nil {
		t.Fatalf("replay error: %v", err)
	}

	manifests := env.manifests(t)
	if len(manifests) != 2 {
		t.Fatalf("expected two manifests, got %d", len(manifests))
	}
	modes := map[string]runmanifest.Manifest{}
	for _, man := range manifests {
		modes[man.Mode] = man
	}
	rec, ok := modes[runmanifest.ModeRecord]
	if !ok || rec.Status.State != runmanifest.StateCompleted || rec.Status.Counts["recorded"] == 0 {
		t.Fatalf("unexpected record manifest: %+v", rec)
	}
	if len(rec.Status.Controller) == 0 {
		t.Fatalf("expected controller timeline in record manifest")
	}
	rep, ok := modes[runmanifest.ModeReplay]
	if !ok || rep.Status.State != runmanifest.StateCompleted {
		t.Fatalf("unexpected replay manifest: %+v", rep)
	}
	if rep.SessionID == "" || rep.SessionID != rec.SessionID {
		t.Fatalf("replay manifest should carry the recorded session id: %q vs %q", rep.SessionID, rec.SessionID)
	}
	if rep.Settings.ResolveTimeout != "500ms" {
		t.Fatalf("unexpected replay settings: %+v", rep.Settings)
	}
}

func TestReplayRejectsOtherToolkit(t *testing.T) {
	env := newTestEnv(t)
	scenarioPath := filepath.Join(env.dir, "counter.qtts")
	if _, err := env.run(t, "--qt", "4", "record", scenarioPath, "--main", "demo.counter"); err != nil {
		t.Fatalf("record error: %v", err)
	}
	_, err := env.run(t, "--qt", "5", "--manifest", "replay", scenarioPath, "--main", "demo.counter")
	if !errors.Is(err, replay.ErrToolkitMismatch) {
		t.Fatalf("expected toolkit mismatch, got %v", err)
	}
	manifests := env.manifests(t)
	if len(manifests) != 1 || manifests[0].Status.State != runmanifest.StateFailed {
		t.Fatalf("expected one failed manifest, got %+v", manifests)
	}
}

func TestUnresolvedEntryPointFails(t *testing.T) {
	env := newTestEnv(t)
	scenarioPath := filepath.Join(env.dir, "never.qtts")
	for _, spec := range []string{"demo.missing", "nosuchmodule"} {
		_, err := env.run(t, "record", scenarioPath, "--main", spec)
		var unresolved *entrypoint.UnresolvedError
		if !errors.As(err, &unresolved) {
			t.Fatalf("--main %s: expected unresolved entry point error, got %v", spec, err)
		}
	}
	if _, err := os.Stat(scenarioPath); !os.IsNotExist(err) {
		t.Fatalf("no scenario should be written, stat err=%v", err)
	}
}

func TestInvalidFlagValuesAreRejected(t *testing.T) {
	env := newTestEnv(t)
	tests := []struct {
		name string
		args []string
	}{
		{name: "qt", args: []string{"--qt", "6", "info", "x"}},
		{name: "pacing", args: []string{"replay", "x", "--main", "demo", "--pacing", "warp"}},
		{name: "input", args: []string{"record", "x", "--main", "demo", "--input", "mouse"}},
		{name: "pattern", args: []string{"--filter-include", "[", "record", "x", "--main", "demo"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := env.run(t, tt.args...); err == nil {
				t.Fatalf("expected error for %v", tt.args)
			}
		})
	}
}

func TestConfigInit(t *testing.T) {
	env := newTestEnv(t)
	target := filepath.Join(env.dir, "generated", "qttester.yaml")
	out, err := env.run(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init error: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("unexpected output %q", out)
	}
	if _, err := env.run(t, "config", "init", "--path", target); err == nil {
		t.Fatalf("expected existing file to be kept")
	}
	if _, err := env.run(t, "config", "init", "--path", target, "--force"); err != nil {
		t.Fatalf("forced config init error: %v", err)
	}
	if _, err := config.Load(target); err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}
}

func TestVersionCommand(t *testing.T) {
	origVersion, origGOOS := runtimeVersion, runtimeGOOS
	runtimeVersion = func() string { return "go1.test" }
	runtimeGOOS = func() string { return "plan9" }
	t.Cleanup(func() {
		runtimeVersion, runtimeGOOS = origVersion, origGOOS
	})

	env := newTestEnv(t)
	out, err := env.run(t, "version")
	if err != nil {
		t.Fatalf("version error: %v", err)
	}
	if !strings.Contains(out, "(go1.test/plan9)") {
		t.Fatalf("unexpected version output %q", out)
	}
}

func TestFilterFlagsNarrowRecordedEventKinds(t *testing.T) {
	root := NewRootCommand(nil)
	for _, name := range []string{"filter-include", "filter-exclude"} {
		if usage := root.cmd.PersistentFlags().Lookup(name).Usage; !strings.Contains(usage, "event kinds") {
			t.Fatalf("--%s usage should describe event kinds, got %q", name, usage)
		}
	}

	env := newTestEnv(t)
	scenarioPath := filepath.Join(env.dir, "form.qtts")
	if _, err := env.run(t, "--filter-exclude", "Key*", "record", scenarioPath, "--main", "demo.form"); err != nil {
		t.Fatalf("record error: %v", err)
	}
	sc, err := scenario.Load(context.Background(), scenarioPath)
	if err != nil {
		t.Fatalf("load scenario: %v", err)
	}
	if sc.Len() == 0 {
		t.Fatalf("expected mouse events to be recorded")
	}
	for _, entry := range sc.Entries {
		if strings.Contains(entry.Event.Kind, "Key") {
			t.Fatalf("excluded kind recorded: %s", entry.Event.Kind)
		}
	}
}
