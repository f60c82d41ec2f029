package runmanifest

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/rekonder/qttester/pkg/capture"
	"github.com/rekonder/qttester/pkg/config"
)

func TestBuildLayoutAndRelativePaths(t *testing.T) {
	layout := BuildLayout("/tmp/sessions", "20240512_093000")

	if layout.Root != filepath.Join("/tmp/sessions", "20240512_093000") {
		t.Fatalf("unexpected root: %s", layout.Root)
	}

	rel := layout.RelativePaths()
	if rel.Root != "." {
		t.Fatalf("expected relative root '.', got %q", rel.Root)
	}
	if rel.Manifest != "manifest.json" {
		t.Fatalf("expected manifest.json, got %s", rel.Manifest)
	}
	if rel.SessionLog != "session.log" {
		t.Fatalf("expected session.log, got %s", rel.SessionLog)
	}
}

func TestEnsureFilesystemCreatesLayout(t *testing.T) {
	dir := t.TempDir()
	layout := BuildLayout(dir, "run")

	if err := EnsureFilesystem(layout); err != nil {
		t.Fatalf("EnsureFilesystem failed: %v", err)
	}
	info, err := os.Stat(layout.Root)
	if err != nil || !info.IsDir() {
		t.Fatalf("expected directory at %s: %v", layout.Root, err)
	}
	if _, err := os.Stat(layout.SessionLogPath); err != nil {
		t.Fatalf("expected session log file: %v", err)
	}
}

func TestNewManifestPerMode(t *testing.T) {
	cfg := config.Default()
	cfg.Source = "qttester.yaml"
	cfg.Capture.Include = []string{"*QPushButton*"}
	layout := BuildLayout("/tmp/sessions", "run")
	now := time.Date(2024, 5, 12, 9, 30, 0, 0, time.FixedZone("CEST", 2*3600))

	rec := New(Options{RunID: "run", Mode: ModeRecord, EntryPoint: "demo", ScenarioPath: "s.qtts", CreatedAt: now, Config: cfg, Layout: layout})
	if rec.SchemaVersion != SchemaVersion || rec.Status.State != StatePending {
		t.Fatalf("unexpected manifest header: %+v", rec)
	}
	if rec.CreatedAt.Location() != time.UTC {
		t.Fatalf("expected CreatedAt in UTC, got %s", rec.CreatedAt.Location())
	}
	if rec.Settings.Input != config.InputSynthetic || len(rec.Settings.Include) != 1 || rec.Settings.Pacing != "" {
		t.Fatalf("unexpected record settings: %+v", rec.Settings)
	}
	if !filepath.IsAbs(rec.Paths.Scenario) || filepath.Base(rec.Paths.Scenario) != "s.qtts" {
		t.Fatalf("expected absolute scenario path, got %q", rec.Paths.Scenario)
	}

	rep := New(Options{RunID: "run", Mode: ModeReplay, EntryPoint: "demo", CreatedAt: now, Config: cfg, Layout: layout})
	if rep.Settings.Pacing != "immediate" || rep.Settings.ResolveTimeout != "2s" || rep.Settings.Input != "" {
		t.Fatalf("unexpected replay settings: %+v", rep.Settings)
	}
}

func TestStatusLifecycle(t *testing.T) {
	man := New(Options{RunID: "run", Mode: ModeRecord, CreatedAt: time.Now(), Config: config.Default()})
	start := time.Date(2024, 5, 12, 9, 30, 0, 0, time.UTC)
	man.Start(start)

	control := capture.NewController()
	control.Observe(man.ObserveController(func() time.Time { return start }))
	control.Pause("operator")
	control.Resume("operator")
	control.Kill(nil)

	man.SetCount("recorded", 4)
	man.Finish(start.Add(time.Minute), "interrupted", nil)

	if man.Status.State != StateCompleted || man.Status.StartedAt == nil || man.Status.EndedAt == nil {
		t.Fatalf("unexpected status %+v", man.Status)
	}
	var states []string
	for _, entry := range man.Status.Controller {
		states = append(states, entry.State)
	}
	if got := strings.Join(states, ","); got != "paused,running,stopping" {
		t.Fatalf("unexpected controller timeline %s", got)
	}
	if man.Status.Counts["recorded"] != 4 {
		t.Fatalf("unexpected counts %+v", man.Status.Counts)
	}

	man.Finish(start, "", errors.New("boom"))
	if man.Status.State != StateFailed || man.Status.Error != "boom" {
		t.Fatalf("expected failed status, got %+v", man.Status)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	layout := BuildLayout(dir, "run")
	now := time.Now().UTC().Round(time.Second)

	man := New(Options{
		RunID:      "run",
		Mode:       ModeReplay,
		EntryPoint: "demo.counter",
		CreatedAt:  now,
		Hostname:   "host",
		AppVersion: "version",
		Config:     config.Default(),
		Layout:     layout,
	})
	man.SessionID = "abc"

	path := filepath.Join(dir, "manifest.json")
	if err := Save(man, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.RunID != man.RunID || loaded.SessionID != "abc" || loaded.Mode != ModeReplay {
		t.Fatalf("unexpected manifest %+v", loaded)
	}
	if !loaded.CreatedAt.Equal(now) {
		t.Fatalf("expected CreatedAt %s, got %s", now, loaded.CreatedAt)
	}

	if err := os.WriteFile(path, []byte(`{"schema_version": 9}`), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected unsupported schema error")
	}
}

func TestAppendLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.log")
	now := time.Date(2024, 5, 12, 9, 30, 0, 0, time.UTC)
	if err := AppendLog(path, now, "record started", "record stopped"); err != nil {
		t.Fatalf("AppendLog error: %v", err)
	}
	if err := AppendLog(path, now, "again"); err != nil {
		t.Fatalf("AppendLog error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 || lines[0] != "2024-05-12T09:30:00Z record started" {
		t.Fatalf("unexpected log %q", lines)
	}
}

func TestResolveRunID(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 5, 12, 9, 30, 0, 0, time.UTC)

	if err := os.MkdirAll(filepath.Join(dir, now.Format("20060102_150405")), 0o755); err != nil {
		t.Fatalf("prep existing run: %v", err)
	}

	id, err := ResolveRunID(dir, now)
	if err != nil {
		t.Fatalf("ResolveRunID failed: %v", err)
	}
	expected := now.Format("20060102_150405") + "_01"
	if id != expected {
		t.Fatalf("expected %s, got %s", expected, id)
	}
}

func TestResolveRunIDEmptySessionsDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("path validation differs on windows")
	}
	if _, err := ResolveRunID(" ", time.Now()); err == nil {
		t.Fatalf("expected error for empty sessions dir")
	}
}
