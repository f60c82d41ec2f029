package replay

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rekonder/qttester/pkg/eventcodec"
	"github.com/rekonder/qttester/pkg/objpath"
	"github.com/rekonder/qttester/pkg/scenario"
	"github.com/rekonder/qttester/pkg/toolkit"
	"github.com/rekonder/qttester/pkg/widgets"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"pkt.systems/pslog"
)

func quietLogger() pslog.Logger {
	return pslog.NewWithOptions(io.Discard, pslog.Options{Mode: pslog.ModeStructured, NoColor: true})
}

type harness struct {
	t      *testing.T
	codec  *eventcodec.Codec
	app    *widgets.Application
	win    *widgets.Widget
	button *widgets.Widget
	clicks chan struct{}
	done   chan error
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	adapter, err := widgets.NewAdapter(widgets.Version5)
	if err != nil {
		t.Fatalf("NewAdapter error: %v", err)
	}
	codec, err := eventcodec.New(adapter, quietLogger())
	if err != nil {
		t.Fatalf("eventcodec.New error: %v", err)
	}
	app := widgets.NewApplication(widgets.Version5, toolkit.AppOptions{})
	win := app.NewWindow(widgets.TypeMainWindow, "main")
	button := widgets.NewWidget(win, widgets.TypePushButton, "")
	h := &harness{t: t, codec: codec, app: app, win: win, button: button, clicks: make(chan struct{}, 16)}
	button.OnClicked(func() { h.clicks <- struct{}{} })
	return h
}

// start shows the window and runs the event loop until the test ends.
func (h *harness) start(show bool) {
	if show {
		h.win.Show()
	}
	h.done = make(chan error, 1)
	go func() { h.done <- h.app.Exec(context.Background()) }()
	h.t.Cleanup(func() {
		h.app.Quit()
		<-h.done
	})
}

func (h *harness) stop() {
	h.app.Quit()
	if err := <-h.done; err != nil {
		h.t.Fatalf("Exec error: %v", err)
	}
	h.done <- nil
}

func (h *harness) entry(path objpath.Path, ev toolkit.Event, offset time.Duration) scenario.Entry {
	rec, complete := h.codec.Serialize(ev)
	if !complete {
		h.t.Fatalf("degraded test record %+v", rec)
	}
	return scenario.Entry{Path: path, Event: rec, Offset: offset}
}

func (h *harness) buttonPath() objpath.Path {
	return objpath.Path{{Index: 0, Type: widgets.TypeMainWindow, Name: "main"}, {Index: 0, Type: widgets.TypePushButton}}
}

func click(kind int64) toolkit.Event {
	buttons := widgets.LeftButton
	if kind == widgets.MouseButtonRelease {
		buttons = widgets.NoButton
	}
	return widgets.NewMouseEvent(kind, toolkit.Point{X: 2, Y: 2}, toolkit.Point{X: 2, Y: 2}, widgets.LeftButton, buttons, widgets.NoModifier)
}

func (h *harness) clickScenario() *scenario.Scenario {
	sc := scenario.New(scenario.Header{Toolkit: widgets.Version5})
	sc.Append(h.entry(h.buttonPath(), click(widgets.MouseButtonPress), 0))
	sc.Append(h.entry(h.buttonPath(), click(widgets.MouseButtonRelease), 100*time.Millisecond))
	return sc
}

func TestReplayDeliversEntriesAndTraces(t *testing.T) {
	h := newHarness(t)
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	r, err := New(h.codec, Options{Tracer: provider.Tracer("test"), Logger: quietLogger()})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	r.Attach(h.app)
	h.start(true)

	summary, err := r.Run(context.Background(), h.clickScenario())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if summary.Total != 2 || summary.Replayed != 2 || summary.Skipped != 0 || summary.Failed != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	select {
	case <-h.clicks:
	case <-time.After(time.Second):
		t.Fatalf("expected the replayed click to reach the button")
	}
	h.stop()
	for _, ev := range h.button.Received() {
		if ev.Spontaneous() {
			t.Fatalf("replayed events must not be spontaneous")
		}
	}

	names := map[string]int{}
	for _, span := range recorder.Ended() {
		names[span.Name()]++
	}
	if names["replay.session"] != 1 || names["replay.entry"] != 2 {
		t.Fatalf("unexpected spans %v", names)
	}
}

func TestReplaySkipsUnresolvedTargets(t *testing.T) {
	h := newHarness(t)
	r, err := New(h.codec, Options{ResolveTimeout: 0, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	r.Attach(h.app)
	h.start(true)

	sc := h.clickScenario()
	missing := objpath.Path{{Index: 0, Type: widgets.TypeMainWindow, Name: "main"}, {Index: 3, Type: widgets.TypePushButton}}
	sc.Entries = append([]scenario.Entry{h.entry(missing, click(widgets.MouseButtonPress), 0)}, sc.Entries...)

	summary, err := r.Run(context.Background(), sc)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if summary.Replayed != 2 || summary.Skipped != 1 || summary.Aborted {
		t.Fatalf("unexpected summary %+v", summary)
	}
	first := summary.Results[0]
	if first.Outcome != OutcomeSkipped || first.Attempts != 1 || first.Error == "" {
		t.Fatalf("unexpected first result %+v", first)
	}
}

func TestStrictReplayAborts(t *testing.T) {
	h := newHarness(t)
	r, err := New(h.codec, Options{Strict: true, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	r.Attach(h.app)
	h.start(true)

	sc := scenario.New(scenario.Header{})
	missing := objpath.Path{{Type: widgets.TypeDialog, Name: "gone"}}
	sc.Append(h.entry(missing, click(widgets.MouseButtonPress), 0))
	sc.Append(h.entry(h.buttonPath(), click(widgets.MouseButtonPress), 0))

	summary, err := r.Run(context.Background(), sc)
	var unresolved *UnresolvedTargetError
	if !errors.As(err, &unresolved) || unresolved.Index != 0 {
		t.Fatalf("expected UnresolvedTargetError, got %v", err)
	}
	if !summary.Aborted || len(summary.Results) != 1 || summary.Replayed != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestReplayCountsDecodeFailures(t *testing.T) {
	h := newHarness(t)
	r, err := New(h.codec, Options{Logger: quietLogger()})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	r.Attach(h.app)
	h.start(true)

	sc := h.clickScenario()
	broken := sc.Entries[0]
	broken.Event.Args = append([]string(nil), broken.Event.Args...)
	broken.Event.Args[3] = "3"
	sc.Entries = append([]scenario.Entry{broken}, sc.Entries...)

	summary, err := r.Run(context.Background(), sc)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if summary.Failed != 1 || summary.Replayed != 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestReplayWaitsForLateWidgets(t *testing.T) {
	h := newHarness(t)
	r, err := New(h.codec, Options{ResolveTimeout: 2 * time.Second, ResolveInterval: 10 * time.Millisecond, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	r.Attach(h.app)
	h.start(true)

	late := objpath.Path{{Index: 0, Type: widgets.TypeMainWindow, Name: "main"}, {Index: 0, Type: widgets.TypeLineEdit, Name: "late"}}
	sc := scenario.New(scenario.Header{})
	sc.Append(h.entry(late, widgets.NewKeyEvent(widgets.KeyPress, 'Q', widgets.ShiftModifier, "Q", false, 1), 0))

	var edit *widgets.Widget
	time.AfterFunc(80*time.Millisecond, func() {
		h.app.Post(func() { edit = widgets.NewWidget(h.win, widgets.TypeLineEdit, "late") })
	})

	summary, err := r.Run(context.Background(), sc)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if summary.Replayed != 1 || summary.Results[0].Attempts < 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	h.stop()
	if edit.Text() != "Q" {
		t.Fatalf("expected key press to reach the late line edit, got %q", edit.Text())
	}
}

func TestReadinessGateTimesOut(t *testing.T) {
	h := newHarness(t)
	r, err := New(h.codec, Options{ReadyTimeout: 50 * time.Millisecond, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	r.Attach(h.app)
	h.start(false)

	summary, err := r.Run(context.Background(), h.clickScenario())
	if !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
	if !summary.Aborted || len(summary.Results) != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestReadinessGateCanBeDisabled(t *testing.T) {
	h := newHarness(t)
	r, err := New(h.codec, Options{ReadyKind: ReadyNone, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	r.Attach(h.app)
	h.start(false)
	if _, err := r.Run(context.Background(), h.clickScenario()); err != nil {
		t.Fatalf("Run error: %v", err)
	}
}

func TestRecordedPacingAndCancellation(t *testing.T) {
	h := newHarness(t)
	var waits []time.Duration
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r, err := New(h.codec, Options{Pacing: PacingRecorded, Speed: 2, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	r.opts.sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		if len(waits) == 3 {
			cancel()
			return ctx.Err()
		}
		return nil
	}
	r.Attach(h.app)
	h.start(true)

	sc := h.clickScenario()
	sc.Append(h.entry(h.buttonPath(), click(widgets.MouseButtonPress), 500*time.Millisecond))

	summary, err := r.Run(ctx, sc)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if summary.Replayed != 2 || !summary.Aborted {
		t.Fatalf("unexpected summary %+v", summary)
	}
	want := []time.Duration{0, 50 * time.Millisecond, 200 * time.Millisecond}
	for i := range want {
		if waits[i] != want[i] {
			t.Fatalf("wait %d: expected %s, got %s", i, want[i], waits[i])
		}
	}
}

func TestPacingDelay(t *testing.T) {
	tests := []struct {
		pacing Pacing
		prev   time.Duration
		offset time.Duration
		speed  float64
		want   time.Duration
	}{
		{PacingImmediate, 0, time.Second, 1, 0},
		{PacingRecorded, 0, time.Second, 1, time.Second},
		{PacingRecorded, time.Second, 3 * time.Second, 4, 500 * time.Millisecond},
		{PacingRecorded, time.Second, time.Second, 1, 0},
		{PacingRecorded, 2 * time.Second, time.Second, 1, 0},
		{PacingRecorded, 0, time.Second, 0, time.Second},
	}
	for _, tt := range tests {
		if got := tt.pacing.Delay(tt.prev, tt.offset, tt.speed); got != tt.want {
			t.Fatalf("%s Delay(%s, %s, %g) = %s, want %s", tt.pacing, tt.prev, tt.offset, tt.speed, got, tt.want)
		}
	}
	if _, err := ParsePacing("warp"); err == nil {
		t.Fatalf("expected unknown pacing to fail")
	}
	if p, err := ParsePacing(" Recorded "); err != nil || p != PacingRecorded {
		t.Fatalf("unexpected parse %q, %v", p, err)
	}
}

func TestNewValidatesOptions(t *testing.T) {
	h := newHarness(t)
	if _, err := New(h.codec, Options{Speed: -1}); err == nil {
		t.Fatalf("expected negative speed to fail")
	}
	if _, err := New(h.codec, Options{ReadyKind: "Teleport"}); err == nil {
		t.Fatalf("expected unknown ready kind to fail")
	}
	if _, err := New(nil, Options{}); err == nil {
		t.Fatalf("expected nil codec to fail")
	}
}
