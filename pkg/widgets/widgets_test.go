package widgets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rekonder/qttester/pkg/toolkit"
)

func TestAdapterRejectsUnknownVersion(t *testing.T) {
	if _, err := NewAdapter("6"); err == nil {
		t.Fatalf("expected error for unsupported version")
	}
	for _, v := range Versions() {
		adapter, err := NewAdapter(v)
		if err != nil {
			t.Fatalf("NewAdapter(%q) error: %v", v, err)
		}
		if adapter.Version() != v {
			t.Fatalf("expected version %q, got %q", v, adapter.Version())
		}
	}
}

func TestConstructorsCheckEnumTypeIdentity(t *testing.T) {
	adapter, err := NewAdapter(Version5)
	if err != nil {
		t.Fatalf("NewAdapter error: %v", err)
	}
	var mouse toolkit.EventClass
	for _, class := range adapter.EventClasses() {
		if class.Name == ClassMouseEvent {
			mouse = class
		}
	}
	good := []any{
		toolkit.Point{X: 1, Y: 2},
		toolkit.Point{X: 11, Y: 12},
		toolkit.Enum{Type: TypeMouseButton, Value: LeftButton},
		toolkit.Flags{Type: TypeMouseButtons, Value: LeftButton},
		toolkit.Flags{Type: TypeKeyboardModifiers, Value: NoModifier},
	}
	ev, err := mouse.New(MouseButtonPress, good)
	if err != nil {
		t.Fatalf("construct mouse event: %v", err)
	}
	if ev.Kind() != MouseButtonPress || ev.Class() != ClassMouseEvent {
		t.Fatalf("unexpected event %s/%d", ev.Class(), ev.Kind())
	}

	bad := append([]any(nil), good...)
	bad[2] = toolkit.Enum{Type: TypeKey, Value: LeftButton}
	_, err = mouse.New(MouseButtonPress, bad)
	var mismatch *toolkit.ArgumentTypeMismatchError
	if !errors.As(err, &mismatch) || mismatch.Attr != "button" {
		t.Fatalf("expected mismatch on button, got %v", err)
	}

	bad[2] = int64(1)
	if _, err := mouse.New(MouseButtonPress, bad); !errors.As(err, &mismatch) {
		t.Fatalf("expected mismatch for raw integer, got %v", err)
	}

	if _, err := mouse.New(KeyPress, good); !errors.As(err, &mismatch) || mismatch.Attr != "type" {
		t.Fatalf("expected kind mismatch, got %v", err)
	}
}

func TestFiltersRunNewestFirstAndMayConsume(t *testing.T) {
	app := NewApplication(Version5, toolkit.AppOptions{})
	win := app.NewWindow(TypeMainWindow, "main")

	var order []string
	first := toolkit.FilterFunc(func(toolkit.Object, toolkit.Event) bool {
		order = append(order, "first")
		return false
	})
	second := toolkit.FilterFunc(func(toolkit.Object, toolkit.Event) bool {
		order = append(order, "second")
		return false
	})
	app.InstallEventFilter(first)
	app.InstallEventFilter(second)

	app.SendEvent(win, NewEvent(Enter))
	if len(order) != 2 || order[0] != "second" || order[1] != "first" {
		t.Fatalf("unexpected filter order %v", order)
	}
	if got := len(win.Received()); got != 1 {
		t.Fatalf("expected 1 delivered event, got %d", got)
	}

	consume := &consumer{}
	app.InstallEventFilter(consume)
	app.SendEvent(win, NewEvent(Leave))
	if got := len(win.Received()); got != 1 {
		t.Fatalf("expected consumed event to be withheld, got %d deliveries", got)
	}
	app.RemoveEventFilter(consume)
	app.SendEvent(win, NewEvent(Leave))
	if got := len(win.Received()); got != 2 {
		t.Fatalf("expected delivery after filter removal, got %d", got)
	}
}

type consumer struct{}

func (*consumer) EventFilter(toolkit.Object, toolkit.Event) bool { return true }

func TestSendEventIsNotSpontaneous(t *testing.T) {
	app := NewApplication(Version4, toolkit.AppOptions{})
	win := app.NewWindow(TypeDialog, "")
	app.SendEvent(win, NewEvent(Show))
	if win.Received()[0].Spontaneous() {
		t.Fatalf("sent events must not be spontaneous")
	}
}

func TestTreeEditing(t *testing.T) {
	app := NewApplication(Version5, toolkit.AppOptions{})
	win := app.NewWindow(TypeMainWindow, "main")
	a := NewWidget(win, TypePushButton, "a")
	b := NewWidget(win, TypePushButton, "b")
	c := NewWidget(win, TypeLabel, "c")

	win.InsertChild(0, c)
	names := childNames(win)
	if names != "c,a,b" {
		t.Fatalf("unexpected children after insert: %s", names)
	}
	a.Remove()
	if names := childNames(win); names != "c,b" {
		t.Fatalf("unexpected children after remove: %s", names)
	}
	if a.Parent() != nil {
		t.Fatalf("removed widget still has a parent")
	}
	if b.Parent() != toolkit.Object(win) {
		t.Fatalf("unexpected parent for b")
	}
	win.Remove()
	if len(app.TopLevelWidgets()) != 0 {
		t.Fatalf("expected empty registry after removing window")
	}
}

func childNames(w *Widget) string {
	out := ""
	for i, c := range w.Children() {
		if i > 0 {
			out += ","
		}
		out += c.ObjectName()
	}
	return out
}

func TestExecRunsPostedWorkUntilQuit(t *testing.T) {
	app := NewApplication(Version5, toolkit.AppOptions{})
	ran := make(chan struct{})
	app.Post(func() {
		close(ran)
		app.Quit()
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := app.Exec(ctx); err != nil {
		t.Fatalf("Exec error: %v", err)
	}
	select {
	case <-ran:
	default:
		t.Fatalf("posted work did not run")
	}
	if app.Post(func() {}) {
		t.Fatalf("Post should fail after quit")
	}
}

func TestExecStopsOnCancellation(t *testing.T) {
	app := NewApplication(Version5, toolkit.AppOptions{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := app.Exec(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}

func TestShowActivatesSpontaneously(t *testing.T) {
	app := NewApplication(Version5, toolkit.AppOptions{})
	win := app.NewWindow(TypeMainWindow, "main")
	win.Show()
	app.Post(app.Quit)
	if err := app.Exec(context.Background()); err != nil {
		t.Fatalf("Exec error: %v", err)
	}
	got := win.Received()
	if len(got) != 1 || got[0].Kind() != WindowActivate || !got[0].Spontaneous() {
		t.Fatalf("expected spontaneous activation, got %v", got)
	}
}

func TestSyntheticInputDrivesWidgets(t *testing.T) {
	app := NewApplication(Version5, toolkit.AppOptions{Input: SyntheticInput{Text: "Hi 2", QuitWhenDone: true}})
	win := app.NewWindow(TypeMainWindow, "main")
	button := NewWidget(win, TypePushButton, "ok")
	button.SetGeometry(toolkit.Rect{X: 10, Y: 10, W: 80, H: 20})
	edit := NewWidget(win, TypeLineEdit, "name")

	clicks := 0
	button.OnClicked(func() { clicks++ })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := app.Exec(ctx); err != nil {
		t.Fatalf("Exec error: %v", err)
	}
	if clicks != 1 {
		t.Fatalf("expected one click, got %d", clicks)
	}
	if edit.Text() != "Hi 2" {
		t.Fatalf("expected typed text, got %q", edit.Text())
	}
	for _, ev := range button.Received() {
		if !ev.Spontaneous() {
			t.Fatalf("system input must be spontaneous: %s/%d", ev.Class(), ev.Kind())
		}
	}
	received := button.Received()
	if received[0].Kind() != Enter || received[len(received)-1].Kind() != Leave {
		t.Fatalf("unexpected event order on button")
	}
}

func TestInputErrorStopsLoop(t *testing.T) {
	boom := errors.New("display lost")
	app := NewApplication(Version5, toolkit.AppOptions{Input: InputFunc(func(context.Context, toolkit.Application, func(toolkit.Object, toolkit.Event) error) error {
		return boom
	})})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := app.Exec(ctx); !errors.Is(err, boom) {
		t.Fatalf("expected input error, got %v", err)
	}
}

func TestBackspaceRemovesWholeRune(t *testing.T) {
	app := NewApplication(Version5, toolkit.AppOptions{})
	win := app.NewWindow(TypeDialog, "form")
	edit := NewWidget(win, TypeLineEdit, "name")
	edit.SetText("Zoë")

	backspace := func() {
		app.SendEvent(edit, NewKeyEvent(KeyPress, KeyBackspace, NoModifier, "", false, 1))
	}
	backspace()
	if got := edit.Text(); got != "Zo" {
		t.Fatalf("expected multi-byte rune to be removed whole, got %q", got)
	}
	backspace()
	backspace()
	backspace()
	if got := edit.Text(); got != "" {
		t.Fatalf("expected empty text, got %q", got)
	}
}
