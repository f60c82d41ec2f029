package widgets

import (
	"context"
	"unicode"

	"github.com/rekonder/qttester/pkg/toolkit"
)

// InputFunc adapts a function literal to the toolkit.InputSource interface.
type InputFunc func(ctx context.Context, app toolkit.Application, emit func(toolkit.Object, toolkit.Event) error) error

// Stream calls the underlying function.
func (f InputFunc) Stream(ctx context.Context, app toolkit.Application, emit func(toolkit.Object, toolkit.Event) error) error {
	return f(ctx, app, emit)
}

// SyntheticInput drives a live tree with a deterministic interaction session
// for headless runs: it hovers every leaf widget, clicks buttons and check
// boxes, and types Text into line edits, then optionally quits.
type SyntheticInput struct {
	Text         string
	QuitWhenDone bool
}

type syntheticTarget struct {
	widget   *Widget
	typeName string
	geometry toolkit.Rect
}

// Stream implements toolkit.InputSource.
func (s SyntheticInput) Stream(ctx context.Context, app toolkit.Application, emit func(toolkit.Object, toolkit.Event) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	targets, err := snapshotTargets(ctx, app)
	if err != nil {
		return err
	}

	var timeline []func() error
	add := func(w *Widget, event toolkit.Event) {
		timeline = append(timeline, func() error { return emit(w, event) })
	}
	for _, t := range targets {
		center := toolkit.Point{X: t.geometry.W / 2, Y: t.geometry.H / 2}
		global := toolkit.Point{X: t.geometry.X + center.X, Y: t.geometry.Y + center.Y}
		add(t.widget, NewEvent(Enter))
		add(t.widget, NewMouseEvent(MouseMove, center, global, NoButton, NoButton, NoModifier))
		switch t.typeName {
		case TypePushButton, TypeCheckBox, TypeLineEdit:
			add(t.widget, NewMouseEvent(MouseButtonPress, center, global, LeftButton, LeftButton, NoModifier))
			add(t.widget, NewMouseEvent(MouseButtonRelease, center, global, LeftButton, NoButton, NoModifier))
		}
		if t.typeName == TypeLineEdit {
			add(t.widget, NewEvent(FocusIn))
			for _, r := range s.Text {
				key, mods, ok := keyForRune(r)
				if !ok {
					continue
				}
				add(t.widget, NewKeyEvent(KeyPress, key, mods, string(r), false, 1))
				add(t.widget, NewKeyEvent(KeyRelease, key, mods, string(r), false, 1))
			}
		}
		add(t.widget, NewEvent(Leave))
	}

	for _, step := range timeline {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := step(); err != nil {
			return err
		}
	}
	if s.QuitWhenDone {
		app.Quit()
	}
	return nil
}

// snapshotTargets collects leaf widgets depth-first on the UI goroutine.
func snapshotTargets(ctx context.Context, app toolkit.Application) ([]syntheticTarget, error) {
	result := make(chan []syntheticTarget, 1)
	if !app.Post(func() {
		var out []syntheticTarget
		var walk func(o toolkit.Object)
		walk = func(o toolkit.Object) {
			w, ok := o.(*Widget)
			if !ok {
				return
			}
			if len(w.children) == 0 {
				out = append(out, syntheticTarget{widget: w, typeName: w.typeName, geometry: w.geometry})
			}
			for _, c := range w.children {
				walk(c)
			}
		}
		for _, top := range app.TopLevelWidgets() {
			walk(top)
		}
		result <- out
	}) {
		return nil, ErrNotRunning
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case targets := <-result:
		return targets, nil
	}
}

func keyForRune(r rune) (int64, int64, bool) {
	switch {
	case r == ' ':
		return KeySpace, NoModifier, true
	case r >= '0' && r <= '9':
		return int64(r), NoModifier, true
	case r >= 'a' && r <= 'z':
		return int64(unicode.ToUpper(r)), NoModifier, true
	case r >= 'A' && r <= 'Z':
		return int64(r), ShiftModifier, true
	}
	return 0, 0, false
}
