package widgets

import (
	"unicode/utf8"

	"github.com/rekonder/qttester/pkg/toolkit"
)

// Handler reacts to an event delivered to a widget. Returning true marks the
// event as handled.
type Handler func(w *Widget, event toolkit.Event) bool

// Widget is a node of the retained widget tree.
type Widget struct {
	app      *Application
	typeName string
	name     string
	parent   *Widget
	children []*Widget
	geometry toolkit.Rect
	text     string
	handlers []Handler
	received []toolkit.Event
}

// NewWidget creates a child widget appended to parent's children.
func NewWidget(parent *Widget, typeName, name string) *Widget {
	w := &Widget{app: parent.app, typeName: typeName, name: name, parent: parent}
	parent.children = append(parent.children, w)
	return w
}

// TypeName implements toolkit.Object.
func (w *Widget) TypeName() string { return w.typeName }

// ObjectName implements toolkit.Object.
func (w *Widget) ObjectName() string { return w.name }

// SetObjectName changes the identifying name.
func (w *Widget) SetObjectName(name string) { w.name = name }

// Parent implements toolkit.Object. Top-level windows return nil.
func (w *Widget) Parent() toolkit.Object {
	if w.parent == nil {
		return nil
	}
	return w.parent
}

// Children implements toolkit.Object.
func (w *Widget) Children() []toolkit.Object {
	out := make([]toolkit.Object, len(w.children))
	for i, c := range w.children {
		out[i] = c
	}
	return out
}

// Geometry returns the widget rectangle relative to its parent.
func (w *Widget) Geometry() toolkit.Rect { return w.geometry }

// SetGeometry updates the widget rectangle.
func (w *Widget) SetGeometry(r toolkit.Rect) { w.geometry = r }

// Text returns the widget's text content.
func (w *Widget) Text() string { return w.text }

// SetText replaces the widget's text content.
func (w *Widget) SetText(text string) { w.text = text }

// OnEvent appends an event handler.
func (w *Widget) OnEvent(h Handler) {
	w.handlers = append(w.handlers, h)
}

// OnClicked registers fn for a left-button release, the click of a button.
func (w *Widget) OnClicked(fn func()) {
	w.OnEvent(func(_ *Widget, event toolkit.Event) bool {
		me, ok := event.(*MouseEvent)
		if !ok || me.Kind() != MouseButtonRelease || me.Button.Value != LeftButton {
			return false
		}
		fn()
		return true
	})
}

// Received returns the events delivered to this widget, oldest first.
func (w *Widget) Received() []toolkit.Event {
	return append([]toolkit.Event(nil), w.received...)
}

// InsertChild moves child under w at position index.
func (w *Widget) InsertChild(index int, child *Widget) {
	child.detach()
	if index < 0 || index > len(w.children) {
		index = len(w.children)
	}
	w.children = append(w.children, nil)
	copy(w.children[index+1:], w.children[index:])
	w.children[index] = child
	child.parent = w
}

// Remove detaches the widget from its parent or from the top-level registry.
func (w *Widget) Remove() {
	w.detach()
}

func (w *Widget) detach() {
	if w.parent != nil {
		w.parent.children = removeWidget(w.parent.children, w)
		w.parent = nil
		return
	}
	if w.app != nil {
		w.app.topLevels = removeWidget(w.app.topLevels, w)
	}
}

func removeWidget(list []*Widget, target *Widget) []*Widget {
	for i, c := range list {
		if c == target {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// Show activates a top-level window. The activation is delivered as a
// spontaneous event through the event loop.
func (w *Widget) Show() {
	if w.parent != nil || w.app == nil {
		return
	}
	app := w.app
	app.Post(func() {
		app.dispatch(w, markSpontaneous(NewEvent(WindowActivate)))
	})
}

func (w *Widget) deliver(event toolkit.Event) bool {
	w.received = append(w.received, event)
	handled := false
	for _, h := range w.handlers {
		if h(w, event) {
			handled = true
		}
	}
	switch e := event.(type) {
	case *MoveEvent:
		w.geometry.X, w.geometry.Y = e.Pos.X, e.Pos.Y
	case *ResizeEvent:
		w.geometry.W, w.geometry.H = e.Size.W, e.Size.H
	case *KeyEvent:
		if e.Kind() == KeyPress && w.typeName == TypeLineEdit {
			w.applyKey(e)
			handled = true
		}
	}
	return handled
}

func (w *Widget) applyKey(e *KeyEvent) {
	switch e.Key.Value {
	case KeyBackspace:
		if _, size := utf8.DecodeLastRuneInString(w.text); size > 0 {
			w.text = w.text[:len(w.text)-size]
		}
	default:
		w.text += e.Text
	}
}

func markSpontaneous(event toolkit.Event) toolkit.Event {
	if s, ok := event.(spontaneousSetter); ok {
		s.setSpontaneous()
	}
	return event
}
