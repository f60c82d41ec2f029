package widgets

import (
	"github.com/rekonder/qttester/pkg/toolkit"
)

// Event class tags.
const (
	ClassEvent       = "QEvent"
	ClassMouseEvent  = "QMouseEvent"
	ClassKeyEvent    = "QKeyEvent"
	ClassMoveEvent   = "QMoveEvent"
	ClassResizeEvent = "QResizeEvent"
	ClassDropEvent   = "QDropEvent"
)

// Event is the base event carrying only a kind.
type Event struct {
	class       string
	kind        int64
	spontaneous bool
}

// NewEvent builds a base event of the given kind.
func NewEvent(kind int64) *Event {
	return &Event{class: ClassEvent, kind: kind}
}

func (e *Event) Class() string                { return e.class }
func (e *Event) Kind() int64                  { return e.kind }
func (e *Event) Spontaneous() bool            { return e.spontaneous }
func (e *Event) Attr(name string) (any, bool) { return nil, false }

func (e *Event) setSpontaneous() { e.spontaneous = true }

type spontaneousSetter interface {
	setSpontaneous()
}

// MouseEvent is a pointer button or motion event.
type MouseEvent struct {
	Event
	Pos       toolkit.Point
	GlobalPos toolkit.Point
	Button    toolkit.Enum
	Buttons   toolkit.Flags
	Modifiers toolkit.Flags
}

// NewMouseEvent builds a mouse event.
func NewMouseEvent(kind int64, pos, globalPos toolkit.Point, button, buttons, modifiers int64) *MouseEvent {
	return &MouseEvent{
		Event:     Event{class: ClassMouseEvent, kind: kind},
		Pos:       pos,
		GlobalPos: globalPos,
		Button:    toolkit.Enum{Type: TypeMouseButton, Value: button},
		Buttons:   toolkit.Flags{Type: TypeMouseButtons, Value: buttons},
		Modifiers: toolkit.Flags{Type: TypeKeyboardModifiers, Value: modifiers},
	}
}

func (e *MouseEvent) Attr(name string) (any, bool) {
	switch name {
	case "pos":
		return e.Pos, true
	case "globalPos":
		return e.GlobalPos, true
	case "button":
		return e.Button, true
	case "buttons":
		return e.Buttons, true
	case "modifiers":
		return e.Modifiers, true
	}
	return nil, false
}

// KeyEvent is a key press or release.
type KeyEvent struct {
	Event
	Key        toolkit.Enum
	Modifiers  toolkit.Flags
	Text       string
	AutoRepeat bool
	Count      int
}

// NewKeyEvent builds a key event.
func NewKeyEvent(kind, key, modifiers int64, text string, autoRepeat bool, count int) *KeyEvent {
	return &KeyEvent{
		Event:      Event{class: ClassKeyEvent, kind: kind},
		Key:        toolkit.Enum{Type: TypeKey, Value: key},
		Modifiers:  toolkit.Flags{Type: TypeKeyboardModifiers, Value: modifiers},
		Text:       text,
		AutoRepeat: autoRepeat,
		Count:      count,
	}
}

func (e *KeyEvent) Attr(name string) (any, bool) {
	switch name {
	case "key":
		return e.Key, true
	case "modifiers":
		return e.Modifiers, true
	case "text":
		return e.Text, true
	case "isAutoRepeat":
		return e.AutoRepeat, true
	case "count":
		return e.Count, true
	}
	return nil, false
}

// MoveEvent reports a widget position change.
type MoveEvent struct {
	Event
	Pos    toolkit.Point
	OldPos toolkit.Point
}

// NewMoveEvent builds a move event.
func NewMoveEvent(pos, oldPos toolkit.Point) *MoveEvent {
	return &MoveEvent{Event: Event{class: ClassMoveEvent, kind: Move}, Pos: pos, OldPos: oldPos}
}

func (e *MoveEvent) Attr(name string) (any, bool) {
	switch name {
	case "pos":
		return e.Pos, true
	case "oldPos":
		return e.OldPos, true
	}
	return nil, false
}

// ResizeEvent reports a widget geometry change.
type ResizeEvent struct {
	Event
	Size    toolkit.Rect
	OldSize toolkit.Rect
}

// NewResizeEvent builds a resize event.
func NewResizeEvent(size, oldSize toolkit.Rect) *ResizeEvent {
	return &ResizeEvent{Event: Event{class: ClassResizeEvent, kind: Resize}, Size: size, OldSize: oldSize}
}

func (e *ResizeEvent) Attr(name string) (any, bool) {
	switch name {
	case "size":
		return e.Size, true
	case "oldSize":
		return e.OldSize, true
	}
	return nil, false
}

// DropEvent is a drag-and-drop event.
type DropEvent struct {
	Event
	Pos             toolkit.Point
	PossibleActions toolkit.Flags
	Buttons         toolkit.Flags
	Modifiers       toolkit.Flags
}

// NewDropEvent builds a drag enter, move or drop event.
func NewDropEvent(kind int64, pos toolkit.Point, actions, buttons, modifiers int64) *DropEvent {
	return &DropEvent{
		Event:           Event{class: ClassDropEvent, kind: kind},
		Pos:             pos,
		PossibleActions: toolkit.Flags{Type: TypeDropActions, Value: actions},
		Buttons:         toolkit.Flags{Type: TypeMouseButtons, Value: buttons},
		Modifiers:       toolkit.Flags{Type: TypeKeyboardModifiers, Value: modifiers},
	}
}

func (e *DropEvent) Attr(name string) (any, bool) {
	switch name {
	case "pos":
		return e.Pos, true
	case "possibleActions":
		return e.PossibleActions, true
	case "buttons":
		return e.Buttons, true
	case "modifiers":
		return e.Modifiers, true
	}
	return nil, false
}
