package widgets

import (
	"fmt"

	"github.com/rekonder/qttester/pkg/enumname"
	"github.com/rekonder/qttester/pkg/toolkit"
)

// Supported toolkit major versions.
const (
	Version4 = "4"
	Version5 = "5"
)

// Adapter binds one API variant of the widget toolkit.
//
// Variant "4" publishes the QEvent namespace as a flat member list and names
// mouse button 4 MidButton. Variant "5" publishes structured namespaces
// throughout and names the same button MiddleButton.
type Adapter struct {
	version    string
	namespaces []enumname.Namespace
	classes    []toolkit.EventClass
}

// NewAdapter returns the adapter for a toolkit major version.
func NewAdapter(version string) (*Adapter, error) {
	var namespaces []enumname.Namespace
	switch version {
	case Version4:
		namespaces = []enumname.Namespace{
			enumname.NewTable(NamespaceQt, qtEnums(false)...),
			enumname.NewFlat(NamespaceQEvent, eventTypeEnum()),
		}
	case Version5:
		namespaces = []enumname.Namespace{
			enumname.NewTable(NamespaceQt, qtEnums(true)...),
			enumname.NewTable(NamespaceQEvent, eventTypeEnum()),
		}
	default:
		return nil, fmt.Errorf("unsupported toolkit version %q (want %s or %s)", version, Version4, Version5)
	}
	return &Adapter{version: version, namespaces: namespaces, classes: eventClasses()}, nil
}

// Versions lists the supported toolkit major versions.
func Versions() []string {
	return []string{Version4, Version5}
}

// The methods below implement toolkit.Adapter.

func (a *Adapter) Version() string { return a.version }
func (a *Adapter) Namespaces() []enumname.Namespace { return append([]enumname.Namespace(nil), a.namespaces...) }
func (a *Adapter) DefaultNamespace() string { return NamespaceQt }
func (a *Adapter) EventNamespace() string { return NamespaceQEvent }
func (a *Adapter) EventKindType() string { return TypeEventType }
func (a *Adapter) BaseEventClass() string { return ClassEvent }
func (a *Adapter) EventClasses() []toolkit.EventClass { return append([]toolkit.EventClass(nil), a.classes...) }
func (a *Adapter) NewApplication(opts toolkit.AppOptions) toolkit.Application {
	return NewApplication(a.version, opts)
}

var (
	mouseAttrs = []toolkit.AttrSpec{
		{Name: "pos", Kind: toolkit.KindPoint},
		{Name: "globalPos", Kind: toolkit.KindPoint},
		{Name: "button", Kind: toolkit.KindEnum, Type: TypeMouseButton},
		{Name: "buttons", Kind: toolkit.KindFlags, Type: TypeMouseButtons},
		{Name: "modifiers", Kind: toolkit.KindFlags, Type: TypeKeyboardModifiers},
	}
	keyAttrs = []toolkit.AttrSpec{
		{Name: "key", Kind: toolkit.KindEnum, Type: TypeKey},
		{Name: "modifiers", Kind: toolkit.KindFlags, Type: TypeKeyboardModifiers},
		{Name: "text", Kind: toolkit.KindString},
		{Name: "isAutoRepeat", Kind: toolkit.KindBool},
		{Name: "count", Kind: toolkit.KindInt},
	}
	moveAttrs = []toolkit.AttrSpec{
		{Name: "pos", Kind: toolkit.KindPoint},
		{Name: "oldPos", Kind: toolkit.KindPoint},
	}
	resizeAttrs = []toolkit.AttrSpec{
		{Name: "size", Kind: toolkit.KindRect},
		{Name: "oldSize", Kind: toolkit.KindRect},
	}
	dropAttrs = []toolkit.AttrSpec{
		{Name: "pos", Kind: toolkit.KindPoint},
		{Name: "possibleActions", Kind: toolkit.KindFlags, Type: TypeDropActions},
		{Name: "buttons", Kind: toolkit.KindFlags, Type: TypeMouseButtons},
		{Name: "modifiers", Kind: toolkit.KindFlags, Type: TypeKeyboardModifiers},
	}
)

func eventClasses() []toolkit.EventClass {
	return []toolkit.EventClass{
		{Name: ClassEvent, New: newBaseEvent},
		{Name: ClassMouseEvent, Attrs: mouseAttrs, New: newMouseEvent},
		{Name: ClassKeyEvent, Attrs: keyAttrs, New: newKeyEvent},
		{Name: ClassMoveEvent, Attrs: moveAttrs, New: newMoveEvent},
		{Name: ClassResizeEvent, Attrs: resizeAttrs, New: newResizeEvent},
		{Name: ClassDropEvent, Attrs: dropAttrs, New: newDropEvent},
	}
}

func checkKind(class string, kind int64, allowed ...int64) error {
	for _, k := range allowed {
		if k == kind {
			return nil
		}
	}
	return &toolkit.ArgumentTypeMismatchError{Class: class, Attr: "type", Want: "a " + class + " kind", Got: fmt.Sprintf("%d", kind)}
}

func newBaseEvent(kind int64, args []any) (toolkit.Event, error) {
	if len(args) != 0 {
		return nil, &toolkit.ArgumentTypeMismatchError{Class: ClassEvent, Attr: "*", Want: "0 arguments", Got: fmt.Sprintf("%d", len(args))}
	}
	return NewEvent(kind), nil
}

func newMouseEvent(kind int64, vals []any) (toolkit.Event, error) {
	if err := checkKind(ClassMouseEvent, kind, MouseButtonPress, MouseButtonRelease, MouseButtonDblClick, MouseMove); err != nil {
		return nil, err
	}
	args, err := toolkit.NewArgs(ClassMouseEvent, mouseAttrs, vals)
	if err != nil {
		return nil, err
	}
	pos, err := args.Point(0)
	if err != nil {
		return nil, err
	}
	global, err := args.Point(1)
	if err != nil {
		return nil, err
	}
	button, err := args.Enum(2)
	if err != nil {
		return nil, err
	}
	buttons, err := args.Flags(3)
	if err != nil {
		return nil, err
	}
	mods, err := args.Flags(4)
	if err != nil {
		return nil, err
	}
	return NewMouseEvent(kind, pos, global, button.Value, buttons.Value, mods.Value), nil
}

func newKeyEvent(kind int64, vals []any) (toolkit.Event, error) {
	if err := checkKind(ClassKeyEvent, kind, KeyPress, KeyRelease); err != nil {
		return nil, err
	}
	args, err := toolkit.NewArgs(ClassKeyEvent, keyAttrs, vals)
	if err != nil {
		return nil, err
	}
	key, err := args.Enum(0)
	if err != nil {
		return nil, err
	}
	mods, err := args.Flags(1)
	if err != nil {
		return nil, err
	}
	text, err := args.String(2)
	if err != nil {
		return nil, err
	}
	repeat, err := args.Bool(3)
	if err != nil {
		return nil, err
	}
	count, err := args.Int(4)
	if err != nil {
		return nil, err
	}
	return NewKeyEvent(kind, key.Value, mods.Value, text, repeat, count), nil
}

func newMoveEvent(kind int64, vals []any) (toolkit.Event, error) {
	if err := checkKind(ClassMoveEvent, kind, Move); err != nil {
		return nil, err
	}
	args, err := toolkit.NewArgs(ClassMoveEvent, moveAttrs, vals)
	if err != nil {
		return nil, err
	}
	pos, err := args.Point(0)
	if err != nil {
		return nil, err
	}
	old, err := args.Point(1)
	if err != nil {
		return nil, err
	}
	return NewMoveEvent(pos, old), nil
}

func newResizeEvent(kind int64, vals []any) (toolkit.Event, error) {
	if err := checkKind(ClassResizeEvent, kind, Resize); err != nil {
		return nil, err
	}
	args, err := toolkit.NewArgs(ClassResizeEvent, resizeAttrs, vals)
	if err != nil {
		return nil, err
	}
	size, err := args.Rect(0)
	if err != nil {
		return nil, err
	}
	old, err := args.Rect(1)
	if err != nil {
		return nil, err
	}
	return NewResizeEvent(size, old), nil
}

func newDropEvent(kind int64, vals []any) (toolkit.Event, error) {
	if err := checkKind(ClassDropEvent, kind, DragEnter, DragMove, Drop); err != nil {
		return nil, err
	}
	args, err := toolkit.NewArgs(ClassDropEvent, dropAttrs, vals)
	if err != nil {
		return nil, err
	}
	pos, err := args.Point(0)
	if err != nil {
		return nil, err
	}
	actions, err := args.Flags(1)
	if err != nil {
		return nil, err
	}
	buttons, err := args.Flags(2)
	if err != nil {
		return nil, err
	}
	mods, err := args.Flags(3)
	if err != nil {
		return nil, err
	}
	return NewDropEvent(kind, pos, actions.Value, buttons.Value, mods.Value), nil
}
