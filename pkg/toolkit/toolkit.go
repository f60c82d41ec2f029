// Package toolkit defines the contract between the capture/replay harness and
// a retained-mode widget toolkit: tree introspection, event dispatch, enum
// namespaces and the per-class event attribute table.
//
// An Adapter is chosen once at process start (one per supported toolkit API
// variant) and injected into every component that needs tree or event
// primitives.
package toolkit

import (
	"context"

	"github.com/rekonder/qttester/pkg/enumname"
)

// Object is a node of the live widget tree.
type Object interface {
	// TypeName is the exact runtime type, e.g. "QPushButton".
	TypeName() string
	// ObjectName is the identifying name; empty when unnamed.
	ObjectName() string
	// Parent returns the owning container, or nil for a top-level window.
	Parent() Object
	// Children returns the owned objects in toolkit order.
	Children() []Object
}

// Event is a toolkit event instance.
type Event interface {
	// Class is the event class tag, e.g. "QMouseEvent".
	Class() string
	// Kind is the discriminant, e.g. the value of QEvent.MouseButtonPress.
	Kind() int64
	// Spontaneous reports whether the event originated outside the
	// application (window system input) rather than from application code.
	Spontaneous() bool
	// Attr returns the value of a named attribute listed in the class table.
	Attr(name string) (any, bool)
}

// Filter observes events before normal delivery. Returning true consumes the
// event.
type Filter interface {
	EventFilter(target Object, event Event) bool
}

// FilterFunc adapts a function literal to the Filter interface.
type FilterFunc func(target Object, event Event) bool

// EventFilter calls the underlying function.
func (f FilterFunc) EventFilter(target Object, event Event) bool {
	return f(target, event)
}

// Application is the running application wrapper.
type Application interface {
	// TopLevelWidgets returns the root registry in toolkit order.
	TopLevelWidgets() []Object
	// InstallEventFilter registers a filter for every dispatched event.
	InstallEventFilter(f Filter)
	// RemoveEventFilter unregisters a filter.
	RemoveEventFilter(f Filter)
	// SendEvent synchronously delivers a non-spontaneous event to target.
	SendEvent(target Object, event Event) bool
	// Post schedules fn on the UI thread. It reports false when the
	// application is no longer processing events.
	Post(fn func()) bool
	// Exec runs the event loop until Quit is called, the system input ends
	// or ctx is cancelled.
	Exec(ctx context.Context) error
	// Quit stops the event loop.
	Quit()
}

// AttrKind is the declared value kind of an event attribute.
type AttrKind int

const (
	KindInt AttrKind = iota
	KindString
	KindBool
	KindPoint
	KindRect
	KindEnum
	KindFlags
)

func (k AttrKind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindPoint:
		return "point"
	case KindRect:
		return "rect"
	case KindEnum:
		return "enum"
	case KindFlags:
		return "flags"
	default:
		return "unknown"
	}
}

// AttrSpec describes one constructor argument of an event class.
type AttrSpec struct {
	Name string
	Kind AttrKind
	// Type is the enum or flags type name for KindEnum and KindFlags.
	Type string
	// Namespace holds Type; empty means the adapter's default namespace.
	Namespace string
}

// Constructor builds an event of a class from its kind and typed arguments,
// ordered as the class's Attrs.
type Constructor func(kind int64, args []any) (Event, error)

// EventClass is one entry of the attribute-order table.
type EventClass struct {
	Name  string
	Attrs []AttrSpec
	New   Constructor
}

// AppOptions configures a new application instance.
type AppOptions struct {
	// Input streams window-system events into the application. Nil means
	// the application only receives posted and sent events.
	Input InputSource
	// Args mimics the process arguments seen by the application.
	Args []string
}

// InputSource emits window-system input for an application. emit delivers
// one spontaneous event on the UI thread.
type InputSource interface {
	Stream(ctx context.Context, app Application, emit func(target Object, event Event) error) error
}

// Adapter binds one toolkit API variant.
type Adapter interface {
	// Version is the toolkit major version selector, e.g. "4" or "5".
	Version() string
	// Namespaces lists the enum namespaces used by event attributes.
	Namespaces() []enumname.Namespace
	// DefaultNamespace is the namespace of attributes that do not name one.
	DefaultNamespace() string
	// EventNamespace and EventKindType locate the event discriminant enum.
	EventNamespace() string
	EventKindType() string
	// BaseEventClass is the class built from the kind alone.
	BaseEventClass() string
	// EventClasses returns the attribute-order table with constructors.
	EventClasses() []EventClass
	// NewApplication creates an application instance for this variant.
	NewApplication(opts AppOptions) Application
}
