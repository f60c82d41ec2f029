// Package eventcodec converts toolkit events to a portable typed text form
// and back.
//
// Every event class the toolkit supports has an ordered attribute list, the
// exact constructor arguments needed to rebuild it. Attribute values are
// encoded by runtime kind:
//
//	int, string, bool   strconv formatting, parsed back with strconv
//	toolkit.Point       "x,y"
//	toolkit.Rect        "x,y,w,h"
//	toolkit.Enum/Flags  "Ns.Key" or "Ns.A|Ns.B"
//
// Decoding goes through an explicit class-to-constructor table. Stored text
// is only ever parsed, never executed.
package eventcodec

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rekonder/qttester/pkg/enumname"
	"github.com/rekonder/qttester/pkg/toolkit"
	"pkt.systems/pslog"
)

// SerializedEvent is the portable form of one event.
type SerializedEvent struct {
	Class string
	Kind  string
	Args  []string
}

// Codec encodes and decodes events for one toolkit adapter.
type Codec struct {
	registry  *enumname.Registry
	eventNS   enumname.Namespace
	kindType  string
	defaultNS string
	base      string
	classes   map[string]toolkit.EventClass
	logger    pslog.Logger
}

// New builds the attribute-order table from the adapter. A nil logger falls
// back to the process default.
func New(adapter toolkit.Adapter, logger pslog.Logger) (*Codec, error) {
	if adapter == nil {
		return nil, errors.New("eventcodec: nil toolkit adapter")
	}
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	registry := enumname.NewRegistry(adapter.Namespaces()...)
	eventNS, ok := registry.Namespace(adapter.EventNamespace())
	if !ok {
		return nil, fmt.Errorf("eventcodec: event namespace %q not published by toolkit %s", adapter.EventNamespace(), adapter.Version())
	}
	if _, ok := registry.Namespace(adapter.DefaultNamespace()); !ok {
		return nil, fmt.Errorf("eventcodec: default namespace %q not published by toolkit %s", adapter.DefaultNamespace(), adapter.Version())
	}
	classes := make(map[string]toolkit.EventClass)
	for _, class := range adapter.EventClasses() {
		if class.New == nil {
			return nil, fmt.Errorf("eventcodec: event class %s has no constructor", class.Name)
		}
		if _, dup := classes[class.Name]; dup {
			return nil, fmt.Errorf("eventcodec: event class %s registered twice", class.Name)
		}
		classes[class.Name] = class
	}
	if _, ok := classes[adapter.BaseEventClass()]; !ok {
		return nil, fmt.Errorf("eventcodec: base event class %s not registered", adapter.BaseEventClass())
	}
	return &Codec{
		registry:  registry,
		eventNS:   eventNS,
		kindType:  adapter.EventKindType(),
		defaultNS: adapter.DefaultNamespace(),
		base:      adapter.BaseEventClass(),
		classes:   classes,
		logger:    logger,
	}, nil
}

// Registry returns the namespace registry used for name parsing.
func (c *Codec) Registry() *enumname.Registry { return c.registry }

// AttrNames lists the serialized argument names of class in order, or nil
// when the class is not in the attribute table.
func (c *Codec) AttrNames(class string) []string {
	ec, ok := c.classes[class]
	if !ok {
		return nil
	}
	names := make([]string, len(ec.Attrs))
	for i, attr := range ec.Attrs {
		names[i] = attr.Name
	}
	return names
}

// KindName returns the qualified symbolic name of an event kind, or the
// decimal value when the kind is undeclared.
func (c *Codec) KindName(kind int64) string {
	if name := enumname.EnumKey(c.eventNS, kind, c.kindType); name != "" {
		return name
	}
	return strconv.FormatInt(kind, 10)
}

// KindValue parses an event kind name. Both "MouseMove" and
// "QEvent.MouseMove" are accepted.
func (c *Codec) KindValue(name string) (int64, error) {
	name = strings.TrimSpace(name)
	if !strings.Contains(name, ".") {
		name = c.eventNS.Name() + "." + name
	}
	m, err := c.registry.Lookup(name)
	if err != nil {
		return 0, err
	}
	if m.Type != c.kindType {
		return 0, &toolkit.ArgumentTypeMismatchError{Class: c.base, Attr: "type", Want: c.kindType, Got: m.Type}
	}
	return m.Value, nil
}

// Serialize encodes an event. The boolean is false when the record is
// degraded: the class is unlisted, an attribute could not be named and was
// omitted, or a flags value was only partly named. Degraded records are still returned so they can be kept
// for inspection.
func (c *Codec) Serialize(ev toolkit.Event) (SerializedEvent, bool) {
	out := SerializedEvent{Class: ev.Class(), Kind: c.KindName(ev.Kind()), Args: []string{}}
	class, ok := c.classes[out.Class]
	if !ok {
		c.logger.Warn("event class not in attribute table; recording without arguments", "class", out.Class, "kind", out.Kind)
		return out, false
	}
	complete := true
	for _, attr := range class.Attrs {
		value, ok := ev.Attr(attr.Name)
		if !ok {
			c.logger.Warn("event attribute missing; omitted", "class", out.Class, "attr", attr.Name)
			complete = false
			continue
		}
		text, exact, err := c.encodeValue(attr, value)
		if err != nil {
			c.logger.Warn("event attribute not serializable; omitted", "class", out.Class, "attr", attr.Name, "err", err)
			complete = false
			continue
		}
		if !exact {
			c.logger.Warn("event attribute only partly named; undeclared bits dropped", "class", out.Class, "attr", attr.Name, "value", value, "name", text)
			complete = false
		}
		out.Args = append(out.Args, text)
	}
	return out, complete
}

// encodeValue reports exact as false when the text decodes to a different
// value than the one encoded.
func (c *Codec) encodeValue(attr toolkit.AttrSpec, value any) (text string, exact bool, err error) {
	switch v := value.(type) {
	case int:
		return strconv.Itoa(v), true, nil
	case int64:
		return strconv.FormatInt(v, 10), true, nil
	case string:
		return v, true, nil
	case bool:
		return strconv.FormatBool(v), true, nil
	case toolkit.Point:
		return FormatPoint(v), true, nil
	case toolkit.Rect:
		return FormatRect(v), true, nil
	case toolkit.Enum:
		return c.encodeNamed(attr, v.Type, v.Value)
	case toolkit.Flags:
		return c.encodeNamed(attr, v.Type, v.Value)
	}
	return "", false, fmt.Errorf("unsupported value type %T", value)
}

func (c *Codec) encodeNamed(attr toolkit.AttrSpec, typeName string, value int64) (string, bool, error) {
	ns, err := c.namespaceFor(attr)
	if err != nil {
		return "", false, err
	}
	if name := enumname.EnumKey(ns, value, typeName); name != "" {
		return name, true, nil
	}
	if name := enumname.FlagsKey(ns, value, typeName); name != "" {
		got, err := c.registry.Value(name)
		return name, err == nil && got == value, nil
	}
	return "", false, fmt.Errorf("value %#x has no name in %s.%s", value, ns.Name(), typeName)
}

func (c *Codec) namespaceFor(attr toolkit.AttrSpec) (enumname.Namespace, error) {
	name := attr.Namespace
	if name == "" {
		name = c.defaultNS
	}
	ns, ok := c.registry.Namespace(name)
	if !ok {
		return nil, fmt.Errorf("namespace %q not published", name)
	}
	return ns, nil
}

// Deserialize rebuilds an event through the class's registered constructor.
func (c *Codec) Deserialize(rec SerializedEvent) (toolkit.Event, error) {
	class, ok := c.classes[rec.Class]
	if !ok {
		return nil, &UnknownEventKindError{Class: rec.Class}
	}
	kind, err := c.decodeKind(rec)
	if err != nil {
		return nil, err
	}
	if rec.Class == c.base {
		return class.New(kind, nil)
	}
	if len(rec.Args) != len(class.Attrs) {
		return nil, &ArgumentCountError{Class: rec.Class, Want: len(class.Attrs), Got: len(rec.Args)}
	}
	vals := make([]any, len(class.Attrs))
	for i, attr := range class.Attrs {
		v, err := c.decodeValue(rec.Class, attr, rec.Args[i])
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return class.New(kind, vals)
}

func (c *Codec) decodeKind(rec SerializedEvent) (int64, error) {
	if n, err := strconv.ParseInt(rec.Kind, 10, 64); err == nil {
		// Undeclared kinds are recorded by value.
		return n, nil
	}
	kind, err := c.KindValue(rec.Kind)
	if err != nil {
		var nameErr *enumname.NameResolutionError
		if errors.As(err, &nameErr) {
			return 0, &UnknownEventKindError{Class: rec.Class, Kind: rec.Kind}
		}
		return 0, err
	}
	return kind, nil
}

func (c *Codec) decodeValue(class string, attr toolkit.AttrSpec, text string) (any, error) {
	mismatch := func(want string) error {
		return &toolkit.ArgumentTypeMismatchError{Class: class, Attr: attr.Name, Want: want, Got: strconv.Quote(text)}
	}
	switch attr.Kind {
	case toolkit.KindInt:
		n, err := strconv.Atoi(text)
		if err != nil {
			return nil, mismatch("int")
		}
		return n, nil
	case toolkit.KindString:
		return text, nil
	case toolkit.KindBool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return nil, mismatch("bool")
		}
		return b, nil
	case toolkit.KindPoint:
		p, err := ParsePoint(text)
		if err != nil {
			return nil, mismatch("point x,y")
		}
		return p, nil
	case toolkit.KindRect:
		r, err := ParseRect(text)
		if err != nil {
			return nil, mismatch("rect x,y,w,h")
		}
		return r, nil
	case toolkit.KindEnum, toolkit.KindFlags:
		return c.decodeNamed(class, attr, text)
	}
	return nil, mismatch(attr.Kind.String())
}

// decodeNamed parses an enum or flags name. Raw integers are rejected: the
// constructors need the value's enum type, which a bare number cannot carry.
func (c *Codec) decodeNamed(class string, attr toolkit.AttrSpec, text string) (any, error) {
	if _, err := strconv.ParseInt(strings.TrimSpace(text), 0, 64); err == nil {
		return nil, &toolkit.ArgumentTypeMismatchError{Class: class, Attr: attr.Name, Want: "named " + attr.Type, Got: "raw integer " + text}
	}
	ns, err := c.namespaceFor(attr)
	if err != nil {
		return nil, err
	}
	members, err := c.registry.Members(text)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", class, attr.Name, err)
	}
	want := attr.Type
	if attr.Kind == toolkit.KindFlags {
		want = enumname.SingularType(ns, attr.Type)
	}
	var value int64
	for _, m := range members {
		if m.Type != want && m.Type != attr.Type {
			return nil, &toolkit.ArgumentTypeMismatchError{Class: class, Attr: attr.Name, Want: want, Got: m.Type + "." + m.Key}
		}
		value |= m.Value
	}
	if attr.Kind == toolkit.KindEnum {
		if len(members) != 1 {
			return nil, &toolkit.ArgumentTypeMismatchError{Class: class, Attr: attr.Name, Want: "single " + attr.Type, Got: text}
		}
		return toolkit.Enum{Type: attr.Type, Value: value}, nil
	}
	return toolkit.Flags{Type: attr.Type, Value: value}, nil
}
