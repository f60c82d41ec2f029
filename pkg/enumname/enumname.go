// Package enumname maps integer enum and flags values to symbolic
// "Namespace.Key" names and back.
//
// A namespace either exposes structured per-type introspection (MetaNamespace)
// or a flat list of declared members (FlatNamespace). Structured lookups are
// unambiguous. Flat lookups scan members in declaration order and the first
// member of the requested type with a matching value wins, so two keys that
// share a value always resolve to the one declared first.
package enumname

import "strings"

// Separator joins individual flag names in a flags value.
const Separator = "|"

// Member is a single declared enum key.
type Member struct {
	Type  string
	Key   string
	Value int64
}

// Namespace is a named scope enum types are declared in, e.g. "Qt".
type Namespace interface {
	Name() string
}

// Enumerator resolves keys of one enum type.
type Enumerator interface {
	ValueToKey(value int64) (string, bool)
	KeyToValue(key string) (int64, bool)
}

// MetaNamespace exposes structured introspection of its enum types.
type MetaNamespace interface {
	Namespace
	Enumerator(typeName string) (Enumerator, bool)
	Types() []string
}

// FlatNamespace exposes its declared members as an ordered list.
type FlatNamespace interface {
	Namespace
	Members() []Member
}

// EnumKey returns "Namespace.Key" for value as a member of enumType, or an
// empty string when enumType is empty (plain integer, no enum context) or no
// member matches.
func EnumKey(ns Namespace, value int64, enumType string) string {
	if ns == nil || enumType == "" {
		return ""
	}
	var key string
	switch n := ns.(type) {
	case MetaNamespace:
		if e, ok := n.Enumerator(enumType); ok {
			key, _ = e.ValueToKey(value)
		}
	case FlatNamespace:
		for _, m := range n.Members() {
			if m.Type == enumType && m.Value == value {
				key = m.Key
				break
			}
		}
	}
	if key == "" {
		return ""
	}
	return ns.Name() + "." + key
}

// FlagsKey decomposes mask into its set bits, lowest first, and names each bit
// as a member of the singular enum type behind flagsType. Zero resolves to the
// declared zero key, if any. Bits without a declared name are left out of
// the result; it is empty only when no set bit has a name.
func FlagsKey(ns Namespace, mask int64, flagsType string) string {
	if ns == nil || flagsType == "" {
		return ""
	}
	singular := SingularType(ns, flagsType)
	if mask == 0 {
		return EnumKey(ns, 0, singular)
	}
	var keys []string
	for bit := int64(1); bit > 0 && bit <= mask; bit <<= 1 {
		if mask&bit == 0 {
			continue
		}
		if key := EnumKey(ns, bit, singular); key != "" {
			keys = append(keys, key)
		}
	}
	return strings.Join(keys, Separator)
}

// SingularType maps a flags type name to the enum type its bits belong to.
// Flags types are conventionally the plural of their enum ("MouseButtons" for
// "MouseButton"); the suffix is only stripped when the namespace declares the
// singular type.
func SingularType(ns Namespace, flagsType string) string {
	if trimmed, ok := strings.CutSuffix(flagsType, "s"); ok && trimmed != "" && HasType(ns, trimmed) {
		return trimmed
	}
	return flagsType
}

// HasType reports whether the namespace declares enumType.
func HasType(ns Namespace, enumType string) bool {
	switch n := ns.(type) {
	case MetaNamespace:
		_, ok := n.Enumerator(enumType)
		return ok
	case FlatNamespace:
		for _, m := range n.Members() {
			if m.Type == enumType {
				return true
			}
		}
	}
	return false
}

// LookupKey finds the member declared under key in the namespace.
func LookupKey(ns Namespace, key string) (Member, bool) {
	switch n := ns.(type) {
	case MetaNamespace:
		for _, typ := range n.Types() {
			e, ok := n.Enumerator(typ)
			if !ok {
				continue
			}
			if v, ok := e.KeyToValue(key); ok {
				return Member{Type: typ, Key: key, Value: v}, true
			}
		}
	case FlatNamespace:
		for _, m := range n.Members() {
			if m.Key == key {
				return m, true
			}
		}
	}
	return Member{}, false
}
