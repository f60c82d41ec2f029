package enumname

// Enum declares one enum type and its keys in declaration order.
type Enum struct {
	Type string
	Keys []Member
}

// Key is shorthand for declaring a member inside an Enum literal.
func Key(key string, value int64) Member {
	return Member{Key: key, Value: value}
}

// Table is a MetaNamespace backed by per-type lookup maps.
type Table struct {
	name  string
	types []string
	enums map[string]*enumerator
}

type enumerator struct {
	byValue map[int64]string
	byKey   map[string]int64
}

func (e *enumerator) ValueToKey(value int64) (string, bool) {
	k, ok := e.byValue[value]
	return k, ok
}

func (e *enumerator) KeyToValue(key string) (int64, bool) {
	v, ok := e.byKey[key]
	return v, ok
}

// NewTable builds a structured namespace. When a type declares two keys with
// the same value the first one names the value; both keys parse.
func NewTable(name string, enums ...Enum) *Table {
	t := &Table{name: name, enums: make(map[string]*enumerator, len(enums))}
	for _, en := range enums {
		e, ok := t.enums[en.Type]
		if !ok {
			e = &enumerator{byValue: make(map[int64]string), byKey: make(map[string]int64)}
			t.enums[en.Type] = e
			t.types = append(t.types, en.Type)
		}
		for _, m := range en.Keys {
			if _, dup := e.byValue[m.Value]; !dup {
				e.byValue[m.Value] = m.Key
			}
			e.byKey[m.Key] = m.Value
		}
	}
	return t
}

// Name implements Namespace.
func (t *Table) Name() string { return t.name }

// Enumerator implements MetaNamespace.
func (t *Table) Enumerator(typeName string) (Enumerator, bool) {
	e, ok := t.enums[typeName]
	if !ok {
		return nil, false
	}
	return e, true
}

// Types implements MetaNamespace.
func (t *Table) Types() []string {
	return append([]string(nil), t.types...)
}

// Flat is a FlatNamespace over an ordered member list.
type Flat struct {
	name    string
	members []Member
}

// NewFlat builds a flat namespace, flattening enums in declaration order.
func NewFlat(name string, enums ...Enum) *Flat {
	f := &Flat{name: name}
	for _, en := range enums {
		for _, m := range en.Keys {
			m.Type = en.Type
			f.members = append(f.members, m)
		}
	}
	return f
}

// Name implements Namespace.
func (f *Flat) Name() string { return f.name }

// Members implements FlatNamespace.
func (f *Flat) Members() []Member {
	return append([]Member(nil), f.members...)
}
