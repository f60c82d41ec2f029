package enumname

import (
	"strings"
)

// Registry indexes namespaces by name so qualified names can be parsed back.
type Registry struct {
	namespaces map[string]Namespace
}

// NewRegistry indexes the given namespaces. Later namespaces with the same
// name replace earlier ones.
func NewRegistry(namespaces ...Namespace) *Registry {
	r := &Registry{namespaces: make(map[string]Namespace, len(namespaces))}
	for _, ns := range namespaces {
		if ns != nil {
			r.namespaces[ns.Name()] = ns
		}
	}
	return r
}

// Namespace returns the namespace registered under name.
func (r *Registry) Namespace(name string) (Namespace, bool) {
	ns, ok := r.namespaces[name]
	return ns, ok
}

// Lookup parses one "Namespace.Key" name.
func (r *Registry) Lookup(name string) (Member, error) {
	nsName, key, ok := strings.Cut(strings.TrimSpace(name), ".")
	if !ok || nsName == "" || key == "" {
		return Member{}, &NameResolutionError{Name: name, Reason: "expected Namespace.Key"}
	}
	ns, ok := r.namespaces[nsName]
	if !ok {
		return Member{}, &NameResolutionError{Name: name, Reason: "unknown namespace " + nsName}
	}
	m, ok := LookupKey(ns, key)
	if !ok {
		return Member{}, &NameResolutionError{Name: name, Reason: "no such key in " + nsName}
	}
	return m, nil
}

// Members parses a single name or a "|"-joined list of names.
func (r *Registry) Members(text string) ([]Member, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &NameResolutionError{Name: text, Reason: "empty name"}
	}
	parts := strings.Split(text, Separator)
	out := make([]Member, 0, len(parts))
	for _, part := range parts {
		m, err := r.Lookup(part)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// Value parses text back to its integer, or-ing the members of a flags list.
func (r *Registry) Value(text string) (int64, error) {
	members, err := r.Members(text)
	if err != nil {
		return 0, err
	}
	var v int64
	for _, m := range members {
		v |= m.Value
	}
	return v, nil
}
