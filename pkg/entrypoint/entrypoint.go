// Package entrypoint maps the --main argument to an application main
// function.
//
// A spec names either a registered module, whose main is run, or a function
// exported by a module, written "module.function". The module lookup is tried
// first; only when no module of that exact name exists is the spec split at
// its last dot.
package entrypoint

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/rekonder/qttester/pkg/capture"
)

// Module is a named application exposing a main and optional extra entry
// functions.
type Module struct {
	Name  string
	Main  capture.MainFunc
	Funcs map[string]capture.MainFunc
}

// Kind tags a Resolution.
type Kind int

const (
	KindUnresolved Kind = iota
	KindModule
	KindModuleFunction
)

func (k Kind) String() string {
	switch k {
	case KindModule:
		return "module"
	case KindModuleFunction:
		return "module-function"
	default:
		return "unresolved"
	}
}

// Resolution is the outcome of Resolve. Main is nil unless Kind is
// KindModule or KindModuleFunction.
type Resolution struct {
	Kind   Kind
	Spec   string
	Module string
	Symbol string
	Reason string
	Main   capture.MainFunc
}

// Err returns an *UnresolvedError for unresolved results and nil otherwise.
func (r Resolution) Err() error {
	if r.Kind != KindUnresolved {
		return nil
	}
	return &UnresolvedError{Spec: r.Spec, Reason: r.Reason}
}

// UnresolvedError reports an entry point that names nothing runnable.
type UnresolvedError struct {
	Spec   string
	Reason string
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("cannot resolve entry point %q: %s", e.Spec, e.Reason)
}

// Registry holds the modules available to --main.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]Module
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]Module)}
}

// Register adds m. Names must be unique and non-empty.
func (r *Registry) Register(m Module) error {
	name := strings.TrimSpace(m.Name)
	if name == "" {
		return errors.New("module name must not be empty")
	}
	if m.Main == nil && len(m.Funcs) == 0 {
		return fmt.Errorf("module %q exposes nothing to run", name)
	}
	for fn, main := range m.Funcs {
		if fn == "" || strings.Contains(fn, ".") || main == nil {
			return fmt.Errorf("module %q: invalid function %q", name, fn)
		}
	}
	m.Name = name
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.modules[name]; ok {
		return fmt.Errorf("module %q already registered", name)
	}
	r.modules[name] = m
	return nil
}

// Names lists the runnable entry points, modules first then their functions,
// sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var names []string
	for name, m := range r.modules {
		if m.Main != nil {
			names = append(names, name)
		}
		for fn := range m.Funcs {
			names = append(names, name+"."+fn)
		}
	}
	slices.Sort(names)
	return names
}

// Resolve looks spec up as a module, then as module.function.
func (r *Registry) Resolve(spec string) Resolution {
	spec = strings.TrimSpace(spec)
	res := Resolution{Spec: spec}
	if spec == "" {
		res.Reason = "no entry point given"
		return res
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if m, ok := r.modules[spec]; ok && m.Main != nil {
		res.Kind = KindModule
		res.Module = m.Name
		res.Main = m.Main
		return res
	}

	idx := strings.LastIndex(spec, ".")
	if idx <= 0 || idx == len(spec)-1 {
		if _, ok := r.modules[spec]; ok {
			res.Reason = "module has no main"
		} else {
			res.Reason = "no such module"
		}
		return res
	}
	moduleName, symbol := spec[:idx], spec[idx+1:]
	m, ok := r.modules[moduleName]
	if !ok {
		res.Reason = fmt.Sprintf("no such module %q", moduleName)
		return res
	}
	main, ok := m.Funcs[symbol]
	if !ok {
		res.Reason = fmt.Sprintf("%s is not a function", spec)
		return res
	}
	res.Kind = KindModuleFunction
	res.Module = moduleName
	res.Symbol = symbol
	res.Main = main
	return res
}
