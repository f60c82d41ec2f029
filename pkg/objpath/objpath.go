// Package objpath converts live widget-tree objects to canonical paths and
// resolves those paths against a possibly different instance of the tree.
//
// A path lists, root to target, each object's rank among same-type siblings,
// its exact type and its name. Paths are plain values and hold no references
// into the tree.
package objpath

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rekonder/qttester/pkg/toolkit"
)

// maxDepth bounds the parent walk so a cyclic tree cannot hang capture.
const maxDepth = 1 << 12

// Element identifies one object relative to its container.
type Element struct {
	Index int
	Type  string
	Name  string
}

func (e Element) String() string {
	return "[" + strconv.Itoa(e.Index) + "]" + e.Type + "(" + e.Name + ")"
}

// Path is a root-to-target sequence of elements. Element 0 is a top-level
// window.
type Path []Element

func (p Path) String() string {
	parts := make([]string, len(p))
	for i, e := range p {
		parts[i] = e.String()
	}
	return strings.Join(parts, "/")
}

// Target returns the last element.
func (p Path) Target() Element {
	if len(p) == 0 {
		return Element{}
	}
	return p[len(p)-1]
}

// UnrootedObjectError reports an object whose parent walk never reaches the
// top-level registry.
type UnrootedObjectError struct {
	Type   string
	Name   string
	Reason string
}

func (e *UnrootedObjectError) Error() string {
	return fmt.Sprintf("object %s(%s) is not rooted: %s", e.Type, e.Name, e.Reason)
}

// Resolver computes and interprets paths against one application.
type Resolver struct {
	app   toolkit.Application
	fuzzy bool
}

// NewResolver creates a resolver. In fuzzy mode positional indices are
// ignored and every same-type descendant is a candidate.
func NewResolver(app toolkit.Application, fuzzy bool) *Resolver {
	return &Resolver{app: app, fuzzy: fuzzy}
}

// Fuzzy reports the matching mode.
func (r *Resolver) Fuzzy() bool { return r.fuzzy }

// Serialize returns the canonical path of obj.
func (r *Resolver) Serialize(obj toolkit.Object) (Path, error) {
	if obj == nil {
		return nil, &UnrootedObjectError{Reason: "nil object"}
	}
	var reversed Path
	for depth := 0; ; depth++ {
		if depth >= maxDepth {
			return nil, &UnrootedObjectError{Type: obj.TypeName(), Name: obj.ObjectName(), Reason: "parent chain too deep"}
		}
		parent := obj.Parent()
		var siblings []toolkit.Object
		if parent == nil {
			siblings = r.app.TopLevelWidgets()
		} else {
			siblings = parent.Children()
		}
		index, ok := indexByType(siblings, obj)
		if !ok {
			reason := "missing from parent's children"
			if parent == nil {
				reason = "not a registered top-level window"
			}
			return nil, &UnrootedObjectError{Type: obj.TypeName(), Name: obj.ObjectName(), Reason: reason}
		}
		reversed = append(reversed, Element{Index: index, Type: obj.TypeName(), Name: obj.ObjectName()})
		if parent == nil {
			break
		}
		obj = parent
	}
	path := make(Path, len(reversed))
	for i, e := range reversed {
		path[len(reversed)-1-i] = e
	}
	return path, nil
}

// Resolve finds the live object a path denotes. A named target is looked up
// by type and name anywhere in the tree first; otherwise the path is walked
// positionally (or searched, in fuzzy mode). Misses return false.
func (r *Resolver) Resolve(path Path) (toolkit.Object, bool) {
	if len(path) == 0 {
		return nil, false
	}
	if target := path.Target(); target.Name != "" {
		if obj := r.findNamed(target.Type, target.Name); obj != nil {
			return obj, true
		}
	}

	roots := r.app.TopLevelWidgets()
	if !r.fuzzy {
		selected, ok := pick(roots, path[0])
		if !ok {
			return nil, false
		}
		roots = []toolkit.Object{selected}
	}
	for _, root := range roots {
		if obj := r.match(root, path, 0); obj != nil {
			return obj, true
		}
	}
	return nil, false
}

func (r *Resolver) match(obj toolkit.Object, path Path, i int) toolkit.Object {
	if !qualifies(obj, path[i]) {
		return nil
	}
	if i == len(path)-1 {
		return obj
	}
	var candidates []toolkit.Object
	if r.fuzzy {
		candidates = descendants(obj, nil)
	} else {
		child, ok := pick(obj.Children(), path[i+1])
		if !ok {
			return nil
		}
		candidates = []toolkit.Object{child}
	}
	for _, c := range candidates {
		if found := r.match(c, path, i+1); found != nil {
			return found
		}
	}
	return nil
}

func (r *Resolver) findNamed(typeName, name string) toolkit.Object {
	for _, top := range r.app.TopLevelWidgets() {
		for _, o := range descendants(top, []toolkit.Object{top}) {
			if o.TypeName() == typeName && o.ObjectName() == name {
				return o
			}
		}
	}
	return nil
}

func qualifies(obj toolkit.Object, e Element) bool {
	return obj.TypeName() == e.Type && (e.Name == "" || e.Name == obj.ObjectName())
}

// pick selects the same-type sibling at e.Index.
func pick(siblings []toolkit.Object, e Element) (toolkit.Object, bool) {
	same := ofType(siblings, e.Type)
	if e.Index < 0 || e.Index >= len(same) {
		return nil, false
	}
	return same[e.Index], true
}

func ofType(list []toolkit.Object, typeName string) []toolkit.Object {
	var out []toolkit.Object
	for _, o := range list {
		if o.TypeName() == typeName {
			out = append(out, o)
		}
	}
	return out
}

func indexByType(siblings []toolkit.Object, obj toolkit.Object) (int, bool) {
	index := 0
	for _, s := range siblings {
		if s.TypeName() != obj.TypeName() {
			continue
		}
		if s == obj {
			return index, true
		}
		index++
	}
	return 0, false
}

// descendants appends obj's descendants depth-first, pre-order, in children
// order.
func descendants(obj toolkit.Object, out []toolkit.Object) []toolkit.Object {
	for _, c := range obj.Children() {
		out = append(out, c)
		out = descendants(c, out)
	}
	return out
}
