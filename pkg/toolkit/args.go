package toolkit

import "fmt"

// Args unpacks constructor arguments with type checks.
type Args struct {
	class string
	attrs []AttrSpec
	vals  []any
}

// NewArgs validates the argument count against the class attributes.
func NewArgs(class string, attrs []AttrSpec, vals []any) (*Args, error) {
	if len(vals) != len(attrs) {
		return nil, &ArgumentTypeMismatchError{
			Class: class,
			Attr:  "*",
			Want:  fmt.Sprintf("%d arguments", len(attrs)),
			Got:   fmt.Sprintf("%d", len(vals)),
		}
	}
	return &Args{class: class, attrs: attrs, vals: vals}, nil
}

func (a *Args) mismatch(i int, want string) error {
	return &ArgumentTypeMismatchError{Class: a.class, Attr: a.attrs[i].Name, Want: want, Got: fmt.Sprintf("%T(%v)", a.vals[i], a.vals[i])}
}

// Int returns argument i as an int.
func (a *Args) Int(i int) (int, error) {
	v, ok := a.vals[i].(int)
	if !ok {
		return 0, a.mismatch(i, "int")
	}
	return v, nil
}

// String returns argument i as a string.
func (a *Args) String(i int) (string, error) {
	v, ok := a.vals[i].(string)
	if !ok {
		return "", a.mismatch(i, "string")
	}
	return v, nil
}

// Bool returns argument i as a bool.
func (a *Args) Bool(i int) (bool, error) {
	v, ok := a.vals[i].(bool)
	if !ok {
		return false, a.mismatch(i, "bool")
	}
	return v, nil
}

// Point returns argument i as a Point.
func (a *Args) Point(i int) (Point, error) {
	v, ok := a.vals[i].(Point)
	if !ok {
		return Point{}, a.mismatch(i, "Point")
	}
	return v, nil
}

// Rect returns argument i as a Rect.
func (a *Args) Rect(i int) (Rect, error) {
	v, ok := a.vals[i].(Rect)
	if !ok {
		return Rect{}, a.mismatch(i, "Rect")
	}
	return v, nil
}

// Enum returns argument i as an Enum of the declared type.
func (a *Args) Enum(i int) (Enum, error) {
	want := a.attrs[i].Type
	v, ok := a.vals[i].(Enum)
	if !ok || v.Type != want {
		return Enum{}, a.mismatch(i, "Enum("+want+")")
	}
	return v, nil
}

// Flags returns argument i as Flags of the declared type.
func (a *Args) Flags(i int) (Flags, error) {
	want := a.attrs[i].Type
	v, ok := a.vals[i].(Flags)
	if !ok || v.Type != want {
		return Flags{}, a.mismatch(i, "Flags("+want+")")
	}
	return v, nil
}
