package enumname

import "fmt"

// NameResolutionError reports a symbolic name that cannot be mapped back to a
// declared value.
type NameResolutionError struct {
	Name   string
	Reason string
}

func (e *NameResolutionError) Error() string {
	return fmt.Sprintf("resolve enum name %q: %s", e.Name, e.Reason)
}
