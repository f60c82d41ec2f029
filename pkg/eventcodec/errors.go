package eventcodec

import "fmt"

// UnknownEventKindError reports a record whose class has no registered
// constructor, or whose kind name cannot be resolved.
type UnknownEventKindError struct {
	Class string
	Kind  string
}

func (e *UnknownEventKindError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("unknown event kind %q for class %s", e.Kind, e.Class)
	}
	return fmt.Sprintf("no constructor registered for event class %q", e.Class)
}

// ArgumentCountError reports a record whose argument list does not match the
// class attribute table. Records degraded at capture time fail this way.
type ArgumentCountError struct {
	Class string
	Want  int
	Got   int
}

func (e *ArgumentCountError) Error() string {
	return fmt.Sprintf("%s: expected %d arguments, got %d", e.Class, e.Want, e.Got)
}
