package toolkit

import "fmt"

// ArgumentTypeMismatchError reports a constructor argument that does not
// satisfy the expected type, including enum values of the wrong enum type
// and raw integers where a named value is required.
type ArgumentTypeMismatchError struct {
	Class string
	Attr  string
	Want  string
	Got   string
}

func (e *ArgumentTypeMismatchError) Error() string {
	return fmt.Sprintf("%s.%s: expected %s, got %s", e.Class, e.Attr, e.Want, e.Got)
}
