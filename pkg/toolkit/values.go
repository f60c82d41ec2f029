package toolkit

// Point is a two-dimensional integer position.
type Point struct {
	X int
	Y int
}

// Rect is an integer rectangle.
type Rect struct {
	X int
	Y int
	W int
	H int
}

// Enum is a typed enum value. Type carries the enum identity; toolkits reject
// values whose numeric value matches but whose type differs.
type Enum struct {
	Type  string
	Value int64
}

// Flags is a typed bitwise combination of single-bit enum values.
type Flags struct {
	Type  string
	Value int64
}
