package eventcodec

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rekonder/qttester/pkg/toolkit"
)

// FormatPoint encodes a point as "x,y".
func FormatPoint(p toolkit.Point) string {
	return strconv.Itoa(p.X) + "," + strconv.Itoa(p.Y)
}

// FormatRect encodes a rectangle as "x,y,w,h".
func FormatRect(r toolkit.Rect) string {
	return strconv.Itoa(r.X) + "," + strconv.Itoa(r.Y) + "," + strconv.Itoa(r.W) + "," + strconv.Itoa(r.H)
}

// ParsePoint decodes "x,y".
func ParsePoint(text string) (toolkit.Point, error) {
	v, err := parseInts(text, 2)
	if err != nil {
		return toolkit.Point{}, err
	}
	return toolkit.Point{X: v[0], Y: v[1]}, nil
}

// ParseRect decodes "x,y,w,h".
func ParseRect(text string) (toolkit.Rect, error) {
	v, err := parseInts(text, 4)
	if err != nil {
		return toolkit.Rect{}, err
	}
	return toolkit.Rect{X: v[0], Y: v[1], W: v[2], H: v[3]}, nil
}

func parseInts(text string, n int) ([]int, error) {
	parts := strings.Split(text, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d comma-separated integers, got %q", n, text)
	}
	out := make([]int, n)
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("component %d of %q: %w", i, text, err)
		}
		out[i] = v
	}
	return out, nil
}
