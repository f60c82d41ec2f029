package capture

import (
	"fmt"
	"path"
	"slices"
	"strings"
)

// DefaultKinds is the interaction allow-list used when none is configured.
// Resize, focus and close events are left out so a replay does not fight
// the window manager.
var DefaultKinds = []string{
	"MouseButtonPress",
	"MouseButtonRelease",
	"MouseButtonDblClick",
	"MouseMove",
	"KeyPress",
	"KeyRelease",
	"Enter",
	"DragEnter",
	"DragLeave",
	"DragMove",
	"Drop",
	"Move",
}

// KindPolicy decides which event kinds are recorded: a kind must be on the
// allow-list, match at least one include pattern when any are given, and
// match no exclude pattern. Patterns are exact kind names or shell globs
// ("Mouse*", "Drag?ove").
//
// The zero value permits every kind.
type KindPolicy struct {
	allowed map[int64]string
}

// NewKindPolicy resolves the allow-list through resolve and narrows it by the
// include and exclude patterns. Unknown kind names and malformed patterns
// are configuration errors.
func NewKindPolicy(resolve func(name string) (int64, error), allow, include, exclude []string) (KindPolicy, error) {
	include = cleanPatterns(include)
	exclude = cleanPatterns(exclude)
	for _, pattern := range append(append([]string(nil), include...), exclude...) {
		if _, err := path.Match(pattern, ""); err != nil {
			return KindPolicy{}, fmt.Errorf("kind filter %q: %w", pattern, err)
		}
	}

	policy := KindPolicy{allowed: make(map[int64]string, len(allow))}
	for _, name := range allow {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		kind, err := resolve(trimmed)
		if err != nil {
			return KindPolicy{}, fmt.Errorf("allowed kind %q: %w", trimmed, err)
		}
		short := shortName(trimmed)
		if len(include) > 0 && !matchAny(include, short) {
			continue
		}
		if matchAny(exclude, short) {
			continue
		}
		policy.allowed[kind] = short
	}
	return policy, nil
}

// Allows reports whether events of kind are recorded.
func (p KindPolicy) Allows(kind int64) bool {
	if p.allowed == nil {
		return true
	}
	_, ok := p.allowed[kind]
	return ok
}

// Kinds lists the effective kind names, sorted.
func (p KindPolicy) Kinds() []string {
	out := make([]string, 0, len(p.allowed))
	for _, name := range p.allowed {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

func shortName(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}

func matchAny(patterns []string, name string) bool {
	for _, pattern := range patterns {
		if ok, _ := path.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

func cleanPatterns(in []string) []string {
	out := make([]string, 0, len(in))
	for _, p := range in {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, shortName(trimmed))
		}
	}
	return out
}
