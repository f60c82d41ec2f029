package scenario

import (
	"regexp"
	"strings"
)

const redactedMark = "[REDACTED]"

// Redactor masks sensitive content in rendered argument values and widget
// names. The zero value is a no-op redactor.
type Redactor struct {
	patterns []*regexp.Regexp
}

var namedPatterns = map[string]string{
	"email":  `(?i)[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}`,
	"cc16":   `\b(?:\d[ -]?){16}\b`,
	"jwt":    `eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9._-]+\.[A-Za-z0-9._-]+`,
	"digits": `\d`,
}

// NewRedactor compiles the given expressions. The names "email", "cc16",
// "jwt" and "digits" select built-in expressions; anything else is a regular
// expression.
func NewRedactor(exprs []string) (Redactor, error) {
	patterns := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		trimmed := strings.TrimSpace(expr)
		if trimmed == "" {
			continue
		}
		candidate := trimmed
		if mapped, ok := namedPatterns[strings.ToLower(trimmed)]; ok {
			candidate = mapped
		}
		rx, err := regexp.Compile(candidate)
		if err != nil {
			return Redactor{}, err
		}
		patterns = append(patterns, rx)
	}
	return Redactor{patterns: patterns}, nil
}

// Enabled reports whether any pattern is configured.
func (r Redactor) Enabled() bool { return len(r.patterns) > 0 }

// ApplyString redacts sensitive content from a string.
func (r Redactor) ApplyString(input string) string {
	redacted := input
	for _, rx := range r.patterns {
		redacted = rx.ReplaceAllString(redacted, redactedMark)
	}
	return redacted
}
