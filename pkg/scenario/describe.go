package scenario

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/rekonder/qttester/pkg/objpath"
)

// DescribeOptions tunes Describe output.
type DescribeOptions struct {
	Redactor Redactor
	// AttrNames, when set, labels arguments with their attribute names.
	AttrNames func(class string) []string
	// Limit caps the number of listed entries; zero lists all.
	Limit int
}

// Describe renders a scenario for humans. Nothing in the scenario is
// evaluated or replayed.
func Describe(w io.Writer, sc *Scenario, opts DescribeOptions) error {
	h := sc.Header
	recordedAt := "unknown"
	if !h.RecordedAt.IsZero() {
		recordedAt = h.RecordedAt.Format(time.RFC3339)
	}
	if _, err := fmt.Fprintf(w, "Scenario %s (format v%d)\n", orDash(h.SessionID), FormatVersion); err != nil {
		return err
	}
	fmt.Fprintf(w, "  toolkit: %s\n", orDash(h.Toolkit))
	fmt.Fprintf(w, "  entry_point: %s\n", orDash(h.EntryPoint))
	fmt.Fprintf(w, "  recorded_at: %s\n", recordedAt)
	fmt.Fprintf(w, "  entries: %d\n", sc.Len())
	fmt.Fprintf(w, "  duration: %s\n", sc.Duration())

	classes := map[string]int{}
	for _, e := range sc.Entries {
		classes[e.Event.Class]++
	}
	if len(classes) > 0 {
		fmt.Fprintf(w, "  classes: %s\n", formatCounts(classes))
	}

	for i, e := range sc.Entries {
		if opts.Limit > 0 && i >= opts.Limit {
			fmt.Fprintf(w, "  ... %d more\n", sc.Len()-i)
			break
		}
		fmt.Fprintf(w, "%4d +%-9s %s %s %s\n", i+1, formatOffset(e.Offset), describePath(e.Path, opts.Redactor), e.Event.Kind, describeArgs(e, opts))
	}
	return nil
}

func describePath(p objpath.Path, r Redactor) string {
	if !r.Enabled() {
		return p.String()
	}
	masked := make(objpath.Path, len(p))
	for i, el := range p {
		el.Name = r.ApplyString(el.Name)
		masked[i] = el
	}
	return masked.String()
}

func describeArgs(e Entry, opts DescribeOptions) string {
	var names []string
	if opts.AttrNames != nil {
		names = opts.AttrNames(e.Event.Class)
	}
	labelled := len(names) == len(e.Event.Args)
	parts := make([]string, len(e.Event.Args))
	for i, arg := range e.Event.Args {
		value := opts.Redactor.ApplyString(arg)
		if strings.ContainsAny(value, " \t") || value == "" {
			value = fmt.Sprintf("%q", value)
		}
		if labelled {
			value = names[i] + "=" + value
		}
		parts[i] = value
	}
	return strings.Join(parts, " ")
}

func formatOffset(d time.Duration) string {
	return fmt.Sprintf("%.3fs", d.Seconds())
}

func formatCounts(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, counts[k])
	}
	return strings.Join(parts, " ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
