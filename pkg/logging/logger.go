package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/rekonder/qttester/pkg/config"
	"pkt.systems/pslog"
)

// Options describe how to configure a logger instance.
type Options struct {
	Level  string
	Format string
	Output io.Writer
	// NoColor disables ANSI colouring in console mode.
	NoColor bool
}

// New creates a pslog logger in console or structured mode.
func New(opts Options) (pslog.Logger, error) {
	lvl, err := parseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	format, err := config.NormalizeFormat(opts.Format)
	if err != nil {
		return nil, err
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	mode := pslog.ModeConsole
	if format == "json" {
		mode = pslog.ModeStructured
	}
	return pslog.NewWithOptions(out, pslog.Options{
		Mode:     mode,
		MinLevel: lvl,
		NoColor:  opts.NoColor || mode == pslog.ModeStructured,
	}), nil
}

func parseLevel(level string) (pslog.Level, error) {
	normalized, err := config.NormalizeLogLevel(level)
	if err != nil {
		return pslog.InfoLevel, err
	}

	switch normalized {
	case "trace":
		return pslog.TraceLevel, nil
	case "debug":
		return pslog.DebugLevel, nil
	case "info":
		return pslog.InfoLevel, nil
	case "warn":
		return pslog.WarnLevel, nil
	case "error":
		return pslog.ErrorLevel, nil
	}
	return pslog.InfoLevel, fmt.Errorf("unhandled log level %q", normalized)
}

// VerboseLevel maps the repeat count of -v to a level name: one flag gives
// debug, two or more give trace.
func VerboseLevel(count int, fallback string) string {
	switch {
	case count >= 2:
		return "trace"
	case count == 1:
		return "debug"
	}
	return fallback
}
