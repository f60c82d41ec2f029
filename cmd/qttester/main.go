package main

import (
	"context"
	"log"
	"os"

	"github.com/rekonder/qttester/internal/buildinfo"
	"github.com/rekonder/qttester/internal/cmd"
	"github.com/rekonder/qttester/pkg/demoapp"
	"github.com/rekonder/qttester/pkg/entrypoint"
	"pkt.systems/psi"
	"pkt.systems/pslog"
)

// version is set at build time with -ldflags "-X main.version=v1.2.3".
var version string

func main() {
	buildinfo.SetVersion(version)
	psi.Run(submain)
}

func submain(ctx context.Context) int {
	logger := pslog.LoggerFromEnv(
		pslog.WithEnvWriter(os.Stderr),
		pslog.WithEnvOptions(pslog.Options{Mode: pslog.ModeConsole}),
	)
	ctx = pslog.ContextWithLogger(ctx, logger)
	log.SetOutput(pslog.LogLogger(logger).Writer())
	log.SetFlags(0)

	registry := entrypoint.NewRegistry()
	if err := demoapp.Register(registry); err != nil {
		logger.With("err", err).Error("register entry points")
		return 1
	}

	root := cmd.NewRootCommand(registry)
	if err := root.Execute(ctx, os.Args[1:]); err != nil {
		pslog.Ctx(ctx).With("err", err).Error("qttester command failed")
		return 1
	}
	return 0
}
