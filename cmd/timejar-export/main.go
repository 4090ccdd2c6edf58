package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"timejar/internal/core/version"
	"timejar/internal/modkit"
	"timejar/internal/modkit/module"
	"timejar/internal/platform/config"
	"timejar/internal/platform/logger"
	"timejar/internal/services/export/domain"
	exportmod "timejar/internal/services/export/module"
)

func mustSetEnv(key, val string) {
	if val != "" {
		_ = os.Setenv(key, val)
	}
}

func main() {
	var (
		fDir  = flag.String("dir", "", "directory receiving the snapshot (default from CORE_EXPORT_DIR)")
		fGzip = flag.Bool("gzip", false, "store the snapshot gzip-compressed")
	)
	flag.Parse()

	l := logger.ForService("timejar-export")
	l.Info().Str("build", version.Info("timejar-export").String()).Msg("starting")

	mustSetEnv("CORE_EXPORT_DIR", *fDir)
	if *fGzip {
		mustSetEnv("CORE_EXPORT_GZIP", "1")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	em, err := exportmod.New(modkit.Deps{Cfg: config.New(), Log: *l})
	if err != nil {
		l.Fatal().Err(err).Msg("export module")
	}

	res, err := module.MustLookup[domain.ExporterPort](em).Export(ctx)
	if err != nil {
		l.Fatal().Err(err).Msg("export failed")
	}
	l.Info().Str("path", res.Path).Int("rows", res.Rows).Msg("export done")
}
