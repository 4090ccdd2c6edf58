package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"maps"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"timejar/internal/adapters/ingest/snapshot"
	"timejar/internal/adapters/publish/kafkasink"
	"timejar/internal/core/version"
	"timejar/internal/modkit"
	"timejar/internal/modkit/module"
	"timejar/internal/platform/config"
	"timejar/internal/platform/logger"
	apphttp "timejar/internal/platform/net/http"
	"timejar/internal/platform/store"
	"timejar/internal/platform/validate"
	"timejar/internal/services/merge/domain"
	mergemod "timejar/internal/services/merge/module"
	"timejar/internal/services/merge/repo"
)

const service = "timejar-merge"

func mustSetEnv(key, val string) {
	if val != "" {
		_ = os.Setenv(key, val)
	}
}

func boolEnv(b bool) string { return map[bool]string{true: "1", false: "0"}[b] }

// passed reports whether name was set on the command line rather than defaulted
func passed(fs *flag.FlagSet, name string) bool {
	var found bool
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func main() {
	var (
		fDir     = flag.String("dir", "", "snapshot directory; positional args may name files or directories instead, all merged in file name order")
		fStrict  = flag.Bool("strict", true, "stop on the first row that cannot be decoded (default from CORE_MERGE_STRICT_DECODE, else true)")
		fWorkers = flag.Int("workers", -1, "concurrent snapshot loads; 0 loads lazily (default from CORE_MERGE_WORKERS)")
		fTZ      = flag.String("tz", "", "IANA zone the snapshot timestamps are in (default from CORE_MERGE_TIMEZONE, else Local)")
		fHistory = flag.Int("history", 0, "print the last N runs from the ledger and exit")
		fMetrics = flag.Bool("metrics", false, "serve /metrics, /healthz and /readyz on METRICS_ADDR while running")
		fVersion = flag.Bool("version", false, "print the build version and exit")
	)
	flag.Parse()

	if *fVersion {
		fmt.Println(version.Info(service))
		return
	}
	l := logger.ForService(service)
	l.Info().Str("build", version.Info(service).String()).Msg("starting")
	strict := ""
	if passed(flag.CommandLine, "strict") {
		strict = boolEnv(*fStrict)
	}
	if err := run(*fDir, flag.Args(), strict, *fWorkers, *fTZ, *fHistory, *fMetrics); err != nil {
		l.Fatal().Err(err).Msg("merge failed")
	}
}

func run(dir string, args []string, strict string, workers int, tz string, history int, metrics bool) error {
	root := config.New()
	l := logger.Get()

	// surface flags to modules that read FromConfig
	mustSetEnv("CORE_MERGE_STRICT_DECODE", strict)
	mustSetEnv("CORE_MERGE_TIMEZONE", tz)
	if workers >= 0 {
		mustSetEnv("CORE_MERGE_WORKERS", strconv.Itoa(workers))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stOpts := []store.Option{store.WithLogger(*l)}
	if metrics {
		stOpts = append(stOpts, store.WithRegisterer(prometheus.DefaultRegisterer))
	}
	st, err := store.Open(ctx, store.ConfigFromEnv(root, "timejar", "merge"), stOpts...)
	if err != nil {
		return fmt.Errorf("store.Open: %w", err)
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	deps := modkit.Deps{Cfg: root, PG: st.PG, CH: st.CH, Log: *l}
	var opts []modkit.Option

	kcfg := kafkasink.ConfigFromEnv(root)
	if kcfg.Enabled {
		if err := validate.Struct(kcfg); err != nil {
			return err
		}
		k, err := kafkasink.New(kcfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := k.Close(); err != nil {
				l.Error().Err(err).Msg("failed to close kafka writer")
			}
		}()
		mustSetEnv("CORE_MERGE_SINK_KAFKA", "1")
		opts = append(opts, modkit.WithPorts[repo.Publisher](k))
	}

	mm, err := mergemod.New(deps, opts...)
	if err != nil {
		return err
	}

	if history > 0 {
		runs, err := module.MustLookup[domain.HistoryPort](mm).RecentRuns(ctx, history)
		if err != nil {
			return err
		}
		printHistory(runs)
		return nil
	}

	if err := mm.EnsureSchema(ctx); err != nil {
		return err
	}

	if metrics {
		srv := apphttp.NewServer(root)
		apphttp.MountOps(srv.Router(), apphttp.Ops{
			Checks:   []apphttp.Check{{Name: "store", Fn: st.Guard}},
			Build:    version.Info(service),
			Profiler: root.MayBool("METRICS_PPROF", false),
		})
		go func() {
			if err := srv.Run(ctx); err != nil {
				l.Error().Err(err).Msg("ops server stopped")
			}
		}()
	}

	if dir != "" {
		args = append([]string{dir}, args...)
	}
	if len(args) == 0 {
		return errors.New("no snapshots given: pass -dir or file arguments")
	}
	sources, err := snapshot.Resolve(args...)
	if err != nil {
		return err
	}
	l.Info().Str("sources", snapshot.Describe(sources)).Strs("sinks", mm.Sinks()).Msg("merge: starting")

	sum, err := module.MustLookup[domain.RunnerPort](mm).Run(ctx, sources)
	printSummary(sum)
	return err
}

func printSummary(s domain.Summary) {
	p := message.NewPrinter(language.English)
	p.Printf("run %s: %s\n", s.RunID, s.Status())
	p.Printf("  sources        %d\n", s.Sources)
	p.Printf("  entries        %d\n", s.Entries)
	p.Printf("  duplicates     %d\n", s.Duplicates)
	p.Printf("  load errors    %d\n", s.LoadErrors)
	p.Printf("  order errors   %d\n", s.OrderErrors)
	p.Printf("  decode errors  %d\n", s.DecodeErrors)
	for _, name := range slices.Sorted(maps.Keys(s.Written)) {
		p.Printf("  written[%s] %d\n", name, s.Written[name])
	}
	p.Printf("  elapsed        %v\n", s.Elapsed)
}

func printHistory(runs []domain.RunRecord) {
	p := message.NewPrinter(language.English)
	for _, r := range runs {
		p.Printf("%s  %-8s  %s  sources=%d entries=%d dups=%d errors=%d/%d/%d",
			r.RunID, r.Status, r.Started.Format("2006-01-02 15:04:05"),
			r.Sources, r.Entries, r.Duplicates, r.LoadErrors, r.OrderErrors, r.DecodeErrors)
		if r.ErrText != "" {
			p.Printf("  %s", r.ErrText)
		}
		p.Printf("\n")
	}
}
