package http

import (
	"context"
	"errors"
	stdhttp "net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"timejar/internal/core/version"
	perr "timejar/internal/platform/errors"
)

const defaultCheckTimeout = 2 * time.Second

// Check reports readiness of one dependency
type Check struct {
	Name string
	Fn   func(context.Context) error
}

// Ops configures the ops endpoints
type Ops struct {
	// Gatherer backs /metrics; nil means the default registry
	Gatherer prometheus.Gatherer

	// Checks back /readyz; all must pass
	Checks []Check

	// CheckTimeout bounds each readiness check; zero means 2s
	CheckTimeout time.Duration

	// Profiler mounts pprof under /debug
	Profiler bool

	// Build is reported by /healthz
	Build version.BuildInfo
}

// MountOps mounts /metrics, /healthz and /readyz (and /debug/pprof when asked)
func MountOps(r Router, o Ops) {
	g := o.Gatherer
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))

	build := o.Build
	r.Get("/healthz", func(w stdhttp.ResponseWriter, _ *stdhttp.Request) {
		RespondOK(w, map[string]any{"status": "ok", "build": build})
	})
	r.Head("/healthz", func(w stdhttp.ResponseWriter, _ *stdhttp.Request) {
		w.WriteHeader(stdhttp.StatusOK)
	})

	timeout := o.CheckTimeout
	if timeout <= 0 {
		timeout = defaultCheckTimeout
	}
	checks := append([]Check(nil), o.Checks...)
	r.Get("/readyz", func(w stdhttp.ResponseWriter, req *stdhttp.Request) {
		results, err := runChecks(req.Context(), checks, timeout)
		if err != nil {
			RespondError(w, err, results)
			return
		}
		RespondOK(w, results)
	})

	MountProfiler(r, "/debug", o.Profiler)
}

// runChecks runs every check and reports each outcome by name
func runChecks(ctx context.Context, checks []Check, timeout time.Duration) (map[string]string, error) {
	results := make(map[string]string, len(checks))
	var errs []error
	for _, c := range checks {
		cctx, cancel := context.WithTimeout(ctx, timeout)
		err := c.Fn(cctx)
		cancel()
		if err != nil {
			results[c.Name] = err.Error()
			errs = append(errs, err)
			continue
		}
		results[c.Name] = "ok"
	}
	if len(errs) > 0 {
		return results, perr.Wrap(errors.Join(errs...), perr.ErrorCodeUnavailable, "not ready")
	}
	return results, nil
}
