package pg

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"timejar/internal/platform/logger"
)

// maxLoggedSQL caps the statement text in query logs
const maxLoggedSQL = 240

// QueryEvent describes one finished statement
type QueryEvent struct {
	SQL     string
	Args    []any
	Elapsed time.Duration
	Err     error
	Slow    bool
}

// QueryTracer observes finished statements
type QueryTracer interface {
	OnQuery(ctx context.Context, ev QueryEvent)
}

// LogTracer logs every statement at debug and slow or failed ones at warn.
// Only the arg count is logged; entry batches bind thousands of values
func LogTracer(root logger.Logger) QueryTracer {
	return logTracer{log: root.Level(zerolog.DebugLevel).With().Str("component", "pg").Logger()}
}

type logTracer struct{ log logger.Logger }

func (t logTracer) OnQuery(ctx context.Context, ev QueryEvent) {
	evt := t.log.Debug()
	if ev.Slow || (ev.Err != nil && !isCanceled(ev.Err)) {
		evt = t.log.Warn()
	}
	evt.Ctx(ctx).
		Dur("elapsed", ev.Elapsed).
		Bool("slow", ev.Slow).
		Str("op", Verb(ev.SQL)).
		Str("sql", compact(ev.SQL, maxLoggedSQL)).
		Int("args", len(ev.Args)).
		Err(ev.Err).
		Msg("pg query")
}

// MetricsTracer records statement latency by verb and outcome.
// Registering twice on the same registry reuses the first histogram
func MetricsTracer(reg prometheus.Registerer) QueryTracer {
	h := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "timejar",
		Subsystem: "pg",
		Name:      "query_seconds",
		Help:      "Postgres statement latency by verb and outcome",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 9),
	}, []string{"op", "outcome"})
	if err := reg.Register(h); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if prev, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				h = prev
			}
		}
	}
	return metricsTracer{h: h}
}

type metricsTracer struct{ h *prometheus.HistogramVec }

func (t metricsTracer) OnQuery(_ context.Context, ev QueryEvent) {
	outcome := "ok"
	switch {
	case ev.Err != nil && isCanceled(ev.Err):
		outcome = "canceled"
	case ev.Err != nil:
		outcome = "error"
	}
	t.h.WithLabelValues(Verb(ev.SQL), outcome).Observe(ev.Elapsed.Seconds())
}

// Tracers fans one event out to every non nil tracer; nil when none remain
func Tracers(ts ...QueryTracer) QueryTracer {
	var out multiTracer
	for _, t := range ts {
		if t != nil {
			out = append(out, t)
		}
	}
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	}
	return out
}

type multiTracer []QueryTracer

func (m multiTracer) OnQuery(ctx context.Context, ev QueryEvent) {
	for _, t := range m {
		t.OnQuery(ctx, ev)
	}
}

// Verb returns the lower cased leading keyword of a statement, "other" when blank
func Verb(sql string) string {
	f := strings.Fields(sql)
	if len(f) == 0 {
		return "other"
	}
	return strings.ToLower(f[0])
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// compact folds whitespace runs to one space and truncates to max bytes
func compact(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if max > 0 && len(s) > max {
		return s[:max] + "..."
	}
	return s
}
