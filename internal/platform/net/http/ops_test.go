package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"timejar/internal/core/version"
	"timejar/internal/platform/config"
	phttp "timejar/internal/platform/net/http"
)

func serve(t *testing.T, o phttp.Ops, path string) (*httptest.ResponseRecorder, phttp.Envelope) {
	t.Helper()
	r := phttp.NewServer(config.New()).Router()
	phttp.MountOps(r, o)

	rec := httptest.NewRecorder()
	r.Mux().ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
	var env phttp.Envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
	}
	return rec, env
}

func TestOps_MetricsServesGatherer(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "timejar_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Add(3)

	rec, _ := serve(t, phttp.Ops{Gatherer: reg}, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "timejar_test_total 3") {
		t.Fatalf("metric missing from body:\n%s", rec.Body.String())
	}
}

func TestOps_Healthz(t *testing.T) {
	rec, env := serve(t, phttp.Ops{Build: version.Info("timejar-merge")}, "/healthz")
	if rec.Code != http.StatusOK || env.StatusCode != http.StatusOK {
		t.Fatalf("bad healthz: %d %+v", rec.Code, env)
	}
	if !strings.Contains(rec.Body.String(), `"service":"timejar-merge"`) {
		t.Fatalf("build info missing from body:\n%s", rec.Body.String())
	}
}

func TestOps_ReadyzAllPass(t *testing.T) {
	ok := func(context.Context) error { return nil }
	rec, env := serve(t, phttp.Ops{Checks: []phttp.Check{{Name: "store", Fn: ok}}}, "/readyz")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	m, _ := env.Data.(map[string]any)
	if m["store"] != "ok" {
		t.Fatalf("unexpected data %#v", env.Data)
	}
}

func TestOps_ReadyzFailureIs503(t *testing.T) {
	ok := func(context.Context) error { return nil }
	bad := func(context.Context) error { return errors.New("pg: connection refused") }
	rec, env := serve(t, phttp.Ops{Checks: []phttp.Check{
		{Name: "kafka", Fn: ok},
		{Name: "store", Fn: bad},
	}}, "/readyz")

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if env.Code != "unavailable" || !strings.Contains(env.Error, "connection refused") {
		t.Fatalf("bad envelope: %+v", env)
	}
	m, _ := env.Data.(map[string]any)
	if m["kafka"] != "ok" || m["store"] != "pg: connection refused" {
		t.Fatalf("unexpected per-check data %#v", env.Data)
	}
}

func TestOps_ReadyzCheckTimeout(t *testing.T) {
	slow := func(ctx context.Context) error { <-ctx.Done(); return ctx.Err() }
	rec, _ := serve(t, phttp.Ops{
		Checks:       []phttp.Check{{Name: "slow", Fn: slow}},
		CheckTimeout: 10 * time.Millisecond,
	}, "/readyz")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 on timeout, got %d", rec.Code)
	}
}

func TestStatusOf(t *testing.T) {
	if got := phttp.StatusOf(nil); got != http.StatusOK {
		t.Fatalf("nil -> %d", got)
	}
	if got := phttp.StatusOf(errors.New("x")); got != http.StatusInternalServerError {
		t.Fatalf("plain -> %d", got)
	}
}

func TestOps_HealthzHead(t *testing.T) {
	r := phttp.NewServer(config.New()).Router()
	phttp.MountOps(r, phttp.Ops{})

	rec := httptest.NewRecorder()
	r.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.Len() != 0 {
		t.Fatalf("bad HEAD healthz: %d %q", rec.Code, rec.Body.String())
	}
}
