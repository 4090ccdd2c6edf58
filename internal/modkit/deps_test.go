package modkit

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"timejar/internal/platform/config"
)

func TestDeps_ZeroValue(t *testing.T) {
	t.Parallel()

	var d Deps
	if d.HasPG() || d.HasCH() {
		t.Fatal("zero Deps must report no backends")
	}
	if d.Registerer() != prometheus.DefaultRegisterer {
		t.Fatal("zero Deps must fall back to the default registerer")
	}
}

func TestDeps_CustomRegisterer(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	d := Deps{Cfg: config.New(), Metrics: reg}
	if d.Registerer() != reg {
		t.Fatal("expected the injected registerer")
	}
}
