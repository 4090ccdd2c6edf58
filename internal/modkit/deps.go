// Package modkit provides module wiring and core deps
package modkit

import (
	"github.com/prometheus/client_golang/prometheus"

	"timejar/internal/modkit/repokit"
	"timejar/internal/platform/config"
	"timejar/internal/platform/logger"
	"timejar/internal/platform/store"
)

// Deps holds core dependencies passed to modules
// this is wiring only and does not introduce new abstractions
type Deps struct {
	Log logger.Logger
	Cfg config.Conf

	// PG and CH are nil when the backend is disabled
	PG repokit.TxRunner
	CH store.Clickhouse

	// Metrics is where modules register collectors; nil means the default registry
	Metrics prometheus.Registerer
}

// Registerer returns Metrics or the process default registry
func (d Deps) Registerer() prometheus.Registerer {
	if d.Metrics != nil {
		return d.Metrics
	}
	return prometheus.DefaultRegisterer
}

// HasPG reports whether a postgres seam is wired
func (d Deps) HasPG() bool { return d.PG != nil }

// HasCH reports whether a clickhouse seam is wired
func (d Deps) HasCH() bool { return d.CH != nil }
