// Package module provides the export module implementation
package module

import (
	"timejar/internal/adapters/ingest/rescuetime"
	"timejar/internal/modkit"
	perr "timejar/internal/platform/errors"
	"timejar/internal/platform/validate"
	"timejar/internal/services/export/domain"
	"timejar/internal/services/export/service"
)

// Ports defines the export module ports
type Ports struct {
	Exporter domain.ExporterPort
}

// Module implements the export module
type Module struct {
	opts  Options
	name  string
	ports Ports
}

// New constructs the export module from CORE_EXPORT_* in deps.Cfg.
// A domain.Fetcher injected with modkit.WithPorts replaces the RescueTime client
func New(deps modkit.Deps, opts ...modkit.Option) (*Module, error) {
	o := FromConfig(deps.Cfg)
	b := modkit.Build(opts...)

	if err := validate.Struct(o); err != nil {
		return nil, perr.WithOp(err, "export options")
	}
	fetch, injected := modkit.PortOf[domain.Fetcher](b)
	if !injected {
		if o.Key == "" {
			return nil, perr.WithField(perr.InvalidArgf("export: CORE_EXPORT_KEY is required"), "key")
		}
		fetch = rescuetime.NewClient(rescuetime.Options{
			BaseURL:    o.BaseURL,
			Timeout:    o.Timeout,
			Key:        o.Key,
			MaxTries:   o.MaxTries,
			RetryBase:  o.RetryBase,
			WindowDays: o.WindowDays,
		})
	}

	svc := service.New(fetch, service.Config{Dir: o.Dir, Gzip: o.Gzip})
	return &Module{opts: o, name: b.NameOr("export"), ports: Ports{Exporter: svc}}, nil
}

// Options returns the resolved options
func (m *Module) Options() Options { return m.opts }

// Name returns the module name
func (m *Module) Name() string { return m.name }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }
