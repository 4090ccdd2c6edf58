// Package module provides the merge module implementation
package module

import (
	"context"

	"timejar/internal/adapters/ingest/snapshot"
	"timejar/internal/core/dal"
	"timejar/internal/modkit"
	"timejar/internal/modkit/repokit"
	perr "timejar/internal/platform/errors"
	"timejar/internal/platform/validate"
	"timejar/internal/services/merge/domain"
	"timejar/internal/services/merge/guardrails"
	"timejar/internal/services/merge/repo"
	"timejar/internal/services/merge/service"
)

// leaseName is the merge_leases key shared by every merge process
const leaseName = "merge"

// Ports defines the merge module ports
type Ports struct {
	Runner  domain.RunnerPort
	History domain.HistoryPort
}

// Module implements the merge module
type Module struct {
	deps  modkit.Deps
	opts  Options
	name  string
	sinks []domain.Sink
	ports Ports
}

// New constructs the merge module from CORE_MERGE_* in deps.Cfg.
// A dal.LoadFunc, a repo.Publisher or extra domain.Sink values can be injected
// with modkit.WithPorts; the publisher is required when the kafka sink is on
func New(deps modkit.Deps, opts ...modkit.Option) (*Module, error) {
	o := FromConfig(deps.Cfg)
	if err := validate.Struct(o); err != nil {
		return nil, perr.WithOp(err, "merge options")
	}
	b := modkit.Build(opts...)

	load, ok := modkit.PortOf[dal.LoadFunc](b)
	if !ok {
		load = snapshot.Loader{MaxBytes: o.MaxBytes}.Load
	}

	sinks, err := buildSinks(deps, o, b)
	if err != nil {
		return nil, err
	}

	svc := service.New(load, sinks, service.Config{
		Location:      o.Location,
		StrictDecode:  o.StrictDecode,
		Workers:       o.Workers,
		BatchSize:     o.BatchSize,
		ProgressEvery: o.ProgressEvery,
		SinkRetries:   o.SinkRetries,
		RetryBase:     o.RetryBase,
		Timeouts: guardrails.Timeouts{
			Run:    o.RunTimeout,
			Load:   o.LoadTimeout,
			Sink:   o.SinkTimeout,
			Ledger: o.LedgerTimeout,
		},
	}, service.NewMetrics(deps.Registerer()))

	if deps.HasPG() {
		if o.Ledger {
			svc.WithLedger(deps.PG, repo.NewLedger())
		}
		if o.EnableLeases {
			svc.WithLease(guardrails.MakeLease(deps.PG, leaseName, o.LeaseTTL))
		}
	}

	return &Module{
		deps:  deps,
		opts:  o,
		name:  b.NameOr("merge"),
		sinks: sinks,
		ports: Ports{Runner: svc, History: svc},
	}, nil
}

func buildSinks(deps modkit.Deps, o Options, b modkit.Built) ([]domain.Sink, error) {
	var sinks []domain.Sink
	if o.SinkPG {
		if !deps.HasPG() {
			return nil, perr.InvalidArgf("merge: postgres sink enabled but postgres is not configured")
		}
		sinks = append(sinks, repo.NewPGSink(repokit.WithBeginHooks(deps.PG, repo.TxTuning()...), repo.NewEntries()))
	}
	if o.SinkCH {
		if !deps.HasCH() {
			return nil, perr.InvalidArgf("merge: clickhouse sink enabled but clickhouse is not configured")
		}
		sinks = append(sinks, repo.NewCHSink(deps.CH))
	}
	if o.SinkKafka {
		pub, ok := modkit.PortOf[repo.Publisher](b)
		if !ok {
			return nil, perr.InvalidArgf("merge: kafka sink enabled but no publisher was provided")
		}
		sinks = append(sinks, repo.NewKafkaSink(pub))
	}
	return append(sinks, modkit.PortsOf[domain.Sink](b)...), nil
}

// EnsureSchema creates the tables of every enabled backend when CORE_MERGE_ENSURE_SCHEMA is on
func (m *Module) EnsureSchema(ctx context.Context) error {
	if !m.opts.EnsureSchema {
		return nil
	}
	if m.deps.HasPG() {
		if err := repo.EnsurePG(ctx, m.deps.PG); err != nil {
			return err
		}
	}
	if m.deps.HasCH() && m.opts.SinkCH {
		if err := repo.EnsureCH(ctx, m.deps.CH); err != nil {
			return err
		}
	}
	return nil
}

// Sinks returns the sink names in write order
func (m *Module) Sinks() []string {
	out := make([]string, 0, len(m.sinks))
	for _, s := range m.sinks {
		out = append(out, s.Name())
	}
	return out
}

// Options returns the resolved options
func (m *Module) Options() Options { return m.opts }

// Name returns the module name
func (m *Module) Name() string { return m.name }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }
