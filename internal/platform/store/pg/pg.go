// Package pg opens the pgxpool behind the store's sql seam
package pg

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	perr "timejar/internal/platform/errors"
)

// Config configures the pool
type Config struct {
	URL      string
	MaxConns int32

	// Slow marks queries at or above this latency; <0 disables slow marking
	Slow time.Duration

	// AppName is reported as application_name unless the URL already sets one
	AppName string
}

// PG owns the pool and the tracer every statement reports to
type PG struct {
	Pool   *pgxpool.Pool
	Tracer QueryTracer
	Slow   time.Duration
}

var newPool = pgxpool.NewWithConfig

// Open parses cfg and builds the pool. It does not dial; callers ping.
// mut, when set, sees the parsed pool config last
func Open(ctx context.Context, cfg Config, tracer QueryTracer, mut func(*pgxpool.Config)) (*PG, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		// the parse error echoes the URL, password included
		return nil, perr.New(perr.ErrorCodeInvalidArgument, "pg: unparsable SERVICE_PGSQL_URL")
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	if cfg.AppName != "" {
		rp := pcfg.ConnConfig.RuntimeParams
		if rp == nil {
			rp = map[string]string{}
			pcfg.ConnConfig.RuntimeParams = rp
		}
		if _, set := rp["application_name"]; !set {
			rp["application_name"] = cfg.AppName
		}
	}
	if mut != nil {
		mut(pcfg)
	}
	pool, err := newPool(ctx, pcfg)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "pg: create pool")
	}
	return &PG{Pool: pool, Tracer: tracer, Slow: cfg.Slow}, nil
}

// IsSlow reports whether a query that took d should be flagged
func (p *PG) IsSlow(d time.Duration) bool {
	return p != nil && p.Slow >= 0 && d >= p.Slow
}

// Close closes the pool; safe on nil
func (p *PG) Close() {
	if p != nil && p.Pool != nil {
		p.Pool.Close()
	}
}
