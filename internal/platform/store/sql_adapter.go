package store

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	perr "timejar/internal/platform/errors"
	"timejar/internal/platform/store/pg"
)

// pgxQuerier is the statement surface shared by the pool and an open tx
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pgAdapter is the TxRunner behind Store.PG
type pgAdapter struct {
	p *pg.PG
	querier
}

func newPGAdapter(p *pg.PG) *pgAdapter {
	return &pgAdapter{p: p, querier: querier{q: p.Pool, p: p}}
}

func (a *pgAdapter) Ping(ctx context.Context) error {
	if a == nil || a.p == nil || a.p.Pool == nil {
		return perr.Unavailablef("pg: not connected")
	}
	var one int
	return a.QueryRow(ctx, "SELECT 1").Scan(&one)
}

func (a *pgAdapter) Close() error { a.p.Close(); return nil }

// Tx commits when fn returns nil and rolls back otherwise
func (a *pgAdapter) Tx(ctx context.Context, fn func(q RowQuerier) error) error {
	tx, err := a.p.Pool.Begin(ctx)
	if err != nil {
		return classify(ctx, err, "pg: begin")
	}
	return runTx(ctx, tx, querier{q: tx, p: a.p}, fn)
}

type txCloser interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

func runTx(ctx context.Context, tx txCloser, q RowQuerier, fn func(q RowQuerier) error) error {
	if err := fn(q); err != nil {
		// rollback must run even when ctx is what failed fn
		_ = tx.Rollback(context.WithoutCancel(ctx))
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return classify(ctx, err, "pg: commit")
	}
	return nil
}

// querier traces every statement and classifies its errors
type querier struct {
	q pgxQuerier
	p *pg.PG
}

func (x querier) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	start := time.Now()
	ct, err := x.q.Exec(ctx, sql, args...)
	x.emit(ctx, sql, args, start, err)
	if err != nil {
		return nil, classify(ctx, err, "pg: exec")
	}
	return ct, nil
}

func (x querier) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	start := time.Now()
	rs, err := x.q.Query(ctx, sql, args...)
	x.emit(ctx, sql, args, start, err)
	if err != nil {
		return nil, classify(ctx, err, "pg: query")
	}
	return rows{r: rs, ctx: ctx}, nil
}

// QueryRow reports to the tracer once Scan has run, since pgx defers the error until then
func (x querier) QueryRow(ctx context.Context, sql string, args ...any) Row {
	start := time.Now()
	return row{r: x.q.QueryRow(ctx, sql, args...), done: func(err error) error {
		x.emit(ctx, sql, args, start, err)
		if errors.Is(err, pgx.ErrNoRows) {
			return perr.Wrap(err, perr.ErrorCodeNotFound, "pg: no rows")
		}
		return classify(ctx, err, "pg: query row")
	}}
}

func (x querier) emit(ctx context.Context, sql string, args []any, start time.Time, err error) {
	if x.p == nil || x.p.Tracer == nil {
		return
	}
	d := time.Since(start)
	x.p.Tracer.OnQuery(ctx, pg.QueryEvent{SQL: sql, Args: args, Elapsed: d, Err: err, Slow: x.p.IsSlow(d)})
}

// classify gives a driver error a perr code. Context errors pass through untouched;
// connection level failures become Unavailable so sinks retry them
func classify(ctx context.Context, err error, msg string) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return err
	}
	if _, ok := perr.ExtractPgError(err); ok {
		return perr.FromPostgres(err, msg)
	}
	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, msg)
	}
	var ce *pgconn.ConnectError
	var ne net.Error
	if errors.As(err, &ce) || errors.As(err, &ne) {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, msg)
	}
	return perr.Wrap(err, perr.ErrorCodeDB, msg)
}

type row struct {
	r    pgx.Row
	done func(error) error
}

func (x row) Scan(dst ...any) error { return x.done(x.r.Scan(dst...)) }

type rows struct {
	r   pgx.Rows
	ctx context.Context
}

func (x rows) Next() bool            { return x.r.Next() }
func (x rows) Scan(dst ...any) error { return classify(x.ctx, x.r.Scan(dst...), "pg: scan") }
func (x rows) Err() error            { return classify(x.ctx, x.r.Err(), "pg: rows") }
func (x rows) Close()                { x.r.Close() }
func (x rows) Columns() []string {
	f := x.r.FieldDescriptions()
	out := make([]string, len(f))
	for i := range f {
		out[i] = f[i].Name
	}
	return out
}
