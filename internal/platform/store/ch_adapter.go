package store

import (
	"context"

	perr "timejar/internal/platform/errors"
	"timejar/internal/platform/store/ch"
)

// newCHAdapter exposes *ch.CH as the store.Clickhouse seam
func newCHAdapter(c *ch.CH) Clickhouse { return &clickhouseAdapter{inner: c} }

type clickhouseAdapter struct {
	inner *ch.CH
}

var _ Clickhouse = (*clickhouseAdapter)(nil)

// Insert takes [][]any rows in table column order.
// Driver failures are Unavailable so sinks retry them
func (a *clickhouseAdapter) Insert(ctx context.Context, table string, data any) error {
	rows, ok := data.([][]any)
	if !ok {
		return perr.InvalidArgf("ch: insert into %s wants [][]any, got %T", table, data)
	}
	if err := a.inner.Insert(ctx, table, rows); err != nil {
		return chErr(ctx, err, "ch: insert into "+table)
	}
	return nil
}

func (a *clickhouseAdapter) Exec(ctx context.Context, sql string, args ...any) error {
	if err := a.inner.Exec(ctx, sql, args...); err != nil {
		return chErr(ctx, err, "ch: exec")
	}
	return nil
}

func (a *clickhouseAdapter) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	r, err := a.inner.Query(ctx, sql, args...)
	if err != nil {
		return nil, chErr(ctx, err, "ch: query")
	}
	return &rowsAdapter{r: r}, nil
}

func (a *clickhouseAdapter) Close() error { return a.inner.Close() }

// Ping verifies connectivity with ClickHouse
func (a *clickhouseAdapter) Ping(ctx context.Context) error {
	if a == nil || a.inner == nil {
		return perr.Unavailablef("ch: not configured")
	}
	if err := a.inner.Ping(ctx); err != nil {
		return chErr(ctx, err, "ch: ping")
	}
	return nil
}

// chErr passes context errors through untouched and marks the rest retryable
func chErr(ctx context.Context, err error, msg string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return perr.Wrap(err, perr.ErrorCodeUnavailable, msg)
}

type rowsAdapter struct {
	r ch.Rows
}

func (r *rowsAdapter) Next() bool             { return r.r.Next() }
func (r *rowsAdapter) Scan(dest ...any) error { return r.r.Scan(dest...) }
func (r *rowsAdapter) Err() error             { return r.r.Err() }
func (r *rowsAdapter) Close()                 { _ = r.r.Close() }
func (r *rowsAdapter) Columns() []string      { return r.r.Columns() }
