package repo

import (
	"context"
	_ "embed"

	"timejar/internal/modkit/repokit"
	perr "timejar/internal/platform/errors"
	"timejar/internal/platform/store"
)

var (
	//go:embed schema_pg.sql
	pgSchema string

	//go:embed schema_ch.sql
	chSchema string
)

// EnsurePG creates the postgres tables when missing
func EnsurePG(ctx context.Context, db repokit.TxRunner) error {
	return db.Tx(ctx, func(q repokit.Queryer) error {
		if _, err := q.Exec(ctx, pgSchema); err != nil {
			return perr.FromPostgres(err, "merge: ensure pg schema")
		}
		return nil
	})
}

// EnsureCH creates the clickhouse table when missing
func EnsureCH(ctx context.Context, ch store.Clickhouse) error {
	if err := ch.Exec(ctx, chSchema); err != nil {
		return perr.Wrap(err, perr.ErrorCodeDB, "merge: ensure ch schema")
	}
	return nil
}
