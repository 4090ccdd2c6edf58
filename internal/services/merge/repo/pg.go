// Package repo provides the merge service storage: postgres entries and run ledger,
// plus the clickhouse and kafka sinks
package repo

import (
	"context"
	"encoding/json"
	"time"

	"timejar/internal/modkit/repokit"
	perr "timejar/internal/platform/errors"
	"timejar/internal/platform/store"
	"timejar/internal/services/merge/domain"
)

// queries implements both postgres repos over one Queryer
type queries struct{ q repokit.Queryer }

// NewEntries returns a Postgres binder for domain.EntryRepo
func NewEntries() repokit.Binder[domain.EntryRepo] {
	return repokit.BindFunc[domain.EntryRepo](func(q repokit.Queryer) domain.EntryRepo { return &queries{q: q} })
}

// NewLedger returns a Postgres binder for domain.LedgerRepo
func NewLedger() repokit.Binder[domain.LedgerRepo] {
	return repokit.BindFunc[domain.LedgerRepo](func(q repokit.Queryer) domain.LedgerRepo { return &queries{q: q} })
}

const insertEntriesSQL = `
	WITH ins AS (
		INSERT INTO activity_entries (dt, duration_s, activity, source, run_id)
		SELECT t.dt, t.duration_s, t.activity, $4, $5::uuid
		FROM UNNEST($1::timestamptz[], $2::bigint[], $3::text[]) AS t(dt, duration_s, activity)
		ON CONFLICT (dt, activity, duration_s) DO NOTHING
		RETURNING 1
	)
	SELECT count(*) FROM ins
`

// InsertEntries inserts the batch in one statement; rows already stored are skipped
func (r *queries) InsertEntries(ctx context.Context, b domain.Batch) (int, error) {
	if b.Len() == 0 {
		return 0, nil
	}
	dts := make([]time.Time, 0, b.Len())
	durs := make([]int64, 0, b.Len())
	acts := make([]string, 0, b.Len())
	for _, e := range b.Entries {
		dts = append(dts, e.DT)
		durs = append(durs, e.DurationS)
		acts = append(acts, e.Activity)
	}
	n, err := store.Scalar[int64](ctx, r.q, insertEntriesSQL, dts, durs, acts, b.Source.Path, b.RunID)
	if err != nil {
		return 0, perr.FromPostgres(err, "merge: insert entries from "+b.Source.Path)
	}
	return int(n), nil
}

// StartRun records a running row for the run
func (r *queries) StartRun(ctx context.Context, s domain.RunStart) error {
	err := store.ExecOne(ctx, r.q, `
		INSERT INTO merge_runs (run_id, status, sources, first_source, last_source, strict_decode, started_at)
		VALUES ($1::uuid, $2, $3, NULLIF($4,''), NULLIF($5,''), $6, $7)
	`, s.RunID, domain.StatusRunning, s.Sources, s.First, s.Last, s.Strict, s.Started.UTC())
	if perr.IsDuplicateKey(err) {
		return perr.Wrapf(err, perr.ErrorCodeDuplicateKey, "merge: run %s already recorded", s.RunID)
	}
	return perr.FromPostgres(err, "merge: start run")
}

// FinishRun stores the final counters and status of the run
func (r *queries) FinishRun(ctx context.Context, s domain.Summary) error {
	written, err := json.Marshal(nonNil(s.Written))
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeJSON, "merge: encode written counters")
	}
	var errText string
	if s.Fatal != nil {
		errText = s.Fatal.Error()
	}
	err = store.ExecOne(ctx, r.q, `
		UPDATE merge_runs SET
			status = $2,
			entries = $3,
			load_errors = $4,
			order_errors = $5,
			decode_errors = $6,
			duplicates = $7,
			written = $8::jsonb,
			finished_at = now(),
			elapsed_ms = $9,
			error = NULLIF($10,'')
		WHERE run_id = $1::uuid
	`,
		s.RunID, s.Status(), s.Entries, s.LoadErrors, s.OrderErrors, s.DecodeErrors,
		s.Duplicates, string(written), s.Elapsed.Milliseconds(), errText,
	)
	return perr.FromPostgres(err, "merge: finish run")
}

// RecentRuns lists the newest runs first
func (r *queries) RecentRuns(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	out, err := store.Many(ctx, r.q, scanRun, `
		SELECT run_id::text, status, sources, entries, load_errors, order_errors,
			decode_errors, duplicates, started_at, finished_at, COALESCE(error, '')
		FROM merge_runs
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	return out, perr.FromPostgres(err, "merge: recent runs")
}

func scanRun(row store.Row) (domain.RunRecord, error) {
	var rr domain.RunRecord
	err := row.Scan(&rr.RunID, &rr.Status, &rr.Sources, &rr.Entries, &rr.LoadErrors,
		&rr.OrderErrors, &rr.DecodeErrors, &rr.Duplicates, &rr.Started, &rr.Finished, &rr.ErrText)
	return rr, err
}

func nonNil(m map[string]int) map[string]int {
	if m == nil {
		return map[string]int{}
	}
	return m
}
