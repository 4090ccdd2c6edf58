package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"timejar/internal/core/dal"
	"timejar/internal/modkit/repokit"
	perr "timejar/internal/platform/errors"
	"timejar/internal/platform/store"
	"timejar/internal/services/merge/domain"
)

// Sink names, also used as metric labels and ledger keys
const (
	SinkPG    = "postgres"
	SinkCH    = "clickhouse"
	SinkKafka = "kafka"
)

// PGSink writes batches to activity_entries, one transaction per batch
type PGSink struct {
	db     repokit.TxRunner
	binder repokit.Binder[domain.EntryRepo]
}

// NewPGSink builds the postgres sink
func NewPGSink(db repokit.TxRunner, binder repokit.Binder[domain.EntryRepo]) *PGSink {
	return &PGSink{db: db, binder: binder}
}

// Name implements domain.Sink
func (*PGSink) Name() string { return SinkPG }

// Write implements domain.Sink; written counts only rows that were new
func (s *PGSink) Write(ctx context.Context, b domain.Batch) (int, error) {
	var n int
	err := repokit.InTx(ctx, s.db, s.binder, func(r domain.EntryRepo) error {
		ins, err := r.InsertEntries(ctx, b)
		n = ins
		return err
	})
	return n, err
}

// chColumns is the insert column list of the clickhouse table
const chColumns = "activity_entries (dt, duration_s, activity, source, run_id)"

// CHSink appends batches to the clickhouse activity_entries table
type CHSink struct {
	ch store.Clickhouse
}

// NewCHSink builds the clickhouse sink
func NewCHSink(ch store.Clickhouse) *CHSink { return &CHSink{ch: ch} }

// Name implements domain.Sink
func (*CHSink) Name() string { return SinkCH }

// Write implements domain.Sink. Reruns append again; the ReplacingMergeTree
// engine collapses them on merge
func (s *CHSink) Write(ctx context.Context, b domain.Batch) (int, error) {
	if b.Len() == 0 {
		return 0, nil
	}
	runID, err := uuid.Parse(b.RunID)
	if err != nil {
		return 0, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "clickhouse: bad run id %q", b.RunID)
	}
	rows := make([][]any, 0, b.Len())
	for _, e := range b.Entries {
		rows = append(rows, []any{e.DT, e.DurationS, e.Activity, b.Source.Path, runID})
	}
	if err := s.ch.Insert(ctx, chColumns, rows); err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, perr.Wrapf(err, perr.ErrorCodeUnavailable, "clickhouse: insert %d rows", len(rows))
	}
	return len(rows), nil
}

// Publisher is the kafka publishing surface the sink needs
type Publisher interface {
	Publish(ctx context.Context, runID, source string, es []dal.Entry) error
	Topic() string
}

// KafkaSink forwards batches to a kafka topic
type KafkaSink struct {
	pub Publisher
}

// NewKafkaSink builds the kafka sink
func NewKafkaSink(p Publisher) *KafkaSink { return &KafkaSink{pub: p} }

// Name implements domain.Sink
func (*KafkaSink) Name() string { return SinkKafka }

// Write implements domain.Sink
func (s *KafkaSink) Write(ctx context.Context, b domain.Batch) (int, error) {
	if err := s.pub.Publish(ctx, b.RunID, b.Source.Path, b.Entries); err != nil {
		return 0, err
	}
	return b.Len(), nil
}

const (
	statementTimeout = 30 * time.Second
	lockTimeout      = 5 * time.Second
)

// TxTuning returns the begin hooks used for merge transactions.
// A lock wait that times out is retried by the sink backoff
func TxTuning() []repokit.BeginHook {
	return []repokit.BeginHook{
		repokit.StatementTimeout(statementTimeout),
		repokit.LockTimeout(lockTimeout),
	}
}
