package domain

import (
	"context"

	"timejar/internal/core/dal"
)

// RunnerPort is the public port exposed by the module
type RunnerPort interface {
	// Run merges sources, which must already be sorted, and forwards entries to the sinks
	Run(ctx context.Context, sources []dal.Source) (Summary, error)
}

// Sink receives decoded entries. Implementations must tolerate receiving the same
// entry again on a later run
type Sink interface {
	Name() string
	Write(ctx context.Context, b Batch) (written int, err error)
}

// EntryRepo persists entries in postgres
type EntryRepo interface {
	// InsertEntries inserts entries that are not stored yet and reports how many were new
	InsertEntries(ctx context.Context, b Batch) (inserted int, err error)
}

// LedgerRepo records one row per run in merge_runs
type LedgerRepo interface {
	StartRun(ctx context.Context, r RunStart) error
	FinishRun(ctx context.Context, s Summary) error
	RecentRuns(ctx context.Context, limit int) ([]RunRecord, error)
}

// HistoryPort lists past runs
type HistoryPort interface {
	RecentRuns(ctx context.Context, limit int) ([]RunRecord, error)
}
