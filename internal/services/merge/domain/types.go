// Package domain holds the types and ports of the merge service
package domain

import (
	"time"

	"timejar/internal/core/dal"
)

// Batch is a run of decoded entries that all came from the same snapshot
type Batch struct {
	RunID   string
	Source  dal.Source
	Entries []dal.Entry
}

// Len returns the number of entries in the batch
func (b Batch) Len() int { return len(b.Entries) }

// Summary counts what one merge run saw
type Summary struct {
	RunID   string
	Sources int

	Entries      int
	LoadErrors   int
	OrderErrors  int
	DecodeErrors int

	// Duplicates is the number of rows dropped because an identical row was already emitted
	Duplicates int

	// Written counts entries accepted per sink name
	Written map[string]int

	Fatal   error
	Started time.Time
	Elapsed time.Duration
}

// Recoverable is the number of in-band errors that did not stop the run
func (s Summary) Recoverable() int { return s.LoadErrors + s.OrderErrors + s.DecodeErrors }

// Status is the ledger status of the run
func (s Summary) Status() string {
	switch {
	case s.Fatal != nil:
		return StatusFailed
	case s.Recoverable() > 0:
		return StatusPartial
	}
	return StatusOK
}

// Run ledger statuses
const (
	StatusRunning = "running"
	StatusOK      = "ok"
	StatusPartial = "partial"
	StatusFailed  = "failed"
)

// RunStart is what the ledger records when a run begins
type RunStart struct {
	RunID   string
	Sources int
	First   string
	Last    string
	Strict  bool
	Started time.Time
}

// RunRecord is one row of the merge_runs ledger
type RunRecord struct {
	RunID        string
	Status       string
	Sources      int
	Entries      int
	LoadErrors   int
	OrderErrors  int
	DecodeErrors int
	Duplicates   int
	Started      time.Time
	Finished     *time.Time
	ErrText      string
}
