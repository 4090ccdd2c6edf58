// Package domain holds the types and ports of the export service
package domain

import (
	"context"
	"time"
)

// Result describes one stored snapshot
type Result struct {
	Path  string
	Bytes int
	Rows  int
	Took  time.Duration
}

// ExporterPort is the public port exposed by the module
type ExporterPort interface {
	// Export fetches the current export and stores it as a new snapshot
	Export(ctx context.Context) (Result, error)
}

// Fetcher returns one raw JSON export body
type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}
