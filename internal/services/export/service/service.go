// Package service provides the export service implementation
package service

import (
	"bytes"
	"context"
	"path/filepath"
	"time"

	"timejar/internal/adapters/ingest/snapshot"
	"timejar/internal/core/dal"
	perr "timejar/internal/platform/errors"
	"timejar/internal/platform/logger"
	"timejar/internal/platform/validate"
	"timejar/internal/services/export/domain"
)

// Config holds configuration options for the export service
type Config struct {
	// Dir receives the snapshots
	Dir string

	// Gzip stores rescuetime_<ts>.json.gz instead of plain json
	Gzip bool
}

// Service implements domain.ExporterPort
type Service struct {
	fetch domain.Fetcher
	cfg   Config
	now   func() time.Time
}

// New constructs the export service
func New(f domain.Fetcher, cfg Config) *Service {
	if f == nil {
		panic("export.Service requires a non nil Fetcher")
	}
	return &Service{fetch: f, cfg: cfg, now: time.Now}
}

// Export implements domain.ExporterPort. The body is checked to be a snapshot
// document before it is stored byte for byte; an existing file is never replaced
func (s *Service) Export(ctx context.Context) (domain.Result, error) {
	log := logger.C(ctx)
	start := s.now()

	body, err := s.fetch.Fetch(ctx)
	if err != nil {
		return domain.Result{}, perr.WithOp(err, "export fetch")
	}

	doc, err := validate.DecodeJSON[dal.Document](bytes.NewReader(body), validate.SnapshotJSON)
	if err != nil {
		return domain.Result{}, perr.Wrap(err, perr.ErrorCodeExport, "export: body is not a snapshot document")
	}

	name := snapshot.Name(start)
	if s.cfg.Gzip {
		name += ".gz"
	}
	path := filepath.Join(s.cfg.Dir, name)
	if err := snapshot.WriteFile(path, body); err != nil {
		return domain.Result{}, perr.Wrapf(err, perr.ErrorCodeExport, "export: write %s", path)
	}

	res := domain.Result{Path: path, Bytes: len(body), Rows: len(doc.Rows), Took: s.now().Sub(start)}
	log.Info().
		Str("path", res.Path).
		Int("bytes", res.Bytes).
		Int("rows", res.Rows).
		Dur("took", res.Took).
		Msg("export: snapshot stored")
	return res, nil
}
