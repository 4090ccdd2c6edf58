package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"timejar/internal/adapters/ingest/snapshot"
	"timejar/internal/core/dal"
	perr "timejar/internal/platform/errors"
)

type fetchFunc func(ctx context.Context) ([]byte, error)

func (f fetchFunc) Fetch(ctx context.Context) ([]byte, error) { return f(ctx) }

func body(t *testing.T) []byte {
	t.Helper()
	b, err := snapshot.Marshal(snapshot.Fake(12, 4))
	require.NoError(t, err)
	return b
}

func fixed(s *Service) *Service {
	s.now = func() time.Time { return time.Date(2024, 3, 31, 15, 4, 5, 0, time.UTC) }
	return s
}

func TestExport_StoresBodyAsNewSnapshot(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	b := body(t)
	s := fixed(New(fetchFunc(func(context.Context) ([]byte, error) { return b, nil }), Config{Dir: dir}))

	res, err := s.Export(context.Background())
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "rescuetime_20240331T150405.json"), res.Path)
	require.Equal(t, 12, res.Rows)
	require.Equal(t, len(b), res.Bytes)

	stored, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	require.Equal(t, b, stored)

	doc, err := snapshot.Load(dal.Source{Path: res.Path})
	require.NoError(t, err)
	require.Len(t, doc.Rows, 12)
}

func TestExport_GzipRoundTrips(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	b := body(t)
	s := fixed(New(fetchFunc(func(context.Context) ([]byte, error) { return b, nil }), Config{Dir: dir, Gzip: true}))

	res, err := s.Export(context.Background())
	require.NoError(t, err)
	require.Equal(t, ".gz", filepath.Ext(res.Path))

	srcs, err := snapshot.Discover(dir)
	require.NoError(t, err)
	require.Len(t, srcs, 1)
	doc, err := snapshot.Load(srcs[0])
	require.NoError(t, err)
	require.Len(t, doc.Rows, 12)
}

func TestExport_NeverOverwrites(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	b := body(t)
	s := fixed(New(fetchFunc(func(context.Context) ([]byte, error) { return b, nil }), Config{Dir: dir}))

	_, err := s.Export(context.Background())
	require.NoError(t, err)
	_, err = s.Export(context.Background())
	require.Equal(t, perr.ErrorCodeExport, perr.CodeOf(err))
	require.ErrorIs(t, err, os.ErrExist)
}

func TestExport_RejectsNonSnapshotBody(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := fixed(New(fetchFunc(func(context.Context) ([]byte, error) { return []byte(`{"error":"bad key"}`), nil }), Config{Dir: dir}))

	_, err := s.Export(context.Background())
	require.Equal(t, perr.ErrorCodeExport, perr.CodeOf(err))
	entries, _ := os.ReadDir(dir)
	require.Empty(t, entries)
}

func TestExport_FetchErrorKeepsCode(t *testing.T) {
	t.Parallel()

	s := New(fetchFunc(func(context.Context) ([]byte, error) { return nil, perr.Unavailablef("down") }), Config{Dir: t.TempDir()})
	_, err := s.Export(context.Background())
	require.Equal(t, perr.ErrorCodeUnavailable, perr.CodeOf(err))
}

func TestNew_PanicsWithoutFetcher(t *testing.T) {
	t.Parallel()

	require.Panics(t, func() { New(nil, Config{}) })
}
