package module

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"timejar/internal/adapters/ingest/snapshot"
	"timejar/internal/modkit"
	"timejar/internal/platform/config"
	perr "timejar/internal/platform/errors"
	"timejar/internal/services/export/domain"
)

type staticFetch []byte

func (s staticFetch) Fetch(context.Context) ([]byte, error) { return s, nil }

func TestFromConfig(t *testing.T) {
	t.Setenv("CORE_EXPORT_DIR", "/tmp/snaps")
	t.Setenv("CORE_EXPORT_MAX_TRIES", "2")
	t.Setenv("CORE_EXPORT_GZIP", "true")

	o := FromConfig(config.New())
	require.Equal(t, "/tmp/snaps", o.Dir)
	require.Equal(t, 2, o.MaxTries)
	require.Equal(t, 30, o.WindowDays)
	require.Equal(t, 60*time.Second, o.Timeout)
	require.True(t, o.Gzip)
}

func TestNew_RequiresDirAndKey(t *testing.T) {
	_, err := New(modkit.Deps{Cfg: config.New()})
	require.Equal(t, perr.ErrorCodeValidation, perr.CodeOf(err))

	t.Setenv("CORE_EXPORT_DIR", t.TempDir())
	_, err = New(modkit.Deps{Cfg: config.New()})
	require.Equal(t, perr.ErrorCodeInvalidArgument, perr.CodeOf(err))

	t.Setenv("CORE_EXPORT_KEY", "k")
	m, err := New(modkit.Deps{Cfg: config.New()})
	require.NoError(t, err)
	require.Equal(t, "export", m.Name())
}

func TestNew_InjectedFetcher(t *testing.T) {
	t.Setenv("CORE_EXPORT_DIR", t.TempDir())

	b, err := snapshot.Marshal(snapshot.Fake(3, 1))
	require.NoError(t, err)
	m, err := New(modkit.Deps{Cfg: config.New()}, modkit.WithPorts[domain.Fetcher](staticFetch(b)))
	require.NoError(t, err)

	res, err := m.Ports().(Ports).Exporter.Export(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, res.Rows)
}
