package module

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	perr "timejar/internal/platform/errors"
)

type runner interface{ Run(context.Context) error }

type lister interface{ List() []string }

type svc struct{ names []string }

func (svc) Run(context.Context) error { return nil }
func (s svc) List() []string          { return s.names }

type fakeModule struct {
	name  string
	ports any
}

func (m fakeModule) Name() string { return m.name }
func (m fakeModule) Ports() any   { return m.ports }

func TestLookup_Bundle(t *testing.T) {
	t.Parallel()

	type Ports struct {
		Runner runner
		Lister lister
		Limit  int
	}
	m := fakeModule{name: "merge", ports: Ports{Runner: svc{}, Lister: svc{names: []string{"pg"}}}}

	r, err := Lookup[runner](m)
	require.NoError(t, err)
	require.NoError(t, r.Run(context.Background()))

	l, err := Lookup[lister](m)
	require.NoError(t, err)
	require.Equal(t, []string{"pg"}, l.List())

	// pointer bundles are walked too
	m.ports = &Ports{Lister: svc{names: []string{"ch"}}}
	l, err = Lookup[lister](m)
	require.NoError(t, err)
	require.Equal(t, []string{"ch"}, l.List())
}

func TestLookup_DirectPort(t *testing.T) {
	t.Parallel()

	m := fakeModule{name: "export", ports: svc{names: []string{"x"}}}
	l, err := Lookup[lister](m)
	require.NoError(t, err)
	require.Equal(t, []string{"x"}, l.List())
}

func TestLookup_Missing(t *testing.T) {
	t.Parallel()

	type ports struct {
		runner runner
	}
	cases := map[string]any{
		"nil":        nil,
		"nil ptr":    (*ports)(nil),
		"unexported": ports{runner: svc{}},
		"primitive":  7,
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Lookup[runner](fakeModule{name: "merge", ports: p})
			require.Error(t, err)
			require.Equal(t, perr.ErrorCodeNotFound, perr.CodeOf(err))
			require.Contains(t, err.Error(), "merge")
		})
	}
}

func TestMustLookup(t *testing.T) {
	t.Parallel()

	m := fakeModule{name: "export"}
	require.PanicsWithValue(t, "module export: no ports", func() { MustLookup[runner](m) })

	m.ports = svc{}
	require.NotPanics(t, func() { MustLookup[runner](m) })
}
