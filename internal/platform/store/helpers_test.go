package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	perr "timejar/internal/platform/errors"
	"timejar/internal/platform/store"
	"timejar/internal/platform/store/storetest"
)

func TestExecOne(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		affected int64
		execErr  error
		ok       bool
		code     perr.ErrorCode
	}{
		{name: "one row", affected: 1, ok: true},
		{name: "no row", affected: 0, code: perr.ErrorCodeNotFound},
		{name: "many rows", affected: 3, code: perr.ErrorCodeDB},
		{name: "exec fails", execErr: perr.Unavailablef("conn reset"), code: perr.ErrorCodeUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			db := &storetest.DB{OnExec: func(string, []any) (int64, error) { return tc.affected, tc.execErr }}

			err := store.ExecOne(context.Background(), db, "UPDATE merge_runs SET status = $1 WHERE run_id = $2", "ok", "r1")
			if tc.ok {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				require.Equal(t, tc.code, perr.CodeOf(err))
			}

			calls := db.Matching("merge_runs")
			require.Len(t, calls, 1)
			require.Equal(t, []any{"ok", "r1"}, calls[0].Args)
		})
	}
}

func TestScalar(t *testing.T) {
	t.Parallel()

	db := &storetest.DB{OnQuery: func(sql string, _ []any) ([][]any, error) {
		return [][]any{{int32(7)}}, nil
	}}
	n, err := store.Scalar[int64](context.Background(), db, "SELECT count(*) FROM entries")
	require.NoError(t, err)
	require.EqualValues(t, 7, n)

	empty := &storetest.DB{}
	n, err = store.Scalar[int64](context.Background(), empty, "SELECT count(*) FROM entries")
	require.ErrorIs(t, err, perr.ErrNotFound)
	require.Zero(t, n)
}

func TestMany(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2020, 1, 1, 10, 0, 0, 0, time.UTC)
	db := &storetest.DB{OnQuery: func(string, []any) ([][]any, error) {
		return [][]any{
			{t0, "coding"},
			{t0.Add(time.Minute), "email"},
		}, nil
	}}
	type row struct {
		DT       time.Time
		Activity string
	}
	scan := func(r store.Row) (row, error) {
		var out row
		return out, r.Scan(&out.DT, &out.Activity)
	}

	got, err := store.Many(context.Background(), db, scan, "SELECT dt, activity FROM entries")
	require.NoError(t, err)
	require.Equal(t, []row{{t0, "coding"}, {t0.Add(time.Minute), "email"}}, got)

	none, err := store.Many(context.Background(), &storetest.DB{}, scan, "SELECT dt, activity FROM entries")
	require.NoError(t, err)
	require.Nil(t, none)
}

func TestMany_Errors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	db := &storetest.DB{OnQuery: func(string, []any) ([][]any, error) { return nil, boom }}
	_, err := store.Many(context.Background(), db, func(store.Row) (int, error) { return 0, nil }, "SELECT 1")
	require.ErrorIs(t, err, boom)

	db = &storetest.DB{OnQuery: func(string, []any) ([][]any, error) { return [][]any{{1}, {2}}, nil }}
	calls := 0
	_, err = store.Many(context.Background(), db, func(store.Row) (int, error) {
		calls++
		return 0, boom
	}, "SELECT 1")
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, calls)
}
