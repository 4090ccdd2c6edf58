package guardrails

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"timejar/internal/platform/store/storetest"
)

func TestWithChildTimeout_NeverExtendsParent(t *testing.T) {
	t.Parallel()

	parent, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	ctx, c2 := ForSink(parent, Timeouts{Sink: time.Hour})
	defer c2()
	dl, ok := ctx.Deadline()
	require.True(t, ok)
	require.LessOrEqual(t, time.Until(dl), 50*time.Millisecond)
}

func TestWithChildTimeout_ZeroMeansNoExtraDeadline(t *testing.T) {
	t.Parallel()

	ctx, cancel := WithRun(context.Background(), Timeouts{})
	defer cancel()
	_, ok := ctx.Deadline()
	require.False(t, ok)
	require.Zero(t, Remaining(ctx))

	ctx, cancel = ForLedger(context.Background(), Timeouts{Ledger: time.Minute})
	defer cancel()
	require.Greater(t, Remaining(ctx), 50*time.Second)
}

func TestBound(t *testing.T) {
	t.Parallel()

	v, err := Bound(context.Background(), func() (int, error) { return 7, nil })
	require.NoError(t, err)
	require.Equal(t, 7, v)

	ctx, cancel := ForLoad(context.Background(), Timeouts{Load: 10 * time.Millisecond})
	defer cancel()
	block := make(chan struct{})
	defer close(block)
	_, err = Bound(ctx, func() (int, error) { <-block; return 1, nil })
	require.ErrorIs(t, err, context.DeadlineExceeded)

	done, stop := context.WithCancel(context.Background())
	stop()
	called := false
	_, err = Bound(done, func() (int, error) { called = true; return 0, nil })
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, called)
}

func TestLease_ClaimRunsAndReleases(t *testing.T) {
	t.Parallel()

	db := &storetest.DB{OnQuery: func(sql string, _ []any) ([][]any, error) {
		return [][]any{{true}}, nil
	}}
	lease := MakeLease(db, "merge", time.Hour)

	ran := false
	err := lease(context.Background(), func(context.Context) error { ran = true; return nil })
	require.NoError(t, err)
	require.True(t, ran)

	claims := db.Matching("insert into merge_leases")
	require.Len(t, claims, 1)
	require.True(t, claims[0].InTx)
	require.Equal(t, "merge", claims[0].Args[0])
	require.True(t, strings.Contains(claims[0].Args[1].(string), ":"))
	require.Equal(t, 3600.0, claims[0].Args[2])
	require.Len(t, db.Matching("delete from merge_leases"), 1)
}

func TestLease_HeldSkipsBody(t *testing.T) {
	t.Parallel()

	db := &storetest.DB{}
	lease := MakeLease(db, "merge", time.Hour)

	err := lease(context.Background(), func(context.Context) error {
		t.Fatal("body must not run")
		return nil
	})
	require.ErrorIs(t, err, ErrLeaseHeld)
	require.Empty(t, db.Matching("delete from merge_leases"))
}

func TestLease_ReleasedAfterFailureAndCancel(t *testing.T) {
	t.Parallel()

	db := &storetest.DB{OnQuery: func(string, []any) ([][]any, error) { return [][]any{{true}}, nil }}
	lease := MakeLease(db, "merge", time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	boom := errors.New("boom")
	err := lease(ctx, func(context.Context) error { cancel(); return boom })
	require.ErrorIs(t, err, boom)
	require.Len(t, db.Matching("delete from merge_leases"), 1)
}

func TestLease_ClaimErrorBubbles(t *testing.T) {
	t.Parallel()

	db := &storetest.DB{TxErr: errors.New("pg down")}
	err := MakeLease(db, "merge", time.Minute)(context.Background(), func(context.Context) error { return nil })
	require.EqualError(t, err, "pg down")
}
