package guardrails

import (
	"context"
	"errors"
	"os"
	"strconv"
	"time"

	"timejar/internal/modkit/repokit"
	"timejar/internal/platform/store"
)

// ErrLeaseHeld signals another process is already merging into the same database
var ErrLeaseHeld = errors.New("merge: lease already held")

// Lease runs do while holding the named lease
type Lease func(ctx context.Context, do func(context.Context) error) error

// MakeLease returns a Lease backed by the merge_leases table.
// A lease older than ttl is considered abandoned and can be taken over.
// The lease is released after do returns, whatever its outcome
func MakeLease(db repokit.TxRunner, name string, ttl time.Duration) Lease {
	holder, _ := os.Hostname()
	holder += ":" + strconv.Itoa(os.Getpid())
	return func(ctx context.Context, do func(context.Context) error) error {
		var claimed bool
		err := db.Tx(ctx, func(q store.RowQuerier) error {
			rows, err := q.Query(ctx, `
				insert into merge_leases (name, holder, acquired_at)
				values ($1, $2, now())
				on conflict (name) do update
					set holder = excluded.holder, acquired_at = excluded.acquired_at
					where merge_leases.acquired_at < now() - make_interval(secs => $3)
				returning true
			`, name, holder, ttl.Seconds())
			if err != nil {
				return err
			}
			defer rows.Close()
			claimed = rows.Next()
			return rows.Err()
		})
		if err != nil {
			return err
		}
		if !claimed {
			return ErrLeaseHeld
		}
		defer func() {
			// release with a fresh context so a canceled run still frees the lease
			rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			_, _ = db.Exec(rctx, `delete from merge_leases where name = $1 and holder = $2`, name, holder)
		}()
		return do(ctx)
	}
}
