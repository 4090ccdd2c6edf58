// Package storetest provides an in memory store.TxRunner for repo and service tests
package storetest

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"

	perr "timejar/internal/platform/errors"
	"timejar/internal/platform/store"
)

// Call is one statement seen by DB
type Call struct {
	Kind string // exec, query, queryrow
	SQL  string
	Args []any
	InTx bool
}

// DB is an in memory store.TxRunner that records statements and serves scripted rows.
// OnQuery and OnExec see the raw sql; match on a distinctive fragment
type DB struct {
	mu    sync.Mutex
	calls []Call
	txs   int

	// OnQuery returns the rows for Query and QueryRow; nil yields no rows
	OnQuery func(sql string, args []any) ([][]any, error)

	// OnExec returns rows affected; nil reports one row
	OnExec func(sql string, args []any) (int64, error)

	// TxErr fails every Tx before fn runs
	TxErr error
}

// Calls returns a copy of the recorded statements
func (d *DB) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Call(nil), d.calls...)
}

// Matching returns the recorded statements whose sql contains frag
func (d *DB) Matching(frag string) []Call {
	var out []Call
	for _, c := range d.Calls() {
		if strings.Contains(c.SQL, frag) {
			out = append(out, c)
		}
	}
	return out
}

// Txs reports how many transactions were opened
func (d *DB) Txs() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.txs
}

// Tx implements store.TxRunner
func (d *DB) Tx(ctx context.Context, fn func(q store.RowQuerier) error) error {
	d.mu.Lock()
	d.txs++
	err := d.TxErr
	d.mu.Unlock()
	if err != nil {
		return err
	}
	return fn(txView{d})
}

// Exec implements store.RowQuerier
func (d *DB) Exec(ctx context.Context, sql string, args ...any) (store.CommandTag, error) {
	return d.exec(sql, args, false)
}

// Query implements store.RowQuerier
func (d *DB) Query(ctx context.Context, sql string, args ...any) (store.Rows, error) {
	return d.query("query", sql, args, false)
}

// QueryRow implements store.RowQuerier
func (d *DB) QueryRow(ctx context.Context, sql string, args ...any) store.Row {
	return d.queryRow(sql, args, false)
}

func (d *DB) record(kind, sql string, args []any, inTx bool) {
	d.mu.Lock()
	d.calls = append(d.calls, Call{Kind: kind, SQL: sql, Args: append([]any(nil), args...), InTx: inTx})
	d.mu.Unlock()
}

func (d *DB) exec(sql string, args []any, inTx bool) (store.CommandTag, error) {
	d.record("exec", sql, args, inTx)
	n := int64(1)
	if d.OnExec != nil {
		var err error
		if n, err = d.OnExec(sql, args); err != nil {
			return nil, err
		}
	}
	return Tag(n), nil
}

func (d *DB) query(kind, sql string, args []any, inTx bool) (*Rows, error) {
	d.record(kind, sql, args, inTx)
	if d.OnQuery == nil {
		return &Rows{}, nil
	}
	data, err := d.OnQuery(sql, args)
	if err != nil {
		return nil, err
	}
	return &Rows{Data: data}, nil
}

func (d *DB) queryRow(sql string, args []any, inTx bool) store.Row {
	rows, err := d.query("queryrow", sql, args, inTx)
	return &row{rows: rows, err: err}
}

// txView marks statements issued inside Tx
type txView struct{ d *DB }

func (t txView) Exec(ctx context.Context, sql string, args ...any) (store.CommandTag, error) {
	return t.d.exec(sql, args, true)
}

func (t txView) Query(ctx context.Context, sql string, args ...any) (store.Rows, error) {
	return t.d.query("query", sql, args, true)
}

func (t txView) QueryRow(ctx context.Context, sql string, args ...any) store.Row {
	return t.d.queryRow(sql, args, true)
}

// Tag is a CommandTag carrying only an affected count
type Tag int64

func (t Tag) String() string      { return fmt.Sprintf("FAKE %d", int64(t)) }
func (t Tag) RowsAffected() int64 { return int64(t) }

// Rows serves Data one row at a time
type Rows struct {
	Data   [][]any
	idx    int
	Closed bool
}

func (r *Rows) Next() bool {
	if r.idx >= len(r.Data) {
		return false
	}
	r.idx++
	return true
}

func (r *Rows) Scan(dest ...any) error {
	if r.idx == 0 || r.idx > len(r.Data) {
		return fmt.Errorf("storetest: scan without row")
	}
	return scanInto(r.Data[r.idx-1], dest)
}

func (r *Rows) Err() error        { return nil }
func (r *Rows) Close()            { r.Closed = true }
func (r *Rows) Columns() []string { return nil }

type row struct {
	rows *Rows
	err  error
}

func (r *row) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if !r.rows.Next() {
		return perr.ErrNotFound
	}
	return r.rows.Scan(dest...)
}

// scanInto assigns vals to dest pointers, converting numeric kinds and
// allocating for pointer destinations such as **time.Time
func scanInto(vals []any, dest []any) error {
	if len(vals) != len(dest) {
		return fmt.Errorf("storetest: %d values for %d destinations", len(vals), len(dest))
	}
	for i, v := range vals {
		dv := reflect.ValueOf(dest[i])
		if dv.Kind() != reflect.Pointer || dv.IsNil() {
			return fmt.Errorf("storetest: destination %d is not a pointer", i)
		}
		el := dv.Elem()
		if v == nil {
			el.Set(reflect.Zero(el.Type()))
			continue
		}
		sv := reflect.ValueOf(v)
		switch {
		case sv.Type().AssignableTo(el.Type()):
			el.Set(sv)
		case el.Kind() == reflect.Pointer && sv.Type().AssignableTo(el.Type().Elem()):
			p := reflect.New(el.Type().Elem())
			p.Elem().Set(sv)
			el.Set(p)
		case sv.Type().ConvertibleTo(el.Type()):
			el.Set(sv.Convert(el.Type()))
		default:
			return fmt.Errorf("storetest: cannot scan %T into %s", v, el.Type())
		}
	}
	return nil
}
