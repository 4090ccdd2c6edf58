// Package dal merges overlapping snapshot exports into one deduplicated,
// chronologically validated stream of rows and decoded entries.
//
// Design choices:
//   - Sources are loaded through a Pool (possibly concurrent) but consumed strictly in
//     source order, so the merge is reproducible regardless of which load finished first.
//   - Dedup and order state belong to a single pass and are owned by the consuming
//     goroutine; load tasks only parse their own file.
//   - Load and order failures are yielded in-band and the pass continues. Decode
//     failures end the pass unless decoding is lenient.
package dal

import (
	"errors"
	"iter"
	"sync/atomic"
	"time"

	"timejar/internal/platform/logger"
)

// LoadFunc reads and parses one snapshot
type LoadFunc func(src Source) (Document, error)

// SourceStats are per-source counters reported after a source's rows were merged.
// They are observability only and never influence the merge
type SourceStats struct {
	Source      Source
	Rows        int
	Unique      int
	Duplicates  int
	OrderErrors int
	// DecodeErrors counts rows whose Date cannot be read; they never move the watermark
	DecodeErrors int
	// GrandTotal is the number of distinct rows emitted so far in the pass
	GrandTotal int
}

// Filtered is the number of rows of the source that were not emitted
func (s SourceStats) Filtered() int { return s.Rows - s.Unique }

// Observer receives per-source counters
type Observer interface {
	SourceDone(SourceStats)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(SourceStats)

// SourceDone implements Observer
func (f ObserverFunc) SourceDone(s SourceStats) { f(s) }

// Option configures a Pipeline
type Option func(*Pipeline)

// WithPool runs loads on p; nil keeps the synchronous default
func WithPool(p Pool) Option {
	return func(pl *Pipeline) {
		if p != nil {
			pl.pool = p
		}
	}
}

// WithLocation sets the zone naive Date values are decoded in
func WithLocation(loc *time.Location) Option {
	return func(pl *Pipeline) { pl.decoder.Location = loc }
}

// WithStrictDecode chooses whether a decode fault ends the pass (true, the default)
// or is yielded as a recoverable KindDecodeError item
func WithStrictDecode(strict bool) Option {
	return func(pl *Pipeline) { pl.strict = strict }
}

// WithObserver receives per-source counters
func WithObserver(o Observer) Option {
	return func(pl *Pipeline) { pl.observer = o }
}

// Pipeline composes loading, dedup, ordering and decoding over a fixed source list
type Pipeline struct {
	sources  []Source
	load     LoadFunc
	pool     Pool
	decoder  Decoder
	strict   bool
	observer Observer
	log      *logger.Logger
}

// New builds a pipeline over sources, which must already be sorted.
// The slice is copied so later changes by the caller do not leak into a pass
func New(sources []Source, load LoadFunc, opts ...Option) *Pipeline {
	p := &Pipeline{
		sources: append([]Source(nil), sources...),
		load:    load,
		pool:    SyncPool{},
		strict:  true,
		log:     logger.Named("dal"),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Sources returns a copy of the source list
func (p *Pipeline) Sources() []Source { return append([]Source(nil), p.sources...) }

// Strict reports the decode fault policy
func (p *Pipeline) Strict() bool { return p.strict }

// state is everything a pass remembers; it never outlives the pass
type state struct {
	dedup *Deduplicator
	order OrderValidator
}

// RawEntries returns a new single-pass sequence of accepted rows, load errors and
// order errors in merged source order. It never stops on those errors.
// A row without a Date that parses with DateLayout is a decode fault: KindFatal
// ending the pass when strict, otherwise a KindDecodeError item.
// Ranging over the returned sequence a second time yields one ErrAlreadyConsumed fatal
func (p *Pipeline) RawEntries() iter.Seq[Result[RawRow]] {
	var used atomic.Bool
	return func(yield func(Result[RawRow]) bool) {
		if !used.CompareAndSwap(false, true) {
			yield(Fail[RawRow](KindFatal, ErrAlreadyConsumed, Source{}))
			return
		}
		p.merge(yield)
	}
}

// Entries maps RawEntries, decoding rows and passing errors through untouched.
// A decode fault in strict mode is yielded once as KindFatal and ends the sequence
func (p *Pipeline) Entries() iter.Seq[Result[Entry]] {
	raw := p.RawEntries()
	return func(yield func(Result[Entry]) bool) {
		for r := range raw {
			row, ok := r.Value()
			if !ok {
				if !yield(retag[Entry](r)) || r.IsFatal() {
					return
				}
				continue
			}
			e, err := p.decoder.Decode(row)
			if err != nil {
				if p.strict {
					yield(Fail[Entry](KindFatal, err, r.Source()))
					return
				}
				if !yield(Fail[Entry](KindDecodeError, err, r.Source())) {
					return
				}
				continue
			}
			if !yield(OK(e, r.Source())) {
				return
			}
		}
	}
}

func (p *Pipeline) merge(yield func(Result[RawRow]) bool) {
	sources := p.sources
	load := p.load

	// submit everything first so a concurrent pool can work ahead of the consumer
	futures := make([]Future, len(sources))
	for i, src := range sources {
		futures[i] = p.pool.Submit(func() (Document, error) { return load(src) })
	}

	st := state{dedup: NewDeduplicator()}
	for i, src := range sources {
		doc, err := futures[i].Wait()
		futures[i] = nil
		if err != nil {
			if !yield(Fail[RawRow](KindLoadError, &LoadError{Source: src, Cause: err}, src)) {
				return
			}
			continue
		}

		stats := SourceStats{Source: src, Rows: len(doc.Rows)}
		for _, values := range doc.Rows {
			id := IdentityOf(values)
			if st.dedup.Seen(id) {
				stats.Duplicates++
				continue
			}
			row := NewRawRow(doc.RowHeaders, values)
			if err := st.order.Check(row); err != nil {
				var de *DecodeError
				if errors.As(err, &de) {
					stats.DecodeErrors++
					if p.strict {
						stats.GrandTotal = st.dedup.Len()
						p.done(stats)
						yield(Fail[RawRow](KindFatal, err, src))
						return
					}
					if !yield(Fail[RawRow](KindDecodeError, err, src)) {
						return
					}
					continue
				}
				stats.OrderErrors++
				if !yield(Fail[RawRow](KindOrderError, err, src)) {
					return
				}
				continue
			}
			st.order.Accept(row)
			st.dedup.Mark(id)
			stats.Unique++
			if !yield(OK(row, src)) {
				return
			}
		}
		stats.GrandTotal = st.dedup.Len()
		p.done(stats)
	}
}

func (p *Pipeline) done(stats SourceStats) {
	p.log.Debug().
		Str("source", stats.Source.Path).
		Int("filtered", stats.Filtered()).
		Int("rows", stats.Rows).
		Int("order_errors", stats.OrderErrors).
		Int("decode_errors", stats.DecodeErrors).
		Int("grand_total", stats.GrandTotal).
		Msg("dal: source merged")
	if p.observer != nil {
		p.observer.SourceDone(stats)
	}
}
