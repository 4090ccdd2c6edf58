package service

import (
	"timejar/internal/core/dal"
	"timejar/internal/services/merge/domain"
)

// batcher groups consecutive entries of one source and hands full batches to flushFn.
// A source change always flushes so every batch carries a single source
type batcher struct {
	runID   string
	size    int
	cur     domain.Batch
	flushFn func(domain.Batch) error
}

func newBatcher(runID string, size int, flush func(domain.Batch) error) *batcher {
	if size <= 0 {
		size = defaultBatchSize
	}
	return &batcher{runID: runID, size: size, flushFn: flush}
}

func (b *batcher) add(src dal.Source, e dal.Entry) error {
	if b.cur.Len() > 0 && b.cur.Source != src {
		if err := b.flush(); err != nil {
			return err
		}
	}
	if b.cur.Len() == 0 {
		b.cur = domain.Batch{RunID: b.runID, Source: src, Entries: make([]dal.Entry, 0, b.size)}
	}
	b.cur.Entries = append(b.cur.Entries, e)
	if b.cur.Len() >= b.size {
		return b.flush()
	}
	return nil
}

func (b *batcher) flush() error {
	if b.cur.Len() == 0 {
		return nil
	}
	out := b.cur
	b.cur = domain.Batch{}
	return b.flushFn(out)
}
