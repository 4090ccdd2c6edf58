package dal

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Task loads one snapshot
type Task func() (Document, error)

// Future is a submitted Task; Wait blocks until it completed or failed
type Future interface {
	Wait() (Document, error)
}

// Pool runs load tasks. The pipeline submits every source up front and then
// waits on the futures strictly in source order
type Pool interface {
	Submit(t Task) Future
}

// SyncPool runs each task in the caller's goroutine the first time Wait is called
type SyncPool struct{}

// Submit implements Pool
func (SyncPool) Submit(t Task) Future { return &lazyFuture{task: t} }

type lazyFuture struct {
	once sync.Once
	task Task
	doc  Document
	err  error
}

func (f *lazyFuture) Wait() (Document, error) {
	f.once.Do(func() {
		f.doc, f.err = run(f.task)
		f.task = nil
	})
	return f.doc, f.err
}

// BoundedPool runs at most n tasks at once, each in its own goroutine.
// It has no deadline of its own: a stuck task stalls whoever waits on it
type BoundedPool struct {
	sem *semaphore.Weighted
	n   int
}

// NewBoundedPool returns a pool of size n; n <= 0 means 1
func NewBoundedPool(n int) *BoundedPool {
	n = max(n, 1)
	return &BoundedPool{sem: semaphore.NewWeighted(int64(n)), n: n}
}

// Size returns the concurrency limit
func (p *BoundedPool) Size() int { return p.n }

// Submit implements Pool
func (p *BoundedPool) Submit(t Task) Future {
	f := &chanFuture{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		// background never cancels, so Acquire only returns once a slot frees up
		_ = p.sem.Acquire(context.Background(), 1)
		defer p.sem.Release(1)
		f.doc, f.err = run(t)
	}()
	return f
}

type chanFuture struct {
	done chan struct{}
	doc  Document
	err  error
}

func (f *chanFuture) Wait() (Document, error) {
	<-f.done
	return f.doc, f.err
}

// run turns a panicking task into an ordinary load failure
func run(t Task) (doc Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc, err = Document{}, fmt.Errorf("load panicked: %v", r)
		}
	}()
	return t()
}
