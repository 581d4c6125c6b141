// Package realtimetest provides an in-memory realtime.Source for tests.
package realtimetest

import (
	"context"
	"errors"
	"sync"

	"muzmates/internal/infrastructure/realtime"
)

var ErrStopped = errors.New("realtimetest: stream stopped")

type event[T any] struct {
	items []T
	err   error
}

// Feed is a controllable source. Pushed snapshots and failures are queued and consumed
// by whichever stream is open, so tests never race the subscriber's Open.
type Feed[T any] struct {
	events chan event[T]

	mu      sync.Mutex
	opens   int
	open    int
	openErr []error
}

func NewFeed[T any]() *Feed[T] {
	return &Feed[T]{events: make(chan event[T], 64)}
}

// Push queues a complete snapshot.
func (f *Feed[T]) Push(items ...T) {
	if items == nil {
		items = []T{}
	}
	f.events <- event[T]{items: items}
}

// Fail queues a stream error. The subscriber is expected to reopen.
func (f *Feed[T]) Fail(err error) {
	f.events <- event[T]{err: err}
}

// FailNextOpen makes the next Open call return err.
func (f *Feed[T]) FailNextOpen(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.openErr = append(f.openErr, err)
}

// Opens reports how many times the source was opened successfully.
func (f *Feed[T]) Opens() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opens
}

// Active reports how many streams are currently open.
func (f *Feed[T]) Active() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

func (f *Feed[T]) Open(ctx context.Context) (realtime.Stream[T], error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.openErr) > 0 {
		err := f.openErr[0]
		f.openErr = f.openErr[1:]
		return nil, err
	}

	f.opens++
	f.open++
	return &stream[T]{feed: f, ctx: ctx, stop: make(chan struct{})}, nil
}

type stream[T any] struct {
	feed *Feed[T]
	ctx  context.Context
	stop chan struct{}
	once sync.Once
}

func (s *stream[T]) Next() ([]T, error) {
	select {
	case ev := <-s.feed.events:
		return ev.items, ev.err
	case <-s.stop:
		return nil, ErrStopped
	case <-s.ctx.Done():
		return nil, s.ctx.Err()
	}
}

func (s *stream[T]) Stop() {
	s.once.Do(func() {
		close(s.stop)
		s.feed.mu.Lock()
		s.feed.open--
		s.feed.mu.Unlock()
	})
}
