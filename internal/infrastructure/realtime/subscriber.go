package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"muzmates/pkg/logger"
)

// Stream yields complete snapshots of a watched collection, query or document.
// Next blocks until the next snapshot is available.
type Stream[T any] interface {
	Next() ([]T, error)
	Stop()
}

// Source opens a live watch. Every Open starts a fresh watch on the backend.
type Source[T any] interface {
	Open(ctx context.Context) (Stream[T], error)
}

type SourceFunc[T any] func(ctx context.Context) (Stream[T], error)

func (f SourceFunc[T]) Open(ctx context.Context) (Stream[T], error) {
	return f(ctx)
}

// Subscription is the teardown handle of a running watch.
type Subscription struct {
	name   string
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

type options struct {
	newBackOff func() backoff.BackOff
}

type Option func(*options)

// WithBackOff overrides the reconnect policy.
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(o *options) {
		o.newBackOff = newBackOff
	}
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0
	return b
}

// Subscribe watches source until the returned subscription is stopped or ctx ends.
// deliver receives the full snapshot on every change. Stream failures go to onError
// and the watch is reopened after a backoff.
func Subscribe[T any](ctx context.Context, name string, source Source[T], deliver func([]T), onError func(error), opts ...Option) *Subscription {
	o := options{newBackOff: defaultBackOff}
	for _, opt := range opts {
		opt(&o)
	}

	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		name:   name,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go watch(ctx, sub, source, deliver, onError, o.newBackOff())

	return sub
}

// Stop cancels the watch and waits for it to exit. It is safe to call more than once,
// but must not be called from inside the deliver or onError callbacks.
func (s *Subscription) Stop() {
	s.once.Do(func() {
		s.cancel()
		logger.Debug("Subscription %s stopped", s.name)
	})
	<-s.done
}

// Done is closed once the watch goroutine has exited.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription) Name() string {
	return s.name
}

func watch[T any](ctx context.Context, sub *Subscription, source Source[T], deliver func([]T), onError func(error), b backoff.BackOff) {
	defer close(sub.done)

	b.Reset()
	for {
		stream, err := source.Open(ctx)
		if err == nil {
			err = pump(ctx, stream, deliver, b)
			stream.Stop()
		}

		if ctx.Err() != nil {
			return
		}

		logger.Warn("Subscription %s failed: %v", sub.name, err)
		if onError != nil {
			onError(err)
		}

		wait := b.NextBackOff()
		if wait == backoff.Stop {
			logger.Error("Subscription %s gave up reconnecting", sub.name)
			return
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func pump[T any](ctx context.Context, stream Stream[T], deliver func([]T), b backoff.BackOff) error {
	for {
		items, err := stream.Next()
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		deliver(items)
		b.Reset()
	}
}
