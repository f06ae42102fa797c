// Package livequery turns a store query into a stream of decoded snapshots
// delivered to a callback until the subscription is cancelled.
package livequery

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"skillswap-backend/internal/store"

	"github.com/rs/zerolog/log"
)

// Transform decodes one raw snapshot. It may enrich the results with further
// reads and runs before the callback sees them.
type Transform[T any] func(ctx context.Context, docs []store.Document) (T, error)

// Options configures a subscription.
type Options struct {
	// OnError receives the error that ended the subscription. A cancelled
	// subscription ends silently.
	OnError func(error)
}

// Subscription is a running live query.
type Subscription struct {
	cancel context.CancelFunc
	stream store.Stream
	done   chan struct{}

	stopped    atomic.Bool
	delivering sync.Mutex
	inDelivery atomic.Bool
	once       sync.Once
}

// Subscribe opens q on st and delivers every snapshot, after transform, to
// onUpdate. The first snapshot holds the current result set; later ones
// replace it entirely.
func Subscribe[T any](ctx context.Context, st store.Store, q store.Query, transform Transform[T], onUpdate func(T), opts Options) (*Subscription, error) {
	subCtx, cancel := context.WithCancel(ctx)
	stream, err := st.Subscribe(subCtx, q)
	if err != nil {
		cancel()
		return nil, err
	}

	s := &Subscription{
		cancel: cancel,
		stream: stream,
		done:   make(chan struct{}),
	}
	go s.run(subCtx, q.Collection, func(ctx context.Context, docs []store.Document) func() {
		value, err := transform(ctx, docs)
		if err != nil {
			s.fail(opts, err)
			return nil
		}
		return func() { onUpdate(value) }
	}, opts)
	return s, nil
}

func (s *Subscription) run(ctx context.Context, collection string, prepare func(context.Context, []store.Document) func(), opts Options) {
	defer close(s.done)
	defer s.cancel()
	defer s.stream.Close()

	for {
		docs, err := s.stream.Next(ctx)
		if err != nil {
			if !s.stopped.Load() && !errors.Is(err, context.Canceled) {
				log.Warn().Err(err).Str("collection", collection).Msg("Live query ended")
				s.fail(opts, err)
			}
			return
		}
		if s.stopped.Load() {
			return
		}

		deliver := prepare(ctx, docs)
		if deliver == nil {
			return
		}
		if !s.deliver(deliver) {
			return
		}
	}
}

// deliver runs fn unless the subscription was stopped first.
func (s *Subscription) deliver(fn func()) bool {
	s.delivering.Lock()
	defer s.delivering.Unlock()
	if s.stopped.Load() {
		return false
	}

	s.inDelivery.Store(true)
	defer s.inDelivery.Store(false)
	fn()
	return !s.stopped.Load()
}

func (s *Subscription) fail(opts Options, err error) {
	if s.stopped.Load() {
		return
	}
	s.stopped.Store(true)
	if opts.OnError != nil {
		opts.OnError(err)
	}
}

// Unsubscribe stops the subscription. It may be called any number of times,
// from any goroutine, including from inside the update callback. Once it
// returns no further snapshot is handed to the callback.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.stopped.Store(true)
		s.cancel()
		s.stream.Close()
	})

	// a delivery that passed its stopped check but has not started the
	// callback yet is waited out; a running callback may finish, which also
	// keeps a call from inside the callback from blocking on itself
	if !s.inDelivery.Load() {
		s.delivering.Lock()
		s.stopped.Store(true)
		s.delivering.Unlock()
	}
}

// Done is closed when the subscription's goroutine has exited.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}
