package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/Xeladesign/shok/pkg/logger"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// WatchOptions configures reconnection of a Watch.
type WatchOptions struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxAttempts     uint64
	// OnResync runs after the subscription was re-established. Events may have
	// been missed in between, so it should re-fetch whatever state it mirrors.
	OnResync func(ctx context.Context)
}

func (o WatchOptions) backoff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if o.InitialInterval > 0 {
		b.InitialInterval = o.InitialInterval
	}
	if o.MaxInterval > 0 {
		b.MaxInterval = o.MaxInterval
	}
	b.MaxElapsedTime = 0
	attempts := o.MaxAttempts
	if attempts == 0 {
		attempts = 8
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, attempts), ctx)
}

// Watch keeps one live subscription open until Close, reconnecting with
// bounded backoff when the feed drops it. Handler calls are serialized.
type Watch struct {
	feed   Feed
	table  string
	filter Filter
	handle func(Event)
	opts   WatchOptions
	log    zerolog.Logger

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once

	mu  sync.Mutex
	err error
}

// StartWatch subscribes synchronously and returns once the subscription is live.
// The watch lives until Close or until parent is cancelled.
func StartWatch(parent context.Context, feed Feed, table string, f Filter, handle func(Event), opts WatchOptions) (*Watch, error) {
	ctx, cancel := context.WithCancel(parent)
	sub, err := feed.Subscribe(ctx, table, f)
	if err != nil {
		cancel()
		return nil, err
	}

	w := &Watch{
		feed:   feed,
		table:  table,
		filter: f,
		handle: handle,
		opts:   opts,
		log:    logger.Component("watch").With().Str("table", table).Str("filter", f.String()).Logger(),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go w.run(ctx, sub)
	return w, nil
}

// Close stops the watch and waits for the handler goroutine to exit.
// It must not be called from inside the handler.
func (w *Watch) Close() {
	w.once.Do(w.cancel)
	<-w.done
}

// Done is closed when the watch has stopped for good.
func (w *Watch) Done() <-chan struct{} { return w.done }

// Err reports why the watch gave up, nil if it was closed normally.
func (w *Watch) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

func (w *Watch) run(ctx context.Context, sub Subscription) {
	defer close(w.done)
	for {
		w.pump(ctx, sub)
		_ = sub.Close()
		if ctx.Err() != nil {
			return
		}

		w.log.Warn().Msg("Subscription lost, reconnecting")
		next, err := w.resubscribe(ctx)
		if err != nil {
			if ctx.Err() == nil {
				w.log.Error().Err(err).Msg("Giving up on subscription")
				w.mu.Lock()
				w.err = err
				w.mu.Unlock()
			}
			return
		}
		sub = next
		w.log.Info().Msg("Subscription restored")
		w.resync(ctx)
	}
}

func (w *Watch) pump(ctx context.Context, sub Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-sub.Events():
			if !ok {
				return
			}
			if e.Type == EventResync {
				w.resync(ctx)
				continue
			}
			w.handle(e)
		}
	}
}

func (w *Watch) resubscribe(ctx context.Context) (Subscription, error) {
	var sub Subscription
	op := func() error {
		s, err := w.feed.Subscribe(ctx, w.table, w.filter)
		if err != nil {
			return err
		}
		sub = s
		return nil
	}
	notify := func(err error, wait time.Duration) {
		w.log.Warn().Err(err).Dur("retry_in", wait).Msg("Resubscribe failed")
	}
	if err := backoff.RetryNotify(op, w.opts.backoff(ctx), notify); err != nil {
		return nil, err
	}
	return sub, nil
}

func (w *Watch) resync(ctx context.Context) {
	if w.opts.OnResync != nil {
		w.opts.OnResync(ctx)
	}
}
