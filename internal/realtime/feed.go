package realtime

import (
	"context"
	"errors"
)

var ErrClosed = errors.New("realtime: feed closed")

// Publisher pushes committed changes to subscribers.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Subscription delivers matching events until closed. The events channel is
// closed when the subscription ends, whether by Close or by a lost transport.
type Subscription interface {
	Events() <-chan Event
	Close() error
}

// Feed is the live change feed of the relational store.
type Feed interface {
	Publisher
	Subscribe(ctx context.Context, table string, f Filter) (Subscription, error)
}

// PublishRecord is a convenience for repositories. A nil publisher is a no-op.
func PublishRecord(ctx context.Context, pub Publisher, typ EventType, rec Record) error {
	if pub == nil {
		return nil
	}
	e, err := NewEvent(typ, rec)
	if err != nil {
		return err
	}
	return pub.Publish(ctx, e)
}
