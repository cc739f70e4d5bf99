package realtime

import (
	"context"
	"sync"
)

const defaultBuffer = 64

// Broker is an in-process Feed. Subscribers that fall behind by more than the
// buffer size are disconnected rather than blocking publishers.
type Broker struct {
	mu     sync.RWMutex
	subs   map[string]map[*memorySub]struct{}
	buffer int
	closed bool
}

func NewBroker(buffer int) *Broker {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Broker{
		subs:   make(map[string]map[*memorySub]struct{}),
		buffer: buffer,
	}
}

type memorySub struct {
	broker *Broker
	topic  string
	ch     chan Event
}

func (s *memorySub) Events() <-chan Event { return s.ch }

func (s *memorySub) Close() error {
	s.broker.remove(s)
	return nil
}

func topicOf(table string, f Filter) string {
	return table + ":" + f.Column + "=" + f.Value
}

func (b *Broker) Subscribe(ctx context.Context, table string, f Filter) (Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}

	sub := &memorySub{broker: b, topic: topicOf(table, f), ch: make(chan Event, b.buffer)}
	if b.subs[sub.topic] == nil {
		b.subs[sub.topic] = make(map[*memorySub]struct{})
	}
	b.subs[sub.topic][sub] = struct{}{}
	return sub, nil
}

func (b *Broker) Publish(ctx context.Context, e Event) error {
	var slow []*memorySub

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrClosed
	}
	for column, value := range e.Keys {
		for sub := range b.subs[topicOf(e.Table, Eq(column, value))] {
			select {
			case sub.ch <- e:
			default:
				slow = append(slow, sub)
			}
		}
	}
	b.mu.RUnlock()

	for _, sub := range slow {
		b.remove(sub)
	}
	return nil
}

// Disconnect drops every subscriber, as a lost connection would.
func (b *Broker) Disconnect() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for topic, subs := range b.subs {
		for sub := range subs {
			close(sub.ch)
		}
		delete(b.subs, topic)
	}
}

// Close disconnects everyone and rejects further use.
func (b *Broker) Close() error {
	b.Disconnect()
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	return nil
}

// Subscribers returns the number of live subscriptions.
func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, subs := range b.subs {
		n += len(subs)
	}
	return n
}

func (b *Broker) remove(sub *memorySub) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs, ok := b.subs[sub.topic]
	if !ok {
		return
	}
	if _, ok := subs[sub]; !ok {
		return
	}
	delete(subs, sub)
	close(sub.ch)
	if len(subs) == 0 {
		delete(b.subs, sub.topic)
	}
}
