package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Xeladesign/shok/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// RedisFeed fans events out over Redis pub/sub so every instance sees every
// change. Each (table, column, value) triple maps to its own channel.
type RedisFeed struct {
	rdb    *redis.Client
	prefix string
	buffer int
}

func NewRedisFeed(rdb *redis.Client, prefix string, buffer int) *RedisFeed {
	if prefix == "" {
		prefix = "feed"
	}
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &RedisFeed{rdb: rdb, prefix: prefix, buffer: buffer}
}

func (f *RedisFeed) channel(table string, filter Filter) string {
	return fmt.Sprintf("%s:%s:%s:%s", f.prefix, table, filter.Column, filter.Value)
}

func (f *RedisFeed) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	for column, value := range e.Keys {
		if err := f.rdb.Publish(ctx, f.channel(e.Table, Eq(column, value)), payload).Err(); err != nil {
			return fmt.Errorf("publish %s event: %w", e.Table, err)
		}
	}
	return nil
}

func (f *RedisFeed) Subscribe(ctx context.Context, table string, filter Filter) (Subscription, error) {
	ps := f.rdb.Subscribe(ctx, f.channel(table, filter))
	// Wait for the confirmation so nothing published after Subscribe returns is missed
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s %s: %w", table, filter, err)
	}

	sub := &redisSub{
		ps:    ps,
		table: table,
		out:   make(chan Event, f.buffer),
		done:  make(chan struct{}),
	}
	go sub.pump()
	return sub, nil
}

type redisSub struct {
	ps    *redis.PubSub
	table string
	out   chan Event
	done  chan struct{}
	once  sync.Once
}

func (s *redisSub) Events() <-chan Event { return s.out }

func (s *redisSub) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.ps.Close()
	})
	return err
}

func (s *redisSub) pump() {
	defer close(s.out)
	for raw := range s.ps.ChannelWithSubscriptions() {
		var e Event
		switch msg := raw.(type) {
		case *redis.Subscription:
			// go-redis resubscribes on its own after a reconnect
			if msg.Kind != "subscribe" {
				continue
			}
			e = Event{Table: s.table, Type: EventResync}
		case *redis.Message:
			if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
				logger.Warn().Err(err).Str("channel", msg.Channel).Msg("Dropping malformed feed payload")
				continue
			}
		default:
			continue
		}
		select {
		case s.out <- e:
		case <-s.done:
			return
		}
	}
}
