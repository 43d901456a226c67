package memory

import (
	"context"
	"sync"

	"github.com/cupertitieus-ctrl/notesareboring/internal/app"
)

const subscriberBuffer = 16

// Broker is an in-process change feed. Each subscriber gets a buffered
// channel drained by its own goroutine; when the buffer is full the oldest
// event is dropped so a slow callback cannot block publishers.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[*subscription]struct{}
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[string]map[*subscription]struct{})}
}

type subscription struct {
	broker *Broker
	key    string
	ch     chan app.Event
	once   sync.Once
}

func (s *subscription) Close() error {
	s.once.Do(func() {
		s.broker.mu.Lock()
		if set, ok := s.broker.subs[s.key]; ok {
			delete(set, s)
			if len(set) == 0 {
				delete(s.broker.subs, s.key)
			}
		}
		close(s.ch)
		s.broker.mu.Unlock()
	})
	return nil
}

func (b *Broker) Publish(_ context.Context, e app.Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subs[feedKey(e.Table, e.GameID)] {
		select {
		case sub.ch <- e:
		default:
			select {
			case <-sub.ch:
			default:
			}
			sub.ch <- e
		}
	}
	return nil
}

func (b *Broker) Subscribe(_ context.Context, table, gameID string, fn func(app.Event)) (app.Subscription, error) {
	sub := &subscription{
		broker: b,
		key:    feedKey(table, gameID),
		ch:     make(chan app.Event, subscriberBuffer),
	}

	b.mu.Lock()
	set, ok := b.subs[sub.key]
	if !ok {
		set = make(map[*subscription]struct{})
		b.subs[sub.key] = set
	}
	set[sub] = struct{}{}
	b.mu.Unlock()

	go func() {
		for e := range sub.ch {
			fn(e)
		}
	}()
	return sub, nil
}

func feedKey(table, gameID string) string {
	return table + ":" + gameID
}
