package redis

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/cupertitieus-ctrl/notesareboring/internal/app"
)

// Feed is the change feed over Redis pub/sub, one channel per (table, game).
// It works across processes, unlike the in-memory broker.
type Feed struct {
	client *redis.Client
}

func NewFeed(client *redis.Client) *Feed {
	return &Feed{client: client}
}

func (f *Feed) Publish(ctx context.Context, e app.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return f.client.Publish(ctx, feedChannel(e.Table, e.GameID), payload).Err()
}

func (f *Feed) Subscribe(ctx context.Context, table, gameID string, fn func(app.Event)) (app.Subscription, error) {
	ps := f.client.Subscribe(ctx, feedChannel(table, gameID))
	// Wait for the subscription to be confirmed so no event published after
	// Subscribe returns is missed.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}

	go func() {
		for msg := range ps.Channel() {
			var e app.Event
			if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
				log.Printf("decode feed event on %s: %v", msg.Channel, err)
				continue
			}
			fn(e)
		}
	}()
	return feedSubscription{ps: ps}, nil
}

type feedSubscription struct {
	ps *redis.PubSub
}

func (s feedSubscription) Close() error {
	return s.ps.Close()
}

func feedChannel(table, gameID string) string {
	return "feed:" + table + ":" + gameID
}
