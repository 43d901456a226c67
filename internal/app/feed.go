package app

import (
	"context"
	"encoding/json"
	"log"
)

// Tables carried by the change feed.
const (
	TableGames     = "games"
	TablePlayers   = "players"
	TableResponses = "responses"
)

// Change kinds.
const (
	ChangeInsert = "insert"
	ChangeUpdate = "update"
	ChangeDelete = "delete"
)

// Event is one row change scoped to a game, delivered to subscribers.
type Event struct {
	Table   string          `json:"table"`
	Kind    string          `json:"kind"`
	GameID  string          `json:"game_id"`
	Payload json.RawMessage `json:"payload"`
}

// Subscription is a live change-feed registration. Callers must Close it to
// stop delivery; nothing unsubscribes automatically.
type Subscription interface {
	Close() error
}

// ChangeFeed delivers row-change events per (table, game). Delivery order
// across tables is whatever the underlying channel provides.
type ChangeFeed interface {
	Publish(ctx context.Context, e Event) error
	Subscribe(ctx context.Context, table, gameID string, fn func(Event)) (Subscription, error)
}

// publishChange marshals payload and publishes it best-effort: feed failures
// are logged, never returned, so a broken feed cannot fail a write that
// already committed.
func publishChange(ctx context.Context, feed ChangeFeed, table, kind, gameID string, payload any) {
	if feed == nil {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("marshal %s %s event: %v", table, kind, err)
		return
	}
	if err := feed.Publish(ctx, Event{Table: table, Kind: kind, GameID: gameID, Payload: raw}); err != nil {
		log.Printf("publish %s %s event for game %s: %v", table, kind, gameID, err)
	}
}
