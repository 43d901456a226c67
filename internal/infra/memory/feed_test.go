package memory_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/cupertitieus-ctrl/notesareboring/internal/app"
	"github.com/cupertitieus-ctrl/notesareboring/internal/infra/memory"
)

func TestBrokerPublishSubscribe(t *testing.T) {
	ctx := context.Background()
	broker := memory.NewBroker()

	got := make(chan app.Event, 4)
	sub, err := broker.Subscribe(ctx, app.TablePlayers, "g1", func(e app.Event) { got <- e })
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Close()

	event := app.Event{
		Table:   app.TablePlayers,
		Kind:    app.ChangeUpdate,
		GameID:  "g1",
		Payload: json.RawMessage(`{"score":950}`),
	}
	if err := broker.Publish(ctx, event); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case e := <-got:
		if e.Kind != app.ChangeUpdate || string(e.Payload) != `{"score":950}` {
			t.Fatalf("unexpected event: %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for event")
	}
}

func TestBrokerScopesByTableAndGame(t *testing.T) {
	ctx := context.Background()
	broker := memory.NewBroker()

	got := make(chan app.Event, 4)
	sub, err := broker.Subscribe(ctx, app.TableGames, "g1", func(e app.Event) { got <- e })
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Close()

	// Same game, different table; same table, different game.
	broker.Publish(ctx, app.Event{Table: app.TablePlayers, Kind: app.ChangeInsert, GameID: "g1"})
	broker.Publish(ctx, app.Event{Table: app.TableGames, Kind: app.ChangeUpdate, GameID: "g2"})
	broker.Publish(ctx, app.Event{Table: app.TableGames, Kind: app.ChangeUpdate, GameID: "g1"})

	select {
	case e := <-got:
		if e.GameID != "g1" || e.Table != app.TableGames {
			t.Fatalf("received out-of-scope event: %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for event")
	}

	select {
	case e := <-got:
		t.Fatalf("received extra event: %+v", e)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBrokerCloseStopsDelivery(t *testing.T) {
	ctx := context.Background()
	broker := memory.NewBroker()

	got := make(chan app.Event, 4)
	sub, err := broker.Subscribe(ctx, app.TableGames, "g1", func(e app.Event) { got <- e })
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if err := sub.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := sub.Close(); err != nil {
		t.Fatalf("double close: %v", err)
	}

	if err := broker.Publish(ctx, app.Event{Table: app.TableGames, Kind: app.ChangeUpdate, GameID: "g1"}); err != nil {
		t.Fatalf("publish after close: %v", err)
	}

	select {
	case e := <-got:
		t.Fatalf("closed subscription still delivered: %+v", e)
	case <-time.After(50 * time.Millisecond):
	}
}
