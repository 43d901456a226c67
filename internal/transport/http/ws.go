package http

import (
	"log"
	"net/http"
	"strings"

	"github.com/cupertitieus-ctrl/notesareboring/internal/app"
)

const eventBuffer = 32

// handleEventStream upgrades the request and streams change-feed events for
// one game. Query params: gameId (required) and tables (comma-separated,
// default all of games,players,responses). The stream is one-way; the read
// loop exists only to notice the client going away.
func (a *API) handleEventStream(w http.ResponseWriter, r *http.Request) {
	gameID := r.URL.Query().Get("gameId")
	if gameID == "" {
		http.Error(w, "missing gameId", http.StatusBadRequest)
		return
	}
	tables := []string{app.TableGames, app.TablePlayers, app.TableResponses}
	if raw := r.URL.Query().Get("tables"); raw != "" {
		tables = strings.Split(raw, ",")
	}

	send := make(chan app.Event, eventBuffer)
	done := make(chan struct{})

	// Subscribe before the upgrade so no event published after the client
	// sees the handshake response is missed.
	var subs []app.Subscription
	for _, table := range tables {
		var sub app.Subscription
		var err error
		switch table {
		case app.TableGames:
			sub, err = a.games.SubscribeToGame(r.Context(), gameID, forward(send, done))
		case app.TablePlayers:
			sub, err = a.games.SubscribeToPlayers(r.Context(), gameID, forward(send, done))
		case app.TableResponses:
			sub, err = a.games.SubscribeToResponses(r.Context(), gameID, forward(send, done))
		default:
			continue
		}
		if err != nil {
			log.Printf("subscribe %s for game %s: %v", table, gameID, err)
			for _, s := range subs {
				_ = s.Close()
			}
			http.Error(w, "subscribe failed", http.StatusInternalServerError)
			return
		}
		subs = append(subs, sub)
	}
	defer func() {
		for _, s := range subs {
			_ = s.Close()
		}
	}()

	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case e := <-send:
				if err := conn.WriteJSON(e); err != nil {
					log.Printf("ws write error: %v", err)
					return
				}
			case <-done:
				return
			}
		}
	}()

	// Block until the client disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	close(done)
	<-writerDone
}

// forward pushes feed events into the connection's send channel without ever
// blocking the feed's delivery goroutine.
func forward(send chan app.Event, done chan struct{}) func(app.Event) {
	return func(e app.Event) {
		select {
		case send <- e:
		case <-done:
		}
	}
}
