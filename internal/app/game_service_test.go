package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/cupertitieus-ctrl/notesareboring/internal/app"
	"github.com/cupertitieus-ctrl/notesareboring/internal/domain"
	"github.com/cupertitieus-ctrl/notesareboring/internal/infra/memory"
)

func newGameFixture(t *testing.T, plan string) (*app.GameService, *memory.Store, domain.QuizPack) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	if err := store.CreateAccount(ctx, domain.Account{ID: "teacher-1", Email: "t@school.test", Plan: plan}); err != nil {
		t.Fatalf("seed account: %v", err)
	}
	pack := domain.QuizPack{ID: "pack-1", TeacherID: "teacher-1", Title: "Fractions", CreatedAt: time.Now()}
	if err := store.CreatePack(ctx, pack, nil); err != nil {
		t.Fatalf("seed pack: %v", err)
	}
	return app.NewGameService(store, store, store, memory.NewBroker()), store, pack
}

func TestCreateGamePlanCaps(t *testing.T) {
	ctx := context.Background()

	service, _, pack := newGameFixture(t, domain.PlanFree)
	game, err := service.CreateGame(ctx, "teacher-1", pack.ID)
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	if game.MaxPlayers != 25 {
		t.Fatalf("free plan max players = %d, want 25", game.MaxPlayers)
	}
	if game.Status != domain.StatusLobby {
		t.Fatalf("new game status = %s, want lobby", game.Status)
	}
	if len(game.Code) != 6 {
		t.Fatalf("game code %q, want 6 characters", game.Code)
	}

	paidService, _, paidPack := newGameFixture(t, domain.PlanPaid)
	paidGame, err := paidService.CreateGame(ctx, "teacher-1", paidPack.ID)
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	if paidGame.MaxPlayers != 50 {
		t.Fatalf("paid plan max players = %d, want 50", paidGame.MaxPlayers)
	}
}

func TestCreateGameBumpsGamesPlayed(t *testing.T) {
	ctx := context.Background()
	service, store, pack := newGameFixture(t, domain.PlanFree)

	if _, err := service.CreateGame(ctx, "teacher-1", pack.ID); err != nil {
		t.Fatalf("create game: %v", err)
	}

	// The counter bump is fire-and-forget; poll briefly.
	deadline := time.Now().Add(2 * time.Second)
	for {
		got, err := store.PackByID(ctx, pack.ID)
		if err != nil {
			t.Fatalf("get pack: %v", err)
		}
		if got.GamesPlayed == 1 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("games_played = %d, want 1", got.GamesPlayed)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestFindByCodeHidesFinishedGames(t *testing.T) {
	ctx := context.Background()
	service, _, pack := newGameFixture(t, domain.PlanFree)

	game, err := service.CreateGame(ctx, "teacher-1", pack.ID)
	if err != nil {
		t.Fatalf("create game: %v", err)
	}

	if _, err := service.FindByCode(ctx, game.Code); err != nil {
		t.Fatalf("find lobby game by code: %v", err)
	}

	if _, err := service.Start(ctx, game.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := service.FindByCode(ctx, game.Code); err != nil {
		t.Fatalf("find in_progress game by code: %v", err)
	}

	if _, err := service.Finish(ctx, game.ID); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if _, err := service.FindByCode(ctx, game.Code); err != domain.ErrGameNotFound {
		t.Fatalf("finished game should be invisible by code, got %v", err)
	}
}

func TestGameLifecycleOnlyMovesForward(t *testing.T) {
	ctx := context.Background()
	service, _, pack := newGameFixture(t, domain.PlanFree)

	game, err := service.CreateGame(ctx, "teacher-1", pack.ID)
	if err != nil {
		t.Fatalf("create game: %v", err)
	}

	// Finishing a lobby game is disallowed.
	if _, err := service.Finish(ctx, game.ID); err != domain.ErrInvalidTransition {
		t.Fatalf("finish on lobby: got %v, want ErrInvalidTransition", err)
	}
	// Advancing a lobby game is disallowed too.
	if _, err := service.NextQuestion(ctx, game.ID, 0); err != domain.ErrInvalidTransition {
		t.Fatalf("next question on lobby: got %v, want ErrInvalidTransition", err)
	}

	started, err := service.Start(ctx, game.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if started.Status != domain.StatusInProgress {
		t.Fatalf("status = %s, want in_progress", started.Status)
	}
	if started.StartedAt == nil || started.CurrentQuestionStartedAt == nil {
		t.Fatalf("start did not stamp timestamps: %+v", started)
	}

	// Double start loses the CAS.
	if _, err := service.Start(ctx, game.ID); err != domain.ErrInvalidTransition {
		t.Fatalf("double start: got %v, want ErrInvalidTransition", err)
	}

	advanced, err := service.NextQuestion(ctx, game.ID, 3)
	if err != nil {
		t.Fatalf("next question: %v", err)
	}
	if advanced.CurrentQuestionIndex != 3 {
		t.Fatalf("question index = %d, want 3", advanced.CurrentQuestionIndex)
	}
	if advanced.CurrentQuestionStartedAt == nil {
		t.Fatalf("advance did not reset question timer")
	}

	finished, err := service.Finish(ctx, game.ID)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if finished.Status != domain.StatusFinished || finished.FinishedAt == nil {
		t.Fatalf("finish did not stamp terminal state: %+v", finished)
	}

	// Finished is terminal.
	if _, err := service.Start(ctx, game.ID); err != domain.ErrInvalidTransition {
		t.Fatalf("start after finish: got %v, want ErrInvalidTransition", err)
	}
	if _, err := service.NextQuestion(ctx, game.ID, 4); err != domain.ErrInvalidTransition {
		t.Fatalf("advance after finish: got %v, want ErrInvalidTransition", err)
	}
	if _, err := service.Finish(ctx, game.ID); err != domain.ErrInvalidTransition {
		t.Fatalf("double finish: got %v, want ErrInvalidTransition", err)
	}
}

func TestSubscribeToGameReceivesLifecycleEvents(t *testing.T) {
	ctx := context.Background()
	service, _, pack := newGameFixture(t, domain.PlanFree)

	game, err := service.CreateGame(ctx, "teacher-1", pack.ID)
	if err != nil {
		t.Fatalf("create game: %v", err)
	}

	events := make(chan app.Event, 8)
	sub, err := service.SubscribeToGame(ctx, game.ID, func(e app.Event) { events <- e })
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Close()

	if _, err := service.Start(ctx, game.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	select {
	case e := <-events:
		if e.Table != app.TableGames || e.Kind != app.ChangeUpdate || e.GameID != game.ID {
			t.Fatalf("unexpected event: %+v", e)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no game event delivered")
	}
}

func TestCreateGameUnknownPack(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newGameFixture(t, domain.PlanFree)

	if _, err := service.CreateGame(ctx, "teacher-1", "missing-pack"); err != domain.ErrPackNotFound {
		t.Fatalf("expected ErrPackNotFound, got %v", err)
	}
}
