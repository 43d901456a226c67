package app

import (
	"context"
	"crypto/rand"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/cupertitieus-ctrl/notesareboring/internal/domain"
)

// Player caps by plan tier. Policy constants, not derived from any payment
// state check.
const (
	MaxPlayersFree = 25
	MaxPlayersPaid = 50
)

const counterTimeout = 5 * time.Second

// codeAlphabet omits ambiguous characters so codes survive being read off a
// projector.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const codeLength = 6

// NewGameCode returns a random human-enterable join code.
func NewGameCode() string {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		panic(err) // crypto/rand failure means the process is unusable
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf)
}

// GameService runs the live game lifecycle.
type GameService struct {
	games    GameStore
	packs    PackStore
	accounts AccountSource
	feed     ChangeFeed
	now      func() time.Time
	newID    func() string
	newCode  func() string
}

func NewGameService(games GameStore, packs PackStore, accounts AccountSource, feed ChangeFeed) *GameService {
	return &GameService{
		games:    games,
		packs:    packs,
		accounts: accounts,
		feed:     feed,
		now:      time.Now,
		newID:    uuid.NewString,
		newCode:  NewGameCode,
	}
}

// CreateGame opens a lobby for the given pack. The teacher's plan tier sets
// the player cap. The pack's games_played counter is bumped fire-and-forget:
// a failed increment is logged, never surfaced.
func (s *GameService) CreateGame(ctx context.Context, teacherID, packID string) (domain.Game, error) {
	account, err := s.accounts.AccountByID(ctx, teacherID)
	if err != nil {
		return domain.Game{}, err
	}
	if _, err := s.packs.PackByID(ctx, packID); err != nil {
		return domain.Game{}, err
	}

	maxPlayers := MaxPlayersFree
	if account.Plan == domain.PlanPaid {
		maxPlayers = MaxPlayersPaid
	}

	game := domain.Game{
		ID:         s.newID(),
		QuizPackID: packID,
		TeacherID:  teacherID,
		Code:       s.newCode(),
		Status:     domain.StatusLobby,
		MaxPlayers: maxPlayers,
		CreatedAt:  s.now(),
	}
	if err := s.games.CreateGame(ctx, game); err != nil {
		return domain.Game{}, err
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), counterTimeout)
		defer cancel()
		if err := s.packs.IncrementGamesPlayed(ctx, packID); err != nil {
			log.Printf("increment games played for pack %s: %v", packID, err)
		}
	}()

	publishChange(ctx, s.feed, TableGames, ChangeInsert, game.ID, game)
	return game, nil
}

// FindByCode resolves a join code. Finished games are invisible here.
func (s *GameService) FindByCode(ctx context.Context, code string) (domain.Game, error) {
	return s.games.GameByCode(ctx, code)
}

// Start moves a lobby game to in_progress, stamping started_at and the first
// question timer.
func (s *GameService) Start(ctx context.Context, gameID string) (domain.Game, error) {
	game, err := s.games.StartGame(ctx, gameID, s.now())
	if err != nil {
		return domain.Game{}, err
	}
	publishChange(ctx, s.feed, TableGames, ChangeUpdate, game.ID, game)
	return game, nil
}

// NextQuestion advances an in_progress game to the caller-supplied index and
// resets the question timer. Index bounds are the caller's responsibility.
func (s *GameService) NextQuestion(ctx context.Context, gameID string, questionIndex int) (domain.Game, error) {
	game, err := s.games.AdvanceGame(ctx, gameID, questionIndex, s.now())
	if err != nil {
		return domain.Game{}, err
	}
	publishChange(ctx, s.feed, TableGames, ChangeUpdate, game.ID, game)
	return game, nil
}

// Finish ends an in_progress game. Finished is terminal.
func (s *GameService) Finish(ctx context.Context, gameID string) (domain.Game, error) {
	game, err := s.games.FinishGame(ctx, gameID, s.now())
	if err != nil {
		return domain.Game{}, err
	}
	publishChange(ctx, s.feed, TableGames, ChangeUpdate, game.ID, game)
	return game, nil
}

// SubscribeToGame streams changes to the game row itself.
func (s *GameService) SubscribeToGame(ctx context.Context, gameID string, fn func(Event)) (Subscription, error) {
	return s.feed.Subscribe(ctx, TableGames, gameID, fn)
}

// SubscribeToPlayers streams player joins and score updates.
func (s *GameService) SubscribeToPlayers(ctx context.Context, gameID string, fn func(Event)) (Subscription, error) {
	return s.feed.Subscribe(ctx, TablePlayers, gameID, fn)
}

// SubscribeToResponses streams incoming answers.
func (s *GameService) SubscribeToResponses(ctx context.Context, gameID string, fn func(Event)) (Subscription, error) {
	return s.feed.Subscribe(ctx, TableResponses, gameID, fn)
}
