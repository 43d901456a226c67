package app

import (
	"context"
	"time"

	"github.com/cupertitieus-ctrl/notesareboring/internal/domain"
)

// PackStore persists quiz packs and their questions.
type PackStore interface {
	// CreatePack inserts the pack and all of its questions atomically.
	CreatePack(ctx context.Context, pack domain.QuizPack, questions []domain.Question) error
	PacksByTeacher(ctx context.Context, teacherID string) ([]domain.QuizPack, error)
	PackByID(ctx context.Context, packID string) (domain.QuizPack, error)
	// QuestionsByPack returns the pack's questions ordered by sort_order.
	QuestionsByPack(ctx context.Context, packID string) ([]domain.Question, error)
	DeletePack(ctx context.Context, packID string) error
	// IncrementGamesPlayed is a named atomic counter bump.
	IncrementGamesPlayed(ctx context.Context, packID string) error
}

// QuestionSource resolves a single question for answer checking. A caching
// layer may return a lightweight question carrying only the correct answer
// and time limit.
type QuestionSource interface {
	Question(ctx context.Context, questionID string) (domain.Question, error)
}

// GameStore persists games. Status transitions are compare-and-set: each
// method succeeds only from the expected prior status and returns
// domain.ErrInvalidTransition otherwise.
type GameStore interface {
	CreateGame(ctx context.Context, g domain.Game) error
	GameByID(ctx context.Context, gameID string) (domain.Game, error)
	// GameByCode matches only games in lobby or in_progress; finished games
	// are not joinable by code.
	GameByCode(ctx context.Context, code string) (domain.Game, error)
	StartGame(ctx context.Context, gameID string, now time.Time) (domain.Game, error)
	AdvanceGame(ctx context.Context, gameID string, questionIndex int, now time.Time) (domain.Game, error)
	FinishGame(ctx context.Context, gameID string, now time.Time) (domain.Game, error)
	IncrementPlayerCount(ctx context.Context, gameID string) error
}

// PlayerStore persists players and their answer events.
type PlayerStore interface {
	CreatePlayer(ctx context.Context, p domain.Player) error
	// RecordAnswer runs score inside the store's atomic boundary: the player
	// row is read, mutated by score, written back, and the returned response
	// is appended, all as one operation. Concurrent submissions for the same
	// player cannot lose updates.
	RecordAnswer(ctx context.Context, playerID string, score func(p *domain.Player) domain.Response) (domain.Player, domain.Response, error)
	// PlayersByGame returns players ordered by score descending.
	PlayersByGame(ctx context.Context, gameID string) ([]domain.Player, error)
}

// AccountSource looks up accounts for plan-tier decisions.
type AccountSource interface {
	AccountByID(ctx context.Context, accountID string) (domain.Account, error)
}
