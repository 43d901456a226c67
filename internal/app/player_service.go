package app

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/cupertitieus-ctrl/notesareboring/internal/domain"
)

// SubmitResult is the outcome of one answer submission. TotalAwarded is
// points plus streak bonus.
type SubmitResult struct {
	Response     domain.Response `json:"response"`
	TotalAwarded int             `json:"total_awarded"`
}

// PlayerService handles student participation: joining, answering, standings.
type PlayerService struct {
	players   PlayerStore
	games     GameStore
	questions QuestionSource
	feed      ChangeFeed
	now       func() time.Time
	newID     func() string
}

func NewPlayerService(players PlayerStore, games GameStore, questions QuestionSource, feed ChangeFeed) *PlayerService {
	return &PlayerService{
		players:   players,
		games:     games,
		questions: questions,
		feed:      feed,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Join adds a player to a game. Nicknames are not unique within a game. The
// game's player counter is bumped fire-and-forget.
func (s *PlayerService) Join(ctx context.Context, gameID, nickname string) (domain.Player, error) {
	if _, err := s.games.GameByID(ctx, gameID); err != nil {
		return domain.Player{}, err
	}

	player := domain.Player{
		ID:       s.newID(),
		GameID:   gameID,
		Nickname: nickname,
		JoinedAt: s.now(),
	}
	if err := s.players.CreatePlayer(ctx, player); err != nil {
		return domain.Player{}, err
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), counterTimeout)
		defer cancel()
		if err := s.games.IncrementPlayerCount(ctx, gameID); err != nil {
			log.Printf("increment player count for game %s: %v", gameID, err)
		}
	}()

	publishChange(ctx, s.feed, TablePlayers, ChangeInsert, gameID, player)
	return player, nil
}

// SubmitAnswer checks the answer against the question's key, applies the
// scoring rule to the player row inside the store's atomic boundary, and
// appends the response in the same step. Nothing prevents a player from
// answering the same question twice; each submission is scored and recorded.
func (s *PlayerService) SubmitAnswer(ctx context.Context, gameID, playerID, questionID, selectedAnswer string, timeTakenMs int) (SubmitResult, error) {
	question, err := s.questions.Question(ctx, questionID)
	if err != nil {
		return SubmitResult{}, err
	}
	correct := selectedAnswer == question.CorrectAnswer

	player, response, err := s.players.RecordAnswer(ctx, playerID, func(p *domain.Player) domain.Response {
		points, bonus := ApplyAnswer(p, correct, timeTakenMs, question.TimeLimitSeconds)
		return domain.Response{
			ID:             s.newID(),
			GameID:         gameID,
			PlayerID:       playerID,
			QuestionID:     questionID,
			SelectedAnswer: selectedAnswer,
			IsCorrect:      correct,
			TimeTakenMs:    timeTakenMs,
			PointsEarned:   points,
			StreakBonus:    bonus,
			CreatedAt:      s.now(),
		}
	})
	if err != nil {
		return SubmitResult{}, err
	}

	publishChange(ctx, s.feed, TablePlayers, ChangeUpdate, gameID, player)
	publishChange(ctx, s.feed, TableResponses, ChangeInsert, gameID, response)

	return SubmitResult{
		Response:     response,
		TotalAwarded: response.PointsEarned + response.StreakBonus,
	}, nil
}

// Leaderboard returns the game's players by score descending. Tie order is
// whatever the store yields.
func (s *PlayerService) Leaderboard(ctx context.Context, gameID string) ([]domain.Player, error) {
	return s.players.PlayersByGame(ctx, gameID)
}
