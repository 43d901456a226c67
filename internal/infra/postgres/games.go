package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"

	"github.com/cupertitieus-ctrl/notesareboring/internal/domain"
)

const gameColumns = `id, quiz_pack_id, teacher_id, game_code, status, max_players, player_count,
	current_question_index, current_question_started_at, started_at, finished_at, created_at`

func (s *Store) CreateGame(ctx context.Context, g domain.Game) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO games (id, quiz_pack_id, teacher_id, game_code, status, max_players, current_question_index, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		g.ID, g.QuizPackID, g.TeacherID, g.Code, g.Status, g.MaxPlayers, g.CurrentQuestionIndex, g.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert game: %w", err)
	}
	return nil
}

func (s *Store) GameByID(ctx context.Context, gameID string) (domain.Game, error) {
	return s.scanGame(s.pool.QueryRow(ctx,
		`SELECT `+gameColumns+` FROM games WHERE id = $1`, gameID))
}

// GameByCode intentionally excludes finished games: a code stops resolving
// the moment the game ends.
func (s *Store) GameByCode(ctx context.Context, code string) (domain.Game, error) {
	return s.scanGame(s.pool.QueryRow(ctx,
		`SELECT `+gameColumns+` FROM games WHERE game_code = $1 AND status IN ('lobby', 'in_progress')`, code))
}

// StartGame is a compare-and-set: the UPDATE matches only lobby games, so a
// double start loses the race and reports ErrInvalidTransition.
func (s *Store) StartGame(ctx context.Context, gameID string, now time.Time) (domain.Game, error) {
	game, err := s.scanGame(s.pool.QueryRow(ctx, `
		UPDATE games SET status = 'in_progress', started_at = $2, current_question_started_at = $2
		WHERE id = $1 AND status = 'lobby'
		RETURNING `+gameColumns, gameID, now))
	if errors.Is(err, domain.ErrGameNotFound) {
		return domain.Game{}, s.transitionError(ctx, gameID)
	}
	return game, err
}

func (s *Store) AdvanceGame(ctx context.Context, gameID string, questionIndex int, now time.Time) (domain.Game, error) {
	game, err := s.scanGame(s.pool.QueryRow(ctx, `
		UPDATE games SET current_question_index = $2, current_question_started_at = $3
		WHERE id = $1 AND status = 'in_progress'
		RETURNING `+gameColumns, gameID, questionIndex, now))
	if errors.Is(err, domain.ErrGameNotFound) {
		return domain.Game{}, s.transitionError(ctx, gameID)
	}
	return game, err
}

func (s *Store) FinishGame(ctx context.Context, gameID string, now time.Time) (domain.Game, error) {
	game, err := s.scanGame(s.pool.QueryRow(ctx, `
		UPDATE games SET status = 'finished', finished_at = $2
		WHERE id = $1 AND status = 'in_progress'
		RETURNING `+gameColumns, gameID, now))
	if errors.Is(err, domain.ErrGameNotFound) {
		return domain.Game{}, s.transitionError(ctx, gameID)
	}
	return game, err
}

func (s *Store) IncrementPlayerCount(ctx context.Context, gameID string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE games SET player_count = player_count + 1 WHERE id = $1`, gameID)
	if err != nil {
		return fmt.Errorf("increment player count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrGameNotFound
	}
	return nil
}

// transitionError distinguishes a missing game from one in the wrong status
// after a CAS update matched no rows.
func (s *Store) transitionError(ctx context.Context, gameID string) error {
	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM games WHERE id = $1)`, gameID).Scan(&exists); err != nil {
		return fmt.Errorf("check game: %w", err)
	}
	if !exists {
		return domain.ErrGameNotFound
	}
	return domain.ErrInvalidTransition
}

func (s *Store) scanGame(row pgx.Row) (domain.Game, error) {
	var g domain.Game
	err := row.Scan(&g.ID, &g.QuizPackID, &g.TeacherID, &g.Code, &g.Status, &g.MaxPlayers, &g.PlayerCount,
		&g.CurrentQuestionIndex, &g.CurrentQuestionStartedAt, &g.StartedAt, &g.FinishedAt, &g.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Game{}, domain.ErrGameNotFound
	}
	if err != nil {
		return domain.Game{}, fmt.Errorf("scan game: %w", err)
	}
	return g, nil
}
