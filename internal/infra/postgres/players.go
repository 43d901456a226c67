package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"

	"github.com/cupertitieus-ctrl/notesareboring/internal/domain"
)

const playerColumns = `id, game_id, nickname, score, streak, best_streak, correct_count, total_answered, joined_at`

func (s *Store) CreatePlayer(ctx context.Context, p domain.Player) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO players (id, game_id, nickname, score, streak, best_streak, correct_count, total_answered, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.GameID, p.Nickname, p.Score, p.Streak, p.BestStreak, p.CorrectCount, p.TotalAnswered, p.JoinedAt)
	if err != nil {
		return fmt.Errorf("insert player: %w", err)
	}
	return nil
}

// RecordAnswer locks the player row for the duration of the scoring callback
// and appends the response in the same transaction. Two players answering at
// once never trample each other's streak or score.
func (s *Store) RecordAnswer(ctx context.Context, playerID string, score func(p *domain.Player) domain.Response) (domain.Player, domain.Response, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.Player{}, domain.Response{}, fmt.Errorf("begin record answer: %w", err)
	}
	defer tx.Rollback(ctx)

	var p domain.Player
	err = tx.QueryRow(ctx, `SELECT `+playerColumns+` FROM players WHERE id = $1 FOR UPDATE`, playerID).
		Scan(&p.ID, &p.GameID, &p.Nickname, &p.Score, &p.Streak, &p.BestStreak, &p.CorrectCount, &p.TotalAnswered, &p.JoinedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Player{}, domain.Response{}, domain.ErrPlayerNotFound
	}
	if err != nil {
		return domain.Player{}, domain.Response{}, fmt.Errorf("lock player: %w", err)
	}

	response := score(&p)

	_, err = tx.Exec(ctx, `
		UPDATE players SET score = $2, streak = $3, best_streak = $4, correct_count = $5, total_answered = $6
		WHERE id = $1`,
		p.ID, p.Score, p.Streak, p.BestStreak, p.CorrectCount, p.TotalAnswered)
	if err != nil {
		return domain.Player{}, domain.Response{}, fmt.Errorf("update player: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO responses (id, game_id, player_id, question_id, selected_answer, is_correct, time_taken_ms, points_earned, streak_bonus, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		response.ID, response.GameID, response.PlayerID, response.QuestionID, response.SelectedAnswer,
		response.IsCorrect, response.TimeTakenMs, response.PointsEarned, response.StreakBonus, response.CreatedAt)
	if err != nil {
		return domain.Player{}, domain.Response{}, fmt.Errorf("insert response: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Player{}, domain.Response{}, fmt.Errorf("commit record answer: %w", err)
	}
	return p, response, nil
}

func (s *Store) PlayersByGame(ctx context.Context, gameID string) ([]domain.Player, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+playerColumns+` FROM players WHERE game_id = $1 ORDER BY score DESC`, gameID)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var players []domain.Player
	for rows.Next() {
		var p domain.Player
		if err := rows.Scan(&p.ID, &p.GameID, &p.Nickname, &p.Score, &p.Streak, &p.BestStreak,
			&p.CorrectCount, &p.TotalAnswered, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		players = append(players, p)
	}
	return players, rows.Err()
}
