package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"

	"github.com/cupertitieus-ctrl/notesareboring/internal/domain"
)

// CreatePack inserts the pack and its questions in one transaction, so a
// question failure never leaves an orphaned pack behind.
func (s *Store) CreatePack(ctx context.Context, pack domain.QuizPack, questions []domain.Question) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create pack: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO quiz_packs (id, teacher_id, title, subject, source_filename, question_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		pack.ID, pack.TeacherID, pack.Title, pack.Subject, pack.SourceFilename, pack.QuestionCount, pack.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert pack: %w", err)
	}

	for _, q := range questions {
		_, err = tx.Exec(ctx, `
			INSERT INTO questions (id, quiz_pack_id, question_text, question_type, difficulty,
				option_a, option_b, option_c, option_d, correct_answer, time_limit_seconds, sort_order, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			q.ID, q.QuizPackID, q.Text, q.Type, q.Difficulty,
			q.OptionA, q.OptionB, q.OptionC, q.OptionD, q.CorrectAnswer, q.TimeLimitSeconds, q.SortOrder, q.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert question %d: %w", q.SortOrder, err)
		}
	}

	return tx.Commit(ctx)
}

func (s *Store) PacksByTeacher(ctx context.Context, teacherID string) ([]domain.QuizPack, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, teacher_id, title, subject, source_filename, question_count, games_played, created_at
		FROM quiz_packs WHERE teacher_id = $1 ORDER BY created_at DESC`, teacherID)
	if err != nil {
		return nil, fmt.Errorf("list packs: %w", err)
	}
	defer rows.Close()

	var packs []domain.QuizPack
	for rows.Next() {
		var p domain.QuizPack
		if err := rows.Scan(&p.ID, &p.TeacherID, &p.Title, &p.Subject, &p.SourceFilename,
			&p.QuestionCount, &p.GamesPlayed, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pack: %w", err)
		}
		packs = append(packs, p)
	}
	return packs, rows.Err()
}

func (s *Store) PackByID(ctx context.Context, packID string) (domain.QuizPack, error) {
	var p domain.QuizPack
	err := s.pool.QueryRow(ctx, `
		SELECT id, teacher_id, title, subject, source_filename, question_count, games_played, created_at
		FROM quiz_packs WHERE id = $1`, packID).
		Scan(&p.ID, &p.TeacherID, &p.Title, &p.Subject, &p.SourceFilename,
			&p.QuestionCount, &p.GamesPlayed, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuizPack{}, domain.ErrPackNotFound
	}
	if err != nil {
		return domain.QuizPack{}, fmt.Errorf("get pack: %w", err)
	}
	return p, nil
}

func (s *Store) QuestionsByPack(ctx context.Context, packID string) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, quiz_pack_id, question_text, question_type, difficulty,
			option_a, option_b, option_c, option_d, correct_answer, time_limit_seconds, sort_order, created_at
		FROM questions WHERE quiz_pack_id = $1 ORDER BY sort_order`, packID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var q domain.Question
		if err := rows.Scan(&q.ID, &q.QuizPackID, &q.Text, &q.Type, &q.Difficulty,
			&q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD, &q.CorrectAnswer,
			&q.TimeLimitSeconds, &q.SortOrder, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// DeletePack removes the pack; questions follow via ON DELETE CASCADE.
func (s *Store) DeletePack(ctx context.Context, packID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM quiz_packs WHERE id = $1`, packID)
	if err != nil {
		return fmt.Errorf("delete pack: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPackNotFound
	}
	return nil
}

func (s *Store) Question(ctx context.Context, questionID string) (domain.Question, error) {
	var q domain.Question
	err := s.pool.QueryRow(ctx, `
		SELECT id, quiz_pack_id, question_text, question_type, difficulty,
			option_a, option_b, option_c, option_d, correct_answer, time_limit_seconds, sort_order, created_at
		FROM questions WHERE id = $1`, questionID).
		Scan(&q.ID, &q.QuizPackID, &q.Text, &q.Type, &q.Difficulty,
			&q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD, &q.CorrectAnswer,
			&q.TimeLimitSeconds, &q.SortOrder, &q.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("get question: %w", err)
	}
	return q, nil
}

func (s *Store) IncrementGamesPlayed(ctx context.Context, packID string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE quiz_packs SET games_played = games_played + 1 WHERE id = $1`, packID)
	if err != nil {
		return fmt.Errorf("increment games played: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPackNotFound
	}
	return nil
}
