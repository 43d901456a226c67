package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"

	"github.com/cupertitieus-ctrl/notesareboring/internal/domain"
)

const uniqueViolation = "23505"

func (s *Store) CreateAccount(ctx context.Context, a domain.Account) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO accounts (id, email, display_name, password_hash, plan, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.Email, a.DisplayName, a.PasswordHash, a.Plan, a.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (s *Store) AccountByEmail(ctx context.Context, email string) (domain.Account, error) {
	return s.scanAccount(s.pool.QueryRow(ctx, `
		SELECT id, email, display_name, password_hash, plan, created_at
		FROM accounts WHERE email = $1`, email))
}

func (s *Store) AccountByID(ctx context.Context, accountID string) (domain.Account, error) {
	return s.scanAccount(s.pool.QueryRow(ctx, `
		SELECT id, email, display_name, password_hash, plan, created_at
		FROM accounts WHERE id = $1`, accountID))
}

func (s *Store) scanAccount(row pgx.Row) (domain.Account, error) {
	var a domain.Account
	err := row.Scan(&a.ID, &a.Email, &a.DisplayName, &a.PasswordHash, &a.Plan, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	if err != nil {
		return domain.Account{}, fmt.Errorf("scan account: %w", err)
	}
	return a, nil
}
