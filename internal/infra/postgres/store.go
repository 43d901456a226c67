package postgres

import (
	"github.com/jackc/pgx/v4/pgxpool"
)

// Store implements every storage interface against Postgres via pgx. Queries
// live alongside their entity in accounts.go, packs.go, games.go, players.go.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}
