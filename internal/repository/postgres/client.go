package postgres

import (
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"graham/internal/adapters/config"
	"graham/pkg/errors"
)

// Connect opens and verifies a Postgres connection pool.
func Connect(cfg config.PostgresConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.DSN())
	if err != nil {
		return nil, errors.Wrap(err, "connect postgres")
	}

	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MaxConns / 2)

	return db, nil
}
