package database

import (
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"github.com/krailo/recipe-api/internal/config"
)

// NewBunDB creates a new Bun DB instance from an existing sql.DB connection
// and registers the m2m join models.
func NewBunDB(sqlDB *sql.DB) *bun.DB {
	db := bun.NewDB(sqlDB, pgdialect.New())
	db.RegisterModel((*RecipeTag)(nil))
	return db
}

// Connect opens a Postgres connection, verifies it and wraps it in Bun.
func Connect(cfg config.DatabaseConfig) (*bun.DB, error) {
	sqlDB, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	return NewBunDB(sqlDB), nil
}
