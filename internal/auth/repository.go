package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/uptrace/bun"

	"github.com/krailo/recipe-api/internal/database"
	"github.com/krailo/recipe-api/internal/user"
)

var (
	ErrTokenNotFound  = errors.New("token not found")
	ErrDuplicateToken = errors.New("user already has a token")
)

// Repository handles auth token persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// GetByUserID retrieves the token bound to a user, if any.
func (r *Repository) GetByUserID(ctx context.Context, userID int64) (*Token, error) {
	dbToken := new(database.AuthToken)
	err := r.db.NewSelect().
		Model(dbToken).
		Where("user_id = ?", userID).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to get token by user id: %w", err)
	}

	return mapDBTokenToModel(dbToken), nil
}

// Create inserts a token. The unique constraint on user_id surfaces as
// ErrDuplicateToken so callers can re-read the winning row.
func (r *Repository) Create(ctx context.Context, t *Token) (*Token, error) {
	dbToken := &database.AuthToken{
		Key:    t.Key,
		UserID: t.UserID,
	}

	_, err := r.db.NewInsert().
		Model(dbToken).
		Returning("*").
		Exec(ctx)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return nil, ErrDuplicateToken
		}
		return nil, fmt.Errorf("failed to create token: %w", err)
	}

	return mapDBTokenToModel(dbToken), nil
}

// GetUserByKey resolves a token key to its bound user.
func (r *Repository) GetUserByKey(ctx context.Context, key string) (*user.User, error) {
	dbToken := new(database.AuthToken)
	err := r.db.NewSelect().
		Model(dbToken).
		Relation("User").
		Where("at.key = ?", key).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to get user by token key: %w", err)
	}

	if dbToken.User == nil {
		return nil, ErrTokenNotFound
	}

	return &user.User{
		ID:           dbToken.User.ID,
		Email:        dbToken.User.Email,
		PasswordHash: dbToken.User.PasswordHash,
		Name:         dbToken.User.Name,
		IsStaff:      dbToken.User.IsStaff,
		IsSuperuser:  dbToken.User.IsSuperuser,
		CreatedAt:    dbToken.User.CreatedAt,
		UpdatedAt:    dbToken.User.UpdatedAt,
	}, nil
}

// mapDBTokenToModel converts database model to domain model
func mapDBTokenToModel(dbt *database.AuthToken) *Token {
	return &Token{
		ID:        dbt.ID,
		Key:       dbt.Key,
		UserID:    dbt.UserID,
		CreatedAt: dbt.CreatedAt,
	}
}
