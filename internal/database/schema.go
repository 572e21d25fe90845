package database

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// InitSchema creates the tables if they don't exist. Tables are created in
// foreign-key order; constraints that the model tags can't express are added
// as explicit FK clauses here.
func InitSchema(ctx context.Context, db *bun.DB) error {
	if _, err := db.NewCreateTable().
		Model((*User)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}

	if _, err := db.NewCreateTable().
		Model((*AuthToken)(nil)).
		IfNotExists().
		ForeignKey(`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`).
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to create auth_tokens table: %w", err)
	}

	if _, err := db.NewCreateTable().
		Model((*Tag)(nil)).
		IfNotExists().
		ForeignKey(`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`).
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to create tags table: %w", err)
	}

	// Recipes keep a nullable owner so they survive account deletion.
	if _, err := db.NewCreateTable().
		Model((*Recipe)(nil)).
		IfNotExists().
		ForeignKey(`("user_id") REFERENCES "users" ("id") ON DELETE SET NULL`).
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to create recipes table: %w", err)
	}

	if _, err := db.NewCreateTable().
		Model((*RecipeTag)(nil)).
		IfNotExists().
		ForeignKey(`("recipe_id") REFERENCES "recipes" ("id") ON DELETE CASCADE`).
		ForeignKey(`("tag_id") REFERENCES "tags" ("id") ON DELETE CASCADE`).
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to create recipe_tags table: %w", err)
	}

	return nil
}
