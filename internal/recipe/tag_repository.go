package recipe

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/krailo/recipe-api/internal/database"
)

// ListTagsByUser returns the caller's tags ordered by name, descending.
func (r *Repository) ListTagsByUser(ctx context.Context, userID int64) ([]Tag, error) {
	var dbTags []database.Tag
	err := r.db.NewSelect().
		Model(&dbTags).
		Where("user_id = ?", userID).
		Order("name DESC").
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}

	tags := make([]Tag, 0, len(dbTags))
	for _, t := range dbTags {
		tags = append(tags, Tag{ID: t.ID, UserID: t.UserID, Name: t.Name})
	}
	return tags, nil
}

// GetTagByID retrieves one of the caller's tags.
func (r *Repository) GetTagByID(ctx context.Context, userID, id int64) (*Tag, error) {
	dbTag := new(database.Tag)
	err := r.db.NewSelect().
		Model(dbTag).
		Where("id = ?", id).
		Where("user_id = ?", userID).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}

	return &Tag{ID: dbTag.ID, UserID: dbTag.UserID, Name: dbTag.Name}, nil
}

// CreateTag inserts a tag for the caller. The UNIQUE(user_id, name)
// constraint surfaces as ErrDuplicateTag.
func (r *Repository) CreateTag(ctx context.Context, t *Tag) (*Tag, error) {
	dbTag := &database.Tag{UserID: t.UserID, Name: t.Name}

	_, err := r.db.NewInsert().
		Model(dbTag).
		Returning("*").
		Exec(ctx)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return nil, ErrDuplicateTag
		}
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}

	return &Tag{ID: dbTag.ID, UserID: dbTag.UserID, Name: dbTag.Name}, nil
}

// UpdateTag renames one of the caller's tags.
func (r *Repository) UpdateTag(ctx context.Context, t *Tag) (*Tag, error) {
	result, err := r.db.NewUpdate().
		Model((*database.Tag)(nil)).
		Set("name = ?", t.Name).
		Where("id = ?", t.ID).
		Where("user_id = ?", t.UserID).
		Exec(ctx)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return nil, ErrDuplicateTag
		}
		return nil, fmt.Errorf("failed to update tag: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrNotFound
	}

	return r.GetTagByID(ctx, t.UserID, t.ID)
}

// DeleteTag removes one of the caller's tags. Join rows cascade, so the tag
// is detached from any recipes referencing it; the recipes themselves
// survive.
func (r *Repository) DeleteTag(ctx context.Context, userID, id int64) error {
	result, err := r.db.NewDelete().
		Model((*database.Tag)(nil)).
		Where("id = ?", id).
		Where("user_id = ?", userID).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to delete tag: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
