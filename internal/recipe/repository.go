package recipe

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/krailo/recipe-api/internal/database"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicateTag = errors.New("tag already exists")
)

// Repository handles recipe and tag persistence. Every query is pre-scoped
// to the owning user, so a foreign id is indistinguishable from a missing
// one.
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// ListByUser returns the caller's recipes, most recently created first.
func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]Recipe, error) {
	var dbRecipes []database.Recipe
	err := r.db.NewSelect().
		Model(&dbRecipes).
		Where("user_id = ?", userID).
		Order("id DESC").
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}

	recipes := make([]Recipe, 0, len(dbRecipes))
	for i := range dbRecipes {
		recipes = append(recipes, *mapDBRecipeToModel(&dbRecipes[i]))
	}
	return recipes, nil
}

// GetByID retrieves one of the caller's recipes with its tags.
func (r *Repository) GetByID(ctx context.Context, userID, id int64) (*Recipe, error) {
	dbRecipe := new(database.Recipe)
	err := r.db.NewSelect().
		Model(dbRecipe).
		Relation("Tags", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("name ASC")
		}).
		Where("r.id = ?", id).
		Where("r.user_id = ?", userID).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}

	return mapDBRecipeToModel(dbRecipe), nil
}

// Create inserts a recipe and resolves its tag names in one transaction.
// A failure anywhere rolls back the recipe, any new tags and the
// associations together.
func (r *Repository) Create(ctx context.Context, rec *Recipe, tagNames []string) (*Recipe, error) {
	var created *Recipe

	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		dbRecipe := &database.Recipe{
			UserID:      rec.UserID,
			Title:       rec.Title,
			TimeMinutes: rec.TimeMinutes,
			Price:       rec.Price,
			Description: rec.Description,
			Link:        rec.Link,
		}

		if _, err := tx.NewInsert().Model(dbRecipe).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert recipe: %w", err)
		}

		tags, err := resolveTags(ctx, tx, *rec.UserID, tagNames)
		if err != nil {
			return err
		}

		if err := linkTags(ctx, tx, dbRecipe.ID, tags); err != nil {
			return err
		}

		dbRecipe.Tags = tags
		created = mapDBRecipeToModel(dbRecipe)
		return nil
	})

	if err != nil {
		return nil, err
	}
	return created, nil
}

// Update replaces the stored fields of one of the caller's recipes. When
// tagNames is non-nil the tag set is fully replaced (an empty slice clears
// it); nil leaves the associations untouched.
func (r *Repository) Update(ctx context.Context, rec *Recipe, tagNames *[]string) (*Recipe, error) {
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		result, err := tx.NewUpdate().
			Model((*database.Recipe)(nil)).
			Set("title = ?", rec.Title).
			Set("time_minutes = ?", rec.TimeMinutes).
			Set("price = ?", rec.Price).
			Set("description = ?", rec.Description).
			Set("link = ?", rec.Link).
			Where("id = ?", rec.ID).
			Where("user_id = ?", rec.UserID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to update recipe: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return ErrNotFound
		}

		if tagNames == nil {
			return nil
		}

		if _, err := tx.NewDelete().
			Model((*database.RecipeTag)(nil)).
			Where("recipe_id = ?", rec.ID).
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to clear recipe tags: %w", err)
		}

		tags, err := resolveTags(ctx, tx, *rec.UserID, *tagNames)
		if err != nil {
			return err
		}

		return linkTags(ctx, tx, rec.ID, tags)
	})

	if err != nil {
		return nil, err
	}

	return r.GetByID(ctx, *rec.UserID, rec.ID)
}

// Delete removes one of the caller's recipes; the join rows cascade.
func (r *Repository) Delete(ctx context.Context, userID, id int64) error {
	result, err := r.db.NewDelete().
		Model((*database.Recipe)(nil)).
		Where("id = ?", id).
		Where("user_id = ?", userID).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
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

// resolveTags gets or creates a tag owned by userID for each name,
// case-sensitive. INSERT ... ON CONFLICT DO NOTHING plus a re-select inside
// the surrounding transaction keeps concurrent identical requests from
// producing duplicates.
func resolveTags(ctx context.Context, tx bun.Tx, userID int64, names []string) ([]*database.Tag, error) {
	tags := make([]*database.Tag, 0, len(names))
	seen := make(map[string]struct{}, len(names))

	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}

		tag := &database.Tag{UserID: userID, Name: name}
		_, err := tx.NewInsert().
			Model(tag).
			On("CONFLICT (user_id, name) DO NOTHING").
			Exec(ctx)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to insert tag %q: %w", name, err)
		}

		if tag.ID == 0 {
			// Lost the conflict; the row already exists.
			if err := tx.NewSelect().
				Model(tag).
				Where("user_id = ?", userID).
				Where("name = ?", name).
				Scan(ctx); err != nil {
				return nil, fmt.Errorf("failed to get tag %q: %w", name, err)
			}
		}

		tags = append(tags, tag)
	}

	return tags, nil
}

func linkTags(ctx context.Context, tx bun.Tx, recipeID int64, tags []*database.Tag) error {
	if len(tags) == 0 {
		return nil
	}

	links := make([]database.RecipeTag, 0, len(tags))
	for _, tag := range tags {
		links = append(links, database.RecipeTag{RecipeID: recipeID, TagID: tag.ID})
	}

	if _, err := tx.NewInsert().Model(&links).Exec(ctx); err != nil {
		return fmt.Errorf("failed to link recipe tags: %w", err)
	}
	return nil
}

// mapDBRecipeToModel converts database model to domain model
func mapDBRecipeToModel(dbr *database.Recipe) *Recipe {
	tags := make([]Tag, 0, len(dbr.Tags))
	for _, t := range dbr.Tags {
		tags = append(tags, Tag{ID: t.ID, UserID: t.UserID, Name: t.Name})
	}

	return &Recipe{
		ID:          dbr.ID,
		UserID:      dbr.UserID,
		Title:       dbr.Title,
		TimeMinutes: dbr.TimeMinutes,
		Price:       dbr.Price,
		Description: dbr.Description,
		Link:        dbr.Link,
		Tags:        tags,
	}
}
