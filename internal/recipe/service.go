package recipe

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/krailo/recipe-api/internal/logging"
	"github.com/krailo/recipe-api/internal/validation"
)

const (
	maxTitleLength   = 40
	maxLinkLength    = 255
	maxTagNameLength = 255
	maxPrice         = 999999.99 // numeric(8,2)
)

// Store is the persistence contract the service needs.
type Store interface {
	ListByUser(ctx context.Context, userID int64) ([]Recipe, error)
	GetByID(ctx context.Context, userID, id int64) (*Recipe, error)
	Create(ctx context.Context, rec *Recipe, tagNames []string) (*Recipe, error)
	Update(ctx context.Context, rec *Recipe, tagNames *[]string) (*Recipe, error)
	Delete(ctx context.Context, userID, id int64) error

	ListTagsByUser(ctx context.Context, userID int64) ([]Tag, error)
	GetTagByID(ctx context.Context, userID, id int64) (*Tag, error)
	CreateTag(ctx context.Context, t *Tag) (*Tag, error)
	UpdateTag(ctx context.Context, t *Tag) (*Tag, error)
	DeleteTag(ctx context.Context, userID, id int64) error
}

// Input carries recipe fields from the API. Nil means "not supplied", which
// matters for partial updates: a nil Tags leaves associations untouched
// while an empty slice clears them.
type Input struct {
	Title       *string
	TimeMinutes *int
	Price       *float64
	Description *string
	Link        *string
	Tags        *[]string
}

// Service implements the recipe and tag operations, always scoped to the
// calling user.
type Service struct {
	store  Store
	logger *logging.Logger
}

func NewService(store Store, logger *logging.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// List returns the caller's recipes, newest first.
func (s *Service) List(ctx context.Context, userID int64) ([]Recipe, error) {
	return s.store.ListByUser(ctx, userID)
}

// Get returns one of the caller's recipes with tags.
func (s *Service) Get(ctx context.Context, userID, id int64) (*Recipe, error) {
	return s.store.GetByID(ctx, userID, id)
}

// Create validates the input and stores a new recipe owned by the caller.
// Any owner supplied in the payload is ignored; ownership always comes from
// the authenticated caller.
func (s *Service) Create(ctx context.Context, userID int64, in Input) (*Recipe, error) {
	if err := validateFull(in); err != nil {
		return nil, err
	}

	rec := &Recipe{
		UserID:      &userID,
		Title:       *in.Title,
		TimeMinutes: *in.TimeMinutes,
		Price:       *in.Price,
		Description: *in.Description,
	}
	if in.Link != nil {
		rec.Link = *in.Link
	}

	var tagNames []string
	if in.Tags != nil {
		tagNames = *in.Tags
	}

	created, err := s.store.Create(ctx, rec, tagNames)
	if err != nil {
		return nil, fmt.Errorf("failed to create recipe: %w", err)
	}

	s.logger.Info("recipe created", "recipe_id", created.ID, "user_id", userID)

	return created, nil
}

// Replace performs a full update: all required fields must be present, and
// validation runs before anything touches storage. Tags follow the partial
// semantics (absent key leaves them unchanged).
func (s *Service) Replace(ctx context.Context, userID, id int64, in Input) (*Recipe, error) {
	if err := validateFull(in); err != nil {
		return nil, err
	}

	rec := &Recipe{
		ID:          id,
		UserID:      &userID,
		Title:       *in.Title,
		TimeMinutes: *in.TimeMinutes,
		Price:       *in.Price,
		Description: *in.Description,
	}
	if in.Link != nil {
		rec.Link = *in.Link
	}

	updated, err := s.store.Update(ctx, rec, in.Tags)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to replace recipe: %w", err)
	}

	return updated, nil
}

// Patch merges the supplied fields into the existing recipe. A present tags
// key fully replaces the tag set, an empty list clears it, an absent key
// leaves it alone.
func (s *Service) Patch(ctx context.Context, userID, id int64, in Input) (*Recipe, error) {
	existing, err := s.store.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if err := validatePartial(in); err != nil {
		return nil, err
	}

	if in.Title != nil {
		existing.Title = *in.Title
	}
	if in.TimeMinutes != nil {
		existing.TimeMinutes = *in.TimeMinutes
	}
	if in.Price != nil {
		existing.Price = *in.Price
	}
	if in.Description != nil {
		existing.Description = *in.Description
	}
	if in.Link != nil {
		existing.Link = *in.Link
	}

	updated, err := s.store.Update(ctx, existing, in.Tags)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to patch recipe: %w", err)
	}

	return updated, nil
}

// Delete removes one of the caller's recipes and its tag associations.
func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	if err := s.store.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete recipe: %w", err)
	}

	s.logger.Info("recipe deleted", "recipe_id", id, "user_id", userID)

	return nil
}

// validateFull requires every mandatory field, for create and replace.
func validateFull(in Input) error {
	verr := validation.NewError()

	if in.Title == nil || *in.Title == "" {
		verr.Add("title", "title is required")
	}
	if in.TimeMinutes == nil {
		verr.Add("time_minutes", "time_minutes is required")
	}
	if in.Price == nil {
		verr.Add("price", "price is required")
	}
	if in.Description == nil || *in.Description == "" {
		verr.Add("description", "description is required")
	}

	validateSupplied(in, verr)

	return verr.ErrOrNil()
}

// validatePartial checks only the supplied fields, for patch.
func validatePartial(in Input) error {
	verr := validation.NewError()

	if in.Title != nil && *in.Title == "" {
		verr.Add("title", "title must not be blank")
	}
	if in.Description != nil && *in.Description == "" {
		verr.Add("description", "description must not be blank")
	}

	validateSupplied(in, verr)

	return verr.ErrOrNil()
}

// validateSupplied holds the range checks shared by full and partial
// validation.
func validateSupplied(in Input, verr *validation.Error) {
	if in.Title != nil && len(*in.Title) > maxTitleLength {
		verr.Add("title", fmt.Sprintf("title must be at most %d characters", maxTitleLength))
	}
	if in.TimeMinutes != nil && *in.TimeMinutes < 0 {
		verr.Add("time_minutes", "time_minutes must not be negative")
	}
	if in.Price != nil {
		switch {
		case *in.Price < 0:
			verr.Add("price", "price must not be negative")
		case *in.Price > maxPrice:
			verr.Add("price", "price must have at most 8 digits in total")
		case hasExtraPrecision(*in.Price):
			verr.Add("price", "price must have at most 2 decimal places")
		}
	}
	if in.Link != nil && len(*in.Link) > maxLinkLength {
		verr.Add("link", fmt.Sprintf("link must be at most %d characters", maxLinkLength))
	}
	if in.Tags != nil {
		for _, name := range *in.Tags {
			if name == "" {
				verr.Add("tags", "tag name must not be blank")
				break
			}
			if len(name) > maxTagNameLength {
				verr.Add("tags", fmt.Sprintf("tag name must be at most %d characters", maxTagNameLength))
				break
			}
		}
	}
}

func hasExtraPrecision(price float64) bool {
	cents := price * 100
	return math.Abs(cents-math.Round(cents)) > 1e-6
}
