package recipe

import (
	"context"
	"errors"
	"fmt"

	"github.com/krailo/recipe-api/internal/validation"
)

// ListTags returns the caller's tags, reverse-alphabetical.
func (s *Service) ListTags(ctx context.Context, userID int64) ([]Tag, error) {
	return s.store.ListTagsByUser(ctx, userID)
}

// GetTag returns one of the caller's tags.
func (s *Service) GetTag(ctx context.Context, userID, id int64) (*Tag, error) {
	return s.store.GetTagByID(ctx, userID, id)
}

// CreateTag validates the name and stores a tag owned by the caller.
func (s *Service) CreateTag(ctx context.Context, userID int64, name string) (*Tag, error) {
	if err := validateTagName(name); err != nil {
		return nil, err
	}

	created, err := s.store.CreateTag(ctx, &Tag{UserID: userID, Name: name})
	if err != nil {
		if errors.Is(err, ErrDuplicateTag) {
			return nil, duplicateTagError()
		}
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}

	s.logger.Info("tag created", "tag_id", created.ID, "user_id", userID)

	return created, nil
}

// ReplaceTag renames a tag; the name is required.
func (s *Service) ReplaceTag(ctx context.Context, userID, id int64, name *string) (*Tag, error) {
	if name == nil {
		verr := validation.NewError()
		verr.Add("name", "name is required")
		return nil, verr
	}
	return s.renameTag(ctx, userID, id, *name)
}

// PatchTag renames a tag when a name is supplied; an absent name is a no-op
// read.
func (s *Service) PatchTag(ctx context.Context, userID, id int64, name *string) (*Tag, error) {
	if name == nil {
		return s.store.GetTagByID(ctx, userID, id)
	}
	return s.renameTag(ctx, userID, id, *name)
}

func (s *Service) renameTag(ctx context.Context, userID, id int64, name string) (*Tag, error) {
	if err := validateTagName(name); err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateTag(ctx, &Tag{ID: id, UserID: userID, Name: name})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		if errors.Is(err, ErrDuplicateTag) {
			return nil, duplicateTagError()
		}
		return nil, fmt.Errorf("failed to update tag: %w", err)
	}

	return updated, nil
}

// DeleteTag removes one of the caller's tags, detaching it from any recipes
// that reference it.
func (s *Service) DeleteTag(ctx context.Context, userID, id int64) error {
	if err := s.store.DeleteTag(ctx, userID, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete tag: %w", err)
	}

	s.logger.Info("tag deleted", "tag_id", id, "user_id", userID)

	return nil
}

func validateTagName(name string) error {
	verr := validation.NewError()
	if name == "" {
		verr.Add("name", "name is required")
	} else if len(name) > maxTagNameLength {
		verr.Add("name", fmt.Sprintf("name must be at most %d characters", maxTagNameLength))
	}
	return verr.ErrOrNil()
}

func duplicateTagError() error {
	verr := validation.NewError()
	verr.Add("name", "a tag with this name already exists")
	return verr
}
