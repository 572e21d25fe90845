package recipe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krailo/recipe-api/internal/validation"
)

func TestCreateTag(t *testing.T) {
	svc := newTestService(newFakeStore())

	created, err := svc.CreateTag(context.Background(), 7, "vegan")
	require.NoError(t, err)

	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, int64(7), created.UserID)
	assert.Equal(t, "vegan", created.Name)
}

func TestCreateTagValidation(t *testing.T) {
	svc := newTestService(newFakeStore())

	_, err := svc.CreateTag(context.Background(), 7, "")

	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")
}

func TestCreateTagDuplicate(t *testing.T) {
	svc := newTestService(newFakeStore())
	ctx := context.Background()

	_, err := svc.CreateTag(ctx, 7, "vegan")
	require.NoError(t, err)

	_, err = svc.CreateTag(ctx, 7, "vegan")

	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")

	// The same name under a different owner is fine.
	_, err = svc.CreateTag(ctx, 8, "vegan")
	assert.NoError(t, err)
}

func TestListTags(t *testing.T) {
	svc := newTestService(newFakeStore())
	ctx := context.Background()

	for _, name := range []string{"breakfast", "vegan", "dessert"} {
		_, err := svc.CreateTag(ctx, 7, name)
		require.NoError(t, err)
	}
	_, err := svc.CreateTag(ctx, 8, "other-owner")
	require.NoError(t, err)

	tags, err := svc.ListTags(ctx, 7)
	require.NoError(t, err)
	require.Len(t, tags, 3)

	// Reverse-alphabetical.
	assert.Equal(t, "vegan", tags[0].Name)
	assert.Equal(t, "dessert", tags[1].Name)
	assert.Equal(t, "breakfast", tags[2].Name)
}

func TestGetTagScopedToOwner(t *testing.T) {
	svc := newTestService(newFakeStore())
	ctx := context.Background()

	created, err := svc.CreateTag(ctx, 7, "vegan")
	require.NoError(t, err)

	_, err = svc.GetTag(ctx, 8, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := svc.GetTag(ctx, 7, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "vegan", got.Name)
}

func TestReplaceTag(t *testing.T) {
	svc := newTestService(newFakeStore())
	ctx := context.Background()

	created, err := svc.CreateTag(ctx, 7, "vegan")
	require.NoError(t, err)

	updated, err := svc.ReplaceTag(ctx, 7, created.ID, strPtr("vegetarian"))
	require.NoError(t, err)
	assert.Equal(t, "vegetarian", updated.Name)

	// A missing name on PUT is a validation error.
	_, err = svc.ReplaceTag(ctx, 7, created.ID, nil)
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")
}

func TestPatchTag(t *testing.T) {
	svc := newTestService(newFakeStore())
	ctx := context.Background()

	created, err := svc.CreateTag(ctx, 7, "vegan")
	require.NoError(t, err)

	t.Run("absent name is a no-op read", func(t *testing.T) {
		got, err := svc.PatchTag(ctx, 7, created.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, "vegan", got.Name)
	})

	t.Run("supplied name renames", func(t *testing.T) {
		got, err := svc.PatchTag(ctx, 7, created.ID, strPtr("plant-based"))
		require.NoError(t, err)
		assert.Equal(t, "plant-based", got.Name)
	})

	t.Run("blank name is rejected", func(t *testing.T) {
		_, err := svc.PatchTag(ctx, 7, created.ID, strPtr(""))
		var verr *validation.Error
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "name")
	})
}

func TestRenameTagToExistingName(t *testing.T) {
	svc := newTestService(newFakeStore())
	ctx := context.Background()

	_, err := svc.CreateTag(ctx, 7, "vegan")
	require.NoError(t, err)
	second, err := svc.CreateTag(ctx, 7, "dessert")
	require.NoError(t, err)

	_, err = svc.ReplaceTag(ctx, 7, second.ID, strPtr("vegan"))

	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")
}

func TestDeleteTag(t *testing.T) {
	svc := newTestService(newFakeStore())
	ctx := context.Background()

	created, err := svc.CreateTag(ctx, 7, "vegan")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteTag(ctx, 8, created.ID), ErrNotFound)

	require.NoError(t, svc.DeleteTag(ctx, 7, created.ID))
	assert.ErrorIs(t, svc.DeleteTag(ctx, 7, created.ID), ErrNotFound)
}
