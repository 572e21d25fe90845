package recipe

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krailo/recipe-api/internal/logging"
	"github.com/krailo/recipe-api/internal/validation"
)

// fakeStore is an in-memory Store. Recipes and tags are scoped to their
// owner the same way the SQL queries are.
type fakeStore struct {
	nextRecipeID int64
	nextTagID    int64
	recipes      map[int64]*Recipe
	tags         map[int64]*Tag

	// lastTagNames records the tagNames argument of the last Update call,
	// so tests can assert the absent-vs-empty distinction.
	lastTagNames  *[]string
	updateTagsSet bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		nextRecipeID: 1,
		nextTagID:    1,
		recipes:      make(map[int64]*Recipe),
		tags:         make(map[int64]*Tag),
	}
}

func (f *fakeStore) ListByUser(_ context.Context, userID int64) ([]Recipe, error) {
	out := make([]Recipe, 0)
	for _, rec := range f.recipes {
		if rec.UserID != nil && *rec.UserID == userID {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeStore) GetByID(_ context.Context, userID, id int64) (*Recipe, error) {
	rec, ok := f.recipes[id]
	if !ok || rec.UserID == nil || *rec.UserID != userID {
		return nil, ErrNotFound
	}
	copied := *rec
	copied.Tags = append([]Tag(nil), rec.Tags...)
	return &copied, nil
}

func (f *fakeStore) Create(_ context.Context, rec *Recipe, tagNames []string) (*Recipe, error) {
	stored := *rec
	stored.ID = f.nextRecipeID
	f.nextRecipeID++
	stored.Tags = f.resolveTags(*rec.UserID, tagNames)
	f.recipes[stored.ID] = &stored
	copied := stored
	return &copied, nil
}

func (f *fakeStore) Update(_ context.Context, rec *Recipe, tagNames *[]string) (*Recipe, error) {
	f.lastTagNames = tagNames
	f.updateTagsSet = true

	existing, ok := f.recipes[rec.ID]
	if !ok || existing.UserID == nil || rec.UserID == nil || *existing.UserID != *rec.UserID {
		return nil, ErrNotFound
	}
	existing.Title = rec.Title
	existing.TimeMinutes = rec.TimeMinutes
	existing.Price = rec.Price
	existing.Description = rec.Description
	existing.Link = rec.Link
	if tagNames != nil {
		existing.Tags = f.resolveTags(*rec.UserID, *tagNames)
	}
	copied := *existing
	copied.Tags = append([]Tag(nil), existing.Tags...)
	return &copied, nil
}

func (f *fakeStore) Delete(_ context.Context, userID, id int64) error {
	rec, ok := f.recipes[id]
	if !ok || rec.UserID == nil || *rec.UserID != userID {
		return ErrNotFound
	}
	delete(f.recipes, id)
	return nil
}

func (f *fakeStore) resolveTags(userID int64, names []string) []Tag {
	out := make([]Tag, 0, len(names))
	for _, name := range names {
		found := false
		for _, t := range f.tags {
			if t.UserID == userID && t.Name == name {
				out = append(out, *t)
				found = true
				break
			}
		}
		if !found {
			created := &Tag{ID: f.nextTagID, UserID: userID, Name: name}
			f.nextTagID++
			f.tags[created.ID] = created
			out = append(out, *created)
		}
	}
	return out
}

func (f *fakeStore) ListTagsByUser(_ context.Context, userID int64) ([]Tag, error) {
	out := make([]Tag, 0)
	for _, t := range f.tags {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name > out[j].Name })
	return out, nil
}

func (f *fakeStore) GetTagByID(_ context.Context, userID, id int64) (*Tag, error) {
	t, ok := f.tags[id]
	if !ok || t.UserID != userID {
		return nil, ErrNotFound
	}
	copied := *t
	return &copied, nil
}

func (f *fakeStore) CreateTag(_ context.Context, t *Tag) (*Tag, error) {
	for _, existing := range f.tags {
		if existing.UserID == t.UserID && existing.Name == t.Name {
			return nil, ErrDuplicateTag
		}
	}
	stored := *t
	stored.ID = f.nextTagID
	f.nextTagID++
	f.tags[stored.ID] = &stored
	copied := stored
	return &copied, nil
}

func (f *fakeStore) UpdateTag(_ context.Context, t *Tag) (*Tag, error) {
	existing, ok := f.tags[t.ID]
	if !ok || existing.UserID != t.UserID {
		return nil, ErrNotFound
	}
	for _, other := range f.tags {
		if other.ID != t.ID && other.UserID == t.UserID && other.Name == t.Name {
			return nil, ErrDuplicateTag
		}
	}
	existing.Name = t.Name
	copied := *existing
	return &copied, nil
}

func (f *fakeStore) DeleteTag(_ context.Context, userID, id int64) error {
	t, ok := f.tags[id]
	if !ok || t.UserID != userID {
		return ErrNotFound
	}
	delete(f.tags, id)
	return nil
}

func newTestService(store Store) *Service {
	return NewService(store, logging.NewLogger(true))
}

func strPtr(s string) *string     { return &s }
func intPtr(i int) *int           { return &i }
func floatPtr(f float64) *float64 { return &f }

func tagsPtr(names ...string) *[]string {
	return &names
}

func fullInput() Input {
	return Input{
		Title:       strPtr("Carbonara"),
		TimeMinutes: intPtr(25),
		Price:       floatPtr(12.50),
		Description: strPtr("Roman pasta with guanciale"),
		Link:        strPtr("https://example.com/carbonara"),
	}
}

func TestCreateRecipe(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	in := fullInput()
	in.Tags = tagsPtr("pasta", "dinner")

	created, err := svc.Create(context.Background(), 7, in)
	require.NoError(t, err)

	assert.Equal(t, int64(1), created.ID)
	require.NotNil(t, created.UserID)
	assert.Equal(t, int64(7), *created.UserID)
	assert.Equal(t, "Carbonara", created.Title)
	assert.Len(t, created.Tags, 2)
}

func TestCreateRecipeRequiredFields(t *testing.T) {
	svc := newTestService(newFakeStore())

	_, err := svc.Create(context.Background(), 7, Input{})

	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "title")
	assert.Contains(t, verr.Fields, "time_minutes")
	assert.Contains(t, verr.Fields, "price")
	assert.Contains(t, verr.Fields, "description")
}

func TestCreateRecipeValidation(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Input)
		wantField string
	}{
		{"title too long", func(in *Input) { in.Title = strPtr("a very long recipe title that exceeds forty chars") }, "title"},
		{"negative time", func(in *Input) { in.TimeMinutes = intPtr(-1) }, "time_minutes"},
		{"negative price", func(in *Input) { in.Price = floatPtr(-0.01) }, "price"},
		{"price too large", func(in *Input) { in.Price = floatPtr(1000000.00) }, "price"},
		{"price too precise", func(in *Input) { in.Price = floatPtr(9.999) }, "price"},
		{"blank tag name", func(in *Input) { in.Tags = tagsPtr("pasta", "") }, "tags"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(newFakeStore())

			in := fullInput()
			tt.mutate(&in)

			_, err := svc.Create(context.Background(), 7, in)

			var verr *validation.Error
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.wantField)
		})
	}
}

func TestListRecipesNewestFirst(t *testing.T) {
	svc := newTestService(newFakeStore())
	ctx := context.Background()

	for _, title := range []string{"First", "Second", "Third"} {
		in := fullInput()
		in.Title = strPtr(title)
		_, err := svc.Create(ctx, 7, in)
		require.NoError(t, err)
	}

	listed, err := svc.List(ctx, 7)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, "Third", listed[0].Title)
	assert.Equal(t, "First", listed[2].Title)
}

func TestGetRecipeScopedToOwner(t *testing.T) {
	svc := newTestService(newFakeStore())
	ctx := context.Background()

	created, err := svc.Create(ctx, 7, fullInput())
	require.NoError(t, err)

	// Another user's lookup misses entirely.
	_, err = svc.Get(ctx, 8, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := svc.Get(ctx, 7, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestReplaceRecipe(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()

	in := fullInput()
	in.Tags = tagsPtr("pasta")
	created, err := svc.Create(ctx, 7, in)
	require.NoError(t, err)

	replacement := fullInput()
	replacement.Title = strPtr("Cacio e pepe")

	updated, err := svc.Replace(ctx, 7, created.ID, replacement)
	require.NoError(t, err)

	assert.Equal(t, "Cacio e pepe", updated.Title)
	// No tags key in the payload leaves existing tags alone.
	assert.Len(t, updated.Tags, 1)
	assert.Nil(t, store.lastTagNames)
}

func TestReplaceRecipeNotFound(t *testing.T) {
	svc := newTestService(newFakeStore())

	_, err := svc.Replace(context.Background(), 7, 42, fullInput())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPatchRecipe(t *testing.T) {
	svc := newTestService(newFakeStore())
	ctx := context.Background()

	created, err := svc.Create(ctx, 7, fullInput())
	require.NoError(t, err)

	patched, err := svc.Patch(ctx, 7, created.ID, Input{Title: strPtr("Amatriciana")})
	require.NoError(t, err)

	assert.Equal(t, "Amatriciana", patched.Title)
	// Untouched fields keep their values.
	assert.Equal(t, 25, patched.TimeMinutes)
	assert.Equal(t, 12.50, patched.Price)
}

func TestPatchRecipeTagSemantics(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()

	in := fullInput()
	in.Tags = tagsPtr("pasta", "dinner")
	created, err := svc.Create(ctx, 7, in)
	require.NoError(t, err)

	t.Run("absent tags key leaves associations untouched", func(t *testing.T) {
		patched, err := svc.Patch(ctx, 7, created.ID, Input{Title: strPtr("Renamed")})
		require.NoError(t, err)
		assert.Len(t, patched.Tags, 2)
		assert.Nil(t, store.lastTagNames)
	})

	t.Run("present tags key replaces the set", func(t *testing.T) {
		patched, err := svc.Patch(ctx, 7, created.ID, Input{Tags: tagsPtr("lunch")})
		require.NoError(t, err)
		require.Len(t, patched.Tags, 1)
		assert.Equal(t, "lunch", patched.Tags[0].Name)
	})

	t.Run("empty tags list clears the set", func(t *testing.T) {
		empty := []string{}
		patched, err := svc.Patch(ctx, 7, created.ID, Input{Tags: &empty})
		require.NoError(t, err)
		assert.Empty(t, patched.Tags)
		require.NotNil(t, store.lastTagNames)
		assert.Empty(t, *store.lastTagNames)
	})
}

func TestPatchRecipeValidation(t *testing.T) {
	svc := newTestService(newFakeStore())
	ctx := context.Background()

	created, err := svc.Create(ctx, 7, fullInput())
	require.NoError(t, err)

	_, err = svc.Patch(ctx, 7, created.ID, Input{Title: strPtr("")})

	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "title")
}

func TestDeleteRecipe(t *testing.T) {
	svc := newTestService(newFakeStore())
	ctx := context.Background()

	created, err := svc.Create(ctx, 7, fullInput())
	require.NoError(t, err)

	// Foreign owner cannot delete.
	assert.ErrorIs(t, svc.Delete(ctx, 8, created.ID), ErrNotFound)

	require.NoError(t, svc.Delete(ctx, 7, created.ID))
	assert.ErrorIs(t, svc.Delete(ctx, 7, created.ID), ErrNotFound)
}
