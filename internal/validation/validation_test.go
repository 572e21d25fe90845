package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCollectsFields(t *testing.T) {
	verr := NewError()
	assert.False(t, verr.HasErrors())
	assert.NoError(t, verr.ErrOrNil())

	verr.Add("title", "title is required")
	verr.Add("price", "price must not be negative")

	assert.True(t, verr.HasErrors())
	assert.Equal(t, "title is required", verr.Fields["title"])
	assert.Equal(t, "validation failed: price, title", verr.Error())
}

func TestErrOrNilReturnsUntypedNil(t *testing.T) {
	// A typed nil here would make err != nil in callers.
	err := NewError().ErrOrNil()
	assert.Nil(t, err)
	assert.True(t, err == nil)
}

func TestErrOrNilReturnsSameError(t *testing.T) {
	verr := NewError()
	verr.Add("name", "name is required")

	err := verr.ErrOrNil()
	assert.Same(t, verr, err)
}
