package usecase

import (
	"testing"

	"github.com/KarpovAlexandrGo/todo-service/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryRegistry(t *testing.T) {
	registry, err := NewCategoryRegistry(entity.DefaultCategories())
	require.NoError(t, err)

	list := registry.List()
	assert.Len(t, list, 6)
	assert.True(t, registry.Exists("work"))
	assert.True(t, registry.Exists(entity.DefaultCategoryID))
	assert.False(t, registry.Exists("gardening"))

	list[0].Name = "mutated"
	assert.Equal(t, "Work", registry.List()[0].Name)
}

func TestNewCategoryRegistry_FailsFast(t *testing.T) {
	_, err := NewCategoryRegistry(nil)
	assert.Error(t, err)

	_, err = NewCategoryRegistry([]entity.Category{{ID: "work", Name: "Work"}})
	assert.ErrorContains(t, err, "invalid categories")
}
