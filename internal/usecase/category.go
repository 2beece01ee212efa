package usecase

import (
	"fmt"

	"github.com/KarpovAlexandrGo/todo-service/internal/entity"
)

type CategoryUseCase interface {
	List() []entity.Category
	Exists(id string) bool
}

// CategoryRegistry неизменяемый набор категорий, загружается один раз при старте.
type CategoryRegistry struct {
	categories []entity.Category
	index      map[string]struct{}
}

func NewCategoryRegistry(categories []entity.Category) (*CategoryRegistry, error) {
	if err := entity.ValidateCategories(categories); err != nil {
		return nil, fmt.Errorf("invalid categories: %w", err)
	}

	r := &CategoryRegistry{
		categories: make([]entity.Category, len(categories)),
		index:      make(map[string]struct{}, len(categories)),
	}
	copy(r.categories, categories)
	for _, c := range categories {
		r.index[c.ID] = struct{}{}
	}
	return r, nil
}

func (r *CategoryRegistry) List() []entity.Category {
	out := make([]entity.Category, len(r.categories))
	copy(out, r.categories)
	return out
}

func (r *CategoryRegistry) Exists(id string) bool {
	_, ok := r.index[id]
	return ok
}
