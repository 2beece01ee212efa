package http

import (
	"net/http"

	"github.com/KarpovAlexandrGo/todo-service/internal/usecase"
	"github.com/go-chi/chi/v5"
)

// CategoryHandler отдает фиксированный список категорий.
type CategoryHandler struct {
	categories usecase.CategoryUseCase
}

func NewCategoryHandler(categories usecase.CategoryUseCase) *CategoryHandler {
	return &CategoryHandler{categories: categories}
}

func (h *CategoryHandler) RegisterRoutes(r chi.Router) {
	r.Get("/categories", h.ListCategories)
}

// ListCategories возвращает все категории.
// @Summary      Список категорий
// @Tags         categories
// @Produce      json
// @Success      200  {array}  entity.Category
// @Router       /categories [get]
func (h *CategoryHandler) ListCategories(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, h.categories.List())
}
