// Package stats сводка по списку задач для панели статистики.
package stats

import (
	"math"
	"time"

	"github.com/KarpovAlexandrGo/todo-service/internal/entity"
)

// FallbackColor цвет для задач с категорией, которой нет в списке.
const FallbackColor = "#95a5a6"

type CategoryCount struct {
	Category  entity.Category `json:"category" yaml:"category"`
	Total     int             `json:"total" yaml:"total"`
	Completed int             `json:"completed" yaml:"completed"`
}

type Summary struct {
	Total          int             `json:"total" yaml:"total"`
	Completed      int             `json:"completed" yaml:"completed"`
	CompletionRate int             `json:"completionRate" yaml:"completionRate"`
	Overdue        int             `json:"overdue" yaml:"overdue"`
	ByCategory     []CategoryCount `json:"byCategory" yaml:"byCategory"`
}

// Compute считает сводку. Категории без задач в разбивку не попадают,
// порядок разбивки совпадает с порядком categories.
func Compute(tasks []entity.Task, categories []entity.Category, now time.Time) Summary {
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var s Summary
	counts := make(map[string]*CategoryCount)
	var order []string

	for _, t := range tasks {
		s.Total++
		if t.IsCompleted {
			s.Completed++
		} else if t.DueDate != nil && t.DueDate.Before(startOfDay) {
			s.Overdue++
		}

		c, ok := counts[t.Category]
		if !ok {
			c = &CategoryCount{}
			counts[t.Category] = c
			order = append(order, t.Category)
		}
		c.Total++
		if t.IsCompleted {
			c.Completed++
		}
	}

	if s.Total > 0 {
		s.CompletionRate = int(math.Round(float64(s.Completed) / float64(s.Total) * 100))
	}

	s.ByCategory = make([]CategoryCount, 0, len(counts))
	known := make(map[string]struct{}, len(categories))
	for _, cat := range categories {
		known[cat.ID] = struct{}{}
		if c, ok := counts[cat.ID]; ok {
			c.Category = cat
			s.ByCategory = append(s.ByCategory, *c)
		}
	}
	for _, id := range order {
		if _, ok := known[id]; ok {
			continue
		}
		c := counts[id]
		c.Category = entity.Category{ID: id, Name: id, Color: FallbackColor}
		s.ByCategory = append(s.ByCategory, *c)
	}
	return s
}
