package entity

import "strings"

// TaskFilter три независимых условия, объединенных через AND.
// Нулевое значение не ограничивает выборку.
type TaskFilter struct {
	Category    *string
	IsCompleted *bool
	Query       string
}

func (f TaskFilter) IsZero() bool {
	return f.Category == nil && f.IsCompleted == nil && strings.TrimSpace(f.Query) == ""
}

func (f TaskFilter) Match(t Task) bool {
	if f.Category != nil && t.Category != *f.Category {
		return false
	}
	if f.IsCompleted != nil && t.IsCompleted != *f.IsCompleted {
		return false
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		if !strings.Contains(strings.ToLower(t.Title), strings.ToLower(q)) {
			return false
		}
	}
	return true
}

// Apply возвращает новый срез с подходящими задачами в исходном порядке.
func (f TaskFilter) Apply(tasks []Task) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}
