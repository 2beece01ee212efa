package entity

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	// TitleRequiredMessage текст ошибки при отсутствующем или пустом заголовке.
	TitleRequiredMessage = "Task title is required and must be a string."

	dateLayout = "2006-01-02"
)

type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	IsCompleted bool      `json:"isCompleted"`
	DueDate     *Date     `json:"dueDate"`
	Category    string    `json:"category"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewTask описывает входные данные для создания задачи.
type NewTask struct {
	Title       string
	Description string
	DueDate     *Date
	Category    string
}

func (n NewTask) Validate() error {
	return ValidateTitle(n.Title)
}

// ValidateTitle проверяет, что заголовок не пустой после обрезки пробелов.
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return NewValidationError("title", TitleRequiredMessage)
	}
	return nil
}

// TaskPatch частичное обновление: nil означает "поле не передано".
type TaskPatch struct {
	Title        *string
	Description  *string
	IsCompleted  *bool
	DueDate      *Date
	ClearDueDate bool
	Category     *string
}

func (p TaskPatch) Validate() error {
	if p.Title != nil {
		if err := ValidateTitle(*p.Title); err != nil {
			return err
		}
	}
	if p.DueDate != nil && p.ClearDueDate {
		return NewValidationError("dueDate", "dueDate cannot be set and cleared at once")
	}
	return nil
}

// Apply переносит переданные поля в задачу, остальные не трогает.
func (p TaskPatch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.IsCompleted != nil {
		t.IsCompleted = *p.IsCompleted
	}
	if p.ClearDueDate {
		t.DueDate = nil
	} else if p.DueDate != nil {
		d := *p.DueDate
		t.DueDate = &d
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
}

// Date срок выполнения. Принимает RFC 3339 или календарную дату "2006-01-02"
// (полночь по локальному времени), сериализуется в RFC 3339.
type Date struct {
	time.Time
}

func NewDate(t time.Time) *Date {
	return &Date{Time: t}
}

func ParseDate(s string) (Date, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return Date{Time: t}, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected RFC 3339 or YYYY-MM-DD", s)
	}
	return Date{Time: t}, nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Time.Format(time.RFC3339))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return NewValidationError("dueDate", "dueDate must be a string")
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return NewValidationError("dueDate", err.Error())
	}
	*d = parsed
	return nil
}
