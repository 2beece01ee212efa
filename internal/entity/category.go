package entity

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultCategoryID категория задач без явно указанной категории.
const DefaultCategoryID = "other"

type Category struct {
	ID    string `json:"id" mapstructure:"id" yaml:"id"`
	Name  string `json:"name" mapstructure:"name" yaml:"name"`
	Color string `json:"color" mapstructure:"color" yaml:"color"`
}

func DefaultCategories() []Category {
	return []Category{
		{ID: "work", Name: "Work", Color: "#3498db"},
		{ID: "study", Name: "Study", Color: "#e74c3c"},
		{ID: "personal", Name: "Personal", Color: "#2ecc71"},
		{ID: "health", Name: "Health", Color: "#f39c12"},
		{ID: "shopping", Name: "Shopping", Color: "#9b59b6"},
		{ID: DefaultCategoryID, Name: "Other", Color: "#95a5a6"},
	}
}

// ValidateCategories проверяет набор категорий, загруженный из конфигурации.
func ValidateCategories(categories []Category) error {
	if len(categories) == 0 {
		return errors.New("category list is empty")
	}
	seen := make(map[string]struct{}, len(categories))
	for i, c := range categories {
		if strings.TrimSpace(c.ID) == "" {
			return fmt.Errorf("category #%d has empty id", i)
		}
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("category %q has empty name", c.ID)
		}
		if _, dup := seen[c.ID]; dup {
			return fmt.Errorf("duplicate category id %q", c.ID)
		}
		seen[c.ID] = struct{}{}
	}
	if _, ok := seen[DefaultCategoryID]; !ok {
		return fmt.Errorf("category list must contain %q", DefaultCategoryID)
	}
	return nil
}
