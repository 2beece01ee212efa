package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/KarpovAlexandrGo/todo-service/internal/entity"
	"github.com/KarpovAlexandrGo/todo-service/internal/stats"
	"gopkg.in/yaml.v3"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

// taskView представление задачи для json/yaml без типов сервера.
type taskView struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	IsCompleted bool   `json:"isCompleted" yaml:"isCompleted"`
	DueDate     string `json:"dueDate,omitempty" yaml:"dueDate,omitempty"`
	Category    string `json:"category" yaml:"category"`
	CreatedAt   string `json:"createdAt" yaml:"createdAt"`
}

func toView(t entity.Task) taskView {
	v := taskView{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		IsCompleted: t.IsCompleted,
		Category:    t.Category,
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
	}
	if t.DueDate != nil {
		v.DueDate = t.DueDate.Format(time.RFC3339)
	}
	return v
}

type printer struct {
	out    io.Writer
	format string
}

func (p printer) structured(v interface{}) (bool, error) {
	switch p.format {
	case formatJSON:
		enc := json.NewEncoder(p.out)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(p.out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, err
		}
		return true, enc.Close()
	}
	return false, nil
}

func (p printer) tasks(tasks []entity.Task) error {
	views := make([]taskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, toView(t))
	}
	if ok, err := p.structured(views); ok {
		return err
	}

	if len(tasks) == 0 {
		_, err := fmt.Fprintln(p.out, "No tasks.")
		return err
	}
	w := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDONE\tTITLE\tCATEGORY\tDUE")
	for _, t := range tasks {
		done := " "
		if t.IsCompleted {
			done = "x"
		}
		due := "-"
		if t.DueDate != nil {
			due = t.DueDate.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s\t[%s]\t%s\t%s\t%s\n", t.ID, done, t.Title, t.Category, due)
	}
	return w.Flush()
}

func (p printer) task(t entity.Task) error {
	if ok, err := p.structured(toView(t)); ok {
		return err
	}
	return p.tasks([]entity.Task{t})
}

func (p printer) categories(categories []entity.Category) error {
	if ok, err := p.structured(categories); ok {
		return err
	}
	w := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCOLOR")
	for _, c := range categories {
		fmt.Fprintf(w, "%s\t%s\t%s\n", c.ID, c.Name, c.Color)
	}
	return w.Flush()
}

func (p printer) stats(s stats.Summary) error {
	if ok, err := p.structured(s); ok {
		return err
	}
	w := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Total:\t%d\n", s.Total)
	fmt.Fprintf(w, "Completed:\t%d\n", s.Completed)
	fmt.Fprintf(w, "Completion rate:\t%d%%\n", s.CompletionRate)
	fmt.Fprintf(w, "Overdue:\t%d\n", s.Overdue)
	if len(s.ByCategory) > 0 {
		fmt.Fprintln(w, "")
		fmt.Fprintln(w, "CATEGORY\tDONE/TOTAL\tBAR")
		for _, c := range s.ByCategory {
			fmt.Fprintf(w, "%s\t%d/%d\t%s\n", c.Category.Name, c.Completed, c.Total, bar(c.Completed, c.Total))
		}
	}
	return w.Flush()
}

func (p printer) message(msg string) error {
	if ok, err := p.structured(map[string]string{"message": msg}); ok {
		return err
	}
	_, err := fmt.Fprintln(p.out, msg)
	return err
}

func bar(done, total int) string {
	const width = 10
	if total == 0 {
		return strings.Repeat(".", width)
	}
	filled := done * width / total
	return strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + " " + strconv.Itoa(done*100/total) + "%"
}
