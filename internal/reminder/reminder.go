// Package reminder напоминания о сроках задач.
package reminder

import (
	"fmt"
	"sort"
	"time"

	"github.com/KarpovAlexandrGo/todo-service/internal/entity"
)

type Kind string

const (
	// KindTomorrow срок наступает через (23ч, 24ч].
	KindTomorrow Kind = "tomorrow"
	// KindSoon срок наступает через (0, 1ч].
	KindSoon Kind = "soon"
)

type Reminder struct {
	Task entity.Task
	Kind Kind
	// Key тег для дедупликации: задача, окно и момент срока.
	Key string
}

func (r Reminder) Title() string {
	switch r.Kind {
	case KindSoon:
		return "Task due soon"
	default:
		return "Task due tomorrow"
	}
}

func (r Reminder) Body() string {
	due := r.Task.DueDate.Local().Format("Jan 2 15:04")
	switch r.Kind {
	case KindSoon:
		return fmt.Sprintf("%q is due within the hour (%s).", r.Task.Title, due)
	default:
		return fmt.Sprintf("%q is due tomorrow (%s).", r.Task.Title, due)
	}
}

// Evaluate чистая функция: какие задачи попадают в окна напоминаний в момент now.
// Выполненные задачи и задачи без срока пропускаются.
func Evaluate(now time.Time, tasks []entity.Task) []Reminder {
	var out []Reminder
	for _, t := range tasks {
		if t.IsCompleted || t.DueDate == nil {
			continue
		}
		left := t.DueDate.Sub(now)

		var kind Kind
		switch {
		case left > 23*time.Hour && left <= 24*time.Hour:
			kind = KindTomorrow
		case left > 0 && left <= time.Hour:
			kind = KindSoon
		default:
			continue
		}
		out = append(out, Reminder{Task: t, Kind: kind, Key: dedupeKey(t, kind)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Task.DueDate.Before(out[j].Task.DueDate.Time)
	})
	return out
}

func dedupeKey(t entity.Task, kind Kind) string {
	return fmt.Sprintf("%s:%s:%d", t.ID, kind, t.DueDate.Unix())
}
