package reminder

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/KarpovAlexandrGo/todo-service/internal/entity"
	"github.com/KarpovAlexandrGo/todo-service/pkg/logger"
	"github.com/sirupsen/logrus"
)

const DefaultInterval = 30 * time.Minute

var ErrPermissionDenied = errors.New("notification permission denied")

type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// Notifier способ показать уведомление пользователю.
// Повторный Notify с тем же dedupeKey может заменить предыдущее уведомление.
type Notifier interface {
	RequestPermission(ctx context.Context) (Permission, error)
	Notify(ctx context.Context, title, body, dedupeKey string) error
}

// TaskSource источник актуального списка задач.
type TaskSource interface {
	ListTasks(ctx context.Context, filter entity.TaskFilter) ([]entity.Task, error)
}

type Option func(*Scheduler)

func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

// Scheduler периодически проверяет задачи и не повторяет уведомление
// для уже отправленной пары задача/окно.
type Scheduler struct {
	source   TaskSource
	notifier Notifier
	interval time.Duration
	now      func() time.Time

	mu   sync.Mutex
	sent map[string]struct{}
}

func NewScheduler(source TaskSource, notifier Notifier, opts ...Option) *Scheduler {
	s := &Scheduler{
		source:   source,
		notifier: notifier,
		interval: DefaultInterval,
		now:      time.Now,
		sent:     make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tick одна проверка. Возвращает число отправленных уведомлений.
func (s *Scheduler) Tick(ctx context.Context) (int, error) {
	active := false
	tasks, err := s.source.ListTasks(ctx, entity.TaskFilter{IsCompleted: &active})
	if err != nil {
		return 0, err
	}

	reminders := Evaluate(s.now(), tasks)

	s.mu.Lock()
	defer s.mu.Unlock()

	current := make(map[string]struct{}, len(reminders))
	sent := 0
	for _, r := range reminders {
		current[r.Key] = struct{}{}
		if _, done := s.sent[r.Key]; done {
			continue
		}
		if err := s.notifier.Notify(ctx, r.Title(), r.Body(), r.Key); err != nil {
			logger.Log.WithFields(logrus.Fields{"task_id": r.Task.ID, "kind": r.Kind}).WithError(err).Warn("Failed to send reminder")
			continue
		}
		s.sent[r.Key] = struct{}{}
		sent++
	}

	// Ключи вне текущих окон больше не нужны.
	for key := range s.sent {
		if _, ok := current[key]; !ok {
			delete(s.sent, key)
		}
	}
	return sent, nil
}

// Run запрашивает разрешение и проверяет задачи сразу и затем каждые interval
// до отмены ctx.
func (s *Scheduler) Run(ctx context.Context) error {
	perm, err := s.notifier.RequestPermission(ctx)
	if err != nil {
		return err
	}
	if perm != PermissionGranted {
		return ErrPermissionDenied
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if n, err := s.Tick(ctx); err != nil {
			logger.Log.WithError(err).Warn("Reminder check failed")
		} else if n > 0 {
			logger.Log.WithField("count", n).Debug("Reminders sent")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
