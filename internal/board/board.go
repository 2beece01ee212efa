// Package board локальное представление списка задач на стороне клиента.
//
// После каждой мутации список целиком перечитывается с сервера с текущим
// фильтром. Ошибка действия оставляет последние загруженные данные и
// выставляет одно сообщение для пользователя.
package board

import (
	"context"
	"sync"
	"time"

	"github.com/KarpovAlexandrGo/todo-service/internal/client"
	"github.com/KarpovAlexandrGo/todo-service/internal/entity"
	"github.com/KarpovAlexandrGo/todo-service/internal/stats"
	"github.com/KarpovAlexandrGo/todo-service/pkg/logger"
)

const DefaultDebounce = 500 * time.Millisecond

// TaskAPI операции сервера, которые использует доска.
type TaskAPI interface {
	ListTasks(ctx context.Context, filter entity.TaskFilter) ([]entity.Task, error)
	CreateTask(ctx context.Context, input client.TaskInput) (entity.Task, error)
	UpdateTask(ctx context.Context, id string, input client.TaskInput) (entity.Task, error)
	DeleteTask(ctx context.Context, id string) (string, error)
	ListCategories(ctx context.Context) ([]entity.Category, error)
}

// Snapshot копия состояния доски.
type Snapshot struct {
	Tasks      []entity.Task
	Categories []entity.Category
	Filter     entity.TaskFilter
	Err        string
	Loaded     bool
}

// Stats сводка по показанным задачам.
func (s Snapshot) Stats(now time.Time) stats.Summary {
	return stats.Compute(s.Tasks, s.Categories, now)
}

type Option func(*Board)

func WithDebounce(d time.Duration) Option {
	return func(b *Board) {
		if d > 0 {
			b.debounce = d
		}
	}
}

// WithOnChange вызывается после каждого применённого изменения состояния.
func WithOnChange(fn func(Snapshot)) Option {
	return func(b *Board) {
		b.onChange = fn
	}
}

type Board struct {
	api      TaskAPI
	debounce time.Duration
	onChange func(Snapshot)

	mu         sync.Mutex
	filter     entity.TaskFilter
	tasks      []entity.Task
	categories []entity.Category
	errMsg     string
	loaded     bool

	// generation растет на каждый запрос списка; применяется только последний.
	generation uint64
	cancel     context.CancelFunc
	timer      *time.Timer
	pending    string
}

func New(api TaskAPI, opts ...Option) *Board {
	b := &Board{
		api:      api,
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Board) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked()
}

func (b *Board) snapshotLocked() Snapshot {
	tasks := make([]entity.Task, len(b.tasks))
	copy(tasks, b.tasks)
	categories := make([]entity.Category, len(b.categories))
	copy(categories, b.categories)
	return Snapshot{
		Tasks:      tasks,
		Categories: categories,
		Filter:     b.filter,
		Err:        b.errMsg,
		Loaded:     b.loaded,
	}
}

// Load загружает категории и список задач.
func (b *Board) Load(ctx context.Context) error {
	categories, err := b.api.ListCategories(ctx)
	if err != nil {
		b.fail(err)
		return err
	}
	b.mu.Lock()
	b.categories = categories
	b.mu.Unlock()

	return b.Refresh(ctx)
}

// Refresh перечитывает список с текущим фильтром. Более ранний незавершенный
// запрос отменяется, и его результат не применяется.
func (b *Board) Refresh(ctx context.Context) error {
	b.mu.Lock()
	if b.cancel != nil {
		b.cancel()
	}
	b.generation++
	gen := b.generation
	filter := b.filter
	reqCtx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.mu.Unlock()

	defer cancel()
	tasks, err := b.api.ListTasks(reqCtx, filter)

	b.mu.Lock()
	if gen != b.generation {
		b.mu.Unlock()
		return nil
	}
	b.cancel = nil
	if err != nil {
		b.errMsg = client.Message(err)
		snap := b.snapshotLocked()
		b.mu.Unlock()
		logger.Log.WithError(err).Warn("Failed to load tasks")
		b.notify(snap)
		return err
	}
	b.tasks = tasks
	b.errMsg = ""
	b.loaded = true
	snap := b.snapshotLocked()
	b.mu.Unlock()

	b.notify(snap)
	return nil
}

// SetFilter меняет фильтр и сразу перечитывает список.
func (b *Board) SetFilter(ctx context.Context, filter entity.TaskFilter) error {
	b.mu.Lock()
	b.stopTimerLocked()
	b.filter = filter
	b.mu.Unlock()
	return b.Refresh(ctx)
}

// Search меняет строку поиска с задержкой debounce; каждый новый вызов
// переносит запрос.
func (b *Board) Search(ctx context.Context, query string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stopTimerLocked()
	b.pending = query
	var timer *time.Timer
	timer = time.AfterFunc(b.debounce, func() {
		b.mu.Lock()
		if b.timer != timer {
			b.mu.Unlock()
			return
		}
		b.filter.Query = query
		b.timer = nil
		b.mu.Unlock()
		_ = b.Refresh(ctx)
	})
	b.timer = timer
}

// Flush сразу выполняет отложенный поиск, если он есть.
func (b *Board) Flush(ctx context.Context) error {
	b.mu.Lock()
	if b.timer == nil {
		b.mu.Unlock()
		return nil
	}
	b.stopTimerLocked()
	b.filter.Query = b.pending
	b.mu.Unlock()
	return b.Refresh(ctx)
}

func (b *Board) Add(ctx context.Context, input client.TaskInput) error {
	if _, err := b.api.CreateTask(ctx, input); err != nil {
		b.fail(err)
		return err
	}
	return b.Refresh(ctx)
}

func (b *Board) Update(ctx context.Context, id string, input client.TaskInput) error {
	if _, err := b.api.UpdateTask(ctx, id, input); err != nil {
		b.fail(err)
		return err
	}
	return b.Refresh(ctx)
}

// Toggle переключает статус выполнения задачи из текущего списка.
func (b *Board) Toggle(ctx context.Context, id string) error {
	completed := true
	b.mu.Lock()
	for _, t := range b.tasks {
		if t.ID == id {
			completed = !t.IsCompleted
			break
		}
	}
	b.mu.Unlock()
	return b.Update(ctx, id, client.TaskInput{IsCompleted: &completed})
}

func (b *Board) Delete(ctx context.Context, id string) error {
	if _, err := b.api.DeleteTask(ctx, id); err != nil {
		b.fail(err)
		return err
	}
	return b.Refresh(ctx)
}

// Close останавливает отложенный поиск и отменяет запрос в полете.
func (b *Board) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopTimerLocked()
	b.generation++
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
}

func (b *Board) stopTimerLocked() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}

func (b *Board) fail(err error) {
	b.mu.Lock()
	b.errMsg = client.Message(err)
	snap := b.snapshotLocked()
	b.mu.Unlock()

	logger.Log.WithError(err).Warn("Task action failed")
	b.notify(snap)
}

func (b *Board) notify(snap Snapshot) {
	if b.onChange != nil {
		b.onChange(snap)
	}
}
