package usecase

import (
	"context"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/KarpovAlexandrGo/todo-service/internal/entity"
	"github.com/KarpovAlexandrGo/todo-service/pkg/logger"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

const (
	defaultStoreTimeout = 5 * time.Second
	defaultCacheTTL     = 5 * time.Minute
)

var tracer = otel.Tracer("github.com/KarpovAlexandrGo/todo-service/internal/usecase")

type TaskUseCase interface {
	Create(ctx context.Context, input entity.NewTask) (entity.Task, error)
	Get(ctx context.Context, id string) (entity.Task, error)
	List(ctx context.Context, filter entity.TaskFilter) ([]entity.Task, error)
	Update(ctx context.Context, id string, patch entity.TaskPatch) (entity.Task, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type TaskRepository interface {
	Create(ctx context.Context, task entity.Task) (entity.Task, error)
	Get(ctx context.Context, id string) (entity.Task, error)
	List(ctx context.Context) ([]entity.Task, error)
	// Update применяет patch атомарно для одной записи.
	Update(ctx context.Context, id string, patch entity.TaskPatch) (entity.Task, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type CacheRepository interface {
	SetTasks(ctx context.Context, tasks []entity.Task, ttl time.Duration) error
	GetTasks(ctx context.Context) ([]entity.Task, bool, error)
	Invalidate(ctx context.Context) error
}

// MetricsRecorder учитывает результаты операций над задачами.
type MetricsRecorder interface {
	ObserveTaskOperation(op, result string)
}

type Option func(*TaskUseCaseImpl)

func WithStoreTimeout(d time.Duration) Option {
	return func(uc *TaskUseCaseImpl) {
		if d > 0 {
			uc.storeTimeout = d
		}
	}
}

func WithCacheTTL(d time.Duration) Option {
	return func(uc *TaskUseCaseImpl) {
		if d > 0 {
			uc.cacheTTL = d
		}
	}
}

func WithMetrics(m MetricsRecorder) Option {
	return func(uc *TaskUseCaseImpl) {
		uc.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(uc *TaskUseCaseImpl) {
		uc.now = now
	}
}

func WithIDGenerator(gen func() string) Option {
	return func(uc *TaskUseCaseImpl) {
		uc.newID = gen
	}
}

type TaskUseCaseImpl struct {
	taskRepo   TaskRepository
	cacheRepo  CacheRepository
	categories CategoryUseCase
	metrics    MetricsRecorder

	storeTimeout time.Duration
	cacheTTL     time.Duration
	now          func() time.Time
	newID        func() string

	loads singleflight.Group
	// version растет при каждой мутации; список, загруженный до мутации, не кэшируется.
	version atomic.Uint64
}

func NewTaskUseCase(taskRepo TaskRepository, cacheRepo CacheRepository, categories CategoryUseCase, opts ...Option) *TaskUseCaseImpl {
	uc := &TaskUseCaseImpl{
		taskRepo:     taskRepo,
		cacheRepo:    cacheRepo,
		categories:   categories,
		storeTimeout: defaultStoreTimeout,
		cacheTTL:     defaultCacheTTL,
		now:          time.Now,
		newID:        func() string { return uuid.New().String() },
	}
	if uc.cacheRepo == nil {
		uc.cacheRepo = NopCache{}
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

func (uc *TaskUseCaseImpl) Create(ctx context.Context, input entity.NewTask) (entity.Task, error) {
	ctx, span := tracer.Start(ctx, "TaskUseCase.Create")
	defer span.End()

	logger.Log.WithField("title", input.Title).Debug("Starting task creation")

	if err := input.Validate(); err != nil {
		logger.Log.WithError(err).Warn("Task validation failed")
		uc.observe("create", err)
		return entity.Task{}, err
	}

	category, err := uc.resolveCategory(input.Category)
	if err != nil {
		uc.observe("create", err)
		return entity.Task{}, err
	}

	task := entity.Task{
		ID:          uc.newID(),
		Title:       input.Title,
		Description: input.Description,
		IsCompleted: false,
		DueDate:     input.DueDate,
		Category:    category,
		CreatedAt:   uc.now().UTC().Truncate(time.Microsecond),
	}

	ctx, cancel := context.WithTimeout(ctx, uc.storeTimeout)
	defer cancel()

	uc.version.Add(1)
	createdTask, err := uc.taskRepo.Create(ctx, task)
	if err != nil {
		err = entity.NewInfrastructureError("create task", err)
		recordSpanError(span, err)
		logger.Log.WithError(err).Error("Failed to create task")
		uc.observe("create", err)
		return entity.Task{}, err
	}
	uc.invalidate(ctx, "create")

	span.SetAttributes(attribute.String("task.id", createdTask.ID))
	logger.Log.WithField("task_id", createdTask.ID).Info("Task created successfully")
	uc.observe("create", nil)
	return createdTask, nil
}

func (uc *TaskUseCaseImpl) Get(ctx context.Context, id string) (entity.Task, error) {
	ctx, span := tracer.Start(ctx, "TaskUseCase.Get", trace.WithAttributes(attribute.String("task.id", id)))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, uc.storeTimeout)
	defer cancel()

	task, err := uc.taskRepo.Get(ctx, id)
	if err != nil {
		err = entity.NewInfrastructureError("get task", err)
		if !entity.IsInfrastructure(err) {
			return entity.Task{}, err
		}
		recordSpanError(span, err)
		logger.Log.WithField("task_id", id).WithError(err).Error("Failed to get task from repository")
		return entity.Task{}, err
	}
	return task, nil
}

func (uc *TaskUseCaseImpl) List(ctx context.Context, filter entity.TaskFilter) ([]entity.Task, error) {
	ctx, span := tracer.Start(ctx, "TaskUseCase.List")
	defer span.End()

	tasks, err := uc.allTasks(ctx)
	if err != nil {
		recordSpanError(span, err)
		logger.Log.WithError(err).Error("Failed to list tasks")
		return nil, err
	}

	result := filter.Apply(tasks)
	span.SetAttributes(attribute.Int("task.count", len(result)))
	logger.Log.WithFields(logrus.Fields{"total": len(tasks), "count": len(result)}).Debug("Tasks listed")
	return result, nil
}

// allTasks читает полный список из кэша, при промахе загружает его из
// репозитория одним запросом на все конкурентные вызовы.
func (uc *TaskUseCaseImpl) allTasks(ctx context.Context) ([]entity.Task, error) {
	tasks, ok, err := uc.cacheRepo.GetTasks(ctx)
	if err != nil {
		logger.Log.WithError(err).Warn("Failed to read tasks from cache")
	} else if ok {
		logger.Log.Debug("Tasks retrieved from cache")
		return tasks, nil
	}

	// Ключ включает версию: вызов после мутации не присоединяется к более ранней загрузке.
	version := uc.version.Load()
	v, err, _ := uc.loads.Do("tasks:"+strconv.FormatUint(version, 10), func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.storeTimeout)
		defer cancel()

		tasks, err := uc.taskRepo.List(loadCtx)
		if err != nil {
			return nil, entity.NewInfrastructureError("list tasks", err)
		}
		if tasks == nil {
			tasks = []entity.Task{}
		}

		if uc.version.Load() == version {
			if err := uc.cacheRepo.SetTasks(loadCtx, tasks, uc.cacheTTL); err != nil {
				logger.Log.WithError(err).Warn("Failed to set tasks in cache")
			}
		}
		return tasks, nil
	})
	if err != nil {
		return nil, err
	}

	shared := v.([]entity.Task)
	out := make([]entity.Task, len(shared))
	copy(out, shared)
	return out, nil
}

func (uc *TaskUseCaseImpl) Update(ctx context.Context, id string, patch entity.TaskPatch) (entity.Task, error) {
	ctx, span := tracer.Start(ctx, "TaskUseCase.Update", trace.WithAttributes(attribute.String("task.id", id)))
	defer span.End()

	if err := patch.Validate(); err != nil {
		logger.Log.WithField("task_id", id).WithError(err).Warn("Validation failed during task update")
		uc.observe("update", err)
		return entity.Task{}, err
	}
	if patch.Category != nil {
		category, err := uc.resolveCategory(*patch.Category)
		if err != nil {
			uc.observe("update", err)
			return entity.Task{}, err
		}
		patch.Category = &category
	}

	ctx, cancel := context.WithTimeout(ctx, uc.storeTimeout)
	defer cancel()

	uc.version.Add(1)
	updatedTask, err := uc.taskRepo.Update(ctx, id, patch)
	if err != nil {
		err = entity.NewInfrastructureError("update task", err)
		uc.observe("update", err)
		if entity.IsInfrastructure(err) {
			recordSpanError(span, err)
			logger.Log.WithField("task_id", id).WithError(err).Error("Failed to update task in repository")
		}
		return entity.Task{}, err
	}
	uc.invalidate(ctx, "update")

	logger.Log.WithField("task_id", id).Info("Task updated successfully")
	uc.observe("update", nil)
	return updatedTask, nil
}

func (uc *TaskUseCaseImpl) Delete(ctx context.Context, id string) (bool, error) {
	ctx, span := tracer.Start(ctx, "TaskUseCase.Delete", trace.WithAttributes(attribute.String("task.id", id)))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, uc.storeTimeout)
	defer cancel()

	uc.version.Add(1)
	removed, err := uc.taskRepo.Delete(ctx, id)
	if err != nil {
		err = entity.NewInfrastructureError("delete task", err)
		recordSpanError(span, err)
		logger.Log.WithField("task_id", id).WithError(err).Error("Failed to delete task from repository")
		uc.observe("delete", err)
		return false, err
	}

	span.SetAttributes(attribute.Bool("task.removed", removed))
	if !removed {
		uc.observe("delete", entity.ErrTaskNotFound)
		return false, nil
	}
	uc.invalidate(ctx, "delete")

	logger.Log.WithField("task_id", id).Info("Task deleted successfully")
	uc.observe("delete", nil)
	return true, nil
}

func (uc *TaskUseCaseImpl) resolveCategory(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return entity.DefaultCategoryID, nil
	}
	if uc.categories != nil && !uc.categories.Exists(id) {
		return "", entity.NewValidationError("category", "Unknown category: "+id)
	}
	return id, nil
}

func (uc *TaskUseCaseImpl) invalidate(ctx context.Context, op string) {
	uc.version.Add(1)
	if err := uc.cacheRepo.Invalidate(ctx); err != nil {
		logger.Log.WithField("method", op).WithError(err).Error("Failed to invalidate cache")
	}
}

func (uc *TaskUseCaseImpl) observe(op string, err error) {
	if uc.metrics == nil {
		return
	}
	uc.metrics.ObserveTaskOperation(op, resultLabel(err))
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case entity.IsValidation(err):
		return "invalid"
	case entity.IsInfrastructure(err):
		return "error"
	default:
		return "not_found"
	}
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// NopCache кэш-заглушка, когда Redis не настроен.
type NopCache struct{}

func (NopCache) SetTasks(context.Context, []entity.Task, time.Duration) error { return nil }

func (NopCache) GetTasks(context.Context) ([]entity.Task, bool, error) { return nil, false, nil }

func (NopCache) Invalidate(context.Context) error { return nil }
