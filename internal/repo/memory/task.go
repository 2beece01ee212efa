package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/KarpovAlexandrGo/todo-service/internal/entity"
)

// TaskRepository хранит задачи в памяти процесса в порядке вставки.
type TaskRepository struct {
	mu    sync.RWMutex
	order []string
	tasks map[string]entity.Task
}

func NewTaskRepository() *TaskRepository {
	return &TaskRepository{
		tasks: make(map[string]entity.Task),
	}
}

func (r *TaskRepository) Create(ctx context.Context, task entity.Task) (entity.Task, error) {
	if err := ctx.Err(); err != nil {
		return entity.Task{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tasks[task.ID]; exists {
		return entity.Task{}, fmt.Errorf("task %s already exists", task.ID)
	}
	r.tasks[task.ID] = task
	r.order = append(r.order, task.ID)
	return task, nil
}

func (r *TaskRepository) Get(ctx context.Context, id string) (entity.Task, error) {
	if err := ctx.Err(); err != nil {
		return entity.Task{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	task, ok := r.tasks[id]
	if !ok {
		return entity.Task{}, entity.ErrTaskNotFound
	}
	return task, nil
}

func (r *TaskRepository) List(ctx context.Context) ([]entity.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	tasks := make([]entity.Task, 0, len(r.order))
	for _, id := range r.order {
		tasks = append(tasks, r.tasks[id])
	}
	return tasks, nil
}

func (r *TaskRepository) Update(ctx context.Context, id string, patch entity.TaskPatch) (entity.Task, error) {
	if err := ctx.Err(); err != nil {
		return entity.Task{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[id]
	if !ok {
		return entity.Task{}, entity.ErrTaskNotFound
	}
	patch.Apply(&task)
	r.tasks[id] = task
	return task, nil
}

func (r *TaskRepository) Delete(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[id]; !ok {
		return false, nil
	}
	delete(r.tasks, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true, nil
}

// Count текущее число задач.
func (r *TaskRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}
