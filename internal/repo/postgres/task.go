package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/KarpovAlexandrGo/todo-service/internal/entity"
	"github.com/KarpovAlexandrGo/todo-service/pkg/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

const taskColumns = `id, title, description, is_completed, due_date, category, created_at`

type TaskRepository struct {
	db     *pgxpool.Pool
	logger *logrus.Logger
}

func NewTaskRepository(db *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{
		db:     db,
		logger: logger.Log,
	}
}

func (r *TaskRepository) Create(ctx context.Context, task entity.Task) (entity.Task, error) {
	query := `
		INSERT INTO tasks (id, title, description, is_completed, due_date, category, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + taskColumns

	created, err := scanTask(r.db.QueryRow(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		task.IsCompleted,
		dueParam(task.DueDate),
		task.Category,
		task.CreatedAt,
	))
	if err != nil {
		r.logger.WithFields(logrus.Fields{
			"method":  "Create",
			"task_id": task.ID,
			"title":   task.Title,
		}).WithError(err).Error("Failed to create task")
		return entity.Task{}, entity.NewInfrastructureError("postgres: create task", err)
	}
	return created, nil
}

func (r *TaskRepository) Get(ctx context.Context, id string) (entity.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	task, err := scanTask(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.Task{}, entity.ErrTaskNotFound
		}
		r.logger.WithFields(logrus.Fields{
			"method":  "Get",
			"task_id": id,
		}).WithError(err).Error("Failed to get task")
		return entity.Task{}, entity.NewInfrastructureError("postgres: get task", err)
	}
	return task, nil
}

func (r *TaskRepository) List(ctx context.Context) ([]entity.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks ORDER BY seq`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.logger.WithField("method", "List").WithError(err).Error("Failed to list tasks")
		return nil, entity.NewInfrastructureError("postgres: list tasks", err)
	}
	defer rows.Close()

	tasks := []entity.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			r.logger.WithField("method", "List").WithError(err).Error("Failed to scan task row")
			return nil, entity.NewInfrastructureError("postgres: scan task row", err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		r.logger.WithField("method", "List").WithError(err).Error("Error after scanning rows")
		return nil, entity.NewInfrastructureError("postgres: list tasks", err)
	}
	return tasks, nil
}

// Update читает строку под блокировкой FOR UPDATE, поэтому конкурентные
// изменения одной задачи применяются целиком, одно за другим.
func (r *TaskRepository) Update(ctx context.Context, id string, patch entity.TaskPatch) (entity.Task, error) {
	fields := logrus.Fields{"method": "Update", "task_id": id}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		r.logger.WithFields(fields).WithError(err).Error("Failed to begin transaction")
		return entity.Task{}, entity.NewInfrastructureError("postgres: begin update", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	task, err := scanTask(tx.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.Task{}, entity.ErrTaskNotFound
		}
		r.logger.WithFields(fields).WithError(err).Error("Failed to lock task for update")
		return entity.Task{}, entity.NewInfrastructureError("postgres: lock task", err)
	}

	patch.Apply(&task)

	query := `
		UPDATE tasks
		SET title = $2, description = $3, is_completed = $4, due_date = $5, category = $6
		WHERE id = $1`
	if _, err := tx.Exec(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		task.IsCompleted,
		dueParam(task.DueDate),
		task.Category,
	); err != nil {
		r.logger.WithFields(fields).WithError(err).Error("Failed to update task")
		return entity.Task{}, entity.NewInfrastructureError("postgres: update task", err)
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.WithFields(fields).WithError(err).Error("Failed to commit task update")
		return entity.Task{}, entity.NewInfrastructureError("postgres: commit update", err)
	}
	return task, nil
}

func (r *TaskRepository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		r.logger.WithFields(logrus.Fields{
			"method":  "Delete",
			"task_id": id,
		}).WithError(err).Error("Failed to delete task")
		return false, entity.NewInfrastructureError("postgres: delete task", err)
	}
	return result.RowsAffected() > 0, nil
}

func scanTask(row pgx.Row) (entity.Task, error) {
	var (
		task entity.Task
		due  *time.Time
	)
	if err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.IsCompleted,
		&due,
		&task.Category,
		&task.CreatedAt,
	); err != nil {
		return entity.Task{}, err
	}
	if due != nil {
		task.DueDate = entity.NewDate(*due)
	}
	return task, nil
}

func dueParam(d *entity.Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}
