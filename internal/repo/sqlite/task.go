package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/KarpovAlexandrGo/todo-service/internal/entity"
	"github.com/KarpovAlexandrGo/todo-service/pkg/logger"
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const taskColumns = `id, title, description, is_completed, due_date, category, created_at`

type TaskRepository struct {
	db     *sql.DB
	logger *logrus.Logger
}

// Open открывает файл базы и применяет миграции. Одно соединение
// сериализует запись, как того требует SQLite.
func Open(ctx context.Context, path string) (*TaskRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	logger.Log.WithField("path", path).Info("Opened sqlite database")
	return &TaskRepository{db: db, logger: logger.Log}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	migrations, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

func (r *TaskRepository) Close() error {
	return r.db.Close()
}

func (r *TaskRepository) Create(ctx context.Context, task entity.Task) (entity.Task, error) {
	query := `
		INSERT INTO tasks (id, title, description, is_completed, due_date, category, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	if _, err := r.db.ExecContext(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		task.IsCompleted,
		formatDue(task.DueDate),
		task.Category,
		task.CreatedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		r.logger.WithFields(logrus.Fields{
			"method":  "Create",
			"task_id": task.ID,
		}).WithError(err).Error("Failed to create task")
		return entity.Task{}, entity.NewInfrastructureError("sqlite: create task", err)
	}
	return task, nil
}

func (r *TaskRepository) Get(ctx context.Context, id string) (entity.Task, error) {
	task, err := scanTask(r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.Task{}, entity.ErrTaskNotFound
		}
		r.logger.WithFields(logrus.Fields{
			"method":  "Get",
			"task_id": id,
		}).WithError(err).Error("Failed to get task")
		return entity.Task{}, entity.NewInfrastructureError("sqlite: get task", err)
	}
	return task, nil
}

func (r *TaskRepository) List(ctx context.Context) ([]entity.Task, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY rowid`)
	if err != nil {
		r.logger.WithField("method", "List").WithError(err).Error("Failed to list tasks")
		return nil, entity.NewInfrastructureError("sqlite: list tasks", err)
	}
	defer rows.Close()

	tasks := []entity.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, entity.NewInfrastructureError("sqlite: scan task row", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, entity.NewInfrastructureError("sqlite: list tasks", err)
	}
	return tasks, nil
}

func (r *TaskRepository) Update(ctx context.Context, id string, patch entity.TaskPatch) (entity.Task, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return entity.Task{}, entity.NewInfrastructureError("sqlite: begin update", err)
	}
	defer func() { _ = tx.Rollback() }()

	task, err := scanTask(tx.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.Task{}, entity.ErrTaskNotFound
		}
		return entity.Task{}, entity.NewInfrastructureError("sqlite: read task", err)
	}

	patch.Apply(&task)

	query := `
		UPDATE tasks
		SET title = ?, description = ?, is_completed = ?, due_date = ?, category = ?
		WHERE id = ?`
	if _, err := tx.ExecContext(ctx, query,
		task.Title,
		task.Description,
		task.IsCompleted,
		formatDue(task.DueDate),
		task.Category,
		task.ID,
	); err != nil {
		r.logger.WithFields(logrus.Fields{
			"method":  "Update",
			"task_id": id,
		}).WithError(err).Error("Failed to update task")
		return entity.Task{}, entity.NewInfrastructureError("sqlite: update task", err)
	}

	if err := tx.Commit(); err != nil {
		return entity.Task{}, entity.NewInfrastructureError("sqlite: commit update", err)
	}
	return task, nil
}

func (r *TaskRepository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		r.logger.WithFields(logrus.Fields{
			"method":  "Delete",
			"task_id": id,
		}).WithError(err).Error("Failed to delete task")
		return false, entity.NewInfrastructureError("sqlite: delete task", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, entity.NewInfrastructureError("sqlite: delete task", err)
	}
	return n > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (entity.Task, error) {
	var (
		task      entity.Task
		due       sql.NullString
		createdAt string
	)
	if err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.IsCompleted,
		&due,
		&task.Category,
		&createdAt,
	); err != nil {
		return entity.Task{}, err
	}

	created, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return entity.Task{}, fmt.Errorf("invalid created_at %q: %w", createdAt, err)
	}
	task.CreatedAt = created

	if due.Valid {
		d, err := time.Parse(time.RFC3339Nano, due.String)
		if err != nil {
			return entity.Task{}, fmt.Errorf("invalid due_date %q: %w", due.String, err)
		}
		task.DueDate = entity.NewDate(d)
	}
	return task, nil
}

func formatDue(d *entity.Date) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.Time.Format(time.RFC3339Nano), Valid: true}
}
