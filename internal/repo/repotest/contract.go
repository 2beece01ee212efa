// Package repotest общий набор проверок для реализаций usecase.TaskRepository.
package repotest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/KarpovAlexandrGo/todo-service/internal/entity"
	"github.com/KarpovAlexandrGo/todo-service/internal/usecase"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory возвращает пустой репозиторий для одного подтеста.
type Factory func(t *testing.T) usecase.TaskRepository

func newTask(title string) entity.Task {
	return entity.Task{
		ID:          uuid.New().String(),
		Title:       title,
		Description: "desc " + title,
		Category:    entity.DefaultCategoryID,
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}
}

func Run(t *testing.T, factory Factory) {
	t.Run("create then get returns stored task", func(t *testing.T) {
		repo := factory(t)
		ctx := context.Background()

		task := newTask("Buy milk")
		task.DueDate = entity.NewDate(time.Date(2030, 1, 2, 15, 4, 5, 0, time.UTC))
		task.Category = "shopping"

		created, err := repo.Create(ctx, task)
		require.NoError(t, err)
		assertSameTask(t, task, created)

		got, err := repo.Get(ctx, task.ID)
		require.NoError(t, err)
		assertSameTask(t, task, got)
	})

	t.Run("get unknown id is not found", func(t *testing.T) {
		repo := factory(t)
		_, err := repo.Get(context.Background(), uuid.New().String())
		assert.ErrorIs(t, err, entity.ErrTaskNotFound)
	})

	t.Run("list keeps insertion order", func(t *testing.T) {
		repo := factory(t)
		ctx := context.Background()

		var want []string
		for i := 0; i < 5; i++ {
			task := newTask(fmt.Sprintf("task %d", i))
			task.CreatedAt = task.CreatedAt.Add(time.Duration(i) * time.Second)
			_, err := repo.Create(ctx, task)
			require.NoError(t, err)
			want = append(want, task.ID)
		}

		tasks, err := repo.List(ctx)
		require.NoError(t, err)
		var got []string
		for _, task := range tasks {
			got = append(got, task.ID)
		}
		assert.Equal(t, want, got)
	})

	t.Run("list returns a snapshot", func(t *testing.T) {
		repo := factory(t)
		ctx := context.Background()

		task := newTask("snapshot")
		_, err := repo.Create(ctx, task)
		require.NoError(t, err)

		before, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, before, 1)

		done := true
		_, err = repo.Update(ctx, task.ID, entity.TaskPatch{IsCompleted: &done})
		require.NoError(t, err)
		_, err = repo.Create(ctx, newTask("another"))
		require.NoError(t, err)

		assert.Len(t, before, 1)
		assert.False(t, before[0].IsCompleted)
	})

	t.Run("update changes only present fields", func(t *testing.T) {
		repo := factory(t)
		ctx := context.Background()

		task := newTask("Wash the car")
		task.DueDate = entity.NewDate(time.Date(2030, 5, 6, 7, 8, 9, 0, time.UTC))
		_, err := repo.Create(ctx, task)
		require.NoError(t, err)

		done := true
		updated, err := repo.Update(ctx, task.ID, entity.TaskPatch{IsCompleted: &done})
		require.NoError(t, err)

		want := task
		want.IsCompleted = true
		assertSameTask(t, want, updated)

		got, err := repo.Get(ctx, task.ID)
		require.NoError(t, err)
		assertSameTask(t, want, got)
	})

	t.Run("update can clear due date", func(t *testing.T) {
		repo := factory(t)
		ctx := context.Background()

		task := newTask("with due date")
		task.DueDate = entity.NewDate(time.Date(2030, 5, 6, 0, 0, 0, 0, time.UTC))
		_, err := repo.Create(ctx, task)
		require.NoError(t, err)

		updated, err := repo.Update(ctx, task.ID, entity.TaskPatch{ClearDueDate: true})
		require.NoError(t, err)
		assert.Nil(t, updated.DueDate)
	})

	t.Run("update unknown id is not found and store unchanged", func(t *testing.T) {
		repo := factory(t)
		ctx := context.Background()

		task := newTask("existing")
		_, err := repo.Create(ctx, task)
		require.NoError(t, err)

		title := "ghost"
		_, err = repo.Update(ctx, uuid.New().String(), entity.TaskPatch{Title: &title})
		assert.ErrorIs(t, err, entity.ErrTaskNotFound)

		tasks, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assertSameTask(t, task, tasks[0])
	})

	t.Run("delete reports whether a record was removed", func(t *testing.T) {
		repo := factory(t)
		ctx := context.Background()

		task := newTask("to delete")
		_, err := repo.Create(ctx, task)
		require.NoError(t, err)

		removed, err := repo.Delete(ctx, task.ID)
		require.NoError(t, err)
		assert.True(t, removed)

		_, err = repo.Get(ctx, task.ID)
		assert.ErrorIs(t, err, entity.ErrTaskNotFound)

		removed, err = repo.Delete(ctx, task.ID)
		require.NoError(t, err)
		assert.False(t, removed)
	})

	t.Run("concurrent updates to one record do not interleave", func(t *testing.T) {
		repo := factory(t)
		ctx := context.Background()

		task := newTask("contended")
		_, err := repo.Create(ctx, task)
		require.NoError(t, err)

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				title := fmt.Sprintf("title %d", i)
				desc := fmt.Sprintf("desc %d", i)
				_, err := repo.Update(ctx, task.ID, entity.TaskPatch{Title: &title, Description: &desc})
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		got, err := repo.Get(ctx, task.ID)
		require.NoError(t, err)
		var n int
		_, err = fmt.Sscanf(got.Title, "title %d", &n)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("desc %d", n), got.Description)
	})

	t.Run("cancelled context fails", func(t *testing.T) {
		repo := factory(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := repo.List(ctx)
		assert.Error(t, err)
	})
}

func assertSameTask(t *testing.T, want, got entity.Task) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Title, got.Title)
	assert.Equal(t, want.Description, got.Description)
	assert.Equal(t, want.IsCompleted, got.IsCompleted)
	assert.Equal(t, want.Category, got.Category)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt), "createdAt: want %v, got %v", want.CreatedAt, got.CreatedAt)
	if want.DueDate == nil {
		assert.Nil(t, got.DueDate)
		return
	}
	if assert.NotNil(t, got.DueDate) {
		assert.True(t, want.DueDate.Equal(got.DueDate.Time), "dueDate: want %v, got %v", want.DueDate, got.DueDate)
	}
}
