package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/KarpovAlexandrGo/todo-service/internal/client"
	handlers "github.com/KarpovAlexandrGo/todo-service/internal/controller/http"
	"github.com/KarpovAlexandrGo/todo-service/internal/entity"
	"github.com/KarpovAlexandrGo/todo-service/internal/repo/memory"
	"github.com/KarpovAlexandrGo/todo-service/internal/usecase"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func newTestServer(t *testing.T) *client.Client {
	t.Helper()
	registry, err := usecase.NewCategoryRegistry(entity.DefaultCategories())
	require.NoError(t, err)
	uc := usecase.NewTaskUseCase(memory.NewTaskRepository(), nil, registry)

	r := chi.NewRouter()
	handlers.NewTaskHandler(uc).RegisterRoutes(r)
	handlers.NewCategoryHandler(registry).RegisterRoutes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return client.New(srv.URL+"/", time.Second)
}

func TestClient_RoundTrip(t *testing.T) {
	c := newTestServer(t)
	ctx := context.Background()

	due := entity.NewDate(time.Date(2030, 5, 1, 9, 0, 0, 0, time.UTC))
	created, err := c.CreateTask(ctx, client.TaskInput{
		Title:    strPtr("Buy milk"),
		DueDate:  due,
		Category: strPtr("shopping"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", created.Title)
	require.NotNil(t, created.DueDate)
	assert.True(t, due.Equal(created.DueDate.Time))

	_, err = c.CreateTask(ctx, client.TaskInput{Title: strPtr("Wash the car")})
	require.NoError(t, err)

	updated, err := c.UpdateTask(ctx, created.ID, client.TaskInput{IsCompleted: boolPtr(true), ClearDueDate: true})
	require.NoError(t, err)
	assert.True(t, updated.IsCompleted)
	assert.Nil(t, updated.DueDate)

	done, err := c.ListTasks(ctx, entity.TaskFilter{IsCompleted: boolPtr(true)})
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, created.ID, done[0].ID)

	found, err := c.ListTasks(ctx, entity.TaskFilter{Query: "CAR"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Wash the car", found[0].Title)

	got, err := c.GetTask(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.ID, got.ID)

	msg, err := c.DeleteTask(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Task "+created.ID+" deleted successfully.", msg)

	_, err = c.DeleteTask(ctx, created.ID)
	assert.True(t, errors.Is(err, entity.ErrTaskNotFound))

	categories, err := c.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.DefaultCategories(), categories)
}

func TestClient_ValidationError(t *testing.T) {
	c := newTestServer(t)

	_, err := c.CreateTask(context.Background(), client.TaskInput{Title: strPtr(" ")})
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, entity.TitleRequiredMessage, client.Message(err))
}

func TestClient_NonJSONResponseIsServerError(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{name: "success with html", status: http.StatusOK},
		{name: "gateway error page", status: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("<html>oops</html>"))
			}))
			defer srv.Close()

			_, err := client.New(srv.URL, time.Second).ListTasks(context.Background(), entity.TaskFilter{})
			var apiErr *client.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
		})
	}
}

func TestClient_UnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := client.New(url, 200*time.Millisecond).ListCategories(context.Background())
	require.Error(t, err)
	assert.True(t, entity.IsInfrastructure(err))
	assert.Equal(t, "Could not reach the server. Please try again.", client.Message(err))
}
