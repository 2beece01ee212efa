package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/KarpovAlexandrGo/todo-service/internal/config"
	"github.com/KarpovAlexandrGo/todo-service/internal/entity"
	"github.com/KarpovAlexandrGo/todo-service/internal/metrics"
	"github.com/KarpovAlexandrGo/todo-service/internal/repo/memory"
	"github.com/KarpovAlexandrGo/todo-service/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUseCase(t *testing.T) (*usecase.TaskUseCaseImpl, *usecase.CategoryRegistry) {
	t.Helper()
	registry, err := usecase.NewCategoryRegistry(entity.DefaultCategories())
	require.NoError(t, err)
	return usecase.NewTaskUseCase(memory.NewTaskRepository(), nil, registry), registry
}

func TestSeedDemoTasks(t *testing.T) {
	uc, _ := newTestUseCase(t)

	require.NoError(t, SeedDemoTasks(context.Background(), uc))

	tasks, err := uc.List(context.Background(), entity.TaskFilter{})
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, "Buy milk", tasks[0].Title)
	assert.False(t, tasks[0].IsCompleted)
	assert.Equal(t, "Wash the car", tasks[1].Title)
	assert.True(t, tasks[1].IsCompleted)
	assert.Equal(t, "Practice elevator pitch", tasks[2].Title)
	assert.Equal(t, "For the job interview", tasks[2].Description)
}

func TestSetupRouter_ServiceEndpoints(t *testing.T) {
	uc, registry := newTestUseCase(t)
	router := setupRouter(uc, registry, metrics.New())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tasks", strings.NewReader(`{"title":"Buy milk"}`)))
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "todo_http_requests_total")
	assert.Contains(t, body, `status="201"`)
}

func TestNew_MemoryDriver(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)
	cfg.SeedDemo = true

	a, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(a.close)

	assert.Equal(t, ":8080", a.Server.Addr)
	tasks, err := a.taskUseCase.List(context.Background(), entity.TaskFilter{})
	require.NoError(t, err)
	assert.Len(t, tasks, 3)
}

func TestNew_BadLogLevel(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)
	cfg.LogLevel = "loud"

	_, err = New(cfg)
	assert.ErrorContains(t, err, "invalid log level")
}
