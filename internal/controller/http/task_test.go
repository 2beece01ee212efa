package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/KarpovAlexandrGo/todo-service/internal/entity"
	"github.com/KarpovAlexandrGo/todo-service/internal/repo/memory"
	"github.com/KarpovAlexandrGo/todo-service/internal/usecase"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) (http.Handler, *memory.TaskRepository) {
	t.Helper()
	repo := memory.NewTaskRepository()
	registry, err := usecase.NewCategoryRegistry(entity.DefaultCategories())
	require.NoError(t, err)

	uc := usecase.NewTaskUseCase(repo, nil, registry)

	r := chi.NewRouter()
	NewTaskHandler(uc).RegisterRoutes(r)
	NewCategoryHandler(registry).RegisterRoutes(r)
	return r, repo
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeTask(t *testing.T, rec *httptest.ResponseRecorder) entity.Task {
	t.Helper()
	var task entity.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &task))
	return task
}

func decodeTasks(t *testing.T, rec *httptest.ResponseRecorder) []entity.Task {
	t.Helper()
	var tasks []entity.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tasks))
	return tasks
}

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var msg MessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msg))
	return msg.Message
}

func TestTaskLifecycle(t *testing.T) {
	h, _ := setupRouter(t)

	rec := doRequest(t, h, http.MethodPost, "/tasks", `{"title":"Buy milk"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	created := decodeTask(t, rec)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Buy milk", created.Title)
	assert.False(t, created.IsCompleted)
	assert.Equal(t, entity.DefaultCategoryID, created.Category)

	rec = doRequest(t, h, http.MethodGet, "/tasks", "")
	require.Equal(t, http.StatusOK, rec.Code)
	tasks := decodeTasks(t, rec)
	require.Len(t, tasks, 1)
	assert.Equal(t, created.ID, tasks[0].ID)

	rec = doRequest(t, h, http.MethodPut, "/tasks/"+created.ID, `{"isCompleted":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decodeTask(t, rec)
	assert.True(t, updated.IsCompleted)
	assert.Equal(t, "Buy milk", updated.Title)

	rec = doRequest(t, h, http.MethodDelete, "/tasks/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Task "+created.ID+" deleted successfully.", decodeMessage(t, rec))

	rec = doRequest(t, h, http.MethodGet, "/tasks", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeTasks(t, rec))
	assert.Equal(t, "[]\n", rec.Body.String())

	rec = doRequest(t, h, http.MethodDelete, "/tasks/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Task with id "+created.ID+" not found.", decodeMessage(t, rec))
}

func TestCreateTask_RejectsInvalidTitle(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing title", body: `{"description":"no title"}`},
		{name: "empty title", body: `{"title":""}`},
		{name: "whitespace title", body: `{"title":"   "}`},
		{name: "non-string title", body: `{"title":42}`},
		{name: "null title", body: `{"title":null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, repo := setupRouter(t)

			rec := doRequest(t, h, http.MethodPost, "/tasks", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, entity.TitleRequiredMessage, decodeMessage(t, rec))
			assert.Equal(t, 0, repo.Count())
		})
	}
}

func TestCreateTask_MalformedBody(t *testing.T) {
	h, repo := setupRouter(t)

	rec := doRequest(t, h, http.MethodPost, "/tasks", `{"title":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request payload", decodeMessage(t, rec))
	assert.Equal(t, 0, repo.Count())

	for _, body := range []string{`{"title":"Buy milk"} trailing`, `{"title":"Buy milk"}{"title":"Wash the car"}`} {
		rec = doRequest(t, h, http.MethodPost, "/tasks", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, "Invalid request payload", decodeMessage(t, rec))
	}
	assert.Equal(t, 0, repo.Count())

	rec = doRequest(t, h, http.MethodPost, "/tasks", "{\"title\":\"Buy milk\"}\n")
	assert.Equal(t, http.StatusCreated, rec.Code)
	created := decodeTask(t, rec)

	rec = doRequest(t, h, http.MethodPut, "/tasks/"+created.ID, `{"isCompleted":true} x`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, decodeTaskFromStore(t, h, created.ID).IsCompleted)
}

func decodeTaskFromStore(t *testing.T, h http.Handler, id string) entity.Task {
	t.Helper()
	rec := doRequest(t, h, http.MethodGet, "/tasks/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	return decodeTask(t, rec)
}

func TestTaskResponseShape(t *testing.T) {
	h, _ := setupRouter(t)

	rec := doRequest(t, h, http.MethodPost, "/tasks", `{"title":"Buy milk"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	keys := make([]string, 0, len(body))
	for k := range body {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{"id", "title", "description", "isCompleted", "dueDate", "category", "createdAt"}, keys)
	assert.Nil(t, body["dueDate"])
	assert.Equal(t, "other", body["category"])
	assert.NotEmpty(t, body["createdAt"])
}

func TestCreateTask_IgnoresClientCompletionFlag(t *testing.T) {
	h, _ := setupRouter(t)

	rec := doRequest(t, h, http.MethodPost, "/tasks", `{"title":"Wash the car","isCompleted":true,"id":"mine"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeTask(t, rec)
	assert.False(t, created.IsCompleted)
	assert.NotEqual(t, "mine", created.ID)
}

func TestCreateTask_DueDateAndCategory(t *testing.T) {
	h, _ := setupRouter(t)

	rec := doRequest(t, h, http.MethodPost, "/tasks",
		`{"title":"Report","dueDate":"2030-01-02T15:04:05Z","category":"work"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeTask(t, rec)
	require.NotNil(t, created.DueDate)
	assert.Equal(t, "2030-01-02T15:04:05Z", created.DueDate.UTC().Format("2006-01-02T15:04:05Z07:00"))
	assert.Equal(t, "work", created.Category)

	rec = doRequest(t, h, http.MethodPost, "/tasks", `{"title":"Report","category":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, h, http.MethodPost, "/tasks", `{"title":"Report","dueDate":"tomorrow"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateTask_PartialAndTypeErrors(t *testing.T) {
	h, _ := setupRouter(t)

	rec := doRequest(t, h, http.MethodPost, "/tasks",
		`{"title":"Buy milk","description":"From the supermarket","dueDate":"2030-01-02T00:00:00Z"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeTask(t, rec)

	rec = doRequest(t, h, http.MethodPut, "/tasks/"+created.ID, `{"title":"Buy oat milk"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decodeTask(t, rec)
	assert.Equal(t, "Buy oat milk", updated.Title)
	assert.Equal(t, "From the supermarket", updated.Description)
	assert.NotNil(t, updated.DueDate)

	rec = doRequest(t, h, http.MethodPut, "/tasks/"+created.ID, `{"isCompleted":"yes"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeMessage(t, rec), "isCompleted")

	rec = doRequest(t, h, http.MethodPut, "/tasks/"+created.ID, `{"title":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, entity.TitleRequiredMessage, decodeMessage(t, rec))

	rec = doRequest(t, h, http.MethodPut, "/tasks/"+created.ID, `{"dueDate":null}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decodeTask(t, rec).DueDate)

	rec = doRequest(t, h, http.MethodGet, "/tasks/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeTask(t, rec)
	assert.Equal(t, "Buy oat milk", got.Title)
	assert.False(t, got.IsCompleted)
	assert.Nil(t, got.DueDate)
}

func TestUpdateTask_UnknownID(t *testing.T) {
	h, repo := setupRouter(t)

	rec := doRequest(t, h, http.MethodPut, "/tasks/missing", `{"isCompleted":true}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Task with id missing not found.", decodeMessage(t, rec))
	assert.Equal(t, 0, repo.Count())

	rec = doRequest(t, h, http.MethodGet, "/tasks/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteTask_WithoutID(t *testing.T) {
	h, _ := setupRouter(t)

	rec := doRequest(t, h, http.MethodDelete, "/tasks", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Task id is required.", decodeMessage(t, rec))
}

func TestListTasks_Filters(t *testing.T) {
	h, _ := setupRouter(t)

	for _, body := range []string{
		`{"title":"Buy milk","category":"shopping"}`,
		`{"title":"Wash the car"}`,
		`{"title":"Practice elevator pitch","category":"work"}`,
	} {
		rec := doRequest(t, h, http.MethodPost, "/tasks", body)
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	rec := doRequest(t, h, http.MethodGet, "/tasks?q=car", "")
	require.Equal(t, http.StatusOK, rec.Code)
	car := decodeTasks(t, rec)
	require.Len(t, car, 1)

	rec = doRequest(t, h, http.MethodPut, "/tasks/"+car[0].ID, `{"isCompleted":true}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/tasks?isCompleted=false", "")
	require.Equal(t, http.StatusOK, rec.Code)
	active := decodeTasks(t, rec)
	require.Len(t, active, 2)
	assert.Equal(t, "Buy milk", active[0].Title)
	assert.Equal(t, "Practice elevator pitch", active[1].Title)

	rec = doRequest(t, h, http.MethodGet, "/tasks?category=work&q=PITCH", "")
	require.Equal(t, http.StatusOK, rec.Code)
	work := decodeTasks(t, rec)
	require.Len(t, work, 1)
	assert.Equal(t, "Practice elevator pitch", work[0].Title)

	rec = doRequest(t, h, http.MethodGet, "/tasks?isCompleted=maybe", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListCategories(t *testing.T) {
	h, _ := setupRouter(t)

	rec := doRequest(t, h, http.MethodGet, "/categories", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var categories []entity.Category
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &categories))
	assert.Equal(t, entity.DefaultCategories(), categories)
}
