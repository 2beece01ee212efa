package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/KarpovAlexandrGo/todo-service/internal/entity"
	"github.com/KarpovAlexandrGo/todo-service/internal/usecase"
	"github.com/KarpovAlexandrGo/todo-service/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

// TaskHandler обрабатывает HTTP-запросы для работы с задачами.
type TaskHandler struct {
	taskUseCase usecase.TaskUseCase
}

// NewTaskHandler создает новый экземпляр TaskHandler.
func NewTaskHandler(taskUseCase usecase.TaskUseCase) *TaskHandler {
	return &TaskHandler{
		taskUseCase: taskUseCase,
	}
}

// RegisterRoutes регистрирует маршруты для обработки задач.
func (h *TaskHandler) RegisterRoutes(r chi.Router) {
	r.Route("/tasks", func(r chi.Router) {
		r.Post("/", h.CreateTask)
		r.Get("/", h.ListTasks)
		r.Delete("/", h.DeleteTaskWithoutID)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetTask)
			r.Put("/", h.UpdateTask)
			r.Delete("/", h.DeleteTask)
		})
	})
}

// CreateTaskRequest тело запроса на создание задачи.
type CreateTaskRequest struct {
	Title       *string      `json:"title" example:"Buy milk"`
	Description *string      `json:"description" example:"From the supermarket"`
	DueDate     *entity.Date `json:"dueDate" swaggertype:"string" example:"2025-06-01"`
	Category    *string      `json:"category" example:"shopping"`
}

// UpdateTaskRequest тело частичного обновления; dueDate: null очищает срок.
type UpdateTaskRequest struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	IsCompleted *bool           `json:"isCompleted"`
	DueDate     json.RawMessage `json:"dueDate" swaggertype:"string"`
	Category    *string         `json:"category"`
}

// MessageResponse тело ответа с сообщением (в том числе об ошибке).
type MessageResponse struct {
	Message string `json:"message"`
}

// CreateTask обрабатывает создание новой задачи.
// @Summary      Создать задачу
// @Description  Создает новую задачу; isCompleted всегда false
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        task body     CreateTaskRequest true "Данные задачи"
// @Success      201  {object} entity.Task
// @Failure      400  {object} MessageResponse "Ошибка валидации"
// @Failure      500  {object} MessageResponse "Внутренняя ошибка сервера"
// @Router       /tasks [post]
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logger.Log.WithError(err).Warn("Failed to decode create request body")
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Title == nil {
		respondWithError(w, http.StatusBadRequest, entity.TitleRequiredMessage)
		return
	}

	input := entity.NewTask{
		Title:   *req.Title,
		DueDate: req.DueDate,
	}
	if req.Description != nil {
		input.Description = *req.Description
	}
	if req.Category != nil {
		input.Category = *req.Category
	}

	createdTask, err := h.taskUseCase.Create(r.Context(), input)
	if err != nil {
		respondWithUseCaseError(w, err, "")
		return
	}

	respondWithJSON(w, http.StatusCreated, createdTask)
}

// GetTask обрабатывает получение задачи по ID.
// @Summary      Получить задачу
// @Description  Возвращает задачу по её ID
// @Tags         tasks
// @Produce      json
// @Param        id   path     string true "ID задачи"
// @Success      200  {object} entity.Task
// @Failure      404  {object} MessageResponse "Задача не найдена"
// @Failure      500  {object} MessageResponse "Внутренняя ошибка сервера"
// @Router       /tasks/{id} [get]
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	task, err := h.taskUseCase.Get(r.Context(), id)
	if err != nil {
		respondWithUseCaseError(w, err, id)
		return
	}

	respondWithJSON(w, http.StatusOK, task)
}

// ListTasks обрабатывает получение списка задач.
// @Summary      Список задач
// @Description  Возвращает задачи в порядке создания с необязательными фильтрами
// @Tags         tasks
// @Produce      json
// @Param        isCompleted query    bool   false "Статус выполнения"
// @Param        q           query    string false "Подстрока заголовка без учета регистра"
// @Param        category    query    string false "ID категории"
// @Success      200         {array}  entity.Task
// @Failure      400         {object} MessageResponse "Неверный параметр"
// @Failure      500         {object} MessageResponse "Внутренняя ошибка сервера"
// @Router       /tasks [get]
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	tasks, err := h.taskUseCase.List(r.Context(), filter)
	if err != nil {
		respondWithUseCaseError(w, err, "")
		return
	}

	respondWithJSON(w, http.StatusOK, tasks)
}

// UpdateTask обрабатывает частичное обновление задачи.
// @Summary      Обновить задачу
// @Description  Меняет только переданные поля
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        id   path     string            true "ID задачи"
// @Param        task body     UpdateTaskRequest true "Изменяемые поля"
// @Success      200  {object} entity.Task
// @Failure      400  {object} MessageResponse "Неверный тип поля"
// @Failure      404  {object} MessageResponse "Задача не найдена"
// @Failure      500  {object} MessageResponse "Внутренняя ошибка сервера"
// @Router       /tasks/{id} [put]
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logger.Log.WithField("task_id", id).WithError(err).Warn("Failed to decode update request body")
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	patch, err := req.toPatch()
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	updatedTask, err := h.taskUseCase.Update(r.Context(), id, patch)
	if err != nil {
		respondWithUseCaseError(w, err, id)
		return
	}

	respondWithJSON(w, http.StatusOK, updatedTask)
}

// DeleteTask обрабатывает удаление задачи.
// @Summary      Удалить задачу
// @Description  Удаляет задачу по её ID
// @Tags         tasks
// @Produce      json
// @Param        id   path     string true "ID задачи"
// @Success      200  {object} MessageResponse
// @Failure      404  {object} MessageResponse "Задача не найдена"
// @Failure      500  {object} MessageResponse "Внутренняя ошибка сервера"
// @Router       /tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if strings.TrimSpace(id) == "" {
		h.DeleteTaskWithoutID(w, r)
		return
	}

	removed, err := h.taskUseCase.Delete(r.Context(), id)
	if err != nil {
		respondWithUseCaseError(w, err, id)
		return
	}
	if !removed {
		respondWithError(w, http.StatusNotFound, notFoundMessage(id))
		return
	}

	respondWithJSON(w, http.StatusOK, MessageResponse{Message: fmt.Sprintf("Task %s deleted successfully.", id)})
}

// DeleteTaskWithoutID отвечает 400, если ID не указан.
func (h *TaskHandler) DeleteTaskWithoutID(w http.ResponseWriter, _ *http.Request) {
	respondWithError(w, http.StatusBadRequest, "Task id is required.")
}

func (req UpdateTaskRequest) toPatch() (entity.TaskPatch, error) {
	patch := entity.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		IsCompleted: req.IsCompleted,
		Category:    req.Category,
	}

	switch raw := strings.TrimSpace(string(req.DueDate)); raw {
	case "":
	case "null":
		patch.ClearDueDate = true
	default:
		var due entity.Date
		if err := json.Unmarshal([]byte(raw), &due); err != nil {
			return entity.TaskPatch{}, err
		}
		patch.DueDate = &due
	}
	return patch, nil
}

func parseFilter(r *http.Request) (entity.TaskFilter, error) {
	query := r.URL.Query()
	filter := entity.TaskFilter{Query: query.Get("q")}

	if raw := query.Get("isCompleted"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return entity.TaskFilter{}, fmt.Errorf("isCompleted must be a boolean, got %q", raw)
		}
		filter.IsCompleted = &v
	}
	if category := query.Get("category"); category != "" {
		filter.Category = &category
	}
	return filter, nil
}

// decodeJSON разбирает тело запроса и переводит ошибки декодера в понятные сообщения.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	err := dec.Decode(dst)
	if err == nil {
		// После объекта допускаются только пробелы.
		if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
			return errors.New("Invalid request payload")
		}
		return nil
	}

	var (
		validation *entity.ValidationError
		typeErr    *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &validation):
		return validation
	case errors.As(err, &typeErr):
		if typeErr.Field == "title" {
			return errors.New(entity.TitleRequiredMessage)
		}
		return fmt.Errorf("%s must be of type %s", typeErr.Field, typeErr.Type)
	default:
		return errors.New("Invalid request payload")
	}
}

func respondWithUseCaseError(w http.ResponseWriter, err error, id string) {
	var validation *entity.ValidationError
	switch {
	case errors.As(err, &validation):
		respondWithError(w, http.StatusBadRequest, validation.Message)
	case errors.Is(err, entity.ErrTaskNotFound):
		logger.Log.WithField("task_id", id).Warn("Task not found")
		respondWithError(w, http.StatusNotFound, notFoundMessage(id))
	default:
		logger.Log.WithFields(logrus.Fields{"task_id": id}).WithError(err).Error("Task operation failed")
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func notFoundMessage(id string) string {
	return fmt.Sprintf("Task with id %s not found.", id)
}
