// Package client HTTP-клиент к todo-service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/KarpovAlexandrGo/todo-service/internal/entity"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const defaultTimeout = 10 * time.Second

// APIError ответ сервера с кодом ошибки. Тело без JSON считается ошибкой 500.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server responded %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return entity.ErrTaskNotFound
	}
	return nil
}

// TaskInput поля задачи для создания и обновления; nil означает "не передано".
type TaskInput struct {
	Title        *string
	Description  *string
	IsCompleted  *bool
	DueDate      *entity.Date
	ClearDueDate bool
	Category     *string
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (c *Client) ListTasks(ctx context.Context, filter entity.TaskFilter) ([]entity.Task, error) {
	query := url.Values{}
	if filter.IsCompleted != nil {
		query.Set("isCompleted", strconv.FormatBool(*filter.IsCompleted))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		query.Set("q", q)
	}
	if filter.Category != nil {
		query.Set("category", *filter.Category)
	}

	path := "/tasks"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var tasks []entity.Task
	if err := c.do(ctx, http.MethodGet, path, nil, &tasks); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []entity.Task{}
	}
	return tasks, nil
}

func (c *Client) GetTask(ctx context.Context, id string) (entity.Task, error) {
	var task entity.Task
	err := c.do(ctx, http.MethodGet, "/tasks/"+url.PathEscape(id), nil, &task)
	return task, err
}

func (c *Client) CreateTask(ctx context.Context, input TaskInput) (entity.Task, error) {
	var task entity.Task
	err := c.do(ctx, http.MethodPost, "/tasks", input.body(), &task)
	return task, err
}

func (c *Client) UpdateTask(ctx context.Context, id string, input TaskInput) (entity.Task, error) {
	var task entity.Task
	err := c.do(ctx, http.MethodPut, "/tasks/"+url.PathEscape(id), input.body(), &task)
	return task, err
}

// DeleteTask возвращает сообщение сервера об удалении.
func (c *Client) DeleteTask(ctx context.Context, id string) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodDelete, "/tasks/"+url.PathEscape(id), nil, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (c *Client) ListCategories(ctx context.Context) ([]entity.Category, error) {
	var categories []entity.Category
	if err := c.do(ctx, http.MethodGet, "/categories", nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (in TaskInput) body() map[string]interface{} {
	body := make(map[string]interface{})
	if in.Title != nil {
		body["title"] = *in.Title
	}
	if in.Description != nil {
		body["description"] = *in.Description
	}
	if in.IsCompleted != nil {
		body["isCompleted"] = *in.IsCompleted
	}
	if in.ClearDueDate {
		body["dueDate"] = nil
	} else if in.DueDate != nil {
		body["dueDate"] = *in.DueDate
	}
	if in.Category != nil {
		body["category"] = *in.Category
	}
	return body
}

func (c *Client) do(ctx context.Context, method, path string, payload interface{}, dst interface{}) error {
	op := method + " " + path

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return entity.NewInfrastructureError(op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return entity.NewInfrastructureError(op, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var msg struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			return &APIError{StatusCode: http.StatusInternalServerError, Message: "invalid response from server"}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg.Message}
	}

	if dst == nil {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return &APIError{StatusCode: http.StatusInternalServerError, Message: "invalid response from server"}
	}
	return nil
}

// Message текст ошибки для показа пользователю.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if entity.IsInfrastructure(err) {
		return "Could not reach the server. Please try again."
	}
	return err.Error()
}
