package entity

import (
	"errors"
	"fmt"
)

var ErrTaskNotFound = errors.New("task not found")

// ValidationError некорректные или отсутствующие входные данные (400).
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return e.Message
}

// InfrastructureError сбой хранилища или сети (500).
type InfrastructureError struct {
	Op  string
	Err error
}

// NewInfrastructureError оборачивает ошибку бэкенда. Уже классифицированные
// ошибки возвращаются как есть.
func NewInfrastructureError(op string, err error) error {
	if err == nil {
		return nil
	}
	var infra *InfrastructureError
	if errors.Is(err, ErrTaskNotFound) || errors.As(err, &infra) || IsValidation(err) {
		return err
	}
	return &InfrastructureError{Op: op, Err: err}
}

func (e *InfrastructureError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *InfrastructureError) Unwrap() error {
	return e.Err
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsInfrastructure(err error) bool {
	var infra *InfrastructureError
	return errors.As(err, &infra)
}
