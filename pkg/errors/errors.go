package errors

import (
	"errors"
	"fmt"
)

var (
	ErrDeviceNotFound   = errors.New("device not found")
	ErrNoNotifications  = errors.New("no pending notifications")
	ErrRouteUnavailable = errors.New("routing engine unavailable")

	ErrInvalidInput      = errors.New("invalid input data")
	ErrInvalidCoordinate = errors.New("coordinate out of range")
)

type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
