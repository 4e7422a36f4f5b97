package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies a category of application error.
type ErrorCode string

const (
	ErrNotFound     ErrorCode = "NOT_FOUND"
	ErrBadRequest   ErrorCode = "BAD_REQUEST"
	ErrUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrConflict     ErrorCode = "CONFLICT"
	ErrSlotTaken    ErrorCode = "SLOT_TAKEN"
	ErrDayBlocked   ErrorCode = "DAY_BLOCKED"
	ErrInvalidToken ErrorCode = "INVALID_TOKEN"
	ErrExpiredToken ErrorCode = "EXPIRED_TOKEN"
	ErrInternal     ErrorCode = "INTERNAL"
)

// AppError represents an application error.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
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

// StatusCode maps the error code to an HTTP status. Slot conflicts are
// user-correctable input and surface as 400; 409 is reserved for duplicate
// blocked-day creation.
func (e *AppError) StatusCode() int {
	switch e.Code {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrBadRequest, ErrSlotTaken, ErrDayBlocked:
		return http.StatusBadRequest
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrConflict:
		return http.StatusConflict
	case ErrInvalidToken:
		return http.StatusNotFound
	case ErrExpiredToken:
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

// Error constructors
func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func BadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Message: message,
		Err:     err,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Code:    ErrConflict,
		Message: message,
	}
}

func SlotTaken(message string) *AppError {
	return &AppError{
		Code:    ErrSlotTaken,
		Message: message,
	}
}

func DayBlocked(date string) *AppError {
	return &AppError{
		Code:    ErrDayBlocked,
		Message: fmt.Sprintf("day %s is blocked for booking", date),
	}
}

func InvalidToken() *AppError {
	return &AppError{
		Code:    ErrInvalidToken,
		Message: "token is invalid or was already used",
	}
}

func ExpiredToken() *AppError {
	return &AppError{
		Code:    ErrExpiredToken,
		Message: "token has expired",
	}
}

func Unauthorized(err error) *AppError {
	return &AppError{
		Code:    ErrUnauthorized,
		Message: "unauthorized",
		Err:     err,
	}
}

func Internal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

// Is reports whether err is an AppError with the given code.
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
