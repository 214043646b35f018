package errx

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage describes a missing Redis key.
	RedisNotFoundMessage = "redis key not found"
	// GenerationErrorMessage describes a failed call to the text-generation backend.
	GenerationErrorMessage = "text generation failed"
	// GenerationTimeoutMessage describes a text-generation call that exceeded its deadline.
	GenerationTimeoutMessage = "text generation timed out"
)

var (
	// ErrInvalidIncident is returned when an incident lacks an issue code or description.
	ErrInvalidIncident = errors.New("invalid incident")
	// ErrInvalidTransition marks a workflow stage running out of order. It is a
	// programming error and always fails the run.
	ErrInvalidTransition = errors.New("invalid workflow transition")
	// ErrTicketNotFound is returned when a ticket id is not in the queue.
	ErrTicketNotFound = errors.New("ticket not found")
	// ErrNotAwaitingApproval is returned when approving a ticket that is not gated.
	ErrNotAwaitingApproval = errors.New("ticket is not awaiting approval")
)

// AppError wraps an underlying error with an HTTP status and safe message.
type AppError struct {
	Err     error
	Status  int
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// WrapRedis maps Redis errors to AppError with appropriate status codes.
func WrapRedis(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, redis.Nil) {
		return New(err, http.StatusNotFound, RedisNotFoundMessage)
	}
	return New(err, http.StatusBadGateway, RedisErrorMessage)
}

// WrapGeneration maps a text-generation backend failure to AppError.
// Deadline expiry is reported as a gateway timeout.
func WrapGeneration(err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return New(err, http.StatusGatewayTimeout, GenerationTimeoutMessage)
	}
	return New(err, http.StatusBadGateway, GenerationErrorMessage)
}

// StatusOf returns the HTTP status carried by err, or 500 when there is none.
func StatusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Status != 0 {
		return appErr.Status
	}
	switch {
	case errors.Is(err, ErrTicketNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrNotAwaitingApproval):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidIncident):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// Is reports whether the target matches the underlying error or the AppError itself.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// As allows casting to AppError or the wrapped error in a chain.
func (e *AppError) As(target any) bool {
	if errors.As(e.Err, target) {
		return true
	}
	if t, ok := target.(**AppError); ok {
		*t = e
		return true
	}
	return false
}
