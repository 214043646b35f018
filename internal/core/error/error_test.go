package errx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestWrapGeneration(t *testing.T) {
	assert.Nil(t, WrapGeneration(nil))

	base := errors.New("503 from backend")
	err := WrapGeneration(base)
	assert.ErrorIs(t, err, base)
	assert.Equal(t, http.StatusBadGateway, StatusOf(err))
	assert.Contains(t, err.Error(), GenerationErrorMessage)

	timeout := WrapGeneration(fmt.Errorf("call: %w", context.DeadlineExceeded))
	assert.ErrorIs(t, timeout, context.DeadlineExceeded)
	assert.Equal(t, http.StatusGatewayTimeout, StatusOf(timeout))

	// already wrapped errors are kept
	assert.Same(t, timeout, WrapGeneration(timeout))
}

func TestWrapRedis(t *testing.T) {
	assert.Nil(t, WrapRedis(nil))
	assert.Equal(t, http.StatusNotFound, StatusOf(WrapRedis(redis.Nil)))
	assert.Equal(t, http.StatusBadGateway, StatusOf(WrapRedis(errors.New("conn refused"))))
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusOK, StatusOf(nil))
	assert.Equal(t, http.StatusNotFound, StatusOf(fmt.Errorf("x: %w", ErrTicketNotFound)))
	assert.Equal(t, http.StatusConflict, StatusOf(ErrNotAwaitingApproval))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusOf(ErrInvalidIncident))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(ErrInvalidTransition))
	assert.Equal(t, http.StatusTeapot, StatusOf(fmt.Errorf("wrapped: %w", New(nil, http.StatusTeapot, "tea"))))
}

func TestAppError_As(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(errors.New("inner"), http.StatusBadGateway, "msg"))
	var appErr *AppError
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, "msg", appErr.Message)
	assert.Equal(t, "msg: inner", appErr.Error())
}
