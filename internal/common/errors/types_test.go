package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appError *AppError
		want     string
	}{
		{
			name:     "basic error",
			appError: ConfigError("API_BASE_URL is required"),
			want:     "config: API_BASE_URL is required",
		},
		{
			name:     "error with status",
			appError: ServerError("event is full").WithStatus(409),
			want:     "server: event is full: status=409",
		},
		{
			name:     "error with cause",
			appError: NetworkError(errors.New("connection refused")),
			want:     "network: " + MsgNetwork + ": cause=connection refused",
		},
		{
			name: "error with context is sorted",
			appError: ValidationError("bad query").
				WithContext("page", 0).
				WithContext("limit", -1),
			want: "validation: bad query: context={limit=-1, page=0}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.appError.Error())
		})
	}
}

func TestConstructorFallbacks(t *testing.T) {
	assert.Equal(t, MsgGeneric, ServerError("").Message)
	assert.Equal(t, MsgPermission, PermissionError("").Message)
	assert.Equal(t, "admins only", PermissionError("admins only").Message)
	assert.Equal(t, "event not found", NotFoundError("event").Message)
	assert.Equal(t, MsgSessionExpired, SessionExpiredError(nil).Message)
}

func TestIsType_WrappedChain(t *testing.T) {
	base := SessionExpiredError(errors.New("refresh rejected"))
	wrapped := fmt.Errorf("list events: %w", base)

	assert.True(t, IsType(wrapped, ErrTypeSessionExpired))
	assert.False(t, IsType(wrapped, ErrTypeNetwork))
	assert.False(t, IsType(nil, ErrTypeNetwork))
	assert.Equal(t, ErrTypeSessionExpired, GetType(wrapped))
	assert.Equal(t, ErrTypeInternal, GetType(errors.New("plain")))
	assert.Equal(t, ErrorType(""), GetType(nil))

	appErr, ok := As(wrapped)
	require.True(t, ok)
	assert.Same(t, base, appErr)
}

func TestAppError_Unwrap(t *testing.T) {
	cause := context.DeadlineExceeded
	err := NetworkError(cause)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestIsCanceled(t *testing.T) {
	assert.True(t, IsCanceled(context.Canceled))
	assert.True(t, IsCanceled(fmt.Errorf("get: %w", context.Canceled)))
	assert.False(t, IsCanceled(context.DeadlineExceeded))
	assert.False(t, IsCanceled(nil))
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"plain error", errors.New("x"), MsgGeneric},
		{"session expired", SessionExpiredError(errors.New("401")), MsgSessionExpired},
		{"network", NetworkError(errors.New("dial tcp")), MsgNetwork},
		{"server body message", ServerError("Event date is in the past"), "Event date is in the past"},
		{"server fallback", ServerError(""), MsgGeneric},
		{"permission", PermissionError("Only organizers can edit"), "Only organizers can edit"},
		{"internal hides detail", InternalError("decode body", errors.New("unexpected EOF")), MsgGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}
