// Package errors defines the typed error taxonomy returned by the API client
// and consumed by controllers. Callers branch on ErrorType, never on raw
// HTTP status codes.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrTypeValidation is a rejected input, either locally or by the server (400/422)
	ErrTypeValidation ErrorType = "validation"
	// ErrTypeSessionExpired is a 401 that survived a refresh, or a failed refresh
	ErrTypeSessionExpired ErrorType = "session_expired"
	// ErrTypePermission is a 403; the session stays intact
	ErrTypePermission ErrorType = "permission_denied"
	// ErrTypeNetwork is a transport failure: no response was received
	ErrTypeNetwork ErrorType = "network"
	// ErrTypeServer is any other non-2xx response
	ErrTypeServer ErrorType = "server"
	// ErrTypeNotFound is a 404
	ErrTypeNotFound ErrorType = "not_found"
	// ErrTypeRateLimit is a 429 or a local throttle refusal
	ErrTypeRateLimit ErrorType = "rate_limit"
	// ErrTypeConfig represents configuration errors
	ErrTypeConfig ErrorType = "config"
	// ErrTypeInternal represents client-side failures such as undecodable bodies
	ErrTypeInternal ErrorType = "internal"
)

// Messages shown to the user when the server did not provide one.
const (
	MsgSessionExpired = "Your session has expired. Please sign in again."
	MsgNetwork        = "Unable to reach the server. Please check your connection."
	MsgPermission     = "You do not have permission to perform this action."
	MsgGeneric        = "Something went wrong. Please try again."
)

// AppError represents a structured application error
type AppError struct {
	Type    ErrorType              `json:"type"`
	Message string                 `json:"message"`
	Status  int                    `json:"status,omitempty"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	parts := []string{string(e.Type), e.Message}

	if e.Status != 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.Status))
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause=%v", e.Cause))
	}

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		contextParts := make([]string, 0, len(keys))
		for _, k := range keys {
			contextParts = append(contextParts, fmt.Sprintf("%s=%v", k, e.Context[k]))
		}
		parts = append(parts, fmt.Sprintf("context={%s}", strings.Join(contextParts, ", ")))
	}

	return strings.Join(parts, ": ")
}

// Unwrap returns the underlying cause
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithStatus records the HTTP status the error was classified from
func (e *AppError) WithStatus(status int) *AppError {
	e.Status = status
	return e
}

// ValidationError creates a new validation error
func ValidationError(msg string) *AppError {
	return &AppError{Type: ErrTypeValidation, Message: msg}
}

// SessionExpiredError creates a session-expired error
func SessionExpiredError(cause error) *AppError {
	return &AppError{Type: ErrTypeSessionExpired, Message: MsgSessionExpired, Cause: cause}
}

// PermissionError creates a permission-denied error
func PermissionError(msg string) *AppError {
	if msg == "" {
		msg = MsgPermission
	}
	return &AppError{Type: ErrTypePermission, Message: msg}
}

// NetworkError wraps a transport failure
func NetworkError(cause error) *AppError {
	return &AppError{Type: ErrTypeNetwork, Message: MsgNetwork, Cause: cause}
}

// ServerError creates a generic server error. An empty message falls back to MsgGeneric.
func ServerError(msg string) *AppError {
	if msg == "" {
		msg = MsgGeneric
	}
	return &AppError{Type: ErrTypeServer, Message: msg}
}

// NotFoundError creates a new not found error
func NotFoundError(resource string) *AppError {
	return &AppError{Type: ErrTypeNotFound, Message: fmt.Sprintf("%s not found", resource)}
}

// RateLimitError creates a new rate limit error
func RateLimitError(msg string) *AppError {
	if msg == "" {
		msg = "Too many requests. Please slow down."
	}
	return &AppError{Type: ErrTypeRateLimit, Message: msg}
}

// ConfigError creates a new configuration error
func ConfigError(msg string) *AppError {
	return &AppError{Type: ErrTypeConfig, Message: msg}
}

// InternalError creates a new internal error
func InternalError(msg string, cause error) *AppError {
	return &AppError{Type: ErrTypeInternal, Message: msg, Cause: cause}
}

// As returns the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType checks if an error in err's chain is of a specific type
func IsType(err error, errType ErrorType) bool {
	appErr, ok := As(err)
	return ok && appErr.Type == errType
}

// GetType returns the error type if err wraps an AppError, otherwise ErrTypeInternal
func GetType(err error) ErrorType {
	if err == nil {
		return ""
	}
	if appErr, ok := As(err); ok {
		return appErr.Type
	}
	return ErrTypeInternal
}

// IsCanceled reports whether err stems from context cancellation. Canceled
// requests are superseded, not failed, and must not reach visible state.
func IsCanceled(err error) bool {
	return stderrors.Is(err, context.Canceled)
}

// UserMessage renders the message a view should display for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	appErr, ok := As(err)
	if !ok {
		return MsgGeneric
	}
	switch appErr.Type {
	case ErrTypeSessionExpired:
		return MsgSessionExpired
	case ErrTypeNetwork:
		return MsgNetwork
	case ErrTypeInternal, ErrTypeConfig:
		return MsgGeneric
	}
	if appErr.Message == "" {
		return MsgGeneric
	}
	return appErr.Message
}
