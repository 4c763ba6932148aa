package testutil

import "errors"

// Common test errors
var (
	ErrStoreUnavailable = errors.New("token store unavailable")
	ErrTestFailure      = errors.New("test failure")
)
