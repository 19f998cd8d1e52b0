package models

import (
	"errors"
	"strings"
)

var (
	ErrValidation            = errors.New("validation failed")
	ErrNotFound              = errors.New("not found")
	ErrRateLimited           = errors.New("rate limited")
	ErrUpstreamUnavailable   = errors.New("upstream unavailable")
	ErrTimeout               = errors.New("timed out")
	ErrWorkflowNotConfigured = errors.New("workflow not configured")
)

// ValidationError names the request fields that were missing or invalid.
type ValidationError struct {
	Fields  []string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "Missing required fields: " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
