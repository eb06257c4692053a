package domain

import (
	"errors"
	"fmt"
)

var (
	ErrMissingCredential = errors.New("hugging face API key not found in environment variables")
	ErrEmptyPrompt       = errors.New("prompt must not be empty")
	ErrHistoryDisabled   = errors.New("generation history is not configured")
)

// ConfigurationError is returned when required configuration is absent.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return e.Err.Error()
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// UpstreamError is returned when the inference API answers with a non-2xx
// status or cannot be reached at all. StatusCode is zero in the latter case.
type UpstreamError struct {
	StatusCode int
	Status     string
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("API request failed: %v", e.Err)
	}
	return fmt.Sprintf("API request failed: %d %s - %s", e.StatusCode, e.Status, e.Body)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// PersistenceError wraps filesystem failures while saving an image.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to save image: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// ValidationError is returned for caller input that cannot be processed.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
