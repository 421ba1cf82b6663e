package errs

import (
	"context"
	"errors"
	"fmt"
)

// ValidationError marks malformed or missing input. Fatal to the current run.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func Validation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// ProviderError wraps a failure from an external provider (LLM, embedding,
// web search, transcription). Transient errors are retried by the calling
// branch; timeouts are surfaced without automatic retry.
type ProviderError struct {
	Provider  string
	Transient bool
	Timeout   bool
	Err       error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func ProviderTransient(provider string, err error) error {
	return &ProviderError{Provider: provider, Transient: true, Err: err}
}

func ProviderTimeout(provider string, err error) error {
	return &ProviderError{Provider: provider, Timeout: true, Err: err}
}

// StorageError marks a persistence failure. Logged as a run warning, never
// fatal: the generated reply is still returned to the user.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage %s: %v", e.Op, e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

func Storage(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsTransient(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Transient
}

func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Timeout
}

func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// UserMessage maps an internal error onto a short, non-technical reply.
// Raw provider error text is never shown to the user.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case IsValidation(err):
		return "I could not understand that request. Please send a text or voice message."
	case IsTimeout(err):
		return "That took longer than expected. Please try again in a moment."
	case IsTransient(err):
		return "The assistant is a little busy right now. Please try again."
	default:
		return "Sorry, something went wrong while preparing your answer."
	}
}
