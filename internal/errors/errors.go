package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error types for common failure scenarios.
var (
	ErrBackendUnavailable = errors.New("player unavailable")
	ErrRejected           = errors.New("request rejected by player")
	ErrTrackNotFound      = errors.New("track not found")
	ErrNothingPlaying     = errors.New("nothing playing")
	ErrUnknownProcedure   = errors.New("unknown procedure")
	ErrTimeout            = errors.New("request timeout")
	ErrConfigNotFound     = errors.New("config file not found")
	ErrInvalidConfig      = errors.New("invalid configuration")
)

// EncoreError wraps an error with a user-friendly suggestion.
type EncoreError struct {
	Err        error
	Suggestion string
}

func (e *EncoreError) Error() string {
	return e.Err.Error()
}

func (e *EncoreError) Unwrap() error {
	return e.Err
}

// WithSuggestion wraps an error with a helpful suggestion.
func WithSuggestion(err error, suggestion string) error {
	return &EncoreError{
		Err:        err,
		Suggestion: suggestion,
	}
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// GetSuggestion returns a suggestion for the given error.
func GetSuggestion(err error) string {
	if err == nil {
		return ""
	}

	var encErr *EncoreError
	if errors.As(err, &encErr) && encErr.Suggestion != "" {
		return encErr.Suggestion
	}

	errStr := strings.ToLower(err.Error())

	if errors.Is(err, ErrBackendUnavailable) || strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") {
		return "Start the player with 'encore serve' or point authority.addr at a running one"
	}

	if errors.Is(err, ErrTimeout) || strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded") {
		return "The player did not answer in time. Check it is running and try again"
	}

	if errors.Is(err, ErrTrackNotFound) {
		return "Run 'encore search <query>' to find a track id"
	}

	if errors.Is(err, ErrNothingPlaying) {
		return "Start something with 'encore play <track-id>'"
	}

	if errors.Is(err, ErrRejected) {
		return "The player refused the request; run 'encore status' to see its state"
	}

	if errors.Is(err, ErrConfigNotFound) || errors.Is(err, ErrInvalidConfig) || strings.Contains(errStr, "config") {
		return "Run 'encore config init' to create a configuration file"
	}

	return ""
}

// Format returns a formatted error message with suggestion if available.
func Format(err error) string {
	if err == nil {
		return ""
	}

	suggestion := GetSuggestion(err)
	if suggestion != "" {
		return fmt.Sprintf("Error: %s\n\nSuggestion: %s", err.Error(), suggestion)
	}

	return fmt.Sprintf("Error: %s", err.Error())
}
