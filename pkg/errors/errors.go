// Package errors defines the solver's sentinel error kinds and an AppError
// wrapper that carries the process exit status for the command surface.
package errors

import (
	"errors"
	"fmt"
)

var (
	ErrDictionaryLoad        = errors.New("dictionary load failed")
	ErrInvalidWordLength     = errors.New("invalid word length")
	ErrInvalidWord           = errors.New("invalid word")
	ErrInvalidFeedback       = errors.New("invalid feedback format")
	ErrEmptyCandidateSet     = errors.New("empty or zero-weight candidate set")
	ErrNoConsistentCandidate = errors.New("no candidate consistent with feedback")
	ErrCurveUnavailable      = errors.New("calibration curve unavailable")
	ErrNoGuessAvailable      = errors.New("no guess available")
	ErrNoProposal            = errors.New("no proposed guess")
	ErrWorkerFailed          = errors.New("worker failed")
)

// Exit statuses used by cmd/wordle.
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitInput    = 2
	ExitLogic    = 3
	ExitDataLoad = 4
)

type AppError struct {
	Err      error
	Message  string
	ExitCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, exitCode int, message string) *AppError {
	return &AppError{
		Err:      sentinel,
		Message:  message,
		ExitCode: exitCode,
	}
}

func Newf(sentinel error, exitCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:      sentinel,
		Message:  fmt.Sprintf(format, args...),
		ExitCode: exitCode,
	}
}

// ExitCode maps an error to the status the process should exit with.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.ExitCode
	}

	switch {
	case errors.Is(err, ErrDictionaryLoad), errors.Is(err, ErrCurveUnavailable):
		return ExitDataLoad
	case errors.Is(err, ErrInvalidFeedback), errors.Is(err, ErrInvalidWordLength), errors.Is(err, ErrInvalidWord):
		return ExitInput
	case errors.Is(err, ErrNoConsistentCandidate), errors.Is(err, ErrNoGuessAvailable),
		errors.Is(err, ErrEmptyCandidateSet), errors.Is(err, ErrNoProposal):
		return ExitLogic
	default:
		return ExitFailure
	}
}
