package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrInput classifies missing or invalid input and bad dimensions.
	ErrInput = errors.New("keyframes: invalid input")

	// ErrDirectory classifies a workspace that could not be created.
	ErrDirectory = errors.New("keyframes: workspace directory error")

	// ErrProcess classifies a subprocess that failed to start or exited non-zero.
	ErrProcess = errors.New("keyframes: process failed")

	// ErrTeardown classifies a workspace that could not be removed.
	ErrTeardown = errors.New("keyframes: teardown failed")
)

// InputError is returned synchronously when a job cannot start because of its input.
type InputError struct {
	Reason string
	Err    error
}

// NewInputError creates an InputError. err may be nil.
func NewInputError(reason string, err error) *InputError {
	return &InputError{Reason: reason, Err: err}
}

func (e *InputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid input: %s: %v", e.Reason, e.Err)
	}
	return "invalid input: " + e.Reason
}

func (e *InputError) Unwrap() error { return e.Err }

// Is matches ErrInput.
func (e *InputError) Is(target error) bool { return target == ErrInput }

// DirectoryError is returned when the job workspace cannot be created.
type DirectoryError struct {
	Path string
	Err  error
}

func (e *DirectoryError) Error() string {
	return fmt.Sprintf("create workspace %s: %v", e.Path, e.Err)
}

func (e *DirectoryError) Unwrap() error { return e.Err }

// Is matches ErrDirectory.
func (e *DirectoryError) Is(target error) bool { return target == ErrDirectory }

// ProcessError describes a subprocess that did not succeed.
// ExitCode is -1 when the process never produced an exit status.
type ProcessError struct {
	Binary   string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ProcessError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Binary, e.ExitCode)
	if e.Err != nil {
		msg = fmt.Sprintf("%s failed: %v", e.Binary, e.Err)
	}
	if e.Stderr != "" {
		msg += "\nstderr: " + e.Stderr
	}
	return msg
}

func (e *ProcessError) Unwrap() error { return e.Err }

// Is matches ErrProcess.
func (e *ProcessError) Is(target error) bool { return target == ErrProcess }

// TeardownError is logged when a workspace cannot be removed. It is never escalated.
type TeardownError struct {
	Path string
	Err  error
}

func (e *TeardownError) Error() string {
	return fmt.Sprintf("remove workspace %s: %v", e.Path, e.Err)
}

func (e *TeardownError) Unwrap() error { return e.Err }

// Is matches ErrTeardown.
func (e *TeardownError) Is(target error) bool { return target == ErrTeardown }
