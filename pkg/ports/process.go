package ports

import (
	"context"
	"io"
)

// ProcessSpec describes an external process invocation.
type ProcessSpec struct {
	Binary string
	Args   []string
}

// ProcessRunner starts external processes.
type ProcessRunner interface {
	// Start launches the process. Cancelling ctx kills it.
	Start(ctx context.Context, spec ProcessSpec) (Process, error)
}

// Process is a started external process.
type Process interface {
	// Stdout returns the process standard output stream.
	// It must be fully consumed before Wait is called.
	Stdout() io.Reader

	// Stderr returns whatever the process has written to standard error so far.
	Stderr() string

	// Wait blocks until the process exits and returns its exit code.
	// err is non-nil only when the exit status could not be determined
	// (killed by signal, context expired, I/O failure).
	Wait() (exitCode int, err error)
}
