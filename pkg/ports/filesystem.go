package ports

// FileSystem abstracts file system operations used by a job.
type FileSystem interface {
	// ReadFile reads the entire contents of a file.
	ReadFile(path string) ([]byte, error)

	// WriteFile writes data to a file, creating it if necessary.
	WriteFile(path string, data []byte) error

	// Mkdir creates a single directory. It fails if the directory already exists.
	Mkdir(path string) error

	// MkdirAll creates a directory and all parent directories.
	MkdirAll(path string) error

	// Access reports an error if the path cannot be read.
	Access(path string) error

	// Exists checks if a file or directory exists.
	Exists(path string) (bool, error)

	// Remove deletes a file or empty directory.
	Remove(path string) error

	// RemoveAll deletes a path and any children it contains.
	RemoveAll(path string) error
}
