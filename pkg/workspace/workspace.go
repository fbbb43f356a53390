// Package workspace owns the lifecycle of the job-scoped temporary directory.
package workspace

import (
	"path/filepath"

	"github.com/user/keyframes/pkg/pipeline"
	"github.com/user/keyframes/pkg/ports"
)

// Manager creates and removes job workspaces under a root directory.
type Manager struct {
	root   string
	fs     ports.FileSystem
	logger ports.Logger
}

// New creates a Manager rooted at root.
func New(root string, fs ports.FileSystem, logger ports.Logger) *Manager {
	return &Manager{
		root:   root,
		fs:     fs,
		logger: logger.WithComponent("workspace"),
	}
}

// Root returns the directory workspaces are created in.
func (m *Manager) Root() string {
	return m.root
}

// Create makes the workspace directory for jobID and returns its path.
// A failure is fatal for the job and is returned as a *pipeline.DirectoryError.
func (m *Manager) Create(jobID string) (string, error) {
	path := filepath.Join(m.root, jobID)
	if err := m.fs.Mkdir(path); err != nil {
		return "", &pipeline.DirectoryError{Path: path, Err: err}
	}
	m.logger.Debug("Created workspace %s", path)
	return path, nil
}

// Destroy removes the workspace and everything in it.
// Failures are logged and returned as a *pipeline.TeardownError for
// inspection; callers do not escalate them.
func (m *Manager) Destroy(path string) error {
	if err := m.fs.RemoveAll(path); err != nil {
		terr := &pipeline.TeardownError{Path: path, Err: err}
		m.logger.Warn("Failed to remove workspace %s: %s", path, err.Error())
		return terr
	}
	m.logger.Debug("Removed workspace %s", path)
	return nil
}
