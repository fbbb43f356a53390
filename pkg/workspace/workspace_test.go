package workspace

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/user/keyframes/pkg/adapters/logger"
	"github.com/user/keyframes/pkg/adapters/osfilesystem"
	"github.com/user/keyframes/pkg/mocks"
	"github.com/user/keyframes/pkg/pipeline"
	"github.com/user/keyframes/pkg/ports"
)

func TestManager_CreateAndDestroy(t *testing.T) {
	root := t.TempDir()
	fs := osfilesystem.New()
	m := New(root, fs, logger.NewNoop())

	path, err := m.Create("job-1")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if path != filepath.Join(root, "job-1") {
		t.Errorf("unexpected path %s", path)
	}
	if err := fs.WriteFile(filepath.Join(path, "frame.jpg"), []byte("jpeg")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if err := m.Destroy(path); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}
	if exists, _ := fs.Exists(path); exists {
		t.Error("expected workspace to be removed")
	}
}

func TestManager_CreateTwiceFails(t *testing.T) {
	m := New(t.TempDir(), osfilesystem.New(), logger.NewNoop())

	if _, err := m.Create("job"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	_, err := m.Create("job")
	if !errors.Is(err, pipeline.ErrDirectory) {
		t.Fatalf("expected ErrDirectory, got %v", err)
	}
	var dirErr *pipeline.DirectoryError
	if !errors.As(err, &dirErr) || !strings.HasSuffix(dirErr.Path, "job") {
		t.Errorf("expected DirectoryError with path, got %#v", err)
	}
}

func TestManager_CreateMissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "does-not-exist")
	m := New(root, osfilesystem.New(), logger.NewNoop())

	if _, err := m.Create("job"); !errors.Is(err, pipeline.ErrDirectory) {
		t.Errorf("expected ErrDirectory, got %v", err)
	}
}

func TestManager_DestroyFailureIsLogged(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.RemoveAllFunc = func(path string) error {
		return errors.New("device busy")
	}

	var buf bytes.Buffer
	m := New("/tmp", fs, logger.NewConsoleWriter(ports.LevelDebug, &buf))

	err := m.Destroy("/tmp/job")
	if !errors.Is(err, pipeline.ErrTeardown) {
		t.Fatalf("expected ErrTeardown, got %v", err)
	}
	if !strings.Contains(buf.String(), "device busy") {
		t.Errorf("expected warning in log, got %q", buf.String())
	}
}
