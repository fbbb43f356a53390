// Package resolve implements the input resolution stage.
package resolve

import (
	"context"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/user/keyframes/pkg/pipeline"
	"github.com/user/keyframes/pkg/ports"
)

// Stage turns a path or an in-memory buffer into a single input path.
type Stage struct {
	workDir string
	fs      ports.FileSystem
	logger  ports.Logger
}

// NewStage creates a new resolve stage. Buffers are persisted into workDir.
func NewStage(workDir string, fs ports.FileSystem, logger ports.Logger) *Stage {
	return &Stage{
		workDir: workDir,
		fs:      fs,
		logger:  logger.WithComponent("resolve"),
	}
}

// Execute resolves the input. Every failure is a *pipeline.InputError.
func (s *Stage) Execute(ctx context.Context, input pipeline.Input) (pipeline.ResolveResult, error) {
	if err := ctx.Err(); err != nil {
		return pipeline.ResolveResult{}, err
	}

	switch input.Kind {
	case pipeline.KindPath:
		if input.Path == "" {
			return pipeline.ResolveResult{}, pipeline.NewInputError("empty path", nil)
		}
		if err := s.fs.Access(input.Path); err != nil {
			return pipeline.ResolveResult{}, pipeline.NewInputError("input file is not accessible", err)
		}
		s.logger.Debug("Using input file %s", input.Path)
		return pipeline.ResolveResult{Path: input.Path}, nil

	case pipeline.KindBytes:
		if len(input.Bytes) == 0 {
			return pipeline.ResolveResult{}, pipeline.NewInputError("empty buffer", nil)
		}
		path := filepath.Join(s.workDir, uuid.NewString())
		if err := s.fs.WriteFile(path, input.Bytes); err != nil {
			return pipeline.ResolveResult{}, pipeline.NewInputError("persist buffer", err)
		}
		s.logger.Debug("Persisted %d byte buffer to %s", len(input.Bytes), path)
		return pipeline.ResolveResult{Path: path, Persisted: true}, nil

	default:
		return pipeline.ResolveResult{}, pipeline.NewInputError("unsupported "+input.Describe(), nil)
	}
}

var _ pipeline.Stage[pipeline.Input, pipeline.ResolveResult] = (*Stage)(nil)
