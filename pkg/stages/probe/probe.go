// Package probe implements the metadata stream stage. It runs ffprobe over
// the whole video and reports intra frame timestamps as they stream in.
package probe

import (
	"context"
	"fmt"
	"io"

	"github.com/user/keyframes/pkg/pipeline"
	"github.com/user/keyframes/pkg/ports"
)

// DefaultTimestampField is the ffprobe frame field read for timestamps.
// FFmpeg 5 removed pkt_pts_time; older builds can still be configured.
const DefaultTimestampField = "pts_time"

const readChunkSize = 32 * 1024

// Stage drives the ffprobe metadata stream.
type Stage struct {
	runner  ports.ProcessRunner
	binary  string
	tsField string
	logger  ports.Logger
}

// NewStage creates a new probe stage.
func NewStage(runner ports.ProcessRunner, binary, tsField string, logger ports.Logger) *Stage {
	if tsField == "" {
		tsField = DefaultTimestampField
	}
	return &Stage{
		runner:  runner,
		binary:  binary,
		tsField: tsField,
		logger:  logger.WithComponent("probe"),
	}
}

// Args returns the ffprobe arguments for path.
func (s *Stage) Args(path string) []string {
	return []string{
		"-loglevel", "error",
		"-select_streams", "v:0",
		"-show_entries", fmt.Sprintf("frame=%s,pict_type", s.tsField),
		"-of", "csv=print_section=0",
		path,
	}
}

// Run streams path through ffprobe and calls onTimestamp for every intra
// frame in the order ffprobe reports them. It returns once the process has
// exited. The count of reported timestamps is returned even on error.
//
// A non-zero exit, a start failure or a read failure is a *pipeline.ProcessError.
// If ctx is cancelled, ctx.Err() is returned.
func (s *Stage) Run(ctx context.Context, path string, onTimestamp func(ts float64)) (int, error) {
	s.logger.Debug("Starting metadata stream for %s", path)

	proc, err := s.runner.Start(ctx, ports.ProcessSpec{Binary: s.binary, Args: s.Args(path)})
	if err != nil {
		return 0, &pipeline.ProcessError{Binary: s.binary, ExitCode: -1, Err: err}
	}

	count := 0
	handle := func(line string) {
		ts, intra, perr := ParseFrameLine(line)
		if !intra {
			return
		}
		if perr != nil {
			s.logger.Debug("Skipping keyframe line %q: %s", line, perr.Error())
			return
		}
		count++
		s.logger.Debug("Keyframe at %.3f s", ts)
		onTimestamp(ts)
	}

	var splitter LineSplitter
	readErr := readChunks(proc.Stdout(), func(chunk []byte) {
		splitter.Feed(chunk, handle)
	})
	if readErr == nil {
		splitter.Flush(handle)
	} else if splitter.Pending() {
		s.logger.Debug("Dropping truncated line after read error")
	}

	code, waitErr := proc.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return count, ctxErr
	}

	switch {
	case waitErr != nil:
		err = &pipeline.ProcessError{Binary: s.binary, ExitCode: code, Stderr: proc.Stderr(), Err: waitErr}
	case code != 0:
		err = &pipeline.ProcessError{Binary: s.binary, ExitCode: code, Stderr: proc.Stderr()}
	case readErr != nil:
		err = &pipeline.ProcessError{Binary: s.binary, ExitCode: code, Err: fmt.Errorf("read stdout: %w", readErr)}
	}
	if err != nil {
		s.logger.Debug("Metadata process failed: %s", err.Error())
		return count, err
	}

	s.logger.Debug("Metadata stream closed: %d keyframes", count)
	return count, nil
}

// readChunks hands every raw read to fn until EOF.
func readChunks(r io.Reader, fn func(chunk []byte)) error {
	buf := make([]byte, readChunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			fn(buf[:n])
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
