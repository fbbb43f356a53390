package probe

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/keyframes/pkg/adapters/logger"
	"github.com/user/keyframes/pkg/mocks"
	"github.com/user/keyframes/pkg/pipeline"
	"github.com/user/keyframes/pkg/ports"
)

func collect(s *LineSplitter, chunks ...string) []string {
	var lines []string
	emit := func(l string) { lines = append(lines, l) }
	for _, c := range chunks {
		s.Feed([]byte(c), emit)
	}
	s.Flush(emit)
	return lines
}

func TestLineSplitter(t *testing.T) {
	tests := []struct {
		name   string
		chunks []string
		want   []string
	}{
		{"whole lines", []string{"0.000000,I\n2.500000,P\n"}, []string{"0.000000,I", "2.500000,P"}},
		{"split mid line", []string{"0.0000", "00,I\n"}, []string{"0.000000,I"}},
		{"split at separator", []string{"2.5,", "I\n5.0,I\n"}, []string{"2.5,I", "5.0,I"}},
		{"split before newline", []string{"2.5,I", "\n"}, []string{"2.5,I"}},
		{"byte by byte", []string{"1", ".", "0", ",", "I", "\n"}, []string{"1.0,I"}},
		{"crlf", []string{"1.0,I\r\n2.0,I\r", "\n"}, []string{"1.0,I", "2.0,I"}},
		{"blank lines", []string{"\n\n1.0,I\n\n"}, []string{"1.0,I"}},
		{"unterminated tail", []string{"1.0,I\n2.0,"}, []string{"1.0,I", "2.0,"}},
		{"unterminated across chunks", []string{"3.", "0,I"}, []string{"3.0,I"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s LineSplitter
			assert.Equal(t, tt.want, collect(&s, tt.chunks...))
			assert.False(t, s.Pending())
		})
	}
}

func TestParseFrameLine(t *testing.T) {
	tests := []struct {
		line      string
		wantTS    float64
		wantIntra bool
		wantErr   bool
	}{
		{"0.000000,I", 0, true, false},
		{"2.500000,I,", 2.5, true, false},
		{" 5.0 , I ", 5, true, false},
		{"1.000000,P", 0, false, false},
		{"1.000000,B", 0, false, false},
		{"1.000000", 0, false, false},
		{"", 0, false, false},
		{"N/A,I", 0, true, true},
		{"-0.040000,I", 0, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			ts, intra, err := ParseFrameLine(tt.line)
			assert.Equal(t, tt.wantIntra, intra)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedLine)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTS, ts)
		})
	}
}

func TestStage_Args(t *testing.T) {
	s := NewStage(&mocks.ProcessRunner{}, "ffprobe", "", logger.NewNoop())
	assert.Equal(t, []string{
		"-loglevel", "error",
		"-select_streams", "v:0",
		"-show_entries", "frame=pts_time,pict_type",
		"-of", "csv=print_section=0",
		"/in.mp4",
	}, s.Args("/in.mp4"))

	legacy := NewStage(&mocks.ProcessRunner{}, "ffprobe", "pkt_pts_time", logger.NewNoop())
	assert.Contains(t, legacy.Args("/in.mp4"), "frame=pkt_pts_time,pict_type")
}

func TestStage_RunSplitChunks(t *testing.T) {
	runner := &mocks.ProcessRunner{
		Script: func(spec ports.ProcessSpec) mocks.ProcessScript {
			return mocks.ProcessScript{
				Stdout: []string{
					"0.000000,I\n0.040000,P\n2.50",
					"0000,I\n3.000000,B\n5.",
					"000000,I",
				},
				ChunkDelay: time.Millisecond,
			}
		},
	}
	s := NewStage(runner, "ffprobe", "", logger.NewNoop())

	var got []float64
	count, err := s.Run(context.Background(), "/in.mp4", func(ts float64) {
		got = append(got, ts)
	})
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Equal(t, []float64{0, 2.5, 5}, got)

	calls := runner.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "ffprobe", calls[0].Binary)
	assert.Equal(t, "/in.mp4", calls[0].Args[len(calls[0].Args)-1])
}

func TestStage_RunSkipsMalformed(t *testing.T) {
	runner := &mocks.ProcessRunner{
		Script: func(spec ports.ProcessSpec) mocks.ProcessScript {
			return mocks.ProcessScript{Stdout: []string{"N/A,I\n1.0,I\n"}}
		},
	}
	s := NewStage(runner, "ffprobe", "", logger.NewNoop())

	var got []float64
	count, err := s.Run(context.Background(), "/in.mp4", func(ts float64) { got = append(got, ts) })
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, []float64{1}, got)
}

func TestStage_RunNonZeroExit(t *testing.T) {
	runner := &mocks.ProcessRunner{
		Script: func(spec ports.ProcessSpec) mocks.ProcessScript {
			return mocks.ProcessScript{
				Stdout:   []string{"0.0,I\n"},
				Stderr:   "Invalid data found when processing input",
				ExitCode: 1,
			}
		},
	}
	s := NewStage(runner, "ffprobe", "", logger.NewNoop())

	count, err := s.Run(context.Background(), "/in.mp4", func(float64) {})
	assert.Equal(t, 1, count)
	require.ErrorIs(t, err, pipeline.ErrProcess)

	var perr *pipeline.ProcessError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 1, perr.ExitCode)
	assert.Equal(t, "ffprobe", perr.Binary)
	assert.Contains(t, perr.Stderr, "Invalid data")
}

func TestStage_RunReadErrorDropsTruncatedLine(t *testing.T) {
	readErr := errors.New("pipe broken")
	runner := &mocks.ProcessRunner{
		Script: func(spec ports.ProcessSpec) mocks.ProcessScript {
			return mocks.ProcessScript{
				Stdout:    []string{"0.000000,I\n2.50"},
				StdoutErr: readErr,
			}
		},
	}
	var buf bytes.Buffer
	s := NewStage(runner, "ffprobe", "", logger.NewConsoleWriter(ports.LevelDebug, &buf))

	var got []float64
	count, err := s.Run(context.Background(), "/in.mp4", func(ts float64) { got = append(got, ts) })
	require.ErrorIs(t, err, pipeline.ErrProcess)
	assert.ErrorIs(t, err, readErr)
	assert.Equal(t, 1, count)
	assert.Equal(t, []float64{0}, got)
	assert.Contains(t, buf.String(), "Dropping truncated line after read error")
}

func TestStage_RunStartFailure(t *testing.T) {
	startErr := errors.New("executable file not found")
	runner := &mocks.ProcessRunner{
		Script: func(spec ports.ProcessSpec) mocks.ProcessScript {
			return mocks.ProcessScript{StartErr: startErr}
		},
	}
	s := NewStage(runner, "ffprobe", "", logger.NewNoop())

	_, err := s.Run(context.Background(), "/in.mp4", func(float64) {})
	assert.ErrorIs(t, err, pipeline.ErrProcess)
	assert.ErrorIs(t, err, startErr)
}

func TestStage_RunCancelled(t *testing.T) {
	hold := make(chan struct{})
	defer close(hold)
	runner := &mocks.ProcessRunner{
		Script: func(spec ports.ProcessSpec) mocks.ProcessScript {
			return mocks.ProcessScript{Stdout: []string{"0.0,I\n"}, Hold: hold}
		},
	}
	s := NewStage(runner, "ffprobe", "", logger.NewNoop())

	ctx, cancel := context.WithCancel(context.Background())
	seen := make(chan struct{}, 1)
	go func() {
		<-seen
		cancel()
	}()

	_, err := s.Run(ctx, "/in.mp4", func(float64) { seen <- struct{}{} })
	assert.ErrorIs(t, err, context.Canceled)
}
