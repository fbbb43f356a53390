package probe

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// LineSplitter turns arbitrarily sized stdout chunks into complete lines.
// A trailing partial line is kept until the chunk that terminates it arrives.
type LineSplitter struct {
	partial []byte
}

// Feed consumes one chunk and calls emit for every line it completes.
func (s *LineSplitter) Feed(chunk []byte, emit func(line string)) {
	for len(chunk) > 0 {
		i := bytes.IndexByte(chunk, '\n')
		if i < 0 {
			s.partial = append(s.partial, chunk...)
			return
		}
		var line []byte
		if len(s.partial) > 0 {
			line = append(s.partial, chunk[:i]...)
			s.partial = s.partial[:0]
		} else {
			line = chunk[:i]
		}
		chunk = chunk[i+1:]
		emitLine(line, emit)
	}
}

// Flush emits a final unterminated line, if any.
func (s *LineSplitter) Flush(emit func(line string)) {
	if len(s.partial) == 0 {
		return
	}
	line := s.partial
	s.partial = nil
	emitLine(line, emit)
}

// Pending reports whether a partial line is buffered.
func (s *LineSplitter) Pending() bool {
	return len(s.partial) > 0
}

func emitLine(line []byte, emit func(string)) {
	line = bytes.TrimSuffix(line, []byte{'\r'})
	if len(line) == 0 {
		return
	}
	emit(string(line))
}

// ErrMalformedLine is returned by ParseFrameLine for an intra line whose
// timestamp cannot be used.
var ErrMalformedLine = errors.New("probe: malformed frame line")

// ParseFrameLine parses one "timestamp,pict_type" line.
// intra is false for every frame that is not an I frame; such lines are
// not an error.
func ParseFrameLine(line string) (ts float64, intra bool, err error) {
	fields := strings.Split(line, ",")
	if len(fields) < 2 || strings.TrimSpace(fields[1]) != "I" {
		return 0, false, nil
	}

	raw := strings.TrimSpace(fields[0])
	ts, err = strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, true, fmt.Errorf("%w: timestamp %q", ErrMalformedLine, raw)
	}
	if ts < 0 {
		return 0, true, fmt.Errorf("%w: negative timestamp %q", ErrMalformedLine, raw)
	}
	return ts, true, nil
}
