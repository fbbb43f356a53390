// Package contactsheet composes rendered keyframes into one grid image.
package contactsheet

import (
	"context"
	"errors"
	"fmt"
	"image"
	"runtime"
	"sort"
	"sync"

	"github.com/user/keyframes/pkg/pipeline"
	"github.com/user/keyframes/pkg/ports"
)

// ErrNoFrames is returned when there is nothing to put on the sheet.
var ErrNoFrames = errors.New("contactsheet: no frames")

const jpegQuality = 90

// Stage composes a contact sheet from keyframes.
type Stage struct {
	renderer   ports.Renderer
	sink       ports.FrameSink
	logger     ports.Logger
	numWorkers int
}

// NewStage creates a new contact sheet stage.
func NewStage(renderer ports.Renderer, sink ports.FrameSink, logger ports.Logger, numWorkers int) *Stage {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &Stage{
		renderer:   renderer,
		sink:       sink,
		logger:     logger.WithComponent("contactsheet"),
		numWorkers: numWorkers,
	}
}

// Execute sorts the frames chronologically, scales them to thumbnails and
// lays them out in rows of input.Columns.
func (s *Stage) Execute(ctx context.Context, input pipeline.ContactSheetInput) (pipeline.ContactSheetResult, error) {
	if len(input.Frames) == 0 {
		return pipeline.ContactSheetResult{}, ErrNoFrames
	}
	input = withDefaults(input)

	frames := append([]pipeline.FrameRecord(nil), input.Frames...)
	sort.SliceStable(frames, func(i, j int) bool {
		return frames[i].Timestamp < frames[j].Timestamp
	})

	s.logger.Debug("Composing contact sheet from %d frames", len(frames))

	thumbs, err := s.thumbnails(ctx, frames, input.ThumbWidth)
	if err != nil {
		return pipeline.ContactSheetResult{}, err
	}

	cellHeight := 0
	for _, th := range thumbs {
		if h := th.Bounds().Dy(); h > cellHeight {
			cellHeight = h
		}
	}

	g := newGrid(input, len(thumbs), cellHeight)
	canvas := s.renderer.CreateCanvas(g.width, g.height, input.Theme.BackgroundColor)

	label := ports.TextStyle{
		FontSize: input.Theme.FontSize,
		FontPath: input.Theme.FontPath,
		Color:    input.Theme.TextColor,
		Align:    ports.AlignCenter,
	}

	for i, th := range thumbs {
		x, y := g.cell(i)
		// Center shorter thumbnails vertically in their cell
		dy := (cellHeight - th.Bounds().Dy()) / 2
		canvas.DrawImage(th, x, y+dy)
		canvas.DrawRectStroke(x, y, input.ThumbWidth, cellHeight, input.Theme.BorderColor, 1)
		canvas.DrawText(FormatTimestamp(frames[i].Timestamp), x+input.ThumbWidth/2, y+cellHeight+input.LabelHeight/2, label)
	}

	sheet := canvas.ToImage()
	data, err := s.renderer.EncodeImage(sheet, ports.FormatJPEG, jpegQuality)
	if err != nil {
		return pipeline.ContactSheetResult{}, fmt.Errorf("encode contact sheet: %w", err)
	}

	if s.sink != nil && s.sink.Enabled() {
		if err := s.sink.SaveContactSheet(sheet); err != nil {
			s.logger.Warn("Failed to write output: %s", err.Error())
		}
	}

	s.logger.Debug("Contact sheet composed: %dx%d", g.width, g.height)
	return pipeline.ContactSheetResult{
		Width:  g.width,
		Height: g.height,
		Rows:   g.rows,
		JPEG:   data,
	}, nil
}

// indexedThumb holds a thumbnail with its position in the sorted frames.
type indexedThumb struct {
	index int
	img   image.Image
}

// thumbnails decodes and scales frames with a worker pool.
func (s *Stage) thumbnails(ctx context.Context, frames []pipeline.FrameRecord, width int) ([]image.Image, error) {
	jobs := make(chan int, len(frames))
	results := make(chan indexedThumb, len(frames))
	errChan := make(chan error, s.numWorkers)

	var wg sync.WaitGroup
	for w := 0; w < s.numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if ctx.Err() != nil {
					return
				}
				img, err := s.renderer.DecodeImage(frames[idx].Image, ports.FormatJPEG)
				if err != nil {
					select {
					case errChan <- fmt.Errorf("decode frame at %.3f s: %w", frames[idx].Timestamp, err):
					default:
					}
					return
				}
				results <- indexedThumb{index: idx, img: s.renderer.ResizeImage(img, width, 0)}
			}
		}()
	}

	for i := range frames {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	close(results)
	close(errChan)

	if err := <-errChan; err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	thumbs := make([]image.Image, len(frames))
	for r := range results {
		thumbs[r.index] = r.img
	}
	return thumbs, nil
}

// grid is the sheet geometry.
type grid struct {
	columns, rows int
	cellW, cellH  int
	labelH        int
	gap, padding  int
	width, height int
}

func newGrid(input pipeline.ContactSheetInput, n, cellHeight int) grid {
	cols := input.Columns
	if n < cols {
		cols = n
	}
	rows := (n + cols - 1) / cols

	g := grid{
		columns: cols,
		rows:    rows,
		cellW:   input.ThumbWidth,
		cellH:   cellHeight,
		labelH:  input.LabelHeight,
		gap:     input.Gap,
		padding: input.Padding,
	}
	g.width = 2*g.padding + cols*g.cellW + (cols-1)*g.gap
	g.height = 2*g.padding + rows*(g.cellH+g.labelH) + (rows-1)*g.gap
	return g
}

// cell returns the top-left corner of thumbnail i.
func (g grid) cell(i int) (int, int) {
	col := i % g.columns
	row := i / g.columns
	x := g.padding + col*(g.cellW+g.gap)
	y := g.padding + row*(g.cellH+g.labelH+g.gap)
	return x, y
}

func withDefaults(in pipeline.ContactSheetInput) pipeline.ContactSheetInput {
	def := pipeline.DefaultContactSheetInput()
	if in.Columns <= 0 {
		in.Columns = def.Columns
	}
	if in.ThumbWidth <= 0 {
		in.ThumbWidth = def.ThumbWidth
	}
	if in.Gap < 0 {
		in.Gap = def.Gap
	}
	if in.Padding < 0 {
		in.Padding = def.Padding
	}
	if in.LabelHeight <= 0 {
		in.LabelHeight = def.LabelHeight
	}
	if in.Theme.BackgroundColor == nil {
		in.Theme = def.Theme
	}
	return in
}

// FormatTimestamp renders seconds as HH:MM:SS.mmm.
func FormatTimestamp(ts float64) string {
	ms := int64(ts*1000 + 0.5)
	h := ms / 3_600_000
	m := (ms / 60_000) % 60
	sec := (ms / 1000) % 60
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, sec, ms%1000)
}
