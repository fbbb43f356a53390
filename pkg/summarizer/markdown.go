package summarizer

import (
	"fmt"
	"strings"
	"time"
)

// MarkdownFormatter renders a Summary as a Markdown document.
type MarkdownFormatter struct {
	translate func(string) string
	version   string
}

// MarkdownOption configures a MarkdownFormatter.
type MarkdownOption func(*MarkdownFormatter)

// WithTranslator sets the function used to translate headings and labels.
func WithTranslator(fn func(string) string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.translate = fn
	}
}

// WithVersion adds the tool version to the footer.
func WithVersion(version string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.version = version
	}
}

// NewMarkdownFormatter creates a MarkdownFormatter.
func NewMarkdownFormatter(opts ...MarkdownOption) *MarkdownFormatter {
	f := &MarkdownFormatter{
		translate: func(s string) string { return s },
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format implements Formatter.
func (f *MarkdownFormatter) Format(s *Summary) string {
	t := f.translate
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", t("Keyframe Extraction Summary"))

	fmt.Fprintf(&b, "## %s\n\n", t("Job"))
	row := func(label, value string) {
		fmt.Fprintf(&b, "- **%s**: %s\n", t(label), value)
	}
	row("Job ID", s.Job.ID)
	row("Input", s.Job.Input)
	row("Elapsed", formatDuration(s.Job.Duration))
	b.WriteString("\n")

	if s.Source.Format != "" {
		fmt.Fprintf(&b, "## %s\n\n", t("Source"))
		row("Container", s.Source.Format)
		row("Codec", s.Source.Codec)
		if s.Source.Width > 0 && s.Source.Height > 0 {
			row("Resolution", fmt.Sprintf("%dx%d", s.Source.Width, s.Source.Height))
		}
		if s.Source.DurationS > 0 {
			row("Duration", fmt.Sprintf("%.2f s", s.Source.DurationS))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "## %s\n\n", t("Frames"))
	fmt.Fprintf(&b, "| %s | %s |\n|---|---|\n", t("Metric"), t("Value"))
	fmt.Fprintf(&b, "| %s | %d |\n", t("Keyframes identified"), s.Frames.Identified)
	fmt.Fprintf(&b, "| %s | %d |\n", t("Keyframes rendered"), s.Frames.Rendered)
	fmt.Fprintf(&b, "| %s | %d |\n", t("Failed renders"), s.Frames.Failed)
	fmt.Fprintf(&b, "| %s | %s |\n", t("Image data"), formatBytes(s.Frames.TotalBytes))
	b.WriteString("\n")

	if len(s.Frames.Failures) > 0 {
		fmt.Fprintf(&b, "### %s\n\n", t("Failures"))
		for _, fail := range s.Frames.Failures {
			// Only the first line; ffmpeg stderr follows on later lines
			msg, _, _ := strings.Cut(fail.Error, "\n")
			fmt.Fprintf(&b, "- %.3f s: %s\n", fail.Timestamp, msg)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "## %s\n\n", t("Settings"))
	row("Workers", fmt.Sprintf("%d", s.Settings.Workers))
	row("Quality", fmt.Sprintf("%d", s.Settings.Quality))
	row("Size", formatSize(s.Settings.Width, s.Settings.Height, t("source")))
	if s.Settings.TimestampField != "" {
		row("Timestamp field", s.Settings.TimestampField)
	}
	if s.Settings.RenderTimeout > 0 {
		row("Render timeout", formatDuration(s.Settings.RenderTimeout))
	}
	b.WriteString("\n")

	if s.Outputs.FramesDir != "" || s.Outputs.ContactSheet != "" {
		fmt.Fprintf(&b, "## %s\n\n", t("Outputs"))
		if s.Outputs.FramesDir != "" {
			row("Frames", s.Outputs.FramesDir)
		}
		if s.Outputs.ContactSheet != "" {
			row("Contact sheet", s.Outputs.ContactSheet)
		}
		b.WriteString("\n")
	}

	footer := fmt.Sprintf("%s %s", t("Generated at"), s.GeneratedAt.Format(time.RFC3339))
	if f.version != "" {
		footer += " · keyframes " + f.version
	}
	fmt.Fprintf(&b, "---\n\n_%s_\n", footer)

	return b.String()
}

func formatSize(w, h int, source string) string {
	axis := func(v int) string {
		if v <= 0 {
			return source
		}
		return fmt.Sprintf("%d", v)
	}
	return axis(w) + " x " + axis(h)
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "0 s"
	}
	if d < time.Second {
		return fmt.Sprintf("%d ms", d.Milliseconds())
	}
	return fmt.Sprintf("%.2f s", d.Seconds())
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit && exp < 2; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(bytes)/float64(div), "KMG"[exp])
}
