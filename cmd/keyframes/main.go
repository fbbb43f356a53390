// Package main provides the CLI entry point for keyframes.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/keyframes/pkg/adapters/execrunner"
	"github.com/user/keyframes/pkg/adapters/filesink"
	"github.com/user/keyframes/pkg/adapters/ggrenderer"
	"github.com/user/keyframes/pkg/adapters/logger"
	"github.com/user/keyframes/pkg/adapters/mp4probe"
	"github.com/user/keyframes/pkg/adapters/nullsink"
	"github.com/user/keyframes/pkg/adapters/osfilesystem"
	"github.com/user/keyframes/pkg/config"
	"github.com/user/keyframes/pkg/events"
	"github.com/user/keyframes/pkg/orchestrator"
	"github.com/user/keyframes/pkg/pipeline"
	"github.com/user/keyframes/pkg/ports"
	"github.com/user/keyframes/pkg/stages/contactsheet"
	"github.com/user/keyframes/pkg/summarizer"
)

var version = "dev"

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, l10n.F("Error: %s", err.Error()))
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "keyframes",
		Usage:   l10n.T("Extract keyframes from videos with ffprobe and ffmpeg"),
		Version: version,
		Commands: []*cli.Command{
			extractCommand(),
			{
				Name:  "version",
				Usage: l10n.T("Show version information"),
				Action: func(c *cli.Context) error {
					fmt.Fprintln(c.App.Writer, l10n.F("keyframes version %s", version))
					return nil
				},
			},
		},
	}
}

func extractCommand() *cli.Command {
	return &cli.Command{
		Name:      "extract",
		Usage:     l10n.T("Extract every keyframe of a video as JPEG"),
		ArgsUsage: "<video>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: l10n.T("Directory for keyframe JPEG files"), Category: l10n.T("Output")},
			&cli.StringFlag{Name: "contact-sheet", Usage: l10n.T("Write a contact sheet JPEG to this file"), Category: l10n.T("Output")},
			&cli.IntFlag{Name: "columns", Usage: l10n.T("Contact sheet columns"), Category: l10n.T("Output")},
			&cli.StringFlag{Name: "summary", Usage: l10n.T("Output execution summary to file (Markdown format)"), Category: l10n.T("Output")},
			&cli.IntFlag{Name: "width", Aliases: []string{"W"}, Usage: l10n.T("Keyframe width (-1 keeps the source size)"), Category: l10n.T("Rendering")},
			&cli.IntFlag{Name: "height", Aliases: []string{"H"}, Usage: l10n.T("Keyframe height (-1 keeps the source size)"), Category: l10n.T("Rendering")},
			&cli.IntFlag{Name: "workers", Usage: l10n.T("Concurrent ffmpeg renders"), Category: l10n.T("Rendering")},
			&cli.IntFlag{Name: "timeout", Usage: l10n.T("Per-render timeout in seconds"), Category: l10n.T("Rendering")},
			&cli.BoolFlag{Name: "stdin", Usage: l10n.T("Read the video from standard input"), Category: l10n.T("Input")},
			&cli.StringFlag{Name: "config", Usage: l10n.T("YAML configuration file"), Category: l10n.T("Input")},
			&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Usage: l10n.T("Log level (debug, info, warn, error)"), Category: l10n.T("Logging")},
			&cli.StringFlag{Name: "log-format", Usage: l10n.T("Log format (console, text, json)"), Category: l10n.T("Logging")},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"Q"}, Usage: l10n.T("Suppress all log output"), Category: l10n.T("Logging")},
		},
		Action: runExtract,
	}
}

// buildConfig layers CLI flags over defaults, the config file and the environment.
func buildConfig(c *cli.Context) (config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cfg, err
	}

	if c.IsSet("width") {
		cfg.Width = c.Int("width")
	}
	if c.IsSet("height") {
		cfg.Height = c.Int("height")
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	if c.IsSet("timeout") {
		cfg.RenderTimeoutSec = c.Int("timeout")
	}
	if c.IsSet("columns") {
		cfg.ContactSheetColumns = c.Int("columns")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("log-format") {
		cfg.LogFormat = c.String("log-format")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	cfg.FFprobePath, err = execrunner.FindBinary("ffprobe", cfg.FFprobePath)
	if err != nil {
		return cfg, err
	}
	cfg.FFmpegPath, err = execrunner.FindBinary("ffmpeg", cfg.FFmpegPath)
	if err != nil {
		return cfg, err
	}
	return cfg, nil
}

func newLogger(c *cli.Context, cfg config.Config) ports.Logger {
	if c.Bool("quiet") {
		return logger.NewNoop()
	}
	level := ports.ParseLogLevel(cfg.LogLevel)
	switch cfg.LogFormat {
	case "json", "text":
		return logger.NewLogrus(level, cfg.LogFormat, os.Stderr)
	default:
		return logger.NewConsole(level)
	}
}

func readInput(c *cli.Context) (pipeline.Input, error) {
	if c.Bool("stdin") {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return pipeline.Input{}, fmt.Errorf("read stdin: %w", err)
		}
		return pipeline.BytesInput(data), nil
	}
	if c.NArg() != 1 {
		return pipeline.Input{}, cli.Exit(l10n.T("Exactly one video argument is required"), 2)
	}
	return pipeline.PathInput(c.Args().First()), nil
}

func runExtract(c *cli.Context) error {
	cfg, err := buildConfig(c)
	if err != nil {
		return err
	}
	log := newLogger(c, cfg)

	input, err := readInput(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Interrupted, shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()

	fs := osfilesystem.New()
	renderer := ggrenderer.New()
	prober := mp4probe.New()
	outputs := summarizer.OutputInfo{
		FramesDir:    c.String("output"),
		ContactSheet: c.String("contact-sheet"),
	}

	var sink ports.FrameSink = nullsink.New()
	if outputs.FramesDir != "" || outputs.ContactSheet != "" {
		sink = filesink.New(outputs.FramesDir, outputs.ContactSheet, fs, renderer)
	}

	ext := orchestrator.New(cfg.ToOrchestratorConfig(), fs, execrunner.New(), prober, log)

	log.Info("Extracting keyframes from %s", input.Describe())
	job, err := ext.Extract(ctx, input, cfg.Dimensions())
	if err != nil {
		return err
	}

	var (
		frames   []pipeline.FrameRecord
		failures []pipeline.RenderFailure
	)
	for ev := range job.Events() {
		switch ev.Type {
		case events.TypeKeyframe:
			frames = append(frames, *ev.Frame)
			if err := sink.SaveFrame(len(frames), ev.Frame.Timestamp, ev.Frame.Image); err != nil {
				log.Error("Failed to save frame %d: %s", len(frames), err.Error())
			}
		case events.TypeRenderFailed:
			failures = append(failures, *ev.Failure)
		}
	}

	sum, err := job.Wait(context.Background())
	if err != nil {
		return err
	}

	if outputs.ContactSheet != "" && len(frames) > 0 {
		sheetInput := cfg.ContactSheetInput()
		sheetInput.Frames = frames
		stage := contactsheet.NewStage(renderer, sink, log, cfg.Workers)
		if _, err := stage.Execute(ctx, sheetInput); err != nil {
			return fmt.Errorf("contact sheet: %w", err)
		}
		log.Info("Output saved to %s", outputs.ContactSheet)
	}

	if path := c.String("summary"); path != "" {
		b := summarizer.NewBuilder().
			WithJob(input.Describe(), sum).
			WithFrames(frames).
			WithFailures(failures).
			WithSettings(summarizer.Settings{
				Workers:        ext.Config().Workers,
				Quality:        ext.Config().Quality,
				Width:          job.Dimensions().Width,
				Height:         job.Dimensions().Height,
				TimestampField: ext.Config().TimestampField,
				RenderTimeout:  ext.Config().RenderTimeout,
			}).
			WithOutputs(outputs)
		if input.Kind == pipeline.KindPath {
			if info, err := prober.Probe(input.Path); err == nil {
				b.WithSource(info)
			}
		}

		w := summarizer.NewWriter(summarizer.NewMarkdownFormatter(
			summarizer.WithTranslator(func(s string) string { return l10n.T(s) }),
			summarizer.WithVersion(version),
		), fs)
		if err := w.Write(path, b.Build()); err != nil {
			log.Error("Failed to write summary: %s", err.Error())
		} else {
			log.Info("Summary saved to %s", path)
		}
	}

	return nil
}
