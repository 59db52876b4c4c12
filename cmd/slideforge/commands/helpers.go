package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/slideforge/slideforge/internal/config"
	"github.com/slideforge/slideforge/internal/extract"
	"github.com/slideforge/slideforge/internal/genai"
	"github.com/slideforge/slideforge/internal/icons"
	"github.com/slideforge/slideforge/internal/narrate"
	"github.com/slideforge/slideforge/internal/observability"
	"github.com/slideforge/slideforge/internal/pipeline"
	"github.com/slideforge/slideforge/internal/render"
	"github.com/slideforge/slideforge/internal/retry"
	"github.com/slideforge/slideforge/internal/summarize"
	"github.com/slideforge/slideforge/internal/video"
	"github.com/slideforge/slideforge/internal/xcmd"
)

// newLogger builds the run logger from config and the verbose flag.
func newLogger(cfg *config.Config) *observability.Logger {
	level := cfg.Observability.LogLevel
	if verbose {
		level = "debug"
	}
	return observability.NewLogger(observability.LogConfig{
		Level:       level,
		Format:      cfg.Observability.LogFormat,
		ServiceName: "slideforge",
	})
}

// resolveInput returns the document to process. An explicit file path wins;
// a directory (explicit or the configured default) resolves to its
// alphabetically first PDF.
func resolveInput(explicit, inputDir string) (string, error) {
	if explicit != "" {
		info, err := os.Stat(explicit)
		if err != nil {
			return "", fmt.Errorf("input document %s: %w", explicit, err)
		}
		if !info.IsDir() {
			return explicit, nil
		}
		inputDir = explicit
	}

	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return "", fmt.Errorf("scan input directory %s: %w", inputDir, err)
	}
	var pdfs []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			pdfs = append(pdfs, entry.Name())
		}
	}
	if len(pdfs) == 0 {
		return "", fmt.Errorf("no PDF found in %s; pass one with --input", inputDir)
	}
	sort.Strings(pdfs)
	return filepath.Join(inputDir, pdfs[0]), nil
}

// buildDeps wires every stage collaborator from config and credentials.
func buildDeps(cfg *config.Config, creds *config.Credentials, documentPath string, logger *observability.Logger) (pipeline.Deps, error) {
	runner := &xcmd.ExecRunner{}

	genRotator, err := retry.NewRotator(creds.GenerativeKeys,
		retry.WithCycles(cfg.Rotation.Cycles),
		retry.WithBackoff(time.Duration(cfg.Rotation.Backoff)),
		retry.WithLogger(logger))
	if err != nil {
		return pipeline.Deps{}, err
	}
	genClient := genai.NewClient(cfg.Generative.Endpoint, cfg.Generative.Model, genRotator, logger)

	iconRotator, err := retry.NewRotator(
		[]string{creds.IconKey + ":" + creds.IconSecret},
		retry.WithCycles(cfg.Rotation.Cycles),
		retry.WithBackoff(time.Duration(cfg.Rotation.Backoff)),
		retry.WithLogger(logger))
	if err != nil {
		return pipeline.Deps{}, err
	}

	narrator := narrate.NewService(
		narrate.NewGoogleSynthesizer(cfg.Narration.Endpoint, cfg.Narration.Language),
		cfg.Workers, logger)

	return pipeline.Deps{
		Logger:    logger,
		Extractor: extract.New(cfg.Render.OCRThreshold, cfg.Render.OCRZoom, runner, logger),
		Summarize: summarize.New(genClient, cfg.Slides.Min, cfg.Slides.Max, cfg.Slides.Target,
			documentPath, logger),
		Icons: icons.New(
			icons.NewNounProjectSource(cfg.Icons.Endpoint),
			iconRotator,
			icons.NewQueryGenerator(genClient, logger),
			cfg.Workers, logger),
		Renderer: render.New(cfg.Render.DPI, logger),
		Video: video.NewProducer(
			narrator,
			video.NewFFProber(runner, cfg.Video.FFprobePath),
			video.NewEncoder(runner, cfg.Video.FFmpegPath, cfg.Video.Preset, logger),
			video.TimelineOptions{
				TitleDuration: cfg.Video.TitleSec,
				Transition:    cfg.Video.TransitionSec,
				FPS:           cfg.Video.FPS,
				Width:         cfg.Video.Width,
				Height:        cfg.Video.Height,
			},
			logger),
	}, nil
}
