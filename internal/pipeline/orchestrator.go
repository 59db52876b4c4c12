package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/slideforge/slideforge/internal/cache"
	"github.com/slideforge/slideforge/internal/domain"
	"github.com/slideforge/slideforge/internal/observability"
)

// Orchestrator drives the fixed stage sequence for one run at a time.
type Orchestrator struct {
	policy     cache.Policy
	logger     *observability.Logger
	recorder   Recorder
	onStage    func(stage StageName, status Status)
	extractor  TextExtractor
	summarizer Summarizer
	icons      IconFetcher
	renderer   DeckRenderer
	video      VideoProducer
}

// Deps bundles the stage collaborators and ambient services.
type Deps struct {
	Logger    *observability.Logger
	Recorder  Recorder                             // optional
	OnStage   func(stage StageName, status Status) // optional UI hook
	Extractor TextExtractor
	Summarize Summarizer
	Icons     IconFetcher
	Renderer  DeckRenderer
	Video     VideoProducer
}

// NewOrchestrator creates an orchestrator with the given collaborators.
func NewOrchestrator(deps Deps) (*Orchestrator, error) {
	if deps.Extractor == nil || deps.Summarize == nil || deps.Icons == nil ||
		deps.Renderer == nil || deps.Video == nil {
		return nil, domain.ConfigError("orchestrator requires all stage collaborators", nil)
	}
	logger := deps.Logger
	if logger == nil {
		logger = observability.Nop()
	}
	return &Orchestrator{
		policy:     cache.CheckExistenceOnly,
		logger:     logger,
		recorder:   deps.Recorder,
		onStage:    deps.OnStage,
		extractor:  deps.Extractor,
		summarizer: deps.Summarize,
		icons:      deps.Icons,
		renderer:   deps.Renderer,
		video:      deps.Video,
	}, nil
}

// stageDef binds a stage name to its declared artifacts and collaborator
// invocation. artifacts[0] is the primary artifact passed downstream.
type stageDef struct {
	name      StageName
	artifacts []string
	invoke    func(ctx context.Context) error
}

// stages builds the fixed stage list for one run. Every closure receives
// only artifact paths; no stage re-derives a prior stage's output.
func (o *Orchestrator) stages(run *Run, store *cache.Store) []stageDef {
	text := store.Path(TextArtifact)
	deck := store.Path(DeckArtifact)
	icons := store.Path(IconsArtifact)
	images := store.Path(SlideImagesArtifact)
	audio := store.Path(AudioArtifact)
	pptx := store.Path(PPTXArtifact)
	pdf := store.Path(PDFArtifact)
	video := store.Path(VideoArtifact)

	return []stageDef{
		{
			name:      StageExtract,
			artifacts: []string{TextArtifact},
			invoke: func(ctx context.Context) error {
				return o.extractor.Extract(ctx, run.DocumentPath, text)
			},
		},
		{
			name:      StageSummarize,
			artifacts: []string{DeckArtifact},
			invoke: func(ctx context.Context) error {
				return o.summarizer.Summarize(ctx, text, deck)
			},
		},
		{
			name:      StageIcons,
			artifacts: []string{IconsArtifact},
			invoke: func(ctx context.Context) error {
				return o.icons.FetchAll(ctx, deck, icons)
			},
		},
		{
			name:      StageRenderPPTX,
			artifacts: []string{PPTXArtifact},
			invoke: func(ctx context.Context) error {
				return o.renderer.RenderPPTX(ctx, deck, icons, pptx)
			},
		},
		{
			name:      StageRenderPDF,
			artifacts: []string{PDFArtifact, SlideImagesArtifact},
			invoke: func(ctx context.Context) error {
				return o.renderer.RenderPDF(ctx, deck, icons, pdf, images)
			},
		},
		{
			name:      StageRenderVideo,
			artifacts: []string{VideoArtifact},
			invoke: func(ctx context.Context) error {
				return o.video.Produce(ctx, deck, images, audio, video)
			},
		},
	}
}

// Execute runs all stages in order. The first failing stage halts the run;
// partial artifacts stay on disk so the next invocation resumes from the
// last completed stage.
func (o *Orchestrator) Execute(ctx context.Context, run *Run) error {
	store := cache.New(run.OutputDir, o.policy)

	if err := os.MkdirAll(filepath.Join(run.OutputDir, "intermediate"), 0o755); err != nil {
		return domain.IOError("create intermediate directory", err)
	}

	if o.recorder != nil {
		o.recorder.Begin(run)
	}

	for _, def := range o.stages(run, store) {
		if err := o.executeStage(ctx, run, store, def); err != nil {
			if o.recorder != nil {
				o.recorder.Finish(run, StatusFailed)
			}
			return fmt.Errorf("stage %s: %w", def.name, err)
		}
	}

	if o.recorder != nil {
		o.recorder.Finish(run, StatusDone)
	}
	return nil
}

func (o *Orchestrator) executeStage(ctx context.Context, run *Run, store *cache.Store, def stageDef) error {
	logger := o.logger.WithStage(string(def.name))
	primary := store.Path(def.artifacts[0])

	if store.ExistsAll(def.artifacts...) {
		o.transition(run, def.name, StatusCached)
		run.Artifacts[def.name] = primary
		logger.Info().Str("artifact", primary).Msg("artifact present, stage skipped")
		o.record(run, def.name, StatusCached, primary, 0, nil)
		return nil
	}

	o.transition(run, def.name, StatusRunning)
	logger.Info().Msg("stage started")
	start := time.Now()

	if err := def.invoke(ctx); err != nil {
		o.transition(run, def.name, StatusFailed)
		logger.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("stage failed")
		o.record(run, def.name, StatusFailed, "", time.Since(start), err)
		return err
	}

	o.transition(run, def.name, StatusDone)
	run.Artifacts[def.name] = primary
	logger.Info().Str("artifact", primary).Dur("elapsed", time.Since(start)).Msg("stage completed")
	o.record(run, def.name, StatusDone, primary, time.Since(start), nil)
	return nil
}

func (o *Orchestrator) transition(run *Run, name StageName, status Status) {
	run.Statuses[name] = status
	if o.onStage != nil {
		o.onStage(name, status)
	}
}

func (o *Orchestrator) record(run *Run, name StageName, status Status, artifact string, elapsed time.Duration, err error) {
	if o.recorder != nil {
		o.recorder.StageResult(run, name, status, artifact, elapsed, err)
	}
}
