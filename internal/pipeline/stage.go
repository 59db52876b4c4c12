// Package pipeline sequences the six derivation stages that turn a document
// into a slide deck and a narrated video. Stages run strictly in order, each
// consuming the previous stage's artifact; the artifact cache decides which
// stages can be skipped on a rerun.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// StageName identifies one stage of the fixed sequence.
type StageName string

const (
	StageExtract     StageName = "extract"
	StageSummarize   StageName = "summarize"
	StageIcons       StageName = "icons"
	StageRenderPPTX  StageName = "render_pptx"
	StageRenderPDF   StageName = "render_pdf"
	StageRenderVideo StageName = "render_video"
)

// StageOrder is the fixed execution order.
var StageOrder = []StageName{
	StageExtract,
	StageSummarize,
	StageIcons,
	StageRenderPPTX,
	StageRenderPDF,
	StageRenderVideo,
}

// Status is a stage's lifecycle state within one run.
type Status string

const (
	StatusPending Status = "pending"
	StatusCached  Status = "cached"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Artifact locations, relative to the run's output directory. Final outputs
// live at the top level; everything else under intermediate/.
const (
	TextArtifact        = "intermediate/extracted_text.txt"
	DeckArtifact        = "intermediate/slides.json"
	IconsArtifact       = "intermediate/icons"
	SlideImagesArtifact = "intermediate/slide_images"
	AudioArtifact       = "intermediate/audio"
	PPTXArtifact        = "slides.pptx"
	PDFArtifact         = "slides.pdf"
	VideoArtifact       = "video.mp4"
)

// Run is one pipeline invocation. It lives for the process lifetime only;
// the artifacts on disk are the durable state.
type Run struct {
	ID           uuid.UUID
	DocumentPath string
	OutputDir    string
	StartedAt    time.Time

	Statuses  map[StageName]Status
	Artifacts map[StageName]string // primary artifact path per completed stage
}

// NewRun creates a run for one input document and output directory.
func NewRun(documentPath, outputDir string) *Run {
	statuses := make(map[StageName]Status, len(StageOrder))
	for _, name := range StageOrder {
		statuses[name] = StatusPending
	}
	return &Run{
		ID:           uuid.New(),
		DocumentPath: documentPath,
		OutputDir:    outputDir,
		StartedAt:    time.Now(),
		Statuses:     statuses,
		Artifacts:    make(map[StageName]string, len(StageOrder)),
	}
}

// Boundary contracts for the stage collaborators. The orchestrator passes
// artifact paths only; collaborators read their input artifact and write
// their output artifact themselves.

// TextExtractor extracts plain text from the input document.
type TextExtractor interface {
	Extract(ctx context.Context, documentPath, textPath string) error
}

// Summarizer turns extracted text into a slide deck artifact.
type Summarizer interface {
	Summarize(ctx context.Context, textPath, deckPath string) error
}

// IconFetcher downloads one icon per slide into iconsDir. A missing icon
// never fails the stage; a deterministic placeholder is written instead.
type IconFetcher interface {
	FetchAll(ctx context.Context, deckPath, iconsDir string) error
}

// DeckRenderer renders the deck to presentation files and page images.
type DeckRenderer interface {
	RenderPPTX(ctx context.Context, deckPath, iconsDir, pptxPath string) error
	RenderPDF(ctx context.Context, deckPath, iconsDir, pdfPath, imagesDir string) error
}

// VideoProducer synthesizes narration and assembles the final video from
// slide images and audio clips.
type VideoProducer interface {
	Produce(ctx context.Context, deckPath, imagesDir, audioDir, videoPath string) error
}

// Recorder receives run lifecycle events, e.g. for the run ledger. All
// methods are advisory: recording failures never affect the run outcome.
type Recorder interface {
	Begin(run *Run)
	StageResult(run *Run, stage StageName, status Status, artifact string, elapsed time.Duration, stageErr error)
	Finish(run *Run, status Status)
}
