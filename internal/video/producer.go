package video

import (
	"context"

	"github.com/slideforge/slideforge/internal/domain"
	"github.com/slideforge/slideforge/internal/observability"
)

// Narrator synthesizes the deck's narration clips into a directory.
type Narrator interface {
	SynthesizeDeck(ctx context.Context, deck *domain.Deck, audioDir string) error
}

// Producer implements the final stage: narration, timeline planning, and
// encoding in one pass.
type Producer struct {
	narrator Narrator
	prober   Prober
	encoder  *Encoder
	opts     TimelineOptions
	logger   *observability.Logger
}

// NewProducer creates the video producer.
func NewProducer(narrator Narrator, prober Prober, encoder *Encoder, opts TimelineOptions, logger *observability.Logger) *Producer {
	if logger == nil {
		logger = observability.Nop()
	}
	return &Producer{
		narrator: narrator,
		prober:   prober,
		encoder:  encoder,
		opts:     opts,
		logger:   logger.WithComponent("video"),
	}
}

// Produce synthesizes any missing narration clips, plans the timeline from
// the measured clip durations, and encodes the video.
func (p *Producer) Produce(ctx context.Context, deckPath, imagesDir, audioDir, videoPath string) error {
	deck, err := domain.LoadDeck(deckPath)
	if err != nil {
		return err
	}

	if err := p.narrator.SynthesizeDeck(ctx, deck, audioDir); err != nil {
		return err
	}

	timeline, err := BuildTimeline(ctx, deck, imagesDir, audioDir, p.prober, p.opts)
	if err != nil {
		return err
	}

	p.logger.Info().
		Int("segments", len(timeline.Segments)).
		Float64("transition", timeline.Transition).
		Float64("duration", timeline.TotalDuration()).
		Msg("timeline planned")

	if err := p.encoder.Encode(ctx, timeline, videoPath); err != nil {
		return err
	}
	p.logger.Info().Str("path", videoPath).Msg("video encoded")
	return nil
}
