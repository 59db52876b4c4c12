package narrate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/slideforge/slideforge/internal/domain"
	"github.com/slideforge/slideforge/internal/observability"
)

// Service synthesizes narration clips for all content slides of a deck.
type Service struct {
	synth   Synthesizer
	workers int
	logger  *observability.Logger
}

// NewService creates the narration service.
func NewService(synth Synthesizer, workers int, logger *observability.Logger) *Service {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = observability.Nop()
	}
	return &Service{synth: synth, workers: workers, logger: logger.WithComponent("narrate")}
}

// SynthesizeDeck writes one MP3 clip per content slide into audioDir, named
// by slide index. Clips already on disk are kept. Slides run concurrently;
// every job finishes before the first failure is reported, so a rerun only
// needs the clips that actually failed.
func (s *Service) SynthesizeDeck(ctx context.Context, deck *domain.Deck, audioDir string) error {
	if err := os.MkdirAll(audioDir, 0o755); err != nil {
		return domain.IOError("create audio directory", err)
	}

	type job struct {
		index int
		text  string
	}
	jobs := make(chan job)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				if err := s.synthesizeSlide(ctx, j.index, j.text, audioDir); err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = fmt.Errorf("slide %d: %w", j.index, err)
					}
					mu.Unlock()
				}
			}
		}()
	}

	// Content slides start at index 1; the title slide is silent.
	for i, spec := range deck.ContentSlides {
		jobs <- job{index: i + 1, text: spec.NarrationText()}
	}
	close(jobs)
	wg.Wait()

	return firstErr
}

func (s *Service) synthesizeSlide(ctx context.Context, index int, text, audioDir string) error {
	clipPath := filepath.Join(audioDir, domain.AudioFileName(index))
	if info, err := os.Stat(clipPath); err == nil && info.Size() > 0 {
		s.logger.Debug().Int("slide", index).Msg("narration clip present, skipping")
		return nil
	}

	audio, err := s.synth.Synthesize(ctx, text)
	if err != nil {
		return err
	}
	if len(audio) == 0 {
		return domain.MissingNarrationError(fmt.Sprintf("synthesizer returned empty clip for slide %d", index), nil)
	}
	if err := os.WriteFile(clipPath, audio, 0o644); err != nil {
		return domain.IOError(fmt.Sprintf("write narration clip %s", clipPath), err)
	}
	s.logger.Debug().Int("slide", index).Int("bytes", len(audio)).Msg("narration clip written")
	return nil
}
