// Package icons fetches one decorative icon per slide from an icon search
// API. Icon failures never fail the pipeline: a slide that exhausts its
// query attempts gets a deterministic placeholder instead.
package icons

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/slideforge/slideforge/internal/domain"
	"github.com/slideforge/slideforge/internal/observability"
	"github.com/slideforge/slideforge/internal/retry"
)

// queryAttempts bounds how many distinct queries are tried per slide before
// falling back to the placeholder.
const queryAttempts = 3

// Service fetches icons for every slide of a deck.
type Service struct {
	source  Source
	rotator *retry.Rotator
	queries *QueryGenerator
	workers int
	logger  *observability.Logger
}

// New creates the icon fetching service. rotator holds the "key:secret"
// credentials for the icon API.
func New(source Source, rotator *retry.Rotator, queries *QueryGenerator, workers int, logger *observability.Logger) *Service {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = observability.Nop()
	}
	return &Service{
		source:  source,
		rotator: rotator,
		queries: queries,
		workers: workers,
		logger:  logger.WithComponent("icons"),
	}
}

// FetchAll downloads one icon per slide, title slide included, into iconsDir
// under fixed per-index file names. Slides are fetched concurrently; results
// land at deterministic paths so concurrency never reorders anything.
func (s *Service) FetchAll(ctx context.Context, deckPath, iconsDir string) error {
	deck, err := domain.LoadDeck(deckPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(iconsDir, 0o755); err != nil {
		return domain.IOError("create icons directory", err)
	}

	slides := deck.Slides()
	jobs := make(chan domain.Slide)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for slide := range jobs {
				if err := s.fetchSlide(ctx, slide, iconsDir); err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
				}
			}
		}()
	}

	for _, slide := range slides {
		jobs <- slide
	}
	close(jobs)
	wg.Wait()

	return firstErr
}

// fetchSlide tries up to queryAttempts distinct queries for one slide, then
// writes a placeholder. Only filesystem errors and credential exhaustion
// propagate; content misses degrade silently.
func (s *Service) fetchSlide(ctx context.Context, slide domain.Slide, iconsDir string) error {
	iconPath := filepath.Join(iconsDir, domain.IconFileName(slide.Index))
	if _, err := os.Stat(iconPath); err == nil {
		return nil
	}

	var tried []string
	var lastQuery string
	for attempt := 0; attempt < queryAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		query := slide.Spec.IconQuery
		if attempt > 0 || query == "" {
			query = s.queries.Query(ctx, slide.Spec.Title, slide.Spec.Bullets, tried)
		}
		lastQuery = query

		data, err := s.fetch(ctx, query)
		if err == nil {
			s.logger.Debug().Int("slide", slide.Index).Str("query", query).Msg("icon fetched")
			return writeIcon(iconPath, data)
		}
		if domain.IsType(err, domain.ErrorTypeExhaustedCredentials) {
			return err
		}

		tried = append(tried, query)
		s.logger.Warn().
			Int("slide", slide.Index).
			Str("query", query).
			Err(err).
			Msg("icon query missed")
	}

	s.logger.Warn().
		Int("slide", slide.Index).
		Int("attempts", len(tried)).
		Msg("no icon found, writing placeholder")
	return writeIcon(iconPath, placeholderPNG(lastQuery))
}

// fetch runs one query through the credential rotation engine. A content
// miss is returned as ErrNoIcon, unwrapped from the rotator's remote-call
// classification.
func (s *Service) fetch(ctx context.Context, query string) ([]byte, error) {
	var data []byte
	err := s.rotator.Invoke(ctx, func(ctx context.Context, credential string) error {
		fetched, fetchErr := s.source.Fetch(ctx, credential, query)
		if fetchErr != nil {
			return fetchErr
		}
		data = fetched
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNoIcon) {
			return nil, ErrNoIcon
		}
		return nil, err
	}
	return data, nil
}

func writeIcon(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return domain.IOError(fmt.Sprintf("write icon %s", path), err)
	}
	return nil
}
