package video

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/slideforge/slideforge/internal/domain"
)

// Segment is one slide's appearance in the video.
type Segment struct {
	Index     int
	ImagePath string
	AudioPath string // empty for the silent title segment
	Duration  float64
}

// Timeline is the complete program plan: ordered segments joined by visual
// crossfades. During a crossfade the outgoing and incoming segments overlap
// by Transition seconds, so the program shortens accordingly.
type Timeline struct {
	Segments   []Segment
	Transition float64
	FPS        int
	Width      int
	Height     int
}

// TimelineOptions configures timeline planning.
type TimelineOptions struct {
	TitleDuration float64
	Transition    float64
	FPS           int
	Width         int
	Height        int
}

// BuildTimeline pairs slide images with narration clips by index and
// measures every content segment's duration from its clip. A content slide
// missing either file is fatal: silently skipping it would desynchronize
// every later segment.
func BuildTimeline(ctx context.Context, deck *domain.Deck, imagesDir, audioDir string, prober Prober, opts TimelineOptions) (*Timeline, error) {
	segments := make([]Segment, 0, len(deck.ContentSlides)+1)

	titleImage := filepath.Join(imagesDir, domain.SlideImageFileName(0))
	if _, err := os.Stat(titleImage); err != nil {
		return nil, domain.MissingSlideImageError("title slide image missing", err)
	}
	segments = append(segments, Segment{
		Index:     0,
		ImagePath: titleImage,
		Duration:  opts.TitleDuration,
	})

	for i := range deck.ContentSlides {
		index := i + 1
		imagePath := filepath.Join(imagesDir, domain.SlideImageFileName(index))
		if _, err := os.Stat(imagePath); err != nil {
			return nil, domain.MissingSlideImageError(fmt.Sprintf("slide %d image missing", index), err)
		}
		audioPath := filepath.Join(audioDir, domain.AudioFileName(index))
		if _, err := os.Stat(audioPath); err != nil {
			return nil, domain.MissingNarrationError(fmt.Sprintf("slide %d narration clip missing", index), err)
		}

		dur, err := prober.Duration(ctx, audioPath)
		if err != nil {
			return nil, err
		}
		if dur <= 0 {
			return nil, domain.MissingNarrationError(fmt.Sprintf("slide %d narration clip is empty", index), nil)
		}

		segments = append(segments, Segment{
			Index:     index,
			ImagePath: imagePath,
			AudioPath: audioPath,
			Duration:  dur,
		})
	}

	// The crossfade must fit inside both adjacent segments; clamp it to
	// half the shortest segment so overlaps never collide.
	transition := opts.Transition
	for _, seg := range segments {
		if limit := seg.Duration / 2; transition > limit {
			transition = limit
		}
	}

	return &Timeline{
		Segments:   segments,
		Transition: transition,
		FPS:        opts.FPS,
		Width:      opts.Width,
		Height:     opts.Height,
	}, nil
}

// SegmentStart returns when segment k begins in the overlapped program.
func (t *Timeline) SegmentStart(k int) float64 {
	start := 0.0
	for i := 0; i < k; i++ {
		start += t.Segments[i].Duration
	}
	return start - float64(k)*t.Transition
}

// TotalDuration is the program length: segment durations minus the overlap
// consumed by each of the N-1 crossfades.
func (t *Timeline) TotalDuration() float64 {
	total := 0.0
	for _, seg := range t.Segments {
		total += seg.Duration
	}
	return total - float64(len(t.Segments)-1)*t.Transition
}
