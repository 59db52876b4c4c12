// Package video assembles the narrated video: it synthesizes narration,
// measures clip durations, plans the slideshow timeline, and drives a single
// ffmpeg invocation that encodes the whole program.
package video

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/slideforge/slideforge/internal/domain"
	"github.com/slideforge/slideforge/internal/xcmd"
)

// Prober measures media durations. Display durations are always measured,
// never estimated from text length.
type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// FFProber measures durations with ffprobe.
type FFProber struct {
	runner xcmd.Runner
	bin    string
}

// NewFFProber creates a prober using the given ffprobe binary.
func NewFFProber(runner xcmd.Runner, bin string) *FFProber {
	if bin == "" {
		bin = "ffprobe"
	}
	return &FFProber{runner: runner, bin: bin}
}

// Duration returns the container duration of a media file in seconds.
func (p *FFProber) Duration(ctx context.Context, path string) (float64, error) {
	result, err := p.runner.Run(ctx, p.bin,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path)
	if err != nil {
		return 0, domain.EncodingError(
			fmt.Sprintf("ffprobe failed for %s: %s", path, result.StderrTail(200)), err)
	}

	raw := strings.TrimSpace(result.Stdout)
	dur, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, domain.EncodingError(fmt.Sprintf("ffprobe returned unparsable duration %q for %s", raw, path), err)
	}
	return dur, nil
}
