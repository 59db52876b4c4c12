package video

import (
	"context"
	"fmt"
	"strings"

	"github.com/slideforge/slideforge/internal/domain"
	"github.com/slideforge/slideforge/internal/observability"
	"github.com/slideforge/slideforge/internal/xcmd"
)

// Encoder drives one ffmpeg invocation that encodes the whole program: all
// still images, the crossfade chain, and every narration clip mixed in at
// its segment's start time.
type Encoder struct {
	runner xcmd.Runner
	bin    string
	preset string
	logger *observability.Logger
}

// NewEncoder creates an encoder using the given ffmpeg binary.
func NewEncoder(runner xcmd.Runner, bin, preset string, logger *observability.Logger) *Encoder {
	if bin == "" {
		bin = "ffmpeg"
	}
	if preset == "" {
		preset = "fast"
	}
	if logger == nil {
		logger = observability.Nop()
	}
	return &Encoder{runner: runner, bin: bin, preset: preset, logger: logger.WithComponent("video")}
}

// Encode renders the timeline to videoPath.
func (e *Encoder) Encode(ctx context.Context, t *Timeline, videoPath string) error {
	args := e.buildArgs(t, videoPath)
	e.logger.Debug().Int("args", len(args)).Float64("duration", t.TotalDuration()).Msg("starting ffmpeg")

	result, err := e.runner.Run(ctx, e.bin, args...)
	if err != nil {
		return domain.EncodingError(
			fmt.Sprintf("ffmpeg exit %d: %s", result.ExitCode, result.StderrTail(400)), err)
	}
	return nil
}

// buildArgs constructs the deterministic ffmpeg argument list. Layout:
// one looped image input per segment, then one input per narration clip;
// a filter graph that normalizes each image stream, chains xfades, and
// mixes delayed narration; then the H.264/AAC encode settings.
func (e *Encoder) buildArgs(t *Timeline, videoPath string) []string {
	args := []string{"-y", "-hide_banner", "-loglevel", "error"}

	for _, seg := range t.Segments {
		args = append(args,
			"-loop", "1",
			"-t", formatSeconds(seg.Duration),
			"-i", seg.ImagePath)
	}

	audioInputs := 0
	for _, seg := range t.Segments {
		if seg.AudioPath != "" {
			args = append(args, "-i", seg.AudioPath)
			audioInputs++
		}
	}

	filter, videoLabel, audioLabel := e.buildFilterGraph(t, audioInputs)
	args = append(args, "-filter_complex", filter)
	args = append(args,
		"-map", videoLabel,
		"-map", audioLabel,
		"-c:v", "libx264",
		"-preset", e.preset,
		"-pix_fmt", "yuv420p",
		"-r", fmt.Sprintf("%d", t.FPS),
		"-c:a", "aac",
		"-b:a", "192k",
		"-t", formatSeconds(t.TotalDuration()),
		"-movflags", "+faststart",
		videoPath)
	return args
}

func (e *Encoder) buildFilterGraph(t *Timeline, audioInputs int) (filter, videoLabel, audioLabel string) {
	var b strings.Builder
	n := len(t.Segments)

	// Normalize every image stream to the target frame geometry.
	for i := range t.Segments {
		fmt.Fprintf(&b, "[%d:v]scale=%d:%d:force_original_aspect_ratio=decrease,"+
			"pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1,fps=%d[v%d];",
			i, t.Width, t.Height, t.Width, t.Height, t.FPS, i)
	}

	// Chain crossfades left to right. The k-th fade starts when segment k-1
	// has Transition seconds left on the overlapped clock.
	videoLabel = "[v0]"
	for k := 1; k < n; k++ {
		offset := t.SegmentStart(k-1) + t.Segments[k-1].Duration - t.Transition
		out := fmt.Sprintf("[x%d]", k)
		fmt.Fprintf(&b, "%s[v%d]xfade=transition=fade:duration=%s:offset=%s%s;",
			videoLabel, k, formatSeconds(t.Transition), formatSeconds(offset), out)
		videoLabel = out
	}

	// Delay each clip to its segment's start so narration begins the moment
	// the slide is fully on screen side of the fade, then mix without
	// renormalizing volume.
	if audioInputs == 0 {
		fmt.Fprintf(&b, "anullsrc=channel_layout=stereo:sample_rate=44100[aout]")
		return b.String(), videoLabel, "[aout]"
	}

	input := n
	var mixInputs []string
	for k, seg := range t.Segments {
		if seg.AudioPath == "" {
			continue
		}
		delayMS := int(t.SegmentStart(k) * 1000)
		label := fmt.Sprintf("[a%d]", input)
		fmt.Fprintf(&b, "[%d:a]adelay=%d|%d%s;", input, delayMS, delayMS, label)
		mixInputs = append(mixInputs, label)
		input++
	}
	fmt.Fprintf(&b, "%samix=inputs=%d:normalize=0[aout]", strings.Join(mixInputs, ""), len(mixInputs))
	return b.String(), videoLabel, "[aout]"
}

// formatSeconds renders a duration with millisecond precision, enough for
// frame-accurate placement at slideshow frame rates.
func formatSeconds(s float64) string {
	return fmt.Sprintf("%.3f", s)
}
