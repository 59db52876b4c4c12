package video

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slideforge/slideforge/internal/domain"
	"github.com/slideforge/slideforge/internal/xcmd"
)

type fakeRunner struct {
	name string
	args []string
	err  error
	out  xcmd.Result
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (xcmd.Result, error) {
	f.name = name
	f.args = args
	return f.out, f.err
}

func twoSlideTimeline() *Timeline {
	return &Timeline{
		Segments: []Segment{
			{Index: 0, ImagePath: "img/slide_00.png", Duration: 3.0},
			{Index: 1, ImagePath: "img/slide_01.png", AudioPath: "aud/audio_01.mp3", Duration: 8.0},
			{Index: 2, ImagePath: "img/slide_02.png", AudioPath: "aud/audio_02.mp3", Duration: 6.0},
		},
		Transition: 0.5,
		FPS:        10,
		Width:      1280,
		Height:     720,
	}
}

func TestEncoder_BuildArgs_Inputs(t *testing.T) {
	e := NewEncoder(&fakeRunner{}, "ffmpeg", "fast", nil)
	args := e.buildArgs(twoSlideTimeline(), "out/video.mp4")
	joined := strings.Join(args, " ")

	// Each image is a looped input bounded by its segment duration.
	assert.Contains(t, joined, "-loop 1 -t 3.000 -i img/slide_00.png")
	assert.Contains(t, joined, "-loop 1 -t 8.000 -i img/slide_01.png")
	assert.Contains(t, joined, "-loop 1 -t 6.000 -i img/slide_02.png")

	// Narration clips follow the image inputs.
	assert.Contains(t, joined, "-i aud/audio_01.mp3")
	assert.Contains(t, joined, "-i aud/audio_02.mp3")

	assert.Equal(t, "out/video.mp4", args[len(args)-1])
}

func TestEncoder_BuildArgs_FilterGraph(t *testing.T) {
	e := NewEncoder(&fakeRunner{}, "ffmpeg", "fast", nil)
	args := e.buildArgs(twoSlideTimeline(), "out/video.mp4")

	var filter string
	for i, a := range args {
		if a == "-filter_complex" {
			filter = args[i+1]
		}
	}
	require.NotEmpty(t, filter)

	// Every image stream is normalized to the target geometry and rate.
	assert.Contains(t, filter, "[0:v]scale=1280:720:force_original_aspect_ratio=decrease")
	assert.Contains(t, filter, "fps=10[v0]")

	// Crossfades fire when the outgoing segment has Transition seconds left:
	// first at 3.0-0.5, second at (3.0-0.5)+8.0-0.5.
	assert.Contains(t, filter, "xfade=transition=fade:duration=0.500:offset=2.500[x1]")
	assert.Contains(t, filter, "xfade=transition=fade:duration=0.500:offset=10.000[x2]")

	// Narration is delayed to its segment start on the overlapped clock:
	// segment 1 starts at 2.5s, segment 2 at 10.0s.
	assert.Contains(t, filter, "[3:a]adelay=2500|2500[a3]")
	assert.Contains(t, filter, "[4:a]adelay=10000|10000[a4]")
	assert.Contains(t, filter, "amix=inputs=2:normalize=0[aout]")
}

func TestEncoder_BuildArgs_EncodeSettings(t *testing.T) {
	e := NewEncoder(&fakeRunner{}, "ffmpeg", "fast", nil)
	args := e.buildArgs(twoSlideTimeline(), "out/video.mp4")
	joined := strings.Join(args, " ")

	assert.Contains(t, joined, "-c:v libx264")
	assert.Contains(t, joined, "-preset fast")
	assert.Contains(t, joined, "-pix_fmt yuv420p")
	assert.Contains(t, joined, "-r 10")
	assert.Contains(t, joined, "-c:a aac")
	// Program length pins to the overlapped total: 17 - 2*0.5.
	assert.Contains(t, joined, "-t 16.000")
}

func TestEncoder_BuildArgs_SilentDeckUsesNullAudio(t *testing.T) {
	timeline := &Timeline{
		Segments: []Segment{
			{Index: 0, ImagePath: "img/slide_00.png", Duration: 3.0},
		},
		Transition: 0.5,
		FPS:        10,
		Width:      1280,
		Height:     720,
	}
	e := NewEncoder(&fakeRunner{}, "ffmpeg", "fast", nil)
	args := e.buildArgs(timeline, "out/video.mp4")
	joined := strings.Join(args, " ")

	assert.Contains(t, joined, "anullsrc=channel_layout=stereo:sample_rate=44100[aout]")
	assert.NotContains(t, joined, "amix")
}

func TestEncoder_EncodeWrapsFailure(t *testing.T) {
	runner := &fakeRunner{
		err: assert.AnError,
		out: xcmd.Result{ExitCode: 1, Stderr: "Unknown encoder 'libx264'"},
	}
	e := NewEncoder(runner, "ffmpeg", "fast", nil)

	err := e.Encode(context.Background(), twoSlideTimeline(), "out/video.mp4")
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeEncoding))
	assert.Contains(t, err.Error(), "Unknown encoder")
	assert.Equal(t, "ffmpeg", runner.name)
}
