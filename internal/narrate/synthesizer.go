// Package narrate synthesizes per-slide narration clips. The default
// synthesizer calls Google Translate's TTS endpoint, chunking long text the
// way gTTS clients do and concatenating the returned MP3 frames.
package narrate

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/slideforge/slideforge/internal/domain"
)

// maxChunkChars is the endpoint's effective per-request text limit.
const maxChunkChars = 200

// Synthesizer turns text into MP3 audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// GoogleSynthesizer implements Synthesizer against the translate_tts
// endpoint. No credential is needed; the endpoint rate-limits by IP.
type GoogleSynthesizer struct {
	endpoint   string
	language   string
	httpClient *http.Client
}

// NewGoogleSynthesizer creates a synthesizer for the given endpoint and
// BCP-47 language code.
func NewGoogleSynthesizer(endpoint, language string) *GoogleSynthesizer {
	return &GoogleSynthesizer{
		endpoint:   endpoint,
		language:   language,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Synthesize fetches audio for the text, one request per chunk. MP3 frames
// are self-delimiting, so chunk responses concatenate into one valid file.
func (g *GoogleSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.MissingNarrationError("narration text is empty", nil)
	}

	var out bytes.Buffer
	for _, chunk := range chunkText(text, maxChunkChars) {
		audio, err := g.fetchChunk(ctx, chunk)
		if err != nil {
			return nil, err
		}
		out.Write(audio)
	}
	return out.Bytes(), nil
}

func (g *GoogleSynthesizer) fetchChunk(ctx context.Context, chunk string) ([]byte, error) {
	params := url.Values{}
	params.Set("ie", "UTF-8")
	params.Set("client", "tw-ob")
	params.Set("tl", g.language)
	params.Set("q", chunk)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, domain.RemoteCallError("tts request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.RemoteCallError(fmt.Sprintf("tts status %d", resp.StatusCode), nil)
	}
	return io.ReadAll(resp.Body)
}

// chunkText splits text into chunks of at most limit characters, preferring
// sentence boundaries and falling back to word boundaries.
func chunkText(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	for _, sentence := range splitKeepingDelims(text) {
		if current.Len() > 0 && current.Len()+1+len(sentence) > limit {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}
		if len(sentence) > limit {
			// A single oversized sentence splits on words.
			for _, word := range strings.Fields(sentence) {
				if current.Len() > 0 && current.Len()+1+len(word) > limit {
					chunks = append(chunks, strings.TrimSpace(current.String()))
					current.Reset()
				}
				if current.Len() > 0 {
					current.WriteByte(' ')
				}
				current.WriteString(word)
			}
			continue
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(sentence)
	}
	if current.Len() > 0 {
		chunks = append(chunks, strings.TrimSpace(current.String()))
	}
	return chunks
}

// splitKeepingDelims splits on sentence terminators, keeping them attached.
func splitKeepingDelims(text string) []string {
	var out []string
	start := 0
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' {
			s := strings.TrimSpace(text[start : i+1])
			if s != "" {
				out = append(out, s)
			}
			start = i + 1
		}
	}
	if tail := strings.TrimSpace(text[start:]); tail != "" {
		out = append(out, tail)
	}
	return out
}
