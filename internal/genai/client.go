// Package genai is a thin client for the Gemini generateContent REST API.
// Every call goes through the credential rotation engine, so quota-limited
// keys rotate transparently for all callers.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/slideforge/slideforge/internal/observability"
	"github.com/slideforge/slideforge/internal/retry"
)

// Client calls the generative text API with credential rotation.
type Client struct {
	endpoint   string
	model      string
	httpClient *http.Client
	rotator    *retry.Rotator
	logger     *observability.Logger
}

// NewClient creates a generative text client. endpoint is the API base URL
// without a trailing slash; rotator supplies the ordered API keys.
func NewClient(endpoint, model string, rotator *retry.Rotator, logger *observability.Logger) *Client {
	if logger == nil {
		logger = observability.Nop()
	}
	return &Client{
		endpoint:   endpoint,
		model:      model,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		rotator:    rotator,
		logger:     logger.WithComponent("genai"),
	}
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *apiError `json:"error"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("api error %d %s: %s", e.Code, e.Status, e.Message)
}

// GenerateText sends one prompt and returns the first candidate's text.
// Quota responses rotate to the next key; other failures abort immediately.
func (c *Client) GenerateText(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: &generationConfig{
			Temperature:     temperature,
			MaxOutputTokens: maxTokens,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	var text string
	err = c.rotator.Invoke(ctx, func(ctx context.Context, key string) error {
		result, callErr := c.generateOnce(ctx, key, body)
		if callErr != nil {
			return callErr
		}
		text = result
		return nil
	})
	if err != nil {
		return "", err
	}
	c.logger.Debug().Int("prompt_chars", len(prompt)).Int("reply_chars", len(text)).Msg("text generated")
	return text, nil
}

func (c *Client) generateOnce(ctx context.Context, key string, body []byte) (string, error) {
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.endpoint, c.model, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", retry.MarkQuota(fmt.Errorf("status 429: %s", truncate(respBody, 200)))
	}
	if resp.StatusCode != http.StatusOK {
		var parsed generateResponse
		if json.Unmarshal(respBody, &parsed) == nil && parsed.Error != nil {
			if parsed.Error.Status == "RESOURCE_EXHAUSTED" {
				return "", retry.MarkQuota(parsed.Error)
			}
			return "", parsed.Error
		}
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, truncate(respBody, 200))
	}

	var parsed generateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("response has no candidates")
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
