package icons

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dghubble/oauth1"

	"github.com/slideforge/slideforge/internal/retry"
)

// ErrNoIcon means the search succeeded but returned no usable icon. It is a
// content miss, not a transport failure, so callers try another query.
var ErrNoIcon = errors.New("no icon found for query")

// Source fetches icon image bytes for a search query using one credential.
// The credential is a "key:secret" OAuth1 consumer pair.
type Source interface {
	Fetch(ctx context.Context, credential, query string) ([]byte, error)
}

// NounProjectSource searches the Noun Project v2 icon API. Requests are
// signed with OAuth1 using the consumer key pair only.
type NounProjectSource struct {
	endpoint string
	timeout  time.Duration
}

// NewNounProjectSource creates a source for the given search endpoint.
func NewNounProjectSource(endpoint string) *NounProjectSource {
	return &NounProjectSource{endpoint: endpoint, timeout: 30 * time.Second}
}

type searchResponse struct {
	Icons []struct {
		ThumbnailURL string `json:"thumbnail_url"`
		IconURL      string `json:"icon_url"`
	} `json:"icons"`
}

// Fetch searches for the query and downloads the first result's thumbnail.
func (s *NounProjectSource) Fetch(ctx context.Context, credential, query string) ([]byte, error) {
	key, secret, ok := strings.Cut(credential, ":")
	if !ok {
		return nil, fmt.Errorf("malformed icon credential, want key:secret")
	}

	config := oauth1.NewConfig(key, secret)
	client := config.Client(ctx, oauth1.NewToken("", ""))
	client.Timeout = s.timeout

	searchURL := fmt.Sprintf("%s?query=%s&limit=1&thumbnail_size=200",
		s.endpoint, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, retry.MarkQuota(fmt.Errorf("icon search status 429"))
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNoIcon
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("icon search status %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("parse icon search response: %w", err)
	}
	if len(parsed.Icons) == 0 {
		return nil, ErrNoIcon
	}

	imageURL := parsed.Icons[0].ThumbnailURL
	if imageURL == "" {
		imageURL = parsed.Icons[0].IconURL
	}
	if imageURL == "" {
		return nil, ErrNoIcon
	}
	return s.download(ctx, client, imageURL)
}

func (s *NounProjectSource) download(ctx context.Context, client *http.Client, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("icon download status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
