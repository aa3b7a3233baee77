package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/genricoloni/sbcast/internal/domain"
	"go.uber.org/zap"
)

const (
	_maxResponseSize = 64 * 1024
	watchURL         = "https://www.youtube.com/watch?v="
	userAgent        = "sbcastDaemon/1.0"
)

// oembedResponse is the subset of the oEmbed JSON we use
type oembedResponse struct {
	Title      string `json:"title"`
	AuthorName string `json:"author_name"`
}

// TitleFetcher resolves YouTube video ids to titles through an oEmbed endpoint
type TitleFetcher struct {
	logger   *zap.Logger
	client   *http.Client
	endpoint string
}

// NewTitleFetcher creates a title fetcher from the application configuration
func NewTitleFetcher(logger *zap.Logger, cfg domain.Config) *TitleFetcher {
	return NewTitleFetcherWithEndpoint(logger, cfg.GetLookupEndpoint(), cfg.GetLookupTimeout())
}

// NewTitleFetcherWithEndpoint creates a title fetcher for a specific endpoint
func NewTitleFetcherWithEndpoint(logger *zap.Logger, endpoint string, timeout time.Duration) *TitleFetcher {
	return &TitleFetcher{
		logger:   logger,
		endpoint: endpoint,
		client: &http.Client{
			Timeout: timeout, // Essential to prevent blocking the source worker
		},
	}
}

// ResolveTitle looks up the title and channel of a video
func (f *TitleFetcher) ResolveTitle(ctx context.Context, id string) (domain.ResolvedTitle, error) {
	params := url.Values{}
	params.Set("url", watchURL+id)
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.endpoint+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return domain.ResolvedTitle{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return domain.ResolvedTitle{}, fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.ResolvedTitle{}, domain.ErrTitleNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return domain.ResolvedTitle{}, &domain.LookupHTTPError{
			Code:   resp.StatusCode,
			Reason: reason(resp),
		}
	}

	var body oembedResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, _maxResponseSize)).Decode(&body); err != nil {
		return domain.ResolvedTitle{}, fmt.Errorf("failed to decode response: %w", err)
	}
	if body.Title == "" {
		return domain.ResolvedTitle{}, domain.ErrTitleNotFound
	}

	f.logger.Debug("Title resolved",
		zap.String("id", id),
		zap.String("title", body.Title),
		zap.String("channel", body.AuthorName))

	return domain.ResolvedTitle{Title: body.Title, Channel: body.AuthorName}, nil
}

// reason returns the reason phrase of the status line
func reason(resp *http.Response) string {
	if r := strings.TrimSpace(strings.TrimPrefix(resp.Status, fmt.Sprint(resp.StatusCode))); r != "" {
		return r
	}
	return http.StatusText(resp.StatusCode)
}
