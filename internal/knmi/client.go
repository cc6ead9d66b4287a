package knmi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"knmi-weather-mcp/internal/models"
	"knmi-weather-mcp/internal/observability"
)

var (
	// ErrAuthenticationFailed is returned when the platform rejects the API key.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrNoRecentFile is returned when the dataset lists no files, e.g.
	// outside the expected 10-minute publication cadence.
	ErrNoRecentFile = errors.New("no recent file available")

	// ErrNetwork is returned on connection or timeout failures.
	ErrNetwork = errors.New("network error")

	// ErrUpstreamServer is returned on platform 5xx responses.
	ErrUpstreamServer = errors.New("upstream server error")
)

// Fetcher retrieves the latest observation bundle for the station network.
type Fetcher interface {
	FetchLatest(ctx context.Context) (models.RawBundle, error)
	ValidateKey(ctx context.Context) error
}

// Client talks to the KNMI Open Data API. One dataset version, bearer-key
// auth, no internal retries: the caller decides whether to try again.
type Client struct {
	apiKey         string
	baseURL        string
	dataset        string
	datasetVersion string
	client         *http.Client
	logger         *zap.Logger
}

// NewClient returns a Client for the given dataset. The timeout bounds every
// request, including the file download.
func NewClient(apiKey, baseURL, dataset, datasetVersion string, timeout time.Duration, logger *zap.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: API key is required", ErrAuthenticationFailed)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		apiKey:         apiKey,
		baseURL:        baseURL,
		dataset:        dataset,
		datasetVersion: datasetVersion,
		client:         &http.Client{Timeout: timeout},
		logger:         logger,
	}, nil
}

type fileListing struct {
	Files []struct {
		Filename     string `json:"filename"`
		LastModified string `json:"lastModified"`
	} `json:"files"`
}

type downloadTarget struct {
	TemporaryDownloadURL string `json:"temporaryDownloadUrl"`
}

// FetchLatest lists the most recent file of the dataset, resolves its
// temporary download URL and downloads the raw bytes.
func (c *Client) FetchLatest(ctx context.Context) (models.RawBundle, error) {
	listURL := fmt.Sprintf("%s/datasets/%s/versions/%s/files",
		c.baseURL, c.dataset, c.datasetVersion)
	params := url.Values{}
	params.Set("maxKeys", "1")
	params.Set("orderBy", "lastModified")
	params.Set("sorting", "desc")

	var listing fileListing
	if err := c.getJSON(ctx, listURL+"?"+params.Encode(), true, &listing); err != nil {
		return models.RawBundle{}, fmt.Errorf("list dataset files: %w", err)
	}
	if len(listing.Files) == 0 {
		c.logger.Warn("dataset listed no files", zap.String("dataset", c.dataset))
		return models.RawBundle{}, fmt.Errorf("%w: dataset %s listed no files", ErrNoRecentFile, c.dataset)
	}
	filename := listing.Files[0].Filename

	urlEndpoint := fmt.Sprintf("%s/datasets/%s/versions/%s/files/%s/url",
		c.baseURL, c.dataset, c.datasetVersion, url.PathEscape(filename))
	var target downloadTarget
	if err := c.getJSON(ctx, urlEndpoint, true, &target); err != nil {
		return models.RawBundle{}, fmt.Errorf("resolve download url for %s: %w", filename, err)
	}
	if target.TemporaryDownloadURL == "" {
		return models.RawBundle{}, fmt.Errorf("%w: no download URL for %s", ErrNoRecentFile, filename)
	}

	// The temporary URL is pre-signed; no auth header on the download.
	data, err := c.download(ctx, target.TemporaryDownloadURL)
	if err != nil {
		return models.RawBundle{}, fmt.Errorf("download %s: %w", filename, err)
	}

	c.logger.Info("fetched observation bundle",
		zap.String("filename", filename),
		zap.Int("bytes", len(data)))

	return models.RawBundle{
		Data:        data,
		Filename:    filename,
		RetrievedAt: time.Now().UTC(),
	}, nil
}

// ValidateKey probes the dataset listing with the configured key. Used at
// startup so a bad key fails the process instead of the first tool call.
func (c *Client) ValidateKey(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	listURL := fmt.Sprintf("%s/datasets/%s/versions/%s/files?maxKeys=1",
		c.baseURL, c.dataset, c.datasetVersion)
	var listing fileListing
	if err := c.getJSON(ctx, listURL, true, &listing); err != nil {
		return err
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, withAuth bool, out interface{}) error {
	body, err := c.get(ctx, rawURL, withAuth)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: parse response: %v", ErrUpstreamServer, err)
	}
	return nil
}

func (c *Client) download(ctx context.Context, rawURL string) ([]byte, error) {
	return c.get(ctx, rawURL, false)
}

func (c *Client) get(ctx context.Context, rawURL string, withAuth bool) ([]byte, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrNetwork, err)
	}
	if withAuth {
		req.Header.Set("Authorization", c.apiKey)
	}
	if corrID := observability.CorrelationIDFromContext(ctx); corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		observability.UpstreamRequestsTotal.WithLabelValues("knmi", "error").Inc()
		c.logger.Warn("knmi request failed", zap.String("url", redact(rawURL)), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	observability.UpstreamRequestsTotal.WithLabelValues("knmi", observability.StatusLabel(resp.StatusCode)).Inc()
	observability.UpstreamRequestDuration.WithLabelValues("knmi").Observe(time.Since(start).Seconds())
	c.logger.Debug("knmi response",
		zap.String("url", redact(rawURL)),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: HTTP %d", ErrAuthenticationFailed, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: HTTP 404", ErrNoRecentFile)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: HTTP %d", ErrUpstreamServer, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("%w: HTTP %d", ErrUpstreamServer, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrNetwork, err)
	}
	return body, nil
}

// redact strips query parameters before logging; pre-signed download URLs
// carry credentials there.
func redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<unparseable>"
	}
	u.RawQuery = ""
	return u.String()
}
