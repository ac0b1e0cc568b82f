package doi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/bryanwahyu/medverify/internal/domain/citations"
)

const defaultBaseURL = "https://doi.org"

// Client resolves DOIs by probing the doi.org handle system. A handle that
// resolves proves the document exists; it does not fetch metadata.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New buat klien DOI resolver.
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Resolve issues a HEAD request for the DOI handle, following redirects to
// the publisher. 404 from the handle system means the DOI does not exist.
func (c *Client) Resolve(ctx context.Context, handle string) (*citations.IndexRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.BaseURL+"/"+url.PathEscape(handle), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 400:
		return &citations.IndexRecord{URL: resp.Request.URL.String()}, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, citations.ErrNotFound
	}
	return nil, fmt.Errorf("doi: unexpected status %d", resp.StatusCode)
}
