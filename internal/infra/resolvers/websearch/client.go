package websearch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tidwall/gjson"

	"github.com/bryanwahyu/medverify/internal/domain/citations"
)

const defaultBaseURL = "https://www.googleapis.com/customsearch/v1"

// Client is the programmable-search fallback for free-text citations.
type Client struct {
	BaseURL  string
	APIKey   string
	EngineID string
	HTTP     *http.Client
}

// New buat klien web search. key dan cx wajib diisi.
func New(baseURL, apiKey, engineID string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		BaseURL:  baseURL,
		APIKey:   apiKey,
		EngineID: engineID,
		HTTP:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Search runs one query and returns at most limit hits. No results is not an
// error: the caller decides what an empty answer means.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]citations.SearchHit, error) {
	if limit <= 0 || limit > 10 {
		limit = 3
	}
	q := url.Values{}
	q.Set("key", c.APIKey)
	q.Set("cx", c.EngineID)
	q.Set("q", query)
	q.Set("num", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("websearch: unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	var hits []citations.SearchHit
	for _, item := range gjson.GetBytes(body, "items").Array() {
		hits = append(hits, citations.SearchHit{
			Title:   item.Get("title").String(),
			Snippet: item.Get("snippet").String(),
			URL:     item.Get("link").String(),
		})
		if len(hits) >= limit {
			break
		}
	}
	return hits, nil
}
