package pubmed

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

const defaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

// Client resolves PMIDs via the NCBI E-utilities summary endpoint.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

// New buat klien PubMed. apiKey boleh kosong (rate limit lebih ketat).
func New(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// LookupPMID fetches the summary record for one PMID. A PMID the index does
// not know yields citations.ErrNotFound; transport problems come back as-is.
func (c *Client) LookupPMID(ctx context.Context, pmid string) (*citations.IndexRecord, error) {
	q := url.Values{}
	q.Set("db", "pubmed")
	q.Set("retmode", "json")
	q.Set("id", pmid)
	if c.APIKey != "" {
		q.Set("api_key", c.APIKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/esummary.fcgi?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pubmed: unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	doc := gjson.GetBytes(body, "result."+pmid)
	if !doc.Exists() || doc.Get("error").Exists() {
		return nil, citations.ErrNotFound
	}

	rec := &citations.IndexRecord{
		Title: doc.Get("title").String(),
		Venue: doc.Get("fulljournalname").String(),
		URL:   "https://pubmed.ncbi.nlm.nih.gov/" + pmid + "/",
	}
	// pubdate looks like "2023 Mar 15"; the leading year is all we need
	if pd := doc.Get("pubdate").String(); len(pd) >= 4 {
		if y, err := strconv.Atoi(pd[:4]); err == nil {
			rec.Year = y
		}
	}
	if rec.Title == "" {
		return nil, citations.ErrNotFound
	}
	return rec, nil
}
