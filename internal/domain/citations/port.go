package citations

import (
	"context"
	"errors"
)

// ErrNotFound signals a definitive miss: the resolver answered and the record
// does not exist. Transient failures (timeouts, 5xx) must be returned as-is so
// the caller can distinguish "couldn't check" from "does not exist".
var ErrNotFound = errors.New("citations: record not found")

// IndexRecord is a resolved bibliographic record.
type IndexRecord struct {
	Title    string `json:"title"`
	Abstract string `json:"abstract,omitempty"`
	Venue    string `json:"venue,omitempty"`
	Year     int    `json:"year,omitempty"`
	URL      string `json:"url,omitempty"`
}

// SearchHit is one result from the general web search fallback.
type SearchHit struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	URL     string `json:"url"`
}

// IndexLookup port (bibliographic database, e.g. PubMed)
type IndexLookup interface {
	LookupPMID(ctx context.Context, pmid string) (*IndexRecord, error)
}

// DOIResolver port (document-object identifier resolution)
type DOIResolver interface {
	Resolve(ctx context.Context, doi string) (*IndexRecord, error)
}

// WebSearcher port (general web search fallback)
type WebSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]SearchHit, error)
}
