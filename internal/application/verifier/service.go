package verifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/bryanwahyu/medverify/internal/domain/citations"
	"github.com/bryanwahyu/medverify/internal/domain/verification"
)

// Service verifies extracted citations against external sources. One bad
// citation never aborts the rest: every citation gets a verdict, and a citation
// that exhausts every resolver becomes unresolved, never CRITICAL — "couldn't
// check" is not a contradiction.
type Service struct {
	Index  citations.IndexLookup
	DOI    citations.DOIResolver
	Search citations.WebSearcher

	// CallTimeout bounds a single resolver call, not the whole batch.
	CallTimeout time.Duration
	// MaxRetries per resolver call on transient failure.
	MaxRetries uint64

	Logger *slog.Logger
}

func New(index citations.IndexLookup, doi citations.DOIResolver, search citations.WebSearcher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		Index:       index,
		DOI:         doi,
		Search:      search,
		CallTimeout: 5 * time.Second,
		MaxRetries:  2,
		Logger:      logger,
	}
}

// VerifyAll checks each citation in order and returns one verdict per input.
// A dead context does not shrink the output: the remaining citations are
// marked unverifiable so callers still see one verdict per citation.
func (s *Service) VerifyAll(ctx context.Context, cits []citations.Citation) []citations.Verdict {
	out := make([]citations.Verdict, 0, len(cits))
	for _, c := range cits {
		if ctx.Err() != nil {
			out = append(out, s.unverifiableVerdict(c, sourceFor(c.Kind), ctx.Err()))
			continue
		}
		out = append(out, s.Verify(ctx, c))
	}
	return out
}

func sourceFor(kind citations.IdentifierKind) string {
	switch kind {
	case citations.KindPMID:
		return "pubmed"
	case citations.KindDOI:
		return "doi"
	}
	return "websearch"
}

// Verify checks one citation via the resolver matching its identifier kind,
// falling back to web search for free-text mentions.
func (s *Service) Verify(ctx context.Context, c citations.Citation) citations.Verdict {
	switch c.Kind {
	case citations.KindPMID:
		return s.verifyIndexed(ctx, c, "pubmed", func(ctx context.Context) (*citations.IndexRecord, error) {
			return s.Index.LookupPMID(ctx, c.Identifier)
		})
	case citations.KindDOI:
		return s.verifyIndexed(ctx, c, "doi", func(ctx context.Context) (*citations.IndexRecord, error) {
			return s.DOI.Resolve(ctx, c.Identifier)
		})
	default:
		return s.verifySearch(ctx, c)
	}
}

func (s *Service) verifyIndexed(ctx context.Context, c citations.Citation, source string, lookup func(context.Context) (*citations.IndexRecord, error)) citations.Verdict {
	var rec *citations.IndexRecord
	err := s.withRetry(ctx, func(ctx context.Context) error {
		var lerr error
		rec, lerr = lookup(ctx)
		return lerr
	})
	switch {
	case err == nil:
		return s.resolvedVerdict(c, rec, source)
	case errors.Is(err, citations.ErrNotFound):
		// Definitive miss: the source answered and the record does not exist.
		return citations.Verdict{
			Citation:          c,
			Resolution:        citations.ResolutionUnresolved,
			RiskLevel:         verification.RiskHigh,
			CompletenessScore: citations.Completeness(c),
			Assessment:        "not found",
			Explanation:       fmt.Sprintf("identifier %q does not exist in %s", c.Identifier, source),
			Source:            source,
		}
	default:
		// Resolver outage: fall back to web search before giving up.
		s.Logger.Warn("citation lookup failed, falling back to web search",
			"source", source, "identifier", c.Identifier, "error", err)
		return s.verifySearch(ctx, c)
	}
}

func (s *Service) verifySearch(ctx context.Context, c citations.Citation) citations.Verdict {
	query := c.Raw
	if query == "" {
		query = c.Identifier
	}

	var hits []citations.SearchHit
	err := s.withRetry(ctx, func(ctx context.Context) error {
		var serr error
		hits, serr = s.Search.Search(ctx, query, 3)
		return serr
	})
	if err != nil {
		s.Logger.Warn("citation web search failed", "query", query, "error", err)
		return s.unverifiableVerdict(c, "websearch", err)
	}

	best := 0.0
	bestURL := ""
	for _, h := range hits {
		o := overlap(c.Raw, h.Title+" "+h.Snippet)
		if o > best {
			best = o
			bestURL = h.URL
		}
	}

	v := citations.Verdict{
		Citation:          c,
		CompletenessScore: citations.Completeness(c),
		Source:            "websearch",
	}
	switch {
	case best >= 0.6:
		v.Resolution = citations.ResolutionResolved
		v.RiskLevel = verification.RiskLow
		v.Assessment = "corroborated"
		v.Explanation = fmt.Sprintf("search result %s closely matches the citation", bestURL)
	case best >= 0.3:
		v.Resolution = citations.ResolutionAmbiguous
		v.RiskLevel = verification.RiskMedium
		v.Assessment = "partially corroborated"
		v.Explanation = "search results only loosely match the citation"
	default:
		v.Resolution = citations.ResolutionUnresolved
		v.RiskLevel = verification.RiskHigh
		v.Assessment = "not found"
		v.Explanation = "no search result corroborates the citation"
	}
	return v
}

func (s *Service) resolvedVerdict(c citations.Citation, rec *citations.IndexRecord, source string) citations.Verdict {
	completeness := citations.Completeness(c)
	assessment := "incomplete citation"
	switch {
	case completeness >= 8:
		assessment = "complete citation"
	case completeness >= 5:
		assessment = "mostly complete citation"
	}
	risk := verification.RiskLow
	explanation := fmt.Sprintf("verified against %s", source)
	if rec != nil && rec.Title != "" {
		explanation = fmt.Sprintf("verified against %s: %s", source, rec.Title)
		// When the citation carries text beyond the bare identifier, that text
		// has to match the resolved record. An identifier that resolves to an
		// unrelated paper is a misattribution, not a verification.
		surrounding := strings.Replace(c.Raw, c.Identifier, "", 1)
		if len(significantWords(surrounding)) >= 3 && overlap(surrounding, rec.Title) < 0.3 {
			risk = verification.RiskMedium
			explanation = fmt.Sprintf("identifier resolves in %s to %q, which does not match the cited text", source, rec.Title)
		}
	}
	return citations.Verdict{
		Citation:          c,
		Resolution:        citations.ResolutionResolved,
		RiskLevel:         risk,
		CompletenessScore: completeness,
		Assessment:        assessment,
		Explanation:       explanation,
		Source:            source,
	}
}

// unverifiableVerdict is the outcome when every resolver is exhausted without
// an answer. The citation stays unresolved at HIGH, never CRITICAL: an outage
// is "couldn't check", not "contradicted".
func (s *Service) unverifiableVerdict(c citations.Citation, source string, err error) citations.Verdict {
	return citations.Verdict{
		Citation:          c,
		Resolution:        citations.ResolutionUnresolved,
		RiskLevel:         verification.RiskHigh,
		CompletenessScore: citations.Completeness(c),
		Assessment:        "unverifiable",
		Explanation:       fmt.Sprintf("citation could not be verified, %s unavailable: %v", source, err),
		Source:            source,
	}
}

func (s *Service) withRetry(ctx context.Context, fn func(context.Context) error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.Multiplier = 2
	bo.MaxInterval = 2 * time.Second

	op := func() error {
		callCtx, cancel := context.WithTimeout(ctx, s.CallTimeout)
		defer cancel()
		err := fn(callCtx)
		if errors.Is(err, citations.ErrNotFound) {
			return backoff.Permanent(err)
		}
		return err
	}
	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, s.MaxRetries), ctx))
}

// overlap is the fraction of significant words from a that also occur in b.
func overlap(a, b string) float64 {
	aw := significantWords(a)
	if len(aw) == 0 {
		return 0
	}
	bw := map[string]bool{}
	for _, w := range significantWords(b) {
		bw[w] = true
	}
	matched := 0
	for _, w := range aw {
		if bw[w] {
			matched++
		}
	}
	return float64(matched) / float64(len(aw))
}

func significantWords(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	out := fields[:0]
	for _, f := range fields {
		if len(f) > 2 {
			out = append(out, f)
		}
	}
	return out
}
