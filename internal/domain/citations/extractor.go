package citations

import (
	"regexp"
	"sort"
	"strings"
)

// Extractor parses free text for citation-like tokens. It has no side effects
// and is deterministic: the same text always yields the same ordered list.
// Safe for concurrent use (stateless after construction).
type Extractor struct {
	patterns []extractPattern
}

type extractPattern struct {
	re   *regexp.Regexp
	kind IdentifierKind
	// ident extracts the parsed identifier from the match groups, "" when the
	// token carries no resolvable identifier.
	ident func(groups []string) string
}

// NewExtractor compiles the recognizer set. Pattern order is priority order:
// when two tokens overlap in the text, the higher-priority (and earlier) match
// wins, so a "PMID: 123" inside a bracket is kept as a PMID, not a mention.
func NewExtractor() *Extractor {
	return &Extractor{
		patterns: []extractPattern{
			{
				re:    regexp.MustCompile(`(?i)\bPMID[:\s]*(\d{1,9})\b`),
				kind:  KindPMID,
				ident: func(g []string) string { return g[1] },
			},
			{
				re:    regexp.MustCompile(`(?i)\bdoi[:\s]*(10\.\d{4,9}/[^\s"'<>\)\]]+)`),
				kind:  KindDOI,
				ident: func(g []string) string { return strings.TrimRight(g[1], ".,;") },
			},
			{
				re:    regexp.MustCompile(`\b(10\.\d{4,9}/[^\s"'<>\)\]]+)`),
				kind:  KindDOI,
				ident: func(g []string) string { return strings.TrimRight(g[1], ".,;") },
			},
			// Malformed "doi:" references degrade to a free-text mention
			// instead of failing extraction.
			{
				re:    regexp.MustCompile(`(?i)\bdoi[:\s]*[^\s]+`),
				kind:  KindMention,
				ident: func([]string) string { return "" },
			},
			{
				re:    regexp.MustCompile(`https?://[^\s"'<>\)\]]+`),
				kind:  KindURL,
				ident: func(g []string) string { return strings.TrimRight(g[0], ".,;") },
			},
			// Author-year mentions: "Smith et al. (2023)", "Lee and Park (2019)"
			{
				re:    regexp.MustCompile(`\b[A-Z][A-Za-z'-]+(?:\s+(?:et\s+al\.?|and\s+[A-Z][A-Za-z'-]+|&\s*[A-Z][A-Za-z'-]+))?,?\s*\(\s*(?:19|20)\d{2}[a-z]?\s*\)`),
				kind:  KindMention,
				ident: func([]string) string { return "" },
			},
			// Any parenthesized fragment carrying a year: "(JAMA, 2021)"
			{
				re:    regexp.MustCompile(`\([^()]*(?:19|20)\d{2}[^()]*\)`),
				kind:  KindMention,
				ident: func([]string) string { return "" },
			},
			// Numbered bracket references: "[1]", "[Smith 2020]"
			{
				re:    regexp.MustCompile(`\[[^\[\]]*\d[^\[\]]*\]`),
				kind:  KindMention,
				ident: func([]string) string { return "" },
			},
		},
	}
}

type span struct {
	start, end int
	priority   int
	citation   Citation
}

// Extract returns the ordered list of citation-like tokens found in text.
// Very short matches are dropped; overlapping matches are resolved by
// position, then by pattern priority.
func (e *Extractor) Extract(text string) []Citation {
	if text == "" {
		return nil
	}

	var spans []span
	for prio, p := range e.patterns {
		for _, m := range p.re.FindAllStringSubmatchIndex(text, -1) {
			raw := text[m[0]:m[1]]
			if len(strings.TrimSpace(raw)) <= 3 {
				continue
			}
			groups := groupStrings(text, m)
			spans = append(spans, span{
				start:    m[0],
				end:      m[1],
				priority: prio,
				citation: Citation{
					Raw:        raw,
					Kind:       p.kind,
					Identifier: p.ident(groups),
					Position:   m[0],
				},
			})
		}
	}

	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].priority < spans[j].priority
	})

	var out []Citation
	seen := map[string]bool{}
	lastEnd := -1
	for _, s := range spans {
		if s.start < lastEnd {
			continue // overlaps a kept higher-priority or earlier token
		}
		key := strings.ToLower(strings.TrimSpace(s.citation.Raw))
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s.citation)
		lastEnd = s.end
	}
	return out
}

var (
	yearRe   = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
	authorRe = regexp.MustCompile(`\b[A-Z][A-Za-z'-]+(?:\s+et\s+al\.?|,\s+[A-Z]\.)`)
	venueRe  = regexp.MustCompile(`(?i)\b(?:journal|lancet|jama|nejm|bmj|proceedings|annals|archives)\b`)
)

// Completeness scores how much bibliographic detail a citation carries, 0-10.
// A strong identifier is worth the most; year, author and venue hints add the
// rest. The score feeds the per-citation assessment, not the risk level.
func Completeness(c Citation) int {
	score := 0
	if c.Identifier != "" {
		score += 4
	}
	if yearRe.MatchString(c.Raw) {
		score += 2
	}
	if authorRe.MatchString(c.Raw) {
		score += 2
	}
	if venueRe.MatchString(c.Raw) {
		score += 2
	}
	return score
}

func groupStrings(text string, m []int) []string {
	groups := make([]string, 0, len(m)/2)
	for i := 0; i < len(m); i += 2 {
		if m[i] < 0 {
			groups = append(groups, "")
			continue
		}
		groups = append(groups, text[m[i]:m[i+1]])
	}
	return groups
}
