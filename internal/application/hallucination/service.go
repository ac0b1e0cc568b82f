package hallucination

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/bryanwahyu/medverify/internal/application"
	"github.com/bryanwahyu/medverify/internal/domain/citations"
	"github.com/bryanwahyu/medverify/internal/domain/hallucination"
	"github.com/bryanwahyu/medverify/internal/domain/judge"
	"github.com/bryanwahyu/medverify/internal/domain/verification"
)

// Service grades how faithful a response is. The citation verdicts come in
// from the caller so an unverifiable reference always produces a finding even
// when the judge is down.
type Service struct {
	Judge  judge.Judge
	Clock  application.Clock
	Logger *slog.Logger
}

func New(j judge.Judge, clock application.Clock, logger *slog.Logger) *Service {
	if clock == nil {
		clock = application.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{Judge: j, Clock: clock, Logger: logger}
}

// Analyze grades one exchange. citationAnalysis may be empty.
func (s *Service) Analyze(ctx context.Context, ex verification.Exchange, citationAnalysis []citations.Verdict) *hallucination.Analysis {
	a := &hallucination.Analysis{
		CitationAnalysis: citationAnalysis,
		Timestamp:        s.Clock.Now(),
	}

	a.IssuesDetected = seedFromCitations(citationAnalysis)

	judged := false
	if s.Judge != nil {
		verdict, err := s.Judge.JudgeFaithfulness(ctx, ex, citationContext(citationAnalysis))
		switch {
		case err == nil:
			judged = true
			a.ConfidenceScore = verdict.ConfidenceScore
			a.Reasoning = verdict.Reasoning
			for _, iss := range verdict.Issues {
				a.IssuesDetected = appendFinding(a.IssuesDetected, hallucination.Finding{
					IssueType:   iss.IssueType,
					Description: iss.Description,
					Evidence:    iss.Evidence,
					RiskLevel:   iss.RiskLevel,
					Explanation: iss.Explanation,
				})
			}
			for _, c := range verdict.Claims {
				a.ClaimVerifications = append(a.ClaimVerifications, hallucination.ClaimVerification{
					Claim:      c.Claim,
					Status:     c.Status,
					Evidence:   c.Evidence,
					Confidence: c.Confidence,
					Sources:    c.Sources,
				})
			}
		case errors.Is(err, judge.ErrParse):
			s.Logger.Warn("faithfulness judge answer unparseable", "exchange_id", ex.ID)
		default:
			s.Logger.Warn("faithfulness judge unavailable", "exchange_id", ex.ID, "error", err)
		}
	}

	if !judged {
		for _, f := range fallbackFindings(ex.Response) {
			a.IssuesDetected = appendFinding(a.IssuesDetected, f)
		}
		a.ConfidenceScore = heuristicConfidence(a.IssuesDetected)
		a.Reasoning = "heuristic assessment: language model review unavailable"
	}

	a.RiskLevel = verification.RiskLow
	for _, f := range a.IssuesDetected {
		a.RiskLevel = verification.MaxRisk(a.RiskLevel, f.RiskLevel)
	}
	return a
}

// seedFromCitations turns bad citation verdicts into findings.
func seedFromCitations(verdicts []citations.Verdict) []hallucination.Finding {
	var out []hallucination.Finding
	for _, v := range verdicts {
		switch v.Resolution {
		case citations.ResolutionUnresolved:
			out = append(out, hallucination.Finding{
				IssueType:   "unverified_citation",
				Description: fmt.Sprintf("citation %q could not be verified", v.Citation.Raw),
				Evidence:    v.Citation.Raw,
				RiskLevel:   v.RiskLevel,
				Explanation: v.Explanation,
			})
		case citations.ResolutionAmbiguous:
			out = append(out, hallucination.Finding{
				IssueType:   "ambiguous_citation",
				Description: fmt.Sprintf("citation %q only partially matched a source", v.Citation.Raw),
				Evidence:    v.Citation.Raw,
				RiskLevel:   v.RiskLevel,
				Explanation: v.Explanation,
			})
		}
	}
	return out
}

// citationContext summarizes verdicts for the judge prompt.
func citationContext(verdicts []citations.Verdict) string {
	if len(verdicts) == 0 {
		return ""
	}
	var b strings.Builder
	for _, v := range verdicts {
		fmt.Fprintf(&b, "- %s: %s (%s)\n", v.Citation.Raw, v.Resolution, v.Assessment)
	}
	return b.String()
}

// appendFinding dedupes by normalized description so judge findings do not
// repeat the citation-seeded ones.
func appendFinding(findings []hallucination.Finding, f hallucination.Finding) []hallucination.Finding {
	key := strings.ToLower(strings.TrimSpace(f.Description))
	for _, existing := range findings {
		if strings.ToLower(strings.TrimSpace(existing.Description)) == key {
			return findings
		}
	}
	return append(findings, f)
}

var fallbackPatterns = []struct {
	re        *regexp.Regexp
	issueType string
	desc      string
	risk      verification.RiskLevel
}{
	{
		re:        regexp.MustCompile(`\b\d+\.\d{2,}%`),
		issueType: "suspicious_precision",
		desc:      "Suspiciously precise statistic without a cited source",
		risk:      verification.RiskMedium,
	},
	{
		re:        regexp.MustCompile(`(?i)\b(?:studies show|research proves|experts say|scientists agree|evidence suggests)\b`),
		issueType: "vague_attribution",
		desc:      "Vague appeal to unnamed studies or experts",
		risk:      verification.RiskMedium,
	},
	{
		re:        regexp.MustCompile(`(?i)\b(?:always (?:cures|works)|never fails|100% (?:effective|safe)|guaranteed to|completely safe|cures all)\b`),
		issueType: "absolute_claim",
		desc:      "Absolute medical claim that cannot be universally true",
		risk:      verification.RiskHigh,
	},
}

// fallbackFindings is the deterministic stand-in for the judge.
func fallbackFindings(response string) []hallucination.Finding {
	var out []hallucination.Finding
	for _, p := range fallbackPatterns {
		for _, m := range p.re.FindAllString(response, 3) {
			out = append(out, hallucination.Finding{
				IssueType:   p.issueType,
				Description: p.desc,
				Evidence:    m,
				RiskLevel:   p.risk,
			})
		}
	}
	return out
}

// heuristicConfidence derives a confidence score from finding severities when
// no judged score exists. Floors at 0.1 so the scale stays open-ended below.
func heuristicConfidence(findings []hallucination.Finding) float64 {
	score := 0.9
	for _, f := range findings {
		switch {
		case f.RiskLevel.Rank() >= verification.RiskHigh.Rank():
			score -= 0.2
		case f.RiskLevel == verification.RiskMedium:
			score -= 0.1
		}
	}
	if score < 0.1 {
		return 0.1
	}
	return score
}
