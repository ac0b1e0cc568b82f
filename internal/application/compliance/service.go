package compliance

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"github.com/bryanwahyu/medverify/internal/application"
	"github.com/bryanwahyu/medverify/internal/domain/compliance"
	"github.com/bryanwahyu/medverify/internal/domain/judge"
	"github.com/bryanwahyu/medverify/internal/domain/verification"
)

// Service runs the compliance review: deterministic pattern checks first, then
// the judge for anything patterns cannot see. The judge is advisory: if it is
// down or answers garbage, the deterministic result still stands.
type Service struct {
	Detector compliance.PatternDetector
	Judge    judge.Judge
	Clock    application.Clock
	Logger   *slog.Logger
}

func New(detector compliance.PatternDetector, j judge.Judge, clock application.Clock, logger *slog.Logger) *Service {
	if clock == nil {
		clock = application.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{Detector: detector, Judge: j, Clock: clock, Logger: logger}
}

// Analyze reviews one exchange and always returns a usable analysis.
func (s *Service) Analyze(ctx context.Context, ex verification.Exchange) *compliance.Analysis {
	a := &compliance.Analysis{
		Timestamp:   s.Clock.Now(),
		JudgeStatus: "ok",
	}

	// Pattern checks only look at the generated response: PHI the user typed
	// themselves is not a leak by the assistant.
	for _, f := range s.Detector.Detect(ex.Response) {
		s.place(a, f)
	}
	for _, f := range compliance.CheckDisclaimers(ex.Response) {
		s.place(a, f)
	}
	for _, f := range compliance.CheckEmergency(ex.Prompt, ex.Response) {
		s.place(a, f)
	}

	var judgeRecs []string
	if s.Judge != nil {
		verdict, err := s.Judge.JudgeCompliance(ctx, ex)
		switch {
		case err == nil:
			for _, v := range verdict.Violations {
				s.place(a, compliance.Finding{
					Category:    categoryFor(v.Category),
					Severity:    v.Severity,
					Description: v.Description,
					Remediation: v.Remediation,
				})
			}
			judgeRecs = verdict.Recommendations
		case errors.Is(err, judge.ErrParse):
			a.JudgeStatus = "parse unsuccessful"
			s.Logger.Warn("compliance judge answer unparseable", "exchange_id", ex.ID)
		case errors.Is(err, judge.ErrQuotaExceeded):
			a.JudgeStatus = "judge quota exceeded"
			s.Logger.Warn("compliance judge quota exceeded", "exchange_id", ex.ID)
		default:
			a.JudgeStatus = "judge unavailable"
			s.Logger.Warn("compliance judge unavailable", "exchange_id", ex.ID, "error", err)
		}
	} else {
		a.JudgeStatus = "judge disabled"
	}

	all := a.AllFindings()
	a.ComplianceScore = compliance.Score(all)
	a.OverallStatus = compliance.StatusFor(a.ComplianceScore)
	a.FDACompliance.Compliant = len(a.FDACompliance.Findings) == 0
	a.RegulatoryCompliance.Compliant = len(a.RegulatoryCompliance.Findings) == 0
	a.Recommendations = buildRecommendations(all, judgeRecs)
	return a
}

func (s *Service) place(a *compliance.Analysis, f compliance.Finding) {
	switch f.Category {
	case compliance.CategoryPHI:
		a.PHIViolations = append(a.PHIViolations, f)
	case compliance.CategoryFDA:
		a.FDACompliance.Findings = append(a.FDACompliance.Findings, f)
	default:
		a.RegulatoryCompliance.Findings = append(a.RegulatoryCompliance.Findings, f)
	}
}

func categoryFor(raw string) compliance.Category {
	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "phi") || strings.Contains(lower, "privacy") || strings.Contains(lower, "hipaa"):
		return compliance.CategoryPHI
	case strings.Contains(lower, "fda") || strings.Contains(lower, "drug") || strings.Contains(lower, "device"):
		return compliance.CategoryFDA
	}
	return compliance.CategoryRegulatory
}

// buildRecommendations ranks remediation steps worst-first and dedupes by text.
func buildRecommendations(findings []compliance.Finding, judgeRecs []string) []compliance.Recommendation {
	type rec struct {
		severity verification.RiskLevel
		text     string
	}
	var list []rec
	seen := map[string]bool{}
	add := func(sev verification.RiskLevel, text string) {
		text = strings.TrimSpace(text)
		if text == "" {
			return
		}
		key := strings.ToLower(text)
		if seen[key] {
			return
		}
		seen[key] = true
		list = append(list, rec{severity: sev, text: text})
	}
	for _, f := range findings {
		add(f.Severity, f.Remediation)
	}
	for _, r := range judgeRecs {
		add(verification.RiskMedium, r)
	}

	sort.SliceStable(list, func(i, j int) bool {
		return list[i].severity.Rank() > list[j].severity.Rank()
	})

	out := make([]compliance.Recommendation, len(list))
	for i, r := range list {
		out[i] = compliance.Recommendation{Priority: i + 1, Severity: r.severity, Text: r.text}
	}
	return out
}
