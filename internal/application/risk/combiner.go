package risk

import (
	"fmt"

	"github.com/bryanwahyu/medverify/internal/domain/citations"
	"github.com/bryanwahyu/medverify/internal/domain/compliance"
	"github.com/bryanwahyu/medverify/internal/domain/hallucination"
	"github.com/bryanwahyu/medverify/internal/domain/verification"
)

// Combine folds both analyses into one verdict. Pure function: same inputs,
// same verdict. Either analysis may be nil when its analyzer failed; the
// verdict is then computed from what remains, never dropped.
func Combine(hall *hallucination.Analysis, comp *compliance.Analysis) verification.RiskVerdict {
	var factors []string

	hallRisk := verification.RiskMedium
	if hall == nil {
		factors = append(factors, "hallucination analysis unavailable")
	} else {
		hallRisk = hall.RiskLevel
		if hall.ConfidenceScore < 0.5 {
			hallRisk = verification.MaxRisk(hallRisk, verification.RiskHigh)
		} else if hall.ConfidenceScore < 0.7 {
			hallRisk = verification.MaxRisk(hallRisk, verification.RiskMedium)
		}
		if n := countUnresolved(hall.CitationAnalysis); n > 0 {
			factors = append(factors, fmt.Sprintf("%d citation(s) could not be verified", n))
		}
		for _, f := range hall.IssuesDetected {
			if f.RiskLevel.Rank() >= verification.RiskHigh.Rank() {
				factors = append(factors, f.Description)
			}
		}
	}

	compRisk := verification.RiskMedium
	compScore := 0
	compStatus := verification.StatusNeedsReview
	if comp == nil {
		factors = append(factors, "compliance analysis unavailable")
	} else {
		compRisk = compliance.RiskFor(comp.OverallStatus)
		compScore = comp.ComplianceScore
		compStatus = comp.OverallStatus
		if n := len(comp.PHIViolations); n > 0 {
			factors = append(factors, fmt.Sprintf("%d potential PHI exposure(s)", n))
		}
		for _, f := range comp.AllFindings() {
			if f.Severity.Rank() >= verification.RiskHigh.Rank() {
				factors = append(factors, f.Description)
			}
		}
	}

	overall := verification.MaxRisk(hallRisk, compRisk)
	return verification.RiskVerdict{
		OverallRiskLevel:  overall,
		HallucinationRisk: hallRisk,
		ComplianceScore:   compScore,
		ComplianceStatus:  compStatus,
		RiskFactors:       dedupe(factors),
		Recommendation:    recommendationFor(overall),
		Summary: fmt.Sprintf("overall risk %s (hallucination %s, compliance %s at %d/100)",
			overall, hallRisk, compStatus, compScore),
	}
}

func countUnresolved(verdicts []citations.Verdict) int {
	n := 0
	for _, v := range verdicts {
		if v.Resolution == citations.ResolutionUnresolved {
			n++
		}
	}
	return n
}

func recommendationFor(overall verification.RiskLevel) string {
	switch overall {
	case verification.RiskLow:
		return "Content is safe for delivery"
	case verification.RiskMedium:
		return "Review and address identified issues before delivery"
	case verification.RiskHigh:
		return "Significant issues detected - revise before delivery"
	}
	return "Do not deliver without revision"
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]bool{}
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
