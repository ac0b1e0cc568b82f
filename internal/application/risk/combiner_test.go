package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bryanwahyu/medverify/internal/domain/citations"
	"github.com/bryanwahyu/medverify/internal/domain/compliance"
	"github.com/bryanwahyu/medverify/internal/domain/hallucination"
	"github.com/bryanwahyu/medverify/internal/domain/verification"
)

func cleanHall() *hallucination.Analysis {
	return &hallucination.Analysis{
		ConfidenceScore: 0.95,
		RiskLevel:       verification.RiskLow,
	}
}

func cleanComp() *compliance.Analysis {
	return &compliance.Analysis{
		ComplianceScore: 100,
		OverallStatus:   verification.StatusCompliant,
	}
}

func TestCombineCleanRun(t *testing.T) {
	v := Combine(cleanHall(), cleanComp())
	assert.Equal(t, verification.RiskLow, v.OverallRiskLevel)
	assert.Equal(t, verification.RiskLow, v.HallucinationRisk)
	assert.Equal(t, 100, v.ComplianceScore)
	assert.Equal(t, verification.StatusCompliant, v.ComplianceStatus)
	assert.Empty(t, v.RiskFactors)
	assert.Equal(t, "Content is safe for delivery", v.Recommendation)
}

func TestCombineIsPure(t *testing.T) {
	h, c := cleanHall(), cleanComp()
	first := Combine(h, c)
	second := Combine(h, c)
	assert.Equal(t, first, second)
}

func TestCombineTakesWorstSide(t *testing.T) {
	h := cleanHall()
	h.RiskLevel = verification.RiskHigh
	h.IssuesDetected = []hallucination.Finding{{
		Description: "fabricated citation", RiskLevel: verification.RiskHigh,
	}}

	v := Combine(h, cleanComp())
	assert.Equal(t, verification.RiskHigh, v.OverallRiskLevel, "overall is a max, never an average")
	assert.Contains(t, v.RiskFactors, "fabricated citation")
	assert.Equal(t, "Significant issues detected - revise before delivery", v.Recommendation)
}

func TestCombineComplianceDrivesCritical(t *testing.T) {
	c := cleanComp()
	c.ComplianceScore = 20
	c.OverallStatus = verification.StatusNonCompliant

	v := Combine(cleanHall(), c)
	assert.Equal(t, verification.RiskCritical, v.OverallRiskLevel)
	assert.Equal(t, "Do not deliver without revision", v.Recommendation)
}

func TestCombineLowConfidenceEscalates(t *testing.T) {
	h := cleanHall()
	h.ConfidenceScore = 0.3

	v := Combine(h, cleanComp())
	assert.Equal(t, verification.RiskHigh, v.HallucinationRisk)

	h.ConfidenceScore = 0.65
	v = Combine(h, cleanComp())
	assert.Equal(t, verification.RiskMedium, v.HallucinationRisk)
}

func TestCombineCountsUnresolvedCitations(t *testing.T) {
	h := cleanHall()
	h.CitationAnalysis = []citations.Verdict{
		{Resolution: citations.ResolutionUnresolved},
		{Resolution: citations.ResolutionUnresolved},
		{Resolution: citations.ResolutionResolved},
	}

	v := Combine(h, cleanComp())
	assert.Contains(t, v.RiskFactors, "2 citation(s) could not be verified")
}

func TestCombineHandlesMissingAnalyses(t *testing.T) {
	v := Combine(nil, cleanComp())
	assert.Equal(t, verification.RiskMedium, v.HallucinationRisk)
	assert.Contains(t, v.RiskFactors, "hallucination analysis unavailable")

	v = Combine(cleanHall(), nil)
	assert.Equal(t, verification.StatusNeedsReview, v.ComplianceStatus)
	assert.Contains(t, v.RiskFactors, "compliance analysis unavailable")

	v = Combine(nil, nil)
	assert.Equal(t, verification.RiskMedium, v.OverallRiskLevel)
}

func TestCombineDedupesRiskFactors(t *testing.T) {
	h := cleanHall()
	h.RiskLevel = verification.RiskHigh
	h.IssuesDetected = []hallucination.Finding{
		{Description: "same issue", RiskLevel: verification.RiskHigh},
		{Description: "same issue", RiskLevel: verification.RiskHigh},
	}

	v := Combine(h, cleanComp())
	count := 0
	for _, f := range v.RiskFactors {
		if f == "same issue" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}
