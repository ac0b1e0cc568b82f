package compliance

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bryanwahyu/medverify/internal/domain/verification"
)

func TestScoreDeductions(t *testing.T) {
	assert.Equal(t, 100, Score(nil))

	findings := []Finding{
		{Severity: verification.RiskCritical},
		{Severity: verification.RiskHigh},
		{Severity: verification.RiskMedium},
		{Severity: verification.RiskLow},
	}
	// 100 - 25 - 15 - 8 - 3
	assert.Equal(t, 49, Score(findings))
}

func TestScoreFloorsAtZero(t *testing.T) {
	var findings []Finding
	for i := 0; i < 6; i++ {
		findings = append(findings, Finding{Severity: verification.RiskCritical})
	}
	assert.Equal(t, 0, Score(findings))
}

func TestStatusThresholds(t *testing.T) {
	assert.Equal(t, verification.StatusCompliant, StatusFor(100))
	assert.Equal(t, verification.StatusCompliant, StatusFor(90))
	assert.Equal(t, verification.StatusMostlyCompliant, StatusFor(89))
	assert.Equal(t, verification.StatusMostlyCompliant, StatusFor(70))
	assert.Equal(t, verification.StatusNeedsReview, StatusFor(69))
	assert.Equal(t, verification.StatusNeedsReview, StatusFor(40))
	assert.Equal(t, verification.StatusNonCompliant, StatusFor(39))
	assert.Equal(t, verification.StatusNonCompliant, StatusFor(0))
}

func TestSingleHighFindingStaysMostlyCompliant(t *testing.T) {
	score := Score([]Finding{{Severity: verification.RiskHigh}})
	assert.Equal(t, 85, score)
	assert.Equal(t, verification.StatusMostlyCompliant, StatusFor(score))
}

func TestRiskForStatusBuckets(t *testing.T) {
	assert.Equal(t, verification.RiskLow, RiskFor(verification.StatusCompliant))
	assert.Equal(t, verification.RiskMedium, RiskFor(verification.StatusMostlyCompliant))
	assert.Equal(t, verification.RiskHigh, RiskFor(verification.StatusNeedsReview))
	assert.Equal(t, verification.RiskCritical, RiskFor(verification.StatusNonCompliant))
}
