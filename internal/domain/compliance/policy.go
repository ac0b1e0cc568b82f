package compliance

import (
	"github.com/bryanwahyu/medverify/internal/domain/verification"
)

// Scoring policy. The numbers here are the compliance contract: changing any
// of them shifts what gets blocked downstream, so keep them in one place.

// Deduction returns the score penalty for one finding of the given severity.
func Deduction(sev verification.RiskLevel) int {
	switch sev {
	case verification.RiskCritical:
		return 25
	case verification.RiskHigh:
		return 15
	case verification.RiskMedium:
		return 8
	case verification.RiskLow:
		return 3
	}
	return 8
}

// Score starts from 100 and subtracts per finding, floored at 0.
func Score(findings []Finding) int {
	score := 100
	for _, f := range findings {
		score -= Deduction(f.Severity)
	}
	if score < 0 {
		return 0
	}
	return score
}

// StatusFor maps a score onto the compliance status scale.
func StatusFor(score int) verification.ComplianceStatus {
	switch {
	case score >= 90:
		return verification.StatusCompliant
	case score >= 70:
		return verification.StatusMostlyCompliant
	case score >= 40:
		return verification.StatusNeedsReview
	}
	return verification.StatusNonCompliant
}

// RiskFor maps a compliance status onto the shared risk scale.
func RiskFor(status verification.ComplianceStatus) verification.RiskLevel {
	switch status {
	case verification.StatusCompliant:
		return verification.RiskLow
	case verification.StatusMostlyCompliant:
		return verification.RiskMedium
	case verification.StatusNeedsReview:
		return verification.RiskHigh
	}
	return verification.RiskCritical
}
