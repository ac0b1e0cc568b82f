package verification

import (
	"time"
)

// ID tipe untuk Exchange
type ExchangeID string

// Role enum
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// RiskLevel enum. The string values are part of the external contract
// and must not change.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// Rank maps a risk level onto an ordinal scale (LOW < MEDIUM < HIGH < CRITICAL).
// Unknown values rank below LOW so a malformed level never escalates a verdict.
func (r RiskLevel) Rank() int {
	switch r {
	case RiskLow:
		return 1
	case RiskMedium:
		return 2
	case RiskHigh:
		return 3
	case RiskCritical:
		return 4
	}
	return 0
}

// MaxRisk returns the higher of two risk levels (monotonic max, never average).
func MaxRisk(a, b RiskLevel) RiskLevel {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// ParseRiskLevel normalizes a free-form level string, falling back to MEDIUM
// so an unrecognized judge answer never silently downgrades.
func ParseRiskLevel(s string) RiskLevel {
	switch RiskLevel(s) {
	case RiskLow, RiskMedium, RiskHigh, RiskCritical:
		return RiskLevel(s)
	}
	return RiskMedium
}

// ComplianceStatus enum, also contract-frozen.
type ComplianceStatus string

const (
	StatusCompliant       ComplianceStatus = "COMPLIANT"
	StatusMostlyCompliant ComplianceStatus = "MOSTLY_COMPLIANT"
	StatusNeedsReview     ComplianceStatus = "NEEDS_REVIEW"
	StatusNonCompliant    ComplianceStatus = "NON_COMPLIANT"
)

// Exchange is one prompt/response pair submitted for review.
// Immutable after ingestion.
type Exchange struct {
	ID             ExchangeID `json:"id"`
	TenantID       string     `json:"tenant_id"`
	Prompt         string     `json:"prompt"`
	Response       string     `json:"response"`
	Role           Role       `json:"role"`
	ConversationID string     `json:"conversation_id,omitempty"`
	Documents      string     `json:"documents,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// HasDocuments reports whether reference documents were supplied at ingestion.
func (e Exchange) HasDocuments() bool {
	return e.Documents != ""
}

// RiskVerdict is the combined assessment for one exchange. Set at most once
// per run; a re-verification produces a fresh value.
type RiskVerdict struct {
	OverallRiskLevel  RiskLevel        `json:"overall_risk_level"`
	HallucinationRisk RiskLevel        `json:"hallucination_risk"`
	ComplianceScore   int              `json:"compliance_score"`
	ComplianceStatus  ComplianceStatus `json:"compliance_status"`
	RiskFactors       []string         `json:"risk_factors"`
	Recommendation    string           `json:"recommendation"`
	Summary           string           `json:"summary"`
}
