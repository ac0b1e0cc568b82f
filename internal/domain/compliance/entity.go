package compliance

import (
	"time"

	"github.com/bryanwahyu/medverify/internal/domain/verification"
)

// Category enum untuk temuan compliance
type Category string

const (
	CategoryPHI        Category = "phi_pattern"
	CategoryRegulatory Category = "regulatory"
	CategoryFDA        Category = "fda"
)

// Finding is one compliance problem, from either the deterministic pattern
// checks or the judge.
type Finding struct {
	Category    Category               `json:"category"`
	Severity    verification.RiskLevel `json:"severity"`
	Description string                 `json:"description"`
	Remediation string                 `json:"remediation,omitempty"`
	Evidence    string                 `json:"evidence,omitempty"`
}

// Recommendation is a remediation step, ranked so the worst problems surface
// first in the report.
type Recommendation struct {
	Priority int                    `json:"priority"`
	Severity verification.RiskLevel `json:"severity"`
	Text     string                 `json:"text"`
}

// SectionSummary groups findings for one compliance area.
type SectionSummary struct {
	Compliant bool      `json:"compliant"`
	Findings  []Finding `json:"findings,omitempty"`
}

// Analysis is the full compliance result for one exchange.
type Analysis struct {
	PHIViolations        []Finding                     `json:"phi_violations"`
	FDACompliance        SectionSummary                `json:"fda_compliance"`
	RegulatoryCompliance SectionSummary                `json:"regulatory_compliance"`
	ComplianceScore      int                           `json:"compliance_score"`
	OverallStatus        verification.ComplianceStatus `json:"overall_status"`
	Recommendations      []Recommendation              `json:"recommendations"`
	JudgeStatus          string                        `json:"judge_status,omitempty"`
	Timestamp            time.Time                     `json:"timestamp"`
}

// AllFindings flattens every section into one slice for scoring.
func (a Analysis) AllFindings() []Finding {
	out := make([]Finding, 0, len(a.PHIViolations)+len(a.FDACompliance.Findings)+len(a.RegulatoryCompliance.Findings))
	out = append(out, a.PHIViolations...)
	out = append(out, a.FDACompliance.Findings...)
	out = append(out, a.RegulatoryCompliance.Findings...)
	return out
}

// PatternDetector port: deterministic text scanning for protected information.
type PatternDetector interface {
	Detect(text string) []Finding
}
