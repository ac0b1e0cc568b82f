package hallucination

import (
	"time"

	"github.com/bryanwahyu/medverify/internal/domain/citations"
	"github.com/bryanwahyu/medverify/internal/domain/verification"
)

// Finding is one detected faithfulness problem in a response.
type Finding struct {
	IssueType   string                 `json:"issue_type"`
	Description string                 `json:"description"`
	Evidence    string                 `json:"evidence,omitempty"`
	RiskLevel   verification.RiskLevel `json:"risk_level"`
	Explanation string                 `json:"explanation,omitempty"`
}

// ClaimVerification is the outcome for one factual claim in the response.
type ClaimVerification struct {
	Claim      string   `json:"claim"`
	Status     string   `json:"status"` // supported, unsupported, contradicted, unverifiable
	Evidence   string   `json:"evidence,omitempty"`
	Confidence float64  `json:"confidence"`
	Sources    []string `json:"sources,omitempty"`
}

// Analysis is the full faithfulness result for one exchange.
type Analysis struct {
	ConfidenceScore    float64                `json:"confidence_score"` // 0-1, higher is more faithful
	Reasoning          string                 `json:"reasoning,omitempty"`
	IssuesDetected     []Finding              `json:"issues_detected"`
	CitationAnalysis   []citations.Verdict    `json:"citation_analysis"`
	ClaimVerifications []ClaimVerification    `json:"claim_verifications,omitempty"`
	RiskLevel          verification.RiskLevel `json:"risk_level"`
	Timestamp          time.Time              `json:"timestamp"`
}
