package judge

import (
	"context"

	"github.com/bryanwahyu/medverify/internal/domain/verification"
)

// Judge is the LLM seam. Implementations call a language model and parse its
// answer into a structured verdict; callers must treat any error as a signal
// to degrade to deterministic checks, never to fail the run.
type Judge interface {
	// JudgeFaithfulness grades how well the response is supported by the
	// prompt and any supplied documents. citationContext carries the
	// already-verified citation summary so the model sees what checked out.
	JudgeFaithfulness(ctx context.Context, ex verification.Exchange, citationContext string) (*FaithfulnessVerdict, error)

	// JudgeCompliance reviews the response for regulatory problems that the
	// deterministic pattern checks cannot see.
	JudgeCompliance(ctx context.Context, ex verification.Exchange) (*ComplianceVerdict, error)
}

// FaithfulnessVerdict is the parsed faithfulness answer.
type FaithfulnessVerdict struct {
	// ConfidenceScore is normalized to 0..1 at the parse boundary regardless
	// of the scale the model answered on.
	ConfidenceScore float64
	Reasoning       string
	Issues          []Issue
	Claims          []ClaimCheck
}

// Issue is one problem the model flagged in the response.
type Issue struct {
	IssueType   string
	Description string
	Evidence    string
	RiskLevel   verification.RiskLevel
	Explanation string
}

// ClaimCheck is the model's verdict on a single factual claim.
type ClaimCheck struct {
	Claim      string
	Status     string // supported, unsupported, contradicted, unverifiable
	Evidence   string
	Confidence float64
	Sources    []string // where the support came from: document, citation, prompt
}

// ComplianceVerdict is the parsed compliance answer.
type ComplianceVerdict struct {
	Violations      []ComplianceViolation
	Recommendations []string
}

// ComplianceViolation is one regulatory finding from the model.
type ComplianceViolation struct {
	Category    string
	Severity    verification.RiskLevel
	Description string
	Remediation string
}
