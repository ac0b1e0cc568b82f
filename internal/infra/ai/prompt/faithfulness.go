package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/bryanwahyu/medverify/internal/domain/judge"
	"github.com/bryanwahyu/medverify/internal/domain/verification"
)

// GetFaithfulnessSystemPrompt returns the grading instructions. The schema is
// spelled out in the prompt because not every model honors response_format.
func GetFaithfulnessSystemPrompt() string {
	return `You are a medical content verification expert. Grade how faithful an AI assistant's response is to the user's question and the reference documents provided.

Focus on:
- factual claims that are unsupported, exaggerated, or contradicted
- fabricated or misattributed citations
- suspiciously precise statistics without sources
- absolute claims ("always cures", "100% effective")

Respond ONLY with a JSON object in exactly this shape:
{
  "confidence_score": <integer 0-100, higher means more faithful>,
  "reasoning": "<short explanation of the score>",
  "issues_detected": [
    {"issue_type": "<snake_case label>", "description": "...", "evidence": "<quote from the response>", "risk_level": "LOW|MEDIUM|HIGH|CRITICAL", "explanation": "..."}
  ],
  "claim_verifications": [
    {"claim": "...", "status": "supported|unsupported|contradicted|unverifiable", "evidence": "...", "confidence": <0.0-1.0>, "sources": ["<document, citation or prompt passage supporting the claim>"]}
  ]
}`
}

// GetFaithfulnessUserPrompt renders one exchange for grading.
func GetFaithfulnessUserPrompt(ex verification.Exchange, citationContext string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "USER QUESTION:\n%s\n\nASSISTANT RESPONSE:\n%s\n", ex.Prompt, ex.Response)
	if ex.HasDocuments() {
		fmt.Fprintf(&b, "\nREFERENCE DOCUMENTS:\n%s\n", ex.Documents)
	}
	if citationContext != "" {
		fmt.Fprintf(&b, "\nCITATION CHECK RESULTS:\n%s", citationContext)
	}
	return b.String()
}

type faithfulnessDoc struct {
	ConfidenceScore float64 `json:"confidence_score"`
	Reasoning       string  `json:"reasoning"`
	IssuesDetected  []struct {
		IssueType   string `json:"issue_type"`
		Description string `json:"description"`
		Evidence    string `json:"evidence"`
		RiskLevel   string `json:"risk_level"`
		Explanation string `json:"explanation"`
	} `json:"issues_detected"`
	ClaimVerifications []struct {
		Claim      string   `json:"claim"`
		Status     string   `json:"status"`
		Evidence   string   `json:"evidence"`
		Confidence float64  `json:"confidence"`
		Sources    []string `json:"sources"`
	} `json:"claim_verifications"`
}

// ParseFaithfulness decodes a model answer. Confidence is normalized to 0..1
// here so callers never see the raw model scale. Unsalvageable answers yield
// judge.ErrParse.
func ParseFaithfulness(raw string) (*judge.FaithfulnessVerdict, error) {
	cleaned := stripFences(raw)

	var doc faithfulnessDoc
	if err := json.Unmarshal([]byte(cleaned), &doc); err != nil {
		// Lenient fallback: salvage the score and reasoning if they are there.
		score := gjson.Get(cleaned, "confidence_score")
		if !score.Exists() {
			return nil, fmt.Errorf("%w: %v", judge.ErrParse, err)
		}
		return &judge.FaithfulnessVerdict{
			ConfidenceScore: normalizeConfidence(score.Float()),
			Reasoning:       gjson.Get(cleaned, "reasoning").String(),
		}, nil
	}

	v := &judge.FaithfulnessVerdict{
		ConfidenceScore: normalizeConfidence(doc.ConfidenceScore),
		Reasoning:       doc.Reasoning,
	}
	for _, iss := range doc.IssuesDetected {
		v.Issues = append(v.Issues, judge.Issue{
			IssueType:   iss.IssueType,
			Description: iss.Description,
			Evidence:    iss.Evidence,
			RiskLevel:   verification.ParseRiskLevel(iss.RiskLevel),
			Explanation: iss.Explanation,
		})
	}
	for _, c := range doc.ClaimVerifications {
		v.Claims = append(v.Claims, judge.ClaimCheck{
			Claim:      c.Claim,
			Status:     c.Status,
			Evidence:   c.Evidence,
			Confidence: c.Confidence,
			Sources:    c.Sources,
		})
	}
	return v, nil
}

func normalizeConfidence(raw float64) float64 {
	if raw > 1 {
		raw = raw / 100
	}
	if raw < 0 {
		return 0
	}
	if raw > 1 {
		return 1
	}
	return raw
}

// stripFences removes markdown code fences some models wrap JSON in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
	}
	return strings.TrimSpace(s)
}
