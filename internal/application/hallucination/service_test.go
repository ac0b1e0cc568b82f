package hallucination

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/medverify/internal/domain/citations"
	"github.com/bryanwahyu/medverify/internal/domain/hallucination"
	"github.com/bryanwahyu/medverify/internal/domain/judge"
	"github.com/bryanwahyu/medverify/internal/domain/verification"
)

type fakeJudge struct {
	verdict    *judge.FaithfulnessVerdict
	err        error
	gotContext string
}

func (f *fakeJudge) JudgeFaithfulness(ctx context.Context, ex verification.Exchange, citationContext string) (*judge.FaithfulnessVerdict, error) {
	f.gotContext = citationContext
	return f.verdict, f.err
}

func (f *fakeJudge) JudgeCompliance(ctx context.Context, ex verification.Exchange) (*judge.ComplianceVerdict, error) {
	return nil, errors.New("not used")
}

func exchange(response string) verification.Exchange {
	return verification.Exchange{ID: "ex-1", TenantID: "clinic", Prompt: "q", Response: response}
}

func unresolvedVerdict(raw string) citations.Verdict {
	return citations.Verdict{
		Citation:    citations.Citation{Raw: raw, Kind: citations.KindPMID, Identifier: "1"},
		Resolution:  citations.ResolutionUnresolved,
		RiskLevel:   verification.RiskHigh,
		Assessment:  "not found",
		Explanation: "identifier does not exist",
	}
}

func TestAnalyzeSeedsFindingsFromCitations(t *testing.T) {
	j := &fakeJudge{verdict: &judge.FaithfulnessVerdict{ConfidenceScore: 0.85, Reasoning: "mostly grounded"}}
	svc := New(j, nil, nil)

	a := svc.Analyze(context.Background(), exchange("see PMID: 1"), []citations.Verdict{unresolvedVerdict("PMID: 1")})
	require.Len(t, a.IssuesDetected, 1)
	assert.Equal(t, "unverified_citation", a.IssuesDetected[0].IssueType)
	assert.Equal(t, verification.RiskHigh, a.RiskLevel)
	assert.Equal(t, 0.85, a.ConfidenceScore)
	assert.Contains(t, j.gotContext, "PMID: 1", "judge must see the citation check results")
}

func TestAnalyzeMergesJudgeIssuesWithoutDuplicates(t *testing.T) {
	seeded := unresolvedVerdict("PMID: 1")
	j := &fakeJudge{verdict: &judge.FaithfulnessVerdict{
		ConfidenceScore: 0.4,
		Issues: []judge.Issue{
			// same description the citation seeding produces
			{IssueType: "unverified_citation", Description: `citation "PMID: 1" could not be verified`, RiskLevel: verification.RiskHigh},
			{IssueType: "overstatement", Description: "exaggerated efficacy claim", RiskLevel: verification.RiskMedium},
		},
		Claims: []judge.ClaimCheck{{Claim: "drug X cures Y", Status: "unsupported", Confidence: 0.2, Sources: []string{"prompt"}}},
	}}
	svc := New(j, nil, nil)

	a := svc.Analyze(context.Background(), exchange("resp"), []citations.Verdict{seeded})
	assert.Len(t, a.IssuesDetected, 2, "duplicate finding must collapse")
	require.Len(t, a.ClaimVerifications, 1)
	assert.Equal(t, "unsupported", a.ClaimVerifications[0].Status)
	assert.Equal(t, []string{"prompt"}, a.ClaimVerifications[0].Sources)
}

func TestAnalyzeFallsBackWhenJudgeUnavailable(t *testing.T) {
	j := &fakeJudge{err: errors.New("connection refused")}
	svc := New(j, nil, nil)

	a := svc.Analyze(context.Background(), exchange(
		"Studies show this is 100% effective with a 93.47% response rate.",
	), nil)

	types := map[string]bool{}
	for _, f := range a.IssuesDetected {
		types[f.IssueType] = true
	}
	assert.True(t, types["vague_attribution"])
	assert.True(t, types["absolute_claim"])
	assert.True(t, types["suspicious_precision"])
	assert.Equal(t, verification.RiskHigh, a.RiskLevel)
	assert.Contains(t, a.Reasoning, "heuristic")
	assert.Less(t, a.ConfidenceScore, 0.9)
}

func TestAnalyzeWithoutJudgeCleanResponse(t *testing.T) {
	svc := New(nil, nil, nil)

	a := svc.Analyze(context.Background(), exchange("Drink water and rest."), nil)
	assert.Empty(t, a.IssuesDetected)
	assert.Equal(t, verification.RiskLow, a.RiskLevel)
	assert.Equal(t, 0.9, a.ConfidenceScore)
	assert.Empty(t, a.CitationAnalysis)
}

func TestHeuristicConfidenceFloor(t *testing.T) {
	var findings []hallucination.Finding
	for i := 0; i < 10; i++ {
		findings = append(findings, hallucination.Finding{RiskLevel: verification.RiskHigh})
	}
	assert.Equal(t, 0.1, heuristicConfidence(findings))
	assert.Equal(t, 0.9, heuristicConfidence(nil))
}
