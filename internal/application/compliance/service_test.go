package compliance

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/medverify/internal/domain/compliance"
	"github.com/bryanwahyu/medverify/internal/domain/judge"
	"github.com/bryanwahyu/medverify/internal/domain/verification"
)

type fakeDetector struct {
	findings []compliance.Finding
}

func (f *fakeDetector) Detect(text string) []compliance.Finding { return f.findings }

type fakeJudge struct {
	compVerdict *judge.ComplianceVerdict
	compErr     error
}

func (f *fakeJudge) JudgeFaithfulness(ctx context.Context, ex verification.Exchange, cc string) (*judge.FaithfulnessVerdict, error) {
	return nil, errors.New("not used")
}

func (f *fakeJudge) JudgeCompliance(ctx context.Context, ex verification.Exchange) (*judge.ComplianceVerdict, error) {
	return f.compVerdict, f.compErr
}

func exchange(prompt, response string) verification.Exchange {
	return verification.Exchange{
		ID: "ex-1", TenantID: "clinic", Prompt: prompt, Response: response,
	}
}

func TestAnalyzeCleanResponse(t *testing.T) {
	svc := New(&fakeDetector{}, &fakeJudge{compVerdict: &judge.ComplianceVerdict{}}, nil, nil)

	a := svc.Analyze(context.Background(), exchange("what is ibuprofen?", "Ibuprofen is an NSAID."))
	assert.Equal(t, 100, a.ComplianceScore)
	assert.Equal(t, verification.StatusCompliant, a.OverallStatus)
	assert.True(t, a.FDACompliance.Compliant)
	assert.True(t, a.RegulatoryCompliance.Compliant)
	assert.Equal(t, "ok", a.JudgeStatus)
}

func TestAnalyzeScoresDetectorFindings(t *testing.T) {
	det := &fakeDetector{findings: []compliance.Finding{{
		Category: compliance.CategoryPHI,
		Severity: verification.RiskHigh,
	}}}
	svc := New(det, &fakeJudge{compVerdict: &judge.ComplianceVerdict{}}, nil, nil)

	a := svc.Analyze(context.Background(), exchange("q", "a"))
	assert.Equal(t, 85, a.ComplianceScore)
	assert.Equal(t, verification.StatusMostlyCompliant, a.OverallStatus)
	require.Len(t, a.PHIViolations, 1)
}

func TestAnalyzeMergesJudgeViolationsByCategory(t *testing.T) {
	j := &fakeJudge{compVerdict: &judge.ComplianceVerdict{
		Violations: []judge.ComplianceViolation{
			{Category: "fda", Severity: verification.RiskHigh, Description: "off-label promotion", Remediation: "remove the claim"},
			{Category: "hipaa privacy", Severity: verification.RiskMedium, Description: "contextual identifier"},
			{Category: "other", Severity: verification.RiskLow, Description: "tone issue"},
		},
		Recommendations: []string{"have a clinician review the response"},
	}}
	svc := New(&fakeDetector{}, j, nil, nil)

	a := svc.Analyze(context.Background(), exchange("q", "a"))
	require.Len(t, a.FDACompliance.Findings, 1)
	require.Len(t, a.PHIViolations, 1)
	require.Len(t, a.RegulatoryCompliance.Findings, 1)
	assert.False(t, a.FDACompliance.Compliant)

	// 100 - 15 - 8 - 3
	assert.Equal(t, 74, a.ComplianceScore)

	// recommendations worst-first with stable priorities
	require.NotEmpty(t, a.Recommendations)
	assert.Equal(t, 1, a.Recommendations[0].Priority)
	assert.Equal(t, verification.RiskHigh, a.Recommendations[0].Severity)
	assert.Equal(t, "remove the claim", a.Recommendations[0].Text)
}

func TestAnalyzeDegradesOnJudgeFailure(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status string
	}{
		{"parse failure", judge.ErrParse, "parse unsuccessful"},
		{"quota exhausted", judge.ErrQuotaExceeded, "judge quota exceeded"},
		{"outage", errors.New("connection refused"), "judge unavailable"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			det := &fakeDetector{findings: []compliance.Finding{{
				Category: compliance.CategoryPHI,
				Severity: verification.RiskCritical,
			}}}
			svc := New(det, &fakeJudge{compErr: tc.err}, nil, nil)

			a := svc.Analyze(context.Background(), exchange("q", "a"))
			assert.Equal(t, tc.status, a.JudgeStatus)
			// deterministic findings still scored
			assert.Equal(t, 75, a.ComplianceScore)
			require.Len(t, a.PHIViolations, 1)
		})
	}
}

func TestAnalyzeWithoutJudge(t *testing.T) {
	svc := New(&fakeDetector{}, nil, nil, nil)
	a := svc.Analyze(context.Background(), exchange("q", "a"))
	assert.Equal(t, "judge disabled", a.JudgeStatus)
	assert.Equal(t, 100, a.ComplianceScore)
}

func TestAnalyzeRunsDeterministicExchangeChecks(t *testing.T) {
	svc := New(&fakeDetector{}, nil, nil, nil)

	a := svc.Analyze(context.Background(), exchange(
		"I think I'm having a stroke, what do I do?",
		"Lie down and wait for it to pass.",
	))
	require.Len(t, a.RegulatoryCompliance.Findings, 1)
	assert.Equal(t, verification.RiskCritical, a.RegulatoryCompliance.Findings[0].Severity)
	assert.Equal(t, 75, a.ComplianceScore)
}
