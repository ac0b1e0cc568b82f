package phi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/medverify/internal/domain/compliance"
	"github.com/bryanwahyu/medverify/internal/domain/verification"
)

func findBySeverity(findings []compliance.Finding, sev verification.RiskLevel) *compliance.Finding {
	for i := range findings {
		if findings[i].Severity == sev {
			return &findings[i]
		}
	}
	return nil
}

func TestDetectSSNIsCritical(t *testing.T) {
	d := NewDetector()
	got := d.Detect("The SSN on file is 123-45-6789.")
	f := findBySeverity(got, verification.RiskCritical)
	require.NotNil(t, f)
	assert.Equal(t, compliance.CategoryPHI, f.Category)
	assert.NotContains(t, f.Evidence, "123-45-6789", "evidence must be masked")
}

func TestDetectNineDigitsOnlyNearPatientContext(t *testing.T) {
	d := NewDetector()

	assert.Empty(t, d.Detect("The study enrolled 123456789 data points."),
		"bare nine digits without patient context are not PHI")

	got := d.Detect("The patient was admitted under number 123456789.")
	f := findBySeverity(got, verification.RiskHigh)
	require.NotNil(t, f)
	assert.Equal(t, "Nine-digit identifier near patient context", f.Description)
}

func TestDetectMRN(t *testing.T) {
	d := NewDetector()
	got := d.Detect("Chart notes reference MRN: 445566.")
	require.NotEmpty(t, got)
	f := findBySeverity(got, verification.RiskHigh)
	require.NotNil(t, f)
	assert.Equal(t, "Medical record number", f.Description)
}

func TestDetectContactInfo(t *testing.T) {
	d := NewDetector()
	got := d.Detect("Reach the clinic at 555-123-4567 or billing@clinic.example.com.")
	require.Len(t, got, 2)
	for _, f := range got {
		assert.Equal(t, verification.RiskMedium, f.Severity)
	}
}

func TestDetectCleanText(t *testing.T) {
	d := NewDetector()
	assert.Empty(t, d.Detect("Stay hydrated and get enough sleep."))
}

func TestMaskKeepsShape(t *testing.T) {
	assert.Equal(t, "***-**-**89", mask("123-45-6789"))
	assert.Equal(t, "*******89", mask("123456789"))
}
