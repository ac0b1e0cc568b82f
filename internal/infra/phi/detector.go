package phi

import (
	"regexp"
	"strings"

	"github.com/bryanwahyu/medverify/internal/domain/compliance"
	"github.com/bryanwahyu/medverify/internal/domain/verification"
)

// Detector scans text for protected health information using a fixed pattern
// table. No network, no model: this is the floor that always runs.
type Detector struct {
	patterns []phiPattern
}

type phiPattern struct {
	re          *regexp.Regexp
	severity    verification.RiskLevel
	title       string
	remediation string
	// contextual patterns only count near patient-identifying language
	contextual bool
}

// patientContextRe marks text that talks about a specific person, which is
// what turns a bare number into a potential identifier.
var patientContextRe = regexp.MustCompile(`(?i)\b(?:patient|mr\.|mrs\.|ms\.|dob|date of birth|medical record|chart|admitted|diagnosed)\b`)

func NewDetector() *Detector {
	return &Detector{
		patterns: []phiPattern{
			{
				re:          regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
				severity:    verification.RiskCritical,
				title:       "Social Security number pattern",
				remediation: "Remove or mask the SSN before delivery",
			},
			{
				re:          regexp.MustCompile(`\b(?:MRN|MR)[:\s]*\d+\b`),
				severity:    verification.RiskHigh,
				title:       "Medical record number",
				remediation: "Remove the medical record number",
			},
			{
				re:          regexp.MustCompile(`\b\d{9}\b`),
				severity:    verification.RiskHigh,
				title:       "Nine-digit identifier near patient context",
				remediation: "Confirm the number is not an unformatted SSN or insurance ID and mask it",
				contextual:  true,
			},
			{
				re:          regexp.MustCompile(`\b\d+\s+[A-Z][a-z]+\s+(?:Street|St|Avenue|Ave|Road|Rd|Boulevard|Blvd|Lane|Ln|Drive|Dr)\b`),
				severity:    verification.RiskHigh,
				title:       "Street address",
				remediation: "Remove the street address",
			},
			{
				re:          regexp.MustCompile(`\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`),
				severity:    verification.RiskMedium,
				title:       "Phone number pattern",
				remediation: "Remove or mask the phone number",
			},
			{
				re:          regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
				severity:    verification.RiskMedium,
				title:       "Email address",
				remediation: "Remove the email address",
			},
			{
				re:          regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`),
				severity:    verification.RiskMedium,
				title:       "Date that may identify a patient",
				remediation: "Generalize the date (year only) if it refers to a person",
				contextual:  true,
			},
		},
	}
}

// Detect returns one finding per matched pattern, with a masked excerpt as
// evidence. Duplicate matches of the same pattern collapse into one finding.
func (d *Detector) Detect(text string) []compliance.Finding {
	hasContext := patientContextRe.MatchString(text)

	var out []compliance.Finding
	for _, p := range d.patterns {
		if p.contextual && !hasContext {
			continue
		}
		m := p.re.FindString(text)
		if m == "" {
			continue
		}
		out = append(out, compliance.Finding{
			Category:    compliance.CategoryPHI,
			Severity:    p.severity,
			Description: p.title,
			Remediation: p.remediation,
			Evidence:    mask(m),
		})
	}
	return out
}

// mask keeps the shape of the match but hides most digits, so evidence in a
// report never re-leaks the PHI it flags.
func mask(s string) string {
	var b strings.Builder
	kept := 0
	for i := len(s) - 1; i >= 0; i-- {
		c := s[i]
		if c >= '0' && c <= '9' {
			if kept < 2 {
				kept++
			} else {
				c = '*'
			}
		}
		b.WriteByte(c)
	}
	// rebuilt backwards above, reverse
	rev := b.String()
	out := make([]byte, len(rev))
	for i := 0; i < len(rev); i++ {
		out[i] = rev[len(rev)-1-i]
	}
	return string(out)
}
