package reports

import (
	"time"

	"github.com/bryanwahyu/medverify/internal/domain/compliance"
	"github.com/bryanwahyu/medverify/internal/domain/hallucination"
	"github.com/bryanwahyu/medverify/internal/domain/verification"
)

// SectionStatus untuk tiap bagian analisa di report
type SectionStatus string

const (
	SectionCompleted SectionStatus = "completed"
	SectionFailed    SectionStatus = "failed"
	SectionSkipped   SectionStatus = "skipped"
)

// InputSummary describes the ingested exchange without echoing its content.
// Raw prompt/response text never appears in a report.
type InputSummary struct {
	PromptLength int  `json:"prompt_length"`
	OutputLength int  `json:"output_length"`
	HasDocuments bool `json:"has_documents"`
}

// HallucinationSection wraps the faithfulness result with its own status so a
// failed analyzer still leaves a readable report.
type HallucinationSection struct {
	Status SectionStatus           `json:"status"`
	Detail *hallucination.Analysis `json:"detail,omitempty"`
	Error  string                  `json:"error,omitempty"`
}

// ComplianceSection wraps the compliance result likewise.
type ComplianceSection struct {
	Status SectionStatus        `json:"status"`
	Detail *compliance.Analysis `json:"detail,omitempty"`
	Error  string               `json:"error,omitempty"`
}

// ReportAnalysis holds both analyzer sections plus the combined verdict.
type ReportAnalysis struct {
	HallucinationAnalysis HallucinationSection      `json:"hallucination_analysis"`
	ComplianceAnalysis    ComplianceSection         `json:"compliance_analysis"`
	CombinedAssessment    *verification.RiskVerdict `json:"combined_assessment,omitempty"`
}

// Report is the externally served verification report for one run.
type Report struct {
	ReportID     string              `json:"report_id"`
	Status       verification.Status `json:"status"`
	Timestamp    time.Time           `json:"timestamp"`
	InputSummary InputSummary        `json:"input_summary"`
	Analysis     ReportAnalysis      `json:"analysis"`
}

// Record is the stored lifecycle state for one exchange. Report and Verdict
// are nil until the first run completes. The raw exchange is persisted so a
// re-verification can rerun it, but it is never serialized into responses.
type Record struct {
	ExchangeID verification.ExchangeID   `json:"exchange_id"`
	TenantID   string                    `json:"tenant_id"`
	Exchange   verification.Exchange     `json:"-"`
	Status     verification.Status       `json:"status"`
	Verdict    *verification.RiskVerdict `json:"verdict,omitempty"`
	Report     *Report                   `json:"report,omitempty"`
	LastError  string                    `json:"last_error,omitempty"`
	Runs       int                       `json:"runs"`
	CreatedAt  time.Time                 `json:"created_at"`
	UpdatedAt  time.Time                 `json:"updated_at"`
}
