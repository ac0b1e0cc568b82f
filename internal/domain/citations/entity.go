package citations

import (
	"github.com/bryanwahyu/medverify/internal/domain/verification"
)

// IdentifierKind classifies what the extractor recognized inside a citation.
type IdentifierKind string

const (
	KindPMID    IdentifierKind = "pmid"
	KindDOI     IdentifierKind = "doi"
	KindURL     IdentifierKind = "url"
	KindMention IdentifierKind = "mention" // author/year style free-text reference
	KindNone    IdentifierKind = "none"
)

// Citation is one extracted bibliographic mention. Created by the extractor,
// consumed by the verifier, never mutated.
type Citation struct {
	Raw        string         `json:"citation"`
	Kind       IdentifierKind `json:"kind"`
	Identifier string         `json:"identifier,omitempty"`
	Position   int            `json:"position"`
}

// Resolution enum for verification outcomes.
type Resolution string

const (
	ResolutionResolved   Resolution = "resolved"
	ResolutionUnresolved Resolution = "unresolved"
	ResolutionAmbiguous  Resolution = "ambiguous"
)

// Verdict is the verification outcome for one Citation. Immutable once produced.
type Verdict struct {
	Citation          Citation               `json:"citation"`
	Resolution        Resolution             `json:"resolution"`
	RiskLevel         verification.RiskLevel `json:"risk_level"`
	CompletenessScore int                    `json:"completeness_score"` // 0-10
	Assessment        string                 `json:"assessment"`
	Explanation       string                 `json:"explanation"`
	Source            string                 `json:"source,omitempty"` // resolver that produced the verdict
}
