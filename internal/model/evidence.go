package model

import (
	"errors"

	"github.com/ckwokli/pws/internal/errs"
)

// SearchResult is one raw hit returned by the evidence-search service
type SearchResult struct {
	URL      string   `json:"url"`
	Title    string   `json:"title,omitempty"`
	Excerpts []string `json:"excerpts,omitempty"`
}

// EvidenceItem is one search excerpt attached to a claim
type EvidenceItem struct {
	URL     string `json:"url"`
	Title   string `json:"title,omitempty"`
	Snippet string `json:"snippet"`
}

// VerificationStatus is the verdict for a single claim
type VerificationStatus string

const (
	StatusSupported    VerificationStatus = "supported"
	StatusInsufficient VerificationStatus = "insufficient"
)

// ScoreBreakdown exposes the inputs of the confidence formula
type ScoreBreakdown struct {
	TokenOverlap   float64 `json:"token_overlap"`
	DomainTrust    float64 `json:"domain_trust"`
	ExcerptDensity float64 `json:"excerpt_density"`
	ExcerptCount   int     `json:"excerpt_count"`
	Formula        string  `json:"formula"`
}

// Assessment is the scorer output for one claim
type Assessment struct {
	Evidence   []EvidenceItem     `json:"evidence"`
	Confidence float64            `json:"confidence"`
	Status     VerificationStatus `json:"status"`
	Breakdown  ScoreBreakdown     `json:"breakdown"`
}

// VerificationResult is produced once per claim, independent of its siblings
type VerificationResult struct {
	Claim      string             `json:"claim"`
	Status     VerificationStatus `json:"status"`
	Confidence float64            `json:"confidence"`
	Evidence   []EvidenceItem     `json:"evidence"`
	Queries    []string           `json:"queries,omitempty"`
	Breakdown  *ScoreBreakdown    `json:"breakdown,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// Insufficient builds the result recorded when a claim could not be checked
func Insufficient(claim string, err error) VerificationResult {
	result := VerificationResult{
		Claim:      claim,
		Status:     StatusInsufficient,
		Confidence: 0,
		Evidence:   []EvidenceItem{},
	}
	if err != nil {
		result.Error = err.Error()
		var classified *errs.Error
		if errors.As(err, &classified) {
			// remote bodies stay in the logs
			result.Error = errs.PublicMessage(err)
		}
	}
	return result
}
