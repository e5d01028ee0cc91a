package score

import (
	"math"
	"regexp"
	"strings"

	"github.com/ckwokli/pws/internal/model"
	"github.com/ckwokli/pws/internal/validate"
)

// Formula documents how Confidence is derived from the breakdown
const Formula = "clamp01(0.6*token_overlap + 0.25*domain_trust + 0.15*tanh(excerpt_count/5))"

const (
	overlapWeight = 0.6
	trustWeight   = 0.25
	densityWeight = 0.15

	// snippetSeparator joins the excerpts of one result
	snippetSeparator = " … "
)

var tokenRe = regexp.MustCompile(`[a-z0-9]+`)

// Scorer turns search results into evidence and a confidence score
type Scorer struct {
	trust      *validate.TrustClassifier
	maxResults int
	threshold  float64
}

// NewScorer creates a new scorer
func NewScorer(trust *validate.TrustClassifier, maxResults int, threshold float64) *Scorer {
	if trust == nil {
		trust = validate.NewTrustClassifier(nil)
	}
	if maxResults <= 0 {
		maxResults = 5
	}
	return &Scorer{
		trust:      trust,
		maxResults: maxResults,
		threshold:  threshold,
	}
}

// Score assesses claim against results. It is a pure function of its inputs.
func (s *Scorer) Score(claim string, results []model.SearchResult) model.Assessment {
	evidence := s.evidence(results)

	snippets := make([]string, len(evidence))
	for i, e := range evidence {
		snippets[i] = e.Snippet
	}

	excerptCount := 0
	for _, r := range results {
		excerptCount += len(r.Excerpts)
	}

	breakdown := model.ScoreBreakdown{
		TokenOverlap:   TokenOverlap(claim, strings.Join(snippets, " ")),
		DomainTrust:    s.domainTrust(results),
		ExcerptDensity: math.Tanh(float64(excerptCount) / 5),
		ExcerptCount:   excerptCount,
		Formula:        Formula,
	}

	confidence := clamp01(overlapWeight*breakdown.TokenOverlap +
		trustWeight*breakdown.DomainTrust +
		densityWeight*breakdown.ExcerptDensity)

	status := model.StatusInsufficient
	if len(evidence) > 0 && confidence >= s.threshold {
		status = model.StatusSupported
	}

	return model.Assessment{
		Evidence:   evidence,
		Confidence: confidence,
		Status:     status,
		Breakdown:  breakdown,
	}
}

// evidence maps the first maxResults results to evidence items
func (s *Scorer) evidence(results []model.SearchResult) []model.EvidenceItem {
	n := min(len(results), s.maxResults)
	evidence := make([]model.EvidenceItem, 0, n)

	for _, r := range results[:n] {
		var excerpts []string
		for _, e := range r.Excerpts {
			if strings.TrimSpace(e) != "" {
				excerpts = append(excerpts, e)
			}
		}
		evidence = append(evidence, model.EvidenceItem{
			URL:     r.URL,
			Title:   r.Title,
			Snippet: strings.Join(excerpts, snippetSeparator),
		})
	}
	return evidence
}

// domainTrust averages the trust weight over every result
func (s *Scorer) domainTrust(results []model.SearchResult) float64 {
	if len(results) == 0 {
		return 0
	}
	var sum float64
	for _, r := range results {
		sum += s.trust.WeightURL(r.URL)
	}
	return clamp01(sum / float64(len(results)))
}

// ClaimTokens returns the unique lowercase alphanumeric runs of at least 4
// characters, in first-seen order.
func ClaimTokens(claim string) []string {
	seen := make(map[string]bool)
	var tokens []string
	for _, tok := range tokenRe.FindAllString(strings.ToLower(claim), -1) {
		if len(tok) < 4 || seen[tok] {
			continue
		}
		seen[tok] = true
		tokens = append(tokens, tok)
	}
	return tokens
}

// TokenOverlap is the fraction of claim tokens found as substrings of text
func TokenOverlap(claim, text string) float64 {
	tokens := ClaimTokens(claim)
	if len(tokens) == 0 {
		return 0
	}

	lower := strings.ToLower(text)
	found := 0
	for _, tok := range tokens {
		if strings.Contains(lower, tok) {
			found++
		}
	}
	return float64(found) / float64(len(tokens))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
