package extract

import (
	"github.com/ckwokli/pws/internal/model"
)

const (
	// MinClaims is the yield at which later strategies are skipped
	MinClaims = 3
	// MaxClaims caps the segmenter output
	MaxClaims = 200
)

// Strategy produces candidate claims from raw text
type Strategy interface {
	Name() string
	Segment(text string) []string
}

// Fallback is implemented by strategies whose output replaces, rather than
// extends, what earlier strategies produced
type Fallback interface {
	ReplacesPrior() bool
}

// Segmenter splits text into claims by trying strategies in order until the
// accumulated yield reaches MinClaims. It is pure and deterministic.
type Segmenter struct {
	strategies []Strategy
	minClaims  int
	maxClaims  int
}

// NewSegmenter creates a segmenter with the sentence, label and paragraph strategies
func NewSegmenter() *Segmenter {
	return NewSegmenterWith(SentenceStrategy{}, LabelStrategy{}, ParagraphStrategy{})
}

// NewSegmenterWith creates a segmenter over custom strategies
func NewSegmenterWith(strategies ...Strategy) *Segmenter {
	return &Segmenter{
		strategies: strategies,
		minClaims:  MinClaims,
		maxClaims:  MaxClaims,
	}
}

// Segment returns at most MaxClaims claims in strategy order. When a
// fallback strategy runs, its output is the whole result.
func (s *Segmenter) Segment(text string) []model.Claim {
	var claims []model.Claim

	for i, strategy := range s.strategies {
		if i > 0 && len(claims) >= s.minClaims {
			break
		}

		if f, ok := strategy.(Fallback); ok && f.ReplacesPrior() {
			claims = nil
		}

		for _, fragment := range strategy.Segment(text) {
			claims = append(claims, model.Claim{
				Text:      fragment,
				Heuristic: strategy.Name(),
				Index:     len(claims),
			})
		}
	}

	if len(claims) > s.maxClaims {
		claims = claims[:s.maxClaims]
	}
	return claims
}
