package model

// Claim represents a verifiable factual statement segmented from the source text
type Claim struct {
	Text      string `json:"text"`                // The claim text itself
	Heuristic string `json:"heuristic,omitempty"` // Which segmentation tier produced it (sentence, label, paragraph)
	Index     int    `json:"index"`               // Position in the segmenter output (0-based)
}

// Segmentation tiers, in the order they are tried
const (
	HeuristicSentence  = "sentence"
	HeuristicLabel     = "label"
	HeuristicParagraph = "paragraph"
)

// ClaimTexts returns the plain text of each claim, preserving order
func ClaimTexts(claims []Claim) []string {
	texts := make([]string, len(claims))
	for i, c := range claims {
		texts[i] = c.Text
	}
	return texts
}
