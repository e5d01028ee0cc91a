package extract

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ckwokli/pws/internal/model"
)

var (
	codeRe       = regexp.MustCompile(`(?i)[{\[\];)(]|function\s|=>|\bvar\b|\bconst\b|\blet\b|window\.|document\.|__NEXT_DATA__`)
	whitespaceRe = regexp.MustCompile(`\s+`)
	letterRunRe  = regexp.MustCompile(`[a-zA-Z]{6,}`)
	terminalRe   = regexp.MustCompile(`[.!?\d]`)

	labelRe    = regexp.MustCompile(`(?i)^(address|website|phone|fax|email|hours|specialty|services|clinic|doctor|provider)\s*[:\-]`)
	bulletRe   = regexp.MustCompile(`^[-•*\x{25CF}]\s+`)
	midDotRe   = regexp.MustCompile(`\s*\x{00B7}\s*`)
	chunkSepRe = regexp.MustCompile(`\s•\s|;\s*`)
	urlRe      = regexp.MustCompile(`(?i)https?://`)

	paragraphSepRe = regexp.MustCompile(`\n[ \t\r]*\n`)
)

// LooksLikeCode reports brace, bracket, statement or script-keyword tokens
func LooksLikeCode(s string) bool {
	return codeRe.MatchString(s)
}

// SymbolRatio is the share of runes that are neither letters, digits,
// whitespace nor ordinary punctuation.
func SymbolRatio(s string) float64 {
	total := utf8.RuneCountInString(s)
	if total == 0 {
		return 0
	}

	symbols := 0
	for _, r := range s {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsSpace(r), r == '_':
		case strings.ContainsRune(".,:;-()'\"%$", r):
		default:
			symbols++
		}
	}
	return float64(symbols) / float64(total)
}

// CollapseWhitespace trims and folds whitespace runs to one space
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// SentenceStrategy splits prose at sentence boundaries
type SentenceStrategy struct{}

func (SentenceStrategy) Name() string { return model.HeuristicSentence }

func (SentenceStrategy) Segment(text string) []string {
	var claims []string
	for _, sentence := range SplitSentences(CollapseWhitespace(text)) {
		n := runeLen(sentence)
		switch {
		case n < 30 || n > 600:
		case LooksLikeCode(sentence):
		case SymbolRatio(sentence) >= 0.15:
		case !letterRunRe.MatchString(sentence):
		case !terminalRe.MatchString(sentence):
		default:
			claims = append(claims, sentence)
		}
	}
	return claims
}

// SplitSentences splits whitespace-normalized text after '.', '!' or '?'
// when the next word starts with an upper-case letter, a digit or a quote.
// The punctuation stays with the sentence it ends.
func SplitSentences(text string) []string {
	var sentences []string
	start := 0
	runes := []rune(text)

	for i := 0; i < len(runes); i++ {
		if runes[i] != '.' && runes[i] != '!' && runes[i] != '?' {
			continue
		}

		j := i + 1
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		if j == i+1 || j >= len(runes) {
			continue
		}

		next := runes[j]
		if (next >= 'A' && next <= 'Z') || (next >= '0' && next <= '9') || next == '"' || next == '\'' {
			if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
				sentences = append(sentences, s)
			}
			start = j
			i = j - 1
		}
	}

	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// LabelStrategy picks labeled fields, bullets and URLs out of list-like text
type LabelStrategy struct{}

func (LabelStrategy) Name() string { return model.HeuristicLabel }

func (LabelStrategy) Segment(text string) []string {
	var claims []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = midDotRe.ReplaceAllString(line, " • ")

		for _, chunk := range chunkSepRe.Split(line, -1) {
			chunk = strings.TrimSpace(chunk)
			n := runeLen(chunk)
			if n < 20 || n > 300 || LooksLikeCode(chunk) || SymbolRatio(chunk) >= 0.25 {
				continue
			}
			if !labelRe.MatchString(chunk) && !bulletRe.MatchString(chunk) && !urlRe.MatchString(chunk) {
				continue
			}

			chunk = strings.TrimSpace(bulletRe.ReplaceAllString(chunk, ""))
			if runeLen(chunk) < 20 {
				continue
			}
			claims = append(claims, chunk)
		}
	}
	return claims
}

// ParagraphStrategy treats the longest blank-line-separated paragraphs as
// atomic claims. It is the last resort: its paragraphs replace whatever the
// earlier tiers found.
type ParagraphStrategy struct{}

const maxParagraphClaims = 10

func (ParagraphStrategy) Name() string { return model.HeuristicParagraph }

func (ParagraphStrategy) ReplacesPrior() bool { return true }

func (ParagraphStrategy) Segment(text string) []string {
	var paragraphs []string
	for _, p := range paragraphSepRe.Split(text, -1) {
		p = CollapseWhitespace(p)
		if runeLen(p) < 40 || LooksLikeCode(p) || SymbolRatio(p) >= 0.15 {
			continue
		}
		paragraphs = append(paragraphs, p)
	}

	sort.SliceStable(paragraphs, func(i, j int) bool {
		return runeLen(paragraphs[i]) > runeLen(paragraphs[j])
	})

	if len(paragraphs) > maxParagraphClaims {
		paragraphs = paragraphs[:maxParagraphClaims]
	}
	return paragraphs
}
