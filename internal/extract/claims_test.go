package extract

import (
	"strings"
	"testing"

	"github.com/ckwokli/pws/internal/model"
)

func TestSegmenter_SentenceTier(t *testing.T) {
	text := "The Eiffel Tower was completed in 1889. It is located in Paris, France."

	claims := NewSegmenter().Segment(text)

	if len(claims) != 2 {
		t.Fatalf("Expected 2 claims, got %d: %+v", len(claims), claims)
	}
	if claims[0].Text != "The Eiffel Tower was completed in 1889." {
		t.Errorf("claims[0] = %q", claims[0].Text)
	}
	if claims[1].Text != "It is located in Paris, France." {
		t.Errorf("claims[1] = %q", claims[1].Text)
	}
	for i, c := range claims {
		if c.Heuristic != model.HeuristicSentence {
			t.Errorf("claims[%d].Heuristic = %q, want sentence", i, c.Heuristic)
		}
		if c.Index != i {
			t.Errorf("claims[%d].Index = %d", i, c.Index)
		}
	}
}

func TestSegmenter_SufficientSentencesSkipLaterTiers(t *testing.T) {
	text := strings.Join([]string{
		"Mount Everest is the highest mountain above sea level on Earth.",
		"The Amazon River discharges more water than any other river in the world.",
		"Photosynthesis converts light energy into chemical energy in plants.",
		"",
		"Phone: call the front desk for appointments",
		"• Accepting new patients at the downtown location",
	}, "\n")

	claims := NewSegmenter().Segment(text)

	if len(claims) != 3 {
		t.Fatalf("Expected 3 sentence claims, got %d: %+v", len(claims), claims)
	}
	for _, c := range claims {
		if c.Heuristic != model.HeuristicSentence {
			t.Errorf("unexpected %s claim %q", c.Heuristic, c.Text)
		}
		if strings.Contains(c.Text, "Phone:") || strings.Contains(c.Text, "Accepting") {
			t.Errorf("label fragment leaked into output: %q", c.Text)
		}
	}
}

func TestSegmenter_LabelTier(t *testing.T) {
	text := "Clinic directory\n" +
		"Address: 12 Harbour Road, Springfield\n" +
		"Phone: 555 0100 · Hours: Monday to Friday 9 to 5\n" +
		"• Accepting new patients at the downtown location\n" +
		"short line"

	claims := NewSegmenter().Segment(text)

	want := []string{
		"Address: 12 Harbour Road, Springfield",
		"Hours: Monday to Friday 9 to 5",
		"Accepting new patients at the downtown location",
	}

	var got []string
	for _, c := range claims {
		if c.Heuristic == model.HeuristicLabel {
			got = append(got, c.Text)
		}
	}

	if len(got) != len(want) {
		t.Fatalf("label claims = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("label[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSegmenter_ParagraphTier(t *testing.T) {
	short := "a table heading without any punctuation at all here"
	long := "another block of words that keeps going without sentence punctuation because it came from a scanned table"
	text := short + "\n\n" + long + "\n\nx y z"

	claims := NewSegmenter().Segment(text)

	if len(claims) != 2 {
		t.Fatalf("Expected 2 paragraph claims, got %d: %+v", len(claims), claims)
	}
	if claims[0].Text != long || claims[1].Text != short {
		t.Errorf("paragraphs not sorted by length: %+v", claims)
	}
	for _, c := range claims {
		if c.Heuristic != model.HeuristicParagraph {
			t.Errorf("Heuristic = %q, want paragraph", c.Heuristic)
		}
	}
}

func TestSegmenter_ParagraphTierReplacesEarlierTiers(t *testing.T) {
	first := "The Eiffel Tower was completed in 1889 in Paris."
	second := "it was built as the entrance arch for the world fair and drew large crowds"
	third := "engineers from the firm of gustave eiffel designed and built the iron lattice"
	text := first + "\n\n" + second + "\n\n" + third

	claims := NewSegmenter().Segment(text)

	if len(claims) != 3 {
		t.Fatalf("Expected 3 paragraph claims, got %d: %+v", len(claims), claims)
	}
	want := []string{third, second, first}
	for i, c := range claims {
		if c.Heuristic != model.HeuristicParagraph {
			t.Errorf("claims[%d].Heuristic = %q, want paragraph", i, c.Heuristic)
		}
		if c.Text != want[i] {
			t.Errorf("claims[%d].Text = %q, want %q", i, c.Text, want[i])
		}
		if c.Index != i {
			t.Errorf("claims[%d].Index = %d", i, c.Index)
		}
	}
}

func TestSegmenter_CapAndFloor(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 300; i++ {
		b.WriteString("Sentence number ")
		b.WriteString(strings.Repeat("x", i%5))
		b.WriteString(" describes a measurable fact about 2024. ")
	}

	claims := NewSegmenter().Segment(b.String())

	if len(claims) > MaxClaims {
		t.Errorf("got %d claims, cap is %d", len(claims), MaxClaims)
	}
	for _, c := range claims {
		if runeLen(c.Text) < 20 {
			t.Errorf("claim shorter than 20 runes: %q", c.Text)
		}
	}
}

func TestSegmenter_Empty(t *testing.T) {
	if claims := NewSegmenter().Segment("   \n\n  "); len(claims) != 0 {
		t.Errorf("Expected no claims, got %+v", claims)
	}
}

func TestSentenceStrategy_Filters(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"prose", "Water boils at one hundred degrees Celsius at sea level.", 1},
		{"too short", "Paris is nice.", 0},
		{"code", "const answer = computeEverything(); return answer to caller.", 0},
		{"no long word", "It is so. It was so and it is as it was 12 times.", 0},
		{"symbols", "Prices ### are @@@ up ### by a lot ### @@@ in general ###.", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SentenceStrategy{}.Segment(tt.text)
			if len(got) != tt.want {
				t.Errorf("Segment() = %q, want %d claims", got, tt.want)
			}
		})
	}
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"One here. Two there.", []string{"One here.", "Two there."}},
		{"Version 2.5 shipped. 3 bugs remain.", []string{"Version 2.5 shipped.", "3 bugs remain."}},
		{"Dr. who? \"Quoted\" next.", []string{"Dr. who?", "\"Quoted\" next."}},
		{"e.g. lower case stays together.", []string{"e.g. lower case stays together."}},
	}

	for _, tt := range tests {
		got := SplitSentences(tt.text)
		if strings.Join(got, "|") != strings.Join(tt.want, "|") {
			t.Errorf("SplitSentences(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestSymbolRatio(t *testing.T) {
	if r := SymbolRatio("plain words, with (ordinary) punctuation: 50%."); r != 0 {
		t.Errorf("SymbolRatio(prose) = %v, want 0", r)
	}
	if r := SymbolRatio("@@@@"); r != 1 {
		t.Errorf("SymbolRatio(@@@@) = %v, want 1", r)
	}
	if r := SymbolRatio("Zürich liegt am Zürichsee."); r != 0 {
		t.Errorf("SymbolRatio(accented) = %v, want 0", r)
	}
}
