package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ckwokli/pws/internal/model"
)

// Renderer writes responses as JSON, Markdown or a terminal summary
type Renderer struct{}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// WriteJSON writes resp as indented JSON
func (r *Renderer) WriteJSON(w io.Writer, resp *model.Response) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(resp)
}

// RenderJSON writes resp to path
func (r *Renderer) RenderJSON(resp *model.Response, path string) error {
	return writeFile(path, func(w io.Writer) error {
		return r.WriteJSON(w, resp)
	})
}

// RenderMarkdown writes a Markdown report of resp to path
func (r *Renderer) RenderMarkdown(resp *model.Response, path string) error {
	return writeFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, r.Markdown(resp))
		return err
	})
}

// Markdown renders resp as a Markdown document
func (r *Renderer) Markdown(resp *model.Response) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Verification report (%s)\n\n", resp.Mode)
	if resp.RequestID != "" {
		fmt.Fprintf(&b, "Request: `%s`\n\n", resp.RequestID)
	}

	switch resp.Mode {
	case model.ModeSearch:
		s := model.Summarize(resp.Items)
		fmt.Fprintf(&b, "**%d claims**: %d supported, %d insufficient (mean confidence %.2f)\n\n",
			s.Total, s.Supported, s.Insufficient, s.MeanScore)

		for i, item := range resp.Items {
			fmt.Fprintf(&b, "## %d. %s\n\n", i+1, item.Claim)
			fmt.Fprintf(&b, "- Status: **%s**\n", item.Status)
			fmt.Fprintf(&b, "- Confidence: %.2f\n", item.Confidence)
			if item.Breakdown != nil {
				fmt.Fprintf(&b, "- Breakdown: overlap %.2f, trust %.2f, density %.2f (%d excerpts)\n",
					item.Breakdown.TokenOverlap, item.Breakdown.DomainTrust,
					item.Breakdown.ExcerptDensity, item.Breakdown.ExcerptCount)
			}
			if len(item.Queries) > 0 {
				fmt.Fprintf(&b, "- Queries: %s\n", strings.Join(item.Queries, "; "))
			}
			if item.Error != "" {
				fmt.Fprintf(&b, "- Error: %s\n", item.Error)
			}
			if len(item.Evidence) > 0 {
				b.WriteString("\nEvidence:\n\n")
				for _, e := range item.Evidence {
					title := e.Title
					if title == "" {
						title = e.URL
					}
					fmt.Fprintf(&b, "- [%s](%s): %s\n", title, e.URL, e.Snippet)
				}
			}
			b.WriteString("\n")
		}

	default:
		if resp.Status != "" {
			fmt.Fprintf(&b, "Status: **%s**\n\n", resp.Status)
		}
		if resp.RunID != "" {
			fmt.Fprintf(&b, "Run: `%s`\n\n", resp.RunID)
		}
		if resp.FindAllID != "" {
			fmt.Fprintf(&b, "FindAll: `%s`\n\n", resp.FindAllID)
		}
		for _, block := range []struct {
			title string
			raw   json.RawMessage
		}{
			{"Deep research", resp.DeepResearch},
			{"Basis", resp.Basis},
			{"Output", resp.Output},
		} {
			if len(block.raw) == 0 {
				continue
			}
			fmt.Fprintf(&b, "## %s\n\n```json\n%s\n```\n\n", block.title, indentJSON(block.raw))
		}
		if resp.Mode == model.ModeFindAll {
			fmt.Fprintf(&b, "## Results (%d)\n\n", len(resp.Results))
			for _, res := range resp.Results {
				fmt.Fprintf(&b, "```json\n%s\n```\n\n", indentJSON(res))
			}
		}
	}

	return b.String()
}

// RenderSummary prints a short summary of resp
func (r *Renderer) RenderSummary(w io.Writer, resp *model.Response) {
	if resp.Mode != model.ModeSearch {
		fmt.Fprintf(w, "%s: status=%s run_id=%s findall_id=%s\n", resp.Mode, resp.Status, resp.RunID, resp.FindAllID)
		return
	}

	s := model.Summarize(resp.Items)
	fmt.Fprintf(w, "Claims: %d  Supported: %d  Insufficient: %d  Errors: %d  Mean confidence: %.2f\n",
		s.Total, s.Supported, s.Insufficient, s.Errors, s.MeanScore)
	for _, item := range resp.Items {
		marker := "✗"
		if item.Status == model.StatusSupported {
			marker = "✓"
		}
		fmt.Fprintf(w, "  %s %.2f  %s\n", marker, item.Confidence, truncateClaim(item.Claim, 100))
	}
}

func truncateClaim(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}

func indentJSON(raw json.RawMessage) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return string(raw)
	}
	return string(out)
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
