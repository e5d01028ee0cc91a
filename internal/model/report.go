package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Mode selects which flow handles a verification request
type Mode string

const (
	ModeSearch       Mode = "search"
	ModeDeepResearch Mode = "deep_research"
	ModeTask         Mode = "task"
	ModeFindAll      Mode = "findall"
)

// Modes lists every accepted mode
var Modes = []Mode{ModeSearch, ModeDeepResearch, ModeTask, ModeFindAll}

// ParseMode validates a mode string; an empty string selects search
func ParseMode(raw string) (Mode, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ModeSearch, nil
	}
	for _, m := range Modes {
		if string(m) == raw {
			return m, nil
		}
	}
	return "", fmt.Errorf("invalid mode: %s", raw)
}

// Source echoes the text that was analysed
type Source struct {
	Text string `json:"text"`
}

// Response is the payload returned to the boundary layer for every mode
type Response struct {
	Mode      Mode   `json:"mode"`
	RequestID string `json:"request_id,omitempty"`
	Source    Source `json:"source"`

	// search
	Items []VerificationResult `json:"items,omitempty"`

	// deep_research
	DeepResearch json.RawMessage `json:"deep_research,omitempty"`
	Basis        json.RawMessage `json:"basis,omitempty"`

	// task
	Output json.RawMessage `json:"output,omitempty"`

	// findall
	Results []json.RawMessage `json:"results,omitempty"`

	Status    string `json:"status,omitempty"`
	RunID     string `json:"run_id,omitempty"`
	FindAllID string `json:"findall_id,omitempty"`
}

// MarshalJSON always writes items for search responses, as [] when no
// claims were found
func (r Response) MarshalJSON() ([]byte, error) {
	type plain Response
	if r.Mode != ModeSearch {
		return json.Marshal(plain(r))
	}

	items := r.Items
	if items == nil {
		items = []VerificationResult{}
	}
	return json.Marshal(struct {
		plain
		Items []VerificationResult `json:"items"`
	}{plain(r), items})
}

// Summary counts verdicts in a search response
type Summary struct {
	Total        int     `json:"total"`
	Supported    int     `json:"supported"`
	Insufficient int     `json:"insufficient"`
	Errors       int     `json:"errors"`
	MeanScore    float64 `json:"mean_confidence"`
}

// Summarize aggregates the per-claim results
func Summarize(items []VerificationResult) Summary {
	s := Summary{Total: len(items)}
	if len(items) == 0 {
		return s
	}
	var sum float64
	for _, item := range items {
		switch item.Status {
		case StatusSupported:
			s.Supported++
		default:
			s.Insufficient++
		}
		if item.Error != "" {
			s.Errors++
		}
		sum += item.Confidence
	}
	s.MeanScore = sum / float64(len(items))
	return s
}
