package pws

import (
	"context"
	"net/http"

	"github.com/ckwokli/pws/internal/httpclient"
	"github.com/ckwokli/pws/internal/model"
	"github.com/ckwokli/pws/internal/retry"
)

const (
	maxObjectiveRunes   = 500
	maxSearchQueries    = 5
	maxDefaultQueryRune = 200
)

// SearchRequest is the body of POST /v1beta/search
type SearchRequest struct {
	Objective         string   `json:"objective"`
	SearchQueries     []string `json:"search_queries"`
	Processor         string   `json:"processor"`
	MaxResults        int      `json:"max_results"`
	MaxCharsPerResult int      `json:"max_chars_per_result"`
}

// SearchResponse is the decoded search answer
type SearchResponse struct {
	SearchID string               `json:"search_id,omitempty"`
	Results  []model.SearchResult `json:"results"`
}

// NewSearchRequest builds a request for objective using the search settings.
// The objective is cut to 500 runes; at most 5 queries are sent, and an empty
// query list defaults to the first 200 runes of the objective.
func NewSearchRequest(cfg model.SearchConfig, objective string, queries []string) SearchRequest {
	objective = truncateRunes(objective, maxObjectiveRunes)

	cleaned := make([]string, 0, maxSearchQueries)
	for _, q := range queries {
		if q == "" {
			continue
		}
		cleaned = append(cleaned, q)
		if len(cleaned) == maxSearchQueries {
			break
		}
	}
	if len(cleaned) == 0 {
		cleaned = []string{truncateRunes(objective, maxDefaultQueryRune)}
	}

	return SearchRequest{
		Objective:         objective,
		SearchQueries:     cleaned,
		Processor:         cfg.Processor,
		MaxResults:        cfg.MaxResults,
		MaxCharsPerResult: cfg.MaxCharsPerResult,
	}
}

// Search runs one evidence search with the search retry policy
func (c *Client) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	limits := httpclient.Limits{Timeout: c.cfg.Search.Timeout, MaxBytes: c.cfg.Search.MaxBytes}
	policy := retry.Policy{MaxRetries: c.cfg.Search.MaxRetries, BaseBackoff: c.cfg.Search.BaseBackoff}

	return retry.Execute(ctx, policy, func(ctx context.Context) (*SearchResponse, error) {
		var resp SearchResponse
		if err := c.doJSON(ctx, http.MethodPost, "/v1beta/search", req, &resp, limits); err != nil {
			return nil, err
		}
		if resp.Results == nil {
			resp.Results = []model.SearchResult{}
		}
		return &resp, nil
	})
}
