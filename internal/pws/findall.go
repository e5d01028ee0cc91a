package pws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ckwokli/pws/internal/poller"
	"github.com/ckwokli/pws/internal/retry"
)

const maxFindAllQueryRunes = 2000

// FindAllRun is the state of a findall run
type FindAllRun struct {
	FindAllID            string            `json:"findall_id,omitempty"`
	Status               string            `json:"status,omitempty"`
	IsActive             bool              `json:"is_active"`
	AreEnrichmentsActive bool              `json:"are_enrichments_active"`
	Results              []json.RawMessage `json:"results,omitempty"`
}

// Done reports that neither the run nor its enrichments are active
func (r FindAllRun) Done() bool {
	return !r.IsActive && !r.AreEnrichmentsActive
}

type findAllRunRequest struct {
	FindAllSpec json.RawMessage `json:"findall_spec"`
	Processor   string          `json:"processor"`
	ResultLimit int             `json:"result_limit"`
}

// IngestFindAll turns a natural-language query into a findall spec
func (c *Client) IngestFindAll(ctx context.Context, query string) (json.RawMessage, error) {
	var spec json.RawMessage
	body := map[string]string{"query": truncateRunes(query, maxFindAllQueryRunes)}
	if err := c.doJSON(ctx, http.MethodPost, "/v1beta/findall/ingest", body, &spec, c.jobLimits()); err != nil {
		return nil, err
	}
	return spec, nil
}

// StartFindAllRun starts a run for a previously ingested spec
func (c *Client) StartFindAllRun(ctx context.Context, spec json.RawMessage, processor string, resultLimit int) (FindAllRun, error) {
	var run FindAllRun
	req := findAllRunRequest{FindAllSpec: spec, Processor: processor, ResultLimit: resultLimit}
	err := c.doJSON(ctx, http.MethodPost, "/v1beta/findall/runs", req, &run, c.jobLimits())
	return run, err
}

// GetFindAllRun fetches the current state of a run
func (c *Client) GetFindAllRun(ctx context.Context, id string) (FindAllRun, error) {
	var run FindAllRun
	err := c.doJSON(ctx, http.MethodGet, "/v1beta/findall/runs/"+pathID(id), nil, &run, c.jobLimits())
	if err == nil && run.FindAllID == "" {
		run.FindAllID = id
	}
	return run, err
}

// RunFindAll ingests query, starts a run and polls it to completion or timeout
func (c *Client) RunFindAll(ctx context.Context, query string) (poller.Outcome[FindAllRun], error) {
	spec, err := retry.Execute(ctx, c.jobPolicy(), func(ctx context.Context) (json.RawMessage, error) {
		return c.IngestFindAll(ctx, query)
	})
	if err != nil {
		return poller.Outcome[FindAllRun]{State: poller.StateFailed}, fmt.Errorf("findall ingest: %w", err)
	}

	return poller.Run(ctx, poller.Config{
		Interval: c.cfg.Jobs.FindAllPollInterval,
		MaxWait:  c.cfg.Jobs.MaxWait,
		Retry:    c.jobPolicy(),
	}, poller.Job[FindAllRun]{
		Name: "findall run",
		Submit: func(ctx context.Context) (FindAllRun, error) {
			return c.StartFindAllRun(ctx, spec, c.cfg.Jobs.Processor, c.cfg.Jobs.FindAllResultLimit)
		},
		Poll:       c.GetFindAllRun,
		ExtractID:  func(r FindAllRun) string { return r.FindAllID },
		IsTerminal: FindAllRun.Done,
	})
}
