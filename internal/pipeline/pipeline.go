// Package pipeline turns user input into a verification response: it
// gathers text, then dispatches to claim verification or one of the
// remote job flows.
package pipeline

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/ckwokli/pws/internal/errs"
	"github.com/ckwokli/pws/internal/extract"
	"github.com/ckwokli/pws/internal/httpclient"
	"github.com/ckwokli/pws/internal/ingest"
	"github.com/ckwokli/pws/internal/llm"
	"github.com/ckwokli/pws/internal/model"
	"github.com/ckwokli/pws/internal/poller"
	"github.com/ckwokli/pws/internal/pws"
	"github.com/ckwokli/pws/internal/query"
	"github.com/ckwokli/pws/internal/score"
	"github.com/ckwokli/pws/internal/util"
	"github.com/ckwokli/pws/internal/validate"
	"github.com/ckwokli/pws/internal/worker"
)

// Input is one verification request as received from the boundary layer
type Input struct {
	Text         string
	Files        []ingest.File
	Link         string
	Mode         string
	OutputSchema string
}

// Pipeline orchestrates the complete verification process
type Pipeline struct {
	client       *pws.Client
	segmenter    *extract.Segmenter
	decoder      *ingest.Registry
	scraper      *Scraper
	orchestrator *Orchestrator
	config       *model.Config
}

// NewPipeline creates a pipeline with the given configuration
func NewPipeline(cfg *model.Config) *Pipeline {
	return NewPipelineWithClient(cfg, httpclient.New(cfg.HTTP))
}

// NewPipelineWithClient creates a pipeline whose outbound calls (remote
// service, scraping, robots.txt) all go through hc
func NewPipelineWithClient(cfg *model.Config, hc *httpclient.Client) *Pipeline {
	client := pws.New(cfg, hc)

	var provider llm.Provider
	if cfg.LLM.Provider != "" {
		p, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
		if err != nil {
			log.Printf("pipeline: llm provider disabled: provider=%s err=%v", cfg.LLM.Provider, err)
		} else {
			provider = p
		}
	}

	scorer := score.NewScorer(
		validate.NewTrustClassifier(cfg.Trust.DomainWeights),
		cfg.Search.MaxResults,
		cfg.Search.Threshold,
	)

	robots := util.NewRobotsCheckerWithClient(cfg.Scrape.UserAgent, hc.HTTPClient())

	return &Pipeline{
		client:    client,
		segmenter: extract.NewSegmenter(),
		decoder:   ingest.NewRegistry(),
		scraper:   NewScraper(cfg.Scrape, cfg.Limits.MaxLinkLength, hc, robots),
		orchestrator: NewOrchestrator(
			cfg,
			query.NewGenerator(client, provider, cfg.Query),
			client,
			scorer,
			worker.NewLimiter(cfg.Verify.RequestsPerSecond, cfg.Verify.Burst),
		),
		config: cfg,
	}
}

// Verify validates input, gathers its text and runs the selected mode.
// Input problems and exhausted remote retries are returned as errors;
// everything else is reported inside the response.
func (p *Pipeline) Verify(ctx context.Context, in Input) (*model.Response, error) {
	mode, err := model.ParseMode(in.Mode)
	if err != nil {
		return nil, errs.Wrap(errs.KindInvalidInput, err, "invalid mode: %s", strings.TrimSpace(in.Mode))
	}

	link, err := validate.Link(in.Link, p.config.Limits.MaxLinkLength)
	if err != nil {
		return nil, err
	}

	var schema *validate.OutputSchema
	if mode == model.ModeTask {
		if schema, err = validate.CompileOutputSchema(in.OutputSchema); err != nil {
			return nil, err
		}
	}

	if err := ingest.CheckUploads(in.Files, p.config.Limits); err != nil {
		return nil, err
	}

	text := p.gatherText(ctx, in, link)
	if text == "" {
		return nil, errs.New(errs.KindInvalidInput, "no content to verify")
	}

	resp := &model.Response{
		Mode:      mode,
		RequestID: uuid.NewString(),
		Source:    model.Source{Text: text},
	}

	switch mode {
	case model.ModeDeepResearch:
		err = p.deepResearch(ctx, text, resp)
	case model.ModeTask:
		err = p.task(ctx, text, schema, resp)
	case model.ModeFindAll:
		err = p.findAll(ctx, text, resp)
	default:
		resp.Items = p.VerifyText(ctx, text)
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// gatherText joins direct text, decoded files and scraped link text with
// blank lines
func (p *Pipeline) gatherText(ctx context.Context, in Input, link string) string {
	var parts []string
	if text := strings.TrimSpace(in.Text); text != "" {
		parts = append(parts, text)
	}
	if text := strings.TrimSpace(p.decoder.Text(in.Files)); text != "" {
		parts = append(parts, text)
	}
	if link != "" {
		if text := strings.TrimSpace(p.scraper.Fetch(ctx, link)); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n")
}

// VerifyText segments text into claims, keeps the first verify.max_claims
// and verifies them
func (p *Pipeline) VerifyText(ctx context.Context, text string) []model.VerificationResult {
	claims := model.ClaimTexts(p.segmenter.Segment(text))
	if limit := p.config.Verify.MaxClaims; limit > 0 && len(claims) > limit {
		claims = claims[:limit]
	}
	return p.orchestrator.VerifyAll(ctx, claims)
}

func (p *Pipeline) deepResearch(ctx context.Context, text string, resp *model.Response) error {
	outcome, err := p.client.RunDeepResearch(ctx, text)
	if err != nil {
		return err
	}

	applyTaskOutcome(outcome, resp)
	if outcome.State == poller.StateCompleted {
		resp.DeepResearch = outcome.Result.Content()
		resp.Basis = outcome.Result.Basis()
	} else {
		resp.Basis = json.RawMessage("[]")
	}
	return nil
}

func (p *Pipeline) task(ctx context.Context, text string, schema *validate.OutputSchema, resp *model.Response) error {
	req := pws.NewTaskRunRequest(text, p.config.Jobs.Processor, schema.Raw())
	outcome, err := p.client.RunTask(ctx, req, 0)
	if err != nil {
		return err
	}

	applyTaskOutcome(outcome, resp)
	if outcome.State == poller.StateCompleted {
		resp.Output = outcome.Result.Payload()
	}
	return nil
}

func (p *Pipeline) findAll(ctx context.Context, text string, resp *model.Response) error {
	outcome, err := p.client.RunFindAll(ctx, text)
	if err != nil {
		return err
	}

	resp.FindAllID = outcome.ID
	resp.Results = []json.RawMessage{}
	if outcome.State == poller.StateTimedOut {
		resp.Status = "timeout"
		return nil
	}

	resp.Status = outcome.Result.Status
	if resp.Status == "" {
		resp.Status = string(poller.StateCompleted)
	}
	if outcome.Result.Results != nil {
		resp.Results = outcome.Result.Results
	}
	return nil
}

// applyTaskOutcome copies run id and status; a poll deadline reads as
// status "timeout"
func applyTaskOutcome(outcome poller.Outcome[pws.TaskRun], resp *model.Response) {
	resp.RunID = outcome.ID
	if outcome.State == poller.StateTimedOut {
		resp.Status = "timeout"
		return
	}
	resp.Status = outcome.Result.State()
	if resp.Status == "" {
		resp.Status = string(poller.StateCompleted)
	}
}
