package pipeline

import (
	"context"
	"log"
	"time"

	"github.com/ckwokli/pws/internal/cache"
	"github.com/ckwokli/pws/internal/model"
	"github.com/ckwokli/pws/internal/pws"
	"github.com/ckwokli/pws/internal/score"
	"github.com/ckwokli/pws/internal/worker"
)

const searchLimiterKey = "search"

// QueryGenerator produces search queries for a claim
type QueryGenerator interface {
	Generate(ctx context.Context, claim string) []string
}

// Searcher runs one evidence search
type Searcher interface {
	Search(ctx context.Context, req pws.SearchRequest) (*pws.SearchResponse, error)
}

// Orchestrator verifies claims one by one (or with bounded concurrency),
// isolating per-claim failures
type Orchestrator struct {
	queries QueryGenerator
	search  Searcher
	scorer  *score.Scorer
	limiter *worker.Limiter
	cfg     *model.Config
}

// NewOrchestrator creates an Orchestrator
func NewOrchestrator(cfg *model.Config, queries QueryGenerator, search Searcher, scorer *score.Scorer, limiter *worker.Limiter) *Orchestrator {
	if limiter == nil {
		limiter = worker.NewLimiter(cfg.Verify.RequestsPerSecond, cfg.Verify.Burst)
	}
	return &Orchestrator{
		queries: queries,
		search:  search,
		scorer:  scorer,
		limiter: limiter,
		cfg:     cfg,
	}
}

// VerifyAll returns exactly one result per claim, in input order. It never
// fails: errors become insufficient results carrying the message.
func (o *Orchestrator) VerifyAll(ctx context.Context, claims []string) []model.VerificationResult {
	if len(claims) == 0 {
		return []model.VerificationResult{}
	}

	run := o.runCache()

	if o.cfg.Verify.Concurrency > 1 && len(claims) > 1 {
		return o.verifyConcurrent(ctx, run, claims)
	}

	results := make([]model.VerificationResult, len(claims))
	for i, claim := range claims {
		if err := o.limiter.WaitWithDelay(ctx, searchLimiterKey, o.delayBefore(i)); err != nil {
			results[i] = model.Insufficient(claim, err)
			continue
		}
		results[i] = o.verifyOne(ctx, run, claim)
	}
	return results
}

// runCache memoizes identical claims and searches within one call only
func (o *Orchestrator) runCache() cache.Cache {
	if !o.cfg.Cache.Enabled {
		return cache.Noop{}
	}
	return cache.NewMemoryCache(o.cfg.Cache.TTL, 0)
}

// delayBefore spaces consecutive claims; the first claim starts at once
func (o *Orchestrator) delayBefore(index int) time.Duration {
	if index == 0 {
		return 0
	}
	return o.cfg.Verify.ClaimDelay
}

type claimJob struct {
	o     *Orchestrator
	run   cache.Cache
	index int
	claim string
}

type claimResult struct {
	result model.VerificationResult
}

func (r *claimResult) GetError() error {
	return nil
}

func (j *claimJob) Execute(ctx context.Context) worker.Result {
	if err := j.o.limiter.WaitWithDelay(ctx, searchLimiterKey, j.o.delayBefore(j.index)); err != nil {
		return &claimResult{result: model.Insufficient(j.claim, err)}
	}
	return &claimResult{result: j.o.verifyOne(ctx, j.run, j.claim)}
}

func (o *Orchestrator) verifyConcurrent(ctx context.Context, run cache.Cache, claims []string) []model.VerificationResult {
	pool := worker.NewPool(ctx, o.cfg.Verify.Concurrency)
	pool.Start()

	for i, claim := range claims {
		pool.Submit(&claimJob{o: o, run: run, index: i, claim: claim})
	}

	slots := pool.Wait()
	results := make([]model.VerificationResult, len(claims))
	for i, slot := range slots {
		if slot == nil {
			results[i] = model.Insufficient(claims[i], ctx.Err())
			continue
		}
		results[i] = slot.(*claimResult).result
	}
	return results
}

// verifyOne generates queries, searches and scores a single claim
func (o *Orchestrator) verifyOne(ctx context.Context, run cache.Cache, claim string) model.VerificationResult {
	claimKey, err := cache.RequestKey("claim", claim)
	if err != nil {
		return o.check(ctx, run, claim)
	}
	result, _ := cache.Remember(run, claimKey, o.cfg.Cache.TTL, func() (model.VerificationResult, error) {
		return o.check(ctx, run, claim), nil
	})
	return result
}

func (o *Orchestrator) check(ctx context.Context, run cache.Cache, claim string) model.VerificationResult {
	queries := o.queries.Generate(ctx, claim)
	req := pws.NewSearchRequest(o.cfg.Search, claim, queries)

	resp, err := o.searchCached(ctx, run, req)
	if err != nil {
		log.Printf("verify: search failed: claim_len=%d err=%v", len(claim), err)
		result := model.Insufficient(claim, err)
		result.Queries = queries
		return result
	}

	assessment := o.scorer.Score(claim, resp.Results)
	breakdown := assessment.Breakdown
	return model.VerificationResult{
		Claim:      claim,
		Status:     assessment.Status,
		Confidence: assessment.Confidence,
		Evidence:   assessment.Evidence,
		Queries:    queries,
		Breakdown:  &breakdown,
	}
}

func (o *Orchestrator) searchCached(ctx context.Context, run cache.Cache, req pws.SearchRequest) (*pws.SearchResponse, error) {
	key, err := cache.RequestKey("search", req)
	if err != nil {
		return o.search.Search(ctx, req)
	}
	return cache.Remember(run, key, o.cfg.Cache.TTL, func() (*pws.SearchResponse, error) {
		return o.search.Search(ctx, req)
	})
}
