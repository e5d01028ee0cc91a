package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ckwokli/pws/internal/model"
	"github.com/ckwokli/pws/internal/pws"
	"github.com/ckwokli/pws/internal/score"
)

type echoQueries struct{}

func (echoQueries) Generate(_ context.Context, claim string) []string {
	return []string{claim}
}

type fakeSearcher struct {
	mu      sync.Mutex
	calls   map[string]int
	failFor string
	delay   func(objective string) time.Duration
}

func (f *fakeSearcher) Search(ctx context.Context, req pws.SearchRequest) (*pws.SearchResponse, error) {
	f.mu.Lock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[req.Objective]++
	f.mu.Unlock()

	if f.delay != nil {
		time.Sleep(f.delay(req.Objective))
	}
	if req.Objective == f.failFor {
		return nil, errors.New("search backend unavailable")
	}
	return &pws.SearchResponse{Results: []model.SearchResult{{
		URL:      "https://data.example.gov/" + strings.ReplaceAll(req.Objective, " ", "-"),
		Excerpts: []string{req.Objective},
	}}}, nil
}

func (f *fakeSearcher) count(objective string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[objective]
}

func newTestOrchestrator(search Searcher, tweak func(*model.Config)) *Orchestrator {
	cfg := model.DefaultConfig()
	cfg.Verify.ClaimDelay = 0
	if tweak != nil {
		tweak(cfg)
	}
	return NewOrchestrator(cfg, echoQueries{}, search, score.NewScorer(nil, 5, 0.3), nil)
}

var sampleClaims = []string{
	"Mount Everest is the highest mountain above sea level.",
	"The Amazon River carries more water than any other river.",
	"Photosynthesis converts light energy into chemical energy.",
	"The Pacific Ocean is the largest ocean on Earth.",
}

func TestVerifyAll_OneResultPerClaimInOrder(t *testing.T) {
	search := &fakeSearcher{failFor: sampleClaims[1]}
	results := newTestOrchestrator(search, nil).VerifyAll(context.Background(), sampleClaims)

	if len(results) != len(sampleClaims) {
		t.Fatalf("expected %d results, got %d", len(sampleClaims), len(results))
	}
	for i, r := range results {
		if r.Claim != sampleClaims[i] {
			t.Errorf("results[%d].Claim = %q, want %q", i, r.Claim, sampleClaims[i])
		}
	}

	failed := results[1]
	if failed.Status != model.StatusInsufficient || failed.Confidence != 0 {
		t.Errorf("failed claim = %+v, want insufficient with confidence 0", failed)
	}
	if len(failed.Evidence) != 0 || !strings.Contains(failed.Error, "search backend unavailable") {
		t.Errorf("failed claim evidence/error = %v / %q", failed.Evidence, failed.Error)
	}
	if len(failed.Queries) != 1 {
		t.Errorf("failed claim should keep its queries, got %v", failed.Queries)
	}

	for _, i := range []int{0, 2, 3} {
		if results[i].Status != model.StatusSupported {
			t.Errorf("results[%d].Status = %q, want supported", i, results[i].Status)
		}
	}
}

func TestVerifyAll_ConcurrentKeepsOrder(t *testing.T) {
	search := &fakeSearcher{delay: func(objective string) time.Duration {
		// earlier claims finish last
		for i, c := range sampleClaims {
			if c == objective {
				return time.Duration(len(sampleClaims)-i) * 5 * time.Millisecond
			}
		}
		return 0
	}}
	o := newTestOrchestrator(search, func(cfg *model.Config) {
		cfg.Verify.Concurrency = 4
	})

	results := o.VerifyAll(context.Background(), sampleClaims)

	if len(results) != len(sampleClaims) {
		t.Fatalf("expected %d results, got %d", len(sampleClaims), len(results))
	}
	for i, r := range results {
		if r.Claim != sampleClaims[i] {
			t.Errorf("results[%d].Claim = %q, want %q", i, r.Claim, sampleClaims[i])
		}
	}
}

func TestVerifyAll_ConcurrentFullClaimLoad(t *testing.T) {
	claims := make([]string, 50)
	for i := range claims {
		claims[i] = fmt.Sprintf("Survey station %d recorded the lowest rainfall of the decade.", i)
	}
	o := newTestOrchestrator(&fakeSearcher{}, func(cfg *model.Config) {
		cfg.Verify.Concurrency = 2
	})

	done := make(chan []model.VerificationResult, 1)
	go func() { done <- o.VerifyAll(context.Background(), claims) }()

	select {
	case results := <-done:
		if len(results) != len(claims) {
			t.Fatalf("expected %d results, got %d", len(claims), len(results))
		}
		for i, r := range results {
			if r.Claim != claims[i] {
				t.Errorf("results[%d].Claim = %q, want %q", i, r.Claim, claims[i])
			}
		}
	case <-time.After(5 * time.Second):
		t.Fatal("VerifyAll with concurrency 2 and 50 claims did not finish")
	}
}

func TestVerifyAll_DuplicateClaimsSearchedOnce(t *testing.T) {
	search := &fakeSearcher{}
	claims := []string{sampleClaims[0], sampleClaims[2], sampleClaims[0]}

	results := newTestOrchestrator(search, nil).VerifyAll(context.Background(), claims)

	if search.count(sampleClaims[0]) != 1 {
		t.Errorf("duplicate claim searched %d times, want 1", search.count(sampleClaims[0]))
	}
	if results[0].Confidence != results[2].Confidence || results[2].Claim != sampleClaims[0] {
		t.Errorf("duplicate results differ: %+v vs %+v", results[0], results[2])
	}
}

func TestVerifyAll_CacheDisabled(t *testing.T) {
	search := &fakeSearcher{}
	o := newTestOrchestrator(search, func(cfg *model.Config) {
		cfg.Cache.Enabled = false
	})

	o.VerifyAll(context.Background(), []string{sampleClaims[0], sampleClaims[0]})

	if search.count(sampleClaims[0]) != 2 {
		t.Errorf("searched %d times with cache disabled, want 2", search.count(sampleClaims[0]))
	}
}

func TestVerifyAll_CacheIsRunScoped(t *testing.T) {
	search := &fakeSearcher{}
	o := newTestOrchestrator(search, nil)

	o.VerifyAll(context.Background(), sampleClaims[:1])
	o.VerifyAll(context.Background(), sampleClaims[:1])

	if search.count(sampleClaims[0]) != 2 {
		t.Errorf("searched %d times across two runs, want 2", search.count(sampleClaims[0]))
	}
}

func TestVerifyAll_Empty(t *testing.T) {
	results := newTestOrchestrator(&fakeSearcher{}, nil).VerifyAll(context.Background(), nil)
	if results == nil || len(results) != 0 {
		t.Errorf("VerifyAll(nil) = %#v, want empty slice", results)
	}
}

func TestVerifyAll_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	search := &fakeSearcher{}
	o := newTestOrchestrator(search, func(cfg *model.Config) {
		cfg.Verify.ClaimDelay = time.Second
	})

	results := o.VerifyAll(ctx, sampleClaims)

	if len(results) != len(sampleClaims) {
		t.Fatalf("expected %d results, got %d", len(sampleClaims), len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i].Status != model.StatusInsufficient || results[i].Error == "" {
			t.Errorf("results[%d] = %+v, want insufficient with error", i, results[i])
		}
	}
}
