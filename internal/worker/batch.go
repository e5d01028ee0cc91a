package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ckwokli/pws/internal/model"
)

// Verifier verifies one source: a local file path or an https link
type Verifier interface {
	VerifySource(ctx context.Context, source string) (*model.Response, error)
}

// SourceJob verifies one source
type SourceJob struct {
	Source   string
	Verifier Verifier
}

// Execute runs the verification
func (j *SourceJob) Execute(ctx context.Context) Result {
	resp, err := j.Verifier.VerifySource(ctx, j.Source)
	return &SourceResult{
		Source:   j.Source,
		Response: resp,
		Error:    err,
	}
}

// SourceResult is the outcome for one source
type SourceResult struct {
	Source   string
	Response *model.Response
	Error    error
}

// GetError returns the verification error
func (r *SourceResult) GetError() error {
	return r.Error
}

// BatchProcessor verifies many sources concurrently
type BatchProcessor struct {
	verifier    Verifier
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(verifier Verifier, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		verifier:    verifier,
		concurrency: concurrency,
	}
}

// Process verifies sources and returns one result per source, in input order
func (b *BatchProcessor) Process(ctx context.Context, sources []string) []*SourceResult {
	if len(sources) == 0 {
		return []*SourceResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for _, source := range sources {
		pool.Submit(&SourceJob{
			Source:   source,
			Verifier: b.verifier,
		})
	}

	results := pool.Wait()

	out := make([]*SourceResult, len(results))
	for i, result := range results {
		if result == nil {
			err := ctx.Err()
			if err == nil {
				err = fmt.Errorf("not run")
			}
			out[i] = &SourceResult{Source: sources[i], Error: err}
			continue
		}
		out[i] = result.(*SourceResult)
	}

	return out
}

// ProcessFile reads sources from a list file and verifies them
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*SourceResult, error) {
	sources, err := ReadSourcesFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read sources: %w", err)
	}

	return b.Process(ctx, sources), nil
}

// ReadSourcesFromFile reads one source per line, skipping blanks, #
// comments and duplicates
func ReadSourcesFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var sources []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			sources = append(sources, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return sources, nil
}
