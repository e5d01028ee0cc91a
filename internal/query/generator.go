// Package query turns a claim into a handful of web search queries.
package query

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/ckwokli/pws/internal/llm"
	"github.com/ckwokli/pws/internal/model"
	"github.com/ckwokli/pws/internal/poller"
	"github.com/ckwokli/pws/internal/pws"
	"github.com/ckwokli/pws/internal/validate"
)

const (
	maxQueries    = 5
	maxQueryChars = 200
)

const instructions = `Produce 3-5 diversified web search queries that would best verify the following factual claim.
Mix entity, synonym, and context terms; include location or timeframe if implied.
Avoid quotes and avoid overly long queries. Keep each under 120 characters.
Return only JSON matching the output_schema. No prose.
`

// outputSchema constrains the task output to {"queries": [3..5 strings]}
var outputSchema = validate.MustCompileOutputSchema(`{
  "type": "object",
  "properties": {
    "queries": {
      "type": "array",
      "items": {"type": "string"},
      "minItems": 3,
      "maxItems": 5
    }
  },
  "required": ["queries"],
  "additionalProperties": false
}`)

// TaskRunner runs a task to completion
type TaskRunner interface {
	RunTask(ctx context.Context, req pws.TaskRunRequest, maxWait time.Duration) (poller.Outcome[pws.TaskRun], error)
}

// Generator produces search queries for claims. With an LLM provider set it
// asks the chat backend; otherwise it submits a task run.
type Generator struct {
	tasks     TaskRunner
	provider  llm.Provider
	processor string
	maxWait   time.Duration
}

// NewGenerator creates a Generator. provider may be nil.
func NewGenerator(tasks TaskRunner, provider llm.Provider, cfg model.QueryConfig) *Generator {
	return &Generator{
		tasks:     tasks,
		provider:  provider,
		processor: cfg.Processor,
		maxWait:   cfg.MaxWait,
	}
}

// Prompt returns the instruction text for claim
func Prompt(claim string) string {
	return instructions + "\nClaim: " + claim
}

// Generate returns 1 to 5 queries for claim. It never fails: any backend
// error or empty answer yields the claim itself as the only query. A blank
// claim is returned as-is without contacting a backend.
func (g *Generator) Generate(ctx context.Context, claim string) []string {
	if strings.TrimSpace(claim) == "" {
		return []string{claim}
	}
	claim = strings.TrimSpace(claim)

	var (
		raw json.RawMessage
		err error
	)
	if g.provider != nil {
		raw, err = g.fromProvider(ctx, claim)
	} else {
		raw, err = g.fromTask(ctx, claim)
	}
	if err != nil {
		log.Printf("query: generation failed: backend=%s err=%v", g.backend(), err)
		return []string{claim}
	}

	queries := Clean(decodeQueries(raw))
	if len(queries) == 0 {
		return []string{claim}
	}
	return queries
}

func (g *Generator) backend() string {
	if g.provider != nil {
		return g.provider.Name()
	}
	return "task"
}

func (g *Generator) fromTask(ctx context.Context, claim string) (json.RawMessage, error) {
	if g.tasks == nil {
		return nil, nil
	}

	req := pws.NewTaskRunRequest(Prompt(claim), g.processor, outputSchema.Raw())
	outcome, err := g.tasks.RunTask(ctx, req, g.maxWait)
	if err != nil {
		return nil, err
	}
	if outcome.State != poller.StateCompleted {
		log.Printf("query: task did not complete: state=%s run_id=%s", outcome.State, outcome.ID)
		return nil, nil
	}

	if content := outcome.Result.Content(); content != nil {
		return content, nil
	}
	return outcome.Result.Payload(), nil
}

func (g *Generator) fromProvider(ctx context.Context, claim string) (json.RawMessage, error) {
	resp, err := g.provider.Complete(ctx, llm.CompletionRequest{
		System: "You write web search queries. Respond with a single JSON object.",
		Prompt: Prompt(claim) + "\nSchema: " + string(outputSchema.Raw()),
		JSON:   true,
	})
	if err != nil {
		return nil, err
	}

	obj := llm.ExtractJSONObject(resp.Content)
	if obj == "" {
		return nil, nil
	}
	if err := outputSchema.Validate([]byte(obj)); err != nil {
		log.Printf("query: provider output off schema: provider=%s err=%v", g.provider.Name(), err)
	}
	return json.RawMessage(obj), nil
}

// decodeQueries reads a queries array from raw. A JSON string holding an
// object is unwrapped once.
func decodeQueries(raw json.RawMessage) []any {
	if len(raw) == 0 {
		return nil
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		raw = json.RawMessage(llm.ExtractJSONObject(text))
	}

	var out struct {
		Queries []any `json:"queries"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out.Queries
}

// Clean trims each query, drops empty, non-string and over-long entries,
// and keeps at most 5.
func Clean(raw []any) []string {
	cleaned := make([]string, 0, maxQueries)
	for _, v := range raw {
		q, ok := v.(string)
		if !ok {
			continue
		}
		q = strings.TrimSpace(q)
		if q == "" || len([]rune(q)) > maxQueryChars {
			continue
		}
		cleaned = append(cleaned, q)
		if len(cleaned) == maxQueries {
			break
		}
	}
	return cleaned
}
