package query

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ckwokli/pws/internal/llm"
	"github.com/ckwokli/pws/internal/model"
	"github.com/ckwokli/pws/internal/poller"
	"github.com/ckwokli/pws/internal/pws"
)

type fakeTasks struct {
	outcome poller.Outcome[pws.TaskRun]
	err     error
	calls   int
	lastReq pws.TaskRunRequest
	lastMax time.Duration
}

func (f *fakeTasks) RunTask(_ context.Context, req pws.TaskRunRequest, maxWait time.Duration) (poller.Outcome[pws.TaskRun], error) {
	f.calls++
	f.lastReq = req
	f.lastMax = maxWait
	return f.outcome, f.err
}

func completed(output string) poller.Outcome[pws.TaskRun] {
	return poller.Outcome[pws.TaskRun]{
		State:  poller.StateCompleted,
		ID:     "run_1",
		Result: pws.TaskRun{RunID: "run_1", Status: "completed", Output: json.RawMessage(output)},
	}
}

type fakeProvider struct {
	content string
	err     error
	lastReq llm.CompletionRequest
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.lastReq = req
	if p.err != nil {
		return nil, p.err
	}
	return &llm.CompletionResponse{Content: p.content}, nil
}

var queryConfig = model.QueryConfig{Processor: "base", MaxWait: 90 * time.Second}

func TestGenerate_TaskBackend(t *testing.T) {
	tasks := &fakeTasks{outcome: completed(`{"content":{"queries":["eiffel tower height"," eiffel tower 330 m ","","paris landmark height"]}}`)}
	g := NewGenerator(tasks, nil, queryConfig)

	got := g.Generate(context.Background(), "The Eiffel Tower is 330 metres tall.")

	want := []string{"eiffel tower height", "eiffel tower 330 m", "paris landmark height"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("Generate() = %q, want %q", got, want)
	}

	if tasks.lastMax != 90*time.Second {
		t.Errorf("maxWait = %v, want 90s", tasks.lastMax)
	}
	if tasks.lastReq.Processor != "base" {
		t.Errorf("Processor = %q, want base", tasks.lastReq.Processor)
	}
	if tasks.lastReq.TaskSpec == nil || !strings.Contains(string(tasks.lastReq.TaskSpec.OutputSchema), `"queries"`) {
		t.Errorf("TaskSpec = %+v, want queries output schema", tasks.lastReq.TaskSpec)
	}
	if !strings.HasSuffix(tasks.lastReq.Input, "Claim: The Eiffel Tower is 330 metres tall.") {
		t.Errorf("Input does not end with the claim: %q", tasks.lastReq.Input)
	}
}

func TestGenerate_FallsBackToClaim(t *testing.T) {
	claim := "Water boils at 100 degrees Celsius at sea level."

	tests := []struct {
		name  string
		tasks *fakeTasks
	}{
		{"task error", &fakeTasks{err: errors.New("upstream 500")}},
		{"timed out", &fakeTasks{outcome: poller.Outcome[pws.TaskRun]{State: poller.StateTimedOut, ID: "run_1"}}},
		{"empty queries", &fakeTasks{outcome: completed(`{"queries":[]}`)}},
		{"not json", &fakeTasks{outcome: completed(`"sorry"`)}},
		{"all too long", &fakeTasks{outcome: completed(`{"queries":["` + strings.Repeat("x", 201) + `"]}`)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewGenerator(tt.tasks, nil, queryConfig).Generate(context.Background(), claim)
			if len(got) != 1 || got[0] != claim {
				t.Errorf("Generate() = %q, want [claim]", got)
			}
		})
	}
}

func TestGenerate_EmptyClaim(t *testing.T) {
	tasks := &fakeTasks{}
	got := NewGenerator(tasks, nil, queryConfig).Generate(context.Background(), "   ")

	if len(got) != 1 || got[0] != "   " {
		t.Errorf("Generate(blank) = %#v, want the claim as the only query", got)
	}
	if tasks.calls != 0 {
		t.Errorf("RunTask called %d times for empty claim", tasks.calls)
	}
}

func TestGenerate_ProviderBackend(t *testing.T) {
	provider := &fakeProvider{content: "```json\n{\"queries\":[\"a\",\"b\",\"c\",\"d\",\"e\",\"f\"]}\n```"}
	tasks := &fakeTasks{}
	g := NewGenerator(tasks, provider, queryConfig)

	got := g.Generate(context.Background(), "Some claim about things.")

	if len(got) != 5 {
		t.Errorf("Generate() returned %d queries, want 5", len(got))
	}
	if tasks.calls != 0 {
		t.Error("task backend used while a provider is configured")
	}
	if !provider.lastReq.JSON {
		t.Error("provider request should ask for JSON")
	}
}

func TestGenerate_ProviderError(t *testing.T) {
	provider := &fakeProvider{err: errors.New("rate limited")}
	got := NewGenerator(nil, provider, queryConfig).Generate(context.Background(), "claim text")

	if len(got) != 1 || got[0] != "claim text" {
		t.Errorf("Generate() = %q, want [claim text]", got)
	}
}

func TestClean(t *testing.T) {
	got := Clean([]any{" a ", 7, "", "b", nil, strings.Repeat("y", 200), "c", "d", "e"})

	if len(got) != 5 {
		t.Fatalf("Clean() len = %d, want 5: %q", len(got), got)
	}
	if got[0] != "a" || got[2] != strings.Repeat("y", 200) {
		t.Errorf("Clean() = %q", got)
	}
}

func TestDecodeQueries_StringWrapped(t *testing.T) {
	raw := json.RawMessage(`"{\"queries\":[\"x\",\"y\",\"z\"]}"`)
	if got := decodeQueries(raw); len(got) != 3 {
		t.Errorf("decodeQueries() = %v, want 3 entries", got)
	}
}
