package pws

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/ckwokli/pws/internal/poller"
)

const maxTaskInputRunes = 4000

// TaskSpec carries an optional JSON Schema for the task output
type TaskSpec struct {
	OutputSchema json.RawMessage `json:"output_schema,omitempty"`
}

// TaskRunRequest is the body of POST /v1/tasks/runs
type TaskRunRequest struct {
	Input     string    `json:"input"`
	Processor string    `json:"processor"`
	TaskSpec  *TaskSpec `json:"task_spec,omitempty"`
}

// TaskRunInfo is the nested run object some responses carry
type TaskRunInfo struct {
	RunID  string `json:"run_id,omitempty"`
	Status string `json:"status,omitempty"`
}

// TaskRun is both the creation answer and the result answer of a task run
type TaskRun struct {
	RunID     string          `json:"run_id,omitempty"`
	ID        string          `json:"id,omitempty"`
	RunIDAlt  string          `json:"runId,omitempty"`
	Status    string          `json:"status,omitempty"`
	Run       *TaskRunInfo    `json:"run,omitempty"`
	Output    json.RawMessage `json:"output,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	CreatedAt string          `json:"created_at,omitempty"`
}

// Identifier returns the first non-empty of run_id, id, runId
func (t TaskRun) Identifier() string {
	switch {
	case t.RunID != "":
		return t.RunID
	case t.ID != "":
		return t.ID
	case t.RunIDAlt != "":
		return t.RunIDAlt
	case t.Run != nil:
		return t.Run.RunID
	}
	return ""
}

// State returns the lowercased run status
func (t TaskRun) State() string {
	status := t.Status
	if status == "" && t.Run != nil {
		status = t.Run.Status
	}
	return strings.ToLower(strings.TrimSpace(status))
}

// IsTerminal reports a finished run. Failed and cancelled runs are terminal
// so that polling stops instead of waiting out the deadline.
func (t TaskRun) IsTerminal() bool {
	switch t.State() {
	case "completed", "failed", "cancelled", "canceled":
		return true
	}
	return false
}

// Payload returns the first present of output, data, result
func (t TaskRun) Payload() json.RawMessage {
	for _, raw := range []json.RawMessage{t.Output, t.Data, t.Result} {
		if present(raw) {
			return raw
		}
	}
	return nil
}

// Content returns output.content when present, otherwise the whole output
func (t TaskRun) Content() json.RawMessage {
	if !present(t.Output) {
		return nil
	}
	var wrapper struct {
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(t.Output, &wrapper); err == nil && present(wrapper.Content) {
		return wrapper.Content
	}
	return t.Output
}

// Basis returns output.basis, or an empty JSON array
func (t TaskRun) Basis() json.RawMessage {
	var wrapper struct {
		Basis json.RawMessage `json:"basis"`
	}
	if present(t.Output) {
		if err := json.Unmarshal(t.Output, &wrapper); err == nil && present(wrapper.Basis) {
			return wrapper.Basis
		}
	}
	return json.RawMessage("[]")
}

func present(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// NewTaskRunRequest builds a run request; input is cut to 4000 runes
func NewTaskRunRequest(input, processor string, outputSchema json.RawMessage) TaskRunRequest {
	req := TaskRunRequest{
		Input:     truncateRunes(input, maxTaskInputRunes),
		Processor: processor,
	}
	if present(outputSchema) {
		req.TaskSpec = &TaskSpec{OutputSchema: outputSchema}
	}
	return req
}

// CreateTaskRun submits a task run
func (c *Client) CreateTaskRun(ctx context.Context, req TaskRunRequest) (TaskRun, error) {
	var run TaskRun
	err := c.doJSON(ctx, http.MethodPost, "/v1/tasks/runs", req, &run, c.jobLimits())
	return run, err
}

// GetTaskResult fetches the current result of a run
func (c *Client) GetTaskResult(ctx context.Context, runID string) (TaskRun, error) {
	var run TaskRun
	err := c.doJSON(ctx, http.MethodGet, "/v1/tasks/runs/"+pathID(runID)+"/result", nil, &run, c.jobLimits())
	if err == nil && run.Identifier() == "" {
		run.RunID = runID
	}
	return run, err
}

// RunTask submits a run and polls it until it finishes or maxWait elapses.
// A zero maxWait uses jobs.max_wait.
func (c *Client) RunTask(ctx context.Context, req TaskRunRequest, maxWait time.Duration) (poller.Outcome[TaskRun], error) {
	if maxWait <= 0 {
		maxWait = c.cfg.Jobs.MaxWait
	}

	return poller.Run(ctx, poller.Config{
		Interval: c.cfg.Jobs.TaskPollInterval,
		MaxWait:  maxWait,
		Retry:    c.jobPolicy(),
	}, poller.Job[TaskRun]{
		Name: "task run",
		Submit: func(ctx context.Context) (TaskRun, error) {
			return c.CreateTaskRun(ctx, req)
		},
		Poll:       c.GetTaskResult,
		ExtractID:  TaskRun.Identifier,
		IsTerminal: TaskRun.IsTerminal,
	})
}

// RunDeepResearch runs input on the deep research processor
func (c *Client) RunDeepResearch(ctx context.Context, input string) (poller.Outcome[TaskRun], error) {
	return c.RunTask(ctx, NewTaskRunRequest(input, c.cfg.Jobs.DeepResearchProcessor, nil), 0)
}
