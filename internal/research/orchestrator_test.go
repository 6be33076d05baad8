// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/lead-research/internal/provider"
	"github.com/pdiddy/lead-research/pkg/types"
)

// --- fakes ---

// step is one scripted provider reply.
type step struct {
	resp *provider.Response
	err  error
}

// scriptedClient replays steps in order and records every request.
type scriptedClient struct {
	mu       sync.Mutex
	steps    []step
	requests []provider.Request
}

func (c *scriptedClient) CreateMessage(_ context.Context, req provider.Request) (*provider.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, req)
	if len(c.steps) == 0 {
		return nil, errors.New("unexpected call")
	}
	s := c.steps[0]
	c.steps = c.steps[1:]
	return s.resp, s.err
}

func (c *scriptedClient) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}

// subjectClient answers by the subject at the end of the user turn.
type subjectClient map[string]step

func (c subjectClient) CreateMessage(_ context.Context, req provider.Request) (*provider.Response, error) {
	subject := strings.TrimPrefix(req.Messages[0].Content, userPrefix)
	s, ok := c[subject]
	if !ok {
		return nil, errors.New("unknown subject")
	}
	return s.resp, s.err
}

type recordingSleeper struct {
	waits []time.Duration
}

func (s *recordingSleeper) Sleep(_ context.Context, d time.Duration) error {
	s.waits = append(s.waits, d)
	return nil
}

var fixedNow = time.Date(2026, 3, 14, 9, 26, 53, 589793000, time.UTC)

func textResponse(parts ...string) *provider.Response {
	blocks := make([]provider.ContentBlock, 0, len(parts))
	for _, p := range parts {
		blocks = append(blocks, provider.TextBlock{Text: p})
	}
	return &provider.Response{Content: blocks, StopReason: "end_turn"}
}

func rateLimited() step {
	return step{err: &provider.RateLimitError{Message: "rate_limit_error"}}
}

func newTestOrchestrator(client provider.Client, s *recordingSleeper) *Orchestrator {
	return New(client, types.ResearchConfig{}, WithSleeper(s.Sleep), WithClock(func() time.Time { return fixedNow }))
}

// --- Request ---

func TestRequest(t *testing.T) {
	o := New(&scriptedClient{}, types.ResearchConfig{})
	req := o.Request("Acme Corp")

	assert.Equal(t, types.DefaultModel, req.Model)
	assert.Equal(t, 4096, req.MaxTokens)
	require.Len(t, req.Tools, 1)
	assert.Equal(t, provider.WebSearchTool(10), req.Tools[0])
	require.Len(t, req.Messages, 1)
	assert.Equal(t, "user", req.Messages[0].Role)
	assert.Equal(t, "Research this lead thoroughly and return structured JSON: Acme Corp", req.Messages[0].Content)

	assert.Contains(t, req.System, "You are a Lead Research Agent.")
	assert.Contains(t, req.System, `"confidence_score": "number 0-1"`)
	assert.True(t, strings.HasSuffix(req.System, "Your response must be ONLY the JSON object, nothing else."))
}

func TestRequest_ConfigOverrides(t *testing.T) {
	cfg := types.ResearchConfig{
		AIConfig:      types.AIConfig{Model: "other-model", MaxTokens: 1024},
		MaxSearchUses: 3,
	}
	req := New(&scriptedClient{}, cfg).Request("x")
	assert.Equal(t, "other-model", req.Model)
	assert.Equal(t, 1024, req.MaxTokens)
	assert.Equal(t, 3, req.Tools[0].MaxUses)
}

// --- Research ---

func TestResearch_Success(t *testing.T) {
	client := &scriptedClient{steps: []step{{resp: &provider.Response{Content: []provider.ContentBlock{
		provider.ToolUseBlock{Name: "web_search", Server: true},
		provider.WebSearchResultBlock{ToolUseID: "t1"},
		provider.TextBlock{Text: "```json\n{\"name\":\"Acme\",\"confidence_score\":0.85}\n```"},
	}}}}}
	s := &recordingSleeper{}

	r := newTestOrchestrator(client, s).Research(context.Background(), "Acme")

	require.False(t, r.IsError())
	assert.Equal(t, "Acme", r.Lead["name"])
	assert.Equal(t, json.Number("0.85"), r.Lead["confidence_score"])
	assert.Equal(t, "2026-03-14T09:26:53.589793+00:00", r.Lead["researched_at"])
	assert.Equal(t, 1, client.calls())
	assert.Empty(t, s.waits)
}

func TestResearch_BackoffThenSuccess(t *testing.T) {
	client := &scriptedClient{steps: []step{
		rateLimited(),
		rateLimited(),
		{resp: textResponse(`{"name":"Third"}`)},
	}}
	s := &recordingSleeper{}

	r := newTestOrchestrator(client, s).Research(context.Background(), "Acme")

	require.False(t, r.IsError())
	assert.Equal(t, "Third", r.Lead["name"])
	assert.Equal(t, 3, client.calls())
	assert.Equal(t, []time.Duration{5 * time.Second, 10 * time.Second}, s.waits)
}

func TestResearch_RateLimitExhausted(t *testing.T) {
	client := &scriptedClient{steps: []step{rateLimited(), rateLimited(), rateLimited(), {resp: textResponse(`{}`)}}}
	s := &recordingSleeper{}

	r := newTestOrchestrator(client, s).Research(context.Background(), "Acme")

	require.True(t, r.IsError())
	assert.Nil(t, r.Lead)
	assert.Equal(t, types.ErrorRateLimit, r.Error.Type)
	assert.Equal(t, "Rate limit exceeded after 3 retries. Please try again later.", r.Error.Message)
	assert.Equal(t, 3, client.calls())
	assert.Equal(t, []time.Duration{5 * time.Second, 10 * time.Second}, s.waits)
}

func TestResearch_APIErrorNotRetried(t *testing.T) {
	client := &scriptedClient{steps: []step{
		{err: &provider.APIError{StatusCode: 500, Type: "api_error", Message: "Internal server error"}},
		{resp: textResponse(`{}`)},
	}}
	s := &recordingSleeper{}

	r := newTestOrchestrator(client, s).Research(context.Background(), "Acme")

	require.True(t, r.IsError())
	assert.Equal(t, types.ErrorAPI, r.Error.Type)
	assert.Equal(t, "API error: Error code: 500 - api_error: Internal server error", r.Error.Message)
	assert.Equal(t, 1, client.calls())
	assert.Empty(t, s.waits)
}

func TestResearch_APIErrorAfterRateLimit(t *testing.T) {
	client := &scriptedClient{steps: []step{
		rateLimited(),
		{err: &provider.APIError{Message: "Connection error", Err: errors.New("dial tcp: refused")}},
	}}
	s := &recordingSleeper{}

	r := newTestOrchestrator(client, s).Research(context.Background(), "Acme")

	require.True(t, r.IsError())
	assert.Equal(t, types.ErrorAPI, r.Error.Type)
	assert.Equal(t, "API error: Connection error: dial tcp: refused", r.Error.Message)
	assert.Equal(t, []time.Duration{5 * time.Second}, s.waits)
}

func TestResearch_NilResponse(t *testing.T) {
	client := &scriptedClient{steps: []step{{}}}
	r := newTestOrchestrator(client, &recordingSleeper{}).Research(context.Background(), "Acme")

	require.True(t, r.IsError())
	assert.Equal(t, types.ErrorRetryExhausted, r.Error.Type)
	assert.Equal(t, "Failed to get response after retries", r.Error.Message)
}

func TestResearch_ParseFailure(t *testing.T) {
	client := &scriptedClient{steps: []step{{resp: textResponse("garbled not json")}}}
	r := newTestOrchestrator(client, &recordingSleeper{}).Research(context.Background(), "Acme")

	require.True(t, r.IsError())
	assert.Equal(t, types.ErrorParse, r.Error.Type)

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"Failed to parse","raw":"garbled not json"}`, string(data))
}

func TestResearch_OverwritesModelTimestamp(t *testing.T) {
	client := &scriptedClient{steps: []step{{resp: textResponse(`{"name":"Acme","researched_at":"1999-01-01"}`)}}}
	r := newTestOrchestrator(client, &recordingSleeper{}).Research(context.Background(), "Acme")

	require.False(t, r.IsError())
	assert.Equal(t, fixedNow.Format(TimestampLayout), r.Lead["researched_at"])
}

func TestResearch_ContextCancelledDuringBackoff(t *testing.T) {
	client := &scriptedClient{steps: []step{rateLimited(), {resp: textResponse(`{}`)}}}
	ctx, cancel := context.WithCancel(context.Background())

	o := New(client, types.ResearchConfig{}, WithSleeper(func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}))
	r := o.Research(ctx, "Acme")

	require.True(t, r.IsError())
	assert.Equal(t, types.ErrorAPI, r.Error.Type)
	assert.Contains(t, r.Error.Message, "context canceled")
	assert.Equal(t, 1, client.calls())
}

func TestResearch_ExactlyOneShape(t *testing.T) {
	steps := []step{
		{resp: textResponse(`{"name":"A"}`)},
		{resp: textResponse("nope")},
		{err: &provider.APIError{Message: "x"}},
		{},
	}
	for _, st := range steps {
		client := &scriptedClient{steps: []step{st}}
		r := newTestOrchestrator(client, &recordingSleeper{}).Research(context.Background(), "A")

		data, err := json.Marshal(r)
		require.NoError(t, err)
		var m map[string]any
		require.NoError(t, json.Unmarshal(data, &m))

		_, hasError := m["error"]
		_, hasStamp := m["researched_at"]
		assert.NotEqual(t, hasError, hasStamp, "result must be a lead or an error: %s", data)
	}
}

// --- ResearchBatch ---

func TestResearchBatch_ContinuesPastFailure(t *testing.T) {
	client := subjectClient{
		"A": {resp: textResponse(`{"name":"A"}`)},
		"B": {err: &provider.APIError{StatusCode: 400, Message: "bad request"}},
		"C": {resp: textResponse(`{"name":"C"}`)},
	}
	o := newTestOrchestrator(client, &recordingSleeper{})

	results := o.ResearchBatch(context.Background(), []string{"A", "B", "C"})

	require.Len(t, results, 3)
	assert.False(t, results[0].IsError())
	assert.Equal(t, "A", results[0].Lead["name"])
	require.True(t, results[1].IsError())
	assert.Equal(t, types.ErrorAPI, results[1].Error.Type)
	assert.False(t, results[2].IsError())
	assert.Equal(t, "C", results[2].Lead["name"])
}

func TestResearchBatch_Empty(t *testing.T) {
	o := newTestOrchestrator(subjectClient{}, &recordingSleeper{})
	results := o.ResearchBatch(context.Background(), nil)

	require.NotNil(t, results)
	data, err := json.Marshal(types.Batch{Leads: results})
	require.NoError(t, err)
	assert.JSONEq(t, `{"leads":[]}`, string(data))
}

func TestResearchBatch_SequentialOrder(t *testing.T) {
	client := &scriptedClient{steps: []step{
		{resp: textResponse(`{"name":"first"}`)},
		{resp: textResponse(`{"name":"second"}`)},
	}}
	o := newTestOrchestrator(client, &recordingSleeper{})

	results := o.ResearchBatch(context.Background(), []string{"one", "two"})

	require.Len(t, client.requests, 2)
	assert.True(t, strings.HasSuffix(client.requests[0].Messages[0].Content, "one"))
	assert.True(t, strings.HasSuffix(client.requests[1].Messages[0].Content, "two"))
	assert.Equal(t, "first", results[0].Lead["name"])
	assert.Equal(t, "second", results[1].Lead["name"])
}
