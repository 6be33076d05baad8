// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package research turns a subject name into a structured lead record by
// asking the LLM provider to research it with web search.
//
// Every call returns a types.Result holding either a Lead or an
// ErrorRecord; provider and parse failures never surface as Go errors.
package research

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/lead-research/internal/provider"
	"github.com/pdiddy/lead-research/internal/retry"
	"github.com/pdiddy/lead-research/pkg/types"
)

// Orchestrator researches subjects through a provider.Client. It holds no
// per-call state and is safe for concurrent use.
type Orchestrator struct {
	client  provider.Client
	cfg     types.ResearchConfig
	system  string
	retrier retry.Retrier
	log     *zap.Logger
	now     func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

// WithSleeper replaces the backoff wait, mainly for tests.
func WithSleeper(s retry.Sleeper) Option {
	return func(o *Orchestrator) { o.retrier.Sleep = s }
}

// WithClock sets the source of researched_at timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New returns an Orchestrator that calls client. Zero values in cfg take
// their defaults.
func New(client provider.Client, cfg types.ResearchConfig, opts ...Option) *Orchestrator {
	cfg = cfg.WithDefaults()

	// The template is fixed and the schema is static, so rendering cannot fail.
	system, err := renderSystemPrompt(types.LeadSchema)
	if err != nil {
		panic(fmt.Sprintf("rendering system prompt: %v", err))
	}

	o := &Orchestrator{
		client: client,
		cfg:    cfg,
		system: system,
		retrier: retry.Retrier{
			Policy: retry.Policy{
				MaxAttempts:    cfg.Retry.MaxAttempts,
				InitialBackoff: cfg.Retry.InitialBackoff,
			},
			Retryable: provider.IsRateLimit,
		},
		log: zap.NewNop(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Request builds the provider request for subject.
func (o *Orchestrator) Request(subject string) provider.Request {
	return provider.Request{
		Model:     o.cfg.Model,
		MaxTokens: o.cfg.MaxTokens,
		System:    o.system,
		Tools:     []provider.Tool{provider.WebSearchTool(o.cfg.MaxSearchUses)},
		Messages: []provider.Message{
			{Role: "user", Content: userMessage(subject)},
		},
	}
}

// Research looks up subject and returns the parsed lead or an error record.
// Rate limits are retried with exponential backoff; any other provider
// error is returned at once as api_error.
func (o *Orchestrator) Research(ctx context.Context, subject string) types.Result {
	log := o.log.With(zap.String("subject", subject))
	req := o.Request(subject)

	retrier := o.retrier
	retrier.OnRetry = func(attempt int, wait time.Duration, err error) {
		log.Warn("rate limited, retrying",
			zap.Duration("backoff", wait),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", retrier.MaxAttempts),
			zap.Error(err))
	}

	start := o.now()
	resp, err := retry.Do(ctx, retrier, func(ctx context.Context) (*provider.Response, error) {
		return o.client.CreateMessage(ctx, req)
	})
	if err != nil {
		return o.failure(log, err)
	}
	if resp == nil {
		log.Error("provider returned no response")
		return types.ErrorResult(types.ErrorRetryExhausted, "Failed to get response after retries")
	}

	text := provider.Text(resp.Content)
	lead, perr := ParseLead(text, o.now())
	if perr != nil {
		log.Warn("model output is not a JSON object",
			zap.Int("text_len", len(text)),
			zap.String("stop_reason", resp.StopReason))
		return types.Result{Error: perr}
	}

	log.Info("researched lead",
		zap.Duration("elapsed", o.now().Sub(start)),
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens))
	return types.LeadResult(lead)
}

// failure converts a provider call error into an error record.
func (o *Orchestrator) failure(log *zap.Logger, err error) types.Result {
	var exhausted *retry.ExhaustedError
	if errors.As(err, &exhausted) && provider.IsRateLimit(exhausted.Last) {
		log.Error("rate limit retries exhausted", zap.Int("attempts", exhausted.Attempts))
		return types.ErrorResult(types.ErrorRateLimit,
			fmt.Sprintf("Rate limit exceeded after %d retries. Please try again later.", exhausted.Attempts))
	}

	log.Error("provider call failed", zap.Error(err))
	return types.ErrorResult(types.ErrorAPI, "API error: "+err.Error())
}

// ResearchBatch researches subjects one after another and returns one
// result per subject in input order. A failure on one subject does not
// stop the rest.
func (o *Orchestrator) ResearchBatch(ctx context.Context, subjects []string) []types.Result {
	results := make([]types.Result, 0, len(subjects))
	failed := 0
	for i, s := range subjects {
		o.log.Debug("batch item", zap.Int("index", i), zap.Int("total", len(subjects)), zap.String("subject", s))
		r := o.Research(ctx, s)
		if r.IsError() {
			failed++
		}
		results = append(results, r)
	}
	o.log.Info("batch complete", zap.Int("total", len(subjects)), zap.Int("failed", failed))
	return results
}
