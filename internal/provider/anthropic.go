// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package provider talks to the hosted LLM. It sends one Messages API
// request per call and returns either the decoded content blocks or a
// typed error (RateLimitError, APIError).
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/lead-research/pkg/types"
)

const (
	messagesPath     = "/v1/messages"
	anthropicVersion = "2023-06-01"

	webSearchToolType = "web_search_20250305"
	webSearchToolName = "web_search"
)

// Client sends a single Messages API request. Implementations hold no
// per-call state and are safe for concurrent use.
type Client interface {
	CreateMessage(ctx context.Context, req Request) (*Response, error)
}

// Request is the body of a Messages API call.
type Request struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Tools     []Tool    `json:"tools,omitempty"`
	Messages  []Message `json:"messages"`
}

// Message is a single turn in the conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Tool describes a tool the model may use.
type Tool struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	MaxUses int    `json:"max_uses,omitempty"`
}

// WebSearchTool returns the server-side web search tool capped at maxUses invocations.
func WebSearchTool(maxUses int) Tool {
	return Tool{Type: webSearchToolType, Name: webSearchToolName, MaxUses: maxUses}
}

// Usage reports token accounting for a response.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Response is a decoded Messages API response.
type Response struct {
	ID         string
	Model      string
	StopReason string
	Content    []ContentBlock
	Usage      Usage
}

// UnmarshalJSON decodes the content array into typed blocks.
func (r *Response) UnmarshalJSON(data []byte) error {
	var wire struct {
		ID         string            `json:"id"`
		Model      string            `json:"model"`
		StopReason string            `json:"stop_reason"`
		Content    []json.RawMessage `json:"content"`
		Usage      Usage             `json:"usage"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	blocks := make([]ContentBlock, 0, len(wire.Content))
	for _, raw := range wire.Content {
		b, err := decodeBlock(raw)
		if err != nil {
			return err
		}
		blocks = append(blocks, b)
	}

	*r = Response{
		ID:         wire.ID,
		Model:      wire.Model,
		StopReason: wire.StopReason,
		Content:    blocks,
		Usage:      wire.Usage,
	}
	return nil
}

// Anthropic calls the Anthropic Messages API over HTTP.
type Anthropic struct {
	APIKey    string
	BaseURL   string
	UserAgent string
	Client    *http.Client
}

// NewAnthropic builds a client from cfg. The returned client is meant to be
// shared for the lifetime of the process.
func NewAnthropic(cfg types.AIConfig) *Anthropic {
	return &Anthropic{
		APIKey:    cfg.APIKey,
		BaseURL:   cfg.BaseURL,
		UserAgent: cfg.UserAgent,
		Client:    &http.Client{Timeout: cfg.Timeout},
	}
}

// CreateMessage sends req and decodes the response.
func (a *Anthropic) CreateMessage(ctx context.Context, req Request) (*Response, error) {
	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return nil, &APIError{Message: "marshaling request", Err: err}
	}

	baseURL := a.BaseURL
	if baseURL == "" {
		baseURL = types.DefaultBaseURL
	}
	url := strings.TrimRight(baseURL, "/") + messagesPath

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, &APIError{Message: "creating request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", a.APIKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)
	if a.UserAgent != "" {
		httpReq.Header.Set("User-Agent", a.UserAgent)
	}

	client := a.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, &APIError{Message: "Connection error", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: "reading response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var env errorEnvelope
		if json.Unmarshal(body, &env) != nil {
			return nil, statusError(resp, nil, body)
		}
		return nil, statusError(resp, &env, body)
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("decoding response (%d bytes)", len(body)), Err: err}
	}
	return &out, nil
}
