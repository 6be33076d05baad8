// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Content block type tags used by the Messages API.
const (
	blockText            = "text"
	blockToolUse         = "tool_use"
	blockServerToolUse   = "server_tool_use"
	blockWebSearchResult = "web_search_tool_result"
)

// ContentBlock is one element of a response's content array. The set of
// implementations is closed: TextBlock, ToolUseBlock, WebSearchResultBlock
// and UnknownBlock.
type ContentBlock interface {
	BlockType() string
	isContentBlock()
}

// TextBlock carries model-written text.
type TextBlock struct {
	Text string `json:"text"`
}

// ToolUseBlock echoes a tool invocation. Server is true for tools the
// provider runs itself, such as web search.
type ToolUseBlock struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Input  json.RawMessage `json:"input"`
	Server bool            `json:"-"`
}

// WebSearchResultBlock holds the provider's web-search results for one tool call.
type WebSearchResultBlock struct {
	ToolUseID string          `json:"tool_use_id"`
	Content   json.RawMessage `json:"content"`
}

// UnknownBlock preserves a block of a type this client does not model.
type UnknownBlock struct {
	Type string
	Raw  json.RawMessage
}

func (TextBlock) BlockType() string { return blockText }

func (b ToolUseBlock) BlockType() string {
	if b.Server {
		return blockServerToolUse
	}
	return blockToolUse
}

func (WebSearchResultBlock) BlockType() string { return blockWebSearchResult }
func (b UnknownBlock) BlockType() string       { return b.Type }

func (TextBlock) isContentBlock()            {}
func (ToolUseBlock) isContentBlock()         {}
func (WebSearchResultBlock) isContentBlock() {}
func (UnknownBlock) isContentBlock()         {}

// decodeBlock dispatches on the "type" field of a raw content block.
func decodeBlock(raw json.RawMessage) (ContentBlock, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("decoding content block: %w", err)
	}

	switch head.Type {
	case blockText:
		var b TextBlock
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, fmt.Errorf("decoding text block: %w", err)
		}
		return b, nil
	case blockToolUse, blockServerToolUse:
		var b ToolUseBlock
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, fmt.Errorf("decoding %s block: %w", head.Type, err)
		}
		b.Server = head.Type == blockServerToolUse
		return b, nil
	case blockWebSearchResult:
		var b WebSearchResultBlock
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, fmt.Errorf("decoding web search result block: %w", err)
		}
		return b, nil
	default:
		return UnknownBlock{Type: head.Type, Raw: append(json.RawMessage(nil), raw...)}, nil
	}
}

// Text concatenates the payload of every TextBlock in order. All other
// block kinds are skipped.
func Text(blocks []ContentBlock) string {
	var sb strings.Builder
	for _, b := range blocks {
		if t, ok := b.(TextBlock); ok {
			sb.WriteString(t.Text)
		}
	}
	return sb.String()
}
