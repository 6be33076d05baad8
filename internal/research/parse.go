// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pdiddy/lead-research/pkg/types"
)

const (
	jsonFence  = "```json"
	plainFence = "```"

	// rawLimit caps the model text echoed back on a parse failure, in characters.
	rawLimit = 500

	parseFailedMessage = "Failed to parse"

	// TimestampLayout is ISO-8601 with fixed microsecond precision so that
	// timestamps sort lexically within one offset.
	TimestampLayout = "2006-01-02T15:04:05.000000-07:00"
)

// ExtractJSON locates the JSON payload in model text. A ```json fence
// wins over an unlabeled one; without fences the whole text is used.
// A fence with no closing partner runs to the end of the text. The
// result is trimmed of surrounding whitespace.
func ExtractJSON(text string) string {
	s := text
	if i := strings.Index(text, jsonFence); i >= 0 {
		s = text[i+len(jsonFence):]
		if j := strings.Index(s, plainFence); j >= 0 {
			s = s[:j]
		}
	} else if i := strings.Index(text, plainFence); i >= 0 {
		s = text[i+len(plainFence):]
		if j := strings.Index(s, plainFence); j >= 0 {
			s = s[:j]
		}
	}
	return strings.TrimSpace(s)
}

// decodeObject parses s as exactly one JSON object. Numbers are kept as
// json.Number so they round-trip unchanged.
func decodeObject(s string) (types.Lead, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("trailing data after JSON value")
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("JSON value is %s, not an object", jsonKind(v))
	}
	return types.Lead(obj), nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "an array"
	case string:
		return "a string"
	case json.Number:
		return "a number"
	case bool:
		return "a boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// ParseLead extracts and parses the lead object from model text and
// stamps it with at. On failure it returns a parse ErrorRecord whose Raw
// holds the start of the original text, not the extracted substring.
func ParseLead(text string, at time.Time) (types.Lead, *types.ErrorRecord) {
	lead, err := decodeObject(ExtractJSON(text))
	if err != nil {
		return nil, &types.ErrorRecord{
			Message: parseFailedMessage,
			Type:    types.ErrorParse,
			Raw:     truncate(text, rawLimit),
		}
	}
	lead[types.ResearchedAtField] = at.Format(TimestampLayout)
	return lead, nil
}

// truncate returns the first n characters of s.
func truncate(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
