// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"
)

// SchemaField is one entry of the lead schema shown to the model.
type SchemaField struct {
	Name        string
	Description string
}

// LeadSchema lists the fields of a LeadRecord in prompt order. The
// descriptions are advisory; model output is never checked against them.
var LeadSchema = []SchemaField{
	{"name", "string - Official company/person name"},
	{"type", "string - 'company' or 'person'"},
	{"website", "string - Primary website URL"},
	{"description", "string - 2-3 sentence description"},
	{"industry", "string - Primary industry/sector"},
	{"size", "string - 'startup', 'smb', or 'enterprise'"},
	{"location", "string - HQ city, country"},
	{"linkedin", "string | null"},
	{"twitter", "string | null"},
	{"key_people", "array of strings with names and titles"},
	{"recent_news", "array of 2-3 recent headlines"},
	{"tech_stack", "array of known technologies"},
	{"funding", "string | null - funding stage/amount"},
	{"employee_count", "string - estimated range"},
	{"founded", "string | null - year"},
	{"confidence_score", "number 0-1"},
	{"sources", "array of source URLs"},
}

// ResearchedAtField is set by the orchestrator, never taken from the model.
const ResearchedAtField = "researched_at"

// Lead is a parsed LeadRecord. It keeps every key the model emitted,
// including ones outside LeadSchema.
type Lead map[string]any

// String returns the field as display text. Arrays are joined with ", ";
// missing and null fields yield "".
func (l Lead) String(key string) string {
	switch v := l[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case []any:
		parts := make([]string, 0, len(v))
		for _, e := range v {
			parts = append(parts, fmt.Sprint(e))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(v)
	}
}

// Keys returns the lead's keys in output order: LeadSchema fields first,
// then any extra keys sorted, then researched_at.
func (l Lead) Keys() []string {
	keys := make([]string, 0, len(l))
	seen := make(map[string]bool, len(l))
	for _, f := range LeadSchema {
		if _, ok := l[f.Name]; ok {
			keys = append(keys, f.Name)
			seen[f.Name] = true
		}
	}
	seen[ResearchedAtField] = true

	var extra []string
	for k := range l {
		if !seen[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	keys = append(keys, extra...)

	if _, ok := l[ResearchedAtField]; ok {
		keys = append(keys, ResearchedAtField)
	}
	return keys
}

// MarshalJSON writes the lead's keys in Keys order without HTML escaping.
func (l Lead) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range l.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalJSON(k)
		if err != nil {
			return nil, err
		}
		val, err := marshalJSON(l[k])
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", k, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML writes the lead as a mapping in Keys order.
func (l Lead) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range l.Keys() {
		var val yaml.Node
		if err := val.Encode(yamlValue(l[k])); err != nil {
			return nil, fmt.Errorf("field %s: %w", k, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			&val,
		)
	}
	return node, nil
}

// marshalJSON is json.Marshal without HTML escaping.
func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// ErrorType classifies an ErrorRecord.
type ErrorType string

const (
	ErrorRateLimit      ErrorType = "rate_limit"
	ErrorAPI            ErrorType = "api_error"
	ErrorRetryExhausted ErrorType = "retry_exhausted"

	// ErrorParse marks model output that held no valid JSON object. It is
	// not written to the wire; parse failures carry "raw" instead.
	ErrorParse ErrorType = "parse_error"
)

// ErrorRecord is the failure shape of a research call.
type ErrorRecord struct {
	Message string
	Type    ErrorType

	// Raw holds the start of the model's text for parse failures.
	Raw string
}

// MarshalJSON writes {error, error_type} for provider failures and
// {error, raw} for parse failures.
func (e ErrorRecord) MarshalJSON() ([]byte, error) {
	if e.Type == ErrorParse {
		return marshalJSON(struct {
			Error string `json:"error"`
			Raw   string `json:"raw"`
		}{e.Message, e.Raw})
	}
	return marshalJSON(struct {
		Error     string    `json:"error"`
		ErrorType ErrorType `json:"error_type"`
	}{e.Message, e.Type})
}

// MarshalYAML mirrors MarshalJSON.
func (e ErrorRecord) MarshalYAML() (any, error) {
	if e.Type == ErrorParse {
		return map[string]string{"error": e.Message, "raw": e.Raw}, nil
	}
	return map[string]string{"error": e.Message, "error_type": string(e.Type)}, nil
}

// Result holds exactly one of a Lead or an ErrorRecord.
type Result struct {
	Lead  Lead
	Error *ErrorRecord
}

// LeadResult wraps a successful lead.
func LeadResult(l Lead) Result { return Result{Lead: l} }

// ErrorResult wraps a failure.
func ErrorResult(t ErrorType, msg string) Result {
	return Result{Error: &ErrorRecord{Message: msg, Type: t}}
}

// IsError reports whether the result is an ErrorRecord.
func (r Result) IsError() bool { return r.Error != nil }

// MarshalJSON writes whichever record the result holds.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.Error != nil {
		return r.Error.MarshalJSON()
	}
	return r.Lead.MarshalJSON()
}

// MarshalYAML writes whichever record the result holds.
func (r Result) MarshalYAML() (any, error) {
	if r.Error != nil {
		return r.Error.MarshalYAML()
	}
	return r.Lead.MarshalYAML()
}

// yamlValue converts json.Number values so YAML emits them as numbers
// rather than quoted strings.
func yamlValue(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = yamlValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = yamlValue(e)
		}
		return out
	default:
		return v
	}
}

// Batch is the response body for multi-subject research.
type Batch struct {
	Leads []Result `json:"leads" yaml:"leads"`
}
