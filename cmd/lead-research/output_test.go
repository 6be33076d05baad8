package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/lead-research/pkg/types"
)

func sampleLead() types.Lead {
	return types.Lead{
		"name":             "Acme & Co",
		"website":          "https://acme.example",
		"tech_stack":       []any{"Go", "Postgres"},
		"confidence_score": json.Number("0.85"),
		"researched_at":    "2026-01-02T03:04:05.000000+00:00",
		"zz_extra":         "kept",
	}
}

func TestValidFormat(t *testing.T) {
	for _, f := range []string{"json", "yaml", "table"} {
		assert.True(t, validFormat(f), f)
	}
	assert.False(t, validFormat("xml"))
	assert.False(t, validFormat(""))
}

func TestWriteResult_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeResult(&buf, formatJSON, types.LeadResult(sampleLead())))

	assert.Contains(t, buf.String(), `"name": "Acme & Co"`, "HTML characters are not escaped")
	out := buf.String()
	assert.Less(t, strings.Index(out, `"name"`), strings.Index(out, `"website"`))
	assert.Less(t, strings.Index(out, `"zz_extra"`), strings.Index(out, `"researched_at"`))
	assert.JSONEq(t, `{
		"name": "Acme & Co",
		"website": "https://acme.example",
		"tech_stack": ["Go", "Postgres"],
		"confidence_score": 0.85,
		"researched_at": "2026-01-02T03:04:05.000000+00:00",
		"zz_extra": "kept"
	}`, buf.String())
}

func TestWriteResult_JSONError(t *testing.T) {
	var buf bytes.Buffer
	r := types.ErrorResult(types.ErrorRateLimit, "Rate limit exceeded after 3 retries. Please try again later.")
	require.NoError(t, writeResult(&buf, formatJSON, r))

	assert.JSONEq(t, `{
		"error": "Rate limit exceeded after 3 retries. Please try again later.",
		"error_type": "rate_limit"
	}`, buf.String())
}

func TestWriteResult_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeResult(&buf, formatYAML, types.LeadResult(sampleLead())))

	out := buf.String()
	assert.Contains(t, out, "confidence_score: 0.85\n")
	assert.Contains(t, out, "zz_extra: kept\n")
	assert.Contains(t, out, "tech_stack:\n  - Go\n  - Postgres\n")
}

func TestWriteResult_Table(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeResult(&buf, formatTable, types.LeadResult(sampleLead())))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 6)

	var keys []string
	for _, l := range lines {
		keys = append(keys, strings.Fields(l)[0])
	}
	assert.Equal(t, []string{"name", "website", "tech_stack", "confidence_score", "zz_extra", "researched_at"}, keys)
	assert.Equal(t, "tech_stack        Go, Postgres", lines[2])
}

func TestWriteResult_TableError(t *testing.T) {
	tests := []struct {
		name string
		rec  types.ErrorRecord
		want string
	}{
		{
			name: "api error",
			rec:  types.ErrorRecord{Message: "API error: boom", Type: types.ErrorAPI},
			want: "error       API error: boom\nerror_type  api_error\n",
		},
		{
			name: "parse error",
			rec:  types.ErrorRecord{Message: "Failed to parse", Type: types.ErrorParse, Raw: "not\njson"},
			want: "error  Failed to parse\nraw    not json\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			rec := tt.rec
			require.NoError(t, writeResult(&buf, formatTable, types.Result{Error: &rec}))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestWriteTable_TruncatesLongValues(t *testing.T) {
	var buf bytes.Buffer
	lead := types.Lead{"description": strings.Repeat("x", 200)}
	require.NoError(t, writeTable(&buf, types.LeadResult(lead)))

	line := strings.TrimSuffix(buf.String(), "\n")
	assert.True(t, strings.HasSuffix(line, "..."))
	assert.Equal(t, len("description")+2+tableValueWidth, len(line))
}
