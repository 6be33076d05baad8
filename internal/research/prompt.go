// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"bytes"
	"encoding/json"
	"strings"
	"text/template"

	"github.com/pdiddy/lead-research/pkg/types"
)

// userPrefix precedes the subject name in the user turn.
const userPrefix = "Research this lead thoroughly and return structured JSON: "

// systemPromptTmpl is the fixed research instruction. The schema is
// rendered into it once per orchestrator.
var systemPromptTmpl = template.Must(template.New("system").Parse(`You are a Lead Research Agent. Research companies and people
to gather actionable intelligence for sales and business development.

When researching, look for:
- Official website and social profiles
- Company description and industry
- Size, location, key people
- Recent news and funding
- Tech stack (from job postings, etc.)

Return ONLY valid JSON matching this schema:
{{.Schema}}

Your response must be ONLY the JSON object, nothing else.`))

// renderSchema formats fields as an indented JSON object, keeping their order.
func renderSchema(fields []types.SchemaField) string {
	if len(fields) == 0 {
		return "{}"
	}
	var sb strings.Builder
	sb.WriteString("{\n")
	for i, f := range fields {
		name, _ := json.Marshal(f.Name)
		desc, _ := json.Marshal(f.Description)
		sb.WriteString("  ")
		sb.Write(name)
		sb.WriteString(": ")
		sb.Write(desc)
		if i < len(fields)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("}")
	return sb.String()
}

// renderSystemPrompt executes the system prompt template for fields.
func renderSystemPrompt(fields []types.SchemaField) (string, error) {
	var buf bytes.Buffer
	if err := systemPromptTmpl.Execute(&buf, struct{ Schema string }{Schema: renderSchema(fields)}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// userMessage builds the user turn for subject.
func userMessage(subject string) string {
	return userPrefix + subject
}
