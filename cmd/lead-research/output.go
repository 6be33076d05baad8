package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/lead-research/pkg/types"
)

const (
	formatJSON  = "json"
	formatYAML  = "yaml"
	formatTable = "table"

	// tableValueWidth caps the value column so long descriptions stay on
	// one terminal line.
	tableValueWidth = 80
)

func validFormat(f string) bool {
	switch f {
	case formatJSON, formatYAML, formatTable:
		return true
	}
	return false
}

// writeResult prints a result in the given format.
func writeResult(w io.Writer, format string, r types.Result) error {
	switch format {
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	case formatTable:
		return writeTable(w, r)
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(r)
	}
}

// writeTable renders a lead as aligned key/value rows in Lead.Keys order.
func writeTable(w io.Writer, r types.Result) error {
	var rows [][2]string
	if r.Error != nil {
		rows = append(rows, [2]string{"error", r.Error.Message})
		if r.Error.Type == types.ErrorParse {
			rows = append(rows, [2]string{"raw", oneLine(r.Error.Raw)})
		} else {
			rows = append(rows, [2]string{"error_type", string(r.Error.Type)})
		}
	} else {
		for _, k := range r.Lead.Keys() {
			rows = append(rows, [2]string{k, oneLine(r.Lead.String(k))})
		}
	}

	keyWidth := 0
	for _, row := range rows {
		keyWidth = max(keyWidth, runewidth.StringWidth(row[0]))
	}
	for _, row := range rows {
		value := runewidth.Truncate(row[1], tableValueWidth, "...")
		if _, err := fmt.Fprintf(w, "%s  %s\n", runewidth.FillRight(row[0], keyWidth), value); err != nil {
			return err
		}
	}
	return nil
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
