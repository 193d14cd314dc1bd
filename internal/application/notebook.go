package application

import (
	"encoding/json"
	"fmt"
	"strings"
)

// notebookDocument is the subset of the Jupyter notebook format (v4) needed
// to flatten a notebook into review input.
type notebookDocument struct {
	Cells []notebookCell `json:"cells"`
}

type notebookCell struct {
	CellType string `json:"cell_type"`
	// Source is either a single string or an array of line strings.
	Source json.RawMessage `json:"source"`
}

// FlattenNotebook extracts the markdown and code cell sources from a raw
// .ipynb document, dropping outputs, attachments, and raw cells, and returns
// the flattened text together with a rough token estimate (one token per four
// characters). An empty input flattens to empty text. Invalid notebook JSON
// is an error: the caller decides how to surface it.
func FlattenNotebook(raw string) (string, int, error) {
	if raw == "" {
		return "", 0, nil
	}

	var nb notebookDocument
	if err := json.Unmarshal([]byte(raw), &nb); err != nil {
		return "", 0, fmt.Errorf("parse notebook: %w", err)
	}

	var chunks []string
	for _, cell := range nb.Cells {
		switch cell.CellType {
		case "markdown", "code":
			chunks = append(chunks, cellSource(cell.Source))
		}
	}

	text := strings.TrimSpace(strings.Join(chunks, "\n\n"))
	return text, len(text) / 4, nil
}

// cellSource decodes a notebook cell source, which the format allows to be
// either one string or a list of line strings.
func cellSource(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return single
	}

	var lines []string
	if err := json.Unmarshal(raw, &lines); err == nil {
		return strings.Join(lines, "")
	}

	return ""
}
