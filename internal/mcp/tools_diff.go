package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/confq/confq/internal/formats"
)

// DiffOutput is the structured payload of the data_diff tool.
type DiffOutput struct {
	FileA string `json:"file_a"`
	FileB string `json:"file_b"`
	Equal bool   `json:"equal"`
	Diff  string `json:"diff,omitempty"`
}

// handleDiff processes data_diff tool calls. Both documents are decoded and
// re-encoded as canonical JSON, so formatting, comments, and key order never
// show up as differences; only data does.
func (s *Server) handleDiff(
	_ context.Context,
	_ *mcpsdk.CallToolRequest,
	input DiffInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if input.FileA == "" || input.FileB == "" {
		return errorResult(ErrEmptyFile)
	}

	left, err := s.canonicalJSON(input.FileA, input.FormatA)
	if err != nil {
		return errorResult(err)
	}

	right, err := s.canonicalJSON(input.FileB, input.FormatB)
	if err != nil {
		return errorResult(err)
	}

	output := DiffOutput{
		FileA: input.FileA,
		FileB: input.FileB,
		Equal: left == right,
	}

	if !output.Equal {
		output.Diff = renderLineDiff(left, right)
	}

	return jsonResult(output)
}

// canonicalJSON reads, decodes, normalizes, and re-encodes one file.
// encoding/json sorts map keys, which is what makes the output canonical.
func (s *Server) canonicalJSON(file, explicit string) (string, error) {
	format, err := s.resolveInputFormat(file, explicit)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", file, err)
	}

	doc, err := formats.Decode(data, format)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", file, err)
	}

	encoded, err := json.MarshalIndent(normalizeKeys(doc), "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", file, err)
	}

	return string(encoded), nil
}

// normalizeKeys rewrites decoder-specific containers into JSON-encodable
// ones. yaml.v3 yields map[string]any for string-keyed mappings but
// map[any]any otherwise, and encoding/json rejects the latter.
func normalizeKeys(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[k] = normalizeKeys(child)
		}

		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[fmt.Sprintf("%v", k)] = normalizeKeys(child)
		}

		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = normalizeKeys(child)
		}

		return out
	default:
		return v
	}
}

// renderLineDiff produces a line-oriented diff with -/+ prefixes.
func renderLineDiff(left, right string) string {
	dmp := diffmatchpatch.New()

	leftRunes, rightRunes, lines := dmp.DiffLinesToRunes(left, right)
	diffs := dmp.DiffCharsToLines(dmp.DiffMainRunes(leftRunes, rightRunes, false), lines)

	var sb strings.Builder

	for _, d := range diffs {
		prefix := "  "

		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		case diffmatchpatch.DiffEqual:
		}

		for line := range strings.Lines(d.Text) {
			sb.WriteString(prefix)
			sb.WriteString(strings.TrimRight(line, "\n"))
			sb.WriteByte('\n')
		}
	}

	return sb.String()
}
