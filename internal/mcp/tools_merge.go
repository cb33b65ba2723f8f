package mcp

import (
	"context"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/confq/confq/internal/formats"
	"github.com/confq/confq/internal/yq"
)

// emptyOverlay is what an empty or null overlay document merges as.
const emptyOverlay = "{}"

// handleMerge processes data_merge tool calls. The overlay document is
// re-encoded as JSON and inlined into a `. * overlay` expression evaluated
// against the base file, so yq's deep-merge semantics apply: overlay values
// win, maps merge recursively, arrays replace wholesale.
func (s *Server) handleMerge(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input MergeInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if input.FileA == "" || input.FileB == "" {
		return errorResult(ErrEmptyFile)
	}

	baseFormat, err := s.resolveInputFormat(input.FileA, input.FormatA)
	if err != nil {
		return errorResult(err)
	}

	overlayFormat, err := s.resolveInputFormat(input.FileB, input.FormatB)
	if err != nil {
		return errorResult(err)
	}

	outFormat := baseFormat
	explicitOut := input.OutputFormat != ""

	if explicitOut {
		outFormat, err = formats.Parse(input.OutputFormat)
		if err != nil {
			return errorResult(err)
		}

		err = s.formats.Require(outFormat)
		if err != nil {
			return errorResult(err)
		}
	}

	overlayJSON, err := s.overlayAsJSON(ctx, input.FileB, overlayFormat)
	if err != nil {
		return errorResult(err)
	}

	stdout, outFormat, note, err := s.executeWithFallback(ctx, yq.Request{
		FilePath:     input.FileA,
		Expression:   ". * " + overlayJSON,
		InputFormat:  baseFormat,
		OutputFormat: outFormat,
		Timeout:      s.queryTimeout,
	}, explicitOut)
	if err != nil {
		return errorResult(err)
	}

	return s.pagedResult(ctx, ToolNameMerge, stdout, outFormat, note, input.Cursor, input.PageSize)
}

// overlayAsJSON evaluates the overlay file to a JSON literal suitable for
// inlining into a merge expression. An empty or null document becomes {},
// the merge identity.
func (s *Server) overlayAsJSON(ctx context.Context, file string, format formats.Type) (string, error) {
	result, err := s.backend.Execute(ctx, yq.Request{
		FilePath:     file,
		Expression:   defaultExpression,
		InputFormat:  format,
		OutputFormat: formats.JSON,
		Timeout:      s.queryTimeout,
	})
	if err != nil {
		return "", err
	}

	encoded := strings.TrimSpace(string(result.Stdout))
	if encoded == "" || encoded == "null" {
		return emptyOverlay, nil
	}

	return encoded, nil
}
