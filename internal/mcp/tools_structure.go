package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/confq/confq/internal/formats"
	"github.com/confq/confq/internal/paginate"
	"github.com/confq/confq/internal/yq"
)

// StructureOutput is the structured payload of the data_structure tool.
type StructureOutput struct {
	File    string `json:"file"`
	Format  string `json:"format"`
	Summary any    `json:"summary"`
}

// handleStructure processes data_structure tool calls. The selected subtree
// is always fetched as JSON from the engine regardless of input format, so
// one decoder covers every source.
func (s *Server) handleStructure(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input StructureInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if input.File == "" {
		return errorResult(ErrEmptyFile)
	}

	inFormat, err := s.resolveInputFormat(input.File, input.InputFormat)
	if err != nil {
		return errorResult(err)
	}

	expression := input.Expression
	if expression == "" {
		expression = defaultExpression
	}

	result, err := s.backend.Execute(ctx, yq.Request{
		FilePath:     input.File,
		Expression:   expression,
		InputFormat:  inFormat,
		OutputFormat: formats.JSON,
		Timeout:      s.queryTimeout,
	})
	if err != nil {
		return errorResult(err)
	}

	doc, err := formats.Decode(result.Stdout, formats.JSON)
	if err != nil {
		return errorResult(fmt.Errorf("decode engine output: %w", err))
	}

	summary := paginate.Summarize(doc, paginate.SummaryOptions{
		MaxDepth: input.MaxDepth,
		FullKeys: input.FullKeys,
	})

	return jsonResult(StructureOutput{
		File:    input.File,
		Format:  string(inFormat),
		Summary: summary,
	})
}
