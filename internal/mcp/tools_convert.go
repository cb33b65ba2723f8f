package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/confq/confq/internal/formats"
	"github.com/confq/confq/internal/yq"
)

// handleConvert processes data_convert tool calls. Conversion is a query
// with an explicit target encoding; TOML targets fail on non-scalar
// documents rather than silently switching format.
func (s *Server) handleConvert(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input ConvertInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if input.File == "" {
		return errorResult(ErrEmptyFile)
	}

	if input.To == "" {
		return errorResult(ErrEmptyTarget)
	}

	inFormat, err := s.resolveInputFormat(input.File, input.From)
	if err != nil {
		return errorResult(err)
	}

	outFormat, err := formats.Parse(input.To)
	if err != nil {
		return errorResult(err)
	}

	err = s.formats.Require(outFormat)
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
		OutputFormat: outFormat,
		Timeout:      s.queryTimeout,
	})
	if err != nil {
		return errorResult(err)
	}

	return s.pagedResult(ctx, ToolNameConvert, result.Stdout, outFormat, "", input.Cursor, input.PageSize)
}
