package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/confq/confq/internal/formats"
	"github.com/confq/confq/internal/paginate"
	"github.com/confq/confq/internal/yq"
)

// defaultExpression selects the whole document.
const defaultExpression = "."

// tomlFallbackNote explains a silent output-format switch to the caller.
const tomlFallbackNote = "TOML output is limited to scalar-valued documents; result re-encoded as JSON."

// handleQuery processes data_query tool calls.
func (s *Server) handleQuery(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input QueryInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if input.File == "" {
		return errorResult(ErrEmptyFile)
	}

	inFormat, err := s.resolveInputFormat(input.File, input.InputFormat)
	if err != nil {
		return errorResult(err)
	}

	outFormat := inFormat
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

	expression := input.Expression
	if expression == "" {
		expression = defaultExpression
	}

	stdout, outFormat, note, err := s.executeWithFallback(ctx, yq.Request{
		FilePath:     input.File,
		Expression:   expression,
		InputFormat:  inFormat,
		OutputFormat: outFormat,
		Timeout:      s.queryTimeout,
	}, explicitOut)
	if err != nil {
		return errorResult(err)
	}

	return s.pagedResult(ctx, ToolNameQuery, stdout, outFormat, note, input.Cursor, input.PageSize)
}

// resolveInputFormat parses an explicit format name or detects one from the
// file extension, then gates it on the enabled set.
func (s *Server) resolveInputFormat(file, explicit string) (formats.Type, error) {
	var (
		t   formats.Type
		err error
	)

	if explicit != "" {
		t, err = formats.Parse(explicit)
	} else {
		t, err = formats.DetectFile(file)
	}

	if err != nil {
		return "", err
	}

	err = s.formats.Require(t)
	if err != nil {
		return "", err
	}

	return t, nil
}

// executeWithFallback runs the request, retrying once with JSON output when
// TOML encoding rejects a non-scalar document and the caller did not ask for
// TOML explicitly.
func (s *Server) executeWithFallback(
	ctx context.Context, req yq.Request, explicitOut bool,
) ([]byte, formats.Type, string, error) {
	result, err := s.backend.Execute(ctx, req)
	if err == nil {
		return result.Stdout, req.OutputFormat, "", nil
	}

	fallbackable := !explicitOut &&
		req.OutputFormat == formats.TOML &&
		yq.KindOf(err) == yq.KindUnsupportedFormat

	if !fallbackable {
		return nil, "", "", err
	}

	req.OutputFormat = formats.JSON

	result, err = s.backend.Execute(ctx, req)
	if err != nil {
		return nil, "", "", err
	}

	return result.Stdout, formats.JSON, tomlFallbackNote, nil
}

// pagedResult slices stdout into one page and wraps it as a tool result.
func (s *Server) pagedResult(
	ctx context.Context,
	toolName string,
	data []byte,
	format formats.Type,
	note, cursorToken string,
	pageSize int,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	var cursor *paginate.Cursor

	if cursorToken != "" {
		decoded, err := paginate.DecodeCursor(cursorToken)
		if err != nil {
			return errorResult(err)
		}

		cursor = &decoded
	}

	if pageSize <= 0 {
		pageSize = s.pageSize
	}

	page, err := paginate.Page(data, cursor, pageSize)
	if err != nil {
		return errorResult(err)
	}

	if s.metrics != nil {
		s.metrics.RecordPage(ctx, mcpSpanPrefix+toolName)
	}

	output := PagedOutput{
		Result:    string(page.Chunk),
		Format:    string(format),
		TotalSize: page.TotalSize,
		IsLast:    page.IsLast,
		Advisory:  page.Advisory,
		Note:      note,
	}

	if page.NextCursor != nil {
		output.NextCursor = paginate.EncodeCursor(*page.NextCursor)
	}

	return jsonResult(output)
}
