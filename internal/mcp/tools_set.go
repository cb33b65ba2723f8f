package mcp

import (
	"context"
	"encoding/json"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/confq/confq/internal/yq"
)

// Mutation action names reported in data_set results.
const (
	actionSet    = "set"
	actionDelete = "delete"
)

// SetOutput is the structured payload of the data_set tool.
type SetOutput struct {
	File   string `json:"file"`
	Path   string `json:"path"`
	Action string `json:"action"`
	Format string `json:"format"`
}

// handleSet processes data_set tool calls. The file is rewritten in place
// through the engine, so the mutation inherits yq's formatting rather than
// preserving the original byte layout.
func (s *Server) handleSet(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input SetInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if input.File == "" {
		return errorResult(ErrEmptyFile)
	}

	if strings.TrimSpace(input.Path) == "" {
		return errorResult(ErrEmptyPath)
	}

	format, err := s.resolveInputFormat(input.File, input.InputFormat)
	if err != nil {
		return errorResult(err)
	}

	path := normalizeKeyPath(input.Path)

	var expression, action string

	if input.Delete {
		expression = "del(" + path + ")"
		action = actionDelete
	} else {
		if input.Value == "" {
			return errorResult(ErrEmptyValue)
		}

		if !json.Valid([]byte(input.Value)) {
			return errorResult(ErrInvalidValue)
		}

		expression = path + " = " + input.Value
		action = actionSet
	}

	_, err = s.backend.Execute(ctx, yq.Request{
		FilePath:     input.File,
		Expression:   expression,
		InputFormat:  format,
		OutputFormat: format,
		InPlace:      true,
		Timeout:      s.queryTimeout,
	})
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(SetOutput{
		File:   input.File,
		Path:   path,
		Action: action,
		Format: string(format),
	})
}

// normalizeKeyPath turns a bare dotted key path into a yq path expression.
// Paths already starting with "." pass through untouched.
func normalizeKeyPath(path string) string {
	path = strings.TrimSpace(path)
	if strings.HasPrefix(path, ".") {
		return path
	}

	return "." + path
}
